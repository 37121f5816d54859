package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/fitstack/coach-web-ui/internal/handlers"
	"github.com/fitstack/coach-web-ui/internal/history"
	"github.com/fitstack/coach-web-ui/internal/models"
)

type mockGenerator struct {
	fragments []string

	// block, when set, delays the generator until the channel is closed, so
	// tests can observe the in-flight streaming state.
	block chan struct{}
}

func (m *mockGenerator) Generate(_ context.Context, _ []models.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if m.block != nil {
			<-m.block
		}
		for _, fragment := range m.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

func newTestServer(t *testing.T, gen chat.Generator) (*chat.Store, *http.ServeMux) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := chat.NewStore(logger)
	m := handlers.NewMain(store, gen, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/history", m.HandleHistory)
	mux.HandleFunc("POST /api/conversations", m.HandleCreateConversation)
	mux.HandleFunc("DELETE /api/conversations", m.HandleClearConversations)
	mux.HandleFunc("GET /api/conversations/{id}", m.HandleGetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", m.HandleDeleteConversation)
	mux.HandleFunc("POST /api/conversations/{id}/rename", m.HandleRenameConversation)
	mux.HandleFunc("POST /api/conversations/{id}/pin", m.HandlePinConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", m.HandleSendMessage)
	mux.HandleFunc("POST /api/conversations/{id}/messages/{messageID}/reaction", m.HandleReactToMessage)
	mux.HandleFunc("PATCH /api/conversations/{id}/messages/{messageID}", m.HandleEditMessage)
	mux.HandleFunc("DELETE /api/conversations/{id}/messages/{messageID}", m.HandleDeleteMessage)
	mux.HandleFunc("PUT /api/model", m.HandleSetModel)

	t.Cleanup(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})

	return store, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHandleCreateConversation(t *testing.T) {
	store, mux := newTestServer(t, &mockGenerator{})

	w := doJSON(t, mux, http.MethodPost, "/api/conversations", `{"prompt":"leg day ideas"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var res struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.ID == "" {
		t.Fatal("response id is empty")
	}

	c, ok := store.GetConversation(res.ID)
	if !ok {
		t.Fatal("conversation was not stored")
	}
	if c.Title != "leg day ideas" {
		t.Errorf("Title = %q, want %q", c.Title, "leg day ideas")
	}
}

func TestHandleSendMessage(t *testing.T) {
	store, mux := newTestServer(t, &mockGenerator{fragments: []string{"Eat", " more", " protein"}})
	id := store.CreateConversation("")

	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
	}{
		{
			name:       "Invalid body",
			url:        "/api/conversations/" + id + "/messages",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Empty content",
			url:        "/api/conversations/" + id + "/messages",
			body:       `{"content":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown conversation",
			url:        "/api/conversations/nope/messages",
			body:       `{"content":"hello"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Valid message",
			url:        "/api/conversations/" + id + "/messages",
			body:       `{"content":"what should I eat"}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, http.MethodPost, tt.url, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	// The valid send above started a stream; it must finalize with the
	// generator's full output.
	waitFor(t, func() bool {
		c, ok := store.GetConversation(id)
		if !ok || len(c.Messages) < 2 {
			return false
		}
		last := c.Messages[len(c.Messages)-1]
		return !last.IsStreaming && last.Content == "Eat more protein"
	})
}

func TestHandleSendMessageConflict(t *testing.T) {
	gen := &mockGenerator{fragments: []string{"ok"}, block: make(chan struct{})}
	store, mux := newTestServer(t, gen)
	first := store.CreateConversation("")
	second := store.CreateConversation("")

	w := doJSON(t, mux, http.MethodPost, "/api/conversations/"+first+"/messages", `{"content":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("first send status = %d, want %d", w.Code, http.StatusOK)
	}

	// While the first response is still streaming, generation is rejected
	// everywhere, including other conversations.
	w = doJSON(t, mux, http.MethodPost, "/api/conversations/"+second+"/messages", `{"content":"hello"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("second send status = %d, want %d", w.Code, http.StatusConflict)
	}

	// The rejected send must not store an unanswered user message
	c, _ := store.GetConversation(second)
	if len(c.Messages) != 0 {
		t.Errorf("rejected send stored %d messages, want 0", len(c.Messages))
	}

	close(gen.block)
	waitFor(t, func() bool {
		_, _, streaming := store.Streaming()
		return !streaming
	})

	w = doJSON(t, mux, http.MethodPost, "/api/conversations/"+second+"/messages", `{"content":"hello"}`)
	if w.Code != http.StatusOK {
		t.Errorf("send after completion status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleHistory(t *testing.T) {
	store, mux := newTestServer(t, &mockGenerator{})
	store.CreateConversation("Push Day Workout Plan")
	store.CreateConversation("Sleep & Recovery Protocol")

	w := doJSON(t, mux, http.MethodGet, "/api/history?q=sleep", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var entries []history.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want header plus one conversation", len(entries))
	}
	if entries[0].Label != history.BucketToday {
		t.Errorf("entries[0].Label = %q, want %q", entries[0].Label, history.BucketToday)
	}
	if entries[1].Conversation == nil || entries[1].Conversation.Title != "Sleep & Recovery Protocol" {
		t.Error("search should only return the sleep conversation")
	}
}

func TestHandleMessageMutations(t *testing.T) {
	store, mux := newTestServer(t, &mockGenerator{})
	id := store.CreateConversation("")
	msg := store.AddUserMessage(id, "original")

	base := "/api/conversations/" + id + "/messages/" + msg.ID

	w := doJSON(t, mux, http.MethodPost, base+"/reaction", `{"reaction":"up"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reaction status = %d, want %d", w.Code, http.StatusNoContent)
	}
	c, _ := store.GetConversation(id)
	if c.Messages[0].Reaction != models.ReactionUp {
		t.Errorf("Reaction = %q, want %q", c.Messages[0].Reaction, models.ReactionUp)
	}

	w = doJSON(t, mux, http.MethodPost, base+"/reaction", `{"reaction":"sideways"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid reaction status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doJSON(t, mux, http.MethodPatch, base, `{"content":"edited"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("edit status = %d, want %d", w.Code, http.StatusNoContent)
	}
	c, _ = store.GetConversation(id)
	if c.Messages[0].Content != "edited" || !c.Messages[0].IsEdited {
		t.Errorf("edit not applied: %+v", c.Messages[0])
	}

	w = doJSON(t, mux, http.MethodDelete, base, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
	c, _ = store.GetConversation(id)
	if len(c.Messages) != 0 {
		t.Errorf("len(Messages) = %d after delete, want 0", len(c.Messages))
	}
}

func TestHandleConversationMutations(t *testing.T) {
	store, mux := newTestServer(t, &mockGenerator{})
	id := store.CreateConversation("")

	w := doJSON(t, mux, http.MethodPost, "/api/conversations/"+id+"/rename", `{"title":"Cut Plan"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("rename status = %d", w.Code)
	}
	w = doJSON(t, mux, http.MethodPost, "/api/conversations/"+id+"/pin", `{"pinned":true}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("pin status = %d", w.Code)
	}

	c, _ := store.GetConversation(id)
	if c.Title != "Cut Plan" || !c.IsPinned {
		t.Errorf("mutations not applied: %+v", c)
	}

	w = doJSON(t, mux, http.MethodPut, "/api/model", `{"model":"coach-lite"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("set model status = %d", w.Code)
	}
	if store.Model() != "coach-lite" {
		t.Errorf("Model() = %q, want %q", store.Model(), "coach-lite")
	}

	w = doJSON(t, mux, http.MethodDelete, "/api/conversations/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, ok := store.GetConversation(id); ok {
		t.Error("conversation still present after delete")
	}
}
