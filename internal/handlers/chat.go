package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/fitstack/coach-web-ui/internal/history"
	"github.com/fitstack/coach-web-ui/internal/models"
)

// conversationSummary is the list-view projection of a conversation: the
// metadata without the message bodies.
type conversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsPinned  bool      `json:"isPinned"`
	Model     string    `json:"model"`
}

func conversationSummaries(conversations []models.Conversation) []conversationSummary {
	summaries := make([]conversationSummary, len(conversations))
	for i, c := range conversations {
		summaries[i] = conversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			Preview:   c.Preview,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			IsPinned:  c.IsPinned,
			Model:     c.Model,
		}
	}
	return summaries
}

// HandleCreateConversation creates a new conversation, optionally seeded with
// an initial prompt that becomes its title and preview. The new conversation
// becomes the active one.
func (m Main) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := m.store.CreateConversation(req.Prompt)
	m.publishConversations()

	m.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleHistory serves the filtered, sorted, and grouped conversation list.
// Query parameters: q (search text), tab (all|pinned|today), sort
// (recent|az).
func (m Main) HandleHistory(w http.ResponseWriter, r *http.Request) {
	params := history.Params{
		Query: r.URL.Query().Get("q"),
		Tab:   history.Tab(r.URL.Query().Get("tab")),
		Sort:  history.Sort(r.URL.Query().Get("sort")),
	}

	entries := history.List(m.store.Conversations(), params, time.Now())
	m.respondJSON(w, http.StatusOK, entries)
}

// HandleGetConversation serves one conversation with its full message
// sequence.
func (m Main) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversation, ok := m.store.GetConversation(r.PathValue("id"))
	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	m.respondJSON(w, http.StatusOK, conversation)
}

// HandleDeleteConversation removes a conversation. Deleting the active
// conversation clears the active selection.
func (m Main) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	m.store.DeleteConversation(r.PathValue("id"))
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleClearConversations empties the whole collection.
func (m Main) HandleClearConversations(w http.ResponseWriter, _ *http.Request) {
	m.store.ClearAll()
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleRenameConversation sets a conversation's title. Blank titles are
// ignored and the previous title is kept.
func (m Main) HandleRenameConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.store.RenameConversation(r.PathValue("id"), req.Title)
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandlePinConversation sets a conversation's pin flag.
func (m Main) HandlePinConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.store.PinConversation(r.PathValue("id"), req.Pinned)
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleActivateConversation selects a conversation as current for UI
// purposes. The id is deliberately not validated.
func (m Main) HandleActivateConversation(w http.ResponseWriter, r *http.Request) {
	m.store.SetActiveConversation(r.PathValue("id"))
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleSendMessage appends a user message to the conversation and starts
// streaming the assistant's response. The response fragments are published on
// the message's SSE topic; the response body carries the stored user message
// and the id of the assistant message to subscribe to.
//
// While another response is streaming anywhere, the request is rejected with
// 409 Conflict: response generation is serialized across all conversations.
func (m Main) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		m.logger.Error("Message content is required")
		http.Error(w, "message content is required", http.StatusBadRequest)
		return
	}

	conversationID := r.PathValue("id")

	// The user message and the streaming reply open as one store operation,
	// so a send rejected with 409 stores nothing.
	userMessage, messageID, err := m.store.SendUserMessage(conversationID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrStreamInFlight):
			http.Error(w, "a response is already being generated", http.StatusConflict)
		case errors.Is(err, chat.ErrConversationNotFound):
			http.Error(w, "conversation not found", http.StatusNotFound)
		default:
			m.logger.Error("Failed to start streaming response",
				slog.String("conversationID", conversationID),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	go m.streamer.Run(context.Background(), conversationID, messageID)

	m.publishConversations()

	m.respondJSON(w, http.StatusOK, map[string]any{
		"userMessage":        userMessage,
		"assistantMessageId": messageID,
	})
}

// HandleReactToMessage sets a thumbs reaction on a message. Sending the
// reaction the message already has clears it.
func (m Main) HandleReactToMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reaction models.Reaction `json:"reaction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Reaction != models.ReactionUp && req.Reaction != models.ReactionDown {
		http.Error(w, "reaction must be up or down", http.StatusBadRequest)
		return
	}

	m.store.ReactToMessage(r.PathValue("id"), r.PathValue("messageID"), req.Reaction)
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleEditMessage replaces a message's content, marking it edited. The
// message keeps its original timestamp.
func (m Main) HandleEditMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "message content is required", http.StatusBadRequest)
		return
	}

	m.store.EditMessage(r.PathValue("id"), r.PathValue("messageID"), req.Content)
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleDeleteMessage removes a message from its conversation.
func (m Main) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	m.store.DeleteMessage(r.PathValue("id"), r.PathValue("messageID"))
	m.publishConversations()
	m.respondJSON(w, http.StatusNoContent, nil)
}

// HandleSetModel changes the default model tag assigned to future
// conversations. Existing conversations are not touched.
func (m Main) HandleSetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		http.Error(w, "model is required", http.StatusBadRequest)
		return
	}

	m.store.SetModel(req.Model)
	m.respondJSON(w, http.StatusNoContent, nil)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	// An absent body is treated as an empty request, not an error
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid request body")
	}
	return nil
}
