package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/tmaxmax/go-sse"
)

// Main handles the core functionality of the coaching chat server, wiring the
// conversation store and the streaming lifecycle to HTTP and Server-Sent
// Events. Token fragments are fanned out on a per-message SSE topic, and
// conversation-list changes on a shared topic.
type Main struct {
	sseSrv *sse.Server

	store    *chat.Store
	streamer *chat.Streamer

	logger *slog.Logger
}

const chatsSSETopic = "chats"

// SSE event types for real-time updates.
var (
	chatsSSEType    = sse.Type("chats")
	messagesSSEType = sse.Type("messages")
)

const errLoggerKey = "err"

// NewMain creates a new Main instance around the given store and generator.
// The SSE server is configured to subscribe every client to the conversation
// list topic, plus a message-specific topic when the client asks for updates
// on a particular message.
func NewMain(store *chat.Store, gen chat.Generator, logger *slog.Logger) Main {
	m := Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic, chatsSSETopic}

				messageID := s.Req.URL.Query().Get("message_id")
				if messageID != "" {
					topics = append(topics, messageIDTopic(messageID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		store:  store,
		logger: logger.With(slog.String("module", "handlers")),
	}

	m.streamer = chat.NewStreamer(store, gen, logger,
		chat.OnToken(m.publishToken),
		chat.OnFinished(m.finishStream),
	)

	return m
}

func messageIDTopic(messageID string) string {
	return fmt.Sprintf("message-%s", messageID)
}

// HandleSSE serves the event stream endpoint.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It
// broadcasts a close message to all connected clients and waits up to 5
// seconds for connections to terminate. After the timeout, any remaining
// connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeChat")}
	// The SSE spec requires data on every event, even a close marker
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// publishToken pushes the accumulated text of a streaming message to its
// message topic.
func (m Main) publishToken(_, messageID, accumulated string) {
	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(accumulated)
	if err := m.sseSrv.Publish(&msg, messageIDTopic(messageID)); err != nil {
		m.logger.Error("Failed to publish message token",
			slog.String("messageID", messageID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// finishStream closes the message topic and refreshes the conversation list,
// since the finalized message changed the conversation's preview and recency.
func (m Main) finishStream(_, messageID string) {
	e := &sse.Message{Type: sse.Type("closeMessage")}
	e.AppendData("bye")
	if err := m.sseSrv.Publish(e, messageIDTopic(messageID)); err != nil {
		m.logger.Error("Failed to publish close message",
			slog.String("messageID", messageID),
			slog.String(errLoggerKey, err.Error()))
	}

	m.publishConversations()
}

// publishConversations pushes the current conversation summaries to every
// client on the list topic.
func (m Main) publishConversations() {
	summaries := conversationSummaries(m.store.Conversations())

	data, err := json.Marshal(summaries)
	if err != nil {
		m.logger.Error("Failed to marshal conversation summaries",
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: chatsSSEType}
	msg.AppendData(string(data))
	if err := m.sseSrv.Publish(&msg, chatsSSETopic); err != nil {
		m.logger.Error("Failed to publish conversations",
			slog.String(errLoggerKey, err.Error()))
	}
}

func (m Main) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Error("Failed to encode response",
			slog.String(errLoggerKey, err.Error()))
	}
}
