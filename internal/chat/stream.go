package chat

import (
	"context"
	"iter"
	"log/slog"

	"github.com/fitstack/coach-web-ui/internal/models"
)

// Generator produces the assistant side of a conversation as an ordered
// sequence of text fragments, eventually terminating. The engine assumes
// nothing else about it; fragments may come from a canned lookup table or a
// live network stream.
type Generator interface {
	Generate(ctx context.Context, messages []models.Message) iter.Seq2[string, error]
}

// Streamer drives one generation at a time: it opens a streaming assistant
// message on the store, applies every fragment in emission order, and
// finalizes the message when the generator terminates. A generator failure
// finalizes the message with whatever it had accumulated instead of leaving
// it streaming.
type Streamer struct {
	store  *Store
	gen    Generator
	logger *slog.Logger

	onToken    func(conversationID, messageID, accumulated string)
	onFinished func(conversationID, messageID string)
}

// StreamerOption configures a Streamer on creation.
type StreamerOption func(*Streamer)

// OnToken registers a callback invoked after each fragment is applied, with
// the full text accumulated so far. Used by the HTTP surface to fan tokens
// out over SSE.
func OnToken(fn func(conversationID, messageID, accumulated string)) StreamerOption {
	return func(s *Streamer) {
		s.onToken = fn
	}
}

// OnFinished registers a callback invoked once the message is finalized,
// whether the generator terminated normally or failed.
func OnFinished(fn func(conversationID, messageID string)) StreamerOption {
	return func(s *Streamer) {
		s.onFinished = fn
	}
}

// NewStreamer creates a Streamer that applies the generator's fragments to
// the given store.
func NewStreamer(store *Store, gen Generator, logger *slog.Logger, options ...StreamerOption) *Streamer {
	s := &Streamer{
		store:  store,
		gen:    gen,
		logger: logger.With(slog.String("module", "streamer")),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Start opens a streaming assistant message for the conversation and returns
// its id. It fails with ErrStreamInFlight while another stream is open
// anywhere in the store. The caller runs the actual generation by calling Run
// with the returned id, typically on its own goroutine.
func (s *Streamer) Start(conversationID string) (string, error) {
	return s.store.StartStreamingResponse(conversationID)
}

// Run asks the generator for fragments and applies them sequentially to the
// streaming message until the generator terminates. The conversation history
// handed to the generator excludes the streaming placeholder itself.
func (s *Streamer) Run(ctx context.Context, conversationID, messageID string) {
	defer func() {
		if s.onFinished != nil {
			s.onFinished(conversationID, messageID)
		}
	}()

	conversation, ok := s.store.GetConversation(conversationID)
	if !ok {
		return
	}

	history := make([]models.Message, 0, len(conversation.Messages))
	for _, m := range conversation.Messages {
		if m.ID == messageID {
			continue
		}
		history = append(history, m)
	}

	accumulated := ""
	for token, err := range s.gen.Generate(ctx, history) {
		if err != nil {
			s.logger.Error("Generator failed, finalizing partial response",
				slog.String("conversationID", conversationID),
				slog.String("messageID", messageID),
				slog.String(errLoggerKey, err.Error()))
			s.store.CancelStreaming(conversationID, messageID)
			return
		}

		s.store.AppendStreamingToken(conversationID, messageID, token)
		accumulated += token
		if s.onToken != nil {
			s.onToken(conversationID, messageID, accumulated)
		}
	}

	s.store.CompleteStreaming(conversationID, messageID)
}
