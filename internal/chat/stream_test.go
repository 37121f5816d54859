package chat_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"testing"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/fitstack/coach-web-ui/internal/models"
)

type fakeGenerator struct {
	fragments []string
	err       error

	gotMessages []models.Message
}

func (f *fakeGenerator) Generate(_ context.Context, messages []models.Message) iter.Seq2[string, error] {
	f.gotMessages = messages
	return func(yield func(string, error) bool) {
		for _, fragment := range f.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func TestStreamerRun(t *testing.T) {
	store := newStore(t)
	id := store.CreateConversation("")
	store.AddUserMessage(id, "what should I eat")

	gen := &fakeGenerator{fragments: []string{"Protein", " and", " carbs"}}

	var tokens []string
	streamer := chat.NewStreamer(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)),
		chat.OnToken(func(_, _, accumulated string) {
			tokens = append(tokens, accumulated)
		}),
	)

	msgID, err := streamer.Start(id)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	streamer.Run(context.Background(), id, msgID)

	c, _ := store.GetConversation(id)
	final := c.Messages[len(c.Messages)-1]
	if final.Content != "Protein and carbs" {
		t.Errorf("Content = %q, want full accumulated response", final.Content)
	}
	if final.IsStreaming {
		t.Error("message still streaming after Run")
	}

	wantTokens := []string{"Protein", "Protein and", "Protein and carbs"}
	if len(tokens) != len(wantTokens) {
		t.Fatalf("got %d token callbacks, want %d", len(tokens), len(wantTokens))
	}
	for i, want := range wantTokens {
		if tokens[i] != want {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want)
		}
	}

	// The generator must not see the streaming placeholder itself
	for _, msg := range gen.gotMessages {
		if msg.ID == msgID {
			t.Error("streaming placeholder was handed to the generator")
		}
	}
}

func TestStreamerRunGeneratorFailure(t *testing.T) {
	store := newStore(t)
	id := store.CreateConversation("")
	store.AddUserMessage(id, "hi")

	gen := &fakeGenerator{
		fragments: []string{"partial"},
		err:       errors.New("connection reset"),
	}

	finished := false
	streamer := chat.NewStreamer(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)),
		chat.OnFinished(func(_, _ string) { finished = true }),
	)

	msgID, err := streamer.Start(id)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	streamer.Run(context.Background(), id, msgID)

	c, _ := store.GetConversation(id)
	final := c.Messages[len(c.Messages)-1]
	if final.IsStreaming {
		t.Error("a failed generation must not leave the message streaming")
	}
	if final.Content != "partial" {
		t.Errorf("Content = %q, want the partial accumulation", final.Content)
	}
	if !finished {
		t.Error("OnFinished callback was not invoked on failure")
	}
	if _, _, ok := store.Streaming(); ok {
		t.Error("generation state still set after failed run")
	}
}
