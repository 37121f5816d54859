package services

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/fitstack/coach-web-ui/internal/models"
)

// Canned provides an implementation of the Generator interface backed by a
// fixed table of coaching responses. The user's message is matched against an
// ordered list of topic keyword sets and the first matching topic's
// pre-authored body is returned; streaming is simulated by chunking that body
// into fragments, optionally paced by a delay.
type Canned struct {
	chunkSize int
	delay     time.Duration
}

// topic pairs a set of trigger keywords with the response body it resolves
// to. Topics earlier in the list win over later ones.
type topic struct {
	name     string
	keywords []string
	response string
}

var topics = []topic{
	{
		name:     "workout",
		keywords: []string{"workout", "training plan", "exercise", "routine", "program", "push day", "pull day", "leg day", "lifting", "strength train"},
		response: workoutResponse,
	},
	{
		name:     "nutrition",
		keywords: []string{"nutrition", "diet", "protein", "calorie", "macro", "meal", "eating", "carb", "cutting", "bulking"},
		response: nutritionResponse,
	},
	{
		name:     "progress",
		keywords: []string{"progress", "plateau", "track", "improve", "gains", "results", "stronger", "analyz"},
		response: progressResponse,
	},
	{
		name:     "goals",
		keywords: []string{"goal", "target", "motivat", "commit", "habit"},
		response: goalsResponse,
	},
	{
		name:     "recovery",
		keywords: []string{"recovery", "rest day", "sore", "doms", "overtrain", "deload"},
		response: recoveryResponse,
	},
	{
		name:     "supplements",
		keywords: []string{"supplement", "creatine", "whey", "vitamin", "pre-workout", "bcaa", "omega"},
		response: supplementsResponse,
	},
	{
		name:     "cardio",
		keywords: []string{"cardio", "running", "cycling", "hiit", "endurance", "conditioning", "zone 2"},
		response: cardioResponse,
	},
	{
		name:     "form",
		keywords: []string{"form", "technique", "squat", "deadlift", "bench press", "posture", "brace"},
		response: formResponse,
	},
	{
		name:     "mobility",
		keywords: []string{"mobility", "stretch", "flexibility", "warm-up", "warm up", "foam roll", "tight"},
		response: mobilityResponse,
	},
	{
		name:     "sleep",
		keywords: []string{"sleep", "insomnia", "tired", "fatigue", "rest quality"},
		response: sleepResponse,
	},
}

// NewCanned creates a Canned generator. chunkSize is the fragment length in
// runes; values below one fall back to a sensible default. delay paces the
// fragments to make the simulated stream visible in a UI, and may be zero.
func NewCanned(chunkSize int, delay time.Duration) Canned {
	if chunkSize < 1 {
		chunkSize = 16
	}
	return Canned{
		chunkSize: chunkSize,
		delay:     delay,
	}
}

// Resolve maps a user message to its full response body. Matching is
// case-insensitive substring matching against each topic's keywords, in the
// fixed priority order of the topic table; the first matching topic wins. If
// nothing matches, a capabilities overview is returned. Resolve is pure and
// deterministic.
func Resolve(userText string) string {
	lowered := strings.ToLower(userText)
	for _, t := range topics {
		for _, keyword := range t.keywords {
			if strings.Contains(lowered, keyword) {
				return t.response
			}
		}
	}
	return defaultResponse
}

// Generate implements the Generator interface by resolving the most recent
// user message and yielding the body in fixed-size fragments.
func (c Canned) Generate(ctx context.Context, messages []models.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		prompt := ""
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == models.RoleUser {
				prompt = messages[i].Content
				break
			}
		}

		for _, fragment := range chunks(Resolve(prompt), c.chunkSize) {
			if c.delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.delay):
				}
			} else if ctx.Err() != nil {
				return
			}

			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// chunks splits s into fragments of up to size runes, preserving the text
// byte for byte.
func chunks(s string, size int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/size+1)
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
