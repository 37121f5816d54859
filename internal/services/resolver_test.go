package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fitstack/coach-web-ui/internal/models"
	"github.com/fitstack/coach-web-ui/internal/services"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFrag string
	}{
		{
			name:     "Workout keywords",
			input:    "Can you build me a workout for three days a week?",
			wantFrag: "Weekly split",
		},
		{
			name:     "Nutrition keywords",
			input:    "how much PROTEIN should I eat",
			wantFrag: "Calories first",
		},
		{
			name:     "Recovery keywords",
			input:    "my legs are so sore after yesterday",
			wantFrag: "adaptation actually happens",
		},
		{
			name:     "Sleep keywords",
			input:    "I barely got any sleep this week",
			wantFrag: "strongest recovery tool",
		},
		{
			name:     "No match falls back to capabilities overview",
			input:    "tell me a joke",
			wantFrag: "training partner in the corner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.Resolve(tt.input)
			if !strings.Contains(got, tt.wantFrag) {
				t.Errorf("Resolve(%q) does not contain %q", tt.input, tt.wantFrag)
			}
		})
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	// "workout" and "protein" both match; the workout topic comes first in
	// the fixed priority order and must win.
	got := services.Resolve("workout plan with enough protein")
	if !strings.Contains(got, "Weekly split") {
		t.Errorf("expected the earlier topic to win, got %q", firstLine(got))
	}
}

func TestResolveDeterministic(t *testing.T) {
	input := "help me with my squat form"
	if services.Resolve(input) != services.Resolve(input) {
		t.Error("Resolve must be deterministic")
	}
}

func TestCannedGenerateReassembles(t *testing.T) {
	gen := services.NewCanned(7, 0)

	messages := []models.Message{
		{Role: models.RoleUser, Content: "what supplements are worth taking"},
	}

	var sb strings.Builder
	count := 0
	for fragment, err := range gen.Generate(context.Background(), messages) {
		if err != nil {
			t.Fatalf("Generate() yielded error: %v", err)
		}
		sb.WriteString(fragment)
		count++
	}

	want := services.Resolve("what supplements are worth taking")
	if sb.String() != want {
		t.Error("concatenated fragments differ from the resolved body")
	}
	if count < 2 {
		t.Errorf("got %d fragments, want the body chunked into several", count)
	}
}

func TestCannedGenerateUsesLatestUserMessage(t *testing.T) {
	gen := services.NewCanned(64, 0)

	messages := []models.Message{
		{Role: models.RoleUser, Content: "tell me about cardio"},
		{Role: models.RoleAssistant, Content: "..."},
		{Role: models.RoleUser, Content: "now about creatine supplements"},
	}

	var sb strings.Builder
	for fragment, err := range gen.Generate(context.Background(), messages) {
		if err != nil {
			t.Fatalf("Generate() yielded error: %v", err)
		}
		sb.WriteString(fragment)
	}

	if !strings.Contains(sb.String(), "Creatine monohydrate") {
		t.Error("generator should answer the most recent user message")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
