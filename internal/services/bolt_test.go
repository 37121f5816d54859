package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitstack/coach-web-ui/internal/models"
	"github.com/fitstack/coach-web-ui/internal/services"
)

func TestBoltDBSaveLoad(t *testing.T) {
	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	defer db.Close()

	now := time.Now().Round(time.Millisecond)
	conversations := []models.Conversation{
		{
			ID:        "c1",
			Title:     "Push Day",
			Preview:   "bench press help",
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now,
			IsPinned:  true,
			Model:     "coach-pro",
			Messages: []models.Message{
				{ID: "m1", Role: models.RoleUser, Content: "bench press help", Timestamp: now},
				{ID: "m2", Role: models.RoleAssistant, Content: "Pin your shoulder blades.", Timestamp: now, Reaction: models.ReactionUp},
			},
		},
		{
			ID:        "c2",
			Title:     "New Chat",
			Preview:   "New conversation",
			CreatedAt: now,
			UpdatedAt: now,
			Model:     "coach-lite",
		},
	}

	if err := db.Save(context.Background(), conversations); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("len(loaded) = %d, want 2", len(loaded))
	}
	if loaded[0].ID != "c1" || loaded[1].ID != "c2" {
		t.Error("Load() must return conversations in saved order")
	}
	if !loaded[0].IsPinned || loaded[0].Model != "coach-pro" {
		t.Errorf("conversation metadata not round-tripped: %+v", loaded[0])
	}
	if len(loaded[0].Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(loaded[0].Messages))
	}
	if loaded[0].Messages[1].Reaction != models.ReactionUp {
		t.Error("message reaction not round-tripped")
	}

	// A second save fully replaces the previous snapshot
	if err := db.Save(context.Background(), conversations[1:]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err = db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "c2" {
		t.Errorf("snapshot was not replaced, got %d conversations", len(loaded))
	}
}

func TestBoltDBLoadEmpty(t *testing.T) {
	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	defer db.Close()

	loaded, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Load() on fresh db = %d conversations, want 0", len(loaded))
	}
}
