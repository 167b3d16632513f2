package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"petal-chatbot-backend/models"
)

func makeTurn(i int, emotion models.EmotionLabel) models.Turn {
	return models.Turn{
		UserMessage: fmt.Sprintf("message %d", i),
		BotResponse: fmt.Sprintf("response %d", i),
		Emotion:     emotion,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, i, 0, time.UTC),
	}
}

func TestInMemoryStoreAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(15)

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, "user-1", makeTurn(i, models.EmotionNeutral)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("Recent returned %d turns, want 3", len(turns))
	}

	// Oldest first.
	if turns[0].UserMessage != "message 0" || turns[2].UserMessage != "message 2" {
		t.Errorf("turns out of order: %q ... %q", turns[0].UserMessage, turns[2].UserMessage)
	}
}

func TestInMemoryStoreEvictsOldestPastWindow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(3)

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "user-1", makeTurn(i, models.EmotionNeutral)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("Recent returned %d turns, want window of 3", len(turns))
	}
	if turns[0].UserMessage != "message 2" {
		t.Errorf("oldest surviving turn = %q, want message 2", turns[0].UserMessage)
	}
}

func TestInMemoryStoreIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(15)

	store.Append(ctx, "user-1", makeTurn(0, models.EmotionNeutral))
	store.Append(ctx, "user-2", makeTurn(1, models.EmotionNeutral))

	turns, _ := store.Recent(ctx, "user-1", 10)
	if len(turns) != 1 || turns[0].UserMessage != "message 0" {
		t.Errorf("user-1 history polluted: %+v", turns)
	}
}

func TestInMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(15)

	store.Append(ctx, "user-1", makeTurn(0, models.EmotionNeutral))
	if err := store.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	turns, _ := store.Recent(ctx, "user-1", 10)
	if len(turns) != 0 {
		t.Errorf("history not cleared: %d turns remain", len(turns))
	}
}

func TestInMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(15)

	store.Append(ctx, "user-1", makeTurn(0, models.EmotionSad))
	store.Append(ctx, "user-1", makeTurn(1, models.EmotionSad))
	store.Append(ctx, "user-1", makeTurn(2, models.EmotionHappy))

	stats, err := store.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalTurns != 3 {
		t.Errorf("TotalTurns = %d, want 3", stats.TotalTurns)
	}
	if stats.MostCommonEmotion != models.EmotionSad {
		t.Errorf("MostCommonEmotion = %q, want sad", stats.MostCommonEmotion)
	}
	if stats.EmotionBreakdown[models.EmotionHappy] != 1 {
		t.Errorf("happy count = %d, want 1", stats.EmotionBreakdown[models.EmotionHappy])
	}
	if stats.LastMessage != "message 2" {
		t.Errorf("LastMessage = %q, want message 2", stats.LastMessage)
	}
}

func TestInMemoryStoreStatsEmptyUser(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(15)

	stats, err := store.Stats(ctx, "nobody")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalTurns != 0 {
		t.Errorf("TotalTurns = %d, want 0", stats.TotalTurns)
	}
	if stats.MostCommonEmotion != models.EmotionNeutral {
		t.Errorf("MostCommonEmotion = %q, want neutral", stats.MostCommonEmotion)
	}
}
