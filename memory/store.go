package memory

import (
	"context"
	"sync"

	"petal-chatbot-backend/models"
)

// ConversationMemory is the per-user turn history the router reads context
// from and appends results to. Implementations are append-only: a stored
// turn is never rewritten, and eviction only trims the oldest entries.
type ConversationMemory interface {
	Append(ctx context.Context, userID string, turn models.Turn) error
	Recent(ctx context.Context, userID string, n int) ([]models.Turn, error)
	Clear(ctx context.Context, userID string) error
	Stats(ctx context.Context, userID string) (models.UserStats, error)
}

// InMemoryStore keeps turn history in process memory, bounded to a fixed
// window per user. This is the default backend.
type InMemoryStore struct {
	mu     sync.Mutex
	window int
	turns  map[string][]models.Turn
}

func NewInMemoryStore(window int) *InMemoryStore {
	if window < 1 {
		window = 15
	}
	return &InMemoryStore{
		window: window,
		turns:  make(map[string][]models.Turn),
	}
}

func (s *InMemoryStore) Append(ctx context.Context, userID string, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.turns[userID], turn)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	s.turns[userID] = history
	return nil
}

func (s *InMemoryStore) Recent(ctx context.Context, userID string, n int) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.turns[userID]
	if n <= 0 || n > len(history) {
		n = len(history)
	}
	out := make([]models.Turn, n)
	copy(out, history[len(history)-n:])
	return out, nil
}

func (s *InMemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
	return nil
}

func (s *InMemoryStore) Stats(ctx context.Context, userID string) (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildStats(s.turns[userID]), nil
}

func buildStats(turns []models.Turn) models.UserStats {
	stats := models.UserStats{
		TotalTurns:        len(turns),
		MostCommonEmotion: models.EmotionNeutral,
		EmotionBreakdown:  make(map[models.EmotionLabel]int),
	}

	best := 0
	for _, turn := range turns {
		emotion := turn.Emotion
		if emotion == "" {
			emotion = models.EmotionNeutral
		}
		stats.EmotionBreakdown[emotion]++
		if stats.EmotionBreakdown[emotion] > best {
			best = stats.EmotionBreakdown[emotion]
			stats.MostCommonEmotion = emotion
		}
	}
	if len(turns) > 0 {
		stats.LastMessage = turns[len(turns)-1].UserMessage
	}
	return stats
}
