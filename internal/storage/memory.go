package storage

import (
	"context"
	"sync"
	"time"

	"github.com/nakharin/nvc-bot/internal/models"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	turns   map[int64][]models.Turn
	entries []models.CacheEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		turns: make(map[int64][]models.Turn),
	}
}

func (s *MemoryStorage) AppendTurn(ctx context.Context, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], *turn)
	return nil
}

func (s *MemoryStorage) RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[conversationID]
	if len(all) == 0 || limit <= 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	// Turns are appended in order, so the tail is already oldest-to-newest.
	recent := make([]models.Turn, len(all)-start)
	copy(recent, all[start:])
	return recent, nil
}

func (s *MemoryStorage) LookupAnswer(ctx context.Context, question string, maxAge time.Duration) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	normalized := normalizeQuestion(question)
	cutoff := time.Now().Add(-maxAge)

	// Scan backwards so the most recent fresh entry wins.
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.Question == normalized && entry.CreatedAt.After(cutoff) {
			return entry.AnswerText, true, nil
		}
	}
	return "", false, nil
}

func (s *MemoryStorage) StoreAnswer(ctx context.Context, question, answerText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := normalizeQuestion(question)
	if !cacheableQuestion(normalized) {
		return nil
	}

	s.entries = append(s.entries, models.CacheEntry{
		Question:   normalized,
		AnswerText: answerText,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
