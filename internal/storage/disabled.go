package storage

import (
	"context"
	"time"

	"github.com/nakharin/nvc-bot/internal/models"
)

// DisabledStorage is the stand-in used when no persistence backend is
// configured or the backend is unreachable at startup. Every operation is
// a no-op: history reads come back empty, cache lookups miss, writes
// vanish. The bot keeps answering either way.
type DisabledStorage struct{}

func NewDisabledStorage() DisabledStorage { return DisabledStorage{} }

func (DisabledStorage) AppendTurn(ctx context.Context, turn *models.Turn) error {
	return nil
}

func (DisabledStorage) RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	return nil, nil
}

func (DisabledStorage) LookupAnswer(ctx context.Context, question string, maxAge time.Duration) (string, bool, error) {
	return "", false, nil
}

func (DisabledStorage) StoreAnswer(ctx context.Context, question, answerText string) error {
	return nil
}

func (DisabledStorage) Close() error { return nil }
