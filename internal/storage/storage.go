package storage

import (
	"context"
	"strings"
	"time"

	"github.com/nakharin/nvc-bot/internal/models"
)

// Storage persists the two logical tables the bot needs: conversation
// turns and cached answers. The bot treats it as best-effort; every
// implementation must be safe for concurrent use.
type Storage interface {
	// AppendTurn records one immutable conversation turn.
	AppendTurn(ctx context.Context, turn *models.Turn) error

	// RecentTurns returns up to limit most recent turns of a conversation,
	// re-ordered oldest-to-newest for presentation. No history is an empty
	// slice, not an error.
	RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error)

	// Embed AnswerCache interface
	AnswerCache

	Close() error
}

// AnswerCache maps normalized question text to previously generated
// answers with read-time freshness filtering.
type AnswerCache interface {
	// LookupAnswer returns the most recent answer stored for the question
	// within maxAge. found is false on miss or expiry.
	LookupAnswer(ctx context.Context, question string, maxAge time.Duration) (answer string, found bool, err error)

	// StoreAnswer inserts a new cache entry for the question. Questions
	// outside the accepted length band are silently skipped. Entries are
	// never updated in place.
	StoreAnswer(ctx context.Context, question, answerText string) error
}

// Accepted length band for cached questions; anything outside is assumed
// malformed or pathological and is not worth a cache row.
const (
	minCacheQuestionLen = 2
	maxCacheQuestionLen = 200
)

func normalizeQuestion(question string) string {
	return strings.TrimSpace(question)
}

func cacheableQuestion(normalized string) bool {
	n := len([]rune(normalized))
	return n >= minCacheQuestionLen && n <= maxCacheQuestionLen
}
