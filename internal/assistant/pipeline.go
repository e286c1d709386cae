package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nakharin/nvc-bot/internal/generator"
	"github.com/nakharin/nvc-bot/internal/knowledge"
	"github.com/nakharin/nvc-bot/internal/media"
	"github.com/nakharin/nvc-bot/internal/models"
	"github.com/nakharin/nvc-bot/internal/storage"
	"go.uber.org/zap"
)

// Fixed user-facing texts for the three generation failure classes. The
// underlying error detail stays in the server logs only.
const (
	blockedReply   = "ขออภัยครับ ผมไม่สามารถให้ข้อมูลในเรื่องนี้ได้ครับ"
	emptyReply     = "ขออภัยครับ ผมไม่พบคำตอบสำหรับคำถามนี้ กรุณาลองถามใหม่อีกครั้งครับ"
	transientReply = "ขออภัยครับ เกิดข้อผิดพลาดในการประมวลผลคำถามของคุณ กรุณาลองใหม่อีกครั้งครับ"
)

// Replier is the outbound side of the messaging transport.
type Replier interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, url, caption string) error
	SendMediaGroup(chatID int64, urls []string, caption string) error
}

// Incoming is one inbound user message, already unwrapped from the
// transport payload.
type Incoming struct {
	ConversationID int64
	Text           string
	DisplayName    string
}

// Pipeline turns an inbound message into a bot reply: cache check, history
// fetch, prompt composition, generation, directive extraction, reply,
// media dispatch, persistence. A failure in one message never affects the
// next; the cache and the conversation log are best-effort accelerators,
// never correctness dependencies.
type Pipeline struct {
	storage      storage.Storage
	knowledge    *knowledge.Store
	catalog      *media.Catalog
	generator    generator.Generator
	replier      Replier
	logger       *zap.Logger
	historyLimit int
	cacheTTL     time.Duration
}

func NewPipeline(
	store storage.Storage,
	know *knowledge.Store,
	catalog *media.Catalog,
	gen generator.Generator,
	replier Replier,
	historyLimit int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		storage:      store,
		knowledge:    know,
		catalog:      catalog,
		generator:    gen,
		replier:      replier,
		logger:       logger,
		historyLimit: historyLimit,
		cacheTTL:     cacheTTL,
	}
}

// Handle runs the full pipeline for one inbound message. Messages without
// text content are ignored entirely: no reply, no persistence.
func (p *Pipeline) Handle(ctx context.Context, msg Incoming) {
	if strings.TrimSpace(msg.Text) == "" {
		p.logger.Debug("Ignoring update without text content",
			zap.Int64("chat_id", msg.ConversationID))
		return
	}

	start := time.Now()

	if answer, ok := p.lookupCached(ctx, msg.Text); ok {
		p.logger.Info("Answering from cache",
			zap.Int64("chat_id", msg.ConversationID))
		// Idempotent replay: directive extraction, reply, and media
		// dispatch still run, but nothing is re-persisted.
		p.deliver(ctx, msg, answer, false)
		p.logProcessed(msg, start)
		return
	}

	// The user's turn is recorded before the prompt is built so the turn
	// itself never shows up in its own history block.
	p.appendTurn(ctx, msg.ConversationID, models.SpeakerUser, msg.Text, msg.DisplayName)

	prompt := Compose(
		p.knowledge.Text(),
		FormatHistory(p.recentTurns(ctx, msg.ConversationID)),
		p.catalog.Instructions(),
		msg.Text,
	)

	raw, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		p.handleGenerationError(ctx, msg, err)
		p.logProcessed(msg, start)
		return
	}

	p.deliver(ctx, msg, raw, true)
	p.logProcessed(msg, start)
}

// deliver sends the visible reply and optional media for a raw answer.
// When persist is set (fresh generation), the bot's turn and the raw
// answer are written back; cache hits skip both.
func (p *Pipeline) deliver(ctx context.Context, msg Incoming, raw string, persist bool) {
	answer := ParseAnswer(raw)

	if err := p.replier.SendText(msg.ConversationID, answer.Text); err != nil {
		p.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", msg.ConversationID))
		return
	}

	loggedText := answer.Text
	if answer.HasDirective() {
		if p.dispatchMedia(msg.ConversationID, answer.Tag) {
			// History must reflect what the user actually received.
			loggedText = fmt.Sprintf("%s (sent image: %s)", answer.Text, answer.Tag)
		}
	}

	if !persist {
		return
	}

	p.appendTurn(ctx, msg.ConversationID, models.SpeakerBot, loggedText, "")

	// The unstripped text is cached so a later hit can still dispatch
	// media.
	if err := p.storage.StoreAnswer(ctx, msg.Text, raw); err != nil {
		p.logger.Warn("Failed to store cache entry",
			zap.Error(err),
			zap.Int64("chat_id", msg.ConversationID))
	}
}

// dispatchMedia resolves a directive tag against the catalog and sends the
// image or album. An unknown tag sends nothing and is not an error; a
// transport failure is logged and swallowed, the text reply already sent
// stands. Returns whether media actually went out.
func (p *Pipeline) dispatchMedia(chatID int64, tag string) bool {
	entry, ok := p.catalog.Resolve(tag)
	if !ok {
		p.logger.Warn("Answer referenced unknown media tag",
			zap.String("tag", tag),
			zap.Int64("chat_id", chatID))
		return false
	}

	var err error
	if len(entry.URLs) == 1 {
		err = p.replier.SendPhoto(chatID, entry.URLs[0], entry.Caption)
	} else {
		err = p.replier.SendMediaGroup(chatID, entry.URLs, entry.Caption)
	}
	if err != nil {
		p.logger.Error("Failed to send media",
			zap.Error(err),
			zap.String("tag", tag),
			zap.Int64("chat_id", chatID))
		return false
	}

	return true
}

func (p *Pipeline) handleGenerationError(ctx context.Context, msg Incoming, err error) {
	switch {
	case errors.Is(err, generator.ErrBlocked):
		// A blocked answer is not a valid turn to repeat: it is neither
		// cached nor written into history.
		p.logger.Warn("Generation blocked",
			zap.Int64("chat_id", msg.ConversationID))
		p.sendFallback(msg.ConversationID, blockedReply)

	case errors.Is(err, generator.ErrEmpty):
		p.logger.Warn("Generation returned empty answer",
			zap.Int64("chat_id", msg.ConversationID))
		p.sendFallback(msg.ConversationID, emptyReply)
		p.appendTurn(ctx, msg.ConversationID, models.SpeakerBot, emptyReply, "")

	default:
		p.logger.Error("Generation failed",
			zap.Error(err),
			zap.Int64("chat_id", msg.ConversationID))
		p.sendFallback(msg.ConversationID, transientReply)
		p.appendTurn(ctx, msg.ConversationID, models.SpeakerBot, transientReply, "")
	}
}

func (p *Pipeline) sendFallback(chatID int64, text string) {
	if err := p.replier.SendText(chatID, text); err != nil {
		p.logger.Error("Failed to send fallback reply",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (p *Pipeline) lookupCached(ctx context.Context, question string) (string, bool) {
	answer, found, err := p.storage.LookupAnswer(ctx, question, p.cacheTTL)
	if err != nil {
		p.logger.Warn("Cache lookup failed", zap.Error(err))
		return "", false
	}
	return answer, found
}

func (p *Pipeline) recentTurns(ctx context.Context, conversationID int64) []models.Turn {
	turns, err := p.storage.RecentTurns(ctx, conversationID, p.historyLimit)
	if err != nil {
		p.logger.Warn("Failed to fetch conversation history",
			zap.Error(err),
			zap.Int64("chat_id", conversationID))
		return nil
	}
	return turns
}

func (p *Pipeline) appendTurn(ctx context.Context, conversationID int64, speaker models.Speaker, text, displayName string) {
	turn := &models.Turn{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Speaker:        speaker,
		Text:           text,
		DisplayName:    displayName,
		CreatedAt:      time.Now(),
	}

	if err := p.storage.AppendTurn(ctx, turn); err != nil {
		p.logger.Error("Failed to append conversation turn",
			zap.Error(err),
			zap.Int64("chat_id", conversationID),
			zap.String("speaker", string(speaker)))
	}
}

func (p *Pipeline) logProcessed(msg Incoming, start time.Time) {
	p.logger.Info("Processed message",
		zap.Int64("chat_id", msg.ConversationID),
		zap.Duration("elapsed", time.Since(start)))
}
