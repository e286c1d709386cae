package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nakharin/nvc-bot/internal/assistant"
	"github.com/nakharin/nvc-bot/internal/generator"
	"github.com/nakharin/nvc-bot/internal/knowledge"
	"github.com/nakharin/nvc-bot/internal/media"
	"github.com/nakharin/nvc-bot/internal/storage"
	"go.uber.org/zap"
)

// Options are the pipeline knobs passed through from configuration.
type Options struct {
	HistoryLimit int
	CacheTTL     time.Duration
}

type Bot struct {
	api      *tgbotapi.BotAPI
	pipeline *assistant.Pipeline
	logger   *zap.Logger
}

func New(
	token string,
	store storage.Storage,
	know *knowledge.Store,
	catalog *media.Catalog,
	gen generator.Generator,
	opts Options,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		api:    api,
		logger: logger,
	}
	b.pipeline = assistant.NewPipeline(store, know, catalog, gen, b, opts.HistoryLimit, opts.CacheTTL, logger)

	return b, nil
}

// HandleUpdate dispatches one decoded Telegram update. Updates without a
// message are dropped; commands go to the command menu, everything else to
// the response pipeline.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	message := update.Message

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if message.Text == "" {
		b.logger.Debug("Received an update without a text message",
			zap.Int64("chat_id", message.Chat.ID))
		return
	}

	displayName := ""
	if message.From != nil {
		displayName = message.From.FirstName
	}

	b.pipeline.Handle(ctx, assistant.Incoming{
		ConversationID: message.Chat.ID,
		Text:           message.Text,
		DisplayName:    displayName,
	})
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "ไม่รู้จักคำสั่งนี้ครับ ลองใช้ /help เพื่อดูคำสั่งทั้งหมดครับ")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	userName := "ผู้ใช้งาน"
	if message.From != nil && message.From.FirstName != "" {
		userName = message.From.FirstName
	}

	welcome := fmt.Sprintf("สวัสดีครับคุณ %s! ผมคือบอทผู้ช่วยข้อมูลวิทยาลัยอาชีวศึกษานครศรีธรรมราชครับ\n"+
		"ผมสามารถตอบคำถามเกี่ยวกับหลักสูตร, การรับสมัคร, ที่ตั้ง, ช่องทางการติดต่อ และข้อมูลอื่นๆ ของวิทยาลัยฯ ได้ครับ\n"+
		"คุณอยากสอบถามเรื่องอะไรเป็นพิเศษไหมครับ?", userName)

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `คำสั่งที่ใช้ได้:
/start - เริ่มต้นใช้งานบอท
/help - แสดงข้อความช่วยเหลือนี้

พิมพ์คำถามเกี่ยวกับวิทยาลัยฯ ได้เลยครับ เช่น หลักสูตรที่เปิดสอน ช่วงเวลารับสมัคร หรือช่องทางการติดต่อ`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if err := b.SendText(chatID, text); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
