package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The Bot doubles as the pipeline's Replier: plain text, a single photo
// with caption, or several photos as one grouped album.

func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

func (b *Bot) SendPhoto(chatID int64, url, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

func (b *Bot) SendMediaGroup(chatID int64, urls []string, caption string) error {
	media := make([]interface{}, 0, len(urls))
	for i, url := range urls {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(url))
		// Telegram shows the album caption from the first item only.
		if i == 0 {
			photo.Caption = caption
		}
		media = append(media, photo)
	}

	group := tgbotapi.NewMediaGroup(chatID, media)
	if _, err := b.api.SendMediaGroup(group); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}
