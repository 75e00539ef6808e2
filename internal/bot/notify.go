package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers subscription notifications over Telegram. It satisfies
// the poller's NotificationSink; a blocked bot or deleted chat surfaces as
// an error the poller logs and drops.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// Send delivers one message to the user's private chat.
func (n *Notifier) Send(ctx context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	return nil
}
