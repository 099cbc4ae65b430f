package alert

import (
	"fmt"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// TgBot is a thin Telegram client used for operator error alerts.
type TgBot struct {
	bot    *gotgbot.Bot
	chatID int64
}

// NewTgBot verifies the bot token and returns an alert sender bound to
// the admin chat.
func NewTgBot(apiKey string, adminID int64) (*TgBot, error) {
	bot, err := gotgbot.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TgBot{bot: bot, chatID: adminID}, nil
}

// SendAlert posts the text to the admin chat.
func (t *TgBot) SendAlert(text string) error {
	const maxLen = 4000
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	_, err := t.bot.SendMessage(t.chatID, text, nil)
	if err != nil {
		return fmt.Errorf("telegram send alert: %w", err)
	}
	return nil
}
