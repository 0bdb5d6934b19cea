// Package telegram is the delivery channel: a thin sender used by the
// scheduler's dispatch job, and the bind-flow bot run by the wallet service.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sink sends plain-text messages to a chat.
type Sink struct {
	bot *tgbotapi.BotAPI
}

func NewSink(token string) (*Sink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Sink{bot: bot}, nil
}

func (s *Sink) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message to %d: %w", chatID, err)
	}
	return nil
}
