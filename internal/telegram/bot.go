package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Binder links a Telegram chat to the user owning an api key. The user
// directory implements it; the bot holds no binding state of its own.
type Binder interface {
	BindChat(ctx context.Context, apiKey uuid.UUID, chatID int64) error
}

// Bot runs the update-polling loop for the single account-linking flow:
// the user sends "/start <api-key>" (or "/bind <api-key>") and the chat id
// is stored against their account.
type Bot struct {
	bot    *tgbotapi.BotAPI
	binder Binder
}

func NewBot(token string, binder Binder) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{bot: bot, binder: binder}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.bot.GetUpdatesChan(updateConfig)

	slog.Info("telegram bot polling started", "username", b.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			slog.Info("telegram bot polling stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/bind"):
		b.handleBind(ctx, chatID, text)
	default:
		b.reply(chatID, "Отправьте /start <ключ API>, чтобы привязать аккаунт.")
	}
}

func (b *Bot) handleBind(ctx context.Context, chatID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		b.reply(chatID, "Укажите ключ API: /start <ключ API>")
		return
	}

	apiKey, err := uuid.Parse(parts[1])
	if err != nil {
		b.reply(chatID, "Ключ API не распознан. Проверьте его в настройках кошелька.")
		return
	}

	if err := b.binder.BindChat(ctx, apiKey, chatID); err != nil {
		slog.Warn("chat bind failed", "chat_id", chatID, "error", err)
		b.reply(chatID, "Не удалось привязать аккаунт: ключ API не найден.")
		return
	}

	slog.Info("chat bound", "chat_id", chatID)
	b.reply(chatID, "Аккаунт привязан. Сюда будут приходить уведомления.")
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("failed to send telegram reply", "chat_id", chatID, "error", err)
	}
}
