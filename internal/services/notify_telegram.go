package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habboverify/internal/logger"
)

const telegramTimeout = 10 * time.Second

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts audit events into an operator chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	client := &http.Client{Timeout: telegramTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	logger.Log.Infof("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, ev Event) error {
	if t == nil || t.chatID == 0 {
		logger.Log.Debugf("[tg][skip] chatID empty")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram sendMessage skipped: %w", err)
	}
	msg := tgbotapi.NewMessage(t.chatID, eventHTML(ev))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	logger.Log.Debugf("[tg][send] chatID=%d kind=%s", t.chatID, ev.Kind)
	return nil
}
