package service

import (
	"context"

	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
)

// BroadcastSender адаптирует Telegram-клиент к command.Broadcaster.
type BroadcastSender struct {
	client *telegram.Client
}

// NewBroadcastSender создаёт BroadcastSender.
func NewBroadcastSender(client *telegram.Client) *BroadcastSender {
	return &BroadcastSender{client: client}
}

// SendHTML отправляет одно HTML-сообщение в чат.
func (b *BroadcastSender) SendHTML(ctx context.Context, chatID int64, html string) error {
	_, err := b.client.SendHTML(ctx, chatID, html)
	return err
}
