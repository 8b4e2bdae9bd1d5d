// Package service содержит инфраструктурные сервисы поверх Telegram API:
// доставку уведомлений и проверку обязательной подписки.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/pkg/logger"
)

// notifyTimeout ограничивает каждую фоновую доставку.
const notifyTimeout = 10 * time.Second

// Notifier реализует command.Notifier: уведомления best-effort.
// Ошибки доставки логируются и считаются, но никогда не всплывают
// к пользовательскому потоку.
type Notifier struct {
	client *telegram.Client
	users  identity.Repository
	log    *logger.Logger

	failures atomic.Int64
}

// NewNotifier создаёт Notifier.
func NewNotifier(client *telegram.Client, users identity.Repository, log *logger.Logger) *Notifier {
	return &Notifier{
		client: client,
		users:  users,
		log:    log.With(logger.Component("notifier")),
	}
}

// Failures возвращает число неудачных доставок с момента старта.
func (n *Notifier) Failures() int64 {
	return n.failures.Load()
}

// TestCreated уведомляет администраторов о новом тесте.
func (n *Notifier) TestCreated(ctx context.Context, test *quiz.Test, creator *identity.User) {
	text := fmt.Sprintf(
		"🆕 <b>Yangi test yaratildi!</b>\n\n"+
			"👤 Yaratuvchi: %s\n"+
			"🔑 Kod: <code>%s</code>\n"+
			"📋 Savollar soni: %d",
		creator.DisplayName(), test.Code, test.TotalQuestions(),
	)
	n.toAdmins(ctx, text)
}

// SubmissionReceived уведомляет автора теста о новой попытке.
func (n *Notifier) SubmissionReceived(ctx context.Context, test *quiz.Test, sub *quiz.TestSubmission, respondent *identity.User) {
	creator, err := n.users.GetByID(ctx, test.CreatorID)
	if err != nil {
		n.failures.Add(1)
		n.log.Warn("creator lookup for notification failed",
			logger.TestCode(string(test.Code)), logger.Err(err))
		return
	}

	text := fmt.Sprintf(
		"📩 <b>Testingizga yangi javob!</b>\n\n"+
			"🔑 Test: <code>%s</code>\n"+
			"👤 Ishtirokchi: %s\n"+
			"✅ Natija: %d/%d (%.1f%%)",
		test.Code, respondent.DisplayName(),
		sub.CorrectCount, sub.TotalCount, sub.Percentage(),
	)
	n.send(ctx, int64(creator.TelegramID), text)
}

// TestEnded уведомляет администраторов о завершении теста.
func (n *Notifier) TestEnded(ctx context.Context, test *quiz.Test, actor *identity.User) {
	text := fmt.Sprintf(
		"🏁 <b>Test yakunlandi</b>\n\n"+
			"🔑 Kod: <code>%s</code>\n"+
			"👤 Yakunladi: %s",
		test.Code, actor.DisplayName(),
	)
	n.toAdmins(ctx, text)
}

func (n *Notifier) toAdmins(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	admins, err := n.users.GetAdmins(ctx)
	if err != nil {
		n.failures.Add(1)
		n.log.Warn("admin lookup for notification failed", logger.Err(err))
		return
	}
	for _, admin := range admins {
		n.send(ctx, int64(admin.TelegramID), text)
	}
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if _, err := n.client.SendHTML(ctx, chatID, text); err != nil {
		n.failures.Add(1)
		n.log.Warn("notification delivery failed",
			logger.ChatID(chatID), logger.Err(err))
	}
}
