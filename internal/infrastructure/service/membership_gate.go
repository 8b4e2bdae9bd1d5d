package service

import (
	"context"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/pkg/circuitbreaker"
	"github.com/sinovhub/sinov-test-bot/pkg/logger"
)

// MembershipGate проверяет подписку пользователя на обязательные каналы.
//
// Проверка - удобство, а не защита: при недоступности Telegram API или
// открытом предохранителе пользователь пропускается. Блокировать работу
// бота из-за деградации внешнего сервиса хуже, чем пропустить
// неподписанного пользователя.
type MembershipGate struct {
	client   *telegram.Client
	channels channel.Repository
	breaker  *circuitbreaker.CircuitBreaker
	log      *logger.Logger
}

// NewMembershipGate создаёт MembershipGate.
func NewMembershipGate(client *telegram.Client, channels channel.Repository, log *logger.Logger) *MembershipGate {
	log = log.With(logger.Component("membership_gate"))
	breaker := circuitbreaker.MembershipBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	})
	return &MembershipGate{
		client:   client,
		channels: channels,
		breaker:  breaker,
		log:      log,
	}
}

// Check возвращает каналы, на которые пользователь НЕ подписан.
// Пустой срез означает, что доступ разрешён.
func (g *MembershipGate) Check(ctx context.Context, telegramID int64) ([]*channel.Channel, error) {
	active, err := g.channels.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}

	var missing []*channel.Channel
	for _, ch := range active {
		joined := true
		err := g.breaker.ExecuteWithFallback(ctx,
			func(ctx context.Context) error {
				member, err := g.client.GetChatMember(ctx, int64(ch.ChatID), telegramID)
				if err != nil {
					return err
				}
				joined = member.IsJoined()
				return nil
			},
			func(err error) error {
				// Предохранитель открыт: пропускаем без проверки.
				g.log.Warn("membership check skipped",
					logger.ChatID(int64(ch.ChatID)), logger.Err(err))
				return nil
			})
		if err != nil {
			// Сбой API равносилен пропуску проверки.
			g.log.Warn("membership check failed, allowing",
				logger.ChatID(int64(ch.ChatID)),
				logger.TelegramID(telegramID),
				logger.Err(err))
			continue
		}
		if !joined {
			missing = append(missing, ch)
		}
	}
	return missing, nil
}
