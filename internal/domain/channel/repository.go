package channel

import "context"

// Repository определяет контракт хранилища каналов.
type Repository interface {
	// Create сохраняет новый канал.
	// Возвращает shared.ErrChannelAlreadyExists при дубликате ChatID.
	Create(ctx context.Context, ch *Channel) error

	// GetByChatID возвращает канал по внешнему идентификатору,
	// включая деактивированные.
	GetByChatID(ctx context.Context, chatID ChatID) (*Channel, error)

	// GetActive возвращает все активные каналы в порядке добавления.
	GetActive(ctx context.Context) ([]*Channel, error)

	// Update сохраняет изменения существующего канала
	// (реактивация, смена названия).
	Update(ctx context.Context, ch *Channel) error

	// Deactivate помечает канал неактивным.
	// Возвращает shared.ErrChannelNotFound если канал не найден.
	Deactivate(ctx context.Context, chatID ChatID) error

	// Count возвращает число активных каналов.
	Count(ctx context.Context) (int, error)
}
