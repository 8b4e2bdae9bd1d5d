package identity

import "context"

// Repository определяет операции над пользователями.
// Реализации - в infrastructure/persistence.
type Repository interface {
	// Create сохраняет нового пользователя.
	// Возвращает ErrUserAlreadyExists при занятом Telegram ID.
	Create(ctx context.Context, user *User) error

	// GetByID возвращает пользователя по внутреннему ID.
	// Возвращает ErrUserNotFound, если пользователя нет.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByTelegramID возвращает пользователя по Telegram ID.
	// Возвращает ErrUserNotFound, если пользователя нет.
	GetByTelegramID(ctx context.Context, telegramID TelegramID) (*User, error)

	// Update обновляет данные пользователя.
	// Возвращает ErrUserNotFound, если пользователя нет.
	Update(ctx context.Context, user *User) error

	// GetAll возвращает всех пользователей, новые первыми.
	GetAll(ctx context.Context) ([]*User, error)

	// GetAdmins возвращает привилегированных пользователей.
	GetAdmins(ctx context.Context) ([]*User, error)

	// GetRecent возвращает последних зарегистрированных пользователей.
	GetRecent(ctx context.Context, limit int) ([]*User, error)

	// Count возвращает общее количество пользователей.
	Count(ctx context.Context) (int, error)
}
