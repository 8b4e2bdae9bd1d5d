// Package identity содержит доменную модель пользователя бота.
package identity

import (
	"fmt"
	"time"
)

// TelegramID представляет уникальный идентификатор пользователя Telegram.
type TelegramID int64

// IsValid проверяет, что TelegramID положительный.
func (t TelegramID) IsValid() bool {
	return t > 0
}

// User - пользователь бота: создатель тестов и/или респондент.
type User struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TelegramID - внешний идентификатор. Уникален среди всех пользователей.
	TelegramID TelegramID

	// Username - @username в Telegram, может быть пустым.
	Username string

	// FullName - отображаемое имя.
	FullName string

	// IsAdmin - привилегированный пользователь: управляет каналами,
	// администраторами и может действовать с любым тестом.
	IsAdmin bool

	// CreatedAt - момент первой регистрации.
	CreatedAt time.Time
}

// NewUser создаёт нового пользователя.
func NewUser(id string, telegramID TelegramID, username, fullName string, now time.Time) *User {
	return &User{
		ID:         id,
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
		CreatedAt:  now,
	}
}

// DisplayName возвращает имя для показа: полное имя, иначе @username,
// иначе числовой Telegram ID.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("ID: %d", u.TelegramID)
}
