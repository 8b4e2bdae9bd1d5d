// Package channel содержит модель канала обязательной подписки.
// Канал - сущность шлюза членства, не часть ядра проверки тестов.
package channel

import (
	"strconv"
	"strings"
	"time"
)

// ChatID представляет идентификатор канала в Telegram.
// У каналов он отрицательный и начинается с -100.
type ChatID int64

// Channel - канал, подписка на который обязательна для команд
// создания и решения тестов.
type Channel struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// ChatID - внешний идентификатор. Уникален среди всех каналов.
	ChatID ChatID

	// Username - @username публичного канала, может быть пустым.
	Username string

	// Title - название канала.
	Title string

	// IsActive - участвует ли канал в проверке членства.
	// Деактивация - мягкое удаление.
	IsActive bool

	// AddedAt - момент добавления.
	AddedAt time.Time
}

// NewChannel создаёт активный канал.
func NewChannel(id string, chatID ChatID, username, title string, now time.Time) *Channel {
	return &Channel{
		ID:       id,
		ChatID:   chatID,
		Username: strings.TrimPrefix(username, "@"),
		Title:    title,
		IsActive: true,
		AddedAt:  now,
	}
}

// InviteURL возвращает ссылку для вступления: t.me/username для публичных
// каналов, t.me/c/<internal id> для приватных.
func (c *Channel) InviteURL() string {
	if c.Username != "" {
		return "https://t.me/" + c.Username
	}
	// -100XXXXXXXXXX -> XXXXXXXXXX
	raw := strconv.FormatInt(-int64(c.ChatID), 10)
	return "https://t.me/c/" + strings.TrimPrefix(raw, "100")
}
