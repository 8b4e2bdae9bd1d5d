package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ChannelRepository реализует channel.Repository поверх PostgreSQL.
type ChannelRepository struct {
	conn *Connection
}

// NewChannelRepository создаёт ChannelRepository.
func NewChannelRepository(conn *Connection) *ChannelRepository {
	return &ChannelRepository{conn: conn}
}

const channelColumns = `id, chat_id, username, title, is_active, added_at`

// Create сохраняет новый канал.
func (r *ChannelRepository) Create(ctx context.Context, ch *channel.Channel) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO channels (id, chat_id, username, title, is_active, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ch.ID, int64(ch.ChatID), ch.Username, ch.Title, ch.IsActive, ch.AddedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrChannelAlreadyExists
		}
		return fmt.Errorf("postgres: create channel: %w", err)
	}
	return nil
}

// GetByChatID возвращает канал, включая деактивированные.
func (r *ChannelRepository) GetByChatID(ctx context.Context, chatID channel.ChatID) (*channel.Channel, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE chat_id = $1`, int64(chatID))
	return scanChannel(row)
}

// GetActive возвращает активные каналы в порядке добавления.
func (r *ChannelRepository) GetActive(ctx context.Context) ([]*channel.Channel, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE is_active = TRUE ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: active channels: %w", err)
	}
	defer rows.Close()

	var channels []*channel.Channel
	for rows.Next() {
		ch, err := scanChannelRow(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// Update сохраняет изменения канала.
func (r *ChannelRepository) Update(ctx context.Context, ch *channel.Channel) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE channels
		SET username = $2, title = $3, is_active = $4
		WHERE id = $1
	`, ch.ID, ch.Username, ch.Title, ch.IsActive)
	if err != nil {
		return fmt.Errorf("postgres: update channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrChannelNotFound
	}
	return nil
}

// Deactivate помечает канал неактивным.
func (r *ChannelRepository) Deactivate(ctx context.Context, chatID channel.ChatID) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE channels SET is_active = FALSE WHERE chat_id = $1 AND is_active = TRUE`,
		int64(chatID))
	if err != nil {
		return fmt.Errorf("postgres: deactivate channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrChannelNotFound
	}
	return nil
}

// Count возвращает число активных каналов.
func (r *ChannelRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM channels WHERE is_active = TRUE`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count channels: %w", err)
	}
	return n, nil
}

func scanChannel(row pgx.Row) (*channel.Channel, error) {
	var ch channel.Channel
	var chatID int64
	err := row.Scan(&ch.ID, &chatID, &ch.Username, &ch.Title, &ch.IsActive, &ch.AddedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChannelNotFound
		}
		return nil, fmt.Errorf("postgres: scan channel: %w", err)
	}
	ch.ChatID = channel.ChatID(chatID)
	return &ch, nil
}

func scanChannelRow(rows pgx.Rows) (*channel.Channel, error) {
	var ch channel.Channel
	var chatID int64
	if err := rows.Scan(&ch.ID, &chatID, &ch.Username, &ch.Title, &ch.IsActive, &ch.AddedAt); err != nil {
		return nil, fmt.Errorf("postgres: scan channel: %w", err)
	}
	ch.ChatID = channel.ChatID(chatID)
	return &ch, nil
}
