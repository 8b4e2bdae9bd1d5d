package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// UserRepository реализует identity.Repository поверх PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository создаёт UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, telegram_id, username, full_name, is_admin, created_at`

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, u *identity.User) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, telegram_id, username, full_name, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, int64(u.TelegramID), u.Username, u.FullName, u.IsAdmin, u.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("postgres: create user: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по внутреннему идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByTelegramID возвращает пользователя по Telegram ID.
func (r *UserRepository) GetByTelegramID(ctx context.Context, tid identity.TelegramID) (*identity.User, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, int64(tid))
	return scanUser(row)
}

// Update сохраняет изменения профиля и роли.
func (r *UserRepository) Update(ctx context.Context, u *identity.User) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE users
		SET username = $2, full_name = $3, is_admin = $4
		WHERE id = $1
	`, u.ID, u.Username, u.FullName, u.IsAdmin)
	if err != nil {
		return fmt.Errorf("postgres: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// GetAll возвращает всех пользователей.
func (r *UserRepository) GetAll(ctx context.Context) ([]*identity.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: all users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// GetAdmins возвращает администраторов.
func (r *UserRepository) GetAdmins(ctx context.Context) ([]*identity.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_admin = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: admins: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// GetRecent возвращает последних зарегистрированных пользователей.
func (r *UserRepository) GetRecent(ctx context.Context, limit int) ([]*identity.User, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Count возвращает количество пользователей.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count users: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var u identity.User
	var tid int64
	err := row.Scan(&u.ID, &tid, &u.Username, &u.FullName, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres: scan user: %w", err)
	}
	u.TelegramID = identity.TelegramID(tid)
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]*identity.User, error) {
	var users []*identity.User
	for rows.Next() {
		var u identity.User
		var tid int64
		if err := rows.Scan(&u.ID, &tid, &u.Username, &u.FullName, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		u.TelegramID = identity.TelegramID(tid)
		users = append(users, &u)
	}
	return users, rows.Err()
}
