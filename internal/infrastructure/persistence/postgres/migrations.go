package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// МИГРАЦИИ
// Схема версионируется встроенными миграциями, применяемыми на старте.
// ══════════════════════════════════════════════════════════════════════════════

// Migration - одна версия схемы.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator применяет миграции и ведёт учёт применённых версий.
type Migrator struct {
	conn      *Connection
	tableName string
}

// NewMigrator создаёт Migrator со встроенными миграциями.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, tableName: "schema_migrations"}
}

// Migrate применяет все непримёненные миграции по порядку,
// каждую в отдельной транзакции.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range Migrations() {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName))
	if err != nil {
		return fmt.Errorf("%w: create table: %v", ErrMigrationFailed, err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx,
		fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("%w: query applied: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrMigrationFailed, err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ВСТРОЕННЫЕ МИГРАЦИИ
// ══════════════════════════════════════════════════════════════════════════════

// Migrations возвращает все встроенные миграции.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_tests", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_submissions", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_channels", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

const migration001Up = `
CREATE TABLE users (
	id UUID PRIMARY KEY,
	telegram_id BIGINT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL DEFAULT '',
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX idx_users_telegram_id ON users (telegram_id);
CREATE INDEX idx_users_created_at ON users (created_at DESC);
`

const migration001Down = `DROP TABLE users;`

const migration002Up = `
CREATE TABLE tests (
	id UUID PRIMARY KEY,
	code VARCHAR(6) NOT NULL,
	answer_key TEXT NOT NULL,
	creator_id UUID NOT NULL REFERENCES users (id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	ended_at TIMESTAMP WITH TIME ZONE
);

-- Уникальность кода - инвариант генератора, защищённый на уровне БД.
CREATE UNIQUE INDEX idx_tests_code ON tests (code);
CREATE INDEX idx_tests_creator ON tests (creator_id, created_at DESC);
CREATE INDEX idx_tests_created_at ON tests (created_at DESC);
`

const migration002Down = `DROP TABLE tests;`

const migration003Up = `
CREATE TABLE test_submissions (
	id UUID PRIMARY KEY,
	test_id UUID NOT NULL REFERENCES tests (id),
	user_id UUID NOT NULL REFERENCES users (id),
	answers TEXT NOT NULL,
	correct_count INTEGER NOT NULL,
	total_count INTEGER NOT NULL,
	submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Одна попытка на пару (тест, респондент): гонка двойной отправки
-- разрешается этим индексом.
CREATE UNIQUE INDEX idx_submissions_test_user ON test_submissions (test_id, user_id);
CREATE INDEX idx_submissions_test ON test_submissions (test_id, submitted_at);
CREATE INDEX idx_submissions_user ON test_submissions (user_id, submitted_at DESC);
`

const migration003Down = `DROP TABLE test_submissions;`

const migration004Up = `
CREATE TABLE channels (
	id UUID PRIMARY KEY,
	chat_id BIGINT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	added_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX idx_channels_chat_id ON channels (chat_id);
`

const migration004Down = `DROP TABLE channels;`
