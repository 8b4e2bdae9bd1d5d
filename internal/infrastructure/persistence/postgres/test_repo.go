package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// TestRepository реализует quiz.TestRepository поверх PostgreSQL.
type TestRepository struct {
	conn *Connection
}

// NewTestRepository создаёт TestRepository.
func NewTestRepository(conn *Connection) *TestRepository {
	return &TestRepository{conn: conn}
}

const testColumns = `id, code, answer_key, creator_id, is_active, created_at, ended_at`

// Create сохраняет новый тест.
func (r *TestRepository) Create(ctx context.Context, t *quiz.Test) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO tests (id, code, answer_key, creator_id, is_active, created_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, string(t.Code), string(t.AnswerKey), t.CreatorID, t.IsActive, t.CreatedAt, t.EndedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrTestAlreadyExists
		}
		return fmt.Errorf("postgres: create test: %w", err)
	}
	return nil
}

// GetByID возвращает тест по внутреннему идентификатору.
func (r *TestRepository) GetByID(ctx context.Context, id string) (*quiz.Test, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id)
	return scanTest(row)
}

// GetByCode возвращает тест по коду.
func (r *TestRepository) GetByCode(ctx context.Context, code quiz.Code) (*quiz.Test, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE code = $1`, string(code))
	return scanTest(row)
}

// GetByCreator возвращает тесты пользователя, новые первыми.
func (r *TestRepository) GetByCreator(ctx context.Context, creatorID string) ([]*quiz.Test, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+testColumns+` FROM tests WHERE creator_id = $1 ORDER BY created_at DESC`,
		creatorID)
	if err != nil {
		return nil, fmt.Errorf("postgres: tests by creator: %w", err)
	}
	defer rows.Close()
	return scanTests(rows)
}

// End атомарно завершает тест. Условный UPDATE гарантирует, что из двух
// конкурентных запросов успеет только один.
func (r *TestRepository) End(ctx context.Context, code quiz.Code) (*quiz.Test, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE tests
		SET is_active = FALSE, ended_at = NOW()
		WHERE code = $1 AND is_active = TRUE
		RETURNING `+testColumns,
		string(code))

	test, err := scanTest(row)
	if err == nil {
		return test, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// UPDATE ничего не затронул: тест либо отсутствует, либо уже завершён.
	var exists bool
	if err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tests WHERE code = $1)`, string(code),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("postgres: end test: %w", err)
	}
	if !exists {
		return nil, shared.ErrTestNotFound
	}
	return nil, shared.ErrTestAlreadyEnded
}

// CodeExists реализует quiz.CodeChecker.
func (r *TestRepository) CodeExists(ctx context.Context, code quiz.Code) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tests WHERE code = $1)`, string(code),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: code exists: %w", err)
	}
	return exists, nil
}

// Count возвращает общее количество тестов.
func (r *TestRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM tests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count tests: %w", err)
	}
	return n, nil
}

// CountActive возвращает количество активных тестов.
func (r *TestRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM tests WHERE is_active = TRUE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count active tests: %w", err)
	}
	return n, nil
}

// GetRecent возвращает последние созданные тесты.
func (r *TestRepository) GetRecent(ctx context.Context, limit int) ([]*quiz.Test, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+testColumns+` FROM tests ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent tests: %w", err)
	}
	defer rows.Close()
	return scanTests(rows)
}

func scanTest(row pgx.Row) (*quiz.Test, error) {
	var t quiz.Test
	var code, answerKey string
	err := row.Scan(&t.ID, &code, &answerKey, &t.CreatorID, &t.IsActive, &t.CreatedAt, &t.EndedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTestNotFound
		}
		return nil, fmt.Errorf("postgres: scan test: %w", err)
	}
	t.Code = quiz.Code(code)
	t.AnswerKey = quiz.AnswerKey(answerKey)
	return &t, nil
}

func scanTests(rows pgx.Rows) ([]*quiz.Test, error) {
	var tests []*quiz.Test
	for rows.Next() {
		var t quiz.Test
		var code, answerKey string
		if err := rows.Scan(&t.ID, &code, &answerKey, &t.CreatorID, &t.IsActive, &t.CreatedAt, &t.EndedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan test: %w", err)
		}
		t.Code = quiz.Code(code)
		t.AnswerKey = quiz.AnswerKey(answerKey)
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}
