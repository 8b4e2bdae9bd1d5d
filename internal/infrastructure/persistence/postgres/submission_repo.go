package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// SubmissionRepository реализует quiz.SubmissionRepository поверх PostgreSQL.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository создаёт SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

const submissionColumns = `id, test_id, user_id, answers, correct_count, total_count, submitted_at`

// Create сохраняет попытку. Гонка двойной отправки разрешается
// уникальным индексом (test_id, user_id).
func (r *SubmissionRepository) Create(ctx context.Context, s *quiz.TestSubmission) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO test_submissions (id, test_id, user_id, answers, correct_count, total_count, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.TestID, s.UserID, s.Answers, s.CorrectCount, s.TotalCount, s.SubmittedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSubmissionExists
		}
		return fmt.Errorf("postgres: create submission: %w", err)
	}
	return nil
}

// GetByTestAndUser возвращает попытку респондента по тесту.
func (r *SubmissionRepository) GetByTestAndUser(ctx context.Context, testID, userID string) (*quiz.TestSubmission, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM test_submissions WHERE test_id = $1 AND user_id = $2`,
		testID, userID)
	return scanSubmission(row)
}

// GetByTest возвращает все попытки теста в порядке отправки.
func (r *SubmissionRepository) GetByTest(ctx context.Context, testID string) ([]*quiz.TestSubmission, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+submissionColumns+` FROM test_submissions WHERE test_id = $1 ORDER BY submitted_at, id`,
		testID)
	if err != nil {
		return nil, fmt.Errorf("postgres: submissions by test: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

// GetByUser возвращает попытки респондента, новые первыми.
func (r *SubmissionRepository) GetByUser(ctx context.Context, userID string) ([]*quiz.TestSubmission, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+submissionColumns+` FROM test_submissions WHERE user_id = $1 ORDER BY submitted_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: submissions by user: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

// CountByTest возвращает количество попыток по тесту.
func (r *SubmissionRepository) CountByTest(ctx context.Context, testID string) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_submissions WHERE test_id = $1`, testID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count submissions: %w", err)
	}
	return n, nil
}

func scanSubmission(row pgx.Row) (*quiz.TestSubmission, error) {
	var s quiz.TestSubmission
	err := row.Scan(&s.ID, &s.TestID, &s.UserID, &s.Answers, &s.CorrectCount, &s.TotalCount, &s.SubmittedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan submission: %w", err)
	}
	return &s, nil
}

func scanSubmissions(rows pgx.Rows) ([]*quiz.TestSubmission, error) {
	var subs []*quiz.TestSubmission
	for rows.Next() {
		var s quiz.TestSubmission
		if err := rows.Scan(&s.ID, &s.TestID, &s.UserID, &s.Answers, &s.CorrectCount, &s.TotalCount, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
