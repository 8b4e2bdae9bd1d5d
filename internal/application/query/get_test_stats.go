// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST STATISTICS QUERY
// For an active test only the submission count is visible, the answer
// key and per-question breakdown stay hidden until the test is finished.
// ══════════════════════════════════════════════════════════════════════════════

// StatsCache caches aggregated statistics of finished tests.
// A finished test is immutable, so entries never need invalidation.
type StatsCache interface {
	// Get returns cached statistics, or (nil, nil) on a miss.
	Get(ctx context.Context, code quiz.Code) (*quiz.Statistics, error)

	// Put stores statistics for the code.
	Put(ctx context.Context, code quiz.Code, stats *quiz.Statistics) error
}

// GetTestStatsQuery asks for statistics of a test.
type GetTestStatsQuery struct {
	// Code is the test code, as typed.
	Code string

	// ActorTelegramID is the Telegram ID of the user asking.
	// Statistics are visible to the creator and administrators only.
	ActorTelegramID int64
}

// TestStats is the statistics view of a test.
type TestStats struct {
	// Test is the test itself.
	Test *quiz.Test

	// SubmissionCount is always populated.
	SubmissionCount int

	// Full holds the aggregated breakdown, nil while the test is active.
	Full *quiz.Statistics
}

// GetTestStatsHandler handles GetTestStatsQuery.
type GetTestStatsHandler struct {
	tests       quiz.TestRepository
	submissions quiz.SubmissionRepository
	users       identity.Repository
	cache       StatsCache
}

// NewGetTestStatsHandler creates a GetTestStatsHandler. The cache may be nil.
func NewGetTestStatsHandler(
	tests quiz.TestRepository,
	submissions quiz.SubmissionRepository,
	users identity.Repository,
	cache StatsCache,
) *GetTestStatsHandler {
	return &GetTestStatsHandler{
		tests:       tests,
		submissions: submissions,
		users:       users,
		cache:       cache,
	}
}

// Handle returns the statistics view for the test.
func (h *GetTestStatsHandler) Handle(ctx context.Context, q GetTestStatsQuery) (*TestStats, error) {
	code := quiz.Code(quiz.NormalizeCode(q.Code))

	test, err := h.tests.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	actor, err := h.users.GetByTelegramID(ctx, identity.TelegramID(q.ActorTelegramID))
	if err != nil {
		return nil, fmt.Errorf("get_test_stats: actor lookup: %w", err)
	}
	if !test.CanBeManagedBy(actor.ID, actor.IsAdmin) {
		return nil, shared.ErrNotPrivileged
	}

	if test.IsActive {
		count, err := h.submissions.CountByTest(ctx, test.ID)
		if err != nil {
			return nil, fmt.Errorf("get_test_stats: count: %w", err)
		}
		return &TestStats{Test: test, SubmissionCount: count}, nil
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, code); err == nil && cached != nil {
			return &TestStats{Test: test, SubmissionCount: cached.TotalSubmissions, Full: cached}, nil
		}
	}

	subs, err := h.submissions.GetByTest(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("get_test_stats: submissions: %w", err)
	}

	stats := quiz.Aggregate(test, subs, h.resolveName(ctx))

	if h.cache != nil {
		_ = h.cache.Put(ctx, code, stats)
	}

	return &TestStats{Test: test, SubmissionCount: stats.TotalSubmissions, Full: stats}, nil
}

// resolveName maps internal user IDs to display names for the leaderboard.
// A respondent without a user record gets a neutral placeholder, internal
// IDs never leak into messages.
func (h *GetTestStatsHandler) resolveName(ctx context.Context) quiz.NameResolver {
	return func(userID string) string {
		user, err := h.users.GetByID(ctx, userID)
		if err != nil {
			return "Noma'lum ishtirokchi"
		}
		return user.DisplayName()
	}
}
