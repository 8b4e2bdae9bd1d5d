package query

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN OVERVIEW QUERY
// The counters and recent lists shown on the admin panel.
// ══════════════════════════════════════════════════════════════════════════════

// recentLimit bounds the recent users/tests lists on the panel.
const recentLimit = 10

// AdminOverview is the admin panel snapshot.
type AdminOverview struct {
	TotalUsers   int
	TotalTests   int
	ActiveTests  int
	ChannelCount int

	RecentUsers []*identity.User
	RecentTests []*quiz.Test
	Channels    []*channel.Channel
}

// GetAdminOverviewHandler builds the admin panel snapshot.
type GetAdminOverviewHandler struct {
	tests    quiz.TestRepository
	users    identity.Repository
	channels channel.Repository
}

// NewGetAdminOverviewHandler creates a GetAdminOverviewHandler.
func NewGetAdminOverviewHandler(
	tests quiz.TestRepository,
	users identity.Repository,
	channels channel.Repository,
) *GetAdminOverviewHandler {
	return &GetAdminOverviewHandler{tests: tests, users: users, channels: channels}
}

// Handle collects the panel counters and recent activity.
func (h *GetAdminOverviewHandler) Handle(ctx context.Context) (*AdminOverview, error) {
	o := &AdminOverview{}
	var err error

	if o.TotalUsers, err = h.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin_overview: users: %w", err)
	}
	if o.TotalTests, err = h.tests.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin_overview: tests: %w", err)
	}
	if o.ActiveTests, err = h.tests.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("admin_overview: active tests: %w", err)
	}
	if o.ChannelCount, err = h.channels.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin_overview: channels: %w", err)
	}
	if o.RecentUsers, err = h.users.GetRecent(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("admin_overview: recent users: %w", err)
	}
	if o.RecentTests, err = h.tests.GetRecent(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("admin_overview: recent tests: %w", err)
	}
	if o.Channels, err = h.channels.GetActive(ctx); err != nil {
		return nil, fmt.Errorf("admin_overview: channel list: %w", err)
	}
	return o, nil
}
