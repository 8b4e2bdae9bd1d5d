package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func TestGrantAdmin(t *testing.T) {
	f := newFixtures()
	target := f.seedUser(t, 200, "Yangi admin")
	handler := NewGrantAdminHandler(f.users)

	res, err := handler.Handle(context.Background(), GrantAdminCommand{TargetTelegramID: 200})
	require.NoError(t, err)

	assert.False(t, res.AlreadyAdmin)
	assert.True(t, res.User.IsAdmin)

	stored, err := f.users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestGrantAdmin_AlreadyAdmin(t *testing.T) {
	f := newFixtures()
	f.seedAdmin(t, 200, "Admin")
	handler := NewGrantAdminHandler(f.users)

	res, err := handler.Handle(context.Background(), GrantAdminCommand{TargetTelegramID: 200})
	require.NoError(t, err)

	assert.True(t, res.AlreadyAdmin)
	assert.True(t, res.User.IsAdmin)
}

func TestGrantAdmin_UnknownUser(t *testing.T) {
	f := newFixtures()
	handler := NewGrantAdminHandler(f.users)

	_, err := handler.Handle(context.Background(), GrantAdminCommand{TargetTelegramID: 999})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
