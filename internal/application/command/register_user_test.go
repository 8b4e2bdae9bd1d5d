package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser_CreatesNewUser(t *testing.T) {
	f := newFixtures()
	handler := NewRegisterUserHandler(f.users)

	user, err := handler.Handle(context.Background(), RegisterUserCommand{
		TelegramID: 100,
		Username:   "aziz",
		FullName:   "Aziz Karimov",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, int64(100), int64(user.TelegramID))
	assert.Equal(t, "aziz", user.Username)
	assert.Equal(t, "Aziz Karimov", user.FullName)
	assert.False(t, user.IsAdmin)
}

func TestRegisterUser_RefreshesProfile(t *testing.T) {
	f := newFixtures()
	handler := NewRegisterUserHandler(f.users)

	first, err := handler.Handle(context.Background(), RegisterUserCommand{
		TelegramID: 100,
		Username:   "aziz",
		FullName:   "Aziz",
	})
	require.NoError(t, err)

	second, err := handler.Handle(context.Background(), RegisterUserCommand{
		TelegramID: 100,
		Username:   "aziz_k",
		FullName:   "Aziz Karimov",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "aziz_k", second.Username)
	assert.Equal(t, "Aziz Karimov", second.FullName)
}

func TestRegisterUser_KeepsAdminFlag(t *testing.T) {
	f := newFixtures()
	f.seedAdmin(t, 100, "Admin")
	handler := NewRegisterUserHandler(f.users)

	user, err := handler.Handle(context.Background(), RegisterUserCommand{
		TelegramID: 100,
		Username:   "admin",
		FullName:   "Admin",
	})
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}
