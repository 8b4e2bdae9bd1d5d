package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/persistence/memory"
)

func TestRateLimiter_AllowsWithinCapacity(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Capacity:        3,
		RefillInterval:  time.Minute,
		CleanupInterval: time.Hour,
		IdleTTL:         time.Hour,
	})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		res := rl.Check(context.Background(), 100)
		assert.True(t, res.Allowed, "request %d", i+1)
	}

	res := rl.Check(context.Background(), 100)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestRateLimiter_BucketsArePerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Capacity:        1,
		RefillInterval:  time.Minute,
		CleanupInterval: time.Hour,
		IdleTTL:         time.Hour,
	})
	defer rl.Stop()

	require.True(t, rl.Check(context.Background(), 100).Allowed)
	require.False(t, rl.Check(context.Background(), 100).Allowed)

	assert.True(t, rl.Check(context.Background(), 200).Allowed)
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Capacity:        1,
		RefillInterval:  10 * time.Millisecond,
		CleanupInterval: time.Hour,
		IdleTTL:         time.Hour,
	})
	defer rl.Stop()

	require.True(t, rl.Check(context.Background(), 100).Allowed)
	require.False(t, rl.Check(context.Background(), 100).Allowed)

	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Check(context.Background(), 100).Allowed)
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Capacity:        1,
		RefillInterval:  time.Minute,
		CleanupInterval: time.Hour,
		IdleTTL:         time.Hour,
	})
	defer rl.Stop()

	require.True(t, rl.Check(context.Background(), 100).Allowed)
	require.False(t, rl.Check(context.Background(), 100).Allowed)

	rl.Reset(100)
	assert.True(t, rl.Check(context.Background(), 100).Allowed)
}

func TestRecovery_PassesThroughErrors(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())
	handlerErr := errors.New("handler failed")

	result, err := m.RecoverWithHandler(context.Background(), 100, "test_op", func() error {
		return handlerErr
	})

	assert.ErrorIs(t, err, handlerErr)
	assert.False(t, result.Recovered)
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var captured *PanicInfo
	config := DefaultRecoveryConfig()
	config.OnPanic = func(_ context.Context, info *PanicInfo) {
		captured = info
	}
	m := NewRecoveryMiddleware(config)

	result, err := m.RecoverWithHandler(context.Background(), 100, "test_op", func() error {
		panic("boom")
	})

	assert.NoError(t, err)
	require.True(t, result.Recovered)
	assert.NotEmpty(t, result.UserMessage)

	require.NotNil(t, captured)
	assert.Equal(t, "boom", captured.Value)
	assert.Equal(t, int64(100), captured.TelegramID)
	assert.Equal(t, "test_op", captured.Operation)
	assert.Contains(t, captured.Error(), "test_op")
}

func TestAccessMiddleware_CachesResolvedUser(t *testing.T) {
	users := memory.NewUserRepository()
	register := command.NewRegisterUserHandler(users)
	m := NewAccessMiddleware(register, DefaultAccessConfig())

	first, err := m.Resolve(context.Background(), 100, "aziz", "Aziz")
	require.NoError(t, err)

	// A profile change is not visible until the cache entry expires or
	// is invalidated.
	second, err := m.Resolve(context.Background(), 100, "aziz_new", "Aziz K")
	require.NoError(t, err)
	assert.Equal(t, first.Username, second.Username)

	m.InvalidateCache(100)
	third, err := m.Resolve(context.Background(), 100, "aziz_new", "Aziz K")
	require.NoError(t, err)
	assert.Equal(t, "aziz_new", third.Username)
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithTelegramID(context.Background(), 100)
	assert.Equal(t, int64(100), TelegramIDFromContext(ctx))
	assert.Equal(t, int64(0), TelegramIDFromContext(context.Background()))

	assert.Nil(t, UserFromContext(context.Background()))

	user := identity.NewUser("u-1", 100, "aziz", "Aziz", time.Now().UTC())
	assert.Equal(t, user, UserFromContext(ContextWithUser(context.Background(), user)))
}
