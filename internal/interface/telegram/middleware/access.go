// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const (
	// UserContextKey stores the authenticated *identity.User.
	UserContextKey contextKey = "user"

	// TelegramIDContextKey stores the sender's Telegram ID.
	TelegramIDContextKey contextKey = "telegram_id"
)

// ContextWithUser adds a user to the context.
func ContextWithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext extracts the user from the context, nil if absent.
func UserFromContext(ctx context.Context) *identity.User {
	user, _ := ctx.Value(UserContextKey).(*identity.User)
	return user
}

// ContextWithTelegramID adds a Telegram ID to the context.
func ContextWithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext extracts the Telegram ID from context, 0 if absent.
func TelegramIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(TelegramIDContextKey).(int64)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS MIDDLEWARE
// Every incoming update registers (or refreshes) the sender, so handlers
// can rely on the user existing. A short-lived cache keeps the hot path
// off the database.
// ══════════════════════════════════════════════════════════════════════════════

// AccessConfig holds configuration for the access middleware.
type AccessConfig struct {
	// CacheTTL is how long a resolved user stays cached.
	CacheTTL time.Duration
}

// DefaultAccessConfig returns sensible defaults.
func DefaultAccessConfig() AccessConfig {
	return AccessConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// AccessMiddleware resolves the sender into a registered user.
type AccessMiddleware struct {
	register *command.RegisterUserHandler
	config   AccessConfig
	cache    *userCache
}

// NewAccessMiddleware creates an AccessMiddleware.
func NewAccessMiddleware(register *command.RegisterUserHandler, config AccessConfig) *AccessMiddleware {
	return &AccessMiddleware{
		register: register,
		config:   config,
		cache:    newUserCache(config.CacheTTL),
	}
}

// Resolve returns the registered user for the sender, creating the
// record on first contact and refreshing the profile on later ones.
func (m *AccessMiddleware) Resolve(ctx context.Context, telegramID int64, username, fullName string) (*identity.User, error) {
	if cached := m.cache.get(telegramID); cached != nil {
		return cached, nil
	}

	user, err := m.register.Handle(ctx, command.RegisterUserCommand{
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
	})
	if err != nil {
		return nil, err
	}

	m.cache.put(telegramID, user)
	return user, nil
}

// InvalidateCache drops the cached entry for the user.
// Called after privilege changes so IsAdmin is re-read promptly.
func (m *AccessMiddleware) InvalidateCache(telegramID int64) {
	m.cache.invalidate(telegramID)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER CACHE
// ══════════════════════════════════════════════════════════════════════════════

type userCache struct {
	mu      sync.RWMutex
	entries map[int64]userCacheEntry
	ttl     time.Duration
}

type userCacheEntry struct {
	user      *identity.User
	expiresAt time.Time
}

func newUserCache(ttl time.Duration) *userCache {
	return &userCache{
		entries: make(map[int64]userCacheEntry),
		ttl:     ttl,
	}
}

func (c *userCache) get(telegramID int64) *identity.User {
	c.mu.RLock()
	entry, ok := c.entries[telegramID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.user
}

func (c *userCache) put(telegramID int64, user *identity.User) {
	c.mu.Lock()
	c.entries[telegramID] = userCacheEntry{
		user:      user,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *userCache) invalidate(telegramID int64) {
	c.mu.Lock()
	delete(c.entries, telegramID)
	c.mu.Unlock()
}
