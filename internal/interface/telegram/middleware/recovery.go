package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so one broken update cannot take down the
// polling loop. Users get a calm apology, operators get a stack trace.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace enables capturing stack traces.
	EnableStackTrace bool

	// UserErrorMessage is the message sent to users when a panic occurs.
	UserErrorMessage string

	// OnPanic is called when a panic is recovered.
	OnPanic func(ctx context.Context, info *PanicInfo)

	// MaxPanicsPerMinute limits panic processing to prevent cascading
	// failures from a poisoned update stream.
	MaxPanicsPerMinute int
}

// DefaultRecoveryConfig returns sensible defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		UserErrorMessage: "😔 Nimadir xato ketdi.\n" +
			"Birozdan so'ng qaytadan urinib ko'ring.",
		MaxPanicsPerMinute: 60,
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	// Value is the raw panic value.
	Value interface{}

	// StackTrace is the formatted stack trace, empty when disabled.
	StackTrace string

	// TelegramID is the user whose update triggered the panic.
	TelegramID int64

	// Operation is the command or callback being processed.
	Operation string

	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

// Error returns the panic value as an error message.
func (p *PanicInfo) Error() string {
	return fmt.Sprintf("panic in %s: %v", p.Operation, p.Value)
}

// RecoveryResult is the outcome of running a handler under recovery.
type RecoveryResult struct {
	// Recovered is true when a panic was caught.
	Recovered bool

	// PanicInfo contains panic details when Recovered is true.
	PanicInfo *PanicInfo

	// UserMessage is the text to show the user after a panic.
	UserMessage string
}

// RecoveryMiddleware recovers from panics in handlers.
type RecoveryMiddleware struct {
	config  RecoveryConfig
	limiter *panicRateLimiter
}

// NewRecoveryMiddleware creates a RecoveryMiddleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		config:  config,
		limiter: newPanicRateLimiter(config.MaxPanicsPerMinute),
	}
}

// RecoverWithHandler executes the handler and converts any panic into a
// RecoveryResult. Handler errors pass through untouched.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	telegramID int64,
	operation string,
	handler func() error,
) (result *RecoveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = m.handlePanic(ctx, r, telegramID, operation)
			err = nil
		}
	}()

	err = handler()
	return &RecoveryResult{Recovered: false}, err
}

func (m *RecoveryMiddleware) handlePanic(
	ctx context.Context,
	value interface{},
	telegramID int64,
	operation string,
) *RecoveryResult {
	if !m.limiter.allow() {
		return &RecoveryResult{
			Recovered:   true,
			UserMessage: m.config.UserErrorMessage,
		}
	}

	info := &PanicInfo{
		Value:      value,
		TelegramID: telegramID,
		Operation:  operation,
		Timestamp:  time.Now(),
	}
	if m.config.EnableStackTrace {
		info.StackTrace = string(debug.Stack())
	}

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   info,
		UserMessage: m.config.UserErrorMessage,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PANIC RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

type panicRateLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	count       int
	windowStart time.Time
}

func newPanicRateLimiter(maxPerMin int) *panicRateLimiter {
	return &panicRateLimiter{
		maxPerMin:   maxPerMin,
		windowStart: time.Now(),
	}
}

func (l *panicRateLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.windowStart) > time.Minute {
		l.windowStart = now
		l.count = 0
	}

	if l.count >= l.maxPerMin {
		return false
	}
	l.count++
	return true
}
