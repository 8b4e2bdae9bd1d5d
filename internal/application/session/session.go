// Package session tracks multi-step dialog state for bot users.
//
// The bot's conversational flows (creating a test, solving one, admin
// actions) span several messages. Between messages the expected next
// input is kept here, keyed by the user's Telegram ID.
package session

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATES
// ══════════════════════════════════════════════════════════════════════════════

// State identifies what input the bot expects from the user next.
type State string

const (
	// StateIdle - no active flow, free-form input is ignored by flows.
	StateIdle State = "idle"

	// StateAwaitingKey - user pressed "create", bot waits for the answer key.
	StateAwaitingKey State = "awaiting_key"

	// StateAwaitingCode - user pressed "solve", bot waits for a test code.
	StateAwaitingCode State = "awaiting_code"

	// StateAwaitingAnswers - code accepted, bot waits for the answer string.
	// Session.Code holds the test code being solved.
	StateAwaitingAnswers State = "awaiting_answers"

	// StateAwaitingStatsCode - bot waits for a code to show statistics for.
	StateAwaitingStatsCode State = "awaiting_stats_code"

	// StateAwaitingEndCode - bot waits for a code of the test to finish.
	StateAwaitingEndCode State = "awaiting_end_code"

	// StateAwaitingChannel - admin adds a mandatory channel.
	StateAwaitingChannel State = "awaiting_channel"

	// StateAwaitingAdminID - admin grants privileges to another user.
	StateAwaitingAdminID State = "awaiting_admin_id"

	// StateAwaitingBroadcast - admin composes a broadcast message.
	StateAwaitingBroadcast State = "awaiting_broadcast"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session is the dialog state of a single user.
type Session struct {
	// TelegramID identifies the user.
	TelegramID int64 `json:"telegram_id"`

	// State is the expected next input.
	State State `json:"state"`

	// Code is the test code bound to the flow (set in StateAwaitingAnswers).
	Code string `json:"code,omitempty"`

	// UpdatedAt is the time of the last transition.
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an idle session for the user.
func New(telegramID int64) *Session {
	return &Session{
		TelegramID: telegramID,
		State:      StateIdle,
		UpdatedAt:  time.Now().UTC(),
	}
}

// Transition moves the session to a new state and clears the bound code
// unless the new state needs it.
func (s *Session) Transition(state State) {
	s.State = state
	if state != StateAwaitingAnswers {
		s.Code = ""
	}
	s.UpdatedAt = time.Now().UTC()
}

// BindCode moves the session to StateAwaitingAnswers for the given code.
func (s *Session) BindCode(code string) {
	s.State = StateAwaitingAnswers
	s.Code = code
	s.UpdatedAt = time.Now().UTC()
}

// IsIdle reports whether no flow is in progress.
func (s *Session) IsIdle() bool {
	return s.State == StateIdle || s.State == ""
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTTL is how long an abandoned flow survives before expiring.
const DefaultTTL = 1 * time.Hour

// ErrSessionNotFound is returned when no session exists for the user.
var ErrSessionNotFound = errors.New("session: not found")

// Store persists dialog sessions.
//
// Implementations: Redis-backed store for production, in-memory store
// for tests and single-instance deployments.
type Store interface {
	// Get returns the session for the user.
	// Returns ErrSessionNotFound if absent or expired.
	Get(ctx context.Context, telegramID int64) (*Session, error)

	// Put saves the session with the store's TTL.
	Put(ctx context.Context, sess *Session) error

	// Clear removes the session, returning the user to idle.
	Clear(ctx context.Context, telegramID int64) error
}

// GetOrNew returns the stored session, or a fresh idle one when absent.
func GetOrNew(ctx context.Context, store Store, telegramID int64) (*Session, error) {
	sess, err := store.Get(ctx, telegramID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return New(telegramID), nil
		}
		return nil, err
	}
	return sess, nil
}
