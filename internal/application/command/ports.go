package command

import (
	"context"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
)

// Notifier delivers out-of-band notifications about domain events.
//
// Every method is best-effort: implementations swallow delivery errors
// after logging them, callers never block a user reply on a notification.
type Notifier interface {
	// TestCreated notifies administrators that a test was created.
	TestCreated(ctx context.Context, test *quiz.Test, creator *identity.User)

	// SubmissionReceived notifies the test creator about a new submission.
	SubmissionReceived(ctx context.Context, test *quiz.Test, sub *quiz.TestSubmission, respondent *identity.User)

	// TestEnded notifies administrators that a test was finished.
	TestEnded(ctx context.Context, test *quiz.Test, actor *identity.User)
}

// Broadcaster sends a message to a single Telegram chat.
// Used by the broadcast command; service.BroadcastSender satisfies it.
type Broadcaster interface {
	SendHTML(ctx context.Context, chatID int64, text string) error
}

// ChatInfo is the subset of channel metadata the bot resolves
// before registering a mandatory channel.
type ChatInfo struct {
	ChatID   channel.ChatID
	Username string
	Title    string
}

// ChatResolver looks up channel metadata by identifier (@username or
// numeric ID). The Telegram client satisfies it.
type ChatResolver interface {
	ResolveChat(ctx context.Context, identifier string) (*ChatInfo, error)
}
