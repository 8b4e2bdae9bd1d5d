// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// codeInsertRetries bounds re-generation when an insert loses the race
// on the unique code index.
const codeInsertRetries = 2

// ══════════════════════════════════════════════════════════════════════════════
// CREATE TEST COMMAND
// A creator submits an answer key and receives a shareable test code.
// ══════════════════════════════════════════════════════════════════════════════

// CreateTestCommand contains the data to create a test.
type CreateTestCommand struct {
	// CreatorTelegramID is the Telegram ID of the test author.
	CreatorTelegramID int64

	// RawAnswerKey is the answer key exactly as the user typed it.
	RawAnswerKey string
}

// CreateTestResult contains the outcome of test creation.
type CreateTestResult struct {
	// Test is the persisted test.
	Test *quiz.Test

	// Code is the shareable code respondents will use.
	Code quiz.Code
}

// CreateTestHandler handles CreateTestCommand.
type CreateTestHandler struct {
	tests     quiz.TestRepository
	users     identity.Repository
	generator *quiz.Generator
	notifier  Notifier
}

// NewCreateTestHandler creates a CreateTestHandler.
func NewCreateTestHandler(
	tests quiz.TestRepository,
	users identity.Repository,
	generator *quiz.Generator,
	notifier Notifier,
) *CreateTestHandler {
	return &CreateTestHandler{
		tests:     tests,
		users:     users,
		generator: generator,
		notifier:  notifier,
	}
}

// Handle validates the answer key, allocates a unique code and stores the test.
func (h *CreateTestHandler) Handle(ctx context.Context, cmd CreateTestCommand) (*CreateTestResult, error) {
	key, err := quiz.NewAnswerKey(cmd.RawAnswerKey)
	if err != nil {
		return nil, err
	}

	creator, err := h.users.GetByTelegramID(ctx, identity.TelegramID(cmd.CreatorTelegramID))
	if err != nil {
		return nil, fmt.Errorf("create_test: creator lookup: %w", err)
	}

	// The unique index on the code is the authoritative guard: a code
	// that passed generation can still lose the insert race, then a
	// fresh code is drawn and the insert retried.
	var test *quiz.Test
	for attempt := 0; ; attempt++ {
		code, err := h.generator.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("create_test: %w", err)
		}

		test = quiz.NewTest(uuid.NewString(), code, key, creator.ID, time.Now().UTC())
		err = h.tests.Create(ctx, test)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrAlreadyExists) && attempt < codeInsertRetries {
			continue
		}
		return nil, fmt.Errorf("create_test: persist: %w", err)
	}

	// Admin notification is best-effort and must not delay the reply.
	if h.notifier != nil {
		go h.notifier.TestCreated(context.WithoutCancel(ctx), test, creator)
	}

	return &CreateTestResult{Test: test, Code: test.Code}, nil
}
