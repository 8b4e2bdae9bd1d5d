package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

type fakeChecker struct {
	taken map[Code]bool
	err   error
	calls int
}

func (f *fakeChecker) CodeExists(_ context.Context, code Code) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.taken[code], nil
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator(&fakeChecker{}, rand.New(rand.NewSource(1)))

	code, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, string(code), CodeLength)
	assert.True(t, code.IsValid())
	for _, r := range code {
		assert.True(t, strings.ContainsRune(CodeAlphabet, r))
	}
}

func TestGenerator_SkipsTakenCodes(t *testing.T) {
	// Identical seeds walk the same sequence, so the first code the
	// generator would produce is known ahead of time.
	warmup := NewGenerator(&fakeChecker{}, rand.New(rand.NewSource(42)))
	first, err := warmup.Generate(context.Background())
	require.NoError(t, err)

	checker := &fakeChecker{taken: map[Code]bool{first: true}}
	gen := NewGenerator(checker, rand.New(rand.NewSource(42)))

	code, err := gen.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, code)
	assert.Equal(t, 2, checker.calls)
}

func TestGenerator_ExhaustsAfterLimit(t *testing.T) {
	checker := &fakeChecker{}
	gen := NewGenerator(&alwaysTaken{inner: checker}, rand.New(rand.NewSource(7)))

	_, err := gen.Generate(context.Background())

	assert.ErrorIs(t, err, shared.ErrGenerationExhausted)
	assert.Equal(t, 100, checker.calls)
}

func TestGenerator_PropagatesCheckerError(t *testing.T) {
	checker := &fakeChecker{err: errors.New("storage down")}
	gen := NewGenerator(checker, rand.New(rand.NewSource(7)))

	_, err := gen.Generate(context.Background())

	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Equal(t, 1, checker.calls)
}

type alwaysTaken struct {
	inner *fakeChecker
}

func (a *alwaysTaken) CodeExists(ctx context.Context, code Code) (bool, error) {
	a.inner.calls++
	return true, nil
}
