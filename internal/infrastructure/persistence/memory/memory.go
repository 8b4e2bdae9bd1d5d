// Package memory содержит потокобезопасные реализации репозиториев в
// памяти. Используются в тестах; семантика ошибок совпадает с postgres,
// включая нарушение уникальности кодов и пар (тест, респондент).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ТЕСТЫ
// ══════════════════════════════════════════════════════════════════════════════

// TestRepository реализует quiz.TestRepository в памяти.
type TestRepository struct {
	mu    sync.RWMutex
	byID  map[string]*quiz.Test
	order []string // порядок создания
}

// NewTestRepository создаёт пустой репозиторий тестов.
func NewTestRepository() *TestRepository {
	return &TestRepository{byID: make(map[string]*quiz.Test)}
}

func (r *TestRepository) Create(_ context.Context, t *quiz.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Code == t.Code {
			return shared.ErrTestAlreadyExists
		}
	}
	cp := *t
	r.byID[t.ID] = &cp
	r.order = append(r.order, t.ID)
	return nil
}

func (r *TestRepository) GetByID(_ context.Context, id string) (*quiz.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrTestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TestRepository) GetByCode(_ context.Context, code quiz.Code) (*quiz.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := r.findByCode(code)
	if t == nil {
		return nil, shared.ErrTestNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TestRepository) GetByCreator(_ context.Context, creatorID string) ([]*quiz.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*quiz.Test
	for i := len(r.order) - 1; i >= 0; i-- {
		t := r.byID[r.order[i]]
		if t.CreatorID == creatorID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *TestRepository) End(ctx context.Context, code quiz.Code) (*quiz.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.findByCode(code)
	if t == nil {
		return nil, shared.ErrTestNotFound
	}
	if err := t.End(timeNow()); err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (r *TestRepository) CodeExists(_ context.Context, code quiz.Code) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByCode(code) != nil, nil
}

func (r *TestRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *TestRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.byID {
		if t.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *TestRepository) GetRecent(_ context.Context, limit int) ([]*quiz.Test, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*quiz.Test
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.byID[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *TestRepository) findByCode(code quiz.Code) *quiz.Test {
	for _, t := range r.byID {
		if t.Code == code {
			return t
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ПОПЫТКИ
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository реализует quiz.SubmissionRepository в памяти.
type SubmissionRepository struct {
	mu   sync.RWMutex
	subs []*quiz.TestSubmission // в порядке отправки
}

// NewSubmissionRepository создаёт пустой репозиторий попыток.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{}
}

func (r *SubmissionRepository) Create(_ context.Context, s *quiz.TestSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.TestID == s.TestID && existing.UserID == s.UserID {
			return shared.ErrSubmissionExists
		}
	}
	cp := *s
	r.subs = append(r.subs, &cp)
	return nil
}

func (r *SubmissionRepository) GetByTestAndUser(_ context.Context, testID, userID string) (*quiz.TestSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if s.TestID == testID && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *SubmissionRepository) GetByTest(_ context.Context, testID string) ([]*quiz.TestSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*quiz.TestSubmission
	for _, s := range r.subs {
		if s.TestID == testID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *SubmissionRepository) GetByUser(_ context.Context, userID string) ([]*quiz.TestSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*quiz.TestSubmission
	for _, s := range r.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *SubmissionRepository) CountByTest(_ context.Context, testID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.subs {
		if s.TestID == testID {
			n++
		}
	}
	return n, nil
}
