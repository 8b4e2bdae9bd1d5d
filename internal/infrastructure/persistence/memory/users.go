package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

func timeNow() time.Time { return time.Now().UTC() }

// ══════════════════════════════════════════════════════════════════════════════
// ПОЛЬЗОВАТЕЛИ
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository реализует identity.Repository в памяти.
type UserRepository struct {
	mu    sync.RWMutex
	byID  map[string]*identity.User
	order []string
}

// NewUserRepository создаёт пустой репозиторий пользователей.
func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[string]*identity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.TelegramID == u.TelegramID {
			return shared.ErrUserAlreadyExists
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.order = append(r.order, u.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByTelegramID(_ context.Context, tid identity.TelegramID) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.TelegramID == tid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *UserRepository) Update(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetAll(_ context.Context) ([]*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*identity.User, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *UserRepository) GetAdmins(_ context.Context) ([]*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*identity.User
	for _, id := range r.order {
		if u := r.byID[id]; u.IsAdmin {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *UserRepository) GetRecent(_ context.Context, limit int) ([]*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*identity.User
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.byID[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// КАНАЛЫ
// ══════════════════════════════════════════════════════════════════════════════

// ChannelRepository реализует channel.Repository в памяти.
type ChannelRepository struct {
	mu    sync.RWMutex
	byID  map[string]*channel.Channel
	order []string
}

// NewChannelRepository создаёт пустой репозиторий каналов.
func NewChannelRepository() *ChannelRepository {
	return &ChannelRepository{byID: make(map[string]*channel.Channel)}
}

func (r *ChannelRepository) Create(_ context.Context, ch *channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ChatID == ch.ChatID {
			return shared.ErrChannelAlreadyExists
		}
	}
	cp := *ch
	r.byID[ch.ID] = &cp
	r.order = append(r.order, ch.ID)
	return nil
}

func (r *ChannelRepository) GetByChatID(_ context.Context, chatID channel.ChatID) (*channel.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.byID {
		if ch.ChatID == chatID {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, shared.ErrChannelNotFound
}

func (r *ChannelRepository) GetActive(_ context.Context) ([]*channel.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*channel.Channel
	for _, id := range r.order {
		if ch := r.byID[id]; ch.IsActive {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChannelRepository) Update(_ context.Context, ch *channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ch.ID]; !ok {
		return shared.ErrChannelNotFound
	}
	cp := *ch
	r.byID[ch.ID] = &cp
	return nil
}

func (r *ChannelRepository) Deactivate(_ context.Context, chatID channel.ChatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.byID {
		if ch.ChatID == chatID && ch.IsActive {
			ch.IsActive = false
			return nil
		}
	}
	return shared.ErrChannelNotFound
}

func (r *ChannelRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ch := range r.byID {
		if ch.IsActive {
			n++
		}
	}
	return n, nil
}
