package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type userRepository struct {
	s *Store
}

// NewUserRepository 内存版用户仓储
func NewUserRepository(s *Store) user.Repository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailDuplicate
		}
	}
	u.ID = r.s.nextID()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*user.User, error) {
	defer r.s.lock(ctx)()
	out := make(map[uint]*user.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.users[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = *u
	return nil
}

type chatLinkRepository struct {
	s *Store
}

// NewChatLinkRepository 内存版聊天绑定仓储
func NewChatLinkRepository(s *Store) chatlink.Repository {
	return &chatLinkRepository{s: s}
}

func (r *chatLinkRepository) Link(ctx context.Context, chatID int64, userID uint) (*chatlink.ChatLink, error) {
	defer r.s.lock(ctx)()
	now := time.Now()
	l, ok := r.s.links[chatID]
	if !ok {
		l = chatlink.ChatLink{ID: r.s.nextID(), ChatID: chatID, CreatedAt: now}
	}
	l.UserID = userID
	l.UpdatedAt = now
	r.s.links[chatID] = l
	return &l, nil
}

func (r *chatLinkRepository) FindByChatID(ctx context.Context, chatID int64) (*chatlink.ChatLink, error) {
	defer r.s.lock(ctx)()
	l, ok := r.s.links[chatID]
	if !ok {
		return nil, chatlink.ErrNotLinked
	}
	return &l, nil
}

// TargetStore 内存版通知目标
type TargetStore struct {
	mu     sync.Mutex
	chatID int64
	set    bool
}

// NewTargetStore 创建内存版通知目标
func NewTargetStore() *TargetStore {
	return &TargetStore{}
}

func (t *TargetStore) Get(ctx context.Context) (int64, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chatID, t.set, nil
}

func (t *TargetStore) Set(ctx context.Context, chatID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chatID, t.set = chatID, true
	return nil
}
