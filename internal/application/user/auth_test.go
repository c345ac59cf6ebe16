package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

type fakeSessions struct {
	saved     map[uint]time.Duration
	blacklist map[string]time.Duration
	saveErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[uint]time.Duration{}, blacklist: map[string]time.Duration{}}
}

func (f *fakeSessions) SaveSession(ctx context.Context, userID uint, data map[string]interface{}, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[userID] = ttl
	return nil
}

func (f *fakeSessions) DeleteSession(ctx context.Context, userID uint) error {
	delete(f.saved, userID)
	return nil
}

func (f *fakeSessions) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	f.blacklist[token] = ttl
	return nil
}

func newAuth(t *testing.T) (*AuthUseCase, *fakeSessions, *jwt.Manager) {
	t.Helper()
	repo := memory.NewUserRepository(memory.NewStore())
	sessions := newFakeSessions()
	jm := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	uc := NewAuthUseCase(user.NewServiceWithCost(repo, bcrypt.MinCost), repo, jm, sessions, zap.NewNop())
	return uc, sessions, jm
}

func TestAuth_RegisterLoginLogout(t *testing.T) {
	uc, sessions, jm := newAuth(t)
	ctx := context.Background()

	info, err := uc.Register(ctx, RegisterRequest{Email: "Reader@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", info.Email)
	assert.False(t, info.IsStaff)

	resp, err := uc.Login(ctx, LoginRequest{Email: "reader@example.com", Password: "secret123", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, info.ID, resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, 24*time.Hour, sessions.saved[info.ID])

	claims, err := jm.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.False(t, claims.IsStaff)

	me, err := uc.Me(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.Email, me.Email)

	require.NoError(t, uc.Logout(ctx, info.ID, resp.AccessToken))
	assert.NotContains(t, sessions.saved, info.ID)
	assert.Equal(t, time.Hour, sessions.blacklist[resp.AccessToken])
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	uc, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestAuth_SessionFailureDoesNotBlockLogin(t *testing.T) {
	uc, sessions, _ := newAuth(t)
	ctx := context.Background()
	sessions.saveErr = errors.New("redis down")

	_, err := uc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	resp, err := uc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	uc, _, jm := newAuth(t)
	ctx := context.Background()

	require.NoError(t, uc.EnsureAdmin(ctx, "", "", ""))
	require.NoError(t, uc.EnsureAdmin(ctx, "admin@example.com", "admin1234", "admin"))
	// 重复调用是幂等的
	require.NoError(t, uc.EnsureAdmin(ctx, "admin@example.com", "admin1234", "admin"))

	resp, err := uc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "admin1234"})
	require.NoError(t, err)
	assert.True(t, resp.User.IsStaff)

	claims, err := jm.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsStaff)
}
