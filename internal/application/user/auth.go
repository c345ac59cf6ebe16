package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/jwt"
)

// SessionStore 登录会话与Token黑名单
// 生产环境由redis.SessionStore实现
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, data map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// AuthUseCase 注册、登录、登出
// 设计说明：
// 1. 密码校验等业务规则在领域服务user.Service中
// 2. 登录成功后签发Token对，并把会话写入SessionStore
// 3. 会话写入失败不影响登录，只记录日志
type AuthUseCase struct {
	userService  user.Service
	userRepo     user.Repository
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	log          *zap.Logger
}

// NewAuthUseCase 创建认证用例
func NewAuthUseCase(
	userService user.Service,
	userRepo user.Repository,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	log *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userService:  userService,
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		log:          log,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// UserInfo 用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	IsStaff  bool   `json:"is_staff"`
}

func newUserInfo(u *user.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Nickname: u.Nickname, IsStaff: u.IsStaff}
}

// Register 读者自助注册（不能注册馆员）
func (uc *AuthUseCase) Register(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.Nickname)
	if err != nil {
		return nil, err
	}
	uc.log.Info("用户注册", zap.Uint("user_id", u.ID), zap.String("email", u.Email))

	info := newUserInfo(u)
	return &info, nil
}

// Login 校验密码并签发Token对
func (uc *AuthUseCase) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := uc.jwtManager.GenerateToken(jwt.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		IsStaff:  u.IsStaff,
	})
	if err != nil {
		return nil, err
	}

	session := map[string]interface{}{
		"user_id":  u.ID,
		"email":    u.Email,
		"is_staff": u.IsStaff,
		"login_at": time.Now().Unix(),
		"ip":       req.ClientIP,
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, uc.jwtManager.RefreshTokenTTL()); err != nil {
		uc.log.Warn("保存登录会话失败", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	return &LoginResponse{
		User:         newUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Logout 删除会话并把Access Token加入黑名单，直到其自然过期
func (uc *AuthUseCase) Logout(ctx context.Context, userID uint, accessToken string) error {
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.jwtManager.AccessTokenTTL())
}

// Me 当前登录用户
func (uc *AuthUseCase) Me(ctx context.Context, userID uint) (*UserInfo, error) {
	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := newUserInfo(u)
	return &info, nil
}

// EnsureAdmin 根据配置初始化馆员账号，email为空时跳过
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password, nickname string) error {
	if email == "" {
		return nil
	}
	u, err := uc.userService.EnsureStaff(ctx, email, password, nickname)
	if err != nil {
		return err
	}
	uc.log.Info("馆员账号已就绪", zap.Uint("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
