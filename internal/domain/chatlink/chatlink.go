package chatlink

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ChatLink 聊天账号与用户的绑定关系
// 以ChatID为唯一键持久化,一个聊天账号只绑定一个用户
type ChatLink struct {
	ID        uint
	ChatID    int64
	UserID    uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotLinked 聊天账号未绑定
var ErrNotLinked = apperrors.New(apperrors.ErrCodeNotFound, "chat is not linked to any user")

// Repository 绑定关系仓储
type Repository interface {
	// Link 绑定(已存在时改绑到userID)
	Link(ctx context.Context, chatID int64, userID uint) (*ChatLink, error)

	// FindByChatID 未绑定返回ErrNotLinked
	FindByChatID(ctx context.Context, chatID int64) (*ChatLink, error)
}

// TargetStore 通知目标会话
// 馆员通过/settarget显式设置,未设置时使用配置中的默认会话
type TargetStore interface {
	Get(ctx context.Context) (chatID int64, ok bool, err error)
	Set(ctx context.Context, chatID int64) error
}
