package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// userRepository 用户仓储实现（MySQL）
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建用户
// 邮箱唯一性由UNIQUE索引保证，Duplicate Entry转换为ErrEmailDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := &UserModel{
		Email:    u.Email,
		Password: u.Password,
		Nickname: u.Nickname,
		IsStaff:  u.IsStaff,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建用户失败")
	}
	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "查询用户失败")
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "查询用户失败")
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*user.User, error) {
	out := make(map[uint]*user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []UserModel
	if err := conn(ctx, r.db).Where("id IN ?", uniqueIDs(ids)).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询用户失败")
	}
	for i := range models {
		out[models[i].ID] = toUserEntity(&models[i])
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	err := conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"email":    u.Email,
		"password": u.Password,
		"nickname": u.Nickname,
		"is_staff": u.IsStaff,
	}).Error
	if err != nil {
		return apperrors.Wrap(err, "更新用户失败")
	}
	return nil
}

func toUserEntity(model *UserModel) *user.User {
	return &user.User{
		ID:        model.ID,
		Email:     model.Email,
		Password:  model.Password,
		Nickname:  model.Nickname,
		IsStaff:   model.IsStaff,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// chatLinkRepository 聊天账号绑定（chat_links表）
type chatLinkRepository struct {
	db *gorm.DB
}

// NewChatLinkRepository 创建绑定仓储
func NewChatLinkRepository(db *gorm.DB) chatlink.Repository {
	return &chatLinkRepository{db: db}
}

// Link INSERT ... ON DUPLICATE KEY UPDATE user_id
func (r *chatLinkRepository) Link(ctx context.Context, chatID int64, userID uint) (*chatlink.ChatLink, error) {
	model := &ChatLinkModel{ChatID: chatID, UserID: userID}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "绑定聊天账号失败")
	}
	return r.FindByChatID(ctx, chatID)
}

func (r *chatLinkRepository) FindByChatID(ctx context.Context, chatID int64) (*chatlink.ChatLink, error) {
	var model ChatLinkModel
	if err := conn(ctx, r.db).Where("chat_id = ?", chatID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, chatlink.ErrNotLinked
		}
		return nil, apperrors.Wrap(err, "查询聊天绑定失败")
	}
	return &chatlink.ChatLink{
		ID:        model.ID,
		ChatID:    model.ChatID,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}
