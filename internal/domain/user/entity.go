package user

import (
	"time"
)

// User 用户实体（聚合根）
// 密码以bcrypt哈希存储；IsStaff标识馆员（管理员）
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	IsStaff   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, nickname string) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Actor 返回该用户作为请求发起者的身份
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, IsStaff: u.IsStaff}
}

// Actor 当前请求者（身份 + 角色）
// 角色决定查询范围，不决定写权限
type Actor struct {
	UserID  uint
	IsStaff bool
}

// CanSee 是否可以查看属于ownerID的数据
func (a Actor) CanSee(ownerID uint) bool {
	return a.IsStaff || a.UserID == ownerID
}
