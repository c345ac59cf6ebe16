package borrowing

import (
	"github.com/xiebiao/library/internal/domain/user"
)

// Filter 仓储层查询条件,各条件之间为AND
type Filter struct {
	UserID *uint // nil表示所有用户
	Active *bool // true: 未归还; false: 已归还; nil: 不过滤
}

// Query 请求者提交的原始过滤参数
type Query struct {
	IsActive string // "true" / "false",其他值忽略
	UserID   *uint  // 仅馆员生效
}

// ScopeFor 根据请求者角色生成查询范围
// 非馆员强制只看自己的借阅,忽略user_id参数(不报错)
func ScopeFor(actor user.Actor, q Query) Filter {
	var f Filter

	if actor.IsStaff {
		f.UserID = q.UserID
	} else {
		id := actor.UserID
		f.UserID = &id
	}

	switch q.IsActive {
	case "true":
		active := true
		f.Active = &active
	case "false":
		active := false
		f.Active = &active
	}

	return f
}

// Match 内存中判断是否满足条件
func (f Filter) Match(b *Borrowing) bool {
	if f.UserID != nil && b.UserID != *f.UserID {
		return false
	}
	if f.Active != nil && *f.Active == b.IsReturned() {
		return false
	}
	return true
}
