package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository 支付仓储接口
type Repository interface {
	Create(ctx context.Context, p *Payment) error

	// FindByID 不存在返回ErrPaymentNotFound
	FindByID(ctx context.Context, id uint) (*Payment, error)

	Update(ctx context.Context, p *Payment) error

	Delete(ctx context.Context, id uint) error

	// List 查询支付记录,OwnerID按借阅人过滤(关联borrowings表)
	List(ctx context.Context, filter Filter) ([]*Payment, error)

	// ExistsPaid 是否存在指定借阅、指定类型的PAID记录
	ExistsPaid(ctx context.Context, borrowingID uint, typ Type) (bool, error)

	// FindLatestPending 借阅最新的一条PENDING记录,没有返回ErrPaymentNotFound
	FindLatestPending(ctx context.Context, borrowingID uint) (*Payment, error)
}

// Filter 列表查询条件
type Filter struct {
	OwnerID *uint // nil表示全部(馆员)
	Type    Type  // 空表示不过滤
	Status  Status
}

// Session 第三方支付会话
type Session struct {
	ID  string
	URL string
}

// CheckoutItem 发起支付的商品描述
type CheckoutItem struct {
	PaymentID uint
	Name      string
	Amount    decimal.Decimal
}

// Gateway 第三方支付网关
type Gateway interface {
	// CreateSession 创建支付会话,返回跳转URL
	CreateSession(ctx context.Context, item CheckoutItem) (*Session, error)

	// ExpireSession 使会话失效(补偿操作)
	ExpireSession(ctx context.Context, sessionID string) error
}
