package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 支付状态
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Valid 是否为合法状态
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// Type 支付类型
type Type string

const (
	TypePayment Type = "PAYMENT" // 借阅租金
	TypeFine    Type = "FINE"    // 罚款(逾期/损坏)
)

// Valid 是否为合法类型
func (t Type) Valid() bool {
	return t == TypePayment || t == TypeFine
}

// Payment 支付记录
// 通过BorrowingID关联借阅,归属人就是借阅人
// 同一借阅可以存在多条PAYMENT,已支付判断采用"存在即为真"
type Payment struct {
	ID          uint
	Status      Status
	Type        Type
	BorrowingID uint
	SessionURL  string // 第三方支付会话
	SessionID   string
	MoneyToPay  decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New 创建支付记录,状态默认PENDING
func New(borrowingID uint, typ Type, money decimal.Decimal) (*Payment, error) {
	p := &Payment{
		Status:      StatusPending,
		Type:        typ,
		BorrowingID: borrowingID,
		MoneyToPay:  money,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// IsPaid 是否已支付
func (p *Payment) IsPaid() bool {
	return p.Status == StatusPaid
}

// AttachSession 写入支付会话
func (p *Payment) AttachSession(id, url string) {
	p.SessionID = id
	p.SessionURL = url
	p.UpdatedAt = time.Now()
}

// Patch 部分更新,nil字段保持不变
type Patch struct {
	Status     *Status
	Type       *Type
	MoneyToPay *decimal.Decimal
	SessionURL *string
	SessionID  *string
}

// Apply 应用更新,校验失败时不修改
func (p *Payment) Apply(patch Patch) error {
	next := *p
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.MoneyToPay != nil {
		next.MoneyToPay = *patch.MoneyToPay
	}
	if patch.SessionURL != nil {
		next.SessionURL = *patch.SessionURL
	}
	if patch.SessionID != nil {
		next.SessionID = *patch.SessionID
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*p = next
	return nil
}

func (p *Payment) validate() error {
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if !p.MoneyToPay.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Amount 计算租金: 日租金 × 借阅天数
func Amount(dailyFee decimal.Decimal, days int) decimal.Decimal {
	return dailyFee.Mul(decimal.NewFromInt(int64(days))).Round(2)
}
