// Package dto HTTP层请求结构
// binding tag由gin的validator校验，业务规则由领域层校验
package dto

import "github.com/shopspring/decimal"

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"reader@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"secret123"`
	Nickname string `json:"nickname" binding:"omitempty,max=50" example:"reader"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"reader@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// BookRequest 图书入库请求
type BookRequest struct {
	Title     string           `json:"title" binding:"required,max=255" example:"Clean Code"`
	Author    string           `json:"author" binding:"required,max=255" example:"Robert C. Martin"`
	Cover     string           `json:"cover" binding:"required,oneof=HARD SOFT" example:"HARD"`
	Inventory *int             `json:"inventory" binding:"required,min=0" example:"3"`
	DailyFee  *decimal.Decimal `json:"daily_fee" binding:"required" swaggertype:"string" example:"1.25"`
}

// UpdateBookRequest 图书修改请求，缺省字段不修改
type UpdateBookRequest struct {
	Title     string           `json:"title" binding:"omitempty,max=255"`
	Author    string           `json:"author" binding:"omitempty,max=255"`
	Cover     string           `json:"cover" binding:"omitempty,oneof=HARD SOFT"`
	Inventory *int             `json:"inventory" binding:"omitempty,min=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee" swaggertype:"string"`
}

// BookQuery 图书列表过滤
type BookQuery struct {
	Title  string `form:"title"`
	Author string `form:"author"`
}

// CreateBorrowingRequest 借书请求
type CreateBorrowingRequest struct {
	Book               uint   `json:"book" binding:"required" example:"1"`
	ExpectedReturnDate string `json:"expected_return_date" binding:"required" example:"2026-11-01"`
}

// ReturnBorrowingRequest 还书请求
// 归还日期来源为server时可省略
type ReturnBorrowingRequest struct {
	ActualReturnDate string `json:"actual_return_date" example:"2026-10-25"`
}

// BorrowingQuery 借阅列表过滤
// user_id只对馆员生效，非馆员传入任何值都被忽略，因此按字符串接收
type BorrowingQuery struct {
	IsActive string `form:"is_active" example:"true"`
	UserID   string `form:"user_id" example:"2"`
}

// CreatePaymentRequest 创建支付记录
type CreatePaymentRequest struct {
	Borrowing  uint             `json:"borrowing" binding:"required" example:"1"`
	Type       string           `json:"type" binding:"required,oneof=PAYMENT FINE" example:"FINE"`
	Status     string           `json:"status" binding:"omitempty,oneof=PENDING PAID" example:"PENDING"`
	MoneyToPay *decimal.Decimal `json:"money_to_pay" binding:"required" swaggertype:"string" example:"3.50"`
}

// UpdatePaymentRequest 支付记录修改，缺省字段不修改
type UpdatePaymentRequest struct {
	Type       *string          `json:"type" binding:"omitempty,oneof=PAYMENT FINE"`
	Status     *string          `json:"status" binding:"omitempty,oneof=PENDING PAID"`
	MoneyToPay *decimal.Decimal `json:"money_to_pay" swaggertype:"string"`
	SessionURL *string          `json:"session_url"`
	SessionID  *string          `json:"session_id"`
}

// CheckoutRequest 发起支付
type CheckoutRequest struct {
	BorrowingID uint `json:"borrowing_id" binding:"required" example:"1"`
}

// PaidResponse 借阅是否已支付
type PaidResponse struct {
	BorrowingID uint `json:"borrowing_id"`
	Paid        bool `json:"paid"`
}
