package payment

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/payment"
)

// PaymentView 支付记录响应DTO
type PaymentView struct {
	ID         uint            `json:"id"`
	Status     string          `json:"status"`
	Type       string          `json:"type"`
	Borrowing  uint            `json:"borrowing"`
	SessionURL string          `json:"session_url"`
	SessionID  string          `json:"session_id"`
	MoneyToPay decimal.Decimal `json:"money_to_pay"`
}

// NewPaymentView 领域实体 → DTO
func NewPaymentView(p *payment.Payment) *PaymentView {
	return &PaymentView{
		ID:         p.ID,
		Status:     string(p.Status),
		Type:       string(p.Type),
		Borrowing:  p.BorrowingID,
		SessionURL: p.SessionURL,
		SessionID:  p.SessionID,
		MoneyToPay: p.MoneyToPay,
	}
}

// FineView 罚款(附带图书名和支付状态)
type FineView struct {
	PaymentView
	BookTitle string `json:"book_title"`
	Paid      bool   `json:"paid"`
}
