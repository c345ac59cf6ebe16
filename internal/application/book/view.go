package book

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/book"
)

// BookView 图书响应DTO
type BookView struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Cover     string          `json:"cover"`
	Inventory int             `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// NewBookView 领域实体 → DTO
func NewBookView(b *book.Book) *BookView {
	if b == nil {
		return nil
	}
	v := &BookView{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     string(b.Cover),
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee,
	}
	if !b.CreatedAt.IsZero() {
		v.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	return v
}
