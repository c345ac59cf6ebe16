package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/book"
)

// PublishBookUseCase 图书入库用例(仅馆员)
// 图书的业务规则由NewBook校验,用例只负责编排
type PublishBookUseCase struct {
	bookRepo book.Repository
}

// NewPublishBookUseCase 创建入库用例
func NewPublishBookUseCase(bookRepo book.Repository) *PublishBookUseCase {
	return &PublishBookUseCase{bookRepo: bookRepo}
}

// PublishBookRequest 入库请求DTO
type PublishBookRequest struct {
	Title     string
	Author    string
	Cover     string
	Inventory int
	DailyFee  decimal.Decimal
}

// Execute 执行入库
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookView, error) {
	b, err := book.NewBook(req.Title, req.Author, book.Cover(req.Cover), req.Inventory, req.DailyFee)
	if err != nil {
		return nil, err
	}

	if err := uc.bookRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	return NewBookView(b), nil
}
