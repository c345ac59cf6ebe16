package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/transaction"
)

// UpdateBookUseCase 修改图书信息、盘点库存、下架(仅馆员)
type UpdateBookUseCase struct {
	txManager transaction.Manager
	bookRepo  book.Repository
}

// NewUpdateBookUseCase 创建修改用例
func NewUpdateBookUseCase(txManager transaction.Manager, bookRepo book.Repository) *UpdateBookUseCase {
	return &UpdateBookUseCase{txManager: txManager, bookRepo: bookRepo}
}

// UpdateBookRequest 空值/nil表示不修改
// Inventory为盘点后的绝对值,与借还并发时以行锁串行化
type UpdateBookRequest struct {
	ID        uint
	Title     string
	Author    string
	Cover     string
	Inventory *int
	DailyFee  *decimal.Decimal
}

// Execute 执行修改
func (uc *UpdateBookUseCase) Execute(ctx context.Context, req UpdateBookRequest) (*BookView, error) {
	var updated *book.Book
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		b, err := uc.bookRepo.LockByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		if err := b.UpdateInfo(req.Title, req.Author, book.Cover(req.Cover), req.DailyFee); err != nil {
			return err
		}
		if req.Inventory != nil {
			if err := b.Restock(*req.Inventory); err != nil {
				return err
			}
		}

		if err := uc.bookRepo.Update(txCtx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewBookView(updated), nil
}

// Delete 下架(软删除),历史借阅仍可查看书名
func (uc *UpdateBookUseCase) Delete(ctx context.Context, id uint) error {
	return uc.bookRepo.Delete(ctx, id)
}
