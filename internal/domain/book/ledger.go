package book

import (
	"context"
)

// Ledger 库存台账
// 借书/还书引起的库存变化只能通过Ledger写入,保证 Inventory >= 0
//
// Decrement与Increment依赖Repository.UpdateInventory的条件更新:
//
//	UPDATE books SET inventory = inventory + ? WHERE id = ? AND inventory + ? >= 0
//
// 两个并发请求争抢最后一本时,只有一个UPDATE能命中行
type Ledger struct {
	repo Repository
}

// NewLedger 创建库存台账
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Decrement 借出一本,库存为0时返回ErrBookUnavailable
func (l *Ledger) Decrement(ctx context.Context, bookID uint) error {
	return l.repo.UpdateInventory(ctx, bookID, -1)
}

// Increment 归还一本,图书不存在返回ErrBookNotFound
// 库存没有上限
func (l *Ledger) Increment(ctx context.Context, bookID uint) error {
	return l.repo.UpdateInventory(ctx, bookID, 1)
}
