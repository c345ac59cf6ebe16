package borrowing

import (
	"context"
	"time"
)

// Repository 借阅仓储接口
type Repository interface {
	// Create 插入OPEN状态的借阅记录(回填ID)
	Create(ctx context.Context, b *Borrowing) error

	// FindByID 不存在返回ErrBorrowingNotFound
	FindByID(ctx context.Context, id uint) (*Borrowing, error)

	// MarkReturned 原子的检查并设置:
	//
	//	UPDATE borrowings SET actual_return_date = ? WHERE id = ? AND actual_return_date IS NULL
	//
	// 未命中时再查一次区分ErrBorrowingNotFound与ErrAlreadyReturned
	MarkReturned(ctx context.Context, id uint, date time.Time) error

	// List 按Filter查询,顺序为ID升序
	List(ctx context.Context, filter Filter) ([]*Borrowing, error)

	// ListOverdue 所有OPEN且expected_return_date < asOf的记录
	ListOverdue(ctx context.Context, asOf time.Time) ([]*Borrowing, error)
}
