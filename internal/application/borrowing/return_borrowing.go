package borrowing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/transaction"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// ReturnBorrowingUseCase 还书用例
// MarkReturned(检查并设置actual_return_date)与Ledger.Increment在同一事务内,
// 重复归还返回ErrAlreadyReturned,库存不会被加两次
type ReturnBorrowingUseCase struct {
	txManager     transaction.Manager
	bookRepo      book.Repository
	ledger        *book.Ledger
	borrowingRepo borrowing.Repository
	policy        Policy
	log           *zap.Logger
	now           func() time.Time
}

// NewReturnBorrowingUseCase 创建还书用例
func NewReturnBorrowingUseCase(
	txManager transaction.Manager,
	bookRepo book.Repository,
	ledger *book.Ledger,
	borrowingRepo borrowing.Repository,
	policy Policy,
	log *zap.Logger,
) *ReturnBorrowingUseCase {
	return &ReturnBorrowingUseCase{
		txManager:     txManager,
		bookRepo:      bookRepo,
		ledger:        ledger,
		borrowingRepo: borrowingRepo,
		policy:        policy,
		log:           log,
		now:           time.Now,
	}
}

// ReturnBorrowingRequest 还书请求DTO
type ReturnBorrowingRequest struct {
	Actor            user.Actor
	BorrowingID      uint
	ActualReturnDate *time.Time // 仅ReturnDateFromClient时使用
}

// Execute 执行还书
func (uc *ReturnBorrowingUseCase) Execute(ctx context.Context, req ReturnBorrowingRequest) (view *BorrowingView, err error) {
	ctx, span := tracing.StartSpan(ctx, "borrowing", "ReturnBorrowing")
	defer func() { tracing.End(span, err) }()

	var returned *borrowing.Borrowing
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		b, err := uc.borrowingRepo.FindByID(txCtx, req.BorrowingID)
		if err != nil {
			return err
		}
		if uc.policy.EnforceOwnership && !req.Actor.CanSee(b.UserID) {
			return borrowing.ErrBorrowingNotFound
		}
		// 先判断存在与是否已归还，再要求归还日期
		if b.IsReturned() {
			return borrowing.ErrAlreadyReturned
		}
		date, err := uc.returnDate(req.ActualReturnDate)
		if err != nil {
			return err
		}

		if err := uc.borrowingRepo.MarkReturned(txCtx, b.ID, date); err != nil {
			return err
		}
		if err := b.Return(date); err != nil {
			return err
		}

		if err := uc.ledger.Increment(txCtx, b.BookID); err != nil {
			return err
		}

		returned = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.BorrowingsReturnedTotal)
	uc.log.Info("借阅已归还", zap.Uint("borrowing_id", returned.ID), zap.Uint("book_id", returned.BookID))

	books, err := uc.bookRepo.FindByIDs(ctx, []uint{returned.BookID})
	if err != nil {
		return nil, err
	}
	return NewBorrowingView(returned, books[returned.BookID]), nil
}

func (uc *ReturnBorrowingUseCase) returnDate(supplied *time.Time) (time.Time, error) {
	if !uc.policy.ReturnDateFromClient {
		return borrowing.DateOf(uc.now()), nil
	}
	if supplied == nil {
		return time.Time{}, borrowing.ErrReturnDateRequired
	}
	return borrowing.DateOf(*supplied), nil
}
