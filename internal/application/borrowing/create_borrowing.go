package borrowing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application/notification"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/transaction"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CreateBorrowingUseCase 借书用例
//
// 防止最后一本被同时借出:
//  1. SELECT ... FOR UPDATE 锁定图书行
//  2. 检查库存 > 0
//  3. Ledger.Decrement(条件更新 inventory + -1 >= 0)
//  4. 插入OPEN状态的借阅记录
//  5. COMMIT
//
// 通知在事务提交之后异步发送,失败不影响借阅结果
type CreateBorrowingUseCase struct {
	txManager     transaction.Manager
	bookRepo      book.Repository
	ledger        *book.Ledger
	borrowingRepo borrowing.Repository
	userRepo      user.Repository
	paymentRepo   payment.Repository
	notifier      notification.Notifier
	policy        Policy
	log           *zap.Logger
	now           func() time.Time
}

// NewCreateBorrowingUseCase 创建借书用例
func NewCreateBorrowingUseCase(
	txManager transaction.Manager,
	bookRepo book.Repository,
	ledger *book.Ledger,
	borrowingRepo borrowing.Repository,
	userRepo user.Repository,
	paymentRepo payment.Repository,
	notifier notification.Notifier,
	policy Policy,
	log *zap.Logger,
) *CreateBorrowingUseCase {
	return &CreateBorrowingUseCase{
		txManager:     txManager,
		bookRepo:      bookRepo,
		ledger:        ledger,
		borrowingRepo: borrowingRepo,
		userRepo:      userRepo,
		paymentRepo:   paymentRepo,
		notifier:      notifier,
		policy:        policy,
		log:           log,
		now:           time.Now,
	}
}

// CreateBorrowingRequest 借书请求DTO
// expected_return_date不与借出日期比较
type CreateBorrowingRequest struct {
	Actor              user.Actor
	BookID             uint
	ExpectedReturnDate time.Time
}

// Execute 执行借书
func (uc *CreateBorrowingUseCase) Execute(ctx context.Context, req CreateBorrowingRequest) (view *BorrowingView, err error) {
	ctx, span := tracing.StartSpan(ctx, "borrowing", "CreateBorrowing")
	defer func() { tracing.End(span, err) }()

	defer func() {
		if err != nil {
			metrics.IncCounterVec(metrics.BorrowingsRejectedTotal, rejectReason(err))
		}
	}()

	if uc.policy.BlockOnUnpaidFines {
		if err := uc.checkUnpaidFines(ctx, req.Actor.UserID); err != nil {
			return nil, err
		}
	}

	var (
		created *borrowing.Borrowing
		locked  *book.Book
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}
		if !b.IsAvailable() {
			return book.ErrBookUnavailable
		}

		if err := uc.ledger.Decrement(txCtx, b.ID); err != nil {
			return err
		}
		b.Inventory--

		nb := borrowing.New(b.ID, req.Actor.UserID, uc.now(), req.ExpectedReturnDate)
		if err := uc.borrowingRepo.Create(txCtx, nb); err != nil {
			return err
		}

		created, locked = nb, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.BorrowingsCreatedTotal)
	uc.log.Info("借阅创建成功",
		zap.Uint("borrowing_id", created.ID),
		zap.Uint("book_id", locked.ID),
		zap.Uint("user_id", created.UserID),
	)

	uc.notifyCreated(ctx, created, locked)
	return NewBorrowingView(created, locked), nil
}

func (uc *CreateBorrowingUseCase) checkUnpaidFines(ctx context.Context, userID uint) error {
	fines, err := uc.paymentRepo.List(ctx, payment.Filter{
		OwnerID: &userID,
		Type:    payment.TypeFine,
		Status:  payment.StatusPending,
	})
	if err != nil {
		return err
	}
	if len(fines) > 0 {
		return borrowing.ErrUnpaidFines
	}
	return nil
}

// notifyCreated 查询借阅人邮箱后投递;查询失败只记录日志
func (uc *CreateBorrowingUseCase) notifyCreated(ctx context.Context, b *borrowing.Borrowing, bk *book.Book) {
	u, err := uc.userRepo.FindByID(ctx, b.UserID)
	if err != nil {
		uc.log.Warn("借阅通知跳过:查询用户失败", zap.Uint("borrowing_id", b.ID), zap.Error(err))
		return
	}
	uc.notifier.Notify(ctx, notification.BorrowingCreated(b, u, bk, bk.Inventory))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, book.ErrBookUnavailable):
		return "unavailable"
	case errors.Is(err, book.ErrBookNotFound):
		return "not_found"
	case errors.Is(err, borrowing.ErrUnpaidFines):
		return "unpaid_fines"
	default:
		return "error"
	}
}
