package borrowing

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
)

// QueryBorrowingsUseCase 借阅查询(列表、详情、支付状态)
// 列表的可见范围由borrowing.ScopeFor决定:普通读者只能看到自己的借阅
type QueryBorrowingsUseCase struct {
	borrowingRepo borrowing.Repository
	bookRepo      book.Repository
	paymentRepo   payment.Repository
	policy        Policy
}

// NewQueryBorrowingsUseCase 创建查询用例
func NewQueryBorrowingsUseCase(
	borrowingRepo borrowing.Repository,
	bookRepo book.Repository,
	paymentRepo payment.Repository,
	policy Policy,
) *QueryBorrowingsUseCase {
	return &QueryBorrowingsUseCase{
		borrowingRepo: borrowingRepo,
		bookRepo:      bookRepo,
		paymentRepo:   paymentRepo,
		policy:        policy,
	}
}

// List 按请求者角色查询借阅列表
func (uc *QueryBorrowingsUseCase) List(ctx context.Context, actor user.Actor, q borrowing.Query) ([]*BorrowingView, error) {
	list, err := uc.borrowingRepo.List(ctx, borrowing.ScopeFor(actor, q))
	if err != nil {
		return nil, err
	}

	bookIDs := make([]uint, 0, len(list))
	for _, b := range list {
		bookIDs = append(bookIDs, b.BookID)
	}
	books, err := uc.bookRepo.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*BorrowingView, 0, len(list))
	for _, b := range list {
		views = append(views, NewBorrowingView(b, books[b.BookID]))
	}
	return views, nil
}

// Get 借阅详情
func (uc *QueryBorrowingsUseCase) Get(ctx context.Context, actor user.Actor, id uint) (*BorrowingView, error) {
	b, err := uc.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	books, err := uc.bookRepo.FindByIDs(ctx, []uint{b.BookID})
	if err != nil {
		return nil, err
	}
	return NewBorrowingView(b, books[b.BookID]), nil
}

// IsPaid 是否存在PAID状态的PAYMENT记录(每次都读最新数据)
func (uc *QueryBorrowingsUseCase) IsPaid(ctx context.Context, actor user.Actor, id uint) (bool, error) {
	b, err := uc.find(ctx, actor, id)
	if err != nil {
		return false, err
	}
	return uc.paymentRepo.ExistsPaid(ctx, b.ID, payment.TypePayment)
}

func (uc *QueryBorrowingsUseCase) find(ctx context.Context, actor user.Actor, id uint) (*borrowing.Borrowing, error) {
	b, err := uc.borrowingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.policy.EnforceOwnership && !actor.CanSee(b.UserID) {
		return nil, borrowing.ErrBorrowingNotFound
	}
	return b, nil
}
