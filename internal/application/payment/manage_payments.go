package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
)

// ManagePaymentsUseCase 支付记录的增删改查
// 馆员可以操作全部记录;普通读者只能看到自己借阅下的记录,其余一律返回不存在
type ManagePaymentsUseCase struct {
	paymentRepo   payment.Repository
	borrowingRepo borrowing.Repository
	bookRepo      book.Repository
}

// NewManagePaymentsUseCase 创建支付管理用例
func NewManagePaymentsUseCase(
	paymentRepo payment.Repository,
	borrowingRepo borrowing.Repository,
	bookRepo book.Repository,
) *ManagePaymentsUseCase {
	return &ManagePaymentsUseCase{
		paymentRepo:   paymentRepo,
		borrowingRepo: borrowingRepo,
		bookRepo:      bookRepo,
	}
}

// CreatePaymentRequest 创建请求DTO,Status为空时默认PENDING
type CreatePaymentRequest struct {
	BorrowingID uint
	Type        string
	Status      string
	MoneyToPay  decimal.Decimal
}

// List 按角色返回支付记录
func (uc *ManagePaymentsUseCase) List(ctx context.Context, actor user.Actor) ([]*PaymentView, error) {
	list, err := uc.paymentRepo.List(ctx, ownerFilter(actor))
	if err != nil {
		return nil, err
	}

	views := make([]*PaymentView, 0, len(list))
	for _, p := range list {
		views = append(views, NewPaymentView(p))
	}
	return views, nil
}

// Get 支付详情
func (uc *ManagePaymentsUseCase) Get(ctx context.Context, actor user.Actor, id uint) (*PaymentView, error) {
	p, err := uc.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return NewPaymentView(p), nil
}

// Create 为借阅创建支付记录
func (uc *ManagePaymentsUseCase) Create(ctx context.Context, actor user.Actor, req CreatePaymentRequest) (*PaymentView, error) {
	if _, err := uc.visibleBorrowing(ctx, actor, req.BorrowingID); err != nil {
		return nil, err
	}

	p, err := payment.New(req.BorrowingID, payment.Type(req.Type), req.MoneyToPay)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		status := payment.Status(req.Status)
		if err := p.Apply(payment.Patch{Status: &status}); err != nil {
			return nil, err
		}
	}

	if err := uc.paymentRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return NewPaymentView(p), nil
}

// Update 部分更新
func (uc *ManagePaymentsUseCase) Update(ctx context.Context, actor user.Actor, id uint, patch payment.Patch) (*PaymentView, error) {
	p, err := uc.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(patch); err != nil {
		return nil, err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return NewPaymentView(p), nil
}

// Delete 删除支付记录
func (uc *ManagePaymentsUseCase) Delete(ctx context.Context, actor user.Actor, id uint) error {
	if _, err := uc.find(ctx, actor, id); err != nil {
		return err
	}
	return uc.paymentRepo.Delete(ctx, id)
}

// Fines 请求者自己的罚款(馆员也只看自己的)
func (uc *ManagePaymentsUseCase) Fines(ctx context.Context, actor user.Actor) ([]*FineView, error) {
	owner := actor.UserID
	fines, err := uc.paymentRepo.List(ctx, payment.Filter{OwnerID: &owner, Type: payment.TypeFine})
	if err != nil {
		return nil, err
	}
	if len(fines) == 0 {
		return []*FineView{}, nil
	}

	borrowings, err := uc.borrowingRepo.List(ctx, borrowing.Filter{UserID: &owner})
	if err != nil {
		return nil, err
	}
	bookOf := make(map[uint]uint, len(borrowings))
	bookIDs := make([]uint, 0, len(borrowings))
	for _, b := range borrowings {
		bookOf[b.ID] = b.BookID
		bookIDs = append(bookIDs, b.BookID)
	}
	books, err := uc.bookRepo.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*FineView, 0, len(fines))
	for _, p := range fines {
		v := &FineView{PaymentView: *NewPaymentView(p), Paid: p.IsPaid()}
		if bk := books[bookOf[p.BorrowingID]]; bk != nil {
			v.BookTitle = bk.Title
		}
		views = append(views, v)
	}
	return views, nil
}

func (uc *ManagePaymentsUseCase) find(ctx context.Context, actor user.Actor, id uint) (*payment.Payment, error) {
	p, err := uc.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff {
		return p, nil
	}

	b, err := uc.borrowingRepo.FindByID(ctx, p.BorrowingID)
	if errors.Is(err, borrowing.ErrBorrowingNotFound) {
		return nil, payment.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(b.UserID) {
		return nil, payment.ErrPaymentNotFound
	}
	return p, nil
}

func (uc *ManagePaymentsUseCase) visibleBorrowing(ctx context.Context, actor user.Actor, id uint) (*borrowing.Borrowing, error) {
	b, err := uc.borrowingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(b.UserID) {
		return nil, borrowing.ErrBorrowingNotFound
	}
	return b, nil
}

func ownerFilter(actor user.Actor) payment.Filter {
	if actor.IsStaff {
		return payment.Filter{}
	}
	owner := actor.UserID
	return payment.Filter{OwnerID: &owner}
}
