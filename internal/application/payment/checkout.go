package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/saga"
	"github.com/xiebiao/library/pkg/tracing"
)

// CheckoutUseCase 为借阅发起在线支付
//
// Saga步骤:
//  1. ensure_payment: 使用最新的PENDING记录,没有则按租金新建(补偿:删除新建的记录)
//  2. create_session: 在支付网关创建会话(补偿:让会话过期)
//  3. attach_session: 把session_id/session_url写回支付记录
//
// 网关错误原样返回给调用方,这是该请求唯一的目的
type CheckoutUseCase struct {
	paymentRepo   payment.Repository
	borrowingRepo borrowing.Repository
	bookRepo      book.Repository
	gateway       payment.Gateway
	timeout       time.Duration
	log           *zap.Logger
}

// NewCheckoutUseCase 创建支付用例
func NewCheckoutUseCase(
	paymentRepo payment.Repository,
	borrowingRepo borrowing.Repository,
	bookRepo book.Repository,
	gateway payment.Gateway,
	log *zap.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		paymentRepo:   paymentRepo,
		borrowingRepo: borrowingRepo,
		bookRepo:      bookRepo,
		gateway:       gateway,
		timeout:       30 * time.Second,
		log:           log,
	}
}

// CheckoutResponse 支付会话
type CheckoutResponse struct {
	PaymentID  uint   `json:"payment_id"`
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

// Execute 执行支付
func (uc *CheckoutUseCase) Execute(ctx context.Context, actor user.Actor, borrowingID uint) (resp *CheckoutResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "payment", "Checkout")
	defer func() { tracing.End(span, err) }()

	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.IncCounterVec(metrics.CheckoutSessionsTotal, result)
	}()

	b, err := uc.borrowingRepo.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(b.UserID) {
		return nil, borrowing.ErrBorrowingNotFound
	}

	books, err := uc.bookRepo.FindByIDs(ctx, []uint{b.BookID})
	if err != nil {
		return nil, err
	}
	bk := books[b.BookID]
	if bk == nil {
		return nil, book.ErrBookNotFound
	}

	var (
		p       *payment.Payment
		created bool
		session *payment.Session
	)

	s := saga.New("checkout", uc.timeout, uc.log)
	s.AddStep("ensure_payment",
		func(ctx context.Context) error {
			var err error
			p, created, err = uc.pendingPayment(ctx, b, bk)
			return err
		},
		func(ctx context.Context) error {
			if !created {
				return nil
			}
			return uc.paymentRepo.Delete(ctx, p.ID)
		},
	)
	s.AddStep("create_session",
		func(ctx context.Context) error {
			var err error
			session, err = uc.gateway.CreateSession(ctx, payment.CheckoutItem{
				PaymentID: p.ID,
				Name:      productName(p.Type, bk.Title),
				Amount:    p.MoneyToPay,
			})
			return err
		},
		func(ctx context.Context) error {
			return uc.gateway.ExpireSession(ctx, session.ID)
		},
	)
	s.AddStep("attach_session",
		func(ctx context.Context) error {
			p.AttachSession(session.ID, session.URL)
			return uc.paymentRepo.Update(ctx, p)
		},
		nil,
	)

	if err := s.Execute(ctx); err != nil {
		return nil, unwrapStep(err)
	}

	uc.log.Info("支付会话已创建",
		zap.Uint("payment_id", p.ID),
		zap.Uint("borrowing_id", b.ID),
		zap.String("session_id", session.ID),
	)
	return &CheckoutResponse{PaymentID: p.ID, SessionID: session.ID, SessionURL: session.URL}, nil
}

// pendingPayment 返回最新的PENDING记录;没有时若已支付则拒绝,否则新建一条PAYMENT
func (uc *CheckoutUseCase) pendingPayment(ctx context.Context, b *borrowing.Borrowing, bk *book.Book) (*payment.Payment, bool, error) {
	p, err := uc.paymentRepo.FindLatestPending(ctx, b.ID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, payment.ErrPaymentNotFound) {
		return nil, false, err
	}

	paid, err := uc.paymentRepo.ExistsPaid(ctx, b.ID, payment.TypePayment)
	if err != nil {
		return nil, false, err
	}
	if paid {
		return nil, false, payment.ErrAlreadyPaid
	}

	p, err = payment.New(b.ID, payment.TypePayment, payment.Amount(bk.DailyFee, b.PlannedDays()))
	if err != nil {
		return nil, false, err
	}
	if err := uc.paymentRepo.Create(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func productName(t payment.Type, title string) string {
	if t == payment.TypeFine {
		return fmt.Sprintf("Fine for %s", title)
	}
	return fmt.Sprintf("Payment for %s", title)
}

// unwrapStep 去掉saga的步骤包装,保留业务错误码
func unwrapStep(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}
