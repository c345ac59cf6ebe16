package borrowing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application/notification"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
)

// CheckOverdueUseCase 逾期检查
// 逾期是按日期计算的,检查本身不修改借阅状态
type CheckOverdueUseCase struct {
	borrowingRepo borrowing.Repository
	bookRepo      book.Repository
	userRepo      user.Repository
	notifier      notification.Notifier
	log           *zap.Logger
	now           func() time.Time
}

// NewCheckOverdueUseCase 创建逾期检查用例
func NewCheckOverdueUseCase(
	borrowingRepo borrowing.Repository,
	bookRepo book.Repository,
	userRepo user.Repository,
	notifier notification.Notifier,
	log *zap.Logger,
) *CheckOverdueUseCase {
	return &CheckOverdueUseCase{
		borrowingRepo: borrowingRepo,
		bookRepo:      bookRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// OverdueReport 一次检查的结果
type OverdueReport struct {
	AsOf  string `json:"as_of"`
	Count int    `json:"count"`
}

// Find 所有OPEN且expected_return_date早于asOf的借阅
func (uc *CheckOverdueUseCase) Find(ctx context.Context, asOf time.Time) ([]*borrowing.Borrowing, error) {
	return uc.borrowingRepo.ListOverdue(ctx, borrowing.DateOf(asOf))
}

// Execute 以今天为基准检查,每条逾期借阅发送一条提醒;没有逾期时发送一条汇总
func (uc *CheckOverdueUseCase) Execute(ctx context.Context) (*OverdueReport, error) {
	asOf := borrowing.DateOf(uc.now())

	overdue, err := uc.Find(ctx, asOf)
	if err != nil {
		return nil, err
	}
	metrics.SetGauge(metrics.OverdueBorrowings, float64(len(overdue)))
	uc.log.Info("逾期检查完成", zap.String("as_of", asOf.Format(borrowing.DateLayout)), zap.Int("count", len(overdue)))

	report := &OverdueReport{AsOf: asOf.Format(borrowing.DateLayout), Count: len(overdue)}
	if len(overdue) == 0 {
		uc.notifier.Notify(ctx, notification.NoOverdue())
		return report, nil
	}

	userIDs := make([]uint, 0, len(overdue))
	bookIDs := make([]uint, 0, len(overdue))
	for _, b := range overdue {
		userIDs = append(userIDs, b.UserID)
		bookIDs = append(bookIDs, b.BookID)
	}
	users, err := uc.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	books, err := uc.bookRepo.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	for _, b := range overdue {
		u, bk := users[b.UserID], books[b.BookID]
		if u == nil || bk == nil {
			uc.log.Warn("逾期提醒跳过:关联数据缺失", zap.Uint("borrowing_id", b.ID))
			continue
		}
		uc.notifier.Notify(ctx, notification.Overdue(b, u, bk))
	}
	return report, nil
}
