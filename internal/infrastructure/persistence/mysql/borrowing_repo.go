package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/borrowing"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type borrowingRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewBorrowingRepository 创建借阅仓储
// loc须与DSN的loc一致：驱动写入前会把time.Time转换到该时区再截取日期
func NewBorrowingRepository(db *gorm.DB, loc *time.Location) borrowing.Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &borrowingRepository{db: db, loc: loc}
}

func (r *borrowingRepository) Create(ctx context.Context, b *borrowing.Borrowing) error {
	model := toBorrowingModel(b, r.loc)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *borrowingRepository) FindByID(ctx context.Context, id uint) (*borrowing.Borrowing, error) {
	var model BorrowingModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, borrowing.ErrBorrowingNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toBorrowingEntity(&model), nil
}

// MarkReturned 检查并设置归还日期(单条UPDATE完成,并发归还只有一个成功)
func (r *borrowingRepository) MarkReturned(ctx context.Context, id uint, date time.Time) error {
	db := conn(ctx, r.db)
	d := columnDate(date, r.loc)
	result := db.Model(&BorrowingModel{}).
		Where("id = ? AND actual_return_date IS NULL", id).
		Update("actual_return_date", d)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新归还日期失败")
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return borrowing.ErrAlreadyReturned
	}
	return nil
}

func (r *borrowingRepository) List(ctx context.Context, filter borrowing.Filter) ([]*borrowing.Borrowing, error) {
	query := conn(ctx, r.db).Model(&BorrowingModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Active != nil {
		if *filter.Active {
			query = query.Where("actual_return_date IS NULL")
		} else {
			query = query.Where("actual_return_date IS NOT NULL")
		}
	}
	return r.find(query, "查询借阅列表失败")
}

func (r *borrowingRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*borrowing.Borrowing, error) {
	query := conn(ctx, r.db).Model(&BorrowingModel{}).
		Where("actual_return_date IS NULL").
		Where("expected_return_date < ?", columnDate(asOf, r.loc))
	return r.find(query, "查询逾期借阅失败")
}

func (r *borrowingRepository) find(query *gorm.DB, msg string) ([]*borrowing.Borrowing, error) {
	var models []BorrowingModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, msg)
	}
	out := make([]*borrowing.Borrowing, len(models))
	for i := range models {
		out[i] = toBorrowingEntity(&models[i])
	}
	return out, nil
}

// columnDate 取t的日历日期，构造为loc零点，写入DATE列后日期不变
func columnDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func toBorrowingModel(b *borrowing.Borrowing, loc *time.Location) *BorrowingModel {
	m := &BorrowingModel{
		BorrowDate:         columnDate(b.BorrowDate, loc),
		ExpectedReturnDate: columnDate(b.ExpectedReturnDate, loc),
		BookID:             b.BookID,
		UserID:             b.UserID,
	}
	if b.ActualReturnDate != nil {
		d := columnDate(*b.ActualReturnDate, loc)
		m.ActualReturnDate = &d
	}
	return m
}

// 驱动按loc解析DATE列，返回值的日历日期即存储日期
func toBorrowingEntity(m *BorrowingModel) *borrowing.Borrowing {
	b := &borrowing.Borrowing{
		ID:                 m.ID,
		BorrowDate:         borrowing.DateOf(m.BorrowDate),
		ExpectedReturnDate: borrowing.DateOf(m.ExpectedReturnDate),
		BookID:             m.BookID,
		UserID:             m.UserID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.ActualReturnDate != nil {
		d := borrowing.DateOf(*m.ActualReturnDate)
		b.ActualReturnDate = &d
	}
	return b
}
