package borrowing

import (
	"time"
)

// DateLayout 借阅日期的序列化格式
const DateLayout = "2006-01-02"

// Borrowing 借阅记录(聚合根)
// 状态只有两个:
//
//	OPEN     (ActualReturnDate == nil)
//	RETURNED (ActualReturnDate != nil)
//
// 归还后不可再变更;逾期是按日期计算出来的,不持久化
type Borrowing struct {
	ID                 uint
	BorrowDate         time.Time  // 创建时设置,不可变
	ExpectedReturnDate time.Time  // 借阅人填写
	ActualReturnDate   *time.Time // nil表示未归还
	BookID             uint
	UserID             uint // 借阅人
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New 创建OPEN状态的借阅记录
func New(bookID, userID uint, borrowDate, expectedReturnDate time.Time) *Borrowing {
	now := time.Now()
	return &Borrowing{
		BorrowDate:         DateOf(borrowDate),
		ExpectedReturnDate: DateOf(expectedReturnDate),
		BookID:             bookID,
		UserID:             userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsReturned 是否已归还
func (b *Borrowing) IsReturned() bool {
	return b.ActualReturnDate != nil
}

// IsOverdue asOf当天是否逾期(未归还且预计归还日期早于asOf)
func (b *Borrowing) IsOverdue(asOf time.Time) bool {
	return !b.IsReturned() && b.ExpectedReturnDate.Before(DateOf(asOf))
}

// IsOwnedBy 是否属于指定用户
func (b *Borrowing) IsOwnedBy(userID uint) bool {
	return b.UserID == userID
}

// Return 标记归还(只允许一次)
func (b *Borrowing) Return(date time.Time) error {
	if b.IsReturned() {
		return ErrAlreadyReturned
	}
	d := DateOf(date)
	b.ActualReturnDate = &d
	b.UpdatedAt = time.Now()
	return nil
}

// PlannedDays 借阅天数(预计归还日 - 借出日),至少为1
func (b *Borrowing) PlannedDays() int {
	days := int(b.ExpectedReturnDate.Sub(b.BorrowDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// DateOf 截断为日期(UTC零点)
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
