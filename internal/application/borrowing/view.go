package borrowing

import (
	bookapp "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
)

// Policy 借阅业务开关(来自borrowing配置段)
type Policy struct {
	// ReturnDateFromClient 归还日期使用请求体中的日期,false时使用服务器当天
	ReturnDateFromClient bool
	// EnforceOwnership 详情/归还/支付状态只允许借阅人和馆员访问
	EnforceOwnership bool
	// BlockOnUnpaidFines 存在未支付罚款时禁止借书
	BlockOnUnpaidFines bool
}

// BorrowingView 借阅响应DTO(嵌套图书信息)
type BorrowingView struct {
	ID                 uint              `json:"id"`
	BorrowDate         string            `json:"borrow_date"`
	ExpectedReturnDate string            `json:"expected_return_date"`
	ActualReturnDate   *string           `json:"actual_return_date"`
	BookID             uint              `json:"book_id"`
	Book               *bookapp.BookView `json:"book"`
	User               uint              `json:"user"`
}

// NewBorrowingView bk可以为nil(图书记录缺失时只返回借阅本身)
func NewBorrowingView(b *borrowing.Borrowing, bk *book.Book) *BorrowingView {
	v := &BorrowingView{
		ID:                 b.ID,
		BorrowDate:         b.BorrowDate.Format(borrowing.DateLayout),
		ExpectedReturnDate: b.ExpectedReturnDate.Format(borrowing.DateLayout),
		BookID:             b.BookID,
		Book:               bookapp.NewBookView(bk),
		User:               b.UserID,
	}
	if b.ActualReturnDate != nil {
		s := b.ActualReturnDate.Format(borrowing.DateLayout)
		v.ActualReturnDate = &s
	}
	return v
}
