package notification

import (
	"fmt"
	"html"
	"strings"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/user"
)

// Kind 消息类型(同时作为rabbitmq的routing_key后缀)
type Kind string

const (
	KindBorrowingCreated Kind = "borrowing_created"
	KindOverdue          Kind = "overdue"
	KindNoOverdue        Kind = "no_overdue"
)

// Message 一条待投递的通知
// ChatID为0时由投递通道解析默认目标
type Message struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text"` // Telegram HTML格式
	ChatID int64  `json:"chat_id,omitempty"`
}

// BorrowingCreated 新借阅通知
// left是借出后剩余库存
func BorrowingCreated(b *borrowing.Borrowing, u *user.User, bk *book.Book, left int) Message {
	var sb strings.Builder
	sb.WriteString("<b>New borrowing created!</b>\n")
	fmt.Fprintf(&sb, "User: %s\n", html.EscapeString(u.Email))
	fmt.Fprintf(&sb, "Book: %s (%d left)\n", html.EscapeString(bk.Title), left)
	fmt.Fprintf(&sb, "Expected return date: %s\n", b.ExpectedReturnDate.Format(borrowing.DateLayout))
	return Message{Kind: KindBorrowingCreated, Text: sb.String()}
}

// Overdue 逾期提醒
func Overdue(b *borrowing.Borrowing, u *user.User, bk *book.Book) Message {
	var sb strings.Builder
	sb.WriteString("<b>Overdue borrowing alert!</b>\n")
	fmt.Fprintf(&sb, "User: %s\n", html.EscapeString(u.Email))
	fmt.Fprintf(&sb, "Book: %s\n", html.EscapeString(bk.Title))
	fmt.Fprintf(&sb, "Expected return: %s", b.ExpectedReturnDate.Format(borrowing.DateLayout))
	return Message{Kind: KindOverdue, Text: sb.String()}
}

// NoOverdue 逾期检查没有发现记录
func NoOverdue() Message {
	return Message{Kind: KindNoOverdue, Text: "📢 No borrowings overdue today!"}
}
