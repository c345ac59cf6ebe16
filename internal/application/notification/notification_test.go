package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/user"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSink) received() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func TestDispatcher_DeliversAll(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 16, 3, zap.NewNop())
	d.Start()

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), NoOverdue())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Len(t, sink.received(), 10)
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("telegram down")}
	d := NewDispatcher(sink, 4, 1, zap.NewNop())
	d.Start()

	assert.NotPanics(t, func() { d.Notify(context.Background(), NoOverdue()) })

	require.NoError(t, d.Close(context.Background()))
	// 只尝试一次
	assert.Len(t, sink.received(), 1)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 1, 1, zap.NewNop())

	// worker未启动,第二条消息因队列满被丢弃
	d.Notify(context.Background(), Message{Kind: KindOverdue, Text: "first"})
	d.Notify(context.Background(), Message{Kind: KindOverdue, Text: "second"})

	d.Start()
	require.NoError(t, d.Close(context.Background()))

	got := sink.received()
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Text)
}

func TestDispatcher_NotifyAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 1, 1, zap.NewNop())
	d.Start()
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() { d.Notify(context.Background(), NoOverdue()) })
	assert.Empty(t, sink.received())
	assert.NoError(t, d.Close(context.Background()))
}

func fixtures() (*borrowing.Borrowing, *user.User, *book.Book) {
	b := borrowing.New(1, 2,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	u := &user.User{ID: 2, Email: "reader@example.com"}
	bk := &book.Book{ID: 1, Title: "Go & You", DailyFee: decimal.NewFromInt(1)}
	return b, u, bk
}

func TestBorrowingCreated_Text(t *testing.T) {
	b, u, bk := fixtures()

	msg := BorrowingCreated(b, u, bk, 4)

	assert.Equal(t, KindBorrowingCreated, msg.Kind)
	assert.Equal(t,
		"<b>New borrowing created!</b>\n"+
			"User: reader@example.com\n"+
			"Book: Go &amp; You (4 left)\n"+
			"Expected return date: 2026-03-10\n",
		msg.Text)
}

func TestOverdue_Text(t *testing.T) {
	b, u, bk := fixtures()

	msg := Overdue(b, u, bk)

	assert.Equal(t, KindOverdue, msg.Kind)
	assert.Equal(t,
		"<b>Overdue borrowing alert!</b>\n"+
			"User: reader@example.com\n"+
			"Book: Go &amp; You\n"+
			"Expected return: 2026-03-10",
		msg.Text)
}

func TestNoOverdue_Text(t *testing.T) {
	assert.Equal(t, "📢 No borrowings overdue today!", NoOverdue().Text)
}
