package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/application/notification"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

// lastText 最近一次回复内容
func (m *mockSender) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.Calls)
	msg, ok := m.Calls[len(m.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	require.True(t, ok)
	return msg.Text
}

type recordingNotifier struct {
	msgs []notification.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notification.Message) {
	n.msgs = append(n.msgs, msg)
}

type botEnv struct {
	bot      *Bot
	sender   *mockSender
	notifier *recordingNotifier
	targets  *memory.TargetStore

	users      user.Repository
	books      book.Repository
	borrowings borrowing.Repository
	payments   payment.Repository
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	store := memory.NewStore()
	e := &botEnv{
		sender:     &mockSender{},
		notifier:   &recordingNotifier{},
		targets:    memory.NewTargetStore(),
		users:      memory.NewUserRepository(store),
		books:      memory.NewBookRepository(store),
		borrowings: memory.NewBorrowingRepository(store),
		payments:   memory.NewPaymentRepository(store),
	}
	e.sender.On("Send", mock.Anything).Return(nil)

	policy := appborrowing.Policy{ReturnDateFromClient: true}
	e.bot = NewBot(
		e.sender,
		e.users,
		memory.NewChatLinkRepository(store),
		e.targets,
		appborrowing.NewQueryBorrowingsUseCase(e.borrowings, e.books, e.payments, policy),
		apppayment.NewManagePaymentsUseCase(e.payments, e.borrowings, e.books),
		appborrowing.NewCheckOverdueUseCase(e.borrowings, e.books, e.users, e.notifier, zap.NewNop()),
		zap.NewNop(),
	)
	return e
}

func (e *botEnv) addUser(t *testing.T, email string, staff bool) *user.User {
	t.Helper()
	u := user.NewUser(email, "hash", "")
	u.IsStaff = staff
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *botEnv) addBorrowing(t *testing.T, u *user.User, title string, expected time.Time) *borrowing.Borrowing {
	t.Helper()
	ctx := context.Background()
	bk, err := book.NewBook(title, "Author", book.CoverHard, 3, decimal.RequireFromString("1.00"))
	require.NoError(t, err)
	require.NoError(t, e.books.Create(ctx, bk))
	b := borrowing.New(bk.ID, u.ID, expected.AddDate(0, 0, -7), expected)
	require.NoError(t, e.borrowings.Create(ctx, b))
	return b
}

// send 模拟用户在chatID会话中发送一条消息，返回机器人的回复
func (e *botEnv) send(t *testing.T, chatID int64, text string) string {
	t.Helper()
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	e.bot.Handle(context.Background(), msg)
	return e.sender.lastText(t)
}

func TestBot_StaticCommands(t *testing.T) {
	e := newBotEnv(t)

	assert.True(t, strings.HasPrefix(e.send(t, 42, "/start"), "Hello! I'm your library bot."))
	assert.Contains(t, e.send(t, 42, "/help"), "/mybooks")
	assert.Equal(t, "Your chat ID is: 42", e.send(t, 42, "/chatid"))
	assert.Equal(t, textUnknown, e.send(t, 42, "/teleport"))
	assert.Equal(t, textHint, e.send(t, 42, "hello?"))

	// 回复发往消息所在会话
	last := e.sender.Calls[len(e.sender.Calls)-1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, int64(42), last.ChatID)
}

func TestBot_Register(t *testing.T) {
	e := newBotEnv(t)
	e.addUser(t, "reader@example.com", false)

	assert.Equal(t, textRegisterHelp, e.send(t, 42, "/register"))
	assert.Equal(t, "❌ No user found with email: ghost@example.com. Please contact the admin.",
		e.send(t, 42, "/register ghost@example.com"))

	assert.Equal(t, textNotFound, e.send(t, 42, "/mybooks"))
	assert.Equal(t, textRegistered, e.send(t, 42, "/register Reader@Example.com"))
	assert.Equal(t, textNoBooks, e.send(t, 42, "/mybooks"))
}

func TestBot_MyBooksPaymentsFines(t *testing.T) {
	ctx := context.Background()
	e := newBotEnv(t)
	alice := e.addUser(t, "alice@example.com", false)
	bob := e.addUser(t, "bob@example.com", false)
	e.send(t, 1, "/register alice@example.com")

	dune := e.addBorrowing(t, alice, "Dune", time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC))
	e.addBorrowing(t, bob, "Emma", time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC))

	paid, err := payment.New(dune.ID, payment.TypePayment, decimal.RequireFromString("7"))
	require.NoError(t, err)
	paid.Status = payment.StatusPaid
	require.NoError(t, e.payments.Create(ctx, paid))

	fine, err := payment.New(dune.ID, payment.TypeFine, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	require.NoError(t, e.payments.Create(ctx, fine))

	books := e.send(t, 1, "/mybooks")
	assert.Contains(t, books, "- Dune (expected return: 2030-01-10, payment status: paid)")
	assert.NotContains(t, books, "Emma")

	payments := e.send(t, 1, "/payments")
	assert.Contains(t, payments, "payment for borrowing")
	assert.Contains(t, payments, "7.00 USD (paid)")
	assert.Contains(t, payments, "2.50 USD (pending)")

	assert.Equal(t, "Your fines:\n- Dune: 2.50 USD (not paid)\n", e.send(t, 1, "/fines"))

	e.send(t, 2, "/register bob@example.com")
	assert.Equal(t, textNoFines, e.send(t, 2, "/fines"))
	assert.Equal(t, textNoPayments, e.send(t, 2, "/payments"))
}

func TestBot_MyBooksMissingBookUsesBookID(t *testing.T) {
	ctx := context.Background()
	e := newBotEnv(t)
	alice := e.addUser(t, "alice@example.com", false)
	e.send(t, 1, "/register alice@example.com")

	// 先占用几个借阅ID，使借阅ID与图书ID不同
	for i := 0; i < 3; i++ {
		e.addBorrowing(t, e.addUser(t, fmt.Sprintf("other%d@example.com", i), false), "Filler", time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC))
	}
	orphan := borrowing.New(77, alice.ID, time.Date(2030, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, e.borrowings.Create(ctx, orphan))
	require.NotEqual(t, uint(77), orphan.ID)

	books := e.send(t, 1, "/mybooks")
	assert.Contains(t, books, "- book #77 (expected return: 2030-01-10, payment status: not paid)")
}

func TestBot_StaffCommands(t *testing.T) {
	ctx := context.Background()
	e := newBotEnv(t)
	reader := e.addUser(t, "reader@example.com", false)
	e.addUser(t, "staff@example.com", true)
	e.send(t, 1, "/register reader@example.com")
	e.send(t, 9, "/register staff@example.com")

	assert.Equal(t, textNotFound, e.send(t, 5, "/checkoverdue"))
	assert.Equal(t, textStaffOnly, e.send(t, 1, "/checkoverdue"))
	assert.Equal(t, textStaffOnly, e.send(t, 1, "/settarget"))
	assert.Empty(t, e.notifier.msgs)

	e.addBorrowing(t, reader, "Dune", time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, textCheckSent, e.send(t, 9, "/checkoverdue"))
	require.Len(t, e.notifier.msgs, 1)
	assert.Equal(t, notification.KindOverdue, e.notifier.msgs[0].Kind)

	assert.Equal(t, textTargetSet, e.send(t, 9, "/settarget"))
	id, ok, err := e.targets.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)
}

func TestBot_ReplyFailureIsLogged(t *testing.T) {
	e := newBotEnv(t)
	sender := &mockSender{}
	sender.On("Send", mock.Anything).Return(errors.New("chat not found"))
	e.bot.sender = sender

	assert.NotPanics(t, func() {
		e.bot.Handle(context.Background(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"})
	})
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestBot_RunStopsWhenChannelCloses(t *testing.T) {
	e := newBotEnv(t)
	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{}
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 3}, Text: "hi"}}
	close(updates)

	e.bot.Run(context.Background(), updates)
	e.sender.AssertNumberOfCalls(t, "Send", 1)
}
