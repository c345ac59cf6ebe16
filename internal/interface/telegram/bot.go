// Package telegram 图书馆Telegram机器人命令处理
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

const (
	textStart        = "Hello! I'm your library bot."
	textHint         = "ℹ️ Use /help to see the list of commands"
	textUnknown      = "Unknown command. Use /help to see the list of commands."
	textNotFound     = "Sorry, you are not found in the system. Please register or contact the admin."
	textRegisterHelp = "Please use the command as:\n/register your_email@example.com"
	textRegistered   = "✅ You have been registered successfully!"
	textStaffOnly    = "⛔ This command is available to library staff only."
	textCheckSent    = "✅ Overdue books check sent to the admin."
	textTargetSet    = "✅ Notifications will be sent to this chat."
	textFailed       = "❌ Something went wrong, please try again later."
	textNoBooks      = "You have no borrowed books."
	textNoPayments   = "You have no payments."
	textNoFines      = "You have no fines."
)

const textHelp = `📚 Available commands:
/register <email> - link this chat to your account
/mybooks - your borrowed books
/payments - your payments
/fines - your fines
/chatid - show this chat id
/checkoverdue - run the overdue check (staff)
/settarget - send notifications to this chat (staff)`

// Sender 回复发送接口（*tgbotapi.BotAPI实现）
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot 命令处理器
// 每条命令独立处理，账号身份通过chat_links表解析
type Bot struct {
	sender    Sender
	users     user.Repository
	links     chatlink.Repository
	targets   chatlink.TargetStore
	borrowing *appborrowing.QueryBorrowingsUseCase
	payments  *apppayment.ManagePaymentsUseCase
	overdue   *appborrowing.CheckOverdueUseCase
	log       *zap.Logger
}

// NewBot 创建机器人
func NewBot(
	sender Sender,
	users user.Repository,
	links chatlink.Repository,
	targets chatlink.TargetStore,
	borrowings *appborrowing.QueryBorrowingsUseCase,
	payments *apppayment.ManagePaymentsUseCase,
	overdue *appborrowing.CheckOverdueUseCase,
	log *zap.Logger,
) *Bot {
	return &Bot{
		sender:    sender,
		users:     users,
		links:     links,
		targets:   targets,
		borrowing: borrowings,
		payments:  payments,
		overdue:   overdue,
		log:       log,
	}
}

// Run 处理更新直到ctx取消或updates关闭
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.Handle(ctx, update.Message)
		}
	}
}

// Handle 处理一条消息并回复
func (b *Bot) Handle(ctx context.Context, msg *tgbotapi.Message) {
	text := textHint
	if msg.IsCommand() {
		text = b.command(ctx, msg)
		metrics.IncCounterVec(metrics.BotCommandsTotal, msg.Command())
	}
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) command(ctx context.Context, msg *tgbotapi.Message) string {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return textStart + "\n\n" + textHelp
	case "help":
		return textHelp
	case "chatid":
		return fmt.Sprintf("Your chat ID is: %d", chatID)
	case "register":
		return b.register(ctx, chatID, msg.CommandArguments())
	case "mybooks":
		return b.withUser(ctx, chatID, b.myBooks)
	case "payments":
		return b.withUser(ctx, chatID, b.myPayments)
	case "fines":
		return b.withUser(ctx, chatID, b.myFines)
	case "checkoverdue":
		return b.withStaff(ctx, chatID, func(ctx context.Context, _ *user.User) (string, error) {
			if _, err := b.overdue.Execute(ctx); err != nil {
				return "", err
			}
			return textCheckSent, nil
		})
	case "settarget":
		return b.withStaff(ctx, chatID, func(ctx context.Context, u *user.User) (string, error) {
			if err := b.targets.Set(ctx, chatID); err != nil {
				return "", err
			}
			b.log.Info("通知目标已更新", zap.Int64("chat_id", chatID), zap.Uint("user_id", u.ID))
			return textTargetSet, nil
		})
	default:
		return textUnknown
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("回复发送失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) register(ctx context.Context, chatID int64, args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return textRegisterHelp
	}
	email := strings.ToLower(fields[0])

	u, err := b.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return fmt.Sprintf("❌ No user found with email: %s. Please contact the admin.", email)
		}
		return b.failed("register", err)
	}
	if _, err := b.links.Link(ctx, chatID, u.ID); err != nil {
		return b.failed("register", err)
	}
	b.log.Info("聊天账号已绑定", zap.Int64("chat_id", chatID), zap.Uint("user_id", u.ID))
	return textRegistered
}

type userAction func(ctx context.Context, u *user.User) (string, error)

// withUser 解析绑定的用户后执行
func (b *Bot) withUser(ctx context.Context, chatID int64, fn userAction) string {
	u, err := b.linkedUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, chatlink.ErrNotLinked) || errors.Is(err, apperrors.ErrUserNotFound) {
			return textNotFound
		}
		return b.failed("resolve user", err)
	}
	text, err := fn(ctx, u)
	if err != nil {
		return b.failed("command", err)
	}
	return text
}

func (b *Bot) withStaff(ctx context.Context, chatID int64, fn userAction) string {
	return b.withUser(ctx, chatID, func(ctx context.Context, u *user.User) (string, error) {
		if !u.IsStaff {
			return textStaffOnly, nil
		}
		return fn(ctx, u)
	})
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*user.User, error) {
	link, err := b.links.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return b.users.FindByID(ctx, link.UserID)
}

func (b *Bot) failed(op string, err error) string {
	b.log.Error("命令处理失败", zap.String("op", op), zap.Error(err))
	return textFailed
}

// self 命令只查询本人数据，馆员也不例外
func self(u *user.User) user.Actor {
	return user.Actor{UserID: u.ID}
}

func (b *Bot) myBooks(ctx context.Context, u *user.User) (string, error) {
	actor := self(u)
	list, err := b.borrowing.List(ctx, actor, borrowing.Query{IsActive: "true"})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return textNoBooks, nil
	}

	var sb strings.Builder
	sb.WriteString("Your borrowed books:\n")
	for _, v := range list {
		paid, err := b.borrowing.IsPaid(ctx, actor, v.ID)
		if err != nil {
			return "", err
		}
		title := fmt.Sprintf("book #%d", v.BookID)
		if v.Book != nil {
			title = v.Book.Title
		}
		fmt.Fprintf(&sb, "- %s (expected return: %s, payment status: %s)\n", title, v.ExpectedReturnDate, paidText(paid))
	}
	return sb.String(), nil
}

func (b *Bot) myPayments(ctx context.Context, u *user.User) (string, error) {
	list, err := b.payments.List(ctx, self(u))
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return textNoPayments, nil
	}

	var sb strings.Builder
	sb.WriteString("Your payments:\n")
	for _, p := range list {
		fmt.Fprintf(&sb, "- #%d %s for borrowing #%d: %s USD (%s)\n",
			p.ID, strings.ToLower(p.Type), p.Borrowing, p.MoneyToPay.StringFixed(2), strings.ToLower(p.Status))
	}
	return sb.String(), nil
}

func (b *Bot) myFines(ctx context.Context, u *user.User) (string, error) {
	list, err := b.payments.Fines(ctx, self(u))
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return textNoFines, nil
	}

	var sb strings.Builder
	sb.WriteString("Your fines:\n")
	for _, f := range list {
		fmt.Fprintf(&sb, "- %s: %s USD (%s)\n", f.BookTitle, f.MoneyToPay.StringFixed(2), paidText(f.Paid))
	}
	return sb.String(), nil
}

func paidText(paid bool) string {
	if paid {
		return "paid"
	}
	return "not paid"
}
