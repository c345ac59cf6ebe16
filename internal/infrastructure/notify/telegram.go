// Package notify 通知投递通道（Telegram、RabbitMQ）
package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application/notification"
	"github.com/xiebiao/library/internal/domain/chatlink"
)

// ErrNoTarget 没有可用的通知目标会话
var ErrNoTarget = errors.New("notification target chat is not configured")

// Sender Telegram发送接口（*tgbotapi.BotAPI实现）
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink 直接调用Bot API发送
// 目标会话每次发送时解析: 消息自带ChatID → 持久化的目标 → 配置的默认会话
type TelegramSink struct {
	sender        Sender
	targets       chatlink.TargetStore
	defaultChatID int64
	log           *zap.Logger
}

// NewTelegramSink 创建Telegram通道
func NewTelegramSink(sender Sender, targets chatlink.TargetStore, defaultChatID int64, log *zap.Logger) *TelegramSink {
	return &TelegramSink{sender: sender, targets: targets, defaultChatID: defaultChatID, log: log}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, msg notification.Message) error {
	chatID, err := s.resolve(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := s.sender.Send(out); err != nil {
		return err
	}
	s.log.Debug("Telegram通知已发送", zap.Int64("chat_id", chatID), zap.String("kind", string(msg.Kind)))
	return nil
}

func (s *TelegramSink) resolve(ctx context.Context, explicit int64) (int64, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if s.targets != nil {
		id, ok, err := s.targets.Get(ctx)
		if err != nil {
			s.log.Warn("读取通知目标失败，使用默认会话", zap.Error(err))
		} else if ok {
			return id, nil
		}
	}
	if s.defaultChatID == 0 {
		return 0, ErrNoTarget
	}
	return s.defaultChatID, nil
}
