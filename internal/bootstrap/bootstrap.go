// Package bootstrap api与bot进程共用的组件构造
package bootstrap

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/application/notification"
	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/notify"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/tracing"
)

// 交换机固定为topic类型，routing_key为 notification.<kind>
const exchangeType = "topic"

// NewLogger 按配置创建日志
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
}

// InitTracing 初始化链路追踪，serviceName为空时使用配置值
func InitTracing(cfg *config.Config, serviceName string) (tracing.Shutdown, error) {
	if serviceName == "" {
		serviceName = cfg.Tracing.ServiceName
	}
	return tracing.Init(tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: serviceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
}

// NewDB MySQL连接，cleanup关闭连接池
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// DBLocation 数据库连接时区，DATE列按它读写
func DBLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Database.Location()
}

// NewRedis Redis连接，cleanup关闭客户端
func NewRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { client.Close() }, nil
}

// Policy 借阅业务开关
func Policy(cfg *config.Config) appborrowing.Policy {
	return appborrowing.Policy{
		ReturnDateFromClient: cfg.Borrowing.ReturnDateSource != config.ReturnDateServer,
		EnforceOwnership:     cfg.Borrowing.EnforceOwnership,
		BlockOnUnpaidFines:   cfg.Borrowing.BlockOnUnpaidFines,
	}
}

// NewBotAPI 创建Telegram客户端（会调用getMe校验token）
func NewBotAPI(cfg *config.Config, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram.bot_token未配置")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("连接Telegram失败: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.Info("Telegram已连接", zap.String("bot", api.Self.UserName))
	return api, nil
}

// NewSink 按notification.transport选择投递通道
// telegram未配置token时退化为log通道
func NewSink(cfg *config.Config, targets chatlink.TargetStore, log *zap.Logger) (notification.Sink, func(), error) {
	nop := func() {}

	switch cfg.Notification.Transport {
	case config.TransportTelegram:
		if cfg.Telegram.BotToken == "" {
			log.Warn("telegram.bot_token未配置，通知只写日志")
			return notification.NewLogSink(log), nop, nil
		}
		api, err := NewBotAPI(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewTelegramSink(api, targets, cfg.Telegram.NotifyChatID, log), api.StopReceivingUpdates, nil

	case config.TransportRabbitMQ:
		pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, exchangeType, log)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewRabbitMQSink(pub), func() { pub.Close() }, nil

	default:
		return notification.NewLogSink(log), nop, nil
	}
}

// NewConsumer bot进程消费通知的队列
func NewConsumer(cfg *config.Config, log *zap.Logger) (*mq.Consumer, error) {
	return mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, exchangeType,
		cfg.RabbitMQ.Queue, []string{cfg.RabbitMQ.Key}, log)
}

// NewDispatcher 启动异步分发器，cleanup等待队列排空（最多10秒）
func NewDispatcher(cfg *config.Config, sink notification.Sink, log *zap.Logger) (*notification.Dispatcher, func()) {
	d := notification.NewDispatcher(sink, cfg.Notification.QueueSize, cfg.Notification.Workers, log)
	d.Start()
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Close(ctx); err != nil {
			log.Warn("通知队列未排空", zap.Error(err))
		}
	}
	return d, cleanup
}
