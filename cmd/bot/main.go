package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/bootstrap"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/notify"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/telegram"
	"github.com/xiebiao/library/pkg/metrics"
)

// main Telegram机器人进程
// 处理聊天命令；notification.transport=rabbitmq时同时消费api进程发布的通知
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("process", "bot"))

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("机器人异常退出", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.InitMetrics()
	shutdownTracing, err := bootstrap.InitTracing(cfg, "library-bot")
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	// 1. 存储
	db, closeDB, err := bootstrap.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	redisClient, closeRedis, err := bootstrap.NewRedis(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	loc, err := bootstrap.DBLocation(cfg)
	if err != nil {
		return err
	}

	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	borrowingRepo := mysql.NewBorrowingRepository(db, loc)
	paymentRepo := mysql.NewPaymentRepository(db)
	linkRepo := mysql.NewChatLinkRepository(db)
	targets := redis.NewTargetStore(redisClient)

	// 2. Telegram与通知
	api, err := bootstrap.NewBotAPI(cfg, logger)
	if err != nil {
		return err
	}
	sink := notify.NewTelegramSink(api, targets, cfg.Telegram.NotifyChatID, logger)
	dispatcher, closeDispatcher := bootstrap.NewDispatcher(cfg, sink, logger)
	defer closeDispatcher()

	// 3. 用例
	policy := bootstrap.Policy(cfg)
	queryBorrowings := appborrowing.NewQueryBorrowingsUseCase(borrowingRepo, bookRepo, paymentRepo, policy)
	managePayments := apppayment.NewManagePaymentsUseCase(paymentRepo, borrowingRepo, bookRepo)
	checkOverdue := appborrowing.NewCheckOverdueUseCase(borrowingRepo, bookRepo, userRepo, dispatcher, logger)

	bot := telegram.NewBot(api, userRepo, linkRepo, targets, queryBorrowings, managePayments, checkOverdue, logger)

	// 4. 队列中转
	if cfg.Notification.Transport == config.TransportRabbitMQ {
		consumer, err := bootstrap.NewConsumer(cfg, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Consume(ctx, notify.Relay(sink)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("通知消费中断", zap.Error(err))
				stop()
			}
		}()
		logger.Info("通知消费已启动", zap.String("queue", cfg.RabbitMQ.Queue))
	}

	// 5. 长轮询
	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	logger.Info("机器人已启动", zap.String("bot", api.Self.UserName))
	bot.Run(ctx, updates)
	logger.Info("机器人已停止")
	return nil
}
