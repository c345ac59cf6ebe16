//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 修改Provider后执行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/application/notification"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/bootstrap"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/transaction"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/stripe"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 数据库、缓存、通知通道、支付网关
var infrastructureSet = wire.NewSet(
	bootstrap.NewDB,
	bootstrap.DBLocation,
	bootstrap.NewRedis,
	bootstrap.NewSink,
	bootstrap.NewDispatcher,
	redis.NewSessionStore,
	redis.NewTargetStore,
	provideSweepLock,
	stripe.NewGateway,
	wire.Bind(new(notification.Notifier), new(*notification.Dispatcher)),
	wire.Bind(new(chatlink.TargetStore), new(*redis.TargetStore)),
	wire.Bind(new(payment.Gateway), new(*stripe.Gateway)),
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.Blacklist), new(*redis.SessionStore)),
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewBorrowingRepository,
	mysql.NewPaymentRepository,
	mysql.NewTxManager,
	wire.Bind(new(transaction.Manager), new(*mysql.TxManager)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	book.NewLedger,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	bootstrap.Policy,
	appuser.NewAuthUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewUpdateBookUseCase,
	appborrowing.NewCreateBorrowingUseCase,
	appborrowing.NewReturnBorrowingUseCase,
	appborrowing.NewQueryBorrowingsUseCase,
	appborrowing.NewCheckOverdueUseCase,
	apppayment.NewManagePaymentsUseCase,
	apppayment.NewCheckoutUseCase,
	provideScheduler,
)

// httpSet 处理器、中间件、路由
var httpSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewBorrowingHandler,
	handler.NewPaymentHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideRouterOptions,
	router.New,
	provideHTTPServer,
)

// InitializeApp 组装api进程
// cleanup按创建的逆序关闭通知队列、Redis、MySQL
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		httpSet,
		newApp,
	)
	return nil, nil, nil
}
