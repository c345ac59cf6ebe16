package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/pkg/jwt"
)

// App 组装完成的api进程
type App struct {
	Config    *config.Config
	Server    *http.Server
	Auth      *appuser.AuthUseCase
	Scheduler *appborrowing.OverdueScheduler
}

func newApp(cfg *config.Config, server *http.Server, auth *appuser.AuthUseCase, scheduler *appborrowing.OverdueScheduler) *App {
	return &App{Config: cfg, Server: server, Auth: auth, Scheduler: scheduler}
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideSweepLock(client *goredis.Client) *redis.SweepLock {
	return redis.NewSweepLock(client)
}

func provideScheduler(check *appborrowing.CheckOverdueUseCase, lock *redis.SweepLock, cfg *config.Config, log *zap.Logger) *appborrowing.OverdueScheduler {
	return appborrowing.NewOverdueScheduler(check, lock, cfg.Scheduler.OverdueCronInterval, log)
}

func provideRouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	}
}

func provideHTTPServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
