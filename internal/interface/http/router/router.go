// Package router HTTP路由注册
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// Options 路由开关
type Options struct {
	Mode        string // debug | release | test
	ServiceName string
	Swagger     bool
}

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Book      *handler.BookHandler
	Borrowing *handler.BorrowingHandler
	Payment   *handler.PaymentHandler
}

// New 创建Gin引擎并注册路由
//
//	/api/v1/users       注册、登录（公开），me、logout（登录）
//	/api/v1/books       查询公开，写操作仅馆员
//	/api/v1/borrowings  借阅生命周期（登录）
//	/api/v1/payments    支付记录（登录）
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.Tracing(opts.ServiceName),
		middleware.Logger(log),
		middleware.Metrics(),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.Swagger {
		// 访问 /swagger/index.html，生产环境关闭
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	requireAuth := auth.RequireAuth()
	staffOnly := middleware.RequireStaff()

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.GET("/me", requireAuth, h.User.Me)
		users.POST("/logout", requireAuth, h.User.Logout)
	}

	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/:id", h.Book.GetBook)
		books.POST("", requireAuth, staffOnly, h.Book.PublishBook)
		books.PUT("/:id", requireAuth, staffOnly, h.Book.UpdateBook)
		books.DELETE("/:id", requireAuth, staffOnly, h.Book.DeleteBook)
	}

	borrowings := v1.Group("/borrowings", requireAuth)
	{
		borrowings.GET("", h.Borrowing.ListBorrowings)
		borrowings.POST("", h.Borrowing.CreateBorrowing)
		borrowings.POST("/check-overdue", staffOnly, h.Borrowing.CheckOverdue)
		borrowings.GET("/:id", h.Borrowing.GetBorrowing)
		borrowings.POST("/:id/return", h.Borrowing.ReturnBorrowing)
		borrowings.GET("/:id/paid", h.Borrowing.IsPaid)
	}

	// Stripe跳转页不需要登录
	v1.GET("/payments/success", h.Payment.CheckoutSuccess)
	v1.GET("/payments/cancel", h.Payment.CheckoutCancel)

	payments := v1.Group("/payments", requireAuth)
	{
		payments.GET("", h.Payment.ListPayments)
		payments.POST("", h.Payment.CreatePayment)
		payments.GET("/fines", h.Payment.ListFines)
		payments.GET("/:id", h.Payment.GetPayment)
		payments.PUT("/:id", h.Payment.UpdatePayment)
		payments.DELETE("/:id", h.Payment.DeletePayment)
	}

	v1.POST("/create-checkout-session", requireAuth, h.Payment.CreateCheckoutSession)

	return r
}
