// Package metrics 基于Prometheus的指标收集
//
// 指标类型：
//   - Counter：只增不减（请求数、借阅数）
//   - Gauge：瞬时值（当前逾期数、处理中的请求）
//   - Histogram：分布（请求耗时）
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、status、reason），不使用user_id等高基数字段。
//
// 用法：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//	metrics.BorrowingsCreatedTotal.Inc()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（标签：method、path、status）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（标签：method、path）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 借阅业务指标

	// BorrowingsCreatedTotal 借阅创建成功总数
	BorrowingsCreatedTotal prometheus.Counter

	// BorrowingsRejectedTotal 借阅被拒绝总数（标签：reason = unavailable/unpaid_fines/not_found/error）
	BorrowingsRejectedTotal *prometheus.CounterVec

	// BorrowingsReturnedTotal 归还成功总数
	BorrowingsReturnedTotal prometheus.Counter

	// OverdueBorrowings 最近一次逾期检查发现的逾期数
	OverdueBorrowings prometheus.Gauge

	// 通知与支付

	// NotificationsTotal 通知投递结果（标签：transport、result = sent/failed/dropped）
	NotificationsTotal *prometheus.CounterVec

	// CheckoutSessionsTotal 支付会话创建结果（标签：result = success/failure）
	CheckoutSessionsTotal *prometheus.CounterVec

	// BotCommandsTotal 机器人命令处理总数（标签：command）
	BotCommandsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数（标签：name、result = success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数（标签：result）
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaCompensationsTotal Saga补偿执行总数
	SagaCompensationsTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（标签：exchange、routing_key）
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数（标签：queue、result）
	MessagesConsumedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry（重复调用无副作用）
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时（秒）",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})

	BorrowingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowings_created_total",
		Help:      "借阅创建成功总数",
	})

	BorrowingsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowings_rejected_total",
		Help:      "借阅被拒绝总数",
	}, []string{"reason"})

	BorrowingsReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowings_returned_total",
		Help:      "归还成功总数",
	})

	OverdueBorrowings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overdue_borrowings",
		Help:      "最近一次逾期检查发现的逾期借阅数",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "通知投递结果",
	}, []string{"transport", "result"})

	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "支付会话创建结果",
	}, []string{"result"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
	}, []string{"name"})

	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "熔断器请求总数",
	}, []string{"name", "result"})

	SagaExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_executions_total",
		Help:      "Saga执行总数",
	}, []string{"result"})

	SagaCompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_compensations_total",
		Help:      "Saga补偿执行总数",
	})

	BotCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_commands_total",
		Help:      "机器人命令处理总数",
	}, []string{"command"})

	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "消息发布总数",
	}, []string{"exchange", "routing_key"})

	MessagesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_consumed_total",
		Help:      "消息消费总数",
	}, []string{"queue", "result"})
}

// IncCounterVec 递增CounterVec；未初始化时忽略（单元测试中不注册指标）
func IncCounterVec(counter *prometheus.CounterVec, labels ...string) {
	if counter == nil {
		return
	}
	counter.WithLabelValues(labels...).Inc()
}

// IncCounter 递增Counter；未初始化时忽略
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// SetGauge 设置Gauge；未初始化时忽略
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec；未初始化时忽略
func SetGaugeVec(gauge *prometheus.GaugeVec, value float64, labels ...string) {
	if gauge == nil {
		return
	}
	gauge.WithLabelValues(labels...).Set(value)
}
