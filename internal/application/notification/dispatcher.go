// Package notification 通知投递
//
// 业务代码只调用Notifier.Notify,投递在后台worker中完成:
// 每条消息只尝试一次,失败记录warn日志,不重试、不回传给调用方。
package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/metrics"
)

// Sink 投递通道(telegram / rabbitmq / log)
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier 业务侧使用的通知接口
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Dispatcher 有界队列 + 固定数量worker
// 队列满时丢弃新消息,不阻塞借阅流程
type Dispatcher struct {
	sink    Sink
	queue   chan Message
	workers int
	log     *zap.Logger

	wg        sync.WaitGroup
	startOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher 创建分发器,需要调用Start启动worker
func NewDispatcher(sink Sink, queueSize, workers int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan Message, queueSize),
		workers: workers,
		log:     log.With(zap.String("transport", sink.Name())),
	}
}

// Start 启动worker
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run()
		}
	})
}

// Notify 入队,立即返回
func (d *Dispatcher) Notify(_ context.Context, msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(msg, "dispatcher closed")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.drop(msg, "queue full")
	}
}

func (d *Dispatcher) drop(msg Message, reason string) {
	metrics.IncCounterVec(metrics.NotificationsTotal, d.sink.Name(), "dropped")
	d.log.Warn("通知被丢弃", zap.String("kind", string(msg.Kind)), zap.String("reason", reason))
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	// 请求上下文可能已经结束,投递使用独立的ctx
	ctx := context.Background()
	if err := d.sink.Send(ctx, msg); err != nil {
		metrics.IncCounterVec(metrics.NotificationsTotal, d.sink.Name(), "failed")
		d.log.Warn("通知投递失败", zap.String("kind", string(msg.Kind)), zap.Error(err))
		return
	}
	metrics.IncCounterVec(metrics.NotificationsTotal, d.sink.Name(), "sent")
}

// Close 停止接收新消息,等待队列中的消息投递完成或ctx到期
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink 只写日志的投递通道(未配置Telegram时使用)
type LogSink struct {
	log *zap.Logger
}

// NewLogSink 创建日志通道
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, msg Message) error {
	s.log.Info("notification", zap.String("kind", string(msg.Kind)), zap.Int64("chat_id", msg.ChatID), zap.String("text", msg.Text))
	return nil
}
