// Package saga 跨外部服务与本地数据库的补偿事务
//
// 每个步骤由正向操作和补偿操作组成；某一步失败时按逆序补偿已完成的步骤。
// 典型用法是支付结算：先在支付网关创建会话，再写入本地支付记录，
// 本地写入失败时让网关会话过期。
package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/metrics"
)

// Step Saga中的一个步骤
// Compensate只依赖自己Action的结果，可以为nil
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 一次补偿事务（非并发安全，每次调用新建）
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	log      *zap.Logger
}

// New 创建Saga；timeout<=0表示不限制整体耗时
func New(name string, timeout time.Duration, log *zap.Logger) *Saga {
	if log == nil {
		log = zap.NewNop()
	}
	return &Saga{
		name:    name,
		timeout: timeout,
		log:     log.With(zap.String("saga", name)),
	}
}

// AddStep 追加步骤，按添加顺序执行、逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Execute 依次执行所有步骤
// 返回的错误包装了失败步骤的原始错误，可以用errors.Is/As判断
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			s.compensate(ctx)
			metrics.IncCounterVec(metrics.SagaExecutionsTotal, "timeout")
			return fmt.Errorf("saga[%s]超时: %w", s.name, err)
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.log.Warn("saga步骤失败，开始补偿",
					zap.Int("step", i),
					zap.String("step_name", step.Name),
					zap.Error(err),
				)
				s.compensate(ctx)
				metrics.IncCounterVec(metrics.SagaExecutionsTotal, "compensated")
				return fmt.Errorf("步骤[%s]执行失败: %w", step.Name, err)
			}
		}
		s.executed = append(s.executed, step)
	}

	metrics.IncCounterVec(metrics.SagaExecutionsTotal, "success")
	s.log.Debug("saga执行完成", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// compensate 逆序补偿；某个补偿失败时记录日志并继续
// 使用脱离取消信号的ctx，超时后补偿仍能执行
func (s *Saga) compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		metrics.IncCounter(metrics.SagaCompensationsTotal)
		if err := step.Compensate(ctx); err != nil {
			s.log.Error("补偿失败，需要人工处理", zap.String("step_name", step.Name), zap.Error(err))
		}
	}
	s.executed = nil
}
