package borrowing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Locker 跨实例互斥(redis SETNX),key相同的锁在ttl内只能被获取一次
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// OverdueScheduler 周期性执行逾期检查
// 周期按interval对齐到UTC时间轴,锁以周期为key:
// 各实例ticker起点不同,但同一周期只有先拿到锁的实例执行
type OverdueScheduler struct {
	check    *CheckOverdueUseCase
	locker   Locker
	interval time.Duration
	log      *zap.Logger
}

// NewOverdueScheduler 创建调度器;locker为nil时不加锁(单实例)
func NewOverdueScheduler(check *CheckOverdueUseCase, locker Locker, interval time.Duration, log *zap.Logger) *OverdueScheduler {
	return &OverdueScheduler{
		check:    check,
		locker:   locker,
		interval: interval,
		log:      log.With(zap.String("job", "overdue_sweep")),
	}
}

// Run 阻塞运行直到ctx取消
func (s *OverdueScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("逾期检查调度已启动", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("逾期检查调度已停止")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Period 当前时刻所属的检查周期
func (s *OverdueScheduler) Period() time.Time {
	return s.check.now().UTC().Truncate(s.interval)
}

// RunOnce 获取本周期的锁后执行一次检查,返回是否实际执行
// 成功后不释放锁,由TTL过期;失败时释放,允许其他实例在本周期内重试
func (s *OverdueScheduler) RunOnce(ctx context.Context) bool {
	release := func() {}
	if s.locker != nil {
		period := s.Period()
		unlock, ok, err := s.locker.TryLock(ctx, period.Format(time.RFC3339), s.interval)
		if err != nil {
			s.log.Error("获取逾期检查锁失败", zap.Error(err))
			return false
		}
		if !ok {
			s.log.Debug("本周期已由其他实例执行", zap.Time("period", period))
			return false
		}
		release = unlock
	}

	if _, err := s.check.Execute(ctx); err != nil {
		release()
		s.log.Error("逾期检查失败", zap.Error(err))
		return false
	}
	return true
}
