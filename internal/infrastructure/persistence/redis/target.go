package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

const (
	notifyTargetKey = "notification:target_chat"
	overdueLockKey  = "lock:overdue_sweep"
)

// TargetStore 通知目标会话（实现chatlink.TargetStore）
// api进程与bot进程共享，不依赖进程内变量
type TargetStore struct {
	client *redis.Client
}

// NewTargetStore 创建通知目标存储
func NewTargetStore(client *redis.Client) *TargetStore {
	return &TargetStore{client: client}
}

func (s *TargetStore) Get(ctx context.Context) (int64, bool, error) {
	v, err := s.client.Get(ctx, notifyTargetKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.Wrap(err, "读取通知目标失败")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, apperrors.Wrap(err, "通知目标格式错误")
	}
	return id, true, nil
}

func (s *TargetStore) Set(ctx context.Context, chatID int64) error {
	if err := s.client.Set(ctx, notifyTargetKey, strconv.FormatInt(chatID, 10), 0).Err(); err != nil {
		return apperrors.Wrap(err, "保存通知目标失败")
	}
	return nil
}

// SweepLock 逾期检查的分布式锁（SET NX PX）
// key为 lock:overdue_sweep:<周期>，同一周期只有一个实例拿到
type SweepLock struct {
	client *redis.Client
}

// NewSweepLock 创建逾期检查锁
func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{client: client}
}

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 获取period对应的锁，返回释放函数；本周期已被占用时ok=false
func (l *SweepLock) TryLock(ctx context.Context, period string, ttl time.Duration) (release func(), ok bool, err error) {
	key := overdueLockKey + ":" + period
	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, apperrors.Wrap(err, "获取逾期检查锁失败")
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}, true, nil
}
