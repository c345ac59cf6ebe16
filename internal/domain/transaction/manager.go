package transaction

import (
	"context"
)

// Manager 事务边界
// fn内通过ctx执行的仓储操作处于同一事务,fn返回error时整体回滚
// 实现: mysql.TxManager(生产), memory.Store(测试)
type Manager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
