package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 由domain层定义接口,infrastructure层实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByIDs 批量查询(包含已删除图书,用于借阅记录展示)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*Book, error)

	// Update 更新图书信息(包括馆员盘点后的库存)
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书(软删除)
	Delete(ctx context.Context, id uint) error

	// List 按等值条件查询图书列表
	List(ctx context.Context, filter ListFilter) ([]*Book, error)

	// LockByID 悲观锁查询图书(SELECT ... FOR UPDATE)
	// 必须在事务内调用
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateInventory 原子更新库存
	// delta为正表示归还,为负表示借出
	// 更新后库存为负时不修改并返回ErrBookUnavailable
	UpdateInventory(ctx context.Context, id uint, delta int) error
}

// ListFilter 列表查询条件(等值匹配,空值表示不过滤)
type ListFilter struct {
	Title  string
	Author string
}
