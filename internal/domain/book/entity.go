package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cover 封面类型
type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

// Valid 是否为合法封面类型
func (c Cover) Valid() bool {
	return c == CoverHard || c == CoverSoft
}

// Book 图书实体(聚合根)
// 设计说明:
// 1. Inventory是可借出的副本数量,不变式: Inventory >= 0
// 2. 借还引起的库存变化只能经过Ledger(单一写入口)
// 3. DailyFee使用decimal存储,避免浮点误差
type Book struct {
	ID        uint
	Title     string
	Author    string
	Cover     Cover
	Inventory int
	DailyFee  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBook 创建新图书(工厂方法)
// 业务规则:
// - 书名、作者不能为空
// - 封面必须是HARD或SOFT
// - 库存>=0,日租金>0
func NewBook(title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error) {
	b := &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Cover:     cover,
		Inventory: inventory,
		DailyFee:  dailyFee,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

// IsAvailable 是否还有可借副本
func (b *Book) IsAvailable() bool {
	return b.Inventory > 0
}

// UpdateInfo 更新基本信息(空值表示不修改)
func (b *Book) UpdateInfo(title, author string, cover Cover, dailyFee *decimal.Decimal) error {
	next := *b
	if title != "" {
		next.Title = strings.TrimSpace(title)
	}
	if author != "" {
		next.Author = strings.TrimSpace(author)
	}
	if cover != "" {
		next.Cover = cover
	}
	if dailyFee != nil {
		next.DailyFee = *dailyFee
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*b = next
	return nil
}

// Restock 馆员盘点,直接设置库存绝对值
func (b *Book) Restock(inventory int) error {
	if inventory < 0 {
		return ErrInvalidInventory
	}
	b.Inventory = inventory
	b.UpdatedAt = time.Now()
	return nil
}

func (b *Book) validate() error {
	if b.Title == "" || b.Author == "" {
		return ErrInvalidBookInfo
	}
	if !b.Cover.Valid() {
		return ErrInvalidCover
	}
	if b.Inventory < 0 {
		return ErrInvalidInventory
	}
	if !b.DailyFee.IsPositive() {
		return ErrInvalidDailyFee
	}
	return nil
}
