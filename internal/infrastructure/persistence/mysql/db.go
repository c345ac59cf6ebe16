package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 2. 开发环境开启SQL日志
// 3. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// 生产环境应使用版本化的迁移脚本
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构（只创建表、添加字段）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&BorrowingModel{},
		&PaymentModel{},
		&ChatLinkModel{},
	)
}

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	IsStaff   bool           `gorm:"not null;default:false;comment:是否馆员"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// inventory通过条件UPDATE保证不为负
type BookModel struct {
	ID        uint            `gorm:"primaryKey"`
	Title     string          `gorm:"index:idx_title;size:200;not null;comment:书名"`
	Author    string          `gorm:"index:idx_author;size:100;not null;comment:作者"`
	Cover     string          `gorm:"size:10;not null;comment:封面(HARD/SOFT)"`
	Inventory int             `gorm:"not null;default:0;comment:可借副本数"`
	DailyFee  decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:日租金"`
	CreatedAt time.Time       `gorm:"comment:创建时间"`
	UpdatedAt time.Time       `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt  `gorm:"index;comment:删除时间(软删除)"`
}

func (BookModel) TableName() string {
	return "books"
}

// BorrowingModel GORM借阅模型
// actual_return_date为NULL表示未归还
type BorrowingModel struct {
	ID                 uint       `gorm:"primaryKey"`
	BorrowDate         time.Time  `gorm:"type:date;not null;comment:借出日期"`
	ExpectedReturnDate time.Time  `gorm:"type:date;not null;index:idx_overdue,priority:2;comment:预计归还日期"`
	ActualReturnDate   *time.Time `gorm:"type:date;index:idx_overdue,priority:1;comment:实际归还日期"`
	BookID             uint       `gorm:"index;not null;comment:图书ID"`
	UserID             uint       `gorm:"index;not null;comment:借阅人ID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (BorrowingModel) TableName() string {
	return "borrowings"
}

// PaymentModel GORM支付模型
type PaymentModel struct {
	ID          uint            `gorm:"primaryKey"`
	Status      string          `gorm:"size:20;not null;default:PENDING;index:idx_borrowing_status,priority:2;comment:PENDING/PAID"`
	Type        string          `gorm:"column:type_field;size:20;not null;comment:PAYMENT/FINE"`
	BorrowingID uint            `gorm:"not null;index:idx_borrowing_status,priority:1;comment:借阅ID"`
	SessionURL  string          `gorm:"size:1000;comment:支付会话URL"`
	SessionID   string          `gorm:"size:255;comment:支付会话ID"`
	MoneyToPay  decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:金额"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

// ChatLinkModel 聊天账号绑定
type ChatLinkModel struct {
	ID        uint  `gorm:"primaryKey"`
	ChatID    int64 `gorm:"uniqueIndex;not null;comment:聊天账号ID"`
	UserID    uint  `gorm:"index;not null;comment:用户ID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ChatLinkModel) TableName() string {
	return "chat_links"
}
