package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrBookUnavailable 没有可借副本(借书时的业务规则拒绝)
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "The book is currently unavailable.")

	// ErrInvalidInventory 库存不能为负数
	ErrInvalidInventory = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrInvalidDailyFee 日租金必须大于0
	ErrInvalidDailyFee = apperrors.New(apperrors.ErrCodeInvalidParams, "日租金必须大于0")

	// ErrInvalidCover 封面类型只能是HARD或SOFT
	ErrInvalidCover = apperrors.New(apperrors.ErrCodeInvalidParams, "封面类型只能是HARD或SOFT")

	// ErrInvalidBookInfo 书名和作者不能为空
	ErrInvalidBookInfo = apperrors.New(apperrors.ErrCodeInvalidParams, "书名和作者不能为空")
)
