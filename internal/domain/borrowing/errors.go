package borrowing

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrBorrowingNotFound 借阅记录不存在
	ErrBorrowingNotFound = apperrors.New(apperrors.ErrCodeBorrowingNotFound, "Borrowing not found.")

	// ErrAlreadyReturned 重复归还(拒绝,而不是幂等成功)
	ErrAlreadyReturned = apperrors.New(apperrors.ErrCodeAlreadyReturned, "This borrowing has already been returned.")

	// ErrUnpaidFines 存在未支付罚款时禁止借书(开关控制)
	ErrUnpaidFines = apperrors.New(apperrors.ErrCodeUnpaidFines, "You have unpaid fines.")

	// ErrInvalidDate 日期格式错误
	ErrInvalidDate = apperrors.New(apperrors.ErrCodeInvalidParams, "日期格式应为YYYY-MM-DD")

	// ErrReturnDateRequired 归还日期由客户端提供时必填
	ErrReturnDateRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "actual_return_date不能为空")
)
