package payment

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "Payment not found.")
	ErrAlreadyPaid     = apperrors.New(apperrors.ErrCodePaymentAlreadyPaid, "This borrowing has already been paid.")
	ErrInvalidStatus   = apperrors.New(apperrors.ErrCodeInvalidParams, "status只能是PENDING或PAID")
	ErrInvalidType     = apperrors.New(apperrors.ErrCodeInvalidParams, "type只能是PAYMENT或FINE")
	ErrInvalidAmount   = apperrors.New(apperrors.ErrCodeInvalidParams, "money_to_pay必须大于0")
)
