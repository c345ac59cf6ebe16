package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/payment"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := toPaymentModel(p)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建支付记录失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	var model PaymentModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付记录失败")
	}
	return toPaymentEntity(&model), nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	result := conn(ctx, r.db).Model(&PaymentModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":       string(p.Status),
		"type_field":   string(p.Type),
		"session_url":  p.SessionURL,
		"session_id":   p.SessionID,
		"money_to_pay": p.MoneyToPay,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新支付记录失败")
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&PaymentModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除支付记录失败")
	}
	if result.RowsAffected == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

// List 借阅人过滤通过JOIN borrowings实现
func (r *paymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	query := conn(ctx, r.db).Model(&PaymentModel{})
	if filter.OwnerID != nil {
		query = query.
			Joins("JOIN borrowings ON borrowings.id = payments.borrowing_id").
			Where("borrowings.user_id = ?", *filter.OwnerID)
	}
	if filter.Type != "" {
		query = query.Where("payments.type_field = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("payments.status = ?", string(filter.Status))
	}

	var models []PaymentModel
	if err := query.Order("payments.id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询支付列表失败")
	}
	out := make([]*payment.Payment, len(models))
	for i := range models {
		out[i] = toPaymentEntity(&models[i])
	}
	return out, nil
}

func (r *paymentRepository) ExistsPaid(ctx context.Context, borrowingID uint, typ payment.Type) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&PaymentModel{}).
		Where("borrowing_id = ? AND type_field = ? AND status = ?", borrowingID, string(typ), string(payment.StatusPaid)).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询支付状态失败")
	}
	return count > 0, nil
}

func (r *paymentRepository) FindLatestPending(ctx context.Context, borrowingID uint) (*payment.Payment, error) {
	var model PaymentModel
	err := conn(ctx, r.db).
		Where("borrowing_id = ? AND status = ?", borrowingID, string(payment.StatusPending)).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询待支付记录失败")
	}
	return toPaymentEntity(&model), nil
}

func toPaymentModel(p *payment.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		Status:      string(p.Status),
		Type:        string(p.Type),
		BorrowingID: p.BorrowingID,
		SessionURL:  p.SessionURL,
		SessionID:   p.SessionID,
		MoneyToPay:  p.MoneyToPay,
	}
}

func toPaymentEntity(m *PaymentModel) *payment.Payment {
	return &payment.Payment{
		ID:          m.ID,
		Status:      payment.Status(m.Status),
		Type:        payment.Type(m.Type),
		BorrowingID: m.BorrowingID,
		SessionURL:  m.SessionURL,
		SessionID:   m.SessionID,
		MoneyToPay:  m.MoneyToPay,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
