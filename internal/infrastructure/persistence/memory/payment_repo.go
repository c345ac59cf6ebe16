package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/payment"
)

type paymentRepository struct {
	s *Store
}

// NewPaymentRepository 内存版支付仓储
func NewPaymentRepository(s *Store) payment.Repository {
	return &paymentRepository{s: s}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	defer r.s.lock(ctx)()
	p.ID = r.s.nextID()
	r.s.payments[p.ID] = *p
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*payment.Payment, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.payments[p.ID]; !ok {
		return payment.ErrPaymentNotFound
	}
	p.UpdatedAt = time.Now()
	r.s.payments[p.ID] = *p
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.payments[id]; !ok {
		return payment.ErrPaymentNotFound
	}
	delete(r.s.payments, id)
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	defer r.s.lock(ctx)()
	var out []*payment.Payment
	for _, p := range r.s.payments {
		p := p
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.OwnerID != nil {
			b, ok := r.s.borrowings[p.BorrowingID]
			if !ok || b.UserID != *filter.OwnerID {
				continue
			}
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *paymentRepository) ExistsPaid(ctx context.Context, borrowingID uint, typ payment.Type) (bool, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.payments {
		if p.BorrowingID == borrowingID && p.Type == typ && p.Status == payment.StatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (r *paymentRepository) FindLatestPending(ctx context.Context, borrowingID uint) (*payment.Payment, error) {
	defer r.s.lock(ctx)()
	var latest *payment.Payment
	for _, p := range r.s.payments {
		p := p
		if p.BorrowingID != borrowingID || p.Status != payment.StatusPending {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = &p
		}
	}
	if latest == nil {
		return nil, payment.ErrPaymentNotFound
	}
	return latest, nil
}
