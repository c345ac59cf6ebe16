package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/borrowing"
)

type borrowingRepository struct {
	s *Store
}

// NewBorrowingRepository 内存版借阅仓储
func NewBorrowingRepository(s *Store) borrowing.Repository {
	return &borrowingRepository{s: s}
}

func (r *borrowingRepository) Create(ctx context.Context, b *borrowing.Borrowing) error {
	defer r.s.lock(ctx)()
	b.ID = r.s.nextID()
	r.s.borrowings[b.ID] = *b
	return nil
}

func (r *borrowingRepository) FindByID(ctx context.Context, id uint) (*borrowing.Borrowing, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.borrowings[id]
	if !ok {
		return nil, borrowing.ErrBorrowingNotFound
	}
	return &b, nil
}

func (r *borrowingRepository) MarkReturned(ctx context.Context, id uint, date time.Time) error {
	defer r.s.lock(ctx)()
	b, ok := r.s.borrowings[id]
	if !ok {
		return borrowing.ErrBorrowingNotFound
	}
	if err := b.Return(date); err != nil {
		return err
	}
	r.s.borrowings[id] = b
	return nil
}

func (r *borrowingRepository) List(ctx context.Context, filter borrowing.Filter) ([]*borrowing.Borrowing, error) {
	defer r.s.lock(ctx)()
	return r.collect(filter.Match), nil
}

func (r *borrowingRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*borrowing.Borrowing, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(b *borrowing.Borrowing) bool { return b.IsOverdue(asOf) }), nil
}

func (r *borrowingRepository) collect(keep func(*borrowing.Borrowing) bool) []*borrowing.Borrowing {
	var out []*borrowing.Borrowing
	for _, b := range r.s.borrowings {
		b := b
		if keep(&b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
