package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

type bookRepository struct {
	s *Store
}

// NewBookRepository 内存版图书仓储
func NewBookRepository(s *Store) book.Repository {
	return &bookRepository{s: s}
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	defer r.s.lock(ctx)()
	b.ID = r.s.nextID()
	r.s.books[b.ID] = *b
	return nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*book.Book, error) {
	defer r.s.lock(ctx)()
	out := make(map[uint]*book.Book, len(ids))
	for _, id := range ids {
		if b, ok := r.s.books[id]; ok {
			out[id] = &b
		} else if b, ok := r.s.deleted[id]; ok {
			out[id] = &b
		}
	}
	return out, nil
}

func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.books[b.ID]; !ok {
		return book.ErrBookNotFound
	}
	b.UpdatedAt = time.Now()
	r.s.books[b.ID] = *b
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	delete(r.s.books, id)
	r.s.deleted[id] = b
	return nil
}

func (r *bookRepository) List(ctx context.Context, filter book.ListFilter) ([]*book.Book, error) {
	defer r.s.lock(ctx)()
	var out []*book.Book
	for _, b := range r.s.books {
		b := b
		if filter.Title != "" && b.Title != filter.Title {
			continue
		}
		if filter.Author != "" && b.Author != filter.Author {
			continue
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *bookRepository) UpdateInventory(ctx context.Context, id uint, delta int) error {
	defer r.s.lock(ctx)()
	b, ok := r.s.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if b.Inventory+delta < 0 {
		return book.ErrBookUnavailable
	}
	b.Inventory += delta
	b.UpdatedAt = time.Now()
	r.s.books[id] = b
	return nil
}
