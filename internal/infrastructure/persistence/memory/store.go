// Package memory 内存版仓储实现
//
// 所有仓储共享一个Store,Transaction持有Store的互斥锁直到fn返回,
// fn返回error时恢复进入事务前的快照,语义上等价于串行化事务。
// 仅供测试使用(用例、路由、机器人测试),进程装配只使用mysql实现。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/domain/chatlink"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
)

type txKey struct{}

// Store 内存数据集
type Store struct {
	mu sync.Mutex

	seq        uint
	users      map[uint]user.User
	books      map[uint]book.Book
	deleted    map[uint]book.Book
	borrowings map[uint]borrowing.Borrowing
	payments   map[uint]payment.Payment
	links      map[int64]chatlink.ChatLink
}

// NewStore 创建空数据集
func NewStore() *Store {
	return &Store{
		users:      map[uint]user.User{},
		books:      map[uint]book.Book{},
		deleted:    map[uint]book.Book{},
		borrowings: map[uint]borrowing.Borrowing{},
		payments:   map[uint]payment.Payment{},
		links:      map[int64]chatlink.ChatLink{},
	}
}

// Transaction 实现transaction.Manager
// 嵌套调用直接复用外层事务
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// lock 事务外的操作单独加锁,事务内已持有锁
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

type snapshot struct {
	seq        uint
	users      map[uint]user.User
	books      map[uint]book.Book
	deleted    map[uint]book.Book
	borrowings map[uint]borrowing.Borrowing
	payments   map[uint]payment.Payment
	links      map[int64]chatlink.ChatLink
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		seq:        s.seq,
		users:      cloneMap(s.users),
		books:      cloneMap(s.books),
		deleted:    cloneMap(s.deleted),
		borrowings: cloneMap(s.borrowings),
		payments:   cloneMap(s.payments),
		links:      cloneMap(s.links),
	}
}

func (s *Store) restore(snap snapshot) {
	s.seq = snap.seq
	s.users = snap.users
	s.books = snap.books
	s.deleted = snap.deleted
	s.borrowings = snap.borrowings
	s.payments = snap.payments
	s.links = snap.links
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
