package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
)

// ListBooksUseCase 图书目录查询(公开接口)
type ListBooksUseCase struct {
	bookRepo book.Repository
}

// NewListBooksUseCase 创建目录查询用例
func NewListBooksUseCase(bookRepo book.Repository) *ListBooksUseCase {
	return &ListBooksUseCase{bookRepo: bookRepo}
}

// ListBooksRequest 等值过滤,空值表示不过滤
type ListBooksRequest struct {
	Title  string
	Author string
}

// Execute 查询列表
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) ([]*BookView, error) {
	books, err := uc.bookRepo.List(ctx, book.ListFilter{Title: req.Title, Author: req.Author})
	if err != nil {
		return nil, err
	}

	views := make([]*BookView, 0, len(books))
	for _, b := range books {
		views = append(views, NewBookView(b))
	}
	return views, nil
}

// Get 查询单本图书
func (uc *ListBooksUseCase) Get(ctx context.Context, id uint) (*BookView, error) {
	b, err := uc.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewBookView(b), nil
}
