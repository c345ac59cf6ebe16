package book

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

func newUseCases() (*PublishBookUseCase, *ListBooksUseCase, *UpdateBookUseCase, book.Repository) {
	store := memory.NewStore()
	repo := memory.NewBookRepository(store)
	return NewPublishBookUseCase(repo), NewListBooksUseCase(repo), NewUpdateBookUseCase(store, repo), repo
}

func TestPublishAndList(t *testing.T) {
	publish, list, _, _ := newUseCases()
	ctx := context.Background()

	_, err := publish.Execute(ctx, PublishBookRequest{Title: "Dune", Author: "Herbert", Cover: "SOFT", Inventory: 2, DailyFee: decimal.RequireFromString("0.50")})
	require.NoError(t, err)
	_, err = publish.Execute(ctx, PublishBookRequest{Title: "Emma", Author: "Austen", Cover: "HARD", Inventory: 1, DailyFee: decimal.NewFromInt(1)})
	require.NoError(t, err)

	all, err := list.Execute(ctx, ListBooksRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := list.Execute(ctx, ListBooksRequest{Author: "Austen"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Emma", filtered[0].Title)
	assert.Equal(t, "HARD", filtered[0].Cover)
}

func TestPublish_Validation(t *testing.T) {
	publish, _, _, _ := newUseCases()
	ctx := context.Background()

	tests := []struct {
		name string
		req  PublishBookRequest
		want error
	}{
		{"空书名", PublishBookRequest{Author: "a", Cover: "HARD", Inventory: 1, DailyFee: decimal.NewFromInt(1)}, book.ErrInvalidBookInfo},
		{"非法封面", PublishBookRequest{Title: "t", Author: "a", Cover: "PAPER", Inventory: 1, DailyFee: decimal.NewFromInt(1)}, book.ErrInvalidCover},
		{"负库存", PublishBookRequest{Title: "t", Author: "a", Cover: "HARD", Inventory: -1, DailyFee: decimal.NewFromInt(1)}, book.ErrInvalidInventory},
		{"租金为0", PublishBookRequest{Title: "t", Author: "a", Cover: "HARD", Inventory: 1, DailyFee: decimal.Zero}, book.ErrInvalidDailyFee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := publish.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	publish, list, update, repo := newUseCases()
	ctx := context.Background()

	created, err := publish.Execute(ctx, PublishBookRequest{Title: "Dune", Author: "Herbert", Cover: "SOFT", Inventory: 2, DailyFee: decimal.NewFromInt(1)})
	require.NoError(t, err)

	inv := 5
	fee := decimal.RequireFromString("2.25")
	updated, err := update.Execute(ctx, UpdateBookRequest{ID: created.ID, Title: "Dune Messiah", Inventory: &inv, DailyFee: &fee})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "Herbert", updated.Author)
	assert.Equal(t, 5, updated.Inventory)
	assert.True(t, fee.Equal(updated.DailyFee))

	neg := -1
	_, err = update.Execute(ctx, UpdateBookRequest{ID: created.ID, Inventory: &neg})
	assert.ErrorIs(t, err, book.ErrInvalidInventory)

	got, err := list.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Inventory, "校验失败不应修改")

	require.NoError(t, update.Delete(ctx, created.ID))
	_, err = list.Get(ctx, created.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	// 软删除后批量查询仍能拿到书名
	byID, err := repo.FindByIDs(ctx, []uint{created.ID})
	require.NoError(t, err)
	require.Contains(t, byID, created.ID)
	assert.Equal(t, "Dune Messiah", byID[created.ID].Title)

	_, err = update.Execute(ctx, UpdateBookRequest{ID: 404, Title: "x"})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}
