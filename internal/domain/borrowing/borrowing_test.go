package borrowing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/user"
)

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReturn_OnlyOnce(t *testing.T) {
	b := New(1, 2, date("2025-01-10"), date("2025-01-20"))
	assert.False(t, b.IsReturned())

	require.NoError(t, b.Return(date("2025-01-15")))
	assert.True(t, b.IsReturned())
	assert.Equal(t, date("2025-01-15"), *b.ActualReturnDate)

	assert.ErrorIs(t, b.Return(date("2025-01-16")), ErrAlreadyReturned)
	assert.Equal(t, date("2025-01-15"), *b.ActualReturnDate, "第二次归还不能修改日期")
}

func TestIsOverdue(t *testing.T) {
	b := New(1, 2, date("2025-01-10"), date("2025-01-20"))

	assert.False(t, b.IsOverdue(date("2025-01-20")), "预计归还当天不算逾期")
	assert.True(t, b.IsOverdue(date("2025-01-21")))
	// 带时间的asOf按日期比较
	assert.False(t, b.IsOverdue(date("2025-01-20").Add(23*time.Hour)))

	require.NoError(t, b.Return(date("2025-02-01")))
	assert.False(t, b.IsOverdue(date("2025-03-01")), "已归还的记录不再逾期")
}

func TestPlannedDays(t *testing.T) {
	assert.Equal(t, 10, New(1, 1, date("2025-01-10"), date("2025-01-20")).PlannedDays())
	assert.Equal(t, 1, New(1, 1, date("2025-01-10"), date("2025-01-10")).PlannedDays())
	assert.Equal(t, 1, New(1, 1, date("2025-01-10"), date("2025-01-01")).PlannedDays())
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2025/01/10")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestScopeFor(t *testing.T) {
	other := uint(9)

	t.Run("非馆员忽略user_id", func(t *testing.T) {
		f := ScopeFor(user.Actor{UserID: 3}, Query{UserID: &other})
		require.NotNil(t, f.UserID)
		assert.Equal(t, uint(3), *f.UserID)
		assert.Nil(t, f.Active)
	})

	t.Run("馆员按user_id过滤", func(t *testing.T) {
		f := ScopeFor(user.Actor{UserID: 1, IsStaff: true}, Query{UserID: &other, IsActive: "false"})
		require.NotNil(t, f.UserID)
		assert.Equal(t, other, *f.UserID)
		require.NotNil(t, f.Active)
		assert.False(t, *f.Active)
	})

	t.Run("馆员不带user_id看全部", func(t *testing.T) {
		f := ScopeFor(user.Actor{UserID: 1, IsStaff: true}, Query{IsActive: "yes"})
		assert.Nil(t, f.UserID)
		assert.Nil(t, f.Active, "未知的is_active值不过滤")
	})
}

func TestFilterMatch(t *testing.T) {
	open := New(1, 3, date("2025-01-10"), date("2025-01-20"))
	closed := New(1, 3, date("2025-01-10"), date("2025-01-20"))
	require.NoError(t, closed.Return(date("2025-01-12")))

	uid := uint(3)
	active := true
	inactive := false

	assert.True(t, Filter{UserID: &uid, Active: &active}.Match(open))
	assert.False(t, Filter{UserID: &uid, Active: &active}.Match(closed))
	assert.True(t, Filter{Active: &inactive}.Match(closed))

	another := uint(4)
	assert.False(t, Filter{UserID: &another}.Match(open))
}
