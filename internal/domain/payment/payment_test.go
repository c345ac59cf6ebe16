package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(1, TypeFine, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = New(1, "REFUND", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidType)

	p, err := New(1, TypeFine, decimal.RequireFromString("3.50"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.False(t, p.IsPaid())
}

func TestApply(t *testing.T) {
	p, err := New(1, TypePayment, decimal.NewFromInt(5))
	require.NoError(t, err)

	bad := Status("REFUNDED")
	assert.ErrorIs(t, p.Apply(Patch{Status: &bad}), ErrInvalidStatus)
	assert.Equal(t, StatusPending, p.Status)

	paid := StatusPaid
	require.NoError(t, p.Apply(Patch{Status: &paid}))
	assert.True(t, p.IsPaid())
}

func TestAmount(t *testing.T) {
	got := Amount(decimal.RequireFromString("0.75"), 10)
	assert.True(t, decimal.RequireFromString("7.50").Equal(got), got.String())
}
