package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 记录步骤执行顺序
type recorder struct {
	calls []string
}

func (r *recorder) step(name string, err error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		r.calls = append(r.calls, name)
		return err
	}
}

func TestSaga_Execute_Success(t *testing.T) {
	rec := &recorder{}
	s := New("checkout", time.Second, nil).
		AddStep("create_session", rec.step("create_session", nil), rec.step("expire_session", nil)).
		AddStep("save_payment", rec.step("save_payment", nil), nil)

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"create_session", "save_payment"}, rec.calls)
}

func TestSaga_Execute_CompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	errSave := errors.New("db down")

	s := New("checkout", time.Second, nil).
		AddStep("a", rec.step("a", nil), rec.step("undo_a", nil)).
		AddStep("b", rec.step("b", nil), rec.step("undo_b", nil)).
		AddStep("c", rec.step("c", errSave), rec.step("undo_c", nil))

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errSave)
	// 失败的步骤本身不补偿
	assert.Equal(t, []string{"a", "b", "c", "undo_b", "undo_a"}, rec.calls)
}

func TestSaga_Execute_ContinuesAfterCompensationFailure(t *testing.T) {
	rec := &recorder{}

	s := New("checkout", 0, nil).
		AddStep("a", rec.step("a", nil), rec.step("undo_a", nil)).
		AddStep("b", rec.step("b", nil), rec.step("undo_b", errors.New("boom"))).
		AddStep("c", rec.step("c", errors.New("fail")), nil)

	require.Error(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"a", "b", "c", "undo_b", "undo_a"}, rec.calls)
}

func TestSaga_Execute_Timeout(t *testing.T) {
	rec := &recorder{}
	var compensateCtxErr error

	s := New("slow", 20*time.Millisecond, nil).
		AddStep("slow", func(ctx context.Context) error {
			time.Sleep(40 * time.Millisecond)
			return nil
		}, func(ctx context.Context) error {
			compensateCtxErr = ctx.Err()
			rec.calls = append(rec.calls, "undo_slow")
			return nil
		}).
		AddStep("never", rec.step("never", nil), nil)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"undo_slow"}, rec.calls)
	// 补偿在超时后仍可用
	assert.NoError(t, compensateCtxErr)
}

func TestSaga_Execute_NilActionCountsAsDone(t *testing.T) {
	rec := &recorder{}

	s := New("nil-action", 0, nil).
		AddStep("noop", nil, rec.step("undo_noop", nil)).
		AddStep("fail", rec.step("fail", errors.New("x")), nil)

	require.Error(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"fail", "undo_noop"}, rec.calls)
}
