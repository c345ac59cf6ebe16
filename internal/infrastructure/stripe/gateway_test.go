package stripe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type fakeSessions struct {
	params  *stripego.CheckoutSessionParams
	expired []string
	err     error
	calls   int
}

func (f *fakeSessions) New(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripego.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

func (f *fakeSessions) Expire(id string, _ *stripego.CheckoutSessionExpireParams) (*stripego.CheckoutSession, error) {
	f.expired = append(f.expired, id)
	return &stripego.CheckoutSession{ID: id}, nil
}

func testConfig() config.StripeConfig {
	return config.StripeConfig{
		Currency:     "USD",
		SuccessURL:   "http://localhost/success",
		CancelURL:    "http://localhost/cancel",
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	}
}

func TestCreateSession_Params(t *testing.T) {
	fake := &fakeSessions{}
	g := newGateway(fake, testConfig(), zap.NewNop())

	s, err := g.CreateSession(context.Background(), payment.CheckoutItem{
		PaymentID: 42,
		Name:      "Payment for Dune",
		Amount:    decimal.RequireFromString("12.345"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", s.URL)

	p := fake.params
	require.Len(t, p.LineItems, 1)
	item := p.LineItems[0]
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, int64(1235), *item.PriceData.UnitAmount)
	assert.Equal(t, "Payment for Dune", *item.PriceData.ProductData.Name)
	assert.Equal(t, int64(1), *item.Quantity)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, "42", p.Metadata["payment_id"])
	assert.Equal(t, "http://localhost/success", *p.SuccessURL)
}

func TestCreateSession_StripeErrorMessage(t *testing.T) {
	fake := &fakeSessions{err: &stripego.Error{Type: stripego.ErrorTypeInvalidRequest, Msg: "Invalid currency"}}
	g := newGateway(fake, testConfig(), zap.NewNop())

	_, err := g.CreateSession(context.Background(), payment.CheckoutItem{PaymentID: 1, Name: "x", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeExternalService, appErr.Code)
	assert.Equal(t, "Invalid currency", appErr.Message)
}

func TestCreateSession_BreakerOpens(t *testing.T) {
	fake := &fakeSessions{err: errors.New("connection refused")}
	g := newGateway(fake, testConfig(), zap.NewNop())
	item := payment.CheckoutItem{PaymentID: 1, Name: "x", Amount: decimal.NewFromInt(1)}

	for i := 0; i < 2; i++ {
		_, err := g.CreateSession(context.Background(), item)
		require.Error(t, err)
	}
	assert.Equal(t, 2, fake.calls)

	// 熔断后不再调用Stripe
	_, err := g.CreateSession(context.Background(), item)
	require.Error(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, "支付服务暂不可用，请稍后重试", apperrors.GetAppError(err).Message)
}

func TestCreateSession_InvalidRequestDoesNotTrip(t *testing.T) {
	fake := &fakeSessions{err: &stripego.Error{Type: stripego.ErrorTypeInvalidRequest, Msg: "bad"}}
	g := newGateway(fake, testConfig(), zap.NewNop())
	item := payment.CheckoutItem{PaymentID: 1, Name: "x", Amount: decimal.NewFromInt(1)}

	for i := 0; i < 4; i++ {
		_, _ = g.CreateSession(context.Background(), item)
	}
	assert.Equal(t, 4, fake.calls)
}

func TestExpireSession(t *testing.T) {
	fake := &fakeSessions{}
	g := newGateway(fake, testConfig(), zap.NewNop())

	require.NoError(t, g.ExpireSession(context.Background(), "cs_test_1"))
	assert.Equal(t, []string{"cs_test_1"}, fake.expired)
}
