// Package stripe 基于Stripe Checkout的支付网关
package stripe

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// sessionAPI Stripe Checkout Session接口（client.API.CheckoutSessions）
type sessionAPI interface {
	New(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
	Expire(id string, params *stripego.CheckoutSessionExpireParams) (*stripego.CheckoutSession, error)
}

// Gateway 实现payment.Gateway
// 所有调用经过熔断器，熔断期间直接返回外部服务错误
type Gateway struct {
	sessions   sessionAPI
	breaker    *circuitbreaker.CircuitBreaker
	currency   string
	successURL string
	cancelURL  string
	log        *zap.Logger
}

// NewGateway 创建Stripe网关
func NewGateway(cfg *config.Config, log *zap.Logger) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.Stripe.SecretKey, nil)
	return newGateway(sc.CheckoutSessions, cfg.Stripe, log)
}

func newGateway(sessions sessionAPI, cfg config.StripeConfig, log *zap.Logger) *Gateway {
	maxFailures := uint32(cfg.MaxFailures)
	if maxFailures == 0 {
		maxFailures = 5
	}
	resetTimeout := cfg.ResetTimeout
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	breaker := circuitbreaker.New("stripe", circuitbreaker.Config{
		Timeout: resetTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		// 参数错误不计入熔断
		IsSuccessful: func(err error) bool {
			var se *stripego.Error
			if errors.As(err, &se) && se.Type == stripego.ErrorTypeInvalidRequest {
				return true
			}
			return err == nil
		},
	}, log)

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Gateway{
		sessions:   sessions,
		breaker:    breaker,
		currency:   currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		log:        log,
	}
}

// CreateSession 创建一次性付款会话，金额按分计
func (g *Gateway) CreateSession(ctx context.Context, item payment.CheckoutItem) (*payment.Session, error) {
	params := &stripego.CheckoutSessionParams{
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency: stripego.String(g.currency),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String(item.Name),
				},
				UnitAmount: stripego.Int64(item.Amount.Shift(2).Round(0).IntPart()),
			},
			Quantity: stripego.Int64(1),
		}},
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(g.successURL),
		CancelURL:  stripego.String(g.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("payment_id", strconv.FormatUint(uint64(item.PaymentID), 10))

	var s *stripego.CheckoutSession
	err := g.breaker.Execute(func() error {
		var err error
		s, err = g.sessions.New(params)
		return err
	})
	if err != nil {
		g.log.Error("创建支付会话失败", zap.Uint("payment_id", item.PaymentID), zap.Error(err))
		return nil, externalError(err)
	}
	return &payment.Session{ID: s.ID, URL: s.URL}, nil
}

// ExpireSession 使会话失效
func (g *Gateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripego.CheckoutSessionExpireParams{}
	params.Context = ctx

	err := g.breaker.Execute(func() error {
		_, err := g.sessions.Expire(sessionID, params)
		return err
	})
	if err != nil {
		return externalError(err)
	}
	return nil
}

// externalError Stripe错误信息透传给调用方
func externalError(err error) error {
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return apperrors.External(err, "支付服务暂不可用，请稍后重试")
	}
	var se *stripego.Error
	if errors.As(err, &se) && se.Msg != "" {
		return apperrors.External(err, se.Msg)
	}
	return apperrors.External(err, err.Error())
}
