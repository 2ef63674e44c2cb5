package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"go-orders/internal/orders/ports"
	apperrors "go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

// RazorpayConfig configures the payment gateway client
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// orderCreator is the part of the Razorpay SDK the gateway calls
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway implements PaymentGateway on the Razorpay Orders API
type RazorpayGateway struct {
	cfg    RazorpayConfig
	orders orderCreator
	log    *logger.Logger
}

// NewRazorpayGateway creates a new gateway client
func NewRazorpayGateway(cfg RazorpayConfig, log *logger.Logger) *RazorpayGateway {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return newRazorpayGateway(cfg, client.Order, log)
}

func newRazorpayGateway(cfg RazorpayConfig, orders orderCreator, log *logger.Logger) *RazorpayGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RazorpayGateway{cfg: cfg, orders: orders, log: log}
}

type gatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createReply struct {
	body map[string]interface{}
	err  error
}

// Name implements PaymentGateway
func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

// KeyID implements PaymentGateway
func (g *RazorpayGateway) KeyID() string {
	return g.cfg.KeyID
}

// CreateIntent opens a gateway order for amount.
// The SDK call is not context-aware, so ctx and the configured timeout bound the wait for it.
func (g *RazorpayGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*ports.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	start := time.Now()
	done := make(chan createReply, 1)
	go func() {
		body, err := g.orders.Create(data, nil)
		done <- createReply{body: body, err: err}
	}()

	var reply createReply
	select {
	case <-ctx.Done():
		return nil, apperrors.NewGateway("payment gateway unreachable", ctx.Err())
	case reply = <-done:
	}

	g.log.WithContext(ctx).Debug("payment intent request completed",
		zap.Bool("ok", reply.err == nil),
		zap.Duration("latency", time.Since(start)),
	)

	if reply.err != nil {
		return nil, apperrors.NewGateway("payment gateway rejected intent", reply.err)
	}

	created, err := decodeGatewayOrder(reply.body)
	if err != nil {
		return nil, apperrors.NewGateway("failed to decode payment intent", err)
	}
	if created.ID == "" {
		return nil, apperrors.NewGateway("payment gateway returned no order id", nil)
	}
	if created.Amount != amount {
		return nil, apperrors.NewGateway("payment gateway echoed a different amount",
			fmt.Errorf("requested %d, got %d", amount, created.Amount))
	}

	return &ports.PaymentIntent{
		GatewayOrderRef: created.ID,
		Amount:          created.Amount,
		Currency:        created.Currency,
		Receipt:         created.Receipt,
	}, nil
}

// decodeGatewayOrder turns the SDK's generic map into a typed order
func decodeGatewayOrder(body map[string]interface{}) (gatewayOrder, error) {
	var order gatewayOrder
	raw, err := json.Marshal(body)
	if err != nil {
		return order, err
	}
	err = json.Unmarshal(raw, &order)
	return order, err
}
