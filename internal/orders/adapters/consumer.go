package adapters

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/events"
	"go-orders/pkg/logger"
	"go-orders/pkg/rabbitmq"
)

// InboundEventHandler turns catalog and fulfillment events into notifications.
// It only reads orders; it never changes them.
type InboundEventHandler struct {
	repo     ports.OrderRepository
	notifier ports.Notifier
	log      *logger.Logger
}

// NewInboundEventHandler creates a new inbound event handler
func NewInboundEventHandler(repo ports.OrderRepository, notifier ports.Notifier, log *logger.Logger) *InboundEventHandler {
	return &InboundEventHandler{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// HandleLowStock handles a product.low_stock event.
// Undecodable bodies are logged and acknowledged so they do not loop.
func (h *InboundEventHandler) HandleLowStock(ctx context.Context, body []byte) error {
	var event events.LowStockEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.WithContext(ctx).Error("failed to unmarshal LowStockEvent", zap.Error(err))
		return nil
	}

	h.log.WithContext(ctx).Info("received LowStock event",
		zap.String("product_ref", event.Payload.ProductRef),
		zap.Int("stock", event.Payload.Stock),
	)

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	h.notifier.Notify(ctx, notifications.LowStock(event.Payload.ProductRef, event.Payload.Name, event.Payload.Stock, at))
	return nil
}

// HandleOrderShipped handles an order.shipped event
func (h *InboundEventHandler) HandleOrderShipped(ctx context.Context, body []byte) error {
	var event events.OrderShippedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.WithContext(ctx).Error("failed to unmarshal OrderShippedEvent", zap.Error(err))
		return nil
	}

	order, err := h.repo.GetByID(ctx, event.Payload.OrderID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			h.log.WithContext(ctx).Warn("shipped event for unknown order",
				zap.String("order_id", event.Payload.OrderID),
			)
			return nil
		}
		// transient store failure, let the broker redeliver
		return err
	}

	at := event.Payload.ShippedAt
	if at.IsZero() {
		at = time.Now()
	}

	h.log.WithContext(ctx).Info("received OrderShipped event",
		zap.String("order_id", order.ID),
		zap.String("tracking_number", event.Payload.TrackingNumber),
	)

	h.notifier.Notify(ctx, notifications.Shipped(order.ID, order.Customer.Phone, event.Payload.TrackingNumber, at))
	return nil
}

// InboundConsumer consumes catalog and fulfillment events
type InboundConsumer struct {
	lowStock *rabbitmq.Consumer
	shipped  *rabbitmq.Consumer
	handler  *InboundEventHandler
}

// NewInboundConsumer declares the queues and bindings for inbound events
func NewInboundConsumer(conn *rabbitmq.Connection, handler *InboundEventHandler, log *logger.Logger) (*InboundConsumer, error) {
	lowStock, err := rabbitmq.NewConsumer(
		conn,
		"orders.low-stock",     // queue name
		events.ExchangeCatalog, // exchange
		[]string{events.RoutingKeyLowStock},
		log,
	)
	if err != nil {
		return nil, err
	}

	shipped, err := rabbitmq.NewConsumer(
		conn,
		"orders.order-shipped",     // queue name
		events.ExchangeFulfillment, // exchange
		[]string{events.RoutingKeyOrderShipped},
		log,
	)
	if err != nil {
		return nil, err
	}

	return &InboundConsumer{
		lowStock: lowStock,
		shipped:  shipped,
		handler:  handler,
	}, nil
}

// Start starts consuming inbound events
func (c *InboundConsumer) Start(ctx context.Context) error {
	if err := c.lowStock.Consume(ctx, c.handler.HandleLowStock); err != nil {
		return err
	}
	return c.shipped.Consume(ctx, c.handler.HandleOrderShipped)
}
