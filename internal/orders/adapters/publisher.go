package adapters

import (
	"context"
	"time"

	"go-orders/internal/orders/domain"
	"go-orders/pkg/events"
	"go-orders/pkg/logger"
	"go-orders/pkg/rabbitmq"
)

// publishTimeout bounds a publish; callers often pass a detached context
const publishTimeout = 5 * time.Second

// RabbitMQPublisher implements EventPublisher using RabbitMQ
type RabbitMQPublisher struct {
	publisher *rabbitmq.Publisher
	log       *logger.Logger
}

// NewRabbitMQPublisher creates a new RabbitMQ event publisher
func NewRabbitMQPublisher(publisher *rabbitmq.Publisher, log *logger.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		publisher: publisher,
		log:       log,
	}
}

// PublishOrderCreated publishes an order created event
func (p *RabbitMQPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, events.RoutingKeyOrderCreated, order)
}

// PublishPaymentConfirmed publishes a payment confirmed event
func (p *RabbitMQPublisher) PublishPaymentConfirmed(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, events.RoutingKeyPaymentConfirmed, order)
}

// PublishPaymentFailed publishes a payment failed event
func (p *RabbitMQPublisher) PublishPaymentFailed(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, events.RoutingKeyPaymentFailed, order)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, order *domain.Order) error {
	traceID := logger.GetTraceID(ctx)

	event := events.NewOrderEvent(routingKey, toEventPayload(order), traceID)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.publisher.Publish(ctx, routingKey, event)
}

func toEventPayload(order *domain.Order) events.OrderPayload {
	return events.OrderPayload{
		ID:                    order.ID,
		PrincipalID:           order.Customer.PrincipalID,
		Total:                 order.Amounts.Total,
		Currency:              order.Amounts.Currency,
		PaymentStatus:         string(order.PaymentStatus),
		Status:                string(order.Status),
		GatewayOrderRef:       order.Payment.GatewayOrderRef,
		GatewayTransactionRef: order.Payment.GatewayTransactionRef,
		FailureReason:         order.FailureReason,
		OrderDate:             order.OrderDate,
		PaymentDate:           order.PaymentDate,
	}
}
