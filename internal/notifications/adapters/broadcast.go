package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"go-orders/internal/notifications"
	"go-orders/pkg/logger"
	"go-orders/pkg/rabbitmq"
)

// RabbitMQBroadcaster publishes room events to a topic exchange.
// Routing key is "<room>.<event>" so dashboards can bind per room or per event.
type RabbitMQBroadcaster struct {
	publisher *rabbitmq.Publisher
	log       *logger.Logger
}

// NewRabbitMQBroadcaster creates a broadcaster on top of a RabbitMQ publisher
func NewRabbitMQBroadcaster(publisher *rabbitmq.Publisher, log *logger.Logger) *RabbitMQBroadcaster {
	return &RabbitMQBroadcaster{
		publisher: publisher,
		log:       log,
	}
}

// Broadcast implements notifications.Broadcaster
func (b *RabbitMQBroadcaster) Broadcast(ctx context.Context, room, event string, payload notifications.Payload) error {
	return b.publisher.Publish(ctx, room+"."+event, payload)
}

// NATSBroadcaster publishes room events on subject "rooms.<room>.<event>"
type NATSBroadcaster struct {
	conn *nats.Conn
	log  *logger.Logger
}

// NewNATSBroadcaster connects to NATS at url
func NewNATSBroadcaster(url string, log *logger.Logger) (*NATSBroadcaster, error) {
	conn, err := nats.Connect(url,
		nats.Name("orders-notifications"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSBroadcaster{conn: conn, log: log}, nil
}

// Broadcast implements notifications.Broadcaster
func (b *NATSBroadcaster) Broadcast(ctx context.Context, room, event string, payload notifications.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	subject := "rooms." + room + "." + event
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return b.conn.FlushWithContext(ctx)
}

// Close drains the NATS connection
func (b *NATSBroadcaster) Close() error {
	return b.conn.Drain()
}
