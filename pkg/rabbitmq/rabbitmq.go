package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"go-orders/pkg/logger"
)

// Connection manages a RabbitMQ connection with reconnect capability
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	log        *logger.Logger
	mu         sync.RWMutex
	closeChan  chan struct{}
	closeOnce  sync.Once
	reconnects int
}

// NewConnection creates a new RabbitMQ connection
func NewConnection(url string, log *logger.Logger) (*Connection, error) {
	c := &Connection{
		url:       url,
		log:       log,
		closeChan: make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	go c.watch()

	return c, nil
}

// watch re-dials after the broker drops the connection.
// Consumers resubscribe on their own once the new channel is up.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
		c.mu.RUnlock()

		select {
		case <-c.closeChan:
			return
		case amqpErr := <-closed:
			select {
			case <-c.closeChan:
				return
			default:
			}
			c.log.Warn("RabbitMQ connection lost, reconnecting", zap.Any("reason", amqpErr))
		}

		for attempt := 1; ; attempt++ {
			select {
			case <-c.closeChan:
				return
			case <-time.After(backoff(attempt)):
			}

			if err := c.connect(); err != nil {
				c.log.Warn("RabbitMQ reconnect failed", zap.Error(err), zap.Int("attempt", attempt))
				continue
			}

			c.mu.Lock()
			c.reconnects++
			c.mu.Unlock()
			break
		}
	}
}

func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * time.Second
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch

	c.log.Info("connected to RabbitMQ")
	return nil
}

// Reconnects reports how many times the connection was re-established
func (c *Connection) Reconnects() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnects
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection. Calls after the first are no-ops.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeChan)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.channel != nil {
			c.channel.Close()
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Publisher publishes messages to RabbitMQ
type Publisher struct {
	conn     *Connection
	exchange string
	log      *logger.Logger
}

// NewPublisher creates a new publisher
func NewPublisher(conn *Connection, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := declareExchange(conn.Channel(), exchange); err != nil {
		return nil, err
	}

	return &Publisher{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

// declareExchange makes sure a durable topic exchange exists
func declareExchange(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

// Publish publishes a message
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	traceID := logger.GetTraceID(ctx)

	err = p.conn.Channel().PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
			CorrelationId: traceID,
			Headers: amqp.Table{
				"x-trace-id": traceID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.log.WithContext(ctx).Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.String("trace_id", traceID),
	)

	return nil
}

// Consumer consumes messages from RabbitMQ
type Consumer struct {
	conn        *Connection
	queue       string
	exchange    string
	routingKeys []string
	log         *logger.Logger
}

// NewConsumer creates a new consumer
func NewConsumer(conn *Connection, queue, exchange string, routingKeys []string, log *logger.Logger) (*Consumer, error) {
	ch := conn.Channel()

	// The producing service may not have started yet
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}

	// Declare queue
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": exchange + ".dlx",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to exchange for each routing key
	for _, key := range routingKeys {
		err = ch.QueueBind(queue, key, exchange, false, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	return &Consumer{
		conn:        conn,
		queue:       queue,
		exchange:    exchange,
		routingKeys: routingKeys,
		log:         log,
	}, nil
}

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, body []byte) error

// Consume starts consuming messages. When the broker connection drops, the
// subscription is re-established once the Connection has reconnected.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.subscribe()
	if err != nil {
		return err
	}

	go func() {
		for {
			c.deliver(ctx, msgs, handler)
			if ctx.Err() != nil {
				return
			}

			c.log.Warn("consumer subscription lost", zap.String("queue", c.queue))
			msgs = c.resubscribe(ctx)
			if msgs == nil {
				return
			}
		}
	}()

	c.log.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Strings("routing_keys", c.routingKeys),
	)

	return nil
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	msgs, err := c.conn.Channel().Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return msgs, nil
}

// resubscribe retries until a subscription succeeds or ctx ends; nil means ctx ended
func (c *Consumer) resubscribe(ctx context.Context) <-chan amqp.Delivery {
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff(attempt)):
		}

		msgs, err := c.subscribe()
		if err == nil {
			c.log.Info("consumer resubscribed", zap.String("queue", c.queue), zap.Int("attempt", attempt))
			return msgs
		}
		c.log.Debug("consumer resubscribe failed", zap.String("queue", c.queue), zap.Error(err))
	}
}

// deliver runs handler for each message until msgs closes or ctx ends.
// A failed message is requeued once, then dead-lettered.
func (c *Consumer) deliver(ctx context.Context, msgs <-chan amqp.Delivery, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			traceID, _ := msg.Headers["x-trace-id"].(string)
			msgCtx := logger.WithTraceIDContext(ctx, traceID)

			c.log.WithContext(msgCtx).Debug("message received",
				zap.String("queue", c.queue),
				zap.String("routing_key", msg.RoutingKey),
			)

			if err := handler(msgCtx, msg.Body); err != nil {
				c.log.WithContext(msgCtx).Error("failed to handle message",
					zap.Error(err),
					zap.String("queue", c.queue),
					zap.Bool("redelivered", msg.Redelivered),
				)
				_ = msg.Nack(false, !msg.Redelivered)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}
