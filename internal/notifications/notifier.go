package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"go-orders/pkg/logger"
	"go-orders/pkg/metrics"
)

// Broadcaster publishes a real-time event to a named room of subscribers
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload Payload) error
}

// Messenger sends a free-text message to a phone-number recipient.
// The bool reports whether the provider accepted the message.
type Messenger interface {
	Send(ctx context.Context, recipient, text string) (bool, error)
}

// Config holds fan-out settings
type Config struct {
	AdminRoom   string
	AdminPhones []string
	Timeout     time.Duration
}

const defaultTimeout = 5 * time.Second

// Notifier delivers notifications over a broadcaster and a messenger.
// Deliveries are detached from the caller, bounded by Config.Timeout and never retried.
type Notifier struct {
	broadcaster Broadcaster
	messenger   Messenger
	cfg         Config
	log         *logger.Logger
	metrics     *metrics.Metrics
	validate    *validator.Validate

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier. Either channel may be nil to disable it.
// Admin phones that are not E.164 numbers are dropped.
func NewNotifier(b Broadcaster, m Messenger, cfg Config, log *logger.Logger, mt *metrics.Metrics) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AdminRoom == "" {
		cfg.AdminRoom = "admins"
	}

	n := &Notifier{
		broadcaster: b,
		messenger:   m,
		log:         log,
		metrics:     mt,
		validate:    validator.New(),
	}

	phones := make([]string, 0, len(cfg.AdminPhones))
	for _, p := range cfg.AdminPhones {
		if !n.validRecipient(p) {
			log.Warn("ignoring invalid admin phone", zap.String("phone", p))
			continue
		}
		phones = append(phones, p)
	}
	cfg.AdminPhones = phones
	n.cfg = cfg

	return n
}

// Notify starts delivery of n on every configured channel and returns immediately
func (n *Notifier) Notify(ctx context.Context, note Notification) {
	base := context.WithoutCancel(ctx)
	kind := note.Kind()

	if n.broadcaster != nil {
		n.deliver(base, kind, "broadcast", func(ctx context.Context) error {
			return n.broadcaster.Broadcast(ctx, n.cfg.AdminRoom, string(kind), note.Payload)
		})
	}

	if n.messenger == nil || note.Text == "" {
		return
	}
	for _, recipient := range n.recipients(note) {
		to := recipient
		n.deliver(base, kind, "message", func(ctx context.Context) error {
			ok, err := n.messenger.Send(ctx, to, note.Text)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("message to %s not accepted", to)
			}
			return nil
		})
	}
}

// Shutdown stops accepting deliveries and blocks until in-flight ones finish or ctx is done.
// Notify after Shutdown drops the notification.
func (n *Notifier) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) recipients(note Notification) []string {
	out := make([]string, 0, len(n.cfg.AdminPhones)+1)
	out = append(out, n.cfg.AdminPhones...)

	if note.Kind().CustomerFacing() && note.CustomerPhone != "" {
		if n.validRecipient(note.CustomerPhone) {
			out = append(out, note.CustomerPhone)
		} else {
			n.log.Debug("skipping customer message, phone is not E.164",
				zap.String("order_id", note.Payload.OrderID),
			)
		}
	}
	return out
}

func (n *Notifier) validRecipient(phone string) bool {
	return n.validate.Var(phone, "required,e164") == nil
}

func (n *Notifier) deliver(base context.Context, kind Kind, channel string, send func(ctx context.Context) error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.WithContext(base).Warn("notifier shut down, dropping delivery",
			zap.String("kind", string(kind)),
			zap.String("channel", channel),
		)
		n.metrics.Notification(string(kind), channel, "dropped")
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.WithContext(base).Error("notification delivery panicked",
					zap.Any("panic", r),
					zap.String("kind", string(kind)),
					zap.String("channel", channel),
				)
				n.metrics.Notification(string(kind), channel, "panic")
			}
		}()

		ctx, cancel := context.WithTimeout(base, n.cfg.Timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			n.log.WithContext(ctx).Warn("notification delivery failed",
				zap.Error(err),
				zap.String("kind", string(kind)),
				zap.String("channel", channel),
			)
			n.metrics.Notification(string(kind), channel, "failed")
			return
		}

		n.log.WithContext(ctx).Debug("notification delivered",
			zap.String("kind", string(kind)),
			zap.String("channel", channel),
		)
		n.metrics.Notification(string(kind), channel, "sent")
	}()
}
