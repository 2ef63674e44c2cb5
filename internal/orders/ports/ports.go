package ports

import (
	"context"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/domain"
)

// UpdateResult is the outcome of a conditional update
type UpdateResult struct {
	// Applied is true only when the guard held and the patch was written
	Applied bool
	// Current is the order as stored after the attempt
	Current *domain.Order
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Create persists a new order
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByGatewayRef retrieves an order by its payment gateway order reference
	GetByGatewayRef(ctx context.Context, ref string) (*domain.Order, error)

	// GetByPrincipal retrieves the orders placed by a customer, newest first
	GetByPrincipal(ctx context.Context, principalID string) ([]*domain.Order, error)

	// ConditionalUpdate atomically applies patch when guard holds for the stored order.
	// Two concurrent calls whose guard only one can satisfy never both report Applied.
	ConditionalUpdate(ctx context.Context, id string, guard domain.Guard, patch domain.Patch) (*UpdateResult, error)

	// RecordDiscrepancy stores an amount mismatch for manual reconciliation
	RecordDiscrepancy(ctx context.Context, d *domain.PaymentDiscrepancy) error
}

// PaymentIntent is a gateway-side order opened before the purchaser pays
type PaymentIntent struct {
	GatewayOrderRef string
	Amount          int64
	Currency        string
	Receipt         string
}

// PaymentGateway defines the interface to the payment provider
type PaymentGateway interface {
	// Name identifies the gateway on stored orders
	Name() string

	// KeyID is the public key the client checkout SDK is initialised with
	KeyID() string

	// CreateIntent opens a payment intent for amount (minor units) and returns its reference
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*PaymentIntent, error)
}

// CustomerDirectory resolves contact details for an authenticated principal
type CustomerDirectory interface {
	// GetContact returns the email/phone snapshot for principalID
	GetContact(ctx context.Context, principalID string) (*ContactInfo, error)
}

// ContactInfo represents customer contact information from the customers service
type ContactInfo struct {
	PrincipalID string
	Name        string
	Email       string
	Phone       string
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// PublishOrderCreated publishes an order created event
	PublishOrderCreated(ctx context.Context, order *domain.Order) error

	// PublishPaymentConfirmed publishes an event for an order whose payment was captured
	PublishPaymentConfirmed(ctx context.Context, order *domain.Order) error

	// PublishPaymentFailed publishes an event for an order whose payment attempt failed
	PublishPaymentFailed(ctx context.Context, order *domain.Order) error
}

// Notifier fans a finalized order transition out to observers.
// Implementations must return without waiting on delivery.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification)
}
