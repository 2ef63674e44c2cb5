package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
	"go-orders/pkg/metrics"
)

// OrderUseCase handles order business logic
type OrderUseCase struct {
	repo      ports.OrderRepository
	gateway   ports.PaymentGateway
	customers ports.CustomerDirectory
	publisher ports.EventPublisher
	notifier  ports.Notifier
	pricing   Pricing
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewOrderUseCase creates a new order use case.
// customers, publisher and notifier are optional.
func NewOrderUseCase(
	repo ports.OrderRepository,
	gateway ports.PaymentGateway,
	customers ports.CustomerDirectory,
	publisher ports.EventPublisher,
	notifier ports.Notifier,
	pricing Pricing,
	m *metrics.Metrics,
	log *logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		repo:      repo,
		gateway:   gateway,
		customers: customers,
		publisher: publisher,
		notifier:  notifier,
		pricing:   pricing,
		metrics:   m,
		log:       log,
	}
}

// CreateOrderInput represents the input for creating an order
type CreateOrderInput struct {
	PrincipalID     string
	Items           []domain.LineItem
	ShippingAddress domain.Address
	// BillingAddress defaults to the shipping address
	BillingAddress *domain.Address
	Email          string
	Phone          string
	PaymentMethod  string
}

// CreateOrderOutput is what the checkout client needs to open the payment UI
type CreateOrderOutput struct {
	OrderID         string
	GatewayOrderRef string
	Amount          int64
	Currency        string
	KeyID           string
	Order           *domain.Order
}

// CreateOrder prices the cart, opens a payment intent and persists a pending order.
// Nothing is stored when the gateway refuses the intent.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error) {
	amounts, err := uc.pricing.Quote(input.Items)
	if err != nil {
		return nil, err
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	method := input.PaymentMethod
	if method == "" {
		method = "online"
	}

	order, err := domain.NewOrder(
		uuid.New().String(),
		uc.resolveCustomer(ctx, input),
		input.Items,
		amounts,
		input.ShippingAddress,
		billing,
		domain.PaymentDetails{Method: method, Gateway: uc.gateway.Name()},
	)
	if err != nil {
		return nil, err
	}

	intent, err := uc.gateway.CreateIntent(ctx, amounts.Total, amounts.Currency, order.ID)
	if err != nil {
		uc.log.WithOrderID(ctx, order.ID).Error("failed to open payment intent",
			zap.Error(err),
			zap.Int64("amount", amounts.Total),
		)
		return nil, err
	}
	order.Payment.GatewayOrderRef = intent.GatewayOrderRef

	if err := uc.repo.Create(ctx, order); err != nil {
		return nil, storeError(ctx, err)
	}

	uc.metrics.OrderCreated(amounts.Currency)

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderCreated(ctx, order); err != nil {
			uc.log.WithOrderID(ctx, order.ID).Warn("failed to publish order created event", zap.Error(err))
		}
	}
	if uc.notifier != nil {
		uc.notifier.Notify(ctx, notifications.NewOrderPlaced(order))
	}

	uc.log.WithOrderID(ctx, order.ID).Info("order created",
		zap.String("principal_id", order.Customer.PrincipalID),
		zap.String("gateway_order_ref", intent.GatewayOrderRef),
		zap.Int64("total", amounts.Total),
		zap.String("currency", amounts.Currency),
	)

	return &CreateOrderOutput{
		OrderID:         order.ID,
		GatewayOrderRef: intent.GatewayOrderRef,
		Amount:          amounts.Total,
		Currency:        amounts.Currency,
		KeyID:           uc.gateway.KeyID(),
		Order:           order,
	}, nil
}

// resolveCustomer prefers the customer directory and falls back to the request contact
func (uc *OrderUseCase) resolveCustomer(ctx context.Context, input CreateOrderInput) domain.Customer {
	customer := domain.Customer{
		PrincipalID: input.PrincipalID,
		Email:       input.Email,
		Phone:       input.Phone,
	}
	if uc.customers == nil || input.PrincipalID == "" {
		return customer
	}

	contact, err := uc.customers.GetContact(ctx, input.PrincipalID)
	if err != nil {
		uc.log.WithContext(ctx).Warn("customer directory lookup failed, using request contact",
			zap.String("principal_id", input.PrincipalID),
			zap.Error(err),
		)
		return customer
	}

	if contact.Email != "" {
		customer.Email = contact.Email
	}
	if contact.Phone != "" {
		customer.Phone = contact.Phone
	}
	return customer
}

// GetOrder retrieves an order owned by principalID
func (uc *OrderUseCase) GetOrder(ctx context.Context, principalID, id string) (*domain.Order, error) {
	order, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	if !order.OwnedBy(principalID) {
		// indistinguishable from a missing order
		return nil, domain.NewOrderNotFound(id)
	}

	return order, nil
}

// ListOrders returns the orders placed by principalID, newest first
func (uc *OrderUseCase) ListOrders(ctx context.Context, principalID string) ([]*domain.Order, error) {
	if principalID == "" {
		return nil, errors.NewUnauthorized("authentication required")
	}

	orders, err := uc.repo.GetByPrincipal(ctx, principalID)
	if err != nil {
		return nil, storeError(ctx, err)
	}
	return orders, nil
}

// GetOrderByID retrieves an order without an ownership check; used by internal callers
func (uc *OrderUseCase) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(ctx, err)
	}
	return order, nil
}
