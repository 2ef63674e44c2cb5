package application

import (
	"context"
	"testing"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

func newTestUseCase(repo *MockOrderRepository, gateway *MockPaymentGateway, customers ports.CustomerDirectory, publisher ports.EventPublisher, notifier ports.Notifier) *OrderUseCase {
	pricing, err := NewPricing("INR", "0", 0, 0)
	if err != nil {
		panic(err)
	}
	return NewOrderUseCase(repo, gateway, customers, publisher, notifier, pricing, nil, logger.NewNop())
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		PrincipalID: "user-1",
		Items: []domain.LineItem{
			{ProductRef: "sku-1", Name: "Tee", UnitPrice: 1000, Quantity: 2},
			{ProductRef: "sku-2", Name: "Cap", UnitPrice: 500, Quantity: 1},
		},
		ShippingAddress: testAddress(),
		Email:           "asha@example.com",
		Phone:           "+919800000001",
	}
}

func TestCreateOrder_Success(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	publisher := &MockEventPublisher{}
	notifier := &MockNotifier{}
	useCase := newTestUseCase(repo, gateway, nil, publisher, notifier)

	// Act
	output, err := useCase.CreateOrder(context.Background(), validInput())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.GatewayOrderRef != "gw_1" {
		t.Errorf("expected gateway ref gw_1, got %s", output.GatewayOrderRef)
	}

	if output.Amount != 2500 {
		t.Errorf("expected amount 2500, got %d", output.Amount)
	}

	if output.KeyID != "rzp_test_key" {
		t.Errorf("expected key id to be returned, got %q", output.KeyID)
	}

	stored := repo.get(output.OrderID)
	if stored.PaymentStatus != domain.PaymentStatusPending || stored.Status != domain.OrderStatusPlaced {
		t.Errorf("expected pending/placed, got %s/%s", stored.PaymentStatus, stored.Status)
	}

	if stored.BillingAddress != stored.ShippingAddress {
		t.Error("expected billing address to default to shipping address")
	}

	if publisher.count("order.created") != 1 {
		t.Errorf("expected 1 order.created event, got %d", publisher.count("order.created"))
	}

	if notifier.count(notifications.KindNewOrder) != 1 {
		t.Errorf("expected 1 new_order notification, got %d", notifier.count(notifications.KindNewOrder))
	}
}

func TestCreateOrder_ComputesTaxAndShipping(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	pricing, err := NewPricing("INR", "0.18", 4900, 100000)
	if err != nil {
		t.Fatalf("unexpected pricing error: %v", err)
	}
	useCase := NewOrderUseCase(repo, gateway, nil, nil, nil, pricing, nil, logger.NewNop())

	// Act
	output, err := useCase.CreateOrder(context.Background(), validInput())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	amounts := output.Order.Amounts
	if amounts.Subtotal != 2500 || amounts.Tax != 450 || amounts.Shipping != 4900 {
		t.Errorf("unexpected amounts %+v", amounts)
	}

	if output.Amount != 2500+450+4900 {
		t.Errorf("expected total %d, got %d", 2500+450+4900, output.Amount)
	}
}

func TestCreateOrder_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"empty cart", func(in *CreateOrderInput) { in.Items = nil }},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"negative price", func(in *CreateOrderInput) { in.Items[0].UnitPrice = -1 }},
		{"missing city", func(in *CreateOrderInput) { in.ShippingAddress.City = "" }},
		{"zero total", func(in *CreateOrderInput) {
			in.Items = []domain.LineItem{{ProductRef: "free", UnitPrice: 0, Quantity: 1}}
		}},
		{"line total wraps int64", func(in *CreateOrderInput) {
			in.Items = []domain.LineItem{
				{ProductRef: "sku-1", UnitPrice: 1 << 62, Quantity: 4},
				{ProductRef: "sku-2", UnitPrice: 2500, Quantity: 1},
			}
		}},
		{"subtotal wraps int64", func(in *CreateOrderInput) {
			in.Items = []domain.LineItem{
				{ProductRef: "sku-1", UnitPrice: 1 << 62, Quantity: 1},
				{ProductRef: "sku-2", UnitPrice: 1 << 62, Quantity: 1},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo := NewMockOrderRepository()
			gateway := &MockPaymentGateway{nextRef: "gw_1"}
			useCase := newTestUseCase(repo, gateway, nil, nil, nil)
			input := validInput()
			tt.mutate(&input)

			// Act
			_, err := useCase.CreateOrder(context.Background(), input)

			// Assert
			if !errors.Is(err, errors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}

			if gateway.calls != 0 {
				t.Error("expected no payment intent for invalid input")
			}
		})
	}
}

func TestCreateOrder_GatewayFailurePersistsNothing(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{err: errors.NewGateway("payment gateway unreachable", nil)}
	publisher := &MockEventPublisher{}
	useCase := newTestUseCase(repo, gateway, nil, publisher, nil)

	// Act
	_, err := useCase.CreateOrder(context.Background(), validInput())

	// Assert
	if !errors.Is(err, errors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	if orders, _ := repo.GetByPrincipal(context.Background(), "user-1"); len(orders) != 0 {
		t.Errorf("expected nothing persisted, got %d orders", len(orders))
	}

	if publisher.count("order.created") != 0 {
		t.Error("expected no event for a failed order")
	}
}

func TestCreateOrder_PrefersDirectoryContact(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	directory := &MockCustomerDirectory{contacts: map[string]*ports.ContactInfo{
		"user-1": {PrincipalID: "user-1", Email: "asha@directory.example", Phone: "+919811111111"},
	}}
	useCase := newTestUseCase(repo, gateway, directory, nil, nil)

	// Act
	output, err := useCase.CreateOrder(context.Background(), validInput())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Order.Customer.Email != "asha@directory.example" {
		t.Errorf("expected directory email, got %s", output.Order.Customer.Email)
	}

	if output.Order.Customer.Phone != "+919811111111" {
		t.Errorf("expected directory phone, got %s", output.Order.Customer.Phone)
	}
}

func TestCreateOrder_DirectoryMissFallsBackToRequest(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	directory := &MockCustomerDirectory{}
	useCase := newTestUseCase(repo, gateway, directory, nil, nil)

	// Act
	output, err := useCase.CreateOrder(context.Background(), validInput())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Order.Customer.Email != "asha@example.com" {
		t.Errorf("expected request email, got %s", output.Order.Customer.Email)
	}
}

func TestGetOrder_Success(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	useCase := newTestUseCase(repo, gateway, nil, nil, nil)
	created, _ := useCase.CreateOrder(context.Background(), validInput())

	// Act
	order, err := useCase.GetOrder(context.Background(), "user-1", created.OrderID)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if order.ID != created.OrderID {
		t.Errorf("expected ID %s, got %s", created.OrderID, order.ID)
	}
}

func TestGetOrder_OtherCustomer(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	useCase := newTestUseCase(repo, gateway, nil, nil, nil)
	created, _ := useCase.CreateOrder(context.Background(), validInput())

	// Act
	_, err := useCase.GetOrder(context.Background(), "user-2", created.OrderID)

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	// Arrange
	useCase := newTestUseCase(NewMockOrderRepository(), &MockPaymentGateway{}, nil, nil, nil)

	// Act
	_, err := useCase.GetOrder(context.Background(), "user-1", "missing")

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	// Arrange
	repo := NewMockOrderRepository()
	gateway := &MockPaymentGateway{nextRef: "gw_1"}
	useCase := newTestUseCase(repo, gateway, nil, nil, nil)
	_, _ = useCase.CreateOrder(context.Background(), validInput())
	gateway.nextRef = "gw_2"
	_, _ = useCase.CreateOrder(context.Background(), validInput())

	// Act
	mine, err := useCase.ListOrders(context.Background(), "user-1")
	theirs, _ := useCase.ListOrders(context.Background(), "user-2")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(mine) != 2 {
		t.Errorf("expected 2 orders, got %d", len(mine))
	}

	if len(theirs) != 0 {
		t.Errorf("expected 0 orders for another customer, got %d", len(theirs))
	}
}
