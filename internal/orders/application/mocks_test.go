package application

import (
	"context"
	"sync"
	"time"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

// MockOrderRepository is a mock implementation of OrderRepository.
// ConditionalUpdate is atomic under mu, like the real store.
type MockOrderRepository struct {
	mu            sync.Mutex
	orders        map[string]*domain.Order
	discrepancies []*domain.PaymentDiscrepancy
	updates       int
	// updateErr is returned by ConditionalUpdate when set
	updateErr error
	// beforeUpdate runs outside the lock before each conditional update
	beforeUpdate func()
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return errors.NewConflict("order already exists")
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	cp := *order
	return &cp, nil
}

func (m *MockOrderRepository) GetByGatewayRef(ctx context.Context, ref string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.Payment.GatewayOrderRef == ref {
			cp := *order
			return &cp, nil
		}
	}
	return nil, domain.NewGatewayRefNotFound(ref)
}

func (m *MockOrderRepository) GetByPrincipal(ctx context.Context, principalID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, order := range m.orders {
		if order.Customer.PrincipalID == principalID {
			cp := *order
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) ConditionalUpdate(ctx context.Context, id string, guard domain.Guard, patch domain.Patch) (*ports.UpdateResult, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStoreUnavailable("context done", err)
	}

	order, ok := m.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}

	applied := guard.Allows(order.PaymentStatus)
	if applied {
		patch.Apply(order, time.Now().UTC())
		m.updates++
	}

	cp := *order
	return &ports.UpdateResult{Applied: applied, Current: &cp}, nil
}

func (m *MockOrderRepository) RecordDiscrepancy(ctx context.Context, d *domain.PaymentDiscrepancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discrepancies = append(m.discrepancies, d)
	return nil
}

func (m *MockOrderRepository) put(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
}

func (m *MockOrderRepository) get(id string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.orders[id]
	return &cp
}

func (m *MockOrderRepository) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	nextRef string
	err     error
	calls   int
}

func (m *MockPaymentGateway) Name() string  { return "razorpay" }
func (m *MockPaymentGateway) KeyID() string { return "rzp_test_key" }

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*ports.PaymentIntent, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &ports.PaymentIntent{GatewayOrderRef: m.nextRef, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

// MockCustomerDirectory is a mock implementation of CustomerDirectory
type MockCustomerDirectory struct {
	contacts map[string]*ports.ContactInfo
}

func (m *MockCustomerDirectory) GetContact(ctx context.Context, principalID string) (*ports.ContactInfo, error) {
	c, ok := m.contacts[principalID]
	if !ok {
		return nil, errors.NewNotFound("customer", principalID)
	}
	return c, nil
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return m.record("order.created")
}

func (m *MockEventPublisher) PublishPaymentConfirmed(ctx context.Context, order *domain.Order) error {
	return m.record("order.payment_confirmed")
}

func (m *MockEventPublisher) PublishPaymentFailed(ctx context.Context, order *domain.Order) error {
	return m.record("order.payment_failed")
}

func (m *MockEventPublisher) record(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e == event {
			n++
		}
	}
	return n
}

// MockNotifier records every notification handed to it
type MockNotifier struct {
	mu    sync.Mutex
	notes []notifications.Notification
}

func (m *MockNotifier) Notify(ctx context.Context, n notifications.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
}

func (m *MockNotifier) count(kind notifications.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, note := range m.notes {
		if note.Kind() == kind {
			n++
		}
	}
	return n
}

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "whsec_test"
)

// fixture wires a state machine and reconciler around mocks
type fixture struct {
	repo       *MockOrderRepository
	publisher  *MockEventPublisher
	notifier   *MockNotifier
	machine    *PaymentStateMachine
	reconciler *PaymentReconciler
}

func newFixture() *fixture {
	log := logger.NewNop()
	repo := NewMockOrderRepository()
	publisher := &MockEventPublisher{}
	notifier := &MockNotifier{}
	machine := NewPaymentStateMachine(repo, time.Second, nil, log)
	reconciler := NewPaymentReconciler(machine, repo, publisher, notifier,
		ReconcilerSecrets{KeySecret: testKeySecret, WebhookSecret: testWebhookSecret}, nil, log)

	return &fixture{
		repo:       repo,
		publisher:  publisher,
		notifier:   notifier,
		machine:    machine,
		reconciler: reconciler,
	}
}

// pendingOrder seeds a placed, unpaid order for gatewayRef with the given total
func (f *fixture) pendingOrder(id, gatewayRef string, total int64) *domain.Order {
	order := &domain.Order{
		ID:              id,
		Items:           []domain.LineItem{{ProductRef: "sku-1", Name: "Tee", UnitPrice: total, Quantity: 1}},
		Amounts:         domain.Amounts{Subtotal: total, Total: total, Currency: "INR"},
		Customer:        domain.Customer{PrincipalID: "user-1", Email: "asha@example.com", Phone: "+919800000001"},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		Payment:         domain.PaymentDetails{Method: "online", Gateway: "razorpay", GatewayOrderRef: gatewayRef},
		PaymentStatus:   domain.PaymentStatusPending,
		Status:          domain.OrderStatusPlaced,
		OrderDate:       time.Now().UTC(),
	}
	f.repo.put(order)
	return order
}

func testAddress() domain.Address {
	return domain.Address{
		Name:       "Asha Rao",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		Country:    "IN",
	}
}
