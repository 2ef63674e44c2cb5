package adapters

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	apperrors "go-orders/pkg/errors"
)

// MemoryOrderRepository implements OrderRepository in process memory.
// Used for local development and tests; a single mutex makes every
// conditional update atomic.
type MemoryOrderRepository struct {
	mu            sync.Mutex
	orders        map[string]*domain.Order
	byGatewayRef  map[string]string
	discrepancies []*domain.PaymentDiscrepancy
}

// NewMemoryOrderRepository creates an empty in-memory repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:       make(map[string]*domain.Order),
		byGatewayRef: make(map[string]string),
	}
}

// Create stores a copy of order
func (r *MemoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return apperrors.NewConflict("order already exists")
	}
	if _, ok := r.byGatewayRef[order.Payment.GatewayOrderRef]; ok {
		return apperrors.NewConflict("gateway reference already used")
	}

	r.orders[order.ID] = cloneOrder(order)
	r.byGatewayRef[order.Payment.GatewayOrderRef] = order.ID
	return nil
}

// GetByID retrieves an order by ID
func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	return cloneOrder(order), nil
}

// GetByGatewayRef retrieves an order by its gateway order reference
func (r *MemoryOrderRepository) GetByGatewayRef(ctx context.Context, ref string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byGatewayRef[ref]
	if !ok {
		return nil, domain.NewGatewayRefNotFound(ref)
	}
	return cloneOrder(r.orders[id]), nil
}

// GetByPrincipal retrieves orders for a customer, newest first
func (r *MemoryOrderRepository) GetByPrincipal(ctx context.Context, principalID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Order
	for _, order := range r.orders {
		if order.Customer.PrincipalID == principalID {
			result = append(result, cloneOrder(order))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderDate.After(result[j].OrderDate)
	})
	return result, nil
}

// ConditionalUpdate applies patch when guard holds
func (r *MemoryOrderRepository) ConditionalUpdate(ctx context.Context, id string, guard domain.Guard, patch domain.Patch) (*ports.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}

	applied := guard.Allows(order.PaymentStatus)
	if applied {
		patch.Apply(order, time.Now().UTC())
	}

	return &ports.UpdateResult{Applied: applied, Current: cloneOrder(order)}, nil
}

// RecordDiscrepancy stores an amount mismatch
func (r *MemoryOrderRepository) RecordDiscrepancy(ctx context.Context, d *domain.PaymentDiscrepancy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *d
	r.discrepancies = append(r.discrepancies, &cp)
	return nil
}

// Discrepancies returns the recorded amount mismatches
func (r *MemoryOrderRepository) Discrepancies() []*domain.PaymentDiscrepancy {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.PaymentDiscrepancy, len(r.discrepancies))
	copy(out, r.discrepancies)
	return out
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.LineItem(nil), o.Items...)
	if o.PaymentDate != nil {
		t := *o.PaymentDate
		cp.PaymentDate = &t
	}
	return &cp
}
