package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	apperrors "go-orders/pkg/errors"
)

// OrderModel is the GORM model for orders (persistence layer)
type OrderModel struct {
	ID                    string                              `gorm:"primaryKey;size:36"`
	PrincipalID           string                              `gorm:"index;not null"`
	CustomerEmail         string                              `gorm:"size:255"`
	CustomerPhone         string                              `gorm:"size:32"`
	Items                 datatypes.JSONSlice[domain.LineItem] `gorm:"type:jsonb;not null"`
	Subtotal              int64                               `gorm:"not null"`
	Tax                   int64                               `gorm:"not null;default:0"`
	Shipping              int64                               `gorm:"not null;default:0"`
	Total                 int64                               `gorm:"not null"`
	Currency              string                              `gorm:"size:3;not null"`
	ShippingAddress       datatypes.JSONType[domain.Address]  `gorm:"type:jsonb;not null"`
	BillingAddress        datatypes.JSONType[domain.Address]  `gorm:"type:jsonb;not null"`
	PaymentMethod         string                              `gorm:"size:32"`
	Gateway               string                              `gorm:"size:32;not null"`
	GatewayOrderRef       string                              `gorm:"size:64;uniqueIndex;not null"`
	GatewayTransactionRef string                              `gorm:"size:64;index"`
	PaymentStatus         domain.PaymentStatus                `gorm:"size:20;not null;default:'pending';index"`
	Status                domain.OrderStatus                  `gorm:"size:20;not null;default:'placed'"`
	FailureReason         string                              `gorm:"size:255"`
	OrderDate             time.Time                           `gorm:"not null"`
	PaymentDate           *time.Time
	UpdatedAt             time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// DiscrepancyModel is the GORM model for rejected captures
type DiscrepancyModel struct {
	ID                    string    `gorm:"primaryKey;size:36"`
	OrderID               string    `gorm:"size:36;index;not null"`
	GatewayOrderRef       string    `gorm:"size:64;index;not null"`
	GatewayTransactionRef string    `gorm:"size:64"`
	ExpectedAmount        int64     `gorm:"not null"`
	CapturedAmount        int64     `gorm:"not null"`
	Source                string    `gorm:"size:20;not null"`
	DetectedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DiscrepancyModel) TableName() string {
	return "payment_discrepancies"
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *gorm.DB
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository
func NewPostgresOrderRepository(db *gorm.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Migrate runs auto-migration for the order models
func (r *PostgresOrderRepository) Migrate() error {
	return r.db.AutoMigrate(&OrderModel{}, &DiscrepancyModel{})
}

// Create creates a new order
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := toModel(order)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflict("order or gateway reference already exists")
		}
		return apperrors.NewStoreUnavailable("failed to create order", result.Error)
	}

	return nil
}

// GetByID retrieves an order by ID
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewStoreUnavailable("failed to get order", result.Error)
	}

	return toDomain(&model), nil
}

// GetByGatewayRef retrieves an order by its gateway order reference
func (r *PostgresOrderRepository) GetByGatewayRef(ctx context.Context, ref string) (*domain.Order, error) {
	var model OrderModel

	result := r.db.WithContext(ctx).Where("gateway_order_ref = ?", ref).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewGatewayRefNotFound(ref)
		}
		return nil, apperrors.NewStoreUnavailable("failed to get order by gateway reference", result.Error)
	}

	return toDomain(&model), nil
}

// GetByPrincipal retrieves orders for a customer
func (r *PostgresOrderRepository) GetByPrincipal(ctx context.Context, principalID string) ([]*domain.Order, error) {
	var models []OrderModel

	result := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Order("order_date DESC").
		Find(&models)
	if result.Error != nil {
		return nil, apperrors.NewStoreUnavailable("failed to get orders by customer", result.Error)
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = toDomain(&models[i])
	}

	return orders, nil
}

// ConditionalUpdate writes patch in a single UPDATE whose WHERE clause carries the guard,
// so the row lock taken by postgres serializes racing writers on the same id.
func (r *PostgresOrderRepository) ConditionalUpdate(ctx context.Context, id string, guard domain.Guard, patch domain.Patch) (*ports.UpdateResult, error) {
	var (
		applied bool
		model   OrderModel
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&OrderModel{}).Where("id = ?", id)
		if len(guard.PaymentStatusNotIn) > 0 {
			excluded := make([]string, len(guard.PaymentStatusNotIn))
			for i, s := range guard.PaymentStatusNotIn {
				excluded[i] = string(s)
			}
			q = q.Where("payment_status NOT IN ?", excluded)
		}

		res := q.Updates(patchColumns(patch, time.Now().UTC()))
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected == 1

		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewStoreUnavailable("failed to update order", err)
	}

	return &ports.UpdateResult{Applied: applied, Current: toDomain(&model)}, nil
}

// RecordDiscrepancy stores an amount mismatch
func (r *PostgresOrderRepository) RecordDiscrepancy(ctx context.Context, d *domain.PaymentDiscrepancy) error {
	model := &DiscrepancyModel{
		ID:                    d.ID,
		OrderID:               d.OrderID,
		GatewayOrderRef:       d.GatewayOrderRef,
		GatewayTransactionRef: d.GatewayTransactionRef,
		ExpectedAmount:        d.ExpectedAmount,
		CapturedAmount:        d.CapturedAmount,
		Source:                d.Source,
		DetectedAt:            d.DetectedAt,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewStoreUnavailable("failed to record payment discrepancy", err)
	}
	return nil
}

func patchColumns(p domain.Patch, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": now}
	if p.PaymentStatus != nil {
		cols["payment_status"] = string(*p.PaymentStatus)
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.PaymentDate != nil {
		cols["payment_date"] = *p.PaymentDate
	}
	if p.GatewayTransactionRef != nil {
		cols["gateway_transaction_ref"] = *p.GatewayTransactionRef
	}
	if p.FailureReason != nil {
		cols["failure_reason"] = *p.FailureReason
	}
	return cols
}

// toModel converts a domain entity to a GORM model
func toModel(order *domain.Order) *OrderModel {
	return &OrderModel{
		ID:                    order.ID,
		PrincipalID:           order.Customer.PrincipalID,
		CustomerEmail:         order.Customer.Email,
		CustomerPhone:         order.Customer.Phone,
		Items:                 datatypes.NewJSONSlice(order.Items),
		Subtotal:              order.Amounts.Subtotal,
		Tax:                   order.Amounts.Tax,
		Shipping:              order.Amounts.Shipping,
		Total:                 order.Amounts.Total,
		Currency:              order.Amounts.Currency,
		ShippingAddress:       datatypes.NewJSONType(order.ShippingAddress),
		BillingAddress:        datatypes.NewJSONType(order.BillingAddress),
		PaymentMethod:         order.Payment.Method,
		Gateway:               order.Payment.Gateway,
		GatewayOrderRef:       order.Payment.GatewayOrderRef,
		GatewayTransactionRef: order.Payment.GatewayTransactionRef,
		PaymentStatus:         order.PaymentStatus,
		Status:                order.Status,
		FailureReason:         order.FailureReason,
		OrderDate:             order.OrderDate,
		PaymentDate:           order.PaymentDate,
		UpdatedAt:             order.UpdatedAt,
	}
}

// toDomain converts a GORM model to a domain entity
func toDomain(model *OrderModel) *domain.Order {
	return &domain.Order{
		ID:    model.ID,
		Items: []domain.LineItem(model.Items),
		Amounts: domain.Amounts{
			Subtotal: model.Subtotal,
			Tax:      model.Tax,
			Shipping: model.Shipping,
			Total:    model.Total,
			Currency: model.Currency,
		},
		Customer: domain.Customer{
			PrincipalID: model.PrincipalID,
			Email:       model.CustomerEmail,
			Phone:       model.CustomerPhone,
		},
		ShippingAddress: model.ShippingAddress.Data(),
		BillingAddress:  model.BillingAddress.Data(),
		Payment: domain.PaymentDetails{
			Method:                model.PaymentMethod,
			Gateway:               model.Gateway,
			GatewayOrderRef:       model.GatewayOrderRef,
			GatewayTransactionRef: model.GatewayTransactionRef,
		},
		PaymentStatus: model.PaymentStatus,
		Status:        model.Status,
		FailureReason: model.FailureReason,
		OrderDate:     model.OrderDate,
		PaymentDate:   model.PaymentDate,
		UpdatedAt:     model.UpdatedAt,
	}
}
