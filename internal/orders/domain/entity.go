package domain

import (
	"time"

	"github.com/govalues/decimal"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// LineItem is a product snapshot taken when the order is placed.
// Prices are never re-read from the catalog afterwards.
type LineItem struct {
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
	ImageRef   string `json:"image_ref,omitempty"`
}

// LineTotal returns unit price times quantity, or ErrAmountOutOfRange when the product does not fit in int64
func (i LineItem) LineTotal() (int64, error) {
	price, err := decimal.New(i.UnitPrice, 0)
	if err != nil {
		return 0, ErrAmountOutOfRange
	}
	qty, err := decimal.New(int64(i.Quantity), 0)
	if err != nil {
		return 0, ErrAmountOutOfRange
	}
	total, err := price.Mul(qty)
	if err != nil {
		return 0, ErrAmountOutOfRange
	}
	whole, _, ok := total.Int64(0)
	if !ok {
		return 0, ErrAmountOutOfRange
	}
	return whole, nil
}

// Amounts holds order totals in minor currency units
type Amounts struct {
	Subtotal int64
	Tax      int64
	Shipping int64
	Total    int64
	Currency string
}

// Address is an immutable postal address snapshot
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer identifies the owning principal and snapshots their contact details
type Customer struct {
	PrincipalID string
	Email       string
	Phone       string
}

// PaymentDetails links the order to the payment gateway
type PaymentDetails struct {
	Method                string
	Gateway               string
	GatewayOrderRef       string
	GatewayTransactionRef string
}

// Order represents the order domain entity
type Order struct {
	ID              string
	Items           []LineItem
	Amounts         Amounts
	Customer        Customer
	ShippingAddress Address
	BillingAddress  Address
	Payment         PaymentDetails
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	FailureReason   string
	OrderDate       time.Time
	PaymentDate     *time.Time
	UpdatedAt       time.Time
}

// IsPaid reports whether the payment has been captured
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OwnedBy reports whether principalID placed the order
func (o *Order) OwnedBy(principalID string) bool {
	return principalID != "" && o.Customer.PrincipalID == principalID
}

// Validate validates the order entity
func (o *Order) Validate() error {
	if o.Customer.PrincipalID == "" {
		return ErrPrincipalRequired
	}
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if o.Amounts.Total <= 0 {
		return ErrInvalidTotal
	}
	if o.Amounts.Total != o.Amounts.Subtotal+o.Amounts.Tax+o.Amounts.Shipping {
		return ErrTotalInconsistent
	}
	return nil
}

// Validate validates a line item snapshot
func (i LineItem) Validate() error {
	if i.ProductRef == "" {
		return ErrProductRefRequired
	}
	if i.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// Validate checks the fields required to ship to an address
func (a Address) Validate() error {
	if a.Name == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return ErrAddressIncomplete
	}
	return nil
}

// NewOrder creates a placed, unpaid order with validation
func NewOrder(id string, customer Customer, items []LineItem, amounts Amounts, shipping, billing Address, payment PaymentDetails) (*Order, error) {
	now := time.Now().UTC()

	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)

	order := &Order{
		ID:              id,
		Items:           snapshot,
		Amounts:         amounts,
		Customer:        customer,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Payment:         payment,
		PaymentStatus:   PaymentStatusPending,
		Status:          OrderStatusPlaced,
		OrderDate:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}
