package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/govalues/decimal"

	"go-orders/internal/orders/domain"
)

// Kind names a notifiable transition. It doubles as the broadcast event name.
type Kind string

const (
	KindNewOrder         Kind = "new_order"
	KindStatusUpdate     Kind = "status_update"
	KindLowStock         Kind = "low_stock"
	KindShipped          Kind = "shipped"
	KindPaymentConfirmed Kind = "payment_confirmed"
)

// CustomerFacing reports whether the customer is also messaged for this kind
func (k Kind) CustomerFacing() bool {
	switch k {
	case KindPaymentConfirmed, KindShipped, KindStatusUpdate:
		return true
	default:
		return false
	}
}

// Payload is the JSON body broadcast to the admin room
type Payload struct {
	Type           Kind      `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	OrderID        string    `json:"orderId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Total          int64     `json:"total,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	CustomerEmail  string    `json:"customerEmail,omitempty"`
	PaymentStatus  string    `json:"paymentStatus,omitempty"`
	Status         string    `json:"status,omitempty"`
	ProductRef     string    `json:"productRef,omitempty"`
	ProductName    string    `json:"productName,omitempty"`
	Stock          *int      `json:"stock,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
}

// Notification is one fan-out request
type Notification struct {
	Payload Payload
	// Text is the external message body
	Text string
	// CustomerPhone receives Text when the kind is customer-facing
	CustomerPhone string
}

// Kind returns the notification kind
func (n Notification) Kind() Kind {
	return n.Payload.Type
}

// NewOrderPlaced builds the admin alert for a freshly placed order
func NewOrderPlaced(o *domain.Order) Notification {
	amount := FormatAmount(o.Amounts.Total, o.Amounts.Currency)
	return Notification{
		Payload: orderPayload(KindNewOrder, o,
			"New order placed",
			fmt.Sprintf("Order %s placed for %s (%d items)", ShortID(o.ID), amount, itemCount(o))),
		Text: fmt.Sprintf("New order %s: %s from %s, awaiting payment.", ShortID(o.ID), amount, contact(o)),
	}
}

// PaymentConfirmed builds the notification for a captured payment
func PaymentConfirmed(o *domain.Order) Notification {
	amount := FormatAmount(o.Amounts.Total, o.Amounts.Currency)
	return Notification{
		Payload: orderPayload(KindPaymentConfirmed, o,
			"Payment received",
			fmt.Sprintf("Payment of %s received for order %s", amount, ShortID(o.ID))),
		Text:          fmt.Sprintf("Payment of %s received for order %s. Your order is confirmed.", amount, ShortID(o.ID)),
		CustomerPhone: o.Customer.Phone,
	}
}

// PaymentFailed builds the status update for a failed payment attempt
func PaymentFailed(o *domain.Order) Notification {
	msg := fmt.Sprintf("Payment for order %s failed", ShortID(o.ID))
	if o.FailureReason != "" {
		msg += ": " + o.FailureReason
	}
	return Notification{
		Payload:       orderPayload(KindStatusUpdate, o, "Payment failed", msg),
		Text:          msg + ". You can retry the payment from your orders page.",
		CustomerPhone: o.Customer.Phone,
	}
}

// Shipped builds the notification for an order handed to the carrier
func Shipped(orderID, customerPhone, trackingNumber string, at time.Time) Notification {
	msg := fmt.Sprintf("Order %s has shipped", ShortID(orderID))
	if trackingNumber != "" {
		msg += " (tracking " + trackingNumber + ")"
	}
	return Notification{
		Payload: Payload{
			Type:           KindShipped,
			Title:          "Order shipped",
			Message:        msg,
			OrderID:        orderID,
			Timestamp:      at.UTC(),
			Status:         string(domain.OrderStatusShipped),
			TrackingNumber: trackingNumber,
		},
		Text:          msg + ".",
		CustomerPhone: customerPhone,
	}
}

// LowStock builds the admin alert for a product running out
func LowStock(productRef, productName string, stock int, at time.Time) Notification {
	msg := fmt.Sprintf("%s is low on stock (%d left)", productName, stock)
	return Notification{
		Payload: Payload{
			Type:        KindLowStock,
			Title:       "Low stock",
			Message:     msg,
			Timestamp:   at.UTC(),
			ProductRef:  productRef,
			ProductName: productName,
			Stock:       &stock,
		},
		Text: "Low stock alert: " + msg + ".",
	}
}

// FormatAmount renders minor units as "<CUR> 12.34"
func FormatAmount(minor int64, currency string) string {
	d, err := decimal.New(minor, 2)
	if err != nil {
		return fmt.Sprintf("%s %d", currency, minor)
	}
	return strings.TrimSpace(currency + " " + d.String())
}

// ShortID returns the leading segment of an order id for human-facing text
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return "#" + strings.ToUpper(id[:i])
	}
	return "#" + strings.ToUpper(id)
}

func orderPayload(kind Kind, o *domain.Order, title, message string) Payload {
	return Payload{
		Type:          kind,
		Title:         title,
		Message:       message,
		OrderID:       o.ID,
		Timestamp:     time.Now().UTC(),
		Total:         o.Amounts.Total,
		Currency:      o.Amounts.Currency,
		CustomerEmail: o.Customer.Email,
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
	}
}

func itemCount(o *domain.Order) int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

func contact(o *domain.Order) string {
	if o.Customer.Email != "" {
		return o.Customer.Email
	}
	if o.ShippingAddress.Name != "" {
		return o.ShippingAddress.Name
	}
	return "customer " + o.Customer.PrincipalID
}
