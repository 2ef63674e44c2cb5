package events

import "time"

// Exchange names
const (
	ExchangeOrders        = "orders.events"
	ExchangeCatalog       = "catalog.events"
	ExchangeFulfillment   = "fulfillment.events"
	ExchangeNotifications = "notifications.rooms"
)

// Routing keys
const (
	RoutingKeyOrderCreated     = "order.created"
	RoutingKeyPaymentConfirmed = "order.payment_confirmed"
	RoutingKeyPaymentFailed    = "order.payment_failed"
	RoutingKeyLowStock         = "product.low_stock"
	RoutingKeyOrderShipped     = "order.shipped"
)

// Envelope is the common wrapper for every event on the bus
type Envelope[T any] struct {
	Version   string    `json:"version"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
	Payload   T         `json:"payload"`
}

func newEnvelope[T any](eventType, traceID string, payload T) *Envelope[T] {
	return &Envelope[T]{
		Version:   "1.0",
		EventType: eventType,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Payload:   payload,
	}
}

// OrderPayload contains order data shared by the order lifecycle events
type OrderPayload struct {
	ID                    string     `json:"id"`
	PrincipalID           string     `json:"principal_id"`
	Total                 int64      `json:"total"`
	Currency              string     `json:"currency"`
	PaymentStatus         string     `json:"payment_status"`
	Status                string     `json:"status"`
	GatewayOrderRef       string     `json:"gateway_order_ref"`
	GatewayTransactionRef string     `json:"gateway_transaction_ref,omitempty"`
	FailureReason         string     `json:"failure_reason,omitempty"`
	OrderDate             time.Time  `json:"order_date"`
	PaymentDate           *time.Time `json:"payment_date,omitempty"`
}

// OrderEvent is published when an order is created or its payment state changes
type OrderEvent = Envelope[OrderPayload]

// NewOrderEvent creates an order lifecycle event of the given type
func NewOrderEvent(eventType string, payload OrderPayload, traceID string) *OrderEvent {
	return newEnvelope(eventType, traceID, payload)
}

// LowStockPayload is emitted by the catalog when a product crosses its reorder level
type LowStockPayload struct {
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	Stock      int    `json:"stock"`
}

// LowStockEvent is consumed from the catalog exchange
type LowStockEvent = Envelope[LowStockPayload]

// OrderShippedPayload is emitted by fulfillment when a parcel leaves the warehouse
type OrderShippedPayload struct {
	OrderID        string    `json:"order_id"`
	Carrier        string    `json:"carrier,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	ShippedAt      time.Time `json:"shipped_at"`
}

// OrderShippedEvent is consumed from the fulfillment exchange
type OrderShippedEvent = Envelope[OrderShippedPayload]
