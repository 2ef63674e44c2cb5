package infrastructure

import (
	"time"

	"go-orders/internal/orders/domain"
)

// =============================================================================
// Request/Response DTOs
// =============================================================================

// LineItemRequest is a cart line snapshotted onto the order
type LineItemRequest struct {
	ProductRef string `json:"product_ref" binding:"required" example:"sku_tee_black_m"`
	Name       string `json:"name" example:"Black Tee"`
	UnitPrice  int64  `json:"unit_price" binding:"gte=0" example:"1250"`
	Quantity   int    `json:"quantity" binding:"required,gte=1" example:"2"`
	Size       string `json:"size,omitempty" example:"M"`
	Color      string `json:"color,omitempty" example:"black"`
	ImageRef   string `json:"image_ref,omitempty"`
}

// AddressRequest is a postal address
type AddressRequest struct {
	Name       string `json:"name" binding:"required" example:"Asha Rao"`
	Phone      string `json:"phone,omitempty" example:"+919800000001"`
	Line1      string `json:"line1" binding:"required" example:"12 MG Road"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required" example:"Bengaluru"`
	State      string `json:"state,omitempty" example:"KA"`
	PostalCode string `json:"postal_code" binding:"required" example:"560001"`
	Country    string `json:"country" binding:"required" example:"IN"`
}

// CreateOrderRequest represents the request body for creating an order.
// Totals are always computed server-side.
type CreateOrderRequest struct {
	Items           []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressRequest    `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest   `json:"billing_address,omitempty"`
	Email           string            `json:"email,omitempty" binding:"omitempty,email" example:"asha@example.com"`
	Phone           string            `json:"phone,omitempty" example:"+919800000001"`
	PaymentMethod   string            `json:"payment_method,omitempty" example:"online"`
}

// CheckoutResponse carries what the client needs to open the payment UI
type CheckoutResponse struct {
	OrderID         string `json:"order_id" example:"3f2a9c1e-5b7d-4e0f-9a61-2c8d4b1e7f00"`
	GatewayOrderRef string `json:"gateway_order_ref" example:"order_N5c1a2b3c4d5e6"`
	Amount          int64  `json:"amount" example:"2500"`
	Currency        string `json:"currency" example:"INR"`
	KeyID           string `json:"key_id" example:"rzp_test_1DP5mmOlF5G5ag"`
}

// VerifyPaymentRequest is sent by the checkout client after the payment UI succeeds
type VerifyPaymentRequest struct {
	GatewayOrderRef       string `json:"gateway_order_ref" binding:"required" example:"order_N5c1a2b3c4d5e6"`
	GatewayTransactionRef string `json:"gateway_transaction_ref" binding:"required" example:"pay_N5c1f7g8h9i0j1"`
	Proof                 string `json:"proof" binding:"required" example:"9ef4dffbfd84f1318f6739a3ce19f9d85851857ae648f114332d8401e0949a3d"`
}

// VerifyPaymentResponse reports the order after verification
type VerifyPaymentResponse struct {
	Order          OrderResponse `json:"order"`
	AlreadyApplied bool          `json:"already_applied"`
}

// AmountsResponse holds order totals in minor units
type AmountsResponse struct {
	Subtotal int64  `json:"subtotal" example:"2500"`
	Tax      int64  `json:"tax" example:"0"`
	Shipping int64  `json:"shipping" example:"0"`
	Total    int64  `json:"total" example:"2500"`
	Currency string `json:"currency" example:"INR"`
}

// OrderResponse represents an order in responses
type OrderResponse struct {
	ID                    string            `json:"id" example:"3f2a9c1e-5b7d-4e0f-9a61-2c8d4b1e7f00"`
	Items                 []domain.LineItem `json:"items"`
	Amounts               AmountsResponse   `json:"amounts"`
	ShippingAddress       domain.Address    `json:"shipping_address"`
	BillingAddress        domain.Address    `json:"billing_address"`
	PaymentMethod         string            `json:"payment_method" example:"online"`
	GatewayOrderRef       string            `json:"gateway_order_ref" example:"order_N5c1a2b3c4d5e6"`
	GatewayTransactionRef string            `json:"gateway_transaction_ref,omitempty" example:"pay_N5c1f7g8h9i0j1"`
	PaymentStatus         string            `json:"payment_status" example:"pending"`
	Status                string            `json:"status" example:"placed"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	OrderDate             string            `json:"order_date" example:"2024-01-15T10:30:00Z"`
	PaymentDate           string            `json:"payment_date,omitempty" example:"2024-01-15T10:31:12Z"`
}

// WebhookResponse acknowledges an evaluated webhook
type WebhookResponse struct {
	Status  string `json:"status" example:"applied"`
	Event   string `json:"event" example:"payment.captured"`
	OrderID string `json:"order_id,omitempty"`
}

// SuccessResponse is the standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	TraceID string      `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    string      `json:"code" example:"VALIDATION_ERROR"`
	Message string      `json:"message" example:"Invalid request body"`
	Details interface{} `json:"details,omitempty"`
}

func (r LineItemRequest) toDomain() domain.LineItem {
	return domain.LineItem{
		ProductRef: r.ProductRef,
		Name:       r.Name,
		UnitPrice:  r.UnitPrice,
		Quantity:   r.Quantity,
		Size:       r.Size,
		Color:      r.Color,
		ImageRef:   r.ImageRef,
	}
}

func (r AddressRequest) toDomain() domain.Address {
	return domain.Address{
		Name:       r.Name,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:    o.ID,
		Items: o.Items,
		Amounts: AmountsResponse{
			Subtotal: o.Amounts.Subtotal,
			Tax:      o.Amounts.Tax,
			Shipping: o.Amounts.Shipping,
			Total:    o.Amounts.Total,
			Currency: o.Amounts.Currency,
		},
		ShippingAddress:       o.ShippingAddress,
		BillingAddress:        o.BillingAddress,
		PaymentMethod:         o.Payment.Method,
		GatewayOrderRef:       o.Payment.GatewayOrderRef,
		GatewayTransactionRef: o.Payment.GatewayTransactionRef,
		PaymentStatus:         string(o.PaymentStatus),
		Status:                string(o.Status),
		FailureReason:         o.FailureReason,
		OrderDate:             o.OrderDate.Format(time.RFC3339),
	}
	if o.PaymentDate != nil {
		resp.PaymentDate = o.PaymentDate.Format(time.RFC3339)
	}
	return resp
}
