package domain

import (
	"fmt"

	"go-orders/pkg/errors"
)

// Domain-specific errors
var (
	ErrPrincipalRequired  = errors.NewValidation("principal id is required", nil)
	ErrEmptyCart          = errors.NewValidation("order must contain at least one item", nil)
	ErrProductRefRequired = errors.NewValidation("item product_ref is required", nil)
	ErrNegativePrice      = errors.NewValidation("item unit_price cannot be negative", nil)
	ErrInvalidQuantity    = errors.NewValidation("item quantity must be at least 1", nil)
	ErrAddressIncomplete  = errors.NewValidation("shipping address requires name, line1, city, postal_code and country", nil)
	ErrInvalidTotal       = errors.NewValidation("order total must be greater than 0", nil)
	ErrTotalInconsistent  = errors.NewValidation("order total must equal subtotal + tax + shipping", nil)
	ErrAmountOutOfRange   = errors.NewValidation("order amount out of range", nil)
	ErrOrderNotFound      = errors.NewNotFound("order", "unknown")
	ErrNotOrderOwner      = errors.NewForbidden("order belongs to another customer")
)

// NewOrderNotFound creates a not found error with the order ID
func NewOrderNotFound(id string) error {
	return errors.NewNotFound("order", id)
}

// NewGatewayRefNotFound creates a not found error for an unknown gateway order reference
func NewGatewayRefNotFound(ref string) error {
	return &errors.AppError{
		Code:    errors.CodeNotFound,
		Message: fmt.Sprintf("no order for gateway reference '%s'", ref),
	}
}
