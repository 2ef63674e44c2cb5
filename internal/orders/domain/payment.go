package domain

import "time"

// Guard is a predicate over the stored order that a conditional update must
// satisfy at write time. The store evaluates it atomically with the write.
type Guard struct {
	PaymentStatusNotIn []PaymentStatus
}

// Allows reports whether an order in the given payment status passes the guard
func (g Guard) Allows(status PaymentStatus) bool {
	for _, s := range g.PaymentStatusNotIn {
		if s == status {
			return false
		}
	}
	return true
}

// Patch lists the fields a conditional update writes. Nil fields are left as stored.
type Patch struct {
	PaymentStatus         *PaymentStatus
	Status                *OrderStatus
	PaymentDate           *time.Time
	GatewayTransactionRef *string
	FailureReason         *string
}

// Apply writes the patch onto the order
func (p Patch) Apply(o *Order, now time.Time) {
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentDate != nil {
		t := *p.PaymentDate
		o.PaymentDate = &t
	}
	if p.GatewayTransactionRef != nil {
		o.Payment.GatewayTransactionRef = *p.GatewayTransactionRef
	}
	if p.FailureReason != nil {
		o.FailureReason = *p.FailureReason
	}
	o.UpdatedAt = now
}

// CaptureTransition moves an order to paid and confirmed.
// Paid and refunded orders are excluded so payment is recorded at most once.
func CaptureTransition(gatewayTransactionRef string, at time.Time) (Guard, Patch) {
	paid := PaymentStatusPaid
	confirmed := OrderStatusConfirmed
	paidAt := at.UTC()
	txRef := gatewayTransactionRef
	cleared := ""

	return Guard{PaymentStatusNotIn: []PaymentStatus{PaymentStatusPaid, PaymentStatusRefunded}},
		Patch{
			PaymentStatus:         &paid,
			Status:                &confirmed,
			PaymentDate:           &paidAt,
			GatewayTransactionRef: &txRef,
			FailureReason:         &cleared,
		}
}

// FailureTransition marks a payment attempt as failed. A paid order never goes back.
func FailureTransition(reason string) (Guard, Patch) {
	failed := PaymentStatusFailed
	r := reason

	return Guard{PaymentStatusNotIn: []PaymentStatus{PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed}},
		Patch{
			PaymentStatus: &failed,
			FailureReason: &r,
		}
}

// PaymentDiscrepancy records a capture whose amount disagreed with the order total.
// It is kept for manual reconciliation; the order itself is not modified.
type PaymentDiscrepancy struct {
	ID                    string
	OrderID               string
	GatewayOrderRef       string
	GatewayTransactionRef string
	ExpectedAmount        int64
	CapturedAmount        int64
	Source                string
	DetectedAt            time.Time
}
