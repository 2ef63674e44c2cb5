package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
	"go-orders/pkg/metrics"
)

// Capture sources recorded on discrepancies and metrics
const (
	SourceClient  = "client"
	SourceWebhook = "webhook"
	SourceOps     = "ops"
)

// CaptureResult is the outcome of ApplyPaymentCapture
type CaptureResult struct {
	Order *domain.Order
	// Transitioned is true only for the caller whose write moved the order to paid
	Transitioned bool
	// AlreadyApplied is true when the order was paid before this call
	AlreadyApplied bool
}

// FailureResult is the outcome of ApplyPaymentFailure
type FailureResult struct {
	Order        *domain.Order
	Transitioned bool
}

// PaymentStateMachine owns every payment transition of an order.
// It holds no locks: racing callers are serialized by the repository's conditional update.
type PaymentStateMachine struct {
	repo         ports.OrderRepository
	storeTimeout time.Duration
	metrics      *metrics.Metrics
	log          *logger.Logger
	now          func() time.Time
}

// NewPaymentStateMachine creates a new state machine
func NewPaymentStateMachine(repo ports.OrderRepository, storeTimeout time.Duration, m *metrics.Metrics, log *logger.Logger) *PaymentStateMachine {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &PaymentStateMachine{
		repo:         repo,
		storeTimeout: storeTimeout,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// ApplyPaymentCapture records a captured payment against the order opened for gatewayOrderRef.
// A capture whose amount differs from the order total is rejected and recorded as a discrepancy.
func (sm *PaymentStateMachine) ApplyPaymentCapture(ctx context.Context, source, gatewayOrderRef, gatewayTransactionRef string, capturedAmount int64) (*CaptureResult, error) {
	order, err := sm.repo.GetByGatewayRef(ctx, gatewayOrderRef)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	log := sm.log.WithOrderID(ctx, order.ID)

	if capturedAmount != order.Amounts.Total {
		sm.metrics.AmountMismatch(source)
		log.Error("captured amount does not match order total",
			zap.String("source", source),
			zap.String("gateway_order_ref", gatewayOrderRef),
			zap.String("gateway_transaction_ref", gatewayTransactionRef),
			zap.Int64("expected", order.Amounts.Total),
			zap.Int64("captured", capturedAmount),
		)
		sm.recordDiscrepancy(ctx, order, source, gatewayTransactionRef, capturedAmount)
		return nil, errors.NewAmountMismatch(order.Amounts.Total, capturedAmount)
	}

	if order.PaymentStatus == domain.PaymentStatusPaid || order.PaymentStatus == domain.PaymentStatusRefunded {
		log.Info("payment capture already applied",
			zap.String("source", source),
			zap.String("payment_status", string(order.PaymentStatus)),
		)
		return &CaptureResult{Order: order, AlreadyApplied: true}, nil
	}

	guard, patch := domain.CaptureTransition(gatewayTransactionRef, sm.now())

	writeCtx, cancel := sm.writeContext(ctx)
	defer cancel()

	res, err := sm.repo.ConditionalUpdate(writeCtx, order.ID, guard, patch)
	if err != nil {
		return nil, storeError(writeCtx, err)
	}

	if !res.Applied {
		// lost the race; the winner owns the transition
		log.Info("payment capture applied concurrently", zap.String("source", source))
		return &CaptureResult{Order: res.Current, AlreadyApplied: true}, nil
	}

	sm.metrics.Transition(string(domain.PaymentStatusPaid), source)
	log.Info("payment captured",
		zap.String("source", source),
		zap.String("gateway_transaction_ref", gatewayTransactionRef),
		zap.Int64("amount", capturedAmount),
	)

	return &CaptureResult{Order: res.Current, Transitioned: true}, nil
}

// ApplyPaymentFailure marks the order opened for gatewayOrderRef as failed unless it is already paid
func (sm *PaymentStateMachine) ApplyPaymentFailure(ctx context.Context, source, gatewayOrderRef, reason string) (*FailureResult, error) {
	order, err := sm.repo.GetByGatewayRef(ctx, gatewayOrderRef)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	guard, patch := domain.FailureTransition(reason)
	if !guard.Allows(order.PaymentStatus) {
		return &FailureResult{Order: order}, nil
	}

	writeCtx, cancel := sm.writeContext(ctx)
	defer cancel()

	res, err := sm.repo.ConditionalUpdate(writeCtx, order.ID, guard, patch)
	if err != nil {
		return nil, storeError(writeCtx, err)
	}
	if !res.Applied {
		return &FailureResult{Order: res.Current}, nil
	}

	sm.metrics.Transition(string(domain.PaymentStatusFailed), source)
	sm.log.WithOrderID(ctx, order.ID).Info("payment failed",
		zap.String("source", source),
		zap.String("reason", reason),
	)

	return &FailureResult{Order: res.Current, Transitioned: true}, nil
}

// writeContext detaches the store write from the caller so an accepted write
// is never aborted by a client disconnect or request timeout.
func (sm *PaymentStateMachine) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sm.storeTimeout)
}

func (sm *PaymentStateMachine) recordDiscrepancy(ctx context.Context, order *domain.Order, source, txRef string, captured int64) {
	d := &domain.PaymentDiscrepancy{
		ID:                    uuid.New().String(),
		OrderID:               order.ID,
		GatewayOrderRef:       order.Payment.GatewayOrderRef,
		GatewayTransactionRef: txRef,
		ExpectedAmount:        order.Amounts.Total,
		CapturedAmount:        captured,
		Source:                source,
		DetectedAt:            sm.now().UTC(),
	}

	writeCtx, cancel := sm.writeContext(ctx)
	defer cancel()

	if err := sm.repo.RecordDiscrepancy(writeCtx, d); err != nil {
		sm.log.WithOrderID(ctx, order.ID).Error("failed to record payment discrepancy", zap.Error(err))
	}
}

// storeError turns context expiry into a retryable timeout; AppErrors pass through
func storeError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeout("order store did not respond in time", err)
	}
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	return errors.NewStoreUnavailable("order store unavailable", err)
}
