package application

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"go-orders/internal/notifications"
	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
	"go-orders/pkg/metrics"
	"go-orders/pkg/signature"
)

// Webhook event types handled by the reconciler
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"
)

// Webhook outcome statuses
const (
	OutcomeApplied        = "applied"
	OutcomeAlreadyApplied = "already_applied"
	OutcomeIgnored        = "ignored"
	OutcomeNotFound       = "not_found"
	OutcomeRejected       = "rejected"
)

const defaultFailureReason = "payment failed at gateway"

// ReconcilerSecrets are the shared secrets used to authenticate payment confirmations
type ReconcilerSecrets struct {
	// KeySecret signs the client checkout proof
	KeySecret string
	// WebhookSecret signs webhook bodies
	WebhookSecret string
}

// PaymentReconciler is the entry point for both payment confirmation paths.
// It holds no locks and makes no ordering assumption between the two paths.
type PaymentReconciler struct {
	machine   *PaymentStateMachine
	repo      ports.OrderRepository
	publisher ports.EventPublisher
	notifier  ports.Notifier
	secrets   ReconcilerSecrets
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewPaymentReconciler creates a new reconciler; publisher and notifier are optional
func NewPaymentReconciler(
	machine *PaymentStateMachine,
	repo ports.OrderRepository,
	publisher ports.EventPublisher,
	notifier ports.Notifier,
	secrets ReconcilerSecrets,
	m *metrics.Metrics,
	log *logger.Logger,
) *PaymentReconciler {
	return &PaymentReconciler{
		machine:   machine,
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		secrets:   secrets,
		metrics:   m,
		log:       log,
	}
}

// VerifyPaymentInput is sent by the checkout client once the payment UI reports success
type VerifyPaymentInput struct {
	PrincipalID           string
	GatewayOrderRef       string
	GatewayTransactionRef string
	Proof                 string
}

// VerifyPaymentOutput reports the order state after verification
type VerifyPaymentOutput struct {
	Order          *domain.Order
	Transitioned   bool
	AlreadyApplied bool
}

// VerifyPayment checks the client proof and applies the capture for the caller's order.
// The proof is checked before the order store is touched.
func (r *PaymentReconciler) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentOutput, error) {
	if input.GatewayOrderRef == "" || input.GatewayTransactionRef == "" || input.Proof == "" {
		return nil, errors.NewValidation("gateway order ref, transaction ref and proof are required", nil)
	}

	if !signature.VerifyPaymentProof(input.GatewayOrderRef, input.GatewayTransactionRef, input.Proof, r.secrets.KeySecret) {
		r.metrics.SignatureFailure(SourceClient)
		r.log.WithContext(ctx).Warn("payment proof rejected, possible tampering",
			zap.String("principal_id", input.PrincipalID),
			zap.String("gateway_order_ref", input.GatewayOrderRef),
			zap.String("gateway_transaction_ref", input.GatewayTransactionRef),
		)
		return nil, errors.NewInvalidProof("payment proof does not match")
	}

	order, err := r.repo.GetByGatewayRef(ctx, input.GatewayOrderRef)
	if err != nil {
		return nil, storeError(ctx, err)
	}
	if !order.OwnedBy(input.PrincipalID) {
		r.log.WithOrderID(ctx, order.ID).Warn("payment verification for another customer's order",
			zap.String("principal_id", input.PrincipalID),
		)
		return nil, domain.ErrNotOrderOwner
	}

	// the client never asserts an amount; a valid proof confirms the intent as opened
	res, err := r.machine.ApplyPaymentCapture(ctx, SourceClient, input.GatewayOrderRef, input.GatewayTransactionRef, order.Amounts.Total)
	if err != nil {
		return nil, err
	}

	if res.Transitioned {
		r.afterCapture(ctx, res.Order)
	}

	return &VerifyPaymentOutput{
		Order:          res.Order,
		Transitioned:   res.Transitioned,
		AlreadyApplied: res.AlreadyApplied,
	}, nil
}

// WebhookEvent is the gateway's webhook envelope
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

// WebhookPayload carries the entities attached to a webhook event
type WebhookPayload struct {
	Payment struct {
		Entity PaymentEntity `json:"entity"`
	} `json:"payment"`
}

// PaymentEntity is the gateway's payment object
type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

// WebhookOutcome is acknowledged back to the gateway
type WebhookOutcome struct {
	Event   string `json:"event"`
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
}

// ProcessWebhook authenticates rawBody against its signature and dispatches on the event type.
// Unknown order references and unrecognized events are acknowledged without error.
func (r *PaymentReconciler) ProcessWebhook(ctx context.Context, rawBody []byte, providedSignature string) (*WebhookOutcome, error) {
	start := time.Now()

	if !signature.Verify(rawBody, providedSignature, r.secrets.WebhookSecret) {
		r.metrics.SignatureFailure(SourceWebhook)
		r.log.WithContext(ctx).Warn("webhook signature rejected, possible tampering",
			zap.Int("body_bytes", len(rawBody)),
		)
		return nil, errors.NewInvalidSignature("webhook signature does not match")
	}

	var event WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, errors.NewValidation("malformed webhook body", nil)
	}
	r.metrics.WebhookReceived(event.Event)

	outcome, err := r.dispatch(ctx, event)

	status := OutcomeRejected
	if outcome != nil {
		status = outcome.Status
	}
	r.metrics.WebhookOutcome(event.Event, status, time.Since(start).Seconds())

	return outcome, err
}

func (r *PaymentReconciler) dispatch(ctx context.Context, event WebhookEvent) (*WebhookOutcome, error) {
	entity := event.Payload.Payment.Entity
	log := r.log.WithContext(ctx).With(
		zap.String("event", event.Event),
		zap.String("gateway_order_ref", entity.OrderID),
		zap.String("gateway_transaction_ref", entity.ID),
	)

	switch event.Event {
	case EventPaymentCaptured, EventOrderPaid:
		if entity.OrderID == "" {
			return nil, errors.NewValidation("webhook payment entity has no order_id", nil)
		}

		res, err := r.machine.ApplyPaymentCapture(ctx, SourceWebhook, entity.OrderID, entity.ID, entity.Amount)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				log.Warn("webhook for unknown order reference")
				return &WebhookOutcome{Event: event.Event, Status: OutcomeNotFound}, nil
			}
			return nil, err
		}

		if !res.Transitioned {
			return &WebhookOutcome{Event: event.Event, Status: OutcomeAlreadyApplied, OrderID: res.Order.ID}, nil
		}
		r.afterCapture(ctx, res.Order)
		return &WebhookOutcome{Event: event.Event, Status: OutcomeApplied, OrderID: res.Order.ID}, nil

	case EventPaymentFailed:
		if entity.OrderID == "" {
			return nil, errors.NewValidation("webhook payment entity has no order_id", nil)
		}

		reason := entity.ErrorDescription
		if reason == "" {
			reason = defaultFailureReason
		}

		res, err := r.machine.ApplyPaymentFailure(ctx, SourceWebhook, entity.OrderID, reason)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				log.Warn("webhook for unknown order reference")
				return &WebhookOutcome{Event: event.Event, Status: OutcomeNotFound}, nil
			}
			return nil, err
		}

		if !res.Transitioned {
			return &WebhookOutcome{Event: event.Event, Status: OutcomeAlreadyApplied, OrderID: res.Order.ID}, nil
		}
		r.afterFailure(ctx, res.Order)
		return &WebhookOutcome{Event: event.Event, Status: OutcomeApplied, OrderID: res.Order.ID}, nil

	default:
		log.Info("ignoring unhandled webhook event")
		return &WebhookOutcome{Event: event.Event, Status: OutcomeIgnored}, nil
	}
}

// ApplyPaymentFailure marks a payment failed on behalf of an operator
func (r *PaymentReconciler) ApplyPaymentFailure(ctx context.Context, gatewayOrderRef, reason string) (*FailureResult, error) {
	if gatewayOrderRef == "" {
		return nil, errors.NewValidation("gateway order ref is required", nil)
	}
	if reason == "" {
		reason = defaultFailureReason
	}

	res, err := r.machine.ApplyPaymentFailure(ctx, SourceOps, gatewayOrderRef, reason)
	if err != nil {
		return nil, err
	}
	if res.Transitioned {
		r.afterFailure(ctx, res.Order)
	}
	return res, nil
}

// afterCapture runs only for the caller that performed the transition.
// The write is already durable, so side effects outlive the request.
func (r *PaymentReconciler) afterCapture(ctx context.Context, order *domain.Order) {
	ctx = context.WithoutCancel(ctx)
	if r.publisher != nil {
		if err := r.publisher.PublishPaymentConfirmed(ctx, order); err != nil {
			r.log.WithOrderID(ctx, order.ID).Warn("failed to publish payment confirmed event", zap.Error(err))
		}
	}
	if r.notifier != nil {
		r.notifier.Notify(ctx, notifications.PaymentConfirmed(order))
	}
}

func (r *PaymentReconciler) afterFailure(ctx context.Context, order *domain.Order) {
	ctx = context.WithoutCancel(ctx)
	if r.publisher != nil {
		if err := r.publisher.PublishPaymentFailed(ctx, order); err != nil {
			r.log.WithOrderID(ctx, order.ID).Warn("failed to publish payment failed event", zap.Error(err))
		}
	}
	if r.notifier != nil {
		r.notifier.Notify(ctx, notifications.PaymentFailed(order))
	}
}
