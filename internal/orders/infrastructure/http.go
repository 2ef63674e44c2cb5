package infrastructure

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-orders/internal/orders/application"
	"go-orders/internal/orders/domain"
	"go-orders/pkg/errors"
	"go-orders/pkg/middleware"
)

const (
	// SignatureHeader carries the gateway's HMAC of the raw webhook body
	SignatureHeader = "X-Razorpay-Signature"

	maxWebhookBody = 1 << 20

	verifyFailedMessage = "payment verification failed, contact support"
)

// HTTPHandler handles HTTP requests for orders and payments
type HTTPHandler struct {
	useCase    *application.OrderUseCase
	reconciler *application.PaymentReconciler
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.OrderUseCase, reconciler *application.PaymentReconciler) *HTTPHandler {
	return &HTTPHandler{useCase: useCase, reconciler: reconciler}
}

// RegisterRoutes registers the order and payment routes.
// The webhook route is authenticated by its signature alone.
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders", middleware.Principal())
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
	}

	payments := r.Group("/payments", middleware.Principal())
	{
		payments.POST("/verify", h.VerifyPayment)
	}

	r.POST("/webhooks/razorpay", h.Webhook)
}

// CreateOrder handles POST /orders
//
//	@Summary		Place an order
//	@Description	Prices the cart server-side, opens a payment intent and stores a pending order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			X-Principal-ID	header		string				true	"Authenticated customer"
//	@Param			request			body		CreateOrderRequest	true	"Order creation request"
//	@Success		201				{object}	SuccessResponse{data=CheckoutResponse}	"Order created"
//	@Failure		400				{object}	ErrorResponse	"Validation error"
//	@Failure		401				{object}	ErrorResponse	"Missing principal"
//	@Failure		502				{object}	ErrorResponse	"Payment gateway error"
//	@Failure		503				{object}	ErrorResponse	"Order store unavailable"
//	@Router			/api/v1/orders [post]
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	items := make([]domain.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toDomain()
	}

	input := application.CreateOrderInput{
		PrincipalID:     c.GetString(middleware.PrincipalIDKey),
		Items:           items,
		ShippingAddress: req.ShippingAddress.toDomain(),
		Email:           req.Email,
		Phone:           req.Phone,
		PaymentMethod:   req.PaymentMethod,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toDomain()
		input.BillingAddress = &billing
	}

	output, err := h.useCase.CreateOrder(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Data: CheckoutResponse{
			OrderID:         output.OrderID,
			GatewayOrderRef: output.GatewayOrderRef,
			Amount:          output.Amount,
			Currency:        output.Currency,
			KeyID:           output.KeyID,
		},
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// GetOrder handles GET /orders/:id
//
//	@Summary		Get an order
//	@Tags			orders
//	@Produce		json
//	@Param			X-Principal-ID	header		string	true	"Authenticated customer"
//	@Param			id				path		string	true	"Order ID"
//	@Success		200				{object}	SuccessResponse{data=OrderResponse}
//	@Failure		404				{object}	ErrorResponse	"Order not found"
//	@Router			/api/v1/orders/{id} [get]
func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.useCase.GetOrder(c.Request.Context(), c.GetString(middleware.PrincipalIDKey), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data:    toOrderResponse(order),
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// ListOrders handles GET /orders
//
//	@Summary		List my orders
//	@Tags			orders
//	@Produce		json
//	@Param			X-Principal-ID	header		string	true	"Authenticated customer"
//	@Success		200				{object}	SuccessResponse{data=[]OrderResponse}
//	@Router			/api/v1/orders [get]
func (h *HTTPHandler) ListOrders(c *gin.Context) {
	orders, err := h.useCase.ListOrders(c.Request.Context(), c.GetString(middleware.PrincipalIDKey))
	if err != nil {
		_ = c.Error(err)
		return
	}

	data := make([]OrderResponse, len(orders))
	for i, o := range orders {
		data[i] = toOrderResponse(o)
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data:    data,
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// VerifyPayment handles POST /payments/verify
//
//	@Summary		Confirm a payment from the checkout client
//	@Description	Checks the gateway proof and marks the order paid. Safe to call more than once.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Principal-ID	header		string					true	"Authenticated customer"
//	@Param			request			body		VerifyPaymentRequest	true	"Gateway references and proof"
//	@Success		200				{object}	SuccessResponse{data=VerifyPaymentResponse}
//	@Failure		400				{object}	ErrorResponse	"Verification failed"
//	@Failure		403				{object}	ErrorResponse	"Verification failed"
//	@Failure		422				{object}	ErrorResponse	"Verification failed"
//	@Failure		503				{object}	ErrorResponse	"Verification failed"
//	@Router			/api/v1/payments/verify [post]
func (h *HTTPHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(verifyFailed(errors.NewValidation("invalid request body", nil)))
		return
	}

	output, err := h.reconciler.VerifyPayment(c.Request.Context(), application.VerifyPaymentInput{
		PrincipalID:           c.GetString(middleware.PrincipalIDKey),
		GatewayOrderRef:       req.GatewayOrderRef,
		GatewayTransactionRef: req.GatewayTransactionRef,
		Proof:                 req.Proof,
	})
	if err != nil {
		_ = c.Error(verifyFailed(err))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: VerifyPaymentResponse{
			Order:          toOrderResponse(output.Order),
			AlreadyApplied: output.AlreadyApplied,
		},
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// Webhook handles POST /webhooks/razorpay
//
//	@Summary		Payment gateway webhook
//	@Description	Authenticated by the HMAC signature of the raw body. Any evaluated event is acknowledged with 200.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Razorpay-Signature	header		string	true	"Hex HMAC-SHA256 of the raw body"
//	@Success		200						{object}	WebhookResponse
//	@Failure		400						{object}	ErrorResponse	"Malformed body, do not retry"
//	@Failure		401						{object}	ErrorResponse	"Invalid signature, do not retry"
//	@Failure		413						{object}	ErrorResponse	"Body too large, do not retry"
//	@Failure		422						{object}	ErrorResponse	"Amount mismatch, do not retry"
//	@Failure		503						{object}	ErrorResponse	"Store unavailable, retry"
//	@Failure		504						{object}	ErrorResponse	"Timed out, retry"
//	@Router			/api/v1/webhooks/razorpay [post]
func (h *HTTPHandler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		if tooLarge, ok := err.(*http.MaxBytesError); ok {
			_ = c.Error(errors.NewPayloadTooLarge(fmt.Sprintf("webhook body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		_ = c.Error(errors.NewValidation("unreadable webhook body", nil))
		return
	}

	outcome, err := h.reconciler.ProcessWebhook(c.Request.Context(), raw, c.GetHeader(SignatureHeader))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		Status:  outcome.Status,
		Event:   outcome.Event,
		OrderID: outcome.OrderID,
	})
}

// verifyFailed keeps the status class of err but hides its detail from the purchaser
func verifyFailed(err error) error {
	code := errors.CodeInternal
	if appErr, ok := err.(*errors.AppError); ok {
		code = appErr.Code
	}
	return &errors.AppError{
		Code:    code,
		Message: verifyFailedMessage,
		Err:     err,
	}
}
