package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-orders/internal/orders/adapters"
	"go-orders/internal/orders/application"
	"go-orders/internal/orders/domain"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
	"go-orders/pkg/middleware"
	"go-orders/pkg/signature"
)

const (
	keySecret     = "key_secret"
	webhookSecret = "whsec_test"
)

type stubGateway struct {
	ref string
}

func (g *stubGateway) Name() string  { return "razorpay" }
func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*ports.PaymentIntent, error) {
	return &ports.PaymentIntent{GatewayOrderRef: g.ref, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

type testServer struct {
	router     *gin.Engine
	repo       *adapters.MemoryOrderRepository
	useCase    *application.OrderUseCase
	reconciler *application.PaymentReconciler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	repo := adapters.NewMemoryOrderRepository()
	pricing, err := application.NewPricing("INR", "0", 0, 0)
	require.NoError(t, err)

	useCase := application.NewOrderUseCase(repo, &stubGateway{ref: "gw_1"}, nil, nil, nil, pricing, nil, log)
	machine := application.NewPaymentStateMachine(repo, time.Second, nil, log)
	reconciler := application.NewPaymentReconciler(machine, repo, nil, nil,
		application.ReconcilerSecrets{KeySecret: keySecret, WebhookSecret: webhookSecret}, nil, log)

	router := gin.New()
	router.Use(middleware.TraceID(), middleware.ErrorHandler(log))
	NewHTTPHandler(useCase, reconciler).RegisterRoutes(router.Group("/api/v1"))

	return &testServer{router: router, repo: repo, useCase: useCase, reconciler: reconciler}
}

func (s *testServer) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) placeOrder(t *testing.T) CheckoutResponse {
	t.Helper()

	body := `{
		"items": [{"product_ref": "sku-1", "name": "Tee", "unit_price": 1250, "quantity": 2}],
		"shipping_address": {"name": "Asha Rao", "line1": "12 MG Road", "city": "Bengaluru", "postal_code": "560001", "country": "IN"},
		"email": "asha@example.com",
		"phone": "+919800000001"
	}`
	w := s.do(http.MethodPost, "/api/v1/orders", []byte(body), map[string]string{middleware.PrincipalHeader: "user-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func captureBody(gatewayRef string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":%q,"amount":%d,"currency":"INR","status":"captured"}}}}`, gatewayRef, amount))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestCreateOrder_ReturnsCheckout(t *testing.T) {
	s := newTestServer(t)

	checkout := s.placeOrder(t)

	assert.NotEmpty(t, checkout.OrderID)
	assert.Equal(t, "gw_1", checkout.GatewayOrderRef)
	assert.Equal(t, int64(2500), checkout.Amount)
	assert.Equal(t, "INR", checkout.Currency)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
}

func TestCreateOrder_RequiresPrincipal(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/orders", []byte(`{}`), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/orders", []byte(`{"items": []}`), map[string]string{middleware.PrincipalHeader: "user-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeValidation, decodeError(t, w).Error.Code)
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)

	own := s.do(http.MethodGet, "/api/v1/orders/"+checkout.OrderID, nil, map[string]string{middleware.PrincipalHeader: "user-1"})
	other := s.do(http.MethodGet, "/api/v1/orders/"+checkout.OrderID, nil, map[string]string{middleware.PrincipalHeader: "user-2"})

	assert.Equal(t, http.StatusOK, own.Code)
	assert.Equal(t, http.StatusNotFound, other.Code)

	var resp struct {
		Data OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(own.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Data.PaymentStatus)
	assert.Equal(t, "placed", resp.Data.Status)
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t)
	s.placeOrder(t)

	w := s.do(http.MethodGet, "/api/v1/orders", nil, map[string]string{middleware.PrincipalHeader: "user-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestWebhook_CaptureAndRedelivery(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)
	body := captureBody(checkout.GatewayOrderRef, checkout.Amount)
	headers := map[string]string{SignatureHeader: signature.Sign(body, webhookSecret)}

	first := s.do(http.MethodPost, "/api/v1/webhooks/razorpay", body, headers)
	second := s.do(http.MethodPost, "/api/v1/webhooks/razorpay", body, headers)

	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var a, b WebhookResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, application.OutcomeApplied, a.Status)
	assert.Equal(t, application.OutcomeAlreadyApplied, b.Status)

	order, err := s.repo.GetByID(context.Background(), checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
}

func TestWebhook_OversizedBody(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)

	body := append(captureBody(checkout.GatewayOrderRef, checkout.Amount), bytes.Repeat([]byte(" "), maxWebhookBody)...)
	headers := map[string]string{SignatureHeader: signature.Sign(body, webhookSecret)}

	w := s.do(http.MethodPost, "/api/v1/webhooks/razorpay", body, headers)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, errors.CodeTooLarge, decodeError(t, w).Error.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))

	order, err := s.repo.GetByID(context.Background(), checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
}

func TestWebhook_StatusMapping(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)

	mismatch := captureBody(checkout.GatewayOrderRef, checkout.Amount+100)
	unknown := captureBody("gw_unknown", 100)
	ignored := []byte(`{"event":"refund.processed","payload":{}}`)
	malformed := []byte(`{"event":`)

	tests := []struct {
		name   string
		body   []byte
		sig    string
		status int
		check  func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:   "bad signature",
			body:   captureBody(checkout.GatewayOrderRef, checkout.Amount),
			sig:    signature.Sign(mismatch, webhookSecret),
			status: http.StatusUnauthorized,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, errors.CodeInvalidSignature, decodeError(t, w).Error.Code)
			},
		},
		{
			name:   "amount mismatch",
			body:   mismatch,
			sig:    signature.Sign(mismatch, webhookSecret),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown order acknowledged",
			body:   unknown,
			sig:    signature.Sign(unknown, webhookSecret),
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp WebhookResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, application.OutcomeNotFound, resp.Status)
			},
		},
		{
			name:   "unknown event ignored",
			body:   ignored,
			sig:    signature.Sign(ignored, webhookSecret),
			status: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp WebhookResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, application.OutcomeIgnored, resp.Status)
			},
		},
		{
			name:   "malformed body",
			body:   malformed,
			sig:    signature.Sign(malformed, webhookSecret),
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/webhooks/razorpay", tt.body, map[string]string{SignatureHeader: tt.sig})

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}

	order, err := s.repo.GetByID(context.Background(), checkout.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Len(t, s.repo.Discrepancies(), 1)
}

func TestVerifyPayment(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)
	proof := signature.Sign(signature.ProofPayload(checkout.GatewayOrderRef, "pay_1"), keySecret)
	body := fmt.Sprintf(`{"gateway_order_ref":%q,"gateway_transaction_ref":"pay_1","proof":%q}`, checkout.GatewayOrderRef, proof)

	w := s.do(http.MethodPost, "/api/v1/payments/verify", []byte(body), map[string]string{middleware.PrincipalHeader: "user-1"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data VerifyPaymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "paid", resp.Data.Order.PaymentStatus)
	assert.Equal(t, "confirmed", resp.Data.Order.Status)
	assert.False(t, resp.Data.AlreadyApplied)
	assert.NotEmpty(t, resp.Data.Order.PaymentDate)
}

func TestVerifyPayment_GenericFailure(t *testing.T) {
	s := newTestServer(t)
	checkout := s.placeOrder(t)
	body := fmt.Sprintf(`{"gateway_order_ref":%q,"gateway_transaction_ref":"pay_1","proof":"deadbeef"}`, checkout.GatewayOrderRef)

	w := s.do(http.MethodPost, "/api/v1/payments/verify", []byte(body), map[string]string{middleware.PrincipalHeader: "user-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, errors.CodeInvalidProof, resp.Error.Code)
	assert.Equal(t, "payment verification failed, contact support", resp.Error.Message)
}
