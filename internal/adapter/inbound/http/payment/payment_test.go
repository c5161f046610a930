package paymenthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alxtravel/server/internal/domain/payment"
	"github.com/alxtravel/server/internal/model"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentDomain struct {
	mock.Mock
}

func (m *MockPaymentDomain) Initiate(ctx context.Context, in *payment.InitiateInput) (*payment.InitiateOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateOutput), args.Error(1)
}

func (m *MockPaymentDomain) Verify(ctx context.Context, transactionID string) (*payment.VerifyOutput, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerifyOutput), args.Error(1)
}

func (m *MockPaymentDomain) GetPayment(ctx context.Context, transactionID string) (*model.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentDomain) MarkRefunded(ctx context.Context, transactionID string) (*model.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

// setupRouter mounts the handler with a stub auth middleware that
// authenticates as userID (0 leaves the request anonymous).
func setupRouter(domain payment.PaymentDomain, userID uint64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := func(c *gin.Context) {
		if userID != 0 {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}
	NewPaymentHandler(domain, nil).RegisterRoutes(r.Group("/api/v1"), auth)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestInitiatePayment(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("Initiate", mock.Anything, &payment.InitiateInput{BookingID: 7, UserID: 3}).
			Return(&payment.InitiateOutput{CheckoutURL: "https://checkout/x", TransactionID: "booking_7-3"}, nil)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/initiate", gin.H{"booking_id": 7})

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp model.InitiatePaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout/x", resp.CheckoutURL)
		assert.Equal(t, "booking_7-3", resp.TransactionID)
		domain.AssertExpectations(t)
	})

	t.Run("resumed returns 200", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("Initiate", mock.Anything, mock.Anything).
			Return(&payment.InitiateOutput{CheckoutURL: "https://checkout/x", TransactionID: "booking_7-3", Resumed: true}, nil)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/initiate", gin.H{"booking_id": 7})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing booking id", func(t *testing.T) {
		domain := new(MockPaymentDomain)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/initiate", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w).Code)
		domain.AssertNotCalled(t, "Initiate", mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := doJSON(setupRouter(new(MockPaymentDomain), 0), http.MethodPost, "/api/v1/payments/initiate", gin.H{"booking_id": 7})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"booking not found", payment.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{"not owner", payment.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"in progress", payment.ErrInitiationInProgress, http.StatusConflict, "conflict"},
		{"gateway timeout", apperrors.NewGatewayError("chapa", "initialize", context.DeadlineExceeded), http.StatusGatewayTimeout, "gateway_timeout"},
		{"gateway status", &apperrors.GatewayError{Provider: "chapa", Op: "initialize", Reason: apperrors.ReasonStatus, StatusCode: 400}, http.StatusBadGateway, "gateway_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain := new(MockPaymentDomain)
			domain.On("Initiate", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/initiate", gin.H{"booking_id": 7})

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, decodeError(t, w).Code)
		})
	}
}

func TestVerifyPayment(t *testing.T) {
	owned := &model.Payment{TransactionID: "booking_7-3", UserID: 3, Status: model.PaymentStatusPending}

	t.Run("completed", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "booking_7-3").Return(owned, nil)
		domain.On("Verify", mock.Anything, "booking_7-3").
			Return(&payment.VerifyOutput{TransactionID: "booking_7-3", Status: model.PaymentStatusCompleted, Resolved: true}, nil)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/verify", gin.H{"transaction_id": "booking_7-3"})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp model.VerifyPaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.PaymentStatusCompleted, resp.Status)
		assert.True(t, resp.Resolved)
		assert.Equal(t, "Payment completed", resp.Message)
	})

	t.Run("still pending", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "booking_7-3").Return(owned, nil)
		domain.On("Verify", mock.Anything, "booking_7-3").
			Return(&payment.VerifyOutput{TransactionID: "booking_7-3", Status: model.PaymentStatusPending}, nil)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/verify", gin.H{"transaction_id": "booking_7-3"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "still pending")
	})

	t.Run("other user's payment", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "booking_7-3").Return(owned, nil)

		w := doJSON(setupRouter(domain, 4), http.MethodPost, "/api/v1/payments/verify", gin.H{"transaction_id": "booking_7-3"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		domain.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "nope").Return(nil, payment.ErrPaymentNotFound)

		w := doJSON(setupRouter(domain, 3), http.MethodPost, "/api/v1/payments/verify", gin.H{"transaction_id": "nope"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing transaction id", func(t *testing.T) {
		w := doJSON(setupRouter(new(MockPaymentDomain), 3), http.MethodPost, "/api/v1/payments/verify", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetPayment(t *testing.T) {
	p := &model.Payment{TransactionID: "booking_7-3", BookingID: 7, UserID: 3, Status: model.PaymentStatusCompleted, Provider: "chapa"}

	t.Run("owner", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "booking_7-3").Return(p, nil)

		w := doJSON(setupRouter(domain, 3), http.MethodGet, "/api/v1/payments/booking_7-3", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp model.PaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint64(7), resp.BookingID)
		assert.Equal(t, model.PaymentStatusCompleted, resp.Status)
	})

	t.Run("not owner", func(t *testing.T) {
		domain := new(MockPaymentDomain)
		domain.On("GetPayment", mock.Anything, "booking_7-3").Return(p, nil)

		w := doJSON(setupRouter(domain, 9), http.MethodGet, "/api/v1/payments/booking_7-3", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
