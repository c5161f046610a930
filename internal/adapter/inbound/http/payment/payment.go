package paymenthttp

import (
	"net/http"

	"github.com/alxtravel/server/internal/domain/payment"
	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/inbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var _ inbound.PaymentHttpPort = (*PaymentHandler)(nil)

// PaymentHandler handles payment HTTP requests.
type PaymentHandler struct {
	domain payment.PaymentDomain
	logger *zap.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(domain payment.PaymentDomain, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{domain: domain, logger: logger.Named("payment-http")}
}

// RegisterRoutes registers payment routes behind authMiddleware.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware ...gin.HandlerFunc) {
	payments := r.Group("/payments")
	payments.Use(authMiddleware...)
	{
		payments.POST("/initiate", h.InitiatePayment)
		payments.POST("/verify", h.VerifyPayment)
		payments.GET("/:transaction_id", h.GetPayment)
	}
}

// InitiatePayment handles POST /payments/initiate.
//
//	@Summary		Initiate payment
//	@Description	Creates a gateway checkout for a booking, or returns the pending one
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string							false	"Idempotency key"
//	@Param			request			body		model.InitiatePaymentRequest	true	"Booking to pay for"
//	@Success		201				{object}	model.InitiatePaymentResponse
//	@Success		200				{object}	model.InitiatePaymentResponse	"Pending checkout resumed"
//	@Failure		400				{object}	model.ErrorResponse
//	@Failure		401				{object}	model.ErrorResponse
//	@Failure		403				{object}	model.ErrorResponse
//	@Failure		404				{object}	model.ErrorResponse
//	@Failure		409				{object}	model.ErrorResponse
//	@Failure		502				{object}	model.ErrorResponse
//	@Failure		504				{object}	model.ErrorResponse
//	@Router			/payments/initiate [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		h.handleError(c, apperrors.Unauthorized(""))
		return
	}

	var req model.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, payment.ErrMissingBookingID)
		return
	}

	out, err := h.domain.Initiate(c.Request.Context(), &payment.InitiateInput{
		BookingID: req.BookingID,
		UserID:    userID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	status, message := http.StatusCreated, "Payment initiated"
	if out.Resumed {
		status, message = http.StatusOK, "Payment already initiated"
	}
	c.JSON(status, model.InitiatePaymentResponse{
		Message:       message,
		CheckoutURL:   out.CheckoutURL,
		TransactionID: out.TransactionID,
	})
}

// VerifyPayment handles POST /payments/verify.
//
//	@Summary		Verify payment
//	@Description	Checks the transaction with the gateway and settles the payment
//	@Tags			Payment
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		model.VerifyPaymentRequest	true	"Transaction to verify"
//	@Success		200		{object}	model.VerifyPaymentResponse
//	@Failure		400		{object}	model.ErrorResponse
//	@Failure		401		{object}	model.ErrorResponse
//	@Failure		403		{object}	model.ErrorResponse
//	@Failure		404		{object}	model.ErrorResponse
//	@Failure		502		{object}	model.ErrorResponse
//	@Failure		504		{object}	model.ErrorResponse
//	@Router			/payments/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		h.handleError(c, apperrors.Unauthorized(""))
		return
	}

	var req model.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, payment.ErrMissingTransactionID)
		return
	}

	if _, err := h.ownedPayment(c, req.TransactionID, userID); err != nil {
		h.handleError(c, err)
		return
	}

	out, err := h.domain.Verify(c.Request.Context(), req.TransactionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.VerifyPaymentResponse{
		Message:       verifyMessage(out),
		TransactionID: out.TransactionID,
		Status:        out.Status,
		Resolved:      out.Resolved,
	})
}

// GetPayment handles GET /payments/:transaction_id.
//
//	@Summary		Get payment
//	@Description	Returns the caller's payment by transaction reference
//	@Tags			Payment
//	@Produce		json
//	@Security		BearerAuth
//	@Param			transaction_id	path		string	true	"Transaction reference"
//	@Success		200				{object}	model.PaymentResponse
//	@Failure		401				{object}	model.ErrorResponse
//	@Failure		403				{object}	model.ErrorResponse
//	@Failure		404				{object}	model.ErrorResponse
//	@Router			/payments/{transaction_id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		h.handleError(c, apperrors.Unauthorized(""))
		return
	}

	p, err := h.ownedPayment(c, c.Param("transaction_id"), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, p.ToResponse())
}

// ownedPayment loads the payment and checks it belongs to userID.
func (h *PaymentHandler) ownedPayment(c *gin.Context, transactionID string, userID uint64) (*model.Payment, error) {
	p, err := h.domain.GetPayment(c.Request.Context(), transactionID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, payment.ErrForbidden
	}
	return p, nil
}

func verifyMessage(out *payment.VerifyOutput) string {
	switch out.Status {
	case model.PaymentStatusCompleted:
		return "Payment completed"
	case model.PaymentStatusFailed:
		return "Payment failed"
	case model.PaymentStatusRefunded:
		return "Payment refunded"
	default:
		return "Payment is still pending"
	}
}
