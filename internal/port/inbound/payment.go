package inbound

import "github.com/gin-gonic/gin"

// PaymentHttpPort defines HTTP handler interface for payment operations.
type PaymentHttpPort interface {
	// InitiatePayment handles POST /payments/initiate
	// Starts (or resumes) a gateway checkout for a booking.
	InitiatePayment(c *gin.Context)

	// VerifyPayment handles POST /payments/verify
	// Checks the transaction with the gateway and settles the payment.
	VerifyPayment(c *gin.Context)

	// GetPayment handles GET /payments/:transaction_id
	GetPayment(c *gin.Context)
}
