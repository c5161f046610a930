package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid returns true if the status is a known value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is a terminal state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusCompleted || target == PaymentStatusFailed
	case PaymentStatusCompleted:
		return target == PaymentStatusRefunded
	default:
		return false
	}
}

// GatewayStatus is the provider-neutral outcome of a gateway verification.
type GatewayStatus string

const (
	GatewayStatusSucceeded GatewayStatus = "succeeded"
	GatewayStatusFailed    GatewayStatus = "failed"
	GatewayStatusUnknown   GatewayStatus = "unknown"
)

// Payment represents a payment attempt for a booking.
type Payment struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID         uint64          `json:"booking_id" gorm:"not null;uniqueIndex"`
	UserID            uint64          `json:"user_id" gorm:"not null;index"`
	TransactionID     string          `json:"transaction_id" gorm:"size:100;not null;uniqueIndex"`
	Provider          string          `json:"provider" gorm:"size:32;not null"`
	ProviderReference string          `json:"provider_reference,omitempty" gorm:"size:255"`
	CheckoutURL       string          `json:"checkout_url,omitempty" gorm:"type:text"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null"`
	Status            PaymentStatus   `json:"status" gorm:"size:16;not null;default:pending;index"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	FailedAt          *time.Time      `json:"failed_at,omitempty"`
	RefundedAt        *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at" gorm:"<-:create;not null"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Payment) TableName() string {
	return "payments"
}

// --- Request/Response DTOs ---

// InitiatePaymentRequest represents a request to start a payment for a booking.
type InitiatePaymentRequest struct {
	BookingID uint64 `json:"booking_id" binding:"required"`
}

// InitiatePaymentResponse is returned after a checkout has been created or resumed.
type InitiatePaymentResponse struct {
	Message       string `json:"message"`
	CheckoutURL   string `json:"checkout_url"`
	TransactionID string `json:"transaction_id"`
}

// VerifyPaymentRequest represents a request to verify a payment with the gateway.
type VerifyPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// VerifyPaymentResponse reports the payment status after verification.
// Resolved is false while the gateway has not reported a definitive outcome.
type VerifyPaymentResponse struct {
	Message       string        `json:"message"`
	TransactionID string        `json:"transaction_id"`
	Status        PaymentStatus `json:"status"`
	Resolved      bool          `json:"resolved"`
}

// PaymentResponse is the public view of a payment.
type PaymentResponse struct {
	ID            uuid.UUID     `json:"id"`
	BookingID     uint64        `json:"booking_id"`
	TransactionID string        `json:"transaction_id"`
	Provider      string        `json:"provider"`
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	CheckoutURL   string        `json:"checkout_url,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// ToResponse converts a payment to its public view.
func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		TransactionID: p.TransactionID,
		Provider:      p.Provider,
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
	if p.Status == PaymentStatusPending {
		resp.CheckoutURL = p.CheckoutURL
	}
	return resp
}
