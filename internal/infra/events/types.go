package events

import (
	"github.com/google/uuid"
)

const (
	TypePaymentCompleted = "payment.completed"
	TypePaymentFailed    = "payment.failed"
	TypePaymentRefunded  = "payment.refunded"
)

// PaymentStateChangedEvent is published whenever a payment leaves a status.
type PaymentStateChangedEvent struct {
	BaseEvent
	PaymentID     uuid.UUID `json:"payment_id"`
	BookingID     uint64    `json:"booking_id"`
	UserID        uint64    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Provider      string    `json:"provider"`
}

// NewPaymentStateChangedEvent builds a state change event for the payment.
func NewPaymentStateChangedEvent(eventType string, paymentID uuid.UUID) *PaymentStateChangedEvent {
	return &PaymentStateChangedEvent{
		BaseEvent: NewBaseEvent(eventType, paymentID),
		PaymentID: paymentID,
	}
}
