package model

import "time"

// PaymentNotification is the queued message sent to the payer after a completed payment.
type PaymentNotification struct {
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name,omitempty"`
	ListingTitle   string    `json:"listing_title"`
	TransactionID  string    `json:"transaction_id"`
	Amount         string    `json:"amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Email is an outgoing email message.
type Email struct {
	To      string
	Subject string
	Body    string
}
