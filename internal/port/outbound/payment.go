package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRecordExists is returned by Create when a unique key is already taken.
var ErrRecordExists = errors.New("record already exists")

// PaymentDatabasePort defines payment persistence operations.
type PaymentDatabasePort interface {
	// Create creates a new payment record.
	// Returns ErrRecordExists if the booking or transaction id already has a payment.
	Create(ctx context.Context, payment *model.Payment) error

	// FindByTransactionID finds a payment by transaction reference.
	// Returns nil, nil when no payment matches.
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)

	// FindByBookingID finds the payment for a booking.
	// Returns nil, nil when no payment matches.
	FindByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error)

	// TransitionStatus moves a payment from one status to another if, and only if,
	// it is still in the expected status. Returns true when this call made the change.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) (bool, error)

	// ListPending returns pending payments created before the cutoff, oldest first.
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Payment, error)
}

// BookingReaderPort reads bookings owned by the booking service.
type BookingReaderPort interface {
	// GetBooking returns booking, listing and payer details.
	// Returns nil, nil when the booking does not exist.
	GetBooking(ctx context.Context, bookingID uint64) (*model.BookingInfo, error)
}

// InitializeRequest is a provider-neutral checkout request.
type InitializeRequest struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	Payer       model.Payer
	Title       string
	Description string
	Metadata    map[string]string
}

// InitializeResult is the outcome of a successful checkout initialization.
type InitializeResult struct {
	CheckoutURL       string
	ProviderReference string
}

// VerifyRequest identifies a transaction to verify.
type VerifyRequest struct {
	TxRef             string
	ProviderReference string
}

// GatewayPort defines a payment gateway client.
// Implementations never retry and report failures as *errors.GatewayError.
type GatewayPort interface {
	// Name returns the provider name.
	Name() string

	// Initialize creates a hosted checkout for a transaction.
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error)

	// Verify queries the provider for the transaction outcome.
	Verify(ctx context.Context, req *VerifyRequest) (model.GatewayStatus, error)
}

// LockerPort provides short-lived named locks.
type LockerPort interface {
	// Acquire takes the lock for ttl. ok is false when another holder owns it.
	// release must be called by the owner once the protected work is done.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
