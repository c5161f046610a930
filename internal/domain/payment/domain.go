package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alxtravel/server/internal/infra/events"
	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentDomain defines payment domain service interface.
type PaymentDomain interface {
	// Initiate starts a gateway checkout for a booking, or resumes the pending one.
	Initiate(ctx context.Context, in *InitiateInput) (*InitiateOutput, error)

	// Verify asks the gateway for the outcome of a transaction and settles the payment.
	Verify(ctx context.Context, transactionID string) (*VerifyOutput, error)

	// GetPayment returns a payment by transaction reference.
	GetPayment(ctx context.Context, transactionID string) (*model.Payment, error)

	// MarkRefunded records that a completed payment was refunded outside this service.
	MarkRefunded(ctx context.Context, transactionID string) (*model.Payment, error)
}

// InitiateInput identifies the booking to pay for.
// UserID is the caller; zero means an operator acting on behalf of the owner.
type InitiateInput struct {
	BookingID uint64
	UserID    uint64
}

// InitiateOutput carries the checkout to redirect the payer to.
type InitiateOutput struct {
	CheckoutURL   string
	TransactionID string
	Resumed       bool
}

// VerifyOutput reports the payment status after a verification attempt.
type VerifyOutput struct {
	TransactionID string
	Status        model.PaymentStatus
	Resolved      bool
}

// Config holds payment domain settings.
type Config struct {
	Currency      string
	CheckoutTitle string
	LockTTL       time.Duration
}

// DefaultConfig returns the default payment domain configuration.
func DefaultConfig() Config {
	return Config{
		Currency:      "ETB",
		CheckoutTitle: "Booking Payment",
		LockTTL:       30 * time.Second,
	}
}

// TransactionRef derives the gateway transaction reference for a booking.
// The same booking always maps to the same reference.
func TransactionRef(bookingID, userID uint64) string {
	return fmt.Sprintf("booking_%d-%d", bookingID, userID)
}

func initiateLockKey(bookingID uint64) string {
	return fmt.Sprintf("payment:initiate:%d", bookingID)
}

// paymentDomain implements PaymentDomain.
type paymentDomain struct {
	paymentDB      outbound.PaymentDatabasePort
	bookings       outbound.BookingReaderPort
	gateway        outbound.GatewayPort
	locker         outbound.LockerPort
	notifier       outbound.NotificationPort
	eventPublisher outbound.EventPublisherPort
	metrics        *metrics.Metrics
	config         Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewPaymentDomain creates a new payment domain service.
// eventPublisher and m may be nil.
func NewPaymentDomain(
	paymentDB outbound.PaymentDatabasePort,
	bookings outbound.BookingReaderPort,
	gateway outbound.GatewayPort,
	locker outbound.LockerPort,
	notifier outbound.NotificationPort,
	eventPublisher outbound.EventPublisherPort,
	m *metrics.Metrics,
	config Config,
	logger *zap.Logger,
) PaymentDomain {
	defaults := DefaultConfig()
	if config.Currency == "" {
		config.Currency = defaults.Currency
	}
	if config.CheckoutTitle == "" {
		config.CheckoutTitle = defaults.CheckoutTitle
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paymentDomain{
		paymentDB:      paymentDB,
		bookings:       bookings,
		gateway:        gateway,
		locker:         locker,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		metrics:        m,
		config:         config,
		logger:         logger.Named("payment"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// --- Initiation ---

func (d *paymentDomain) Initiate(ctx context.Context, in *InitiateInput) (*InitiateOutput, error) {
	if in == nil || in.BookingID == 0 {
		return nil, ErrMissingBookingID
	}

	booking, err := d.bookings.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if in.UserID != 0 && booking.UserID != in.UserID {
		return nil, ErrForbidden
	}

	if out, err := d.existingCheckout(ctx, booking.ID); err != nil || out != nil {
		return out, err
	}

	if !booking.Price.IsPositive() {
		d.recordInitiation("invalid")
		return nil, ErrInvalidAmount
	}

	release, ok, err := d.locker.Acquire(ctx, initiateLockKey(booking.ID), d.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire initiation lock: %w", err)
	}
	if !ok {
		d.recordInitiation("conflict")
		return nil, ErrInitiationInProgress
	}
	defer release()

	// A peer may have finished between the first lookup and taking the lock.
	if out, err := d.existingCheckout(ctx, booking.ID); err != nil || out != nil {
		return out, err
	}

	txRef := TransactionRef(booking.ID, booking.UserID)
	amount := booking.Price.Round(2)

	result, err := d.gateway.Initialize(ctx, &outbound.InitializeRequest{
		TxRef:       txRef,
		Amount:      amount,
		Currency:    d.config.Currency,
		Payer:       booking.Payer,
		Title:       d.config.CheckoutTitle,
		Description: fmt.Sprintf("Payment for booking %s", booking.ListingTitle),
		Metadata: map[string]string{
			"booking_id": fmt.Sprintf("%d", booking.ID),
			"user_id":    fmt.Sprintf("%d", booking.UserID),
		},
	})
	if err != nil {
		d.recordInitiation("gateway_error")
		d.logger.Warn("gateway initialize failed",
			zap.Uint64("booking_id", booking.ID),
			zap.String("transaction_id", txRef),
			zap.Error(err))
		return nil, fmt.Errorf("initialize checkout: %w", err)
	}

	now := d.now()
	payment := &model.Payment{
		ID:                uuid.New(),
		BookingID:         booking.ID,
		UserID:            booking.UserID,
		TransactionID:     txRef,
		Provider:          d.gateway.Name(),
		ProviderReference: result.ProviderReference,
		CheckoutURL:       result.CheckoutURL,
		Amount:            amount,
		Currency:          d.config.Currency,
		Status:            model.PaymentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := d.paymentDB.Create(ctx, payment); err != nil {
		if errors.Is(err, outbound.ErrRecordExists) {
			d.logger.Info("payment created concurrently", zap.Uint64("booking_id", booking.ID))
			out, lookupErr := d.existingCheckout(ctx, booking.ID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if out != nil {
				return out, nil
			}
			return nil, ErrPaymentExists
		}
		d.recordInitiation("error")
		return nil, fmt.Errorf("create payment: %w", err)
	}

	d.recordInitiation("created")
	d.logger.Info("payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.Uint64("booking_id", booking.ID),
		zap.String("transaction_id", txRef),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("provider", payment.Provider))

	return &InitiateOutput{
		CheckoutURL:   payment.CheckoutURL,
		TransactionID: payment.TransactionID,
	}, nil
}

// existingCheckout returns the resumable checkout for a booking, nil when the booking
// has no payment yet, or ErrPaymentExists when its payment is already settled.
func (d *paymentDomain) existingCheckout(ctx context.Context, bookingID uint64) (*InitiateOutput, error) {
	existing, err := d.paymentDB.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Status.IsTerminal() {
		d.recordInitiation("conflict")
		return nil, ErrPaymentExists
	}
	d.recordInitiation("resumed")
	return &InitiateOutput{
		CheckoutURL:   existing.CheckoutURL,
		TransactionID: existing.TransactionID,
		Resumed:       true,
	}, nil
}

// --- Verification ---

func (d *paymentDomain) Verify(ctx context.Context, transactionID string) (*VerifyOutput, error) {
	payment, err := d.GetPayment(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if payment.Status.IsTerminal() {
		d.recordVerification("settled")
		return &VerifyOutput{TransactionID: payment.TransactionID, Status: payment.Status, Resolved: true}, nil
	}

	status, err := d.gateway.Verify(ctx, &outbound.VerifyRequest{
		TxRef:             payment.TransactionID,
		ProviderReference: payment.ProviderReference,
	})
	if err != nil {
		d.recordVerification("gateway_error")
		fields := []zap.Field{zap.String("transaction_id", payment.TransactionID), zap.Error(err)}
		if gwErr, ok := apperrors.AsGatewayError(err); ok {
			fields = append(fields, zap.String("reason", string(gwErr.Reason)))
		}
		d.logger.Warn("gateway verify failed", fields...)
		return nil, fmt.Errorf("verify transaction: %w", err)
	}
	d.recordVerification(string(status))

	switch status {
	case model.GatewayStatusSucceeded:
		return d.settle(ctx, payment, model.PaymentStatusCompleted)
	case model.GatewayStatusFailed:
		return d.settle(ctx, payment, model.PaymentStatusFailed)
	default:
		return &VerifyOutput{TransactionID: payment.TransactionID, Status: payment.Status}, nil
	}
}

// settle moves a pending payment into a terminal status. Only the caller that wins
// the transition sends follow-up messages; the others report the stored status.
func (d *paymentDomain) settle(ctx context.Context, payment *model.Payment, to model.PaymentStatus) (*VerifyOutput, error) {
	from := payment.Status
	changed, err := d.transition(ctx, payment, to)
	if err != nil {
		return nil, err
	}

	if !changed {
		current, err := d.paymentDB.FindByTransactionID(ctx, payment.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("reload payment: %w", err)
		}
		if current == nil {
			return nil, ErrPaymentNotFound
		}
		return &VerifyOutput{
			TransactionID: current.TransactionID,
			Status:        current.Status,
			Resolved:      current.Status.IsTerminal(),
		}, nil
	}

	d.logger.Info("payment settled",
		zap.String("transaction_id", payment.TransactionID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	if to == model.PaymentStatusCompleted {
		d.enqueueConfirmation(ctx, payment)
	}

	return &VerifyOutput{TransactionID: payment.TransactionID, Status: to, Resolved: true}, nil
}

// transition applies a status change through the store's compare-and-set.
func (d *paymentDomain) transition(ctx context.Context, payment *model.Payment, to model.PaymentStatus) (bool, error) {
	from := payment.Status
	if !from.CanTransitionTo(to) {
		return false, ErrInvalidStatusTransition
	}

	now := d.now()
	changed, err := d.paymentDB.TransitionStatus(ctx, payment.ID, from, to, now)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	if !changed {
		return false, nil
	}

	payment.Status = to
	payment.UpdatedAt = now
	switch to {
	case model.PaymentStatusCompleted:
		payment.CompletedAt = &now
	case model.PaymentStatusFailed:
		payment.FailedAt = &now
	case model.PaymentStatusRefunded:
		payment.RefundedAt = &now
	}

	if d.metrics != nil {
		d.metrics.RecordTransition(string(from), string(to))
	}
	d.publishStateChange(ctx, payment, from, to)
	return true, nil
}

func (d *paymentDomain) enqueueConfirmation(ctx context.Context, payment *model.Payment) {
	booking, err := d.bookings.GetBooking(ctx, payment.BookingID)
	if err != nil || booking == nil {
		d.recordNotification("enqueue_error")
		d.logger.Error("cannot load booking for payment confirmation",
			zap.String("transaction_id", payment.TransactionID),
			zap.Uint64("booking_id", payment.BookingID),
			zap.Error(err))
		return
	}

	notification := &model.PaymentNotification{
		RecipientEmail: booking.Payer.Email,
		RecipientName:  strings.TrimSpace(booking.Payer.FirstName + " " + booking.Payer.LastName),
		ListingTitle:   booking.ListingTitle,
		TransactionID:  payment.TransactionID,
		Amount:         payment.Amount.StringFixed(2),
		Currency:       payment.Currency,
		EnqueuedAt:     d.now(),
	}
	if err := d.notifier.Enqueue(ctx, notification); err != nil {
		d.recordNotification("enqueue_error")
		d.logger.Error("failed to enqueue payment confirmation",
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return
	}
	d.recordNotification("enqueued")
}

func (d *paymentDomain) publishStateChange(ctx context.Context, payment *model.Payment, from, to model.PaymentStatus) {
	if d.eventPublisher == nil {
		return
	}

	var eventType string
	switch to {
	case model.PaymentStatusCompleted:
		eventType = events.TypePaymentCompleted
	case model.PaymentStatusFailed:
		eventType = events.TypePaymentFailed
	case model.PaymentStatusRefunded:
		eventType = events.TypePaymentRefunded
	default:
		return
	}

	event := events.NewPaymentStateChangedEvent(eventType, payment.ID)
	event.BookingID = payment.BookingID
	event.UserID = payment.UserID
	event.TransactionID = payment.TransactionID
	event.FromStatus = string(from)
	event.ToStatus = string(to)
	event.Amount = payment.Amount.StringFixed(2)
	event.Currency = payment.Currency
	event.Provider = payment.Provider

	if err := d.eventPublisher.Publish(ctx, event); err != nil {
		d.logger.Error("failed to publish payment event",
			zap.String("event_type", eventType),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
	}
}

// --- Queries and administration ---

func (d *paymentDomain) GetPayment(ctx context.Context, transactionID string) (*model.Payment, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}

	payment, err := d.paymentDB.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (d *paymentDomain) MarkRefunded(ctx context.Context, transactionID string) (*model.Payment, error) {
	payment, err := d.GetPayment(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusRefunded {
		return payment, nil
	}

	changed, err := d.transition(ctx, payment, model.PaymentStatusRefunded)
	if err != nil {
		return nil, err
	}
	if !changed {
		current, err := d.GetPayment(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if current.Status != model.PaymentStatusRefunded {
			return nil, ErrInvalidStatusTransition
		}
		return current, nil
	}

	d.logger.Info("payment marked refunded", zap.String("transaction_id", payment.TransactionID))
	return payment, nil
}

// --- Metrics helpers ---

func (d *paymentDomain) recordInitiation(result string) {
	if d.metrics != nil {
		d.metrics.RecordInitiation(result)
	}
}

func (d *paymentDomain) recordVerification(outcome string) {
	if d.metrics != nil {
		d.metrics.RecordVerification(outcome)
	}
}

func (d *paymentDomain) recordNotification(result string) {
	if d.metrics != nil {
		d.metrics.RecordNotification(result)
	}
}
