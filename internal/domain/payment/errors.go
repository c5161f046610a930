package payment

import (
	apperrors "github.com/alxtravel/server/internal/shared/errors"
)

var (
	// ErrPaymentNotFound is returned when no payment matches a transaction reference.
	ErrPaymentNotFound = apperrors.NotFound("payment")

	// ErrBookingNotFound is returned when the booking to pay for does not exist.
	ErrBookingNotFound = apperrors.NotFound("booking")

	// ErrPaymentExists is returned when a booking already has a settled payment.
	ErrPaymentExists = apperrors.Conflict("booking already has a settled payment")

	// ErrInitiationInProgress is returned while another request is initiating the same booking.
	ErrInitiationInProgress = apperrors.Conflict("payment initiation already in progress")

	// ErrInvalidStatusTransition is returned when a status transition is not allowed.
	ErrInvalidStatusTransition = apperrors.Conflict("invalid payment status transition")

	// ErrMissingBookingID is returned when no booking id is supplied.
	ErrMissingBookingID = apperrors.ValidationError("booking_id is required")

	// ErrMissingTransactionID is returned when no transaction id is supplied.
	ErrMissingTransactionID = apperrors.ValidationError("transaction_id is required")

	// ErrInvalidAmount is returned when the booking price cannot be charged.
	ErrInvalidAmount = apperrors.ValidationError("booking price must be positive")

	// ErrForbidden is returned when the user does not own the booking.
	ErrForbidden = apperrors.Forbidden("booking belongs to another user")
)
