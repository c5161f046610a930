package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var _ outbound.PaymentDatabasePort = (*paymentAdapter)(nil)

// paymentAdapter implements outbound.PaymentDatabasePort.
type paymentAdapter struct {
	db *gorm.DB
}

// NewPaymentAdapter creates a new payment database adapter.
func NewPaymentAdapter(db *gorm.DB) outbound.PaymentDatabasePort {
	return &paymentAdapter{db: db}
}

func (a *paymentAdapter) Create(ctx context.Context, payment *model.Payment) error {
	if err := a.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create payment %s: %w", payment.TransactionID, outbound.ErrRecordExists)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (a *paymentAdapter) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var payment model.Payment
	err := a.db.WithContext(ctx).First(&payment, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by transaction id: %w", err)
	}
	return &payment, nil
}

func (a *paymentAdapter) FindByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	var payment model.Payment
	err := a.db.WithContext(ctx).First(&payment, "booking_id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by booking id: %w", err)
	}
	return &payment, nil
}

// TransitionStatus is a single conditional UPDATE; the status predicate makes
// concurrent callers race on the row and only one of them sees a changed row.
func (a *paymentAdapter) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case model.PaymentStatusCompleted:
		updates["completed_at"] = at
	case model.PaymentStatusFailed:
		updates["failed_at"] = at
	case model.PaymentStatusRefunded:
		updates["refunded_at"] = at
	}

	result := a.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("transition payment %s to %s: %w", id, to, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *paymentAdapter) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := a.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	return payments, nil
}

// isUniqueViolation reports whether err is a unique constraint violation.
// gorm translates driver errors when TranslateError is enabled; the pq check
// covers connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
