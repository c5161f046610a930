package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alxtravel/server/internal/model"
	"github.com/alxtravel/server/internal/port/outbound"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ outbound.BookingReaderPort = (*bookingAdapter)(nil)

// bookingAdapter implements outbound.BookingReaderPort over the booking service tables.
type bookingAdapter struct {
	db *gorm.DB
}

// NewBookingAdapter creates a new booking reader adapter.
func NewBookingAdapter(db *gorm.DB) outbound.BookingReaderPort {
	return &bookingAdapter{db: db}
}

type bookingRow struct {
	ID           uint64
	UserID       uint64
	ListingID    uint64
	CreatedAt    time.Time
	ListingTitle string
	Price        decimal.Decimal
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
}

func (a *bookingAdapter) GetBooking(ctx context.Context, bookingID uint64) (*model.BookingInfo, error) {
	var row bookingRow
	result := a.db.WithContext(ctx).
		Table("bookings AS b").
		Select(`b.id, b.user_id, b.listing_id, b.created_at,
			l.title AS listing_title, l.price,
			u.first_name, u.last_name, u.email, u.phone_number`).
		Joins("JOIN listings AS l ON l.id = b.listing_id").
		Joins("JOIN users AS u ON u.id = b.user_id").
		Where("b.id = ?", bookingID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("get booking %d: %w", bookingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	return &model.BookingInfo{
		ID:           row.ID,
		UserID:       row.UserID,
		ListingID:    row.ListingID,
		ListingTitle: row.ListingTitle,
		Price:        row.Price,
		Payer: model.Payer{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Phone:     row.PhoneNumber,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}
