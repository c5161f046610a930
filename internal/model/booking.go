package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// The tables below are owned by the listings/bookings service.
// They are mapped here for reads and for local development migrations only.

// User is a marketplace user.
type User struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	PhoneNumber string    `json:"phone_number" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}

// Listing is a bookable property.
type Listing struct {
	ID          uint64          `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Location    string          `json:"location" gorm:"size:255"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName returns the table name for GORM.
func (Listing) TableName() string {
	return "listings"
}

// Booking links a user to a listing.
type Booking struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	ListingID   uint64    `json:"listing_id" gorm:"not null;index"`
	UserID      uint64    `json:"user_id" gorm:"not null;index"`
	BookingDate time.Time `json:"booking_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (Booking) TableName() string {
	return "bookings"
}

// Payer identifies the person paying for a booking.
type Payer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// BookingInfo is the slice of booking data the payment flow needs.
type BookingInfo struct {
	ID           uint64
	UserID       uint64
	ListingID    uint64
	ListingTitle string
	Price        decimal.Decimal
	Payer        Payer
	CreatedAt    time.Time
}
