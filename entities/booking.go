package entities

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	Quantity  int       `json:"quantity" db:"quantity"`

	SubTotal int64  `json:"sub_total" db:"sub_total"`
	Tax      int64  `json:"tax" db:"tax"`
	Fees     int64  `json:"fees" db:"fees"`
	Total    int64  `json:"total" db:"total"`
	Currency string `json:"currency" db:"currency"`

	Status BookingStatus `json:"status" db:"status"`

	// TransactionID points at the payment that confirmed this booking.
	TransactionID *uuid.UUID `json:"transaction_id,omitempty" db:"transaction_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type BookingCreateResponse struct {
	BookingID uuid.UUID `json:"booking_id"`
}
