package entities

import (
	"time"

	"github.com/google/uuid"
)

// OpsBooking is the operations-facing read model document, rebuilt purely from
// published events and eventually consistent with the write side.
type OpsBooking struct {
	BookingID uuid.UUID `json:"booking_id"`
	BookedAt  time.Time `json:"booked_at"`

	// Status should be "pending", "confirmed" or "cancelled"
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Quantity      int    `json:"quantity"`

	Tickets map[string]OpsTicket `json:"tickets"`

	LastUpdate time.Time `json:"last_update"`
}

type OpsTicket struct {
	Status     string     `json:"status"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}
