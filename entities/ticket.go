package entities

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusUsed      TicketStatus = "used"
)

type Ticket struct {
	TicketID  uuid.UUID `json:"ticket_id" db:"ticket_id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`

	Status TicketStatus `json:"status" db:"status"`

	// QRToken is the redemption credential; it never changes once minted.
	// QRImage is a rendered encoding of it and may be absent - a ticket with no
	// image is still redeemable by raw token.
	QRToken string `json:"qr_token" db:"qr_token"`
	QRImage []byte `json:"qr_image,omitempty" db:"qr_image"`

	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
