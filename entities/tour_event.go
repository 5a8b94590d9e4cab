package entities

import (
	"time"

	"github.com/google/uuid"
)

// TourEvent is the bookable inventory unit. BookingCount is a demand counter:
// it only ever grows, cancellations do not decrement it.
type TourEvent struct {
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	Title     string    `json:"title" db:"title"`
	Venue     string    `json:"venue" db:"venue"`
	StartTime time.Time `json:"start_time" db:"start_time"`

	Price    int64  `json:"price" db:"price"`
	Currency string `json:"currency" db:"currency"`

	Capacity     int `json:"capacity" db:"capacity"`
	BookingCount int `json:"booking_count" db:"booking_count"`
}

type TourEventCreateResponse struct {
	EventID uuid.UUID `json:"event_id"`
}
