package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type BookingMade_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Quantity  int       `json:"quantity"`
	Total     Money     `json:"total"`
}

type BookingConfirmed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	Quantity  int       `json:"quantity"`

	TicketIDs []uuid.UUID `json:"ticket_ids"`
}

type BookingCanceled_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type PaymentFailed_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reference string    `json:"reference"`
}

type TicketRedeemed_v1 struct {
	Header EventHeader `json:"header"`

	TicketID  uuid.UUID `json:"ticket_id"`
	BookingID uuid.UUID `json:"booking_id"`
	UsedAt    time.Time `json:"used_at"`
}

// DataLakeEvent is the append-only archive row for every published event.
type DataLakeEvent struct {
	EventID      string    `json:"event_id" db:"event_id"`
	PublishedAt  time.Time `json:"published_at" db:"published_at"`
	EventName    string    `json:"event_name" db:"event_name"`
	EventPayload []byte    `json:"event_payload" db:"event_payload"`
}
