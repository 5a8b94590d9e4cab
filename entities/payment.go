package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// PaymentMetadata is a versioned record, not an opaque bag: the booking link is
// the durable connection between a payment and its booking and must survive
// provider payload drift.
type PaymentMetadata struct {
	Version   int       `json:"version"`
	BookingID uuid.UUID `json:"booking_id"`
	Reference string    `json:"reference"`

	ProviderEcho json.RawMessage `json:"provider_echo,omitempty"`
	InitError    string          `json:"init_error,omitempty"`
}

const PaymentMetadataVersion = 1

func (m PaymentMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *PaymentMetadata) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into PaymentMetadata", src)
	}
}

type Payment struct {
	PaymentID uuid.UUID     `json:"payment_id" db:"payment_id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	Amount    int64         `json:"amount" db:"amount"`
	Currency  string        `json:"currency" db:"currency"`
	Provider  string        `json:"provider" db:"provider"`
	Status    PaymentStatus `json:"status" db:"status"`

	ProviderTransactionID *string `json:"provider_transaction_id,omitempty" db:"provider_transaction_id"`
	CheckoutURL           *string `json:"checkout_url,omitempty" db:"checkout_url"`

	Metadata PaymentMetadata `json:"metadata" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
