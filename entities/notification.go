package entities

import "github.com/google/uuid"

// Notification is a best-effort notice to the user. Delivery failures never
// feed back into booking or payment state.
type Notification struct {
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}
