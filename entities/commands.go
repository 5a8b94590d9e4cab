package entities

import "github.com/google/uuid"

// RenderTicketImage asks for the ticket's token to be encoded as a scannable
// image. It runs outside the confirmation transaction and may fail without
// affecting the ticket's validity.
type RenderTicketImage struct {
	Header EventHeader `json:"header"`

	TicketID uuid.UUID `json:"ticket_id"`
}
