package command

import (
	"context"

	"github.com/google/uuid"
)

type TicketRenderer interface {
	RenderRedemptionImage(ctx context.Context, ticketID uuid.UUID) error
}

type Handler struct {
	renderer TicketRenderer
}

func NewHandler(renderer TicketRenderer) Handler {
	if renderer == nil {
		panic("renderer is required")
	}

	return Handler{
		renderer: renderer,
	}
}
