package event

import (
	"context"
	"fmt"
	"tourbook/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// DispatchTicketRendering fans a confirmed booking out into one render command
// per ticket. Rendering runs far from the confirmation transaction and its
// failures leave the tickets perfectly valid.
func (h Handler) DispatchTicketRendering(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	log.FromContext(ctx).Info("Dispatching ticket image rendering")

	for _, ticketID := range event.TicketIDs {
		cmd := entities.RenderTicketImage{
			Header:   entities.NewEventHeaderWithIdempotencyKey(ticketID.String()),
			TicketID: ticketID,
		}
		if err := h.commandBus.Send(ctx, cmd); err != nil {
			return fmt.Errorf("failed to send RenderTicketImage command: %w", err)
		}
	}
	return nil
}
