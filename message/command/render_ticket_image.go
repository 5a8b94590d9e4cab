package command

import (
	"context"
	"fmt"
	"tourbook/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

func (h *Handler) RenderTicketImage(ctx context.Context, cmd *entities.RenderTicketImage) error {
	log.FromContext(ctx).Info("Rendering ticket image")

	if err := h.renderer.RenderRedemptionImage(ctx, cmd.TicketID); err != nil {
		return fmt.Errorf("failed to render ticket %s: %w", cmd.TicketID, err)
	}
	return nil
}
