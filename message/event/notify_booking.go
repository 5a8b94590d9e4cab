package event

import (
	"context"
	"fmt"
	"tourbook/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// Notification delivery is best-effort by contract: errors are logged and
// swallowed so an unavailable sink can never hold back the booking flow.
func (h Handler) notify(ctx context.Context, notice entities.Notification) {
	if err := h.notifications.Send(ctx, notice); err != nil {
		log.FromContext(ctx).WithError(err).Warn("Failed to deliver notification")
	}
}

func (h Handler) NotifyBookingMade(ctx context.Context, event *entities.BookingMade_v1) error {
	log.FromContext(ctx).Info("Notifying about initiated booking")

	h.notify(ctx, entities.Notification{
		UserID: event.UserID,
		Title:  "Booking initiated",
		Body:   fmt.Sprintf("Your booking for %d ticket(s) is awaiting payment.", event.Quantity),
	})
	return nil
}

func (h Handler) NotifyBookingConfirmed(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	log.FromContext(ctx).Info("Notifying about confirmed booking")

	h.notify(ctx, entities.Notification{
		UserID: event.UserID,
		Title:  "Booking confirmed",
		Body:   fmt.Sprintf("Payment received, %d ticket(s) are ready.", event.Quantity),
	})
	return nil
}

func (h Handler) NotifyBookingCanceled(ctx context.Context, event *entities.BookingCanceled_v1) error {
	log.FromContext(ctx).Info("Notifying about cancelled booking")

	h.notify(ctx, entities.Notification{
		UserID: event.UserID,
		Title:  "Booking cancelled",
		Body:   "Your booking has been cancelled.",
	})
	return nil
}

func (h Handler) NotifyPaymentFailed(ctx context.Context, event *entities.PaymentFailed_v1) error {
	log.FromContext(ctx).Info("Notifying about failed payment")

	h.notify(ctx, entities.Notification{
		UserID: event.UserID,
		Title:  "Payment failed",
		Body:   "Your payment did not go through. You can retry from your booking.",
	})
	return nil
}
