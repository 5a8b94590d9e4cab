package migrations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"tourbook/db"
	"tourbook/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/sirupsen/logrus"
)

// RebuildOpsBookingReadModel replays the data lake archive through the read
// model projections. The projections are idempotent, so rebuilding on top of
// an existing read model is safe.
func RebuildOpsBookingReadModel(ctx context.Context, dataLake db.DataLakeRepository, readModel db.OpsBookingReadModel) error {
	logger := log.FromContext(ctx)
	logger.Info("Rebuilding ops booking read model")

	events, err := dataLake.GetAll(ctx)
	if err != nil {
		return err
	}

	logger.WithField("events_count", len(events)).Info("Has events to replay")

	for _, event := range events {
		start := time.Now()

		logger.WithFields(logrus.Fields{
			"event_name": event.EventName,
			"event_id":   event.EventID,
		}).Info("Replaying event")

		if err := replayEvent(ctx, event, readModel); err != nil {
			return fmt.Errorf("could not replay event %s (%s): %w", event.EventID, event.EventName, err)
		}

		logger.WithField("duration", time.Since(start)).Info("Event replayed")
	}

	return nil
}

func replayEvent(ctx context.Context, event entities.DataLakeEvent, readModel db.OpsBookingReadModel) error {
	switch event.EventName {
	case cqrs.StructName(entities.BookingMade_v1{}):
		bookingMade, err := unmarshalDataLakeEvent[entities.BookingMade_v1](event)
		if err != nil {
			return err
		}
		return readModel.OnBookingMade(ctx, bookingMade)
	case cqrs.StructName(entities.BookingConfirmed_v1{}):
		bookingConfirmed, err := unmarshalDataLakeEvent[entities.BookingConfirmed_v1](event)
		if err != nil {
			return err
		}
		return readModel.OnBookingConfirmed(ctx, bookingConfirmed)
	case cqrs.StructName(entities.BookingCanceled_v1{}):
		bookingCanceled, err := unmarshalDataLakeEvent[entities.BookingCanceled_v1](event)
		if err != nil {
			return err
		}
		return readModel.OnBookingCanceled(ctx, bookingCanceled)
	case cqrs.StructName(entities.PaymentFailed_v1{}):
		paymentFailed, err := unmarshalDataLakeEvent[entities.PaymentFailed_v1](event)
		if err != nil {
			return err
		}
		return readModel.OnPaymentFailed(ctx, paymentFailed)
	case cqrs.StructName(entities.TicketRedeemed_v1{}):
		ticketRedeemed, err := unmarshalDataLakeEvent[entities.TicketRedeemed_v1](event)
		if err != nil {
			return err
		}
		return readModel.OnTicketRedeemed(ctx, ticketRedeemed)
	default:
		// the lake archives every published event; the read model only
		// projects the ones above
		return nil
	}
}

func unmarshalDataLakeEvent[T any](event entities.DataLakeEvent) (*T, error) {
	eventInstance := new(T)

	if err := json.Unmarshal(event.EventPayload, eventInstance); err != nil {
		return nil, fmt.Errorf("could not unmarshal event %s: %w", event.EventName, err)
	}

	return eventInstance, nil
}
