package message

import (
	"context"
	"encoding/json"
	"fmt"
	"tourbook/entities"
	"tourbook/message/command"
	"tourbook/message/event"
	"tourbook/message/outbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

type OpsBookingReadModel interface {
	OnBookingMade(ctx context.Context, event *entities.BookingMade_v1) error
	OnBookingConfirmed(ctx context.Context, event *entities.BookingConfirmed_v1) error
	OnBookingCanceled(ctx context.Context, event *entities.BookingCanceled_v1) error
	OnPaymentFailed(ctx context.Context, event *entities.PaymentFailed_v1) error
	OnTicketRedeemed(ctx context.Context, event *entities.TicketRedeemed_v1) error
}

type DataLakeRepository interface {
	Store(ctx context.Context, event entities.DataLakeEvent) error
}

func NewWatermillRouter(
	pgSubscriber message.Subscriber,
	dataLakeSubscriber message.Subscriber,
	commandProcessorConfig cqrs.CommandProcessorConfig,
	redisPublisher message.Publisher,
	eventProcessorConfig cqrs.EventProcessorConfig,
	commandsHandler command.Handler,
	eventsHandler event.Handler,
	opsReadModel OpsBookingReadModel,
	dataLakeRepo DataLakeRepository,
	watermillLogger watermill.LoggerAdapter,
) *message.Router {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		panic(err)
	}

	useMiddlewares(router, watermillLogger)

	_, err = outbox.NewForwarder(pgSubscriber, redisPublisher, watermillLogger, router)
	if err != nil {
		panic(err)
	}

	commandProcessor, err := cqrs.NewCommandProcessorWithConfig(router, commandProcessorConfig)
	if err != nil {
		panic(err)
	}

	err = commandProcessor.AddHandlers(
		cqrs.NewCommandHandler(
			"RenderTicketImage",
			commandsHandler.RenderTicketImage,
		),
	)
	if err != nil {
		panic(err)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		panic(err)
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"NotifyBookingMade",
			eventsHandler.NotifyBookingMade,
		),
		cqrs.NewEventHandler(
			"NotifyBookingConfirmed",
			eventsHandler.NotifyBookingConfirmed,
		),
		cqrs.NewEventHandler(
			"NotifyBookingCanceled",
			eventsHandler.NotifyBookingCanceled,
		),
		cqrs.NewEventHandler(
			"NotifyPaymentFailed",
			eventsHandler.NotifyPaymentFailed,
		),
		cqrs.NewEventHandler(
			"DispatchTicketRendering",
			eventsHandler.DispatchTicketRendering,
		),
		cqrs.NewEventHandler(
			"OpsReadModel.OnBookingMade",
			opsReadModel.OnBookingMade,
		),
		cqrs.NewEventHandler(
			"OpsReadModel.OnBookingConfirmed",
			opsReadModel.OnBookingConfirmed,
		),
		cqrs.NewEventHandler(
			"OpsReadModel.OnBookingCanceled",
			opsReadModel.OnBookingCanceled,
		),
		cqrs.NewEventHandler(
			"OpsReadModel.OnPaymentFailed",
			opsReadModel.OnPaymentFailed,
		),
		cqrs.NewEventHandler(
			"OpsReadModel.OnTicketRedeemed",
			opsReadModel.OnTicketRedeemed,
		),
	)
	if err != nil {
		panic(err)
	}

	router.AddNoPublisherHandler(
		"events_data_lake",
		"events",
		dataLakeSubscriber,
		func(msg *message.Message) error {
			var envelope struct {
				Header entities.EventHeader `json:"header"`
			}
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				return fmt.Errorf("could not unmarshal event header: %w", err)
			}

			return dataLakeRepo.Store(msg.Context(), entities.DataLakeEvent{
				EventID:      envelope.Header.ID,
				PublishedAt:  envelope.Header.PublishedAt,
				EventName:    event.NameFromMessage(msg),
				EventPayload: msg.Payload,
			})
		},
	)

	return router
}
