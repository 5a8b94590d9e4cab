package event

import (
	"context"
	"tourbook/entities"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
)

type NotificationService interface {
	Send(ctx context.Context, notice entities.Notification) error
}

type Handler struct {
	notifications NotificationService
	commandBus    *cqrs.CommandBus
}

func NewHandler(notifications NotificationService, commandBus *cqrs.CommandBus) Handler {
	if notifications == nil {
		panic("missing notifications service")
	}
	if commandBus == nil {
		panic("missing command bus")
	}
	return Handler{
		notifications: notifications,
		commandBus:    commandBus,
	}
}
