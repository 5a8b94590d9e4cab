package service

import (
	"context"
	"errors"
	"net/http"
	"tourbook/booking"
	"tourbook/db"
	tourbookHttp "tourbook/http"
	"tourbook/message"
	"tourbook/message/command"
	"tourbook/message/event"
	"tourbook/message/outbox"
	"tourbook/payment"
	"tourbook/ticket"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
}

func New(
	redisClient *redis.Client,
	gateway payment.Gateway,
	notifications event.NotificationService,
	conn db.DB,
	paymentCfg payment.Config,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := message.NewRedisPublisher(redisClient, watermillLogger)

	eventBus := event.NewBus(redisPublisher)
	commandBus := command.NewCommandBus(redisPublisher)

	bookingRepo := db.NewBookingRepository(&conn)
	eventRepo := db.NewTourEventRepository(&conn)
	ticketRepo := db.NewTicketRepository(&conn)
	paymentRepo := db.NewPaymentRepository(&conn)
	userRepo := db.NewUserRepository(&conn)
	opsReadModel := db.NewOpsBookingReadModel(&conn)
	dataLakeRepo := db.NewDataLakeRepository(&conn)

	issuer := ticket.NewIssuer(ticketRepo, eventBus)
	bookingManager := booking.NewManager(bookingRepo, eventRepo, ticketRepo, issuer)
	reconciler := payment.NewReconciler(
		paymentRepo,
		userRepo,
		bookingRepo,
		bookingManager,
		gateway,
		eventBus,
		paymentCfg,
	)

	eventsHandler := event.NewHandler(notifications, commandBus)
	commandsHandler := command.NewHandler(issuer)

	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)
	commandProcessorConfig := command.NewCommandProcessorConfig(redisClient, watermillLogger)

	pgSubscriber := outbox.SubscribeForPGMessages(conn.Conn, watermillLogger)
	dataLakeSubscriber := message.NewRedisSubscriber(redisClient, "svc-bookings.events.data-lake", watermillLogger)

	watermillRouter := message.NewWatermillRouter(
		pgSubscriber,
		dataLakeSubscriber,
		commandProcessorConfig,
		redisPublisher,
		eventProcessorConfig,
		commandsHandler,
		eventsHandler,
		opsReadModel,
		dataLakeRepo,
		watermillLogger,
	)

	echoRouter := tourbookHttp.NewHttpRouter(
		bookingManager,
		reconciler,
		issuer,
		ticketRepo,
		bookingRepo,
		eventRepo,
		userRepo,
		opsReadModel,
		paymentCfg.ResolvedSignatureHeader(),
	)

	return Service{
		watermillRouter,
		echoRouter,
	}
}

func (s Service) Run(ctx context.Context) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// the service must not report healthy before the message router is
		// consuming
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(":8080")
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
