package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"tourbook/api"
	"tourbook/db"
	"tourbook/message"
	"tourbook/migrations"
	"tourbook/payment"
	"tourbook/service"
	observability "tourbook/trace"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.FromContext(context.Background()).Info("No .env file loaded")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.FromContext(ctx)

	tp := observability.ConfigureTraceProvider()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to shut down trace provider")
		}
	}()

	conn, err := db.NewDBConn(os.Getenv("POSTGRES_URL"))
	if err != nil {
		logger.WithError(err).Panic("Failed to connect to postgres")
	}
	defer conn.Close()
	conn.MigrateSchema()

	if os.Getenv("REBUILD_OPS_READ_MODEL") == "1" {
		err := migrations.RebuildOpsBookingReadModel(ctx, db.NewDataLakeRepository(&conn), db.NewOpsBookingReadModel(&conn))
		if err != nil {
			logger.WithError(err).Panic("Failed to rebuild ops read model")
		}
	}

	redisClient := message.NewRedisClient(os.Getenv("REDIS_ADDR"))
	defer redisClient.Close()

	gateway := api.NewPaymentGatewayClient(
		os.Getenv("GATEWAY_URL"),
		os.Getenv("GATEWAY_SECRET_KEY"),
	)
	notifications := api.NewNotificationClient(os.Getenv("NOTIFICATIONS_URL"))

	svc := service.New(
		redisClient,
		gateway,
		notifications,
		conn,
		payment.Config{
			PublicURL:       os.Getenv("PUBLIC_URL"),
			WebhookSecret:   os.Getenv("GATEWAY_WEBHOOK_SECRET"),
			SignatureHeader: os.Getenv("GATEWAY_SIGNATURE_HEADER"),
		},
	)

	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Panic("Service stopped with error")
	}
}
