package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"tourbook/api"
	"tourbook/db"
	"tourbook/entities"
	"tourbook/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"
)

const Provider = "hostedpay"

type Source string

const (
	SourceWebhook Source = "webhook"
	SourceVerify  Source = "verify"
)

type Outcome string

const (
	// OutcomeConfirmed: the payment succeeded and the booking is confirmed.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeConfirmFailed: the payment succeeded but confirming the booking
	// failed; the signal is still consumed, a later verify replays the confirm.
	OutcomeConfirmFailed   Outcome = "confirm_failed"
	OutcomeFailed          Outcome = "failed"
	OutcomeAlreadyResolved Outcome = "already_resolved"
	OutcomeNotFound        Outcome = "not_found"
)

type Resolution struct {
	Outcome   Outcome
	Status    entities.PaymentStatus
	PaymentID uuid.UUID
	BookingID uuid.UUID
}

var (
	ErrBadSignature    = errors.New("invalid webhook signature")
	ErrMalformedSignal = errors.New("malformed payment signal")
	ErrNotPayable      = errors.New("booking is not payable")
)

type Repository interface {
	Create(ctx context.Context, payment entities.Payment) error
	MarkInitiated(ctx context.Context, paymentID uuid.UUID, providerTransactionID string, checkoutURL string, providerEcho json.RawMessage) error
	RecordInitError(ctx context.Context, paymentID uuid.UUID, initErr string) error
	MarkTerminal(ctx context.Context, paymentID uuid.UUID, status entities.PaymentStatus, providerTransactionID *string) (bool, error)
	GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error)
	FindByProviderTransactionID(ctx context.Context, providerTransactionID string) (entities.Payment, error)
	FindByReference(ctx context.Context, reference string) (entities.Payment, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (entities.User, error)
}

type BookingRepository interface {
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
}

type BookingConfirmer interface {
	Confirm(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID) (entities.Booking, []entities.Ticket, error)
}

type Gateway interface {
	Initialize(ctx context.Context, req api.InitializePaymentRequest) (api.InitializePaymentResponse, error)
	Verify(ctx context.Context, reference string) ([]byte, error)
}

type Config struct {
	PublicURL       string
	WebhookSecret   string
	SignatureHeader string
}

func (c Config) ResolvedSignatureHeader() string {
	if c.SignatureHeader == "" {
		return "X-Signature"
	}
	return c.SignatureHeader
}

// Reconciler drives a payment from initialization to a terminal state.
// Webhook deliveries and verify polls converge on ResolveSignal, which is
// safe to call any number of times for the same transaction.
type Reconciler struct {
	payments  Repository
	users     UserRepository
	bookings  BookingRepository
	confirmer BookingConfirmer
	gateway   Gateway
	eventBus  *cqrs.EventBus
	cfg       Config
}

func NewReconciler(
	payments Repository,
	users UserRepository,
	bookings BookingRepository,
	confirmer BookingConfirmer,
	gateway Gateway,
	eventBus *cqrs.EventBus,
	cfg Config,
) Reconciler {
	if payments == nil {
		panic("payments repository is required")
	}
	if users == nil {
		panic("users repository is required")
	}
	if bookings == nil {
		panic("bookings repository is required")
	}
	if confirmer == nil {
		panic("booking confirmer is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if eventBus == nil {
		panic("event bus is required")
	}
	return Reconciler{
		payments:  payments,
		users:     users,
		bookings:  bookings,
		confirmer: confirmer,
		gateway:   gateway,
		eventBus:  eventBus,
		cfg:       cfg,
	}
}

// Initialize creates a pending payment and hands the user off to the
// provider's hosted checkout. A gateway rejection is recorded on the payment
// and returned to the caller as retryable.
func (r Reconciler) Initialize(ctx context.Context, bookingID uuid.UUID, returnURL string) (entities.Payment, error) {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return entities.Payment{}, err
	}
	if booking.Status != entities.BookingStatusPending {
		return entities.Payment{}, fmt.Errorf("%w: booking %s is %s", ErrNotPayable, bookingID, booking.Status)
	}

	user, err := r.users.GetByID(ctx, booking.UserID)
	if err != nil {
		return entities.Payment{}, fmt.Errorf("could not load user: %w", err)
	}

	reference := fmt.Sprintf("%s-%d", bookingID, time.Now().UnixNano())
	payment := entities.Payment{
		PaymentID: uuid.New(),
		UserID:    booking.UserID,
		Amount:    booking.Total,
		Currency:  booking.Currency,
		Provider:  Provider,
		Status:    entities.PaymentStatusPending,
		Metadata: entities.PaymentMetadata{
			Version:   entities.PaymentMetadataVersion,
			BookingID: bookingID,
			Reference: reference,
		},
	}

	if err := r.payments.Create(ctx, payment); err != nil {
		return entities.Payment{}, err
	}

	resp, err := r.gateway.Initialize(ctx, api.InitializePaymentRequest{
		Reference:   reference,
		Amount:      booking.Total,
		Currency:    booking.Currency,
		Email:       user.Email,
		Name:        user.Name,
		Phone:       user.Phone,
		Description: fmt.Sprintf("Tour booking %s", bookingID),
		CallbackURL: r.cfg.PublicURL + "/payments/webhook",
		ReturnURL:   returnURL,
		Meta: map[string]string{
			"booking_id": bookingID.String(),
		},
	})
	if err != nil {
		if recordErr := r.payments.RecordInitError(ctx, payment.PaymentID, err.Error()); recordErr != nil {
			log.FromContext(ctx).
				WithField("payment_id", payment.PaymentID).
				WithError(recordErr).
				Error("Failed to record payment init error")
		}
		return entities.Payment{}, fmt.Errorf("payment initialization failed: %w", err)
	}

	err = r.payments.MarkInitiated(ctx, payment.PaymentID, resp.TransactionID, resp.CheckoutURL, resp.Raw)
	if err != nil {
		return entities.Payment{}, err
	}

	payment.Status = entities.PaymentStatusInitiated
	payment.ProviderTransactionID = &resp.TransactionID
	payment.CheckoutURL = &resp.CheckoutURL
	return payment, nil
}

// ResolveSignal is the single idempotent resolution path for provider
// notifications. Webhooks and verify polls race freely: the first signal to
// land wins the conditional update, every other one observes AlreadyResolved.
func (r Reconciler) ResolveSignal(ctx context.Context, source Source, rawPayload []byte, signature string) (Resolution, error) {
	logger := log.FromContext(ctx).WithField("source", source)

	// signatures are only enforced when a shared secret is configured;
	// a secretless deployment accepts unsigned callbacks
	if source == SourceWebhook && r.cfg.WebhookSecret != "" {
		if !ValidSignature(r.cfg.WebhookSecret, rawPayload, signature) {
			metrics.PaymentsResolved.WithLabelValues(string(source), "bad_signature").Inc()
			return Resolution{}, ErrBadSignature
		}
	}

	signal, err := ParseSignal(rawPayload)
	if err != nil {
		metrics.PaymentsResolved.WithLabelValues(string(source), "malformed").Inc()
		return Resolution{}, fmt.Errorf("%w: %s", ErrMalformedSignal, err)
	}

	payment, err := r.locate(ctx, signal)
	if errors.Is(err, db.ErrNotFound) {
		logger.
			WithField("reference", signal.Reference).
			WithField("provider_transaction_id", signal.ProviderTransactionID).
			Warn("Payment signal matched no known payment")
		metrics.PaymentsResolved.WithLabelValues(string(source), "not_found").Inc()
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if payment.Status.IsTerminal() {
		metrics.PaymentsResolved.WithLabelValues(string(source), "duplicate").Inc()
		return Resolution{
			Outcome:   OutcomeAlreadyResolved,
			Status:    payment.Status,
			PaymentID: payment.PaymentID,
			BookingID: payment.Metadata.BookingID,
		}, nil
	}

	status := entities.PaymentStatusFailed
	if signal.Succeeded() {
		status = entities.PaymentStatusSuccess
	}
	var providerTransactionID *string
	if signal.ProviderTransactionID != "" {
		providerTransactionID = &signal.ProviderTransactionID
	}

	applied, err := r.payments.MarkTerminal(ctx, payment.PaymentID, status, providerTransactionID)
	if err != nil {
		return Resolution{}, err
	}
	if !applied {
		// a concurrent signal won the update
		current, err := r.payments.GetByID(ctx, payment.PaymentID)
		if err != nil {
			return Resolution{}, err
		}
		metrics.PaymentsResolved.WithLabelValues(string(source), "duplicate").Inc()
		return Resolution{
			Outcome:   OutcomeAlreadyResolved,
			Status:    current.Status,
			PaymentID: current.PaymentID,
			BookingID: current.Metadata.BookingID,
		}, nil
	}

	resolution := Resolution{
		Status:    status,
		PaymentID: payment.PaymentID,
		BookingID: payment.Metadata.BookingID,
	}

	if status == entities.PaymentStatusSuccess {
		_, _, err := r.confirmer.Confirm(ctx, resolution.BookingID, payment.PaymentID)
		if err != nil {
			// the terminal payment state is durable; the signal must still be
			// consumed so the provider stops retrying, and the next verify
			// poll replays the confirmation
			logger.
				WithField("payment_id", payment.PaymentID).
				WithField("booking_id", resolution.BookingID).
				WithError(err).
				Error("Payment succeeded but booking confirmation failed")
			metrics.PaymentsResolved.WithLabelValues(string(source), "confirm_failed").Inc()
			resolution.Outcome = OutcomeConfirmFailed
			return resolution, nil
		}
		metrics.PaymentsResolved.WithLabelValues(string(source), "confirmed").Inc()
		metrics.BookingsConfirmed.Inc()
		resolution.Outcome = OutcomeConfirmed
		return resolution, nil
	}

	err = r.eventBus.Publish(ctx, entities.PaymentFailed_v1{
		Header:    entities.NewEventHeaderWithIdempotencyKey(payment.PaymentID.String()),
		PaymentID: payment.PaymentID,
		BookingID: resolution.BookingID,
		UserID:    payment.UserID,
		Reference: payment.Metadata.Reference,
	})
	if err != nil {
		logger.
			WithField("payment_id", payment.PaymentID).
			WithError(err).
			Error("Failed to publish payment failed event")
	}

	metrics.PaymentsResolved.WithLabelValues(string(source), "failed").Inc()
	resolution.Outcome = OutcomeFailed
	return resolution, nil
}

// Verify polls the provider for the authoritative transaction state and feeds
// the response through the same resolution path as a webhook body.
func (r Reconciler) Verify(ctx context.Context, reference string) (Resolution, error) {
	raw, err := r.gateway.Verify(ctx, reference)
	if err != nil {
		return Resolution{}, fmt.Errorf("gateway verify failed: %w", err)
	}
	return r.ResolveSignal(ctx, SourceVerify, raw, "")
}

// locate resolves a signal to a payment row, most reliable key first:
// explicit booking metadata, then the provider transaction id, then the
// reference table, and finally the booking id embedded in the reference.
func (r Reconciler) locate(ctx context.Context, signal Signal) (entities.Payment, error) {
	if signal.BookingID != uuid.Nil {
		payment, err := r.payments.FindByBookingID(ctx, signal.BookingID)
		if err == nil || !errors.Is(err, db.ErrNotFound) {
			return payment, err
		}
	}

	if signal.ProviderTransactionID != "" {
		payment, err := r.payments.FindByProviderTransactionID(ctx, signal.ProviderTransactionID)
		if err == nil || !errors.Is(err, db.ErrNotFound) {
			return payment, err
		}
	}

	if signal.Reference != "" {
		payment, err := r.payments.FindByReference(ctx, signal.Reference)
		if err == nil || !errors.Is(err, db.ErrNotFound) {
			return payment, err
		}

		if bookingID, ok := BookingIDFromReference(signal.Reference); ok {
			return r.payments.FindByBookingID(ctx, bookingID)
		}
	}

	return entities.Payment{}, db.ErrNotFound
}
