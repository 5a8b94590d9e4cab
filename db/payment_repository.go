package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"tourbook/entities"

	"github.com/google/uuid"
)

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) PaymentRepository {
	if db == nil {
		panic("db is nil")
	}
	return PaymentRepository{
		db: db,
	}
}

// Create stores the payment row and its provider-reference mapping together.
// The reference table is the authoritative reverse lookup; parsing the
// reference string is only a fallback for signals that predate the row.
func (pr PaymentRepository) Create(ctx context.Context, payment entities.Payment) (err error) {
	tx, err := pr.db.Conn.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO
		    payments (payment_id, user_id, amount, currency, provider, status, metadata)
		VALUES (:payment_id, :user_id, :amount, :currency, :provider, :status, :metadata)
		`, payment)
	if err != nil {
		return fmt.Errorf("could not add payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO
		    payment_references (reference, payment_id, booking_id)
		VALUES ($1, $2, $3)
		`, payment.Metadata.Reference, payment.PaymentID, payment.Metadata.BookingID)
	if err != nil {
		return fmt.Errorf("could not add payment reference: %w", err)
	}

	return nil
}

func (pr PaymentRepository) MarkInitiated(
	ctx context.Context,
	paymentID uuid.UUID,
	providerTransactionID string,
	checkoutURL string,
	providerEcho json.RawMessage,
) error {
	_, err := pr.db.Conn.ExecContext(ctx, `
		UPDATE payments
		SET status = 'initiated',
		    provider_transaction_id = $2,
		    checkout_url = $3,
		    metadata = metadata || jsonb_build_object('provider_echo', $4::jsonb),
		    updated_at = now()
		WHERE payment_id = $1 AND status = 'pending'
	`, paymentID, providerTransactionID, checkoutURL, string(providerEcho))
	if err != nil {
		return fmt.Errorf("could not mark payment initiated: %w", err)
	}
	return nil
}

// RecordInitError keeps the gateway rejection for forensics; the payment stays
// pending so the user can be offered a retry.
func (pr PaymentRepository) RecordInitError(ctx context.Context, paymentID uuid.UUID, initErr string) error {
	_, err := pr.db.Conn.ExecContext(ctx, `
		UPDATE payments
		SET metadata = metadata || jsonb_build_object('init_error', to_jsonb($2::text)), updated_at = now()
		WHERE payment_id = $1
	`, paymentID, initErr)
	if err != nil {
		return fmt.Errorf("could not record init error: %w", err)
	}
	return nil
}

// MarkTerminal is the single serialization point for payment resolution: the
// conditional update succeeds for exactly one caller, every later or
// concurrent attempt sees zero affected rows.
func (pr PaymentRepository) MarkTerminal(
	ctx context.Context,
	paymentID uuid.UUID,
	status entities.PaymentStatus,
	providerTransactionID *string,
) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("status %s is not terminal", status)
	}

	res, err := pr.db.Conn.ExecContext(ctx, `
		UPDATE payments
		SET status = $2,
		    provider_transaction_id = COALESCE(provider_transaction_id, $3),
		    updated_at = now()
		WHERE payment_id = $1 AND status IN ('pending', 'initiated')
	`, paymentID, status, providerTransactionID)
	if err != nil {
		return false, fmt.Errorf("could not mark payment terminal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read affected rows: %w", err)
	}

	return affected == 1, nil
}

func (pr PaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (entities.Payment, error) {
	return pr.getOne(ctx, `SELECT * FROM payments WHERE payment_id = $1`, paymentID)
}

func (pr PaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (entities.Payment, error) {
	return pr.getOne(ctx, `
		SELECT * FROM payments
		WHERE metadata->>'booking_id' = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, bookingID.String())
}

func (pr PaymentRepository) FindByProviderTransactionID(ctx context.Context, providerTransactionID string) (entities.Payment, error) {
	return pr.getOne(ctx, `SELECT * FROM payments WHERE provider_transaction_id = $1`, providerTransactionID)
}

func (pr PaymentRepository) FindByReference(ctx context.Context, reference string) (entities.Payment, error) {
	return pr.getOne(ctx, `
		SELECT p.* FROM payments p
		JOIN payment_references r ON r.payment_id = p.payment_id
		WHERE r.reference = $1
	`, reference)
}

func (pr PaymentRepository) getOne(ctx context.Context, query string, args ...any) (entities.Payment, error) {
	var payment entities.Payment
	err := pr.db.Conn.GetContext(ctx, &payment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Payment{}, ErrNotFound
	}
	if err != nil {
		return entities.Payment{}, fmt.Errorf("could not get payment: %w", err)
	}
	return payment, nil
}
