package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tourbook/entities"

	"github.com/google/uuid"
)

type TicketRepository struct {
	db *DB
}

func NewTicketRepository(db *DB) TicketRepository {
	if db == nil {
		panic("db is nil")
	}
	return TicketRepository{
		db: db,
	}
}

func (tr TicketRepository) GetByID(ctx context.Context, ticketID uuid.UUID) (entities.Ticket, error) {
	return tr.getOne(ctx, `SELECT * FROM tickets WHERE ticket_id = $1`, ticketID)
}

func (tr TicketRepository) GetByToken(ctx context.Context, token string) (entities.Ticket, error) {
	return tr.getOne(ctx, `SELECT * FROM tickets WHERE qr_token = $1`, token)
}

func (tr TicketRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := tr.db.Conn.SelectContext(ctx, &tickets, `
		SELECT * FROM tickets WHERE booking_id = $1 ORDER BY created_at
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("could not list tickets: %w", err)
	}
	return tickets, nil
}

// Redeem is a single check-and-set: of two concurrent redemptions for the same
// token exactly one gets the row, the other gets ErrTicketAlreadyUsed.
func (tr TicketRepository) Redeem(ctx context.Context, token string) (entities.Ticket, error) {
	var ticket entities.Ticket
	err := tr.db.Conn.QueryRowxContext(ctx, `
		UPDATE tickets
		SET status = 'used', used_at = now()
		WHERE qr_token = $1 AND status = 'confirmed'
		RETURNING *
	`, token).StructScan(&ticket)
	if errors.Is(err, sql.ErrNoRows) {
		_, lookupErr := tr.GetByToken(ctx, token)
		if lookupErr != nil {
			return entities.Ticket{}, lookupErr
		}
		return entities.Ticket{}, ErrTicketAlreadyUsed
	}
	if err != nil {
		return entities.Ticket{}, fmt.Errorf("could not redeem ticket: %w", err)
	}

	return ticket, nil
}

func (tr TicketRepository) AttachImage(ctx context.Context, ticketID uuid.UUID, image []byte) error {
	_, err := tr.db.Conn.ExecContext(ctx, `
		UPDATE tickets SET qr_image = $2 WHERE ticket_id = $1
	`, ticketID, image)
	if err != nil {
		return fmt.Errorf("could not attach ticket image: %w", err)
	}
	return nil
}

func (tr TicketRepository) getOne(ctx context.Context, query string, args ...any) (entities.Ticket, error) {
	var ticket entities.Ticket
	err := tr.db.Conn.GetContext(ctx, &ticket, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Ticket{}, ErrNotFound
	}
	if err != nil {
		return entities.Ticket{}, fmt.Errorf("could not get ticket: %w", err)
	}
	return ticket, nil
}
