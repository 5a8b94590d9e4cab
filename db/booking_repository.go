package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
	"tourbook/entities"
	"tourbook/message/event"
	"tourbook/message/outbox"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) BookingRepository {
	if db == nil {
		panic("db is nil")
	}
	return BookingRepository{
		db: db,
	}
}

// Create persists a pending booking. The capacity check and the insert share
// one serializable transaction so concurrent bookings cannot oversell an event.
func (br BookingRepository) Create(ctx context.Context, booking entities.Booking) (_ entities.BookingCreateResponse, err error) {
	tx, err := br.db.Conn.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable})
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	capacity := 0
	err = tx.GetContext(ctx, &capacity, `
		SELECT
		    capacity
		FROM
		    tour_events
		WHERE
		    event_id = $1
	`, booking.EventID)
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("could not get event capacity: %w", err)
	}

	alreadyBooked := 0
	err = tx.GetContext(ctx, &alreadyBooked, `
		SELECT
		    coalesce(SUM(quantity), 0) AS already_booked
		FROM
		    bookings
		WHERE
		    event_id = $1 AND status <> 'cancelled'
	`, booking.EventID)
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("could not get booked quantity: %w", err)
	}

	if capacity-alreadyBooked < booking.Quantity {
		return entities.BookingCreateResponse{}, echo.NewHTTPError(http.StatusBadRequest, "not enough capacity left")
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO
		    bookings (booking_id, user_id, event_id, quantity, sub_total, tax, fees, total, currency, status)
		VALUES (:booking_id, :user_id, :event_id, :quantity, :sub_total, :tax, :fees, :total, :currency, :status)
		`, booking)
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("could not add booking: %w", err)
	}

	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("error creating event outbox publisher: %w", err)
	}
	err = event.NewBus(outboxPublisher).Publish(ctx, entities.BookingMade_v1{
		Header:    entities.NewEventHeader(),
		BookingID: booking.BookingID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		Quantity:  booking.Quantity,
		Total:     entities.Money{Amount: booking.Total, Currency: booking.Currency},
	})
	if err != nil {
		return entities.BookingCreateResponse{}, fmt.Errorf("could not publish event: %w", err)
	}

	return entities.BookingCreateResponse{BookingID: booking.BookingID}, nil
}

func (br BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking
	err := br.db.Conn.GetContext(ctx, &booking, `
		SELECT
		    *
		FROM
		    bookings
		WHERE
		    booking_id = $1
	`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, ErrNotFound
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	return booking, nil
}

// Cancel flips the booking to cancelled. Issued tickets and the event's
// booking_count are left untouched: the counter tracks demand, not inventory,
// and reclaiming used tickets is an administrative action outside this flow.
func (br BookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID) (err error) {
	tx, err := br.db.Conn.BeginTxx(ctx, &sql.TxOptions{})
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

	var userID uuid.UUID
	err = tx.QueryRowxContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = now()
		WHERE booking_id = $1 AND status <> 'cancelled'
		RETURNING user_id
	`, bookingID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		// either unknown or already cancelled - cancelling twice is a no-op
		var exists bool
		err = tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_id = $1)`, bookingID)
		if err != nil {
			return fmt.Errorf("could not check booking existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not cancel booking: %w", err)
	}

	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("error creating event outbox publisher: %w", err)
	}
	err = event.NewBus(outboxPublisher).Publish(ctx, entities.BookingCanceled_v1{
		Header:    entities.NewEventHeader(),
		BookingID: bookingID,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}

// ConfirmWithTickets applies the confirmation tri-mutation atomically: booking
// status flip, ticket minting and the event booking counter commit together or
// not at all. The status flip is conditional on the booking still being
// pending, so a second confirmation attempt degrades to returning the already
// committed state.
func (br BookingRepository) ConfirmWithTickets(
	ctx context.Context,
	bookingID uuid.UUID,
	paymentID uuid.UUID,
	tokens []string,
) (_ entities.Booking, _ []entities.Ticket, err error) {
	tx, err := br.db.Conn.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable})
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'confirmed', transaction_id = $2, updated_at = now()
		WHERE booking_id = $1 AND status = 'pending'
	`, bookingID, paymentID)
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not confirm booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not read affected rows: %w", err)
	}

	var booking entities.Booking
	err = tx.GetContext(ctx, &booking, `SELECT * FROM bookings WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, nil, ErrNotFound
	}
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not get booking: %w", err)
	}

	if affected == 0 {
		if booking.Status == entities.BookingStatusConfirmed {
			var tickets []entities.Ticket
			err = tx.SelectContext(ctx, &tickets, `SELECT * FROM tickets WHERE booking_id = $1`, bookingID)
			if err != nil {
				return entities.Booking{}, nil, fmt.Errorf("could not get tickets: %w", err)
			}
			return booking, tickets, nil
		}
		return entities.Booking{}, nil, fmt.Errorf("cannot confirm booking %s in status %s", bookingID, booking.Status)
	}

	if len(tokens) != booking.Quantity {
		return entities.Booking{}, nil, fmt.Errorf("expected %d tokens, got %d", booking.Quantity, len(tokens))
	}

	tickets := make([]entities.Ticket, 0, len(tokens))
	for _, token := range tokens {
		ticket := entities.Ticket{
			TicketID:  uuid.New(),
			BookingID: booking.BookingID,
			EventID:   booking.EventID,
			UserID:    booking.UserID,
			Status:    entities.TicketStatusConfirmed,
			QRToken:   token,
			CreatedAt: time.Now().UTC(),
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO
			    tickets (ticket_id, booking_id, event_id, user_id, status, qr_token)
			VALUES (:ticket_id, :booking_id, :event_id, :user_id, :status, :qr_token)
			`, ticket)
		if err != nil {
			if isErrorUniqueViolation(err) {
				return entities.Booking{}, nil, fmt.Errorf("ticket token collision: %w", err)
			}
			return entities.Booking{}, nil, fmt.Errorf("could not mint ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tour_events
		SET booking_count = booking_count + $2
		WHERE event_id = $1
	`, booking.EventID, booking.Quantity)
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not bump booking count: %w", err)
	}

	ticketIDs := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ticketIDs = append(ticketIDs, t.TicketID)
	}

	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("error creating event outbox publisher: %w", err)
	}
	err = event.NewBus(outboxPublisher).Publish(ctx, entities.BookingConfirmed_v1{
		Header:    entities.NewEventHeader(),
		BookingID: booking.BookingID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		PaymentID: paymentID,
		Quantity:  booking.Quantity,
		TicketIDs: ticketIDs,
	})
	if err != nil {
		return entities.Booking{}, nil, fmt.Errorf("could not publish event: %w", err)
	}

	return booking, tickets, nil
}
