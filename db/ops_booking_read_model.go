package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"tourbook/entities"

	"github.com/jmoiron/sqlx"
)

type OpsBookingReadModel struct {
	conn *DB
}

func NewOpsBookingReadModel(db *DB) OpsBookingReadModel {
	return OpsBookingReadModel{
		conn: db,
	}
}

func (r OpsBookingReadModel) OnBookingMade(ctx context.Context, event *entities.BookingMade_v1) error {
	// this is the first event for a booking, so it creates the read model
	err := r.createReadModel(ctx, entities.OpsBooking{
		BookingID:     event.BookingID,
		BookedAt:      event.Header.PublishedAt,
		Status:        string(entities.BookingStatusPending),
		PaymentStatus: "",
		Quantity:      event.Quantity,
		Tickets:       map[string]entities.OpsTicket{},
		LastUpdate:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("could not create read model: %w", err)
	}

	return nil
}

func (r OpsBookingReadModel) OnBookingConfirmed(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	return r.updateBookingReadModel(
		ctx,
		event.BookingID.String(),
		func(rm entities.OpsBooking) (entities.OpsBooking, error) {
			rm.Status = string(entities.BookingStatusConfirmed)
			rm.PaymentStatus = string(entities.PaymentStatusSuccess)
			for _, ticketID := range event.TicketIDs {
				rm.Tickets[ticketID.String()] = entities.OpsTicket{
					Status: string(entities.TicketStatusConfirmed),
				}
			}
			return rm, nil
		},
	)
}

func (r OpsBookingReadModel) OnBookingCanceled(ctx context.Context, event *entities.BookingCanceled_v1) error {
	return r.updateBookingReadModel(
		ctx,
		event.BookingID.String(),
		func(rm entities.OpsBooking) (entities.OpsBooking, error) {
			rm.Status = string(entities.BookingStatusCancelled)
			return rm, nil
		},
	)
}

func (r OpsBookingReadModel) OnPaymentFailed(ctx context.Context, event *entities.PaymentFailed_v1) error {
	return r.updateBookingReadModel(
		ctx,
		event.BookingID.String(),
		func(rm entities.OpsBooking) (entities.OpsBooking, error) {
			rm.PaymentStatus = string(entities.PaymentStatusFailed)
			return rm, nil
		},
	)
}

func (r OpsBookingReadModel) OnTicketRedeemed(ctx context.Context, event *entities.TicketRedeemed_v1) error {
	return r.updateBookingReadModel(
		ctx,
		event.BookingID.String(),
		func(rm entities.OpsBooking) (entities.OpsBooking, error) {
			ticket := rm.Tickets[event.TicketID.String()]
			ticket.Status = string(entities.TicketStatusUsed)
			usedAt := event.UsedAt
			ticket.RedeemedAt = &usedAt
			rm.Tickets[event.TicketID.String()] = ticket
			return rm, nil
		},
	)
}

func (r OpsBookingReadModel) GetAll(ctx context.Context) ([]entities.OpsBooking, error) {
	rows, err := r.conn.Conn.QueryContext(ctx, `SELECT payload FROM read_model_ops_bookings`)
	if err != nil {
		return nil, fmt.Errorf("could not get ops bookings: %w", err)
	}
	defer rows.Close()

	result := []entities.OpsBooking{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rm, err := r.unmarshalReadModelFromDB(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, rm)
	}

	return result, rows.Err()
}

func (r OpsBookingReadModel) GetByID(ctx context.Context, bookingID string) (entities.OpsBooking, error) {
	var payload []byte

	err := r.conn.Conn.QueryRowContext(
		ctx,
		"SELECT payload FROM read_model_ops_bookings WHERE booking_id = $1",
		bookingID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.OpsBooking{}, ErrNotFound
	}
	if err != nil {
		return entities.OpsBooking{}, err
	}

	return r.unmarshalReadModelFromDB(payload)
}

func (r OpsBookingReadModel) createReadModel(ctx context.Context, opsBooking entities.OpsBooking) error {
	payload, err := json.Marshal(opsBooking)
	if err != nil {
		return err
	}

	_, err = r.conn.Conn.ExecContext(ctx, `
		INSERT INTO
		    read_model_ops_bookings (payload, booking_id)
		VALUES
			($1, $2)
		ON CONFLICT (booking_id) DO NOTHING; -- read model may be already updated by another event - we don't want to override
`, payload, opsBooking.BookingID)

	if err != nil {
		return fmt.Errorf("could not create read model: %w", err)
	}

	return nil
}

func (r OpsBookingReadModel) updateBookingReadModel(
	ctx context.Context,
	bookingID string,
	updateFunc func(rm entities.OpsBooking) (entities.OpsBooking, error),
) error {
	return updateInTx(
		ctx,
		r.conn.Conn,
		sql.LevelRepeatableRead,
		func(ctx context.Context, tx *sqlx.Tx) error {
			rm, err := r.findModelByBookingID(ctx, bookingID, tx)
			if errors.Is(err, sql.ErrNoRows) {
				// events arrived out of order - retry until the read model is created
				return fmt.Errorf("read model for booking %s does not exist yet", bookingID)
			} else if err != nil {
				return fmt.Errorf("could not find read model: %w", err)
			}

			updatedRm, err := updateFunc(rm)
			if err != nil {
				return err
			}

			return r.updateModel(ctx, tx, updatedRm)
		},
	)
}

func (r OpsBookingReadModel) updateModel(ctx context.Context, tx *sqlx.Tx, readModel entities.OpsBooking) error {
	readModel.LastUpdate = time.Now()

	payload, err := json.Marshal(readModel)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO
			read_model_ops_bookings (payload, booking_id)
		VALUES
			($1, $2)
		ON CONFLICT (booking_id) DO UPDATE SET payload = excluded.payload;
		`, payload, readModel.BookingID)
	if err != nil {
		return fmt.Errorf("could not update read model: %w", err)
	}

	return nil
}

func (r OpsBookingReadModel) findModelByBookingID(ctx context.Context, bookingID string, tx *sqlx.Tx) (entities.OpsBooking, error) {
	var payload []byte

	err := tx.QueryRowContext(
		ctx,
		"SELECT payload FROM read_model_ops_bookings WHERE booking_id = $1",
		bookingID,
	).Scan(&payload)
	if err != nil {
		return entities.OpsBooking{}, err
	}

	return r.unmarshalReadModelFromDB(payload)
}

func (r OpsBookingReadModel) unmarshalReadModelFromDB(payload []byte) (entities.OpsBooking, error) {
	var opsReadModel entities.OpsBooking

	err := json.Unmarshal(payload, &opsReadModel)
	if err != nil {
		return entities.OpsBooking{}, err
	}

	if opsReadModel.Tickets == nil {
		opsReadModel.Tickets = map[string]entities.OpsTicket{}
	}
	return opsReadModel, nil
}

func updateInTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
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

	return fn(ctx, tx)
}
