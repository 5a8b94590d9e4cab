package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tourbook/entities"

	"github.com/google/uuid"
)

type TourEventRepository struct {
	db *DB
}

func NewTourEventRepository(db *DB) TourEventRepository {
	if db == nil {
		panic("db is nil")
	}
	return TourEventRepository{
		db: db,
	}
}

func (er TourEventRepository) Create(ctx context.Context, event entities.TourEvent) (entities.TourEventCreateResponse, error) {
	var eventID uuid.UUID

	err := er.db.Conn.QueryRowContext(
		ctx,
		`
		INSERT INTO tour_events (title, venue, start_time, price, currency, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING event_id`,
		event.Title, event.Venue, event.StartTime, event.Price, event.Currency, event.Capacity,
	).Scan(&eventID)

	if err != nil {
		return entities.TourEventCreateResponse{}, fmt.Errorf("could not save event: %w", err)
	}

	return entities.TourEventCreateResponse{EventID: eventID}, nil
}

func (er TourEventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (entities.TourEvent, error) {
	var event entities.TourEvent
	err := er.db.Conn.GetContext(ctx, &event, `
		SELECT
		    *
		FROM
		    tour_events
		WHERE
		    event_id = $1
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TourEvent{}, ErrNotFound
	}
	if err != nil {
		return entities.TourEvent{}, fmt.Errorf("could not get event: %w", err)
	}

	return event, nil
}
