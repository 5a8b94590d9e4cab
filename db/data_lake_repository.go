package db

import (
	"context"
	"fmt"
	"tourbook/entities"
)

type DataLakeRepository struct {
	db *DB
}

func NewDataLakeRepository(db *DB) DataLakeRepository {
	if db == nil {
		panic("db is nil")
	}
	return DataLakeRepository{
		db: db,
	}
}

func (e DataLakeRepository) Store(ctx context.Context, event entities.DataLakeEvent) error {
	_, err := e.db.Conn.ExecContext(ctx, `
		INSERT INTO
		    events (event_id, published_at, event_name, event_payload)
		VALUES
			 ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING;
`, event.EventID, event.PublishedAt, event.EventName, event.EventPayload)

	if err != nil {
		return fmt.Errorf("could not store event in data lake: %w", err)
	}

	return nil
}

func (e DataLakeRepository) GetAll(ctx context.Context) ([]entities.DataLakeEvent, error) {
	var events []entities.DataLakeEvent
	err := e.db.Conn.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM events
		ORDER BY published_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("could not get events from data lake: %w", err)
	}

	return events, nil
}
