package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tourbook/entities"

	"github.com/google/uuid"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	if db == nil {
		panic("db is nil")
	}
	return UserRepository{
		db: db,
	}
}

func (ur UserRepository) Create(ctx context.Context, user entities.User) error {
	_, err := ur.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
		    users (user_id, email, name, phone)
		VALUES (:user_id, :email, :name, :phone)
		ON CONFLICT (user_id) DO NOTHING
		`, user)
	if err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}
	return nil
}

func (ur UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (entities.User, error) {
	var user entities.User
	err := ur.db.Conn.GetContext(ctx, &user, `SELECT * FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, ErrNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("could not get user: %w", err)
	}
	return user, nil
}
