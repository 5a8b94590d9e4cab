package entities

import "github.com/google/uuid"

type User struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Email  string    `json:"email" db:"email"`
	Name   string    `json:"name" db:"name"`
	Phone  string    `json:"phone" db:"phone"`
}
