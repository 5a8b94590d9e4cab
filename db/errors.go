package db

import (
	"errors"

	"github.com/lib/pq"
)

const (
	postgresUniqueValueViolationErrorCode = "23505"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrTicketAlreadyUsed distinguishes a double redemption from an unknown
	// token: the loser of a redemption race gets this, never a silent success.
	ErrTicketAlreadyUsed = errors.New("ticket already used")
)

func isErrorUniqueViolation(err error) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) && psqlErr.Code == postgresUniqueValueViolationErrorCode
}
