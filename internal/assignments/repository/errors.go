package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicatePair signals an insert that would duplicate an ACTIVE
// (lead, agent) binding.
var ErrDuplicatePair = errors.New("lead is already actively assigned to this agent")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
