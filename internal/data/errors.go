package data

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Shared sentinel errors for data-layer repositories.
var (
	// ErrItemNotFound is returned when a queue item lookup misses.
	ErrItemNotFound = errors.New("queue item not found")
	// ErrSourceNotFound is returned when a source lookup by id misses.
	ErrSourceNotFound = errors.New("source not found")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The queue's spawn-safety partial index surfaces concurrent
// duplicate spawns this way.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
