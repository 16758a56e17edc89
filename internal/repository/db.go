package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Callers address records by opaque string ids; the numeric form stays inside
// this package. An id that does not parse cannot match any row, so it is
// reported as pgx.ErrNoRows rather than a malformed-input error.
func parseID(id string) (int64, error) {
	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, pgx.ErrNoRows
	}
	return parsed, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
