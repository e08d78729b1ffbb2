package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pl974/dealchain/internal/service"
	"github.com/pl974/dealchain/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// u64 columns are NUMERIC(20,0). They are written as decimal strings cast
// with ::numeric and read back with ::text, so no value passes through a
// signed 64-bit integer.

func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseNumeric(column, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", column, err)
	}
	return v, nil
}

// mapWriteError translates constraint failures on a write. duplicate is the
// ledger error for a primary key or unique collision.
func mapWriteError(err error, duplicate error, step string) error {
	switch {
	case duplicate != nil && database.IsUniqueViolation(err):
		return duplicate
	case database.IsNumericOutOfRange(err):
		return service.ErrArithmeticOverflow
	default:
		return fmt.Errorf("%s: %w", step, err)
	}
}
