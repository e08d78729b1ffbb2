package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into ledger errors.
const (
	CodeUniqueViolation     = "23505"
	CodeNumericOutOfRange   = "22003"
	CodeCheckViolation      = "23514"
	CodeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a primary key or unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == CodeUniqueViolation
}

// IsNumericOutOfRange reports whether a value did not fit its column type.
func IsNumericOutOfRange(err error) bool {
	return pgCode(err) == CodeNumericOutOfRange
}

// IsCheckViolation reports whether a CHECK constraint rejected a row.
func IsCheckViolation(err error) bool {
	return pgCode(err) == CodeCheckViolation
}

// IsForeignKeyViolation reports whether a referenced row is missing.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == CodeForeignKeyViolation
}
