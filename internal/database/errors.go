package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the stores care about.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", ""
	}

	return pgErr.Code, pgErr.ConstraintName
}

// IsTransient reports whether err is a lock or serialization conflict that
// may succeed when the unit of work is retried.
func IsTransient(err error) bool {
	code, _ := pgCode(err)

	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}

	return false
}

// IsUniqueViolation reports whether err violates the named unique
// constraint or index. An empty name matches any.
func IsUniqueViolation(err error, constraint string) bool {
	code, name := pgCode(err)
	return code == codeUniqueViolation && (constraint == "" || name == constraint)
}

// IsForeignKeyViolation reports whether err violates a foreign key.
func IsForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}
