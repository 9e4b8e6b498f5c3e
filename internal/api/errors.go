package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// StatusAndKind classifies err into an HTTP status and a client-facing kind.
func StatusAndKind(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, KindForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, KindConflict
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// ClassifyPgError maps store errors onto error kinds so the HTTP layer
// never has to know about pgx. Other errors are wrapped with what.
func ClassifyPgError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Errorf(ErrNotFound, "%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Errorf(ErrConflict, "%s already exists", what)
		case pgForeignKeyViolation:
			return Errorf(ErrConflict, "%s is still referenced", what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
