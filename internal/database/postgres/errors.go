package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// PostgreSQL SQLSTATE codes and classes relevant to catalog reads.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection       = "08"
	pgClassInvalidAuth      = "28"
	pgInsufficientPrivilege = "42501"
	pgUndefinedTable        = "42P01"
	pgInvalidSchemaName     = "3F000"
	pgInvalidCatalogName    = "3D000"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func classifySQLState(code string) errs.ErrKind {
	switch code {
	case pgInsufficientPrivilege:
		return errs.ErrKindPermissionDenied
	case pgUndefinedTable, pgInvalidSchemaName:
		return errs.ErrKindNotFound
	case pgInvalidCatalogName:
		return errs.ErrKindConnectionFailed
	}
	if len(code) >= 2 {
		switch code[:2] {
		case pgClassConnection:
			return errs.ErrKindConnectionFailed
		case pgClassInvalidAuth:
			return errs.ErrKindPermissionDenied
		}
	}
	return errs.ErrKindQueryFailed
}
