// Package sqlite opens SQLite database files through the pure-Go
// modernc.org/sqlite driver, so the binary stays cgo-free.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/database/sqldb"
	"github.com/koustreak/sqlreverse/internal/errs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// New opens the database file named by cfg.DSN. Accepted forms are a plain
// path, a file: URI, or sqlite://path as used in config files.
func New(ctx context.Context, cfg *database.Config) (*sqldb.Driver, error) {
	c := *cfg
	c.DSN = NormalizeDSN(cfg.DSN)
	if c.DSN == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "empty sqlite path")
	}
	return sqldb.Open(ctx, "sqlite", &c, mapError)
}

// NormalizeDSN strips the sqlite:// scheme; other forms pass through.
func NormalizeDSN(dsn string) string {
	return strings.TrimPrefix(dsn, "sqlite://")
}

func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classifyCode(sqliteErr.Code()), fmt.Sprintf("%s: %s", msg, sqliteErr.Error()), err)
	}

	return sqldb.MapError(err, msg)
}

// classifyCode maps a (possibly extended) SQLite result code.
func classifyCode(code int) errs.ErrKind {
	switch code & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return errs.ErrKindConnectionFailed
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return errs.ErrKindPermissionDenied
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
