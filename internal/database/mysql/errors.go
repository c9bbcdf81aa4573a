package mysql

import (
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/sqlreverse/internal/database/sqldb"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// MySQL error numbers relevant to catalog reads.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied  = 1044
	errAccessDenied    = 1045
	errNoDatabase      = 1046
	errUnknownDatabase = 1049
	errTooManyConns    = 1040
	errUserLimit       = 1203
	errTableAccess     = 1142
	errNoSuchTable     = 1146
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return sqldb.MapError(err, msg)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errAccessDenied, errDBAccessDenied, errTableAccess:
		return errs.ErrKindPermissionDenied
	case errNoDatabase, errUnknownDatabase, errTooManyConns, errUserLimit:
		return errs.ErrKindConnectionFailed
	case errNoSuchTable:
		return errs.ErrKindNotFound
	default:
		return errs.ErrKindQueryFailed
	}
}
