// Package clickhouse opens ClickHouse connections through the database/sql
// interface of clickhouse-go.
package clickhouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/database/sqldb"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// ClickHouse server exception codes relevant to catalog reads.
const (
	codeUnknownTable       = 60
	codeUnknownDatabase    = 81
	codeTimeoutExceeded    = 159
	codeRequiredPassword   = 194
	codeAccessDenied       = 497
	codeAuthenticationFail = 516
)

// New opens a pool from a clickhouse:// DSN, e.g.
// clickhouse://default:@localhost:9000/analytics.
func New(ctx context.Context, cfg *database.Config) (*sqldb.Driver, error) {
	if _, err := clickhouse.ParseDSN(cfg.DSN); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid clickhouse DSN", err)
	}
	return sqldb.Open(ctx, "clickhouse", cfg, mapError)
}

func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		return errs.Wrap(classifyCode(ex.Code), fmt.Sprintf("%s: %s", msg, ex.Message), err)
	}

	return sqldb.MapError(err, msg)
}

func classifyCode(code int32) errs.ErrKind {
	switch code {
	case codeUnknownTable, codeUnknownDatabase:
		return errs.ErrKindNotFound
	case codeTimeoutExceeded:
		return errs.ErrKindTimeout
	case codeRequiredPassword, codeAccessDenied, codeAuthenticationFail:
		return errs.ErrKindPermissionDenied
	default:
		return errs.ErrKindQueryFailed
	}
}
