// Package sqldb adapts a database/sql pool to database.DB.
//
// MySQL, SQLite, ClickHouse and TDengine all ship database/sql drivers, so
// they share this implementation and only differ in driver name and in how
// their native errors map onto errs kinds.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// ErrorMapper translates a driver-native error into *errs.Error.
// msg describes the operation that failed.
type ErrorMapper func(err error, msg string) *errs.Error

// Driver implements database.DB on top of *sql.DB.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db           *sql.DB
	mapErr       ErrorMapper
	queryTimeout time.Duration // zero disables the per-query deadline
}

// Open opens a pool for driverName with cfg's pool settings and pings it
// within cfg.ConnectTimeout before returning.
func Open(ctx context.Context, driverName string, cfg *database.Config, mapErr ErrorMapper) (*Driver, error) {
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := NewFromDB(db, mapErr)
	d.queryTimeout = cfg.QueryTimeout

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// NewFromDB wraps an already opened pool. A nil mapErr uses MapError.
func NewFromDB(db *sql.DB, mapErr ErrorMapper) *Driver {
	if mapErr == nil {
		mapErr = MapError
	}
	return &Driver{db: db, mapErr: mapErr}
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return d.mapErr(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

// DB exposes the pool for callers that need more than catalog reads,
// such as seeding fixtures.
func (d *Driver) DB() *sql.DB {
	return d.db
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	ctx, cancel := d.withDeadline(ctx)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		cancel()
		return nil, d.mapErr(err, "query failed")
	}
	return &sqlRows{rows: rows, cancel: cancel}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	ctx, cancel := d.withDeadline(ctx)
	row := d.db.QueryRowContext(ctx, query, args...)
	return &sqlRow{row: row, cancel: cancel, mapErr: d.mapErr}, nil
}

func (d *Driver) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// --- sql.DB type wrappers ---

type sqlRows struct {
	rows   *sql.Rows
	cancel context.CancelFunc
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

func (r *sqlRows) Close() {
	_ = r.rows.Close()
	r.cancel()
}

type sqlRow struct {
	row    *sql.Row
	cancel context.CancelFunc
	mapErr ErrorMapper
}

func (r *sqlRow) Scan(dest ...any) error {
	defer r.cancel()
	if err := r.row.Scan(dest...); err != nil {
		return r.mapErr(err, "scan failed")
	}
	return nil
}

// MapError is the fallback mapping shared by every database/sql driver:
// deadlines, missing rows, and everything else as a connection failure.
func MapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
