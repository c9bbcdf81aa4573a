// Package schema reads table and column metadata from a database catalog.
//
// One Introspector exists per backend kind. The set is closed: New is the
// only constructor and the interface cannot be implemented outside this
// package.
package schema

import (
	"context"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// Kind selects the catalog dialect.
type Kind string

const (
	KindMySQL      Kind = Kind(database.DriverMySQL)
	KindPostgres   Kind = Kind(database.DriverPostgres)
	KindSQLite     Kind = Kind(database.DriverSQLite)
	KindClickHouse Kind = Kind(database.DriverClickHouse)
	KindTDengine   Kind = Kind(database.DriverTDengine)
)

// Introspector lists tables and describes their columns.
type Introspector interface {
	// Kind reports the catalog dialect.
	Kind() Kind

	// ListTables returns the tables of schema that pass filter, ordered by
	// name. An empty schema means the connection's current database.
	ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error)

	// DescribeTable returns the columns of table in catalog order, with key
	// memberships attached.
	DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error)

	sealed()
}

// New returns the introspector for kind running against db.
func New(kind Kind, db database.DB) (Introspector, error) {
	switch kind {
	case KindMySQL:
		return &mysqlIntrospector{db: db}, nil
	case KindPostgres:
		return &postgresIntrospector{db: db}, nil
	case KindSQLite:
		return &sqliteIntrospector{db: db}, nil
	case KindClickHouse:
		return &clickhouseIntrospector{db: db}, nil
	case KindTDengine:
		return &tdengineIntrospector{db: db}, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "no introspector for %q", kind)
	}
}

// Filter restricts ListTables by exact table name. A non-empty Include
// admits only the named tables; Exclude is applied afterwards.
type Filter struct {
	Include []string
	Exclude []string
}

// Apply filters tables, keeping catalog order.
func (f Filter) Apply(tables []TableSummary) []TableSummary {
	include := toSet(f.Include)
	exclude := toSet(f.Exclude)

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		if len(include) > 0 {
			if _, ok := include[t.Name]; !ok {
				continue
			}
		}
		if _, ok := exclude[t.Name]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
