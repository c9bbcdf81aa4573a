package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/sqlreverse/internal/database"
)

// clickhouseIntrospector reads system.tables and system.columns. Keys are
// per-column flags: primary key columns form the unique group, sorting key
// columns outside it form the index group.
type clickhouseIntrospector struct {
	db database.DB
}

func (c *clickhouseIntrospector) Kind() Kind { return KindClickHouse }
func (c *clickhouseIntrospector) sealed()    {}

func (c *clickhouseIntrospector) ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error) {
	const q = `
		SELECT name, comment
		FROM system.tables
		WHERE database = coalesce(nullIf(?, ''), currentDatabase())
		  AND is_temporary = 0
		  AND engine NOT IN ('View', 'MaterializedView', 'LiveView', 'WindowView')
		ORDER BY name`

	return scanTableSummaries(ctx, c.db, filter, q, schema)
}

func (c *clickhouseIntrospector) DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error) {
	const q = `
		SELECT name, type, comment, default_expression, is_in_primary_key, is_in_sorting_key
		FROM system.columns
		WHERE database = coalesce(nullIf(?, ''), currentDatabase())
		  AND table = ?
		ORDER BY position`

	rows, err := c.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	records, err := database.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	columns := make([]ColumnRecord, 0, len(records))
	for _, rec := range records {
		raw := database.AsString(rec["type"])
		inner, nullable := UnwrapClickHouseType(raw)

		col := ColumnRecord{
			Name:      database.AsString(rec["name"]),
			RawType:   raw,
			MatchType: inner,
			Nullable:  nullable,
			Comment:   database.AsString(rec["comment"]),
		}
		if def := database.AsString(rec["default_expression"]); def != "" {
			col.Default = &def
		}

		inPK := database.AsInt(rec["is_in_primary_key"]) != 0
		if inPK {
			col.Keys = append(col.Keys, KeyFlag{Unique: true})
		}
		if database.AsInt(rec["is_in_sorting_key"]) != 0 && !inPK {
			col.Keys = append(col.Keys, KeyFlag{})
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// UnwrapClickHouseType strips LowCardinality(...) and Nullable(...) from a
// column type and reports whether Nullable was present.
//
//	LowCardinality(Nullable(String)) -> String, true
func UnwrapClickHouseType(raw string) (string, bool) {
	t := strings.TrimSpace(raw)
	t = unwrap(t, "LowCardinality")
	inner := unwrap(t, "Nullable")
	return inner, inner != t
}

func unwrap(t, wrapper string) string {
	prefix := wrapper + "("
	if strings.HasPrefix(t, prefix) && strings.HasSuffix(t, ")") {
		return t[len(prefix) : len(t)-1]
	}
	return t
}
