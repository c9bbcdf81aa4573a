package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/sqlreverse/internal/database"
)

// mysqlIntrospector reads information_schema and SHOW INDEX.
type mysqlIntrospector struct {
	db database.DB
}

func (m *mysqlIntrospector) Kind() Kind { return KindMySQL }
func (m *mysqlIntrospector) sealed()    {}

func (m *mysqlIntrospector) ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error) {
	const q = `
		SELECT TABLE_NAME, COALESCE(TABLE_COMMENT, '')
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		  AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	return scanTableSummaries(ctx, m.db, filter, q, schema)
}

func (m *mysqlIntrospector) DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error) {
	const q = `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE,
			COALESCE(COLUMN_COMMENT, ''),
			COLUMN_DEFAULT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		  AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := m.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnRecord
	for rows.Next() {
		var col ColumnRecord
		var nullable string
		if err := rows.Scan(&col.Name, &col.RawType, &nullable, &col.Comment, &col.Default); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	flags, err := m.indexFlags(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	attachKeys(columns, flags)
	return columns, nil
}

// indexFlags reads SHOW INDEX. Its column set differs between MySQL and
// MariaDB versions, so rows are read by name.
func (m *mysqlIntrospector) indexFlags(ctx context.Context, schema, table string) (map[string][]KeyFlag, error) {
	target := database.QuoteIdent(database.DriverMySQL, table)
	if schema != "" {
		target = database.QuoteIdent(database.DriverMySQL, schema) + "." + target
	}

	rows, err := m.db.Query(ctx, "SHOW INDEX FROM "+target)
	if err != nil {
		return nil, fmt.Errorf("show index from %s: %w", table, err)
	}
	records, err := database.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("show index from %s: %w", table, err)
	}

	flags := make(map[string][]KeyFlag)
	order := make(map[string]int)
	for _, rec := range records {
		column := database.AsString(rec["Column_name"])
		if column == "" {
			// functional key part
			continue
		}
		name := database.AsString(rec["Key_name"])
		if _, ok := order[name]; !ok {
			order[name] = len(order)
		}
		flags[column] = append(flags[column], KeyFlag{
			Group:  name,
			Unique: database.AsInt(rec["Non_unique"]) == 0,
			Seq:    database.AsInt(rec["Seq_in_index"]),
			Order:  order[name],
		})
	}
	return flags, nil
}

// scanTableSummaries runs a (name, comment) listing query and filters it.
func scanTableSummaries(ctx context.Context, db database.DB, filter Filter, q string, args ...any) ([]TableSummary, error) {
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []TableSummary
	for rows.Next() {
		var (
			name    string
			comment *string
		)
		if err := rows.Scan(&name, &comment); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		t := TableSummary{Name: name}
		if comment != nil {
			t.Comment = *comment
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return filter.Apply(tables), nil
}
