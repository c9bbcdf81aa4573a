package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/sqlreverse/internal/database"
)

// DefaultPostgresSchema is used when no schema name is configured.
const DefaultPostgresSchema = "public"

// postgresIntrospector reads pg_catalog directly: information_schema hides
// comments and reports types without modifiers.
type postgresIntrospector struct {
	db database.DB
}

func (p *postgresIntrospector) Kind() Kind { return KindPostgres }
func (p *postgresIntrospector) sealed()    {}

func (p *postgresIntrospector) ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error) {
	const q = `
		SELECT c.relname, COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relkind IN ('r', 'p')
		ORDER BY c.relname`

	return scanTableSummaries(ctx, p.db, filter, q, pgSchema(schema))
}

func (p *postgresIntrospector) DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error) {
	const q = `
		SELECT
			a.attname,
			pg_catalog.format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			COALESCE(pg_catalog.col_description(a.attrelid, a.attnum), ''),
			pg_catalog.pg_get_expr(d.adbin, d.adrelid)
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1
		  AND c.relname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum`

	schema = pgSchema(schema)
	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []ColumnRecord
	for rows.Next() {
		var col ColumnRecord
		if err := rows.Scan(&col.Name, &col.RawType, &col.Nullable, &col.Comment, &col.Default); err != nil {
			return nil, fmt.Errorf("scan column of %s.%s: %w", schema, table, err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s.%s: %w", schema, table, err)
	}

	flags, err := p.indexFlags(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	attachKeys(columns, flags)
	return columns, nil
}

// indexFlags lists index columns, primary key first, then by creation order.
// Expression index parts have no attribute and drop out of the join.
func (p *postgresIntrospector) indexFlags(ctx context.Context, schema, table string) (map[string][]KeyFlag, error) {
	const q = `
		SELECT i.relname, ix.indisunique, k.ord, a.attname
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1
		  AND t.relname = $2
		ORDER BY ix.indisprimary DESC, i.oid, k.ord`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	flags := make(map[string][]KeyFlag)
	order := make(map[string]int)
	for rows.Next() {
		var (
			index, column string
			unique        bool
			seq           int64
		)
		if err := rows.Scan(&index, &unique, &seq, &column); err != nil {
			return nil, fmt.Errorf("scan index of %s.%s: %w", schema, table, err)
		}
		if _, ok := order[index]; !ok {
			order[index] = len(order)
		}
		flags[column] = append(flags[column], KeyFlag{
			Group:  index,
			Unique: unique,
			Seq:    int(seq),
			Order:  order[index],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list indexes of %s.%s: %w", schema, table, err)
	}
	return flags, nil
}

func pgSchema(schema string) string {
	if schema == "" {
		return DefaultPostgresSchema
	}
	return schema
}
