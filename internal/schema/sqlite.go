package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/sqlreverse/internal/database"
)

// DefaultSQLiteSchema is the main database of a connection.
const DefaultSQLiteSchema = "main"

// sqliteIntrospector reads sqlite_master and the table-valued pragmas.
// SQLite has no table or column comments.
type sqliteIntrospector struct {
	db database.DB
}

func (s *sqliteIntrospector) Kind() Kind { return KindSQLite }
func (s *sqliteIntrospector) sealed()    {}

func (s *sqliteIntrospector) ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error) {
	q := `
		SELECT name, ''
		FROM ` + database.QuoteIdent(database.DriverSQLite, sqliteSchema(schema)) + `.sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	return scanTableSummaries(ctx, s.db, filter, q)
}

func (s *sqliteIntrospector) DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error) {
	const q = `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?, ?)
		ORDER BY cid`

	schema = sqliteSchema(schema)
	rows, err := s.db.Query(ctx, q, table, schema)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnRecord
	flags := make(map[string][]KeyFlag)
	for rows.Next() {
		var (
			col     ColumnRecord
			notNull int64
			pk      int64
		)
		if err := rows.Scan(&col.Name, &col.RawType, &notNull, &col.Default, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		col.Nullable = notNull == 0 && pk == 0
		if pk > 0 {
			flags[col.Name] = append(flags[col.Name], KeyFlag{Group: "PRIMARY", Unique: true, Seq: int(pk)})
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	if err := s.indexFlags(ctx, schema, table, flags); err != nil {
		return nil, err
	}
	attachKeys(columns, flags)
	return columns, nil
}

type sqliteIndex struct {
	name   string
	unique bool
}

// indexFlags adds every index except the one backing the primary key, which
// table_info already reports.
func (s *sqliteIntrospector) indexFlags(ctx context.Context, schema, table string, flags map[string][]KeyFlag) error {
	const listQ = `
		SELECT name, "unique", origin
		FROM pragma_index_list(?, ?)
		ORDER BY seq`

	rows, err := s.db.Query(ctx, listQ, table, schema)
	if err != nil {
		return fmt.Errorf("list indexes of %s: %w", table, err)
	}
	var indexes []sqliteIndex
	for rows.Next() {
		var (
			idx    sqliteIndex
			unique int64
			origin string
		)
		if err := rows.Scan(&idx.name, &unique, &origin); err != nil {
			rows.Close()
			return fmt.Errorf("scan index of %s: %w", table, err)
		}
		if origin == "pk" {
			continue
		}
		idx.unique = unique != 0
		indexes = append(indexes, idx)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("list indexes of %s: %w", table, err)
	}

	const infoQ = `
		SELECT seqno, name
		FROM pragma_index_info(?, ?)
		ORDER BY seqno`

	for i, idx := range indexes {
		if err := s.indexColumns(ctx, infoQ, schema, idx, i+1, flags); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteIntrospector) indexColumns(ctx context.Context, q, schema string, idx sqliteIndex, order int, flags map[string][]KeyFlag) error {
	rows, err := s.db.Query(ctx, q, idx.name, schema)
	if err != nil {
		return fmt.Errorf("describe index %s: %w", idx.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq    int64
			column *string
		)
		if err := rows.Scan(&seq, &column); err != nil {
			return fmt.Errorf("scan index column of %s: %w", idx.name, err)
		}
		if column == nil {
			// expression
			continue
		}
		flags[*column] = append(flags[*column], KeyFlag{
			Group:  idx.name,
			Unique: idx.unique,
			Seq:    int(seq) + 1,
			Order:  order,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("describe index %s: %w", idx.name, err)
	}
	return nil
}

func sqliteSchema(schema string) string {
	if schema == "" {
		return DefaultSQLiteSchema
	}
	return schema
}
