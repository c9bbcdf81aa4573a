package schema

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// tdengineIntrospector lists supertables and normal tables (child tables
// share their supertable's shape) and reads columns with DESCRIBE.
//
// The REST transport has no parameter binding, so the database name is
// checked against identifier syntax and inlined.
type tdengineIntrospector struct {
	db database.DB
}

var tdIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (t *tdengineIntrospector) Kind() Kind { return KindTDengine }
func (t *tdengineIntrospector) sealed()    {}

func (t *tdengineIntrospector) ListTables(ctx context.Context, schema string, filter Filter) ([]TableSummary, error) {
	cond, err := tdDatabaseCond(schema)
	if err != nil {
		return nil, err
	}

	stables, err := scanTableSummaries(ctx, t.db, Filter{},
		"SELECT stable_name, table_comment FROM information_schema.ins_stables WHERE "+cond)
	if err != nil {
		return nil, err
	}
	normal, err := scanTableSummaries(ctx, t.db, Filter{},
		"SELECT table_name, table_comment FROM information_schema.ins_tables WHERE "+cond+" AND type = 'NORMAL_TABLE'")
	if err != nil {
		return nil, err
	}

	tables := append(stables, normal...)
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return filter.Apply(tables), nil
}

func (t *tdengineIntrospector) DescribeTable(ctx context.Context, schema, table string) ([]ColumnRecord, error) {
	target := database.QuoteIdent(database.DriverTDengine, table)
	if schema != "" {
		target = database.QuoteIdent(database.DriverTDengine, schema) + "." + target
	}

	rows, err := t.db.Query(ctx, "DESCRIBE "+target)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	records, err := database.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}

	columns := make([]ColumnRecord, 0, len(records))
	for i, rec := range records {
		rawType := database.AsString(rec["type"])
		col := ColumnRecord{
			Name:    database.AsString(rec["field"]),
			RawType: rawType,
			// TDengine rejects NULL in every TIMESTAMP column, not only the key
			Nullable: i > 0 && !strings.EqualFold(rawType, "TIMESTAMP"),
		}
		switch {
		case i == 0:
			// the leading timestamp identifies the row
			col.Keys = append(col.Keys, KeyFlag{Unique: true})
		case database.AsString(rec["note"]) == "TAG":
			col.Comment = "[TAG]"
			col.Keys = append(col.Keys, KeyFlag{})
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func tdDatabaseCond(schema string) (string, error) {
	if schema == "" {
		return "db_name = DATABASE()", nil
	}
	if !tdIdent.MatchString(schema) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid TDengine database name %q", schema)
	}
	return "db_name = '" + schema + "'", nil
}
