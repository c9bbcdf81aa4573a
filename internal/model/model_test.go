package model

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlreverse/internal/lang"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/schema"
	"github.com/koustreak/sqlreverse/internal/typemap"
)

func strPtr(s string) *string { return &s }

var usersRules = typemap.MustNew(map[string]string{
	`^bigint$`:    "int64",
	`^varchar`:    "string",
	`^timestamp$`: "datetime",
})

var usersColumns = []schema.ColumnRecord{
	{Name: "id", RawType: "bigint", Keys: []schema.KeyFlag{{Group: "pk_users", Unique: true, Seq: 1}}},
	{Name: "email", RawType: "varchar(255)", Nullable: true},
	{Name: "created_at", RawType: "timestamp", Default: strPtr("now()"),
		Keys: []schema.KeyFlag{{Group: "idx_created", Seq: 1, Order: 1}}},
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(usersRules, lang.For("rs"), logger.Nop())

	table := b.Build(schema.TableSummary{Name: "users", Comment: "accounts"}, usersColumns)

	assert.Equal(t, "users", table.SourceName)
	assert.Equal(t, "Users", table.StructName)
	assert.Equal(t, "accounts", table.Comment)
	require.Len(t, table.Fields, 3)

	names := []string{table.Fields[0].SourceName, table.Fields[1].SourceName, table.Fields[2].SourceName}
	assert.Equal(t, []string{"id", "email", "created_at"}, names)
	assert.Equal(t, "int64", table.Fields[0].MappedType)
	assert.Equal(t, "string", table.Fields[1].MappedType)
	assert.True(t, table.Fields[1].Nullable)
	assert.Equal(t, "datetime", table.Fields[2].MappedType)
	assert.Equal(t, "CreatedAt", table.Fields[2].PascalName)
	assert.Equal(t, "createdAt", table.Fields[2].CamelName)
	assert.Equal(t, "now()", table.Fields[2].DefaultValue())
	assert.False(t, table.Fields[0].HasDefault())

	assert.Equal(t, []KeyGroup{{"id"}}, table.UniqueKey)
	assert.Equal(t, []KeyGroup{{"created_at"}}, table.IndexKey)
}

func TestBuilder_EmptyTable(t *testing.T) {
	b := NewBuilder(usersRules, lang.For("rs"), nil)

	table := b.Build(schema.TableSummary{Name: "heartbeat"}, nil)
	assert.Equal(t, "Heartbeat", table.StructName)
	assert.Empty(t, table.Fields)
	assert.Nil(t, table.UniqueKey)
	assert.Nil(t, table.IndexKey)
}

func TestBuilder_EscapesKeywords(t *testing.T) {
	b := NewBuilder(usersRules, lang.For("rs"), logger.Nop())

	f := b.MapField("items", schema.ColumnRecord{Name: "type", RawType: "varchar(8)"})
	assert.Equal(t, "r#type", f.Ident)
	assert.Equal(t, "r#type", f.CamelName)
	assert.Equal(t, "Type", f.PascalName)
	assert.Equal(t, "type", f.SourceName)
}

func TestBuilder_UsesMatchType(t *testing.T) {
	rules := typemap.MustNew(map[string]string{`^String$`: "string"})
	b := NewBuilder(rules, lang.For("go"), logger.Nop())

	f := b.MapField("events", schema.ColumnRecord{Name: "kind", RawType: "LowCardinality(String)", MatchType: "String"})
	assert.Equal(t, "string", f.MappedType)
	assert.Equal(t, "LowCardinality(String)", f.SourceType)
}

func TestBuilder_FallbackIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: &buf})
	b := NewBuilder(usersRules, lang.For("rs"), log)

	f := b.MapField("shapes", schema.ColumnRecord{Name: "area", RawType: "geometry"})
	assert.Equal(t, typemap.Fallback, f.MappedType)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shapes", entry["table"])
	assert.Equal(t, "area", entry["field"])
	assert.Equal(t, "geometry", entry["raw_type"])
}

func usersTable() *Table {
	return NewBuilder(usersRules, lang.For("rs"), logger.Nop()).
		Build(schema.TableSummary{Name: "users"}, append(usersColumns,
			schema.ColumnRecord{Name: "updated_at", RawType: "timestamp"},
			schema.ColumnRecord{Name: "nickname", RawType: "varchar(32)"},
		))
}

func fieldNames(t *Table) []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.SourceName
	}
	return out
}

func TestProject(t *testing.T) {
	table := usersTable()

	tests := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{"skip", FilterSpec{SkipFields: []string{"updated_at", "nickname"}}, []string{"id", "email", "created_at"}},
		{"skip keeps key fields", FilterSpec{SkipFields: []string{"id", "created_at", "email"}}, []string{"id", "created_at", "updated_at", "nickname"}},
		{"contain", FilterSpec{ContainFields: []string{"nickname"}}, []string{"id", "created_at", "nickname"}},
		{"contain adds key fields", FilterSpec{ContainFields: []string{"email"}}, []string{"id", "email", "created_at"}},
		{"skip wins over contain", FilterSpec{SkipFields: []string{"nickname"}, ContainFields: []string{"email"}}, []string{"id", "email", "created_at", "updated_at"}},
		{"empty is a copy", FilterSpec{}, []string{"id", "email", "created_at", "updated_at", "nickname"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Project(tt.spec)
			assert.Equal(t, tt.want, fieldNames(got))
			assert.Equal(t, table.UniqueKey, got.UniqueKey)
			assert.Equal(t, table.IndexKey, got.IndexKey)
			assert.Equal(t, table.StructName, got.StructName)
		})
	}
}

func TestProject_DoesNotAlias(t *testing.T) {
	table := usersTable()
	before := fieldNames(table)

	got := table.Project(FilterSpec{SkipFields: []string{"nickname"}})
	got.UniqueKey[0][0] = "changed"
	got.Fields[0].Comment = "changed"

	assert.Equal(t, "id", table.UniqueKey[0][0])
	assert.Equal(t, "", table.Fields[0].Comment)
	assert.Equal(t, before, fieldNames(table))
}

func TestTable_Helpers(t *testing.T) {
	table := usersTable()

	assert.True(t, table.IsKey("id"))
	assert.True(t, table.IsKey("created_at"))
	assert.False(t, table.IsKey("email"))

	f, ok := table.Field("email")
	require.True(t, ok)
	assert.Equal(t, "string", f.MappedType)
	_, ok = table.Field("missing")
	assert.False(t, ok)

	keyFields := table.KeyFields(KeyGroup{"created_at", "missing"})
	require.Len(t, keyFields, 1)
	assert.Equal(t, "created_at", keyFields[0].SourceName)
}
