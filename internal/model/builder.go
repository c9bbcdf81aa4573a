package model

import (
	"github.com/koustreak/sqlreverse/internal/lang"
	"github.com/koustreak/sqlreverse/internal/logger"
	"github.com/koustreak/sqlreverse/internal/schema"
	"github.com/koustreak/sqlreverse/internal/typemap"
)

// Builder turns catalog records into Tables. It holds no mutable state and
// may be shared between goroutines.
type Builder struct {
	rules *typemap.Rules
	lang  *lang.Language
	log   *logger.Logger
}

// NewBuilder returns a Builder mapping types with rules and escaping names
// for target. A nil log discards type-mapping warnings.
func NewBuilder(rules *typemap.Rules, target *lang.Language, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{rules: rules, lang: target, log: log}
}

// Build assembles one Table. A table without columns yields a Table with no
// fields.
func (b *Builder) Build(summary schema.TableSummary, columns []schema.ColumnRecord) *Table {
	fields := make([]Field, 0, len(columns))
	for _, col := range columns {
		fields = append(fields, b.MapField(summary.Name, col))
	}

	unique, index := schema.Classify(columns)
	return &Table{
		SourceName: summary.Name,
		StructName: lang.Pascal(summary.Name),
		Fields:     fields,
		Comment:    summary.Comment,
		UniqueKey:  toGroups(unique),
		IndexKey:   toGroups(index),
	}
}

// MapField converts one column. An unmapped type is logged and replaced by
// typemap.Fallback.
func (b *Builder) MapField(table string, col schema.ColumnRecord) Field {
	mapped, ok := b.rules.Map(col.TypeKey())
	if !ok {
		b.log.WarnWith("no type rule matched, using fallback", map[string]interface{}{
			"table":    table,
			"field":    col.Name,
			"raw_type": col.RawType,
			"fallback": mapped,
		})
	}

	return Field{
		SourceName: col.Name,
		PascalName: lang.Pascal(col.Name),
		CamelName:  b.lang.Escape(lang.Camel(col.Name)),
		Ident:      b.lang.Escape(col.Name),
		SourceType: col.RawType,
		MappedType: mapped,
		Comment:    col.Comment,
		Nullable:   col.Nullable,
		Default:    col.Default,
	}
}

func toGroups(groups []schema.KeyGroup) []KeyGroup {
	if groups == nil {
		return nil
	}
	out := make([]KeyGroup, len(groups))
	for i, g := range groups {
		out[i] = KeyGroup(g)
	}
	return out
}
