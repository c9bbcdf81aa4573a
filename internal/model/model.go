// Package model holds the backend-agnostic table model handed to templates.
//
// Values are built once per run and never modified afterwards; Project
// returns a new Table.
package model

// Field is one column of a table.
type Field struct {
	// SourceName is the column name as the catalog reports it.
	SourceName string
	// PascalName and CamelName are naming transforms of SourceName; CamelName
	// is keyword-escaped for the target language.
	PascalName string
	CamelName  string
	// Ident is SourceName escaped for the target language.
	Ident string

	SourceType string
	MappedType string

	Comment  string
	Nullable bool
	Default  *string
}

// HasDefault reports whether the column declares a default.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// DefaultValue is the default expression, or "" when there is none.
func (f Field) DefaultValue() string {
	if f.Default == nil {
		return ""
	}
	return *f.Default
}

// KeyGroup is the ordered column list of one key.
type KeyGroup []string

// Table is one table ready for rendering.
type Table struct {
	SourceName string
	StructName string
	Fields     []Field
	Comment    string
	UniqueKey  []KeyGroup
	IndexKey   []KeyGroup
}

// Field returns the field named name.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.SourceName == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsKey reports whether name belongs to any unique or index group.
func (t *Table) IsKey(name string) bool {
	_, ok := t.keyFields()[name]
	return ok
}

// KeyFields returns the fields of group in group order. Names that are not
// fields of t are skipped.
func (t *Table) KeyFields(group KeyGroup) []Field {
	out := make([]Field, 0, len(group))
	for _, name := range group {
		if f, ok := t.Field(name); ok {
			out = append(out, f)
		}
	}
	return out
}

func (t *Table) keyFields() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, groups := range [][]KeyGroup{t.UniqueKey, t.IndexKey} {
		for _, g := range groups {
			for _, name := range g {
				keys[name] = struct{}{}
			}
		}
	}
	return keys
}

func copyGroups(groups []KeyGroup) []KeyGroup {
	if groups == nil {
		return nil
	}
	out := make([]KeyGroup, len(groups))
	for i, g := range groups {
		out[i] = append(KeyGroup(nil), g...)
	}
	return out
}
