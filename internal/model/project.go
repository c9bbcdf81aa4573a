package model

// FilterSpec declares one derived file: a subset of a table's fields
// written to Filename.
type FilterSpec struct {
	SkipFields    []string `json:"skip_fields,omitempty"`
	ContainFields []string `json:"contain_fields,omitempty"`
	Filename      string   `json:"filename"`
}

// Project returns a copy of t reduced by spec.
//
// A non-empty SkipFields drops the named fields; otherwise a non-empty
// ContainFields keeps only the named fields; otherwise every field is kept.
// Fields that belong to a unique or index group are always kept, so the
// copied key groups never name a missing field.
func (t *Table) Project(spec FilterSpec) *Table {
	keys := t.keyFields()

	var keep func(name string) bool
	switch {
	case len(spec.SkipFields) > 0:
		skip := toSet(spec.SkipFields)
		keep = func(name string) bool { _, ok := skip[name]; return !ok }
	case len(spec.ContainFields) > 0:
		contain := toSet(spec.ContainFields)
		keep = func(name string) bool { _, ok := contain[name]; return ok }
	default:
		keep = func(string) bool { return true }
	}

	fields := make([]Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if _, isKey := keys[f.SourceName]; isKey || keep(f.SourceName) {
			fields = append(fields, f)
		}
	}

	return &Table{
		SourceName: t.SourceName,
		StructName: t.StructName,
		Fields:     fields,
		Comment:    t.Comment,
		UniqueKey:  copyGroups(t.UniqueKey),
		IndexKey:   copyGroups(t.IndexKey),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
