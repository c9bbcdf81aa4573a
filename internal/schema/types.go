package schema

// TableSummary is one entry of a table listing.
type TableSummary struct {
	Name    string
	Comment string
}

// ColumnRecord describes a single column as the catalog reports it.
type ColumnRecord struct {
	Name string

	// RawType is the catalog type string, e.g. "int(11) unsigned" or
	// "Nullable(String)".
	RawType string

	// MatchType is the string the type rules are matched against. Empty
	// means RawType; ClickHouse sets it to the unwrapped type.
	MatchType string

	Nullable bool
	Comment  string
	Default  *string // nil if no default

	Keys []KeyFlag
}

// TypeKey is the string to look up in the type rules.
func (c ColumnRecord) TypeKey() string {
	if c.MatchType != "" {
		return c.MatchType
	}
	return c.RawType
}

// KeyFlag records one key membership of a column.
//
// Catalogs that expose named indexes set Group to the index name, Seq to the
// 1-based position of the column inside it and Order to the index's catalog
// ordinal. Catalogs that only expose a per-column flag leave Group empty.
type KeyFlag struct {
	Group  string
	Unique bool
	Seq    int
	Order  int
}
