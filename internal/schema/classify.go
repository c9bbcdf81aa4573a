package schema

import "sort"

// KeyGroup is the ordered column list of one key.
type KeyGroup []string

type groupMember struct {
	name string
	seq  int
	col  int
}

type namedGroup struct {
	name    string
	unique  bool
	order   int
	first   int
	members []groupMember
}

// Classify splits the key memberships of columns into unique groups and
// secondary index groups.
//
// Named groups keep catalog order (Order, then first appearance) and are
// sorted internally by Seq. Unnamed flags coalesce into at most one unique
// and one index group in column order; a column flagged unique is left out
// of the unnamed index group. Unnamed groups come before named ones.
func Classify(columns []ColumnRecord) (unique, index []KeyGroup) {
	var flagUnique, flagIndex KeyGroup
	inFlagUnique := make(map[string]bool)
	var indexCandidates []string

	groups := make(map[string]*namedGroup)
	var ordered []*namedGroup

	for i, col := range columns {
		var markedUnique, markedIndex bool
		for _, k := range col.Keys {
			if k.Group == "" {
				if k.Unique {
					markedUnique = true
				} else {
					markedIndex = true
				}
				continue
			}

			g, ok := groups[k.Group]
			if !ok {
				g = &namedGroup{name: k.Group, unique: k.Unique, order: k.Order, first: i}
				groups[k.Group] = g
				ordered = append(ordered, g)
			}
			g.members = append(g.members, groupMember{name: col.Name, seq: k.Seq, col: i})
		}
		if markedUnique {
			flagUnique = append(flagUnique, col.Name)
			inFlagUnique[col.Name] = true
		}
		if markedIndex {
			indexCandidates = append(indexCandidates, col.Name)
		}
	}

	for _, name := range indexCandidates {
		if !inFlagUnique[name] {
			flagIndex = append(flagIndex, name)
		}
	}

	if len(flagUnique) > 0 {
		unique = append(unique, flagUnique)
	}
	if len(flagIndex) > 0 {
		index = append(index, flagIndex)
	}

	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].order != ordered[b].order {
			return ordered[a].order < ordered[b].order
		}
		return ordered[a].first < ordered[b].first
	})

	for _, g := range ordered {
		sort.SliceStable(g.members, func(a, b int) bool {
			if g.members[a].seq != g.members[b].seq {
				return g.members[a].seq < g.members[b].seq
			}
			return g.members[a].col < g.members[b].col
		})
		kg := make(KeyGroup, 0, len(g.members))
		for _, m := range g.members {
			kg = append(kg, m.name)
		}
		if len(kg) == 0 {
			continue
		}
		if g.unique {
			unique = append(unique, kg)
		} else {
			index = append(index, kg)
		}
	}
	return unique, index
}

// attachKeys appends flags to the columns they name. Flags for columns that
// are not in the list are dropped.
func attachKeys(columns []ColumnRecord, flags map[string][]KeyFlag) {
	for i := range columns {
		if f, ok := flags[columns[i].Name]; ok {
			columns[i].Keys = append(columns[i].Keys, f...)
		}
	}
}
