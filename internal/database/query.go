package database

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes a SQL identifier for the driver's dialect. It is only
// needed by catalog commands that take a table name in identifier position
// (SHOW INDEX FROM, DESCRIBE); everything else is passed as a bind arg.
//
// MySQL and TDengine use backticks, the rest use ANSI double quotes.
// An embedded quote character is doubled.
func QuoteIdent(d Driver, name string) string {
	switch d {
	case DriverMySQL, DriverTDengine:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// Placeholder returns the bind placeholder for the idx-th (1-based) argument.
// Postgres: $1, $2, …   everything else: ? (index is ignored)
func Placeholder(d Driver, idx int) string {
	if d == DriverPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}
