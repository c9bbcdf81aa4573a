package typemap

import (
	"github.com/koustreak/sqlreverse/internal/database"
	"github.com/koustreak/sqlreverse/internal/errs"
)

// MySQL raw types are information_schema COLUMN_TYPE values, lower case with
// display width and the unsigned attribute: "int(11) unsigned", "tinyint(1)".
var mysqlDefaults = map[string]string{
	`^bigint(\(\d+\))? unsigned$`:    "uint64",
	`^bigint(\(\d+\))?$`:             "int64",
	`^int(\(\d+\))? unsigned$`:       "uint32",
	`^int(\(\d+\))?$`:                "int32",
	`^integer(\(\d+\))? unsigned$`:   "uint32",
	`^integer(\(\d+\))?$`:            "int32",
	`^mediumint(\(\d+\))? unsigned$`: "uint32",
	`^mediumint(\(\d+\))?$`:          "int32",
	`^smallint(\(\d+\))? unsigned$`:  "uint16",
	`^smallint(\(\d+\))?$`:           "int16",
	`^tinyint(\(\d+\))? unsigned$`:   "uint8",
	`^tinyint\(1\)$`:                 "bool",
	`^tinyint\(\d+\)$`:               "int8",
	`^tinyint$`:                      "int8",
	`^bit(\(1\))?$`:                  "bool",
	`^bit\(\d+\)$`:                   "uint64",
	`^decimal`:                       "string",
	`^double`:                        "float64",
	`^float`:                         "float32",
	`^real`:                          "float64",
	`^date$`:                         "time.Time",
	`^datetime`:                      "time.Time",
	`^timestamp`:                     "time.Time",
	`^time(\(\d+\))?$`:               "string",
	`^year`:                          "int16",
	`^json$`:                         "json.RawMessage",
	`^enum\(`:                        "string",
	`^set\(`:                         "string",
	`^binary`:                        "[]byte",
	`^varbinary`:                     "[]byte",
	`blob`:                           "[]byte",
	`char`:                           "string",
	`text`:                           "string",
}

// PostgreSQL raw types are format_type() output: "character varying(64)",
// "timestamp(3) with time zone", "integer[]".
var postgresDefaults = map[string]string{
	`\[\]$`:                "string",
	`^bigint$`:             "int64",
	`^integer$`:            "int32",
	`^smallint$`:           "int16",
	`^boolean$`:            "bool",
	`^real$`:               "float32",
	`^double precision$`:   "float64",
	`^numeric`:             "string",
	`^money$`:              "string",
	`^character`:           "string",
	`^text$`:               "string",
	`^citext$`:             "string",
	`^bytea$`:              "[]byte",
	`^timestamp`:           "time.Time",
	`^date$`:               "time.Time",
	`^time( |\(|$)`:        "string",
	`^interval`:            "string",
	`^uuid$`:               "string",
	`^jsonb?$`:             "json.RawMessage",
	`^xml$`:                "string",
	`^(inet|cidr|macaddr)`: "string",
	`^oid$`:                "uint32",
}

// SQLite raw types are declared types exactly as written in CREATE TABLE, so
// the rules follow SQLite's own type affinity and ignore case.
var sqliteDefaults = map[string]string{
	`(?i)^bool`:              "bool",
	`(?i)^(date|time)`:       "time.Time",
	`(?i)^(numeric|decimal)`: "string",
	`(?i)^any$`:              "any",
	`(?i)blob`:               "[]byte",
	`(?i)char|clob|text`:     "string",
	`(?i)int`:                "int64",
	`(?i)real|floa|doub`:     "float64",
	`^$`:                     "any",
}

// ClickHouse raw types arrive with LowCardinality(...) and Nullable(...)
// already unwrapped.
var clickhouseDefaults = map[string]string{
	`^Int8$`:               "int8",
	`^Int16$`:              "int16",
	`^Int32$`:              "int32",
	`^Int64$`:              "int64",
	`^Int(128|256)$`:       "string",
	`^UInt8$`:              "uint8",
	`^UInt16$`:             "uint16",
	`^UInt32$`:             "uint32",
	`^UInt64$`:             "uint64",
	`^UInt(128|256)$`:      "string",
	`^Float32$`:            "float32",
	`^Float64$`:            "float64",
	`^Decimal`:             "string",
	`^Bool$`:               "bool",
	`^String$`:             "string",
	`^FixedString\(\d+\)$`: "string",
	`^Date(32)?$`:          "time.Time",
	`^DateTime`:            "time.Time",
	`^UUID$`:               "string",
	`^IPv(4|6)$`:           "string",
	`^Enum(8|16)\(`:        "string",
	`^Array\(`:             "[]any",
	`^Tuple\(`:             "[]any",
	`^Map\(`:               "map[string]any",
	`^JSON$`:               "json.RawMessage",
	`^Object\('json'\)$`:   "json.RawMessage",
}

// TDengine raw types are DESCRIBE output, upper case without length.
var tdengineDefaults = map[string]string{
	`^TIMESTAMP$`:         "time.Time",
	`^BOOL$`:              "bool",
	`^TINYINT$`:           "int8",
	`^SMALLINT$`:          "int16",
	`^INT$`:               "int32",
	`^BIGINT$`:            "int64",
	`^TINYINT UNSIGNED$`:  "uint8",
	`^SMALLINT UNSIGNED$`: "uint16",
	`^INT UNSIGNED$`:      "uint32",
	`^BIGINT UNSIGNED$`:   "uint64",
	`^FLOAT$`:             "float32",
	`^DOUBLE$`:            "float64",
	`^BINARY`:             "string",
	`^VARCHAR`:            "string",
	`^NCHAR`:              "string",
	`^VARBINARY`:          "[]byte",
	`^BLOB$`:              "[]byte",
	`^GEOMETRY`:           "[]byte",
	`^JSON$`:              "json.RawMessage",
	`^DECIMAL`:            "string",
}

var defaultTables = map[database.Driver]map[string]string{
	database.DriverMySQL:      mysqlDefaults,
	database.DriverPostgres:   postgresDefaults,
	database.DriverSQLite:     sqliteDefaults,
	database.DriverClickHouse: clickhouseDefaults,
	database.DriverTDengine:   tdengineDefaults,
}

// Defaults returns a copy of the built-in table for driver.
func Defaults(driver database.Driver) (map[string]string, error) {
	table, ok := defaultTables[driver]
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "no default type rules for %q", driver)
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, nil
}

// DefaultRules returns the compiled built-in table for driver.
func DefaultRules(driver database.Driver) (*Rules, error) {
	table, err := Defaults(driver)
	if err != nil {
		return nil, err
	}
	return New(table)
}
