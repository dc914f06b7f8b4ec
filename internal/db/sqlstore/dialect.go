package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// sqliteTimeLayout is the fixed-width UTC text form timestamps are stored in
// on SQLite, so lexical comparison matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name   string
	Driver string

	placeholder func(n int) string
	contains    func(column, arg string) string
	bindTime    func(t time.Time) any
}

// Postgres renders $n placeholders and strpos substring matches.
var Postgres = Dialect{
	Name:        "postgres",
	Driver:      "postgres",
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	contains:    func(column, arg string) string { return fmt.Sprintf("strpos(%s, %s) > 0", column, arg) },
	bindTime:    func(t time.Time) any { return t.UTC() },
}

// SQLite renders ? placeholders and instr substring matches.
var SQLite = Dialect{
	Name:        "sqlite",
	Driver:      "sqlite3",
	placeholder: func(int) string { return "?" },
	contains:    func(column, arg string) string { return fmt.Sprintf("instr(%s, %s) > 0", column, arg) },
	bindTime:    func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

func (d Dialect) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d Dialect) bind(v any, t resource.ValueType) any {
	if ts, ok := v.(time.Time); ok && t == resource.Time {
		return d.bindTime(ts)
	}
	return v
}
