package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/tranche/schema"
)

// sqliteTimeLayout stores timestamps as fixed-width UTC text so they sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects anything that is not a plain SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("%q", name)
	}
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func rebind(query string, backend schema.DatabaseBackend) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertQuery builds a single-row INSERT. With ignore set, rows whose key
// already exists are skipped instead of failing.
func insertQuery(table string, columns []string, backend schema.DatabaseBackend, ignore bool) string {
	verb := "INSERT INTO"
	suffix := ""
	if ignore {
		switch backend {
		case schema.MySQLBackend:
			verb = "INSERT IGNORE INTO"
		case schema.PostgreSQLBackend:
			suffix = " ON CONFLICT DO NOTHING"
		default:
			verb = "INSERT OR IGNORE INTO"
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("%s %s (%s) VALUES (%s)%s",
		verb, quoteTableName(table, backend), strings.Join(columns, ", "), placeholders, suffix)
	return rebind(query, backend)
}

// dateArg converts a day to the column representation of the backend.
func dateArg(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return schema.FormatDate(t)
	}
	return schema.Day(t)
}

func optionalDateArg(t *time.Time, backend schema.DatabaseBackend) any {
	if t == nil {
		return nil
	}
	return dateArg(*t, backend)
}

// timeArg converts a timestamp to the column representation of the backend.
func timeArg(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// nullable dereferences p, mapping nil to SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// dbTime scans DATE and timestamp columns from any backend. SQLite stores text,
// MySQL returns text unless parseTime is set, and PostgreSQL returns time.Time.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	schema.DateFormat,
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = dbTime{}
		return nil
	case time.Time:
		*t = dbTime{Time: v, Valid: true}
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into a time", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = dbTime{Time: parsed, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unrecognized time value %q", s)
}

// day returns the calendar day of the value in UTC.
func (t dbTime) day() time.Time {
	return schema.Day(t.Time)
}

func (t dbTime) dayPtr() *time.Time {
	if !t.Valid {
		return nil
	}
	d := t.day()
	return &d
}

func (t dbTime) timePtr() *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
