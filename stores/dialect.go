package stores

import (
	"fmt"
	"strings"
)

// Dialect names a supported queue store backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// DefaultTable is the queue table used when no table option is given.
const DefaultTable = "mail_queue"

// Dialects lists every supported backend.
func Dialects() []Dialect {
	return []Dialect{DialectPostgres, DialectMySQL, DialectSQLite}
}

// ParseDialect maps a configuration value onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dialects() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
}
