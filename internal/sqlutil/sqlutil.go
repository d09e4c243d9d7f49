package sqlutil

import (
	"database/sql"
	"strings"
)

func QuoteIdentifier(name, quote string) string {
	return quote + escapeIdentifier(name, quote) + quote
}

// QuoteQualified quotes each dot-separated part of name, so "public.mail_queue" becomes
// schema "public" and table "mail_queue".
func QuoteQualified(name, quote string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = QuoteIdentifier(part, quote)
	}
	return strings.Join(parts, ".")
}

func escapeIdentifier(name, quote string) string {
	if name == "" {
		return ""
	}
	escapedQuote := quote + quote
	return strings.ReplaceAll(name, quote, escapedQuote)
}

// String returns the value of ns, or "" when it is NULL.
func String(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// Placeholders returns n comma-separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
