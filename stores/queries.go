package stores

import (
	"fmt"

	"github.com/mickamy/maildrain/internal/sqlutil"
)

const columns = "id, sender, recipients, subject, plaintext_body, html_body"

// queries holds the statements one dialect runs inside a drain transaction.
type queries struct {
	quote  string
	insert string
	claim  func(limit int) string
	delete string
}

func (q queries) savepoint(name string) string {
	return "SAVEPOINT " + sqlutil.QuoteIdentifier(name, q.quote)
}

func (q queries) rollbackTo(name string) string {
	return "ROLLBACK TO SAVEPOINT " + sqlutil.QuoteIdentifier(name, q.quote)
}

func postgresQueries(table string) queries {
	ident := sqlutil.QuoteQualified(table, `"`)
	return queries{
		quote: `"`,
		insert: fmt.Sprintf(
			"INSERT INTO %s (sender, recipients, subject, plaintext_body, html_body) VALUES ($1, $2, $3, $4, $5)",
			ident,
		),
		claim: func(limit int) string {
			return fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT %d FOR UPDATE SKIP LOCKED", columns, ident, limit)
		},
		delete: fmt.Sprintf("DELETE FROM %s WHERE id = $1", ident),
	}
}

func mysqlQueries(table string) queries {
	ident := sqlutil.QuoteQualified(table, "`")
	return queries{
		quote: "`",
		insert: fmt.Sprintf(
			"INSERT INTO %s (sender, recipients, subject, plaintext_body, html_body) VALUES (%s)",
			ident, sqlutil.Placeholders(5),
		),
		claim: func(limit int) string {
			return fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT %d FOR UPDATE SKIP LOCKED", columns, ident, limit)
		},
		delete: fmt.Sprintf("DELETE FROM %s WHERE id = ?", ident),
	}
}

// sqliteQueries has no row locking clause: the write lock taken at BEGIN IMMEDIATE covers the whole database.
func sqliteQueries(table string) queries {
	ident := sqlutil.QuoteQualified(table, `"`)
	return queries{
		quote: `"`,
		insert: fmt.Sprintf(
			"INSERT INTO %s (sender, recipients, subject, plaintext_body, html_body) VALUES (%s)",
			ident, sqlutil.Placeholders(5),
		),
		claim: func(limit int) string {
			return fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT %d", columns, ident, limit)
		},
		delete: fmt.Sprintf("DELETE FROM %s WHERE id = ?", ident),
	}
}
