package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mickamy/maildrain/migrations"
	"github.com/mickamy/maildrain/stores"
)

// OpenSQLite returns a file-backed SQLite DB in t.TempDir with the mail_queue table ensured.
// Transactions start with BEGIN IMMEDIATE, as SQLiteStore expects.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maildrain.db")
	dsn, err := stores.SQLiteDSN(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		t.Fatalf("sqlite dsn: %v", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping sqlite: %v", err)
	}
	if _, err := migrations.Up(ctx, db, stores.DialectSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
