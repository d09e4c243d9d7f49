package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/mickamy/maildrain/migrations"
	"github.com/mickamy/maildrain/stores"
)

// OpenMySQL connects to MYSQL_DSN, migrates and empties mail_queue. The test is skipped when unset.
func OpenMySQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open mysql (%s): %v", dsn, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping mysql (%s): %v", dsn, err)
	}
	if _, err := migrations.Up(ctx, db, stores.DialectMySQL); err != nil {
		t.Fatalf("migrate mysql: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE mail_queue`); err != nil {
		t.Fatalf("truncate mail_queue: %v", err)
	}
	return db
}
