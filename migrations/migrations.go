// Package migrations creates the mail_queue table for each supported dialect using goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/mickamy/maildrain/stores"
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var files embed.FS

// ErrFailedToApplyMigrations wraps every failure returned by Up.
var ErrFailedToApplyMigrations = errors.New("maildrain migrations: failed to apply migrations")

// Up applies all pending migrations for the dialect and returns how many were applied.
func Up(ctx context.Context, db *sql.DB, dialect stores.Dialect) (int, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return 0, errors.Join(ErrFailedToApplyMigrations, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, errors.Join(ErrFailedToApplyMigrations, err)
	}
	return len(results), nil
}

func newProvider(db *sql.DB, dialect stores.Dialect) (*goose.Provider, error) {
	var gd goose.Dialect
	switch dialect {
	case stores.DialectPostgres:
		gd = goose.DialectPostgres
	case stores.DialectMySQL:
		gd = goose.DialectMySQL
	case stores.DialectSQLite:
		gd = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("%w: %q", stores.ErrUnsupportedDialect, dialect)
	}
	sub, err := fs.Sub(files, string(dialect))
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(gd, db, sub)
}
