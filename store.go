package maildrain

import (
	"context"
	"database/sql"
)

// Store opens drain transactions against one queue table dialect.
type Store interface {
	// Begin opens a transaction at the strongest isolation level the store supports.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single drain transaction. Every row lock taken by Claim lives until Commit or Rollback.
type Tx interface {
	// Claim locks and returns up to limit rows, skipping rows locked by other transactions.
	Claim(ctx context.Context, limit int) ([]QueueItem, error)
	// Savepoint establishes a named savepoint.
	Savepoint(ctx context.Context, name string) error
	// RollbackToSavepoint undoes everything done after the named savepoint.
	RollbackToSavepoint(ctx context.Context, name string) error
	// Delete removes the row with the given id.
	Delete(ctx context.Context, id int64) error
	// Commit finalizes the transaction and releases its locks.
	Commit() error
	// Rollback aborts the transaction and releases its locks.
	Rollback() error
}

// Executor is the minimal surface needed from *sql.Tx or *sql.DB.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
