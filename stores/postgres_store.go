package stores

import (
	"context"
	"database/sql"

	"github.com/mickamy/maildrain"
)

// PostgresStore implements maildrain.Store for PostgreSQL.
// Claims use SELECT ... FOR UPDATE SKIP LOCKED inside a serializable transaction.
type PostgresStore struct {
	db    *sql.DB
	table string
	q     queries
}

type PostgresOption func(*PostgresStore)

func WithPostgresTable(table string) PostgresOption {
	return func(s *PostgresStore) {
		if table != "" {
			s.table = table
		}
	}
}

func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	store := &PostgresStore{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(store)
	}
	store.q = postgresQueries(store.table)
	return store
}

func (s *PostgresStore) Begin(ctx context.Context) (maildrain.Tx, error) {
	return begin(ctx, s.db, s.q, serializable)
}

// Add enqueues a message using the provided transaction/executor.
func (s *PostgresStore) Add(ctx context.Context, exec maildrain.Executor, item maildrain.QueueItem) error {
	return add(ctx, exec, s.q.insert, item)
}
