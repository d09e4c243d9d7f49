package stores

import (
	"context"
	"database/sql"

	"github.com/mickamy/maildrain"
)

// MySQLStore implements maildrain.Store for MySQL 8 (InnoDB), which supports SKIP LOCKED and savepoints.
type MySQLStore struct {
	db    *sql.DB
	table string
	q     queries
}

type MySQLOption func(*MySQLStore)

func WithMySQLTable(table string) MySQLOption {
	return func(s *MySQLStore) {
		if table != "" {
			s.table = table
		}
	}
}

func NewMySQLStore(db *sql.DB, opts ...MySQLOption) *MySQLStore {
	store := &MySQLStore{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(store)
	}
	store.q = mysqlQueries(store.table)
	return store
}

func (s *MySQLStore) Begin(ctx context.Context) (maildrain.Tx, error) {
	return begin(ctx, s.db, s.q, serializable)
}

func (s *MySQLStore) Add(ctx context.Context, exec maildrain.Executor, item maildrain.QueueItem) error {
	return add(ctx, exec, s.q.insert, item)
}
