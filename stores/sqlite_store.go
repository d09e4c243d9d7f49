package stores

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/mickamy/maildrain"
)

// SQLiteStore implements maildrain.Store for SQLite databases.
//
// SQLite has no row locks. Open the database with a DSN passed through SQLiteDSN so Begin takes
// the write lock up front: concurrent drains then run one after another and never see the same
// rows, at the cost of waiting instead of skipping.
type SQLiteStore struct {
	db    *sql.DB
	table string
	q     queries
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteTable overrides the default table name ("mail_queue").
func WithSQLiteTable(name string) SQLiteOption {
	return func(s *SQLiteStore) {
		if name != "" {
			s.table = name
		}
	}
}

// NewSQLiteStore creates a Store backed by SQLite.
func NewSQLiteStore(db *sql.DB, opts ...SQLiteOption) *SQLiteStore {
	store := &SQLiteStore{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(store)
	}
	store.q = sqliteQueries(store.table)
	return store
}

// Begin opens a transaction. SQLite transactions are serializable, so no isolation level is requested.
func (s *SQLiteStore) Begin(ctx context.Context) (maildrain.Tx, error) {
	return begin(ctx, s.db, s.q, nil)
}

// Add inserts a new message row within the caller's transaction.
func (s *SQLiteStore) Add(ctx context.Context, exec maildrain.Executor, item maildrain.QueueItem) error {
	return add(ctx, exec, s.q.insert, item)
}

// SQLiteDSN returns dsn with "_txlock=immediate" added when it sets no _txlock.
// A deferred (or unknown) _txlock would let two processes read the same batch, so it is rejected.
func SQLiteDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("%w: empty sqlite dsn", ErrInvalidDSN)
	}
	_, rawQuery, hasQuery := strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	if _, ok := query["_txlock"]; !ok {
		if hasQuery && rawQuery != "" {
			return dsn + "&_txlock=immediate", nil
		}
		return strings.TrimSuffix(dsn, "?") + "?_txlock=immediate", nil
	}
	for _, mode := range query["_txlock"] {
		switch strings.ToLower(mode) {
		case "immediate", "exclusive":
		default:
			return "", fmt.Errorf("%w: _txlock=%q lets concurrent drains claim the same rows, use immediate", ErrInvalidDSN, mode)
		}
	}
	return dsn, nil
}
