package stores_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/stores"
)

// queueStore is what every dialect store in this package provides.
type queueStore interface {
	maildrain.Store
	Add(ctx context.Context, exec maildrain.Executor, item maildrain.QueueItem) error
}

func newItem(i int) maildrain.QueueItem {
	return maildrain.QueueItem{
		Sender:     "noreply@example.com",
		Recipients: fmt.Sprintf("user%d@example.com, copy%d@example.com", i, i),
		Subject:    fmt.Sprintf("subject %d", i),
		PlainBody:  fmt.Sprintf("body %d", i),
		HTMLBody:   fmt.Sprintf("<p>body %d</p>", i),
	}
}

func seed(t *testing.T, db *sql.DB, store queueStore, count int) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	for i := 1; i <= count; i++ {
		require.NoError(t, store.Add(ctx, tx, newItem(i)), "add item %d", i)
	}
	require.NoError(t, tx.Commit())
}

func remaining(t *testing.T, db *sql.DB) []maildrain.QueueItem {
	t.Helper()
	rows, err := db.QueryContext(context.Background(),
		`SELECT id, sender, recipients, subject, plaintext_body, html_body FROM mail_queue ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	var items []maildrain.QueueItem
	for rows.Next() {
		var item maildrain.QueueItem
		require.NoError(t, rows.Scan(&item.ID, &item.Sender, &item.Recipients, &item.Subject, &item.PlainBody, &item.HTMLBody))
		items = append(items, item)
	}
	require.NoError(t, rows.Err())
	return items
}

func ids(items []maildrain.QueueItem) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// recorder accepts every item except those listed in reject.
type recorder struct {
	mu     sync.Mutex
	reject map[int64]bool
	seen   []int64
}

func (r *recorder) Deliver(_ context.Context, item maildrain.QueueItem) (maildrain.DeliveryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, item.ID)
	if r.reject[item.ID] {
		return maildrain.Rejected("rejected by test"), nil
	}
	return maildrain.Accepted(), nil
}

func testDrainLifecycle(t *testing.T, db *sql.DB, store queueStore) {
	seed(t, db, store, 3)
	deliverer := &recorder{}
	res, err := maildrain.NewDrainer(store, deliverer, maildrain.Options{}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Claimed)
	assert.Equal(t, 3, res.Delivered)
	assert.Empty(t, remaining(t, db))
	assert.Len(t, deliverer.seen, 3)
}

func testEmptyRun(t *testing.T, db *sql.DB, store queueStore) {
	res, err := maildrain.NewDrainer(store, &recorder{}, maildrain.Options{}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maildrain.Result{}, res)
	assert.Empty(t, remaining(t, db))
}

func testSavepointIsolation(t *testing.T, db *sql.DB, store queueStore) {
	seed(t, db, store, 3)
	before := remaining(t, db)
	require.Len(t, before, 3)

	deliverer := &recorder{reject: map[int64]bool{before[1].ID: true}}
	res, err := maildrain.NewDrainer(store, deliverer, maildrain.Options{}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Claimed)
	assert.Equal(t, 1, res.Delivered)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, before[1].ID, res.Failed[0].ID)
	assert.ErrorIs(t, res.Failed[0].Err, maildrain.ErrDeliveryRejected)

	// item 1 deleted, item 2 rolled back unchanged, item 3 never attempted
	assert.Equal(t, before[1:], remaining(t, db))
	assert.Equal(t, ids(before[:2]), deliverer.seen)
}

func testBatchCap(t *testing.T, db *sql.DB, store queueStore) {
	seed(t, db, store, 1500)
	res, err := maildrain.NewDrainer(store, &recorder{}, maildrain.Options{}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maildrain.MaxBatchSize, res.Claimed)
	assert.Equal(t, maildrain.MaxBatchSize, res.Delivered)
	assert.Len(t, remaining(t, db), 500)
}

func testRollbackFailure(t *testing.T, db *sql.DB, store queueStore) {
	seed(t, db, store, 3)
	before := remaining(t, db)
	broken := brokenRollbackStore{Store: store}
	deliverer := &recorder{reject: map[int64]bool{before[1].ID: true}}

	_, err := maildrain.NewDrainer(broken, deliverer, maildrain.Options{}).Drain(context.Background())
	require.ErrorIs(t, err, maildrain.ErrRollbackFailed)
	assert.Equal(t, before, remaining(t, db), "aborted transaction must keep every row")

	// No lock may outlive the failed run.
	res, err := maildrain.NewDrainer(store, &recorder{}, maildrain.Options{}).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Delivered)
}

func testDeleteMissingRow(t *testing.T, store queueStore) {
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	err = tx.Delete(ctx, 424242)
	assert.ErrorIs(t, err, stores.ErrNoRowDeleted)
}

// brokenRollbackStore turns every rollback-to-savepoint into one that the database rejects.
type brokenRollbackStore struct {
	maildrain.Store
}

func (s brokenRollbackStore) Begin(ctx context.Context) (maildrain.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return brokenRollbackTx{Tx: tx}, nil
}

type brokenRollbackTx struct {
	maildrain.Tx
}

func (tx brokenRollbackTx) RollbackToSavepoint(ctx context.Context, _ string) error {
	return tx.Tx.RollbackToSavepoint(ctx, "never_created")
}
