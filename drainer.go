package maildrain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxBatchSize caps how many rows one transaction may claim.
const MaxBatchSize = 1000

// Options configure Drainer behaviour.
type Options struct {
	// BatchSize controls how many rows one Drain call claims. Clamped to MaxBatchSize.
	BatchSize int
	// Interval is the delay between Drain calls made by Run.
	Interval time.Duration
	// DeliveryTimeout bounds each Deliver call; expiry counts as a delivery failure.
	// Negative disables the timeout.
	DeliveryTimeout time.Duration
	// ContinueOnFailure keeps processing the claimed batch after an item fails.
	// By default the batch stops at the first failed item and the rest stay queued.
	ContinueOnFailure bool
	// Logger emits structured logs for drain activity.
	Logger Logger
	// Hooks receives lifecycle events.
	Hooks Hooks
	// Now supplies the current time; override for tests.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 || o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.DeliveryTimeout == 0 {
		o.DeliveryTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
	if o.Hooks == nil {
		o.Hooks = noopHooks{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// FailedItem identifies an item whose delivery or deletion failed and that stays queued.
type FailedItem struct {
	ID  int64
	Err error
}

// Result summarizes one Drain call.
type Result struct {
	// Claimed is the number of rows locked by the batch select.
	Claimed int
	// Delivered is the number of rows accepted and deleted by the committed transaction.
	Delivered int
	// Failed lists the items rolled back to their savepoint.
	Failed []FailedItem
}

// Pending returns how many claimed rows were left in the queue.
func (r Result) Pending() int {
	return r.Claimed - r.Delivered
}

// Drainer moves queued messages to a Deliverer, one transaction per batch.
type Drainer struct {
	store     Store
	deliverer Deliverer
	opts      Options
}

// NewDrainer wires a Store and Deliverer with the provided options.
func NewDrainer(store Store, deliverer Deliverer, opts Options) *Drainer {
	if store == nil {
		panic("maildrain: nil Store")
	}
	if deliverer == nil {
		panic("maildrain: nil Deliverer")
	}
	opts.setDefaults()
	return &Drainer{
		store:     store,
		deliverer: deliverer,
		opts:      opts,
	}
}

// Run calls Drain every Interval until the context is cancelled.
// Drain errors are logged; the next tick is the retry.
func (d *Drainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.Drain(ctx); err != nil {
			d.opts.Logger.ErrorContext(ctx, "drain failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain claims one batch and processes it inside a single transaction.
//
// Each item gets its own savepoint: an accepted item is deleted, a failed item is rolled back
// to its savepoint and, unless ContinueOnFailure is set, ends the batch. The transaction is then
// committed, so deletions made before the failure survive and everything else stays queued.
//
// Delivery is at-least-once: if the commit fails after the transport accepted a message, the
// row reappears and the message is sent again by a later run.
//
// Per-item failures are reported through Result, Hooks and the Logger, never as an error.
// An error means nothing from this run was committed.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	start := d.opts.Now()
	defer func() {
		d.opts.Hooks.OnCycle(ctx, d.opts.Now().Sub(start))
	}()

	runID := uuid.NewString()
	// The transaction outlives a cancelled ctx so progress made so far can still be committed.
	txCtx := context.WithoutCancel(ctx)

	tx, err := d.store.Begin(txCtx)
	if err != nil {
		d.opts.Hooks.OnStoreError(ctx, "begin", 0, err)
		return Result{}, fmt.Errorf("maildrain: begin transaction: %w", err)
	}

	items, err := tx.Claim(txCtx, d.opts.BatchSize)
	if err != nil {
		d.opts.Hooks.OnStoreError(ctx, "claim", 0, err)
		return Result{}, errors.Join(fmt.Errorf("maildrain: claim batch: %w", err), tx.Rollback())
	}
	d.opts.Hooks.OnClaim(ctx, d.opts.BatchSize, len(items))

	res := Result{Claimed: len(items)}
	if len(items) == 0 {
		if err := tx.Commit(); err != nil {
			d.opts.Hooks.OnStoreError(ctx, "commit", 0, err)
			return res, fmt.Errorf("maildrain: commit empty batch: %w", err)
		}
		d.logRun(ctx, runID, res)
		return res, nil
	}

	savepoints := newSavepointNames()
	for _, item := range items {
		if ctx.Err() != nil {
			d.opts.Logger.WarnContext(ctx, "drain interrupted", "run_id", runID, "next_id", item.ID)
			break
		}

		sp := savepoints.next()
		if err := tx.Savepoint(txCtx, sp); err != nil {
			d.opts.Hooks.OnStoreError(ctx, "savepoint", item.ID, err)
			return Result{Claimed: res.Claimed}, errors.Join(
				fmt.Errorf("maildrain: savepoint for item %d: %w", item.ID, err),
				tx.Rollback(),
			)
		}

		itemErr := d.process(ctx, txCtx, tx, item)
		if itemErr == nil {
			res.Delivered++
			d.opts.Hooks.OnDelivered(ctx, item)
			continue
		}

		if err := tx.RollbackToSavepoint(txCtx, sp); err != nil {
			d.opts.Hooks.OnStoreError(ctx, "rollback_to_savepoint", item.ID, err)
			return Result{Claimed: res.Claimed}, errors.Join(
				fmt.Errorf("%w: item %d: %w", ErrRollbackFailed, item.ID, err),
				itemErr,
				tx.Rollback(),
			)
		}
		res.Failed = append(res.Failed, FailedItem{ID: item.ID, Err: itemErr})
		d.opts.Hooks.OnDeliveryFailure(ctx, item, itemErr)
		d.opts.Logger.WarnContext(ctx, "delivery failed, item left in queue",
			"run_id", runID, "id", item.ID, "error", itemErr)
		if !d.opts.ContinueOnFailure {
			break
		}
	}

	if err := tx.Commit(); err != nil {
		d.opts.Hooks.OnStoreError(ctx, "commit", 0, err)
		return Result{Claimed: res.Claimed}, fmt.Errorf("maildrain: commit batch: %w", err)
	}

	d.logRun(ctx, runID, res)
	return res, nil
}

// logRun emits the per-run summary, including runs that claimed nothing.
func (d *Drainer) logRun(ctx context.Context, runID string, res Result) {
	d.opts.Logger.InfoContext(ctx, "messages retrieved and sent",
		"run_id", runID,
		"claimed", res.Claimed,
		"delivered", res.Delivered,
		"failed", len(res.Failed),
	)
}

// process delivers one item and deletes its row. Any error leaves the item for the caller to roll back.
func (d *Drainer) process(ctx, txCtx context.Context, tx Tx, item QueueItem) error {
	if err := d.deliver(ctx, item); err != nil {
		return err
	}
	if err := tx.Delete(txCtx, item.ID); err != nil {
		return fmt.Errorf("maildrain: delete item %d: %w", item.ID, err)
	}
	return nil
}

func (d *Drainer) deliver(ctx context.Context, item QueueItem) error {
	if d.opts.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.DeliveryTimeout)
		defer cancel()
	}
	result, err := d.deliverer.Deliver(ctx, item)
	if err != nil {
		return fmt.Errorf("maildrain: deliver item %d: %w", item.ID, err)
	}
	if !result.Accepted {
		return fmt.Errorf("%w: item %d: %s", ErrDeliveryRejected, item.ID, result.Reason)
	}
	return nil
}
