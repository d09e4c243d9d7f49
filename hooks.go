package maildrain

import (
	"context"
	"time"
)

// Hooks receives drain lifecycle events; implementations typically feed metrics.
type Hooks interface {
	// OnClaim reports the requested batch size and how many rows were actually claimed.
	OnClaim(ctx context.Context, batchSize int, claimed int)
	// OnDelivered fires once an item has been accepted and its row deleted inside the transaction.
	OnDelivered(ctx context.Context, item QueueItem)
	// OnDeliveryFailure fires when an item was rolled back to its savepoint.
	OnDeliveryFailure(ctx context.Context, item QueueItem, err error)
	// OnStoreError fires for store failures that end the run; id is 0 when no row is involved.
	OnStoreError(ctx context.Context, op string, id int64, err error)
	// OnCycle records the duration of one Drain call.
	OnCycle(ctx context.Context, d time.Duration)
}

// Logger captures Drainer logs. *slog.Logger satisfies it.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

type noopHooks struct{}

func (noopHooks) OnClaim(context.Context, int, int)                   {}
func (noopHooks) OnDelivered(context.Context, QueueItem)              {}
func (noopHooks) OnDeliveryFailure(context.Context, QueueItem, error) {}
func (noopHooks) OnStoreError(context.Context, string, int64, error)  {}
func (noopHooks) OnCycle(context.Context, time.Duration)              {}

// noopLogger discards all drain logs.
type noopLogger struct{}

func (noopLogger) InfoContext(context.Context, string, ...any)  {}
func (noopLogger) WarnContext(context.Context, string, ...any)  {}
func (noopLogger) ErrorContext(context.Context, string, ...any) {}
