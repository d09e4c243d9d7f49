package metrics

import (
	"context"
	"expvar"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mickamy/maildrain"
)

// StatsHook publishes drain counters via expvar.
type StatsHook struct {
	requested      atomic.Int64
	claimed        atomic.Int64
	delivered      atomic.Int64
	failed         atomic.Int64
	storeErrors    atomic.Int64
	cycles         atomic.Int64
	cycleLatencyNs atomic.Int64
}

// NewStatsHook registers an expvar entry named "<prefix>_stats".
// expvar panics on duplicate names, so call it once per prefix.
func NewStatsHook(prefix string) *StatsHook {
	h := newStatsHook()
	if prefix == "" {
		prefix = "maildrain"
	}
	expvar.Publish(fmt.Sprintf("%s_stats", prefix), expvar.Func(func() any {
		return h.Snapshot()
	}))
	return h
}

func newStatsHook() *StatsHook {
	return &StatsHook{}
}

// OnClaim tracks how many rows we asked for and how many we actually claimed.
func (h *StatsHook) OnClaim(_ context.Context, batchSize int, claimed int) {
	h.requested.Add(int64(batchSize))
	h.claimed.Add(int64(claimed))
}

// OnDelivered increments delivered-and-deleted items.
func (h *StatsHook) OnDelivered(context.Context, maildrain.QueueItem) {
	h.delivered.Add(1)
}

// OnDeliveryFailure increments items left in the queue after a failure.
func (h *StatsHook) OnDeliveryFailure(context.Context, maildrain.QueueItem, error) {
	h.failed.Add(1)
}

// OnStoreError increments store error counter.
func (h *StatsHook) OnStoreError(context.Context, string, int64, error) {
	h.storeErrors.Add(1)
}

// OnCycle records cycle durations and counts.
func (h *StatsHook) OnCycle(_ context.Context, d time.Duration) {
	h.cycles.Add(1)
	h.cycleLatencyNs.Add(d.Nanoseconds())
}

// Snapshot returns the current counter values.
func (h *StatsHook) Snapshot() map[string]int64 {
	return map[string]int64{
		"requested":        h.requested.Load(),
		"claimed":          h.claimed.Load(),
		"delivered":        h.delivered.Load(),
		"failed":           h.failed.Load(),
		"store_errors":     h.storeErrors.Load(),
		"cycles":           h.cycles.Load(),
		"cycle_latency_ns": h.cycleLatencyNs.Load(),
	}
}

var _ maildrain.Hooks = (*StatsHook)(nil)
