package maildrain

import "context"

// DeliveryResult is what the delivery transport reported for one message.
type DeliveryResult struct {
	// Accepted reports whether the transport took responsibility for the message.
	Accepted bool
	// Reason carries the transport's explanation when the message was not accepted.
	Reason string
}

// Accepted is the result of a successful hand-off.
func Accepted() DeliveryResult {
	return DeliveryResult{Accepted: true}
}

// Rejected builds a non-accepted result.
func Rejected(reason string) DeliveryResult {
	return DeliveryResult{Reason: reason}
}

// Deliverer attempts delivery of one queued message.
// A non-accepted result and a returned error are handled the same way by the Drainer.
type Deliverer interface {
	Deliver(ctx context.Context, item QueueItem) (DeliveryResult, error)
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, item QueueItem) (DeliveryResult, error)

// Deliver implements Deliverer.
func (f DelivererFunc) Deliver(ctx context.Context, item QueueItem) (DeliveryResult, error) {
	return f(ctx, item)
}
