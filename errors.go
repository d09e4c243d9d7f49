package maildrain

import "errors"

var (
	// ErrDeliveryRejected wraps a non-accepted DeliveryResult.
	ErrDeliveryRejected = errors.New("maildrain: delivery rejected")
	// ErrRollbackFailed is returned when the store could not roll back to an item's savepoint.
	// The whole transaction has already been aborted when it is returned.
	ErrRollbackFailed = errors.New("maildrain: rollback to savepoint failed")
)
