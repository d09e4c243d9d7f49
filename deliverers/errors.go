package deliverers

import "errors"

var (
	// ErrInvalidConfig is returned by constructors given incomplete settings.
	ErrInvalidConfig = errors.New("maildrain deliverers: invalid config")
	// ErrInvalidItem is returned when a queued row cannot form a message (no sender or recipients).
	ErrInvalidItem = errors.New("maildrain deliverers: invalid queue item")
)
