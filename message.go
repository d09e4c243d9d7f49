// Package maildrain drains a durable mail queue table: it claims pending rows inside one
// serializable transaction, hands each row to a Deliverer and deletes it only once the
// delivery was accepted.
package maildrain

import (
	"errors"
	"strings"
)

// QueueItem is one pending message row in the queue table.
type QueueItem struct {
	// ID is the primary key assigned by the store.
	ID int64
	// Sender is the single from address.
	Sender string
	// Recipients is the comma-separated list of to addresses as stored.
	Recipients string
	// Subject is the message subject line.
	Subject string
	// PlainBody is the text/plain part.
	PlainBody string
	// HTMLBody is the text/html part.
	HTMLBody string
}

// From returns the trimmed sender address.
func (q QueueItem) From() string {
	return strings.TrimSpace(q.Sender)
}

// RecipientList splits Recipients on commas, trimming blanks and dropping empty entries.
func (q QueueItem) RecipientList() []string {
	parts := strings.Split(q.Recipients, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the minimal contract a Deliverer relies on.
func (q QueueItem) Validate() error {
	if q.From() == "" {
		return errors.New("maildrain: sender is required")
	}
	if len(q.RecipientList()) == 0 {
		return errors.New("maildrain: at least one recipient is required")
	}
	return nil
}
