// Package deliverers provides maildrain.Deliverer implementations.
//
//   - Postmark sends through the Postmark transactional email HTTP API.
//   - Webhook posts the message as JSON to an HTTP endpoint.
//   - SQS relays the message to an Amazon SQS queue consumed by another mail worker.
//
// A deliverer returns an error for transport faults and a non-accepted result when the
// remote side answered but refused the message. The drainer treats both as a failure and
// leaves the row queued.
package deliverers
