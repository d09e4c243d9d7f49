package stores

import "errors"

var (
	// ErrUnsupportedDialect is returned for a dialect name no store implements.
	ErrUnsupportedDialect = errors.New("maildrain stores: unsupported dialect")
	// ErrInvalidLimit is returned when Claim is called with a non-positive limit.
	ErrInvalidLimit = errors.New("maildrain stores: batch size must be positive")
	// ErrInvalidDSN is returned for a connection string the store cannot run safely with.
	ErrInvalidDSN = errors.New("maildrain stores: invalid dsn")
	// ErrNoRowDeleted is returned when a delete by id matched nothing.
	ErrNoRowDeleted = errors.New("maildrain stores: no row deleted")
)
