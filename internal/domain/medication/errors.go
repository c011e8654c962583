package medication

import "errors"

// Sentinel errors returned by the stock ledger and CRUD operations. Handlers
// map them to HTTP status codes; callers test with errors.Is.
var (
	// ErrNotFound is returned for operations against an unknown medication id.
	ErrNotFound = errors.New("medication not found")

	// ErrOutOfStock is returned when a decrement is attempted at zero stock.
	// The operation is a no-op: stock never goes negative.
	ErrOutOfStock = errors.New("no stock available")

	// ErrMissingExpiry is returned when stock is added without an expiry date.
	ErrMissingExpiry = errors.New("expiry date is required when adding stock")

	// ErrInvalidInput covers malformed times and non-positive quantities.
	ErrInvalidInput = errors.New("invalid input")
)
