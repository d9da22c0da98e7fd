package portfolio

import "errors"

// Sentinel errors returned by the engine and the holding store. Validation
// errors are detected before any store access. An oversized sell is not an
// error at all: it is the SellRejected outcome, a normal business result.
var (
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrStoreUnavailable = errors.New("holding store unavailable")
)
