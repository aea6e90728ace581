package domain

import "errors"

var (
	// ErrValidation is returned when a barcode or record is empty or malformed
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a product is explicitly absent from a source
	ErrNotFound = errors.New("product not found")

	// ErrNetwork is returned when the remote store is unreachable, times out,
	// or answers with something we cannot decode
	ErrNetwork = errors.New("remote unavailable")

	// ErrStorage is returned when the local cache fails to read or write
	ErrStorage = errors.New("local storage failure")

	// ErrRateLimited is returned when the remote rate limiter cannot grant a
	// token before the call deadline
	ErrRateLimited = errors.New("rate limit exceeded")
)
