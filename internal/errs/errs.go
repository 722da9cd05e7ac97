// Package errs defines the sentinel failure kinds shared across the price
// intelligence subsystem. Components wrap these with fmt.Errorf and %w and
// callers branch with errors.Is; no other error classification exists.
package errs

import "errors"

var (
	// ErrConfiguration: required credentials or settings are missing.
	// Raised before any network call is attempted.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation: caller input is malformed (unknown category, blank
	// keyword). Raised before any network call is attempted.
	ErrValidation = errors.New("validation error")

	// ErrNotFound: a referenced part id does not exist in its category
	// table.
	ErrNotFound = errors.New("not found")

	// ErrUpstream: the marketplace answered with a non-success status.
	ErrUpstream = errors.New("upstream error")

	// ErrConnection: the transport failed before a response arrived.
	ErrConnection = errors.New("connection error")

	// ErrNoData: nothing to work with. Terminal for ingestion (nothing to
	// persist); the read-side analytics never surface it and degrade to
	// their documented null/neutral states instead.
	ErrNoData = errors.New("no data")
)
