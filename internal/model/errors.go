package model

import "errors"

// Error kinds surfaced by the ledger packages. Callers classify with errors.Is.
var (
	// ErrNotFound: document, sheet, or row does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation: required input missing or malformed (e.g. no document open)
	ErrValidation = errors.New("validation failed")

	// ErrIO: reading or writing the backing document failed
	ErrIO = errors.New("i/o failure")

	// ErrMalformedReference: an escaped attachment path could not be decoded.
	// Best-effort callers recover by keeping the original string.
	ErrMalformedReference = errors.New("malformed path reference")
)
