package models

import "errors"

// Error taxonomy. Callers wrap these with %w and match with errors.Is.
var (
	// ErrMalformedOutline marks an outline matching no known shape. The document is skipped.
	ErrMalformedOutline = errors.New("malformed outline")
	// ErrMalformedRequest marks a request without persona role or task. Fatal.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrMissingInput marks a document or outline that cannot be found or read. The document is skipped.
	ErrMissingInput = errors.New("missing collaborator input")
	// ErrEmptyPool marks a run where no document produced a section. Fatal.
	ErrEmptyPool = errors.New("empty section pool")
	// ErrProviderTimeout marks an embedding call that exceeded its deadline. Fatal.
	ErrProviderTimeout = errors.New("embedding provider timeout")
	// ErrProviderError marks an embedding call that failed or returned unusable vectors. Fatal.
	ErrProviderError = errors.New("embedding provider error")
)
