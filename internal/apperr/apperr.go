package apperr

import "errors"

var (
	// ErrNotFound covers missing books, sections, versions, assets and
	// rows that reference files no longer present on disk.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers rejected input before any persistence happens.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream covers text-generation and speech-synthesis failures.
	ErrUpstream = errors.New("upstream generation failed")
)
