package feature

import "errors"

// Extraction errors.
//
// Design decision: Only input errors and contract violations are returned by
// the extractor. Lookup failures are never surfaced; they are recovered inside
// the extractor by resolving the affected indicator to Neutral.
var (
	// ErrEmptyURL is returned when the input URL is empty or whitespace only.
	ErrEmptyURL = errors.New("empty URL")

	// ErrNotString is returned by ExtractAny when the dynamic input is not a string.
	ErrNotString = errors.New("URL is not a string")

	// ErrVectorLength is returned when a vector does not have one entry per
	// schema indicator. It signals a programming error and is never recovered.
	ErrVectorLength = errors.New("feature vector length does not match schema")

	// ErrValueOutOfDomain is returned by Schema.Validate when an entry is
	// outside its indicator's declared domain.
	ErrValueOutOfDomain = errors.New("indicator value outside declared domain")

	// ErrNotFound is returned by lookup capabilities for an authoritative
	// negative answer (NXDOMAIN, unranked domain, unknown to the index).
	// It is distinct from transport failures, which resolve to Neutral.
	ErrNotFound = errors.New("not found")
)
