package lookup

import "errors"

var (
	// ErrMissingAPIKey is returned when the page-rank client has no key.
	ErrMissingAPIKey = errors.New("page rank API key is not set")

	// ErrInvalidRankList is returned when a rank list file cannot be parsed.
	ErrInvalidRankList = errors.New("invalid rank list")

	// ErrUnexpectedResponse is returned when a remote service answers with a
	// payload or status that cannot be interpreted.
	ErrUnexpectedResponse = errors.New("unexpected response")
)
