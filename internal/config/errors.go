package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and
// Config.ValidateTraining() and tell the user what is wrong with the
// configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when neither a URL argument nor --list is given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when a lookup timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to keep the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxRedirects is returned when the redirect limit is negative.
	ErrInvalidMaxRedirects = errors.New("invalid max redirects: must be non-negative")

	// ErrNoModelPath is returned when no model artifact location is known.
	ErrNoModelPath = errors.New("no model path: use --model")

	// ErrNoDataset is returned when train is run without --dataset.
	ErrNoDataset = errors.New("no dataset specified: use --dataset")

	// ErrInvalidTestRatio is returned when the held-out share is not
	// strictly between 0 and 1.
	ErrInvalidTestRatio = errors.New("invalid test ratio: must be between 0 and 1")
)
