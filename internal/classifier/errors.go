package classifier

import "errors"

var (
	// ErrModelUnavailable is returned when no model is loaded or the
	// artifact does not exist.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrShapeMismatch is returned when an input vector does not have the
	// number of features the model was trained on.
	ErrShapeMismatch = errors.New("feature vector shape mismatch")

	// ErrSchemaMismatch is returned when an artifact was trained on a
	// different feature schema than the one in use.
	ErrSchemaMismatch = errors.New("artifact schema does not match feature schema")

	// ErrChecksumMismatch is returned when an artifact payload does not
	// match its recorded checksum.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")

	// ErrUnsupportedFormat is returned for artifacts written by an unknown
	// format version.
	ErrUnsupportedFormat = errors.New("unsupported artifact format")

	// ErrInvalidParams is returned when training parameters are out of range.
	ErrInvalidParams = errors.New("invalid training parameters")

	// ErrSingleClass is returned when training data does not contain exactly
	// two classes.
	ErrSingleClass = errors.New("training data must contain exactly two classes")
)
