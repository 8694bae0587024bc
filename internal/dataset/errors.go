package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a schema indicator has no column.
	ErrMissingColumn = errors.New("dataset is missing a feature column")

	// ErrMissingLabel is returned when no label column exists.
	ErrMissingLabel = errors.New("dataset has no label column")

	// ErrInvalidLabel is returned for labels other than 1 and -1.
	ErrInvalidLabel = errors.New("invalid label")

	// ErrInvalidValue is returned for cells that are not valid indicator values.
	ErrInvalidValue = errors.New("invalid feature value")

	// ErrEmpty is returned when the dataset has no rows.
	ErrEmpty = errors.New("dataset is empty")

	// ErrSplit is returned when a split would leave a side without samples.
	ErrSplit = errors.New("cannot split dataset")
)
