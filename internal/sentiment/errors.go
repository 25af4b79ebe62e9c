package sentiment

import "errors"

var (
	// ErrInvalidInput is returned for blank text or a malformed document.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable is returned when the classifier cannot be acquired
	// or fails while classifying.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrEmptyBatch is returned when an aggregate is requested over zero documents.
	ErrEmptyBatch = errors.New("empty batch")
)
