package model

import "errors"

var (
	// ErrModelUnavailable is returned by every inference call while the model
	// artifacts failed to load.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedInput covers missing channel columns, unparseable sources and
	// batches left empty after row cleaning.
	ErrMalformedInput = errors.New("malformed input")

	// ErrProcessing wraps failures during feature extraction, classification
	// or scoring.
	ErrProcessing = errors.New("processing failure")

	// ErrNoData means an external source answered with nothing usable.
	ErrNoData = errors.New("no data")
)
