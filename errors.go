package tamperfy

import "errors"

var (
	// ErrEmptyPrediction is returned when a backend answers without usable output.
	ErrEmptyPrediction = errors.New("empty prediction")

	// ErrUnexpectedStatus is returned when an inference endpoint answers with a
	// non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status")

	errEmptyInput = errors.New("empty input")
)
