package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidThreshold is returned when flag_threshold is outside [0,1].
	ErrInvalidThreshold = errors.New("invalid flag threshold: must be within [0,1]")

	// ErrInvalidConcurrency is returned when scan.concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid scan concurrency: must be positive")

	// ErrInvalidTimeout is returned when a backend timeout is negative.
	// Zero selects the default.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidTTL is returned when cache.ttl is negative.
	ErrInvalidTTL = errors.New("invalid cache ttl: must be non-negative")

	// ErrInvalidMaxBytes is returned when a byte limit is negative.
	ErrInvalidMaxBytes = errors.New("invalid download max bytes: must be non-negative")

	// ErrEndpointWithoutArtifact is returned when an image serving endpoint is
	// configured without the model artifact it serves.
	ErrEndpointWithoutArtifact = errors.New("image_model.endpoint requires image_model.artifact")
)
