package domain

import "errors"

var (
	// ErrDuplicateSeries is returned when two samples in one write request
	// resolve to the same name+label-set identity.
	ErrDuplicateSeries = errors.New("duplicate series in write request")
	// ErrDuplicateLabel is returned when a sample carries two labels with
	// the same name.
	ErrDuplicateLabel = errors.New("duplicate label name")
	// ErrNoSamples is returned when a write request would contain nothing.
	ErrNoSamples = errors.New("no samples to encode")
)
