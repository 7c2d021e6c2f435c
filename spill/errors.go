package spill

import "errors"

var (
	// ErrNilObject is returned when a nil record is written to a buffer.
	ErrNilObject = errors.New("spill: object must not be nil")

	// ErrClosed is returned by a buffer or reader after Close.
	ErrClosed = errors.New("spill: closed")

	// ErrOutputClosed is returned when writing after CloseOutput.
	ErrOutputClosed = errors.New("spill: output closed")

	// ErrInvalidCapacity is returned for a buffer capacity below 1.
	ErrInvalidCapacity = errors.New("spill: capacity must be positive")

	// ErrInvalidWatermarks is returned unless 0 <= low < high.
	ErrInvalidWatermarks = errors.New("spill: watermarks require 0 <= low < high")
)
