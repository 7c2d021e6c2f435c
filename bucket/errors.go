package bucket

import "errors"

var (
	// ErrNilRecord is returned when Add is given a nil record.
	ErrNilRecord = errors.New("bucket: nil record")

	// ErrNilSchema is returned when AddSchema is given a nil schema.
	ErrNilSchema = errors.New("bucket: nil schema")

	// ErrUnknownKey is returned by accessors for a key no record produced.
	ErrUnknownKey = errors.New("bucket: unknown key")
)
