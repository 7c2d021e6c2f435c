package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned when a stream names a type that is not in the Registry.
	ErrUnknownType = errors.New("codec: unknown type")

	// ErrUnknownClassRef is returned when a class reference id was never registered in the stream.
	ErrUnknownClassRef = errors.New("codec: unknown class reference")

	// ErrUnknownScalarTag is returned when a scalar carries a tag outside the known set.
	ErrUnknownScalarTag = errors.New("codec: unknown scalar tag")

	// ErrUnsupportedScalar is returned when WriteScalar is given a value it cannot encode.
	ErrUnsupportedScalar = errors.New("codec: unsupported scalar type")

	// ErrNegativeLength is returned when a length or count prefix is negative.
	ErrNegativeLength = errors.New("codec: negative length")

	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("codec: session closed")
)

// DecodeError reports a corrupt or truncated stream.
//
// A Decoder that returned a DecodeError is unusable; every later call
// returns the same error. The underlying cause can be accessed via errors.Unwrap.
type DecodeError struct {
	Op    string
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %v", e.Op, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// EncodeError reports a failed write. The Encoder is unusable afterwards.
type EncodeError struct {
	Op    string
	cause error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("codec: encode %s: %v", e.Op, e.cause)
}

func (e *EncodeError) Unwrap() error { return e.cause }
