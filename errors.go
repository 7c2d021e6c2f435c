package giscore

import (
	"errors"

	"github.com/hupe1980/giscore/bucket"
	"github.com/hupe1980/giscore/codec"
	"github.com/hupe1980/giscore/resource"
	"github.com/hupe1980/giscore/sortmerge"
	"github.com/hupe1980/giscore/spill"
)

// ErrEngineClosed is returned by an Engine after Close.
var ErrEngineClosed = errors.New("giscore: engine closed")

// Errors of the underlying packages, re-exported so callers can match them
// with errors.Is without importing each package.
var (
	ErrNilObject     = spill.ErrNilObject
	ErrClosed        = spill.ErrClosed
	ErrOutputClosed  = spill.ErrOutputClosed
	ErrSorterFailed  = sortmerge.ErrSorterFailed
	ErrKindMismatch  = sortmerge.ErrKindMismatch
	ErrArityMismatch = sortmerge.ErrArityMismatch
	ErrUnknownKey    = bucket.ErrUnknownKey
	ErrUnknownType   = codec.ErrUnknownType

	ErrDiskQuotaExceeded = resource.ErrDiskQuotaExceeded
)

// DecodeError reports a corrupt or truncated backing file.
type DecodeError = codec.DecodeError
