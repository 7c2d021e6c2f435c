package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// IntToInt32 converts int to int32 safely.
func IntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d cannot be converted to int32", ErrOverflow, v)
	}
	return int32(v), nil
}

// LenToInt32 converts a length or count to the int32 prefix used on disk.
func LenToInt32(n int) (int32, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrOverflow, n)
	}
	return IntToInt32(n)
}
