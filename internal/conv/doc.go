// Package conv provides safe integer conversions for the int32 length and
// count prefixes of the on-disk record format.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead.
package conv
