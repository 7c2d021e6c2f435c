// Package testutil provides deterministic test data for giscore.
//
// This package is intended for use in tests and benchmarks only. It must not
// import other giscore packages so that their internal tests can use it.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	leads := rng.ZipfKeys(1000, 10, 1.5) // skewed sort keys with many ties
//	pts := rng.Coords(100, -180, 180)    // coordinate pairs
//	fields := rng.Subset(names)          // random field set in random order
package testutil
