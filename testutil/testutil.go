package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63 returns a non-negative pseudo-random int64.
func (r *RNG) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformKeys returns n keys drawn uniformly from [0, distinct).
// Small distinct values produce many ties.
func (r *RNG) UniformKeys(n, distinct int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(r.rand.Intn(distinct))
	}
	return keys
}

// ZipfKeys returns n keys in [0, distinct) following Zipf's law with skew s.
// s=1.0 gives standard Zipf, s=1.5 a heavy tail where few keys dominate.
func (r *RNG) ZipfKeys(n, distinct int, s float64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Cumulative weights, computed once per call.
	cdf := make([]float64, distinct)
	var total float64
	for k := range distinct {
		total += 1.0 / math.Pow(float64(k+1), s)
		cdf[k] = total
	}

	keys := make([]int64, n)
	for i := range keys {
		u := r.rand.Float64() * total
		k := 0
		for k < distinct-1 && u > cdf[k] {
			k++
		}
		keys[i] = int64(k)
	}
	return keys
}

// Coords returns n (x, y) pairs with both components in [minVal, maxVal).
func (r *RNG) Coords(n int, minVal, maxVal float64) [][2]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := maxVal - minVal
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{minVal + r.rand.Float64()*span, minVal + r.rand.Float64()*span}
	}
	return out
}

// Subset returns a random non-empty subset of names in random order.
func (r *RNG) Subset(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	perm := r.rand.Perm(len(names))
	k := 1 + r.rand.Intn(len(names))
	out := make([]string, k)
	for i := range out {
		out[i] = names[perm[i]]
	}
	return out
}

// Shuffle returns a shuffled copy of names. The input is not modified.
func (r *RNG) Shuffle(names []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]string(nil), names...)
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
