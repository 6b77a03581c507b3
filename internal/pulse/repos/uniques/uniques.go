// Package uniques estimates how many distinct clients have been seen, using a
// bloom filter so memory stays fixed no matter how many clients arrive.
package uniques

import (
	"math"
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// Estimator counts first sightings of client identifiers. False positives make
// the estimate undercount slightly; it never overcounts.
type Estimator struct {
	mu    sync.Mutex
	bf    *bitsbloom.BloomFilter
	count uint64
}

// New returns an Estimator sized for expected distinct clients at the given
// false-positive rate.
func New(expected uint64, fpRate float64) *Estimator {
	m, k := size(expected, fpRate)
	return &Estimator{bf: bitsbloom.New(uint(m), uint(k))}
}

// Observe records client and reports whether it was (probably) never seen before.
func (e *Estimator) Observe(client string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bf.TestAndAddString(client) {
		return false
	}
	e.count++
	return true
}

// Estimate returns the number of distinct clients observed so far.
func (e *Estimator) Estimate() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// size computes filter bits and hash count:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Results are clamped to at least 1.
func size(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint8(math.Max(1, math.Round((float64(m)/float64(n))*ln2)))
	return m, k
}
