// Package bloom provides a concurrent Bloom filter over crawl request IDs.
package bloom

import (
	"encoding/binary"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a Bloom filter keyed by 64-bit request IDs. It is safe for
// concurrent use.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected IDs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds an ID to the filter.
func (f *Filter) Add(id uint64) {
	key := encode(id)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.Add(key)
}

// Test returns true if the ID might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(id uint64) bool {
	key := encode(id)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.Test(key)
}

// EstimatedCount returns the approximate number of IDs in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.f.ApproximatedSize())
}

func encode(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}
