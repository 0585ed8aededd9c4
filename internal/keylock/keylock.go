// Package keylock serializes work per key using a fixed stripe of mutexes.
//
// Two keys may share a stripe, in which case they serialize too. That only
// costs concurrency, never correctness.
package keylock

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultStripes is the stripe count a store uses.
const DefaultStripes = 64

// Striped is a set of mutexes indexed by murmur3(key) mod stripes.
type Striped struct {
	locks []sync.Mutex
}

// New returns a Striped with n stripes (minimum 1).
func New(n int) *Striped {
	if n < 1 {
		n = 1
	}
	return &Striped{locks: make([]sync.Mutex, n)}
}

func (s *Striped) stripe(key string) *sync.Mutex {
	return &s.locks[murmur3.Sum32([]byte(key))%uint32(len(s.locks))]
}

// Lock locks key's stripe and returns the matching unlock function.
func (s *Striped) Lock(key string) (unlock func()) {
	m := s.stripe(key)
	m.Lock()
	return m.Unlock
}
