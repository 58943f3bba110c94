package service

import (
	"hash/fnv"
	"sync"
)

// keyLock serializes callers per key using a fixed set of stripes.
// Distinct keys may share a stripe.
type keyLock struct {
	stripes []sync.Mutex
}

func newKeyLock(n int) *keyLock {
	if n < 1 {
		n = 1
	}
	return &keyLock{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe of key and returns its unlock function.
func (l *keyLock) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
