package chain

import "sync/atomic"

// IDAllocator hands out fresh, globally unique chain ids across every
// chromosome-pair bucket a parallel pipeline driver processes
// concurrently (§5: buckets are processed by a fixed-size worker pool).
type IDAllocator struct {
	next int64
}

// Next returns a fresh chain id, safe for concurrent use.
func (a *IDAllocator) Next() int {
	return int(atomic.AddInt64(&a.next, 1) - 1)
}
