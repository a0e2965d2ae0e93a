package mcp

import "sync/atomic"

// IDAllocator mints the strictly increasing integer request IDs a dispatcher
// assigns to its outbound requests. Each dispatcher owns one allocator, so
// IDs never collide across sessions even when several dispatchers run in the
// same process. Safe for concurrent use.
type IDAllocator struct {
	next int64
}

// NewIDAllocator returns an allocator whose first ID is 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next request ID.
func (a *IDAllocator) Next() int64 {
	return atomic.AddInt64(&a.next, 1) - 1
}
