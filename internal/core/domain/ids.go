package domain

import "sync/atomic"

// ID identifies a rider or a driver within one World's lifetime. IDs from two
// different World values are not comparable.
type ID uint64

// IDAllocator issues monotonically increasing ids scoped to a single
// World, so two simultaneous simulations never share ids by accident.
type IDAllocator struct {
	next atomic.Uint64
}

// Next returns a fresh id. Safe for concurrent use by generator goroutines.
func (a *IDAllocator) Next() ID {
	return ID(a.next.Add(1) - 1)
}
