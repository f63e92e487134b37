package engine

import "errors"

var (
	// ErrCapacityExceeded is reported by UPSERT when every slot is
	// occupied and none matches the key. Nothing is evicted; the
	// requester must delete an entry first.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrKeyNotFound is reported by DELETE for an absent key. GET never
	// returns it: a miss is a normal result.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStalled means the status register never showed done within the
	// tick budget. The model completes every operation in a handful of
	// ticks, so this only fires on a wiring bug.
	ErrStalled = errors.New("operation stalled: done bit never set")
)
