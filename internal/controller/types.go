package controller

import "regcache/internal/model"

// ArrayView is the associative array's combinational output for the
// in-flight request's key, snapshotted before any write from the current
// tick commits: the hit/value/index of the first match, the occupancy
// vector, and the derived lowest free slot.
type ArrayView struct {
	Hit   bool
	Value uint64
	Index int
	Used  uint64
	Free  int // lowest vacant slot, meaningless when Full
	Full  bool
}

// WriteCmd is an addressed write for the array, to be committed at the
// tick boundary.
type WriteCmd struct {
	Index int
	Key   uint64
	Value uint64
}

// subResult is the shared status half of the sub-operation handshake:
// at most one staged write plus the done/error pair and, on done, the
// result forwarded upward.
type subResult struct {
	writeValid bool
	write      WriteCmd
	done       bool
	err        bool
	hit        bool
	value      uint64
}

// subOp is the contract every sub-operation shares with the dispatcher.
// step is called once per tick while the operation is active; enter is
// set on the first tick after activation so the sub-operation can
// reinitialize its internal state.
type subOp interface {
	step(enter bool, req model.Request, view ArrayView) subResult
}
