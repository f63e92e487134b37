package memory

// Register models one fixed-width storage word with a synchronous write:
// a value staged with Write becomes visible only after the next Tick.
// Clear is the asynchronous reset and takes effect immediately, dropping
// any staged write with it.
type Register struct {
	cur     uint64
	next    uint64
	pending bool
}

func (r *Register) Value() uint64 { return r.cur }

// Write stages v for the next tick boundary. A second Write in the same
// tick replaces the first.
func (r *Register) Write(v uint64) {
	r.next = v
	r.pending = true
}

// Tick commits a staged write, if any.
func (r *Register) Tick() {
	if r.pending {
		r.cur = r.next
		r.pending = false
	}
}

func (r *Register) Clear() {
	*r = Register{}
}
