package controller

import "regcache/internal/model"

// State is the dispatcher's top-level state. Exactly one sub-operation is
// active outside Idle/Error, which is what makes the single-writer rule
// on the array structural rather than a convention.
type State uint8

const (
	StateIdle State = iota
	StateGet
	StateUpsert
	StateDelete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateGet:
		return "RUNNING[GET]"
	case StateUpsert:
		return "RUNNING[UPSERT]"
	case StateDelete:
		return "RUNNING[DELETE]"
	case StateError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Dispatcher sequences GET/UPSERT/DELETE against the associative array.
// It accepts one request at a time, activates the matching sub-operation,
// and reports {done, error, hit, value} upward as one-tick pulses when the
// operation finishes. Unrecognized operation codes leave it in IDLE.
//
// Requests presented with Start are observed at the next Tick; the
// sub-operation itself runs on the tick after that, matching the
// accept-then-execute cadence of the synchronous design.
type Dispatcher struct {
	state State
	enter bool
	req   model.Request

	pending      model.Request
	pendingValid bool

	get    getOp
	upsert upsertOp
	del    deleteOp

	// registered outputs, pulsed for one tick on completion
	done  bool
	err   bool
	hit   bool
	value uint64
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) State() State { return d.state }
func (d *Dispatcher) Idle() bool   { return d.state == StateIdle }

// Done, Err, Hit and Value are the registered result outputs. Done (with
// Err alongside it on failure) holds for exactly one tick after the
// operation finishes.
func (d *Dispatcher) Done() bool    { return d.done }
func (d *Dispatcher) Err() bool     { return d.err }
func (d *Dispatcher) Hit() bool     { return d.hit }
func (d *Dispatcher) Value() uint64 { return d.value }

// Request returns the in-flight request, zero outside an operation.
func (d *Dispatcher) Request() model.Request { return d.req }

// Start presents a request for the next tick. It is ignored unless the
// dispatcher is idle: there is no queue, and a request already in flight
// always runs to done or error.
func (d *Dispatcher) Start(req model.Request) {
	if d.state != StateIdle || !req.Op.Triggers() {
		return
	}
	d.pending = req
	d.pendingValid = true
}

// Tick advances one synchronization step. The view must be computed from
// the array state as of the previous tick boundary. The returned write,
// when valid, is the single array write of this step and must be staged
// before the caller commits the tick.
func (d *Dispatcher) Tick(view ArrayView) (WriteCmd, bool) {
	d.done = false
	d.err = false
	d.hit = false
	d.value = 0

	switch d.state {
	case StateIdle:
		if d.pendingValid {
			d.req = d.pending
			d.pendingValid = false
			d.enter = true
			switch d.req.Op {
			case model.Get:
				d.state = StateGet
			case model.Upsert:
				d.state = StateUpsert
			case model.Delete:
				d.state = StateDelete
			}
		}
		return WriteCmd{}, false

	case StateGet, StateUpsert, StateDelete:
		res := d.active().step(d.enter, d.req, view)
		d.enter = false
		if res.err {
			d.state = StateError
			return WriteCmd{}, false
		}
		if res.done {
			d.state = StateIdle
			d.req = model.Request{}
			d.done = true
			d.hit = res.hit
			d.value = res.value
		}
		return res.write, res.writeValid

	default: // StateError: acknowledge for one tick, then back to idle
		d.state = StateIdle
		d.req = model.Request{}
		d.done = true
		d.err = true
		return WriteCmd{}, false
	}
}

func (d *Dispatcher) active() subOp {
	switch d.state {
	case StateGet:
		return d.get
	case StateUpsert:
		return d.upsert
	default:
		return &d.del
	}
}

// Reset returns the dispatcher to IDLE and drops any in-flight request.
func (d *Dispatcher) Reset() {
	*d = Dispatcher{}
}
