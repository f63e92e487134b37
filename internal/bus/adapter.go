package bus

import "regcache/internal/model"

// FSMState is the adapter's state, exposed in status bits [4:3].
type FSMState uint8

const (
	FSMIdle FSMState = iota
	FSMExecute
	FSMWait
	FSMComplete
)

func (s FSMState) String() string {
	switch s {
	case FSMIdle:
		return "IDLE"
	case FSMExecute:
		return "EXECUTE"
	case FSMWait:
		return "WAIT"
	case FSMComplete:
		return "COMPLETE"
	}
	return "UNKNOWN"
}

// Adapter bridges the narrow word-addressed bus onto the dispatcher's
// single-shot command interface. Requester-visible behavior:
//
//   - Writes land in staging registers; the write to the op register with
//     a triggering code starts the operation.
//   - While an operation is in flight (EXECUTE/WAIT) writes are not
//     granted. This is the blocking variant: it removes the whole class
//     of requester misuse where staging registers change mid-operation.
//   - Reads are side-effect free and always granted.
//   - A new trigger is accepted again in COMPLETE, clearing the previous
//     result; the requester may re-trigger without any explicit ack.
//
// Key and value are masked to their configured widths on assembly; the
// value spans ceil(valueBits/wordBits) staging words, least significant
// word first.
type Adapter struct {
	layout Layout

	wordBits  uint
	wordMask  uint64
	keyMask   uint64
	valueMask uint64

	state   FSMState
	trigger bool

	opReg  uint64
	keyReg uint64
	valReg []uint64
	resReg []uint64

	done bool
	hit  bool
	err  bool
}

// NewAdapter builds an adapter for the given field widths. valueWords
// must be ceil(valueBits/wordBits); the caller's config layer derives it.
func NewAdapter(wordBits, keyBits, valueBits uint, valueWords int) *Adapter {
	return &Adapter{
		layout:    Layout{ValueWords: valueWords},
		wordBits:  wordBits,
		wordMask:  widthMask(wordBits),
		keyMask:   widthMask(keyBits),
		valueMask: widthMask(valueBits),
		valReg:    make([]uint64, valueWords),
		resReg:    make([]uint64, valueWords),
	}
}

func widthMask(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}

func (a *Adapter) Layout() Layout  { return a.layout }
func (a *Adapter) State() FSMState { return a.state }

// Write performs one bus write beat. The return value is the grant:
// false means the transaction was refused because an operation is in
// flight and the requester must retry after done. Writes to read-only or
// unmapped offsets are granted and discarded.
func (a *Adapter) Write(addr int, data uint64) bool {
	if a.state == FSMExecute || a.state == FSMWait {
		return false
	}
	data &= a.wordMask
	switch {
	case addr == a.layout.Op():
		a.opReg = data
		if model.Op(data).Triggers() {
			a.trigger = true
		}
	case addr == a.layout.Key():
		a.keyReg = data & a.keyMask
	case addr >= a.layout.Value(0) && addr < a.layout.Value(a.layout.ValueWords):
		a.valReg[addr-a.layout.Value(0)] = data
	}
	return true
}

// Read performs one bus read beat. Unmapped offsets read as zero.
func (a *Adapter) Read(addr int) uint64 {
	switch {
	case addr == a.layout.Op():
		return a.opReg
	case addr == a.layout.Key():
		return a.keyReg
	case addr >= a.layout.Value(0) && addr < a.layout.Value(a.layout.ValueWords):
		return a.valReg[addr-a.layout.Value(0)]
	case addr == a.layout.Status():
		return a.Status()
	case addr >= a.layout.Result(0) && addr < a.layout.Result(a.layout.ValueWords):
		return a.resReg[addr-a.layout.Result(0)]
	}
	return 0
}

// Status composes the status word: done, hit and error flags plus the
// adapter FSM state in bits [4:3].
func (a *Adapter) Status() uint64 {
	var s uint64
	if a.done {
		s |= StatusDone
	}
	if a.hit {
		s |= StatusHit
	}
	if a.err {
		s |= StatusError
	}
	s |= uint64(a.state) << statusStateShift
	return s
}

func (a *Adapter) Done() bool { return a.done }

// Starting reports the one-tick start pulse: the tick during which the
// assembled request must be handed to the dispatcher.
func (a *Adapter) Starting() bool { return a.state == FSMExecute }

// Request assembles the in-flight command from the staging registers.
func (a *Adapter) Request() model.Request {
	var value uint64
	for i := a.layout.ValueWords - 1; i >= 0; i-- {
		value = value<<a.wordBits | a.valReg[i]
	}
	return model.Request{
		Op:    model.Op(a.opReg),
		Key:   a.keyReg & a.keyMask,
		Value: value & a.valueMask,
	}
}

// Complete latches the dispatcher's result while in WAIT and moves to
// COMPLETE, where the result words and status flags hold steady until the
// next trigger.
func (a *Adapter) Complete(hit, errFlag bool, value uint64) {
	if a.state != FSMWait {
		return
	}
	a.done = true
	a.hit = hit
	a.err = errFlag
	value &= a.valueMask
	for i := range a.resReg {
		a.resReg[i] = value & a.wordMask
		value >>= a.wordBits
	}
	a.state = FSMComplete
}

// Tick advances the adapter one step: a pending trigger leaves IDLE or
// COMPLETE for EXECUTE, and EXECUTE always falls through to WAIT after
// its single start-pulse tick.
func (a *Adapter) Tick() {
	switch a.state {
	case FSMIdle, FSMComplete:
		if a.trigger {
			a.trigger = false
			a.done = false
			a.hit = false
			a.err = false
			a.state = FSMExecute
		}
	case FSMExecute:
		a.state = FSMWait
	}
}

// Reset clears the register file and returns to IDLE.
func (a *Adapter) Reset() {
	a.state = FSMIdle
	a.trigger = false
	a.opReg = 0
	a.keyReg = 0
	for i := range a.valReg {
		a.valReg[i] = 0
	}
	for i := range a.resReg {
		a.resReg[i] = 0
	}
	a.done = false
	a.hit = false
	a.err = false
}
