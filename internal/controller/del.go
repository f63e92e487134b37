package controller

import "regcache/internal/model"

type delState uint8

const (
	delStart delState = iota
	delCommit
	delError
)

// deleteOp is the two-step DELETE machine. The first step inspects the
// hit and captures the matched index; the second either clears that slot
// by writing the (0, 0) vacancy pair or reports that the key was not
// found. Both terminal steps rearm the machine for the next activation.
type deleteOp struct {
	state delState
	index int
}

func (d *deleteOp) step(enter bool, _ model.Request, view ArrayView) subResult {
	if enter {
		d.state = delStart
	}
	switch d.state {
	case delStart:
		if view.Hit {
			d.index = view.Index
			d.state = delCommit
		} else {
			d.state = delError
		}
		return subResult{}
	case delCommit:
		d.state = delStart
		return subResult{
			writeValid: true,
			write:      WriteCmd{Index: d.index},
			done:       true,
			hit:        true,
		}
	default: // delError
		d.state = delStart
		return subResult{err: true}
	}
}
