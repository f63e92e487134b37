package controller

import "regcache/internal/model"

// upsertOp is the single-state UPSERT machine, decided combinationally
// from (hit, index, used):
//
//	hit           -> in-place update of the matched slot
//	miss, free    -> insert into the lowest vacant slot
//	miss, full    -> no write, capacity error
//
// Lowest-free-slot selection keeps insertion order deterministic.
type upsertOp struct{}

func (upsertOp) step(_ bool, req model.Request, view ArrayView) subResult {
	switch {
	case view.Hit:
		return subResult{
			writeValid: true,
			write:      WriteCmd{Index: view.Index, Key: req.Key, Value: req.Value},
			done:       true,
			hit:        true,
			value:      req.Value,
		}
	case !view.Full:
		return subResult{
			writeValid: true,
			write:      WriteCmd{Index: view.Free, Key: req.Key, Value: req.Value},
			done:       true,
			value:      req.Value,
		}
	default:
		return subResult{err: true}
	}
}
