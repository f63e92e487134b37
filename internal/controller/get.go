package controller

import "regcache/internal/model"

// getOp is the single-state GET machine. The key is already presented to
// the array continuously, so the view's hit and value are valid on entry;
// GET forwards them and finishes in one step. A miss is a successful
// "not found" result, never an error.
type getOp struct{}

func (getOp) step(_ bool, _ model.Request, view ArrayView) subResult {
	return subResult{
		done:  true,
		hit:   view.Hit,
		value: view.Value,
	}
}
