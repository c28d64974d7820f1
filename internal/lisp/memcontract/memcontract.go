// Package memcontract applies the fixed post-processing rule that turns a
// raw top-level evaluation value into a (result, delta, new_memory) triple.
package memcontract

import (
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

var resultKey = value.Intern("result")

// Outcome is the materialised effect of one turn's program on memory.
type Outcome struct {
	Result    value.Value
	Delta     *value.Map
	NewMemory *value.Map
	// Failed is true when the top-level value was a {:__fail__, v} marker;
	// Result then carries v and NewMemory equals the memory passed in.
	Failed bool
	// Returned is true when the top-level value was a {:__return__, v}
	// marker; the run should terminate once the returned value validates.
	Returned bool
}

// Apply unwraps terminal markers from r and computes the memory-contract
// outcome against the pre-execution memory m.
func Apply(r eval.Result, m *value.Map) Outcome {
	switch r.Sig {
	case eval.SigFail:
		return Outcome{Result: r.Val, Delta: value.NewMap(), NewMemory: m, Failed: true}
	case eval.SigReturn:
		out := contract(r.Val, m)
		out.Returned = true
		return out
	default:
		return contract(r.Val, m)
	}
}

func contract(v value.Value, m *value.Map) Outcome {
	asMap, ok := v.(*value.Map)
	if !ok {
		return Outcome{Result: v, Delta: value.NewMap(), NewMemory: m}
	}
	if result, found := asMap.GetKeyish(resultKey.Name()); found {
		delta := dissocResult(asMap)
		return Outcome{Result: result, Delta: delta, NewMemory: m.Merge(delta)}
	}
	return Outcome{Result: asMap, Delta: asMap, NewMemory: m.Merge(asMap)}
}

// dissocResult removes both the keyword and string spellings of :result, so
// the delta never carries the key the contract just extracted.
func dissocResult(m *value.Map) *value.Map {
	return m.Dissoc(resultKey).Dissoc(value.Str(resultKey.Name()))
}
