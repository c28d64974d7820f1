// Package builtins seeds the PTC-Lisp initial environment: the fixed table
// of arithmetic, comparison, collection, string and set functions every
// program runs against.
package builtins

import (
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// InitialEnv builds the root environment every program evaluates against.
// apply lets higher-order built-ins (map, filter, reduce, sort-by, group-by,
// pluck, ...) call back into the evaluator to invoke closures and other
// builtins passed to them as arguments.
func InitialEnv(apply env.ApplyFunc) *env.Env {
	root := env.NewRoot()
	reg := &registrar{root: root, apply: apply}
	reg.registerArithmetic()
	reg.registerComparison()
	reg.registerPredicates()
	reg.registerCollections()
	reg.registerAggregations()
	reg.registerStrings()
	reg.registerSets()
	return root
}

type registrar struct {
	root  *env.Env
	apply env.ApplyFunc
}

func (r *registrar) def(b *env.Builtin) {
	r.root.Bind(b.Name, b)
}

func isCallable(v value.Value) bool {
	if v == nil {
		return false
	}
	return v.Tag() == value.TagClosure || v.Tag() == value.TagBuiltin
}

// genericGet resolves key against container honouring the "accepts a
// keyword, a string, or a function" key rule: keyword and
// string keys use the atom-before-string lookup precedence; integer keys
// index vectors; function keys are called with the container as their sole
// argument.
func genericGet(apply env.ApplyFunc, container, key value.Value) (value.Value, bool, error) {
	switch k := key.(type) {
	case *value.Keyword:
		if m, ok := container.(*value.Map); ok {
			v, found := m.GetKeyish(k.Name())
			return v, found, nil
		}
		return value.NilVal, false, nil
	case value.Str:
		if m, ok := container.(*value.Map); ok {
			v, found := m.GetKeyish(string(k))
			return v, found, nil
		}
		return value.NilVal, false, nil
	case value.Int:
		if vec, ok := container.(*value.Vector); ok {
			idx := int(k)
			if idx < 0 || idx >= len(vec.Items) {
				return value.NilVal, false, nil
			}
			return vec.Items[idx], true, nil
		}
		return value.NilVal, false, nil
	}
	if isCallable(key) && apply != nil {
		v, err := apply(key, []value.Value{container})
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return value.NilVal, false, nil
}

// keyFn turns a keyword/string/function key value into a row->value
// accessor, used by pluck/sort-by/group-by/sum-by/avg-by/min-by/max-by.
func keyFn(apply env.ApplyFunc, key value.Value) func(value.Value) (value.Value, error) {
	return func(row value.Value) (value.Value, error) {
		v, found, err := genericGet(apply, row, key)
		if err != nil {
			return nil, err
		}
		if !found {
			return value.NilVal, nil
		}
		return v, nil
	}
}

func toItems(v value.Value) []value.Value {
	items, ok := value.Sequence(v)
	if !ok {
		return nil
	}
	return items
}

func asVector(items []value.Value) *value.Vector {
	return value.NewVector(items...)
}
