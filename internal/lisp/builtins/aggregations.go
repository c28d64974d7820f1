package builtins

import (
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// registerAggregations defines sum-by/avg-by/min-by/max-by/pluck, each
// accepting a keyword, string, or function key (keyFn honours
// atom-before-string precedence for keyword/string keys).
func (r *registrar) registerAggregations() {
	apply := r.apply

	r.def(&env.Builtin{Name: "sum-by", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		kf := keyFn(apply, args[0])
		var acc value.Value = value.Int(0)
		for _, it := range toItems(args[1]) {
			k, err := kf(it)
			if err != nil {
				return nil, err
			}
			v, err := numericAdd(acc, k)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}})
	r.def(&env.Builtin{Name: "avg-by", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		kf := keyFn(apply, args[0])
		items := toItems(args[1])
		if len(items) == 0 {
			return value.Int(0), nil
		}
		var acc value.Value = value.Int(0)
		for _, it := range items {
			k, err := kf(it)
			if err != nil {
				return nil, err
			}
			v, err := numericAdd(acc, k)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		sum, _ := value.AsFloat(acc)
		return value.Float(sum / float64(len(items))), nil
	}})
	extremeBy := func(name string, better func(c int) bool) *env.Builtin {
		return &env.Builtin{Name: name, Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
			kf := keyFn(apply, args[0])
			items := toItems(args[1])
			if len(items) == 0 {
				return value.NilVal, nil
			}
			best := items[0]
			bestKey, err := kf(best)
			if err != nil {
				return nil, err
			}
			for _, it := range items[1:] {
				k, err := kf(it)
				if err != nil {
					return nil, err
				}
				c, err := value.Compare(k, bestKey)
				if err != nil {
					return nil, err
				}
				if better(c) {
					best, bestKey = it, k
				}
			}
			return best, nil
		}}
	}
	r.def(extremeBy("min-by", func(c int) bool { return c < 0 }))
	r.def(extremeBy("max-by", func(c int) bool { return c > 0 }))
	r.def(&env.Builtin{Name: "pluck", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		kf := keyFn(apply, args[0])
		items := toItems(args[1])
		out := make([]value.Value, len(items))
		for i, it := range items {
			v, err := kf(it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return asVector(out), nil
	}})
}
