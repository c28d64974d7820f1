package builtins

import (
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func (r *registrar) registerSets() {
	r.def(&env.Builtin{Name: "set", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.NewSet(toItems(args[0])...), nil
	}})
	r.def(&env.Builtin{Name: "union", Kind: env.KindVariadic, Identity: value.NewSet(), Call: func(args []value.Value) (value.Value, error) {
		out := value.NewSet()
		for _, a := range args {
			s, ok := a.(*value.Set)
			if !ok {
				return nil, &numericError{msg: "union requires sets"}
			}
			for _, it := range s.Items() {
				out.Add(it)
			}
		}
		return out, nil
	}})
	r.def(&env.Builtin{Name: "intersection", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		first, ok := args[0].(*value.Set)
		if !ok {
			return nil, &numericError{msg: "intersection requires sets"}
		}
		rest := make([]*value.Set, 0, len(args)-1)
		for _, a := range args[1:] {
			s, ok := a.(*value.Set)
			if !ok {
				return nil, &numericError{msg: "intersection requires sets"}
			}
			rest = append(rest, s)
		}
		out := value.NewSet()
		for _, it := range first.Items() {
			inAll := true
			for _, s := range rest {
				if !s.Contains(it) {
					inAll = false
					break
				}
			}
			if inAll {
				out.Add(it)
			}
		}
		return out, nil
	}})
	r.def(&env.Builtin{Name: "difference", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		first, ok := args[0].(*value.Set)
		if !ok {
			return nil, &numericError{msg: "difference requires sets"}
		}
		out := value.NewSet(first.Items()...)
		for _, a := range args[1:] {
			s, ok := a.(*value.Set)
			if !ok {
				return nil, &numericError{msg: "difference requires sets"}
			}
			for _, it := range s.Items() {
				if out.Contains(it) {
					// Set has no Remove; rebuild without it.
					kept := make([]value.Value, 0, out.Len())
					for _, x := range out.Items() {
						if !value.Equal(x, it) {
							kept = append(kept, x)
						}
					}
					out = value.NewSet(kept...)
				}
			}
		}
		return out, nil
	}})
}
