package builtins

import (
	"math"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// numericError reports a type or arithmetic error from a builtin.
type numericError struct{ msg string }

func (e *numericError) Error() string { return "type_error: " + e.msg }

func errNotNumber(v value.Value) error {
	return &numericError{msg: "expected a number, got " + value.TypeName(v)}
}

func errDivByZero() error { return &numericError{msg: "division by zero"} }

func numericAdd(a, b value.Value) (value.Value, error) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		return ai + bi, nil
	}
	af, aok := value.AsFloat(a)
	bf, bok := value.AsFloat(b)
	if !aok || !bok {
		return nil, errNotNumber(a)
	}
	return value.Float(af + bf), nil
}

func numericSub(a, b value.Value) (value.Value, error) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		return ai - bi, nil
	}
	af, aok := value.AsFloat(a)
	bf, bok := value.AsFloat(b)
	if !aok || !bok {
		return nil, errNotNumber(a)
	}
	return value.Float(af - bf), nil
}

func numericMul(a, b value.Value) (value.Value, error) {
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		return ai * bi, nil
	}
	af, aok := value.AsFloat(a)
	bf, bok := value.AsFloat(b)
	if !aok || !bok {
		return nil, errNotNumber(a)
	}
	return value.Float(af * bf), nil
}

func numericDiv(a, b value.Value) (value.Value, error) {
	af, aok := value.AsFloat(a)
	bf, bok := value.AsFloat(b)
	if !aok || !bok {
		return nil, errNotNumber(a)
	}
	if bf == 0 {
		return nil, errDivByZero()
	}
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt && bi != 0 && ai%bi == 0 {
		return ai / bi, nil
	}
	return value.Float(af / bf), nil
}

func (r *registrar) registerArithmetic() {
	r.def(&env.Builtin{Name: "+", Kind: env.KindVariadic, Identity: value.Int(0), Call: func(args []value.Value) (value.Value, error) {
		var acc value.Value = value.Int(0)
		for _, a := range args {
			v, err := numericAdd(acc, a)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}})
	r.def(&env.Builtin{Name: "*", Kind: env.KindVariadic, Identity: value.Int(1), Call: func(args []value.Value) (value.Value, error) {
		var acc value.Value = value.Int(1)
		for _, a := range args {
			v, err := numericMul(acc, a)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}})
	r.def(&env.Builtin{Name: "-", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			return numericSub(value.Int(0), args[0])
		}
		acc := args[0]
		for _, a := range args[1:] {
			v, err := numericSub(acc, a)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}})
	r.def(&env.Builtin{Name: "/", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			return numericDiv(value.Int(1), args[0])
		}
		acc := args[0]
		for _, a := range args[1:] {
			v, err := numericDiv(acc, a)
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}})
	r.def(&env.Builtin{Name: "inc", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return numericAdd(args[0], value.Int(1))
	}})
	r.def(&env.Builtin{Name: "dec", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return numericSub(args[0], value.Int(1))
	}})
	r.def(&env.Builtin{Name: "abs", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		switch x := args[0].(type) {
		case value.Int:
			if x < 0 {
				return -x, nil
			}
			return x, nil
		case value.Float:
			return value.Float(math.Abs(float64(x))), nil
		}
		return nil, errNotNumber(args[0])
	}})
	r.def(&env.Builtin{Name: "max", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		best := args[0]
		for _, a := range args[1:] {
			c, err := value.Compare(a, best)
			if err != nil {
				return nil, err
			}
			if c > 0 {
				best = a
			}
		}
		return best, nil
	}})
	r.def(&env.Builtin{Name: "min", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		best := args[0]
		for _, a := range args[1:] {
			c, err := value.Compare(a, best)
			if err != nil {
				return nil, err
			}
			if c < 0 {
				best = a
			}
		}
		return best, nil
	}})
	r.def(&env.Builtin{Name: "quot", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		x, xok := args[0].(value.Int)
		y, yok := args[1].(value.Int)
		if !xok || !yok {
			af, _ := value.AsFloat(args[0])
			bf, _ := value.AsFloat(args[1])
			if bf == 0 {
				return nil, errDivByZero()
			}
			return value.Float(math.Trunc(af / bf)), nil
		}
		if y == 0 {
			return nil, errDivByZero()
		}
		return x / y, nil
	}})
	r.def(&env.Builtin{Name: "rem", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		x, xok := args[0].(value.Int)
		y, yok := args[1].(value.Int)
		if !xok || !yok {
			af, _ := value.AsFloat(args[0])
			bf, _ := value.AsFloat(args[1])
			if bf == 0 {
				return nil, errDivByZero()
			}
			return value.Float(math.Mod(af, bf)), nil
		}
		if y == 0 {
			return nil, errDivByZero()
		}
		return x % y, nil
	}})
	r.def(&env.Builtin{Name: "mod", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		x, xok := args[0].(value.Int)
		y, yok := args[1].(value.Int)
		if !xok || !yok {
			af, _ := value.AsFloat(args[0])
			bf, _ := value.AsFloat(args[1])
			if bf == 0 {
				return nil, errDivByZero()
			}
			m := math.Mod(af, bf)
			if m != 0 && (m < 0) != (bf < 0) {
				m += bf
			}
			return value.Float(m), nil
		}
		if y == 0 {
			return nil, errDivByZero()
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m, nil
	}})
}

func (r *registrar) registerComparison() {
	r.def(&env.Builtin{Name: "=", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		for i := 1; i < len(args); i++ {
			if !value.Equal(args[i-1], args[i]) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	}})
	r.def(&env.Builtin{Name: "!=", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		for i := 1; i < len(args); i++ {
			if !value.Equal(args[i-1], args[i]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}})
	chain := func(name string, ok func(c int) bool) *env.Builtin {
		return &env.Builtin{Name: name, Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
			for i := 1; i < len(args); i++ {
				c, err := value.Compare(args[i-1], args[i])
				if err != nil {
					return nil, err
				}
				if !ok(c) {
					return value.Bool(false), nil
				}
			}
			return value.Bool(true), nil
		}}
	}
	r.def(chain("<", func(c int) bool { return c < 0 }))
	r.def(chain(">", func(c int) bool { return c > 0 }))
	r.def(chain("<=", func(c int) bool { return c <= 0 }))
	r.def(chain(">=", func(c int) bool { return c >= 0 }))
	r.def(&env.Builtin{Name: "not", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Bool(!value.Truthy(args[0])), nil
	}})
}

func (r *registrar) registerPredicates() {
	typePred := func(name string, test func(value.Value) bool) *env.Builtin {
		return &env.Builtin{Name: name, Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
			return value.Bool(test(args[0])), nil
		}}
	}
	r.def(typePred("nil?", func(v value.Value) bool { _, ok := v.(value.Nil); return ok }))
	r.def(typePred("string?", func(v value.Value) bool { _, ok := v.(value.Str); return ok }))
	r.def(typePred("map?", func(v value.Value) bool { _, ok := v.(*value.Map); return ok }))
	r.def(typePred("vector?", func(v value.Value) bool { _, ok := v.(*value.Vector); return ok }))
	// The runtime value domain has no distinct list case; list? is kept
	// for name parity but never matches a runtime value.
	r.def(typePred("list?", func(v value.Value) bool { return false }))
	r.def(typePred("set?", func(v value.Value) bool { _, ok := v.(*value.Set); return ok }))
	r.def(typePred("number?", func(v value.Value) bool { return value.IsNumber(v) }))
	r.def(typePred("integer?", func(v value.Value) bool { _, ok := v.(value.Int); return ok }))
	r.def(typePred("float?", func(v value.Value) bool { _, ok := v.(value.Float); return ok }))
	r.def(typePred("boolean?", func(v value.Value) bool { _, ok := v.(value.Bool); return ok }))
	r.def(typePred("keyword?", func(v value.Value) bool { _, ok := v.(*value.Keyword); return ok }))
	r.def(typePred("fn?", func(v value.Value) bool { return isCallable(v) }))

	r.def(typePred("zero?", func(v value.Value) bool { f, ok := value.AsFloat(v); return ok && f == 0 }))
	r.def(typePred("pos?", func(v value.Value) bool { f, ok := value.AsFloat(v); return ok && f > 0 }))
	r.def(typePred("neg?", func(v value.Value) bool { f, ok := value.AsFloat(v); return ok && f < 0 }))
	r.def(typePred("even?", func(v value.Value) bool { i, ok := v.(value.Int); return ok && i%2 == 0 }))
	r.def(typePred("odd?", func(v value.Value) bool { i, ok := v.(value.Int); return ok && i%2 != 0 }))
}
