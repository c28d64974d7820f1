package builtins

import (
	"strconv"
	"strings"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func strArg(v value.Value) string {
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.String()
}

func (r *registrar) registerStrings() {
	r.def(&env.Builtin{Name: "str", Kind: env.KindVariadic, Identity: value.Str(""), Call: func(args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(strArg(a))
		}
		return value.Str(b.String()), nil
	}})
	r.def(&env.Builtin{Name: "subs", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			s := []rune(strArg(args[0]))
			start := intArg(args[1])
			if start < 0 || start > len(s) {
				return nil, &numericError{msg: "subs: index out of bounds"}
			}
			return value.Str(string(s[start:])), nil
		},
		3: func(args []value.Value) (value.Value, error) {
			s := []rune(strArg(args[0]))
			start, end := intArg(args[1]), intArg(args[2])
			if start < 0 || end > len(s) || start > end {
				return nil, &numericError{msg: "subs: index out of bounds"}
			}
			return value.Str(string(s[start:end])), nil
		},
	}})
	r.def(&env.Builtin{Name: "join", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		1: func(args []value.Value) (value.Value, error) {
			items := toItems(args[0])
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = strArg(it)
			}
			return value.Str(strings.Join(parts, "")), nil
		},
		2: func(args []value.Value) (value.Value, error) {
			sep := strArg(args[0])
			items := toItems(args[1])
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = strArg(it)
			}
			return value.Str(strings.Join(parts, sep)), nil
		},
	}})
	r.def(&env.Builtin{Name: "split", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		parts := strings.Split(strArg(args[0]), strArg(args[1]))
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return asVector(out), nil
	}})
	r.def(&env.Builtin{Name: "trim", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimSpace(strArg(args[0]))), nil
	}})
	r.def(&env.Builtin{Name: "replace", Kind: env.KindNormal, Arity: 3, Call: func(args []value.Value) (value.Value, error) {
		return value.Str(strings.ReplaceAll(strArg(args[0]), strArg(args[1]), strArg(args[2]))), nil
	}})
	r.def(&env.Builtin{Name: "upcase", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Str(strings.ToUpper(strArg(args[0]))), nil
	}})
	r.def(&env.Builtin{Name: "downcase", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Str(strings.ToLower(strArg(args[0]))), nil
	}})
	r.def(&env.Builtin{Name: "starts-with?", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasPrefix(strArg(args[0]), strArg(args[1]))), nil
	}})
	r.def(&env.Builtin{Name: "ends-with?", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasSuffix(strArg(args[0]), strArg(args[1]))), nil
	}})
	r.def(&env.Builtin{Name: "includes?", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		if s, ok := args[0].(value.Str); ok {
			sub, ok := args[1].(value.Str)
			return value.Bool(ok && strings.Contains(string(s), string(sub))), nil
		}
		items := toItems(args[0])
		for _, it := range items {
			if value.Equal(it, args[1]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}})
	r.def(&env.Builtin{Name: "parse-long", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(strArg(args[0])), 10, 64)
		if err != nil {
			return nil, &numericError{msg: "parse-long: invalid integer " + strArg(args[0])}
		}
		return value.Int(n), nil
	}})
	r.def(&env.Builtin{Name: "parse-double", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(strArg(args[0])), 64)
		if err != nil {
			return nil, &numericError{msg: "parse-double: invalid float " + strArg(args[0])}
		}
		return value.Float(f), nil
	}})
}
