package builtins

import (
	"sort"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func collCount(v value.Value) int {
	switch x := v.(type) {
	case *value.Vector:
		return len(x.Items)
	case *value.Set:
		return x.Len()
	case *value.Map:
		return x.Len()
	case value.Str:
		return len([]rune(string(x)))
	case value.Nil:
		return 0
	}
	return 0
}

func (r *registrar) registerCollections() {
	apply := r.apply

	r.def(&env.Builtin{Name: "count", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Int(collCount(args[0])), nil
	}})
	r.def(&env.Builtin{Name: "empty?", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		return value.Bool(collCount(args[0]) == 0), nil
	}})
	r.def(&env.Builtin{Name: "not-empty", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		if collCount(args[0]) == 0 {
			return value.NilVal, nil
		}
		return args[0], nil
	}})

	r.def(&env.Builtin{Name: "first", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) == 0 {
			return value.NilVal, nil
		}
		return items[0], nil
	}})
	r.def(&env.Builtin{Name: "second", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) < 2 {
			return value.NilVal, nil
		}
		return items[1], nil
	}})
	r.def(&env.Builtin{Name: "last", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) == 0 {
			return value.NilVal, nil
		}
		return items[len(items)-1], nil
	}})
	r.def(&env.Builtin{Name: "rest", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) <= 1 {
			return asVector(nil), nil
		}
		return asVector(items[1:]), nil
	}})
	r.def(&env.Builtin{Name: "next", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) <= 1 {
			return value.NilVal, nil
		}
		return asVector(items[1:]), nil
	}})
	r.def(&env.Builtin{Name: "nth", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			items := toItems(args[0])
			idx, ok := args[1].(value.Int)
			if !ok || int(idx) < 0 || int(idx) >= len(items) {
				return nil, &numericError{msg: "nth: index out of bounds"}
			}
			return items[idx], nil
		},
		3: func(args []value.Value) (value.Value, error) {
			items := toItems(args[0])
			idx, ok := args[1].(value.Int)
			if !ok || int(idx) < 0 || int(idx) >= len(items) {
				return args[2], nil
			}
			return items[idx], nil
		},
	}})
	r.def(&env.Builtin{Name: "take", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		n := intArg(args[0])
		items := toItems(args[1])
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return asVector(append([]value.Value(nil), items[:n]...)), nil
	}})
	r.def(&env.Builtin{Name: "drop", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		n := intArg(args[0])
		items := toItems(args[1])
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return asVector(append([]value.Value(nil), items[n:]...)), nil
	}})
	r.def(&env.Builtin{Name: "take-last", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		n := intArg(args[0])
		items := toItems(args[1])
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return asVector(append([]value.Value(nil), items[len(items)-n:]...)), nil
	}})
	r.def(&env.Builtin{Name: "drop-last", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		n := intArg(args[0])
		items := toItems(args[1])
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return asVector(append([]value.Value(nil), items[:len(items)-n]...)), nil
	}})
	r.def(&env.Builtin{Name: "butlast", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		if len(items) == 0 {
			return asVector(nil), nil
		}
		return asVector(append([]value.Value(nil), items[:len(items)-1]...)), nil
	}})
	r.def(&env.Builtin{Name: "take-while", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[1])
		var out []value.Value
		for _, it := range items {
			ok, err := callTruthy(apply, args[0], it)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			out = append(out, it)
		}
		return asVector(out), nil
	}})
	r.def(&env.Builtin{Name: "drop-while", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[1])
		i := 0
		for ; i < len(items); i++ {
			ok, err := callTruthy(apply, args[0], items[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
		}
		return asVector(append([]value.Value(nil), items[i:]...)), nil
	}})
	r.def(&env.Builtin{Name: "distinct", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		var out []value.Value
		for _, it := range items {
			dup := false
			for _, seen := range out {
				if value.Equal(seen, it) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, it)
			}
		}
		return asVector(out), nil
	}})
	r.def(&env.Builtin{Name: "reverse", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[0])
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return asVector(out), nil
	}})
	r.def(&env.Builtin{Name: "sort", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		items := append([]value.Value(nil), toItems(args[0])...)
		sort.SliceStable(items, func(i, j int) bool {
			c, err := value.Compare(items[i], items[j])
			if err != nil {
				return items[i].String() < items[j].String()
			}
			return c < 0
		})
		return asVector(items), nil
	}})
	r.def(&env.Builtin{Name: "sort-by", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			kf := keyFn(apply, args[0])
			items := append([]value.Value(nil), toItems(args[1])...)
			var sortErr error
			sort.SliceStable(items, func(i, j int) bool {
				ki, err := kf(items[i])
				if err != nil {
					sortErr = err
					return false
				}
				kj, err := kf(items[j])
				if err != nil {
					sortErr = err
					return false
				}
				c, err := value.Compare(ki, kj)
				if err != nil {
					return ki.String() < kj.String()
				}
				return c < 0
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return asVector(items), nil
		},
		3: func(args []value.Value) (value.Value, error) {
			kf := keyFn(apply, args[0])
			cmp := args[1]
			items := append([]value.Value(nil), toItems(args[2])...)
			var sortErr error
			sort.SliceStable(items, func(i, j int) bool {
				ki, err := kf(items[i])
				if err != nil {
					sortErr = err
					return false
				}
				kj, err := kf(items[j])
				if err != nil {
					sortErr = err
					return false
				}
				v, err := apply(cmp, []value.Value{ki, kj})
				if err != nil {
					sortErr = err
					return false
				}
				// A comparator may be boolean (>, <) or three-way (ints).
				switch n := v.(type) {
				case value.Bool:
					return bool(n)
				case value.Int:
					return n < 0
				}
				return false
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return asVector(items), nil
		},
	}})
	r.def(&env.Builtin{Name: "filter", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[1])
		var out []value.Value
		for _, it := range items {
			ok, err := callTruthy(apply, args[0], it)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, it)
			}
		}
		return asVector(out), nil
	}})
	r.def(&env.Builtin{Name: "remove", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		items := toItems(args[1])
		var out []value.Value
		for _, it := range items {
			ok, err := callTruthy(apply, args[0], it)
			if err != nil {
				return nil, err
			}
			if !ok {
				out = append(out, it)
			}
		}
		return asVector(out), nil
	}})
	mapFn := &env.Builtin{Name: "map", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, &env.ArityError{Name: "map", Expected: "at least 2", Got: len(args)}
		}
		fn := args[0]
		colls := make([][]value.Value, len(args)-1)
		minLen := -1
		for i, c := range args[1:] {
			colls[i] = toItems(c)
			if minLen == -1 || len(colls[i]) < minLen {
				minLen = len(colls[i])
			}
		}
		out := make([]value.Value, 0, minLen)
		for i := 0; i < minLen; i++ {
			callArgs := make([]value.Value, len(colls))
			for j := range colls {
				callArgs[j] = colls[j][i]
			}
			v, err := apply(fn, callArgs)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return asVector(out), nil
	}}
	r.def(mapFn)
	r.root.Bind("mapv", mapFn)
	r.def(&env.Builtin{Name: "reduce", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			items := toItems(args[1])
			if len(items) == 0 {
				return value.NilVal, nil
			}
			acc := items[0]
			for _, it := range items[1:] {
				v, err := apply(args[0], []value.Value{acc, it})
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		},
		3: func(args []value.Value) (value.Value, error) {
			acc := args[1]
			for _, it := range toItems(args[2]) {
				v, err := apply(args[0], []value.Value{acc, it})
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		},
	}})
	r.def(&env.Builtin{Name: "group-by", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		kf := keyFn(apply, args[0])
		groups := value.NewMap()
		for _, it := range toItems(args[1]) {
			k, err := kf(it)
			if err != nil {
				return nil, err
			}
			existing, found := groups.Get(k)
			if !found {
				existing = asVector(nil)
			}
			items := append(toItems(existing), it)
			groups = groups.Assoc(k, asVector(items))
		}
		return groups, nil
	}})
	r.def(&env.Builtin{Name: "frequencies", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		out := value.NewMap()
		for _, it := range toItems(args[0]) {
			if v, found := out.Get(it); found {
				cnt, _ := v.(value.Int)
				out = out.Assoc(it, cnt+1)
			} else {
				out = out.Assoc(it, value.Int(1))
			}
		}
		return out, nil
	}})
	r.def(&env.Builtin{Name: "range", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		1: func(args []value.Value) (value.Value, error) {
			n := intArg(args[0])
			return rangeVec(0, n, 1), nil
		},
		2: func(args []value.Value) (value.Value, error) {
			return rangeVec(intArg(args[0]), intArg(args[1]), 1), nil
		},
		3: func(args []value.Value) (value.Value, error) {
			return rangeVec(intArg(args[0]), intArg(args[1]), intArg(args[2])), nil
		},
	}})
	r.def(&env.Builtin{Name: "into", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		switch to := args[0].(type) {
		case *value.Map:
			out := to
			switch from := args[1].(type) {
			case *value.Map:
				out = out.Merge(from)
			default:
				for _, it := range toItems(args[1]) {
					pair := toItems(it)
					if len(pair) != 2 {
						return nil, &numericError{msg: "into expects [k v] pairs"}
					}
					out = out.Assoc(pair[0], pair[1])
				}
			}
			return out, nil
		case *value.Set:
			out := value.NewSet(to.Items()...)
			for _, it := range toItems(args[1]) {
				out.Add(it)
			}
			return out, nil
		case *value.Vector:
			out := append([]value.Value(nil), to.Items...)
			out = append(out, toItems(args[1])...)
			return asVector(out), nil
		}
		return nil, &numericError{msg: "into requires a map, set, or vector target"}
	}})
	r.def(&env.Builtin{Name: "contains?", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		switch c := args[0].(type) {
		case *value.Map:
			_, found, err := genericGet(apply, c, args[1])
			if err != nil {
				return nil, err
			}
			return value.Bool(found), nil
		case *value.Set:
			return value.Bool(c.Contains(args[1])), nil
		case *value.Vector:
			idx, ok := args[1].(value.Int)
			return value.Bool(ok && int(idx) >= 0 && int(idx) < len(c.Items)), nil
		}
		return value.Bool(false), nil
	}})
	r.def(&env.Builtin{Name: "get", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			v, found, err := genericGet(apply, args[0], args[1])
			if err != nil {
				return nil, err
			}
			if !found {
				return value.NilVal, nil
			}
			return v, nil
		},
		3: func(args []value.Value) (value.Value, error) {
			v, found, err := genericGet(apply, args[0], args[1])
			if err != nil {
				return nil, err
			}
			if !found {
				return args[2], nil
			}
			return v, nil
		},
	}})
	r.def(&env.Builtin{Name: "get-in", Kind: env.KindMultiArity, Arities: map[int]env.Fn{
		2: func(args []value.Value) (value.Value, error) {
			v, found, err := getInPath(apply, args[0], toItems(args[1]))
			if err != nil {
				return nil, err
			}
			if !found {
				return value.NilVal, nil
			}
			return v, nil
		},
		3: func(args []value.Value) (value.Value, error) {
			v, found, err := getInPath(apply, args[0], toItems(args[1]))
			if err != nil {
				return nil, err
			}
			if !found {
				return args[2], nil
			}
			return v, nil
		},
	}})
	r.def(&env.Builtin{Name: "assoc", Kind: env.KindVariadicNonempty, Call: func(args []value.Value) (value.Value, error) {
		if len(args) < 3 || (len(args)-1)%2 != 0 {
			return nil, &env.ArityError{Name: "assoc", Expected: "odd count >= 3", Got: len(args)}
		}
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "assoc requires a map"}
		}
		for i := 1; i < len(args); i += 2 {
			m = m.Assoc(args[i], args[i+1])
		}
		return m, nil
	}})
	r.def(&env.Builtin{Name: "assoc-in", Kind: env.KindNormal, Arity: 3, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "assoc-in requires a map"}
		}
		return assocInPath(m, toItems(args[1]), args[2]), nil
	}})
	r.def(&env.Builtin{Name: "update", Kind: env.KindNormal, Arity: 3, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "update requires a map"}
		}
		cur, found, err := genericGet(apply, m, args[1])
		if err != nil {
			return nil, err
		}
		if !found {
			cur = value.NilVal
		}
		nv, err := apply(args[2], []value.Value{cur})
		if err != nil {
			return nil, err
		}
		return m.Assoc(args[1], nv), nil
	}})
	r.def(&env.Builtin{Name: "update-in", Kind: env.KindNormal, Arity: 3, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "update-in requires a map"}
		}
		path := toItems(args[1])
		cur, found, err := getInPath(apply, m, path)
		if err != nil {
			return nil, err
		}
		if !found {
			cur = value.NilVal
		}
		nv, err := apply(args[2], []value.Value{cur})
		if err != nil {
			return nil, err
		}
		return assocInPath(m, path, nv), nil
	}})
	r.def(&env.Builtin{Name: "update-vals", Kind: env.KindNormal, Arity: 2, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "update-vals requires a map"}
		}
		out := value.NewMap()
		for _, e := range m.Entries() {
			nv, err := apply(args[1], []value.Value{e.Val})
			if err != nil {
				return nil, err
			}
			out = out.Assoc(e.Key, nv)
		}
		return out, nil
	}})
	r.def(&env.Builtin{Name: "merge", Kind: env.KindVariadic, Identity: value.NewMap(), Call: func(args []value.Value) (value.Value, error) {
		out := value.NewMap()
		for _, a := range args {
			m, ok := a.(*value.Map)
			if !ok {
				return nil, &numericError{msg: "merge requires maps"}
			}
			out = out.Merge(m)
		}
		return out, nil
	}})
	r.def(&env.Builtin{Name: "keys", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "keys requires a map"}
		}
		return asVector(m.Keys()), nil
	}})
	r.def(&env.Builtin{Name: "vals", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "vals requires a map"}
		}
		return asVector(m.Vals()), nil
	}})
	r.def(&env.Builtin{Name: "entries", Kind: env.KindNormal, Arity: 1, Call: func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, &numericError{msg: "entries requires a map"}
		}
		out := make([]value.Value, len(m.Entries()))
		for i, e := range m.Entries() {
			out[i] = asVector([]value.Value{e.Key, e.Val})
		}
		return asVector(out), nil
	}})
}

func intArg(v value.Value) int {
	if i, ok := v.(value.Int); ok {
		return int(i)
	}
	f, _ := value.AsFloat(v)
	return int(f)
}

func callTruthy(apply env.ApplyFunc, fn value.Value, arg value.Value) (bool, error) {
	v, err := apply(fn, []value.Value{arg})
	if err != nil {
		return false, err
	}
	return value.Truthy(v), nil
}

func rangeVec(start, end, step int) *value.Vector {
	var out []value.Value
	if step == 0 {
		return asVector(nil)
	}
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, value.Int(i))
		}
	}
	return asVector(out)
}

func getInPath(apply env.ApplyFunc, container value.Value, path []value.Value) (value.Value, bool, error) {
	cur := container
	for _, k := range path {
		v, found, err := genericGet(apply, cur, k)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return value.NilVal, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

func assocInPath(m *value.Map, path []value.Value, v value.Value) *value.Map {
	if len(path) == 0 {
		return m
	}
	if len(path) == 1 {
		return m.Assoc(path[0], v)
	}
	childVal, found := m.Get(path[0])
	child, ok := childVal.(*value.Map)
	if !found || !ok {
		child = value.NewMap()
	}
	return m.Assoc(path[0], assocInPath(child, path[1:], v))
}
