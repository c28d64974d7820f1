package eval

import (
	"strings"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/coreast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// fieldLookup walks a field path applying the atom-before-string key
// lookup rule at each keyword step.
func fieldLookup(row value.Value, path []coreast.FieldStep) (value.Value, bool) {
	cur := row
	for _, step := range path {
		switch {
		case step.Keyword != nil:
			m, ok := cur.(*value.Map)
			if !ok {
				return value.NilVal, false
			}
			v, found := m.GetKeyish(*step.Keyword)
			if !found {
				return value.NilVal, false
			}
			cur = v
		case step.Str != nil:
			m, ok := cur.(*value.Map)
			if !ok {
				return value.NilVal, false
			}
			v, found := m.Get(value.Str(*step.Str))
			if !found {
				return value.NilVal, false
			}
			cur = v
		case step.Index != nil:
			vec, ok := cur.(*value.Vector)
			if !ok {
				return value.NilVal, false
			}
			idx := int(*step.Index)
			if idx < 0 || idx >= len(vec.Items) {
				return value.NilVal, false
			}
			cur = vec.Items[idx]
		}
	}
	return cur, true
}

// evalWhere builds the row->bool predicate function. The rhs (if any) is
// evaluated once, eagerly, not per row.
func (ev *Evaluator) evalWhere(n coreast.Where, ctx, mem *value.Map, en *env.Env) (Result, error) {
	var rhsVal value.Value
	cur := mem
	if n.Rhs != nil {
		r, err := ev.Eval(n.Rhs, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		rhsVal = r.Val
		cur = r.Mem
	}

	path := n.FieldPath
	op := n.Op
	pred := &env.Builtin{
		Name:  "where-predicate",
		Kind:  env.KindNormal,
		Arity: 1,
		Call: func(args []value.Value) (value.Value, error) {
			row := args[0]
			fieldVal, found := fieldLookup(row, path)
			switch op {
			case coreast.WhereTruthy:
				return value.Bool(found && value.Truthy(fieldVal)), nil
			case coreast.WhereEq:
				if !found {
					// An absent field compares like an explicitly nil
					// one: field == nil is true, and field == x is
					// false for every non-nil x.
					_, rhsIsNil := rhsVal.(value.Nil)
					return value.Bool(rhsIsNil), nil
				}
				return value.Bool(value.Equal(fieldVal, rhsVal)), nil
			case coreast.WhereNeq:
				if !found {
					_, rhsIsNil := rhsVal.(value.Nil)
					return value.Bool(!rhsIsNil), nil
				}
				return value.Bool(!value.Equal(fieldVal, rhsVal)), nil
			case coreast.WhereGt, coreast.WhereLt, coreast.WhereGte, coreast.WhereLte:
				if !found {
					return value.Bool(false), nil
				}
				if _, ok := fieldVal.(value.Nil); ok {
					return value.Bool(false), nil
				}
				if _, ok := rhsVal.(value.Nil); ok {
					return value.Bool(false), nil
				}
				if !value.IsNumber(fieldVal) || !value.IsNumber(rhsVal) {
					return value.Bool(false), nil
				}
				c, err := value.Compare(fieldVal, rhsVal)
				if err != nil {
					return value.Bool(false), nil
				}
				switch op {
				case coreast.WhereGt:
					return value.Bool(c > 0), nil
				case coreast.WhereLt:
					return value.Bool(c < 0), nil
				case coreast.WhereGte:
					return value.Bool(c >= 0), nil
				default:
					return value.Bool(c <= 0), nil
				}
			case coreast.WhereIn:
				if !found {
					return value.Bool(false), nil
				}
				return value.Bool(membershipOf(rhsVal, fieldVal)), nil
			case coreast.WhereIncludes:
				if !found {
					return value.Bool(false), nil
				}
				return value.Bool(includesOf(fieldVal, rhsVal)), nil
			}
			return value.Bool(false), nil
		},
	}
	return normal(pred, cur), nil
}

func membershipOf(container, v value.Value) bool {
	switch c := container.(type) {
	case *value.Vector:
		for _, it := range c.Items {
			if value.Equal(it, v) {
				return true
			}
		}
	case *value.Set:
		return c.Contains(v)
	}
	return false
}

func includesOf(container, v value.Value) bool {
	switch c := container.(type) {
	case value.Str:
		s, ok := v.(value.Str)
		return ok && strings.Contains(string(c), string(s))
	case *value.Vector:
		for _, it := range c.Items {
			if value.Equal(it, v) {
				return true
			}
		}
	case *value.Set:
		return c.Contains(v)
	}
	return false
}

// evalCombinator lowers all-of/any-of/none-of: empty (all-of) and
// (none-of) accept everything, empty (any-of) accepts nothing.
func (ev *Evaluator) evalCombinator(n coreast.PredCombinator, ctx, mem *value.Map, en *env.Env) (Result, error) {
	preds := make([]value.Value, len(n.Preds))
	cur := mem
	for i, p := range n.Preds {
		r, err := ev.Eval(p, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		preds[i] = r.Val
		cur = r.Mem
	}
	kind := n.Kind
	combined := &env.Builtin{
		Name:  string(kind),
		Kind:  env.KindNormal,
		Arity: 1,
		Call: func(args []value.Value) (value.Value, error) {
			row := args[0]
			switch kind {
			case coreast.CombinatorAllOf:
				for _, p := range preds {
					ok, err := callPred(ev, p, row)
					if err != nil {
						return nil, err
					}
					if !ok {
						return value.Bool(false), nil
					}
				}
				return value.Bool(true), nil
			case coreast.CombinatorAnyOf:
				for _, p := range preds {
					ok, err := callPred(ev, p, row)
					if err != nil {
						return nil, err
					}
					if ok {
						return value.Bool(true), nil
					}
				}
				return value.Bool(false), nil
			case coreast.CombinatorNoneOf:
				for _, p := range preds {
					ok, err := callPred(ev, p, row)
					if err != nil {
						return nil, err
					}
					if ok {
						return value.Bool(false), nil
					}
				}
				return value.Bool(true), nil
			}
			return value.Bool(false), nil
		},
	}
	return normal(combined, cur), nil
}

func callPred(ev *Evaluator, pred value.Value, row value.Value) (bool, error) {
	v, err := ev.apply(pred, []value.Value{row})
	if err != nil {
		return false, err
	}
	return value.Truthy(v), nil
}
