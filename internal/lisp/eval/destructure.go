package eval

import (
	"strings"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/coreast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

func printString(v value.Value) string {
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.String()
}

func joinSpace(parts []string) string {
	return strings.Join(parts, " ")
}

// bindPattern binds pattern against v in target, evaluating any :or
// defaults in the context of target as it accumulates. curMem is updated
// in place to thread memory through default-expression evaluation.
func bindPattern(pattern coreast.Pattern, v value.Value, target *env.Env, ev *Evaluator, ctx *value.Map, curMem **value.Map) error {
	switch p := pattern.(type) {
	case coreast.VarPattern:
		target.Bind(p.Name, v)
		return nil
	case coreast.SeqPattern:
		items, ok := value.Sequence(v)
		if !ok {
			return errDestructure("cannot positionally destructure a non-sequential value")
		}
		for i, elemPat := range p.Elems {
			var elemVal value.Value = value.NilVal
			if i < len(items) {
				elemVal = items[i]
			} else if len(p.Elems) > len(items) {
				return errDestructure("not enough elements to destructure")
			}
			if err := bindPattern(elemPat, elemVal, target, ev, ctx, curMem); err != nil {
				return err
			}
		}
		return nil
	case coreast.KeysPattern:
		m, ok := v.(*value.Map)
		if !ok {
			return errDestructure(":keys destructuring requires a map value")
		}
		for _, name := range p.Names {
			if err := bindKeyOrDefault(name, name, m, p.Defaults, target, ev, ctx, curMem); err != nil {
				return err
			}
		}
		return nil
	case coreast.MapPattern:
		m, ok := v.(*value.Map)
		if !ok {
			return errDestructure("map destructuring requires a map value")
		}
		for _, name := range p.Keys {
			if err := bindKeyOrDefault(name, name, m, p.Defaults, target, ev, ctx, curMem); err != nil {
				return err
			}
		}
		for local, kw := range p.Renames {
			if err := bindKeyOrDefault(local, kw, m, p.Defaults, target, ev, ctx, curMem); err != nil {
				return err
			}
		}
		return nil
	case coreast.AsPattern:
		target.Bind(p.Alias, v)
		return bindPattern(p.Inner, v, target, ev, ctx, curMem)
	}
	return errDestructure("unsupported destructuring pattern")
}

func bindKeyOrDefault(localName, keyName string, m *value.Map, defaults map[string]coreast.Node, target *env.Env, ev *Evaluator, ctx *value.Map, curMem **value.Map) error {
	if val, found := m.GetKeyish(keyName); found {
		target.Bind(localName, val)
		return nil
	}
	if defExpr, ok := defaults[localName]; ok {
		r, err := ev.Eval(defExpr, ctx, *curMem, target)
		if err != nil {
			return err
		}
		*curMem = r.Mem
		target.Bind(localName, r.Val)
		return nil
	}
	target.Bind(localName, value.NilVal)
	return nil
}
