// Package analyzer turns the raw AST into the core AST consumed by the
// evaluator: symbol resolution, special-form desugaring, arity validation,
// and destructuring lowering.
package analyzer

import (
	"fmt"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/coreast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/rawast"
)

// AnalysisError is the analyzer's error type.
type AnalysisError struct {
	Kind    string // invalid_form | invalid_arity | invalid_where_form
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func invalidForm(msg string) error     { return &AnalysisError{Kind: "invalid_form", Message: msg} }
func invalidArity(msg string) error    { return &AnalysisError{Kind: "invalid_arity", Message: msg} }
func invalidWhereForm(msg string) error {
	return &AnalysisError{Kind: "invalid_where_form", Message: msg}
}

// comparisonArity2 lists operators that are strictly 2-ary in call position.
var comparisonArity2 = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "=": true, "!=": true,
}

// AnalyzeProgram analyzes a full top-level program (possibly several
// forms, treated as an implicit `do`).
func AnalyzeProgram(forms []rawast.Node) (coreast.Node, error) {
	if len(forms) == 0 {
		return coreast.NilLit{}, nil
	}
	if len(forms) == 1 {
		return Analyze(forms[0])
	}
	nodes := make([]coreast.Node, len(forms))
	for i, f := range forms {
		n, err := Analyze(f)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return coreast.Do{Exprs: nodes}, nil
}

// Analyze analyzes a single raw AST form into a core AST node.
func Analyze(n rawast.Node) (coreast.Node, error) {
	switch x := n.(type) {
	case *rawast.NilLit:
		return coreast.NilLit{}, nil
	case *rawast.BoolLit:
		return coreast.BoolLit{Val: x.Val}, nil
	case *rawast.IntLit:
		return coreast.IntLit{Val: x.Val}, nil
	case *rawast.FloatLit:
		return coreast.FloatLit{Val: x.Val}, nil
	case *rawast.StringLit:
		return coreast.StringLit{Val: x.Val}, nil
	case *rawast.KeywordLit:
		return coreast.KeywordLit{Val: x.Name}, nil
	case *rawast.Symbol:
		return coreast.VarRef{Name: x.Name}, nil
	case *rawast.NamespacedSymbol:
		switch x.Ns {
		case "ctx":
			return coreast.CtxRef{Name: x.Name}, nil
		case "memory":
			return coreast.MemoryRef{Name: x.Name}, nil
		case "data":
			// Read-only input namespace; backed by the same read-only
			// context map as ctx/.
			return coreast.CtxRef{Name: x.Name}, nil
		default:
			// tool/name used bare (not inside `call`) is sugar for a
			// tool invocation with no declared args; `(tool/x {...})`
			// is handled in analyzeList below as a Call whose callee is
			// this same node.
			return coreast.CallTool{Name: x.Name, Args: coreast.MapNode{}}, nil
		}
	case *rawast.Vector:
		items := make([]coreast.Node, len(x.Items))
		for i, it := range x.Items {
			an, err := Analyze(it)
			if err != nil {
				return nil, err
			}
			items[i] = an
		}
		return coreast.VectorNode{Items: items}, nil
	case *rawast.SetLit:
		items := make([]coreast.Node, len(x.Items))
		for i, it := range x.Items {
			an, err := Analyze(it)
			if err != nil {
				return nil, err
			}
			items[i] = an
		}
		return coreast.SetNode{Items: items}, nil
	case *rawast.MapLit:
		var pairs []coreast.MapPair
		for i := 0; i < len(x.Pairs); i += 2 {
			k, err := Analyze(x.Pairs[i])
			if err != nil {
				return nil, err
			}
			v, err := Analyze(x.Pairs[i+1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, coreast.MapPair{Key: k, Val: v})
		}
		return coreast.MapNode{Pairs: pairs}, nil
	case *rawast.List:
		return analyzeList(x)
	}
	return nil, invalidForm(fmt.Sprintf("unrecognized raw AST node %T", n))
}

func analyzeList(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) == 0 {
		// `()` has no special meaning in PTC-Lisp; treat as an empty
		// vector-like no-op value: nil.
		return coreast.NilLit{}, nil
	}

	if sym, ok := l.Items[0].(*rawast.Symbol); ok {
		switch sym.Name {
		case "if":
			return analyzeIf(l)
		case "when":
			return analyzeWhen(l)
		case "cond":
			return analyzeCond(l)
		case "->":
			return analyzeThread(l, false)
		case "->>":
			return analyzeThread(l, true)
		case "and":
			return analyzeAnd(l)
		case "or":
			return analyzeOr(l)
		case "let":
			return analyzeLet(l)
		case "fn":
			return analyzeFn(l)
		case "do":
			return analyzeDo(l)
		case "where":
			return analyzeWhere(l)
		case "all-of":
			return analyzeCombinator(l, coreast.CombinatorAllOf)
		case "any-of":
			return analyzeCombinator(l, coreast.CombinatorAnyOf)
		case "none-of":
			return analyzeCombinator(l, coreast.CombinatorNoneOf)
		case "call":
			return analyzeCallTool(l)
		}
	}

	// Ordinary call: (callee args...)
	callee, err := Analyze(l.Items[0])
	if err != nil {
		return nil, err
	}
	args := make([]coreast.Node, len(l.Items)-1)
	for i, a := range l.Items[1:] {
		an, err := Analyze(a)
		if err != nil {
			return nil, err
		}
		args[i] = an
	}
	if name, ok := callee.(coreast.VarRef); ok && comparisonArity2[name.Name] {
		if len(args) != 2 {
			return nil, invalidArity(fmt.Sprintf("%s requires exactly 2 arguments, got %d", name.Name, len(args)))
		}
	}
	if ct, ok := callee.(coreast.CallTool); ok {
		// (tool/name args-map) sugar.
		if len(args) != 1 {
			return nil, invalidForm("tool/" + ct.Name + " call must take exactly one args map")
		}
		return coreast.CallTool{Name: ct.Name, Args: args[0]}, nil
	}
	return coreast.Call{Callee: callee, Args: args}, nil
}

func analyzeIf(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) != 4 {
		return nil, invalidArity(fmt.Sprintf("if requires exactly 3 arguments, got %d", len(l.Items)-1))
	}
	cond, err := Analyze(l.Items[1])
	if err != nil {
		return nil, err
	}
	then, err := Analyze(l.Items[2])
	if err != nil {
		return nil, err
	}
	els, err := Analyze(l.Items[3])
	if err != nil {
		return nil, err
	}
	return coreast.If{Cond: cond, Then: then, Else: els}, nil
}

func analyzeWhen(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) < 3 {
		return nil, invalidArity("when requires a condition and at least one body expression")
	}
	cond, err := Analyze(l.Items[1])
	if err != nil {
		return nil, err
	}
	body, err := analyzeBody(l.Items[2:])
	if err != nil {
		return nil, err
	}
	return coreast.If{Cond: cond, Then: body, Else: coreast.NilLit{}}, nil
}

func analyzeCond(l *rawast.List) (coreast.Node, error) {
	rest := l.Items[1:]
	if len(rest)%2 != 0 {
		return nil, invalidForm("cond requires an even number of test/expr forms")
	}
	if len(rest) == 0 {
		return coreast.NilLit{}, nil
	}
	return buildCond(rest)
}

func buildCond(pairs []rawast.Node) (coreast.Node, error) {
	if len(pairs) == 0 {
		return coreast.NilLit{}, nil
	}
	testForm, bodyForm := pairs[0], pairs[1]
	if kw, ok := testForm.(*rawast.KeywordLit); ok && kw.Name == "else" {
		return Analyze(bodyForm)
	}
	test, err := Analyze(testForm)
	if err != nil {
		return nil, err
	}
	body, err := Analyze(bodyForm)
	if err != nil {
		return nil, err
	}
	rest, err := buildCond(pairs[2:])
	if err != nil {
		return nil, err
	}
	return coreast.If{Cond: test, Then: body, Else: rest}, nil
}

// analyzeThread implements -> (insert as first arg) and ->> (insert as
// last arg).
func analyzeThread(l *rawast.List, last bool) (coreast.Node, error) {
	if len(l.Items) < 2 {
		return nil, invalidArity("-> / ->> requires an initial value")
	}
	cur := l.Items[1]
	for _, stage := range l.Items[2:] {
		cur = insertThreaded(cur, stage, last)
	}
	return Analyze(cur)
}

func insertThreaded(value rawast.Node, stage rawast.Node, last bool) rawast.Node {
	switch s := stage.(type) {
	case *rawast.List:
		items := append([]rawast.Node{}, s.Items...)
		if last {
			items = append(items, value)
		} else {
			items = append(items[:1:1], append([]rawast.Node{value}, items[1:]...)...)
		}
		return &rawast.List{Position: s.Position, Items: items}
	default:
		// Bare symbol stage: (f x) with no extra args.
		return &rawast.List{Items: []rawast.Node{stage, value}}
	}
}

func analyzeAnd(l *rawast.List) (coreast.Node, error) {
	exprs, err := analyzeAll(l.Items[1:])
	if err != nil {
		return nil, err
	}
	return coreast.And{Exprs: exprs}, nil
}

func analyzeOr(l *rawast.List) (coreast.Node, error) {
	exprs, err := analyzeAll(l.Items[1:])
	if err != nil {
		return nil, err
	}
	return coreast.Or{Exprs: exprs}, nil
}

func analyzeAll(forms []rawast.Node) ([]coreast.Node, error) {
	out := make([]coreast.Node, len(forms))
	for i, f := range forms {
		n, err := Analyze(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func analyzeBody(forms []rawast.Node) (coreast.Node, error) {
	if len(forms) == 1 {
		return Analyze(forms[0])
	}
	nodes, err := analyzeAll(forms)
	if err != nil {
		return nil, err
	}
	return coreast.Do{Exprs: nodes}, nil
}

func analyzeDo(l *rawast.List) (coreast.Node, error) {
	return analyzeBody(l.Items[1:])
}

func analyzeLet(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) < 3 {
		return nil, invalidArity("let requires a binding vector and at least one body expression")
	}
	bindVec, ok := l.Items[1].(*rawast.Vector)
	if !ok {
		return nil, invalidForm("let requires a vector of bindings")
	}
	if len(bindVec.Items)%2 != 0 {
		return nil, invalidForm("let binding vector requires an even number of forms")
	}
	var bindings []coreast.Binding
	for i := 0; i < len(bindVec.Items); i += 2 {
		pat, err := analyzePattern(bindVec.Items[i])
		if err != nil {
			return nil, err
		}
		expr, err := Analyze(bindVec.Items[i+1])
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, coreast.Binding{Pattern: pat, Expr: expr})
	}
	body, err := analyzeBody(l.Items[2:])
	if err != nil {
		return nil, err
	}
	return coreast.Let{Bindings: bindings, Body: body}, nil
}

func analyzeFn(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) < 3 {
		return nil, invalidArity("fn requires a parameter vector and at least one body expression")
	}
	paramVec, ok := l.Items[1].(*rawast.Vector)
	if !ok {
		return nil, invalidForm("fn requires a vector of parameters")
	}
	params := make([]coreast.Pattern, len(paramVec.Items))
	for i, p := range paramVec.Items {
		pat, err := analyzePattern(p)
		if err != nil {
			return nil, err
		}
		params[i] = pat
	}
	body, err := analyzeBody(l.Items[2:])
	if err != nil {
		return nil, err
	}
	return coreast.Fn{Params: params, Body: body}, nil
}

// analyzePattern lowers a destructuring shape.
func analyzePattern(n rawast.Node) (coreast.Pattern, error) {
	switch x := n.(type) {
	case *rawast.Symbol:
		return coreast.VarPattern{Name: x.Name}, nil
	case *rawast.Vector:
		elems := make([]coreast.Pattern, len(x.Items))
		for i, it := range x.Items {
			p, err := analyzePattern(it)
			if err != nil {
				return nil, err
			}
			elems[i] = p
		}
		return coreast.SeqPattern{Elems: elems}, nil
	case *rawast.MapLit:
		return analyzeMapPattern(x)
	}
	return nil, invalidForm(fmt.Sprintf("invalid destructuring pattern %T", n))
}

func analyzeMapPattern(m *rawast.MapLit) (coreast.Pattern, error) {
	var keysNames []string
	renames := map[string]string{}
	defaults := map[string]coreast.Node{}
	var alias string
	hasAlias := false
	hasRenames := false

	for i := 0; i < len(m.Pairs); i += 2 {
		keyForm := m.Pairs[i]
		valForm := m.Pairs[i+1]
		kw, isKw := keyForm.(*rawast.KeywordLit)
		if isKw && kw.Name == "keys" {
			vec, ok := valForm.(*rawast.Vector)
			if !ok {
				return nil, invalidForm(":keys requires a vector of symbols")
			}
			for _, it := range vec.Items {
				sym, ok := it.(*rawast.Symbol)
				if !ok {
					return nil, invalidForm(":keys entries must be symbols")
				}
				keysNames = append(keysNames, sym.Name)
			}
			continue
		}
		if isKw && kw.Name == "or" {
			defMap, ok := valForm.(*rawast.MapLit)
			if !ok {
				return nil, invalidForm(":or requires a map of defaults")
			}
			for j := 0; j < len(defMap.Pairs); j += 2 {
				keySym, ok := defMap.Pairs[j].(*rawast.Symbol)
				if !ok {
					return nil, invalidForm("default keys must be symbols")
				}
				defExpr, err := Analyze(defMap.Pairs[j+1])
				if err != nil {
					return nil, err
				}
				defaults[keySym.Name] = defExpr
			}
			continue
		}
		if isKw && kw.Name == "as" {
			sym, ok := valForm.(*rawast.Symbol)
			if !ok {
				return nil, invalidForm(":as requires a symbol")
			}
			alias = sym.Name
			hasAlias = true
			continue
		}
		// symbol-keyed rename entry: {sym :kw}
		sym, isSym := keyForm.(*rawast.Symbol)
		kwVal, isKwVal := valForm.(*rawast.KeywordLit)
		if isSym && isKwVal {
			renames[sym.Name] = kwVal.Name
			hasRenames = true
			continue
		}
		return nil, invalidForm("unsupported map destructuring entry")
	}

	var inner coreast.Pattern
	if hasRenames {
		inner = coreast.MapPattern{Keys: keysNames, Renames: renames, Defaults: defaults}
	} else {
		inner = coreast.KeysPattern{Names: keysNames, Defaults: defaults}
	}
	if hasAlias {
		return coreast.AsPattern{Alias: alias, Inner: inner}, nil
	}
	return inner, nil
}

func analyzeWhere(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) != 2 && len(l.Items) != 4 {
		return nil, invalidWhereForm("where requires (where :field) or (where :field op v)")
	}
	path, err := analyzeFieldPath(l.Items[1])
	if err != nil {
		return nil, err
	}
	if len(l.Items) == 2 {
		return coreast.Where{FieldPath: path, Op: coreast.WhereTruthy}, nil
	}
	opSym, ok := l.Items[2].(*rawast.Symbol)
	if !ok {
		return nil, invalidWhereForm("where operator must be a symbol")
	}
	op, ok := whereOpOf(opSym.Name)
	if !ok {
		return nil, invalidWhereForm("unsupported where operator: " + opSym.Name)
	}
	rhs, err := Analyze(l.Items[3])
	if err != nil {
		return nil, err
	}
	return coreast.Where{FieldPath: path, Op: op, Rhs: rhs}, nil
}

func whereOpOf(s string) (coreast.WhereOp, bool) {
	switch s {
	case "=":
		return coreast.WhereEq, true
	case "!=":
		return coreast.WhereNeq, true
	case ">":
		return coreast.WhereGt, true
	case "<":
		return coreast.WhereLt, true
	case ">=":
		return coreast.WhereGte, true
	case "<=":
		return coreast.WhereLte, true
	case "in":
		return coreast.WhereIn, true
	case "includes":
		return coreast.WhereIncludes, true
	}
	return "", false
}

func analyzeFieldPath(n rawast.Node) ([]coreast.FieldStep, error) {
	switch x := n.(type) {
	case *rawast.KeywordLit:
		name := x.Name
		return []coreast.FieldStep{{Keyword: &name}}, nil
	case *rawast.Vector:
		steps := make([]coreast.FieldStep, len(x.Items))
		for i, it := range x.Items {
			switch s := it.(type) {
			case *rawast.KeywordLit:
				name := s.Name
				steps[i] = coreast.FieldStep{Keyword: &name}
			case *rawast.StringLit:
				val := s.Val
				steps[i] = coreast.FieldStep{Str: &val}
			case *rawast.IntLit:
				val := s.Val
				steps[i] = coreast.FieldStep{Index: &val}
			default:
				return nil, invalidWhereForm("field path steps must be keyword, string, or integer")
			}
		}
		return steps, nil
	}
	return nil, invalidWhereForm("field position must be a keyword or vector of steps")
}

func analyzeCombinator(l *rawast.List, kind coreast.CombinatorKind) (coreast.Node, error) {
	preds, err := analyzeAll(l.Items[1:])
	if err != nil {
		return nil, err
	}
	return coreast.PredCombinator{Kind: kind, Preds: preds}, nil
}

func analyzeCallTool(l *rawast.List) (coreast.Node, error) {
	if len(l.Items) != 3 {
		return nil, invalidForm("call requires exactly (call \"name\" args)")
	}
	nameLit, ok := l.Items[1].(*rawast.StringLit)
	if !ok {
		return nil, invalidForm("tool name must be string")
	}
	args, err := Analyze(l.Items[2])
	if err != nil {
		return nil, err
	}
	return coreast.CallTool{Name: nameLit.Val, Args: args}, nil
}
