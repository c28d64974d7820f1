// Package eval implements the tree-walking PTC-Lisp evaluator.
//
// Eval threads (context, memory, env) through a strict, left-to-right,
// eager traversal. The evaluator is pure: it never panics across its own
// boundary and returns errors as values.
package eval

import (
	"errors"
	"fmt"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/coreast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/env"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// Signal tags whether an evaluation produced an ordinary value or one of
// the two terminal markers raised by (return ...) / (fail ...).
type Signal int

const (
	SigNormal Signal = iota
	SigReturn
	SigFail
)

// Result is the outcome of evaluating one core AST node.
type Result struct {
	Val value.Value
	Sig Signal
	Mem *value.Map
}

func normal(v value.Value, mem *value.Map) Result {
	return Result{Val: v, Sig: SigNormal, Mem: mem}
}

// EvalError is a structured evaluator error with a stable kind tag.
type EvalError struct {
	Kind    string
	Message string
}

func (e *EvalError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func errUnboundVar(name string) error {
	return &EvalError{Kind: "unbound_var", Message: "unbound variable: " + name}
}
func errNotCallable(v value.Value) error {
	return &EvalError{Kind: "not_callable", Message: "value is not callable: " + value.TypeName(v)}
}
func errType(msg string) error { return &EvalError{Kind: "type_error", Message: msg} }
func errDestructure(msg string) error {
	return &EvalError{Kind: "destructure_error", Message: msg}
}
func errToolError(msg string) error { return &EvalError{Kind: "tool_error", Message: msg} }
func errInvalidKeywordCall(msg string) error {
	return &EvalError{Kind: "invalid_keyword_call", Message: msg}
}

// ToolFunc invokes a host tool by name with the evaluated args map,
// returning a value or an error.
type ToolFunc func(name string, args value.Value) (value.Value, error)

// Printer receives one line per `println` call.
type Printer func(line string)

// ToolCallRecorder receives one record per tool call, in call order.
type ToolCallRecorder func(name string, args value.Value, result value.Value, err error)

// Evaluator holds the callbacks threaded through one evaluation run, plus
// the run's ambient (context, memory) pair so closures invoked from
// higher-order builtins (map, filter, reduce, ...) evaluate their bodies
// against the same ctx/ and memory/ state as the rest of the program.
// Ctx and Mem are set once per execution by the sandbox (memory is never
// mutated during a single evaluation; the contract updates it afterwards).
type Evaluator struct {
	Tools  ToolFunc
	Print  Printer
	Record ToolCallRecorder

	Ctx *value.Map
	Mem *value.Map
}

// Eval evaluates node against (ctx, mem, en) and returns a Result (which
// may carry a return/fail signal) plus an error for evaluator failures.
func (ev *Evaluator) Eval(node coreast.Node, ctx *value.Map, mem *value.Map, en *env.Env) (Result, error) {
	if lit, ok := coreast.LiteralValue(node); ok {
		return normal(lit, mem), nil
	}

	switch n := node.(type) {
	case coreast.VectorNode:
		return ev.evalVector(n, ctx, mem, en)
	case coreast.MapNode:
		return ev.evalMap(n, ctx, mem, en)
	case coreast.SetNode:
		return ev.evalSet(n, ctx, mem, en)
	case coreast.VarRef:
		v, ok := en.Lookup(n.Name)
		if !ok {
			return Result{}, errUnboundVar(n.Name)
		}
		return normal(v, mem), nil
	case coreast.CtxRef:
		if v, ok := ctx.Get(value.Str(n.Name)); ok {
			return normal(v, mem), nil
		}
		if v, ok := ctx.Get(value.Intern(n.Name)); ok {
			return normal(v, mem), nil
		}
		return normal(value.NilVal, mem), nil
	case coreast.MemoryRef:
		if v, ok := mem.GetKeyish(n.Name); ok {
			return normal(v, mem), nil
		}
		return normal(value.NilVal, mem), nil
	case coreast.If:
		return ev.evalIf(n, ctx, mem, en)
	case coreast.And:
		return ev.evalAnd(n, ctx, mem, en)
	case coreast.Or:
		return ev.evalOr(n, ctx, mem, en)
	case coreast.Let:
		return ev.evalLet(n, ctx, mem, en)
	case coreast.Fn:
		return normal(&env.Closure{Params: n.Params, Body: n.Body, Captured: en, Doc: n.Doc, ReturnHint: n.ReturnHint}, mem), nil
	case coreast.Do:
		return ev.evalDo(n, ctx, mem, en)
	case coreast.Call:
		return ev.evalCall(n, ctx, mem, en)
	case coreast.CallTool:
		return ev.evalCallTool(n, ctx, mem, en)
	case coreast.Where:
		return ev.evalWhere(n, ctx, mem, en)
	case coreast.PredCombinator:
		return ev.evalCombinator(n, ctx, mem, en)
	}
	return Result{}, errType(fmt.Sprintf("unrecognized core AST node %T", node))
}

func (ev *Evaluator) evalVector(n coreast.VectorNode, ctx, mem *value.Map, en *env.Env) (Result, error) {
	items := make([]value.Value, len(n.Items))
	cur := mem
	for i, it := range n.Items {
		r, err := ev.Eval(it, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		items[i] = r.Val
		cur = r.Mem
	}
	return normal(value.NewVector(items...), cur), nil
}

func (ev *Evaluator) evalSet(n coreast.SetNode, ctx, mem *value.Map, en *env.Env) (Result, error) {
	s := value.NewSet()
	cur := mem
	for _, it := range n.Items {
		r, err := ev.Eval(it, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		s.Add(r.Val)
		cur = r.Mem
	}
	return normal(s, cur), nil
}

func (ev *Evaluator) evalMap(n coreast.MapNode, ctx, mem *value.Map, en *env.Env) (Result, error) {
	m := value.NewMap()
	cur := mem
	for _, pair := range n.Pairs {
		kr, err := ev.Eval(pair.Key, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if kr.Sig != SigNormal {
			return kr, nil
		}
		cur = kr.Mem
		vr, err := ev.Eval(pair.Val, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if vr.Sig != SigNormal {
			return vr, nil
		}
		cur = vr.Mem
		m = m.Assoc(kr.Val, vr.Val)
	}
	return normal(m, cur), nil
}

func (ev *Evaluator) evalIf(n coreast.If, ctx, mem *value.Map, en *env.Env) (Result, error) {
	cr, err := ev.Eval(n.Cond, ctx, mem, en)
	if err != nil {
		return Result{}, err
	}
	if cr.Sig != SigNormal {
		return cr, nil
	}
	if value.Truthy(cr.Val) {
		return ev.Eval(n.Then, ctx, cr.Mem, en)
	}
	return ev.Eval(n.Else, ctx, cr.Mem, en)
}

func (ev *Evaluator) evalAnd(n coreast.And, ctx, mem *value.Map, en *env.Env) (Result, error) {
	if len(n.Exprs) == 0 {
		return normal(value.Bool(true), mem), nil
	}
	cur := mem
	var last value.Value = value.Bool(true)
	for _, e := range n.Exprs {
		r, err := ev.Eval(e, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		cur = r.Mem
		last = r.Val
		if !value.Truthy(last) {
			return normal(last, cur), nil
		}
	}
	return normal(last, cur), nil
}

func (ev *Evaluator) evalOr(n coreast.Or, ctx, mem *value.Map, en *env.Env) (Result, error) {
	if len(n.Exprs) == 0 {
		return normal(value.NilVal, mem), nil
	}
	cur := mem
	var last value.Value = value.NilVal
	for _, e := range n.Exprs {
		r, err := ev.Eval(e, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		cur = r.Mem
		last = r.Val
		if value.Truthy(last) {
			return normal(last, cur), nil
		}
	}
	return normal(last, cur), nil
}

func (ev *Evaluator) evalDo(n coreast.Do, ctx, mem *value.Map, en *env.Env) (Result, error) {
	if len(n.Exprs) == 0 {
		return normal(value.NilVal, mem), nil
	}
	cur := mem
	var last Result
	for _, e := range n.Exprs {
		r, err := ev.Eval(e, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		cur = r.Mem
		last = r
	}
	return last, nil
}

func (ev *Evaluator) evalLet(n coreast.Let, ctx, mem *value.Map, en *env.Env) (Result, error) {
	child := en.Child()
	cur := mem
	for _, b := range n.Bindings {
		r, err := ev.Eval(b.Expr, ctx, cur, child)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		cur = r.Mem
		if err := bindPattern(b.Pattern, r.Val, child, ev, ctx, &cur); err != nil {
			return Result{}, err
		}
	}
	return ev.Eval(n.Body, ctx, cur, child)
}

func (ev *Evaluator) evalCall(n coreast.Call, ctx, mem *value.Map, en *env.Env) (Result, error) {
	// `return`/`fail` pseudo-builtins are intercepted by name regardless
	// of env bindings.
	if vr, ok := n.Callee.(coreast.VarRef); ok && (vr.Name == "return" || vr.Name == "fail") {
		if len(n.Args) != 1 {
			return Result{}, &EvalError{Kind: "arity_error", Message: vr.Name + " takes exactly 1 argument"}
		}
		r, err := ev.Eval(n.Args[0], ctx, mem, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		sig := SigReturn
		if vr.Name == "fail" {
			sig = SigFail
		}
		return Result{Val: r.Val, Sig: sig, Mem: r.Mem}, nil
	}

	// `println` is a pseudo-builtin routed to the evaluator's Printer
	// rather than living in the initial environment, since it is the
	// only call with an observable side channel besides tool calls.
	if vr, ok := n.Callee.(coreast.VarRef); ok && vr.Name == "println" {
		cur := mem
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			r, err := ev.Eval(a, ctx, cur, en)
			if err != nil {
				return Result{}, err
			}
			if r.Sig != SigNormal {
				return r, nil
			}
			cur = r.Mem
			parts[i] = printString(r.Val)
		}
		if ev.Print != nil {
			ev.Print(joinSpace(parts))
		}
		return normal(value.NilVal, cur), nil
	}

	cr, err := ev.Eval(n.Callee, ctx, mem, en)
	if err != nil {
		return Result{}, err
	}
	if cr.Sig != SigNormal {
		return cr, nil
	}
	cur := cr.Mem
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		r, err := ev.Eval(a, ctx, cur, en)
		if err != nil {
			return Result{}, err
		}
		if r.Sig != SigNormal {
			return r, nil
		}
		args[i] = r.Val
		cur = r.Mem
	}
	res, err := ev.apply(cr.Val, args)
	if err != nil {
		var term *terminalSignal
		if errors.As(err, &term) {
			return Result{Val: term.val, Sig: term.sig, Mem: cur}, nil
		}
		return Result{}, err
	}
	return normal(res, cur), nil
}

// terminalSignal carries a return/fail signal raised inside a closure body
// up through the value-only apply path; evalCall unwraps it back into a
// signalled Result so the marker propagates without further evaluation.
type terminalSignal struct {
	val value.Value
	sig Signal
}

func (t *terminalSignal) Error() string {
	if t.sig == SigFail {
		return "fail signal"
	}
	return "return signal"
}

// Apply exposes apply as an env.ApplyFunc so the builtins package can call
// back into the evaluator for higher-order functions (map, filter, reduce,
// sort-by, ...) without importing this package.
func (ev *Evaluator) Apply(callee value.Value, args []value.Value) (value.Value, error) {
	return ev.apply(callee, args)
}

// apply dispatches a call to a closure, builtin, or keyword-as-function.
func (ev *Evaluator) apply(callee value.Value, args []value.Value) (value.Value, error) {
	switch f := callee.(type) {
	case *env.Closure:
		return ev.applyClosure(f, args)
	case *env.Builtin:
		v, err := f.Invoke(args)
		if err != nil {
			return nil, err
		}
		return v, nil
	case *value.Keyword:
		return applyKeyword(f, args)
	}
	return nil, errNotCallable(callee)
}

func (ev *Evaluator) applyClosure(c *env.Closure, args []value.Value) (value.Value, error) {
	if len(args) != c.Arity() {
		return nil, &env.ArityError{Name: "fn", Expected: fmt.Sprintf("%d", c.Arity()), Got: len(args)}
	}
	child := c.Captured.Child()
	ctx := ev.Ctx
	if ctx == nil {
		ctx = value.NewMap()
	}
	curMem := ev.Mem
	if curMem == nil {
		curMem = value.NewMap()
	}
	for i, p := range c.Params {
		if err := bindPattern(p, args[i], child, ev, ctx, &curMem); err != nil {
			return nil, err
		}
	}
	r, err := ev.Eval(c.Body, ctx, curMem, child)
	if err != nil {
		return nil, err
	}
	if r.Sig != SigNormal {
		// return/fail inside a closure body terminates the whole program,
		// not just the call; carried as an error through the value-only
		// apply path and unwrapped again in evalCall.
		return nil, &terminalSignal{val: r.Val, sig: r.Sig}
	}
	return r.Val, nil
}

func applyKeyword(k *value.Keyword, args []value.Value) (value.Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, errInvalidKeywordCall(fmt.Sprintf("keyword %s called with %d arguments", k.String(), len(args)))
	}
	m, ok := args[0].(*value.Map)
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return value.NilVal, nil
	}
	if v, found := m.GetKeyish(k.Name()); found {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return value.NilVal, nil
}

func (ev *Evaluator) evalCallTool(n coreast.CallTool, ctx, mem *value.Map, en *env.Env) (Result, error) {
	ar, err := ev.Eval(n.Args, ctx, mem, en)
	if err != nil {
		return Result{}, err
	}
	if ar.Sig != SigNormal {
		return ar, nil
	}
	if ev.Tools == nil {
		err := errToolError("no tool function configured")
		if ev.Record != nil {
			ev.Record(n.Name, ar.Val, nil, err)
		}
		return Result{}, err
	}
	result, toolErr := ev.Tools(n.Name, ar.Val)
	if ev.Record != nil {
		ev.Record(n.Name, ar.Val, result, toolErr)
	}
	if toolErr != nil {
		return Result{}, errToolError(toolErr.Error())
	}
	return normal(result, ar.Mem), nil
}
