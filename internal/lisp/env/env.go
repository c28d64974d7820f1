// Package env implements the PTC-Lisp environment chain and the closure /
// builtin-function value cases.
//
// An Env is an immutable symbol->value frame with a parent pointer. Binding
// creates a new child frame; it never mutates an ancestor. Frames are
// acyclic by construction because a frame can only link to an older frame.
package env

import (
	"fmt"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/coreast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// Env is one frame of the environment chain.
type Env struct {
	parent *Env
	vars   map[string]value.Value
}

// NewRoot creates a new root environment with no parent.
func NewRoot() *Env {
	return &Env{vars: make(map[string]value.Value)}
}

// Child creates a new frame extending e without mutating e.
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: make(map[string]value.Value)}
}

// Bind sets name in this frame only (used while constructing a child frame
// via let/fn-parameter binding; never mutates an ancestor frame).
func (e *Env) Bind(name string, v value.Value) {
	e.vars[name] = v
}

// Lookup walks the chain from e outward, returning the first match.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Closure is a user-defined function value: parameter patterns, body AST,
// and the environment captured at definition time.
type Closure struct {
	Params     []coreast.Pattern
	Body       coreast.Node
	Captured   *Env
	Doc        string
	ReturnHint string
}

func (*Closure) Tag() value.Tag { return value.TagClosure }
func (c *Closure) String() string {
	return fmt.Sprintf("#<fn/%d>", len(c.Params))
}

// Arity returns the closure's fixed parameter count. Variadic closures are
// not supported.
func (c *Closure) Arity() int { return len(c.Params) }

// BuiltinKind enumerates the call-arity shapes a builtin may have.
type BuiltinKind int

const (
	// KindNormal requires exactly Arity arguments.
	KindNormal BuiltinKind = iota
	// KindVariadic accepts any arity, including zero, returning Identity
	// when called with no arguments.
	KindVariadic
	// KindVariadicNonempty requires at least one argument.
	KindVariadicNonempty
	// KindMultiArity dispatches on argument count among a small fixed set.
	KindMultiArity
)

// Fn is the Go implementation behind a Builtin call.
type Fn func(args []value.Value) (value.Value, error)

// ApplyFunc invokes any callable value (closure, builtin, or keyword) with
// the given arguments. The builtins package takes one of these so that
// higher-order built-ins (map, filter, reduce, sort-by, ...) can call back
// into the evaluator without builtins importing eval.
type ApplyFunc func(callee value.Value, args []value.Value) (value.Value, error)

// Builtin is a built-in function value.
type Builtin struct {
	Name string
	Kind BuiltinKind

	// Arity is used when Kind == KindNormal.
	Arity int
	// Identity is returned when Kind == KindVariadic and len(args) == 0.
	Identity value.Value
	// Arities maps accepted argument counts to implementations, used when
	// Kind == KindMultiArity (e.g. get 2/3, get-in 2/3, sort-by 2/3).
	Arities map[int]Fn

	Call Fn
}

func (*Builtin) Tag() value.Tag     { return value.TagBuiltin }
func (b *Builtin) String() string   { return "#<builtin:" + b.Name + ">" }

// Invoke dispatches a call to the builtin per its Kind, producing an
// arity error on mismatch.
func (b *Builtin) Invoke(args []value.Value) (value.Value, error) {
	switch b.Kind {
	case KindNormal:
		if len(args) != b.Arity {
			return nil, &ArityError{Name: b.Name, Expected: fmt.Sprintf("%d", b.Arity), Got: len(args)}
		}
		return b.Call(args)
	case KindVariadic:
		if len(args) == 0 && b.Identity != nil {
			return b.Identity, nil
		}
		return b.Call(args)
	case KindVariadicNonempty:
		if len(args) == 0 {
			return nil, &ArityError{Name: b.Name, Expected: "at least 1", Got: 0}
		}
		return b.Call(args)
	case KindMultiArity:
		fn, ok := b.Arities[len(args)]
		if !ok {
			return nil, &ArityError{Name: b.Name, Expected: arityKeysDescription(b.Arities), Got: len(args)}
		}
		return fn(args)
	}
	return nil, fmt.Errorf("unknown builtin kind for %s", b.Name)
}

func arityKeysDescription(arities map[int]Fn) string {
	desc := ""
	for k := range arities {
		if desc != "" {
			desc += "/"
		}
		desc += fmt.Sprintf("%d", k)
	}
	return desc
}

// ArityError reports a builtin or closure arity mismatch.
type ArityError struct {
	Name     string
	Expected string
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("arity_error: %s expected %s arguments, got %d", e.Name, e.Expected, e.Got)
}
