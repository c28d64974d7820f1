// Package coreast defines the analyzer's output: the core AST consumed by
// the evaluator.
//
// Core AST nodes are a closed set of tagged structs implementing Node.
// Unlike the raw AST, special forms are already desugared: `when`, `cond`,
// `->`, `->>`, `and`, `or` all lower to the handful of primitive shapes
// listed below.
package coreast

import "github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"

// Node is implemented by every core AST case.
type Node interface {
	nodeTag()
}

// Literal nodes.

type NilLit struct{}
type BoolLit struct{ Val bool }
type IntLit struct{ Val int64 }
type FloatLit struct{ Val float64 }
type StringLit struct{ Val string }
type KeywordLit struct{ Val string }

func (NilLit) nodeTag()     {}
func (BoolLit) nodeTag()    {}
func (IntLit) nodeTag()     {}
func (FloatLit) nodeTag()   {}
func (StringLit) nodeTag()  {}
func (KeywordLit) nodeTag() {}

// Collection nodes.

type VectorNode struct{ Items []Node }
type MapNode struct{ Pairs []MapPair }
type SetNode struct{ Items []Node }

type MapPair struct {
	Key Node
	Val Node
}

func (VectorNode) nodeTag() {}
func (MapNode) nodeTag()    {}
func (SetNode) nodeTag()    {}

// Reference nodes.

// VarRef is a local binding lookup.
type VarRef struct{ Name string }

// CtxRef is a read-only context lookup.
type CtxRef struct{ Name string }

// MemoryRef is a rolling-memory lookup.
type MemoryRef struct{ Name string }

func (VarRef) nodeTag()    {}
func (CtxRef) nodeTag()    {}
func (MemoryRef) nodeTag() {}

// If is always 3-branch; `when` desugars with Else=NilLit{}.
type If struct {
	Cond Node
	Then Node
	Else Node
}

func (If) nodeTag() {}

// And/Or short-circuit; (and) evaluates to true and (or) to nil.
type And struct{ Exprs []Node }
type Or struct{ Exprs []Node }

func (And) nodeTag() {}
func (Or) nodeTag()  {}

// Binding is one `let` clause.
type Binding struct {
	Pattern Pattern
	Expr    Node
}

// Let evaluates Bindings left-to-right, each in scope of the previous,
// then evaluates Body in the fully extended environment.
type Let struct {
	Bindings []Binding
	Body     Node
}

func (Let) nodeTag() {}

// Fn produces a closure capturing the defining environment.
type Fn struct {
	Params []Pattern
	Body   Node
	// Doc and ReturnHint carry optional closure metadata.
	Doc        string
	ReturnHint string
}

func (Fn) nodeTag() {}

// Do sequences Exprs; the value is the last expression's value.
type Do struct{ Exprs []Node }

func (Do) nodeTag() {}

// Call applies Callee to Args.
type Call struct {
	Callee Node
	Args   []Node
}

func (Call) nodeTag() {}

// CallTool invokes a host tool by name.
type CallTool struct {
	Name string
	Args Node
}

func (CallTool) nodeTag() {}

// WhereOp enumerates the comparison operators accepted by `where`.
type WhereOp string

const (
	WhereTruthy   WhereOp = "truthy"
	WhereEq       WhereOp = "eq"
	WhereNeq      WhereOp = "neq"
	WhereGt       WhereOp = "gt"
	WhereLt       WhereOp = "lt"
	WhereGte      WhereOp = "gte"
	WhereLte      WhereOp = "lte"
	WhereIn       WhereOp = "in"
	WhereIncludes WhereOp = "includes"
)

// Where builds a row -> bool predicate function.
type Where struct {
	FieldPath []FieldStep
	Op        WhereOp
	// Rhs is nil when Op == WhereTruthy.
	Rhs Node
}

// FieldStep is one keyword/string/integer step of a field path.
type FieldStep struct {
	Keyword *string
	Str     *string
	Index   *int64
}

func (Where) nodeTag() {}

// CombinatorKind enumerates all-of/any-of/none-of.
type CombinatorKind string

const (
	CombinatorAllOf  CombinatorKind = "all_of"
	CombinatorAnyOf  CombinatorKind = "any_of"
	CombinatorNoneOf CombinatorKind = "none_of"
)

// PredCombinator combines sub-predicates (each itself a Node evaluating to
// a predicate function) into one predicate function.
type PredCombinator struct {
	Kind  CombinatorKind
	Preds []Node
}

func (PredCombinator) nodeTag() {}

// Pattern is the closed set of destructuring shapes.
type Pattern interface {
	patternTag()
}

// VarPattern binds the whole value to Name.
type VarPattern struct{ Name string }

func (VarPattern) patternTag() {}

// SeqPattern destructures a sequential value positionally.
type SeqPattern struct{ Elems []Pattern }

func (SeqPattern) patternTag() {}

// KeysPattern is `:keys [a b]` with optional `:or` defaults.
type KeysPattern struct {
	Names    []string
	Defaults map[string]Node
}

func (KeysPattern) patternTag() {}

// MapPattern mixes `:keys` names with symbol->keyword renames.
type MapPattern struct {
	Keys     []string
	Renames  map[string]string // local name -> keyword name
	Defaults map[string]Node
}

func (MapPattern) patternTag() {}

// AsPattern binds Alias to the whole value in addition to Inner.
type AsPattern struct {
	Alias string
	Inner Pattern
}

func (AsPattern) patternTag() {}

// LiteralValue converts a literal core-AST node to its runtime Value, used
// by the evaluator for the trivial literal cases.
func LiteralValue(n Node) (value.Value, bool) {
	switch x := n.(type) {
	case NilLit:
		return value.NilVal, true
	case BoolLit:
		return value.Bool(x.Val), true
	case IntLit:
		return value.Int(x.Val), true
	case FloatLit:
		return value.Float(x.Val), true
	case StringLit:
		return value.Str(x.Val), true
	case KeywordLit:
		return value.Intern(x.Val), true
	}
	return nil, false
}
