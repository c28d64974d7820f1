// Package value defines the PTC-Lisp runtime value domain.
//
// Value is a closed sum type: Nil, Bool, Int, Float, Str, Keyword, Vector,
// Map, Set, Closure, Builtin. New Go types are never added to the set at
// runtime; the evaluator switches on a fixed case list.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is implemented by every member of the runtime value domain.
type Value interface {
	// Tag identifies which case of the sum type this value is.
	Tag() Tag
	// String renders the value the way it would be printed by println/str.
	String() string
}

// Tag enumerates the closed set of value cases.
type Tag int

const (
	TagNil Tag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagKeyword
	TagVector
	TagMap
	TagSet
	TagClosure
	TagBuiltin
)

// Nil is the single nil value.
type Nil struct{}

func (Nil) Tag() Tag        { return TagNil }
func (Nil) String() string  { return "nil" }

// NilVal is the canonical Nil instance.
var NilVal = Nil{}

// Bool wraps a boolean.
type Bool bool

func (b Bool) Tag() Tag { return TagBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int wraps a 64-bit signed integer.
type Int int64

func (i Int) Tag() Tag       { return TagInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float wraps a 64-bit float.
type Float float64

func (f Float) Tag() Tag { return TagFloat }
func (f Float) String() string {
	if math.IsInf(float64(f), 1) {
		return "Infinity"
	}
	if math.IsInf(float64(f), -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// Str wraps a string.
type Str string

func (s Str) Tag() Tag       { return TagString }
func (s Str) String() string { return string(s) }

// Quoted renders the string the way it would appear inside a larger
// printed structure (double-quoted, escaped).
func (s Str) Quoted() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range string(s) {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// internedKeywords caches Keyword values so equality can be identity-fast.
var internedKeywords = map[string]*Keyword{}

// Keyword is a symbolic constant, interned by name.
type Keyword struct {
	name string
}

func (k *Keyword) Tag() Tag       { return TagKeyword }
func (k *Keyword) String() string { return ":" + k.name }
func (k *Keyword) Name() string   { return k.name }

// Intern returns the canonical Keyword for name, creating it on first use.
func Intern(name string) *Keyword {
	if k, ok := internedKeywords[name]; ok {
		return k
	}
	k := &Keyword{name: name}
	internedKeywords[name] = k
	return k
}

// Vector is an ordered sequence of values.
type Vector struct {
	Items []Value
}

func NewVector(items ...Value) *Vector {
	return &Vector{Items: items}
}

func (v *Vector) Tag() Tag { return TagVector }
func (v *Vector) String() string {
	parts := make([]string, len(v.Items))
	for i, x := range v.Items {
		parts[i] = printRepr(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Set is an unordered collection of unique values; insertion order is kept
// for deterministic printing even though membership is unordered.
type Set struct {
	items []Value
}

func NewSet(items ...Value) *Set {
	s := &Set{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

func (s *Set) Tag() Tag { return TagSet }
func (s *Set) String() string {
	parts := make([]string, len(s.items))
	for i, x := range s.items {
		parts[i] = printRepr(x)
	}
	return "#{" + strings.Join(parts, " ") + "}"
}

func (s *Set) Add(v Value) {
	for _, it := range s.items {
		if Equal(it, v) {
			return
		}
	}
	s.items = append(s.items, v)
}

func (s *Set) Contains(v Value) bool {
	for _, it := range s.items {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

func (s *Set) Items() []Value { return s.items }
func (s *Set) Len() int       { return len(s.items) }

// MapEntry is one key/value pair of a Map, preserving insertion order.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is an insertion-ordered mapping from Value to Value. Lookup is
// O(n); PTC-Lisp programs operate on LLM-scale data, not a high-throughput
// store, so a plain scan keeps key equality correct for arbitrary key types
// rather than requiring every key to be Go-comparable.
type Map struct {
	entries []MapEntry
}

func NewMap() *Map { return &Map{} }

func NewMapFromPairs(pairs ...MapEntry) *Map {
	m := NewMap()
	for _, p := range pairs {
		m = m.Assoc(p.Key, p.Val)
	}
	return m
}

func (m *Map) Tag() Tag { return TagMap }
func (m *Map) String() string {
	parts := make([]string, len(m.entries))
	for i, e := range m.entries {
		parts[i] = printRepr(e.Key) + " " + printRepr(e.Val)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key Value) (Value, bool) {
	if m == nil {
		return NilVal, false
	}
	for _, e := range m.entries {
		if Equal(e.Key, key) {
			return e.Val, true
		}
	}
	return NilVal, false
}

// Assoc returns a new Map with key bound to val (copy-on-write; existing
// position is kept on overwrite, new keys are appended).
func (m *Map) Assoc(key, val Value) *Map {
	out := &Map{entries: make([]MapEntry, len(m.entries))}
	copy(out.entries, m.entries)
	for i, e := range out.entries {
		if Equal(e.Key, key) {
			out.entries[i] = MapEntry{Key: key, Val: val}
			return out
		}
	}
	out.entries = append(out.entries, MapEntry{Key: key, Val: val})
	return out
}

// Dissoc returns a new Map with key removed, if present.
func (m *Map) Dissoc(key Value) *Map {
	out := &Map{}
	for _, e := range m.entries {
		if !Equal(e.Key, key) {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// Merge right-wins merges other into m (used by the memory contract).
func (m *Map) Merge(other *Map) *Map {
	out := &Map{entries: append([]MapEntry(nil), m.entries...)}
	for _, e := range other.entries {
		out = out.Assoc(e.Key, e.Val)
	}
	return out
}

func (m *Map) Entries() []MapEntry { return m.entries }
func (m *Map) Len() int            { return len(m.entries) }

func (m *Map) Keys() []Value {
	out := make([]Value, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

func (m *Map) Vals() []Value {
	out := make([]Value, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Val
	}
	return out
}

// GetKeyish implements the keyword key-lookup rule: a keyword lookup
// tries the atom-keyed form first, falling back to the string-keyed
// form only when the atom form is entirely absent, including when the
// atom form's value is falsy. Returns (value, found).
func (m *Map) GetKeyish(name string) (Value, bool) {
	if v, ok := m.Get(Intern(name)); ok {
		return v, true
	}
	if v, ok := m.Get(Str(name)); ok {
		return v, true
	}
	return NilVal, false
}

// Truthy reports PTC-Lisp truthiness: every value is truthy except false
// and nil.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(x)
	default:
		return true
	}
}

// Equal implements value equality used by =, set/map membership, and
// destructuring. Structural equality recurses over vectors/maps/sets.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return float64(x) == float64(y)
		}
		return false
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case *Keyword:
		y, ok := b.(*Keyword)
		return ok && x == y // interned: identity compare
	case *Vector:
		y, ok := b.(*Vector)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for _, it := range x.items {
			if !y.Contains(it) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || len(x.entries) != len(y.entries) {
			return false
		}
		for _, e := range x.entries {
			v, found := y.Get(e.Key)
			if !found || !Equal(e.Val, v) {
				return false
			}
		}
		return true
	}
	// Closures and builtins (defined in package env, which imports this
	// package) compare by reference; Go interface equality on their
	// pointer-typed dynamic values gives exactly that.
	return a == b
}

// Compare orders two numeric values; returns an error for non-numbers.
func Compare(a, b Value) (int, error) {
	af, aok := AsFloat(a)
	bf, bok := AsFloat(b)
	if !aok || !bok {
		return 0, fmt.Errorf("cannot compare non-numeric values %s and %s", TypeName(a), TypeName(b))
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// AsFloat converts Int/Float to float64.
func AsFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	}
	return 0, false
}

// IsNumber reports whether v is Int or Float.
func IsNumber(v Value) bool {
	_, ok := AsFloat(v)
	return ok
}

// TypeName returns the PTC-Lisp type name used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Str:
		return "string"
	case *Keyword:
		return "keyword"
	case *Vector:
		return "vector"
	case *Map:
		return "map"
	case *Set:
		return "set"
	}
	if v != nil && (v.Tag() == TagClosure || v.Tag() == TagBuiltin) {
		return "fn"
	}
	return "unknown"
}

// Sequence returns the elements of a Vector or Set as a slice, in
// iteration order, or false if v is not sequence-like.
func Sequence(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *Vector:
		return x.Items, true
	case *Set:
		return x.items, true
	}
	return nil, false
}

// SortedMapKeysForDisplay returns map keys in a stable, human-friendly
// order (keywords/strings alphabetically, then everything else) -- used
// only by the compression strategy's summaries, never by evaluation.
func SortedMapKeysForDisplay(m *Map) []Value {
	keys := append([]Value(nil), m.Keys()...)
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func printRepr(v Value) string {
	if s, ok := v.(Str); ok {
		return s.Quoted()
	}
	return v.String()
}
