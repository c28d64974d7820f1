package value

import "testing"

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil is falsy", NilVal, false},
		{"false is falsy", Bool(false), false},
		{"true is truthy", Bool(true), true},
		{"zero int is truthy", Int(0), true},
		{"empty string is truthy", Str(""), true},
		{"empty vector is truthy", NewVector(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truthy(tt.v); got != tt.want {
				t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int == int", Int(1), Int(1), true},
		{"int == float cross-numeric", Int(1), Float(1.0), true},
		{"float != different", Float(1.5), Int(1), false},
		{"string equal", Str("a"), Str("a"), true},
		{"keyword interned identity", Intern("x"), Intern("x"), true},
		{"keyword differs by name", Intern("x"), Intern("y"), false},
		{"vector structural equal", NewVector(Int(1), Int(2)), NewVector(Int(1), Int(2)), true},
		{"vector differs by length", NewVector(Int(1)), NewVector(Int(1), Int(2)), false},
		{"set structural equal regardless of insertion order", NewSet(Int(1), Int(2)), NewSet(Int(2), Int(1)), true},
		{"map structural equal", NewMap().Assoc(Str("a"), Int(1)), NewMap().Assoc(Str("a"), Int(1)), true},
		{"nil vs bool", NilVal, Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	c, err := Compare(Int(1), Int(2))
	if err != nil || c >= 0 {
		t.Errorf("Compare(1, 2) = %d, %v, want < 0, nil", c, err)
	}
	if _, err := Compare(Str("a"), Int(1)); err == nil {
		t.Error("Compare(string, int) error = nil, want error")
	}
}

func TestMapAssocIsCopyOnWrite(t *testing.T) {
	m1 := NewMap().Assoc(Str("a"), Int(1))
	m2 := m1.Assoc(Str("b"), Int(2))
	if m1.Len() != 1 {
		t.Errorf("m1.Len() = %d, want 1 (must not be mutated by m2's Assoc)", m1.Len())
	}
	if m2.Len() != 2 {
		t.Errorf("m2.Len() = %d, want 2", m2.Len())
	}
}

func TestMapAssocOverwritePreservesPosition(t *testing.T) {
	m := NewMap().Assoc(Str("a"), Int(1)).Assoc(Str("b"), Int(2)).Assoc(Str("a"), Int(99))
	keys := m.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() len = %d, want 2", len(keys))
	}
	if !Equal(keys[0], Str("a")) {
		t.Errorf("first key = %v, want a (overwrite keeps original position)", keys[0])
	}
	v, _ := m.Get(Str("a"))
	if !Equal(v, Int(99)) {
		t.Errorf("a = %v, want 99", v)
	}
}

func TestMapDissoc(t *testing.T) {
	m := NewMap().Assoc(Str("a"), Int(1)).Assoc(Str("b"), Int(2))
	m2 := m.Dissoc(Str("a"))
	if m2.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m2.Len())
	}
	if _, found := m2.Get(Str("a")); found {
		t.Error("a still present after Dissoc")
	}
	if m.Len() != 2 {
		t.Error("original map mutated by Dissoc")
	}
}

func TestMapMergeRightWins(t *testing.T) {
	a := NewMap().Assoc(Str("x"), Int(1)).Assoc(Str("y"), Int(2))
	b := NewMap().Assoc(Str("x"), Int(99))
	merged := a.Merge(b)
	x, _ := merged.Get(Str("x"))
	y, _ := merged.Get(Str("y"))
	if !Equal(x, Int(99)) {
		t.Errorf("x = %v, want 99 (right wins)", x)
	}
	if !Equal(y, Int(2)) {
		t.Errorf("y = %v, want 2 (kept from left)", y)
	}
}

// GetKeyish implements the atom-before-string key lookup rule: an atom
// (interned keyword) key is tried first and wins even when its value is
// falsy; the string form is consulted only when the atom form is entirely
// absent.
func TestMapGetKeyishAtomPrecedence(t *testing.T) {
	m := NewMap().Assoc(Intern("active"), Bool(false)).Assoc(Str("active"), Bool(true))
	v, found := m.GetKeyish("active")
	if !found {
		t.Fatal("GetKeyish() found = false, want true")
	}
	if !Equal(v, Bool(false)) {
		t.Errorf("GetKeyish() = %v, want false (atom form wins even though falsy)", v)
	}
}

func TestMapGetKeyishFallsBackToString(t *testing.T) {
	m := NewMap().Assoc(Str("name"), Str("alice"))
	v, found := m.GetKeyish("name")
	if !found || !Equal(v, Str("alice")) {
		t.Errorf("GetKeyish() = %v, %v, want alice, true", v, found)
	}
}

func TestMapGetKeyishAbsentBothForms(t *testing.T) {
	m := NewMap()
	_, found := m.GetKeyish("missing")
	if found {
		t.Error("GetKeyish() found = true, want false when neither form is present")
	}
}

func TestSetAddDeduplicates(t *testing.T) {
	s := NewSet(Int(1), Int(1), Int(2))
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSequence(t *testing.T) {
	if _, ok := Sequence(NewVector(Int(1))); !ok {
		t.Error("Sequence(vector) ok = false, want true")
	}
	if _, ok := Sequence(NewSet(Int(1))); !ok {
		t.Error("Sequence(set) ok = false, want true")
	}
	if _, ok := Sequence(NewMap()); ok {
		t.Error("Sequence(map) ok = true, want false")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NilVal, "nil"},
		{Bool(true), "boolean"},
		{Int(1), "integer"},
		{Float(1.5), "float"},
		{Str("x"), "string"},
		{Intern("x"), "keyword"},
		{NewVector(), "vector"},
		{NewMap(), "map"},
		{NewSet(), "set"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.v); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStrQuotedEscapes(t *testing.T) {
	got := Str("a\"b\\c\n").Quoted()
	want := `"a\"b\\c\n"`
	if got != want {
		t.Errorf("Quoted() = %q, want %q", got, want)
	}
}

func TestInternReturnsSameInstance(t *testing.T) {
	a := Intern("shared")
	b := Intern("shared")
	if a != b {
		t.Error("Intern() returned distinct instances for the same name")
	}
}
