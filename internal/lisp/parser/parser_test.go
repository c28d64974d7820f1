package parser

import (
	"testing"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/rawast"
)

func TestParseProgramAtoms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want func(rawast.Node) bool
	}{
		{"int", "42", func(n rawast.Node) bool { v, ok := n.(*rawast.IntLit); return ok && v.Val == 42 }},
		{"float", "3.5", func(n rawast.Node) bool { v, ok := n.(*rawast.FloatLit); return ok && v.Val == 3.5 }},
		{"string", `"hi"`, func(n rawast.Node) bool { v, ok := n.(*rawast.StringLit); return ok && v.Val == "hi" }},
		{"keyword", ":x", func(n rawast.Node) bool { v, ok := n.(*rawast.KeywordLit); return ok && v.Name == "x" }},
		{"symbol", "foo", func(n rawast.Node) bool { v, ok := n.(*rawast.Symbol); return ok && v.Name == "foo" }},
		{"nil", "nil", func(n rawast.Node) bool { _, ok := n.(*rawast.NilLit); return ok }},
		{"true", "true", func(n rawast.Node) bool { v, ok := n.(*rawast.BoolLit); return ok && v.Val }},
		{"false", "false", func(n rawast.Node) bool { v, ok := n.(*rawast.BoolLit); return ok && !v.Val }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forms, err := ParseProgram(tt.src)
			if err != nil {
				t.Fatalf("ParseProgram(%q) error = %v", tt.src, err)
			}
			if len(forms) != 1 {
				t.Fatalf("ParseProgram(%q) = %d forms, want 1", tt.src, len(forms))
			}
			if !tt.want(forms[0]) {
				t.Errorf("ParseProgram(%q) = %#v, predicate failed", tt.src, forms[0])
			}
		})
	}
}

func TestParseProgramList(t *testing.T) {
	forms, err := ParseProgram("(+ 1 2)")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	list, ok := forms[0].(*rawast.List)
	if !ok {
		t.Fatalf("forms[0] type = %T, want *rawast.List", forms[0])
	}
	if len(list.Items) != 3 {
		t.Fatalf("list.Items len = %d, want 3", len(list.Items))
	}
	sym, ok := list.Items[0].(*rawast.Symbol)
	if !ok || sym.Name != "+" {
		t.Errorf("list.Items[0] = %#v, want symbol +", list.Items[0])
	}
}

func TestParseProgramVector(t *testing.T) {
	forms, err := ParseProgram("[1 2 3]")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	vec, ok := forms[0].(*rawast.Vector)
	if !ok || len(vec.Items) != 3 {
		t.Fatalf("forms[0] = %#v, want vector of 3", forms[0])
	}
}

func TestParseProgramMap(t *testing.T) {
	forms, err := ParseProgram("{:a 1 :b 2}")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	m, ok := forms[0].(*rawast.MapLit)
	if !ok || len(m.Pairs) != 4 {
		t.Fatalf("forms[0] = %#v, want map literal with 4 flat pairs", forms[0])
	}
}

func TestParseProgramMapOddPairsRejected(t *testing.T) {
	_, err := ParseProgram("{:a 1 :b}")
	if err == nil {
		t.Fatal("ParseProgram() error = nil, want error for odd map literal")
	}
}

func TestParseProgramSet(t *testing.T) {
	forms, err := ParseProgram("#{1 2 3}")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	s, ok := forms[0].(*rawast.SetLit)
	if !ok || len(s.Items) != 3 {
		t.Fatalf("forms[0] = %#v, want set literal with 3 items", forms[0])
	}
}

func TestParseProgramMultipleTopLevelForms(t *testing.T) {
	forms, err := ParseProgram("1 2 3")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	if len(forms) != 3 {
		t.Fatalf("ParseProgram() = %d forms, want 3", len(forms))
	}
}

func TestParseProgramEmptySource(t *testing.T) {
	forms, err := ParseProgram("")
	if err != nil {
		t.Fatalf("ParseProgram(\"\") error = %v", err)
	}
	if len(forms) != 0 {
		t.Errorf("ParseProgram(\"\") = %d forms, want 0", len(forms))
	}
}

func TestParseProgramNestedForms(t *testing.T) {
	forms, err := ParseProgram("(let [x [1 {:a 2}]] x)")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("ParseProgram() = %d forms, want 1", len(forms))
	}
}

func TestParseProgramUnterminatedListIsError(t *testing.T) {
	_, err := ParseProgram("(+ 1 2")
	if err == nil {
		t.Fatal("ParseProgram() error = nil, want unterminated list error")
	}
}

func TestParseProgramUnexpectedCloserIsError(t *testing.T) {
	tests := []string{")", "]", "}"}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := ParseProgram(src)
			if err == nil {
				t.Fatalf("ParseProgram(%q) error = nil, want error", src)
			}
		})
	}
}

func TestParseProgramNamespacedSymbol(t *testing.T) {
	forms, err := ParseProgram("tool/search")
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	ns, ok := forms[0].(*rawast.NamespacedSymbol)
	if !ok || ns.Ns != "tool" || ns.Name != "search" {
		t.Fatalf("forms[0] = %#v, want NamespacedSymbol{tool, search}", forms[0])
	}
}

func TestParseProgramDoesNotRecoverFromError(t *testing.T) {
	// The first error must stop parsing outright: a trailing valid form
	// after a bad one must not be recovered.
	_, err := ParseProgram(") (+ 1 2)")
	if err == nil {
		t.Fatal("expected parse error on leading unexpected ')'")
	}
}
