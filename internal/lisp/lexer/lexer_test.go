package lexer

import (
	"testing"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizePunctuation(t *testing.T) {
	toks, err := Tokenize("([{#{}}])")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	got := kinds(toks)
	want := []token.Kind{
		token.LParen, token.LBracket, token.LBrace, token.HashBrace,
		token.RBrace, token.RBrace, token.RBracket, token.RParen, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind token.Kind
		text string
	}{
		{"nil literal", "nil", token.Nil, "nil"},
		{"true literal", "true", token.True, "true"},
		{"false literal", "false", token.False, "false"},
		{"int literal", "42", token.Int, "42"},
		{"negative int", "-7", token.Int, "-7"},
		{"float literal", "3.14", token.Float, "3.14"},
		{"float with exponent", "1.5e3", token.Float, "1.5e3"},
		{"string literal", `"hi"`, token.String, "hi"},
		{"keyword literal", ":foo", token.Keyword, "foo"},
		{"symbol", "foo-bar?", token.Symbol, "foo-bar?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.src)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.src, err)
			}
			if len(toks) != 2 {
				t.Fatalf("Tokenize(%q) = %d tokens, want 2 (value + EOF)", tt.src, len(toks))
			}
			if toks[0].Kind != tt.kind {
				t.Errorf("kind = %v, want %v", toks[0].Kind, tt.kind)
			}
			if toks[0].Text != tt.text {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.text)
			}
		})
	}
}

// A symbol with a reserved-word prefix must lex as a Symbol, never be
// truncated to the literal it starts with.
func TestTokenizeLiteralPrefixSafety(t *testing.T) {
	for _, src := range []string{"nilly", "true?", "false-positive", "falsey"} {
		t.Run(src, func(t *testing.T) {
			toks, err := Tokenize(src)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", src, err)
			}
			if toks[0].Kind != token.Symbol {
				t.Errorf("Tokenize(%q)[0].Kind = %v, want Symbol", src, toks[0].Kind)
			}
			if toks[0].Text != src {
				t.Errorf("Tokenize(%q)[0].Text = %q, want %q", src, toks[0].Text, src)
			}
		})
	}
}

func TestTokenizeNamespacedSymbol(t *testing.T) {
	toks, err := Tokenize("ctx/user-id")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if toks[0].Kind != token.NamespacedSymbol {
		t.Fatalf("kind = %v, want NamespacedSymbol", toks[0].Kind)
	}
	if toks[0].Ns != "ctx" || toks[0].Text != "user-id" {
		t.Errorf("got ns=%q text=%q, want ns=%q text=%q", toks[0].Ns, toks[0].Text, "ctx", "user-id")
	}
}

func TestTokenizeNamespacedKeywordRejected(t *testing.T) {
	_, err := Tokenize(":foo/bar")
	if err == nil {
		t.Fatal("Tokenize(\":foo/bar\") error = nil, want error (namespaced keywords aren't allowed)")
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\n\t\"b\"\\c"`)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	want := "a\n\t\"b\"\\c"
	if toks[0].Text != want {
		t.Errorf("text = %q, want %q", toks[0].Text, want)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"abc`)
	if err == nil {
		t.Fatal("Tokenize() error = nil, want unterminated string error")
	}
}

func TestTokenizeLiteralNewlineInStringRejected(t *testing.T) {
	_, err := Tokenize("\"abc\ndef\"")
	if err == nil {
		t.Fatal("Tokenize() error = nil, want error for literal newline in string")
	}
}

func TestTokenizeInvalidEscape(t *testing.T) {
	_, err := Tokenize(`"a\qb"`)
	if err == nil {
		t.Fatal("Tokenize() error = nil, want invalid escape error")
	}
}

func TestTokenizeComment(t *testing.T) {
	toks, err := Tokenize("1 ; this is a comment\n2")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(toks) != 3 { // 1, 2, EOF
		t.Fatalf("got %d tokens, want 3: %v", len(toks), toks)
	}
	if toks[0].Text != "1" || toks[1].Text != "2" {
		t.Errorf("got texts %q, %q, want 1, 2", toks[0].Text, toks[1].Text)
	}
}

func TestTokenizeCommaAsWhitespace(t *testing.T) {
	toks, err := Tokenize("[1, 2, 3]")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	got := kinds(toks)
	want := []token.Kind{token.LBracket, token.Int, token.Int, token.Int, token.RBracket, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
}

func TestTokenizeInvalidCharacter(t *testing.T) {
	_, err := Tokenize("@")
	if err == nil {
		t.Fatal("Tokenize(\"@\") error = nil, want error")
	}
}

func TestTokenizeLonePoundRejected(t *testing.T) {
	_, err := Tokenize("#foo")
	if err == nil {
		t.Fatal("Tokenize(\"#foo\") error = nil, want error")
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Tokenize("(foo\n  @)")
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("Line = %d, want 2", pe.Line)
	}
}

func TestIdentCharsAllowedInSymbols(t *testing.T) {
	toks, err := Tokenize("update-in? set!<>=+*/")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if toks[0].Text != "update-in?" {
		t.Errorf("first symbol = %q, want update-in?", toks[0].Text)
	}
}
