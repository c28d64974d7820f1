// Package lexer tokenizes PTC-Lisp source text.
//
// Comma counts as whitespace, ';' opens a line comment, and identifiers
// draw from letters, digits, and -_+*/?!<>=. nil/true/false are literals
// only on an exact, longest match.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/token"
)

// ParseError reports a lexical or syntax error with its source position.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse_error: %s (line %d, column %d)", e.Message, e.Line, e.Column)
}

const identChars = "-_+*/?!<>="

func isIdentStart(r rune) bool {
	return isLetter(r) || isDigit(r) || strings.ContainsRune(identChars, r)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Lexer converts source text into a token stream.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, column: 1}
}

// Tokenize consumes the entire source and returns all tokens, terminated
// by an EOF token. The first error encountered stops tokenization; there
// is no recovery.
func Tokenize(src string) ([]token.Token, error) {
	lx := New(src)
	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) peekAt(offset int) (rune, bool) {
	i := l.pos + offset
	if i >= len(l.src) {
		return 0, false
	}
	return l.src[i], true
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		r, ok := l.peek()
		if !ok {
			return
		}
		if r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.advance()
			continue
		}
		if r == ';' {
			for {
				r, ok := l.peek()
				if !ok || r == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		return
	}
}

// Next returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column
	r, ok := l.peek()
	if !ok {
		return token.Token{Kind: token.EOF, Line: line, Column: col}, nil
	}

	switch r {
	case '(':
		l.advance()
		return token.Token{Kind: token.LParen, Text: "(", Line: line, Column: col}, nil
	case ')':
		l.advance()
		return token.Token{Kind: token.RParen, Text: ")", Line: line, Column: col}, nil
	case '[':
		l.advance()
		return token.Token{Kind: token.LBracket, Text: "[", Line: line, Column: col}, nil
	case ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Text: "]", Line: line, Column: col}, nil
	case '{':
		l.advance()
		return token.Token{Kind: token.LBrace, Text: "{", Line: line, Column: col}, nil
	case '}':
		l.advance()
		return token.Token{Kind: token.RBrace, Text: "}", Line: line, Column: col}, nil
	case '"':
		return l.lexString(line, col)
	case '#':
		if n, ok := l.peekAt(1); ok && n == '{' {
			l.advance()
			l.advance()
			return token.Token{Kind: token.HashBrace, Text: "#{", Line: line, Column: col}, nil
		}
		return token.Token{}, &ParseError{Message: "invalid character '#'", Line: line, Column: col}
	case ':':
		return l.lexKeyword(line, col)
	}

	if isDigit(r) || (r == '-' && l.nextIsDigit()) {
		return l.lexNumber(line, col)
	}

	if isIdentStart(r) {
		return l.lexSymbolOrLiteral(line, col)
	}

	return token.Token{}, &ParseError{Message: fmt.Sprintf("invalid character %q", r), Line: line, Column: col}
}

func (l *Lexer) nextIsDigit() bool {
	r, ok := l.peekAt(1)
	return ok && isDigit(r)
}

func (l *Lexer) lexString(line, col int) (token.Token, error) {
	l.advance() // consume opening quote
	var sb strings.Builder
	for {
		r, ok := l.peek()
		if !ok {
			return token.Token{}, &ParseError{Message: "unterminated string", Line: line, Column: col}
		}
		if r == '\n' {
			return token.Token{}, &ParseError{Message: "unterminated string (literal newline in string)", Line: line, Column: col}
		}
		if r == '"' {
			l.advance()
			return token.Token{Kind: token.String, Text: sb.String(), Line: line, Column: col}, nil
		}
		if r == '\\' {
			l.advance()
			esc, ok := l.peek()
			if !ok {
				return token.Token{}, &ParseError{Message: "unterminated string escape", Line: line, Column: col}
			}
			l.advance()
			switch esc {
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return token.Token{}, &ParseError{Message: fmt.Sprintf("invalid escape sequence \\%c", esc), Line: line, Column: col}
			}
			continue
		}
		sb.WriteRune(r)
		l.advance()
	}
}

func (l *Lexer) lexKeyword(line, col int) (token.Token, error) {
	l.advance() // consume ':'
	start := l.pos
	for {
		r, ok := l.peek()
		if !ok || !isIdentStart(r) {
			break
		}
		if r == '/' {
			break
		}
		l.advance()
	}
	name := string(l.src[start:l.pos])
	if name == "" {
		return token.Token{}, &ParseError{Message: "invalid keyword", Line: line, Column: col}
	}
	if r, ok := l.peek(); ok && r == '/' {
		return token.Token{}, &ParseError{Message: "namespaced keyword not allowed: :" + name + "/...", Line: line, Column: col}
	}
	return token.Token{Kind: token.Keyword, Text: name, Line: line, Column: col}, nil
}

func (l *Lexer) lexNumber(line, col int) (token.Token, error) {
	start := l.pos
	if r, _ := l.peek(); r == '-' {
		l.advance()
	}
	for {
		r, ok := l.peek()
		if !ok || !isDigit(r) {
			break
		}
		l.advance()
	}
	isFloat := false
	if r, ok := l.peek(); ok && r == '.' {
		if n, ok2 := l.peekAt(1); ok2 && isDigit(n) {
			isFloat = true
			l.advance()
			for {
				r, ok := l.peek()
				if !ok || !isDigit(r) {
					break
				}
				l.advance()
			}
		}
	}
	if r, ok := l.peek(); ok && (r == 'e' || r == 'E') {
		save := l.pos
		l.advance()
		if r, ok := l.peek(); ok && (r == '+' || r == '-') {
			l.advance()
		}
		digits := 0
		for {
			r, ok := l.peek()
			if !ok || !isDigit(r) {
				break
			}
			l.advance()
			digits++
		}
		if digits == 0 {
			l.pos = save
		} else {
			isFloat = true
		}
	}
	text := string(l.src[start:l.pos])
	if isFloat {
		return token.Token{Kind: token.Float, Text: text, Line: line, Column: col}, nil
	}
	return token.Token{Kind: token.Int, Text: text, Line: line, Column: col}, nil
}

func (l *Lexer) lexSymbolOrLiteral(line, col int) (token.Token, error) {
	start := l.pos
	for {
		r, ok := l.peek()
		if !ok || !isIdentStart(r) {
			break
		}
		l.advance()
	}
	name := string(l.src[start:l.pos])

	// An interior '/' splits a namespaced symbol (ns/name); a '/' at the
	// start or end of the run stays part of an ordinary symbol so the
	// division operator and operator runs like `*/` still lex.
	if i := strings.IndexByte(name, '/'); i > 0 && i < len(name)-1 {
		ns, rest := name[:i], name[i+1:]
		if strings.ContainsRune(rest, '/') {
			return token.Token{}, &ParseError{Message: "invalid namespaced symbol: " + name, Line: line, Column: col}
		}
		return token.Token{Kind: token.NamespacedSymbol, Text: rest, Ns: ns, Line: line, Column: col}, nil
	}

	// Longest-identifier-match rule: nil/true/false are literals only
	// when the full identifier equals them exactly.
	switch name {
	case "nil":
		return token.Token{Kind: token.Nil, Text: name, Line: line, Column: col}, nil
	case "true":
		return token.Token{Kind: token.True, Text: name, Line: line, Column: col}, nil
	case "false":
		return token.Token{Kind: token.False, Text: name, Line: line, Column: col}, nil
	}
	return token.Token{Kind: token.Symbol, Text: name, Line: line, Column: col}, nil
}

// ParseInt parses an already-lexed integer token's text.
func ParseInt(text string) (int64, error) {
	return strconv.ParseInt(text, 10, 64)
}

// ParseFloat parses an already-lexed float token's text.
func ParseFloat(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}
