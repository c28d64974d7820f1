// Package parser turns a PTC-Lisp token stream into the raw AST.
package parser

import (
	"fmt"

	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/lexer"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/rawast"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/token"
)

// Parser builds raw AST nodes from a token stream. It never attempts error
// recovery: the first error terminates parsing.
type Parser struct {
	toks []token.Token
	pos  int
}

// ParseProgram tokenizes and parses src into a top-level list of forms.
// Multiple top-level forms are treated as an implicit `do` at the caller's
// discretion; this function returns every form it found.
func ParseProgram(src string) ([]rawast.Node, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	var forms []rawast.Node
	for {
		if p.cur().Kind == token.EOF {
			return forms, nil
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, n)
	}
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func posOf(t token.Token) rawast.Position {
	return rawast.Position{Line: t.Line, Column: t.Column}
}

func (p *Parser) parseForm() (rawast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case token.EOF:
		return nil, &lexer.ParseError{Message: "unexpected end of input", Line: t.Line, Column: t.Column}
	case token.LParen:
		return p.parseList()
	case token.RParen:
		return nil, &lexer.ParseError{Message: "unexpected ')'", Line: t.Line, Column: t.Column}
	case token.LBracket:
		return p.parseVector()
	case token.RBracket:
		return nil, &lexer.ParseError{Message: "unexpected ']'", Line: t.Line, Column: t.Column}
	case token.LBrace:
		return p.parseMap()
	case token.RBrace:
		return nil, &lexer.ParseError{Message: "unexpected '}'", Line: t.Line, Column: t.Column}
	case token.HashBrace:
		return p.parseSet()
	case token.Symbol:
		p.advance()
		return &rawast.Symbol{Position: posOf(t), Name: t.Text}, nil
	case token.NamespacedSymbol:
		p.advance()
		return &rawast.NamespacedSymbol{Position: posOf(t), Ns: t.Ns, Name: t.Text}, nil
	case token.Keyword:
		p.advance()
		return &rawast.KeywordLit{Position: posOf(t), Name: t.Text}, nil
	case token.String:
		p.advance()
		return &rawast.StringLit{Position: posOf(t), Val: t.Text}, nil
	case token.Int:
		p.advance()
		v, err := lexer.ParseInt(t.Text)
		if err != nil {
			return nil, &lexer.ParseError{Message: "invalid integer literal: " + t.Text, Line: t.Line, Column: t.Column}
		}
		return &rawast.IntLit{Position: posOf(t), Val: v}, nil
	case token.Float:
		p.advance()
		v, err := lexer.ParseFloat(t.Text)
		if err != nil {
			return nil, &lexer.ParseError{Message: "invalid float literal: " + t.Text, Line: t.Line, Column: t.Column}
		}
		return &rawast.FloatLit{Position: posOf(t), Val: v}, nil
	case token.Nil:
		p.advance()
		return &rawast.NilLit{Position: posOf(t)}, nil
	case token.True:
		p.advance()
		return &rawast.BoolLit{Position: posOf(t), Val: true}, nil
	case token.False:
		p.advance()
		return &rawast.BoolLit{Position: posOf(t), Val: false}, nil
	}
	return nil, &lexer.ParseError{Message: fmt.Sprintf("unexpected token %q", t.Text), Line: t.Line, Column: t.Column}
}

func (p *Parser) parseList() (rawast.Node, error) {
	open := p.advance()
	var items []rawast.Node
	for {
		if p.cur().Kind == token.EOF {
			return nil, &lexer.ParseError{Message: "unterminated list", Line: open.Line, Column: open.Column}
		}
		if p.cur().Kind == token.RParen {
			p.advance()
			return &rawast.List{Position: posOf(open), Items: items}, nil
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

func (p *Parser) parseVector() (rawast.Node, error) {
	open := p.advance()
	var items []rawast.Node
	for {
		if p.cur().Kind == token.EOF {
			return nil, &lexer.ParseError{Message: "unterminated vector", Line: open.Line, Column: open.Column}
		}
		if p.cur().Kind == token.RBracket {
			p.advance()
			return &rawast.Vector{Position: posOf(open), Items: items}, nil
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

func (p *Parser) parseMap() (rawast.Node, error) {
	open := p.advance()
	var items []rawast.Node
	for {
		if p.cur().Kind == token.EOF {
			return nil, &lexer.ParseError{Message: "unterminated map", Line: open.Line, Column: open.Column}
		}
		if p.cur().Kind == token.RBrace {
			p.advance()
			if len(items)%2 != 0 {
				return nil, &lexer.ParseError{Message: "map literal requires an even number of forms", Line: open.Line, Column: open.Column}
			}
			return &rawast.MapLit{Position: posOf(open), Pairs: items}, nil
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

func (p *Parser) parseSet() (rawast.Node, error) {
	open := p.advance()
	var items []rawast.Node
	for {
		if p.cur().Kind == token.EOF {
			return nil, &lexer.ParseError{Message: "unterminated set", Line: open.Line, Column: open.Column}
		}
		if p.cur().Kind == token.RBrace {
			p.advance()
			return &rawast.SetLit{Position: posOf(open), Items: items}, nil
		}
		n, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}
