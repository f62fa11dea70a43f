// Package parser implements a recursive-descent parser for the CM
// object-query grammar:
//
//	query           = or_term
//	or_term         = ('(')? and_term (')')? (or  ('(')? and_term (')')?)*
//	and_term        = ('(')? not_term (')')? (and ('(')? not_term (')')?)*
//	not_term        = not? term
//	term            = function_call / attribute_match
//	function_call   = ident '(' string (',' string)* ')'
//	attribute_match = ident comparator atom
//	comparator      = '=' | 'match'
//	atom            = ident | string
package parser

import (
	"fmt"

	"github.com/ccm-backup-reader/ccmbackup/query/ast"
	"github.com/ccm-backup-reader/ccmbackup/query/lexer"
	"github.com/ccm-backup-reader/ccmbackup/query/token"
)

// Parser consumes a Lexer's token stream and builds an ast.Expr.
type Parser struct {
	l      *lexer.Lexer
	cur    token.Token
	peek   token.Token
	errors []string
}

// New creates a Parser over the given query text.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.next()
	p.next()
	return p
}

// Parse parses a complete query expression: a "query" is simply an
// or_term, and no trailing tokens are expected.
func Parse(input string) (ast.Expr, error) {
	p := New(input)
	expr := p.parseOrTerm()
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("query: %s", p.errors[0])
	}
	if p.cur.Type != token.EOF {
		return nil, fmt.Errorf("query: unexpected trailing token %q at position %d", p.cur.Literal, p.cur.Pos)
	}
	return expr, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *Parser) isKeyword(word string) bool {
	return p.cur.Type == token.IDENT && p.cur.Literal == word
}

func (p *Parser) skipParen(kind token.Type) bool {
	if p.cur.Type == kind {
		p.next()
		return true
	}
	return false
}

func (p *Parser) parseOrTerm() ast.Expr {
	var terms []ast.Expr

	p.skipParen(token.LPAREN)
	terms = append(terms, p.parseAndTerm())
	p.skipParen(token.RPAREN)

	for p.isKeyword("or") {
		p.next()
		p.skipParen(token.LPAREN)
		terms = append(terms, p.parseAndTerm())
		p.skipParen(token.RPAREN)
	}

	if len(terms) == 1 {
		return terms[0]
	}
	return ast.Or{Terms: terms}
}

func (p *Parser) parseAndTerm() ast.Expr {
	var terms []ast.Expr

	p.skipParen(token.LPAREN)
	terms = append(terms, p.parseNotTerm())
	p.skipParen(token.RPAREN)

	for p.isKeyword("and") {
		p.next()
		p.skipParen(token.LPAREN)
		terms = append(terms, p.parseNotTerm())
		p.skipParen(token.RPAREN)
	}

	if len(terms) == 1 {
		return terms[0]
	}
	return ast.And{Terms: terms}
}

func (p *Parser) parseNotTerm() ast.Expr {
	if p.isKeyword("not") {
		p.next()
		return ast.Not{Term: p.parseTerm()}
	}
	return p.parseTerm()
}

func (p *Parser) parseTerm() ast.Expr {
	if p.cur.Type != token.IDENT {
		p.errorf("expected identifier at position %d, got %q", p.cur.Pos, p.cur.Literal)
		return nil
	}
	if token.Keywords[p.cur.Literal] {
		p.errorf("unexpected keyword %q at position %d", p.cur.Literal, p.cur.Pos)
		return nil
	}

	if p.peek.Type == token.LPAREN {
		return p.parseFunctionCall()
	}
	return p.parseAttributeMatch()
}

func (p *Parser) parseFunctionCall() ast.Expr {
	name := p.cur.Literal
	p.next() // consume ident
	p.next() // consume (

	var args []string
	if p.cur.Type == token.STRING {
		args = append(args, stripQuotes(p.cur.Literal))
		p.next()
		for p.cur.Type == token.COMMA {
			p.next()
			if p.cur.Type != token.STRING {
				p.errorf("expected string argument at position %d", p.cur.Pos)
				break
			}
			args = append(args, stripQuotes(p.cur.Literal))
			p.next()
		}
	}

	if p.cur.Type != token.RPAREN {
		p.errorf("expected ')' closing call to %s at position %d", name, p.cur.Pos)
	} else {
		p.next()
	}

	return ast.FunctionCall{Name: name, Args: args}
}

func (p *Parser) parseAttributeMatch() ast.Expr {
	attr := p.cur.Literal
	p.next()

	var comparator string
	switch p.cur.Type {
	case token.EQ:
		comparator = "="
	case token.MATCH:
		comparator = "match"
	default:
		p.errorf("expected comparator ('=' or 'match') at position %d, got %q", p.cur.Pos, p.cur.Literal)
	}
	p.next()

	if p.cur.Type != token.IDENT && p.cur.Type != token.STRING {
		p.errorf("expected atom (identifier or string) at position %d", p.cur.Pos)
		return ast.AttributeMatch{Attribute: attr, Comparator: comparator}
	}
	atom := p.cur.Literal
	p.next()

	return ast.AttributeMatch{Attribute: attr, Comparator: comparator, Atom: atom}
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
