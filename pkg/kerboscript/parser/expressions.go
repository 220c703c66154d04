package parser

import (
	"fmt"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/ast"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// Expression parsing is precedence climbing through a fixed chain:
// or > and > equality > comparison > additive > multiplicative > unary >
// factor > suffix chain > atom. Each binary level folds left-associative
// nodes in a loop; the power operator is right-recursive.

func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.curIs(token.OR) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseEquality()
	for p.curIs(token.AND) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseEquality()}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseComparison()
	for p.curIs(token.EQ) || p.curIs(token.NOTEQ) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseComparison()}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for p.curIs(token.LT) || p.curIs(token.GT) || p.curIs(token.LTE) || p.curIs(token.GTE) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseAdditive()}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseMultiplicative()}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.curIs(token.MULT) || p.curIs(token.DIV) {
		op := p.advance()
		left = &ast.Binary{Left: left, Op: op, Right: p.parseUnary()}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur().Kind {
	case token.PLUS, token.MINUS, token.NOT, token.DEFINED:
		op := p.advance()
		return &ast.Unary{Op: op, Operand: p.parseUnary()}
	}
	return p.parseFactor()
}

// parseFactor parses the power operator, right-recursively.
func (p *Parser) parseFactor() ast.Expression {
	base := p.parseSuffixChain()
	if p.curIs(token.POWER) {
		op := p.advance()
		return &ast.Factor{Base: base, Power: op, Exponent: p.parseFactor()}
	}
	return base
}

// parseSuffixChain parses an atom followed by zero or more trailers, each
// wrapping the node built so far.
func (p *Parser) parseSuffixChain() ast.Expression {
	expr := p.parseAtom()
	for {
		switch p.cur().Kind {
		case token.COLON:
			p.advance()
			name := p.expect(token.IDENT, "suffix", "ship:altitude")
			expr = &ast.Suffix{Base: expr, Name: name}
		case token.LPAREN:
			open := p.advance()
			args := p.parseArguments()
			closing := p.expect(token.RPAREN, "call", "name(arg1, arg2)")
			expr = &ast.Call{Callee: expr, Open: open, Args: args, Close: closing}
		case token.LBRACKET:
			p.advance()
			index := p.parseExpression()
			closing := p.expect(token.RBRACKET, "index", "list[0]")
			expr = &ast.ArrayBracket{Base: expr, Index: index, Close: closing}
		case token.HASH:
			p.advance()
			if !p.curIs(token.INTEGER) && !p.curIs(token.IDENT) {
				p.fail("index", "list#0",
					fmt.Sprintf("expected an index after '#', found '%s'", p.cur().Lexeme))
			}
			expr = &ast.ArrayIndex{Base: expr, Index: p.advance()}
		case token.ATSIGN:
			expr = &ast.Delegate{Expr: expr, At: p.advance()}
		default:
			return expr
		}
	}
}

// parseArguments parses a comma-separated argument list; the caller consumes
// the surrounding parentheses.
func (p *Parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	if p.curIs(token.RPAREN) {
		return args
	}
	args = append(args, p.parseExpression())
	for p.match(token.COMMA) {
		args = append(args, p.parseExpression())
	}
	return args
}

func (p *Parser) parseAtom() ast.Expression {
	switch p.cur().Kind {
	case token.INTEGER, token.DOUBLE, token.STRING, token.TRUE, token.FALSE:
		return &ast.Literal{Token: p.advance()}
	case token.IDENT:
		return &ast.Identifier{Token: p.advance()}
	case token.LPAREN:
		open := p.advance()
		expr := p.parseExpression()
		closing := p.expect(token.RPAREN, "grouping", "(expression)")
		return &ast.Grouping{Open: open, Expr: expr, Close: closing}
	case token.LBRACE:
		block := p.parseBlock()
		return &ast.AnonymousFunction{
			Open:         block.Open,
			Instructions: block.Instructions,
			Close:        block.Close,
		}
	}
	p.fail("expression", "", fmt.Sprintf("expected an expression, found '%s'", p.cur().Lexeme))
	return nil
}
