package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

// parseExpr is the Pratt-parser entry point. Every prefix and infix handler
// leaves curTok on the first token past the production it parsed, matching
// the convention the rest of the parser (decls.go, types.go) already uses;
// parseExpr itself therefore inspects curTok, not peekTok, to decide
// whether to keep folding in infix operators.
func (p *Parser) parseExpr(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.addError("no prefix parse function for "+string(p.curTok.Type), p.toSpan(p.curTok))
		lit := ast.NewBasicLit(lexer.NIL, "nil", p.toSpan(p.curTok))
		p.nextToken()
		return lit
	}
	left := prefix()

	for !p.curTokenIs(lexer.SEMICOLON) && precedence < p.curPrecedence() {
		infix := p.infixFns[p.curTok.Type]
		if infix == nil {
			return left
		}
		left = infix(left)
	}
	return left
}

// parseIdentExpr parses an identifier, or a composite literal of a named type
// ("T{...}") where exprLev allows one.
func (p *Parser) parseIdentExpr() ast.Expr {
	id := p.parseIdent()
	if p.exprLev >= 0 && p.curTokenIs(lexer.LBRACE) {
		return p.parseCompositeLitBody(ast.NewNamedTypeExpr(nil, id, id.Span()), id.Span())
	}
	return id
}

func (p *Parser) parseBasicLit() ast.Expr {
	lit := ast.NewBasicLit(p.curTok.Type, p.curTok.Value, p.toSpan(p.curTok))
	p.nextToken()
	return lit
}

func (p *Parser) parseParenExpr() ast.Expr {
	start := p.toSpan(p.curTok)
	p.exprLev++
	p.nextToken() // consume '('
	x := p.parseExpr(precedenceLowest)
	p.exprLev--
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		p.addError("expected ')' to close parenthesized expression", end)
	}
	return ast.NewParenExpr(x, mergeSpan(start, end))
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	op := p.curTok.Type
	start := p.toSpan(p.curTok)
	p.nextToken() // consume operator
	x := p.parseExpr(precedencePrefix)
	return ast.NewUnaryExpr(op, x, mergeSpan(start, x.Span()))
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	op := p.curTok.Type
	precedence := p.curPrecedence()
	p.nextToken() // consume operator
	right := p.parseExpr(precedence)
	return ast.NewBinaryExpr(left, op, right, mergeSpan(left.Span(), right.Span()))
}

func (p *Parser) parseCallExpr(fun ast.Expr) ast.Expr {
	start := fun.Span()
	p.exprLev++
	p.nextToken() // consume '('

	var args []ast.Expr
	ellipsis := false
	for !p.curTokenIs(lexer.RPAREN) && !p.curTokenIs(lexer.EOF) {
		args = append(args, p.parseExpr(precedenceLowest))
		if p.curTokenIs(lexer.ELLIPSIS) {
			p.nextToken()
			ellipsis = true
		}
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.exprLev--
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		p.addError("expected ')' to close call arguments", end)
	}
	return ast.NewCallExpr(fun, args, ellipsis, mergeSpan(start, end))
}

func (p *Parser) parseIndexExpr(x ast.Expr) ast.Expr {
	start := x.Span()
	p.nextToken() // consume '['
	idx := p.parseExpr(precedenceLowest)
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RBRACKET) {
		p.nextToken()
	} else {
		p.addError("expected ']' to close index expression", end)
	}
	return ast.NewIndexExpr(x, idx, mergeSpan(start, end))
}

func (p *Parser) parseSelectorExpr(x ast.Expr) ast.Expr {
	p.nextToken() // consume '.'
	sel := p.parseIdent()
	return ast.NewSelectorExpr(x, sel, mergeSpan(x.Span(), sel.Span()))
}

func (p *Parser) parseFuncLit() ast.Expr {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'func'
	sig := p.parseFuncTypeExpr(start)
	body := p.parseBlockStmt()
	return ast.NewFuncLit(sig, body, mergeSpan(start, body.Span()))
}

// parseCompositeLitFromType handles a type expression appearing directly in
// expression position because it is immediately followed by a composite
// literal body: "struct{...}{...}", "map[K]V{...}", "[]T{...}".
func (p *Parser) parseCompositeLitFromType() ast.Expr {
	start := p.toSpan(p.curTok)
	typ := p.parseTypeExpr()
	if !p.curTokenIs(lexer.LBRACE) {
		return ast.NewCompositeLit(typ, nil, mergeSpan(start, typ.Span()))
	}
	return p.parseCompositeLitBody(typ, start)
}

func (p *Parser) parseCompositeLitBody(typ ast.TypeExpr, start lexer.Span) ast.Expr {
	p.nextToken() // consume '{'
	p.exprLev++
	p.skipTerminators()

	var elts []ast.Expr
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		elt := p.parseExpr(precedenceLowest)
		if p.curTokenIs(lexer.COLON) {
			p.nextToken() // consume ':'
			val := p.parseExpr(precedenceLowest)
			elt = ast.NewKeyValueExpr(elt, val, mergeSpan(elt.Span(), val.Span()))
		}
		elts = append(elts, elt)
		p.skipTerminators()
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			p.skipTerminators()
			continue
		}
		break
	}
	p.exprLev--
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RBRACE) {
		p.nextToken()
	} else {
		p.addError("expected '}' to close composite literal", end)
	}
	return ast.NewCompositeLit(typ, elts, mergeSpan(start, end))
}
