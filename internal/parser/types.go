package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	start := p.toSpan(p.curTok)
	switch p.curTok.Type {
	case lexer.ASTERISK:
		p.nextToken()
		elem := p.parseTypeExpr()
		return ast.NewPointerTypeExpr(elem, mergeSpan(start, elem.Span()))

	case lexer.LBRACKET:
		p.nextToken() // consume '['
		if !p.curTokenIs(lexer.RBRACKET) {
			p.addError("fixed-size array types are not supported, use a slice", p.toSpan(p.curTok))
		}
		p.nextToken() // consume ']'
		elem := p.parseTypeExpr()
		return ast.NewSliceTypeExpr(elem, mergeSpan(start, elem.Span()))

	case lexer.MAP:
		p.nextToken() // consume 'map'
		if !p.expectPeekOrCur(lexer.LBRACKET) {
			return ast.NewNamedTypeExpr(nil, ast.NewIdent("_", start), start)
		}
		p.nextToken() // consume '['
		key := p.parseTypeExpr()
		if !p.curTokenIs(lexer.RBRACKET) {
			p.addError("expected ']' in map type", p.toSpan(p.curTok))
		} else {
			p.nextToken()
		}
		value := p.parseTypeExpr()
		return ast.NewMapTypeExpr(key, value, mergeSpan(start, value.Span()))

	case lexer.CHAN:
		p.nextToken()
		elem := p.parseTypeExpr()
		return ast.NewChanTypeExpr(elem, mergeSpan(start, elem.Span()))

	case lexer.STRUCT:
		return p.parseStructType(start)

	case lexer.INTERFACE:
		return p.parseInterfaceType(start)

	case lexer.FUNC:
		p.nextToken()
		return p.parseFuncTypeExpr(start)

	case lexer.IDENT:
		name := p.parseIdent()
		if p.curTokenIs(lexer.DOT) {
			p.nextToken()
			sel := p.parseIdent()
			return ast.NewNamedTypeExpr(name, sel, mergeSpan(start, sel.Span()))
		}
		return ast.NewNamedTypeExpr(nil, name, mergeSpan(start, name.Span()))

	default:
		p.addError("expected type, got "+string(p.curTok.Type), start)
		p.nextToken()
		return ast.NewNamedTypeExpr(nil, ast.NewIdent("_", start), start)
	}
}

// expectPeekOrCur reports whether the current token matches t, without
// advancing, and otherwise records an error; used where a token is mandatory
// but there is no useful fallback recovery.
func (p *Parser) expectPeekOrCur(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		return true
	}
	p.addError("expected "+string(t)+", got "+string(p.curTok.Type), p.toSpan(p.curTok))
	return false
}

func (p *Parser) parseStructType(start lexer.Span) ast.TypeExpr {
	p.nextToken() // consume 'struct'
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError("expected '{' after struct", p.toSpan(p.curTok))
		return ast.NewStructTypeExpr(nil, start)
	}
	p.nextToken() // consume '{'
	p.skipTerminators()

	var fields []ast.Field
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		fields = append(fields, p.parseStructField())
		p.skipTerminators()
	}
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RBRACE) {
		p.nextToken()
	}
	return ast.NewStructTypeExpr(fields, mergeSpan(start, end))
}

func (p *Parser) parseStructField() ast.Field {
	if p.curTokenIs(lexer.ASTERISK) {
		ptrStart := p.toSpan(p.curTok)
		p.nextToken()
		name := p.parseIdent()
		return ast.Field{
			Type:     ast.NewPointerTypeExpr(ast.NewNamedTypeExpr(nil, name, name.Span()), mergeSpan(ptrStart, name.Span())),
			Embedded: true,
		}
	}

	name := p.parseIdent()
	if p.curTokenIs(lexer.DOT) {
		p.nextToken()
		sel := p.parseIdent()
		return ast.Field{Type: ast.NewNamedTypeExpr(name, sel, mergeSpan(name.Span(), sel.Span())), Embedded: true}
	}
	if p.curTokenIs(lexer.SEMICOLON) || p.curTokenIs(lexer.RBRACE) {
		return ast.Field{Type: ast.NewNamedTypeExpr(nil, name, name.Span()), Embedded: true}
	}
	typ := p.parseTypeExpr()
	return ast.Field{Name: name, Type: typ}
}

func (p *Parser) parseInterfaceType(start lexer.Span) ast.TypeExpr {
	p.nextToken() // consume 'interface'
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError("expected '{' after interface", p.toSpan(p.curTok))
		return ast.NewInterfaceTypeExpr(nil, start)
	}
	p.nextToken()
	p.skipTerminators()

	var methods []ast.Field
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		name := p.parseIdent()
		if p.curTokenIs(lexer.LPAREN) {
			sig := p.parseFuncTypeExpr(name.Span())
			methods = append(methods, ast.Field{Name: name, Type: sig})
		} else {
			methods = append(methods, ast.Field{Type: ast.NewNamedTypeExpr(nil, name, name.Span()), Embedded: true})
		}
		p.skipTerminators()
	}
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RBRACE) {
		p.nextToken()
	}
	return ast.NewInterfaceTypeExpr(methods, mergeSpan(start, end))
}

// parseFuncTypeExpr parses "(params) (results)" with curTok positioned at
// the opening '(' of the parameter list.
func (p *Parser) parseFuncTypeExpr(start lexer.Span) *ast.FuncTypeExpr {
	params, variadic := p.parseParamList()
	var results []ast.Field
	if p.curTokenIs(lexer.LPAREN) {
		results, _ = p.parseParamList()
	} else if !p.curTokenIs(lexer.LBRACE) && !p.curTokenIs(lexer.SEMICOLON) &&
		!p.curTokenIs(lexer.EOF) && !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.COMMA) &&
		!p.curTokenIs(lexer.RPAREN) {
		results = []ast.Field{{Type: p.parseTypeExpr()}}
	}
	end := p.toSpan(p.curTok)
	return ast.NewFuncTypeExpr(params, results, variadic, mergeSpan(start, end))
}

// parseParamList parses "(name Type, name Type, ... name ...Type)".
func (p *Parser) parseParamList() ([]ast.Field, bool) {
	if !p.curTokenIs(lexer.LPAREN) {
		p.addError("expected '(' to start parameter list", p.toSpan(p.curTok))
		return nil, false
	}
	p.nextToken() // consume '('

	var fields []ast.Field
	variadic := false
	for !p.curTokenIs(lexer.RPAREN) && !p.curTokenIs(lexer.EOF) {
		name := p.parseIdent()
		if p.curTokenIs(lexer.ELLIPSIS) {
			p.nextToken()
			variadic = true
		}
		typ := p.parseTypeExpr()
		fields = append(fields, ast.Field{Name: name, Type: typ})
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		p.addError("expected ')' to close parameter list", p.toSpan(p.curTok))
	}
	return fields, variadic
}
