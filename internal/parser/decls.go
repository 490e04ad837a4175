package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'func'

	var recv *ast.Receiver
	if p.curTokenIs(lexer.LPAREN) {
		recv = p.parseReceiver()
	}

	name := p.parseIdent()
	sig := p.parseFuncTypeExpr(name.Span())

	var body *ast.BlockStmt
	if p.curTokenIs(lexer.LBRACE) {
		body = p.parseBlockStmt()
	}
	end := sig.Span()
	if body != nil {
		end = body.Span()
	}
	return ast.NewFuncDecl(recv, name, sig, body, mergeSpan(start, end))
}

// parseReceiver parses "(r *T)" or "(r T)" with curTok at the opening '('.
func (p *Parser) parseReceiver() *ast.Receiver {
	p.nextToken() // consume '('
	name := p.parseIdent()

	pointer := false
	if p.curTokenIs(lexer.ASTERISK) {
		pointer = true
		p.nextToken()
	}
	typeName := p.parseIdent()
	var typ ast.TypeExpr = ast.NewNamedTypeExpr(nil, typeName, typeName.Span())
	if pointer {
		typ = ast.NewPointerTypeExpr(typ, typeName.Span())
	}
	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		p.addError("expected ')' to close receiver", p.toSpan(p.curTok))
	}
	return &ast.Receiver{Name: name, Type: typ, Pointer: pointer}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'var'
	return p.parseVarOrConstBody(start, ast.NewVarDecl)
}

func (p *Parser) parseConstDecl() *ast.ConstDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'const'
	return p.parseVarOrConstBodyConst(start)
}

func (p *Parser) parseVarOrConstBody(start lexer.Span, build func([]*ast.Ident, ast.TypeExpr, []ast.Expr, lexer.Span) *ast.VarDecl) *ast.VarDecl {
	names := []*ast.Ident{p.parseIdent()}
	for p.curTokenIs(lexer.COMMA) {
		p.nextToken()
		names = append(names, p.parseIdent())
	}

	var typ ast.TypeExpr
	if !p.curTokenIs(lexer.ASSIGN) && !p.curTokenIs(lexer.SEMICOLON) && !p.curTokenIs(lexer.EOF) {
		typ = p.parseTypeExpr()
	}

	var values []ast.Expr
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.ASSIGN) {
		p.nextToken()
		values = p.parseExprList()
		if len(values) > 0 {
			end = values[len(values)-1].Span()
		}
	}
	return build(names, typ, values, mergeSpan(start, end))
}

func (p *Parser) parseVarOrConstBodyConst(start lexer.Span) *ast.ConstDecl {
	v := p.parseVarOrConstBody(start, ast.NewVarDecl)
	return ast.NewConstDecl(v.Names, v.Type, v.Values, v.Span())
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'type'
	name := p.parseIdent()
	typ := p.parseTypeExpr()
	return ast.NewTypeDecl(name, typ, mergeSpan(start, typ.Span()))
}

func (p *Parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr(precedenceLowest)}
	for p.curTokenIs(lexer.COMMA) {
		p.nextToken()
		exprs = append(exprs, p.parseExpr(precedenceLowest))
	}
	return exprs
}
