package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/lexer"
)

// parseBlockStmt parses "{ Stmt* }" with curTok at the opening '{'.
func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	start := p.toSpan(p.curTok)
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError("expected '{' to start block", start)
		return ast.NewBlockStmt(nil, start)
	}
	p.nextToken() // consume '{'
	p.skipTerminators()

	var stmts []ast.Stmt
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		} else {
			p.nextToken()
		}
		p.skipTerminators()
	}
	end := p.toSpan(p.curTok)
	if p.curTokenIs(lexer.RBRACE) {
		p.nextToken()
	} else {
		p.addError("expected '}' to close block", end)
	}
	return ast.NewBlockStmt(stmts, mergeSpan(start, end))
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curTok.Type {
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.CONST:
		return p.parseConstDecl()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.BREAK, lexer.CONTINUE:
		return p.parseBranchStmt()
	case lexer.DEFER:
		return p.parseDeferStmt()
	case lexer.GO:
		return p.parseGoStmt()
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.SELECT:
		return p.parseSelectStmt()
	case lexer.LBRACE:
		return p.parseBlockStmt()
	default:
		return p.parseSimpleStmt()
	}
}

func isAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.ASSIGN, lexer.DEFINE,
		lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN, lexer.SLASH_ASSIGN,
		lexer.PERCENT_ASSIGN, lexer.AMPERSAND_ASSIGN, lexer.PIPE_ASSIGN, lexer.CARET_ASSIGN:
		return true
	default:
		return false
	}
}

// parseSimpleStmt covers the statement forms that begin with an expression:
// plain expression statements, sends, increment/decrement, and (possibly
// multi-valued) assignment including ":=". On entry and return curTok sits
// on the first token past the statement, matching every other parse
// function in this package.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	first := p.parseExpr(precedenceLowest)
	lhs := []ast.Expr{first}
	for p.curTokenIs(lexer.COMMA) {
		p.nextToken()
		lhs = append(lhs, p.parseExpr(precedenceLowest))
	}

	switch {
	case p.curTokenIs(lexer.LARROW):
		p.nextToken() // consume '<-'
		val := p.parseExpr(precedenceLowest)
		return ast.NewSendStmt(lhs[0], val, mergeSpan(start, val.Span()))

	case p.curTokenIs(lexer.INC), p.curTokenIs(lexer.DEC):
		inc := p.curTokenIs(lexer.INC)
		end := p.toSpan(p.curTok)
		p.nextToken()
		return ast.NewIncDecStmt(lhs[0], inc, mergeSpan(start, end))

	case isAssignOp(p.curTok.Type):
		op := p.curTok.Type
		p.nextToken() // consume operator
		rhs := p.parseExprList()
		return ast.NewAssignStmt(lhs, op, rhs, mergeSpan(start, rhs[len(rhs)-1].Span()))

	default:
		return ast.NewExprStmt(lhs[0], mergeSpan(start, lhs[0].Span()))
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'return'
	if p.curTokenIs(lexer.SEMICOLON) || p.curTokenIs(lexer.RBRACE) || p.curTokenIs(lexer.EOF) {
		return ast.NewReturnStmt(nil, start)
	}
	results := p.parseExprList()
	end := start
	if len(results) > 0 {
		end = results[len(results)-1].Span()
	}
	return ast.NewReturnStmt(results, mergeSpan(start, end))
}

func (p *Parser) parseBranchStmt() ast.Stmt {
	tok := p.curTok.Type
	start := p.toSpan(p.curTok)
	p.nextToken()
	var label *ast.Ident
	if p.curTokenIs(lexer.IDENT) {
		label = p.parseIdent()
	}
	end := start
	if label != nil {
		end = label.Span()
	}
	return ast.NewBranchStmt(tok, label, mergeSpan(start, end))
}

func (p *Parser) parseDeferStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'defer'
	call := p.parseExpr(precedenceLowest)
	c, ok := call.(*ast.CallExpr)
	if !ok {
		p.addError("defer requires a function call", call.Span())
		return ast.NewDeferStmt(ast.NewCallExpr(call, nil, false, call.Span()), mergeSpan(start, call.Span()))
	}
	return ast.NewDeferStmt(c, mergeSpan(start, c.Span()))
}

func (p *Parser) parseGoStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'go'
	call := p.parseExpr(precedenceLowest)
	c, ok := call.(*ast.CallExpr)
	if !ok {
		p.addError("go requires a function call", call.Span())
		return ast.NewGoStmt(ast.NewCallExpr(call, nil, false, call.Span()), mergeSpan(start, call.Span()))
	}
	return ast.NewGoStmt(c, mergeSpan(start, c.Span()))
}

// parseHeaderSimpleStmt parses a simple statement used as a for/if/switch
// init or post clause, stopping before a terminating ';' or '{' rather than
// consuming it.
func (p *Parser) parseHeaderSimpleStmt() ast.Stmt {
	return p.parseSimpleStmt()
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'if'
	p.exprLev--

	var init ast.Stmt
	var cond ast.Expr
	first := p.parseHeaderSimpleStmt()
	if p.curTokenIs(lexer.SEMICOLON) {
		init = first
		p.nextToken()
		cond = p.parseExpr(precedenceLowest)
	} else if es, ok := first.(*ast.ExprStmt); ok {
		cond = es.X
	} else {
		p.addError("expected boolean condition in if statement", first.Span())
		cond = ast.NewBasicLit(lexer.TRUE, "true", first.Span())
	}
	p.exprLev++

	if !p.curTokenIs(lexer.LBRACE) {
		p.addError("expected '{' to start if body", p.toSpan(p.curTok))
		return ast.NewIfStmt(init, cond, ast.NewBlockStmt(nil, start), nil, start)
	}
	body := p.parseBlockStmt()

	var els ast.Stmt
	end := body.Span()
	if p.curTokenIs(lexer.ELSE) {
		p.nextToken()
		switch p.curTok.Type {
		case lexer.IF:
			els = p.parseIfStmt()
		case lexer.LBRACE:
			els = p.parseBlockStmt()
		default:
			p.addError("expected 'if' or '{' after 'else'", p.toSpan(p.curTok))
		}
		if els != nil {
			end = els.Span()
		}
	}
	return ast.NewIfStmt(init, cond, body, els, mergeSpan(start, end))
}

// parseForStmt handles the three-clause, condition-only, infinite, and
// range forms, dispatching to a RangeStmt when the header is
// "[Key[, Value] :=|=] range X".
func (p *Parser) parseForStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'for'
	p.exprLev--

	if p.curTokenIs(lexer.LBRACE) {
		p.exprLev++
		body := p.parseBlockStmt()
		return ast.NewForStmt(nil, nil, nil, body, mergeSpan(start, body.Span()))
	}

	if rs := p.tryParseRangeHeader(start); rs != nil {
		p.exprLev++
		if !p.curTokenIs(lexer.LBRACE) {
			p.addError("expected '{' after range clause", p.toSpan(p.curTok))
		}
		body := p.parseBlockStmt()
		rs.Body = body
		rs.SetSpan(mergeSpan(start, body.Span()))
		return rs
	}

	// Condition-only form: "for Cond { ... }".
	if !p.curTokenIs(lexer.SEMICOLON) {
		save := p.snapshot()
		cond := p.parseExpr(precedenceLowest)
		if p.curTokenIs(lexer.LBRACE) {
			p.exprLev++
			body := p.parseBlockStmt()
			return ast.NewForStmt(nil, cond, nil, body, mergeSpan(start, body.Span()))
		}
		p.restore(save)
	}

	// Three-clause form: "for Init; Cond; Post { ... }".
	var init ast.Stmt
	if !p.curTokenIs(lexer.SEMICOLON) {
		init = p.parseHeaderSimpleStmt()
	}
	if !p.expectCurOrAdvance(lexer.SEMICOLON) {
		p.exprLev++
		body := p.parseBlockStmt()
		return ast.NewForStmt(init, nil, nil, body, mergeSpan(start, body.Span()))
	}

	var cond ast.Expr
	if !p.curTokenIs(lexer.SEMICOLON) {
		cond = p.parseExpr(precedenceLowest)
	}
	if !p.expectCurOrAdvance(lexer.SEMICOLON) {
		p.exprLev++
		body := p.parseBlockStmt()
		return ast.NewForStmt(init, cond, nil, body, mergeSpan(start, body.Span()))
	}

	var post ast.Stmt
	if !p.curTokenIs(lexer.LBRACE) {
		post = p.parseHeaderSimpleStmt()
	}
	p.exprLev++
	if !p.curTokenIs(lexer.LBRACE) {
		p.addError("expected '{' to start for body", p.toSpan(p.curTok))
	}
	body := p.parseBlockStmt()
	return ast.NewForStmt(init, cond, post, body, mergeSpan(start, body.Span()))
}

// expectCurOrAdvance consumes curTok if it matches t and advances past it,
// leaving curTok on the following token; reports an error and leaves curTok
// untouched otherwise.
func (p *Parser) expectCurOrAdvance(t lexer.TokenType) bool {
	if !p.curTokenIs(t) {
		p.addError("expected "+string(t)+", got "+string(p.curTok.Type), p.toSpan(p.curTok))
		return false
	}
	p.nextToken()
	return true
}

type parserSnapshot struct {
	curTok  lexer.Token
	peekTok lexer.Token
	lx      lexer.Lexer
}

func (p *Parser) snapshot() parserSnapshot {
	return parserSnapshot{curTok: p.curTok, peekTok: p.peekTok, lx: *p.lx}
}

func (p *Parser) restore(s parserSnapshot) {
	p.curTok = s.curTok
	p.peekTok = s.peekTok
	*p.lx = s.lx
}

// tryParseRangeHeader attempts to parse "[Key[, Value] (:=|=)] range X" and
// returns nil without consuming input if the header is not a range clause.
func (p *Parser) tryParseRangeHeader(start lexer.Span) *ast.RangeStmt {
	if p.curTokenIs(lexer.RANGE) {
		p.nextToken()
		x := p.parseExpr(precedenceLowest)
		return ast.NewRangeStmt(nil, nil, false, x, nil, start)
	}

	save := p.snapshot()
	if !p.curTokenIs(lexer.IDENT) {
		return nil
	}
	key := p.parseIdent()
	var value *ast.Ident
	if p.curTokenIs(lexer.COMMA) {
		p.nextToken()
		if !p.curTokenIs(lexer.IDENT) {
			p.restore(save)
			return nil
		}
		value = p.parseIdent()
	}
	if !p.curTokenIs(lexer.DEFINE) && !p.curTokenIs(lexer.ASSIGN) {
		p.restore(save)
		return nil
	}
	define := p.curTokenIs(lexer.DEFINE)
	p.nextToken()
	if !p.curTokenIs(lexer.RANGE) {
		p.restore(save)
		return nil
	}
	p.nextToken()
	x := p.parseExpr(precedenceLowest)
	return ast.NewRangeStmt(key, value, define, x, nil, start)
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'switch'
	p.exprLev--

	var init ast.Stmt
	var tag ast.Expr
	if !p.curTokenIs(lexer.LBRACE) {
		first := p.parseHeaderSimpleStmt()
		if p.curTokenIs(lexer.SEMICOLON) {
			init = first
			p.nextToken()
			if !p.curTokenIs(lexer.LBRACE) {
				tag = p.parseExpr(precedenceLowest)
			}
		} else if es, ok := first.(*ast.ExprStmt); ok {
			tag = es.X
		}
	}
	p.exprLev++

	if !p.expectCurOrAdvance(lexer.LBRACE) {
		return ast.NewSwitchStmt(init, tag, nil, start)
	}
	p.skipTerminators()

	var cases []ast.SwitchCase
	for p.curTokenIs(lexer.CASE) || p.curTokenIs(lexer.DEFAULT) {
		cases = append(cases, p.parseSwitchCase())
		p.skipTerminators()
	}
	end := p.toSpan(p.curTok)
	if !p.expectCurOrAdvance(lexer.RBRACE) {
		p.addError("expected '}' to close switch", end)
	}
	return ast.NewSwitchStmt(init, tag, cases, mergeSpan(start, end))
}

func (p *Parser) parseSwitchCase() ast.SwitchCase {
	var values []ast.Expr
	if p.curTokenIs(lexer.CASE) {
		p.nextToken()
		values = p.parseExprList()
	} else {
		p.nextToken() // consume 'default'
	}
	if !p.expectCurOrAdvance(lexer.COLON) {
		p.addError("expected ':' after case", p.toSpan(p.curTok))
	}
	p.skipTerminators()

	var body []ast.Stmt
	for !p.curTokenIs(lexer.CASE) && !p.curTokenIs(lexer.DEFAULT) &&
		!p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if s := p.parseStmt(); s != nil {
			body = append(body, s)
		} else {
			p.nextToken()
		}
		p.skipTerminators()
	}
	return ast.SwitchCase{Values: values, Body: body}
}

func (p *Parser) parseSelectStmt() ast.Stmt {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'select'
	if !p.expectCurOrAdvance(lexer.LBRACE) {
		return ast.NewSelectStmt(nil, start)
	}
	p.skipTerminators()

	var cases []ast.SelectCase
	for p.curTokenIs(lexer.CASE) || p.curTokenIs(lexer.DEFAULT) {
		cases = append(cases, p.parseSelectCase())
		p.skipTerminators()
	}
	end := p.toSpan(p.curTok)
	if !p.expectCurOrAdvance(lexer.RBRACE) {
		p.addError("expected '}' to close select", end)
	}
	return ast.NewSelectStmt(cases, mergeSpan(start, end))
}

func (p *Parser) parseSelectCase() ast.SelectCase {
	var comm ast.Stmt
	if p.curTokenIs(lexer.CASE) {
		p.nextToken()
		comm = p.parseSimpleStmt()
	} else {
		p.nextToken() // consume 'default'
	}
	if !p.expectCurOrAdvance(lexer.COLON) {
		p.addError("expected ':' after select case", p.toSpan(p.curTok))
	}
	p.skipTerminators()

	var body []ast.Stmt
	for !p.curTokenIs(lexer.CASE) && !p.curTokenIs(lexer.DEFAULT) &&
		!p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if s := p.parseStmt(); s != nil {
			body = append(body, s)
		} else {
			p.nextToken()
		}
		p.skipTerminators()
	}
	return ast.SelectCase{Comm: comm, Body: body}
}
