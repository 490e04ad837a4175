// Package parser implements a Pratt-style recursive descent parser that
// turns a token stream into an internal/ast tree for the Go-like surface
// syntax internal/codegen consumes.
package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the
// provided filename.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

const (
	precedenceLowest = iota
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedencePostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.PIPE:     precedenceSum,
	lexer.CARET:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.PERCENT:  precedenceProduct,
	lexer.AMPERSAND: precedenceProduct,
	lexer.SHL:      precedenceProduct,
	lexer.SHR:      precedenceProduct,
	lexer.LPAREN:   precedencePostfix,
	lexer.LBRACKET: precedencePostfix,
	lexer.DOT:      precedencePostfix,
}

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Severity diag.Severity
}

// Parser implements a Pratt-style recursive descent parser for Ember.
//
// Invariants:
//   - Lookahead: curTok always reflects the token currently under
//     examination; peekTok mirrors the next token. The pair forms the
//     parser's sole lookahead window and is only mutated via nextToken.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     diagnostics. Callers consult Errors() after ParseFile.
//   - exprLev tracks whether a composite literal is syntactically legal at
//     the current position, mirroring the ambiguity rule that "if x{}"
//     parses x as a condition, not the start of a struct literal: it is
//     decremented while parsing if/for/switch headers and restored after.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError

	filename string
	exprLev  int

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New constructs a parser over src.
func New(src string, opts ...Option) *Parser {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	p := &Parser{lx: lexer.New(src), filename: o.filename}
	p.nextToken()
	p.nextToken()

	p.prefixFns = map[lexer.TokenType]prefixParseFn{
		lexer.IDENT:     p.parseIdentExpr,
		lexer.INT:       p.parseBasicLit,
		lexer.FLOAT:     p.parseBasicLit,
		lexer.STRING:    p.parseBasicLit,
		lexer.TRUE:      p.parseBasicLit,
		lexer.FALSE:     p.parseBasicLit,
		lexer.NIL:       p.parseBasicLit,
		lexer.LPAREN:    p.parseParenExpr,
		lexer.BANG:      p.parseUnaryExpr,
		lexer.MINUS:     p.parseUnaryExpr,
		lexer.AMPERSAND: p.parseUnaryExpr,
		lexer.ASTERISK:  p.parseUnaryExpr,
		lexer.LARROW:    p.parseUnaryExpr,
		lexer.FUNC:      p.parseFuncLit,
		lexer.STRUCT:    p.parseCompositeLitFromType,
		lexer.MAP:       p.parseCompositeLitFromType,
		lexer.LBRACKET:  p.parseCompositeLitFromType,
	}
	p.infixFns = map[lexer.TokenType]infixParseFn{
		lexer.PLUS:      p.parseBinaryExpr,
		lexer.MINUS:     p.parseBinaryExpr,
		lexer.ASTERISK:  p.parseBinaryExpr,
		lexer.SLASH:     p.parseBinaryExpr,
		lexer.PERCENT:   p.parseBinaryExpr,
		lexer.AMPERSAND: p.parseBinaryExpr,
		lexer.PIPE:      p.parseBinaryExpr,
		lexer.CARET:     p.parseBinaryExpr,
		lexer.SHL:       p.parseBinaryExpr,
		lexer.SHR:       p.parseBinaryExpr,
		lexer.AND:       p.parseBinaryExpr,
		lexer.OR:        p.parseBinaryExpr,
		lexer.EQ:        p.parseBinaryExpr,
		lexer.NOT_EQ:    p.parseBinaryExpr,
		lexer.LT:        p.parseBinaryExpr,
		lexer.LE:        p.parseBinaryExpr,
		lexer.GT:        p.parseBinaryExpr,
		lexer.GE:        p.parseBinaryExpr,
		lexer.LPAREN:    p.parseCallExpr,
		lexer.LBRACKET:  p.parseIndexExpr,
		lexer.DOT:       p.parseSelectorExpr,
	}
	return p
}

// Errors returns every recoverable diagnostic collected while parsing.
func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) addError(msg string, span lexer.Span) {
	span.Filename = p.filename
	p.errors = append(p.errors, ParseError{Message: msg, Span: span, Severity: diag.SeverityError})
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
	for p.peekTok.Type == lexer.WHITESPACE || p.peekTok.Type == lexer.NEWLINE ||
		p.peekTok.Type == lexer.LINE_COMMENT || p.peekTok.Type == lexer.BLOCK_COMMENT {
		p.peekTok = p.lx.NextToken()
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curTok.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekTok.Type == t }

func (p *Parser) toSpan(tok lexer.Token) lexer.Span {
	s := tok.Span
	s.Filename = p.filename
	return s
}

func mergeSpan(a, b lexer.Span) lexer.Span {
	if b.End > a.End {
		a.End = b.End
	}
	return a
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curTok.Type]; ok {
		return pr
	}
	return precedenceLowest
}

// skipTerminators consumes any number of statement-separating semicolons.
func (p *Parser) skipTerminators() {
	for p.curTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

// ParseFile parses a complete compilation unit.
func (p *Parser) ParseFile() *ast.File {
	start := p.toSpan(p.curTok)
	f := ast.NewFile(start)

	if p.curTokenIs(lexer.PACKAGE) {
		f.Package = p.parsePackageDecl()
	}
	p.skipTerminators()

	for p.curTokenIs(lexer.IMPORT) {
		f.Imports = append(f.Imports, p.parseImportDecl())
		p.skipTerminators()
	}

	for !p.curTokenIs(lexer.EOF) {
		if d := p.parseDecl(); d != nil {
			f.Decls = append(f.Decls, d)
		} else {
			p.nextToken()
		}
		p.skipTerminators()
	}

	f.SetSpan(mergeSpan(start, p.toSpan(p.curTok)))
	return f
}

func (p *Parser) parsePackageDecl() *ast.PackageDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'package'
	name := p.parseIdent()
	return ast.NewPackageDecl(name, mergeSpan(start, name.Span()))
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.toSpan(p.curTok)
	p.nextToken() // consume 'import'

	var alias *ast.Ident
	if p.curTokenIs(lexer.IDENT) {
		alias = p.parseIdent()
	}
	if !p.curTokenIs(lexer.STRING) {
		p.addError("expected import path string, got "+string(p.curTok.Type), p.toSpan(p.curTok))
		return ast.NewImportDecl(alias, "", start)
	}
	path := p.curTok.Value
	end := p.toSpan(p.curTok)
	p.nextToken()
	return ast.NewImportDecl(alias, path, mergeSpan(start, end))
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.curTok.Type {
	case lexer.FUNC:
		return p.parseFuncDecl()
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.CONST:
		return p.parseConstDecl()
	case lexer.TYPE:
		return p.parseTypeDecl()
	default:
		p.addError("expected declaration, got "+string(p.curTok.Type), p.toSpan(p.curTok))
		return nil
	}
}

func (p *Parser) parseIdent() *ast.Ident {
	if !p.curTokenIs(lexer.IDENT) {
		id := ast.NewIdent("_", p.toSpan(p.curTok))
		p.addError("expected identifier, got "+string(p.curTok.Type), p.toSpan(p.curTok))
		return id
	}
	id := ast.NewIdent(p.curTok.Value, p.toSpan(p.curTok))
	p.nextToken()
	return id
}
