// Package ast defines the syntax tree produced by internal/parser and
// consumed by internal/resolver and internal/codegen.
package ast

import "github.com/emberlang/ember/internal/lexer"

// Node represents any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl represents a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// TypeExpr represents a type annotation expression.
type TypeExpr interface {
	Node
	typeNode()
}

// EntityKind classifies what an Ident resolves to once internal/resolver has
// run. Before resolution every Ident carries NoEntity.
type EntityKind uint8

const (
	NoEntity EntityKind = iota
	Sentinel            // blank identifier "_" or a predeclared builtin name
	Entity              // resolves to a concrete storage site
)

// File represents a parsed compilation unit.
type File struct {
	Package *PackageDecl
	Imports []*ImportDecl
	Decls   []Decl
	span    lexer.Span
}

func (f *File) Span() lexer.Span     { return f.span }
func (f *File) SetSpan(s lexer.Span) { f.span = s }
func NewFile(span lexer.Span) *File  { return &File{span: span} }

// PackageDecl represents a package declaration.
type PackageDecl struct {
	Name *Ident
	span lexer.Span
}

func (d *PackageDecl) Span() lexer.Span     { return d.span }
func (d *PackageDecl) SetSpan(s lexer.Span) { d.span = s }
func NewPackageDecl(name *Ident, span lexer.Span) *PackageDecl {
	return &PackageDecl{Name: name, span: span}
}

// ImportDecl represents a single import declaration.
type ImportDecl struct {
	Alias *Ident // nil if unaliased
	Path  string // decoded string literal
	span  lexer.Span
}

func (d *ImportDecl) Span() lexer.Span     { return d.span }
func (d *ImportDecl) SetSpan(s lexer.Span) { d.span = s }
func (*ImportDecl) declNode()              {}
func NewImportDecl(alias *Ident, path string, span lexer.Span) *ImportDecl {
	return &ImportDecl{Alias: alias, Path: path, span: span}
}

// Ident is an identifier reference or binding occurrence.
type Ident struct {
	Name   string
	Entity EntityKind
	// EntKey is opaque storage for whatever internal/resolver attaches: a
	// funcval.EntIndex, a package member index, and so on. internal/codegen
	// type-asserts it back to the concrete kind it expects.
	EntKey interface{}
	span   lexer.Span
}

func (id *Ident) Span() lexer.Span     { return id.span }
func (id *Ident) SetSpan(s lexer.Span) { id.span = s }
func (*Ident) exprNode()               {}
func NewIdent(name string, span lexer.Span) *Ident {
	return &Ident{Name: name, span: span}
}

// Field is a struct field or interface method signature entry, shared by
// StructTypeExpr and InterfaceTypeExpr.
type Field struct {
	Name     *Ident // nil for an embedded field
	Type     TypeExpr
	Embedded bool
}

// --- Type expressions ---

// NamedTypeExpr references a declared or builtin type by name, optionally
// package-qualified ("pkg.Type").
type NamedTypeExpr struct {
	Pkg  *Ident // nil if unqualified
	Name *Ident
	span lexer.Span
}

func (t *NamedTypeExpr) Span() lexer.Span     { return t.span }
func (t *NamedTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*NamedTypeExpr) typeNode()              {}
func NewNamedTypeExpr(pkg, name *Ident, span lexer.Span) *NamedTypeExpr {
	return &NamedTypeExpr{Pkg: pkg, Name: name, span: span}
}

// PointerTypeExpr is "*T".
type PointerTypeExpr struct {
	Elem TypeExpr
	span lexer.Span
}

func (t *PointerTypeExpr) Span() lexer.Span     { return t.span }
func (t *PointerTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*PointerTypeExpr) typeNode()              {}
func NewPointerTypeExpr(elem TypeExpr, span lexer.Span) *PointerTypeExpr {
	return &PointerTypeExpr{Elem: elem, span: span}
}

// SliceTypeExpr is "[]T".
type SliceTypeExpr struct {
	Elem TypeExpr
	span lexer.Span
}

func (t *SliceTypeExpr) Span() lexer.Span     { return t.span }
func (t *SliceTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*SliceTypeExpr) typeNode()              {}
func NewSliceTypeExpr(elem TypeExpr, span lexer.Span) *SliceTypeExpr {
	return &SliceTypeExpr{Elem: elem, span: span}
}

// MapTypeExpr is "map[K]V".
type MapTypeExpr struct {
	Key, Value TypeExpr
	span       lexer.Span
}

func (t *MapTypeExpr) Span() lexer.Span     { return t.span }
func (t *MapTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*MapTypeExpr) typeNode()              {}
func NewMapTypeExpr(key, value TypeExpr, span lexer.Span) *MapTypeExpr {
	return &MapTypeExpr{Key: key, Value: value, span: span}
}

// ChanTypeExpr is "chan T".
type ChanTypeExpr struct {
	Elem TypeExpr
	span lexer.Span
}

func (t *ChanTypeExpr) Span() lexer.Span     { return t.span }
func (t *ChanTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*ChanTypeExpr) typeNode()              {}
func NewChanTypeExpr(elem TypeExpr, span lexer.Span) *ChanTypeExpr {
	return &ChanTypeExpr{Elem: elem, span: span}
}

// StructTypeExpr is "struct { ... }".
type StructTypeExpr struct {
	Fields []Field
	span   lexer.Span
}

func (t *StructTypeExpr) Span() lexer.Span     { return t.span }
func (t *StructTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*StructTypeExpr) typeNode()              {}
func NewStructTypeExpr(fields []Field, span lexer.Span) *StructTypeExpr {
	return &StructTypeExpr{Fields: fields, span: span}
}

// InterfaceTypeExpr is "interface { ... }".
type InterfaceTypeExpr struct {
	Methods []Field
	span    lexer.Span
}

func (t *InterfaceTypeExpr) Span() lexer.Span     { return t.span }
func (t *InterfaceTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*InterfaceTypeExpr) typeNode()              {}
func NewInterfaceTypeExpr(methods []Field, span lexer.Span) *InterfaceTypeExpr {
	return &InterfaceTypeExpr{Methods: methods, span: span}
}

// FuncTypeExpr is the signature portion of a func declaration or literal.
type FuncTypeExpr struct {
	Params   []Field
	Results  []Field
	Variadic bool
	span     lexer.Span
}

func (t *FuncTypeExpr) Span() lexer.Span     { return t.span }
func (t *FuncTypeExpr) SetSpan(s lexer.Span) { t.span = s }
func (*FuncTypeExpr) typeNode()              {}
func NewFuncTypeExpr(params, results []Field, variadic bool, span lexer.Span) *FuncTypeExpr {
	return &FuncTypeExpr{Params: params, Results: results, Variadic: variadic, span: span}
}

// --- Declarations ---

// TypeDecl declares a named type: "type Name <TypeExpr>".
type TypeDecl struct {
	Name *Ident
	Type TypeExpr
	span lexer.Span
}

func (d *TypeDecl) Span() lexer.Span     { return d.span }
func (d *TypeDecl) SetSpan(s lexer.Span) { d.span = s }
func (*TypeDecl) declNode()              {}
func NewTypeDecl(name *Ident, typ TypeExpr, span lexer.Span) *TypeDecl {
	return &TypeDecl{Name: name, Type: typ, span: span}
}

// VarDecl declares one or more package- or function-level variables.
type VarDecl struct {
	Names  []*Ident
	Type   TypeExpr // nil if inferred from Values
	Values []Expr   // may be empty (zero-valued)
	span   lexer.Span
}

func (d *VarDecl) Span() lexer.Span     { return d.span }
func (d *VarDecl) SetSpan(s lexer.Span) { d.span = s }
func (*VarDecl) declNode()              {}
func (*VarDecl) stmtNode()              {}
func NewVarDecl(names []*Ident, typ TypeExpr, values []Expr, span lexer.Span) *VarDecl {
	return &VarDecl{Names: names, Type: typ, Values: values, span: span}
}

// ConstDecl declares one or more constants.
type ConstDecl struct {
	Names  []*Ident
	Type   TypeExpr
	Values []Expr
	span   lexer.Span
}

func (d *ConstDecl) Span() lexer.Span     { return d.span }
func (d *ConstDecl) SetSpan(s lexer.Span) { d.span = s }
func (*ConstDecl) declNode()              {}
func (*ConstDecl) stmtNode()              {}
func NewConstDecl(names []*Ident, typ TypeExpr, values []Expr, span lexer.Span) *ConstDecl {
	return &ConstDecl{Names: names, Type: typ, Values: values, span: span}
}

// Receiver is a method's receiver clause: "(r *T)" or "(r T)".
type Receiver struct {
	Name    *Ident
	Type    TypeExpr
	Pointer bool
}

// FuncDecl declares a function or, when Recv is non-nil, a method.
type FuncDecl struct {
	Recv *Receiver // nil for a plain function
	Name *Ident
	Sig  *FuncTypeExpr
	Body *BlockStmt // nil for an external/FFI declaration
	span lexer.Span
}

func (d *FuncDecl) Span() lexer.Span     { return d.span }
func (d *FuncDecl) SetSpan(s lexer.Span) { d.span = s }
func (*FuncDecl) declNode()              {}
func NewFuncDecl(recv *Receiver, name *Ident, sig *FuncTypeExpr, body *BlockStmt, span lexer.Span) *FuncDecl {
	return &FuncDecl{Recv: recv, Name: name, Sig: sig, Body: body, span: span}
}

// --- Statements ---

// BlockStmt is a brace-delimited statement sequence.
type BlockStmt struct {
	Stmts []Stmt
	span  lexer.Span
}

func (s *BlockStmt) Span() lexer.Span     { return s.span }
func (s *BlockStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*BlockStmt) stmtNode()              {}
func NewBlockStmt(stmts []Stmt, span lexer.Span) *BlockStmt {
	return &BlockStmt{Stmts: stmts, span: span}
}

// ExprStmt wraps an expression used in statement position (typically a call).
type ExprStmt struct {
	X    Expr
	span lexer.Span
}

func (s *ExprStmt) Span() lexer.Span     { return s.span }
func (s *ExprStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*ExprStmt) stmtNode()              {}
func NewExprStmt(x Expr, span lexer.Span) *ExprStmt { return &ExprStmt{X: x, span: span} }

// AssignStmt covers "=", ":=", and the compound "op=" forms.
type AssignStmt struct {
	LHS []Expr
	Op  lexer.TokenType // ASSIGN, DEFINE, PLUS_ASSIGN, ...
	RHS []Expr
	span lexer.Span
}

func (s *AssignStmt) Span() lexer.Span     { return s.span }
func (s *AssignStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*AssignStmt) stmtNode()              {}
func NewAssignStmt(lhs []Expr, op lexer.TokenType, rhs []Expr, span lexer.Span) *AssignStmt {
	return &AssignStmt{LHS: lhs, Op: op, RHS: rhs, span: span}
}

// IncDecStmt covers "x++" and "x--", modeled as compound assignment of 1.
type IncDecStmt struct {
	X    Expr
	Inc  bool // true for ++, false for --
	span lexer.Span
}

func (s *IncDecStmt) Span() lexer.Span     { return s.span }
func (s *IncDecStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*IncDecStmt) stmtNode()              {}
func NewIncDecStmt(x Expr, inc bool, span lexer.Span) *IncDecStmt {
	return &IncDecStmt{X: x, Inc: inc, span: span}
}

// ReturnStmt returns zero or more results.
type ReturnStmt struct {
	Results []Expr
	span    lexer.Span
}

func (s *ReturnStmt) Span() lexer.Span     { return s.span }
func (s *ReturnStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*ReturnStmt) stmtNode()              {}
func NewReturnStmt(results []Expr, span lexer.Span) *ReturnStmt {
	return &ReturnStmt{Results: results, span: span}
}

// IfStmt is "if [Init;] Cond { Body } [else Else]".
type IfStmt struct {
	Init Stmt // optional
	Cond Expr
	Body *BlockStmt
	Else Stmt // *IfStmt or *BlockStmt, nil if absent
	span lexer.Span
}

func (s *IfStmt) Span() lexer.Span     { return s.span }
func (s *IfStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*IfStmt) stmtNode()              {}
func NewIfStmt(init Stmt, cond Expr, body *BlockStmt, els Stmt, span lexer.Span) *IfStmt {
	return &IfStmt{Init: init, Cond: cond, Body: body, Else: els, span: span}
}

// ForStmt covers the three-clause, condition-only, and infinite forms.
// A RangeStmt is used instead when the source is "for x := range e".
type ForStmt struct {
	Init Stmt // optional
	Cond Expr // optional
	Post Stmt // optional
	Body *BlockStmt
	span lexer.Span
}

func (s *ForStmt) Span() lexer.Span     { return s.span }
func (s *ForStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*ForStmt) stmtNode()              {}
func NewForStmt(init Stmt, cond Expr, post Stmt, body *BlockStmt, span lexer.Span) *ForStmt {
	return &ForStmt{Init: init, Cond: cond, Post: post, Body: body, span: span}
}

// RangeStmt is "for Key[, Value] := range X { Body }".
type RangeStmt struct {
	Key, Value *Ident // either may be nil
	Define     bool   // := vs =
	X          Expr
	Body       *BlockStmt
	span       lexer.Span
}

func (s *RangeStmt) Span() lexer.Span     { return s.span }
func (s *RangeStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*RangeStmt) stmtNode()              {}
func NewRangeStmt(key, value *Ident, define bool, x Expr, body *BlockStmt, span lexer.Span) *RangeStmt {
	return &RangeStmt{Key: key, Value: value, Define: define, X: x, Body: body, span: span}
}

// BranchStmt covers break/continue, optionally targeting a labeled loop.
type BranchStmt struct {
	Tok   lexer.TokenType // BREAK or CONTINUE
	Label *Ident          // nil if unlabeled
	span  lexer.Span
}

func (s *BranchStmt) Span() lexer.Span     { return s.span }
func (s *BranchStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*BranchStmt) stmtNode()              {}
func NewBranchStmt(tok lexer.TokenType, label *Ident, span lexer.Span) *BranchStmt {
	return &BranchStmt{Tok: tok, Label: label, span: span}
}

// DeferStmt is "defer Call".
type DeferStmt struct {
	Call *CallExpr
	span lexer.Span
}

func (s *DeferStmt) Span() lexer.Span     { return s.span }
func (s *DeferStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*DeferStmt) stmtNode()              {}
func NewDeferStmt(call *CallExpr, span lexer.Span) *DeferStmt {
	return &DeferStmt{Call: call, span: span}
}

// GoStmt is "go Call", spawning a new fiber.
type GoStmt struct {
	Call *CallExpr
	span lexer.Span
}

func (s *GoStmt) Span() lexer.Span     { return s.span }
func (s *GoStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*GoStmt) stmtNode()              {}
func NewGoStmt(call *CallExpr, span lexer.Span) *GoStmt { return &GoStmt{Call: call, span: span} }

// SwitchCase is one "case X, Y:" or "default:" clause of a SwitchStmt.
type SwitchCase struct {
	Values []Expr // empty for default
	Body   []Stmt
}

// SwitchStmt is "switch [Init;] [Tag] { Cases }".
type SwitchStmt struct {
	Init  Stmt
	Tag   Expr // nil for a tagless boolean switch
	Cases []SwitchCase
	span  lexer.Span
}

func (s *SwitchStmt) Span() lexer.Span     { return s.span }
func (s *SwitchStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*SwitchStmt) stmtNode()              {}
func NewSwitchStmt(init Stmt, tag Expr, cases []SwitchCase, span lexer.Span) *SwitchStmt {
	return &SwitchStmt{Init: init, Tag: tag, Cases: cases, span: span}
}

// SelectCase is one communication clause of a SelectStmt.
type SelectCase struct {
	Comm Stmt // *AssignStmt or *ExprStmt wrapping a send/receive, nil for default
	Body []Stmt
}

// SelectStmt is "select { Cases }" over channel operations.
type SelectStmt struct {
	Cases []SelectCase
	span  lexer.Span
}

func (s *SelectStmt) Span() lexer.Span     { return s.span }
func (s *SelectStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*SelectStmt) stmtNode()              {}
func NewSelectStmt(cases []SelectCase, span lexer.Span) *SelectStmt {
	return &SelectStmt{Cases: cases, span: span}
}

// SendStmt is "Chan <- Value".
type SendStmt struct {
	Chan  Expr
	Value Expr
	span  lexer.Span
}

func (s *SendStmt) Span() lexer.Span     { return s.span }
func (s *SendStmt) SetSpan(sp lexer.Span) { s.span = sp }
func (*SendStmt) stmtNode()              {}
func NewSendStmt(ch, value Expr, span lexer.Span) *SendStmt {
	return &SendStmt{Chan: ch, Value: value, span: span}
}

// --- Expressions ---

// BasicLit is a literal int/float/string/bool/nil token.
type BasicLit struct {
	Kind  lexer.TokenType // INT, FLOAT, STRING, TRUE, FALSE, NIL
	Value string          // decoded value
	span  lexer.Span
}

func (e *BasicLit) Span() lexer.Span     { return e.span }
func (e *BasicLit) SetSpan(s lexer.Span) { e.span = s }
func (*BasicLit) exprNode()              {}
func NewBasicLit(kind lexer.TokenType, value string, span lexer.Span) *BasicLit {
	return &BasicLit{Kind: kind, Value: value, span: span}
}

// BinaryExpr is "X Op Y".
type BinaryExpr struct {
	X, Y Expr
	Op   lexer.TokenType
	span lexer.Span
}

func (e *BinaryExpr) Span() lexer.Span     { return e.span }
func (e *BinaryExpr) SetSpan(s lexer.Span) { e.span = s }
func (*BinaryExpr) exprNode()              {}
func NewBinaryExpr(x Expr, op lexer.TokenType, y Expr, span lexer.Span) *BinaryExpr {
	return &BinaryExpr{X: x, Op: op, Y: y, span: span}
}

// UnaryExpr is "Op X": "-x", "!x", "&x", "*x", "<-x".
type UnaryExpr struct {
	Op   lexer.TokenType
	X    Expr
	span lexer.Span
}

func (e *UnaryExpr) Span() lexer.Span     { return e.span }
func (e *UnaryExpr) SetSpan(s lexer.Span) { e.span = s }
func (*UnaryExpr) exprNode()              {}
func NewUnaryExpr(op lexer.TokenType, x Expr, span lexer.Span) *UnaryExpr {
	return &UnaryExpr{Op: op, X: x, span: span}
}

// CallExpr is "Fun(Args...)", with Ellipsis set for "Fun(args..., more...)".
type CallExpr struct {
	Fun      Expr
	Args     []Expr
	Ellipsis bool
	span     lexer.Span
}

func (e *CallExpr) Span() lexer.Span     { return e.span }
func (e *CallExpr) SetSpan(s lexer.Span) { e.span = s }
func (*CallExpr) exprNode()              {}
func NewCallExpr(fun Expr, args []Expr, ellipsis bool, span lexer.Span) *CallExpr {
	return &CallExpr{Fun: fun, Args: args, Ellipsis: ellipsis, span: span}
}

// SelectorExpr is "X.Sel": field access, method value, or package member.
type SelectorExpr struct {
	X    Expr
	Sel  *Ident
	span lexer.Span
}

func (e *SelectorExpr) Span() lexer.Span     { return e.span }
func (e *SelectorExpr) SetSpan(s lexer.Span) { e.span = s }
func (*SelectorExpr) exprNode()              {}
func NewSelectorExpr(x Expr, sel *Ident, span lexer.Span) *SelectorExpr {
	return &SelectorExpr{X: x, Sel: sel, span: span}
}

// IndexExpr is "X[Index]".
type IndexExpr struct {
	X, Index Expr
	span     lexer.Span
}

func (e *IndexExpr) Span() lexer.Span     { return e.span }
func (e *IndexExpr) SetSpan(s lexer.Span) { e.span = s }
func (*IndexExpr) exprNode()              {}
func NewIndexExpr(x, index Expr, span lexer.Span) *IndexExpr {
	return &IndexExpr{X: x, Index: index, span: span}
}

// ParenExpr is "(X)", kept so the code generator can tell a parenthesized
// composite literal apart from one in ambiguous statement-starting position.
type ParenExpr struct {
	X    Expr
	span lexer.Span
}

func (e *ParenExpr) Span() lexer.Span     { return e.span }
func (e *ParenExpr) SetSpan(s lexer.Span) { e.span = s }
func (*ParenExpr) exprNode()              {}
func NewParenExpr(x Expr, span lexer.Span) *ParenExpr { return &ParenExpr{X: x, span: span} }

// KeyValueExpr is "Key: Value" inside a composite literal.
type KeyValueExpr struct {
	Key, Value Expr
	span       lexer.Span
}

func (e *KeyValueExpr) Span() lexer.Span     { return e.span }
func (e *KeyValueExpr) SetSpan(s lexer.Span) { e.span = s }
func (*KeyValueExpr) exprNode()              {}
func NewKeyValueExpr(key, value Expr, span lexer.Span) *KeyValueExpr {
	return &KeyValueExpr{Key: key, Value: value, span: span}
}

// CompositeLit is "Type{Elts...}": struct, array, slice, or map literal.
type CompositeLit struct {
	Type TypeExpr // nil when the type is inferred from surrounding context
	Elts []Expr   // each is either a bare Expr or a *KeyValueExpr
	span lexer.Span
}

func (e *CompositeLit) Span() lexer.Span     { return e.span }
func (e *CompositeLit) SetSpan(s lexer.Span) { e.span = s }
func (*CompositeLit) exprNode()              {}
func NewCompositeLit(typ TypeExpr, elts []Expr, span lexer.Span) *CompositeLit {
	return &CompositeLit{Type: typ, Elts: elts, span: span}
}

// FuncLit is an anonymous function expression; internal/resolver builds its
// up-value table from free identifiers captured from enclosing scopes.
type FuncLit struct {
	Sig  *FuncTypeExpr
	Body *BlockStmt
	span lexer.Span
}

func (e *FuncLit) Span() lexer.Span     { return e.span }
func (e *FuncLit) SetSpan(s lexer.Span) { e.span = s }
func (*FuncLit) exprNode()              {}
func NewFuncLit(sig *FuncTypeExpr, body *BlockStmt, span lexer.Span) *FuncLit {
	return &FuncLit{Sig: sig, Body: body, span: span}
}

// NewCallLit is "new(T)", allocating T's default value on the heap.
type NewCallLit struct {
	Type TypeExpr
	span lexer.Span
}

func (e *NewCallLit) Span() lexer.Span     { return e.span }
func (e *NewCallLit) SetSpan(s lexer.Span) { e.span = s }
func (*NewCallLit) exprNode()              {}
func NewNewCallLit(typ TypeExpr, span lexer.Span) *NewCallLit {
	return &NewCallLit{Type: typ, span: span}
}
