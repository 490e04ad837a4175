// Package resolver implements the scope-resolution pass that sits between
// internal/parser and internal/codegen. It walks the parsed tree, builds
// package-level and function-level scopes (grounded on the teacher's
// internal/types/scope.go Scope/Symbol shape), and annotates every value
// *ast.Ident with one of ast.NoEntity, ast.Sentinel, or ast.Entity so the
// code generator never has to repeat a name lookup.
package resolver

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/lexer"
)

// ImportRef is the EntKey attached to an Ident that names an imported
// package directly (the "fmt" in "fmt.Println"). It is not a
// funcval.EntIndex because an import has no storage slot of its own;
// internal/codegen type-switches EntKey to tell a package reference apart
// from a resolved value site.
type ImportRef struct {
	Path string
}

// Upvalue mirrors funcval.UpvalueSlot minus the Type field, which is filled
// in by internal/codegen once it knows the captured variable's
// metadata.GosMetadata.
type Upvalue struct {
	Symbol       string
	FromParentUp bool
	ParentIndex  int
}

// FuncInfo is resolver's per-function output: the local-frame size and
// capture list internal/codegen needs to build a funcval.FunctionVal whose
// slot numbers agree with the EntIndex values already baked into the
// function's Idents.
type FuncInfo struct {
	Node      ast.Node // *ast.FuncDecl or *ast.FuncLit
	NumLocals int
	Upvalues  []Upvalue
}

// Result is the complete output of a Resolve call.
type Result struct {
	Funcs          []*FuncInfo
	ByNode         map[ast.Node]*FuncInfo
	PackageMembers []string // name at each funcval.PackageMember index
	Imports        map[string]string // alias/default name -> import path
}

// Resolver carries the state of one resolution pass. It is not safe for
// concurrent use and is discarded after Resolve returns.
type Resolver struct {
	pkgScope *scope
	curFunc  *funcCtx

	result *Result
	diags  []diag.Diagnostic
}

// funcCtx tracks one function's local-frame allocation and up-value
// captures while its body is being walked. scope chains only within the
// function; resolveIdent stops at a nil scope and falls through to the
// parent funcCtx (a closure capture) or the package scope.
type funcCtx struct {
	parent       *funcCtx
	scope        *scope
	numLocals    int
	upvalues     []Upvalue
	upvalueIndex map[string]int
}

func newFuncCtx(parent *funcCtx) *funcCtx {
	return &funcCtx{parent: parent, scope: newScope(nil), upvalueIndex: make(map[string]int)}
}

func (fc *funcCtx) pushScope() { fc.scope = newScope(fc.scope) }
func (fc *funcCtx) popScope()  { fc.scope = fc.scope.parent }

func (fc *funcCtx) declareLocal(name string) {
	idx := fc.numLocals
	fc.numLocals++
	fc.scope.insert(&symbol{name: name, kind: symLocal, localIndex: idx})
}

// Resolve runs the scope-resolution pass over a parsed file.
func Resolve(file *ast.File) (*Result, []diag.Diagnostic) {
	r := &Resolver{
		pkgScope: newScope(nil),
		result: &Result{
			ByNode:  make(map[ast.Node]*FuncInfo),
			Imports: make(map[string]string),
		},
	}
	r.declarePackageScope(file)
	for _, decl := range file.Decls {
		r.resolveDecl(decl)
	}
	return r.result, r.diags
}

func (r *Resolver) errorf(span lexer.Span, code diag.Code, format string, args ...interface{}) {
	r.diags = append(r.diags, diag.Diagnostic{
		Stage:    diag.StageResolver,
		Severity: diag.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span: diag.Span{
			Filename: span.Filename,
			Line:     span.Line,
			Column:   span.Column,
			Start:    span.Start,
			End:      span.End,
		},
	})
}

// declarePackageScope registers every top-level name (imports, funcs,
// types, vars, consts) before any body is walked, so forward references
// (a function calling one declared later in the file) resolve correctly.
func (r *Resolver) declarePackageScope(file *ast.File) {
	for _, imp := range file.Imports {
		name := importDefaultName(imp.Path)
		if imp.Alias != nil {
			name = imp.Alias.Name
		}
		if _, dup := r.pkgScope.lookup(name); dup {
			r.errorf(imp.Span(), diag.CodeResolverDuplicateSymbol, "import %q redeclares %q", imp.Path, name)
			continue
		}
		r.pkgScope.insert(&symbol{name: name, kind: symImport, importPath: imp.Path})
		r.result.Imports[name] = imp.Path
		if imp.Alias != nil {
			imp.Alias.Entity = ast.Entity
			imp.Alias.EntKey = ImportRef{Path: imp.Path}
		}
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil {
				continue // methods do not occupy the package member namespace
			}
			r.declarePackageMember(d.Name)
		case *ast.VarDecl:
			for _, name := range d.Names {
				r.declarePackageMember(name)
			}
		case *ast.ConstDecl:
			for _, name := range d.Names {
				r.declarePackageMember(name)
			}
		case *ast.TypeDecl:
			r.declarePackageMember(d.Name)
		}
	}
}

func (r *Resolver) declarePackageMember(name *ast.Ident) {
	if name.Name == "_" {
		name.Entity = ast.Sentinel
		return
	}
	if _, dup := r.pkgScope.lookup(name.Name); dup {
		r.errorf(name.Span(), diag.CodeResolverDuplicateSymbol, "%q is already declared at package scope", name.Name)
		return
	}
	idx := len(r.result.PackageMembers)
	r.result.PackageMembers = append(r.result.PackageMembers, name.Name)
	r.pkgScope.insert(&symbol{name: name.Name, kind: symPackageMember, pkgIndex: idx})
	name.Entity = ast.Entity
	name.EntKey = funcval.PackageMember(idx)
}

func importDefaultName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func (r *Resolver) resolveDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		r.resolveFuncDecl(d)
	case *ast.VarDecl:
		r.resolveValues(d.Values)
	case *ast.ConstDecl:
		r.resolveValues(d.Values)
	case *ast.TypeDecl:
		// Type names live in metadata's namespace, not the value-entity
		// space this pass annotates; nothing further to resolve here.
	}
}

func (r *Resolver) resolveFuncDecl(d *ast.FuncDecl) {
	fc := newFuncCtx(r.curFunc)
	r.curFunc = fc

	if d.Recv != nil && d.Recv.Name != nil && d.Recv.Name.Name != "_" {
		fc.declareLocal(d.Recv.Name.Name)
		r.bindToLocal(d.Recv.Name)
	}
	for _, p := range d.Sig.Params {
		if p.Name != nil && p.Name.Name != "_" {
			fc.declareLocal(p.Name.Name)
			r.bindToLocal(p.Name)
		}
	}
	for _, res := range d.Sig.Results {
		if res.Name != nil && res.Name.Name != "_" {
			fc.declareLocal(res.Name.Name)
			r.bindToLocal(res.Name)
		}
	}

	if d.Body != nil {
		r.walkBlock(d.Body)
	}

	info := &FuncInfo{Node: d, NumLocals: fc.numLocals, Upvalues: fc.upvalues}
	r.result.Funcs = append(r.result.Funcs, info)
	r.result.ByNode[d] = info
	r.curFunc = fc.parent
}

// bindToLocal marks an Ident as the binding occurrence of a local symbol
// just inserted into the current function's innermost scope.
func (r *Resolver) bindToLocal(id *ast.Ident) {
	sym, _ := r.curFunc.scope.lookup(id.Name)
	id.Entity = ast.Entity
	id.EntKey = funcval.LocalVar(sym.localIndex)
}

func (r *Resolver) resolveValues(values []ast.Expr) {
	for _, v := range values {
		r.walkExpr(v)
	}
}

func (r *Resolver) walkBlock(b *ast.BlockStmt) {
	r.curFunc.pushScope()
	for _, s := range b.Stmts {
		r.walkStmt(s)
	}
	r.curFunc.popScope()
}

func (r *Resolver) walkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		r.resolveValues(st.Values)
		for _, name := range st.Names {
			r.declareOrSentinel(name)
		}
	case *ast.ConstDecl:
		r.resolveValues(st.Values)
		for _, name := range st.Names {
			r.declareOrSentinel(name)
		}
	case *ast.ExprStmt:
		r.walkExpr(st.X)
	case *ast.AssignStmt:
		r.walkAssign(st)
	case *ast.IncDecStmt:
		r.walkExpr(st.X)
	case *ast.ReturnStmt:
		r.resolveValues(st.Results)
	case *ast.IfStmt:
		r.walkIf(st)
	case *ast.ForStmt:
		r.walkFor(st)
	case *ast.RangeStmt:
		r.walkRange(st)
	case *ast.BranchStmt:
		// Labels are not resolved against any scope in this subset.
	case *ast.DeferStmt:
		r.walkExpr(st.Call)
	case *ast.GoStmt:
		r.walkExpr(st.Call)
	case *ast.SwitchStmt:
		r.walkSwitch(st)
	case *ast.SelectStmt:
		r.walkSelect(st)
	case *ast.SendStmt:
		r.walkExpr(st.Chan)
		r.walkExpr(st.Value)
	case *ast.BlockStmt:
		r.walkBlock(st)
	}
}

func (r *Resolver) walkAssign(st *ast.AssignStmt) {
	r.resolveValues(st.RHS)
	if st.Op == lexer.DEFINE {
		for _, lhs := range st.LHS {
			if id, ok := lhs.(*ast.Ident); ok {
				r.declareOrSentinel(id)
				continue
			}
			r.walkExpr(lhs)
		}
		return
	}
	for _, lhs := range st.LHS {
		r.walkExpr(lhs)
	}
}

// declareOrSentinel is used for binding occurrences (short var decl, var
// decl, range key/value): "_" is always Sentinel, any other name shadows
// whatever the enclosing scope already bound.
func (r *Resolver) declareOrSentinel(id *ast.Ident) {
	if id.Name == "_" {
		id.Entity = ast.Sentinel
		return
	}
	r.curFunc.declareLocal(id.Name)
	r.bindToLocal(id)
}

func (r *Resolver) walkIf(st *ast.IfStmt) {
	r.curFunc.pushScope()
	if st.Init != nil {
		r.walkStmt(st.Init)
	}
	r.walkExpr(st.Cond)
	r.walkBlock(st.Body)
	if st.Else != nil {
		r.walkStmt(st.Else)
	}
	r.curFunc.popScope()
}

func (r *Resolver) walkFor(st *ast.ForStmt) {
	r.curFunc.pushScope()
	if st.Init != nil {
		r.walkStmt(st.Init)
	}
	if st.Cond != nil {
		r.walkExpr(st.Cond)
	}
	if st.Post != nil {
		r.walkStmt(st.Post)
	}
	r.walkBlock(st.Body)
	r.curFunc.popScope()
}

func (r *Resolver) walkRange(st *ast.RangeStmt) {
	r.walkExpr(st.X)
	r.curFunc.pushScope()
	if st.Key != nil {
		if st.Define {
			r.declareOrSentinel(st.Key)
		} else {
			r.walkExpr(st.Key)
		}
	}
	if st.Value != nil {
		if st.Define {
			r.declareOrSentinel(st.Value)
		} else {
			r.walkExpr(st.Value)
		}
	}
	r.walkBlock(st.Body)
	r.curFunc.popScope()
}

func (r *Resolver) walkSwitch(st *ast.SwitchStmt) {
	r.curFunc.pushScope()
	if st.Init != nil {
		r.walkStmt(st.Init)
	}
	if st.Tag != nil {
		r.walkExpr(st.Tag)
	}
	for _, c := range st.Cases {
		r.resolveValues(c.Values)
		r.curFunc.pushScope()
		for _, s := range c.Body {
			r.walkStmt(s)
		}
		r.curFunc.popScope()
	}
	r.curFunc.popScope()
}

func (r *Resolver) walkSelect(st *ast.SelectStmt) {
	for _, c := range st.Cases {
		r.curFunc.pushScope()
		if c.Comm != nil {
			r.walkStmt(c.Comm)
		}
		for _, s := range c.Body {
			r.walkStmt(s)
		}
		r.curFunc.popScope()
	}
}

func (r *Resolver) walkExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Ident:
		r.resolveIdent(ex)
	case *ast.BasicLit:
		// no references
	case *ast.BinaryExpr:
		r.walkExpr(ex.X)
		r.walkExpr(ex.Y)
	case *ast.UnaryExpr:
		r.walkExpr(ex.X)
	case *ast.CallExpr:
		r.walkExpr(ex.Fun)
		for _, a := range ex.Args {
			r.walkExpr(a)
		}
	case *ast.SelectorExpr:
		r.walkSelector(ex)
	case *ast.IndexExpr:
		r.walkExpr(ex.X)
		r.walkExpr(ex.Index)
	case *ast.ParenExpr:
		r.walkExpr(ex.X)
	case *ast.KeyValueExpr:
		// A bare field name as a struct-literal key is not a value
		// reference; anything else (map keys) is.
		if _, isName := ex.Key.(*ast.Ident); !isName {
			r.walkExpr(ex.Key)
		}
		r.walkExpr(ex.Value)
	case *ast.CompositeLit:
		for _, elt := range ex.Elts {
			r.walkExpr(elt)
		}
	case *ast.FuncLit:
		r.walkFuncLit(ex)
	case *ast.NewCallLit:
		// Type is resolved by internal/metadata, not this pass.
	}
}

// walkSelector resolves "X.Sel". When X is a bare package-import Ident the
// Sel name is a member of that package and is left unresolved here (it is
// not a value in the current scope at all); internal/codegen looks it up
// against the imported package's own member table.
func (r *Resolver) walkSelector(ex *ast.SelectorExpr) {
	if id, ok := ex.X.(*ast.Ident); ok {
		if sym, found := r.pkgScope.lookup(id.Name); found && sym.kind == symImport {
			id.Entity = ast.Entity
			id.EntKey = ImportRef{Path: sym.importPath}
			return
		}
	}
	r.walkExpr(ex.X)
}

func (r *Resolver) walkFuncLit(lit *ast.FuncLit) {
	fc := newFuncCtx(r.curFunc)
	r.curFunc = fc
	for _, p := range lit.Sig.Params {
		if p.Name != nil && p.Name.Name != "_" {
			fc.declareLocal(p.Name.Name)
			r.bindToLocal(p.Name)
		}
	}
	for _, res := range lit.Sig.Results {
		if res.Name != nil && res.Name.Name != "_" {
			fc.declareLocal(res.Name.Name)
			r.bindToLocal(res.Name)
		}
	}
	r.walkBlock(lit.Body)

	info := &FuncInfo{Node: lit, NumLocals: fc.numLocals, Upvalues: fc.upvalues}
	r.result.Funcs = append(r.result.Funcs, info)
	r.result.ByNode[lit] = info
	r.curFunc = fc.parent
}

func (r *Resolver) resolveIdent(id *ast.Ident) {
	if id.Name == "_" {
		id.Entity = ast.Sentinel
		return
	}
	if ent, ok := captureChain(r.curFunc, id.Name); ok {
		id.Entity = ast.Entity
		id.EntKey = ent
		return
	}
	if sym, ok := r.pkgScope.lookup(id.Name); ok {
		id.Entity = ast.Entity
		switch sym.kind {
		case symPackageMember:
			id.EntKey = funcval.PackageMember(sym.pkgIndex)
		case symImport:
			id.EntKey = ImportRef{Path: sym.importPath}
		}
		return
	}
	if predeclared[id.Name] {
		id.Entity = ast.Sentinel
		return
	}
	r.errorf(id.Span(), diag.CodeResolverUnresolvedIdent, "undefined: %s", id.Name)
}

// captureChain resolves name against fc's own block scopes first, then
// recursively against enclosing functions, inserting an up-value capture
// into every function context the reference has to cross on its way in.
func captureChain(fc *funcCtx, name string) (funcval.EntIndex, bool) {
	if fc == nil {
		return funcval.EntIndex{}, false
	}
	if sym, ok := fc.scope.lookup(name); ok {
		return funcval.LocalVar(sym.localIndex), true
	}
	if idx, ok := fc.upvalueIndex[name]; ok {
		return funcval.UpValue(idx), true
	}
	parentEnt, ok := captureChain(fc.parent, name)
	if !ok {
		return funcval.EntIndex{}, false
	}
	idx := len(fc.upvalues)
	fc.upvalues = append(fc.upvalues, Upvalue{
		Symbol:       name,
		FromParentUp: parentEnt.Kind == funcval.EntUpValue,
		ParentIndex:  parentEnt.Index,
	})
	fc.upvalueIndex[name] = idx
	return funcval.UpValue(idx), true
}
