package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/resolver"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	p := parser.New(src, parser.WithFilename("test.ember"))
	f := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return f
}

func TestResolvePackageMembersAndMemberReference(t *testing.T) {
	f := parseFile(t, `
package main;

var total int = 0;

func useTotal() int {
	return total;
}
`)
	res, diags := resolver.Resolve(f)
	require.Empty(t, diags)
	require.Equal(t, []string{"total", "useTotal"}, res.PackageMembers)

	v := f.Decls[0].(*ast.VarDecl)
	assert.Equal(t, ast.Entity, v.Names[0].Entity)
	assert.Equal(t, funcval.PackageMember(0), v.Names[0].EntKey)

	fn := f.Decls[1].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	id := ret.Results[0].(*ast.Ident)
	assert.Equal(t, ast.Entity, id.Entity)
	assert.Equal(t, funcval.PackageMember(0), id.EntKey)
}

func TestResolveLocalsAndShortDecl(t *testing.T) {
	f := parseFile(t, `
package main;

func add(a int, b int) int {
	sum := a + b;
	return sum;
}
`)
	res, diags := resolver.Resolve(f)
	require.Empty(t, diags)

	fn := f.Decls[0].(*ast.FuncDecl)
	info := res.ByNode[fn]
	require.NotNil(t, info)
	assert.Equal(t, 3, info.NumLocals) // a, b, sum
	assert.Empty(t, info.Upvalues)

	assign := fn.Body.Stmts[0].(*ast.AssignStmt)
	sumIdent := assign.LHS[0].(*ast.Ident)
	assert.Equal(t, funcval.LocalVar(2), sumIdent.EntKey)

	bin := assign.RHS[0].(*ast.BinaryExpr)
	assert.Equal(t, funcval.LocalVar(0), bin.X.(*ast.Ident).EntKey)
	assert.Equal(t, funcval.LocalVar(1), bin.Y.(*ast.Ident).EntKey)
}

func TestResolveBlankIdentifierIsSentinel(t *testing.T) {
	f := parseFile(t, `
package main;

func pair() (n int, ok bool) {
	return 0, true;
}

func run() {
	_, ok := pair();
	_ = ok;
}
`)
	_, diags := resolver.Resolve(f)
	require.Empty(t, diags)

	fn := f.Decls[1].(*ast.FuncDecl)
	assign0 := fn.Body.Stmts[0].(*ast.AssignStmt)
	assert.Equal(t, ast.Sentinel, assign0.LHS[0].(*ast.Ident).Entity)
	assert.Equal(t, ast.Entity, assign0.LHS[1].(*ast.Ident).Entity)

	assign1 := fn.Body.Stmts[1].(*ast.AssignStmt)
	assert.Equal(t, ast.Sentinel, assign1.LHS[0].(*ast.Ident).Entity)
}

func TestResolveClosureCapturesUpvalue(t *testing.T) {
	f := parseFile(t, `
package main;

func counter() func() int {
	n := 0;
	return func() int {
		n = n + 1;
		return n;
	};
}
`)
	res, diags := resolver.Resolve(f)
	require.Empty(t, diags)

	fn := f.Decls[0].(*ast.FuncDecl)
	outerInfo := res.ByNode[fn]
	require.NotNil(t, outerInfo)
	assert.Equal(t, 1, outerInfo.NumLocals) // n

	ret := fn.Body.Stmts[1].(*ast.ReturnStmt)
	lit := ret.Results[0].(*ast.FuncLit)
	litInfo := res.ByNode[lit]
	require.NotNil(t, litInfo)
	require.Len(t, litInfo.Upvalues, 1)
	assert.Equal(t, "n", litInfo.Upvalues[0].Symbol)
	assert.False(t, litInfo.Upvalues[0].FromParentUp)
	assert.Equal(t, 0, litInfo.Upvalues[0].ParentIndex)

	assign := lit.Body.Stmts[0].(*ast.AssignStmt)
	nRef := assign.RHS[0].(*ast.BinaryExpr).X.(*ast.Ident)
	assert.Equal(t, funcval.UpValue(0), nRef.EntKey)
}

func TestResolveUndefinedIdentReportsDiagnostic(t *testing.T) {
	f := parseFile(t, `
package main;

func run() {
	result := missing + 1;
	_ = result;
}
`)
	_, diags := resolver.Resolve(f)
	require.Len(t, diags, 1)
	assert.Equal(t, "undefined: missing", diags[0].Message)
}

func TestResolveImportSelector(t *testing.T) {
	f := parseFile(t, `
package main;

import "fmt";

func run() {
	fmt.Println("hi");
}
`)
	res, diags := resolver.Resolve(f)
	require.Empty(t, diags)
	assert.Equal(t, "fmt", res.Imports["fmt"])

	fn := f.Decls[0].(*ast.FuncDecl)
	call := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.CallExpr)
	sel := call.Fun.(*ast.SelectorExpr)
	pkgIdent := sel.X.(*ast.Ident)
	assert.Equal(t, ast.Entity, pkgIdent.Entity)
	assert.Equal(t, resolver.ImportRef{Path: "fmt"}, pkgIdent.EntKey)
}

func TestResolveMethodReceiverIsLocalZero(t *testing.T) {
	f := parseFile(t, `
package main;

func (c *Counter) Inc() {
	c.n = c.n + 1;
}
`)
	res, diags := resolver.Resolve(f)
	require.Empty(t, diags)
	require.Empty(t, res.PackageMembers) // methods are not package members

	fn := f.Decls[0].(*ast.FuncDecl)
	assign := fn.Body.Stmts[0].(*ast.AssignStmt)
	lhsSel := assign.LHS[0].(*ast.SelectorExpr)
	recv := lhsSel.X.(*ast.Ident)
	assert.Equal(t, funcval.LocalVar(0), recv.EntKey)
}

func TestResolveBuiltinIsSentinel(t *testing.T) {
	f := parseFile(t, `
package main;

func run() {
	n := len("abc");
	_ = n;
}
`)
	_, diags := resolver.Resolve(f)
	require.Empty(t, diags)

	fn := f.Decls[0].(*ast.FuncDecl)
	assign := fn.Body.Stmts[0].(*ast.AssignStmt)
	call := assign.RHS[0].(*ast.CallExpr)
	lenIdent := call.Fun.(*ast.Ident)
	assert.Equal(t, ast.Sentinel, lenIdent.Entity)
}
