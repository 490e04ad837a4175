package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	p := New(src, WithFilename("test.ember"))
	f := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return f
}

func TestParsePackageAndImports(t *testing.T) {
	f := parseOK(t, `
package main;

import "fmt";
import io "io";
`)
	require.NotNil(t, f.Package)
	assert.Equal(t, "main", f.Package.Name.Name)
	require.Len(t, f.Imports, 2)
	assert.Equal(t, "fmt", f.Imports[0].Path)
	assert.Nil(t, f.Imports[0].Alias)
	assert.Equal(t, "io", f.Imports[1].Alias.Name)
}

func TestParseFuncDeclWithParamsAndResults(t *testing.T) {
	f := parseOK(t, `
package main;

func add(a int, b int) int {
	return a + b;
}
`)
	require.Len(t, f.Decls, 1)
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Name)
	require.Len(t, fn.Sig.Params, 2)
	require.Len(t, fn.Sig.Results, 1)
	require.Len(t, fn.Body.Stmts, 1)

	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	require.Len(t, ret.Results, 1)
	bin, ok := ret.Results[0].(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "a", bin.X.(*ast.Ident).Name)
	assert.Equal(t, "b", bin.Y.(*ast.Ident).Name)
}

func TestParseMethodWithPointerReceiver(t *testing.T) {
	f := parseOK(t, `
package main;

func (c *Counter) Inc() {
	c.n++;
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.NotNil(t, fn.Recv)
	assert.True(t, fn.Recv.Pointer)
	assert.Equal(t, "c", fn.Recv.Name.Name)

	inc, ok := fn.Body.Stmts[0].(*ast.IncDecStmt)
	require.True(t, ok)
	assert.True(t, inc.Inc)
	sel, ok := inc.X.(*ast.SelectorExpr)
	require.True(t, ok)
	assert.Equal(t, "n", sel.Sel.Name)
}

func TestParseVarAndShortDecl(t *testing.T) {
	f := parseOK(t, `
package main;

var total int = 0;

func run() {
	x := 1;
	y, z := 2, 3;
	total = x + y + z;
}
`)
	v, ok := f.Decls[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "total", v.Names[0].Name)

	fn := f.Decls[1].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 3)

	assign0 := fn.Body.Stmts[0].(*ast.AssignStmt)
	assert.Equal(t, "x", assign0.LHS[0].(*ast.Ident).Name)

	assign1 := fn.Body.Stmts[1].(*ast.AssignStmt)
	require.Len(t, assign1.LHS, 2)
	require.Len(t, assign1.RHS, 2)
}

func TestParseIfElseChain(t *testing.T) {
	f := parseOK(t, `
package main;

func classify(n int) int {
	if n < 0 {
		return -1;
	} else if n == 0 {
		return 0;
	} else {
		return 1;
	}
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	ifs := fn.Body.Stmts[0].(*ast.IfStmt)
	require.NotNil(t, ifs.Else)
	elseIf, ok := ifs.Else.(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, elseIf.Else)
	_, ok = elseIf.Else.(*ast.BlockStmt)
	assert.True(t, ok)
}

func TestParseForThreeClauseAndRange(t *testing.T) {
	f := parseOK(t, `
package main;

func sumTo(n int) int {
	total := 0;
	for i := 0; i < n; i++ {
		total += i;
	}
	for i, v := range items {
		total += i + v;
	}
	return total;
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 4)

	forStmt, ok := fn.Body.Stmts[1].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Post)

	rangeStmt, ok := fn.Body.Stmts[2].(*ast.RangeStmt)
	require.True(t, ok)
	assert.Equal(t, "i", rangeStmt.Key.Name)
	assert.Equal(t, "v", rangeStmt.Value.Name)
	assert.True(t, rangeStmt.Define)
}

func TestParseSwitchStmt(t *testing.T) {
	f := parseOK(t, `
package main;

func sign(n int) int {
	switch {
	case n < 0:
		return -1;
	case n > 0:
		return 1;
	default:
		return 0;
	}
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	sw, ok := fn.Body.Stmts[0].(*ast.SwitchStmt)
	require.True(t, ok)
	require.Len(t, sw.Cases, 3)
	assert.Empty(t, sw.Cases[2].Values)
}

func TestParseStructAndCompositeLit(t *testing.T) {
	f := parseOK(t, `
package main;

type Point struct {
	X int;
	Y int;
}

func origin() Point {
	return Point{X: 0, Y: 0};
}
`)
	td, ok := f.Decls[0].(*ast.TypeDecl)
	require.True(t, ok)
	st, ok := td.Type.(*ast.StructTypeExpr)
	require.True(t, ok)
	require.Len(t, st.Fields, 2)

	fn := f.Decls[1].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	lit, ok := ret.Results[0].(*ast.CompositeLit)
	require.True(t, ok)
	require.Len(t, lit.Elts, 2)
	kv, ok := lit.Elts[0].(*ast.KeyValueExpr)
	require.True(t, ok)
	assert.Equal(t, "X", kv.Key.(*ast.Ident).Name)
}

func TestParseGoDeferAndSelect(t *testing.T) {
	f := parseOK(t, `
package main;

func worker(ch chan int) {
	go produce(ch);
	defer close(ch);
	select {
	case v := <-ch:
		use(v);
	default:
		idle();
	}
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 3)

	_, ok := fn.Body.Stmts[0].(*ast.GoStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[1].(*ast.DeferStmt)
	assert.True(t, ok)

	sel, ok := fn.Body.Stmts[2].(*ast.SelectStmt)
	require.True(t, ok)
	require.Len(t, sel.Cases, 2)
	assert.NotNil(t, sel.Cases[0].Comm)
	assert.Nil(t, sel.Cases[1].Comm)
}

func TestParseFuncLitAsCallArgument(t *testing.T) {
	f := parseOK(t, `
package main;

func register() {
	onReady(func() {
		ready = true;
	});
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	call := stmt.X.(*ast.CallExpr)
	require.Len(t, call.Args, 1)
	_, ok := call.Args[0].(*ast.FuncLit)
	assert.True(t, ok)
}

func TestParseCallChainAndIndexing(t *testing.T) {
	f := parseOK(t, `
package main;

func run() {
	result := cache.Get(key).Values[0];
}
`)
	fn := f.Decls[0].(*ast.FuncDecl)
	assign := fn.Body.Stmts[0].(*ast.AssignStmt)
	idx, ok := assign.RHS[0].(*ast.IndexExpr)
	require.True(t, ok)
	sel, ok := idx.X.(*ast.SelectorExpr)
	require.True(t, ok)
	assert.Equal(t, "Values", sel.Sel.Name)
	innerSel := sel.X.(*ast.CallExpr).Fun.(*ast.SelectorExpr)
	assert.Equal(t, "Get", innerSel.Sel.Name)
}

func TestParserReportsErrorOnMissingBrace(t *testing.T) {
	p := New("package main\n\nfunc broken(", WithFilename("test.ember"))
	p.ParseFile()
	assert.NotEmpty(t, p.Errors())
}
