// Package codegen lowers a resolved syntax tree into the linear instruction
// streams consumed by the bytecode virtual machine: one FunctionVal per
// source function declaration and closure literal, sharing a single
// metadata registry built up as type expressions are walked.
//
// The generator never performs scope resolution itself; internal/resolver
// has already annotated every value Ident with the entity it binds to, so
// genExpr and genStmt just dispatch on AST shape and lower straight to
// opcodes.
package codegen

import (
	"fmt"
	"sort"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
	"github.com/emberlang/ember/internal/resolver"
)

// initPackageIndex is the package index this generator's own package occupies
// in the running program. A single-package build always initializes itself
// first.
const initPackageIndex = 0

// Program is everything code generation produces from one file: the compiled
// functions, the metadata registry they reference, and enough of the
// import/package-member layout for the VM to link and run them.
type Program struct {
	Registry       *metadata.Registry
	Objects        *gosvalue.Objects
	Funcs          []*funcval.FunctionVal
	InitFunc       *funcval.FunctionVal // package __init__, run before main
	PackageMembers []metadata.GosMetadata
	Imports        []string // package paths, in IMPORT operand order
}

// Generator walks one resolved file and builds its Program.
type Generator struct {
	registry *metadata.Registry
	objs     *gosvalue.Objects
	res      *resolver.Result
	file     *ast.File

	funcs      map[ast.Node]*funcval.FunctionVal
	funcIndex  map[*funcval.FunctionVal]int
	funcOrder  []*funcval.FunctionVal // Program.Funcs, indexed by ClosureObj.FuncKey
	pkgMembers []metadata.GosMetadata // parallel to res.PackageMembers
	importIdx  map[string]int
	imports    []string

	diags []diag.Diagnostic
}

// NewGenerator constructs a Generator sharing the given metadata registry and
// value arena, so multiple files/packages in the same program intern into the
// same tables.
func NewGenerator(registry *metadata.Registry, objs *gosvalue.Objects) *Generator {
	return &Generator{
		registry:  registry,
		objs:      objs,
		funcs:     make(map[ast.Node]*funcval.FunctionVal),
		funcIndex: make(map[*funcval.FunctionVal]int),
		importIdx: make(map[string]int),
	}
}

// internFunc assigns fv a stable index into the program's function table,
// shared by top-level declarations (assigned in declareFunc, pass 1) and
// closure literals (assigned in genFuncLit as each is encountered during
// pass 2). A ClosureObj's FuncKey is one of these indices.
func (g *Generator) internFunc(fv *funcval.FunctionVal) int {
	if idx, ok := g.funcIndex[fv]; ok {
		return idx
	}
	idx := len(g.funcOrder)
	g.funcIndex[fv] = idx
	g.funcOrder = append(g.funcOrder, fv)
	return idx
}

// Generate lowers file (already scope-resolved via res) into a Program.
func (g *Generator) Generate(file *ast.File, res *resolver.Result) (*Program, []diag.Diagnostic) {
	g.file = file
	g.res = res
	g.pkgMembers = make([]metadata.GosMetadata, len(res.PackageMembers))

	// res.Imports is keyed by alias, so its iteration order is random;
	// sort by alias to keep IMPORT instruction order stable across runs.
	aliases := make([]string, 0, len(res.Imports))
	for alias := range res.Imports {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		g.internImport(res.Imports[alias])
	}

	// Pass 1: register every package-level function signature and member
	// slot type before lowering any body, so forward references (including
	// mutually recursive functions) resolve against a real FunctionVal.
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			g.declareFunc(d)
		case *ast.VarDecl:
			g.declarePackageMembers(d.Names, d.Type, d.Values)
		case *ast.ConstDecl:
			g.declarePackageMembers(d.Names, d.Type, d.Values)
		case *ast.TypeDecl:
			// Resolving named-type declarations against each other requires
			// a dependency-ordered walk this generator does not perform;
			// type expressions are resolved lazily, at each use site, via
			// resolveTypeExpr. See DESIGN.md.
		}
	}

	initFn := funcval.New("__init__", metadata.GosMetadata{}, 0, 0, false)
	fs := &funcState{gen: g, fn: initFn, info: &resolver.FuncInfo{}}
	for _, path := range g.imports {
		g.emitImportGuard(fs, g.importIdx[path])
	}
	// Every top-level function gets a real Closure value in its
	// package-member slot before any var/const initializer runs, since an
	// initializer (e.g. "var x = foo()") may call a sibling function.
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			g.genFuncPackageMemberInit(fs, fn)
		}
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			g.genPackageInit(fs, d.Names, d.Values)
		case *ast.ConstDecl:
			g.genPackageInit(fs, d.Names, d.Values)
		}
	}
	fs.fn.EmitInst(opcode.ReturnInitPkg, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(initPackageIndex), 0)

	// Pass 2: lower every function body now that all package members and
	// function signatures exist.
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Body != nil {
			g.genFuncBody(fn)
		}
	}

	return &Program{
		Registry:       g.registry,
		Objects:        g.objs,
		Funcs:          g.funcOrder,
		InitFunc:       initFn,
		PackageMembers: g.pkgMembers,
		Imports:        g.imports,
	}, g.diags
}

func (g *Generator) internImport(path string) int {
	if idx, ok := g.importIdx[path]; ok {
		return idx
	}
	idx := len(g.imports)
	g.importIdx[path] = idx
	g.imports = append(g.imports, path)
	return idx
}

func (g *Generator) errorf(span diag.Span, code diag.Code, format string, args ...interface{}) {
	g.diags = append(g.diags, diag.Diagnostic{
		Stage: diag.StageCodegen, Severity: diag.SeverityError, Code: code,
		Message: fmt.Sprintf(format, args...), Span: span,
	})
}

func (g *Generator) internalf(format string, args ...interface{}) {
	g.errorf(diag.Span{}, diag.CodeCodegenInternal, format, args...)
}

func spanOf(n ast.Node) diag.Span {
	s := n.Span()
	return diag.Span{Filename: s.Filename, Line: s.Line, Column: s.Column, Start: s.Start, End: s.End}
}
