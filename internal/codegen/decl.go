package codegen

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
	"github.com/emberlang/ember/internal/resolver"
)

// declareFunc builds fn's signature metadata and an empty FunctionVal,
// registering it under fn's package-member slot if it is a plain function
// (methods live on their receiver type's method table instead).
func (g *Generator) declareFunc(fn *ast.FuncDecl) {
	sig := g.funcSignature(fn)
	paramCount := len(fn.Sig.Params)
	resultCount := len(fn.Sig.Results)
	if fn.Recv != nil {
		paramCount++
	}
	name := fn.Name.Name
	fv := funcval.New(name, sig, paramCount, resultCount, fn.Sig.Variadic)
	g.funcs[fn] = fv
	g.internFunc(fv)

	if fn.Recv == nil && fn.Name.Entity == ast.Entity {
		if ent, ok := fn.Name.EntKey.(funcval.EntIndex); ok && ent.Kind == funcval.EntPackageMember {
			g.pkgMembers[ent.Index] = sig
		}
	}
}

// genFuncPackageMemberInit stores fn's compiled closure into the package
// member slot its name resolved to, so an ordinary call to a sibling
// top-level function loads a real Closure value rather than whatever the
// signature-only metadata declareFunc wrote there leaves behind. Methods
// have no package-member slot of their own and are skipped.
func (g *Generator) genFuncPackageMemberInit(fs *funcState, fn *ast.FuncDecl) {
	if fn.Recv != nil || fn.Name.Entity != ast.Entity {
		return
	}
	ent, ok := fn.Name.EntKey.(funcval.EntIndex)
	if !ok || ent.Kind != funcval.EntPackageMember {
		return
	}
	fv := g.funcs[fn]
	key := g.internFunc(fv)
	h := g.objs.PutClosure(&gosvalue.ClosureObj{FuncKey: int64(key)})
	idx := fs.fn.AddConst(gosvalue.NewClosure(h))
	fs.emitLoadConst(idx, gosvalue.Closure)
	fs.emitStore(leftHandSide{kind: lhsPrimitive, ent: ent, typ: gosvalue.Closure}, -1, nil)
}

func (g *Generator) funcSignature(fn *ast.FuncDecl) metadata.GosMetadata {
	var recv *metadata.GosMetadata
	if fn.Recv != nil {
		m := g.resolveTypeExpr(fn.Recv.Type)
		if fn.Recv.Pointer {
			if ptr, err := g.registry.PtrTo(m); err == nil {
				m = ptr
			}
		}
		recv = &m
	}
	params := make([]metadata.GosMetadata, len(fn.Sig.Params))
	for i, p := range fn.Sig.Params {
		params[i] = g.resolveTypeExpr(p.Type)
	}
	results := make([]metadata.GosMetadata, len(fn.Sig.Results))
	for i, r := range fn.Sig.Results {
		results[i] = g.resolveTypeExpr(r.Type)
	}
	return g.registry.NewSig(recv, params, results, fn.Sig.Variadic)
}

// declarePackageMembers registers the metadata for a package-level var/const
// group's slots: the declared Type when present, otherwise Interface (Values
// are not inspected).
func (g *Generator) declarePackageMembers(names []*ast.Ident, typ ast.TypeExpr, values []ast.Expr) {
	for i, name := range names {
		if name.Name == "_" {
			continue
		}
		ent, ok := name.EntKey.(funcval.EntIndex)
		if !ok || ent.Kind != funcval.EntPackageMember {
			continue
		}
		var m metadata.GosMetadata
		if typ != nil {
			m = g.resolveTypeExpr(typ)
		} else if i < len(values) {
			m = g.registry.Scalar(gosvalue.Interface)
		} else {
			m = g.registry.Scalar(gosvalue.Interface)
		}
		g.pkgMembers[ent.Index] = m
	}
}

// genPackageInit lowers one package-level var/const group's initializers
// into the package __init__ function.
func (g *Generator) genPackageInit(fs *funcState, names []*ast.Ident, values []ast.Expr) {
	if len(values) == 0 {
		return
	}
	for i, name := range names {
		if i >= len(values) {
			break
		}
		fs.genExpr(values[i])
		if name.Name == "_" {
			fs.emitPop(fs.inferExprType(values[i]))
			continue
		}
		ent, ok := name.EntKey.(funcval.EntIndex)
		if !ok {
			continue
		}
		typ := fs.gen.valueType(fs.gen.pkgMembers[ent.Index])
		fs.emitStore(leftHandSide{kind: lhsPrimitive, ent: ent, typ: typ}, -1, nil)
	}
}

// genFuncBody lowers fn's parameter/result/receiver locals and its block
// body into the FunctionVal declareFunc already created for it.
func (g *Generator) genFuncBody(fn *ast.FuncDecl) {
	fv := g.funcs[fn]
	info := g.res.ByNode[fn]
	if info == nil {
		g.internalf("no resolver info for function %q", fn.Name.Name)
		return
	}
	fs := &funcState{gen: g, fn: fv, info: info}

	if fn.Recv != nil && fn.Recv.Name != nil && fn.Recv.Name.Name != "_" {
		fs.addLocal(fn.Recv.Name.Name, g.valueType(g.resolveTypeExpr(fn.Recv.Type)), g.resolveTypeExpr(fn.Recv.Type))
	}
	for _, p := range fn.Sig.Params {
		if p.Name != nil && p.Name.Name != "_" {
			m := g.resolveTypeExpr(p.Type)
			fs.addLocal(p.Name.Name, g.valueType(m), m)
		}
	}
	for _, r := range fn.Sig.Results {
		if r.Name != nil && r.Name.Name != "_" {
			m := g.resolveTypeExpr(r.Type)
			fs.addLocal(r.Name.Name, g.valueType(m), m)
		}
	}

	fs.genBlock(fn.Body)
	if fv.Len() == 0 || fv.Code()[fv.Len()-1].Op != opcode.Return {
		fs.emitReturn()
	}
}

// genFuncLit lowers a closure literal encountered inside an enclosing
// function body, wiring its up-value table from the enclosing funcState.
func (g *Generator) genFuncLit(outer *funcState, lit *ast.FuncLit) *funcval.FunctionVal {
	info := g.res.ByNode[lit]
	if info == nil {
		g.internalf("no resolver info for function literal")
		return funcval.New("", metadata.GosMetadata{}, 0, 0, false)
	}
	params := make([]metadata.GosMetadata, len(lit.Sig.Params))
	for i, p := range lit.Sig.Params {
		params[i] = g.resolveTypeExpr(p.Type)
	}
	results := make([]metadata.GosMetadata, len(lit.Sig.Results))
	for i, r := range lit.Sig.Results {
		results[i] = g.resolveTypeExpr(r.Type)
	}
	sig := g.registry.NewSig(nil, params, results, lit.Sig.Variadic)
	fv := funcval.New("", sig, len(lit.Sig.Params), len(lit.Sig.Results), lit.Sig.Variadic)
	g.funcs[lit] = fv

	fs := &funcState{gen: g, parent: outer, fn: fv, info: info}

	for i, p := range lit.Sig.Params {
		if p.Name != nil && p.Name.Name != "_" {
			fs.addLocal(p.Name.Name, g.valueType(params[i]), params[i])
		}
	}
	for i, r := range lit.Sig.Results {
		if r.Name != nil && r.Name.Name != "_" {
			fs.addLocal(r.Name.Name, g.valueType(results[i]), results[i])
		}
	}

	for _, uv := range info.Upvalues {
		typ := outer.upvalueSourceType(uv)
		fv.AddUpvalue(uv.Symbol, g.registry.Scalar(typ), uv.FromParentUp, uv.ParentIndex)
		fs.upvalTypes = append(fs.upvalTypes, typ)
	}

	fs.genBlock(lit.Body)
	if fv.Len() == 0 || fv.Code()[fv.Len()-1].Op != opcode.Return {
		fs.emitReturn()
	}
	return fv
}

// upvalueSourceType resolves the ValueType of the binding a child closure
// captures from this function: one of its own locals or one of its own
// already-captured upvalues, per the FromParentUp flag resolver recorded.
func (fs *funcState) upvalueSourceType(uv resolver.Upvalue) gosvalue.ValueType {
	if uv.FromParentUp {
		if uv.ParentIndex < len(fs.upvalTypes) {
			return fs.upvalTypes[uv.ParentIndex]
		}
		return gosvalue.Interface
	}
	if uv.ParentIndex < len(fs.localTypes) {
		return fs.localTypes[uv.ParentIndex]
	}
	return gosvalue.Interface
}
