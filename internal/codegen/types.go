package codegen

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
)

// builtinScalars maps the predeclared type names to their ValueType tag.
// Named types that are not one of these resolve through the registry's
// Named/Struct construction paths instead.
var builtinScalars = map[string]gosvalue.ValueType{
	"bool":       gosvalue.Bool,
	"int":        gosvalue.Int,
	"int8":       gosvalue.Int8,
	"int16":      gosvalue.Int16,
	"int32":      gosvalue.Int32,
	"int64":      gosvalue.Int64,
	"uint":       gosvalue.Uint,
	"uint8":      gosvalue.Uint8,
	"byte":       gosvalue.Uint8,
	"uint16":     gosvalue.Uint16,
	"uint32":     gosvalue.Uint32,
	"uint64":     gosvalue.Uint64,
	"float32":    gosvalue.Float32,
	"float64":    gosvalue.Float64,
	"complex64":  gosvalue.Complex64,
	"complex128": gosvalue.Complex128,
	"string":     gosvalue.Str,
}

// resolveTypeExpr constructs (or looks up) the GosMetadata for a parsed type
// expression. Named types not found among the builtin scalars resolve to an
// opaque Named wrapper over Interface metadata; internal/resolver's type-name namespace is not
// wired into this generator, since the source program's type declarations
// are walked independently of the value-entity graph codegen consumes (see
// DESIGN.md).
func (g *Generator) resolveTypeExpr(t ast.TypeExpr) metadata.GosMetadata {
	if t == nil {
		return g.registry.Scalar(gosvalue.Interface)
	}
	switch te := t.(type) {
	case *ast.NamedTypeExpr:
		if te.Pkg == nil {
			if vt, ok := builtinScalars[te.Name.Name]; ok {
				return g.registry.Scalar(vt)
			}
			if te.Name.Name == "error" {
				return g.registry.NewInterface(nil)
			}
		}
		// Cross-package or user-declared named type: represented as an
		// opaque named wrapper over Interface until a full type-declaration
		// walk backfills its real underlying shape.
		return g.registry.NewNamed(g.registry.Scalar(gosvalue.Interface))
	case *ast.PointerTypeExpr:
		elem := g.resolveTypeExpr(te.Elem)
		ptr, err := g.registry.PtrTo(elem)
		if err != nil {
			g.internalf("pointer depth overflow: %v", err)
			return elem
		}
		return ptr
	case *ast.SliceTypeExpr:
		return g.registry.NewSlice(g.resolveTypeExpr(te.Elem))
	case *ast.MapTypeExpr:
		return g.registry.NewMap(g.resolveTypeExpr(te.Key), g.resolveTypeExpr(te.Value))
	case *ast.ChanTypeExpr:
		return g.registry.NewChannel(g.resolveTypeExpr(te.Elem))
	case *ast.StructTypeExpr:
		return g.registry.NewStruct(g.structFields(te.Fields))
	case *ast.InterfaceTypeExpr:
		return g.registry.NewInterface(g.structFields(te.Methods))
	case *ast.FuncTypeExpr:
		params := make([]metadata.GosMetadata, len(te.Params))
		for i, p := range te.Params {
			params[i] = g.resolveTypeExpr(p.Type)
		}
		results := make([]metadata.GosMetadata, len(te.Results))
		for i, r := range te.Results {
			results[i] = g.resolveTypeExpr(r.Type)
		}
		return g.registry.NewSig(nil, params, results, te.Variadic)
	default:
		g.internalf("unhandled type expression %T", t)
		return g.registry.Scalar(gosvalue.Interface)
	}
}

func (g *Generator) structFields(fields []ast.Field) []metadata.Field {
	out := make([]metadata.Field, 0, len(fields))
	for _, f := range fields {
		name := ""
		if f.Name != nil {
			name = f.Name.Name
		}
		out = append(out, metadata.Field{Name: name, Type: g.resolveTypeExpr(f.Type)})
	}
	return out
}

// valueType is a thin convenience over the registry's dynamic dispatch for a
// resolved metadata handle.
func (g *Generator) valueType(m metadata.GosMetadata) gosvalue.ValueType {
	return g.registry.GetValueType(m)
}

// inferExprType makes a conservative best-effort guess at the ValueType an
// expression evaluates to, used only to annotate instruction operands. It is
// not a type checker: full static typing (overload resolution, generic
// instantiation, interface satisfaction) is out of scope for this core, so
// an unrecognized shape falls back to Interface, which the VM treats as "tag
// carried by the value itself, ignore the operand hint". This mirrors the
// source language's own incomplete checker, which this implementation does
// not port (see DESIGN.md's Non-goals discussion).
func (fs *funcState) inferExprType(e ast.Expr) gosvalue.ValueType {
	switch ex := e.(type) {
	case *ast.BasicLit:
		return literalType(ex)
	case *ast.Ident:
		return fs.identType(ex)
	case *ast.BinaryExpr:
		switch ex.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return gosvalue.Bool
		default:
			return fs.inferExprType(ex.X)
		}
	case *ast.UnaryExpr:
		if ex.Op == "!" {
			return gosvalue.Bool
		}
		if ex.Op == "&" {
			return gosvalue.Pointer
		}
		return fs.inferExprType(ex.X)
	case *ast.ParenExpr:
		return fs.inferExprType(ex.X)
	case *ast.CallExpr:
		return fs.callResultType(ex)
	case *ast.IndexExpr:
		return gosvalue.Interface
	case *ast.SelectorExpr:
		return gosvalue.Interface
	case *ast.CompositeLit:
		if ex.Type != nil {
			return fs.gen.valueType(fs.gen.resolveTypeExpr(ex.Type))
		}
		return gosvalue.Struct
	case *ast.FuncLit:
		return gosvalue.Closure
	case *ast.NewCallLit:
		return gosvalue.Pointer
	default:
		return gosvalue.Interface
	}
}

func literalType(lit *ast.BasicLit) gosvalue.ValueType {
	switch lit.Kind {
	case "INT":
		return gosvalue.Int
	case "FLOAT":
		return gosvalue.Float64
	case "STRING":
		return gosvalue.Str
	case "TRUE", "FALSE":
		return gosvalue.Bool
	default:
		return gosvalue.Interface
	}
}

func (fs *funcState) identType(id *ast.Ident) gosvalue.ValueType {
	ent, ok := id.EntKey.(funcval.EntIndex)
	if !ok {
		return gosvalue.Interface
	}
	switch ent.Kind {
	case funcval.EntLocalVar:
		if ent.Index < len(fs.localTypes) {
			return fs.localTypes[ent.Index]
		}
	case funcval.EntUpValue:
		if ent.Index < len(fs.upvalTypes) {
			return fs.upvalTypes[ent.Index]
		}
	case funcval.EntPackageMember:
		if ent.Index < len(fs.gen.pkgMembers) {
			return fs.gen.valueType(fs.gen.pkgMembers[ent.Index])
		}
	case funcval.EntConst:
		return fs.fn.ConstVal(ent.Index).Type()
	}
	return gosvalue.Interface
}

func (fs *funcState) callResultType(call *ast.CallExpr) gosvalue.ValueType {
	if id, ok := call.Fun.(*ast.Ident); ok && id.Entity == ast.Sentinel {
		return builtinResultType(id.Name)
	}
	return gosvalue.Interface
}

func builtinResultType(name string) gosvalue.ValueType {
	switch name {
	case "len", "cap":
		return gosvalue.Int
	default:
		return gosvalue.Interface
	}
}
