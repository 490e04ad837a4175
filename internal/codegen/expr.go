package codegen

import (
	"strconv"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/opcode"
	"github.com/emberlang/ember/internal/resolver"
)

// genExpr lowers e, leaving its value on top of the evaluation stack.
func (fs *funcState) genExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Ident:
		fs.genIdent(ex)
	case *ast.BasicLit:
		fs.genBasicLit(ex)
	case *ast.BinaryExpr:
		fs.genBinaryExpr(ex)
	case *ast.UnaryExpr:
		fs.genUnaryExpr(ex)
	case *ast.ParenExpr:
		fs.genExpr(ex.X)
	case *ast.CallExpr:
		fs.genCallExpr(ex)
	case *ast.SelectorExpr:
		fs.genSelectorExpr(ex)
	case *ast.IndexExpr:
		fs.genIndexExpr(ex)
	case *ast.CompositeLit:
		fs.genCompositeLit(ex)
	case *ast.FuncLit:
		fs.genFuncLitExpr(ex)
	case *ast.NewCallLit:
		fs.genNewCallLit(ex)
	default:
		fs.gen.internalf("unhandled expression type %T", e)
	}
}

func (fs *funcState) genIdent(id *ast.Ident) {
	if id.Name == "_" || id.Entity == ast.Sentinel {
		// A bare predeclared-function name used as a value has no storage
		// slot; genCallExpr/genBuiltinCall handle the Sentinel case at the
		// call site instead.
		return
	}
	ent, ok := id.EntKey.(funcval.EntIndex)
	if !ok {
		fs.gen.internalf("identifier %q has no resolved entity at codegen time", id.Name)
		return
	}
	fs.emitLoad(ent, fs.identType(id))
}

func (fs *funcState) genBasicLit(lit *ast.BasicLit) {
	v, typ := fs.constValueOf(lit)
	idx := fs.fn.AddConst(v)
	fs.emitLoadConst(idx, typ)
}

// constValueOf decodes a literal token into its constant-pool GosValue. A
// string literal's decoded text is interned into the shared Objects string
// arena immediately, the same arena the VM allocates runtime strings into,
// so the resulting handle is usable as-is rather than requiring the VM to
// decode anything at load time.
func (fs *funcState) constValueOf(lit *ast.BasicLit) (gosvalue.GosValue, gosvalue.ValueType) {
	switch lit.Kind {
	case lexer.INT:
		n, _ := strconv.ParseInt(lit.Value, 0, 64)
		return gosvalue.NewInt(n), gosvalue.Int
	case lexer.FLOAT:
		f, _ := strconv.ParseFloat(lit.Value, 64)
		return gosvalue.NewFloat64(f), gosvalue.Float64
	case lexer.STRING:
		h := fs.gen.objs.PutString(&gosvalue.StringObj{S: lit.Value})
		return gosvalue.NewStr(h), gosvalue.Str
	case lexer.TRUE:
		return gosvalue.NewBool(true), gosvalue.Bool
	case lexer.FALSE:
		return gosvalue.NewBool(false), gosvalue.Bool
	default:
		return gosvalue.NewInt(0), gosvalue.Interface
	}
}

func tokenToBinaryOp(op lexer.TokenType) (opcode.BinaryOp, bool) {
	switch op {
	case lexer.PLUS:
		return opcode.OpAdd, true
	case lexer.MINUS:
		return opcode.OpSub, true
	case lexer.ASTERISK:
		return opcode.OpMul, true
	case lexer.SLASH:
		return opcode.OpDiv, true
	case lexer.PERCENT:
		return opcode.OpMod, true
	case lexer.AMPERSAND:
		return opcode.OpAnd, true
	case lexer.PIPE:
		return opcode.OpOr, true
	case lexer.CARET:
		return opcode.OpXor, true
	case lexer.SHL:
		return opcode.OpShl, true
	case lexer.SHR:
		return opcode.OpShr, true
	case lexer.EQ:
		return opcode.OpEq, true
	case lexer.NOT_EQ:
		return opcode.OpNotEq, true
	case lexer.LT:
		return opcode.OpLess, true
	case lexer.LE:
		return opcode.OpLessEq, true
	case lexer.GT:
		return opcode.OpGreater, true
	case lexer.GE:
		return opcode.OpGreaterEq, true
	case lexer.AND:
		return opcode.OpLogicalAnd, true
	case lexer.OR:
		return opcode.OpLogicalOr, true
	default:
		return 0, false
	}
}

func isComparisonOrLogical(op lexer.TokenType) bool {
	switch op {
	case lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE, lexer.AND, lexer.OR:
		return true
	default:
		return false
	}
}

func (fs *funcState) genBinaryExpr(ex *ast.BinaryExpr) {
	fs.genExpr(ex.X)
	fs.genExpr(ex.Y)
	op, ok := tokenToBinaryOp(ex.Op)
	if !ok {
		fs.gen.internalf("unsupported binary operator %q", ex.Op)
		return
	}
	operandTyp := fs.inferExprType(ex.X)
	if isComparisonOrLogical(ex.Op) {
		fs.emitBinary(op, operandTyp)
		return
	}
	fs.emitBinary(op, operandTyp)
}

func (fs *funcState) genUnaryExpr(ex *ast.UnaryExpr) {
	switch ex.Op {
	case lexer.AMPERSAND:
		fs.genAddressOf(ex.X)
	case lexer.LARROW:
		fs.genExpr(ex.X)
		fs.emitRange() // channel receive shares RANGE's suspend-and-yield-a-pair machinery
	case lexer.MINUS:
		typ := fs.inferExprType(ex.X)
		fs.fn.EmitInst(opcode.PushImm, typ, opcode.AbsentType, opcode.AbsentType, 0, 0)
		fs.genExpr(ex.X)
		fs.emitBinary(opcode.OpSub, typ)
	case lexer.BANG:
		fs.genExpr(ex.X)
		fs.fn.EmitCode(opcode.PushTrue)
		fs.emitBinary(opcode.OpXor, gosvalue.Bool)
	case lexer.ASTERISK:
		fs.genExpr(ex.X)
		fs.emitLoadFieldImm(gosvalue.Pointer, 0)
	default:
		fs.gen.internalf("unsupported unary operator %q", ex.Op)
	}
}

func (fs *funcState) genAddressOf(x ast.Expr) {
	if id, ok := x.(*ast.Ident); ok {
		if ent, ok := id.EntKey.(funcval.EntIndex); ok && ent.Kind == funcval.EntLocalVar {
			fs.fn.EmitInst(opcode.PushImm, gosvalue.Pointer, opcode.AbsentType, opcode.AbsentType, int32(ent.Index), 0)
			return
		}
	}
	fs.gen.internalf("address-of operand must be a local variable")
}

func (fs *funcState) genCallExpr(ex *ast.CallExpr) {
	if id, ok := ex.Fun.(*ast.Ident); ok && id.Entity == ast.Sentinel {
		fs.genNamedCall(id.Name, ex.Args, ex.Ellipsis)
		return
	}
	if sel, ok := ex.Fun.(*ast.SelectorExpr); ok {
		if pkgIdent, ok := sel.X.(*ast.Ident); ok {
			if ref, ok := pkgIdent.EntKey.(resolver.ImportRef); ok {
				fs.genNamedCall(ref.Path+"."+sel.Sel.Name, ex.Args, ex.Ellipsis)
				return
			}
		}
	}
	fs.genExpr(ex.Fun)
	fs.emitPreCall()
	for _, a := range ex.Args {
		fs.genExpr(a)
	}
	fs.emitCall(ex.Ellipsis)
}

// genNamedCall lowers a call resolved by name rather than by value: a
// predeclared builtin or a package-qualified external function. Both share
// the FFI calling convention described in internal/ffi: the callable slot
// holds the function's name as a string constant instead of a Closure, and
// the VM's CALL handling recognizes a Str-tagged callable as a registry
// lookup rather than a closure invocation.
func (fs *funcState) genNamedCall(name string, args []ast.Expr, ellipsis bool) {
	fs.emitLoadConst(fs.internStrConst(name), gosvalue.Str)
	fs.emitPreCall()
	for _, a := range args {
		fs.genExpr(a)
	}
	fs.emitCall(ellipsis)
}

// internStrConst interns s into the constant pool as a Str value, sharing
// the same Objects string arena genBasicLit uses for source string literals.
func (fs *funcState) internStrConst(s string) int {
	h := fs.gen.objs.PutString(&gosvalue.StringObj{S: s})
	return fs.fn.AddConst(gosvalue.NewStr(h))
}

func (fs *funcState) genSelectorExpr(ex *ast.SelectorExpr) {
	if id, ok := ex.X.(*ast.Ident); ok {
		if ref, ok := id.EntKey.(resolver.ImportRef); ok {
			// A package member reference outside of call position (e.g.
			// passed as a value) loads the qualified name as a string; the
			// VM resolves it against the imported package's member table.
			fs.emitLoadConst(fs.internStrConst(ref.Path+"."+ex.Sel.Name), gosvalue.Str)
			return
		}
	}
	fs.genExpr(ex.X)
	fs.emitLoadConst(fs.internStrConst(ex.Sel.Name), gosvalue.Str)
	fs.emitLoadField(fs.inferExprType(ex.X), gosvalue.Str)
}

func (fs *funcState) genIndexExpr(ex *ast.IndexExpr) {
	fs.genExpr(ex.X)
	containerTyp := fs.inferExprType(ex.X)
	if lit, ok := ex.Index.(*ast.BasicLit); ok && lit.Kind == lexer.INT {
		n, _ := strconv.Atoi(lit.Value)
		fs.emitLoadIndexImm(containerTyp, n)
		return
	}
	fs.genExpr(ex.Index)
	fs.emitLoadIndex(containerTyp, fs.inferExprType(ex.Index))
}

func (fs *funcState) genCompositeLit(ex *ast.CompositeLit) {
	typ := fs.gen.resolveTypeExpr(ex.Type)
	vt := fs.gen.valueType(typ)
	fs.emitNew(vt, typ)
	for i, elt := range ex.Elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			fs.genCompositeLitField(typ, vt, kv)
			continue
		}
		fs.genExpr(elt)
		fs.fn.EmitInst(opcode.StoreField, vt, gosvalue.Int, fs.inferExprType(elt), int32(i), 0)
	}
}

// genCompositeLitField resolves a keyed field ("Name: value") to its real
// layout index via the struct's metadata rather than always writing to
// field 0, so every key addresses the field it actually names.
func (fs *funcState) genCompositeLitField(typ metadata.GosMetadata, containerTyp gosvalue.ValueType, kv *ast.KeyValueExpr) {
	key, ok := kv.Key.(*ast.Ident)
	if !ok {
		fs.gen.internalf("composite literal key must be a field name")
		return
	}
	idx, err := fs.gen.registry.FieldIndex(key.Name, typ)
	if err != nil {
		fs.gen.internalf("%v", err)
		return
	}
	fs.genExpr(kv.Value)
	fs.fn.EmitInst(opcode.StoreField, containerTyp, gosvalue.Int, fs.inferExprType(kv.Value), int32(idx), 0)
}

// genFuncLitExpr lowers a closure literal's compiled FunctionVal into a real
// Closure value: the function gets a stable index into the program's
// function table (internFunc), and a ClosureObj recording that index as
// FuncKey is interned into the shared Objects arena so the VM can look the
// function back up from the constant the closure loads.
func (fs *funcState) genFuncLitExpr(lit *ast.FuncLit) {
	fv := fs.gen.genFuncLit(fs, lit)
	key := fs.gen.internFunc(fv)
	h := fs.gen.objs.PutClosure(&gosvalue.ClosureObj{FuncKey: int64(key)})
	idx := fs.fn.AddConst(gosvalue.NewClosure(h))
	fs.emitLoadConst(idx, gosvalue.Closure)
}

func (fs *funcState) genNewCallLit(ex *ast.NewCallLit) {
	typ := fs.gen.resolveTypeExpr(ex.Type)
	fs.emitNew(fs.gen.valueType(typ), typ)
}
