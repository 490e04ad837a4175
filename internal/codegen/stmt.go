package codegen

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/opcode"
)

func (fs *funcState) genBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		fs.genStmt(s)
	}
}

func (fs *funcState) genStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		fs.genLocalVarDecl(st.Names, st.Values)
	case *ast.ConstDecl:
		fs.genLocalVarDecl(st.Names, st.Values)
	case *ast.BlockStmt:
		fs.genBlock(st)
	case *ast.ExprStmt:
		fs.genExprStmt(st)
	case *ast.AssignStmt:
		fs.genAssignStmt(st)
	case *ast.IncDecStmt:
		fs.genIncDecStmt(st)
	case *ast.ReturnStmt:
		fs.genReturnStmt(st)
	case *ast.IfStmt:
		fs.genIfStmt(st)
	case *ast.ForStmt:
		fs.genForStmt(st)
	case *ast.RangeStmt:
		fs.genRangeStmt(st)
	case *ast.BranchStmt:
		fs.genBranchStmt(st)
	case *ast.DeferStmt:
		fs.genDeferStmt(st)
	case *ast.GoStmt:
		fs.genGoStmt(st)
	case *ast.SwitchStmt:
		fs.genSwitchStmt(st)
	case *ast.SelectStmt:
		fs.genSelectStmt(st)
	case *ast.SendStmt:
		fs.genSendStmt(st)
	default:
		fs.gen.internalf("unhandled statement type %T", s)
	}
}

// genLocalVarDecl lowers a "var"/"const" group appearing inside a function
// body, adding a fresh local for every named slot in declaration order.
func (fs *funcState) genLocalVarDecl(names []*ast.Ident, values []ast.Expr) {
	for i, name := range names {
		var typ gosvalue.ValueType = gosvalue.Interface
		hasValue := i < len(values)
		if hasValue {
			typ = fs.inferExprType(values[i])
		}
		if name.Name != "_" {
			fs.addLocal(name.Name, typ, fs.gen.registry.Scalar(typ))
		}
		if !hasValue {
			continue
		}
		fs.genExpr(values[i])
		if name.Name == "_" {
			fs.emitPop(typ)
			continue
		}
		ent, ok := name.EntKey.(funcval.EntIndex)
		if !ok {
			fs.gen.internalf("local %q has no resolved entity at codegen time", name.Name)
			continue
		}
		fs.emitStore(leftHandSide{kind: lhsPrimitive, ent: ent, typ: typ}, -1, nil)
	}
}

func (fs *funcState) genExprStmt(st *ast.ExprStmt) {
	fs.genExpr(st.X)
	fs.emitPop(fs.inferExprType(st.X))
}

func compoundBinaryOp(op lexer.TokenType) (opcode.BinaryOp, bool) {
	switch op {
	case lexer.PLUS_ASSIGN:
		return opcode.OpAdd, true
	case lexer.MINUS_ASSIGN:
		return opcode.OpSub, true
	case lexer.ASTERISK_ASSIGN:
		return opcode.OpMul, true
	case lexer.SLASH_ASSIGN:
		return opcode.OpDiv, true
	case lexer.PERCENT_ASSIGN:
		return opcode.OpMod, true
	case lexer.AMPERSAND_ASSIGN:
		return opcode.OpAnd, true
	case lexer.PIPE_ASSIGN:
		return opcode.OpOr, true
	case lexer.CARET_ASSIGN:
		return opcode.OpXor, true
	default:
		return 0, false
	}
}

func (fs *funcState) genAssignStmt(st *ast.AssignStmt) {
	if st.Op == lexer.DEFINE {
		fs.genDefineAssign(st)
		return
	}
	if op, ok := compoundBinaryOp(st.Op); ok {
		if len(st.LHS) != 1 || len(st.RHS) != 1 {
			fs.gen.internalf("compound assignment must have exactly one operand on each side")
			return
		}
		fs.genExpr(st.RHS[0])
		lhs := fs.evalLHS(st.LHS[0])
		fs.emitStore(lhs, -1, &op)
		return
	}
	for i := range st.LHS {
		if i >= len(st.RHS) {
			break
		}
		fs.genExpr(st.RHS[i])
		lhs := fs.evalLHS(st.LHS[i])
		fs.emitStore(lhs, -1, nil)
	}
}

// genDefineAssign lowers ":=". Every named target is treated as a freshly
// declared local: internal/resolver hands out a new slot index for every
// non-blank name on the left of ":=", and codegen mirrors that by calling
// addLocal once per name here, in the same left-to-right order.
func (fs *funcState) genDefineAssign(st *ast.AssignStmt) {
	for i, target := range st.LHS {
		if i >= len(st.RHS) {
			break
		}
		id, ok := target.(*ast.Ident)
		if !ok {
			fs.gen.internalf("%q is not a valid short variable declaration target", target)
			continue
		}
		typ := fs.inferExprType(st.RHS[i])
		fs.genExpr(st.RHS[i])
		if id.Name == "_" {
			fs.emitPop(typ)
			continue
		}
		fs.addLocal(id.Name, typ, fs.gen.registry.Scalar(typ))
		ent, ok := id.EntKey.(funcval.EntIndex)
		if !ok {
			fs.gen.internalf("identifier %q has no resolved entity at codegen time", id.Name)
			continue
		}
		fs.emitStore(leftHandSide{kind: lhsPrimitive, ent: ent, typ: typ}, -1, nil)
	}
}

// evalLHS evaluates the container/index/key operands (if any) of an
// assignable expression and returns the descriptor emitStore needs to
// finish the job once the right-hand value is also on the stack.
func (fs *funcState) evalLHS(e ast.Expr) leftHandSide {
	switch v := e.(type) {
	case *ast.Ident:
		if v.Name == "_" {
			return leftHandSide{kind: lhsPrimitive, ent: funcval.Blank}
		}
		ent, ok := v.EntKey.(funcval.EntIndex)
		if !ok {
			fs.gen.internalf("identifier %q has no resolved entity at codegen time", v.Name)
			return leftHandSide{kind: lhsPrimitive, ent: funcval.Blank}
		}
		return leftHandSide{kind: lhsPrimitive, ent: ent, typ: fs.identType(v)}
	case *ast.SelectorExpr:
		fs.genExpr(v.X)
		fs.emitLoadConst(fs.internStrConst(v.Sel.Name), gosvalue.Str)
		return leftHandSide{kind: lhsIndexSel, isIndex: false, containerTyp: fs.inferExprType(v.X), keyTyp: gosvalue.Str, typ: gosvalue.Interface}
	case *ast.IndexExpr:
		fs.genExpr(v.X)
		containerTyp := fs.inferExprType(v.X)
		fs.genExpr(v.Index)
		return leftHandSide{kind: lhsIndexSel, isIndex: true, containerTyp: containerTyp, keyTyp: fs.inferExprType(v.Index), typ: gosvalue.Interface}
	case *ast.UnaryExpr:
		if v.Op == lexer.ASTERISK {
			if id, ok := v.X.(*ast.Ident); ok {
				if ent, ok := id.EntKey.(funcval.EntIndex); ok && ent.Kind == funcval.EntLocalVar {
					return leftHandSide{kind: lhsDeref, ptrSlot: int32(ent.Index), typ: gosvalue.Interface}
				}
			}
		}
		fs.gen.internalf("unsupported assignment target %T", e)
		return leftHandSide{kind: lhsPrimitive, ent: funcval.Blank}
	default:
		fs.gen.internalf("unsupported assignment target %T", e)
		return leftHandSide{kind: lhsPrimitive, ent: funcval.Blank}
	}
}

func (fs *funcState) genIncDecStmt(st *ast.IncDecStmt) {
	typ := fs.inferExprType(st.X)
	one := fs.fn.AddConst(gosvalue.NewInt(1))
	fs.emitLoadConst(one, typ)
	op := opcode.OpAdd
	if !st.Inc {
		op = opcode.OpSub
	}
	lhs := fs.evalLHS(st.X)
	fs.emitStore(lhs, -1, &op)
}

func (fs *funcState) genReturnStmt(st *ast.ReturnStmt) {
	for _, r := range st.Results {
		fs.genExpr(r)
	}
	fs.emitReturn()
}

func (fs *funcState) genIfStmt(st *ast.IfStmt) {
	if st.Init != nil {
		fs.genStmt(st.Init)
	}
	fs.genExpr(st.Cond)
	falseJump := fs.emitJump(opcode.JumpIfNot)
	fs.genBlock(st.Body)
	if st.Else == nil {
		fs.patchAll([]int{falseJump}, fs.fn.Len())
		return
	}
	exitJump := fs.emitJump(opcode.Jump)
	fs.patchAll([]int{falseJump}, fs.fn.Len())
	switch e := st.Else.(type) {
	case *ast.BlockStmt:
		fs.genBlock(e)
	case *ast.IfStmt:
		fs.genIfStmt(e)
	default:
		fs.gen.internalf("unsupported else clause %T", st.Else)
	}
	fs.patchAll([]int{exitJump}, fs.fn.Len())
}

func (fs *funcState) genForStmt(st *ast.ForStmt) {
	if st.Init != nil {
		fs.genStmt(st.Init)
	}
	lc := fs.pushLoop()
	condPC := fs.fn.Len()
	var exitJump int
	hasCond := st.Cond != nil
	if hasCond {
		fs.genExpr(st.Cond)
		exitJump = fs.emitJump(opcode.JumpIfNot)
	}
	fs.genBlock(st.Body)
	postPC := fs.fn.Len()
	if st.Post != nil {
		fs.genStmt(st.Post)
	}
	back := fs.emitJump(opcode.Jump)
	fs.patchAll([]int{back}, condPC)
	exitPC := fs.fn.Len()
	if hasCond {
		fs.patchAll([]int{exitJump}, exitPC)
	}
	fs.patchAll(lc.breaks, exitPC)
	fs.patchAll(lc.continues, postPC)
	fs.popLoop()
}

// genRangeStmt lowers "for k, v := range x". RANGE advances the iterator
// built from the value under x, pushing a continuation flag that
// JUMP_IF_NOT consumes to end the loop, then the key and the element for the
// body to bind. A loop variable that is absent or blank has its value popped,
// so only the iterator stays on the stack between iterations.
func (fs *funcState) genRangeStmt(st *ast.RangeStmt) {
	fs.genExpr(st.X)
	lc := fs.pushLoop()
	loopPC := fs.fn.Len()
	fs.emitRange()
	exitJump := fs.emitJump(opcode.JumpIfNot)
	fs.bindRangeVar(st.Key, st.Define, gosvalue.Int)
	fs.bindRangeVar(st.Value, st.Define, gosvalue.Interface)
	fs.genBlock(st.Body)
	back := fs.emitJump(opcode.Jump)
	fs.patchAll([]int{back}, loopPC)
	exitPC := fs.fn.Len()
	fs.patchAll([]int{exitJump}, exitPC)
	fs.patchAll(lc.breaks, exitPC)
	fs.patchAll(lc.continues, loopPC)
	fs.popLoop()
}

func (fs *funcState) bindRangeVar(id *ast.Ident, define bool, typ gosvalue.ValueType) {
	if id == nil || id.Name == "_" {
		fs.emitPop(typ)
		return
	}
	if define {
		fs.addLocal(id.Name, typ, fs.gen.registry.Scalar(typ))
	}
	ent, ok := id.EntKey.(funcval.EntIndex)
	if !ok {
		fs.gen.internalf("range variable %q has no resolved entity at codegen time", id.Name)
		return
	}
	fs.emitStore(leftHandSide{kind: lhsPrimitive, ent: ent, typ: typ}, -1, nil)
}

func (fs *funcState) genBranchStmt(st *ast.BranchStmt) {
	lc := fs.currentLoop()
	if lc == nil {
		fs.gen.internalf("%s outside of a loop or switch", st.Tok)
		return
	}
	pc := fs.emitJump(opcode.Jump)
	if st.Tok == lexer.BREAK {
		lc.breaks = append(lc.breaks, pc)
		return
	}
	lc.continues = append(lc.continues, pc)
}

func (fs *funcState) genDeferStmt(st *ast.DeferStmt) {
	fs.genCallOperands(st.Call)
	fs.fn.EmitCode(opcode.Defer)
}

func (fs *funcState) genGoStmt(st *ast.GoStmt) {
	fs.genCallOperands(st.Call)
	fs.fn.EmitCode(opcode.Go)
}

// genCallOperands pushes a call's callee and arguments the same way
// genCallExpr does, but without the trailing CALL: GO and DEFER each take
// ownership of the prepared call and decide for themselves when to run it.
func (fs *funcState) genCallOperands(call *ast.CallExpr) {
	fs.genExpr(call.Fun)
	fs.emitPreCall()
	for _, a := range call.Args {
		fs.genExpr(a)
	}
}

// genSwitchStmt desugars to a chain of per-case equality tests against Tag
// (or, for a tagless switch, the case expression itself treated as a
// boolean), in source order, falling through to default when none match.
// There is no fallthrough keyword in this language, so each case body ends
// by jumping straight to the statement's exit.
func (fs *funcState) genSwitchStmt(st *ast.SwitchStmt) {
	if st.Init != nil {
		fs.genStmt(st.Init)
	}
	lc := fs.pushLoop()
	tagTyp := gosvalue.Bool
	if st.Tag != nil {
		tagTyp = fs.inferExprType(st.Tag)
	}
	defaultIdx := -1
	var nextJumps []int
	var endJumps []int
	for i, c := range st.Cases {
		if len(c.Values) == 0 {
			defaultIdx = i
			continue
		}
		fs.patchAll(nextJumps, fs.fn.Len())
		nextJumps = nil
		var matchJumps []int
		for _, v := range c.Values {
			if st.Tag != nil {
				fs.genExpr(st.Tag)
				fs.genExpr(v)
				fs.emitBinary(opcode.OpEq, tagTyp)
			} else {
				fs.genExpr(v)
			}
			matchJumps = append(matchJumps, fs.emitJump(opcode.JumpIf))
		}
		nextJumps = append(nextJumps, fs.emitJump(opcode.Jump))
		fs.patchAll(matchJumps, fs.fn.Len())
		for _, s := range c.Body {
			fs.genStmt(s)
		}
		endJumps = append(endJumps, fs.emitJump(opcode.Jump))
	}
	fs.patchAll(nextJumps, fs.fn.Len())
	if defaultIdx >= 0 {
		for _, s := range st.Cases[defaultIdx].Body {
			fs.genStmt(s)
		}
	}
	endPC := fs.fn.Len()
	fs.patchAll(endJumps, endPC)
	fs.patchAll(lc.breaks, endPC)
	fs.popLoop()
}

func (fs *funcState) genSendStmt(st *ast.SendStmt) {
	fs.genExpr(st.Chan)
	fs.genExpr(st.Value)
	fs.fn.EmitCode(opcode.Send)
}

// genSelectStmt lowers "select". Each non-default case pushes its channel
// operand (and, for a send, its value) before SELECT; codegen then emits one
// placeholder JUMP per case, in the same order, plus a trailing one for
// default when present. SELECT blocks until one case is ready (unless a
// default exists, in which case it never blocks) and transfers control
// straight into that case's JUMP. Binding a received value into a case's
// "v := <-ch" target is not implemented: the received value is left for the
// case body to consume directly from the top of the stack, which covers the
// common "case <-ch:" and "case ch <- v:" forms but not a received value
// bound to a name. See DESIGN.md.
func (fs *funcState) genSelectStmt(st *ast.SelectStmt) {
	lc := fs.pushLoop()
	defaultIdx := -1
	var commCases []int
	for i, c := range st.Cases {
		if c.Comm == nil {
			defaultIdx = i
			continue
		}
		fs.genSelectComm(c.Comm)
		commCases = append(commCases, i)
	}
	hasDefault := int32(0)
	if defaultIdx >= 0 {
		hasDefault = 1
	}
	fs.fn.EmitInst(opcode.Select, opcode.AbsentType, opcode.AbsentType, opcode.AbsentType, int32(len(commCases)), hasDefault)
	slots := make([]int, 0, len(commCases)+1)
	for range commCases {
		slots = append(slots, fs.emitJump(opcode.Jump))
	}
	if defaultIdx >= 0 {
		slots = append(slots, fs.emitJump(opcode.Jump))
	}
	var endJumps []int
	for slotIdx, caseIdx := range commCases {
		fs.patchAll([]int{slots[slotIdx]}, fs.fn.Len())
		for _, s := range st.Cases[caseIdx].Body {
			fs.genStmt(s)
		}
		endJumps = append(endJumps, fs.emitJump(opcode.Jump))
	}
	if defaultIdx >= 0 {
		fs.patchAll([]int{slots[len(slots)-1]}, fs.fn.Len())
		for _, s := range st.Cases[defaultIdx].Body {
			fs.genStmt(s)
		}
		endJumps = append(endJumps, fs.emitJump(opcode.Jump))
	}
	endPC := fs.fn.Len()
	fs.patchAll(endJumps, endPC)
	fs.patchAll(lc.breaks, endPC)
	fs.popLoop()
}

func (fs *funcState) genSelectComm(comm ast.Stmt) {
	switch c := comm.(type) {
	case *ast.SendStmt:
		fs.genExpr(c.Chan)
		fs.genExpr(c.Value)
	case *ast.ExprStmt:
		fs.genExpr(c.X)
	case *ast.AssignStmt:
		if len(c.RHS) == 1 {
			fs.genExpr(c.RHS[0])
		}
	default:
		fs.gen.internalf("unsupported select communication clause %T", comm)
	}
}
