package codegen

import (
	"github.com/emberlang/ember/internal/funcval"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/resolver"
)

// loopCtx accumulates the not-yet-patched jump instructions of one enclosing
// for/range/switch/select statement, resolved once the statement's
// lowering knows where control leaves and where the next iteration begins.
type loopCtx struct {
	breaks    []int // pc of JUMP instructions to patch to the statement's exit
	continues []int // pc of JUMP instructions to patch to the post-clause
}

// funcState is the per-function lowering context: the FunctionVal being
// filled in, its resolver-computed slot plan, and the small amount of extra
// bookkeeping (local types, loop back-patch lists) codegen needs that
// resolver has no reason to track itself.
type funcState struct {
	gen    *Generator
	parent *funcState // enclosing function, for upvalue type lookups; nil at top level
	fn     *funcval.FunctionVal
	info   *resolver.FuncInfo

	localTypes []gosvalue.ValueType
	upvalTypes []gosvalue.ValueType

	loops []*loopCtx
}

// addLocal appends a local to both the FunctionVal and this state's parallel
// type table; callers must add locals in exactly the order
// internal/resolver assigned their indices, since the Ident.EntKey values
// already baked into the AST reference slots by position.
func (fs *funcState) addLocal(name string, typ gosvalue.ValueType, meta metadata.GosMetadata) int {
	idx := fs.fn.AddLocal(name, meta)
	fs.localTypes = append(fs.localTypes, typ)
	return idx
}

func (fs *funcState) pushLoop() *loopCtx {
	lc := &loopCtx{}
	fs.loops = append(fs.loops, lc)
	return lc
}

func (fs *funcState) popLoop() {
	fs.loops = fs.loops[:len(fs.loops)-1]
}

func (fs *funcState) currentLoop() *loopCtx {
	if len(fs.loops) == 0 {
		return nil
	}
	return fs.loops[len(fs.loops)-1]
}

// patchAll rewrites every pc in pcs to jump to target.
func (fs *funcState) patchAll(pcs []int, target int) {
	for _, pc := range pcs {
		if err := fs.fn.PatchJumpTarget(pc, target); err != nil {
			fs.gen.internalf("%v", err)
		}
	}
}
