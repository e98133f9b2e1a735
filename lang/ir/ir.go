package ir

import (
	"cosec/lang/ast"
	"cosec/lang/types"
)

// Program is the lowered output of a translation unit: a vector of globals,
// each either data (an initial-value AST node or nil) or code (a non-nil
// Fn), per spec §3's Global record.
type Program struct {
	Globals []*Global
}

// Global is one named top-level object (spec §3): an external label, a
// type, and either an initialiser (Init) for data or a function body (Fn)
// for code. Label is the internally generated "_G.<n>" name used for
// anonymous constant-initialised data (string literals, compound literals
// promoted to static storage); it is empty for ordinarily-named globals.
type Global struct {
	Name    string
	Type    *types.Type
	Linkage ast.Linkage
	Init    ast.Expr // constant initialiser, nil for BSS/extern/function globals
	Fn      *IrFn    // non-nil for a function definition
	Label   string   // "_G.<n>" for compiler-generated anonymous data, else ""
}

// IrFn is one lowered function: an entry block plus every block reachable
// from it, in creation order (spec §3: "owns a doubly linked list of basic
// blocks"; this implementation keeps them in a flat slice in creation
// order instead, which is sufficient since nothing reorders blocks after
// creation and iteration order is exactly what the debug printer numbers
// by).
type IrFn struct {
	Name    string
	Type    *types.Type // Func type: param types, return type, variadic flag
	Params  []string    // parameter names, parallel to Type.Params
	Blocks  []*IrBB
	nextVal int // monotonically increasing id for Format/debug-printer numbering
}

// IrBB is one basic block: a straight-line instruction sequence ending in
// exactly one terminator (spec §3's invariant), except possibly the last
// block of the function body before an implicit return is synthesised.
type IrBB struct {
	Fn    *IrFn
	Index int // position in Fn.Blocks, assigned at creation
	Ins   []*IrIns
	Preds []*IrBB // recorded as branches are patched to target this block
	Sealed bool   // true once no further predecessor can be added (all PHIs here are complete)
}

// BranchSlot is one not-yet-patched successor slot of a CBR/BR instruction:
// Ins is the branch instruction, True selects whether the slot being
// recorded is the true-successor (only meaningful for CBR).
type BranchSlot struct {
	Ins  *IrIns
	True bool
}

// IrIns is one SSA instruction. Every instruction is also the SSA value it
// defines (its own identity is its operand reference), per spec §3.
type IrIns struct {
	BB   *IrBB
	ID   int // unique within the owning function, assigned at creation
	Op   Op
	Type *types.Type // the instruction's result type, nil for void ops

	// operands, meaning depends on Op
	Args []*IrIns

	// scalar payloads
	IntImm    int64
	FloatImm  float64
	Unsigned  bool        // SDIV/UDIV pairing and LT/LE/GT/GE sign flag
	ElemType  *types.Type // ALLOC's element type, IDX's stride type
	Count     *IrIns      // ALLOC's dynamic element count, nil for a fixed-size alloc
	GlobalRef string      // GLOBAL's referenced name
	FieldName string      // ELEM's field name, for debug printing
	FieldOff  int64       // ELEM's byte offset

	// control flow
	True, False *IrBB // CBR's successors; BR uses True only
	Target      *IrBB // unused: BR records its successor in True

	// PHI
	PhiPreds []*IrBB
	PhiVals  []*IrIns

	// CALL
	Callee   *IrIns // the called value (a GLOBAL for direct calls)
	CallArgs []*IrIns
}

// NewFn creates an empty function with one entry block.
func NewFn(name string, t *types.Type, params []string) *IrFn {
	fn := &IrFn{Name: name, Type: t, Params: params}
	fn.NewBB()
	return fn
}

// NewBB appends and returns a fresh, empty basic block.
func (fn *IrFn) NewBB() *IrBB {
	bb := &IrBB{Fn: fn, Index: len(fn.Blocks)}
	fn.Blocks = append(fn.Blocks, bb)
	return bb
}

// Entry returns the function's entry block.
func (fn *IrFn) Entry() *IrBB { return fn.Blocks[0] }

// Last returns the most recently created block.
func (fn *IrFn) Last() *IrBB { return fn.Blocks[len(fn.Blocks)-1] }

// emit appends ins to bb, assigning it a fresh id. It does not check
// whether bb is already terminated; callers (lower.go) are responsible for
// never emitting after a terminator, matching spec §3's invariant.
func (bb *IrBB) emit(ins *IrIns) *IrIns {
	ins.BB = bb
	ins.ID = bb.Fn.nextVal
	bb.Fn.nextVal++
	bb.Ins = append(bb.Ins, ins)
	return ins
}

// emitBefore inserts ins into bb immediately ahead of term, bb's existing
// terminator, instead of appending after it. Used to place a value along a
// predecessor edge (e.g. a PHI-incoming immediate) without violating the
// invariant that a block's terminator is its last instruction.
func (bb *IrBB) emitBefore(term *IrIns, ins *IrIns) *IrIns {
	ins.BB = bb
	ins.ID = bb.Fn.nextVal
	bb.Fn.nextVal++

	idx := len(bb.Ins) - 1
	for i, x := range bb.Ins {
		if x == term {
			idx = i
			break
		}
	}
	bb.Ins = append(bb.Ins, nil)
	copy(bb.Ins[idx+1:], bb.Ins[idx:])
	bb.Ins[idx] = ins
	return ins
}

// terminated reports whether bb already ends in BR/CBR/RET.
func (bb *IrBB) terminated() bool {
	if len(bb.Ins) == 0 {
		return false
	}
	return isTerminator(bb.Ins[len(bb.Ins)-1].Op)
}

// addPred records pred as a predecessor of bb, used when branch-chain
// patching resolves a slot to bb so PHI construction can find every
// incoming edge.
func (bb *IrBB) addPred(pred *IrBB) {
	for _, p := range bb.Preds {
		if p == pred {
			return
		}
	}
	bb.Preds = append(bb.Preds, pred)
}
