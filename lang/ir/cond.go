package ir

// CondValue is the pseudo-value produced by lowering an expression in
// "condition context" (spec §4.7): rather than materialising an i32 {0,1},
// it carries the not-yet-patched branch slots of every predecessor
// conditional branch that should go to "true" or to "false" once the
// caller knows where those targets are. This lets "if (a && b || c)" chain
// directly into the eventual body/else blocks without ever computing a
// boolean value for the subexpression.
//
// A not-yet-resolved branch slot is recorded and rewritten once the real
// target block is known, generalizing "one pending jump per block" to an
// arbitrary number of not-yet-resolved predecessors.
type CondValue struct {
	TrueChain  []BranchSlot
	FalseChain []BranchSlot
}

// patchBranchChain rewrites every recorded slot in chain to target bb, and
// records bb's new predecessor edges.
func patchBranchChain(chain []BranchSlot, bb *IrBB) {
	for _, s := range chain {
		if s.True {
			s.Ins.True = bb
		} else {
			s.Ins.False = bb
		}
		bb.addPred(s.Ins.BB)
	}
}

// emitCondBr emits a CBR on cond and returns a CondValue whose true/false
// chains each hold that one slot, the base case every condition-context
// lowering builds on.
func (b *builder) emitCondBr(cond *IrIns) CondValue {
	br := b.cur.emit(&IrIns{Op: CBR, Args: []*IrIns{cond}})
	return CondValue{
		TrueChain:  []BranchSlot{{Ins: br, True: true}},
		FalseChain: []BranchSlot{{Ins: br, True: false}},
	}
}

// toCond converts an ordinary value into a CondValue by comparing it
// against zero (spec §4.7's to_cond), the inverse of discharge.
func (b *builder) toCond(v *IrIns) CondValue {
	zero := b.zeroOf(v.Type)
	cmp := b.cur.emit(&IrIns{Op: NE, Type: intType, Args: []*IrIns{v, zero}, Unsigned: v.Type.IsUnsigned()})
	return b.emitCondBr(cmp)
}

// discharge converts a CondValue back into an ordinary i32 {0,1} value by
// materialising a PHI with incoming 1 from every true-chain predecessor and
// 0 from every false-chain predecessor (spec §4.7). Each incoming constant
// is inserted into its predecessor block ahead of that block's own branch
// (via emitBefore), not appended to the current block, since the current
// block is usually a different, already-terminated block by the time the
// chain is discharged. As an optimisation, when both chains have exactly
// one entry and that entry is the block's own immediate terminator, the
// terminator is deleted and the raw comparison (inverted for the false
// case) is reused directly instead of emitting a PHI that round-trips
// through 0/1.
func (b *builder) discharge(c CondValue) *IrIns {
	if len(c.TrueChain) == 1 && len(c.FalseChain) == 1 &&
		c.TrueChain[0].Ins == c.FalseChain[0].Ins &&
		c.TrueChain[0].Ins == b.cur.lastIns() {
		br := c.TrueChain[0].Ins
		cond := br.Args[0]
		b.cur.Ins = b.cur.Ins[:len(b.cur.Ins)-1]
		if !c.TrueChain[0].True {
			// swapped chains (e.g. from '!'): the value is the comparison's inverse
			zero := b.intLit(0, intType)
			cond = b.cur.emit(&IrIns{Op: EQ, Type: intType, Args: []*IrIns{cond, zero}})
		}
		return cond
	}

	join := b.fn.NewBB()
	patchBranchChain(c.TrueChain, join)
	patchBranchChain(c.FalseChain, join)
	phi := &IrIns{Op: PHI, Type: intType}
	for _, s := range c.TrueChain {
		imm := s.Ins.BB.emitBefore(s.Ins, &IrIns{Op: IMM, Type: intType, IntImm: 1})
		phi.PhiPreds = append(phi.PhiPreds, s.Ins.BB)
		phi.PhiVals = append(phi.PhiVals, imm)
	}
	for _, s := range c.FalseChain {
		imm := s.Ins.BB.emitBefore(s.Ins, &IrIns{Op: IMM, Type: intType, IntImm: 0})
		phi.PhiPreds = append(phi.PhiPreds, s.Ins.BB)
		phi.PhiVals = append(phi.PhiVals, imm)
	}
	b.cur = join
	return join.emit(phi)
}

// lastIns returns the block's final instruction, or nil if empty.
func (bb *IrBB) lastIns() *IrIns {
	if len(bb.Ins) == 0 {
		return nil
	}
	return bb.Ins[len(bb.Ins)-1]
}
