package ir

import (
	"cosec/lang/ast"
	"cosec/lang/types"
)

// condition values (CondValue's eventual discharge) are plain i32 {0,1},
// spec §4.7.
var intType = types.IntType

// Lower translates a fully parsed and type-checked translation unit into
// the SSA IR of spec §3/§4.7. The AST is assumed to already carry resolved
// types on every expression (lang/parser's job); Lower never diagnoses type
// errors, only emits instructions.
func Lower(tu *ast.TranslationUnit) *Program {
	prog := &Program{}
	globals := map[string]*Global{}
	anon := 0

	for _, d := range tu.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			g := &Global{Name: d.Name, Type: d.Type, Linkage: d.Linkage, Init: d.Init}
			globals[d.Name] = g
			prog.Globals = append(prog.Globals, g)
		case *ast.FuncDecl:
			g := &Global{Name: d.Name, Type: d.Type, Linkage: d.Linkage}
			globals[d.Name] = g
			prog.Globals = append(prog.Globals, g)
		}
	}

	for _, d := range tu.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}
		b := newBuilder(fd, globals, &anon)
		b.lowerFunc(fd)
		globals[fd.Name].Fn = b.fn
	}

	// anonymous "_G.<n>" data created while lowering the bodies follows the
	// named globals, in label order.
	for i := 0; i < anon; i++ {
		if g, ok := globals["_G."+itoa(i)]; ok {
			prog.Globals = append(prog.Globals, g)
		}
	}

	return prog
}

// builder holds the transient state for lowering one function body.
type builder struct {
	fn      *IrFn
	cur     *IrBB
	globals map[string]*Global
	locals  map[string]*IrIns // name -> ALLOC pointer, current function (flat, no shadowing across nested blocks)
	labels  map[string]*IrBB  // goto targets, pre-created lazily on first reference

	breakChain    [][]BranchSlot // stack of break-target chains, one per enclosing loop/switch
	continueChain [][]BranchSlot // stack of continue-target chains, one per enclosing loop

	anon *int // shared counter for "_G.<n>" anonymous-global labels
}

func newBuilder(fd *ast.FuncDecl, globals map[string]*Global, anon *int) *builder {
	names := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		names[i] = p.Name
	}
	return &builder{
		fn:      NewFn(fd.Name, fd.Type, names),
		globals: globals,
		locals:  map[string]*IrIns{},
		labels:  map[string]*IrBB{},
		anon:    anon,
	}
}

func (b *builder) lowerFunc(fd *ast.FuncDecl) {
	b.cur = b.fn.Entry()
	for i, p := range fd.Params {
		arg := b.cur.emit(&IrIns{Op: FARG, Type: p.Type, IntImm: int64(i)})
		slot := b.cur.emit(&IrIns{Op: ALLOC, Type: types.NewPointer(p.Type), ElemType: p.Type})
		b.cur.emit(&IrIns{Op: STORE, Args: []*IrIns{slot, arg}})
		if p.Name != "" {
			b.locals[p.Name] = slot
		}
	}
	b.lowerStmt(fd.Body)
	if !b.cur.terminated() {
		var ret *IrIns
		if fd.Type.Return.Kind != types.Void {
			ret = b.zeroOf(fd.Type.Return)
		}
		b.emitReturn(ret)
	}
}

func (b *builder) emitReturn(v *IrIns) {
	ins := &IrIns{Op: RET}
	if v != nil {
		ins.Args = []*IrIns{v}
	}
	b.cur.emit(ins)
}

func (b *builder) zeroOf(t *types.Type) *IrIns {
	if t != nil && t.IsFP() {
		return b.cur.emit(&IrIns{Op: FIMM, Type: t, FloatImm: 0})
	}
	return b.intLit(0, t)
}

func (b *builder) intLit(v int64, t *types.Type) *IrIns {
	if t == nil {
		t = intType
	}
	return b.cur.emit(&IrIns{Op: IMM, Type: t, IntImm: v, Unsigned: t.IsUnsigned()})
}

// ---- statements ----

func (b *builder) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.CompoundStmt:
		for _, sub := range s.Stmts {
			if b.cur.terminated() {
				break
			}
			b.lowerStmt(sub)
		}
	case *ast.DeclStmt:
		b.lowerDeclStmt(s.Decl)
	case *ast.ExprStmt:
		if s.X != nil {
			b.lowerExpr(s.X)
		}
	case *ast.IfStmt:
		b.lowerIf(s)
	case *ast.WhileStmt:
		b.lowerWhile(s)
	case *ast.DoWhileStmt:
		b.lowerDoWhile(s)
	case *ast.ForStmt:
		b.lowerFor(s)
	case *ast.SwitchStmt:
		b.lowerSwitch(s)
	case *ast.BreakStmt:
		b.lowerBreak()
	case *ast.ContinueStmt:
		b.lowerContinue()
	case *ast.ReturnStmt:
		var v *IrIns
		if s.X != nil {
			v = b.lowerExpr(s.X)
		}
		b.emitReturn(v)
	case *ast.GotoStmt:
		target := b.labelBlock(s.Label)
		b.cur.emit(&IrIns{Op: BR, True: target})
		target.addPred(b.cur)
		b.cur = b.fn.NewBB() // unreachable tail after the goto's terminator
	case *ast.LabeledStmt:
		target := b.labelBlock(s.Label)
		if !b.cur.terminated() {
			b.cur.emit(&IrIns{Op: BR, True: target})
			target.addPred(b.cur)
		}
		b.cur = target
		b.lowerStmt(s.Stmt)
	case *ast.CaseStmt, *ast.DefaultStmt, *ast.EmptyStmt, *ast.BadStmt:
		// CaseStmt/DefaultStmt are consumed directly by lowerSwitch's body
		// walk; reaching one here means it fell through as a plain no-op
		// marker, matching "case:" with no associated jump of its own.
	}
}

// labelBlock returns the block for a goto/label target, creating it (not
// yet positioned in the block order) on first reference.
func (b *builder) labelBlock(name string) *IrBB {
	if bb, ok := b.labels[name]; ok {
		return bb
	}
	bb := b.fn.NewBB()
	b.labels[name] = bb
	return bb
}

func (b *builder) lowerDeclStmt(d ast.Decl) {
	v, ok := d.(*ast.VarDecl)
	if !ok {
		return // TypedefDecl/RecordDecl carry no runtime effect
	}
	ptrTy := types.NewPointer(v.Type)
	slot := b.cur.emit(&IrIns{Op: ALLOC, Type: ptrTy, ElemType: v.Type})
	b.locals[v.Name] = slot
	if v.Init == nil {
		return
	}
	b.lowerInit(slot, v.Type, v.Init)
}

// lowerInit lowers a (possibly aggregate) initialiser into stores through
// ptr, per spec §4.7's "Initialisation": a purely constant initialiser
// becomes a read-only global plus a COPY; anything else becomes per-element
// stores with ZERO filling any omitted slots.
func (b *builder) lowerInit(ptr *IrIns, t *types.Type, init ast.Expr) {
	lit, isList := init.(*ast.InitListExpr)
	if !isList {
		v := b.lowerExpr(init)
		b.cur.emit(&IrIns{Op: STORE, Args: []*IrIns{ptr, v}})
		return
	}

	if isConstInit(lit) {
		name := b.anonGlobalLabel()
		b.globals[name] = &Global{Name: name, Type: t, Init: lit, Label: name}
		size := b.intLit(int64(t.Size()), types.ULongType)
		src := b.cur.emit(&IrIns{Op: GLOBAL, Type: types.NewPointer(t), GlobalRef: name})
		b.cur.emit(&IrIns{Op: COPY, Args: []*IrIns{ptr, src, size}})
		return
	}

	elemTy := t.Elem
	covered := map[int]bool{}
	for i, e := range lit.Elems {
		idx := i
		if d := lit.Designators[i]; d.Index != nil {
			if il, ok := d.Index.(*ast.IntLitExpr); ok {
				idx = int(il.Value)
			}
		}
		covered[idx] = true
		var slot *IrIns
		if t.Kind == types.Struct || t.Kind == types.Union {
			field := d0Field(t, lit.Designators[i], idx)
			slot = b.cur.emit(&IrIns{Op: ELEM, Type: types.NewPointer(field.Type), Args: []*IrIns{ptr}, FieldName: field.Name, FieldOff: int64(field.Offset)})
			b.lowerInit(slot, field.Type, e)
			continue
		}
		offset := b.intLit(int64(idx), intType)
		slot = b.cur.emit(&IrIns{Op: IDX, Type: types.NewPointer(elemTy), ElemType: elemTy, Args: []*IrIns{ptr, offset}})
		b.lowerInit(slot, elemTy, e)
	}

	// any element/field the initializer list leaves unmentioned entirely
	// (as opposed to present-but-designated) is zero-filled via ZERO,
	// per spec §4.7's "null slots ... are zero-filled" rule.
	if t.Kind == types.Struct || t.Kind == types.Union {
		for i, f := range t.Fields {
			if covered[i] {
				continue
			}
			slot := b.cur.emit(&IrIns{Op: ELEM, Type: types.NewPointer(f.Type), Args: []*IrIns{ptr}, FieldName: f.Name, FieldOff: int64(f.Offset)})
			size := b.intLit(int64(f.Type.Size()), types.ULongType)
			b.cur.emit(&IrIns{Op: ZERO, Args: []*IrIns{slot, size}})
			if t.Kind == types.Union {
				break // a union has exactly one storage slot to zero
			}
		}
		return
	}
	if t.ArrayLen > 0 {
		for idx := 0; idx < t.ArrayLen; idx++ {
			if covered[idx] {
				continue
			}
			offset := b.intLit(int64(idx), intType)
			slot := b.cur.emit(&IrIns{Op: IDX, Type: types.NewPointer(elemTy), ElemType: elemTy, Args: []*IrIns{ptr, offset}})
			size := b.intLit(int64(elemTy.Size()), types.ULongType)
			b.cur.emit(&IrIns{Op: ZERO, Args: []*IrIns{slot, size}})
		}
	}
}

// d0Field resolves the field an initializer-list slot targets: the
// designator's named field if present, else the idx-th declared field in
// order (spec §4.5/§9's positional-initializer fallback).
func d0Field(t *types.Type, d ast.Designator, idx int) types.Field {
	if d.Field != "" {
		if f, ok := t.Field(d.Field); ok {
			return f
		}
	}
	if idx >= 0 && idx < len(t.Fields) {
		return t.Fields[idx]
	}
	return types.Field{}
}

// isConstInit reports whether every leaf of an initializer list is a
// compile-time constant, grounds the "purely constant initialiser" test of
// spec §4.7's Initialisation rule without re-running the full evaluator:
// IntLitExpr/FloatLitExpr/CharLitExpr/StringLitExpr leaves, recursively.
func isConstInit(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.InitListExpr:
		for _, el := range e.Elems {
			if !isConstInit(el) {
				return false
			}
		}
		return true
	case *ast.IntLitExpr, *ast.FloatLitExpr, *ast.CharLitExpr, *ast.StringLitExpr:
		return true
	case *ast.UnaryExpr:
		return isConstInit(e.Right)
	default:
		return false
	}
}

func (b *builder) anonGlobalLabel() string {
	n := *b.anon
	*b.anon++
	return "_G." + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (b *builder) lowerIf(s *ast.IfStmt) {
	cond := b.lowerCond(s.Cond)
	body := b.fn.NewBB()
	patchBranchChain(cond.TrueChain, body)
	b.cur = body
	b.lowerStmt(s.Then)
	var tailChain []BranchSlot
	if !b.cur.terminated() {
		br := b.cur.emit(&IrIns{Op: BR})
		tailChain = append(tailChain, BranchSlot{Ins: br, True: true})
	}

	if s.Else != nil {
		elseBB := b.fn.NewBB()
		patchBranchChain(cond.FalseChain, elseBB)
		b.cur = elseBB
		b.lowerStmt(s.Else)
		if !b.cur.terminated() {
			br := b.cur.emit(&IrIns{Op: BR})
			tailChain = append(tailChain, BranchSlot{Ins: br, True: true})
		}
	} else {
		tailChain = append(tailChain, cond.FalseChain...)
	}

	merge := b.fn.NewBB()
	patchBranchChain(tailChain, merge)
	b.cur = merge
}

func (b *builder) lowerWhile(s *ast.WhileStmt) {
	condBB := b.fn.NewBB()
	entryBr := b.cur.emit(&IrIns{Op: BR, True: condBB})
	condBB.addPred(entryBr.BB)
	b.cur = condBB
	cond := b.lowerCond(s.Cond)

	body := b.fn.NewBB()
	patchBranchChain(cond.TrueChain, body)
	b.cur = body
	b.breakChain = append(b.breakChain, nil)
	b.continueChain = append(b.continueChain, nil)
	b.lowerStmt(s.Body)
	if !b.cur.terminated() {
		br := b.cur.emit(&IrIns{Op: BR, True: condBB})
		condBB.addPred(br.BB)
	}
	myBreaks := b.popBreak()
	myContinues := b.popContinue()
	patchBranchChain(myContinues, condBB)

	after := b.fn.NewBB()
	patchBranchChain(cond.FalseChain, after)
	patchBranchChain(myBreaks, after)
	b.cur = after
}

func (b *builder) lowerDoWhile(s *ast.DoWhileStmt) {
	body := b.fn.NewBB()
	entryBr := b.cur.emit(&IrIns{Op: BR, True: body})
	body.addPred(entryBr.BB)
	b.cur = body
	b.breakChain = append(b.breakChain, nil)
	b.continueChain = append(b.continueChain, nil)
	b.lowerStmt(s.Body)

	condBB := b.fn.NewBB()
	if !b.cur.terminated() {
		br := b.cur.emit(&IrIns{Op: BR, True: condBB})
		condBB.addPred(br.BB)
	}
	myBreaks := b.popBreak()
	myContinues := b.popContinue()
	patchBranchChain(myContinues, condBB)

	b.cur = condBB
	cond := b.lowerCond(s.Cond)
	patchBranchChain(cond.TrueChain, body)

	after := b.fn.NewBB()
	patchBranchChain(cond.FalseChain, after)
	patchBranchChain(myBreaks, after)
	b.cur = after
}

func (b *builder) lowerFor(s *ast.ForStmt) {
	if s.Init != nil {
		b.lowerStmt(s.Init)
	}
	condBB := b.fn.NewBB()
	entryBr := b.cur.emit(&IrIns{Op: BR, True: condBB})
	condBB.addPred(entryBr.BB)
	b.cur = condBB

	var cond CondValue
	hasCond := s.Cond != nil
	if hasCond {
		cond = b.lowerCond(s.Cond)
	}

	body := b.fn.NewBB()
	if hasCond {
		patchBranchChain(cond.TrueChain, body)
	} else {
		br := b.cur.emit(&IrIns{Op: BR, True: body})
		body.addPred(br.BB)
	}
	b.cur = body
	b.breakChain = append(b.breakChain, nil)
	b.continueChain = append(b.continueChain, nil)
	b.lowerStmt(s.Body)

	incr := b.fn.NewBB()
	if !b.cur.terminated() {
		br := b.cur.emit(&IrIns{Op: BR, True: incr})
		incr.addPred(br.BB)
	}
	myBreaks := b.popBreak()
	myContinues := b.popContinue()
	patchBranchChain(myContinues, incr)

	b.cur = incr
	if s.Post != nil {
		b.lowerExpr(s.Post)
	}
	br := b.cur.emit(&IrIns{Op: BR, True: condBB})
	condBB.addPred(br.BB)

	after := b.fn.NewBB()
	if hasCond {
		patchBranchChain(cond.FalseChain, after)
	}
	patchBranchChain(myBreaks, after)
	b.cur = after
}

// lowerSwitch supports case/default labels at the immediate top level of
// the switch body (the common form); Duff's-device-style labels nested
// inside inner statements are out of scope (see DESIGN.md).
func (b *builder) lowerSwitch(s *ast.SwitchStmt) {
	tag := b.lowerExpr(s.Tag)
	body, _ := s.Body.(*ast.CompoundStmt)

	b.breakChain = append(b.breakChain, nil)

	type caseTarget struct {
		val  *ast.CaseStmt
		body *IrBB
	}
	var cases []caseTarget
	var stmts []ast.Stmt
	if body != nil {
		stmts = body.Stmts
	}

	// first pass: assign one fresh block per case/default label, in order.
	blocksByStmt := map[ast.Stmt]*IrBB{}
	var defaultBB *IrBB
	for _, st := range stmts {
		switch cs := st.(type) {
		case *ast.CaseStmt:
			bb := b.fn.NewBB()
			blocksByStmt[st] = bb
			cases = append(cases, caseTarget{val: cs, body: bb})
		case *ast.DefaultStmt:
			bb := b.fn.NewBB()
			blocksByStmt[st] = bb
			defaultBB = bb
		}
	}

	dispatch := b.cur
	for _, c := range cases {
		b.cur = dispatch // the case's immediate belongs with its compare
		cv, _ := caseLabelValue(c.val.Value)
		imm := b.intLit(cv, tag.Type)
		cmp := dispatch.emit(&IrIns{Op: EQ, Type: intType, Args: []*IrIns{tag, imm}})
		br := dispatch.emit(&IrIns{Op: CBR, Args: []*IrIns{cmp}, True: c.body})
		c.body.addPred(br.BB)
		next := b.fn.NewBB()
		br.False = next
		next.addPred(br.BB)
		dispatch = next
	}

	after := b.fn.NewBB()
	if defaultBB != nil {
		br := dispatch.emit(&IrIns{Op: BR, True: defaultBB})
		defaultBB.addPred(br.BB)
	} else {
		br := dispatch.emit(&IrIns{Op: BR, True: after})
		after.addPred(br.BB)
	}

	// second pass: lower the body in source order, falling through between
	// adjacent case/default blocks exactly as C's switch does.
	b.cur = nil
	for _, st := range stmts {
		if bb, ok := blocksByStmt[st]; ok {
			if b.cur != nil && !b.cur.terminated() {
				br := b.cur.emit(&IrIns{Op: BR, True: bb})
				bb.addPred(br.BB)
			}
			b.cur = bb
			continue
		}
		if b.cur == nil {
			continue // statement before the first case label is unreachable
		}
		b.lowerStmt(st)
	}
	if b.cur != nil && !b.cur.terminated() {
		br := b.cur.emit(&IrIns{Op: BR, True: after})
		after.addPred(br.BB)
	}

	myBreaks := b.popBreak()
	patchBranchChain(myBreaks, after)
	b.cur = after
}

// caseLabelValue folds a case label's value using the same IntLitExpr
// shortcut isConstInit relies on; case labels are always required to be
// constant by the grammar, so the parser's constIntExpr already validated
// this and we only need the already-folded literal here.
func caseLabelValue(e ast.Expr) (int64, bool) {
	if il, ok := e.(*ast.IntLitExpr); ok {
		return il.Value, true
	}
	return 0, false
}

func (b *builder) lowerBreak() {
	br := b.cur.emit(&IrIns{Op: BR})
	n := len(b.breakChain) - 1
	b.breakChain[n] = append(b.breakChain[n], BranchSlot{Ins: br, True: true})
}

func (b *builder) lowerContinue() {
	br := b.cur.emit(&IrIns{Op: BR})
	n := len(b.continueChain) - 1
	b.continueChain[n] = append(b.continueChain[n], BranchSlot{Ins: br, True: true})
}

func (b *builder) popBreak() []BranchSlot {
	n := len(b.breakChain) - 1
	chain := b.breakChain[n]
	b.breakChain = b.breakChain[:n]
	return chain
}

func (b *builder) popContinue() []BranchSlot {
	n := len(b.continueChain) - 1
	chain := b.continueChain[n]
	b.continueChain = b.continueChain[:n]
	return chain
}
