package ir

import (
	"cosec/lang/ast"
	"cosec/lang/token"
	"cosec/lang/types"
)

// load emits a LOAD through ptr unless t is an aggregate (struct/union/
// array), in which case the aggregate's "value" is represented by its own
// address — the common by-reference convention for values too large to
// live in a single SSA register, used consistently by lowerExpr/lowerInit/
// CALL-argument lowering below.
func (b *builder) load(ptr *IrIns, t *types.Type) *IrIns {
	if t != nil && t.IsAggregate() {
		return ptr
	}
	return b.cur.emit(&IrIns{Op: LOAD, Type: t, Args: []*IrIns{ptr}})
}

// lowerLValue lowers an assignable expression to the pointer its value
// lives at, without loading through it (spec §4.7's "captures its lvalue
// pointer" for assignment/compound-assignment/address-of).
func (b *builder) lowerLValue(e ast.Expr) *IrIns {
	switch e := ast.Unwrap(e).(type) {
	case *ast.IdentExpr:
		if p, ok := b.locals[e.Name]; ok {
			return p
		}
		g := b.globals[e.Name]
		t := g.Type
		if t.Kind != types.Func {
			t = types.NewPointer(t)
		}
		return b.cur.emit(&IrIns{Op: GLOBAL, Type: t, GlobalRef: e.Name})
	case *ast.UnaryExpr:
		if e.Op == token.STAR {
			return b.lowerExpr(e.Right)
		}
	case *ast.IndexExpr:
		base := b.lowerExpr(e.Array)
		idx := b.lowerExpr(e.Index)
		elem := e.ResolvedType()
		return b.cur.emit(&IrIns{Op: IDX, Type: types.NewPointer(elem), ElemType: elem, Args: []*IrIns{base, idx}})
	case *ast.MemberExpr:
		var base *IrIns
		if e.Arrow {
			base = b.lowerExpr(e.Base)
		} else {
			base = b.lowerLValue(e.Base)
		}
		recTy := e.Base.ResolvedType()
		if e.Arrow {
			recTy = recTy.Elem
		}
		f, _ := recTy.Field(e.Field)
		return b.cur.emit(&IrIns{Op: ELEM, Type: types.NewPointer(f.Type), Args: []*IrIns{base}, FieldName: f.Name, FieldOff: int64(f.Offset)})
	}
	// unreachable for a well-typed, assignable expression (ast.IsAssignable
	// is checked by the parser before building an AssignExpr).
	return b.lowerExpr(e)
}

// lowerExpr lowers e to an ordinary (non-condition-context) SSA value.
func (b *builder) lowerExpr(e ast.Expr) *IrIns {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return b.lowerExpr(e.Inner)
	case *ast.IntLitExpr:
		t := e.ResolvedType()
		if t == nil {
			t = intType
		}
		return b.cur.emit(&IrIns{Op: IMM, Type: t, IntImm: e.Value, Unsigned: e.Unsigned})
	case *ast.FloatLitExpr:
		t := e.ResolvedType()
		if t == nil {
			t = types.DoubleType
		}
		return b.cur.emit(&IrIns{Op: FIMM, Type: t, FloatImm: e.Value})
	case *ast.CharLitExpr:
		return b.cur.emit(&IrIns{Op: IMM, Type: types.IntType, IntImm: int64(e.Value)})
	case *ast.StringLitExpr:
		name := b.anonGlobalLabel()
		strTy := types.NewArray(types.CharType, len(e.Value)+1)
		b.globals[name] = &Global{Name: name, Type: strTy, Init: e, Label: name}
		return b.cur.emit(&IrIns{Op: GLOBAL, Type: types.NewPointer(types.CharType), GlobalRef: name})
	case *ast.IdentExpr:
		ptr := b.lowerLValue(e)
		if ptr.Op == GLOBAL && ptr.Type != nil && ptr.Type.Kind == types.Func {
			return ptr
		}
		return b.load(ptr, e.ResolvedType())
	case *ast.InitListExpr:
		t := e.ResolvedType()
		ptr := b.cur.emit(&IrIns{Op: ALLOC, Type: types.NewPointer(t), ElemType: t})
		b.lowerInit(ptr, t, e)
		return ptr
	case *ast.BinaryExpr:
		return b.lowerBinary(e)
	case *ast.AssignExpr:
		return b.lowerAssign(e)
	case *ast.CondExpr:
		return b.lowerCondExpr(e)
	case *ast.CommaExpr:
		b.lowerExpr(e.Left)
		return b.lowerExpr(e.Right)
	case *ast.UnaryExpr:
		return b.lowerUnary(e)
	case *ast.IncDecExpr:
		return b.lowerIncDec(e)
	case *ast.CastExpr:
		v := b.lowerExpr(e.Inner)
		return b.convert(v, e.Inner.ResolvedType(), e.ResolvedType())
	case *ast.SizeofExpr:
		t := e.TypeName
		if t == nil {
			t = e.Operand.ResolvedType()
		}
		return b.cur.emit(&IrIns{Op: IMM, Type: types.ULongType, IntImm: int64(t.Size()), Unsigned: true})
	case *ast.CallExpr:
		return b.lowerCall(e)
	case *ast.IndexExpr:
		ptr := b.lowerLValue(e)
		return b.load(ptr, e.ResolvedType())
	case *ast.MemberExpr:
		ptr := b.lowerLValue(e)
		return b.load(ptr, e.ResolvedType())
	}
	return b.intLit(0, intType)
}

// lowerCond lowers e in condition context, returning a CondValue with
// unresolved branch chains instead of a materialised value (spec §4.7).
func (b *builder) lowerCond(e ast.Expr) CondValue {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return b.lowerCond(e.Inner)
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			c := b.lowerCond(e.Right)
			return CondValue{TrueChain: c.FalseChain, FalseChain: c.TrueChain}
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case token.LAND:
			l := b.lowerCond(e.Left)
			rhs := b.fn.NewBB()
			patchBranchChain(l.TrueChain, rhs)
			b.cur = rhs
			r := b.lowerCond(e.Right)
			return CondValue{TrueChain: r.TrueChain, FalseChain: append(l.FalseChain, r.FalseChain...)}
		case token.LOR:
			l := b.lowerCond(e.Left)
			rhs := b.fn.NewBB()
			patchBranchChain(l.FalseChain, rhs)
			b.cur = rhs
			r := b.lowerCond(e.Right)
			return CondValue{TrueChain: append(l.TrueChain, r.TrueChain...), FalseChain: r.FalseChain}
		}
	}
	return b.toCond(b.lowerExpr(e))
}

func (b *builder) lowerCondExpr(e *ast.CondExpr) *IrIns {
	cond := b.lowerCond(e.Cond)
	thenBB := b.fn.NewBB()
	patchBranchChain(cond.TrueChain, thenBB)
	b.cur = thenBB
	thenVal := b.lowerExpr(e.Then)
	thenEnd := b.cur
	thenBr := thenEnd.emit(&IrIns{Op: BR})

	elseBB := b.fn.NewBB()
	patchBranchChain(cond.FalseChain, elseBB)
	b.cur = elseBB
	elseVal := b.lowerExpr(e.Else)
	elseEnd := b.cur
	elseBr := elseEnd.emit(&IrIns{Op: BR})

	merge := b.fn.NewBB()
	thenBr.True = merge
	merge.addPred(thenEnd)
	elseBr.True = merge
	merge.addPred(elseEnd)
	b.cur = merge

	phi := &IrIns{Op: PHI, Type: e.ResolvedType(), PhiPreds: []*IrBB{thenEnd, elseEnd}, PhiVals: []*IrIns{thenVal, elseVal}}
	return merge.emit(phi)
}

func (b *builder) lowerUnary(e *ast.UnaryExpr) *IrIns {
	switch e.Op {
	case token.AMP:
		return b.lowerLValue(e.Right)
	case token.STAR:
		ptr := b.lowerExpr(e.Right)
		return b.load(ptr, e.ResolvedType())
	case token.NOT:
		c := b.lowerCond(e)
		return b.discharge(c)
	case token.PLUS:
		return b.lowerExpr(e.Right)
	case token.MINUS:
		v := b.lowerExpr(e.Right)
		op := NEG
		if v.Type != nil && v.Type.IsFP() {
			op = FNEG
		}
		return b.cur.emit(&IrIns{Op: op, Type: e.ResolvedType(), Args: []*IrIns{v}})
	case token.TILDE:
		v := b.lowerExpr(e.Right)
		return b.cur.emit(&IrIns{Op: CPL, Type: e.ResolvedType(), Args: []*IrIns{v}})
	}
	return b.lowerExpr(e.Right)
}

func (b *builder) lowerIncDec(e *ast.IncDecExpr) *IrIns {
	ptr := b.lowerLValue(e.Operand)
	t := e.Operand.ResolvedType()
	old := b.load(ptr, t)
	var nv *IrIns
	if t.Kind == types.Pointer {
		delta := int64(1)
		if e.Op == token.DEC {
			delta = -1
		}
		off := b.intLit(delta, intType)
		nv = b.cur.emit(&IrIns{Op: IDX, Type: t, ElemType: t.Elem, Args: []*IrIns{old, off}})
	} else if t.IsFP() {
		one := b.cur.emit(&IrIns{Op: FIMM, Type: t, FloatImm: 1})
		op := FADD
		if e.Op == token.DEC {
			op = FSUB
		}
		nv = b.cur.emit(&IrIns{Op: op, Type: t, Args: []*IrIns{old, one}})
	} else {
		one := b.intLit(1, t)
		op := ADD
		if e.Op == token.DEC {
			op = SUB
		}
		nv = b.cur.emit(&IrIns{Op: op, Type: t, Args: []*IrIns{old, one}})
	}
	b.cur.emit(&IrIns{Op: STORE, Args: []*IrIns{ptr, nv}})
	if e.Postfix {
		return old
	}
	return nv
}

func (b *builder) lowerAssign(e *ast.AssignExpr) *IrIns {
	ptr := b.lowerLValue(e.Left)
	t := e.Left.ResolvedType()
	if e.Op == token.ASSIGN {
		rv := b.lowerExpr(e.Right)
		rv = b.convert(rv, e.Right.ResolvedType(), t)
		b.cur.emit(&IrIns{Op: STORE, Args: []*IrIns{ptr, rv}})
		return rv
	}
	old := b.load(ptr, t)
	rv := b.lowerExpr(e.Right)
	res := b.binOp(baseOp(e.Op), old, rv, t, e.Right.ResolvedType())
	res = b.convert(res, res.Type, t)
	b.cur.emit(&IrIns{Op: STORE, Args: []*IrIns{ptr, res}})
	return res
}

func (b *builder) lowerBinary(e *ast.BinaryExpr) *IrIns {
	switch e.Op {
	case token.LAND, token.LOR:
		return b.discharge(b.lowerCond(e))
	}
	l := b.lowerExpr(e.Left)
	r := b.lowerExpr(e.Right)
	return b.binOp(e.Op, l, r, e.Left.ResolvedType(), e.Right.ResolvedType())
}

// binOp emits the single instruction (or small pointer-arithmetic sequence)
// for one arithmetic/comparison operator token, per spec §4.7's "Expression
// lowering": pointer +/- int scales by element size, pointer-pointer
// subtraction divides by element size, everything else usual-arithmetic.
func (b *builder) binOp(op token.Token, l, r *IrIns, lt, rt *types.Type) *IrIns {
	resTy := l.Type
	if r.Type != nil && (l.Type == nil || r.Type.Size() > l.Type.Size()) {
		resTy = r.Type
	}

	if lt != nil && lt.Kind == types.Pointer && (op == token.PLUS || op == token.MINUS) && rt != nil && rt.IsInt() {
		stride := b.intLit(int64(lt.Elem.Size()), intType)
		scaled := b.cur.emit(&IrIns{Op: MUL, Type: intType, Args: []*IrIns{r, stride}})
		if op == token.MINUS {
			scaled = b.cur.emit(&IrIns{Op: NEG, Type: intType, Args: []*IrIns{scaled}})
		}
		// scaled is already a byte offset, so IDX steps by one byte
		return b.cur.emit(&IrIns{Op: IDX, Type: lt, ElemType: types.CharType, Args: []*IrIns{l, scaled}})
	}
	if lt != nil && rt != nil && lt.Kind == types.Pointer && rt.Kind == types.Pointer && op == token.MINUS {
		diff := b.cur.emit(&IrIns{Op: SUB, Type: types.LongType, Args: []*IrIns{l, r}})
		stride := b.intLit(int64(lt.Elem.Size()), types.LongType)
		return b.cur.emit(&IrIns{Op: SDIV, Type: types.LongType, Args: []*IrIns{diff, stride}})
	}

	unsigned := resTy != nil && resTy.IsUnsigned()
	isFP := resTy != nil && resTy.IsFP()
	var opc Op
	switch op {
	case token.PLUS:
		opc = pick(isFP, FADD, ADD)
	case token.MINUS:
		opc = pick(isFP, FSUB, SUB)
	case token.STAR:
		opc = pick(isFP, FMUL, MUL)
	case token.SLASH:
		if isFP {
			opc = FDIV
		} else {
			opc = pick(unsigned, UDIV, SDIV)
		}
	case token.PCT:
		opc = pick(unsigned, UREM, SREM)
	case token.AMP:
		opc = AND
	case token.PIPE:
		opc = OR
	case token.CARET:
		opc = XOR
	case token.SHL:
		opc = SHL
	case token.SHR:
		opc = SHR
	case token.EQ:
		opc = EQ
	case token.NE:
		opc = NE
	case token.LT:
		opc = LT
	case token.LE:
		opc = LE
	case token.GT:
		opc = GT
	case token.GE:
		opc = GE
	default:
		opc = NOP
	}
	switch opc {
	case EQ, NE, LT, LE, GT, GE:
		return b.cur.emit(&IrIns{Op: opc, Type: intType, Args: []*IrIns{l, r}, Unsigned: unsigned})
	}
	return b.cur.emit(&IrIns{Op: opc, Type: resTy, Args: []*IrIns{l, r}, Unsigned: unsigned})
}

// baseOp maps a compound-assignment token to the binary operator it folds
// in, e.g. PLUS_ASSIGN -> PLUS (token.IsAugBinop confirms the input is
// always one of these before baseOp is called).
func baseOp(op token.Token) token.Token {
	switch op {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.STAR_ASSIGN:
		return token.STAR
	case token.SLASH_ASSIGN:
		return token.SLASH
	case token.PCT_ASSIGN:
		return token.PCT
	case token.AMP_ASSIGN:
		return token.AMP
	case token.PIPE_ASSIGN:
		return token.PIPE
	case token.CARET_ASSIGN:
		return token.CARET
	case token.SHL_ASSIGN:
		return token.SHL
	case token.SHR_ASSIGN:
		return token.SHR
	default:
		return op
	}
}

func pick(cond bool, a, b Op) Op {
	if cond {
		return a
	}
	return b
}

// convert inserts the conversion instruction (if any) needed to go from a
// value of type from to a value of type to: truncate, sign/zero extend,
// int<->float, ptr<->int, or bitcast (spec §4.7's conversion opcodes).
func (b *builder) convert(v *IrIns, from, to *types.Type) *IrIns {
	if from == nil || to == nil || from.Kind == to.Kind && from.Size() == to.Size() {
		return v
	}
	switch {
	case from.IsInt() && to.IsInt():
		if to.Size() < from.Size() {
			return b.cur.emit(&IrIns{Op: TRUNC, Type: to, Args: []*IrIns{v}})
		}
		if to.Size() > from.Size() {
			op := ZEXT
			if !from.IsUnsigned() {
				op = SEXT
			}
			return b.cur.emit(&IrIns{Op: op, Type: to, Args: []*IrIns{v}})
		}
		return b.cur.emit(&IrIns{Op: BITCAST, Type: to, Args: []*IrIns{v}})
	case from.IsFP() && to.IsFP():
		return b.cur.emit(&IrIns{Op: BITCAST, Type: to, Args: []*IrIns{v}})
	case from.IsInt() && to.IsFP():
		return b.cur.emit(&IrIns{Op: I2F, Type: to, Args: []*IrIns{v}})
	case from.IsFP() && to.IsInt():
		return b.cur.emit(&IrIns{Op: F2I, Type: to, Args: []*IrIns{v}})
	case from.Kind == types.Pointer && to.IsInt():
		return b.cur.emit(&IrIns{Op: P2I, Type: to, Args: []*IrIns{v}})
	case from.IsInt() && to.Kind == types.Pointer:
		return b.cur.emit(&IrIns{Op: I2P, Type: to, Args: []*IrIns{v}})
	default:
		return b.cur.emit(&IrIns{Op: BITCAST, Type: to, Args: []*IrIns{v}})
	}
}

func (b *builder) lowerCall(e *ast.CallExpr) *IrIns {
	var callee *IrIns
	if id, ok := ast.Unwrap(e.Fn).(*ast.IdentExpr); ok {
		if _, isLocal := b.locals[id.Name]; !isLocal {
			if g, ok := b.globals[id.Name]; ok {
				callee = b.cur.emit(&IrIns{Op: GLOBAL, Type: g.Type, GlobalRef: id.Name})
			}
		}
	}
	if callee == nil {
		callee = b.lowerExpr(e.Fn)
	}
	args := make([]*IrIns, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.lowerExpr(a)
	}
	call := b.cur.emit(&IrIns{Op: CALL, Type: e.ResolvedType(), Callee: callee, CallArgs: args})
	for i, a := range args {
		b.cur.emit(&IrIns{Op: CARG, Args: []*IrIns{a}, IntImm: int64(i)})
	}
	return call
}
