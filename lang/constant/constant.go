// Package constant implements the compile-time constant expression
// evaluator of spec §4.6: folding AST expressions into an integer
// immediate, a floating-point immediate, or a label-with-offset (a
// symbolic pointer relative to a named global), with C's constant-folding
// arithmetic and pointer rules.
package constant

import (
	"cosec/lang/ast"
	"cosec/lang/types"
)

// Kind tags which case of Value is meaningful.
type Kind uint8

const (
	Int Kind = iota
	Float
	Symbol // a label + byte offset: the value of "&global + k"
)

// Value is the result of folding a constant expression.
type Value struct {
	Kind Kind

	IntVal   int64
	Unsigned bool

	FloatVal float64

	SymName   string // global/function name, for Kind == Symbol
	SymOffset int64  // byte offset from SymName's address

	Type *types.Type
}

// Globals resolves a global identifier to its type, the information the
// evaluator needs to fold "&globalVar" into a Value and to validate that an
// identifier used in a constant expression actually names something with a
// fixed address (spec §4.6: "&v where v is a known-address value yields a
// symbolic pointer").
type Globals interface {
	GlobalType(name string) (*types.Type, bool)
}

// AddFunc reports a fold failure at the given expression; constant.Eval
// never panics, it always returns ok=false and leaves diagnosing to the
// caller-supplied callback so failures compose with every other stage's
// diag.ErrorList (spec §4.6: "failure to fold is always reported at the
// originating token").
type AddFunc func(e ast.Expr, format string, args ...any)

// Eval folds e to a constant Value, or returns ok=false having already
// reported why via add. Eval is side-effect free (spec §4.6).
func Eval(e ast.Expr, globals Globals, add AddFunc) (Value, bool) {
	ev := &evaluator{globals: globals, add: add}
	return ev.eval(e)
}

type evaluator struct {
	globals Globals
	add     AddFunc
}

func (ev *evaluator) fail(e ast.Expr, format string, args ...any) (Value, bool) {
	ev.add(e, format, args...)
	return Value{}, false
}

func (ev *evaluator) eval(e ast.Expr) (Value, bool) {
	switch e := e.(type) {
	case *ast.IntLitExpr:
		return Value{Kind: Int, IntVal: e.Value, Unsigned: e.Unsigned, Type: e.ResolvedType()}, true
	case *ast.CharLitExpr:
		return Value{Kind: Int, IntVal: int64(e.Value), Type: e.ResolvedType()}, true
	case *ast.FloatLitExpr:
		return Value{Kind: Float, FloatVal: e.Value, Type: e.ResolvedType()}, true
	case *ast.ParenExpr:
		return ev.eval(e.Inner)
	case *ast.IdentExpr:
		return ev.evalIdent(e)
	case *ast.UnaryExpr:
		return ev.evalUnary(e)
	case *ast.BinaryExpr:
		return ev.evalBinary(e)
	case *ast.CondExpr:
		return ev.evalCond(e)
	case *ast.CastExpr:
		return ev.evalCast(e)
	case *ast.SizeofExpr:
		return ev.evalSizeof(e)
	case *ast.IndexExpr:
		return ev.evalIndex(e)
	case *ast.MemberExpr:
		return ev.evalMember(e)
	default:
		return ev.fail(e, "expression is not a compile-time constant")
	}
}

func (ev *evaluator) evalIdent(e *ast.IdentExpr) (Value, bool) {
	if t, ok := ev.globals.GlobalType(e.Name); ok {
		// A bare global identifier used where a constant is expected decays
		// to its address, matching array-to-pointer/function-to-pointer
		// decay rules (spec §4.5) extended into constant-fold context.
		return Value{Kind: Symbol, SymName: e.Name, Type: types.NewPointer(t)}, true
	}
	return ev.fail(e, "%q is not a compile-time constant", e.Name)
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr) (Value, bool) {
	if e.Op.String() == "&" {
		return ev.evalAddrOf(e.Right)
	}
	v, ok := ev.eval(e.Right)
	if !ok {
		return Value{}, false
	}
	switch e.Op.String() {
	case "-":
		if v.Kind == Float {
			v.FloatVal = -v.FloatVal
		} else {
			v.IntVal = -v.IntVal
		}
	case "+":
		// no-op
	case "~":
		if v.Kind != Int {
			return ev.fail(e, "operand of '~' must be an integer constant")
		}
		v.IntVal = ^v.IntVal
	case "!":
		var b int64
		if (v.Kind == Int && v.IntVal == 0) || (v.Kind == Float && v.FloatVal == 0) {
			b = 1
		}
		v = Value{Kind: Int, IntVal: b, Type: e.ResolvedType()}
	default:
		return ev.fail(e, "unsupported unary operator in constant expression")
	}
	return v, true
}

func (ev *evaluator) evalAddrOf(operand ast.Expr) (Value, bool) {
	switch operand := ast.Unwrap(operand).(type) {
	case *ast.IdentExpr:
		t, ok := ev.globals.GlobalType(operand.Name)
		if !ok {
			return ev.fail(operand, "%q does not have a compile-time address", operand.Name)
		}
		return Value{Kind: Symbol, SymName: operand.Name, Type: types.NewPointer(t)}, true
	case *ast.IndexExpr:
		base, ok := ev.evalAddrOf(operand.Array)
		if !ok {
			return Value{}, false
		}
		idx, ok := ev.eval(operand.Index)
		if !ok || idx.Kind != Int {
			return ev.fail(operand.Index, "array index in constant expression must be an integer constant")
		}
		elemSize := int64(1)
		if base.Type != nil && base.Type.Kind == types.Pointer {
			elemSize = int64(base.Type.Elem.Size())
		}
		base.SymOffset += idx.IntVal * elemSize
		return base, true
	case *ast.MemberExpr:
		base, ok := ev.evalAddrOf(operand.Base)
		if !ok {
			return Value{}, false
		}
		recTy := base.Type
		if recTy != nil && recTy.Kind == types.Pointer {
			recTy = recTy.Elem
		}
		if recTy == nil {
			return ev.fail(operand, "member access on non-constant base")
		}
		f, ok := recTy.Field(operand.Field)
		if !ok {
			return ev.fail(operand, "no member named %q", operand.Field)
		}
		base.SymOffset += int64(f.Offset)
		base.Type = types.NewPointer(f.Type)
		return base, true
	default:
		return ev.fail(operand, "cannot take the address of this expression in a constant context")
	}
}

func (ev *evaluator) evalBinary(e *ast.BinaryExpr) (Value, bool) {
	l, ok := ev.eval(e.Left)
	if !ok {
		return Value{}, false
	}
	r, ok := ev.eval(e.Right)
	if !ok {
		return Value{}, false
	}

	// pointer +/- integer, and pointer - pointer, per spec §4.6.
	if l.Kind == Symbol || r.Kind == Symbol {
		return ev.evalPointerBinary(e, l, r)
	}

	if l.Kind == Float || r.Kind == Float {
		lf, rf := toFloat(l), toFloat(r)
		res, ok := applyFloatOp(e.Op.String(), lf, rf)
		if !ok {
			return ev.fail(e, "unsupported operator %s on floating constants", e.Op.GoString())
		}
		return Value{Kind: Float, FloatVal: res, Type: e.ResolvedType()}, true
	}

	unsigned := l.Unsigned || r.Unsigned
	res, ok := applyIntOp(e.Op.String(), l.IntVal, r.IntVal, unsigned)
	if !ok {
		return ev.fail(e, "unsupported operator %s on integer constants", e.Op.GoString())
	}
	return Value{Kind: Int, IntVal: res, Unsigned: unsigned, Type: e.ResolvedType()}, true
}

func (ev *evaluator) evalPointerBinary(e *ast.BinaryExpr, l, r Value) (Value, bool) {
	op := e.Op.String()
	if l.Kind == Symbol && r.Kind == Symbol {
		if op != "-" {
			if op == "==" || op == "!=" {
				eq := l.SymName == r.SymName && l.SymOffset == r.SymOffset
				if op == "!=" {
					eq = !eq
				}
				return Value{Kind: Int, IntVal: boolToInt(eq), Type: e.ResolvedType()}, true
			}
			return ev.fail(e, "invalid operator %s between two pointer constants", e.Op.GoString())
		}
		if l.SymName != r.SymName {
			return ev.fail(e, "subtracting pointers to different globals (%q and %q) is not a constant expression", l.SymName, r.SymName)
		}
		elemSize := int64(1)
		if l.Type != nil && l.Type.Kind == types.Pointer {
			elemSize = int64(l.Type.Elem.Size())
		}
		if elemSize == 0 {
			elemSize = 1
		}
		return Value{Kind: Int, IntVal: (l.SymOffset - r.SymOffset) / elemSize, Type: e.ResolvedType()}, true
	}

	ptr, integer := l, r
	if r.Kind == Symbol {
		ptr, integer = r, l
	}
	switch op {
	case "+":
		elemSize := int64(1)
		if ptr.Type != nil && ptr.Type.Kind == types.Pointer {
			elemSize = int64(ptr.Type.Elem.Size())
		}
		ptr.SymOffset += integer.IntVal * elemSize
		return ptr, true
	case "-":
		if l.Kind != Symbol {
			return ev.fail(e, "cannot subtract a pointer from an integer")
		}
		elemSize := int64(1)
		if ptr.Type != nil && ptr.Type.Kind == types.Pointer {
			elemSize = int64(ptr.Type.Elem.Size())
		}
		ptr.SymOffset -= integer.IntVal * elemSize
		return ptr, true
	case "==", "!=":
		isNull := integer.Kind == Int && integer.IntVal == 0
		eq := isNull && ptr.SymName == "" && ptr.SymOffset == 0 // only a null pointer (no symbol, zero offset) equals the null-pointer constant
		if op == "!=" {
			eq = !eq
		}
		return Value{Kind: Int, IntVal: boolToInt(eq), Type: e.ResolvedType()}, true
	default:
		return ev.fail(e, "unsupported operator %s between a pointer and an integer constant", e.Op.GoString())
	}
}

func (ev *evaluator) evalCond(e *ast.CondExpr) (Value, bool) {
	c, ok := ev.eval(e.Cond)
	if !ok {
		return Value{}, false
	}
	if truthy(c) {
		return ev.eval(e.Then)
	}
	return ev.eval(e.Else)
}

func (ev *evaluator) evalCast(e *ast.CastExpr) (Value, bool) {
	v, ok := ev.eval(e.Inner)
	if !ok {
		return Value{}, false
	}
	target := e.ResolvedType()
	if target == nil {
		return v, true
	}
	return convert(v, target), true
}

func (ev *evaluator) evalSizeof(e *ast.SizeofExpr) (Value, bool) {
	var t *types.Type
	if e.TypeName != nil {
		t = e.TypeName
	} else if e.Operand != nil {
		t = e.Operand.ResolvedType()
	}
	if t == nil || t.IsIncomplete() {
		return ev.fail(e, "sizeof applied to an incomplete type")
	}
	return Value{Kind: Int, IntVal: int64(t.Size()), Unsigned: true, Type: e.ResolvedType()}, true
}

func (ev *evaluator) evalIndex(e *ast.IndexExpr) (Value, bool) {
	v, ok := ev.evalAddrOf(e)
	if !ok {
		return Value{}, false
	}
	return ev.deref(e, v)
}

func (ev *evaluator) evalMember(e *ast.MemberExpr) (Value, bool) {
	v, ok := ev.evalAddrOf(e)
	if !ok {
		return Value{}, false
	}
	return ev.deref(e, v)
}

// deref is a stand-in for "load the value stored at this constant
// address": cosec's constant evaluator only ever needs the address itself
// (for initializing pointer-typed globals with "&x" or "arr" or
// "&s.field"), since loading a non-address constant value out of another
// global's storage isn't something C constant expressions support anyway
// (spec §4.6 lists only address-of and arithmetic on addresses).
func (ev *evaluator) deref(e ast.Expr, addr Value) (Value, bool) {
	return ev.fail(e, "expression is not a compile-time constant")
}

func truthy(v Value) bool {
	if v.Kind == Float {
		return v.FloatVal != 0
	}
	return v.IntVal != 0
}

func toFloat(v Value) float64 {
	if v.Kind == Float {
		return v.FloatVal
	}
	if v.Unsigned {
		return float64(uint64(v.IntVal))
	}
	return float64(v.IntVal)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func applyFloatOp(op string, l, r float64) (float64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		return l / r, true
	case "==":
		return boolToFloat(l == r), true
	case "!=":
		return boolToFloat(l != r), true
	case "<":
		return boolToFloat(l < r), true
	case ">":
		return boolToFloat(l > r), true
	case "<=":
		return boolToFloat(l <= r), true
	case ">=":
		return boolToFloat(l >= r), true
	}
	return 0, false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func applyIntOp(op string, l, r int64, unsigned bool) (int64, bool) {
	switch op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		if unsigned {
			return int64(uint64(l) / uint64(r)), true
		}
		return l / r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		if unsigned {
			return int64(uint64(l) % uint64(r)), true
		}
		return l % r, true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	case "<<":
		return l << uint64(r), true
	case ">>":
		if unsigned {
			return int64(uint64(l) >> uint64(r)), true
		}
		return l >> uint64(r), true
	case "&&":
		return boolToInt(l != 0 && r != 0), true
	case "||":
		return boolToInt(l != 0 || r != 0), true
	case "==":
		return boolToInt(l == r), true
	case "!=":
		return boolToInt(l != r), true
	case "<":
		if unsigned {
			return boolToInt(uint64(l) < uint64(r)), true
		}
		return boolToInt(l < r), true
	case ">":
		if unsigned {
			return boolToInt(uint64(l) > uint64(r)), true
		}
		return boolToInt(l > r), true
	case "<=":
		if unsigned {
			return boolToInt(uint64(l) <= uint64(r)), true
		}
		return boolToInt(l <= r), true
	case ">=":
		if unsigned {
			return boolToInt(uint64(l) >= uint64(r)), true
		}
		return boolToInt(l >= r), true
	}
	return 0, false
}

// convert applies C's constant conversion rules (spec §4.6): truncate or
// sign/zero-extend integers per the target's bit width, convert between
// float and int representations, and round-trip int<->pointer through the
// symbol's offset.
func convert(v Value, target *types.Type) Value {
	if target.Kind == types.Pointer {
		if v.Kind == Symbol {
			return v
		}
		return Value{Kind: Symbol, SymOffset: v.IntVal, Type: target}
	}
	if target.IsFP() {
		f := toFloat(v)
		if v.Kind == Float {
			f = v.FloatVal
		}
		return Value{Kind: Float, FloatVal: f, Type: target}
	}
	var i int64
	switch v.Kind {
	case Float:
		i = int64(v.FloatVal)
	case Symbol:
		i = v.SymOffset
	default:
		i = v.IntVal
	}
	i = truncateToWidth(i, target.Size(), target.IsUnsigned())
	return Value{Kind: Int, IntVal: i, Unsigned: target.IsUnsigned(), Type: target}
}

func truncateToWidth(v int64, size int, unsigned bool) int64 {
	if size <= 0 || size >= 8 {
		return v
	}
	bits := uint(size * 8)
	mask := int64(1)<<bits - 1
	v &= mask
	if !unsigned && v&(int64(1)<<(bits-1)) != 0 {
		v |= ^mask
	}
	return v
}
