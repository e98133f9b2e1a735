package ast

import (
	"fmt"

	"cosec/lang/token"
	"cosec/lang/types"
)

// Unwrap strips any number of enclosing ParenExpr wrappers, used by the
// parser when deciding whether an expression is assignable or a valid
// statement.
func Unwrap(e Expr) Expr {
	if pe, ok := e.(*ParenExpr); ok {
		return Unwrap(pe.Inner)
	}
	return e
}

// IsAssignable reports whether e can appear on the left of '=' (spec §4.5):
// an identifier, a member access, an index expression, a unary dereference,
// or a parenthesized form of one of those.
func IsAssignable(e Expr) bool {
	switch e := Unwrap(e).(type) {
	case *IdentExpr:
		return true
	case *MemberExpr:
		return true
	case *IndexExpr:
		return true
	case *UnaryExpr:
		return e.Op == token.STAR
	default:
		return false
	}
}

type (
	// IdentExpr is a reference to a variable, function, or enum constant.
	IdentExpr struct {
		exprBase
		Name string
		Pos  token.Pos
	}

	// IntLitExpr is an integer constant, spec §3/§4.6.
	IntLitExpr struct {
		exprBase
		Raw      string
		Value    int64
		Unsigned bool
		Pos      token.Pos
	}

	// FloatLitExpr is a floating-point constant.
	FloatLitExpr struct {
		exprBase
		Raw   string
		Value float64
		Pos   token.Pos
	}

	// CharLitExpr is a character constant.
	CharLitExpr struct {
		exprBase
		Raw   string
		Value rune
		Pos   token.Pos
	}

	// StringLitExpr is a string literal; adjacent string literals are
	// concatenated by the parser before this node is built (spec §4.5).
	StringLitExpr struct {
		exprBase
		Raw   string
		Value string
		Pos   token.Pos
	}

	// InitListExpr is a brace-enclosed initializer list, with optional
	// per-element designators (".field" or "[index]", spec §4.5/§9).
	InitListExpr struct {
		exprBase
		Elems       []Expr
		Designators []Designator // parallel to Elems; zero value means none
		Lbrace      token.Pos
		Rbrace      token.Pos
	}

	// Designator names one element of an initializer list designation.
	Designator struct {
		Field string // non-empty for ".field"
		Index Expr   // non-nil for "[index]"
	}

	// ParenExpr is a parenthesized expression, kept in the tree (rather than
	// discarded) so spans and the debug printer reflect the source exactly.
	ParenExpr struct {
		exprBase
		Lparen token.Pos
		Inner  Expr
		Rparen token.Pos
	}

	// BinaryExpr is a binary operator expression, e.g. x + y, x && y.
	BinaryExpr struct {
		exprBase
		Left  Expr
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// AssignExpr is a simple or compound assignment, e.g. x = y, x += y.
	AssignExpr struct {
		exprBase
		Left  Expr
		Op    token.Token // ASSIGN or one of the IsAugBinop() tokens
		OpPos token.Pos
		Right Expr
	}

	// CondExpr is the ternary conditional operator, x ? y : z.
	CondExpr struct {
		exprBase
		Cond     Expr
		Question token.Pos
		Then     Expr
		Colon    token.Pos
		Else     Expr
	}

	// CommaExpr is the sequencing comma operator, x, y.
	CommaExpr struct {
		exprBase
		Left  Expr
		Comma token.Pos
		Right Expr
	}

	// UnaryExpr is a prefix unary operator: & * + - ~ !.
	UnaryExpr struct {
		exprBase
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// IncDecExpr is ++/-- in either prefix or postfix position.
	IncDecExpr struct {
		exprBase
		Op      token.Token // INC or DEC
		OpPos   token.Pos
		Operand Expr
		Postfix bool
	}

	// CastExpr is an explicit "(type) expr" cast.
	CastExpr struct {
		exprBase
		Lparen token.Pos
		Inner  Expr
	}

	// SizeofExpr is "sizeof expr" or "sizeof(type)". Exactly one of Operand
	// and TypeName is set: Operand for the expression form, TypeName (the
	// parsed type-name's resolved type) for the "sizeof(typename)" form.
	// ResolvedType() always reports the evaluator's result type
	// (unsigned long, per spec §4.4), not the queried type.
	SizeofExpr struct {
		exprBase
		Sizeof   token.Pos
		Operand  Expr        // nil if this is "sizeof(typename)"
		TypeName *types.Type // nil if this is "sizeof expr"
		End      token.Pos
	}

	// CallExpr is a function call, f(a, b).
	CallExpr struct {
		exprBase
		Fn     Expr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// IndexExpr is array subscripting, a[i].
	IndexExpr struct {
		exprBase
		Array  Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// MemberExpr is '.' or '->' member access.
	MemberExpr struct {
		exprBase
		Base   Expr
		Arrow  bool
		Dot    token.Pos
		Field  string
		EndPos token.Pos
	}
)

func (n *IdentExpr) expr() {}
func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name, nil) }
func (n *IdentExpr) Span() (start, end token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Name)) }
func (n *IdentExpr) Walk(_ Visitor)                {}

func (n *IntLitExpr) expr() {}
func (n *IntLitExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "int "+n.Raw, nil) }
func (n *IntLitExpr) Span() (start, end token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *IntLitExpr) Walk(_ Visitor)                {}

func (n *FloatLitExpr) expr() {}
func (n *FloatLitExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "float "+n.Raw, nil) }
func (n *FloatLitExpr) Span() (start, end token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *FloatLitExpr) Walk(_ Visitor)                {}

func (n *CharLitExpr) expr() {}
func (n *CharLitExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "char "+n.Raw, nil) }
func (n *CharLitExpr) Span() (start, end token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *CharLitExpr) Walk(_ Visitor)                {}

func (n *StringLitExpr) expr() {}
func (n *StringLitExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "string "+n.Raw, nil) }
func (n *StringLitExpr) Span() (start, end token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *StringLitExpr) Walk(_ Visitor)                {}

func (n *InitListExpr) expr() {}
func (n *InitListExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "init-list", map[string]int{"elems": len(n.Elems)})
}
func (n *InitListExpr) Span() (start, end token.Pos) {
	return n.Lbrace, n.Rbrace + token.Pos(len(token.RBRACE.String()))
}
func (n *InitListExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}

func (n *ParenExpr) expr() {}
func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(expr)", nil) }
func (n *ParenExpr) Span() (start, end token.Pos) {
	return n.Lparen, n.Rparen + token.Pos(len(token.RPAREN.String()))
}
func (n *ParenExpr) Walk(v Visitor) { Walk(v, n.Inner) }

func (n *BinaryExpr) expr() {}
func (n *BinaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Op.GoString(), nil)
}
func (n *BinaryExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *AssignExpr) expr() {}
func (n *AssignExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "assign "+n.Op.GoString(), nil)
}
func (n *AssignExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *AssignExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *CondExpr) expr() {}
func (n *CondExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "cond ?:", nil) }
func (n *CondExpr) Span() (start, end token.Pos) {
	start, _ = n.Cond.Span()
	_, end = n.Else.Span()
	return start, end
}
func (n *CondExpr) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	Walk(v, n.Else)
}

func (n *CommaExpr) expr() {}
func (n *CommaExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "comma ,", nil) }
func (n *CommaExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *CommaExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *UnaryExpr) expr() {}
func (n *UnaryExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "unary "+n.Op.GoString(), nil) }
func (n *UnaryExpr) Span() (start, end token.Pos) {
	_, end = n.Right.Span()
	return n.OpPos, end
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.Right) }

func (n *IncDecExpr) expr() {}
func (n *IncDecExpr) Format(f fmt.State, verb rune) {
	lbl := "pre " + n.Op.GoString()
	if n.Postfix {
		lbl = "post " + n.Op.GoString()
	}
	format(f, verb, n, lbl, nil)
}
func (n *IncDecExpr) Span() (start, end token.Pos) {
	opStart, opEnd := n.OpPos, n.OpPos+token.Pos(len(n.Op.String()))
	operandStart, operandEnd := n.Operand.Span()
	if n.Postfix {
		return operandStart, opEnd
	}
	return opStart, operandEnd
}
func (n *IncDecExpr) Walk(v Visitor) { Walk(v, n.Operand) }

func (n *CastExpr) expr() {}
func (n *CastExpr) Format(f fmt.State, verb rune) {
	lbl := "(cast)"
	if n.ResolvedType() != nil {
		lbl = "(" + n.ResolvedType().String() + ")"
	}
	format(f, verb, n, lbl, nil)
}
func (n *CastExpr) Span() (start, end token.Pos) {
	_, end = n.Inner.Span()
	return n.Lparen, end
}
func (n *CastExpr) Walk(v Visitor) { Walk(v, n.Inner) }

func (n *SizeofExpr) expr() {}
func (n *SizeofExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "sizeof", nil) }
func (n *SizeofExpr) Span() (start, end token.Pos)  { return n.Sizeof, n.End }
func (n *SizeofExpr) Walk(v Visitor) {
	if n.Operand != nil {
		Walk(v, n.Operand)
	}
}

func (n *CallExpr) expr() {}
func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Pos) {
	start, _ = n.Fn.Span()
	return start, n.Rparen + token.Pos(len(token.RPAREN.String()))
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *IndexExpr) expr() {}
func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "index [ ]", nil) }
func (n *IndexExpr) Span() (start, end token.Pos) {
	start, _ = n.Array.Span()
	return start, n.Rbrack + token.Pos(len(token.RBRACK.String()))
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Array)
	Walk(v, n.Index)
}

func (n *MemberExpr) expr() {}
func (n *MemberExpr) Format(f fmt.State, verb rune) {
	op := "."
	if n.Arrow {
		op = "->"
	}
	format(f, verb, n, "member "+op+n.Field, nil)
}
func (n *MemberExpr) Span() (start, end token.Pos) {
	start, _ = n.Base.Span()
	return start, n.EndPos
}
func (n *MemberExpr) Walk(v Visitor) { Walk(v, n.Base) }
