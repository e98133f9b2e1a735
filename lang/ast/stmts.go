package ast

import (
	"fmt"

	"cosec/lang/token"
)

type (
	// CompoundStmt is a brace-enclosed block, spec §4.5; it introduces its
	// own block scope during parsing but the AST node itself just holds the
	// statement sequence (scope bookkeeping lives in lang/parser).
	CompoundStmt struct {
		Lbrace token.Pos
		Stmts  []Stmt
		Rbrace token.Pos
	}

	// ExprStmt is an expression evaluated for its side effects, e.g. "f();".
	ExprStmt struct {
		X    Expr // nil for a bare ";"
		Semi token.Pos
	}

	// DeclStmt wraps a block-scope declaration so it can appear in a
	// CompoundStmt's Stmts list alongside other statements.
	DeclStmt struct {
		Decl Decl
	}

	// IfStmt is "if (Cond) Then [else Else]".
	IfStmt struct {
		If     token.Pos
		Cond   Expr
		Then   Stmt
		Else   Stmt // nil if no else clause
		EndPos token.Pos
	}

	// WhileStmt is "while (Cond) Body".
	WhileStmt struct {
		While  token.Pos
		Cond   Expr
		Body   Stmt
		EndPos token.Pos
	}

	// DoWhileStmt is "do Body while (Cond);".
	DoWhileStmt struct {
		Do   token.Pos
		Body Stmt
		Cond Expr
		Semi token.Pos
	}

	// ForStmt is "for (Init; Cond; Post) Body"; each of Init/Cond/Post may be
	// nil (spec §4.5's three optional clauses). Init may instead be a
	// DeclStmt when the loop declares its own induction variable.
	ForStmt struct {
		For    token.Pos
		Init   Stmt // ExprStmt, DeclStmt, or nil
		Cond   Expr // nil means "true"
		Post   Expr // nil means no post-expression
		Body   Stmt
		EndPos token.Pos
	}

	// SwitchStmt is "switch (Tag) Body"; Body typically a CompoundStmt whose
	// Stmts contain CaseStmt/DefaultStmt markers (spec §4.5).
	SwitchStmt struct {
		Switch token.Pos
		Tag    Expr
		Body   Stmt
		EndPos token.Pos
	}

	// CaseStmt is "case Value: Body..." — labels the following statement(s)
	// inside an enclosing switch.
	CaseStmt struct {
		Case  token.Pos
		Value Expr
		Colon token.Pos
	}

	// DefaultStmt is "default:" inside a switch.
	DefaultStmt struct {
		Default token.Pos
		Colon   token.Pos
	}

	// BreakStmt exits the nearest enclosing loop or switch.
	BreakStmt struct {
		Pos token.Pos
	}

	// ContinueStmt jumps to the nearest enclosing loop's post/condition step.
	ContinueStmt struct {
		Pos token.Pos
	}

	// ReturnStmt is "return [X];".
	ReturnStmt struct {
		Return token.Pos
		X      Expr // nil for a value-less return
		Semi   token.Pos
	}

	// GotoStmt is "goto Label;".
	GotoStmt struct {
		Goto  token.Pos
		Label string
		Semi  token.Pos
	}

	// LabeledStmt is "Label: Stmt", the target of a GotoStmt.
	LabeledStmt struct {
		Label string
		Pos   token.Pos
		Colon token.Pos
		Stmt  Stmt
	}

	// EmptyStmt is a bare ";" kept distinct from ExprStmt so the debug
	// printer and the parser's "statement expected" diagnostics can tell
	// "nothing here" apart from "an expression with no value here".
	EmptyStmt struct {
		Semi token.Pos
	}

	// BadStmt is a placeholder for a statement that failed to parse, letting
	// the parser recover and keep going instead of aborting the whole
	// translation unit at the first syntax error.
	BadStmt struct {
		Start token.Pos
		End   token.Pos
	}
)

func (n *CompoundStmt) stmt() {}
func (n *CompoundStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *CompoundStmt) Span() (start, end token.Pos) {
	return n.Lbrace, n.Rbrace + token.Pos(len(token.RBRACE.String()))
}
func (n *CompoundStmt) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

func (n *ExprStmt) stmt() {}
func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr-stmt", nil) }
func (n *ExprStmt) Span() (start, end token.Pos) {
	if n.X == nil {
		return n.Semi, n.Semi + 1
	}
	start, _ = n.X.Span()
	return start, n.Semi + 1
}
func (n *ExprStmt) Walk(v Visitor) {
	if n.X != nil {
		Walk(v, n.X)
	}
}

func (n *DeclStmt) stmt() {}
func (n *DeclStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "decl-stmt", nil) }
func (n *DeclStmt) Span() (start, end token.Pos)  { return n.Decl.Span() }
func (n *DeclStmt) Walk(v Visitor)                { Walk(v, n.Decl) }

func (n *IfStmt) stmt() {}
func (n *IfStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "if", map[string]int{"has-else": boolCount(n.Else != nil)})
}
func (n *IfStmt) Span() (start, end token.Pos) { return n.If, n.EndPos }
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

func (n *WhileStmt) stmt() {}
func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStmt) Span() (start, end token.Pos)  { return n.While, n.EndPos }
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

func (n *DoWhileStmt) stmt() {}
func (n *DoWhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "do-while", nil) }
func (n *DoWhileStmt) Span() (start, end token.Pos) {
	return n.Do, n.Semi + token.Pos(len(token.SEMI.String()))
}
func (n *DoWhileStmt) Walk(v Visitor) {
	Walk(v, n.Body)
	Walk(v, n.Cond)
}

func (n *ForStmt) stmt() {}
func (n *ForStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }
func (n *ForStmt) Span() (start, end token.Pos)  { return n.For, n.EndPos }
func (n *ForStmt) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}

func (n *SwitchStmt) stmt() {}
func (n *SwitchStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "switch", nil) }
func (n *SwitchStmt) Span() (start, end token.Pos)  { return n.Switch, n.EndPos }
func (n *SwitchStmt) Walk(v Visitor) {
	Walk(v, n.Tag)
	Walk(v, n.Body)
}

func (n *CaseStmt) stmt() {}
func (n *CaseStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "case", nil) }
func (n *CaseStmt) Span() (start, end token.Pos) {
	return n.Case, n.Colon + token.Pos(len(token.COLON.String()))
}
func (n *CaseStmt) Walk(v Visitor) { Walk(v, n.Value) }

func (n *DefaultStmt) stmt() {}
func (n *DefaultStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "default", nil) }
func (n *DefaultStmt) Span() (start, end token.Pos) {
	return n.Default, n.Colon + token.Pos(len(token.COLON.String()))
}
func (n *DefaultStmt) Walk(_ Visitor) {}

func (n *BreakStmt) stmt() {}
func (n *BreakStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }
func (n *BreakStmt) Span() (start, end token.Pos) {
	return n.Pos, n.Pos + token.Pos(len(token.BREAK.String()))
}
func (n *BreakStmt) Walk(_ Visitor) {}

func (n *ContinueStmt) stmt() {}
func (n *ContinueStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "continue", nil) }
func (n *ContinueStmt) Span() (start, end token.Pos) {
	return n.Pos, n.Pos + token.Pos(len(token.CONTINUE.String()))
}
func (n *ContinueStmt) Walk(_ Visitor) {}

func (n *ReturnStmt) stmt() {}
func (n *ReturnStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "return", map[string]int{"has-value": boolCount(n.X != nil)})
}
func (n *ReturnStmt) Span() (start, end token.Pos) {
	return n.Return, n.Semi + token.Pos(len(token.SEMI.String()))
}
func (n *ReturnStmt) Walk(v Visitor) {
	if n.X != nil {
		Walk(v, n.X)
	}
}

func (n *GotoStmt) stmt() {}
func (n *GotoStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "goto "+n.Label, nil) }
func (n *GotoStmt) Span() (start, end token.Pos) {
	return n.Goto, n.Semi + token.Pos(len(token.SEMI.String()))
}
func (n *GotoStmt) Walk(_ Visitor) {}

func (n *LabeledStmt) stmt() {}
func (n *LabeledStmt) Format(f fmt.State, verb rune) { format(f, verb, n, n.Label+":", nil) }
func (n *LabeledStmt) Span() (start, end token.Pos) {
	_, end = n.Stmt.Span()
	return n.Pos, end
}
func (n *LabeledStmt) Walk(v Visitor) { Walk(v, n.Stmt) }

func (n *EmptyStmt) stmt() {}
func (n *EmptyStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "empty", nil) }
func (n *EmptyStmt) Span() (start, end token.Pos) {
	return n.Semi, n.Semi + token.Pos(len(token.SEMI.String()))
}
func (n *EmptyStmt) Walk(_ Visitor) {}

func (n *BadStmt) stmt() {}
func (n *BadStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad stmt!", nil) }
func (n *BadStmt) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadStmt) Walk(_ Visitor)                {}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
