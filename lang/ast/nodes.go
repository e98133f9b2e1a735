package ast

import (
	"fmt"

	"cosec/lang/token"
	"cosec/lang/types"
)

// Linkage classifies a top-level declaration's storage-class per spec §4.5:
// external (the default and "extern"), internal ("static"), or none
// ("typedef", or a block-scope "auto"/"register" object).
type Linkage uint8

const (
	ExternalLinkage Linkage = iota
	InternalLinkage
	NoLinkage
)

// Param is one parameter of a function declarator.
type Param struct {
	Name string
	Type *types.Type
	Pos  token.Pos
}

// FuncDecl is a function declaration or definition (spec §4.5): Body is nil
// for a declaration-only prototype.
type FuncDecl struct {
	Name     string
	Type     *types.Type // Func type, already resolved
	Params   []Param
	Linkage  Linkage
	Inline   bool
	Body     *CompoundStmt // nil if this is a prototype, not a definition
	StartPos token.Pos
	EndPos   token.Pos
}

func (n *FuncDecl) decl() {}
func (n *FuncDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "func "+n.Name, map[string]int{"params": len(n.Params)})
}
func (n *FuncDecl) Span() (start, end token.Pos) { return n.StartPos, n.EndPos }
func (n *FuncDecl) Walk(v Visitor) {
	if n.Body != nil {
		Walk(v, n.Body)
	}
}

// VarDecl is a file- or block-scope variable declaration, with an optional
// initializer (spec §4.5's initializer handling, including designated
// initializers folded into Init when it is an *InitListExpr).
type VarDecl struct {
	Name     string
	Type     *types.Type
	Linkage  Linkage
	Static   bool // block-scope "static": internal linkage's cousin, one-time init
	Init     Expr // nil if uninitialized
	StartPos token.Pos
	EndPos   token.Pos
}

func (n *VarDecl) decl() {}
func (n *VarDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "var "+n.Name+" : "+n.Type.String(), nil)
}
func (n *VarDecl) Span() (start, end token.Pos) { return n.StartPos, n.EndPos }
func (n *VarDecl) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
}

// TypedefDecl introduces a type alias (spec §4.5).
type TypedefDecl struct {
	Name     string
	Type     *types.Type
	StartPos token.Pos
	EndPos   token.Pos
}

func (n *TypedefDecl) decl() {}
func (n *TypedefDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "typedef "+n.Name+" = "+n.Type.String(), nil)
}
func (n *TypedefDecl) Span() (start, end token.Pos) { return n.StartPos, n.EndPos }
func (n *TypedefDecl) Walk(_ Visitor)               {}

// RecordDecl records a struct/union/enum tag definition that isn't itself
// part of declaring a variable (e.g. a bare "struct point { ... };").
type RecordDecl struct {
	Type     *types.Type
	StartPos token.Pos
	EndPos   token.Pos
}

func (n *RecordDecl) decl() {}
func (n *RecordDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "record "+n.Type.String(), nil)
}
func (n *RecordDecl) Span() (start, end token.Pos) { return n.StartPos, n.EndPos }
func (n *RecordDecl) Walk(_ Visitor)               {}

// BadDecl is a placeholder for a top-level declaration that failed to
// parse; the parser resynchronizes at the next declaration boundary rather
// than aborting the whole translation unit at the first syntax error.
type BadDecl struct {
	Start token.Pos
	End   token.Pos
}

func (n *BadDecl) decl() {}
func (n *BadDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad decl!", nil) }
func (n *BadDecl) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadDecl) Walk(_ Visitor)                {}
