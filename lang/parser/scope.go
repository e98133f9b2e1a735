package parser

import (
	"github.com/dolthub/swiss"

	"cosec/lang/types"
)

// ScopeKind distinguishes the lexical scope kinds spec §4.5 requires: a
// loop or switch scope is also a block scope, but additionally tracks the
// bookkeeping break/continue/case need.
type ScopeKind uint8

const (
	FileScope ScopeKind = iota
	BlockScope
	LoopScope
	SwitchScope
)

// SymKind distinguishes what a name in a scope's variable map refers to,
// per spec §4.5's "variable map (name -> AST variable, typedef, or enum
// constant)".
type SymKind uint8

const (
	SymVar SymKind = iota
	SymFunc
	SymTypedef
	SymEnumConst
)

// Symbol is one entry of a scope's variable map.
type Symbol struct {
	Kind  SymKind
	Name  string
	Type  *types.Type
	Value int64 // meaningful for SymEnumConst
}

// CaseEntry records one case/default label seen while parsing the body of
// the innermost enclosing SwitchScope, so duplicates can be rejected (spec
// §4.5).
type CaseEntry struct {
	IsDefault bool
	Value     int64
}

// Scope is one link of the lexical scope chain (spec §4.5): it owns a
// variable map and a tag map, and additionally carries loop/switch
// bookkeeping when Kind warrants it.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope

	vars *swiss.Map[string, *Symbol]
	tags *swiss.Map[string, *types.Type]

	// Func is the innermost enclosing function, used to type-check "return"
	// (nil at file scope).
	Func *types.Type

	// Cases accumulates the case/default labels seen in the innermost
	// enclosing SwitchScope's body.
	Cases []CaseEntry
}

// NewFileScope creates the root scope of a translation unit.
func NewFileScope() *Scope {
	return &Scope{Kind: FileScope, vars: swiss.NewMap[string, *Symbol](64), tags: swiss.NewMap[string, *types.Type](16)}
}

// Push creates a new child scope of the given kind, inheriting the
// enclosing function from its parent (or from itself, for FuncBody's
// initial block, set separately by the caller).
func (s *Scope) Push(kind ScopeKind) *Scope {
	return &Scope{
		Kind:   kind,
		Parent: s,
		vars:   swiss.NewMap[string, *Symbol](8),
		tags:   swiss.NewMap[string, *types.Type](4),
		Func:   s.Func,
	}
}

// DefineVar installs name in this scope's variable map, shadowing any
// definition in an enclosing scope; it does not check for redefinition
// within the same scope, since that validation differs between file scope
// (redeclaration-compatible) and block scope (a hard error) and is the
// caller's responsibility.
func (s *Scope) DefineVar(sym *Symbol) { s.vars.Put(sym.Name, sym) }

// DefineTag installs a struct/union/enum tag in this scope's tag map.
func (s *Scope) DefineTag(name string, t *types.Type) { s.tags.Put(name, t) }

// LookupVar walks the scope chain outward for a variable map entry.
func (s *Scope) LookupVar(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.vars.Get(name); ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupVarLocal looks up name only in this scope, not its ancestors; used
// to detect same-scope redefinitions.
func (s *Scope) LookupVarLocal(name string) (*Symbol, bool) { return s.vars.Get(name) }

// LookupTag walks the scope chain outward for a tag map entry.
func (s *Scope) LookupTag(name string) (*types.Type, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if t, ok := cur.tags.Get(name); ok {
			return t, true
		}
	}
	return nil, false
}

// LookupTagLocal looks up a tag only in this scope.
func (s *Scope) LookupTagLocal(name string) (*types.Type, bool) { return s.tags.Get(name) }

// IsTypedefName reports whether name currently resolves to a typedef,
// which the parser must know while lexing a declaration (a grammar-level
// ambiguity: "ident" starts either an expression or a declarator).
func (s *Scope) IsTypedefName(name string) bool {
	sym, ok := s.LookupVar(name)
	return ok && sym.Kind == SymTypedef
}

// EnclosingLoop walks outward for the nearest LoopScope, used to validate
// "break"/"continue" and to find continue's target.
func (s *Scope) EnclosingLoop() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == LoopScope {
			return cur
		}
	}
	return nil
}

// EnclosingLoopOrSwitch walks outward for the nearest Loop or Switch scope,
// used to validate "break" (which targets either).
func (s *Scope) EnclosingLoopOrSwitch() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == LoopScope || cur.Kind == SwitchScope {
			return cur
		}
	}
	return nil
}

// EnclosingSwitch walks outward for the nearest SwitchScope, used to
// validate "case"/"default" labels.
func (s *Scope) EnclosingSwitch() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == SwitchScope {
			return cur
		}
	}
	return nil
}
