// Package ast defines the abstract syntax tree produced by lang/parser, per
// spec §3/§4.5: a translation unit is a sequence of top-level declarations,
// each either a function definition or a (possibly initialized) variable or
// typedef declaration. Every expression node also carries its resolved
// lang/types.Type once the parser's embedded type-checking pass has run, and
// every node keeps the token.Pos it started at for diagnostics.
//
// The Node/Expr/Stmt split, the fmt.Formatter-based dump format, and the
// Visitor/Walk pattern follow a conventional tree-walking AST design:
// every node implements Span/Walk/Format, and a Visitor interface drives
// generic traversal without a switch at every call site.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"cosec/lang/token"
	"cosec/lang/types"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so the debug printer (spec §4.8)
	// can render a tree without a separate visitor; only 'v'/'s' verbs are
	// supported, and '#' requests child-count annotations.
	fmt.Formatter

	// Span reports the node's start and end source position.
	Span() (start, end token.Pos)

	// Walk visits this node's direct children, implementing the Visitor
	// pattern together with the package-level Walk function.
	Walk(v Visitor)
}

// Expr represents an expression; every Expr carries its resolved type once
// the parser's type-checking pass has assigned one (spec §4.5: "every
// expression node records its resolved type").
type Expr interface {
	Node
	expr()
	// ResolvedType returns the expression's resolved C type, or nil before
	// type-checking has run.
	ResolvedType() *types.Type
	SetResolvedType(t *types.Type)
}

// Stmt represents a statement.
type Stmt interface {
	Node
	stmt()
}

// Decl represents a top-level or block-scope declaration.
type Decl interface {
	Node
	decl()
}

// exprBase is embedded by every Expr implementation to provide the
// ResolvedType bookkeeping once instead of repeating it on each node.
type exprBase struct {
	typ *types.Type
}

func (e *exprBase) ResolvedType() *types.Type     { return e.typ }
func (e *exprBase) SetResolvedType(t *types.Type) { e.typ = t }

// TranslationUnit is the root node: the whole of one preprocessed source
// file, parsed to a sequence of declarations (spec §3's top-level MODULE).
type TranslationUnit struct {
	Name  string
	Decls []Decl
	EOF   token.Pos
}

func (n *TranslationUnit) Format(f fmt.State, verb rune) {
	format(f, verb, n, "translation-unit "+n.Name, map[string]int{"decls": len(n.Decls)})
}
func (n *TranslationUnit) Span() (start, end token.Pos) {
	if len(n.Decls) == 0 {
		return n.EOF, n.EOF
	}
	start, _ = n.Decls[0].Span()
	return start, n.EOF
}
func (n *TranslationUnit) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d)
	}
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
