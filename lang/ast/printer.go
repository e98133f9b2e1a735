package ast

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cosec/lang/token"
)

// Printer controls debug-dumping of the AST, per spec §4.8's dump format:
// one node per line, indented by nesting depth, optionally annotated with
// source positions.
type Printer struct {
	// Output is the io.Writer to print to.
	Output io.Writer

	// Fset resolves node positions to file/line/column; required unless
	// WithPos is false.
	Fset *token.FileSet

	// WithPos enables the "[start:end]" position prefix on each line.
	WithPos bool

	// NodeFmt is the format string used to render each node. The verb must
	// be either 's' or 'v', a width can be set, and the '#' and '-' flags
	// are supported ('-' only when a width is set, to pad on the right
	// instead of the left). Defaults to "%v".
	NodeFmt string
}

// Print dumps n as a tree, one Node per line, at increasing indent for each
// level of Walk recursion.
func (p *Printer) Print(n Node) error {
	if p.WithPos && p.Fset == nil {
		return errors.New("Fset must be set to print positions")
	}

	pp := &printer{w: p.Output, fset: p.Fset, withPos: p.WithPos, nodeFmt: p.NodeFmt}
	if pp.nodeFmt == "" {
		pp.nodeFmt = "%v"
	}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w       io.Writer
	fset    *token.FileSet
	withPos bool
	nodeFmt string
	depth   int
	err     error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}

	p.depth++
	p.printNode(n, p.depth-1)
	return p
}

func (p *printer) printNode(n Node, indent int) {
	if p.err != nil {
		return
	}

	format := "%s"
	args := []interface{}{strings.Repeat(". ", indent)}
	if p.withPos {
		format += "[%s:%s] "
		start, end := n.Span()
		args = append(args, p.formatPos(start), p.formatPos(end))
	}
	format += p.nodeFmt + "\n"
	args = append(args, n)

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) formatPos(pos token.Pos) string {
	if !pos.IsValid() {
		return "-"
	}
	position := p.fset.Position(pos)
	return fmt.Sprintf("%s:%d:%d", position.Filename, position.Line, position.Column)
}
