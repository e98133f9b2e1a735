// Package diag defines the diagnostic types shared by every stage of the
// pipeline: the reader, the lexer, the preprocessor, the parser, the
// constant evaluator and the IR lowerer. Every stage reports through the
// same Add callback so that a single run can surface as many diagnostics as
// possible instead of aborting at the first one.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes a diagnostic per the error handling design: lexical,
// preprocessor, syntactic, semantic, constant-evaluation or internal errors
// are all fatal; Warning is the only non-fatal kind.
type Kind uint8

const (
	Warning Kind = iota
	Lexical
	Preprocessor
	Syntactic
	Semantic
	Constant
	Internal
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case Lexical:
		return "lexical error"
	case Preprocessor:
		return "preprocessor error"
	case Syntactic:
		return "syntax error"
	case Semantic:
		return "error"
	case Constant:
		return "constant-folding error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Fatal reports whether this Kind should abort compilation with a non-zero
// exit code once reported.
func (k Kind) Fatal() bool { return k != Warning }

// Position is a resolved (file, line, column) triple, used instead of a raw
// token.Pos so diagnostics remain meaningful after the originating file or
// token is gone.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return "<unknown>"
	}
	if p.Line <= 0 {
		return p.Filename
	}
	if p.Column <= 0 {
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Error is a single positioned diagnostic.
type Error struct {
	Pos  Position
	Kind Kind
	Msg  string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s --> %s", e.Kind, e.Msg, e.Pos)
}

// ErrorList accumulates diagnostics across an entire compilation run. It is
// not safe for concurrent use; the pipeline is single-threaded (spec §5).
type ErrorList []Error

// Add appends a diagnostic to the list.
func (l *ErrorList) Add(pos Position, kind Kind, format string, args ...any) {
	*l = append(*l, Error{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// HasFatal reports whether any diagnostic in the list is fatal.
func (l ErrorList) HasFatal() bool {
	for _, e := range l {
		if e.Kind.Fatal() {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by file, then line, then column, matching
// go/scanner.ErrorList.Sort's stable ordering.
func (l ErrorList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns nil if the list has no fatal diagnostic, the single error if
// there is exactly one, or the full list (which implements Unwrap() []error)
// otherwise.
func (l ErrorList) Err() error {
	if !l.HasFatal() {
		return nil
	}
	if len(l) == 1 {
		return l[0]
	}
	return l
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more diagnostics)", l[0], len(l)-1)
	return sb.String()
}

// Unwrap allows errors.Is/errors.As to traverse every diagnostic in the
// list, matching go/scanner.ErrorList's behaviour.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
