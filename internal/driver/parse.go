package driver

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"cosec/internal/diag"
	"cosec/lang/ast"
	"cosec/lang/cpp"
	"cosec/lang/parser"
	"cosec/lang/token"
)

// Parse runs the parser (preprocessor + recursive-descent parser/type
// checker) over every file and prints the resulting AST.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, path := range args {
		if err := parseFile(stdio, c.IncludeDirs, c.WithPos, path); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("parse: one or more files failed")
	}
	return nil
}

func parseFile(stdio mainer.Stdio, includeDirs []string, withPos bool, path string) error {
	tu, fset, err := parseTranslationUnit(includeDirs, path)
	if tu != nil {
		printer := ast.Printer{Output: stdio.Stdout, Fset: fset, WithPos: withPos}
		if perr := printer.Print(tu); perr != nil {
			fmt.Fprintln(stdio.Stderr, perr)
			return perr
		}
	}
	if err != nil {
		printDiags(stdio.Stderr, err)
	}
	return err
}

// parseTranslationUnit reads, preprocesses and parses path, returning
// whatever partial AST the parser produced even on error so callers can
// still print it (matching the parser's all-diagnostics-not-first-error
// design, internal/diag's package doc).
func parseTranslationUnit(includeDirs []string, path string) (*ast.TranslationUnit, *token.FileSet, error) {
	src, _, ok := cpp.OSFileOpener{}.Open(path)
	if !ok {
		return nil, nil, fmt.Errorf("%s: cannot read file", path)
	}

	fset := token.NewFileSet()
	var errs diag.ErrorList
	pp := cpp.New(fset, cpp.OSFileOpener{}, includeDirs, path, src, errs.Add)

	tu, perr := parser.ParseFile(fset, pp, path)
	if pl, ok := perr.(diag.ErrorList); ok {
		errs = append(errs, pl...)
	} else if pe, ok := perr.(diag.Error); ok {
		errs = append(errs, pe)
	}
	errs.Sort()
	return tu, fset, errs.Err()
}
