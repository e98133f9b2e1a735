package driver

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"cosec/internal/diag"
	"cosec/lang/cpp"
	"cosec/lang/token"
)

// Preprocess runs the preprocessor over every file and prints the cooked
// token stream (macros expanded, directives consumed), one token per line.
func (c *Cmd) Preprocess(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, path := range args {
		if err := preprocessFile(stdio, c.IncludeDirs, path); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("preprocess: one or more files failed")
	}
	return nil
}

func preprocessFile(stdio mainer.Stdio, includeDirs []string, path string) error {
	src, _, ok := cpp.OSFileOpener{}.Open(path)
	if !ok {
		err := fmt.Errorf("%s: cannot read file", path)
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()
	var errs diag.ErrorList
	pp := cpp.New(fset, cpp.OSFileOpener{}, includeDirs, path, src, errs.Add)

	for {
		tok := pp.Next()
		if tok.Kind == token.EOF {
			break
		}
		pos := fset.Position(tok.Pos)
		fmt.Fprintf(stdio.Stdout, "%s: %s", pos, tok.Kind)
		if tok.Lit != "" {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Lit)
		}
		fmt.Fprintln(stdio.Stdout)
	}

	errs.Sort()
	if err := errs.Err(); err != nil {
		printDiags(stdio.Stderr, err)
		return err
	}
	return nil
}
