package driver

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"cosec/internal/diag"
	"cosec/lang/lexer"
	"cosec/lang/token"
)

// Tokenize runs the raw lexer (no macro expansion) over every file and
// prints the token stream, one token per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, path := range args {
		if err := tokenizeFile(stdio, path); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("tokenize: one or more files failed")
	}
	return nil
}

func tokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()
	file := fset.AddFile(path, len(src))

	var errs diag.ErrorList
	lx := lexer.New(file, src, errs.Add)
	for {
		tok := lx.Lex()
		pos := fset.Position(tok.Pos)
		fmt.Fprintf(stdio.Stdout, "%s: %s", pos, tok.Kind)
		if tok.Lit != "" {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Lit)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			break
		}
	}

	errs.Sort()
	if err := errs.Err(); err != nil {
		printDiags(stdio.Stderr, err)
		return err
	}
	return nil
}
