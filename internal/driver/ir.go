package driver

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"cosec/lang/ir"
)

// Ir runs the full pipeline (preprocessor, parser, SSA lowerer) over every
// file and prints the resulting IR.
func (c *Cmd) Ir(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, path := range args {
		if err := irFile(stdio, c.IncludeDirs, path); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("ir: one or more files failed")
	}
	return nil
}

func irFile(stdio mainer.Stdio, includeDirs []string, path string) error {
	tu, _, err := parseTranslationUnit(includeDirs, path)
	if err != nil {
		printDiags(stdio.Stderr, err)
		return err
	}
	prog := ir.Lower(tu)
	ir.Dump(stdio.Stdout, prog)
	return nil
}
