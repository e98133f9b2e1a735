// Package driver wires the pipeline stages (reader, lexer, preprocessor,
// parser, IR lowerer) into the command-line tool's subcommands.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"cosec/internal/diag"
)

const binName = "cosec"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Front end for the C programming language: reads, preprocesses, parses and
lowers translation units to an SSA intermediate representation.

The <command> can be one of:
       tokenize                  Run the lexer and print the raw token
                                 stream (no macro expansion).
       preprocess                Run the preprocessor and print the cooked
                                 token stream (macros expanded, directives
                                 consumed).
       parse                     Run the parser and print the resulting
                                 abstract syntax tree.
       ir                        Lower every translation unit to SSA IR and
                                 print it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --with-pos                Annotate AST dump lines with source spans.
`, binName)
)

// Cmd is the top-level command, its flags parsed by mainer.Parser; buildCmds
// below dispatches to one of the Tokenize/Preprocess/Parse/Ir methods by
// reflection, keyed by lower-cased method name.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	// IncludeDirs is not exposed as a CLI flag (mainer's struct-tag flags
	// are only demonstrated here for scalar bool/string fields, not
	// repeatable slices) but is populated from COSEC_INCLUDE, a
	// colon-separated search path for angle-bracketed #include directives
	// (spec §4.3); quoted-form includes look in the including file's
	// directory first and then fall back to this search path.
	IncludeDirs []string `env:"COSEC_INCLUDE" envSeparator:":"`

	WithPos bool `flag:"with-pos"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: at least one file must be provided", cmdName)
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	if err := env.Parse(c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return mainer.InvalidArgs
	}

	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds reflects over v's exported methods, picking those shaped like a
// subcommand entry point (context.Context, mainer.Stdio, []string) error,
// keyed by the lower-cased method name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

// printDiags writes every diagnostic in err (a diag.ErrorList, a single
// diag.Error, or any other error) to w, one per line.
func printDiags(w io.Writer, err error) {
	var list diag.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintln(w, e.Error())
		}
		return
	}
	fmt.Fprintln(w, err.Error())
}
