package cpp

import (
	"github.com/dolthub/swiss"

	"cosec/lang/token"
)

// MacroKind distinguishes the three macro flavors of spec §4.3/§3.
type MacroKind uint8

const (
	ObjectLike MacroKind = iota
	FunctionLike
	Builtin
)

// BuiltinFunc rewrites a builtin macro's reference token in place, e.g.
// __FILE__ becomes a string token holding the current file name. It returns
// the replacement token to be pushed back so it reparses as a literal.
type BuiltinFunc func(ref token.Tok) token.Tok

// Macro is one of the three kinds described in spec §3.
type Macro struct {
	Name string
	Kind MacroKind

	// Object-like and function-like:
	Body []token.Tok // body token sequence, with MACRO_PARAM placeholders for params

	// Function-like only:
	NumParams int
	ParamName []string // for stringize/diagnostics
	Variadic  bool

	// Builtin only:
	Expand BuiltinFunc
}

// Table is the preprocessor's macro table: name -> definition. It is backed
// by a swiss.Map for fast single-pass lookups.
type Table struct {
	m *swiss.Map[string, *Macro]
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{m: swiss.NewMap[string, *Macro](64)}
}

// Define installs or replaces a macro definition.
func (t *Table) Define(m *Macro) { t.m.Put(m.Name, m) }

// Undef removes a macro definition, a no-op if it wasn't defined.
func (t *Table) Undef(name string) { t.m.Delete(name) }

// Lookup returns the macro definition for name, or nil if undefined.
func (t *Table) Lookup(name string) (*Macro, bool) { return t.m.Get(name) }

// IsDefined reports whether name names a macro.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.m.Get(name)
	return ok
}
