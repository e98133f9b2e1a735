package cpp

import (
	"testing"

	"cosec/internal/diag"
	"cosec/lang/token"
	"github.com/stretchr/testify/require"
)

type fakeOpener struct {
	files map[string]string
}

func (f fakeOpener) Open(path string) ([]byte, string, bool) {
	s, ok := f.files[path]
	if !ok {
		return nil, "", false
	}
	return []byte(s), path, true
}

func run(t *testing.T, src string) ([]token.Tok, diag.ErrorList) {
	t.Helper()
	return runWithIncludes(t, src, nil)
}

func runWithIncludes(t *testing.T, src string, files map[string]string) ([]token.Tok, diag.ErrorList) {
	t.Helper()
	fset := token.NewFileSet()
	var errs diag.ErrorList
	p := New(fset, fakeOpener{files: files}, nil, "t.c", []byte(src), func(pos diag.Position, k diag.Kind, format string, args ...any) {
		errs.Add(pos, k, format, args...)
	})
	var out []token.Tok
	for {
		tk := p.Next()
		out = append(out, tk)
		if tk.Kind == token.EOF {
			break
		}
	}
	return out, errs
}

func lits(toks []token.Tok) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.EOF {
			continue
		}
		out = append(out, t.Lit)
	}
	return out
}

func TestObjectLikeMacroNoSelfRecursion(t *testing.T) {
	toks, errs := run(t, "#define X X\nX\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"X"}, lits(toks))
}

func TestFunctionLikeMacroNested(t *testing.T) {
	toks, errs := run(t, "#define F(x) x\nF(F(F(3)))\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"3"}, lits(toks))
}

func TestIfZeroElided(t *testing.T) {
	toks, errs := run(t, "a\n#if 0\nb\n#endif\nc\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"a", "c"}, lits(toks))
}

func TestIfElifElse(t *testing.T) {
	toks, errs := run(t, "#if 0\na\n#elif 1\nb\n#else\nc\n#endif\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"b"}, lits(toks))
}

func TestIfDefUndef(t *testing.T) {
	toks, errs := run(t, "#define X\n#ifdef X\nyes\n#endif\n#undef X\n#ifndef X\nno\n#endif\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"yes", "no"}, lits(toks))
}

func TestDefinedOperatorNotExpanded(t *testing.T) {
	toks, errs := run(t, "#define X 1\n#if defined(X) && defined Y == 0\nok\n#endif\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"ok"}, lits(toks))
}

func TestStringizeOperator(t *testing.T) {
	toks, errs := run(t, "#define STR(x) #x\nSTR(hello world)\n")
	require.Empty(t, errs)
	require.Len(t, toks, 2) // STRING + EOF
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello world", toks[0].Str)
}

func TestPasteOperator(t *testing.T) {
	toks, errs := run(t, "#define CAT(a, b) a ## b\nCAT(foo, bar)\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"foobar"}, lits(toks))
}

func TestVariadicMacroOmitsTrailingComma(t *testing.T) {
	toks, errs := run(t, "#define LOG(fmt, ...) fmt, ## __VA_ARGS__\nLOG(\"hi\")\n")
	require.Empty(t, errs)
	require.Equal(t, []string{`"hi"`}, lits(toks))
}

func TestVariadicMacroWithArgs(t *testing.T) {
	toks, errs := run(t, "#define LOG(fmt, ...) fmt, __VA_ARGS__\nLOG(\"hi\", 1, 2)\n")
	require.Empty(t, errs)
	require.Equal(t, []string{`"hi"`, ",", "1", ",", "2"}, lits(toks))
}

func TestIncludeOnceNoDoubleExpansion(t *testing.T) {
	files := map[string]string{
		"a.h": "#pragma once\nint a;\n",
	}
	toks, errs := runWithIncludes(t, "#include \"a.h\"\n#include \"a.h\"\n", files)
	require.Empty(t, errs)
	require.Equal(t, []string{"int", "a", ";"}, lits(toks))
}

func TestBuiltinLine(t *testing.T) {
	toks, errs := run(t, "__LINE__\n\n__LINE__\n")
	require.Empty(t, errs)
	require.Equal(t, []string{"1", "3"}, lits(toks))
}

func TestUnterminatedIfReportsError(t *testing.T) {
	_, errs := run(t, "#if 1\na\n")
	require.NotEmpty(t, errs)
}

func TestMacroRedefinitionIncompatibleReportsError(t *testing.T) {
	_, errs := run(t, "#define X 1\n#define X 2\n")
	require.NotEmpty(t, errs)
}
