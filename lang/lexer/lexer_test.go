package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"

	"cosec/internal/diag"
	"cosec/lang/token"
)

func lexAll(t *testing.T, src string) ([]token.Tok, diag.ErrorList) {
	t.Helper()
	f := token.NewFile("t.c", 1, len(src))
	var errs diag.ErrorList
	l := New(f, []byte(src), func(p diag.Position, k diag.Kind, format string, args ...any) {
		errs.Add(p, k, format, args...)
	})
	var toks []token.Tok
	for {
		tk := l.Lex()
		toks = append(toks, tk)
		if tk.Kind == token.EOF {
			break
		}
	}
	return toks, errs
}

func kinds(toks []token.Tok) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexIdentOnly(t *testing.T) {
	toks, errs := lexAll(t, "foo")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.IDENT, token.EOF}, kinds(toks))
	require.Equal(t, "foo", toks[0].Lit)
}

func TestLexPunctuatorsLongestMatch(t *testing.T) {
	toks, errs := lexAll(t, "<<= >>= ... -> ## ++ --")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.SHL_ASSIGN, token.SHR_ASSIGN, token.ELLIPSIS, token.ARROW,
		token.HASHHASH, token.INC, token.DEC, token.EOF,
	}, kinds(toks))
}

func TestLexNumberRaw(t *testing.T) {
	toks, errs := lexAll(t, "0x2Ap-3f 123u 3.14")
	require.Empty(t, errs)
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "0x2Ap-3f", toks[0].Lit)
	require.Equal(t, "123u", toks[1].Lit)
	require.Equal(t, "3.14", toks[2].Lit)
}

func TestLexCharHexEscape(t *testing.T) {
	toks, errs := lexAll(t, `'\x41'`)
	require.Empty(t, errs)
	require.Equal(t, token.CHAR, toks[0].Kind)
	require.Equal(t, "A", toks[0].Str)
}

func TestLexCharOctalEscape(t *testing.T) {
	toks, errs := lexAll(t, `'\041'`)
	require.Empty(t, errs)
	require.Equal(t, "!", toks[0].Str) // octal 041 == 33 == '!'
}

func TestLexStringWithEncodingPrefix(t *testing.T) {
	toks, errs := lexAll(t, `u8"hi" L"wide" u"u16" U"u32"`)
	require.Empty(t, errs)
	require.Equal(t, token.EncUTF8, toks[0].Encoding)
	require.Equal(t, token.EncWChar, toks[1].Encoding)
	require.Equal(t, token.EncUTF16, toks[2].Encoding)
	require.Equal(t, token.EncUTF32, toks[3].Encoding)
}

func TestLexCommentsSkippedAsSpace(t *testing.T) {
	toks, errs := lexAll(t, "a /* c */ b // line\nc")
	require.Empty(t, errs)
	idents := kinds(toks)
	require.Equal(t, []token.Token{token.IDENT, token.IDENT, token.NEWLINE, token.IDENT, token.EOF}, idents)
	require.True(t, toks[1].Space)
}

func TestUndoTokRoundTrips(t *testing.T) {
	f := token.NewFile("t.c", 1, 1)
	l := New(f, []byte("x"), nil)
	first := l.Lex()
	l.UndoTok(first)
	again := l.Lex()
	require.Equal(t, first, again)
}

func TestGlueToks(t *testing.T) {
	f := token.NewFile("t.c", 1, 0)
	a := token.Tok{Kind: token.IDENT, Lit: "foo"}
	b := token.Tok{Kind: token.IDENT, Lit: "bar"}
	got, ok := GlueToks(a, b, f)
	require.True(t, ok)
	require.Equal(t, "foobar", got.Lit)

	c := token.Tok{Kind: token.IDENT, Lit: "foo"}
	d := token.Tok{Kind: token.LPAREN, Lit: "("}
	_, ok2 := GlueToks(c, d, f)
	require.False(t, ok2, "foo( is two tokens, paste must fail")
}

func TestLexIncludePath(t *testing.T) {
	f := token.NewFile("t.c", 1, 20)
	l := New(f, []byte(`"foo/bar.h"`), nil)
	path, quoted, ok := l.LexIncludePath()
	require.True(t, ok)
	require.True(t, quoted)
	require.Equal(t, "foo/bar.h", path)

	f2 := token.NewFile("t2.c", 1, 20)
	l2 := New(f2, []byte(`<stdio.h>`), nil)
	path2, quoted2, ok2 := l2.LexIncludePath()
	require.True(t, ok2)
	require.False(t, quoted2)
	require.Equal(t, "stdio.h", path2)
}

func TestUnterminatedStringReportsError(t *testing.T) {
	_, errs := lexAll(t, `"no closing quote`)
	require.NotEmpty(t, errs)
}

func TestIllegalCharacterReportsError(t *testing.T) {
	_, errs := lexAll(t, "int a = $;")
	require.NotEmpty(t, errs)
}

// dumpToks renders one token per line: its kind, plus the literal text for
// kinds whose spelling isn't implied by the kind name (identifiers, literals).
func dumpToks(toks []token.Tok) string {
	var sb strings.Builder
	for _, tk := range toks {
		fmt.Fprintf(&sb, "%s", tk.Kind)
		if !tk.Kind.IsPunct() && !tk.Kind.IsKeyword() && tk.Kind != token.EOF && tk.Lit != "" {
			fmt.Fprintf(&sb, " %q", tk.Lit)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestLexTokenStreamDumpMatchesExpected(t *testing.T) {
	toks, errs := lexAll(t, "a + 1;")
	require.Empty(t, errs)

	got := dumpToks(toks)
	want := `identifier "a"
+
number literal "1"
;
end of file
`
	if patch := diff.Diff(want, got); patch != "" {
		t.Errorf("token stream dump did not match:\n%s", patch)
	}
}
