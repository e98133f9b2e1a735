// Package lexer implements the token-level lexer described in spec §4.2: it
// turns the reader package's logical character stream into raw tokens
// (identifiers, numbers, character/string literals, punctuators), with
// token-level push-back for the preprocessor and parser to use.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"cosec/internal/diag"
	"cosec/internal/reader"
	"cosec/lang/token"
)

// Lexer tokenizes a single source file. It owns a reader.Reader for
// character-level access and a small push-back stack of already-produced
// tokens (spec §4.2: undo_tk/undo_tks).
type Lexer struct {
	file *token.File
	r    *reader.Reader
	add  func(diag.Position, diag.Kind, string, ...any)

	pending []token.Tok // push-back stack (LIFO)
	atLineStart bool
}

// New creates a Lexer over src, reporting positions against file and
// diagnostics through add.
func New(file *token.File, src []byte, add func(diag.Position, diag.Kind, string, ...any)) *Lexer {
	return &Lexer{
		file:        file,
		r:           reader.New(file, src),
		add:         add,
		atLineStart: true,
	}
}

// FromTokens creates a Lexer that replays a fixed token sequence instead of
// scanning characters, terminated by an EOF token if one isn't already the
// last element. This is the "create lexer from token sequence" operation
// spec §9 calls for; nothing in this module calls it (the preprocessor
// expands macro arguments through its own token-source frames instead).
func FromTokens(toks []token.Tok) *Lexer {
	l := &Lexer{}
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(append([]token.Tok(nil), toks...), token.Tok{Kind: token.EOF})
	}
	// push in reverse so the first token pops off first
	for i := len(toks) - 1; i >= 0; i-- {
		l.pending = append(l.pending, toks[i])
	}
	return l
}

func (l *Lexer) errorf(pos token.Pos, format string, args ...any) {
	if l.add == nil {
		return
	}
	var p diag.Position
	if l.file != nil {
		p = l.file.Position(pos)
	}
	l.add(p, diag.Lexical, format, args...)
}

// UndoTok pushes a token back; the next call to Lex returns it again.
func (l *Lexer) UndoTok(t token.Tok) {
	l.pending = append(l.pending, t)
}

// UndoToks pushes a slice of tokens back such that Lex reproduces them in
// the same order, i.e. the first element of toks is the next one returned.
func (l *Lexer) UndoToks(toks []token.Tok) {
	for i := len(toks) - 1; i >= 0; i-- {
		l.UndoTok(toks[i])
	}
}

// Lex returns the next raw token: an identifier, keyword-as-identifier,
// number, character or string literal, punctuator, NEWLINE or EOF. Runs of
// space and comments are skipped but recorded via the returned token's Space
// flag.
func (l *Lexer) Lex() token.Tok {
	if n := len(l.pending); n > 0 {
		t := l.pending[n-1]
		l.pending = l.pending[:n-1]
		return t
	}
	return l.scan()
}

func (l *Lexer) scan() token.Tok {
	sawSpace := false
	nl := l.atLineStart
	for {
		c := l.r.Peek()
		switch {
		case c == '\n':
			l.r.Next()
			pos := l.file.Pos(l.r.Offset() - 1)
			l.atLineStart = true
			if l.r.Peek() == reader.EOF {
				// the newline that ends the file yields no NEWLINE token;
				// EOF terminates the last line
				nl = true
				continue
			}
			return token.Tok{Kind: token.NEWLINE, Pos: pos, Lit: "\n", Space: sawSpace, NL: nl}
		case c == ' ' || c == '\t' || c == '\v' || c == '\f':
			l.r.Next()
			sawSpace = true
			continue
		case c == '/' :
			if l.skipComment() {
				sawSpace = true
				continue
			}
		}
		break
	}
	l.atLineStart = false

	start := l.r.Offset()
	pos := l.file.Pos(start)
	c := l.r.Peek()

	switch {
	case c == reader.EOF:
		return token.Tok{Kind: token.EOF, Pos: pos, Space: sawSpace, NL: nl}

	case isIdentStart(c):
		lit := l.scanIdent()
		if enc, ok := encPrefixes[lit]; ok {
			if q := l.r.Peek(); q == '\'' || q == '"' {
				return l.scanCharOrString(pos, sawSpace, nl, enc)
			}
		}
		return token.Tok{Kind: token.IDENT, Pos: pos, Lit: lit, Space: sawSpace, NL: nl}

	case isDigit(c) || (c == '.' && isDigit(l.peek2())):
		lit := l.scanNumber()
		return token.Tok{Kind: token.NUMBER, Pos: pos, Lit: lit, Space: sawSpace, NL: nl}

	case c == '\'' || c == '"':
		return l.scanCharOrString(pos, sawSpace, nl, token.EncNone)
	}

	return l.scanPunctOrIllegal(pos, sawSpace, nl)
}

var encPrefixes = map[string]token.Encoding{
	"L":  token.EncWChar,
	"u":  token.EncUTF16,
	"U":  token.EncUTF32,
	"u8": token.EncUTF8,
}

func (l *Lexer) peek2() rune {
	c1 := l.r.Next()
	c2 := l.r.Peek()
	l.r.Undo(c1)
	return c2
}

func (l *Lexer) skipComment() bool {
	c1 := l.r.Next() // consume '/'
	c2 := l.r.Peek()
	switch c2 {
	case '/':
		l.r.Next()
		for {
			c := l.r.Next()
			if c == '\n' || c == reader.EOF {
				if c == '\n' {
					l.r.Undo(c)
				}
				return true
			}
		}
	case '*':
		l.r.Next()
		startPos := l.file.Pos(l.r.Offset() - 2)
		for {
			c := l.r.Next()
			if c == reader.EOF {
				l.errorf(startPos, "unterminated comment")
				return true
			}
			if c == '*' && l.r.Peek() == '/' {
				l.r.Next()
				return true
			}
		}
	default:
		l.r.Undo(c1)
		return false
	}
}

func (l *Lexer) scanIdent() string {
	var sb []byte
	for {
		c := l.r.Peek()
		if !isIdentPart(c) {
			break
		}
		l.r.Next()
		sb = utf8.AppendRune(sb, c)
	}
	return string(sb)
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

// LexRestOfLine returns the raw, un-tokenized text of the remainder of the
// current logical line, for #error/#warning directives (spec §4.2).
func (l *Lexer) LexRestOfLine() string {
	var sb []byte
	for {
		c := l.r.Peek()
		if c == '\n' || c == reader.EOF {
			break
		}
		l.r.Next()
		sb = utf8.AppendRune(sb, c)
	}
	return string(sb)
}

// LexIncludePath peels a "..." or <...> path off the current line for an
// #include/#import directive, returning the path text and whether it should
// be searched relative to the current file's directory first (true for
// quoted paths). ok is false if neither delimiter form is found.
func (l *Lexer) LexIncludePath() (path string, quoted, ok bool) {
	for l.r.Peek() == ' ' || l.r.Peek() == '\t' {
		l.r.Next()
	}
	open := l.r.Peek()
	var closeRune rune
	switch open {
	case '"':
		closeRune, quoted = '"', true
	case '<':
		closeRune, quoted = '>', false
	default:
		return "", false, false
	}
	l.r.Next()
	var sb []byte
	for {
		c := l.r.Next()
		if c == closeRune {
			return string(sb), quoted, true
		}
		if c == '\n' || c == reader.EOF {
			l.errorf(l.file.Pos(l.r.Offset()), "unterminated include path")
			return string(sb), quoted, false
		}
		sb = utf8.AppendRune(sb, c)
	}
}

// GlueToks implements the "##" token-pasting operator: it concatenates the
// textual forms of a and b and re-lexes the result. It fails (ok=false) if
// the pasted text does not lex as exactly one token, per spec §4.2.
func GlueToks(a, b token.Tok, file *token.File) (token.Tok, bool) {
	text := tokenText(a) + tokenText(b)
	var errs diag.ErrorList
	lx := New(file, []byte(text), func(p diag.Position, k diag.Kind, f string, args ...any) {
		errs.Add(p, k, f, args...)
	})
	first := lx.Lex()
	if first.Kind == token.EOF || len(errs) > 0 {
		return token.Tok{}, false
	}
	second := lx.Lex()
	if second.Kind != token.EOF {
		return token.Tok{}, false
	}
	first.Pos = a.Pos
	return first, true
}

// tokenText reconstructs the literal source text of a token, for use by
// GlueToks and macro stringification (the "#" operator).
func tokenText(t token.Tok) string {
	switch t.Kind {
	case token.IDENT, token.NUMBER:
		return t.Lit
	case token.CHAR, token.STRING:
		return t.Lit
	default:
		if t.Lit != "" {
			return t.Lit
		}
		return t.Kind.String()
	}
}

// TokenText exports tokenText for the preprocessor's "#" stringize operator
// and diagnostics.
func TokenText(t token.Tok) string { return tokenText(t) }

func (l *Lexer) scanPunctOrIllegal(pos token.Pos, sawSpace, nl bool) token.Tok {
	c := l.r.Next()
	// longest-match over the operator table, 3 chars max ("<<=", ">>=", "...")
	three := string(c) + l.peekString(2)
	if tok := token.LookupPunct(three); tok != token.ILLEGAL {
		l.r.Next()
		l.r.Next()
		return token.Tok{Kind: tok, Pos: pos, Lit: three, Space: sawSpace, NL: nl}
	}
	two := string(c) + l.peekString(1)
	if tok := token.LookupPunct(two); tok != token.ILLEGAL {
		l.r.Next()
		return token.Tok{Kind: tok, Pos: pos, Lit: two, Space: sawSpace, NL: nl}
	}
	one := string(c)
	if tok := token.LookupPunct(one); tok != token.ILLEGAL {
		return token.Tok{Kind: tok, Pos: pos, Lit: one, Space: sawSpace, NL: nl}
	}
	if c == reader.EOF {
		return token.Tok{Kind: token.EOF, Pos: pos, Space: sawSpace, NL: nl}
	}
	l.errorf(pos, "illegal character %#U", c)
	return token.Tok{Kind: token.ILLEGAL, Pos: pos, Lit: string(c), Space: sawSpace, NL: nl}
}

// peekString peeks n characters ahead without consuming, returning as many
// as are available (fewer at EOF).
func (l *Lexer) peekString(n int) string {
	var popped []rune
	var sb []byte
	for i := 0; i < n; i++ {
		c := l.r.Next()
		if c == reader.EOF {
			break
		}
		popped = append(popped, c)
		sb = utf8.AppendRune(sb, c)
	}
	for i := len(popped) - 1; i >= 0; i-- {
		l.r.Undo(popped[i])
	}
	return string(sb)
}
