package lexer

import (
	"unicode/utf8"

	"cosec/internal/reader"
	"cosec/lang/token"
)

// scanCharOrString consumes a character or string literal (the opening
// quote is still unread), decoding escape sequences per spec §4.2: the
// simple C escapes, \xHH hex escapes, \0..\7 octal escapes (up to three
// digits) and \uXXXX/\UXXXXXXXX universal character names. The decoded
// payload is always stored as UTF-8 bytes in Tok.Str (spec's
// buf_push_utf8), regardless of the literal's declared Encoding, which only
// tags how a later stage (the parser/constant evaluator) must re-encode it.
func (l *Lexer) scanCharOrString(pos token.Pos, sawSpace, nl bool, enc token.Encoding) token.Tok {
	quote := l.r.Next() // '\'' or '"'
	kind := token.CHAR
	if quote == '"' {
		kind = token.STRING
	}

	var raw []byte
	var decoded []byte
	raw = append(raw, byte(quote))

	for {
		c := l.r.Next()
		if c == reader.EOF || c == '\n' {
			l.errorf(pos, "unterminated %s literal", kind)
			break
		}
		if c == quote {
			raw = append(raw, byte(quote))
			break
		}
		if c != '\\' {
			raw = utf8.AppendRune(raw, c)
			decoded = utf8.AppendRune(decoded, c)
			continue
		}
		raw = append(raw, '\\')
		esc, ok := l.scanEscape(pos)
		raw = append(raw, []byte(esc.rawSuffix)...)
		if ok {
			decoded = utf8.AppendRune(decoded, esc.value)
		}
	}

	lit := string(raw)
	return token.Tok{
		Kind: kind, Pos: pos, Lit: lit, Str: string(decoded),
		Encoding: enc, Space: sawSpace, NL: nl,
	}
}

type escapeResult struct {
	value     rune
	rawSuffix string
}

// scanEscape decodes the escape sequence immediately following a consumed
// backslash. A malformed sequence is reported as an error and scanning
// continues: an unknown escape yields the escaped character itself, a bad
// universal character name yields U+FFFD, and a \x with no hex digits
// yields ok=false.
func (l *Lexer) scanEscape(litStart token.Pos) (escapeResult, bool) {
	c := l.r.Next()
	switch c {
	case 'a':
		return escapeResult{7, "a"}, true
	case 'b':
		return escapeResult{8, "b"}, true
	case 'f':
		return escapeResult{12, "f"}, true
	case 'n':
		return escapeResult{10, "n"}, true
	case 'r':
		return escapeResult{13, "r"}, true
	case 't':
		return escapeResult{9, "t"}, true
	case 'v':
		return escapeResult{11, "v"}, true
	case '\\':
		return escapeResult{'\\', "\\"}, true
	case '\'':
		return escapeResult{'\'', "'"}, true
	case '"':
		return escapeResult{'"', "\""}, true
	case '?':
		return escapeResult{'?', "?"}, true

	case 'x':
		var v rune
		var raw []byte
		raw = append(raw, 'x')
		n := 0
		for isHexDigit(l.r.Peek()) {
			d := l.r.Next()
			raw = append(raw, byte(d))
			v = v*16 + hexVal(d)
			n++
		}
		if n == 0 {
			l.errorf(litStart, `\x escape with no following hex digits`)
		}
		return escapeResult{v, string(raw)}, n > 0

	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := c - '0'
		raw := []byte{byte(c)}
		for i := 0; i < 2 && isOctalDigit(l.r.Peek()); i++ {
			d := l.r.Next()
			raw = append(raw, byte(d))
			v = v*8 + (d - '0')
		}
		return escapeResult{v, string(raw)}, true

	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		var v rune
		raw := []byte{byte(c)}
		for i := 0; i < n; i++ {
			d := l.r.Peek()
			if !isHexDigit(d) {
				l.errorf(litStart, "universal character name requires %d hex digits", n)
				return escapeResult{0xFFFD, string(raw)}, true
			}
			l.r.Next()
			raw = append(raw, byte(d))
			v = v*16 + hexVal(d)
		}
		if (v >= 0xD800 && v <= 0xDFFF) || (v <= 0x9F && v != '$' && v != '@' && v != '`') {
			l.errorf(litStart, "universal character name \\%c%s denotes a disallowed code point", c, raw[1:])
			return escapeResult{0xFFFD, string(raw)}, true
		}
		return escapeResult{v, string(raw)}, true

	default:
		l.errorf(litStart, "unknown escape sequence '\\%c'", c)
		return escapeResult{c, string(c)}, true
	}
}

func isOctalDigit(c rune) bool { return c >= '0' && c <= '7' }

func hexVal(c rune) rune {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
