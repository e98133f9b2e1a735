package lexer

import "cosec/internal/reader"

// scanNumber consumes a numeric literal's raw text without interpreting it:
// digits, dots, and eE/pP-separated exponents with an optional sign (spec
// §4.2). Interpretation (base, int vs float, suffix validation) is the
// constant evaluator's job (spec §4.6), which works from the raw text
// recorded in the NUMBER token.
func (l *Lexer) scanNumber() string {
	var sb []byte
	pushByte := func(c rune) { sb = append(sb, byte(c)) }

	// optional "0x"/"0X" prefix enables hex float exponents ('p'/'P').
	hasHexPrefix := false
	if l.r.Peek() == '0' {
		pushByte(l.r.Next())
		if c := l.r.Peek(); c == 'x' || c == 'X' {
			pushByte(l.r.Next())
			hasHexPrefix = true
		}
	}

	expChars := "eE"
	if hasHexPrefix {
		expChars = "pP"
	}

	for {
		c := l.r.Peek()
		if c == reader.EOF {
			return string(sb)
		}
		switch {
		case containsRune(expChars, c):
			// checked before the digit case, since decimal 'e'/'E' are also hex digits
			pushByte(l.r.Next())
			if s := l.r.Peek(); s == '+' || s == '-' {
				pushByte(l.r.Next())
			}
		case isDigit(c) || isHexDigit(c) || c == '.':
			pushByte(l.r.Next())
		case isIdentPart(c):
			// suffix letters: u, U, l, L, f, F (and further digits, e.g. in a
			// malformed literal the constant evaluator will reject later)
			pushByte(l.r.Next())
		default:
			return string(sb)
		}
	}
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func containsRune(s string, c rune) bool {
	for _, r := range s {
		if r == c {
			return true
		}
	}
	return false
}
