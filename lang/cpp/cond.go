package cpp

import (
	"strconv"
	"strings"

	"cosec/internal/diag"
	"cosec/lang/token"
)

// doIf pushes a new conditional frame and, if its branch is not taken, fast
// forwards to the matching #elif/#else/#endif (spec §4.3's skip_cond_incl).
// Because an inactive ancestor frame's own doIf call never returns control
// here until its matching #endif, any doIf reached from the main dispatch
// loop is necessarily evaluated in an already-active context.
func (p *Preprocessor) doIf(cond bool) {
	p.conds = append(p.conds, condFrame{taken: cond, active: cond})
	if !cond {
		p.skipToBoundary()
	}
}

// doElifFromActive handles an #elif reached while its chain's current
// branch was active: that branch is now done, so the rest of the chain must
// be skipped regardless of this #elif's own condition (only one branch of a
// chain ever fires).
func (p *Preprocessor) doElifFromActive() {
	toks := p.collectLineRaw()
	_ = toks // the condition is never evaluated: a branch was already taken
	if n := len(p.conds); n > 0 {
		p.conds[n-1].active = false
		p.skipToBoundary()
	}
}

func (p *Preprocessor) doElseFromActive(pos token.Pos) {
	if n := len(p.conds); n > 0 {
		if p.conds[n-1].sawElse {
			p.errorf(pos, diag.Preprocessor, "#else after #else")
		}
		p.conds[n-1].sawElse = true
		p.conds[n-1].active = false
		p.skipToBoundary()
	}
	p.skipRestOfLine()
}

func (p *Preprocessor) doEndif(pos token.Pos) {
	if len(p.conds) == 0 {
		p.errorf(pos, diag.Preprocessor, "#endif without matching #if")
		p.skipRestOfLine()
		return
	}
	p.conds = p.conds[:len(p.conds)-1]
	p.skipRestOfLine()
}

// skipToBoundary fast-forwards raw tokens (no macro expansion, no nested
// doIf calls) until it reaches the #elif/#else/#endif that belongs to the
// frame on top of p.conds, tracking nested nested #if.../#endif blocks by
// depth so they're skipped as opaque units (spec §4.3).
func (p *Preprocessor) skipToBoundary() {
	depth := 0
	for {
		t := p.rawNext()
		if t.Kind == token.EOF {
			p.errorf(t.Pos, diag.Preprocessor, "unterminated #if: missing #endif")
			if len(p.conds) > 0 {
				p.conds = p.conds[:len(p.conds)-1]
			}
			return
		}
		if t.Kind != token.HASH || !t.NL {
			continue
		}
		nameTok := p.rawNext()
		if nameTok.Kind != token.IDENT {
			continue // null directive inside the skipped region
		}
		switch nameTok.Lit {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth == 0 {
				p.conds = p.conds[:len(p.conds)-1]
				return
			}
			depth--
		case "elif":
			if depth == 0 {
				top := &p.conds[len(p.conds)-1]
				if !top.taken {
					if p.evalConstExpr(p.collectLineRaw()) {
						top.taken = true
						top.active = true
						return
					}
					continue
				}
			}
		case "else":
			if depth == 0 {
				top := &p.conds[len(p.conds)-1]
				if !top.taken {
					top.taken = true
					top.active = true
					top.sawElse = true
					return
				}
				top.sawElse = true
			}
		}
	}
}

// evalConstExpr evaluates a #if/#elif constant expression per spec §4.3:
// "defined X"/"defined(X)" is resolved first without expanding X, every
// remaining identifier is macro-expanded, and any identifier still standing
// afterwards evaluates to 0 (keywords included, since they are still plain
// identifiers at this stage).
func (p *Preprocessor) evalConstExpr(raw []token.Tok) bool {
	withDefined := p.resolveDefined(raw)
	expanded := p.expandFully(withDefined)
	ev := &exprEval{p: p, toks: expanded}
	v := ev.parseExpr()
	if ev.pos < len(ev.toks) && ev.toks[ev.pos].Kind != token.EOF {
		p.errorf(ev.toks[ev.pos].Pos, diag.Preprocessor, "unexpected token %s in #if expression", ev.toks[ev.pos].Kind.GoString())
	}
	return v != 0
}

// resolveDefined rewrites every "defined X" / "defined ( X )" operand to a
// literal 0/1 NUMBER token before general macro expansion runs, since the
// operand of defined must never itself be macro-expanded.
func (p *Preprocessor) resolveDefined(toks []token.Tok) []token.Tok {
	var out []token.Tok
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != token.IDENT || t.Lit != "defined" {
			out = append(out, t)
			continue
		}
		j := i + 1
		paren := j < len(toks) && toks[j].Kind == token.LPAREN
		if paren {
			j++
		}
		if j >= len(toks) || toks[j].Kind != token.IDENT {
			p.errorf(t.Pos, diag.Preprocessor, "operand of 'defined' must be an identifier")
			out = append(out, token.Tok{Kind: token.NUMBER, Pos: t.Pos, Lit: "0"})
			i = j - 1
			continue
		}
		name := toks[j].Lit
		j++
		if paren {
			if j >= len(toks) || toks[j].Kind != token.RPAREN {
				p.errorf(t.Pos, diag.Preprocessor, "missing ')' after 'defined('")
			} else {
				j++
			}
		}
		val := "0"
		if p.macros.IsDefined(name) {
			val = "1"
		}
		out = append(out, token.Tok{Kind: token.NUMBER, Pos: t.Pos, Lit: val})
		i = j - 1
	}
	return out
}

// exprEval is a small precedence-climbing evaluator over the integer subset
// of C's constant-expression grammar needed by #if/#elif (spec §4.3):
// ternary, logical/bitwise/relational/shift/additive/multiplicative binary
// operators, and unary !/~/-/+, with parenthesisation. Every value is
// represented as an int64; unknown identifiers (no longer macros at this
// point) evaluate to 0, matching standard preprocessor behaviour.
type exprEval struct {
	p    *Preprocessor
	toks []token.Tok
	pos  int
}

func (e *exprEval) peek() token.Tok {
	if e.pos < len(e.toks) {
		return e.toks[e.pos]
	}
	return token.Tok{Kind: token.EOF}
}

func (e *exprEval) next() token.Tok {
	t := e.peek()
	if e.pos < len(e.toks) {
		e.pos++
	}
	return t
}

func (e *exprEval) parseExpr() int64 { return e.parseTernary() }

func (e *exprEval) parseTernary() int64 {
	cond := e.parseBinary(0)
	if e.peek().Kind == token.QUESTION {
		e.next()
		then := e.parseExpr()
		if e.peek().Kind == token.COLON {
			e.next()
		} else {
			e.p.errorf(e.peek().Pos, diag.Preprocessor, "expected ':' in #if expression")
		}
		els := e.parseTernary()
		if cond != 0 {
			return then
		}
		return els
	}
	return cond
}

// precedence levels, lowest to highest, matching C's operator table.
var binPrec = map[token.Token]int{
	token.LOR: 1,
	token.LAND: 2,
	token.PIPE: 3,
	token.CARET: 4,
	token.AMP: 5,
	token.EQ: 6, token.NE: 6,
	token.LT: 7, token.GT: 7, token.LE: 7, token.GE: 7,
	token.SHL: 8, token.SHR: 8,
	token.PLUS: 9, token.MINUS: 9,
	token.STAR: 10, token.SLASH: 10, token.PCT: 10,
}

func (e *exprEval) parseBinary(minPrec int) int64 {
	left := e.parseUnary()
	for {
		op := e.peek().Kind
		prec, ok := binPrec[op]
		if !ok || prec < minPrec {
			return left
		}
		e.next()
		right := e.parseBinary(prec + 1)
		left = applyBinop(op, left, right, e)
	}
}

func applyBinop(op token.Token, a, b int64, e *exprEval) int64 {
	switch op {
	case token.LOR:
		return boolToInt(a != 0 || b != 0)
	case token.LAND:
		return boolToInt(a != 0 && b != 0)
	case token.PIPE:
		return a | b
	case token.CARET:
		return a ^ b
	case token.AMP:
		return a & b
	case token.EQ:
		return boolToInt(a == b)
	case token.NE:
		return boolToInt(a != b)
	case token.LT:
		return boolToInt(a < b)
	case token.GT:
		return boolToInt(a > b)
	case token.LE:
		return boolToInt(a <= b)
	case token.GE:
		return boolToInt(a >= b)
	case token.SHL:
		return a << uint(b)
	case token.SHR:
		return a >> uint(b)
	case token.PLUS:
		return a + b
	case token.MINUS:
		return a - b
	case token.STAR:
		return a * b
	case token.SLASH:
		if b == 0 {
			e.p.errorf(e.peek().Pos, diag.Preprocessor, "division by zero in #if expression")
			return 0
		}
		return a / b
	case token.PCT:
		if b == 0 {
			e.p.errorf(e.peek().Pos, diag.Preprocessor, "division by zero in #if expression")
			return 0
		}
		return a % b
	}
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (e *exprEval) parseUnary() int64 {
	switch e.peek().Kind {
	case token.NOT:
		e.next()
		return boolToInt(e.parseUnary() == 0)
	case token.TILDE:
		e.next()
		return ^e.parseUnary()
	case token.MINUS:
		e.next()
		return -e.parseUnary()
	case token.PLUS:
		e.next()
		return e.parseUnary()
	}
	return e.parsePrimary()
}

func (e *exprEval) parsePrimary() int64 {
	t := e.peek()
	switch t.Kind {
	case token.LPAREN:
		e.next()
		v := e.parseExpr()
		if e.peek().Kind == token.RPAREN {
			e.next()
		} else {
			e.p.errorf(t.Pos, diag.Preprocessor, "expected ')' in #if expression")
		}
		return v
	case token.NUMBER:
		e.next()
		return parsePPNumber(t.Lit)
	case token.CHAR:
		e.next()
		if len(t.Str) > 0 {
			return int64([]rune(t.Str)[0])
		}
		return 0
	case token.IDENT:
		// Any identifier surviving macro expansion (including C keywords
		// like sizeof, which this evaluator doesn't support) is 0 (spec
		// §4.3: "undefined identifiers evaluate to 0 in constant
		// expressions").
		e.next()
		return 0
	}
	if t.Kind != token.EOF {
		e.p.errorf(t.Pos, diag.Preprocessor, "unexpected token %s in #if expression", t.Kind.GoString())
		e.next()
	}
	return 0
}

// parsePPNumber strips any trailing integer-suffix letters (u/U/l/L) and
// parses the remainder, honoring 0x/0 radix prefixes. Float literals have no
// meaning in a #if expression and parse as 0 (rejected earlier would require
// the full constant evaluator; this subset is sufficient for genuine
// preprocessor conditionals).
func parsePPNumber(lit string) int64 {
	s := strings.TrimRight(lit, "uUlL")
	if s == "" {
		return 0
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case len(s) > 1 && s[0] == '0':
		base = 8
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		if u, uerr := strconv.ParseUint(s, base, 64); uerr == nil {
			return int64(u)
		}
		return 0
	}
	return n
}
