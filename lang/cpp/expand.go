package cpp

import (
	"cosec/internal/diag"
	"cosec/lang/lexer"
	"cosec/lang/token"
)

// tryExpand attempts one step of macro expansion on an IDENT token read from
// whichever source p.pull currently draws from (the live frame stack during
// normal Next() processing, or a local slice cursor while evaluating a
// #if/#elif constant expression — see withTokenSource). It implements
// Prosser's algorithm (spec §4.3): a macro name already present in the
// token's own hide-set is never re-expanded, which is what prevents
// "#define X X" from looping.
func (p *Preprocessor) tryExpand(t token.Tok) ([]token.Tok, bool) {
	m, ok := p.macros.Lookup(t.Lit)
	if !ok || t.HideSet.Has(t.Lit) {
		return nil, false
	}

	switch m.Kind {
	case ObjectLike:
		hs := t.HideSet.Add(m.Name)
		out := p.substitute(m, nil, hs, t.Pos)
		return out, true

	case Builtin:
		return []token.Tok{m.Expand(t)}, true

	case FunctionLike:
		if !p.nextIsLParen() {
			return nil, false // not a call: bare reference to the name, passes through unexpanded
		}
		p.pull() // consume the '('
		args, closeHS, ok := p.parseMacroArgs(m, t.Pos)
		if !ok {
			return nil, false
		}
		hs := t.HideSet.Intersect(closeHS).Add(m.Name)
		out := p.substitute(m, args, hs, t.Pos)
		return out, true
	}
	return nil, false
}

// nextIsLParen reports whether the next raw token is '(', the test for
// whether a function-like macro name is actually being invoked. Unlike the
// adjacency rule at the #define site, whitespace before the '(' here is
// irrelevant: "FOO (1, 2)" still invokes FOO.
func (p *Preprocessor) nextIsLParen() bool {
	t := p.pull()
	isLParen := t.Kind == token.LPAREN
	p.unpull(t)
	return isLParen
}

// parseMacroArgs reads the comma-separated argument list of a function-like
// macro invocation, starting just after the opening '(' has been consumed.
// Parenthesis nesting is tracked so commas inside a nested call don't split
// an argument (spec §4.3). It returns the hide-set carried by the closing
// ')', needed by Prosser's algorithm to compute the expansion's hide-set.
func (p *Preprocessor) parseMacroArgs(m *Macro, callPos token.Pos) ([][]token.Tok, token.HideSet, bool) {
	var args [][]token.Tok
	var cur []token.Tok
	depth := 0

	for {
		t := p.pull()
		if t.Kind == token.EOF {
			p.errorf(callPos, diag.Preprocessor, "unterminated argument list invoking macro '%s'", m.Name)
			return nil, token.HideSet{}, false
		}
		if t.Kind == token.NEWLINE {
			continue
		}
		if depth == 0 && t.Kind == token.RPAREN {
			args = append(args, cur)
			return normalizeArgs(m, args, callPos, p), t.HideSet, true
		}
		if depth == 0 && t.Kind == token.COMMA {
			args = append(args, cur)
			cur = nil
			continue
		}
		switch t.Kind {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		cur = append(cur, t)
	}
}

// normalizeArgs applies the two arity special cases from spec §4.3: a
// function-like macro declared with a single parameter and invoked with no
// tokens at all still receives one (empty) argument rather than zero, and a
// trailing variadic argument is allowed to be entirely absent.
func normalizeArgs(m *Macro, args [][]token.Tok, callPos token.Pos, p *Preprocessor) [][]token.Tok {
	want := m.NumParams
	if m.Variadic {
		want++
	}
	if want == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil
	}
	if len(args) < want && !(m.Variadic && len(args) == want-1) {
		p.errorf(callPos, diag.Preprocessor, "macro '%s' requires %d argument(s), got %d", m.Name, m.NumParams, len(args))
	}
	if len(args) > want && !m.Variadic {
		p.errorf(callPos, diag.Preprocessor, "macro '%s' requires %d argument(s), got %d", m.Name, m.NumParams, len(args))
	}
	return args
}

// substitute builds the replacement token sequence for a macro invocation:
// parameter references are replaced by their (possibly stringized or pasted)
// argument, '##' glues adjacent tokens, and every resulting token is stamped
// with hs so later re-scanning respects the hide-set (spec §4.3).
func (p *Preprocessor) substitute(m *Macro, args [][]token.Tok, hs token.HideSet, callPos token.Pos) []token.Tok {
	var out []token.Tok
	body := m.Body

	argOf := func(i int) []token.Tok {
		if i < 0 || i >= len(args) {
			return nil
		}
		return args[i]
	}
	varArgsJoined := func() []token.Tok {
		if !m.Variadic {
			return nil
		}
		var joined []token.Tok
		for i := m.NumParams; i < len(args); i++ {
			if i > m.NumParams {
				joined = append(joined, token.Tok{Kind: token.COMMA, Lit: ","})
			}
			joined = append(joined, args[i]...)
		}
		return joined
	}
	paramTokens := func(i int) []token.Tok {
		if m.Variadic && i == m.NumParams {
			return varArgsJoined()
		}
		return argOf(i)
	}

	for i := 0; i < len(body); i++ {
		t := body[i]

		switch {
		case t.Kind == token.HASH && i+1 < len(body) && body[i+1].Kind == token.MACRO_PARAM:
			arg := paramTokens(body[i+1].Param)
			out = append(out, stringize(arg, callPos))
			i++

		case t.Kind == token.HASHHASH:
			// Paste the previous output token with whatever follows. A
			// parameter on the right supplies its raw (unexpanded) first
			// token; an empty variadic argument after a leading comma
			// deletes the comma (the "', ## __VA_ARGS__'" GNU extension,
			// spec §4.3's explicit special case).
			var rhs []token.Tok
			if i+1 < len(body) && body[i+1].Kind == token.MACRO_PARAM {
				rhs = paramTokens(body[i+1].Param)
				i++
			} else if i+1 < len(body) {
				rhs = []token.Tok{body[i+1]}
				i++
			}
			if len(out) > 0 && out[len(out)-1].Kind == token.COMMA && len(rhs) == 0 {
				out = out[:len(out)-1] // ", ## __VA_ARGS__" with empty varargs drops the comma
				continue
			}
			if len(out) == 0 || len(rhs) == 0 {
				out = append(out, rhs...)
				continue
			}
			left := out[len(out)-1]
			glued, ok := lexer.GlueToks(left, rhs[0], p.pasteScratchFile(left, rhs[0]))
			if ok {
				out[len(out)-1] = glued
				out = append(out, rhs[1:]...)
			} else {
				out = append(out, rhs...)
			}

		case t.Kind == token.MACRO_PARAM:
			// A parameter reference not adjacent to '#' or '##' is
			// macro-expanded before substitution (spec §4.3).
			out = append(out, p.expandFully(paramTokens(t.Param))...)

		default:
			out = append(out, t)
		}
	}

	for i := range out {
		out[i] = out[i].WithHideSet(out[i].HideSet.Union(hs))
		out[i].Pos = callPos
	}
	return out
}

// stringize implements the '#' operator: the argument's original spelling,
// whitespace-collapsed and quote/backslash-escaped, becomes one STRING
// token (spec §4.3).
func stringize(arg []token.Tok, pos token.Pos) token.Tok {
	var sb []byte
	for i, t := range arg {
		if i > 0 && t.Space {
			sb = append(sb, ' ')
		}
		text := lexer.TokenText(t)
		if t.Kind == token.STRING || t.Kind == token.CHAR {
			for _, r := range text {
				if r == '"' || r == '\\' {
					sb = append(sb, '\\')
				}
				sb = append(sb, string(r)...)
			}
		} else {
			sb = append(sb, text...)
		}
	}
	s := string(sb)
	return token.Tok{Kind: token.STRING, Pos: pos, Lit: `"` + s + `"`, Str: s}
}
