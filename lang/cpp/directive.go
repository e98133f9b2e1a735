package cpp

import (
	"strconv"
	"strings"

	"cosec/internal/diag"
	"cosec/lang/token"
)

// handleDirective is entered immediately after a '#' at the start of a
// logical line has been consumed by rawNext. It reads the directive name and
// dispatches, per spec §4.3's directive list.
func (p *Preprocessor) handleDirective() {
	name := p.rawNext()
	if name.Kind == token.NEWLINE || name.Kind == token.EOF {
		return // null directive, "# \n", a no-op
	}
	if name.Kind != token.IDENT {
		p.errorf(name.Pos, diag.Preprocessor, "expected preprocessing directive name, found %s", name.Kind.GoString())
		p.skipRestOfLine()
		return
	}

	switch name.Lit {
	case "define":
		p.doDefine()
	case "undef":
		p.doUndef()
	case "include":
		p.doInclude(false)
	case "import":
		p.doInclude(true)
	case "if":
		p.doIf(p.evalConstExpr(p.collectLineRaw()))
	case "ifdef":
		p.doIf(p.evalDefinedOperand())
	case "ifndef":
		p.doIf(!p.evalDefinedOperand())
	case "elif":
		p.doElifFromActive()
	case "else":
		p.doElseFromActive(name.Pos)
	case "endif":
		p.doEndif(name.Pos)
	case "line":
		p.doLine()
	case "error":
		p.errorf(name.Pos, diag.Preprocessor, "#error %s", strings.TrimSpace(p.lexRestOfLine()))
	case "warning":
		p.errorf(name.Pos, diag.Warning, "#warning %s", strings.TrimSpace(p.lexRestOfLine()))
	case "pragma":
		p.doPragma()
	default:
		p.errorf(name.Pos, diag.Preprocessor, "unknown preprocessing directive #%s", name.Lit)
		p.skipRestOfLine()
	}
}

// lexRestOfLine asks the current frame's lexer for raw remaining-line text;
// used for #error/#warning. Falls back to empty when no frame is live.
func (p *Preprocessor) lexRestOfLine() string {
	if f := p.top(); f != nil {
		return f.lex.LexRestOfLine()
	}
	return ""
}

func (p *Preprocessor) skipRestOfLine() {
	for {
		t := p.rawNext()
		if t.Kind == token.NEWLINE || t.Kind == token.EOF {
			return
		}
	}
}

// collectLineRaw reads every raw token up to (not including) the terminating
// NEWLINE/EOF, for #if/#elif constant expressions.
func (p *Preprocessor) collectLineRaw() []token.Tok {
	var toks []token.Tok
	for {
		t := p.rawNext()
		if t.Kind == token.NEWLINE || t.Kind == token.EOF {
			break
		}
		toks = append(toks, t)
	}
	return toks
}

func (p *Preprocessor) evalDefinedOperand() bool {
	t := p.rawNext()
	if t.Kind != token.IDENT {
		p.errorf(t.Pos, diag.Preprocessor, "expected macro name after #ifdef/#ifndef")
		p.skipRestOfLine()
		return false
	}
	ok := p.macros.IsDefined(t.Lit)
	p.skipRestOfLine()
	return ok
}

// doDefine parses a #define directive: object-like or function-like, per
// spec §4.3 (including '##' endpoint validation and the variadic forms).
func (p *Preprocessor) doDefine() {
	nameTok := p.rawNext()
	if nameTok.Kind != token.IDENT {
		p.errorf(nameTok.Pos, diag.Preprocessor, "macro name must be an identifier")
		p.skipRestOfLine()
		return
	}

	m := &Macro{Name: nameTok.Lit, Kind: ObjectLike}

	// A '(' with no preceding space makes this function-like (spec §4.3).
	if p.peekRawIsLParenNoSpaceConsume() {
		m.Kind = FunctionLike
		p.parseParamList(m)
	}

	var body []token.Tok
	for {
		t := p.rawNext()
		if t.Kind == token.NEWLINE || t.Kind == token.EOF {
			break
		}
		if t.Kind == token.IDENT && m.Kind == FunctionLike {
			if idx, ok := paramIndex(m, t.Lit); ok {
				t.Kind = token.MACRO_PARAM
				t.Param = idx
			} else if t.Lit == "__VA_ARGS__" && m.Variadic {
				t.Kind = token.MACRO_PARAM
				t.Param = m.NumParams // the implicit trailing variadic slot
			}
		}
		body = append(body, t)
	}

	if len(body) > 0 && body[0].Kind == token.HASHHASH {
		p.errorf(body[0].Pos, diag.Preprocessor, "'##' cannot appear at the start of a macro body")
	}
	if len(body) > 0 && body[len(body)-1].Kind == token.HASHHASH {
		p.errorf(body[len(body)-1].Pos, diag.Preprocessor, "'##' cannot appear at the end of a macro body")
	}
	if m.Kind == ObjectLike {
		for _, t := range body {
			if t.Kind == token.HASH {
				p.errorf(t.Pos, diag.Preprocessor, "'#' is only meaningful in a function-like macro body")
				break
			}
		}
	}

	m.Body = body

	if existing, ok := p.macros.Lookup(m.Name); ok && !macrosEquivalent(existing, m) {
		p.errorf(nameTok.Pos, diag.Preprocessor, "'%s' redefined incompatibly", m.Name)
	}
	p.macros.Define(m)
}

// peekRawIsLParenNoSpaceConsume checks and, if true, consumes the '('.
func (p *Preprocessor) peekRawIsLParenNoSpaceConsume() bool {
	t := p.rawNext()
	if t.Kind == token.LPAREN && !t.Space {
		return true
	}
	p.unreadRaw(t)
	return false
}

func (p *Preprocessor) parseParamList(m *Macro) {
	t := p.rawNext()
	if t.Kind == token.RPAREN {
		return
	}
	for {
		switch t.Kind {
		case token.ELLIPSIS:
			m.Variadic = true
			m.ParamName = append(m.ParamName, "__VA_ARGS__")
		case token.IDENT:
			m.ParamName = append(m.ParamName, t.Lit)
		default:
			p.errorf(t.Pos, diag.Preprocessor, "expected parameter name in macro parameter list")
		}
		n := p.rawNext()
		if n.Kind == token.RPAREN {
			break
		}
		if n.Kind != token.COMMA {
			p.errorf(n.Pos, diag.Preprocessor, "expected ',' or ')' in macro parameter list")
			break
		}
		t = p.rawNext()
	}
	m.NumParams = len(m.ParamName)
	if m.Variadic {
		m.NumParams--
	}
}

func paramIndex(m *Macro, name string) (int, bool) {
	for i, n := range m.ParamName {
		if n == name && !(m.Variadic && i == len(m.ParamName)-1) {
			return i, true
		}
	}
	return -1, false
}

func macrosEquivalent(a, b *Macro) bool {
	if a.Kind != b.Kind || a.NumParams != b.NumParams || a.Variadic != b.Variadic || len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Body {
		if a.Body[i].Kind != b.Body[i].Kind || a.Body[i].Lit != b.Body[i].Lit || a.Body[i].Param != b.Body[i].Param {
			return false
		}
	}
	return true
}

func (p *Preprocessor) doUndef() {
	t := p.rawNext()
	if t.Kind != token.IDENT {
		p.errorf(t.Pos, diag.Preprocessor, "macro name must be an identifier")
	} else {
		p.macros.Undef(t.Lit)
	}
	p.skipRestOfLine()
}

// doLine handles #line N ["file"], per spec §4.1/§4.3's source-mapping
// requirement.
func (p *Preprocessor) doLine() {
	toks := p.collectLineRaw()
	if len(toks) == 0 || toks[0].Kind != token.NUMBER {
		p.errorf(p.curPos(toks), diag.Preprocessor, "#line requires a line number")
		return
	}
	n, err := strconv.Atoi(toks[0].Lit)
	if err != nil {
		p.errorf(toks[0].Pos, diag.Preprocessor, "invalid #line number %q", toks[0].Lit)
		return
	}
	file := ""
	if len(toks) > 1 && toks[1].Kind == token.STRING {
		file = toks[1].Str
	} else if f := p.top(); f != nil {
		file = f.file.Name()
	}
	if f := p.top(); f != nil {
		// anchored on the directive's own line, numbered n-1, so that the
		// line after the directive reports n
		f.file.SetLineOverride(f.file.Offset(toks[0].Pos), file, n-1)
	}
}

func (p *Preprocessor) curPos(toks []token.Tok) token.Pos {
	if len(toks) > 0 {
		return toks[0].Pos
	}
	return token.NoPos
}

// doPragma handles the subset of #pragma meaningful to this implementation:
// "once" for include-once tracking (spec §4.3). Unknown pragmas are ignored,
// matching typical compiler leniency.
func (p *Preprocessor) doPragma() {
	t := p.rawNext()
	if t.Kind == token.IDENT && t.Lit == "once" {
		if f := p.top(); f != nil {
			name := f.file.Name()
			if _, canon, ok := p.opener.Open(name); ok {
				name = canon // the include-once set holds canonical paths
			}
			p.includeOnce.Mark(name)
		}
		p.skipRestOfLine()
		return
	}
	p.unreadRaw(t)
	p.skipRestOfLine()
}
