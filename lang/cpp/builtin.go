package cpp

import (
	"fmt"
	"time"

	"cosec/lang/token"
)

// installBuiltins registers the predefined macros of spec §6: __DATE__,
// __TIME__, __FILE__, __LINE__, __STDC__, __STDC_VERSION__,
// __STDC_HOSTED__, plus __COSEC__ identifying this implementation.
// __FILE__ and __LINE__ are dynamic builtins, re-evaluated at every
// reference, per their "built-in" macro kind (spec §3/§4.3) rather than
// frozen at startup.
func (p *Preprocessor) installBuiltins(now time.Time) {
	month := [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	date := fmt.Sprintf("%s %2d %d", month[now.Month()-1], now.Day(), now.Year())
	clock := now.Format("15:04:05")

	p.macros.Define(&Macro{Name: "__DATE__", Kind: Builtin, Expand: constString(date)})
	p.macros.Define(&Macro{Name: "__TIME__", Kind: Builtin, Expand: constString(clock)})
	p.macros.Define(&Macro{Name: "__STDC__", Kind: Builtin, Expand: constInt(1)})
	p.macros.Define(&Macro{Name: "__STDC_VERSION__", Kind: Builtin, Expand: constIntLit("199901L")})
	p.macros.Define(&Macro{Name: "__STDC_HOSTED__", Kind: Builtin, Expand: constInt(1)})
	p.macros.Define(&Macro{Name: "__COSEC__", Kind: Builtin, Expand: constInt(1)})

	p.macros.Define(&Macro{Name: "__FILE__", Kind: Builtin, Expand: func(ref token.Tok) token.Tok {
		name := p.currentFileName()
		ref.Kind = token.STRING
		ref.Str = name
		ref.Lit = `"` + name + `"`
		return ref
	}})
	p.macros.Define(&Macro{Name: "__LINE__", Kind: Builtin, Expand: func(ref token.Tok) token.Tok {
		line := p.currentLine(ref.Pos)
		ref.Kind = token.NUMBER
		ref.Lit = fmt.Sprintf("%d", line)
		return ref
	}})
}

func constString(s string) BuiltinFunc {
	return func(ref token.Tok) token.Tok {
		ref.Kind = token.STRING
		ref.Str = s
		ref.Lit = `"` + s + `"`
		return ref
	}
}

func constInt(n int64) BuiltinFunc {
	return func(ref token.Tok) token.Tok {
		ref.Kind = token.NUMBER
		ref.Int = n
		ref.Lit = fmt.Sprintf("%d", n)
		return ref
	}
}

func constIntLit(lit string) BuiltinFunc {
	return func(ref token.Tok) token.Tok {
		ref.Kind = token.NUMBER
		ref.Lit = lit
		return ref
	}
}
