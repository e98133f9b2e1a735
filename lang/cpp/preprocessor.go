// Package cpp implements the preprocessor described in spec §4.3: macro
// expansion with hide-sets (Prosser's algorithm), conditional inclusion,
// file inclusion with include-once tracking, and built-in macros. It is the
// hardest subcomponent of the pipeline (spec §2).
//
// The preprocessor is a pull-driven, single-threaded pipeline (spec §4.3,
// §5): Next returns one post-expansion token at a time, internally reading
// from whichever lexer frame is innermost (the current file, or a nested
// #include'd file), expanding macros and interpreting directives as it
// goes.
package cpp

import (
	"path/filepath"
	"time"

	"cosec/internal/diag"
	"cosec/lang/lexer"
	"cosec/lang/token"
)

// FileOpener resolves an include path to file contents. The default
// implementation reads from the real filesystem; tests inject a virtual one.
type FileOpener interface {
	// Open returns the file's bytes and its canonical path (used for
	// include-once tracking; __FILE__ reports the name the file was opened
	// under), or ok=false if it doesn't exist.
	Open(path string) (data []byte, canonical string, ok bool)
}

// frame is one level of the #include nesting stack.
type frame struct {
	lex  *lexer.Lexer
	file *token.File
	dir  string // directory containing this file, for quoted-include resolution
}

// condFrame is one level of the #if/#ifdef/#ifndef conditional stack.
type condFrame struct {
	taken  bool // some branch of this chain has already been selected
	active bool // the branch we're currently inside should emit tokens
	sawElse bool
}

// Preprocessor is the hard core of the pipeline: a single instance owns the
// macro table, include-once table and conditional stack, and is driven
// exclusively from one call site at a time (spec §4.3's "suspension model").
type Preprocessor struct {
	fset    *token.FileSet
	add     func(diag.Position, diag.Kind, string, ...any)
	opener  FileOpener
	include []string // configured search path, in order, for angle-bracket includes

	macros      *Table
	includeOnce *includeOnceSet

	frames []*frame
	conds  []condFrame

	expandBuf []token.Tok // tokens awaiting (re-)expansion, LIFO

	// pull/unpull supply the token source used by tryExpand's function-like
	// macro argument scan: normally the live frame stack (rawNext/unreadRaw),
	// temporarily rebound to a fixed slice cursor by withTokenSource while
	// expanding a macro argument or a #if/#elif constant expression in
	// isolation (spec §4.3).
	pull   func() token.Tok
	unpull func(token.Tok)

	now time.Time
}

// New creates a Preprocessor for the given root file, whose bytes have
// already been read by the caller (spec: the CLI driver opens the input
// file). add receives every diagnostic produced during preprocessing.
func New(fset *token.FileSet, opener FileOpener, includePaths []string, rootName string, rootSrc []byte, add func(diag.Position, diag.Kind, string, ...any)) *Preprocessor {
	p := &Preprocessor{
		fset:        fset,
		add:         add,
		opener:      opener,
		include:     includePaths,
		macros:      NewTable(),
		includeOnce: newIncludeOnceSet(),
		now:         time.Now(),
	}
	p.pull = p.rawNext
	p.unpull = p.unreadRaw
	p.installBuiltins(p.now)
	p.pushSource(rootName, rootSrc)
	return p
}

// withTokenSource temporarily redirects p.pull/p.unpull to a cursor over a
// fixed token slice (terminated by a synthetic EOF), runs fn, then restores
// the live frame-backed source. Used to expand macro arguments and #if
// expressions in isolation from whatever is currently being read.
func (p *Preprocessor) withTokenSource(toks []token.Tok, fn func()) {
	cur := append(append([]token.Tok(nil), toks...), token.Tok{Kind: token.EOF})
	i := 0
	savedPull, savedUnpull := p.pull, p.unpull
	p.pull = func() token.Tok {
		if i < len(cur) {
			t := cur[i]
			i++
			return t
		}
		return token.Tok{Kind: token.EOF}
	}
	p.unpull = func(t token.Tok) {
		if i > 0 {
			i--
			cur[i] = t
		} else {
			cur = append([]token.Tok{t}, cur...)
		}
	}
	defer func() { p.pull, p.unpull = savedPull, savedUnpull }()
	fn()
}

// expandFully macro-expands a fixed token slice to completion (no further
// input is available), for macro-argument pre-expansion and #if/#elif
// constant-expression identifier expansion (spec §4.3).
func (p *Preprocessor) expandFully(toks []token.Tok) []token.Tok {
	var out []token.Tok
	p.withTokenSource(toks, func() {
		for {
			t := p.pull()
			if t.Kind == token.EOF {
				return
			}
			if t.Kind == token.IDENT {
				if rep, did := p.tryExpand(t); did {
					for i := len(rep) - 1; i >= 0; i-- {
						p.unpull(rep[i])
					}
					continue
				}
			}
			out = append(out, t)
		}
	})
	return out
}

func (p *Preprocessor) pushSource(name string, src []byte) {
	file := p.fset.AddFile(name, len(src))
	lx := lexer.New(file, src, p.add)
	p.frames = append(p.frames, &frame{lex: lx, file: file, dir: filepath.Dir(name)})
}

func (p *Preprocessor) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

func (p *Preprocessor) popFrame() bool {
	if len(p.frames) == 0 {
		return false
	}
	p.frames = p.frames[:len(p.frames)-1]
	return len(p.frames) > 0
}

func (p *Preprocessor) errorf(pos token.Pos, kind diag.Kind, format string, args ...any) {
	if p.add == nil {
		return
	}
	var dp diag.Position
	if f := p.top(); f != nil {
		dp = f.file.Position(pos)
	}
	p.add(dp, kind, format, args...)
}

func (p *Preprocessor) currentFileName() string {
	if f := p.top(); f != nil {
		return f.file.Name()
	}
	return ""
}

func (p *Preprocessor) currentLine(pos token.Pos) int {
	if f := p.top(); f != nil {
		return f.file.Position(pos).Line
	}
	return 0
}

// rawNext pulls the next unexpanded token, chaining through #include frames
// and reporting EOF only once the outermost file is exhausted.
func (p *Preprocessor) rawNext() token.Tok {
	for {
		f := p.top()
		if f == nil {
			return token.Tok{Kind: token.EOF}
		}
		t := f.lex.Lex()
		if t.Kind == token.EOF {
			if p.popFrame() {
				continue
			}
			return t
		}
		return t
	}
}

func (p *Preprocessor) allActive() bool {
	for _, c := range p.conds {
		if !c.active {
			return false
		}
	}
	return true
}

// Next returns the next post-expansion, post-directive token. NEWLINE
// tokens never escape the preprocessor; they are structurally meaningful
// only to directive detection (spec §4.2: "distinguish newline from space so
// the preprocessor can detect directive start").
func (p *Preprocessor) Next() token.Tok {
	for {
		if n := len(p.expandBuf); n > 0 {
			t := p.expandBuf[n-1]
			p.expandBuf = p.expandBuf[:n-1]
			if t.Kind == token.NEWLINE {
				continue
			}
			if t.Kind == token.IDENT {
				if out, did := p.tryExpand(t); did {
					p.pushExpandBuf(out)
					continue
				}
			}
			return t
		}

		t := p.rawNext()
		if t.Kind == token.EOF {
			if len(p.conds) > 0 {
				p.errorf(t.Pos, diag.Preprocessor, "unterminated #if: missing #endif")
				p.conds = nil
			}
			return t
		}
		if t.Kind == token.NEWLINE {
			continue
		}
		if t.Kind == token.HASH && t.NL {
			p.handleDirective()
			continue
		}
		if t.Kind == token.IDENT {
			if out, did := p.tryExpand(t); did {
				p.pushExpandBuf(out)
				continue
			}
		}
		return t
	}
}

// pushExpandBuf pushes a slice of tokens so the first element is the next
// one Next() considers.
func (p *Preprocessor) pushExpandBuf(toks []token.Tok) {
	for i := len(toks) - 1; i >= 0; i-- {
		p.expandBuf = append(p.expandBuf, toks[i])
	}
}

// pasteScratchFile allocates a throwaway File sized for a '##' paste
// operation's combined text, since GlueToks needs a non-nil File to report
// positions against if the pasted text itself contains an error.
func (p *Preprocessor) pasteScratchFile(a, b token.Tok) *token.File {
	text := lexer.TokenText(a) + lexer.TokenText(b)
	return p.fset.AddFile("<paste>", len(text))
}

// unreadRaw pushes a raw (unexpanded) token back onto the current frame's
// lexer, or, if frames have been exhausted, onto expandBuf as a fallback.
func (p *Preprocessor) unreadRaw(t token.Tok) {
	if f := p.top(); f != nil {
		f.lex.UndoTok(t)
		return
	}
	p.expandBuf = append(p.expandBuf, t)
}
