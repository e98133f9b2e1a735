// Package parser implements the recursive-descent parser and embedded type
// checker described in spec §4.5: it consumes the cooked token stream
// produced by lang/cpp's Preprocessor and builds a typed lang/ast tree,
// resolving declarators, scopes, typedefs, and implicit conversions as it
// goes.
package parser

import (
	"errors"
	"strings"

	"github.com/dolthub/swiss"

	"cosec/internal/diag"
	"cosec/lang/ast"
	"cosec/lang/cpp"
	"cosec/lang/token"
	"cosec/lang/types"
)

// tokenSource abstracts the one method the parser pulls tokens from,
// implemented by *cpp.Preprocessor; tests can supply a stub source that
// skips preprocessing entirely when exercising pure grammar rules.
type tokenSource interface {
	Next() token.Tok
}

// ParseFile parses one fully preprocessed translation unit, returning the
// AST and any diagnostics. The error, if non-nil, is a *diag.ErrorList (or
// a single diag.Error).
func ParseFile(fset *token.FileSet, pp *cpp.Preprocessor, name string) (*ast.TranslationUnit, error) {
	var p parser
	p.init(fset, pp, name)
	tu := p.parseTranslationUnit()
	p.errors.Sort()
	return tu, p.errors.Err()
}

type parser struct {
	fset   *token.FileSet
	src    tokenSource
	errors diag.ErrorList
	name   string

	tok   token.Tok   // current raw token from the source
	kind  token.Token // tok.Kind, or the keyword kind if tok is a promoted IDENT
	scope *Scope

	// globals tracks every file-scope name's type for the constant
	// evaluator's Globals interface (lang/constant's "&v yields a symbolic
	// pointer" rule needs to know which names have a fixed address).
	globals *swiss.Map[string, *types.Type]

	// pending holds the second and later declarators of a comma-separated
	// top-level declaration (e.g. "int a, b;"); parseExternalDecl returns
	// only the first and queues the rest here for parseTranslationUnit to
	// drain, since one source declaration can name more than one Decl.
	pending []ast.Decl
}

func (p *parser) init(fset *token.FileSet, src tokenSource, name string) {
	p.fset = fset
	p.src = src
	p.name = name
	p.scope = NewFileScope()
	p.globals = swiss.NewMap[string, *types.Type](64)
	p.advance()
}

// GlobalType implements lang/constant.Globals.
func (p *parser) GlobalType(name string) (*types.Type, bool) { return p.globals.Get(name) }

// advance pulls the next token from the preprocessor and promotes IDENT to
// its keyword kind per token.LookupIdent's contract: promotion happens only
// once, here, at the moment a token leaves the cooked stream for the parser
// (spec §4.3's "never during macro expansion or #if evaluation").
func (p *parser) advance() {
	p.tok = p.src.Next()
	p.kind = p.tok.Kind
	if p.kind == token.IDENT {
		p.kind = token.LookupIdent(p.tok.Lit)
	}
}

var errPanicMode = errors.New("panic")

// expect consumes the current token if its (possibly keyword-promoted)
// kind matches one of toks, else reports an error and unwinds to the
// nearest recover point via errPanicMode, a panic/recover-based
// synchronization scheme so one syntax error doesn't abort the whole parse.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.tok.Pos
	for _, t := range toks {
		if p.kind == t {
			p.advance()
			return pos
		}
	}
	p.errorExpected(pos, describeTokens(toks))
	panic(errPanicMode)
}

// at reports whether the current token's (possibly promoted) kind is one of
// toks, without consuming anything.
func (p *parser) at(toks ...token.Token) bool {
	for _, t := range toks {
		if p.kind == t {
			return true
		}
	}
	return false
}

func describeTokens(toks []token.Token) string {
	if len(toks) == 1 {
		return toks[0].GoString()
	}
	var sb strings.Builder
	sb.WriteString("one of ")
	for i, t := range toks {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.GoString())
	}
	return sb.String()
}

func (p *parser) error(pos token.Pos, format string, args ...any) {
	lpos := p.fset.Position(pos)
	p.errors.Add(lpos, diag.Syntactic, format, args...)
}

func (p *parser) errorExpected(pos token.Pos, what string) {
	msg := "expected " + what
	if pos == p.tok.Pos {
		if p.tok.Lit != "" {
			msg += ", found " + p.tok.Lit
		} else {
			msg += ", found " + p.kind.GoString()
		}
	}
	p.error(pos, "%s", msg)
}

// syncDecl skips tokens until a plausible declaration boundary, used to
// recover from a parse error at file scope without aborting the whole
// translation unit.
func (p *parser) syncDecl() token.Pos {
	for p.kind != token.EOF {
		if p.kind == token.SEMI {
			p.advance()
			return p.tok.Pos
		}
		if p.kind == token.RBRACE {
			p.advance()
			return p.tok.Pos
		}
		p.advance()
	}
	return p.tok.Pos
}

// syncStmt skips tokens until a statement boundary, analogous to syncDecl
// but stopping one token earlier at a "}" so the caller's own loop sees it.
func (p *parser) syncStmt() token.Pos {
	for p.kind != token.EOF && p.kind != token.RBRACE {
		if p.kind == token.SEMI {
			p.advance()
			return p.tok.Pos
		}
		p.advance()
	}
	return p.tok.Pos
}

func (p *parser) parseTranslationUnit() *ast.TranslationUnit {
	tu := &ast.TranslationUnit{Name: p.name}
	for p.kind != token.EOF {
		if d := p.parseExternalDecl(); d != nil {
			tu.Decls = append(tu.Decls, d)
		}
		if len(p.pending) > 0 {
			tu.Decls = append(tu.Decls, p.pending...)
			p.pending = nil
		}
	}
	tu.EOF = p.tok.Pos
	return tu
}

// isTypeStart reports whether the current (possibly promoted) token can
// begin a declaration-specifiers sequence: a type keyword, a storage-class
// or qualifier keyword, "struct"/"union"/"enum", or an identifier that is
// currently a typedef name in scope (spec §4.5's declarator ambiguity).
func (p *parser) isTypeStart() bool {
	switch p.kind {
	case token.VOID, token.CHAR_KW, token.SHORT, token.INT_KW, token.LONG,
		token.FLOAT_KW, token.DOUBLE, token.SIGNED, token.UNSIGNED,
		token.STRUCT, token.UNION, token.ENUM,
		token.CONST, token.VOLATILE, token.RESTRICT,
		token.TYPEDEF, token.EXTERN, token.STATIC, token.REGISTER, token.INLINE:
		return true
	case token.IDENT:
		return p.scope.IsTypedefName(p.tok.Lit)
	}
	return false
}
