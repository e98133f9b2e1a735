package parser

import (
	"cosec/lang/ast"
	"cosec/lang/token"
	"cosec/lang/types"
)

// parseInitializer parses an initializer (spec §4.5/§9): either a single
// assignment-expression, or a brace-enclosed, optionally designated
// initializer list. t is the declared type being initialized, used only to
// decide whether a bare string literal should be treated as a full
// array-of-char initializer rather than folded into a one-element list.
func (p *parser) parseInitializer(t *types.Type) ast.Expr {
	if p.kind != token.LBRACE {
		return p.parseAssignExpr()
	}

	lbrace := p.tok.Pos
	p.advance()

	elemType := t
	if t != nil && (t.Kind == types.Array || t.Kind == types.Struct || t.Kind == types.Union) {
		elemType = t.Elem
	}

	init := &ast.InitListExpr{Lbrace: lbrace}
	for p.kind != token.RBRACE && p.kind != token.EOF {
		var d ast.Designator
		if p.kind == token.DOT {
			p.advance()
			d.Field = p.tok.Lit
			p.expect(token.IDENT)
			p.expect(token.ASSIGN)
			if t != nil && (t.Kind == types.Struct || t.Kind == types.Union) {
				if f, ok := t.Field(d.Field); ok {
					elemType = f.Type
				}
			}
		} else if p.kind == token.LBRACK {
			p.advance()
			idx, _ := p.constIntExpr()
			p.expect(token.RBRACK)
			p.expect(token.ASSIGN)
			d.Index = intLitFor(idx, lbrace)
			if t != nil && t.Kind == types.Array {
				elemType = t.Elem
			}
		}

		elem := p.parseInitializer(elemType)
		init.Elems = append(init.Elems, elem)
		init.Designators = append(init.Designators, d)

		if p.kind != token.COMMA {
			break
		}
		p.advance()
	}
	init.Rbrace = p.expect(token.RBRACE)
	if t != nil {
		init.SetResolvedType(t)
	}
	return init
}
