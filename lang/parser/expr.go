package parser

import (
	"cosec/lang/ast"
	"cosec/lang/constant"
	"cosec/lang/token"
	"cosec/lang/types"
)

// parseExpr parses a full comma-expression (spec §4.5's lowest-precedence
// rule, "comma lowest").
func (p *parser) parseExpr() ast.Expr {
	e := p.parseAssignExpr()
	for p.kind == token.COMMA {
		pos := p.tok.Pos
		p.advance()
		right := p.parseAssignExpr()
		ce := &ast.CommaExpr{Left: e, Comma: pos, Right: right}
		ce.SetResolvedType(right.ResolvedType())
		e = ce
	}
	return e
}

// parseAssignExpr parses a right-associative assignment-expression (spec
// §4.5): a conditional-expression, optionally followed by an assignment
// operator and another assignment-expression.
func (p *parser) parseAssignExpr() ast.Expr {
	left := p.parseCondExpr()
	if p.kind == token.ASSIGN || p.kind.IsAugBinop() {
		op := p.kind
		pos := p.tok.Pos
		if !ast.IsAssignable(left) {
			p.error(pos, "left-hand side of assignment is not assignable")
		}
		p.advance()
		right := p.parseAssignExpr()
		ae := &ast.AssignExpr{Left: left, Op: op, OpPos: pos, Right: right}
		ae.SetResolvedType(left.ResolvedType())
		return ae
	}
	return left
}

func (p *parser) parseCondExpr() ast.Expr {
	cond := p.parseLogOr()
	if p.kind != token.QUESTION {
		return cond
	}
	qpos := p.tok.Pos
	p.advance()
	then := p.parseExpr()
	cpos := p.expect(token.COLON)
	els := p.parseCondExpr()
	ce := &ast.CondExpr{Cond: cond, Question: qpos, Then: then, Colon: cpos, Else: els}
	ce.SetResolvedType(usualArith(then.ResolvedType(), els.ResolvedType()))
	return ce
}

func (p *parser) parseLogOr() ast.Expr  { return p.binL(p.parseLogAnd, token.LOR) }
func (p *parser) parseLogAnd() ast.Expr { return p.binL(p.parseBitOr, token.LAND) }
func (p *parser) parseBitOr() ast.Expr  { return p.binL(p.parseBitXor, token.PIPE) }
func (p *parser) parseBitXor() ast.Expr { return p.binL(p.parseBitAnd, token.CARET) }
func (p *parser) parseBitAnd() ast.Expr { return p.binL(p.parseEquality, token.AMP) }
func (p *parser) parseEquality() ast.Expr {
	return p.binL(p.parseRelational, token.EQ, token.NE)
}
func (p *parser) parseRelational() ast.Expr {
	return p.binL(p.parseShift, token.LT, token.GT, token.LE, token.GE)
}
func (p *parser) parseShift() ast.Expr {
	return p.binL(p.parseAdditive, token.SHL, token.SHR)
}
func (p *parser) parseAdditive() ast.Expr {
	return p.binL(p.parseMultiplicative, token.PLUS, token.MINUS)
}
func (p *parser) parseMultiplicative() ast.Expr {
	return p.binL(p.parseCast, token.STAR, token.SLASH, token.PCT)
}

// binL implements one left-associative binary-operator precedence level:
// parse one operand with next, then while the current token is one of ops,
// consume it and fold in another operand.
func (p *parser) binL(next func() ast.Expr, ops ...token.Token) ast.Expr {
	left := next()
	for p.at(ops...) {
		op := p.kind
		pos := p.tok.Pos
		p.advance()
		right := next()
		be := &ast.BinaryExpr{Left: left, Op: op, OpPos: pos, Right: right}
		be.SetResolvedType(resultTypeOf(op, left.ResolvedType(), right.ResolvedType()))
		left = be
	}
	return left
}

// resultTypeOf computes a binary operator's result type (spec §4.5/§4.4's
// usual arithmetic conversions), special-casing comparisons (always int)
// and pointer arithmetic (preserves the pointer's type).
func resultTypeOf(op token.Token, l, r *types.Type) *types.Type {
	switch op {
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE, token.LAND, token.LOR:
		return types.IntType
	}
	if l != nil && l.Kind == types.Pointer {
		return l
	}
	if r != nil && r.Kind == types.Pointer {
		return r
	}
	return usualArith(l, r)
}

func rank(t *types.Type) int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case types.Bool:
		return 1
	case types.Char, types.SChar, types.UChar:
		return 2
	case types.Short, types.UShort:
		return 3
	case types.Int, types.UInt, types.Enum:
		return 4
	case types.Long, types.ULong:
		return 5
	case types.LLong, types.ULLong:
		return 6
	case types.Float:
		return 7
	case types.Double:
		return 8
	case types.LDouble:
		return 9
	}
	return 0
}

// promote applies integer promotion (spec §4.4): anything narrower than
// int promotes to int.
func promote(t *types.Type) *types.Type {
	if t == nil {
		return types.IntType
	}
	if t.IsInt() && rank(t) < rank(types.IntType) {
		return types.IntType
	}
	return t
}

// usualArith implements the usual arithmetic conversions (spec §4.4):
// floating dominates integer, and between two integers the wider (or,
// if equal width, the unsigned) type wins.
func usualArith(a, b *types.Type) *types.Type {
	a, b = promote(a), promote(b)
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.IsFP() || b.IsFP() {
		if a.IsFP() && rank(a) >= rank(b) {
			return a
		}
		if b.IsFP() && rank(b) >= rank(a) {
			return b
		}
		if a.IsFP() {
			return a
		}
		return b
	}
	if rank(a) == rank(b) {
		if a.IsUnsigned() {
			return a
		}
		return b
	}
	if rank(a) > rank(b) {
		return a
	}
	return b
}

// parseCast parses a cast-expression (spec §4.5): "(" type-name ")"
// cast-expression | "(" type-name ")" "{" initializer-list "}" (a compound
// literal) | unary-expression. The '(' is consumed here uniformly so a
// single token of lookahead after it (isTypeStart) disambiguates a cast
// from a parenthesized expression, since the token source has no rewind.
func (p *parser) parseCast() ast.Expr {
	if p.kind != token.LPAREN {
		return p.parseUnary()
	}
	lparen := p.tok.Pos
	p.advance()
	if !p.isTypeStart() {
		inner := p.parseExpr()
		rparen := p.expect(token.RPAREN)
		pe := &ast.ParenExpr{Lparen: lparen, Inner: inner, Rparen: rparen}
		pe.SetResolvedType(inner.ResolvedType())
		return p.parsePostfixTail(pe)
	}

	t := p.parseTypeName()
	p.expect(token.RPAREN)
	if p.kind == token.LBRACE {
		init := p.parseInitializer(t)
		init.SetResolvedType(t)
		return p.parsePostfixTail(init)
	}
	inner := p.parseCast()
	ce := &ast.CastExpr{Lparen: lparen, Inner: inner}
	ce.SetResolvedType(t)
	return ce
}

// parseTypeName parses a type-name (declaration-specifiers plus an
// optional abstract declarator), as used by casts, sizeof, and compound
// literals.
func (p *parser) parseTypeName() *types.Type {
	spec := p.parseDeclSpecs()
	t, _, _, _ := p.parseDeclarator(spec.base)
	return t
}

func (p *parser) parseUnary() ast.Expr {
	switch p.kind {
	case token.AMP, token.STAR, token.PLUS, token.MINUS, token.TILDE, token.NOT:
		op := p.kind
		pos := p.tok.Pos
		p.advance()
		right := p.parseCast()
		ue := &ast.UnaryExpr{Op: op, OpPos: pos, Right: right}
		ue.SetResolvedType(unaryResultType(op, right.ResolvedType()))
		return ue
	case token.INC, token.DEC:
		op := p.kind
		pos := p.tok.Pos
		p.advance()
		operand := p.parseUnary()
		if !ast.IsAssignable(operand) {
			p.error(pos, "operand of prefix %s is not assignable", op.GoString())
		}
		ie := &ast.IncDecExpr{Op: op, OpPos: pos, Operand: operand, Postfix: false}
		ie.SetResolvedType(operand.ResolvedType())
		return ie
	case token.SIZEOF:
		return p.parseSizeof()
	default:
		return p.parsePostfix()
	}
}

func unaryResultType(op token.Token, operand *types.Type) *types.Type {
	switch op {
	case token.AMP:
		if operand == nil {
			return nil
		}
		return types.NewPointer(operand)
	case token.STAR:
		if operand != nil && (operand.Kind == types.Pointer || operand.Kind == types.Array) {
			return operand.Elem
		}
		return nil
	case token.NOT:
		return types.IntType
	default:
		return promote(operand)
	}
}

func (p *parser) parseSizeof() ast.Expr {
	sizeofPos := p.tok.Pos
	p.advance()
	if p.kind == token.LPAREN {
		p.advance()
		if p.isTypeStart() {
			t := p.parseTypeName()
			end := p.expect(token.RPAREN)
			se := &ast.SizeofExpr{Sizeof: sizeofPos, TypeName: t, End: end}
			se.SetResolvedType(types.ULongType)
			return se
		}
		inner := p.parseExpr()
		end := p.expect(token.RPAREN)
		pe := &ast.ParenExpr{Inner: inner, Rparen: end}
		pe.SetResolvedType(inner.ResolvedType())
		se := &ast.SizeofExpr{Sizeof: sizeofPos, Operand: pe, End: end}
		se.SetResolvedType(types.ULongType)
		return se
	}
	operand := p.parseUnary()
	_, end := operand.Span()
	se := &ast.SizeofExpr{Sizeof: sizeofPos, Operand: operand, End: end}
	se.SetResolvedType(types.ULongType)
	return se
}

func (p *parser) parsePostfix() ast.Expr {
	return p.parsePostfixTail(p.parsePrimary())
}

// parsePostfixTail applies the postfix operator chain ([...], (...), .x,
// ->x, ++, --) to an already-parsed primary expression; split out so
// parseCast can apply postfix operators to a parenthesized expression or
// compound literal too.
func (p *parser) parsePostfixTail(e ast.Expr) ast.Expr {
	for {
		switch p.kind {
		case token.LBRACK:
			lbrack := p.tok.Pos
			p.advance()
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			ie := &ast.IndexExpr{Array: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
			if t := e.ResolvedType(); t != nil && (t.Kind == types.Array || t.Kind == types.Pointer) {
				ie.SetResolvedType(t.Elem)
			}
			e = ie
		case token.LPAREN:
			lparen := p.tok.Pos
			p.advance()
			var args []ast.Expr
			for p.kind != token.RPAREN {
				args = append(args, p.parseAssignExpr())
				if p.kind != token.COMMA {
					break
				}
				p.advance()
			}
			rparen := p.expect(token.RPAREN)
			ce := &ast.CallExpr{Fn: e, Lparen: lparen, Args: args, Rparen: rparen}
			if t := e.ResolvedType(); t != nil {
				ret := t
				if t.Kind == types.Pointer && t.Elem != nil && t.Elem.Kind == types.Func {
					ret = t.Elem
				}
				if ret.Kind == types.Func {
					ce.SetResolvedType(ret.Return)
				}
			}
			e = ce
		case token.DOT, token.ARROW:
			arrow := p.kind == token.ARROW
			dot := p.tok.Pos
			p.advance()
			field := p.tok.Lit
			end := p.expect(token.IDENT)
			me := &ast.MemberExpr{Base: e, Arrow: arrow, Dot: dot, Field: field, EndPos: end}
			rec := e.ResolvedType()
			if arrow && rec != nil && rec.Kind == types.Pointer {
				rec = rec.Elem
			}
			if rec != nil {
				if f, ok := rec.Field(field); ok {
					me.SetResolvedType(f.Type)
				} else {
					p.error(dot, "no member %q in %s", field, rec.String())
				}
			}
			e = me
		case token.INC, token.DEC:
			op := p.kind
			pos := p.tok.Pos
			p.advance()
			ie := &ast.IncDecExpr{Op: op, OpPos: pos, Operand: e, Postfix: true}
			ie.SetResolvedType(e.ResolvedType())
			e = ie
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.kind {
	case token.IDENT:
		name := p.tok.Lit
		pos := p.tok.Pos
		p.advance()
		ie := &ast.IdentExpr{Name: name, Pos: pos}
		if sym, ok := p.scope.LookupVar(name); ok {
			ie.SetResolvedType(sym.Type)
		} else {
			p.error(pos, "undeclared identifier %q", name)
			ie.SetResolvedType(types.IntType)
		}
		return ie

	case token.NUMBER:
		raw := p.tok.Lit
		pos := p.tok.Pos
		p.advance()
		isFloat, iv, intType, fv, floatType, ok := constant.ParseNumber(raw)
		if !ok {
			p.error(pos, "malformed numeric literal %q", raw)
			intType, floatType = types.IntType, types.DoubleType
		}
		if isFloat {
			fe := &ast.FloatLitExpr{Raw: raw, Value: fv, Pos: pos}
			fe.SetResolvedType(floatType)
			return fe
		}
		ile := &ast.IntLitExpr{Raw: raw, Value: iv, Unsigned: intType.IsUnsigned(), Pos: pos}
		ile.SetResolvedType(intType)
		return ile

	case token.CHAR:
		raw := p.tok.Lit
		str := p.tok.Str
		pos := p.tok.Pos
		p.advance()
		var v rune
		for _, r := range str {
			v = r
			break
		}
		ce := &ast.CharLitExpr{Raw: raw, Value: v, Pos: pos}
		ce.SetResolvedType(types.CharType)
		return ce

	case token.STRING:
		raw := p.tok.Lit
		val := p.tok.Str
		pos := p.tok.Pos
		p.advance()
		for p.kind == token.STRING {
			raw += " " + p.tok.Lit
			val += p.tok.Str
			p.advance()
		}
		se := &ast.StringLitExpr{Raw: raw, Value: val, Pos: pos}
		se.SetResolvedType(types.NewArray(types.CharType, len(val)+1))
		return se

	default:
		pos := p.tok.Pos
		p.errorExpected(pos, "expression")
		panic(errPanicMode)
	}
}
