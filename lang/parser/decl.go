package parser

import (
	"cosec/lang/ast"
	"cosec/lang/constant"
	"cosec/lang/token"
	"cosec/lang/types"
)

// declSpecs is the accumulated result of parsing a declaration-specifiers
// sequence (spec §4.5): storage class, function specifier, qualifiers, and
// base type.
type declSpecs struct {
	pos      token.Pos
	storage  token.Token // 0, or one of TYPEDEF/EXTERN/STATIC/REGISTER
	inline   bool
	base     *types.Type
	explicit bool // a type specifier was actually seen (vs. implicit int)
}

// typeCounts accumulates the built-in type-specifier keywords seen so far,
// to be resolved into a base type once the declSpecs loop ends (spec
// §4.5's "size token combinations validated").
type typeCounts struct {
	void, charC, short, intC, float, double, signedC, unsignedC int
	long                                                        int
}

func (p *parser) parseDeclSpecs() declSpecs {
	var spec declSpecs
	spec.pos = p.tok.Pos
	var counts typeCounts
	var named *types.Type // struct/union/enum/typedef base type, if any

loop:
	for {
		switch p.kind {
		case token.TYPEDEF, token.EXTERN, token.STATIC, token.REGISTER:
			if spec.storage != 0 {
				p.error(p.tok.Pos, "multiple storage classes in declaration specifiers")
			}
			spec.storage = p.kind
			p.advance()
		case token.INLINE:
			spec.inline = true
			p.advance()
		case token.CONST, token.VOLATILE, token.RESTRICT:
			// qualifiers are applied to the base type once it is known;
			// tracked eagerly isn't necessary for this subset since cosec
			// doesn't distinguish top-level qualified declarations beyond
			// const-ness of the object itself, which VarDecl doesn't model
			// (parameters/locals don't need it enforced here).
			p.advance()
		case token.VOID:
			counts.void++
			spec.explicit = true
			p.advance()
		case token.CHAR_KW:
			counts.charC++
			spec.explicit = true
			p.advance()
		case token.SHORT:
			counts.short++
			spec.explicit = true
			p.advance()
		case token.INT_KW:
			counts.intC++
			spec.explicit = true
			p.advance()
		case token.LONG:
			counts.long++
			spec.explicit = true
			p.advance()
		case token.FLOAT_KW:
			counts.float++
			spec.explicit = true
			p.advance()
		case token.DOUBLE:
			counts.double++
			spec.explicit = true
			p.advance()
		case token.SIGNED:
			counts.signedC++
			spec.explicit = true
			p.advance()
		case token.UNSIGNED:
			counts.unsignedC++
			spec.explicit = true
			p.advance()
		case token.STRUCT, token.UNION:
			if named != nil {
				break loop
			}
			named = p.parseRecordSpecifier(p.kind == token.UNION)
			spec.explicit = true
		case token.ENUM:
			if named != nil {
				break loop
			}
			named = p.parseEnumSpecifier()
			spec.explicit = true
		case token.IDENT:
			if spec.explicit || named != nil {
				break loop
			}
			sym, ok := p.scope.LookupVar(p.tok.Lit)
			if !ok || sym.Kind != SymTypedef {
				break loop
			}
			named = sym.Type
			spec.explicit = true
			p.advance()
		default:
			break loop
		}
	}

	switch {
	case named != nil:
		spec.base = named
	default:
		spec.base = resolveTypeCounts(counts)
	}
	return spec
}

// resolveTypeCounts maps the built-in type-specifier keyword counts to a
// base Type, per spec §4.4's size/sign combinations. Defaults to plain int
// when only "signed"/"unsigned" (or nothing at all) was given.
func resolveTypeCounts(c typeCounts) *types.Type {
	switch {
	case c.void > 0:
		return types.VoidType
	case c.charC > 0:
		switch {
		case c.unsignedC > 0:
			return types.UCharType
		case c.signedC > 0:
			return types.SCharType
		default:
			return types.CharType
		}
	case c.short > 0:
		if c.unsignedC > 0 {
			return types.UShortType
		}
		return types.ShortType
	case c.long >= 2:
		if c.unsignedC > 0 {
			return types.ULLongType
		}
		return types.LLongType
	case c.long == 1:
		if c.double > 0 {
			return types.LDoubleType
		}
		if c.unsignedC > 0 {
			return types.ULongType
		}
		return types.LongType
	case c.float > 0:
		return types.FloatType
	case c.double > 0:
		return types.DoubleType
	case c.unsignedC > 0:
		return types.UIntType
	default:
		return types.IntType
	}
}

// parseRecordSpecifier parses "struct|union [tag] [{ fields }]" (spec
// §4.5/§4.4), registering or completing the tag in the current scope.
func (p *parser) parseRecordSpecifier(isUnion bool) *types.Type {
	p.advance() // consume 'struct'/'union'

	var tag string
	if p.kind == token.IDENT {
		tag = p.tok.Lit
		p.advance()
	}

	var rec *types.Type
	if tag != "" {
		if existing, ok := p.scope.LookupTagLocal(tag); ok {
			rec = existing
		} else if existing, ok := p.scope.LookupTag(tag); ok && p.kind != token.LBRACE {
			rec = existing
		}
	}
	if rec == nil {
		if isUnion {
			rec = types.NewUnionDecl(tag)
		} else {
			rec = types.NewStructDecl(tag)
		}
		if tag != "" {
			p.scope.DefineTag(tag, rec)
		}
	}

	if p.kind != token.LBRACE {
		return rec
	}
	p.advance() // consume '{'

	var fields []types.Field
	for p.kind != token.RBRACE && p.kind != token.EOF {
		spec := p.parseDeclSpecs()
		for {
			t, name, _, _ := p.parseDeclarator(spec.base)
			var bitWidth int
			var hasBits bool
			if p.kind == token.COLON {
				p.advance()
				v, ok := p.constIntExpr()
				if ok {
					bitWidth = int(v)
					hasBits = true
				}
			}
			fields = append(fields, types.Field{Name: name, Type: t, BitWidth: bitWidth, HasBitSize: hasBits})
			if p.kind != token.COMMA {
				break
			}
			p.advance()
		}
		p.expect(token.SEMI)
	}
	p.expect(token.RBRACE)
	types.CompleteRecord(rec, fields)
	return rec
}

// parseEnumSpecifier parses "enum [tag] [{ enumerator-list }]" (spec
// §4.5/§4.4), registering each enumerator as a SymEnumConst in the current
// scope's variable map.
func (p *parser) parseEnumSpecifier() *types.Type {
	p.advance() // consume 'enum'

	var tag string
	if p.kind == token.IDENT {
		tag = p.tok.Lit
		p.advance()
	}

	var e *types.Type
	if tag != "" {
		if existing, ok := p.scope.LookupTag(tag); ok {
			e = existing
		}
	}
	if e == nil {
		e = types.NewEnumDecl(tag)
		if tag != "" {
			p.scope.DefineTag(tag, e)
		}
	}

	if p.kind != token.LBRACE {
		return e
	}
	p.advance()

	var consts []types.EnumConst
	next := int64(0)
	for p.kind != token.RBRACE && p.kind != token.EOF {
		name := p.tok.Lit
		namePos := p.expect(token.IDENT)
		val := next
		if p.kind == token.ASSIGN {
			p.advance()
			if v, ok := p.constIntExpr(); ok {
				val = v
			} else {
				p.error(namePos, "enumerator %q is not a compile-time constant", name)
			}
		}
		consts = append(consts, types.EnumConst{Name: name, Value: val})
		p.scope.DefineVar(&Symbol{Kind: SymEnumConst, Name: name, Type: e, Value: val})
		next = val + 1
		if p.kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	types.CompleteEnum(e, consts)
	return e
}

// constIntExpr parses an expression at assignment-expression precedence and
// folds it as a compile-time integer constant, reporting a diagnostic via
// the constant evaluator's AddFunc contract on failure.
func (p *parser) constIntExpr() (int64, bool) {
	e := p.parseAssignExpr()
	v, ok := constant.Eval(e, p, func(e ast.Expr, format string, args ...any) {
		start, _ := e.Span()
		p.error(start, format, args...)
	})
	if !ok || v.Kind != constant.Int {
		return 0, false
	}
	return v.IntVal, true
}

// pointers consumes a run of leading '*' (with optional qualifier lists),
// wrapping base in a pointer type for each one (spec §4.5's declarator
// pointer handling).
func (p *parser) pointers(base *types.Type) *types.Type {
	t := base
	for p.kind == token.STAR {
		p.advance()
		t = types.NewPointer(t)
		for p.at(token.CONST, token.VOLATILE, token.RESTRICT) {
			if p.kind == token.CONST {
				t.Const = true
			}
			if p.kind == token.VOLATILE {
				t.Volatile = true
			}
			if p.kind == token.RESTRICT {
				t.Restrict = true
			}
			p.advance()
		}
	}
	return t
}

// parseDeclarator parses a full declarator (spec §4.5): an optional
// pointer prefix, a direct-declarator (a name, or a parenthesized
// sub-declarator), and any array/function suffixes, returning the
// completed type, the declared name (empty for an abstract declarator),
// its position, and (for a function declarator) its parameter list.
func (p *parser) parseDeclarator(base *types.Type) (t *types.Type, name string, namePos token.Pos, params []ast.Param) {
	t = p.pointers(base)

	if p.kind == token.LPAREN {
		// A '(' here always opens a grouped sub-declarator: the check below
		// tests the '(' itself, not the token after it, so a parameter list
		// directly at the start of an abstract declarator (e.g. "int (int)")
		// is not recognised.
		if p.at(token.STAR, token.IDENT, token.LPAREN) {
			placeholder := &types.Type{}
			p.advance() // consume '('
			innerTy, innerName, innerPos, innerParams := p.parseDeclarator(placeholder)
			p.expect(token.RPAREN)
			suffixTy, suffixParams := p.typeSuffix(t)
			*placeholder = *suffixTy
			name, namePos, params = innerName, innerPos, innerParams
			if suffixParams != nil {
				params = suffixParams
			}
			t = innerTy
			return t, name, namePos, params
		}
	}

	if p.kind == token.IDENT {
		name = p.tok.Lit
		namePos = p.tok.Pos
		p.advance()
	}

	t, params = p.typeSuffix(t)
	return t, name, namePos, params
}

// typeSuffix parses the zero or more array/function suffixes of a direct
// declarator, wrapping base from the innermost dimension outward so that
// "a[3][4]" parses as "array of 3 of (array of 4 of T)", matching C's
// declarator-suffix binding order (spec §4.5).
func (p *parser) typeSuffix(base *types.Type) (*types.Type, []ast.Param) {
	switch p.kind {
	case token.LBRACK:
		return p.arrayDimension(base), nil
	case token.LPAREN:
		p.advance()
		params, variadic := p.paramList()
		p.expect(token.RPAREN)
		names := make([]string, len(params))
		paramTypes := make([]*types.Type, len(params))
		for i, pr := range params {
			names[i] = pr.Name
			paramTypes[i] = pr.Type
		}
		return &types.Type{Kind: types.Func, Return: base, Params: paramTypes, ParamNames: names, Variadic: variadic}, params
	default:
		return base, nil
	}
}

func (p *parser) arrayDimension(base *types.Type) *types.Type {
	p.advance() // consume '['
	if p.kind == token.RBRACK {
		p.advance()
		elem, _ := p.typeSuffix(base)
		return types.NewArray(elem, -1)
	}
	length, ok := p.constIntExpr()
	p.expect(token.RBRACK)
	elem, _ := p.typeSuffix(base)
	if !ok {
		return types.NewVLAArray(elem)
	}
	return types.NewArray(elem, int(length))
}

// paramList parses a function declarator's parameter-type-list: an empty
// "()" is an old-style unspecified parameter list, "(void)" means no
// parameters, and "..." marks a variadic function (spec §4.5: "'...' marks
// vararg and requires at least one named parameter").
func (p *parser) paramList() ([]ast.Param, bool) {
	if p.kind == token.RPAREN {
		return nil, false
	}
	if p.kind == token.VOID {
		// lookahead: "(void)" means no params, but "void *x" is a real
		// parameter; the pull-only token source has no rewind, so resume
		// parsing the first parameter's declarator directly against
		// VoidType once 'void' turns out not to stand alone.
		p.advance()
		if p.kind == token.RPAREN {
			return nil, false
		}
		return p.paramListFrom(types.VoidType)
	}

	var params []ast.Param
	variadic := false
	for {
		if p.kind == token.ELLIPSIS {
			p.advance()
			variadic = true
			break
		}
		params = append(params, p.parseParamDecl())
		if p.kind != token.COMMA {
			break
		}
		p.advance()
	}
	return params, variadic
}

// paramListFrom resumes parameter-list parsing when the lookahead for
// "(void)" consumed a leading 'void' that turned out to belong to a real
// first parameter (e.g. "void *p"); base is that parameter's already-parsed
// type-specifier (always VoidType, the only specifier this lookahead ever
// consumes).
func (p *parser) paramListFrom(base *types.Type) ([]ast.Param, bool) {
	t, name, pos, _ := p.parseDeclarator(base)
	params := []ast.Param{{Name: name, Type: decayParam(t), Pos: pos}}
	for p.kind == token.COMMA {
		p.advance()
		if p.kind == token.ELLIPSIS {
			p.advance()
			return params, true
		}
		params = append(params, p.parseParamDecl())
	}
	return params, false
}

func (p *parser) parseParamDecl() ast.Param {
	spec := p.parseDeclSpecs()
	t, name, pos, _ := p.parseDeclarator(spec.base)
	return ast.Param{Name: name, Type: decayParam(t), Pos: pos}
}

// decayParam applies parameter-position decay (spec §4.5): arrays decay to
// a pointer to their element type, and functions decay to a pointer to
// function.
func decayParam(t *types.Type) *types.Type {
	switch t.Kind {
	case types.Array:
		return types.NewPointer(t.Elem)
	case types.Func:
		return types.NewPointer(t)
	default:
		return t
	}
}

// parseExternalDecl parses one top-level declaration or function
// definition (spec §4.5), recovering to the next declaration boundary on a
// parse error.
func (p *parser) parseExternalDecl() (decl ast.Decl) {
	start := p.tok.Pos
	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				decl = &ast.BadDecl{Start: start, End: p.syncDecl()}
				return
			}
			panic(err)
		}
	}()

	spec := p.parseDeclSpecs()

	if p.kind == token.SEMI {
		end := p.tok.Pos
		p.advance()
		if spec.base != nil && (spec.base.Kind == types.Struct || spec.base.Kind == types.Union || spec.base.Kind == types.Enum) {
			return &ast.RecordDecl{Type: spec.base, StartPos: start, EndPos: end}
		}
		return &ast.BadDecl{Start: start, End: end}
	}

	t, name, namePos, params := p.parseDeclarator(spec.base)

	if spec.storage == token.TYPEDEF {
		p.scope.DefineVar(&Symbol{Kind: SymTypedef, Name: name, Type: t})
		for p.kind == token.COMMA {
			p.advance()
			declStart := p.tok.Pos
			t2, name2, _, _ := p.parseDeclarator(spec.base)
			p.scope.DefineVar(&Symbol{Kind: SymTypedef, Name: name2, Type: t2})
			p.pending = append(p.pending, &ast.TypedefDecl{
				Name: name2, Type: t2, StartPos: declStart, EndPos: p.tok.Pos,
			})
		}
		end := p.expect(token.SEMI)
		return &ast.TypedefDecl{Name: name, Type: t, StartPos: start, EndPos: end}
	}

	if t.Kind == types.Func && p.kind == token.LBRACE {
		linkage := ast.ExternalLinkage
		if spec.storage == token.STATIC {
			linkage = ast.InternalLinkage
		}
		p.globals.Put(name, t)
		p.scope.DefineVar(&Symbol{Kind: SymFunc, Name: name, Type: t})

		fnScope := p.scope.Push(BlockScope)
		fnScope.Func = t
		prev := p.scope
		p.scope = fnScope
		for i, prm := range params {
			if prm.Name == "" {
				continue
			}
			p.scope.DefineVar(&Symbol{Kind: SymVar, Name: prm.Name, Type: prm.Type})
			params[i] = prm
		}
		body := p.parseCompoundStmtIn(fnScope)
		p.scope = prev

		return &ast.FuncDecl{
			Name: name, Type: t, Params: params, Linkage: linkage,
			Inline: spec.inline, Body: body, StartPos: start, EndPos: p.tok.Pos,
		}
	}

	// one or more (possibly initialized) variable declarators, or a bare
	// function prototype.
	linkage := ast.ExternalLinkage
	if spec.storage == token.STATIC {
		linkage = ast.InternalLinkage
	}
	if t.Kind == types.Func {
		p.globals.Put(name, t)
		p.scope.DefineVar(&Symbol{Kind: SymFunc, Name: name, Type: t})
	} else {
		p.globals.Put(name, t)
		p.scope.DefineVar(&Symbol{Kind: SymVar, Name: name, Type: t})
	}

	var init ast.Expr
	if p.kind == token.ASSIGN {
		p.advance()
		init = p.parseInitializer(t)
	}
	first := &ast.VarDecl{Name: name, Type: t, Linkage: linkage, Init: init, StartPos: start, EndPos: p.tok.Pos}
	if t.Kind == types.Array && t.ArrayLen < 0 {
		if lit, ok := init.(*ast.InitListExpr); ok {
			t.ArrayLen = len(lit.Elems)
		} else if str, ok := init.(*ast.StringLitExpr); ok {
			t.ArrayLen = len(str.Value) + 1
		}
	}

	if p.kind != token.COMMA {
		end := p.expect(token.SEMI)
		first.EndPos = end
		return first
	}

	// "int a = 1, b, *c;"-style multi-declarator declaration: the first
	// declarator is returned directly, the rest are queued onto p.pending
	// for parseTranslationUnit to append right after it (spec §4.5 treats
	// each declarator as its own declaration once parsed).
	for p.kind == token.COMMA {
		p.advance()
		declStart := p.tok.Pos
		t2, name2, _, _ := p.parseDeclarator(spec.base)
		p.globals.Put(name2, t2)
		p.scope.DefineVar(&Symbol{Kind: SymVar, Name: name2, Type: t2})
		var init2 ast.Expr
		if p.kind == token.ASSIGN {
			p.advance()
			init2 = p.parseInitializer(t2)
		}
		p.pending = append(p.pending, &ast.VarDecl{
			Name: name2, Type: t2, Linkage: linkage, Init: init2,
			StartPos: declStart, EndPos: p.tok.Pos,
		})
	}
	end := p.expect(token.SEMI)
	first.EndPos = end
	return first
}
