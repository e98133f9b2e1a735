package parser

import (
	"cosec/lang/ast"
	"cosec/lang/token"
	"cosec/lang/types"
)

// parseCompoundStmtIn parses "{ ... }" using scope as the block's already-
// pushed scope (the caller pushes it, since a function body's scope must
// also hold the parameter bindings installed before the first statement is
// parsed, spec §4.5).
func (p *parser) parseCompoundStmtIn(scope *Scope) *ast.CompoundStmt {
	lbrace := p.expect(token.LBRACE)
	cs := &ast.CompoundStmt{Lbrace: lbrace}
	prev := p.scope
	p.scope = scope
	for p.kind != token.RBRACE && p.kind != token.EOF {
		cs.Stmts = append(cs.Stmts, p.parseBlockItem())
		// a comma-separated local declaration (e.g. "int a, b;") queues its
		// 2nd-and-later declarators onto p.pending; splice them in as
		// sibling DeclStmts, mirroring parseTranslationUnit's drain.
		for _, d := range p.pending {
			cs.Stmts = append(cs.Stmts, &ast.DeclStmt{Decl: d})
		}
		p.pending = nil
	}
	p.scope = prev
	cs.Rbrace = p.expect(token.RBRACE)
	return cs
}

// parseCompoundStmt parses "{ ... }", pushing a fresh block scope.
func (p *parser) parseCompoundStmt() *ast.CompoundStmt {
	return p.parseCompoundStmtIn(p.scope.Push(BlockScope))
}

// parseBlockItem parses one declaration-or-statement inside a compound
// statement's body (spec §4.5's "declarations may be interleaved with
// statements"), recovering to the next statement boundary on error.
func (p *parser) parseBlockItem() (stmt ast.Stmt) {
	start := p.tok.Pos
	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				stmt = &ast.BadStmt{Start: start, End: p.syncStmt()}
				return
			}
			panic(err)
		}
	}()

	if p.isTypeStart() {
		d := p.parseLocalDecl()
		return &ast.DeclStmt{Decl: d}
	}
	return p.parseStmt()
}

// parseLocalDecl parses a block-scope declaration (spec §4.5): like
// parseExternalDecl but without function-definition handling, and
// registering names in the current (block) scope rather than p.globals.
func (p *parser) parseLocalDecl() ast.Decl {
	start := p.tok.Pos
	spec := p.parseDeclSpecs()

	if p.kind == token.SEMI {
		end := p.tok.Pos
		p.advance()
		return &ast.RecordDecl{Type: spec.base, StartPos: start, EndPos: end}
	}

	t, name, _, _ := p.parseDeclarator(spec.base)

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

	linkage := ast.NoLinkage
	if spec.storage == token.EXTERN {
		linkage = ast.ExternalLinkage
	}
	p.scope.DefineVar(&Symbol{Kind: SymVar, Name: name, Type: t})

	var init ast.Expr
	if p.kind == token.ASSIGN {
		p.advance()
		init = p.parseInitializer(t)
	}
	if t.Kind == types.Array && t.ArrayLen < 0 {
		if lit, ok := init.(*ast.InitListExpr); ok {
			t.ArrayLen = len(lit.Elems)
		} else if str, ok := init.(*ast.StringLitExpr); ok {
			t.ArrayLen = len(str.Value) + 1
		}
	}
	first := &ast.VarDecl{
		Name: name, Type: t, Linkage: linkage, Static: spec.storage == token.STATIC,
		Init: init, StartPos: start, EndPos: p.tok.Pos,
	}

	// further comma-separated declarators are queued onto p.pending, same
	// as a top-level multi-declarator declaration; parseCompoundStmtIn (or
	// parseForStmt, for a for-init) drains them into sibling DeclStmts.
	for p.kind == token.COMMA {
		p.advance()
		declStart := p.tok.Pos
		t2, name2, _, _ := p.parseDeclarator(spec.base)
		p.scope.DefineVar(&Symbol{Kind: SymVar, Name: name2, Type: t2})
		var init2 ast.Expr
		if p.kind == token.ASSIGN {
			p.advance()
			init2 = p.parseInitializer(t2)
		}
		p.pending = append(p.pending, &ast.VarDecl{
			Name: name2, Type: t2, Linkage: linkage, Static: spec.storage == token.STATIC,
			Init: init2, StartPos: declStart, EndPos: p.tok.Pos,
		})
	}
	end := p.expect(token.SEMI)
	first.EndPos = end
	return first
}

// parseStmt parses one statement (spec §4.5).
func (p *parser) parseStmt() ast.Stmt {
	switch p.kind {
	case token.LBRACE:
		return p.parseCompoundStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.DO:
		return p.parseDoWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.SWITCH:
		return p.parseSwitchStmt()
	case token.CASE:
		return p.parseCaseStmt()
	case token.DEFAULT:
		return p.parseDefaultStmt()
	case token.BREAK:
		pos := p.tok.Pos
		p.advance()
		p.expect(token.SEMI)
		if p.scope.EnclosingLoopOrSwitch() == nil {
			p.error(pos, "'break' outside of a loop or switch")
		}
		return &ast.BreakStmt{Pos: pos}
	case token.CONTINUE:
		pos := p.tok.Pos
		p.advance()
		p.expect(token.SEMI)
		if p.scope.EnclosingLoop() == nil {
			p.error(pos, "'continue' outside of a loop")
		}
		return &ast.ContinueStmt{Pos: pos}
	case token.RETURN:
		return p.parseReturnStmt()
	case token.GOTO:
		gotoPos := p.tok.Pos
		p.advance()
		label := p.tok.Lit
		p.expect(token.IDENT)
		semi := p.expect(token.SEMI)
		return &ast.GotoStmt{Goto: gotoPos, Label: label, Semi: semi}
	case token.SEMI:
		pos := p.tok.Pos
		p.advance()
		return &ast.EmptyStmt{Semi: pos}
	case token.IDENT:
		if p.scope.IsTypedefName(p.tok.Lit) {
			break // falls through to the expression-statement default below only if not a label
		}
		return p.parseIdentLeadStmt()
	}
	return p.parseExprStmt()
}

// parseIdentLeadStmt disambiguates "label:" from an expression-statement
// starting with an identifier, which needs one token of lookahead past the
// identifier; since the token source can't rewind, the identifier is
// consumed and, if not followed by ':', handed to the expression parser's
// postfix chain as if it were the already-parsed primary.
func (p *parser) parseIdentLeadStmt() ast.Stmt {
	name := p.tok.Lit
	pos := p.tok.Pos
	p.advance()
	if p.kind == token.COLON {
		colon := p.tok.Pos
		p.advance()
		inner := p.parseStmt()
		return &ast.LabeledStmt{Label: name, Pos: pos, Colon: colon, Stmt: inner}
	}

	ie := &ast.IdentExpr{Name: name, Pos: pos}
	if sym, ok := p.scope.LookupVar(name); ok {
		ie.SetResolvedType(sym.Type)
	} else {
		p.error(pos, "undeclared identifier %q", name)
		ie.SetResolvedType(types.IntType)
	}
	e := p.continueExprFrom(ie)
	semi := p.expect(token.SEMI)
	return &ast.ExprStmt{X: e, Semi: semi}
}

// continueExprFrom resumes expression parsing from an already-built
// primary expression, applying the postfix chain and then every higher
// grammar level above it (binary operators, assignment, comma), used when
// a leading identifier had to be consumed before deciding it wasn't a
// label.
func (p *parser) continueExprFrom(primary ast.Expr) ast.Expr {
	e := p.parsePostfixTail(primary)
	e = p.continueBinaryFrom(e)
	if p.kind == token.QUESTION {
		qpos := p.tok.Pos
		p.advance()
		then := p.parseExpr()
		cpos := p.expect(token.COLON)
		els := p.parseCondExpr()
		ce := &ast.CondExpr{Cond: e, Question: qpos, Then: then, Colon: cpos, Else: els}
		ce.SetResolvedType(usualArith(then.ResolvedType(), els.ResolvedType()))
		e = ce
	}
	if p.kind == token.ASSIGN || p.kind.IsAugBinop() {
		op := p.kind
		pos := p.tok.Pos
		if !ast.IsAssignable(e) {
			p.error(pos, "left-hand side of assignment is not assignable")
		}
		p.advance()
		right := p.parseAssignExpr()
		ae := &ast.AssignExpr{Left: e, Op: op, OpPos: pos, Right: right}
		ae.SetResolvedType(e.ResolvedType())
		e = ae
	}
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

// continueBinaryFrom folds e into every left-associative binary-operator
// level (spec §4.5's precedence ladder from multiplicative through
// logical-or), mirroring the binL chain but starting from an
// already-parsed left operand instead of calling next() for it.
func (p *parser) continueBinaryFrom(e ast.Expr) ast.Expr {
	levels := [][]token.Token{
		{token.STAR, token.SLASH, token.PCT},
		{token.PLUS, token.MINUS},
		{token.SHL, token.SHR},
		{token.LT, token.GT, token.LE, token.GE},
		{token.EQ, token.NE},
		{token.AMP},
		{token.CARET},
		{token.PIPE},
		{token.LAND},
		{token.LOR},
	}
	nexts := []func() ast.Expr{
		p.parseCast, p.parseMultiplicative, p.parseAdditive, p.parseShift,
		p.parseRelational, p.parseEquality, p.parseBitAnd, p.parseBitXor, p.parseBitOr, p.parseLogAnd,
	}
	for i, ops := range levels {
		for p.at(ops...) {
			op := p.kind
			pos := p.tok.Pos
			p.advance()
			right := nexts[i]()
			be := &ast.BinaryExpr{Left: e, Op: op, OpPos: pos, Right: right}
			be.SetResolvedType(resultTypeOf(op, e.ResolvedType(), right.ResolvedType()))
			e = be
		}
	}
	return e
}

func (p *parser) parseExprStmt() ast.Stmt {
	e := p.parseExpr()
	semi := p.expect(token.SEMI)
	return &ast.ExprStmt{X: e, Semi: semi}
}

func (p *parser) parseIfStmt() ast.Stmt {
	ifPos := p.tok.Pos
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseStmt()
	var els ast.Stmt
	if p.kind == token.ELSE {
		p.advance()
		els = p.parseStmt()
	}
	_, end := then.Span()
	if els != nil {
		_, end = els.Span()
	}
	return &ast.IfStmt{If: ifPos, Cond: cond, Then: then, Else: els, EndPos: end}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	whilePos := p.tok.Pos
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	loopScope := p.scope.Push(LoopScope)
	prev := p.scope
	p.scope = loopScope
	body := p.parseStmt()
	p.scope = prev
	_, end := body.Span()
	return &ast.WhileStmt{While: whilePos, Cond: cond, Body: body, EndPos: end}
}

func (p *parser) parseDoWhileStmt() ast.Stmt {
	doPos := p.tok.Pos
	p.advance()
	loopScope := p.scope.Push(LoopScope)
	prev := p.scope
	p.scope = loopScope
	body := p.parseStmt()
	p.scope = prev
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	semi := p.expect(token.SEMI)
	return &ast.DoWhileStmt{Do: doPos, Body: body, Cond: cond, Semi: semi}
}

func (p *parser) parseForStmt() ast.Stmt {
	forPos := p.tok.Pos
	p.advance()
	p.expect(token.LPAREN)

	loopScope := p.scope.Push(LoopScope)
	prev := p.scope
	p.scope = loopScope

	var init ast.Stmt
	if p.kind != token.SEMI {
		if p.isTypeStart() {
			declPos := p.tok.Pos
			first := &ast.DeclStmt{Decl: p.parseLocalDecl()}
			if len(p.pending) == 0 {
				init = first
			} else {
				// "for (int i = 0, j = 0; ...)": Init holds a single Stmt, so a
				// multi-declarator init is wrapped in a synthetic block, matching
				// the scoping parseLocalDecl already established in loopScope.
				block := &ast.CompoundStmt{Lbrace: declPos, Stmts: []ast.Stmt{first}}
				for _, d := range p.pending {
					block.Stmts = append(block.Stmts, &ast.DeclStmt{Decl: d})
				}
				p.pending = nil
				block.Rbrace = p.tok.Pos
				init = block
			}
		} else {
			init = p.parseExprStmt()
		}
	} else {
		p.advance()
	}

	var cond ast.Expr
	if p.kind != token.SEMI {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var post ast.Expr
	if p.kind != token.RPAREN {
		post = p.parseExpr()
	}
	p.expect(token.RPAREN)

	body := p.parseStmt()
	p.scope = prev
	_, end := body.Span()
	return &ast.ForStmt{For: forPos, Init: init, Cond: cond, Post: post, Body: body, EndPos: end}
}

func (p *parser) parseSwitchStmt() ast.Stmt {
	switchPos := p.tok.Pos
	p.advance()
	p.expect(token.LPAREN)
	tag := p.parseExpr()
	p.expect(token.RPAREN)

	switchScope := p.scope.Push(SwitchScope)
	prev := p.scope
	p.scope = switchScope
	body := p.parseStmt()
	p.scope = prev

	_, end := body.Span()
	return &ast.SwitchStmt{Switch: switchPos, Tag: tag, Body: body, EndPos: end}
}

func (p *parser) parseCaseStmt() ast.Stmt {
	casePos := p.tok.Pos
	p.advance()
	sw := p.scope.EnclosingSwitch()
	if sw == nil {
		p.error(casePos, "'case' outside of a switch")
	}
	val, _ := p.constIntExpr()
	colon := p.expect(token.COLON)
	if sw != nil {
		for _, c := range sw.Cases {
			if !c.IsDefault && c.Value == val {
				p.error(casePos, "duplicate case value %d", val)
				break
			}
		}
		sw.Cases = append(sw.Cases, CaseEntry{Value: val})
	}
	return &ast.CaseStmt{Case: casePos, Value: intLitFor(val, casePos), Colon: colon}
}

func (p *parser) parseDefaultStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance()
	sw := p.scope.EnclosingSwitch()
	if sw == nil {
		p.error(pos, "'default' outside of a switch")
	}
	colon := p.expect(token.COLON)
	if sw != nil {
		for _, c := range sw.Cases {
			if c.IsDefault {
				p.error(pos, "duplicate 'default' label")
				break
			}
		}
		sw.Cases = append(sw.Cases, CaseEntry{IsDefault: true})
	}
	return &ast.DefaultStmt{Default: pos, Colon: colon}
}

// intLitFor wraps an already-folded constant case value back into an
// IntLitExpr so ast.CaseStmt (which stores Value as an Expr for uniformity
// with a general constant-expression grammar) has something to hold.
func intLitFor(v int64, pos token.Pos) ast.Expr {
	e := &ast.IntLitExpr{Value: v, Pos: pos}
	e.SetResolvedType(types.IntType)
	return e
}

func (p *parser) parseReturnStmt() ast.Stmt {
	pos := p.tok.Pos
	p.advance()
	var x ast.Expr
	if p.kind != token.SEMI {
		x = p.parseExpr()
	}
	semi := p.expect(token.SEMI)

	if fn := p.scope.Func; fn != nil {
		if fn.Return != nil && fn.Return.Kind == types.Void && x != nil {
			p.error(pos, "'return' with a value in a function returning void")
		}
		if fn.Return != nil && fn.Return.Kind != types.Void && x == nil {
			p.error(pos, "'return' with no value in a function returning %s", fn.Return.String())
		}
	}
	return &ast.ReturnStmt{Return: pos, X: x, Semi: semi}
}
