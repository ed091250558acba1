package parser

import (
	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/token"
)

// parseBlock parses a sequence of statements up to (but not consuming) a
// block-following token: end, else, elseif, until, or eof. A return
// statement, if present, must be the last one and ends the block early.
func (p *parser) parseBlock() *ast.Block {
	b := &ast.Block{Start: p.val.Pos}
	for !isBlockFollow(p.tok) {
		if p.tok == token.RETURN {
			b.Stmts = append(b.Stmts, p.parseReturn())
			break
		}
		if s := p.parseStatement(); s != nil {
			b.Stmts = append(b.Stmts, s)
			if s.BlockEnding() {
				break
			}
		}
	}
	b.End = p.val.Pos
	return b
}

// parseStatement parses one statement, recovering a single BadStmt if a
// panic-mode error was raised while parsing it.
func (p *parser) parseStatement() (stmt ast.Stmt) {
	start := p.val.Pos
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			p.syncToStatement()
			stmt = &ast.BadStmt{Start: start, End: p.val.Pos}
		}
	}()

	switch p.tok {
	case token.SEMI:
		p.advance()
		return nil
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDo()
	case token.FOR:
		return p.parseFor()
	case token.REPEAT:
		return p.parseRepeat()
	case token.FUNCTION:
		return p.parseFuncStmt()
	case token.LOCAL:
		return p.parseLocal()
	case token.BREAK:
		pos := p.val.Pos
		p.advance()
		if !p.inLoop() {
			p.error(pos, "break outside a loop")
		}
		return &ast.BreakStmt{Start: pos}
	case token.DBCOLON, token.GOTO:
		p.errorf(p.val.Pos, "labels and goto are not supported")
		panic(errPanicMode)
	default:
		return p.parseExprOrAssignStatement()
	}
}

// syncToStatement consumes tokens until a position a new statement could
// plausibly start at, so a single malformed statement does not cascade into
// spurious errors for the rest of the block.
func (p *parser) syncToStatement() {
	for {
		switch p.tok {
		case token.EOF, token.SEMI, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
			return
		case token.IF, token.WHILE, token.DO, token.FOR, token.REPEAT,
			token.FUNCTION, token.LOCAL, token.BREAK, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *parser) parseDo() ast.Stmt {
	doPos := p.expect(token.DO)
	body := p.parseBlock()
	endPos := p.expect(token.END)
	return &ast.DoStmt{Do: doPos, Body: body, End: endPos}
}

func (p *parser) parseWhile() ast.Stmt {
	whilePos := p.expect(token.WHILE)
	cond := p.parseExpr()
	doPos := p.expect(token.DO)
	p.pushBlock(true)
	body := p.parseBlock()
	p.popBlock()
	endPos := p.expect(token.END)
	return &ast.WhileStmt{While: whilePos, Cond: cond, Do: doPos, Body: body, End: endPos}
}

func (p *parser) parseRepeat() ast.Stmt {
	repeatPos := p.expect(token.REPEAT)
	p.pushBlock(true)
	body := p.parseBlock()
	untilPos := p.expect(token.UNTIL)
	cond := p.parseExpr()
	p.popBlock()
	return &ast.RepeatStmt{Repeat: repeatPos, Body: body, Until: untilPos, Cond: cond}
}

func (p *parser) parseIf() ast.Stmt {
	ifPos := p.expect(token.IF)
	return p.parseIfRest(ifPos, true)
}

// parseIfRest parses the condition/then/body common to if and elseif, and
// recurses into itself for an elseif, wrapping it in a single-statement
// block so *ast.IfStmt represents the whole chain.
func (p *parser) parseIfRest(ifPos token.Pos, outermost bool) ast.Stmt {
	cond := p.parseExpr()
	thenPos := p.expect(token.THEN)
	trueBlock := p.parseBlock()

	n := &ast.IfStmt{If: ifPos, Cond: cond, Then: thenPos, True: trueBlock}
	switch p.tok {
	case token.ELSEIF:
		elsePos := p.val.Pos
		elseifPos := p.expect(token.ELSEIF)
		n.ElsePos = elsePos
		inner := p.parseIfRest(elseifPos, false)
		n.False = &ast.Block{Start: elseifPos, End: elseifPos, Stmts: []ast.Stmt{inner}}
	case token.ELSE:
		elsePos := p.expect(token.ELSE)
		n.ElsePos = elsePos
		n.False = p.parseBlock()
	}
	if outermost {
		n.End = p.expect(token.END)
	}
	return n
}

func (p *parser) parseFor() ast.Stmt {
	forPos := p.expect(token.FOR)
	name := p.parseIdent()
	if p.tok == token.EQ {
		return p.parseNumericFor(forPos, name)
	}
	return p.parseGenericFor(forPos, name)
}

func (p *parser) parseNumericFor(forPos token.Pos, name *ast.IdentExpr) ast.Stmt {
	p.expect(token.EQ)
	start := p.parseExpr()
	p.expect(token.COMMA)
	stop := p.parseExpr()
	var step ast.Expr
	if p.accept(token.COMMA) {
		step = p.parseExpr()
	}
	doPos := p.expect(token.DO)
	p.pushBlock(true)
	body := p.parseBlock()
	p.popBlock()
	endPos := p.expect(token.END)
	return &ast.NumericForStmt{
		For: forPos, Name: name, Start: start, Stop: stop, Step: step,
		Do: doPos, Body: body, End: endPos,
	}
}

func (p *parser) parseGenericFor(forPos token.Pos, first *ast.IdentExpr) ast.Stmt {
	names := []*ast.IdentExpr{first}
	for p.accept(token.COMMA) {
		names = append(names, p.parseIdent())
	}
	inPos := p.expect(token.IN)
	exprs := p.parseExprList()
	doPos := p.expect(token.DO)
	p.pushBlock(true)
	body := p.parseBlock()
	p.popBlock()
	endPos := p.expect(token.END)
	return &ast.GenericForStmt{
		For: forPos, Names: names, In: inPos, Exprs: exprs,
		Do: doPos, Body: body, End: endPos,
	}
}

func (p *parser) parseFuncStmt() ast.Stmt {
	fnPos := p.expect(token.FUNCTION)
	name := ast.Expr(p.parseIdent())
	isMethod := false
	for p.tok == token.DOT || p.tok == token.COLON {
		isColon := p.tok == token.COLON
		dotPos := p.val.Pos
		p.advance()
		field := p.parseIdent()
		name = &ast.DotExpr{Left: name, Dot: dotPos, Right: field}
		if isColon {
			isMethod = true
			break
		}
	}
	lparen, params, isVararg, rparen, body, end := p.parseFuncBody()
	return &ast.FuncStmt{
		Fn: fnPos, Name: name, IsMethod: isMethod,
		Lparen: lparen, Params: params, IsVararg: isVararg, Rparen: rparen,
		Body: body, End: end,
	}
}

// parseFuncBody parses the (params) block end common to function
// statements and function literals.
func (p *parser) parseFuncBody() (lparen token.Pos, params []*ast.IdentExpr, isVararg bool, rparen token.Pos, body *ast.Block, end token.Pos) {
	lparen = p.expect(token.LPAREN)
	for p.tok != token.RPAREN {
		if p.tok == token.ELLIPSIS {
			p.advance()
			isVararg = true
			break
		}
		params = append(params, p.parseIdent())
		if !p.accept(token.COMMA) {
			break
		}
	}
	rparen = p.expect(token.RPAREN)
	body = p.parseBlock()
	end = p.expect(token.END)
	return
}

func (p *parser) parseLocal() ast.Stmt {
	localPos := p.expect(token.LOCAL)
	if p.accept(token.FUNCTION) {
		name := p.parseIdent()
		lparen, params, isVararg, rparen, body, end := p.parseFuncBody()
		fn := &ast.FuncExpr{Fn: localPos, Lparen: lparen, Params: params, IsVararg: isVararg, Rparen: rparen, Body: body, End: end}
		return &ast.LocalStmt{Local: localPos, Names: []*ast.IdentExpr{name}, Assign: localPos, Right: []ast.Expr{fn}}
	}

	names := []*ast.IdentExpr{p.parseIdentWithAttrib()}
	for p.accept(token.COMMA) {
		names = append(names, p.parseIdentWithAttrib())
	}
	var assign token.Pos
	var right []ast.Expr
	if p.tok == token.EQ {
		assign = p.val.Pos
		p.advance()
		right = p.parseExprList()
	}
	return &ast.LocalStmt{Local: localPos, Names: names, Assign: assign, Right: right}
}

// parseIdentWithAttrib parses a local variable name, discarding a Lua 5.4
// style <attrib> annotation if present: attributes change runtime closing
// semantics this compiler does not model, but the syntax is still accepted.
func (p *parser) parseIdentWithAttrib() *ast.IdentExpr {
	name := p.parseIdent()
	if p.accept(token.LT) {
		p.expect(token.IDENT)
		p.expect(token.GT)
	}
	return name
}

func (p *parser) parseReturn() ast.Stmt {
	retPos := p.expect(token.RETURN)
	var exprs []ast.Expr
	if !isBlockFollow(p.tok) && p.tok != token.SEMI {
		exprs = p.parseExprList()
	}
	p.accept(token.SEMI)
	return &ast.ReturnStmt{Return: retPos, Exprs: exprs}
}

// parseExprOrAssignStatement parses a statement that starts with a prefix
// expression: either a bare call used as a statement, or an assignment with
// one or more comma-separated targets.
func (p *parser) parseExprOrAssignStatement() ast.Stmt {
	first := p.parseSuffixedExpr()
	if p.tok != token.EQ && p.tok != token.COMMA {
		if !isCallExpr(first) {
			p.errorf(p.val.Pos, "syntax error: expected call or assignment")
			panic(errPanicMode)
		}
		return &ast.ExprStmt{Expr: first}
	}

	targets := []ast.Expr{first}
	for p.accept(token.COMMA) {
		e := p.parseSuffixedExpr()
		if !ast.IsAssignable(e) {
			start, _ := e.Span()
			p.error(start, "cannot assign to this expression")
		}
		targets = append(targets, e)
	}
	if !ast.IsAssignable(first) {
		start, _ := first.Span()
		p.error(start, "cannot assign to this expression")
	}
	assign := p.expect(token.EQ)
	right := p.parseExprList()
	return &ast.AssignStmt{Left: targets, Assign: assign, Right: right}
}

func isCallExpr(e ast.Expr) bool {
	switch e.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		return true
	default:
		return false
	}
}

func (p *parser) parseIdent() *ast.IdentExpr {
	pos := p.val.Pos
	lit := p.val.Raw
	p.expect(token.IDENT)
	return &ast.IdentExpr{Start: pos, Lit: lit}
}
