package parser

import (
	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/token"
)

// unaryPriority is the binding power of a prefix unary operator: higher
// than every binary operator except "^", so "-x^2" parses as "-(x^2)".
const unaryPriority = 12

type binPrio struct{ left, right int }

// binPriorities mirrors lparser.c's priority table: most operators are left
// associative (left == right), while ".." and "^" are right associative
// (right < left).
var binPriorities = map[token.Token]binPrio{
	token.OR:         {1, 1},
	token.AND:        {2, 2},
	token.LT:         {3, 3},
	token.GT:         {3, 3},
	token.LE:         {3, 3},
	token.GE:         {3, 3},
	token.NEQ:        {3, 3},
	token.EQL:        {3, 3},
	token.PIPE:       {4, 4},
	token.TILDE:      {5, 5},
	token.AMPERSAND:  {6, 6},
	token.LTLT:       {7, 7},
	token.GTGT:       {7, 7},
	token.CONCAT:     {9, 8},
	token.PLUS:       {10, 10},
	token.MINUS:      {10, 10},
	token.STAR:       {11, 11},
	token.SLASH:      {11, 11},
	token.SLASHSLASH: {11, 11},
	token.PERCENT:    {11, 11},
	token.CIRCUMFLEX: {14, 13},
}

func isUnaryOp(tok token.Token) bool {
	switch tok {
	case token.NOT, token.MINUS, token.HASH, token.TILDE:
		return true
	default:
		return false
	}
}

// parseExpr parses an expression, consuming binary operators whose left
// priority exceeds limit: the standard precedence-climbing scheme, with
// limit 0 for a top-level expression.
func (p *parser) parseExpr() ast.Expr { return p.parseExprPrec(0) }

func (p *parser) parseExprPrec(limit int) ast.Expr {
	left := p.parseUnaryOrSimple()
	return p.continueExprPrec(left, limit)
}

// continueExprPrec folds in binary operators following an already-parsed
// left operand: split out from parseExprPrec so parseField can resume
// precedence climbing after it has had to parse a leading identifier itself
// to disambiguate a "name = value" field from a positional expression.
func (p *parser) continueExprPrec(left ast.Expr, limit int) ast.Expr {
	for {
		prio, ok := binPriorities[p.tok]
		if !ok || prio.left <= limit {
			break
		}
		opTok, opPos := p.tok, p.val.Pos
		p.advance()
		right := p.parseExprPrec(prio.right)
		left = &ast.BinOpExpr{Left: left, Type: opTok, Op: opPos, Right: right}
	}
	return left
}

func (p *parser) parseUnaryOrSimple() ast.Expr {
	if isUnaryOp(p.tok) {
		opTok, opPos := p.tok, p.val.Pos
		p.advance()
		operand := p.parseExprPrec(unaryPriority)
		return &ast.UnaryOpExpr{Type: opTok, Op: opPos, Right: operand}
	}
	return p.parseSimpleExpr()
}

func (p *parser) parseSimpleExpr() ast.Expr {
	switch p.tok {
	case token.NIL, token.TRUE, token.FALSE:
		n := &ast.LiteralExpr{Type: p.tok, Start: p.val.Pos, Raw: p.val.Raw}
		p.advance()
		return n
	case token.INT:
		n := &ast.LiteralExpr{Type: token.INT, Start: p.val.Pos, Raw: p.val.Raw, Int: p.val.Int}
		p.advance()
		return n
	case token.FLOAT:
		n := &ast.LiteralExpr{Type: token.FLOAT, Start: p.val.Pos, Raw: p.val.Raw, Float: p.val.Float}
		p.advance()
		return n
	case token.STRING:
		n := &ast.LiteralExpr{Type: token.STRING, Start: p.val.Pos, Raw: p.val.Raw, Str: p.val.Str}
		p.advance()
		return n
	case token.ELLIPSIS:
		n := &ast.VarargExpr{Start: p.val.Pos}
		p.advance()
		return n
	case token.FUNCTION:
		fnPos := p.expect(token.FUNCTION)
		lparen, params, isVararg, rparen, body, end := p.parseFuncBody()
		return &ast.FuncExpr{Fn: fnPos, Lparen: lparen, Params: params, IsVararg: isVararg, Rparen: rparen, Body: body, End: end}
	case token.LBRACE:
		return p.parseTableConstructor()
	default:
		return p.parseSuffixedExpr()
	}
}

// parsePrimaryExpr parses an identifier or a parenthesized expression, the
// two bases a suffixed expression can start from.
func (p *parser) parsePrimaryExpr() ast.Expr {
	switch p.tok {
	case token.IDENT:
		return p.parseIdent()
	case token.LPAREN:
		lparen := p.expect(token.LPAREN)
		e := p.parseExpr()
		rparen := p.expect(token.RPAREN)
		return &ast.ParenExpr{Lparen: lparen, Expr: e, Rparen: rparen}
	default:
		p.errorf(p.val.Pos, "unexpected %s", p.describeCur())
		panic(errPanicMode)
	}
}

// parseSuffixedExpr parses a primary expression followed by any number of
// ".name", "[expr]", ":name(args)", and "(args)" suffixes.
func (p *parser) parseSuffixedExpr() ast.Expr {
	return p.continueSuffixedExpr(p.parsePrimaryExpr())
}

// continueSuffixedExpr parses zero or more suffixes following an
// already-parsed expression e.
func (p *parser) continueSuffixedExpr(e ast.Expr) ast.Expr {
	for {
		switch p.tok {
		case token.DOT:
			dotPos := p.val.Pos
			p.advance()
			field := p.parseIdent()
			e = &ast.DotExpr{Left: e, Dot: dotPos, Right: field}
		case token.LBRACK:
			lbrack := p.expect(token.LBRACK)
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			e = &ast.IndexExpr{Prefix: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		case token.COLON:
			colonPos := p.val.Pos
			p.advance()
			method := p.parseIdent()
			lparen, args, rparen := p.parseArgs()
			e = &ast.MethodCallExpr{Recv: e, Colon: colonPos, Method: method, Lparen: lparen, Args: args, Rparen: rparen}
		case token.LPAREN, token.LBRACE, token.STRING:
			lparen, args, rparen := p.parseArgs()
			e = &ast.CallExpr{Fn: e, Lparen: lparen, Args: args, Rparen: rparen}
		default:
			return e
		}
	}
}

// parseArgs parses a call's argument list: a parenthesized expression list,
// a single table constructor, or a single string literal (each sugar for a
// one-argument call). Lparen/Rparen are left zero-valued for the
// non-parenthesized forms.
func (p *parser) parseArgs() (lparen token.Pos, args []ast.Expr, rparen token.Pos) {
	switch p.tok {
	case token.LPAREN:
		lparen = p.expect(token.LPAREN)
		if p.tok != token.RPAREN {
			args = p.parseExprList()
		}
		rparen = p.expect(token.RPAREN)
	case token.LBRACE:
		args = []ast.Expr{p.parseTableConstructor()}
	case token.STRING:
		args = []ast.Expr{&ast.LiteralExpr{Type: token.STRING, Start: p.val.Pos, Raw: p.val.Raw, Str: p.val.Str}}
		p.advance()
	default:
		p.errorf(p.val.Pos, "function arguments expected")
		panic(errPanicMode)
	}
	return
}

func (p *parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr()}
	for p.accept(token.COMMA) {
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

// parseTableConstructor parses a table literal: a brace-delimited list of
// positional, Name = value, or [expr] = value fields, separated by "," or
// ";" with an optional trailing separator.
func (p *parser) parseTableConstructor() ast.Expr {
	lbrace := p.expect(token.LBRACE)
	var fields []*ast.Field
	for p.tok != token.RBRACE {
		fields = append(fields, p.parseField())
		if !p.accept(token.COMMA) && !p.accept(token.SEMI) {
			break
		}
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.TableExpr{Lbrace: lbrace, Fields: fields, Rbrace: rbrace}
}

func (p *parser) parseField() *ast.Field {
	if p.tok == token.LBRACK {
		p.advance()
		key := p.parseExpr()
		p.expect(token.RBRACK)
		p.expect(token.EQ)
		val := p.parseExpr()
		return &ast.Field{Key: key, Value: val}
	}
	if p.tok == token.IDENT {
		// disambiguate "name = value" from a bare expression starting with an
		// identifier: consume the identifier and check what follows it rather
		// than backtracking, since the scanner has no cheap way to rewind.
		name := p.parseIdent()
		if p.tok == token.EQ {
			p.advance()
			val := p.parseExpr()
			return &ast.Field{Key: name, Value: val}
		}
		e := p.continueSuffixedExpr(name)
		return &ast.Field{Value: p.continueExprPrec(e, 0)}
	}
	return &ast.Field{Value: p.parseExpr()}
}
