package ast

import (
	"fmt"

	"github.com/mna/luacode/lang/token"
)

// Unwrap recursively strips ParenExpr wrappers from e.
func Unwrap(e Expr) Expr {
	for {
		pe, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = pe.Expr
	}
}

// IsAssignable returns true if e can appear on the left-hand side of an
// assignment or as a local declaration target: an identifier, a field
// selector, or an indexing expression.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *IdentExpr, *DotExpr, *IndexExpr:
		return true
	default:
		return false
	}
}

type (
	// BadExpr represents an expression that failed to parse.
	BadExpr struct {
		Start token.Pos
		End   token.Pos
	}

	// IdentExpr represents an identifier.
	IdentExpr struct {
		Start token.Pos
		Lit   string
	}

	// LiteralExpr represents nil, true, false, an integer, a float, or a
	// string literal.
	LiteralExpr struct {
		Type  token.Token // NIL, TRUE, FALSE, INT, FLOAT or STRING
		Start token.Pos
		Raw   string
		Int   int64
		Float float64
		Str   string
	}

	// VarargExpr represents the "..." expression.
	VarargExpr struct {
		Start token.Pos
	}

	// UnaryOpExpr represents a unary operator expression, e.g. -x, not x, #x,
	// ~x.
	UnaryOpExpr struct {
		Type  token.Token
		Op    token.Pos
		Right Expr
	}

	// BinOpExpr represents a binary expression, e.g. x + y, x and y, x .. y.
	BinOpExpr struct {
		Left  Expr
		Type  token.Token
		Op    token.Pos
		Right Expr
	}

	// ParenExpr represents an expression wrapped in parentheses: unlike a
	// bare expression, it is truncated to exactly one result in a multi-value
	// context.
	ParenExpr struct {
		Lparen token.Pos
		Expr   Expr
		Rparen token.Pos
	}

	// DotExpr represents a field selector, e.g. x.y (sugar for x["y"]).
	DotExpr struct {
		Left  Expr
		Dot   token.Pos
		Right *IdentExpr
	}

	// IndexExpr represents an index expression, e.g. x[y].
	IndexExpr struct {
		Prefix Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// CallExpr represents a function call, e.g. f(x, y).
	CallExpr struct {
		Fn     Expr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// MethodCallExpr represents a method call using colon syntax, e.g.
	// obj:method(x, y), which passes obj as the implicit first argument.
	MethodCallExpr struct {
		Recv   Expr
		Colon  token.Pos
		Method *IdentExpr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// Field represents one entry of a table constructor: either a positional
	// value (Key == nil), a Name = value entry (Key is an *IdentExpr standing
	// for a string key), or a [key] = value entry.
	Field struct {
		Key   Expr // nil for a positional field
		Value Expr
	}

	// TableExpr represents a table constructor, e.g. {1, 2, x = 3, [k] = 4}.
	TableExpr struct {
		Lbrace token.Pos
		Fields []*Field
		Rbrace token.Pos
	}

	// FuncExpr represents a function literal.
	FuncExpr struct {
		Fn       token.Pos
		Lparen   token.Pos
		Params   []*IdentExpr
		IsVararg bool
		Rparen   token.Pos
		Body     *Block
		End      token.Pos
	}
)

func (n *BadExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad expr!", nil) }
func (n *BadExpr) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadExpr) Walk(_ Visitor)                {}
func (n *BadExpr) expr()                         {}

func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Lit, nil) }
func (n *IdentExpr) Span() (start, end token.Pos)  { return n.Start, n.Start.Advance(len(n.Lit)) }
func (n *IdentExpr) Walk(_ Visitor)                {}
func (n *IdentExpr) expr()                         {}

func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Type.String()+" "+n.Raw, nil)
}
func (n *LiteralExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start.Advance(len(n.Raw))
}
func (n *LiteralExpr) Walk(_ Visitor) {}
func (n *LiteralExpr) expr()          {}

func (n *VarargExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "...", nil) }
func (n *VarargExpr) Span() (start, end token.Pos)  { return n.Start, n.Start.Advance(3) }
func (n *VarargExpr) Walk(_ Visitor)                {}
func (n *VarargExpr) expr()                         {}

func (n *UnaryOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Type.GoString(), nil)
}
func (n *UnaryOpExpr) Span() (start, end token.Pos) {
	_, end = n.Right.Span()
	return n.Op, end
}
func (n *UnaryOpExpr) Walk(v Visitor) { Walk(v, n.Right) }
func (n *UnaryOpExpr) expr()          {}

func (n *BinOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Type.GoString(), nil)
}
func (n *BinOpExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *BinOpExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *BinOpExpr) expr() {}

func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(expr)", nil) }
func (n *ParenExpr) Span() (start, end token.Pos) {
	return n.Lparen, n.Rparen.Advance(1)
}
func (n *ParenExpr) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *ParenExpr) expr()          {}

func (n *DotExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "expr.ident", nil) }
func (n *DotExpr) Span() (start, end token.Pos) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *DotExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *DotExpr) expr() {}

func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "expr[index]", nil) }
func (n *IndexExpr) Span() (start, end token.Pos) {
	start, _ = n.Prefix.Span()
	return start, n.Rbrack.Advance(1)
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Prefix)
	Walk(v, n.Index)
}
func (n *IndexExpr) expr() {}

func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Pos) {
	start, _ = n.Fn.Span()
	return start, n.Rparen.Advance(1)
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *CallExpr) expr() {}

func (n *MethodCallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "methodcall "+n.Method.Lit, map[string]int{"args": len(n.Args)})
}
func (n *MethodCallExpr) Span() (start, end token.Pos) {
	start, _ = n.Recv.Span()
	return start, n.Rparen.Advance(1)
}
func (n *MethodCallExpr) Walk(v Visitor) {
	Walk(v, n.Recv)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *MethodCallExpr) expr() {}

func (n *TableExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "table", map[string]int{"fields": len(n.Fields)})
}
func (n *TableExpr) Span() (start, end token.Pos) {
	return n.Lbrace, n.Rbrace.Advance(1)
}
func (n *TableExpr) Walk(v Visitor) {
	for _, fl := range n.Fields {
		if fl.Key != nil {
			Walk(v, fl.Key)
		}
		Walk(v, fl.Value)
	}
}
func (n *TableExpr) expr() {}

func (n *FuncExpr) Format(f fmt.State, verb rune) {
	lbl := "function"
	if n.IsVararg {
		lbl += " ..."
	}
	format(f, verb, n, lbl, map[string]int{"params": len(n.Params)})
}
func (n *FuncExpr) Span() (start, end token.Pos) {
	return n.Fn, n.End.Advance(len(token.END.String()))
}
func (n *FuncExpr) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}
func (n *FuncExpr) expr() {}
