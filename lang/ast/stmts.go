package ast

import (
	"fmt"

	"github.com/mna/luacode/lang/token"
)

type (
	// LocalStmt represents a local variable declaration, e.g. local a, b = 1, 2.
	LocalStmt struct {
		Local  token.Pos
		Names  []*IdentExpr
		Assign token.Pos // zero if no initializer ("local x")
		Right  []Expr
	}

	// AssignStmt represents an assignment statement, e.g. a, b = 1, 2. Each of
	// Left must satisfy IsAssignable.
	AssignStmt struct {
		Left   []Expr
		Assign token.Pos
		Right  []Expr
	}

	// ExprStmt represents an expression used as a statement, which is only
	// valid for function and method calls.
	ExprStmt struct {
		Expr Expr // *CallExpr or *MethodCallExpr
	}

	// DoStmt represents a bare do..end block, used purely to introduce a new
	// local-variable scope.
	DoStmt struct {
		Do   token.Pos
		Body *Block
		End  token.Pos
	}

	// WhileStmt represents a while..do..end loop.
	WhileStmt struct {
		While token.Pos
		Cond  Expr
		Do    token.Pos
		Body  *Block
		End   token.Pos
	}

	// RepeatStmt represents a repeat..until loop. Unlike while, the condition
	// is evaluated with the body's locals still in scope.
	RepeatStmt struct {
		Repeat token.Pos
		Body   *Block
		Until  token.Pos
		Cond   Expr
	}

	// NumericForStmt represents a numeric for loop, e.g. for i = 1, 10, 2 do
	// .. end. Step may be nil, meaning a step of 1.
	NumericForStmt struct {
		For   token.Pos
		Name  *IdentExpr
		Start Expr
		Stop  Expr
		Step  Expr // may be nil
		Do    token.Pos
		Body  *Block
		End   token.Pos
	}

	// GenericForStmt represents a for-in loop, e.g. for k, v in pairs(t) do ..
	// end.
	GenericForStmt struct {
		For   token.Pos
		Names []*IdentExpr
		In    token.Pos
		Exprs []Expr
		Do    token.Pos
		Body  *Block
		End   token.Pos
	}

	// IfStmt represents an if/elseif/else chain. False is nil if there is no
	// else clause; it may itself be a single-statement block containing
	// another *IfStmt to represent an elseif.
	IfStmt struct {
		If    token.Pos
		Cond  Expr
		Then  token.Pos
		True  *Block
		ElsePos token.Pos // zero if no else/elseif
		False *Block      // nil if no else/elseif
		End   token.Pos   // only set on the outermost if
	}

	// FuncStmt represents a function declaration statement, e.g.
	// function f(x) .. end or function t.m(x) .. end. IsMethod is true for
	// function t:m(x) .. end, where self is implicitly prepended to Params.
	FuncStmt struct {
		Fn       token.Pos
		Name     Expr // *IdentExpr, or a chain of *DotExpr ending in one
		IsMethod bool
		Lparen   token.Pos
		Params   []*IdentExpr
		IsVararg bool
		Rparen   token.Pos
		Body     *Block
		End      token.Pos
	}

	// ReturnStmt represents a return statement, optionally with result
	// expressions. It may only be the last statement in a block.
	ReturnStmt struct {
		Return token.Pos
		Exprs  []Expr
	}

	// BreakStmt represents a break statement. It may only be the last
	// statement in a block.
	BreakStmt struct {
		Start token.Pos
	}

	// BadStmt represents a statement that failed to parse.
	BadStmt struct {
		Start token.Pos
		End   token.Pos
	}
)

func (n *LocalStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "local", map[string]int{"names": len(n.Names), "right": len(n.Right)})
}
func (n *LocalStmt) Span() (start, end token.Pos) {
	end = n.Names[len(n.Names)-1].Start.Advance(len(n.Names[len(n.Names)-1].Lit))
	if len(n.Right) > 0 {
		_, end = n.Right[len(n.Right)-1].Span()
	}
	return n.Local, end
}
func (n *LocalStmt) Walk(v Visitor) {
	for _, nm := range n.Names {
		Walk(v, nm)
	}
	for _, e := range n.Right {
		Walk(v, e)
	}
}
func (n *LocalStmt) BlockEnding() bool { return false }

func (n *AssignStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "assignment", map[string]int{"left": len(n.Left), "right": len(n.Right)})
}
func (n *AssignStmt) Span() (start, end token.Pos) {
	start, _ = n.Left[0].Span()
	_, end = n.Right[len(n.Right)-1].Span()
	return start, end
}
func (n *AssignStmt) Walk(v Visitor) {
	for _, e := range n.Left {
		Walk(v, e)
	}
	for _, e := range n.Right {
		Walk(v, e)
	}
}
func (n *AssignStmt) BlockEnding() bool { return false }

func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr stmt", nil) }
func (n *ExprStmt) Span() (start, end token.Pos)  { return n.Expr.Span() }
func (n *ExprStmt) Walk(v Visitor)                { Walk(v, n.Expr) }
func (n *ExprStmt) BlockEnding() bool             { return false }

func (n *DoStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "do", nil) }
func (n *DoStmt) Span() (start, end token.Pos) {
	return n.Do, n.End.Advance(len(token.END.String()))
}
func (n *DoStmt) Walk(v Visitor)    { Walk(v, n.Body) }
func (n *DoStmt) BlockEnding() bool { return false }

func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStmt) Span() (start, end token.Pos) {
	return n.While, n.End.Advance(len(token.END.String()))
}
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *WhileStmt) BlockEnding() bool { return false }

func (n *RepeatStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "repeat", nil) }
func (n *RepeatStmt) Span() (start, end token.Pos) {
	_, end = n.Cond.Span()
	return n.Repeat, end
}
func (n *RepeatStmt) Walk(v Visitor) {
	Walk(v, n.Body)
	Walk(v, n.Cond)
}
func (n *RepeatStmt) BlockEnding() bool { return false }

func (n *NumericForStmt) Format(f fmt.State, verb rune) {
	hasStep := 0
	if n.Step != nil {
		hasStep = 1
	}
	format(f, verb, n, "for "+n.Name.Lit+" = ..", map[string]int{"step": hasStep})
}
func (n *NumericForStmt) Span() (start, end token.Pos) {
	return n.For, n.End.Advance(len(token.END.String()))
}
func (n *NumericForStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	Walk(v, n.Start)
	Walk(v, n.Stop)
	if n.Step != nil {
		Walk(v, n.Step)
	}
	Walk(v, n.Body)
}
func (n *NumericForStmt) BlockEnding() bool { return false }

func (n *GenericForStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "for in", map[string]int{"names": len(n.Names), "exprs": len(n.Exprs)})
}
func (n *GenericForStmt) Span() (start, end token.Pos) {
	return n.For, n.End.Advance(len(token.END.String()))
}
func (n *GenericForStmt) Walk(v Visitor) {
	for _, nm := range n.Names {
		Walk(v, nm)
	}
	for _, e := range n.Exprs {
		Walk(v, e)
	}
	Walk(v, n.Body)
}
func (n *GenericForStmt) BlockEnding() bool { return false }

func (n *IfStmt) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.ElsePos.IsValid() {
		kind := " else"
		if n.False != nil && len(n.False.Stmts) == 1 {
			if _, ok := n.False.Stmts[0].(*IfStmt); ok {
				kind = " elseif"
			}
		}
		lbl += kind
	}
	format(f, verb, n, lbl, nil)
}
func (n *IfStmt) Span() (start, end token.Pos) {
	_, end = n.True.Span()
	if n.False != nil {
		_, end = n.False.Span()
	}
	if n.End.IsValid() {
		end = n.End.Advance(len(token.END.String()))
	}
	return n.If, end
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.True)
	if n.False != nil {
		Walk(v, n.False)
	}
}
func (n *IfStmt) BlockEnding() bool { return false }

func (n *FuncStmt) Format(f fmt.State, verb rune) {
	lbl := "function decl"
	if n.IsVararg {
		lbl += " ..."
	}
	format(f, verb, n, lbl, map[string]int{"params": len(n.Params)})
}
func (n *FuncStmt) Span() (start, end token.Pos) {
	return n.Fn, n.End.Advance(len(token.END.String()))
}
func (n *FuncStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, p := range n.Params {
		Walk(v, p)
	}
	Walk(v, n.Body)
}
func (n *FuncStmt) BlockEnding() bool { return false }

func (n *ReturnStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "return", map[string]int{"exprs": len(n.Exprs)})
}
func (n *ReturnStmt) Span() (start, end token.Pos) {
	end = n.Return.Advance(len(token.RETURN.String()))
	if len(n.Exprs) > 0 {
		_, end = n.Exprs[len(n.Exprs)-1].Span()
	}
	return n.Return, end
}
func (n *ReturnStmt) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}
func (n *ReturnStmt) BlockEnding() bool { return true }

func (n *BreakStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }
func (n *BreakStmt) Span() (start, end token.Pos) {
	return n.Start, n.Start.Advance(len(token.BREAK.String()))
}
func (n *BreakStmt) Walk(_ Visitor)    {}
func (n *BreakStmt) BlockEnding() bool { return true }

func (n *BadStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad stmt!", nil) }
func (n *BadStmt) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadStmt) Walk(_ Visitor)                {}
func (n *BadStmt) BlockEnding() bool             { return false }
