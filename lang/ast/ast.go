// Package ast defines the types used to represent the abstract syntax tree
// of a parsed chunk: a Lua-family block of statements and the expressions
// nested inside them. It is produced by lang/parser and walked by
// lang/codegen's Compile; nothing downstream needs to
// recover source text from it, so spans are column-accurate only within a
// single line.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/luacode/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements the fmt.Formatter interface so they can print a
	// description of themselves. The only supported verbs are 'v' and 's'.
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk enters each node inside itself to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr represents an expression in the AST.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node

	// BlockEnding returns true if the statement may only appear as the last
	// statement in a block (return, break).
	BlockEnding() bool
}

// Chunk is the root of a parsed source chunk: a block plus the position of
// the closing EOF (used to give empty chunks a valid span).
type Chunk struct {
	Name  string
	Block *Block
	EOF   token.Pos
}

// Block represents a sequence of statements, as found in a chunk, function
// body, or any control-structure body.
type Block struct {
	Start token.Pos
	End   token.Pos
	Stmts []Stmt
}

func (n *Chunk) Format(f fmt.State, verb rune) {
	lbl := "chunk"
	if n.Name != "" {
		lbl += " " + n.Name
	}
	format(f, verb, n, lbl, nil)
}
func (n *Chunk) Span() (start, end token.Pos) {
	if n.Block != nil {
		return n.Block.Span()
	}
	return n.EOF, n.EOF
}
func (n *Chunk) Walk(v Visitor) {
	if n.Block != nil {
		Walk(v, n.Block)
	}
}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// format renders a node's label the way every Node.Format implementation in
// this package does: an optional width/padding per fmt flags, followed by an
// optional "{k=v, ...}" child-count suffix when the '#' flag is set.
func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
