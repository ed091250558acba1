package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/parser"
	"github.com/mna/luacode/lang/scanner"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, "", args...)
}

// ParseFiles parses each file and prints its AST, one node per line,
// indented by nesting depth and formatted with nodeFmt (an ast.Printer
// NodeFmt verb; the empty string uses the printer's default).
func ParseFiles(stdio mainer.Stdio, nodeFmt string, files ...string) error {
	printer := ast.Printer{
		Output:  stdio.Stdout,
		WithPos: true,
		NodeFmt: nodeFmt,
	}

	var failed error
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			failed = err
			continue
		}

		chunk, perr := parser.ParseChunk(file, src)
		if err := printer.Print(chunk); err != nil {
			failed = err
			continue
		}
		if perr != nil {
			scanner.PrintError(stdio.Stderr, perr)
			failed = perr
		}
	}
	return failed
}
