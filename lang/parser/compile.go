package parser

import (
	"fmt"

	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/codegen"
)

// Compile parses src as a chunk named filename and lowers it straight to a
// Prototype, the single call a caller that only wants bytecode needs. A
// parse error is returned before codegen ever runs, since a chunk with a
// syntax error has no well-formed AST to compile; a non-nil Prototype is
// still returned from a successful parse even if codegen reports errors, so
// a best-effort dump is still possible.
func Compile(filename string, src []byte) (*codegen.Prototype, error) {
	chunk, err := ParseChunk(filename, src)
	if err != nil {
		return nil, err
	}
	proto, errs := codegen.Compile(chunk)
	if errs.Err() != nil {
		return proto, errs.Err()
	}
	return proto, nil
}

// ParseAndPrint parses src and renders the resulting AST through p; a parse
// error is returned after the best-effort tree has been printed.
func ParseAndPrint(p *ast.Printer, filename string, src []byte) error {
	chunk, err := ParseChunk(filename, src)
	if perr := p.Print(chunk); perr != nil {
		return fmt.Errorf("printing %s: %w", filename, perr)
	}
	return err
}
