// Package parser implements a recursive-descent parser that turns a source
// chunk into an *ast.Chunk, ready for lang/codegen to lower into a
// Prototype.
package parser

import (
	"errors"
	"fmt"
	gotoken "go/token"

	"golang.org/x/exp/slices"

	"github.com/mna/luacode/lang/ast"
	"github.com/mna/luacode/lang/scanner"
	"github.com/mna/luacode/lang/token"
)

// parser parses a single source chunk and generates its AST.
type parser struct {
	filename string
	sc       scanner.Scanner
	errs     scanner.ErrorList

	tok token.Token
	val token.Value

	// loopBlocks tracks, for each lexically enclosing block, whether it is a
	// loop body: break is only valid when at least one entry is true. Pushed
	// and popped with x/exp/slices, separately from FuncState.blocks in
	// lang/codegen (a plain append/reslice stack): the parser rejects a misplaced
	// break before codegen ever sees it, the same two-layer check the
	// reference implementation's lparser.c/lcode.c pairing performs.
	loopBlocks []bool
}

// ParseChunk parses a single source chunk named filename. The returned
// *ast.Chunk is always non-nil, even when err is non-nil, so a caller that
// wants a best-effort AST from a chunk with errors still gets one. err, if
// non-nil, is a scanner.ErrorList.
func ParseChunk(filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.filename = filename
	p.sc.Init(filename, src, p.errs.Add)
	p.advance()

	ch := &ast.Chunk{Name: filename}
	ch.Block = p.parseBlock()
	ch.EOF = p.val.Pos
	p.expect(token.EOF)

	p.errs.Sort()
	return ch, p.errs.Err()
}

func (p *parser) advance() {
	p.tok = p.sc.Scan(&p.val)
}

func (p *parser) pos() token.Position { return p.val.Pos.At(p.filename) }

func (p *parser) error(pos token.Pos, msg string) {
	l, c := pos.LineCol()
	p.errs.Add(gotoken.Position{Filename: p.filename, Line: l, Column: c}, msg)
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) {
	p.error(pos, fmt.Sprintf(format, args...))
}

// errPanicMode is recovered at the statement level, turning a parse failure
// into a single BadStmt rather than aborting the whole chunk.
var errPanicMode = errors.New("panic mode")

// expect reports an error and panics with errPanicMode unless the current
// token is tok; otherwise it consumes the token and returns its position.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.val.Pos
	if p.tok != tok {
		p.errorExpected(pos, tok.GoString())
		panic(errPanicMode)
	}
	p.advance()
	return pos
}

func (p *parser) errorExpected(pos token.Pos, what string) {
	msg := "expected " + what
	if pos == p.val.Pos {
		msg += ", found " + p.describeCur()
	}
	p.error(pos, msg)
}

func (p *parser) describeCur() string {
	if p.tok == token.IDENT || p.tok == token.INT || p.tok == token.FLOAT || p.tok == token.STRING {
		return p.val.Raw
	}
	return p.tok.GoString()
}

func (p *parser) accept(tok token.Token) bool {
	if p.tok == tok {
		p.advance()
		return true
	}
	return false
}

func (p *parser) pushBlock(isLoop bool) {
	p.loopBlocks = slices.Insert(p.loopBlocks, len(p.loopBlocks), isLoop)
}

func (p *parser) popBlock() {
	p.loopBlocks = slices.Delete(p.loopBlocks, len(p.loopBlocks)-1, len(p.loopBlocks))
}

func (p *parser) inLoop() bool {
	return slices.ContainsFunc(p.loopBlocks, func(b bool) bool { return b })
}

func isBlockFollow(tok token.Token) bool {
	switch tok {
	case token.EOF, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
		return true
	default:
		return false
	}
}
