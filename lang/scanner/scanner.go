// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner tokenizes Lua-family source chunks for the parser to
// consume.
package scanner

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mna/luacode/lang/token"
)

type (
	// Error and ErrorList are re-exported from go/scanner: a lexical error
	// here is no different in shape than one produced scanning Go source, so
	// there is no reason to reinvent position-carrying error accumulation.
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// PrintError prints each error in err (if err is an ErrorList) or err itself
// to w.
var PrintError = scanner.PrintError

// TokenAndValue combines the token type with the token value type in the same
// struct, as produced by one call to Scan.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanAll tokenizes an entire chunk in one call, returning every token up to
// and including EOF. The error, if non-nil, is an ErrorList.
func ScanAll(filename string, src []byte) ([]TokenAndValue, error) {
	var (
		s    Scanner
		el   ErrorList
		toks []TokenAndValue
	)
	s.Init(filename, src, el.Add)
	for {
		var tv token.Value
		tok := s.Scan(&tv)
		toks = append(toks, TokenAndValue{Token: tok, Value: tv})
		if tok == token.EOF {
			break
		}
	}
	el.Sort()
	if len(el) == 0 {
		return toks, nil
	}
	return toks, el
}

// Scanner tokenizes a single source chunk.
//
// Unlike a multi-file front end, a Lua-family chunk is compiled one file (or
// one REPL line) at a time, so the scanner tracks a simple running line/col
// counter rather than a shared token.FileSet: this mirrors the reference
// lexer's single "linenumber" counter per chunk more closely than importing
// file-set bookkeeping this module has no other use for.
type Scanner struct {
	filename string
	src      []byte
	err      func(pos gotoken.Position, msg string)

	sb               strings.Builder
	pendingSurrogate rune
	invalidByte      byte
	cur              rune
	off              int
	roff             int
	line, col        int
}

// Init (re-)initializes the scanner to tokenize src, reporting lexical
// errors through errHandler (which may be an ErrorList's Add method).
func (s *Scanner) Init(filename string, src []byte, errHandler func(gotoken.Position, string)) {
	s.filename = filename
	s.src = src
	s.err = errHandler

	s.sb.Reset()
	s.pendingSurrogate = 0
	s.invalidByte = 0
	s.cur = ' '
	s.off = 0
	s.roff = 0
	s.line = 1
	s.col = 0

	// skip a leading hashbang line, as the reference implementation does to
	// allow executable scripts.
	const hashBang = "#!"
	if len(src) >= len(hashBang) && src[0] == '#' && src[1] == '!' {
		for s.roff < len(src) && src[s.roff] != '\n' {
			s.roff++
		}
	}
	s.advance()
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// advance reads the next rune into s.cur; s.cur < 0 means end-of-file.
func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line++
		s.col = 0
	}
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}

	s.off = s.roff
	s.col++

	s.invalidByte = 0
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.off, s.line, s.col, "illegal UTF-8 encoding")
			s.invalidByte = s.src[s.roff]
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off, line, col int, msg string) {
	_ = off
	if s.err != nil {
		s.err(gotoken.Position{Filename: s.filename, Line: line, Column: col}, msg)
	}
}

func (s *Scanner) errorf(off, line, col int, format string, args ...any) {
	s.error(off, line, col, fmt.Sprintf(format, args...))
}

func (s *Scanner) advanceIf(matches ...byte) bool {
	for _, m := range matches {
		if rune(m) == s.cur {
			s.advance()
			return true
		}
	}
	return false
}

// Scan returns the next token, filling tokVal with its position and, for
// literal tokens, its decoded value.
func (s *Scanner) Scan(tokVal *token.Value) (tok token.Token) {
	s.skipWhitespaceAndComments()

	pos := token.MakePos(s.line, s.col)
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		tok = token.IDENT
		if kw, ok := token.Keywords[lit]; ok {
			tok = kw
		}
		*tokVal = token.Value{Raw: lit, Pos: pos}

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(s.peek()))):
		var base int
		var lit string
		tok, base, lit = s.number()
		*tokVal = token.Value{Raw: lit, Pos: pos}
		switch tok {
		case token.INT:
			v, err := numberToInt(lit, base)
			if err != nil {
				s.error(start, s.line, s.col, "integer literal value out of range")
			}
			tokVal.Int = v
		case token.FLOAT:
			v, err := numberToFloat(lit)
			if err != nil {
				s.error(start, s.line, s.col, "float literal value out of range")
			}
			tokVal.Float = v
		}

	default:
		s.advance() // always make progress
		switch cur {
		case '=':
			tok = token.EQ
			if s.advanceIf('=') {
				tok = token.EQL
			}

		case '"', '\'':
			tok = token.STRING
			lit, val := s.shortString(byte(cur))
			*tokVal = token.Value{Raw: lit, Pos: pos, Str: val}

		case '[':
			if s.cur == '=' || s.cur == '[' {
				tok = token.STRING
				lit, val := s.longBracket()
				*tokVal = token.Value{Raw: lit, Pos: pos, Str: val}
				break
			}
			tok = token.LBRACK

		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case ',':
			tok = token.COMMA
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case ']':
			tok = token.RBRACK
		case '#':
			tok = token.HASH
		case ';':
			tok = token.SEMI
		case '+':
			tok = token.PLUS
		case '*':
			tok = token.STAR
		case '%':
			tok = token.PERCENT
		case '^':
			tok = token.CIRCUMFLEX
		case '&':
			tok = token.AMPERSAND
		case '|':
			tok = token.PIPE

		case '-':
			tok = token.MINUS

		case '~':
			tok = token.TILDE
			if s.advanceIf('=') {
				tok = token.NEQ
			}

		case '<':
			tok = token.LT
			if s.advanceIf('<') {
				tok = token.LTLT
			} else if s.advanceIf('=') {
				tok = token.LE
			}
		case '>':
			tok = token.GT
			if s.advanceIf('>') {
				tok = token.GTGT
			} else if s.advanceIf('=') {
				tok = token.GE
			}
		case '/':
			tok = token.SLASH
			if s.advanceIf('/') {
				tok = token.SLASHSLASH
			}

		case ':':
			tok = token.COLON
			if s.advanceIf(':') {
				tok = token.DBCOLON
			}

		case '.':
			tok = token.DOT
			if s.advanceIf('.') {
				tok = token.CONCAT
				if s.advanceIf('.') {
					tok = token.ELLIPSIS
				}
			}

		case -1:
			tok = token.EOF
		default:
			if cur == utf8.RuneError && s.invalidByte > 0 {
				cur = rune(s.invalidByte)
				s.invalidByte = 0
			}
			s.errorf(start, s.line, s.col, "illegal character %#U", cur)
			tok = token.ILLEGAL
		}
		if tok != token.STRING {
			*tokVal = token.Value{Raw: string(s.src[start:s.off]), Pos: pos}
		}
	}
	return tok
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// skipWhitespaceAndComments consumes whitespace and -- comments (including
// --[[ long ]] comments), which are equally insignificant to the parser.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		for isWhitespace(s.cur) {
			s.advance()
		}
		if s.cur == '-' && s.peek() == '-' {
			s.advance()
			s.advance()
			s.comment()
			continue
		}
		break
	}
}

func isWhitespace(rn rune) bool {
	return rn == ' ' || rn == '\t' || rn == '\n' || rn == '\r'
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9' ||
		rn >= utf8.RuneSelf && unicode.IsDigit(rn)
}
