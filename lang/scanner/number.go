package scanner

import (
	"strconv"
	"strings"

	"github.com/mna/luacode/lang/token"
)

// number scans an integer or float literal. Lua numerals are simpler than
// Go's: decimal or 0x-prefixed hexadecimal, an optional fractional part, and
// an optional exponent (e/E for decimal, p/P for hexadecimal, as required by
// a hex float).
//
// The decimal point is always '.', never the C locale's localeconv
// decimal_point: this scanner never calls into a locale-aware number parser,
// so numeral lexing is locale-independent by construction.
func (s *Scanner) number() (tok token.Token, base int, lit string) {
	startOff, startLine, startCol := s.off, s.line, s.col
	tok = token.INT
	base = 10
	hex := false

	if s.cur == '0' && (lower(rune(s.peek())) == 'x') {
		s.advance()
		s.advance()
		base, hex = 16, true
	}

	s.digits(base)
	if s.cur == '.' {
		tok = token.FLOAT
		s.advance()
		s.digits(base)
	}

	if e := lower(s.cur); (e == 'e' && !hex) || (e == 'p' && hex) {
		s.advance()
		tok = token.FLOAT
		if s.cur == '+' || s.cur == '-' {
			s.advance()
		}
		if !isDecimal(s.cur) {
			s.error(s.off, s.line, s.col, "exponent has no digits")
		}
		s.digits(10)
	} else if hex && tok == token.FLOAT {
		s.error(startOff, startLine, startCol, "hexadecimal mantissa requires a 'p' exponent")
	}

	lit = string(s.src[startOff:s.off])
	return tok, base, lit
}

func isDecimal(rn rune) bool {
	return '0' <= rn && rn <= '9'
}

func isHexadecimal(rn rune) bool {
	return isDecimal(rn) ||
		'a' <= rn && rn <= 'f' ||
		'A' <= rn && rn <= 'F'
}

func (s *Scanner) digits(base int) {
	if base == 16 {
		for isHexadecimal(s.cur) {
			s.advance()
		}
		return
	}
	for isDecimal(s.cur) {
		s.advance()
	}
}

func lower(ch rune) rune {
	return ('a' - 'A') | ch // returns lower-case ch iff ch is an ASCII letter
}

// numberToInt converts a scanned integer literal to its int64 value,
// wrapping on overflow the way Lua's integer literals do rather than
// rejecting them (only hex literals wrap; decimal literals that overflow
// int64 are instead reparsed by the caller as a float, which this minimal
// front end does not attempt - out-of-range decimal integers are an error).
func numberToInt(lit string, base int) (int64, error) {
	if base == 16 {
		u, err := strconv.ParseUint(strings.ToLower(lit)[2:], 16, 64)
		return int64(u), err
	}
	return strconv.ParseInt(lit, 10, 64)
}

func numberToFloat(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}
