package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// longBracket scans a Lua long-bracket literal, [[ ... ]] or [=[ ... ]=]
// (with any number of '=' balancing the opening and closing brackets). The
// opening '[' has already been consumed by Scan.
func (s *Scanner) longBracket() (lit, decoded string) {
	startOff, startLine, startCol := s.off-1, s.line, s.col-1
	s.sb.Reset()

	var level int
	for s.advanceIf('=') {
		level++
	}
	if !s.advanceIf('[') {
		s.error(startOff, startLine, startCol, "invalid long bracket opening sequence")
		return string(s.src[startOff:s.off]), ""
	}
	// a newline immediately following the opening bracket is skipped, as in
	// the reference implementation.
	if s.cur == '\r' {
		s.advance()
	}
	if s.cur == '\n' {
		s.advance()
	}

	closeLevel := -1
	for s.cur != -1 {
		if s.advanceIf(']') {
			closeStartOff := s.off - 1
			closeLevel = 0
			for s.advanceIf('=') {
				closeLevel++
			}
			if !s.advanceIf(']') {
				closeLevel = -1
			}
			if closeLevel == level {
				break
			}
			closeLevel = -1
			s.sb.Write(s.src[closeStartOff:s.off])
			continue
		}
		s.sb.WriteRune(s.cur)
		s.advance()
	}

	if closeLevel == -1 {
		s.error(startOff, startLine, startCol, "long bracket literal not terminated")
	}
	return string(s.src[startOff:s.off]), s.sb.String()
}

func (s *Scanner) shortString(opening byte) (lit, decoded string) {
	startOff, startLine, startCol := s.off-1, s.line, s.col-1
	s.sb.Reset()
	s.pendingSurrogate = 0

	var skipws bool
	for {
		cur := s.cur
		if (cur == '\n' && !skipws) || cur < 0 {
			s.error(startOff, startLine, startCol, "string literal not terminated")
			break
		}
		s.advance()
		if cur == rune(opening) {
			break
		}
		if cur == '\\' {
			skipws = s.escape()
		} else if !skipws || !isWhitespace(cur) {
			skipws = false
			s.writeStringLitRune(cur)
		}
	}
	if s.pendingSurrogate != 0 {
		s.sb.WriteRune(utf8.RuneError)
	}
	return string(s.src[startOff:s.off]), s.sb.String()
}

var simpleEscapes = [...]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'\n': '\n',
}

// escape parses an escape sequence. It expects the leading backslash to
// already be consumed. If the escape is \z, it returns true for skipws,
// indicating that following whitespace in the string literal (including
// newlines) should be skipped from the decoded value.
func (s *Scanner) escape() (skipws bool) {
	startOff, startLine, startCol := s.off-1, s.line, s.col-1

	if cur := s.cur; s.advanceIf('a', 'b', 'f', 'n', 'r', 't', 'v', 'z', '\\', '"', '\'', '\n') {
		if cur != 'z' {
			s.writeStringLitRune(rune(simpleEscapes[cur]))
		}
		return cur == 'z'
	}

	illegalOrIncomplete := func() {
		off, line, col := s.off, s.line, s.col
		msg := fmt.Sprintf("illegal character %#U in escape sequence", s.cur)
		if s.cur < 0 {
			msg = "escape sequence not terminated"
			off, line, col = startOff, startLine, startCol
		}
		s.error(off, line, col, msg)
	}

	var max, rn uint32
	switch {
	case isDecimal(s.cur):
		// \ddd - up to 3 decimal digits, encoding a byte
		max = 255
		rn = uint32(digitVal(s.cur))
		s.advance()
		for i := 0; i < 2 && isDecimal(s.cur); i++ {
			rn = rn*10 + uint32(digitVal(s.cur))
			s.advance()
		}
	case s.advanceIf('x'):
		// \xhh - exactly 2 hex digits, encoding a byte
		max = 255
		for i := 0; i < 2; i++ {
			if !isHexadecimal(s.cur) {
				illegalOrIncomplete()
				return false
			}
			rn = rn*16 + uint32(digitVal(s.cur))
			s.advance()
		}
	case s.advanceIf('u'):
		max = unicode.MaxRune
		if !s.advanceIf('{') {
			illegalOrIncomplete()
			return false
		}
		var count int
		for isHexadecimal(s.cur) {
			rn = rn*16 + uint32(digitVal(s.cur))
			s.advance()
			count++
		}
		if !s.advanceIf('}') {
			illegalOrIncomplete()
			return false
		}
		if count == 0 || count > 8 {
			s.error(startOff, startLine, startCol, "escape sequence has an invalid number of hexadecimal digits")
			return false
		}
	default:
		msg := "unknown escape sequence"
		if s.cur < 0 {
			msg = "escape sequence not terminated"
		}
		s.error(startOff, startLine, startCol, msg)
		return false
	}

	if rn > max {
		msg := "escape sequence is invalid Unicode code point"
		if max == 255 {
			msg = "escape sequence is invalid byte value"
		}
		s.error(startOff, startLine, startCol, msg)
		return false
	}
	if utf16.IsSurrogate(rune(rn)) {
		s.writeStringLitSurrogate(rune(rn))
		return false
	}
	s.writeStringLitRune(rune(rn))
	return false
}

func (s *Scanner) writeStringLitRune(rn rune) {
	if s.pendingSurrogate != 0 {
		s.sb.WriteRune(utf8.RuneError)
		s.pendingSurrogate = 0
	}
	s.sb.WriteRune(rn)
}

func (s *Scanner) writeStringLitSurrogate(rn rune) {
	if s.pendingSurrogate == 0 {
		s.pendingSurrogate = rn
	} else {
		s.sb.WriteRune(utf16.DecodeRune(s.pendingSurrogate, rn))
		s.pendingSurrogate = 0
	}
}

func digitVal(rn rune) int {
	switch {
	case '0' <= rn && rn <= '9':
		return int(rn - '0')
	case 'a' <= rn && rn <= 'f':
		return int(rn - 'a' + 10)
	case 'A' <= rn && rn <= 'F':
		return int(rn - 'A' + 10)
	}
	return 16
}
