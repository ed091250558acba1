package scanner

// comment consumes a -- comment, which may be either a long bracket comment
// (--[[ ... ]] or --[=[ ... ]=], etc.) or a line comment running to the next
// newline. The leading -- has already been consumed.
func (s *Scanner) comment() {
	if s.cur == '[' {
		s.advance()
		var level int
		for s.advanceIf('=') {
			level++
		}
		if s.advanceIf('[') {
			s.longComment(level)
			return
		}
		// not actually a long bracket opening: fall through and treat the
		// rest of the line as an ordinary line comment.
	}
	for s.cur != '\n' && s.cur >= 0 {
		s.advance()
	}
}

// longComment consumes up to and including the closing bracket sequence
// matching level (]] for level 0, ]=] for level 1, and so on). Unlike a long
// string literal, the body is discarded rather than decoded.
func (s *Scanner) longComment(level int) {
	startOff, startLine, startCol := s.off, s.line, s.col
	for s.cur >= 0 {
		if s.advanceIf(']') {
			closeLevel := 0
			for s.advanceIf('=') {
				closeLevel++
			}
			if closeLevel == level && s.advanceIf(']') {
				return
			}
			continue
		}
		s.advance()
	}
	s.error(startOff, startLine, startCol, "long comment not terminated")
}
