package scanner

import (
	gotoken "go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/luacode/lang/token"
)

func scanAllTokens(t *testing.T, src string) ([]token.Token, []token.Value) {
	t.Helper()
	var (
		s    Scanner
		toks []token.Token
		vals []token.Value
		msgs []string
	)
	s.Init("test.lua", []byte(src), func(pos gotoken.Position, msg string) {
		msgs = append(msgs, msg)
	})
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, msgs, "unexpected scanner errors: %v", msgs)
	return toks, vals
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, vals := scanAllTokens(t, "local x = foo")
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.EQ, token.IDENT, token.EOF}, toks)
	require.Equal(t, "x", vals[1].Raw)
	require.Equal(t, "foo", vals[3].Raw)
}

func TestScanPunctuation(t *testing.T) {
	toks, _ := scanAllTokens(t, "== ~= <= >= .. ... :: // << >>")
	require.Equal(t, []token.Token{
		token.EQL, token.NEQ, token.LE, token.GE, token.CONCAT, token.ELLIPSIS,
		token.DBCOLON, token.SLASHSLASH, token.LTLT, token.GTGT, token.EOF,
	}, toks)
}

func TestScanIntegerAndFloat(t *testing.T) {
	toks, vals := scanAllTokens(t, "42 0x2A 3.14 1e10 0x1p4")
	require.Equal(t, []token.Token{
		token.INT, token.INT, token.FLOAT, token.FLOAT, token.FLOAT, token.EOF,
	}, toks)
	require.EqualValues(t, 42, vals[0].Int)
	require.EqualValues(t, 42, vals[1].Int)
	require.InDelta(t, 3.14, vals[2].Float, 0.0001)
	require.InDelta(t, 1e10, vals[3].Float, 1)
	require.InDelta(t, 16.0, vals[4].Float, 0.0001)
}

func TestScanShortString(t *testing.T) {
	toks, vals := scanAllTokens(t, `"hello\nworld"`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "hello\nworld", vals[0].Str)
}

func TestScanShortStringZEscapeSkipsWhitespace(t *testing.T) {
	toks, vals := scanAllTokens(t, "\"a\\z\n   \tb\"")
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "ab", vals[0].Str)
}

func TestScanLongBracketString(t *testing.T) {
	toks, vals := scanAllTokens(t, "[==[\nhello\n]]\nworld]==]")
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "hello\n]]\nworld", vals[0].Str)
}

func TestScanLongComment(t *testing.T) {
	toks, _ := scanAllTokens(t, "--[[ ignored\nstill ignored ]] local")
	require.Equal(t, []token.Token{token.LOCAL, token.EOF}, toks)
}

func TestScanLineComment(t *testing.T) {
	toks, _ := scanAllTokens(t, "local -- trailing comment\nx")
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.EOF}, toks)
}

func TestScanHashBangSkipped(t *testing.T) {
	toks, _ := scanAllTokens(t, "#!/usr/bin/env lua\nlocal x")
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.EOF}, toks)
}

func TestScanAllHelper(t *testing.T) {
	toks, err := ScanAll("test.lua", []byte("local x = 1"))
	require.NoError(t, err)
	require.Len(t, toks, 5)
	require.Equal(t, token.EOF, toks[len(toks)-1].Token)
}

func TestScanIllegalCharacterReportsError(t *testing.T) {
	var (
		s    Scanner
		errs []string
	)
	s.Init("test.lua", []byte("local $ = 1"), func(_ gotoken.Position, msg string) {
		errs = append(errs, msg)
	})
	for {
		var v token.Value
		tok := s.Scan(&v)
		if tok == token.EOF {
			break
		}
	}
	require.NotEmpty(t, errs)
}
