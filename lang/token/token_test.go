package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d", tok)
	}
}

func TestKeywordsRoundTrip(t *testing.T) {
	for lit, tok := range Keywords {
		require.Equal(t, lit, tok.String())
	}
}

func TestGoStringQuotesPunctuation(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "and", AND.GoString())
}
