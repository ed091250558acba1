package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePosLineCol(t *testing.T) {
	p := MakePos(12, 34)
	line, col := p.LineCol()
	require.Equal(t, 12, line)
	require.Equal(t, 34, col)
	require.False(t, p.Unknown())
}

func TestPosUnknown(t *testing.T) {
	require.True(t, Pos(0).Unknown())
	require.True(t, MakePos(0, 1).Unknown())
	require.True(t, MakePos(1, 0).Unknown())
}

func TestPositionString(t *testing.T) {
	p := MakePos(3, 7).At("chunk.lua")
	require.Equal(t, "chunk.lua:3:7", p.String())

	anon := MakePos(3, 7).At("")
	require.Equal(t, "3:7", anon.String())
}
