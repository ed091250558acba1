package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntAndFloatNeverEqual(t *testing.T) {
	i := NewInt(3)
	f := NewFloat(3)
	require.NotEqual(t, i, f)
	require.Equal(t, Int, i.Kind())
	require.Equal(t, Float, f.Kind())
}

func TestEqualityIsByKindAndPayload(t *testing.T) {
	require.Equal(t, NewInt(42), NewInt(42))
	require.Equal(t, NewString("x"), NewString("x"))
	require.NotEqual(t, NewString("x"), NewString("y"))
	require.Equal(t, NewNil(), NewNil())
}

func TestIsFalsy(t *testing.T) {
	require.True(t, NewNil().IsFalsy())
	require.True(t, NewBool(false).IsFalsy())
	require.False(t, NewBool(true).IsFalsy())
	require.False(t, NewInt(0).IsFalsy())
	require.False(t, NewString("").IsFalsy())
}

func TestIsNumber(t *testing.T) {
	require.True(t, NewInt(1).IsNumber())
	require.True(t, NewFloat(1).IsNumber())
	require.False(t, NewString("1").IsNumber())
	require.False(t, NewNil().IsNumber())
}
