package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/luacode/lang/codegen"
	"github.com/mna/luacode/lang/value"
)

func sampleProto() *codegen.Prototype {
	return &codegen.Prototype{
		Source:      "sample.lua",
		LineDefined: 0,
		LastLine:    3,
		NumParams:   0,
		IsVararg:    true,
		MaxStack:    2,
		Code: []codegen.Instruction{
			codegen.Instruction(0x01020304),
			codegen.Instruction(0x0506070809 & 0xffffffff),
		},
		Lines: []int{1, 2},
		Constants: []value.Value{
			value.NewNil(),
			value.NewBool(true),
			value.NewInt(-42),
			value.NewFloat(3.5),
			value.NewString("hello"),
			value.NewString(""),
		},
		Upvalues: []codegen.UpvalDesc{
			{Name: "_ENV", InStack: true, Index: 0},
		},
		Locals: []codegen.LocalVarDesc{
			{Name: "x", StartPC: 0, EndPC: 2},
		},
	}
}

func TestDumpUndumpRoundTrip(t *testing.T) {
	proto := sampleProto()
	proto.Protos = []*codegen.Prototype{sampleProto()}

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, proto))

	got, err := Undump(&buf)
	require.NoError(t, err)

	assert.Equal(t, proto.Source, got.Source)
	assert.Equal(t, proto.LastLine, got.LastLine)
	assert.Equal(t, proto.IsVararg, got.IsVararg)
	assert.Equal(t, proto.MaxStack, got.MaxStack)
	assert.Equal(t, proto.Code, got.Code)
	assert.Equal(t, proto.Constants, got.Constants)
	assert.Equal(t, proto.Upvalues, got.Upvalues)
	assert.Equal(t, proto.Locals, got.Locals)
	require.Len(t, got.Protos, 1)
	assert.Equal(t, proto.Source, got.Protos[0].Source)
}

func TestUndumpRejectsBadSignature(t *testing.T) {
	_, err := Undump(bytes.NewReader([]byte("not lua bytecode at all")))
	assert.Error(t, err)
}
