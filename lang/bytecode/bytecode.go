// Package bytecode implements the binary wire format for a compiled
// Prototype: Dump serializes it the way ldump.c walks a Proto tree, and
// Undump reverses it, checking the same header fields luaU_undump checks
// before trusting the rest of the stream.
package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mna/luacode/lang/codegen"
	"github.com/mna/luacode/lang/value"
)

// signature, version, format, and data are the header fields a loader
// checks before reading anything else: a mismatch means the stream is not
// one of ours, or was produced by a version whose encoding this package
// cannot assume compatibility with.
const (
	signature = "\x1bLua"
	version   = 0x54 // major*16 + minor, mirrors LUAC_VERSION for 5.4
	format    = 0

	// data is a short byte sequence with values a text-mode transfer would
	// corrupt (a carriage return, a line feed, an EOF byte), used to detect
	// such corruption on load, matching LUAC_DATA.
	data = "\x19\x93\r\n\x1a\n"

	// luacInt and luacNum are dumped and checked verbatim to detect a
	// mismatched integer/float representation between dump and undump,
	// matching LUAC_INT/LUAC_NUM.
	luacInt int64   = 0x5678
	luacNum float64 = 370.5
)

// constant tags, one byte per constant pool entry.
const (
	tagNil byte = iota
	tagFalse
	tagTrue
	tagInt
	tagFloat
	tagString
)

// Dump serializes proto and its nested prototypes to w in the wire format
// Undump reads back.
func Dump(w io.Writer, proto *codegen.Prototype) error {
	d := &dumper{w: bufio.NewWriter(w)}
	d.header()
	d.byteVal(byte(len(proto.Upvalues)))
	d.function(proto, "")
	if d.err == nil {
		d.err = d.w.Flush()
	}
	return d.err
}

type dumper struct {
	w   *bufio.Writer
	err error
}

func (d *dumper) write(b []byte) {
	if d.err != nil {
		return
	}
	_, d.err = d.w.Write(b)
}

func (d *dumper) byteVal(b byte) { d.write([]byte{b}) }

func (d *dumper) boolVal(b bool) {
	if b {
		d.byteVal(1)
	} else {
		d.byteVal(0)
	}
}

func (d *dumper) int32Val(x int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(x)))
	d.write(buf[:])
}

func (d *dumper) int64Val(x int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(x))
	d.write(buf[:])
}

func (d *dumper) floatVal(x float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
	d.write(buf[:])
}

// str dumps a string as a length (n+1) followed by its bytes; the empty
// string is dumped as a single 0 byte, which is also how function() dumps
// a nested function's source when it equals its parent's.
func (d *dumper) str(s string) {
	if s == "" {
		d.byteVal(0)
		return
	}
	n := len(s) + 1
	if n < 0xff {
		d.byteVal(byte(n))
	} else {
		d.byteVal(0xff)
		d.int64Val(int64(n))
	}
	d.write([]byte(s))
}

func (d *dumper) header() {
	d.write([]byte(signature))
	d.byteVal(version)
	d.byteVal(format)
	d.write([]byte(data))
	d.int64Val(luacInt)
	d.floatVal(luacNum)
}

func (d *dumper) code(proto *codegen.Prototype) {
	d.int32Val(len(proto.Code))
	for _, instr := range proto.Code {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(instr))
		d.write(buf[:])
	}
}

func (d *dumper) constants(proto *codegen.Prototype) {
	d.int32Val(len(proto.Constants))
	for _, k := range proto.Constants {
		switch k.Kind() {
		case value.Nil:
			d.byteVal(tagNil)
		case value.Bool:
			if k.Bool() {
				d.byteVal(tagTrue)
			} else {
				d.byteVal(tagFalse)
			}
		case value.Int:
			d.byteVal(tagInt)
			d.int64Val(k.Int())
		case value.Float:
			d.byteVal(tagFloat)
			d.floatVal(k.Float())
		case value.String:
			d.byteVal(tagString)
			d.str(k.Str())
		default:
			d.err = fmt.Errorf("bytecode: cannot dump constant of kind %s", k.Kind())
		}
	}
}

func (d *dumper) upvalues(proto *codegen.Prototype) {
	d.int32Val(len(proto.Upvalues))
	for _, uv := range proto.Upvalues {
		d.boolVal(uv.InStack)
		d.byteVal(byte(uv.Index))
	}
}

func (d *dumper) protos(proto *codegen.Prototype, parentSource string) {
	d.int32Val(len(proto.Protos))
	for _, p := range proto.Protos {
		d.function(p, parentSource)
	}
}

func (d *dumper) debug(proto *codegen.Prototype) {
	d.int32Val(len(proto.Lines))
	for _, l := range proto.Lines {
		d.int32Val(l)
	}
	d.int32Val(len(proto.Locals))
	for _, lv := range proto.Locals {
		d.str(lv.Name)
		d.int32Val(lv.StartPC)
		d.int32Val(lv.EndPC)
	}
	d.int32Val(len(proto.Upvalues))
	for _, uv := range proto.Upvalues {
		d.str(uv.Name)
	}
}

// function dumps proto, omitting its source name when it matches the
// parent's (the common case for every nested function of a chunk), the
// same space-saving DumpFunction does for f->source == psource.
func (d *dumper) function(proto *codegen.Prototype, parentSource string) {
	if proto.Source == parentSource {
		d.str("")
	} else {
		d.str(proto.Source)
	}
	d.int32Val(proto.LineDefined)
	d.int32Val(proto.LastLine)
	d.byteVal(byte(proto.NumParams))
	d.boolVal(proto.IsVararg)
	d.byteVal(byte(proto.MaxStack))
	d.code(proto)
	d.constants(proto)
	d.upvalues(proto)
	d.protos(proto, proto.Source)
	d.debug(proto)
}

// Undump parses a Prototype previously written by Dump.
func Undump(r io.Reader) (*codegen.Prototype, error) {
	u := &undumper{r: bufio.NewReader(r)}
	u.checkHeader()
	if u.err != nil {
		return nil, u.err
	}
	nup := int(u.byteVal())
	proto := u.function("")
	if u.err != nil {
		return nil, u.err
	}
	if len(proto.Upvalues) != nup {
		return nil, fmt.Errorf("bytecode: top-level upvalue count mismatch: header says %d, function has %d", nup, len(proto.Upvalues))
	}
	return proto, nil
}

type undumper struct {
	r   *bufio.Reader
	err error
}

func (u *undumper) read(n int) []byte {
	if u.err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(u.r, buf); err != nil {
		u.err = fmt.Errorf("bytecode: %w", err)
	}
	return buf
}

func (u *undumper) byteVal() byte { return u.read(1)[0] }

func (u *undumper) boolVal() bool { return u.byteVal() != 0 }

func (u *undumper) int32Val() int {
	return int(int32(binary.LittleEndian.Uint32(u.read(4))))
}

func (u *undumper) int64Val() int64 {
	return int64(binary.LittleEndian.Uint64(u.read(8)))
}

func (u *undumper) floatVal() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(u.read(8)))
}

func (u *undumper) str() string {
	n := int(u.byteVal())
	if n == 0 {
		return ""
	}
	if n == 0xff {
		n = int(u.int64Val())
	}
	b := u.read(n - 1)
	return string(b)
}

func (u *undumper) checkLiteral(want, what string) {
	got := string(u.read(len(want)))
	if u.err == nil && got != want {
		u.err = fmt.Errorf("bytecode: %s precompiled chunk", what)
	}
}

func (u *undumper) checkHeader() {
	u.checkLiteral(signature, "not a")
	if u.err == nil && u.byteVal() != version {
		u.err = fmt.Errorf("bytecode: version mismatch in precompiled chunk")
	}
	if u.err == nil && u.byteVal() != format {
		u.err = fmt.Errorf("bytecode: format mismatch in precompiled chunk")
	}
	u.checkLiteral(data, "corrupted")
	if u.err == nil && u.int64Val() != luacInt {
		u.err = fmt.Errorf("bytecode: integer size/endianness mismatch in precompiled chunk")
	}
	if u.err == nil && u.floatVal() != luacNum {
		u.err = fmt.Errorf("bytecode: float format mismatch in precompiled chunk")
	}
}

func (u *undumper) code(proto *codegen.Prototype) {
	n := u.int32Val()
	proto.Code = make([]codegen.Instruction, n)
	for i := range proto.Code {
		proto.Code[i] = codegen.Instruction(binary.LittleEndian.Uint32(u.read(4)))
	}
}

func (u *undumper) constants(proto *codegen.Prototype) {
	n := u.int32Val()
	proto.Constants = make([]value.Value, n)
	for i := range proto.Constants {
		switch tag := u.byteVal(); tag {
		case tagNil:
			proto.Constants[i] = value.NewNil()
		case tagFalse:
			proto.Constants[i] = value.NewBool(false)
		case tagTrue:
			proto.Constants[i] = value.NewBool(true)
		case tagInt:
			proto.Constants[i] = value.NewInt(u.int64Val())
		case tagFloat:
			proto.Constants[i] = value.NewFloat(u.floatVal())
		case tagString:
			proto.Constants[i] = value.NewString(u.str())
		default:
			if u.err == nil {
				u.err = fmt.Errorf("bytecode: invalid constant tag %d", tag)
			}
		}
	}
}

func (u *undumper) upvalues(proto *codegen.Prototype) {
	n := u.int32Val()
	proto.Upvalues = make([]codegen.UpvalDesc, n)
	for i := range proto.Upvalues {
		proto.Upvalues[i].InStack = u.boolVal()
		proto.Upvalues[i].Index = int(u.byteVal())
	}
}

func (u *undumper) protos(proto *codegen.Prototype, parentSource string) {
	n := u.int32Val()
	proto.Protos = make([]*codegen.Prototype, n)
	for i := range proto.Protos {
		proto.Protos[i] = u.function(parentSource)
	}
}

func (u *undumper) debug(proto *codegen.Prototype) {
	n := u.int32Val()
	proto.Lines = make([]int, n)
	for i := range proto.Lines {
		proto.Lines[i] = u.int32Val()
	}
	nl := u.int32Val()
	proto.Locals = make([]codegen.LocalVarDesc, nl)
	for i := range proto.Locals {
		proto.Locals[i].Name = u.str()
		proto.Locals[i].StartPC = u.int32Val()
		proto.Locals[i].EndPC = u.int32Val()
	}
	nu := u.int32Val()
	if nu != len(proto.Upvalues) {
		if u.err == nil {
			u.err = fmt.Errorf("bytecode: upvalue name count mismatch: %d names, %d upvalues", nu, len(proto.Upvalues))
		}
		return
	}
	for i := range proto.Upvalues {
		proto.Upvalues[i].Name = u.str()
	}
}

func (u *undumper) function(parentSource string) *codegen.Prototype {
	proto := &codegen.Prototype{}
	proto.Source = u.str()
	if proto.Source == "" {
		proto.Source = parentSource
	}
	proto.LineDefined = u.int32Val()
	proto.LastLine = u.int32Val()
	proto.NumParams = int(u.byteVal())
	proto.IsVararg = u.boolVal()
	proto.MaxStack = int(u.byteVal())
	u.code(proto)
	u.constants(proto)
	u.upvalues(proto)
	u.protos(proto, proto.Source)
	u.debug(proto)
	return proto
}
