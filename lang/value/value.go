// Package value defines the tagged constant/runtime value algebra shared by
// the code generator's constant pool and the bytecode dump/undump wire
// format: nil, boolean, 64-bit integer, 64-bit float, and string, with no
// implicit conversion between the numeric kinds so that an integer constant
// and a float constant of equal magnitude are never the same pool entry.
package value

import (
	"fmt"
	"math"
)

// Kind discriminates the dynamic type carried by a Value.
type Kind uint8

// The kinds of value a Lua-family constant or literal can carry.
const (
	Nil Kind = iota
	Bool
	Int
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Value is a tagged, comparable constant value. It is comparable (usable as
// a map key and with ==) so that it can serve directly as the interning key
// for the constant pool: two Values compare equal only if their Kind and
// payload both match, so an Int(3) and a Float(3) never collide.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// NewNil returns the nil value.
func NewNil() Value { return Value{kind: Nil} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewInt returns an integer value.
func NewInt(i int64) Value { return Value{kind: Int, i: i} }

// NewFloat returns a float value.
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: String, s: s} }

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// Bool returns v's boolean payload; only meaningful if Kind() == Bool.
func (v Value) Bool() bool { return v.b }

// Int returns v's integer payload; only meaningful if Kind() == Int.
func (v Value) Int() int64 { return v.i }

// Float returns v's float payload; only meaningful if Kind() == Float.
func (v Value) Float() float64 { return v.f }

// Str returns v's string payload; only meaningful if Kind() == String.
func (v Value) Str() string { return v.s }

// IsNumber reports whether v is an Int or a Float.
func (v Value) IsNumber() bool { return v.kind == Int || v.kind == Float }

// IsFalsy reports whether v is considered false in a boolean context: only
// nil and the boolean false are falsy, matching Lua's truthiness (0 and ""
// are truthy).
func (v Value) IsFalsy() bool {
	return v.kind == Nil || (v.kind == Bool && !v.b)
}

// String renders v the way a disassembly listing or error message would.
func (v Value) String() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return fmt.Sprintf("%g", v.f)
		}
		return fmt.Sprintf("%g", v.f)
	case String:
		return fmt.Sprintf("%q", v.s)
	default:
		return "<invalid>"
	}
}
