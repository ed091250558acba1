package codegen

import (
	"errors"
	"fmt"

	"github.com/mna/luacode/lang/token"
)

// CompileError is a fatal condition raised by the code generator: a
// register/constant/jump-range overflow, or an operation that would violate
// an invariant of the single-pass register allocator. The reference
// implementation unwinds these with a non-local jump; here they are plain
// returned errors, collected the same way go/scanner.ErrorList accumulates
// lexical errors.
type CompileError struct {
	Pos token.Position
	Msg string
}

func (e *CompileError) Error() string {
	if e.Pos.Filename == "" && e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Sentinel errors wrapped by specific CompileError values, so callers can
// use errors.Is to classify a failure without string matching.
var (
	ErrTooManyRegisters  = errors.New("function or expression needs too many registers")
	ErrControlTooLong    = errors.New("control structure too long")
	ErrConstructorTooLong = errors.New("constructor too long")
	ErrTooManyConstants  = errors.New("too many constants")
)

func (e *CompileError) Unwrap() error {
	switch {
	case e.Msg == ErrTooManyRegisters.Error():
		return ErrTooManyRegisters
	case e.Msg == ErrControlTooLong.Error():
		return ErrControlTooLong
	case e.Msg == ErrConstructorTooLong.Error():
		return ErrConstructorTooLong
	case e.Msg == ErrTooManyConstants.Error():
		return ErrTooManyConstants
	default:
		return nil
	}
}

// ErrorList accumulates CompileErrors for a single compilation, mirroring
// go/scanner.ErrorList's Add/Err/Unwrap contract.
type ErrorList []*CompileError

// Add appends a new CompileError built from pos and msg.
func (l *ErrorList) Add(pos token.Position, msg string) {
	*l = append(*l, &CompileError{Pos: pos, Msg: msg})
}

// Err returns l as an error, or nil if l is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
	}
}

// Unwrap allows errors.Is/errors.As to reach any individual CompileError.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
