package codegen

import (
	"fmt"

	"github.com/mna/luacode/lang/token"
	"github.com/mna/luacode/lang/value"
)

// maxStack is the hard ceiling on a function's register file: the A field
// of an instruction is 8 bits wide, so a function cannot address more than
// 255 stack slots.
const maxStack = 255

// UpvalDesc describes one upvalue captured by a function: either a local of
// the immediately enclosing function (InStack true, Index a register) or
// one of that function's own upvalues (InStack false, Index an upvalue
// index).
type UpvalDesc struct {
	Name    string
	InStack bool
	Index   int
}

// LocalVarDesc is one entry of a prototype's local-variable debug
// information: the name of a local and the pc range over which it is live.
type LocalVarDesc struct {
	Name     string
	StartPC  int
	EndPC    int
}

// Prototype is the code of one compiled function, the unit dump/undump
// serializes. It is updated by FuncState as the function is compiled and
// frozen once the function body is fully parsed.
type Prototype struct {
	Source      string
	LineDefined int
	LastLine    int

	NumParams int
	IsVararg  bool
	MaxStack  int

	Code  []Instruction
	Lines []int // parallel to Code

	Constants []value.Value
	Upvalues  []UpvalDesc
	Protos    []*Prototype

	Locals []LocalVarDesc
}

// FuncState is the per-function builder: the live register file, constant
// pool, and instruction/line vectors for the function currently being
// compiled. One FuncState exists per lexical function; each nested function
// literal is compiled by a child FuncState linked to its parent, whose
// completed Prototype is recorded in the parent's Protos vector.
type FuncState struct {
	parent *FuncState

	proto *Prototype

	freereg      int
	nactvar      int
	maxStackSize int

	lasttarget int // pc after which no peephole merge may cross
	jpc        int // pending jump list, patched to the next emitted instruction

	consts *constPool

	activeLocals []activeLocal
	blocks       []*blockCtx

	errs  *ErrorList
	atPos token.Position // position used for the next reported error
}

type activeLocal struct {
	name string
	reg  int
}

// blockCtx tracks one lexically nested block for break-statement resolution:
// isLoop marks a block that break may target, breakList threads every break
// jump emitted directly inside it (not inside a nested loop of its own).
type blockCtx struct {
	isLoop      bool
	localsLevel int
	breakList   int
}

// NewFuncState creates the builder for a new lexical function, nested
// inside parent (nil for the top-level chunk).
func NewFuncState(parent *FuncState, source string, errs *ErrorList) *FuncState {
	fs := &FuncState{
		parent: parent,
		proto:  &Prototype{Source: source},
		consts: newConstPool(),
		errs:   errs,
	}
	fs.jpc = NoJump
	return fs
}

func (fs *FuncState) fail(msg string) {
	fs.errs.Add(fs.atPos, msg)
}

func (fs *FuncState) failf(format string, args ...any) {
	fs.errs.Add(fs.atPos, fmt.Sprintf(format, args...))
}

// SetPos records the source position to attribute to the next emitted
// instruction and to any error raised before the next SetPos call.
func (fs *FuncState) SetPos(pos token.Position) { fs.atPos = pos }

// PC returns the index the next emitted instruction will occupy.
func (fs *FuncState) PC() int { return len(fs.proto.Code) }

// ----- register file -----

// ReserveRegs grows freereg by n, raising maxStackSize as needed and
// failing if the function would need 255 or more registers.
func (fs *FuncState) ReserveRegs(n int) {
	fs.checkStack(n)
	fs.freereg += n
}

func (fs *FuncState) checkStack(n int) {
	newStack := fs.freereg + n
	if newStack > fs.maxStackSize {
		if newStack >= maxStack {
			fs.fail(ErrTooManyRegisters.Error())
			return
		}
		fs.maxStackSize = newStack
	}
}

// FreeReg frees register reg if it is a temporary (not a constant index,
// not below nactvar): the invariant reg == freereg-1 must hold, matching
// the stack discipline of the function's register file.
func (fs *FuncState) FreeReg(reg int) {
	if !isK(reg) && reg >= fs.nactvar {
		fs.freereg--
		// the caller is responsible for respecting reg == freereg after the
		// decrement; this is enforced by construction in every call site below
		// rather than re-checked here, matching the reference implementation's
		// lack of a runtime assertion in the non-debug build.
	}
}

// FreeExpReg frees the register(s) held by e, if it holds a temporary.
func (fs *FuncState) FreeExpReg(e *ExpDesc) {
	if e.Kind == NONRELOC {
		fs.FreeReg(e.Info)
	}
}

// freeExpRegs frees the registers of e1 and e2, higher-numbered first, so
// that both frees satisfy the top-of-stack invariant.
func (fs *FuncState) freeExpRegs(e1, e2 *ExpDesc) {
	if e1.Kind == NONRELOC && e2.Kind == NONRELOC {
		if e1.Info > e2.Info {
			fs.FreeReg(e1.Info)
			fs.FreeReg(e2.Info)
		} else {
			fs.FreeReg(e2.Info)
			fs.FreeReg(e1.Info)
		}
		return
	}
	fs.FreeExpReg(e2)
	fs.FreeExpReg(e1)
}

// NewLocal declares a new active local variable in the next free register
// and returns its register.
func (fs *FuncState) NewLocal(name string) int {
	reg := fs.freereg
	fs.ReserveRegs(1)
	fs.ActivateLocal(name, reg)
	return reg
}

// ActivateLocal declares name as active at reg without reserving a register
// of its own: used when the register already holds the local's value, as
// when a local declaration's initializer expressions were already placed at
// consecutive registers by the expression-list codegen.
func (fs *FuncState) ActivateLocal(name string, reg int) {
	fs.activeLocals = append(fs.activeLocals, activeLocal{name: name, reg: reg})
	fs.nactvar++
	fs.proto.Locals = append(fs.proto.Locals, LocalVarDesc{Name: name, StartPC: fs.PC()})
}

// ResolveLocal returns the register of the active local named name, and
// true if one was found (searching innermost-declared first).
func (fs *FuncState) ResolveLocal(name string) (int, bool) {
	for i := len(fs.activeLocals) - 1; i >= 0; i-- {
		if fs.activeLocals[i].name == name {
			return fs.activeLocals[i].reg, true
		}
	}
	return 0, false
}

// ResolveUpval resolves name as an upvalue, recursively searching enclosing
// functions and threading intermediate upvalues through, the way a nested
// closure captures a grandparent's local.
func (fs *FuncState) ResolveUpval(name string) (int, bool) {
	for i, uv := range fs.proto.Upvalues {
		if uv.Name == name {
			return i, true
		}
	}
	if fs.parent == nil {
		return 0, false
	}
	if reg, ok := fs.parent.ResolveLocal(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalDesc{Name: name, InStack: true, Index: reg})
		return len(fs.proto.Upvalues) - 1, true
	}
	if idx, ok := fs.parent.ResolveUpval(name); ok {
		fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalDesc{Name: name, InStack: false, Index: idx})
		return len(fs.proto.Upvalues) - 1, true
	}
	return 0, false
}

// LeaveBlock closes every local declared at or above level, resetting
// nactvar and freeing their registers.
func (fs *FuncState) LeaveBlock(level int) {
	// the debug entries still open (EndPC 0) are those of the active locals,
	// in declaration order, so the last ones belong to the locals leaving.
	toClose := len(fs.activeLocals) - level
	for i := len(fs.proto.Locals) - 1; i >= 0 && toClose > 0; i-- {
		if fs.proto.Locals[i].EndPC == 0 {
			fs.proto.Locals[i].EndPC = fs.PC()
			toClose--
		}
	}
	for len(fs.activeLocals) > level {
		fs.activeLocals = fs.activeLocals[:len(fs.activeLocals)-1]
	}
	fs.nactvar = level
	fs.freereg = level
}

// ActiveLocalCount returns nactvar, the number of currently active local
// variables (and thus the level a later LeaveBlock call should restore to).
func (fs *FuncState) ActiveLocalCount() int { return fs.nactvar }

// EnterBlock pushes a new lexical block, recording whether it is a loop
// body (the target of a break statement) and the local-variable level to
// restore to when it closes.
func (fs *FuncState) EnterBlock(isLoop bool) {
	fs.blocks = append(fs.blocks, &blockCtx{isLoop: isLoop, localsLevel: fs.nactvar, breakList: NoJump})
}

// LeaveBlockScope closes the innermost block: it leaves the locals declared
// inside it and, for a loop block, patches every break jump collected in it
// to the current pc.
func (fs *FuncState) LeaveBlockScope() {
	b := fs.blocks[len(fs.blocks)-1]
	fs.blocks = fs.blocks[:len(fs.blocks)-1]
	fs.LeaveBlock(b.localsLevel)
	if b.isLoop {
		fs.PatchToHere(b.breakList)
	}
}

// AddBreak records a break jump against the innermost enclosing loop block,
// reporting a compile error if break appears outside any loop.
func (fs *FuncState) AddBreak(pc int) {
	for i := len(fs.blocks) - 1; i >= 0; i-- {
		if fs.blocks[i].isLoop {
			fs.Concat(&fs.blocks[i].breakList, pc)
			return
		}
	}
	fs.fail("break outside a loop")
}

// Finish closes out the prototype: finalizes maxStackSize and local debug
// ranges, and returns it.
func (fs *FuncState) Finish(lastLine int) *Prototype {
	for i := range fs.proto.Locals {
		if fs.proto.Locals[i].EndPC == 0 {
			fs.proto.Locals[i].EndPC = fs.PC()
		}
	}
	fs.proto.MaxStack = fs.maxStackSize
	if fs.proto.MaxStack < 2 {
		fs.proto.MaxStack = 2 // slots 0/1 are always reserved, as in the reference VM
	}
	fs.proto.LastLine = lastLine
	fs.proto.Constants = fs.consts.values()
	return fs.proto
}
