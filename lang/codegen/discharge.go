package codegen

import "github.com/mna/luacode/lang/value"

// DischargeVars materializes addressing-mode descriptors into a concrete
// value-producing form: LOCAL becomes NONRELOC in place, UPVAL/INDEXED
// each emit the instruction that reads them, and CALL/VARARG have their
// already-emitted instruction fixed to a single result.
func (fs *FuncState) DischargeVars(e *ExpDesc) {
	switch e.Kind {
	case LOCAL:
		e.Kind = NONRELOC
	case UPVAL:
		pc := fs.EmitABC(GETUPVAL, 0, e.Info, 0)
		e.Kind = RELOCABLE
		e.Info = pc
	case INDEXED:
		var op Opcode
		var b int
		if e.Ind.TableIsUp {
			op, b = GETTABUP, e.Ind.TableReg
		} else {
			op, b = GETTABLE, e.Ind.TableReg
		}
		// free the key before the table: the key register, if any, was
		// reserved after the table's and must be freed first to keep the
		// top-of-stack invariant.
		fs.freeIndexKey(e)
		if !e.Ind.TableIsUp {
			fs.FreeReg(e.Ind.TableReg)
		}
		pc := fs.EmitABC(op, 0, b, e.Ind.KeyRK)
		e.Kind = RELOCABLE
		e.Info = pc
	case CALL:
		fs.SetOneRet(e)
	case VARARG:
		e.Kind = RELOCABLE
	default:
		// already discharged or has no addressing mode to resolve.
	}
}

func (fs *FuncState) freeIndexKey(e *ExpDesc) {
	if !isK(e.Ind.KeyRK) {
		fs.FreeReg(e.Ind.KeyRK)
	}
}

// discharge2reg materializes e into exactly reg, emitting the instruction
// appropriate to its kind, or patching a RELOCABLE instruction's A field in
// place.
func (fs *FuncState) discharge2reg(e *ExpDesc, reg int) {
	fs.DischargeVars(e)
	switch e.Kind {
	case NILX:
		fs.EmitNil(reg, 1)
	case TRUE:
		fs.EmitABC(LOADBOOL, reg, 1, 0)
	case FALSE:
		fs.EmitABC(LOADBOOL, reg, 0, 0)
	case KINT:
		fs.EmitK(reg, fs.consts.addK(value.NewInt(e.Ival)))
	case KFLT:
		fs.EmitK(reg, fs.consts.addK(value.NewFloat(e.Nval)))
	case K:
		fs.EmitK(reg, uint32(e.Info))
	case RELOCABLE:
		instr := fs.proto.Code[e.Info]
		instr.setA(reg)
		fs.proto.Code[e.Info] = instr
	case NONRELOC:
		if e.Info != reg {
			fs.EmitABC(MOVE, reg, e.Info, 0)
		}
	case VOID:
		return
	default:
		return
	}
	e.Kind = NONRELOC
	e.Info = reg
}

// Exp2Reg discharges e into reg and resolves any pending jump lists via the
// boolean-materialization trampoline.
func (fs *FuncState) Exp2Reg(e *ExpDesc, reg int) {
	fs.discharge2reg(e, reg)
	if e.Kind == JMP {
		fs.Concat(&e.T, e.Info)
	}
	if e.hasJumps() {
		var pf, pt int = NoJump, NoJump
		if fs.needsValue(e.T) || fs.needsValue(e.F) {
			var fj int
			if e.Kind != JMP {
				fj = fs.Jump()
			} else {
				fj = NoJump
			}
			pf = fs.GetLabel()
			fs.EmitABC(LOADBOOL, reg, 0, 1)
			pt = fs.GetLabel()
			fs.EmitABC(LOADBOOL, reg, 1, 0)
			fs.PatchToHere(fj)
		}
		final := fs.GetLabel()
		fs.patchListAux(e.F, final, reg, pf)
		fs.patchListAux(e.T, final, reg, pt)
	}
	e.T, e.F = NoJump, NoJump
	e.Kind = NONRELOC
	e.Info = reg
}

// needsValue reports whether any jump in list is not a value-producing
// TESTSET, meaning the boolean trampoline must materialize a concrete
// true/false value for it.
func (fs *FuncState) needsValue(list int) bool {
	for l := list; l != NoJump; l = fs.getJump(l) {
		testPC := l - 1
		if testPC < 0 || fs.proto.Code[testPC].Opcode() != TESTSET {
			return true
		}
	}
	return false
}

// Exp2NextReg frees any temporary held by e, reserves the next register,
// and discharges e into it.
func (fs *FuncState) Exp2NextReg(e *ExpDesc) {
	fs.DischargeVars(e)
	fs.FreeExpReg(e)
	fs.ReserveRegs(1)
	fs.Exp2Reg(e, fs.freereg-1)
}

// Exp2AnyReg returns a register holding e's value: it reuses e's own
// register when e is already NONRELOC with no pending jumps, or a
// temporary (at or above nactvar) with pending jumps, and otherwise
// allocates a fresh one.
func (fs *FuncState) Exp2AnyReg(e *ExpDesc) int {
	fs.DischargeVars(e)
	if e.Kind == NONRELOC {
		if !e.hasJumps() {
			return e.Info
		}
		if e.Info >= fs.nactvar {
			fs.Exp2Reg(e, e.Info)
			return e.Info
		}
	}
	fs.Exp2NextReg(e)
	return e.Info
}

// exp2val is dischargevars when e has no pending jumps, else Exp2AnyReg: it
// fully resolves e to a usable value without necessarily placing it in a
// specific register.
func (fs *FuncState) exp2val(e *ExpDesc) {
	if e.hasJumps() {
		fs.Exp2AnyReg(e)
	} else {
		fs.DischargeVars(e)
	}
}

// Exp2RK resolves e like exp2val, additionally converting small
// nil/bool/numeric/string constants into an RK-encoded constant-pool index
// when that index fits the 8-bit MaxIndexRK limit.
func (fs *FuncState) Exp2RK(e *ExpDesc) int {
	fs.exp2val(e)
	switch e.Kind {
	case NILX:
		e.Info = int(fs.consts.addK(value.NewNil()))
		e.Kind = K
	case TRUE:
		e.Info = int(fs.consts.addK(value.NewBool(true)))
		e.Kind = K
	case FALSE:
		e.Info = int(fs.consts.addK(value.NewBool(false)))
		e.Kind = K
	case KINT:
		e.Info = int(fs.consts.addK(value.NewInt(e.Ival)))
		e.Kind = K
	case KFLT:
		e.Info = int(fs.consts.addK(value.NewFloat(e.Nval)))
		e.Kind = K
	}
	if e.Kind == K && e.Info <= MaxIndexRK {
		return rkAsK(e.Info)
	}
	return fs.Exp2AnyReg(e)
}

// SetOneRet fixes a CALL or VARARG descriptor to produce exactly one
// result: CALL becomes NONRELOC at the call's own register, VARARG becomes
// RELOCABLE.
func (fs *FuncState) SetOneRet(e *ExpDesc) {
	if e.Kind == CALL {
		instr := fs.proto.Code[e.Info]
		instr.setC(2) // C=2 means exactly 1 result
		fs.proto.Code[e.Info] = instr
		e.Kind = NONRELOC
		e.Info = instr.A()
	} else if e.Kind == VARARG {
		instr := fs.proto.Code[e.Info]
		instr.setB(2)
		fs.proto.Code[e.Info] = instr
		e.Kind = RELOCABLE
	}
}

// SetReturns fixes a CALL or VARARG to produce nresults results, or leaves
// it open (MULTRET, encoded as 0) when nresults is MultRet. A VARARG is
// also placed at the next free register, which is reserved for it, so that
// either kind then occupies one register at the top of the stack.
func (fs *FuncState) SetReturns(e *ExpDesc, nresults int) {
	encode := func(n int) int {
		if n == MultRet {
			return 0
		}
		return n + 1
	}
	if e.Kind == CALL {
		instr := fs.proto.Code[e.Info]
		instr.setC(encode(nresults))
		fs.proto.Code[e.Info] = instr
	} else if e.Kind == VARARG {
		instr := fs.proto.Code[e.Info]
		instr.setB(encode(nresults))
		instr.setA(fs.freereg)
		fs.proto.Code[e.Info] = instr
		fs.ReserveRegs(1)
	}
}

// MultRet is the sentinel result count meaning "as many as produced".
const MultRet = -1
