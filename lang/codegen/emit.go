package codegen

// code appends instruction i at the current source position, after first
// discharging any pending jumps (fs.jpc) so they resolve to the pc i is
// about to occupy. It returns the pc of the appended instruction.
func (fs *FuncState) code(i Instruction) int {
	fs.dischargeJpc()
	fs.proto.Code = append(fs.proto.Code, i)
	fs.proto.Lines = append(fs.proto.Lines, fs.atPos.Line)
	return len(fs.proto.Code) - 1
}

// EmitABC emits an ABC-layout instruction, after validating its operand
// fields fit their widths.
func (fs *FuncState) EmitABC(op Opcode, a, b, c int) int {
	if a < 0 || a > MaxArgA || b < 0 || b > MaxArgBC || c < 0 || c > MaxArgBC {
		fs.fail("instruction operand out of range")
	}
	return fs.code(createABC(op, a, b, c))
}

// EmitABx emits an ABx-layout instruction.
func (fs *FuncState) EmitABx(op Opcode, a, bx int) int {
	if a < 0 || a > MaxArgA || bx < 0 || bx > MaxArgBx {
		fs.fail("instruction operand out of range")
	}
	return fs.code(createABx(op, a, bx))
}

// EmitAsBx emits an AsBx-layout instruction.
func (fs *FuncState) EmitAsBx(op Opcode, a, sbx int) int {
	if sbx < -MaxArgSBx || sbx > MaxArgSBx {
		fs.fail(ErrControlTooLong.Error())
	}
	return fs.code(createAsBx(op, a, sbx))
}

// EmitExtraArg emits a standalone EXTRAARG instruction extending the
// immediate range of the instruction just emitted (LOADKX or SETLIST).
func (fs *FuncState) EmitExtraArg(ax int) int {
	return fs.code(createAx(EXTRAARG, ax))
}

// EmitK loads constant-pool index k into reg, using the compact LOADK form
// when it fits in the Bx field and LOADKX+EXTRAARG otherwise.
func (fs *FuncState) EmitK(reg int, k uint32) int {
	if k <= MaxArgBx {
		return fs.EmitABx(LOADK, reg, int(k))
	}
	pc := fs.EmitABx(LOADKX, reg, 0)
	fs.EmitExtraArg(int(k))
	return pc
}

// EmitNil implements the LOADNIL peephole: loading nil into
// [from, from+n-1] merges into the immediately preceding LOADNIL if its
// range touches or overlaps and no jump target lies between them.
func (fs *FuncState) EmitNil(from, n int) {
	if n == 0 {
		return
	}
	pc := fs.PC()
	if pc > fs.lasttarget && pc > 0 {
		prev := fs.proto.Code[pc-1]
		if prev.Opcode() == LOADNIL {
			pFrom, pLast := prev.A(), prev.A()+prev.B()
			last := from + n - 1
			if pFrom <= last+1 && from <= pLast+1 {
				newFrom, newLast := pFrom, pLast
				if from < newFrom {
					newFrom = from
				}
				if last > newLast {
					newLast = last
				}
				prev.setA(newFrom)
				prev.setB(newLast - newFrom)
				fs.proto.Code[pc-1] = prev
				return
			}
		}
	}
	fs.EmitABC(LOADNIL, from, n-1, 0)
}

// GetLabel returns the current pc and marks it as a jump target, inhibiting
// peephole merges across it.
func (fs *FuncState) GetLabel() int {
	fs.lasttarget = fs.PC()
	return fs.lasttarget
}

// dischargeJpc patches every pending jump in fs.jpc to the pc about to be
// written (the next call to code), then empties the list.
func (fs *FuncState) dischargeJpc() {
	fs.patchListAux(fs.jpc, fs.PC(), NoReg, fs.PC())
	fs.jpc = NoJump
}

// getJump returns the pc of the next node in the jump list threaded through
// the JMP at pc, or NoJump if pc terminates the list.
func (fs *FuncState) getJump(pc int) int {
	offset := fs.proto.Code[pc].SBx()
	if offset == NoJump {
		return NoJump
	}
	return pc + 1 + offset
}

// fixJump writes the signed offset from pc to dest into the JMP at pc.
func (fs *FuncState) fixJump(pc, dest int) {
	offset := dest - (pc + 1)
	if offset < -MaxArgSBx || offset > MaxArgSBx {
		fs.fail(ErrControlTooLong.Error())
		return
	}
	instr := fs.proto.Code[pc]
	instr.setSBx(offset)
	fs.proto.Code[pc] = instr
}

// Jump saves the current pending-jump list, emits an unconditional JMP with
// a placeholder offset, and concatenates the saved list onto the new jump
// so every one of them resolves together once this JMP is patched.
func (fs *FuncState) Jump() int {
	savedJpc := fs.jpc
	fs.jpc = NoJump
	pc := fs.EmitAsBx(JMP, 0, NoJump)
	fs.Concat(&pc, savedJpc)
	return pc
}

// Concat appends jump list l2 onto the end of list l1 (passed by pointer
// since an empty l1 becomes l2 itself).
func (fs *FuncState) Concat(l1 *int, l2 int) {
	if l2 == NoJump {
		return
	}
	if *l1 == NoJump {
		*l1 = l2
		return
	}
	list := *l1
	for {
		next := fs.getJump(list)
		if next == NoJump {
			break
		}
		list = next
	}
	fs.fixJump(list, l2)
}

// PatchToHere patches list so it resolves to the pc about to be emitted: it
// is folded into fs.jpc, the pending list discharged by the next emission.
func (fs *FuncState) PatchToHere(list int) {
	fs.GetLabel()
	fs.Concat(&fs.jpc, list)
}

// PatchList patches every jump in list to target (or accumulates into the
// pending list if target is the pc about to be emitted).
func (fs *FuncState) PatchList(list, target int) {
	if target == fs.PC() {
		fs.PatchToHere(list)
		return
	}
	fs.patchListAux(list, target, NoReg, target)
}

// patchListAux walks list; TESTSET controls are rewritten to produce their
// value into reg (or degraded to TEST if reg == NoReg or already matches),
// then their jump is fixed to vtarget; non-TESTSET controls are fixed to
// dtarget.
func (fs *FuncState) patchListAux(list, vtarget, reg, dtarget int) {
	for list != NoJump {
		next := fs.getJump(list)
		if fs.patchTestReg(list, reg) {
			fs.fixJump(list, vtarget)
		} else {
			fs.fixJump(list, dtarget)
		}
		list = next
	}
}

// patchTestReg rewrites the TESTSET preceding the JMP at jmppc (if any) to
// target reg, degrading it to a plain TEST when reg is NoReg or already the
// TESTSET's B operand. It returns true iff the control was a TESTSET,
// whether retargeted or degraded (meaning the jump should resolve to the
// value target).
func (fs *FuncState) patchTestReg(jmppc, reg int) bool {
	testPC := jmppc - 1
	if testPC < 0 {
		return false
	}
	test := fs.proto.Code[testPC]
	if test.Opcode() != TESTSET {
		return false
	}
	if reg != NoReg && reg != test.B() {
		test.setA(reg)
		fs.proto.Code[testPC] = test
		return true
	}
	// degrade to plain TEST: C keeps its polarity, A is irrelevant to TEST.
	degraded := createABC(TEST, test.B(), 0, test.C())
	fs.proto.Code[testPC] = degraded
	return true
}

// PatchClose converts every jump in list into one that also closes open
// upvalues down to stack level level, by storing level+1 in each JMP's A
// field (the +1 bias keeps an encoded 0 meaning "no close"). It then
// patches the list to the next emitted instruction, as PatchToHere does.
func (fs *FuncState) PatchClose(list, level int) {
	level++
	for l := list; l != NoJump; l = fs.getJump(l) {
		instr := fs.proto.Code[l]
		instr.setA(level)
		fs.proto.Code[l] = instr
	}
	fs.PatchList(list, fs.PC())
}

// InvertJump flips the sense (A field) of the test instruction controlling
// the JMP at pc.
func (fs *FuncState) InvertJump(pc int) {
	testPC := pc - 1
	test := fs.proto.Code[testPC]
	test.setA(1 - test.A())
	fs.proto.Code[testPC] = test
}
