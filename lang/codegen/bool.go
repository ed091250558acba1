package codegen

// jumpOnCond emits the TEST/TESTSET + JMP pair that branches on e's
// runtime truthiness with the given polarity cond (0 means "jump if
// false", 1 means "jump if true" after the sense baked into cond below).
// If e is RELOCABLE to a NOT instruction, the NOT is erased and the test's
// polarity is inverted instead (peephole).
func (fs *FuncState) jumpOnCond(e *ExpDesc, cond int) int {
	if e.Kind == RELOCABLE {
		instr := fs.proto.Code[e.Info]
		if instr.Opcode() == NOT {
			fs.proto.Code = fs.proto.Code[:len(fs.proto.Code)-1]
			fs.proto.Lines = fs.proto.Lines[:len(fs.proto.Lines)-1]
			fs.EmitABC(TEST, instr.B(), 0, 1-cond)
			return fs.Jump()
		}
	}
	reg := fs.Exp2AnyReg(e)
	fs.FreeExpReg(e)
	fs.EmitABC(TESTSET, NoReg, reg, cond)
	return fs.Jump()
}

// GoIfTrue lowers e for use as a condition where control should fall
// through when true and branch away when false.
func (fs *FuncState) GoIfTrue(e *ExpDesc) {
	var pc int
	fs.DischargeVars(e)
	switch e.Kind {
	case JMP:
		fs.InvertJump(e.Info)
		pc = e.Info
	case K, KINT, KFLT, TRUE:
		pc = NoJump // no jump needed: always true
	default:
		pc = fs.jumpOnCond(e, 0)
	}
	fs.Concat(&e.F, pc)
	fs.PatchToHere(e.T)
	e.T = NoJump
}

// GoIfFalse lowers e for use as a condition where control should fall
// through when false and branch away when true: symmetric to GoIfTrue.
func (fs *FuncState) GoIfFalse(e *ExpDesc) {
	var pc int
	fs.DischargeVars(e)
	switch e.Kind {
	case JMP:
		pc = e.Info
	case NILX, FALSE:
		pc = NoJump
	default:
		pc = fs.jumpOnCond(e, 1)
	}
	fs.Concat(&e.T, pc)
	fs.PatchToHere(e.F)
	e.F = NoJump
}

// AndPostfix implements the postfix half of lowering `e1 and e2`: e1.T must
// already be empty (GoIfTrue was applied as the infix hook); e2 is
// discharged, e1.F is concatenated onto e2.F, and e2 becomes the result.
func (fs *FuncState) AndPostfix(e1, e2 *ExpDesc) {
	fs.DischargeVars(e2)
	fs.Concat(&e2.F, e1.F)
	*e1 = *e2
}

// OrPostfix is the symmetric postfix half of lowering `e1 or e2`.
func (fs *FuncState) OrPostfix(e1, e2 *ExpDesc) {
	fs.DischargeVars(e2)
	fs.Concat(&e2.T, e1.T)
	*e1 = *e2
}

// CodeNot lowers `not e`: literal kinds invert directly, JMP inverts in
// place, register/relocable operands emit a NOT into a RELOCABLE
// descriptor; in every case the true/false lists are swapped and stripped
// of their value-producing TESTSET form (demoted to TEST), since a NOT
// cannot reuse the operand's materialized value.
func (fs *FuncState) CodeNot(e *ExpDesc) {
	fs.DischargeVars(e)
	switch e.Kind {
	case NILX, FALSE:
		e.Kind = TRUE
	case K, KINT, KFLT, TRUE:
		e.Kind = FALSE
	case JMP:
		fs.InvertJump(e.Info)
	case RELOCABLE, NONRELOC:
		reg := fs.Exp2AnyReg(e)
		fs.FreeReg(reg)
		pc := fs.EmitABC(NOT, 0, reg, 0)
		e.Kind = RELOCABLE
		e.Info = pc
	default:
		// VOID, CALL, VARARG, UPVAL, LOCAL, INDEXED cannot reach here directly;
		// DischargeVars above already resolved them to one of the above kinds.
	}
	e.T, e.F = e.F, e.T
	removeValues(fs, e.T)
	removeValues(fs, e.F)
}

// removeValues demotes every TESTSET controlling a jump in list to a plain
// TEST: after a NOT, the swapped lists can no longer rely on the operand's
// materialized value.
func removeValues(fs *FuncState, list int) {
	for l := list; l != NoJump; l = fs.getJump(l) {
		fs.patchTestReg(l, NoReg)
	}
}
