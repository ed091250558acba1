package codegen

// fieldsPerFlush caps how many positional table-constructor fields a single
// SETLIST instruction stores before the codegen must flush and start a new
// batch, keeping the field count within the encoded C operand's range.
const fieldsPerFlush = 50

// StoreVar emits the instruction that assigns val into the variable
// described by target (a LOCAL, UPVAL, or INDEXED descriptor produced by
// name/field resolution), freeing every temporary register the store
// consumed, highest register first.
func (fs *FuncState) StoreVar(target, val *ExpDesc) {
	switch target.Kind {
	case LOCAL:
		fs.FreeExpReg(val)
		fs.Exp2Reg(val, target.Info)
	case UPVAL:
		reg := fs.Exp2AnyReg(val)
		fs.EmitABC(SETUPVAL, reg, target.Info, 0)
		fs.FreeExpReg(val)
	case INDEXED:
		op := SETTABLE
		if target.Ind.TableIsUp {
			op = SETTABUP
		}
		rk := fs.Exp2RK(val)
		fs.EmitABC(op, target.Ind.TableReg, target.Ind.KeyRK, rk)
		fs.FreeExpReg(val)
		fs.freeIndexKey(target)
		if !target.Ind.TableIsUp {
			fs.FreeReg(target.Ind.TableReg)
		}
	default:
		// the parser never builds an assignment target of any other kind.
	}
}

// Self lowers the receiver of a method call `e:key(...)`: it discharges e
// into a register, reserves two consecutive registers starting at the
// first free one for the bound method and the receiver, and emits SELF to
// fill both in one instruction, leaving e
// as a NONRELOC descriptor at the method's register (the receiver occupies
// e.Info+1, where the call's argument list begins).
func (fs *FuncState) Self(e, key *ExpDesc) {
	reg := fs.Exp2AnyReg(e)
	fs.FreeExpReg(e)
	e.Kind = NONRELOC
	e.Info = fs.freereg
	fs.ReserveRegs(2)
	rk := fs.Exp2RK(key)
	fs.EmitABC(SELF, e.Info, reg, rk)
	fs.FreeExpReg(key)
}

// SetList flushes the tostore table-constructor fields sitting in registers
// [base+1, base+tostore] into the table at base, where nelems is the count
// of positional fields lowered so far, this batch included (it selects the
// batch number C). tostore is MultRet when the last field is a multi-value
// call/vararg expansion whose count is not known until runtime.
func (fs *FuncState) SetList(base, nelems, tostore int) {
	c := (nelems-1)/fieldsPerFlush + 1
	b := tostore
	if tostore == MultRet {
		b = 0
	}
	switch {
	case c <= MaxArgBC:
		fs.EmitABC(SETLIST, base, b, c)
	case c <= MaxArgAx:
		fs.EmitABC(SETLIST, base, b, 0)
		fs.EmitExtraArg(c)
	default:
		fs.fail(ErrConstructorTooLong.Error())
	}
	fs.freereg = base + 1
}

// NewTable emits NEWTABLE and returns the RELOCABLE descriptor for the
// fresh table value; the caller assigns it a register via Exp2NextReg
// before lowering any constructor fields into it.
func (fs *FuncState) NewTable() *ExpDesc {
	pc := fs.EmitABC(NEWTABLE, 0, 0, 0)
	return &ExpDesc{Kind: RELOCABLE, Info: pc, T: NoJump, F: NoJump}
}

// IndexField builds an INDEXED descriptor for table[key], where table is
// already resolved to a register or upvalue.
func (fs *FuncState) IndexField(table *ExpDesc, key *ExpDesc) *ExpDesc {
	e := &ExpDesc{Kind: INDEXED, T: NoJump, F: NoJump}
	switch table.Kind {
	case UPVAL:
		e.Ind.TableIsUp = true
		e.Ind.TableReg = table.Info
	default:
		e.Ind.TableReg = fs.Exp2AnyReg(table)
	}
	e.Ind.KeyRK = fs.Exp2RK(key)
	e.Ind.KeyIsConst = isK(e.Ind.KeyRK)
	return e
}
