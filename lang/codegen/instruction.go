package codegen

// Instruction is a single 32-bit virtual-machine instruction word. Four
// field layouts share the same 6-bit opcode in the low bits:
//
//	ABC:  op:6 A:8 C:9 B:9   (B and C may each be an RK operand)
//	ABx:  op:6 A:8 Bx:18     (unsigned)
//	AsBx: op:6 A:8 sBx:18    (signed, bias-encoded)
//	Ax:   op:6 Ax:26         (EXTRAARG only)
type Instruction uint32

const (
	sizeOp = 6
	sizeA  = 8
	sizeB  = 9
	sizeC  = 9
	sizeBx = sizeB + sizeC
	sizeAx = sizeA + sizeBx

	posOp = 0
	posA  = posOp + sizeOp
	posC  = posA + sizeA
	posB  = posC + sizeC
	posBx = posC
	posAx = posA
)

const (
	// MaxArgA is the maximum value the A field can hold.
	MaxArgA = 1<<sizeA - 1
	// MaxArgBC is the maximum value the B or C field can hold.
	MaxArgBC = 1<<sizeB - 1
	// MaxArgBx is the maximum value the Bx field can hold.
	MaxArgBx = 1<<sizeBx - 1
	// MaxArgSBx is the maximum (and, negated, the minimum) signed value the
	// sBx field can hold once the bias is removed.
	MaxArgSBx = MaxArgBx >> 1
	// MaxArgAx is the maximum value the Ax field can hold.
	MaxArgAx = 1<<sizeAx - 1

	// MaxIndexRK is the largest constant-pool index reachable through an RK
	// operand: one bit of the 9-bit B/C field is reserved to flag "this is a
	// constant index, not a register".
	MaxIndexRK = 1<<(sizeB-1) - 1

	rkBit = 1 << (sizeB - 1)

	// NoJump terminates a jump list: the sentinel sBx value meaning "no next
	// node".
	NoJump = -1

	// NoReg is used in place of a register operand to mean "none": e.g.
	// TESTSET degrades to TEST when its A operand is NoReg.
	NoReg = MaxArgA
)

func mask1(n, p uint32) uint32 { return ((1 << n) - 1) << p }

func createABC(op Opcode, a, b, c int) Instruction {
	return Instruction(uint32(op)<<posOp | uint32(a)<<posA | uint32(b)<<posB | uint32(c)<<posC)
}

func createABx(op Opcode, a, bx int) Instruction {
	return Instruction(uint32(op)<<posOp | uint32(a)<<posA | uint32(bx)<<posBx)
}

func createAsBx(op Opcode, a, sbx int) Instruction {
	return createABx(op, a, sbx+MaxArgSBx)
}

func createAx(op Opcode, ax int) Instruction {
	return Instruction(uint32(op)<<posOp | uint32(ax)<<posAx)
}

// Opcode returns the instruction's opcode field.
func (i Instruction) Opcode() Opcode { return Opcode(i >> posOp & mask1(sizeOp, 0)) }

// A returns the instruction's A field.
func (i Instruction) A() int { return int(i >> posA & mask1(sizeA, 0)) }

// B returns the instruction's B field (ABC layout).
func (i Instruction) B() int { return int(i >> posB & mask1(sizeB, 0)) }

// C returns the instruction's C field (ABC layout).
func (i Instruction) C() int { return int(i >> posC & mask1(sizeC, 0)) }

// Bx returns the instruction's Bx field (ABx layout), unsigned.
func (i Instruction) Bx() int { return int(i >> posBx & mask1(sizeBx, 0)) }

// SBx returns the instruction's sBx field (AsBx layout), with the encoding
// bias removed.
func (i Instruction) SBx() int { return i.Bx() - MaxArgSBx }

// Ax returns the instruction's Ax field (Ax layout, EXTRAARG only).
func (i Instruction) Ax() int { return int(i >> posAx & mask1(sizeAx, 0)) }

// setA replaces the instruction's A field in place.
func (i *Instruction) setA(a int) {
	*i = Instruction(uint32(*i)&^mask1(sizeA, posA) | uint32(a)<<posA)
}

// setB replaces the instruction's B field in place.
func (i *Instruction) setB(b int) {
	*i = Instruction(uint32(*i)&^mask1(sizeB, posB) | uint32(b)<<posB)
}

// setC replaces the instruction's C field in place.
func (i *Instruction) setC(c int) {
	*i = Instruction(uint32(*i)&^mask1(sizeC, posC) | uint32(c)<<posC)
}

// setBx replaces the instruction's Bx field in place.
func (i *Instruction) setBx(bx int) {
	*i = Instruction(uint32(*i)&^mask1(sizeBx, posBx) | uint32(bx)<<posBx)
}

// setSBx replaces the instruction's sBx field in place, applying the bias.
func (i *Instruction) setSBx(sbx int) { i.setBx(sbx + MaxArgSBx) }

// isK reports whether an RK-encoded B/C field refers to a constant-pool
// index rather than a register.
func isK(rk int) bool { return rk&rkBit != 0 }

// rkAsK converts a constant-pool index into its RK-encoded form.
func rkAsK(index int) int { return index | rkBit }

// indexK extracts the constant-pool index out of an RK-encoded field that
// isK reports true for.
func indexK(rk int) int { return rk &^ rkBit }
