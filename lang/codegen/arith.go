package codegen

import (
	"math"

	"github.com/mna/luacode/lang/token"
)

// arithOpcodes maps a binary operator token to its opcode, keyed by the
// token itself. Built explicitly rather than relying on the tokens and
// opcodes sharing a numeric order, since PLUS..GTGT and ADD..SHR are each
// contiguous but not laid out in lockstep.
var arithOpcodes = map[token.Token]Opcode{
	token.PLUS:       ADD,
	token.MINUS:      SUB,
	token.STAR:       MUL,
	token.SLASH:      DIV,
	token.SLASHSLASH: IDIV,
	token.PERCENT:    MOD,
	token.CIRCUMFLEX: POW,
	token.AMPERSAND:  BAND,
	token.PIPE:       BOR,
	token.TILDE:      BXOR,
	token.LTLT:       SHL,
	token.GTGT:       SHR,
}

// isIntOnly reports whether op requires integer operands at the VM level
// (the bitwise family); floats are coerced to integer by the runtime and
// constant-folding must reject a non-integral float the same way.
func isIntOnly(op token.Token) bool {
	switch op {
	case token.AMPERSAND, token.PIPE, token.TILDE, token.LTLT, token.GTGT:
		return true
	default:
		return false
	}
}

// BinOp lowers a binary arithmetic or bitwise expression e1 op e2, folding
// the operation at compile time when both operands are numeric constants
// and the fold cannot observe a runtime-only error (integer division or
// modulo by an exact zero is never folded). A float result that is NaN or
// exactly zero is not folded either; a float result of ±Inf is.
func (fs *FuncState) BinOp(op token.Token, e1, e2 *ExpDesc, pos token.Position) *ExpDesc {
	if folded, ok := constFold(op, e1, e2); ok {
		return folded
	}
	fs.SetPos(pos)
	o1 := fs.Exp2RK(e1)
	o2 := fs.Exp2RK(e2)
	fs.freeExpRegs(e1, e2)
	opc := arithOpcodes[op]
	pc := fs.EmitABC(opc, 0, o1, o2)
	e1.Kind = RELOCABLE
	e1.Info = pc
	e1.T, e1.F = NoJump, NoJump
	return e1
}

// constFold attempts to evaluate op at compile time on two constant
// numeric operands. It refuses to fold whenever the runtime operation
// could raise an error the compiler must not pre-empt: integer division or
// modulo by exactly zero, and a bitwise operand that is a float without an
// exact integer value.
func constFold(op token.Token, e1, e2 *ExpDesc) (*ExpDesc, bool) {
	if !e1.isNumeral() || !e2.isNumeral() {
		return nil, false
	}
	if isIntOnly(op) {
		i1, ok1 := asExactInt(e1)
		i2, ok2 := asExactInt(e2)
		if !ok1 || !ok2 {
			return nil, false
		}
		var res int64
		switch op {
		case token.AMPERSAND:
			res = i1 & i2
		case token.PIPE:
			res = i1 | i2
		case token.TILDE:
			res = i1 ^ i2
		case token.LTLT:
			res = shiftLeft(i1, i2)
		case token.GTGT:
			res = shiftLeft(i1, -i2)
		}
		e1.Kind, e1.Ival, e1.T, e1.F = KINT, res, NoJump, NoJump
		return e1, true
	}

	if e1.Kind == KINT && e2.Kind == KINT {
		switch op {
		case token.PLUS:
			e1.Ival = e1.Ival + e2.Ival
			return e1, true
		case token.MINUS:
			e1.Ival = e1.Ival - e2.Ival
			return e1, true
		case token.STAR:
			e1.Ival = e1.Ival * e2.Ival
			return e1, true
		case token.SLASHSLASH:
			if e2.Ival == 0 {
				return nil, false // runtime must raise the divide-by-zero error
			}
			e1.Ival = floorDivInt(e1.Ival, e2.Ival)
			return e1, true
		case token.PERCENT:
			if e2.Ival == 0 {
				return nil, false
			}
			e1.Ival = modInt(e1.Ival, e2.Ival)
			return e1, true
		case token.SLASH, token.CIRCUMFLEX:
			// division and exponentiation always produce a float in Lua, even for
			// two integer operands; fall through to the float path below.
		default:
			return nil, false
		}
	}

	f1, f2 := asFloat(e1), asFloat(e2)
	var res float64
	switch op {
	case token.PLUS:
		res = f1 + f2
	case token.MINUS:
		res = f1 - f2
	case token.STAR:
		res = f1 * f2
	case token.SLASH:
		res = f1 / f2
	case token.CIRCUMFLEX:
		res = math.Pow(f1, f2)
	case token.SLASHSLASH:
		res = math.Floor(f1 / f2)
	case token.PERCENT:
		r := math.Mod(f1, f2)
		if r != 0 && (r < 0) != (f2 < 0) {
			r += f2
		}
		res = r
	default:
		return nil, false
	}
	// Reject a folded result that is NaN or exactly zero: the compiler
	// cannot tell -0.0 from 0.0 apart from the runtime instruction that
	// would have produced it, so let SUB/DIV/etc. compute it instead of
	// risking collapsing a signed zero, matching validop's exclusion in
	// lcode.cc.
	if math.IsNaN(res) || res == 0 {
		return nil, false
	}
	e1.Kind, e1.Nval = KFLT, res
	e1.T, e1.F = NoJump, NoJump
	return e1, true
}

func asExactInt(e *ExpDesc) (int64, bool) {
	if e.Kind == KINT {
		return e.Ival, true
	}
	if e.Kind == KFLT && e.Nval == math.Trunc(e.Nval) && !math.IsInf(e.Nval, 0) {
		return int64(e.Nval), true
	}
	return 0, false
}

func asFloat(e *ExpDesc) float64 {
	if e.Kind == KINT {
		return float64(e.Ival)
	}
	return e.Nval
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func modInt(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func shiftLeft(a, n int64) int64 {
	if n <= -64 || n >= 64 {
		return 0
	}
	if n >= 0 {
		return int64(uint64(a) << uint(n))
	}
	return int64(uint64(a) >> uint(-n))
}

// compInstr maps a comparison token to the opcode and operand order/
// polarity it must be emitted with: Lua has no GT/GE instruction, so `a > b`
// compiles as `b < a` and `a >= b` as `b <= a`.
func compInstr(op token.Token) (opc Opcode, swap bool, cond int) {
	switch op {
	case token.EQL:
		return EQ, false, 1
	case token.NEQ:
		return EQ, false, 0
	case token.LT:
		return LT, false, 1
	case token.GT:
		return LT, true, 1
	case token.LE:
		return LE, false, 1
	case token.GE:
		return LE, true, 1
	default:
		return EQ, false, 1
	}
}

// Comp lowers a relational expression into a JMP-kind ExpDesc whose
// condition is the comparison's truth value: a later GoIfTrue/GoIfFalse or
// Exp2Reg call materializes it.
func (fs *FuncState) Comp(op token.Token, e1, e2 *ExpDesc, pos token.Position) *ExpDesc {
	opc, swap, cond := compInstr(op)
	fs.SetPos(pos)
	o1 := fs.Exp2RK(e1)
	o2 := fs.Exp2RK(e2)
	fs.freeExpRegs(e1, e2)
	if swap {
		o1, o2 = o2, o1
	}
	fs.EmitABC(opc, cond, o1, o2)
	pc := fs.Jump()
	e1.Kind = JMP
	e1.Info = pc
	e1.T, e1.F = NoJump, NoJump
	return e1
}

// unaryArithOpcodes maps a prefix unary operator to its opcode (NOT is
// handled separately by CodeNot, since it must also invert jump lists).
var unaryArithOpcodes = map[token.Token]Opcode{
	token.MINUS: UNM,
	token.TILDE: BNOT,
	token.HASH:  LEN,
}

// UnOp lowers a unary arithmetic/length expression, folding MINUS over a
// constant numeral, and TILDE over a numeral with an exact integer value,
// at compile time.
func (fs *FuncState) UnOp(op token.Token, e *ExpDesc, pos token.Position) *ExpDesc {
	if op == token.TILDE && e.isNumeral() {
		if i, ok := asExactInt(e); ok {
			e.Kind, e.Ival = KINT, ^i
			return e
		}
	}
	if op == token.MINUS && e.isNumeral() {
		switch e.Kind {
		case KINT:
			e.Ival = -e.Ival
			return e
		case KFLT:
			e.Nval = -e.Nval
			return e
		}
	}
	fs.SetPos(pos)
	reg := fs.Exp2AnyReg(e)
	fs.FreeReg(reg)
	pc := fs.EmitABC(unaryArithOpcodes[op], 0, reg, 0)
	e.Kind = RELOCABLE
	e.Info = pc
	e.T, e.F = NoJump, NoJump
	return e
}

// CodeConcat lowers e1 .. e2 into a CONCAT instruction, fusing a run of
// concatenations that already sit in contiguous registers into a single
// CONCAT spanning them rather than emitting one CONCAT per `..`. The caller
// must have already placed e1 in its own register (Exp2NextReg) before
// parsing e2, the same precondition the right-associative `..` chain
// relies on to keep operands contiguous on the stack.
func (fs *FuncState) CodeConcat(e1, e2 *ExpDesc, pos token.Position) *ExpDesc {
	fs.SetPos(pos)
	fs.exp2val(e2)
	if e2.Kind == RELOCABLE {
		instr := fs.proto.Code[e2.Info]
		if instr.Opcode() == CONCAT {
			// e1 sits immediately below the register run e2's CONCAT spans:
			// widen it to include e1 instead of emitting a second CONCAT.
			fs.FreeExpReg(e1)
			instr.setB(e1.Info)
			fs.proto.Code[e2.Info] = instr
			e1.Kind = RELOCABLE
			e1.Info = e2.Info
			return e1
		}
	}
	fs.Exp2NextReg(e2)
	fs.FreeExpReg(e2)
	fs.FreeExpReg(e1)
	pc := fs.EmitABC(CONCAT, 0, e1.Info, e2.Info)
	e1.Kind = RELOCABLE
	e1.Info = pc
	e1.T, e1.F = NoJump, NoJump
	return e1
}
