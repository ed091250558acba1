package codegen

import "fmt"

// Opcode identifies a virtual-machine instruction. This is a register-based
// operation set: operands are register or RK indices carried in the
// instruction's A/B/C (or Bx/sBx/Ax) fields, never implicit stack slots.
type Opcode uint8

// OpMode describes which of the four 32-bit layouts an opcode uses.
type OpMode uint8

// The instruction-field layouts an opcode can use.
const (
	ModeABC OpMode = iota
	ModeABx
	ModeAsBx
	ModeAx
)

const ( //nolint:revive
	MOVE     Opcode = iota // R(A) := R(B)
	LOADK                  // R(A) := K(Bx)
	LOADKX                 // R(A) := K(extra arg); followed by EXTRAARG
	LOADBOOL               // R(A) := (bool)B; if C, pc++
	LOADNIL                // R(A), R(A+1), ..., R(A+B) := nil

	GETUPVAL // R(A) := Upvalue[B]
	SETUPVAL // Upvalue[B] := R(A)

	GETTABUP // R(A) := Upvalue[B][RK(C)]
	GETTABLE // R(A) := R(B)[RK(C)]
	SETTABUP // Upvalue[A][RK(B)] := RK(C)
	SETTABLE // R(A)[RK(B)] := RK(C)

	NEWTABLE // R(A) := {} (sized hint in B/C, unused by this codegen)
	SELF     // R(A+1) := R(B); R(A) := R(B)[RK(C)]

	ADD // R(A) := RK(B) + RK(C)
	SUB // R(A) := RK(B) - RK(C)
	MUL // R(A) := RK(B) * RK(C)
	DIV // R(A) := RK(B) / RK(C)
	MOD // R(A) := RK(B) % RK(C)
	POW // R(A) := RK(B) ^ RK(C)
	IDIV // R(A) := RK(B) // RK(C)

	BAND // R(A) := RK(B) & RK(C)
	BOR  // R(A) := RK(B) | RK(C)
	BXOR // R(A) := RK(B) ~ RK(C)
	SHL  // R(A) := RK(B) << RK(C)
	SHR  // R(A) := RK(B) >> RK(C)

	UNM  // R(A) := -R(B)
	BNOT // R(A) := ~R(B)
	NOT  // R(A) := not R(B)
	LEN  // R(A) := #R(B)

	CONCAT // R(A) := R(B) .. ... .. R(C)

	JMP // pc += sBx

	EQ // if (RK(B) == RK(C)) != A then pc++
	LT // if (RK(B) <  RK(C)) != A then pc++
	LE // if (RK(B) <= RK(C)) != A then pc++

	TEST    // if bool(R(A)) != C then pc++
	TESTSET // if bool(R(B)) == C then R(A) := R(B) else pc++

	CALL     // R(A), ... := R(A)(R(A+1), ..., R(A+B-1))
	TAILCALL // return R(A)(R(A+1), ..., R(A+B-1))
	RETURN   // return R(A), ..., R(A+B-2)

	FORLOOP // numeric for-loop control: R(A)+=R(A+2); if still in range, pc+=sBx, R(A+3):=R(A)
	FORPREP // numeric for-loop setup: R(A)-=R(A+2); pc+=sBx

	TFORCALL // generic for-loop: R(A+3), ... := R(A)(R(A+1), R(A+2))
	TFORLOOP // generic for-loop control: if R(A+1) ~= nil then R(A) := R(A+1); pc += sBx

	SETLIST // R(A)[(C-1)*FPF+i] := R(A+i), 1 <= i <= B

	CLOSURE // R(A) := closure(proto[Bx])

	VARARG // R(A), ..., R(A+B-2) := vararg

	EXTRAARG // extra (larger) argument for a previous opcode (LOADKX, SETLIST)

	opcodeMax
)

var opcodeNames = [...]string{
	MOVE:     "move",
	LOADK:    "loadk",
	LOADKX:   "loadkx",
	LOADBOOL: "loadbool",
	LOADNIL:  "loadnil",
	GETUPVAL: "getupval",
	SETUPVAL: "setupval",
	GETTABUP: "gettabup",
	GETTABLE: "gettable",
	SETTABUP: "settabup",
	SETTABLE: "settable",
	NEWTABLE: "newtable",
	SELF:     "self",
	ADD:      "add",
	SUB:      "sub",
	MUL:      "mul",
	DIV:      "div",
	MOD:      "mod",
	POW:      "pow",
	IDIV:     "idiv",
	BAND:     "band",
	BOR:      "bor",
	BXOR:     "bxor",
	SHL:      "shl",
	SHR:      "shr",
	UNM:      "unm",
	BNOT:     "bnot",
	NOT:      "not",
	LEN:      "len",
	CONCAT:   "concat",
	JMP:      "jmp",
	EQ:       "eq",
	LT:       "lt",
	LE:       "le",
	TEST:     "test",
	TESTSET:  "testset",
	CALL:     "call",
	TAILCALL: "tailcall",
	RETURN:   "return",
	FORLOOP:  "forloop",
	FORPREP:  "forprep",
	TFORCALL: "tforcall",
	TFORLOOP: "tforloop",
	SETLIST:  "setlist",
	CLOSURE:  "closure",
	VARARG:   "vararg",
	EXTRAARG: "extraarg",
}

var reverseLookupOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, s := range opcodeNames {
		if s != "" {
			m[s] = Opcode(op)
		}
	}
	return m
}()

// opcodeModes records the instruction layout each opcode is encoded with.
var opcodeModes = [...]OpMode{
	LOADK:    ModeABx,
	LOADKX:   ModeABx,
	JMP:      ModeAsBx,
	FORLOOP:  ModeAsBx,
	FORPREP:  ModeAsBx,
	TFORLOOP: ModeAsBx,
	CLOSURE:  ModeABx,
	EXTRAARG: ModeAx,
}

func (op Opcode) mode() OpMode {
	if int(op) < len(opcodeModes) {
		return opcodeModes[op]
	}
	return ModeABC
}

// isTest reports whether op is a "T-mode" test instruction: one that is
// always immediately followed by exactly one JMP forming a
// branch-on-condition pair.
func (op Opcode) isTest() bool {
	switch op {
	case EQ, LT, LE, TEST, TESTSET:
		return true
	default:
		return false
	}
}

func (op Opcode) String() string {
	if op < opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}
