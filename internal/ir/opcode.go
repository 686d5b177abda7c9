// Package ir implements the instruction buffer described in spec.md
// §4.1: an append-only sequence of symbolic instructions, raw data
// words and label marks, later resolved and rendered by package
// linker. Grounded on the teacher's yld object-file model (the
// instruction stream it relocates) and ygen's per-mnemonic emitter
// helpers, adapted from the WUT-4's three-register RISC ISA to the
// machine's single-accumulator design (registers A, B, C; spec.md §4.4
// calling convention moves values between them by name).
package ir

// Opcode is one machine instruction. The set matches spec.md §3's
// illustrative list, plus CIN (load C from memory), the two named swaps
// the calling convention performs explicitly (a call site sets C to the
// callee address with LDI then SWPAC), and JAI: a plain
// accumulator machine has no call instruction, so the trampoline must
// transfer control to a runtime-computed address (the callee, or the
// saved return address) rather than a fixed label, which requires a
// jump whose target comes from a register rather than the operand word.
type Opcode int

const (
	NOP Opcode = iota
	LDI        // operand -> A (immediate or resolved address constant)
	AIN        // mem[operand] -> A
	BIN        // mem[operand] -> B
	CIN        // mem[operand] -> C
	STA        // A -> mem[operand]
	SwapAB     // exchange A and B
	SwapAC     // exchange A and C
	Add        // A = A + B
	Sub        // A = A - B
	And        // A = A & B
	Or         // A = A | B
	Xor        // A = A ^ B
	Shl        // A = A << 1
	Shr        // A = A >> 1 (logical)
	Jmp        // operand -> PC
	Jmpz       // if A == 0: operand -> PC
	Jmpc       // if A < 0 (sign/borrow flag): operand -> PC
	SetBank    // operand -> active bank register
	Lod        // A = mem[bank:A] (indirect load through A)
	Sti        // mem[bank:A] = B (indirect store through A)
	Jai        // jump to the address held in A (indirect jump)
	Hlt        // stop
)

var opcodeNames = [...]string{
	"NOP", "LDI", "AIN", "BIN", "CIN", "STA", "SWPAB", "SWPAC",
	"ADD", "SUB", "AND", "OR", "XOR", "SHL", "SHR",
	"JMP", "JMPZ", "JMPC", "SB", "LOD", "STI", "JAI", "HLT",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "???"
}

// HasOperand reports whether op carries an operand word (or two, in
// long form).
func (op Opcode) HasOperand() bool {
	switch op {
	case NOP, SwapAB, SwapAC, Add, Sub, And, Or, Xor, Shl, Shr, Lod, Sti, Jai, Hlt:
		return false
	default:
		return true
	}
}

// shortImmBits is the width of an immediate that fits in the
// single-word short form (spec.md §4.1: "5-bit" operands).
const shortImmBits = 5
const shortImmMax = (1 << shortImmBits) - 1

// fitsShort reports whether an unsigned immediate fits the 5-bit short
// form.
func fitsShort(v int) bool {
	return v >= 0 && v <= shortImmMax
}
