package builder

import (
	"strconv"
	"strings"

	"github.com/astro8/yabal/internal/ir"
)

// mnemonics maps an inline-asm mnemonic (spec.md §4.4 "asm { ... }")
// to the opcode it assembles to. Names match the ir package's String()
// output so disassembly and assembly stay in sync.
var mnemonics = map[string]ir.Opcode{
	"NOP": ir.NOP, "LDI": ir.LDI, "AIN": ir.AIN, "BIN": ir.BIN, "CIN": ir.CIN,
	"STA": ir.STA, "SWPAB": ir.SwapAB, "SWPAC": ir.SwapAC,
	"ADD": ir.Add, "SUB": ir.Sub, "AND": ir.And, "OR": ir.Or, "XOR": ir.Xor,
	"SHL": ir.Shl, "SHR": ir.Shr,
	"JMP": ir.Jmp, "JMPZ": ir.Jmpz, "JMPC": ir.Jmpc, "SB": ir.SetBank,
	"LOD": ir.Lod, "STI": ir.Sti, "JAI": ir.Jai, "HLT": ir.Hlt,
}

func lookupMnemonic(name string) (ir.Opcode, bool) {
	op, ok := mnemonics[strings.ToUpper(name)]
	return op, ok
}

// parseAsmImmediate parses a literal asm operand: decimal or 0x-hex.
func parseAsmImmediate(lit string) (int, bool) {
	lit = strings.TrimSpace(lit)
	base := 10
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		lit = lit[2:]
		base = 16
	}
	v, err := strconv.ParseInt(lit, base, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
