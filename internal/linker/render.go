package linker

import (
	"fmt"
	"strings"

	"github.com/astro8/yabal/internal/ir"
)

// Word layout constants mirror ir/buffer.go's encoding (bits[15:11]
// opcode, bit[10] long-form flag, bits[4:0] short immediate); package
// ir keeps these unexported since only its own renderer needs them,
// but assembly-text rendering has to decode the same layout back out.
const (
	opcodeShift  = 11
	longFormBit  = 0x0400
	shortImmMask = 0x1F
)

// RenderAsm renders an image as one mnemonic per line, no comments
// (spec.md §6 "asm").
func RenderAsm(words []ir.Word) string {
	return renderText(words, false)
}

// RenderAsmC is RenderAsm with each line's originating comment appended
// (spec.md §6 "asmc").
func RenderAsmC(words []ir.Word) string {
	return renderText(words, true)
}

func renderText(words []ir.Word, withComments bool) string {
	var b strings.Builder
	i := 0
	for i < len(words) {
		w := words[i]
		if w.IsOperand {
			// A raw data word with no preceding instruction head: part
			// of the header's reserved region or a literal pool.
			fmt.Fprintf(&b, ".word %d", int16(w.Value))
			writeLineEnd(&b, w.Comment, withComments)
			i++
			continue
		}

		op := ir.Opcode(w.Value >> opcodeShift)
		b.WriteString(op.String())
		if op.HasOperand() {
			if w.Value&longFormBit != 0 {
				i++
				fmt.Fprintf(&b, " %d", int16(words[i].Value))
			} else {
				fmt.Fprintf(&b, " %d", int(w.Value&shortImmMask))
			}
		}
		writeLineEnd(&b, w.Comment, withComments)
		i++
	}
	return b.String()
}

func writeLineEnd(b *strings.Builder, comment string, withComments bool) {
	if withComments && comment != "" {
		fmt.Fprintf(b, " ; %s", comment)
	}
	b.WriteByte('\n')
}

// RenderAexe renders an image as flat hex words, one per line (spec.md
// §6 "aexe").
func RenderAexe(words []ir.Word) string {
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, "%04X\n", w.Value)
	}
	return b.String()
}

// logisimCols is the number of tokens per line in the Logisim image,
// matching the tool's default wrap width closely enough for readability.
const logisimCols = 8

// RenderHex renders an image as a Logisim v3.0 memory image: repeated
// words are run-length encoded as "count*value" (Logisim's compact hex
// dump convention), and the image is zero-padded up to minWords if it
// is shorter, so a fixed-size RAM module can be preloaded from it.
func RenderHex(words []ir.Word, minWords int) string {
	vals := make([]uint16, len(words))
	for i, w := range words {
		vals[i] = w.Value
	}
	for len(vals) < minWords {
		vals = append(vals, 0)
	}

	var b strings.Builder
	b.WriteString("v3.0 hex words addressed\n")

	col := 0
	for i := 0; i < len(vals); {
		run := 1
		for i+run < len(vals) && vals[i+run] == vals[i] {
			run++
		}
		if col > 0 {
			b.WriteByte(' ')
		}
		if run > 1 {
			fmt.Fprintf(&b, "%d*%04x", run, vals[i])
		} else {
			fmt.Fprintf(&b, "%04x", vals[i])
		}
		col++
		if col == logisimCols {
			b.WriteByte('\n')
			col = 0
		}
		i += run
	}
	if col != 0 {
		b.WriteByte('\n')
	}
	return b.String()
}
