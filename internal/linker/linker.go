// Package linker implements the single-pass resolver spec.md §4.7
// describes: it lays out the root builder's buffers (data region,
// function bodies, user code, string and binary pools) end to end and
// resolves every symbolic reference against the combined layout.
// Grounded on the teacher's lang/yld package, which performs the same
// job (merge per-object sections, patch relocations against a combined
// symbol table) for a multi-object-file program; this core has no
// object files, so "objects" collapse to "buffers" and symbol
// resolution collapses to ir.Buffer's Mark/Resolved protocol.
package linker

import (
	"github.com/astro8/yabal/internal/builder"
	"github.com/astro8/yabal/internal/chartable"
	"github.com/astro8/yabal/internal/ir"
)

// DefaultProgramSize is the program image's default word count
// (spec.md §6).
const DefaultProgramSize = 0xEF6E

// maxCallDepth is the number of nested call frames the default initial
// stack pointer reserves headroom for (spec.md §6's "stack_slots·16"
// factor; see DESIGN.md for why 16 nested frames is the reading we
// settled on).
const maxCallDepth = 16

// Image is the linked program: one word per machine address, address 0
// executed first.
type Image struct {
	Words []ir.Word
}

// Bytes returns the image as a flat slice of word values, without the
// per-word metadata the output renderers (which take []ir.Word) use.
func (img *Image) Bytes() []uint16 {
	out := make([]uint16, len(img.Words))
	for i, w := range img.Words {
		out[i] = w.Value
	}
	return out
}

// Link lays out prog's buffers in the order spec.md §4.7 prescribes —
// data region, trampoline cells, function bodies, user code, string
// pool, binary pool — prefixed by a jump to user code if anything
// non-executable precedes it, and resolves every symbol in one pass.
func Link(prog *builder.Program) (*Image, error) {
	root := prog.Root

	header := root.NewBuffer("header")
	emitRegion(header, root.GlobalsRegion())
	emitRegion(header, root.TempsRegion())
	emitRegion(header, root.StackRegion())
	if root.TrampolineUsed() {
		sp := InitialStackPointer(root.StackRegion().Count())
		header.Mark(root.StackPointerCell())
		header.EmitRaw(sp, "initial stack pointer")
		header.Mark(root.ReturnValueCell())
		header.EmitRaw(0, "return value cell")
	}

	var bodies []*ir.Buffer
	bodyLen := 0
	for _, fn := range prog.Functions {
		bodies = append(bodies, fn.Body.Buf)
		bodyLen += fn.Body.Buf.Len()
	}

	pool := root.NewBuffer("pool")
	emitStringPool(pool, root)
	emitBinaryPool(pool, root)

	// spec.md §4.7 step 1: a jump to user code is only needed if the
	// header or any function body precedes it — a program with no
	// globals, no calls and no functions can start executing at
	// address 0 directly.
	buffers := make([]*ir.Buffer, 0, len(bodies)+4)
	if header.Len() > 0 || bodyLen > 0 {
		rootEntry := header.CreateLabel("__entry")
		entryLabelBuf := root.NewBuffer("entry-label")
		entryLabelBuf.MarkLabel(rootEntry)

		entry := root.NewBuffer("entry")
		entry.Emit(ir.Jmp, ir.SymOperand(rootEntry, 0), "jump to user code")

		buffers = append(buffers, entry, header)
		buffers = append(buffers, bodies...)
		buffers = append(buffers, entryLabelBuf, root.Buf, pool)
	} else {
		buffers = append(buffers, header)
		buffers = append(buffers, bodies...)
		buffers = append(buffers, root.Buf, pool)
	}

	offset := 0
	for _, buf := range buffers {
		next, err := buf.MarkPass(offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}

	var words []ir.Word
	for _, buf := range buffers {
		res, err := buf.RenderPass()
		if err != nil {
			return nil, err
		}
		words = append(words, res.Words...)
	}

	return &Image{Words: words}, nil
}

// InitialStackPointer implements spec.md §6's formula: the program's
// default size minus room for the return-address slot (the "1") and
// up to maxCallDepth nested call frames, each stackSlots words wide.
func InitialStackPointer(stackSlots int) int {
	return DefaultProgramSize - (1 + stackSlots*maxCallDepth)
}

// emitRegion reserves one raw zero word per word of every pointer in
// pc (spec.md §4.7 step 2: "one word per scalar global/temp; per-slot
// size for composite").
func emitRegion(buf *ir.Buffer, pc *builder.PointerCollection) {
	for _, p := range pc.Items {
		buf.Mark(p)
		for i := 0; i < p.Size; i++ {
			buf.EmitRaw(0, "")
		}
	}
}

// emitStringPool emits every interned literal as character-table codes
// followed by a zero terminator (spec.md §4.5). A literal with a
// character outside the table was already flagged with a Layout error
// during initialize (builder/expr.go); MustEncode's substitution of 0
// here keeps the image's word count and offsets consistent regardless.
func emitStringPool(buf *ir.Buffer, root *builder.Builder) {
	for _, s := range root.Strings().Values() {
		p, ok := root.Strings().Pointer(s)
		if !ok {
			continue
		}
		buf.Mark(p)
		codes, _ := chartable.MustEncode(s)
		for _, c := range codes {
			buf.EmitRaw(c, "")
		}
		buf.EmitRaw(0, "string terminator")
	}
}

// emitBinaryPool embeds every requested binary file's bytes, packed
// two bytes per word little-endian (spec.md §4.5: "embedded at link
// time"). By the time Link runs, compiler.Compile has already awaited
// binfile.Table.Load, so every entry's Data is populated.
func emitBinaryPool(buf *ir.Buffer, root *builder.Builder) {
	for _, k := range root.BinFiles().Keys() {
		e, ok := root.BinFiles().Entry(k)
		if !ok {
			continue
		}
		words := packBytes(e.Data)
		e.Sym.Size = len(words)
		buf.Mark(e.Sym)
		for _, w := range words {
			buf.EmitRaw(w, "")
		}
	}
}

func packBytes(data []byte) []int {
	out := make([]int, 0, (len(data)+1)/2)
	for i := 0; i < len(data); i += 2 {
		lo := int(data[i])
		hi := 0
		if i+1 < len(data) {
			hi = int(data[i+1])
		}
		out = append(out, lo|hi<<8)
	}
	return out
}
