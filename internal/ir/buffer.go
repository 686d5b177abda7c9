package ir

import (
	"github.com/pkg/errors"

	"github.com/astro8/yabal/internal/symbols"
)

// Operand is either empty, an immediate value, or a reference to a
// symbol (+ word offset) to be resolved at link time.
type Operand struct {
	Sym    symbols.Addressable
	Offset int
	Imm    int
	HasImm bool
}

// Imm wraps a plain immediate operand.
func Imm(v int) Operand { return Operand{Imm: v, HasImm: true} }

// SymOperand wraps a reference to sym, optionally plus a word offset
// (used for PointerWithOffset-style addressing without allocating a
// new symbol per access).
func SymOperand(sym symbols.Addressable, offset int) Operand {
	return Operand{Sym: sym, Offset: offset}
}

// isLong reports whether the operand must use the two-word long form:
// every symbolic operand does (its final value isn't known at emit
// time), and any immediate that doesn't fit 5 bits does too.
func (o Operand) isLong() bool {
	if o.Sym != nil {
		return true
	}
	return !fitsShort(o.Imm)
}

type entryKind int

const (
	kindInstr entryKind = iota
	kindRaw
	kindMark
)

type entry struct {
	kind    entryKind
	op      Opcode
	operand Operand
	comment string
	raw     int
	markSym *symbols.Pointer
}

// words returns how many machine words this entry occupies.
func (e entry) words() int {
	switch e.kind {
	case kindMark:
		return 0
	case kindRaw:
		return 1
	default:
		if e.op.HasOperand() && e.operand.isLong() {
			return 2
		}
		return 1
	}
}

// Buffer is an append-only instruction stream: spec.md §4.1's
// instruction buffer. It owns every symbol it creates via
// CreateLabel/CreatePointer.
type Buffer struct {
	name    string
	entries []entry
	nextID  *int
}

// NewBuffer creates an empty buffer. idCounter is shared across a
// builder's parent and child buffers so every symbol in a program gets
// a unique ID regardless of which buffer created it (spec.md §9:
// parent/child builders share symbol tables by reference).
func NewBuffer(name string, idCounter *int) *Buffer {
	return &Buffer{name: name, nextID: idCounter}
}

func (b *Buffer) allocID() int {
	id := *b.nextID
	*b.nextID++
	return id
}

// CreateLabel allocates a fresh, unmarked label.
func (b *Buffer) CreateLabel(name string) *symbols.Label {
	return symbols.NewLabel(b.allocID(), name)
}

// CreatePointer allocates a fresh, unmarked pointer symbol of the
// given size (in words) and bank.
func (b *Buffer) CreatePointer(name string, bank, size int) *symbols.Pointer {
	return symbols.New(b.allocID(), name, bank, size)
}

// Mark binds sym's address to the buffer's current emission position,
// i.e. the word offset of the next instruction/data this buffer will
// emit (spec.md §4.1). Marking the same symbol twice is an internal
// (codegen-invariant) error, caught by MarkPass rather than here, since the buffer can't tell whether sym was already
// marked in a different buffer.
func (b *Buffer) Mark(sym *symbols.Pointer) {
	b.entries = append(b.entries, entry{kind: kindMark, markSym: sym})
}

// MarkLabel is a convenience wrapper for marking a Label.
func (b *Buffer) MarkLabel(l *symbols.Label) { b.Mark(l.Pointer) }

// Emit appends an opcode with an operand (Operand{} for none) and an
// optional comment, used by the `asmc` output format.
func (b *Buffer) Emit(op Opcode, operand Operand, comment string) {
	b.entries = append(b.entries, entry{kind: kindInstr, op: op, operand: operand, comment: comment})
}

// Emit0 emits a zero-operand instruction.
func (b *Buffer) Emit0(op Opcode, comment string) {
	b.Emit(op, Operand{}, comment)
}

// EmitRaw appends one literal data word, used for string/binary/data
// pools (spec.md §4.1).
func (b *Buffer) EmitRaw(value int, comment string) {
	b.entries = append(b.entries, entry{kind: kindRaw, raw: value, comment: comment})
}

// Len returns the buffer's length in words. It does not depend on any
// symbol being marked, since every entry's word count is fixed at
// emit time (spec.md §4.1): a symbolic operand is always long form, an
// immediate's width is known immediately.
func (b *Buffer) Len() int {
	total := 0
	for _, e := range b.entries {
		total += e.words()
	}
	return total
}

// Word is one rendered machine word, tagged with the entry that
// produced it for assembly-text rendering.
type Word struct {
	Value       uint16
	Op          Opcode // NOP (zero value) for raw/continuation words
	IsOperand   bool   // true for the second word of a long-form instruction, or a raw word
	Comment     string
	SourceIndex int // index into the original entry list, for asm rendering
}

// BuildResult is what Buffer.Build returns: the rendered words.
type BuildResult struct {
	Words []Word
}

// Build renders the buffer to words, assuming it begins at absolute
// address offset. Marks recorded via Mark are resolved against offset
// plus the buffer-local cursor; operand symbols may belong to this
// buffer or to another part of the program (e.g. a global variable
// pointer already marked by the linker's data-region layout) as long
// as they are marked by the time Build runs — spec.md §4.7 step 5:
// "For pointers not yet marked at this point, signal an internal
// error." Build is only correct for a single isolated buffer (no
// cross-buffer forward references); the linker, which lays out many
// buffers that reference each other's symbols, instead calls MarkPass
// on every buffer before RenderPass on any of them.
func (b *Buffer) Build(offset int) (BuildResult, error) {
	if _, err := b.MarkPass(offset); err != nil {
		return BuildResult{}, err
	}
	return b.RenderPass()
}

// MarkPass binds every Mark in the buffer to its absolute address,
// assuming the buffer begins at offset, and returns the offset one
// past the buffer's last word (the next buffer's starting offset).
func (b *Buffer) MarkPass(offset int) (int, error) {
	cursor := offset
	for _, e := range b.entries {
		switch e.kind {
		case kindMark:
			if e.markSym.Marked() {
				return 0, errors.Errorf("symbol %q marked twice", e.markSym.Name)
			}
			e.markSym.Mark(cursor)
		default:
			cursor += e.words()
		}
	}
	return cursor, nil
}

// RenderPass renders the buffer to words, resolving every operand
// against symbols marked by any buffer's MarkPass (spec.md §4.7 step
// 5). Call only after every buffer sharing this program's symbols has
// completed MarkPass.
func (b *Buffer) RenderPass() (BuildResult, error) {
	var words []Word
	for idx, e := range b.entries {
		switch e.kind {
		case kindMark:
			continue
		case kindRaw:
			words = append(words, Word{Value: uint16(e.raw), IsOperand: true, Comment: e.comment, SourceIndex: idx})
		case kindInstr:
			ws, err := renderInstr(e)
			if err != nil {
				return BuildResult{}, errors.Wrapf(err, "buffer %q", b.name)
			}
			for i, w := range ws {
				w.SourceIndex = idx
				if i > 0 {
					w.IsOperand = true
				}
				if i == 0 {
					w.Comment = e.comment
				}
				words = append(words, w)
			}
		}
	}
	return BuildResult{Words: words}, nil
}

func renderInstr(e entry) ([]Word, error) {
	if !e.op.HasOperand() {
		return []Word{{Value: encodeOpOnly(e.op), Op: e.op}}, nil
	}

	var value int
	if e.operand.Sym != nil {
		addr, _, ok := e.operand.Sym.Resolved()
		if !ok {
			return nil, errors.Errorf("unresolved symbol %q referenced by %s", e.operand.Sym.SymbolName(), e.op)
		}
		value = addr + e.operand.Offset
	} else {
		value = e.operand.Imm
	}

	if e.operand.isLong() {
		return []Word{
			{Value: encodeLongHead(e.op), Op: e.op},
			{Value: uint16(value)},
		}, nil
	}
	return []Word{{Value: encodeShort(e.op, value), Op: e.op}}, nil
}

// Word layout: bits [15:11] opcode, bit[10] long-form flag, bits[4:0]
// short immediate (when not long form).
func encodeOpOnly(op Opcode) uint16 {
	return uint16(op) << 11
}

func encodeShort(op Opcode, imm int) uint16 {
	return uint16(op)<<11 | uint16(imm&shortImmMax)
}

func encodeLongHead(op Opcode) uint16 {
	return uint16(op)<<11 | 0x0400
}
