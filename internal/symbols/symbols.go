// Package symbols implements the Pointer and Label symbols spec.md §3
// describes: opaque named placeholders for a machine address, resolved
// to an absolute address by the linker in a single pass. Grounded on
// the teacher's yld object-file symbol model (yld/types.go ResolvedSym,
// yld/reader.go), adapted from a multi-object relocation table to the
// single in-process symbol set this core's builder owns directly.
package symbols

import "github.com/astro8/yabal/internal/types"

// Addressable is implemented by every symbol-like value the linker can
// resolve to a final (address, bank) pair.
type Addressable interface {
	// Resolved reports the symbol's absolute address and bank once the
	// linker has marked it; ok is false beforehand.
	Resolved() (addr int, bank int, ok bool)
	// SymbolName is used in diagnostics and assembly output.
	SymbolName() string
}

// Pointer is a named placeholder for a machine address (spec.md §3).
// Every pointer symbol is marked — assigned a buffer position — at
// most once (spec.md §3 Invariants).
type Pointer struct {
	ID                int
	Name              string
	Bank              int
	Size              int // size in words; most are 1
	FixedIndex        int // >=0 forces this address; -1 means linker-assigned
	AssignedVariables []string

	address int
	marked  bool
}

// New allocates an unmarked pointer. name may be empty (anonymous).
func New(id int, name string, bank, size int) *Pointer {
	return &Pointer{ID: id, Name: name, Bank: bank, Size: size, FixedIndex: -1, address: -1}
}

// NewFixed allocates a pointer whose address is fixed at creation.
// (`create_pointer(addr, bank)` literals do not use it: the builder
// loads their address as an immediate.)
func NewFixed(id int, name string, bank, addr int) *Pointer {
	p := New(id, name, bank, 1)
	p.FixedIndex = addr
	p.Mark(addr)
	return p
}

// Mark binds the pointer's address. It is a programming error to mark
// the same pointer twice; callers (the linker) must check Marked
// first — spec.md §3 Invariants treat a double mark as an internal
// error, not a recoverable one.
func (p *Pointer) Mark(addr int) {
	p.address = addr
	p.marked = true
}

// Marked reports whether Mark has been called.
func (p *Pointer) Marked() bool { return p.marked }

// Resolved implements Addressable.
func (p *Pointer) Resolved() (int, int, bool) {
	return p.address, p.Bank, p.marked
}

// SymbolName implements Addressable.
func (p *Pointer) SymbolName() string { return p.Name }

// Label is a pointer symbol that marks an instruction position in the
// buffer (spec.md §3). It is always bank 0, size 1: code lives in
// program memory.
type Label struct {
	*Pointer
}

// NewLabel allocates an unmarked label.
func NewLabel(id int, name string) *Label {
	return &Label{Pointer: New(id, name, 0, 1)}
}

// PointerWithOffset is a view over a base pointer that resolves to
// base.address+offset while sharing the base's bank and bank-locality
// (spec.md §3, Glossary "Pointer with offset").
type PointerWithOffset struct {
	Base   *Pointer
	Offset int
}

// WithOffset returns a PointerWithOffset over p.
func WithOffset(p *Pointer, offset int) *PointerWithOffset {
	return &PointerWithOffset{Base: p, Offset: offset}
}

// Resolved implements Addressable.
func (p *PointerWithOffset) Resolved() (int, int, bool) {
	addr, bank, ok := p.Base.Resolved()
	if !ok {
		return 0, 0, false
	}
	return addr + p.Offset, bank, true
}

// SymbolName implements Addressable.
func (p *PointerWithOffset) SymbolName() string { return p.Base.Name }

// RawAddress is a (pointer, element-type) pair representing a typed
// pointer value (spec.md §3).
type RawAddress struct {
	Ptr      Addressable
	ElemType *types.Type
}
