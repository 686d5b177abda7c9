package builder

import (
	"github.com/astro8/yabal/internal/ir"
	"github.com/astro8/yabal/internal/symbols"
)

// The accessors below expose just enough of shared's state for package
// linker to lay out the final image (spec.md §4.7): the three data
// regions, the string/binary pools, and the trampoline's reserved
// symbols. Everything else about shared stays private to builder.

func (b *Builder) GlobalsRegion() *PointerCollection { return b.sh.Globals }
func (b *Builder) TempsRegion() *PointerCollection   { return b.sh.Temps }
func (b *Builder) StackRegion() *PointerCollection   { return b.sh.Stack }

// TrampolineUsed reports whether any call site was ever built, i.e.
// whether the header must reserve the trampoline's cells (spec.md
// §4.7 step 2: "only if any call was ever emitted").
func (b *Builder) TrampolineUsed() bool { return b.sh.callEmitted }

func (b *Builder) StackPointerCell() *symbols.Pointer { return b.sh.StackPtr }
func (b *Builder) ReturnValueCell() *symbols.Pointer  { return b.sh.RetValue }

// RequestBinFile registers path/fileType in the shared binary-file
// table (spec.md §4.5) and returns its pool pointer, allocating one of
// size 1 the first time this (path, fileType) pair is requested; the
// linker's binary pool fills in the real size once Load has read the
// file and sizes the pointer to the decoded word count.
func (b *Builder) RequestBinFile(path, fileType string) *symbols.Pointer {
	e := b.sh.BinFiles.Request(path, fileType)
	if e.Sym == nil {
		e.Sym = b.Buf.CreatePointer("embed_"+path, 0, 1)
	}
	return e.Sym
}

// NewBuffer allocates a fresh, empty buffer sharing this program's
// symbol ID counter, for the linker's header/string-pool/binary-pool
// sections (which are not any function's body).
func (b *Builder) NewBuffer(name string) *ir.Buffer {
	return ir.NewBuffer(name, &b.sh.idCounter)
}
