package builder

import (
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// Region names which of the three pointer collections a pointer lives
// in (spec.md §3: "an ordered set of pointers used for one of
// {Globals, Temporaries, Stack}").
type Region int

const (
	Globals Region = iota
	Temporaries
	Stack
)

func (r Region) String() string {
	switch r {
	case Globals:
		return "globals"
	case Temporaries:
		return "temporaries"
	case Stack:
		return "stack"
	default:
		return "?"
	}
}

// PointerCollection is an ordered set of pointers used for one of the
// three data regions (spec.md §3). Items is allocation order, which
// the stack collection's trampoline spill loop depends on.
type PointerCollection struct {
	Region  Region
	Bank    int
	Items   []*symbols.Pointer
	allocID func() int
}

func newPointerCollection(region Region, bank int, allocID func() int) *PointerCollection {
	return &PointerCollection{Region: region, Bank: bank, allocID: allocID}
}

// Count returns the total word count reserved across every pointer in
// the collection, i.e. the data region's size.
func (pc *PointerCollection) Count() int {
	n := 0
	for _, p := range pc.Items {
		n += p.Size
	}
	return n
}

// alloc unconditionally allocates and registers a new pointer.
func (pc *PointerCollection) alloc(name string, size int) *symbols.Pointer {
	p := symbols.New(pc.allocID(), name, pc.Bank, size)
	pc.Items = append(pc.Items, p)
	return p
}

// GetNext returns a pointer sized for t. For the Temporaries
// collection, a released temporary big enough for t is reused from
// block's reuse stack before a new one is allocated (spec.md §3
// lifecycle: "Re-acquisition returns the same pointer").
func (pc *PointerCollection) GetNext(block *BlockStack, name string, t *types.Type) *symbols.Pointer {
	size := t.Size()
	if pc.Region == Temporaries {
		if p := block.popTemp(size); p != nil {
			return p
		}
	}
	return pc.alloc(name, size)
}

// Release returns a temporary pointer to block's reuse stack. Only
// meaningful for the Temporaries collection; callers must invoke it on
// every scope-exit path, including error paths (spec.md §5).
func (pc *PointerCollection) Release(block *BlockStack, p *symbols.Pointer) {
	if pc.Region != Temporaries {
		return
	}
	block.pushTemp(p)
}
