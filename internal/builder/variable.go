package builder

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// Variable is a named, typed storage location (spec.md §3). Constant
// is true only while no assignment has occurred since the initializer
// ran; any store through SetValue for this variable clears it.
type Variable struct {
	Name     string
	Home     symbols.Addressable
	Type     *types.Type
	Init     ast.Expr // constant initializer, or nil
	Constant bool
	Usages   int
	IsParam  bool
	IsStack  bool // lives in a stack slot (function-local), vs global/temp data region
}

// MarkUsed increments the usage counter; called from InitializeExpr
// whenever an IdentExpr resolves to this variable.
func (v *Variable) MarkUsed() { v.Usages++ }

// MarkAssigned clears the Constant flag — spec.md §3 Invariants: "A
// variable's Constant flag is true only while no assignment has
// occurred since its initializer."
func (v *Variable) MarkAssigned() { v.Constant = false }

// BlockStack is a lexical scope frame (spec.md §3): a singly linked
// list walked by name lookup, with a parent link, an optional owning
// function, and a reuse stack of released temporaries.
type BlockStack struct {
	Parent   *BlockStack
	Func     *Function // nil outside any function body
	IsGlobal bool

	vars     map[string]*Variable
	tempPool []*symbols.Pointer // released temporaries available for reuse
}

// NewBlockStack creates a child scope of parent (nil for the root
// global scope).
func NewBlockStack(parent *BlockStack, fn *Function, isGlobal bool) *BlockStack {
	return &BlockStack{Parent: parent, Func: fn, IsGlobal: isGlobal, vars: make(map[string]*Variable)}
}

// Declare adds a new variable to this scope. The caller must have
// already checked for a duplicate in this scope (spec.md §7 Resolve
// errors: "duplicate declaration").
func (bs *BlockStack) Declare(v *Variable) {
	bs.vars[v.Name] = v
}

// LookupLocal looks up name in this scope only.
func (bs *BlockStack) LookupLocal(name string) (*Variable, bool) {
	v, ok := bs.vars[name]
	return v, ok
}

// Lookup walks the block chain from this scope outward, matching the
// teacher's symbol-table chain walk.
func (bs *BlockStack) Lookup(name string) (*Variable, bool) {
	for b := bs; b != nil; b = b.Parent {
		if v, ok := b.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// CurrentFunc returns the nearest enclosing function, walking outward
// (a block inside a function still reports that function).
func (bs *BlockStack) CurrentFunc() *Function {
	for b := bs; b != nil; b = b.Parent {
		if b.Func != nil {
			return b.Func
		}
	}
	return nil
}

// pushTemp returns a released temporary to the reuse stack.
func (bs *BlockStack) pushTemp(p *symbols.Pointer) {
	bs.tempPool = append(bs.tempPool, p)
}

// popTemp takes a previously released temporary of adequate size, if
// any is available in this scope.
func (bs *BlockStack) popTemp(size int) *symbols.Pointer {
	for i := len(bs.tempPool) - 1; i >= 0; i-- {
		if bs.tempPool[i].Size >= size {
			p := bs.tempPool[i]
			bs.tempPool = append(bs.tempPool[:i], bs.tempPool[i+1:]...)
			return p
		}
	}
	return nil
}
