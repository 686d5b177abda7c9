// Package builder implements the lowering/codegen stage (spec.md §4.4):
// the visitor pipeline declare -> initialize -> optimize -> build walks
// the ast.Program and emits an ir.Buffer per function plus one for the
// top-level program body. Grounded on the teacher's ygen package, which
// plays the same role (AST -> instruction stream) in lang/gen/gen.go,
// but implemented here as a hand-written type switch (see ast.go's
// package doc) rather than methods on the AST nodes, and targeting a
// single-accumulator machine with a software call stack instead of
// ygen's register-file target.
package builder

import (
	"github.com/sirupsen/logrus"

	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/binfile"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/ir"
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// StringTable pools string literals by value (spec.md §4.5): repeated
// literals share one backing pointer.
type StringTable struct {
	byValue map[string]*symbols.Pointer
	order   []string
}

func newStringTable() *StringTable {
	return &StringTable{byValue: make(map[string]*symbols.Pointer)}
}

// Intern returns the pooled pointer for s, allocating one (of size
// len(s)+1 for the trailing zero terminator, matching the teacher's
// yasm string-literal convention) if s was not seen before.
func (st *StringTable) Intern(s string, alloc func(name string, size int) *symbols.Pointer) *symbols.Pointer {
	if p, ok := st.byValue[s]; ok {
		return p
	}
	p := alloc("str", len(s)+1)
	st.byValue[s] = p
	st.order = append(st.order, s)
	return p
}

// Values returns every pooled literal in first-use order.
func (st *StringTable) Values() []string {
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

// Pointer looks up a previously interned literal's pointer.
func (st *StringTable) Pointer(s string) (*symbols.Pointer, bool) {
	p, ok := st.byValue[s]
	return p, ok
}

// shared is the state a root Builder and every function-body child
// Builder hold in common: the three data regions, the function table,
// the struct table, string/binary pools, and the call trampoline's
// reserved cells. Exactly one shared exists per compilation.
type shared struct {
	idCounter int

	Globals *PointerCollection
	Temps   *PointerCollection
	Stack   *PointerCollection

	Functions map[string]*Function
	FuncOrder []string

	Structs map[string]*types.StructDef

	Strings  *StringTable
	BinFiles *binfile.Table

	Diags *diag.Bag
	Log   *logrus.Entry

	// Call trampoline (spec.md §4.4), reserved lazily on the first call
	// site built (EnsureTrampoline), so a program with no calls never
	// pays for it (spec.md §4.7 step 2: "only if any call was ever
	// emitted").
	callEmitted bool
	CallLabel   *symbols.Label
	ReturnLabel *symbols.Label
	StackPtr    *symbols.Pointer // the SP cell
	RetValue    *symbols.Pointer // the return-value cell
}

// Builder is the codegen context for one instruction stream: either the
// top-level program body or one function's body. It owns its own
// ir.Buffer and BlockStack but shares everything else via *shared.
type Builder struct {
	sh *shared

	Buf   *ir.Buffer
	Block *BlockStack
	Func  *Function // nil for the top-level program builder
}

// New creates the root Builder for the top-level program body.
func New(diags *diag.Bag, log *logrus.Entry) *Builder {
	sh := &shared{
		Functions: make(map[string]*Function),
		Structs:   make(map[string]*types.StructDef),
		Strings:   newStringTable(),
		BinFiles:  binfile.NewTable(),
		Diags:     diags,
		Log:       log,
	}
	alloc := func() int {
		id := sh.idCounter
		sh.idCounter++
		return id
	}
	sh.Globals = newPointerCollection(Globals, 0, alloc)
	sh.Temps = newPointerCollection(Temporaries, 0, alloc)
	sh.Stack = newPointerCollection(Stack, 0, alloc)

	b := &Builder{
		sh:  sh,
		Buf: ir.NewBuffer("program", &sh.idCounter),
	}
	b.Block = NewBlockStack(nil, nil, true)
	return b
}

// ChildForFunction returns a Builder for fn's body: a fresh buffer
// sharing the root's symbol ID counter (ir.Buffer's "shared by
// reference" design), and a BlockStack whose parent is the global
// scope (functions see globals and their own locals, never another
// function's locals — the language has no closures).
func (root *Builder) ChildForFunction(fn *Function) *Builder {
	c := &Builder{
		sh:  root.sh,
		Buf: ir.NewBuffer(fn.Name, &root.sh.idCounter),
	}
	c.Block = NewBlockStack(root.Block, fn, false)
	c.Func = fn
	return c
}

// PushScope returns a child Builder sharing this Builder's buffer and
// shared state but with a nested BlockStack, used for block statements
// (spec.md §3 BlockStack: "a singly linked list").
func (b *Builder) PushScope() *Builder {
	c := &Builder{sh: b.sh, Buf: b.Buf, Func: b.Func}
	c.Block = NewBlockStack(b.Block, b.Block.CurrentFunc(), false)
	return c
}

func (b *Builder) Diags() *diag.Bag   { return b.sh.Diags }
func (b *Builder) Log() *logrus.Entry { return b.sh.Log }

func (b *Builder) allocID() int {
	id := b.sh.idCounter
	b.sh.idCounter++
	return id
}

// Functions/Structs/Strings/BinFiles expose the shared tables to the
// declare/initialize passes and to the linker.
func (b *Builder) Functions() map[string]*Function { return b.sh.Functions }
func (b *Builder) FuncOrder() []string              { return b.sh.FuncOrder }
func (b *Builder) Structs() map[string]*types.StructDef { return b.sh.Structs }
func (b *Builder) Strings() *StringTable            { return b.sh.Strings }
func (b *Builder) BinFiles() *binfile.Table          { return b.sh.BinFiles }

// DeclareFunction registers fn's signature (spec.md §4.4's declare
// phase, run before any body is built so forward calls resolve).
func (b *Builder) DeclareFunction(fn *Function) {
	b.sh.Functions[fn.Name] = fn
	b.sh.FuncOrder = append(b.sh.FuncOrder, fn.Name)
}

// LookupFunction finds a previously declared function by name.
func (b *Builder) LookupFunction(name string) (*Function, bool) {
	fn, ok := b.sh.Functions[name]
	return fn, ok
}

// DeclareStruct registers a struct type definition.
func (b *Builder) DeclareStruct(def *types.StructDef) {
	b.sh.Structs[def.Name] = def
}

// LookupStruct finds a previously declared struct type by name.
func (b *Builder) LookupStruct(name string) (*types.StructDef, bool) {
	def, ok := b.sh.Structs[name]
	return def, ok
}

// regionFor chooses the data region a newly declared variable's home
// lives in (spec.md §3): globals at file scope, stack slots for
// function locals and parameters, globals for nothing else — compiler
// temporaries always go through GetTemp/ReleaseTemp into Temporaries
// regardless of lexical position.
func (b *Builder) regionFor() *PointerCollection {
	if b.Block.CurrentFunc() != nil {
		return b.sh.Stack
	}
	return b.sh.Globals
}

// DeclareVariable allocates storage for a new named variable in the
// current scope and registers it. Callers must already have checked
// for a duplicate in the current scope (spec.md §7 "duplicate
// declaration").
func (b *Builder) DeclareVariable(name string, t *types.Type, init ast.Expr, isConst bool, isParam bool) *Variable {
	region := b.regionFor()
	home := region.GetNext(b.Block, name, t)
	home.AssignedVariables = append(home.AssignedVariables, name)
	v := &Variable{
		Name:     name,
		Home:     home,
		Type:     t,
		Init:     init,
		Constant: isConst || init != nil,
		IsParam:  isParam,
		IsStack:  region.Region == Stack,
	}
	b.Block.Declare(v)
	return v
}

// GetTemp acquires a scratch pointer sized for t, reused from the
// current scope's release stack where possible (spec.md §3 "Temporary
// lifecycle").
func (b *Builder) GetTemp(t *types.Type) *symbols.Pointer {
	return b.sh.Temps.GetNext(b.Block, "tmp", t)
}

// ReleaseTemp returns p to the reuse pool. Must be called on every
// exit path of the scope that acquired it, including error paths
// (spec.md §5).
func (b *Builder) ReleaseTemp(p *symbols.Pointer) {
	b.sh.Temps.Release(b.Block, p)
}

// Errorf/Warnf/Debugf forward to the shared diagnostic bag.
func (b *Builder) Errorf(r diag.Range, kind diag.Kind, format string, args ...interface{}) {
	b.sh.Diags.Errorf(r, kind, format, args...)
}
func (b *Builder) Warnf(r diag.Range, kind diag.Kind, format string, args ...interface{}) {
	b.sh.Diags.Warnf(r, kind, format, args...)
}
func (b *Builder) Debugf(r diag.Range, kind diag.Kind, format string, args ...interface{}) {
	b.sh.Diags.Debugf(r, kind, format, args...)
	if b.sh.Log != nil {
		b.sh.Log.WithField("range", r.String()).WithField("kind", kind.String()).Debugf(format, args...)
	}
}
