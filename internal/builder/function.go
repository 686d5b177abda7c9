package builder

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// Function is a declared function: its signature, its entry label,
// and the child builder holding its body's instructions (spec.md §3).
// A function with zero references is omitted from the final image
// (spec.md §3, §8) with a Debug diagnostic.
type Function struct {
	Name       string
	Params     []*types.Type
	ParamNames []string
	ReturnType *types.Type
	Entry      *symbols.Label
	RefCount   int

	// ParamHomes holds each parameter's stack-resident storage,
	// allocated during the declare pass alongside the function's other
	// locals, so call sites (buildCall) can bind arguments before
	// jumping to Entry.
	ParamHomes []*symbols.Pointer

	Decl  *ast.FuncDecl
	Body  *Builder // child builder; nil until BuildProgram creates it
	built bool
}

// Reference records one call site targeting fn, for the "unused
// function" dead-code check (spec.md §3, §8).
func (fn *Function) Reference() { fn.RefCount++ }

// Used reports whether fn has at least one call site.
func (fn *Function) Used() bool { return fn.RefCount > 0 }
