package builder

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/ir"
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// Program is what Compile hands off to the linker: the root builder's
// buffer (top-level statements and the trampoline, if any), one buffer
// per referenced function, and the shared data regions/string pool.
type Program struct {
	Root      *Builder
	Functions []*Function // in declaration order, Used() only
}

// DeclareStructs registers every struct type up front (spec.md §4.3),
// so a field of one struct type naming another declared later still
// resolves. Bit-field field sizes are taken from the syntax verbatim.
func (root *Builder) DeclareStructs(prog *ast.Program) {
	for _, d := range prog.Decls {
		sd, ok := d.(*ast.StructDecl)
		if !ok {
			continue
		}
		def := &types.StructDef{Name: sd.Name}
		offset := 0
		bitCursor := 0
		for _, fs := range sd.Fields {
			f := types.Field{Name: fs.Name, Offset: offset}
			if fs.Bits > 0 {
				if bitCursor+fs.Bits > 16 {
					bitCursor = 0
					offset++
				}
				f.Offset = offset
				f.Type = types.TypeInt
				f.Bits = &types.BitField{Offset: bitCursor, Size: fs.Bits}
				bitCursor += fs.Bits
			} else {
				if bitCursor != 0 {
					offset++
					bitCursor = 0
				}
				f.Type = fs.Type
				f.Offset = offset
				offset += fs.Type.Size()
			}
			def.Fields = append(def.Fields, f)
		}
		root.DeclareStruct(def)
	}
}

// DeclareFunctions registers every function's signature (spec.md §4.4):
// a forward pass so calls to a function defined later in the file, or
// to itself (recursion), resolve during InitializeProgram.
func (root *Builder) DeclareFunctions(prog *ast.Program) {
	for _, d := range prog.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, dup := root.LookupFunction(fd.Name); dup {
			root.Errorf(fd.Rng, diag.KindResolve, "duplicate declaration of function %q", fd.Name)
			continue
		}
		fn := &Function{
			Name:       fd.Name,
			ReturnType: fd.ReturnType,
			Decl:       fd,
			Entry:      root.Buf.CreateLabel(fd.Name),
		}
		for _, p := range fd.Params {
			fn.Params = append(fn.Params, p.Type)
			fn.ParamNames = append(fn.ParamNames, p.Name)
		}
		root.DeclareFunction(fn)
	}
}

// InitializeProgram resolves identifiers/types across every top-level
// declaration and statement, and builds each function's child Builder
// (allocating its parameter/local Homes) so that every stack-resident
// variable in the whole program exists before BuildProgram begins.
func (root *Builder) InitializeProgram(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.GlobalVarDecl:
			root.initGlobal(n)

		case *ast.FuncDecl:
			fn, ok := root.LookupFunction(n.Name)
			if !ok {
				continue
			}
			fn.Body = root.ChildForFunction(fn)
			for i, pt := range fn.Params {
				v := fn.Body.DeclareVariable(fn.ParamNames[i], pt, nil, false, true)
				fn.ParamHomes = append(fn.ParamHomes, v.Home.(*symbols.Pointer))
			}
			fn.Body.InitializeStmt(n.Body)

		case *ast.StructDecl:
			// handled by DeclareStructs

		case *ast.TopLevelStmt:
			root.InitializeStmt(n.S)
		}
	}
}

func (root *Builder) initGlobal(n *ast.GlobalVarDecl) {
	if _, dup := root.Block.LookupLocal(n.Name); dup {
		root.Errorf(n.Rng, diag.KindResolve, "duplicate declaration of %q", n.Name)
		return
	}
	if n.Init != nil {
		root.InitializeExpr(n.Init)
	}
	t := n.Declared
	if t == nil {
		if n.Init != nil {
			t = n.Init.Type()
		} else {
			t = types.TypeUnknown
		}
	}
	root.DeclareVariable(n.Name, t, n.Init, n.IsConst, false)
}

// OptimizeProgram constant-folds every top-level initializer, function
// body, and top-level statement.
func (root *Builder) OptimizeProgram(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.GlobalVarDecl:
			if n.Init != nil {
				n.Init = root.OptimizeExpr(n.Init)
			}
		case *ast.FuncDecl:
			fn, ok := root.LookupFunction(n.Name)
			if !ok || fn.Body == nil {
				continue
			}
			fn.Body.OptimizeStmt(n.Body)
		case *ast.TopLevelStmt:
			root.OptimizeStmt(n.S)
		}
	}
}

// BuildProgram emits code for every used function (spec.md §3, §8:
// functions with zero call sites are omitted with a Debug diagnostic)
// and for the top-level statements, in source order, followed by a
// final halt.
func (root *Builder) BuildProgram(prog *ast.Program) *Program {
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.GlobalVarDecl:
			if n.Init == nil {
				continue
			}
			v, ok := root.Block.LookupLocal(n.Name)
			if !ok {
				continue
			}
			root.BuildExpr(n.Init)
			root.Buf.Emit(ir.STA, ir.SymOperand(v.Home, 0), "initialize "+n.Name)
			root.storeBankWord(v.Type, v.Home, 0)

		case *ast.TopLevelStmt:
			root.BuildStmt(n.S)
		}
	}
	root.Buf.Emit0(ir.Hlt, "end of program")

	var used []*Function
	for _, name := range root.FuncOrder() {
		fn := root.Functions()[name]
		if !fn.Used() {
			root.Debugf(fn.Decl.Rng, diag.KindResolve, "function %q is never called; omitted from the image", fn.Name)
			continue
		}
		fn.Body.buildFunctionBody(fn)
		used = append(used, fn)
	}
	return &Program{Root: root, Functions: used}
}

// buildFunctionBody emits fn's entry label, its body, and falls
// through to __return if control reaches the end without an explicit
// return statement.
func (b *Builder) buildFunctionBody(fn *Function) {
	b.Buf.MarkLabel(fn.Entry)
	b.BuildStmt(fn.Decl.Body)
	b.EnsureTrampoline(b.Buf)
	b.Buf.Emit(ir.Jmp, ir.SymOperand(b.sh.ReturnLabel, 0), "implicit return")
	fn.built = true
}
