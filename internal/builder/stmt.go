package builder

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/ir"
	"github.com/astro8/yabal/internal/types"
)

// InitializeStmt resolves identifiers/types across every nested
// expression, and allocates local variable Homes as it reaches each
// VarDeclStmt (spec.md §3: declaration order is sequential within a
// scope, so a local needs no forward-declare pass the way functions
// and globals do). Every stack-resident local across the whole program
// exists by the time InitializeProgram finishes, which is why
// EnsureTrampoline — invoked only from the later Build pass — can
// safely read the final frame layout (see trampoline.go).
func (b *Builder) InitializeStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDeclStmt:
		if _, dup := b.Block.LookupLocal(n.Name); dup {
			b.Errorf(n.Rng, diag.KindResolve, "duplicate declaration of %q", n.Name)
			return
		}
		if n.Init != nil {
			b.InitializeExpr(n.Init)
		}
		t := n.Declared
		if t == nil {
			if n.Init != nil {
				t = n.Init.Type()
			} else {
				t = types.TypeUnknown
			}
		}
		b.DeclareVariable(n.Name, t, n.Init, n.IsConst, false)

	case *ast.ExprStmt:
		b.InitializeExpr(n.X)

	case *ast.BlockStmt:
		child := b.PushScope()
		for _, st := range n.Stmts {
			child.InitializeStmt(st)
		}

	case *ast.IfStmt:
		b.InitializeExpr(n.Cond)
		b.PushScope().InitializeStmt(n.Then)
		if n.Else != nil {
			b.PushScope().InitializeStmt(n.Else)
		}

	case *ast.WhileStmt:
		b.InitializeExpr(n.Cond)
		b.PushScope().InitializeStmt(n.Body)

	case *ast.ForStmt:
		loop := b.PushScope()
		if n.Init != nil {
			loop.InitializeStmt(n.Init)
		}
		if n.Cond != nil {
			loop.InitializeExpr(n.Cond)
		}
		if n.Post != nil {
			loop.InitializeExpr(n.Post)
		}
		loop.InitializeStmt(n.Body)

	case *ast.ReturnStmt:
		if n.Value != nil {
			b.InitializeExpr(n.Value)
		}

	case *ast.AsmStmt:
		// Operand identifiers are resolved at build time (buildAsmLines),
		// since they reference variable homes rather than values.
	}
}

// OptimizeStmt constant-folds every nested expression.
func (b *Builder) OptimizeStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDeclStmt:
		if n.Init != nil {
			n.Init = b.OptimizeExpr(n.Init)
		}
	case *ast.ExprStmt:
		n.X = b.OptimizeExpr(n.X)
	case *ast.BlockStmt:
		for _, st := range n.Stmts {
			b.OptimizeStmt(st)
		}
	case *ast.IfStmt:
		n.Cond = b.OptimizeExpr(n.Cond)
		b.OptimizeStmt(n.Then)
		if n.Else != nil {
			b.OptimizeStmt(n.Else)
		}
	case *ast.WhileStmt:
		n.Cond = b.OptimizeExpr(n.Cond)
		b.OptimizeStmt(n.Body)
	case *ast.ForStmt:
		if n.Init != nil {
			b.OptimizeStmt(n.Init)
		}
		if n.Cond != nil {
			n.Cond = b.OptimizeExpr(n.Cond)
		}
		if n.Post != nil {
			n.Post = b.OptimizeExpr(n.Post)
		}
		b.OptimizeStmt(n.Body)
	case *ast.ReturnStmt:
		if n.Value != nil {
			n.Value = b.OptimizeExpr(n.Value)
		}
	}
}

// BuildStmt emits code for s. Block scopes release every temporary
// they acquired on every exit path, including the one a diagnostic
// error takes (spec.md §5): child.Block's reuse pool is simply
// abandoned with the child itself when the scope ends, which is safe
// because a pool entry only ever holds pointers already released by
// ReleaseTemp — nothing further needs releasing at scope exit.
func (b *Builder) BuildStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDeclStmt:
		v, ok := b.Block.LookupLocal(n.Name)
		if !ok {
			return
		}
		if n.Init != nil {
			b.BuildExpr(n.Init)
			b.Buf.Emit(ir.STA, ir.SymOperand(v.Home, 0), "initialize "+n.Name)
			b.storeBankWord(v.Type, v.Home, 0)
		}

	case *ast.ExprStmt:
		b.BuildExpr(n.X)

	case *ast.BlockStmt:
		child := b.PushScope()
		for _, st := range n.Stmts {
			child.BuildStmt(st)
		}

	case *ast.IfStmt:
		b.buildIf(n)

	case *ast.WhileStmt:
		b.buildWhile(n)

	case *ast.ForStmt:
		b.buildFor(n)

	case *ast.ReturnStmt:
		b.buildReturn(n)

	case *ast.AsmStmt:
		b.buildAsmLines(n.Lines)
	}
}

func (b *Builder) buildIf(n *ast.IfStmt) {
	b.BuildExpr(n.Cond)
	elseLbl := b.Buf.CreateLabel("if$else")
	endLbl := b.Buf.CreateLabel("if$end")
	b.Buf.Emit(ir.Jmpz, ir.SymOperand(elseLbl, 0), "")
	b.PushScope().BuildStmt(n.Then)
	if n.Else != nil {
		b.Buf.Emit(ir.Jmp, ir.SymOperand(endLbl, 0), "")
	}
	b.Buf.MarkLabel(elseLbl)
	if n.Else != nil {
		b.PushScope().BuildStmt(n.Else)
		b.Buf.MarkLabel(endLbl)
	}
}

func (b *Builder) buildWhile(n *ast.WhileStmt) {
	topLbl := b.Buf.CreateLabel("while$top")
	endLbl := b.Buf.CreateLabel("while$end")
	b.Buf.MarkLabel(topLbl)
	b.BuildExpr(n.Cond)
	b.Buf.Emit(ir.Jmpz, ir.SymOperand(endLbl, 0), "")
	b.PushScope().BuildStmt(n.Body)
	b.Buf.Emit(ir.Jmp, ir.SymOperand(topLbl, 0), "")
	b.Buf.MarkLabel(endLbl)
}

func (b *Builder) buildFor(n *ast.ForStmt) {
	loop := b.PushScope()
	if n.Init != nil {
		loop.BuildStmt(n.Init)
	}
	topLbl := loop.Buf.CreateLabel("for$top")
	endLbl := loop.Buf.CreateLabel("for$end")
	loop.Buf.MarkLabel(topLbl)
	if n.Cond != nil {
		loop.BuildExpr(n.Cond)
		loop.Buf.Emit(ir.Jmpz, ir.SymOperand(endLbl, 0), "")
	}
	loop.BuildStmt(n.Body)
	if n.Post != nil {
		loop.BuildExpr(n.Post)
	}
	loop.Buf.Emit(ir.Jmp, ir.SymOperand(topLbl, 0), "")
	loop.Buf.MarkLabel(endLbl)
}

// buildReturn leaves the result in A and falls through to __return.
// A void function with no explicit value still reaches __return (its
// body falls through or jumps here) with A holding whatever it last
// computed; the language has no defined "void result" to load instead.
func (b *Builder) buildReturn(n *ast.ReturnStmt) {
	if n.Value != nil {
		b.BuildExpr(n.Value)
	}
	fn := b.Block.CurrentFunc()
	if fn == nil {
		// A return outside any function: only reachable for the
		// top-level program, where it means "halt".
		b.Buf.Emit0(ir.Hlt, "")
		return
	}
	b.EnsureTrampoline(b.Buf)
	b.Buf.Emit(ir.Jmp, ir.SymOperand(b.sh.ReturnLabel, 0), "")
}
