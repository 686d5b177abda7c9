package builder

import (
	"github.com/astro8/yabal/internal/ast"
	"github.com/astro8/yabal/internal/chartable"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/ir"
	"github.com/astro8/yabal/internal/symbols"
	"github.com/astro8/yabal/internal/types"
)

// InitializeExpr resolves identifiers against the current scope, infers
// and checks types, and records variable usages. It is a hand-written
// type switch rather than a method on ast.Expr (see ast.go's package
// doc) so the AST package stays free of any dependency on the codegen
// context.
func (b *Builder) InitializeExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		n.SetType(types.TypeInt)

	case *ast.BoolLiteral:
		n.SetType(types.TypeBool)

	case *ast.StringLiteral:
		n.SetType(types.NewPointer(types.TypeChar, 0))
		if _, allFound := chartable.MustEncode(n.Value); !allFound {
			b.Errorf(n.Rng, diag.KindLayout, "string literal %q contains a character outside the character table", n.Value)
		}
		b.Strings().Intern(n.Value, func(name string, size int) *symbols.Pointer {
			return b.Buf.CreatePointer(name, 0, size)
		})

	case *ast.IdentExpr:
		v, ok := b.Block.Lookup(n.Name)
		if !ok {
			b.Errorf(n.Rng, diag.KindResolve, "undefined identifier %q", n.Name)
			n.SetType(types.TypeUnknown)
			return
		}
		v.MarkUsed()
		n.SetType(v.Type)

	case *ast.BinaryExpr:
		b.InitializeExpr(n.Left)
		b.InitializeExpr(n.Right)
		n.SetType(binaryResultType(n.Op, n.Left.Type(), n.Right.Type()))

	case *ast.UnaryExpr:
		b.InitializeExpr(n.Operand)
		if n.Op == ast.UnaryLNot {
			n.SetType(types.TypeBool)
		} else {
			n.SetType(n.Operand.Type())
		}

	case *ast.AssignExpr:
		b.InitializeExpr(n.LHS)
		b.InitializeExpr(n.RHS)
		if id, ok := n.LHS.(*ast.IdentExpr); ok {
			if v, ok := b.Block.Lookup(id.Name); ok {
				v.MarkAssigned()
			}
		}
		n.SetType(n.LHS.Type())

	case *ast.IncDecExpr:
		b.InitializeExpr(n.Operand)
		if id, ok := n.Operand.(*ast.IdentExpr); ok {
			if v, ok := b.Block.Lookup(id.Name); ok {
				v.MarkAssigned()
			}
		}
		n.SetType(n.Operand.Type())

	case *ast.CallExpr:
		fn, ok := b.LookupFunction(n.Callee)
		if !ok {
			b.Errorf(n.Rng, diag.KindResolve, "undefined function %q", n.Callee)
			n.SetType(types.TypeUnknown)
			return
		}
		fn.Reference()
		for _, a := range n.Args {
			b.InitializeExpr(a)
		}
		n.SetType(fn.ReturnType)

	case *ast.IndexExpr:
		b.InitializeExpr(n.Array)
		b.InitializeExpr(n.Index)
		if et := n.Array.Type(); et != nil && et.Elem != nil {
			n.SetType(et.Elem)
		} else {
			n.SetType(types.TypeUnknown)
		}

	case *ast.FieldExpr:
		b.InitializeExpr(n.Object)
		t := n.Object.Type()
		if t != nil && t.Kind == types.Struct && t.Def != nil {
			if f, ok := t.Def.FieldByName(n.Field); ok {
				n.SetType(f.Type)
				return
			}
			b.Errorf(n.Rng, diag.KindResolve, "struct %q has no field %q", t.Def.Name, n.Field)
		} else {
			b.Errorf(n.Rng, diag.KindType, "field access on non-struct type %s", t)
		}
		n.SetType(types.TypeUnknown)

	case *ast.SizeofExpr:
		b.InitializeExpr(n.Operand)
		n.SetType(types.TypeInt)

	case *ast.CreatePointerExpr:
		b.InitializeExpr(n.Addr)
		if _, ok := n.Addr.(*ast.IntLiteral); !ok {
			b.Errorf(n.Rng, diag.KindType, "create_pointer address must be a compile-time constant")
		}
		bank := 0
		if n.Bank != nil {
			b.InitializeExpr(n.Bank)
			if lit, ok := n.Bank.(*ast.IntLiteral); ok {
				bank = int(lit.Value)
			} else {
				b.Errorf(n.Rng, diag.KindType, "create_pointer bank must be a compile-time constant")
			}
		}
		n.SetType(types.NewPointer(types.TypeInt, bank))

	case *ast.EmbedFileExpr:
		b.InitializeExpr(n.Path)
		path, ok := n.Path.(*ast.StringLiteral)
		if !ok {
			b.Errorf(n.Rng, diag.KindType, "embed_file path must be a string literal")
		}
		b.InitializeExpr(n.Kind)
		kind, kok := n.Kind.(*ast.StringLiteral)
		if !kok {
			b.Errorf(n.Rng, diag.KindType, "embed_file kind must be a string literal")
		}
		if ok && kok {
			b.RequestBinFile(path.Value, kind.Value)
		}
		n.SetType(types.NewPointer(types.TypeInt, 0))

	case *ast.AsmExpr:
		n.SetType(types.TypeInt)

	default:
		b.Errorf(e.Range(), diag.KindCodegenInvariant, "internal: unhandled expression kind %T in InitializeExpr", e)
	}
}

func binaryResultType(op ast.BinaryOp, l, r *types.Type) *types.Type {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpLAnd, ast.OpLOr:
		return types.TypeBool
	default:
		if l != nil && l.IsAddressLike() {
			return l
		}
		if r != nil && r.IsAddressLike() {
			return r
		}
		return types.TypeInt
	}
}

// OptimizeExpr performs constant folding (spec.md §4.4's optimize
// phase) and returns the (possibly replaced) expression.
func (b *Builder) OptimizeExpr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		n.Left = b.OptimizeExpr(n.Left)
		n.Right = b.OptimizeExpr(n.Right)
		li, lok := n.Left.(*ast.IntLiteral)
		ri, rok := n.Right.(*ast.IntLiteral)
		if lok && rok {
			if v, ok := foldIntBinary(n.Op, li.Value, ri.Value); ok {
				folded := &ast.IntLiteral{Value: v}
				folded.SetType(types.TypeInt)
				return folded
			}
		}
		return n

	case *ast.UnaryExpr:
		n.Operand = b.OptimizeExpr(n.Operand)
		if li, ok := n.Operand.(*ast.IntLiteral); ok {
			v := li.Value
			switch n.Op {
			case ast.UnaryNeg:
				v = -v
			case ast.UnaryNot:
				v = ^v
			case ast.UnaryLNot:
				if v == 0 {
					v = 1
				} else {
					v = 0
				}
			}
			folded := &ast.IntLiteral{Value: v}
			folded.SetType(n.Type())
			return folded
		}
		return n

	case *ast.AssignExpr:
		n.RHS = b.OptimizeExpr(n.RHS)
		return n

	case *ast.IncDecExpr:
		n.Operand = b.OptimizeExpr(n.Operand)
		return n

	case *ast.CallExpr:
		for i, a := range n.Args {
			n.Args[i] = b.OptimizeExpr(a)
		}
		return n

	case *ast.IndexExpr:
		n.Array = b.OptimizeExpr(n.Array)
		n.Index = b.OptimizeExpr(n.Index)
		return n

	case *ast.FieldExpr:
		n.Object = b.OptimizeExpr(n.Object)
		return n

	case *ast.SizeofExpr:
		sz := n.Operand.Type().Size()
		folded := &ast.IntLiteral{Value: int64(sz)}
		folded.SetType(types.TypeInt)
		return folded

	default:
		return e
	}
}

func foldIntBinary(op ast.BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case ast.OpAdd:
		return l + r, true
	case ast.OpSub:
		return l - r, true
	case ast.OpMul:
		return l * r, true
	case ast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ast.OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case ast.OpAnd:
		return l & r, true
	case ast.OpOr:
		return l | r, true
	case ast.OpXor:
		return l ^ r, true
	case ast.OpShl:
		return l << uint(r), true
	case ast.OpShr:
		return l >> uint(r), true
	default:
		return 0, false
	}
}

// BuildExpr emits code for e, leaving its scalar result in register A.
// It reports whether building e clobbered register B, via
// e.SetOverwritesB, so callers sequencing two expressions know whether
// B must be reloaded.
func (b *Builder) BuildExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		b.Buf.Emit(ir.LDI, ir.Imm(int(n.Value)), "")
		n.SetOverwritesB(false)

	case *ast.BoolLiteral:
		v := 0
		if n.Value {
			v = 1
		}
		b.Buf.Emit(ir.LDI, ir.Imm(v), "")
		n.SetOverwritesB(false)

	case *ast.StringLiteral:
		p, _ := b.Strings().Pointer(n.Value)
		b.Buf.Emit(ir.LDI, ir.SymOperand(p, 0), "string literal address")
		n.SetOverwritesB(false)

	case *ast.IdentExpr:
		v, ok := b.Block.Lookup(n.Name)
		if !ok {
			return
		}
		b.loadHome(v.Home, v.Type)
		n.SetOverwritesB(false)

	case *ast.BinaryExpr:
		b.buildBinary(n)

	case *ast.UnaryExpr:
		b.buildUnary(n)

	case *ast.AssignExpr:
		b.buildAssign(n)

	case *ast.IncDecExpr:
		b.buildIncDec(n)

	case *ast.CallExpr:
		b.buildCall(n)

	case *ast.IndexExpr:
		b.buildIndex(n)

	case *ast.FieldExpr:
		b.buildField(n)

	case *ast.SizeofExpr:
		b.Buf.Emit(ir.LDI, ir.Imm(n.Operand.Type().Size()), "")
		n.SetOverwritesB(false)

	case *ast.CreatePointerExpr:
		// The bank is carried entirely by n.Type().Bank (a compile-time
		// property of the pointer type, per spec.md §4.2's
		// Pointer(element, bank) kind) — only the address travels
		// through A here. storeInto/storeBankWord writes the bank word
		// when this value is stored into a pointer-typed home.
		addr := int(n.Addr.(*ast.IntLiteral).Value)
		b.Buf.Emit(ir.LDI, ir.Imm(addr), "create_pointer literal")
		n.SetOverwritesB(false)

	case *ast.EmbedFileExpr:
		path := n.Path.(*ast.StringLiteral).Value
		kind := n.Kind.(*ast.StringLiteral).Value
		p := b.RequestBinFile(path, kind)
		b.Buf.Emit(ir.LDI, ir.SymOperand(p, 0), "embed_file address")
		n.SetOverwritesB(false)

	case *ast.AsmExpr:
		b.buildAsmLines(n.Lines)
		n.SetOverwritesB(true)

	default:
		b.Errorf(e.Range(), diag.KindCodegenInvariant, "internal: unhandled expression kind %T in BuildExpr", e)
	}
}

// loadHome loads v's home into A. Address-like (2-word) homes load
// only their address word: the address is what arithmetic, indexing
// and argument-passing need, and the bank (word 1, written by
// storeBankWord) is a static property of t already known at every use
// site from t.Bank, not something that has to flow through a
// register. SetBank brackets are emitted where the bank actually
// matters — at the point a pointer is dereferenced (buildIndex,
// storeIndexed) — not on every load of the pointer value itself.
func (b *Builder) loadHome(home symbols.Addressable, t *types.Type) {
	b.Buf.Emit(ir.AIN, ir.SymOperand(home, 0), "")
	_ = t
}

func (b *Builder) buildBinary(n *ast.BinaryExpr) {
	// Short-circuit logical operators evaluate the right side only
	// conditionally.
	if n.Op == ast.OpLAnd || n.Op == ast.OpLOr {
		b.buildShortCircuit(n)
		return
	}

	b.BuildExpr(n.Right)
	tmp := b.GetTemp(n.Right.Type())
	b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "spill right operand")
	b.BuildExpr(n.Left)
	b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "B = right operand")
	b.ReleaseTemp(tmp)

	switch n.Op {
	case ast.OpAdd:
		b.Buf.Emit0(ir.Add, "")
	case ast.OpSub:
		b.Buf.Emit0(ir.Sub, "")
	case ast.OpAnd:
		b.Buf.Emit0(ir.And, "")
	case ast.OpOr:
		b.Buf.Emit0(ir.Or, "")
	case ast.OpXor:
		b.Buf.Emit0(ir.Xor, "")
	case ast.OpShl:
		b.Buf.Emit0(ir.Shl, "")
	case ast.OpShr:
		b.Buf.Emit0(ir.Shr, "")
	case ast.OpMul:
		b.buildRuntimeMulMod(n.Op)
	case ast.OpDiv, ast.OpMod:
		b.buildRuntimeDivMod(n.Op)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		b.buildCompare(n.Op)
	}
	n.SetOverwritesB(true)
}

// wordBits is the machine word width the shift-add multiply and
// shift-subtract divide below are unrolled over.
const wordBits = 16

// buildRuntimeMulMod and buildRuntimeDivMod lower `*`, `/` and `%`:
// this ISA has no multiply/divide instruction (spec.md §3's opcode
// list is add/sub/bitwise/shift only), and with no counted-loop
// primitive either, both are unrolled at compile time over the word's
// 16 bits — the standard shift-add / shift-subtract algorithms a
// simple accumulator machine's compiler generates inline rather than
// calling out to a software multiplier. Entry convention: A = left,
// B = right (established by buildBinary's generic operand preamble).
func (b *Builder) buildRuntimeMulMod(op ast.BinaryOp) {
	left := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(left, 0), "left")
	right := b.GetTemp(types.TypeInt)
	b.Buf.Emit0(ir.SwapAB, "A = right")
	b.Buf.Emit(ir.STA, ir.SymOperand(right, 0), "right")
	result := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.LDI, ir.Imm(0), "")
	b.Buf.Emit(ir.STA, ir.SymOperand(result, 0), "result = 0")

	for bit := 0; bit < wordBits; bit++ {
		skipLbl := b.Buf.CreateLabel("mul$skip")
		b.Buf.Emit(ir.LDI, ir.Imm(1<<uint(bit)), "bit mask")
		b.Buf.Emit(ir.BIN, ir.SymOperand(right, 0), "")
		b.Buf.Emit0(ir.And, "test bit")
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(skipLbl, 0), "")
		b.Buf.Emit(ir.AIN, ir.SymOperand(left, 0), "A = left")
		for s := 0; s < bit; s++ {
			b.Buf.Emit0(ir.Shl, "")
		}
		b.Buf.Emit(ir.BIN, ir.SymOperand(result, 0), "")
		b.Buf.Emit0(ir.Add, "result += left<<bit")
		b.Buf.Emit(ir.STA, ir.SymOperand(result, 0), "")
		b.Buf.MarkLabel(skipLbl)
	}

	b.Buf.Emit(ir.AIN, ir.SymOperand(result, 0), "A = result")
	b.ReleaseTemp(result)
	b.ReleaseTemp(right)
	b.ReleaseTemp(left)
}

// buildRuntimeDivMod implements unsigned restoring division, producing
// both quotient and remainder; op (Div or Mod) selects which the
// caller (buildBinary) leaves in A. Entry convention: A = left
// (dividend), B = right (divisor).
func (b *Builder) buildRuntimeDivMod(op ast.BinaryOp) {
	dividend := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(dividend, 0), "dividend")
	divisor := b.GetTemp(types.TypeInt)
	b.Buf.Emit0(ir.SwapAB, "A = divisor")
	b.Buf.Emit(ir.STA, ir.SymOperand(divisor, 0), "divisor")
	remainder := b.GetTemp(types.TypeInt)
	quotient := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.LDI, ir.Imm(0), "")
	b.Buf.Emit(ir.STA, ir.SymOperand(remainder, 0), "remainder = 0")
	b.Buf.Emit(ir.STA, ir.SymOperand(quotient, 0), "quotient = 0")

	for bit := wordBits - 1; bit >= 0; bit-- {
		restoreLbl := b.Buf.CreateLabel("div$restore")
		doneLbl := b.Buf.CreateLabel("div$done")
		// remainder = (remainder << 1) | bit `bit` of dividend.
		b.Buf.Emit(ir.AIN, ir.SymOperand(remainder, 0), "")
		b.Buf.Emit0(ir.Shl, "remainder <<= 1")
		b.Buf.Emit(ir.STA, ir.SymOperand(remainder, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(1<<uint(bit)), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(dividend, 0), "")
		b.Buf.Emit0(ir.And, "dividend bit")
		skipOrLbl := b.Buf.CreateLabel("div$noor")
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(skipOrLbl, 0), "")
		b.Buf.Emit(ir.AIN, ir.SymOperand(remainder, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(1), "")
		b.Buf.Emit0(ir.SwapAB, "")
		b.Buf.Emit(ir.AIN, ir.SymOperand(remainder, 0), "")
		b.Buf.Emit0(ir.Or, "remainder |= 1")
		b.Buf.Emit(ir.STA, ir.SymOperand(remainder, 0), "")
		b.Buf.MarkLabel(skipOrLbl)

		// if remainder >= divisor: remainder -= divisor; set quotient bit.
		b.Buf.Emit(ir.AIN, ir.SymOperand(remainder, 0), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(divisor, 0), "")
		b.Buf.Emit0(ir.Sub, "remainder - divisor")
		b.Buf.Emit(ir.Jmpc, ir.SymOperand(restoreLbl, 0), "remainder < divisor: skip")
		b.Buf.Emit(ir.STA, ir.SymOperand(remainder, 0), "remainder -= divisor")
		b.Buf.Emit(ir.AIN, ir.SymOperand(quotient, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(1<<uint(bit)), "")
		b.Buf.Emit0(ir.SwapAB, "")
		b.Buf.Emit(ir.AIN, ir.SymOperand(quotient, 0), "")
		b.Buf.Emit0(ir.Or, "quotient bit")
		b.Buf.Emit(ir.STA, ir.SymOperand(quotient, 0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(doneLbl, 0), "")
		b.Buf.MarkLabel(restoreLbl)
		b.Buf.MarkLabel(doneLbl)
	}

	if op == ast.OpMod {
		b.Buf.Emit(ir.AIN, ir.SymOperand(remainder, 0), "A = remainder")
	} else {
		b.Buf.Emit(ir.AIN, ir.SymOperand(quotient, 0), "A = quotient")
	}
	b.ReleaseTemp(quotient)
	b.ReleaseTemp(remainder)
	b.ReleaseTemp(divisor)
	b.ReleaseTemp(dividend)
}

// buildCompare computes A = left-right from buildBinary's A = left,
// B = right and turns it into a 0/1 boolean, using only the two flag-testing jumps the ISA
// offers (Jmpz: A==0, Jmpc: A<0). Every comparison reduces to a test
// on the sign of left-right:
//
//	eq: ==0       ne: !=0
//	lt: <0        ge: !(<0)
//	gt: !=0 && !(<0)    le: ==0 || (<0)
func (b *Builder) buildCompare(op ast.BinaryOp) {
	trueLbl := b.Buf.CreateLabel("cmp$true")
	falseLbl := b.Buf.CreateLabel("cmp$false")
	endLbl := b.Buf.CreateLabel("cmp$end")

	b.Buf.Emit0(ir.Sub, "A = left - right")
	switch op {
	case ast.OpEq:
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(trueLbl, 0), "")
	case ast.OpNe:
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(falseLbl, 0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(trueLbl, 0), "")
	case ast.OpLt:
		b.Buf.Emit(ir.Jmpc, ir.SymOperand(trueLbl, 0), "")
	case ast.OpGe:
		b.Buf.Emit(ir.Jmpc, ir.SymOperand(falseLbl, 0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(trueLbl, 0), "")
	case ast.OpGt:
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(falseLbl, 0), "")
		b.Buf.Emit(ir.Jmpc, ir.SymOperand(falseLbl, 0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(trueLbl, 0), "")
	case ast.OpLe:
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(trueLbl, 0), "")
		b.Buf.Emit(ir.Jmpc, ir.SymOperand(trueLbl, 0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(falseLbl, 0), "")
	}

	b.Buf.MarkLabel(falseLbl)
	b.Buf.Emit(ir.LDI, ir.Imm(0), "")
	b.Buf.Emit(ir.Jmp, ir.SymOperand(endLbl, 0), "")
	b.Buf.MarkLabel(trueLbl)
	b.Buf.Emit(ir.LDI, ir.Imm(1), "")
	b.Buf.MarkLabel(endLbl)
}

func (b *Builder) buildShortCircuit(n *ast.BinaryExpr) {
	endLbl := b.Buf.CreateLabel("sc$end")
	b.BuildExpr(n.Left)
	if n.Op == ast.OpLAnd {
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(endLbl, 0), "false: short-circuit")
	} else {
		zeroLbl := b.Buf.CreateLabel("sc$checkright")
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(zeroLbl, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(1), "true: short-circuit")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(endLbl, 0), "")
		b.Buf.MarkLabel(zeroLbl)
	}
	b.BuildExpr(n.Right)
	b.Buf.MarkLabel(endLbl)
	n.SetOverwritesB(true)
}

func (b *Builder) buildUnary(n *ast.UnaryExpr) {
	b.BuildExpr(n.Operand)
	switch n.Op {
	case ast.UnaryNeg:
		tmp := b.GetTemp(types.TypeInt)
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(0), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit0(ir.Sub, "A = 0 - operand")
		b.ReleaseTemp(tmp)
	case ast.UnaryNot:
		tmp := b.GetTemp(types.TypeInt)
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(-1), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit0(ir.Xor, "A = ~operand")
		b.ReleaseTemp(tmp)
	case ast.UnaryLNot:
		trueLbl := b.Buf.CreateLabel("not$true")
		endLbl := b.Buf.CreateLabel("not$end")
		b.Buf.Emit(ir.Jmpz, ir.SymOperand(trueLbl, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(0), "")
		b.Buf.Emit(ir.Jmp, ir.SymOperand(endLbl, 0), "")
		b.Buf.MarkLabel(trueLbl)
		b.Buf.Emit(ir.LDI, ir.Imm(1), "")
		b.Buf.MarkLabel(endLbl)
	}
	n.SetOverwritesB(true)
}

// buildAssign implements SetValue for the l-value kinds the grammar
// admits: a plain identifier, an index expression, or a field access.
// Compound operators (+=, etc.) read the current value first.
func (b *Builder) buildAssign(n *ast.AssignExpr) {
	switch n.Op {
	case ast.AssignSet:
		b.BuildExpr(n.RHS)
	default:
		b.BuildExpr(n.RHS)
		tmp := b.GetTemp(n.RHS.Type())
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "spill rhs")
		b.BuildExpr(n.LHS)
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.ReleaseTemp(tmp)
		switch n.Op {
		case ast.AssignAdd:
			b.Buf.Emit0(ir.Add, "")
		case ast.AssignSub:
			b.Buf.Emit0(ir.Sub, "")
		case ast.AssignAnd:
			b.Buf.Emit0(ir.And, "")
		case ast.AssignOr:
			b.Buf.Emit0(ir.Or, "")
		case ast.AssignXor:
			b.Buf.Emit0(ir.Xor, "")
		case ast.AssignShl:
			b.Buf.Emit0(ir.Shl, "")
		case ast.AssignShr:
			b.Buf.Emit0(ir.Shr, "")
		case ast.AssignMul:
			b.buildRuntimeMulMod(ast.OpMul)
		case ast.AssignDiv:
			b.buildRuntimeDivMod(ast.OpDiv)
		}
	}
	b.storeInto(n.LHS)
	n.SetOverwritesB(true)
}

// buildIncDec lowers `++operand`/`operand++` (and `--`/`operand--`) to
// the same code as `operand += 1` / `operand -= 1`: both read the
// operand's current value, add or subtract 1, and store the result
// back, leaving the new value in A regardless of prefix/postfix form
// (spec.md §8 scenario 7 only ever uses this as a bare statement, so
// the old-vs-new value distinction a sub-expression would observe
// never arises).
func (b *Builder) buildIncDec(n *ast.IncDecExpr) {
	b.Buf.Emit(ir.LDI, ir.Imm(1), "")
	tmp := b.GetTemp(n.Operand.Type())
	b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "spill 1")
	b.BuildExpr(n.Operand)
	b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
	b.ReleaseTemp(tmp)
	if n.Inc {
		b.Buf.Emit0(ir.Add, "")
	} else {
		b.Buf.Emit0(ir.Sub, "")
	}
	b.storeInto(n.Operand)
	n.SetOverwritesB(true)
}

// storeInto writes the value currently in A to lhs's home, per
// spec.md §4.4's SetValue: a plain identifier stores directly; an
// index or field l-value first computes a destination address.
func (b *Builder) storeInto(lhs ast.Expr) {
	switch l := lhs.(type) {
	case *ast.IdentExpr:
		v, ok := b.Block.Lookup(l.Name)
		if !ok {
			return
		}
		b.Buf.Emit(ir.STA, ir.SymOperand(v.Home, 0), "")
		b.storeBankWord(l.Type(), v.Home, 0)

	case *ast.IndexExpr:
		b.storeIndexed(l)

	case *ast.FieldExpr:
		b.storeField(l)

	default:
		b.Errorf(lhs.Range(), diag.KindCodegenInvariant, "internal: unsupported assignment target %T", lhs)
	}
}

// storeBankWord writes a pointer-typed l-value's bank into the word
// right after its address word (offset+1), per spec.md §4.2 ("pointer
// = 2 words: address + bank") and §4.4's SetValue note that pointer
// assignment needs two writes. The bank is always a compile-time
// constant — part of the static type, not a runtime value — so this
// is a literal store, never a copy from the source expression.
// Non-pointer l-values are a no-op. A is clobbered and then reloaded
// with the address word, so the assignment's result (the value in A)
// is unchanged for any caller chaining off it.
func (b *Builder) storeBankWord(t *types.Type, home symbols.Addressable, offset int) {
	if !t.IsAddressLike() {
		return
	}
	b.Buf.Emit(ir.LDI, ir.Imm(t.Bank), "pointer bank word")
	b.Buf.Emit(ir.STA, ir.SymOperand(home, offset+1), "")
	b.Buf.Emit(ir.AIN, ir.SymOperand(home, offset), "restore assigned value in A")
}

func (b *Builder) buildIndex(n *ast.IndexExpr) {
	addr := b.computeIndexAddress(n)
	bank := indexBank(n)
	if bank != 0 {
		b.Buf.Emit(ir.SetBank, ir.Imm(bank), "")
	}
	b.Buf.Emit(ir.AIN, ir.SymOperand(addr, 0), "")
	b.Buf.Emit0(ir.Lod, "A = array element")
	if bank != 0 {
		b.Buf.Emit(ir.SetBank, ir.Imm(0), "")
	}
	b.ReleaseTemp(addr)
	n.SetOverwritesB(true)
}

// indexBank returns the bank n's elements live in: spec.md §4.2's
// Pointer(element, bank) kind carries the bank on the pointer/array
// type itself, not per element, so every access through it uses the
// same bank.
func indexBank(n *ast.IndexExpr) int {
	if t := n.Array.Type(); t != nil {
		return t.Bank
	}
	return 0
}

// addImmediate emits A = k + mem[base], the same operand-into-B-then-
// op idiom buildBinary and computeIndexAddress use for combining a
// literal with a stored value.
func (b *Builder) addImmediate(base *symbols.Pointer, k int) {
	b.Buf.Emit(ir.LDI, ir.Imm(k), "")
	b.Buf.Emit(ir.BIN, ir.SymOperand(base, 0), "")
	b.Buf.Emit0(ir.Add, "")
}

// computeIndexAddress returns a temp pointer holding Array's base
// address plus Index*elemSize, for element types no wider than one
// word (multi-word elements are addressed the same way; callers that
// need every word repeat the load/store at increasing offsets).
func (b *Builder) computeIndexAddress(n *ast.IndexExpr) *symbols.Pointer {
	elemSize := 1
	if t := n.Array.Type(); t != nil && t.Elem != nil {
		elemSize = t.Elem.Size()
	}
	b.BuildExpr(n.Index)
	if elemSize != 1 {
		tmp := b.GetTemp(types.TypeInt)
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(elemSize), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.buildRuntimeMulMod(ast.OpMul)
		b.ReleaseTemp(tmp)
	}
	tmp := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "stash scaled index")
	b.BuildExpr(n.Array)
	b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
	b.Buf.Emit0(ir.Add, "A = base + offset")
	b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
	return tmp
}

func (b *Builder) storeIndexed(n *ast.IndexExpr) {
	addr := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(addr, 0), "stash value")
	real := b.computeIndexAddress(n)

	bank := indexBank(n)
	if bank != 0 {
		b.Buf.Emit(ir.SetBank, ir.Imm(bank), "")
	}
	b.Buf.Emit(ir.AIN, ir.SymOperand(real, 0), "A = dest address")
	b.Buf.Emit(ir.BIN, ir.SymOperand(addr, 0), "B = value")
	b.Buf.Emit0(ir.Sti, "")

	if et := n.Array.Type(); et != nil && et.Elem != nil && et.Elem.IsAddressLike() {
		// Pointer-typed element: a second indirect store for the bank
		// word at address+1, per spec.md §4.2's two-word pointer layout.
		b.Buf.Emit(ir.LDI, ir.Imm(et.Elem.Bank), "")
		b.Buf.Emit(ir.STA, ir.SymOperand(addr, 0), "stash bank word")
		b.addImmediate(real, 1)
		b.Buf.Emit(ir.BIN, ir.SymOperand(addr, 0), "B = bank word")
		b.Buf.Emit0(ir.Sti, "")
	}

	if bank != 0 {
		b.Buf.Emit(ir.SetBank, ir.Imm(0), "")
	}
	b.ReleaseTemp(real)
	b.ReleaseTemp(addr)
}

func (b *Builder) buildField(n *ast.FieldExpr) {
	t := n.Object.Type()
	if t == nil || t.Def == nil {
		return
	}
	f, ok := t.Def.FieldByName(n.Field)
	if !ok {
		return
	}
	base := b.objectHome(n.Object)
	if base == nil {
		return
	}
	b.Buf.Emit(ir.AIN, ir.SymOperand(base, f.Offset), "")
	if f.Bits != nil {
		mask := (1 << uint(f.Bits.Size)) - 1
		tmp := b.GetTemp(types.TypeInt)
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(f.Bits.Offset), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit0(ir.SwapAB, "")
		for i := 0; i < f.Bits.Offset; i++ {
			b.Buf.Emit0(ir.Shr, "")
		}
		b.Buf.Emit(ir.STA, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit(ir.LDI, ir.Imm(mask), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(tmp, 0), "")
		b.Buf.Emit0(ir.And, "mask to field width")
		b.ReleaseTemp(tmp)
	}
	n.SetOverwritesB(true)
}

// objectHome returns the pointer symbol the object expression's
// storage lives at, when it resolves to a plain variable. Nested
// field/index objects are addressed through a computed temp instead.
func (b *Builder) objectHome(obj ast.Expr) symbols.Addressable {
	switch o := obj.(type) {
	case *ast.IdentExpr:
		v, ok := b.Block.Lookup(o.Name)
		if !ok {
			return nil
		}
		return v.Home
	case *ast.IndexExpr:
		return b.computeIndexAddress(o)
	default:
		b.Errorf(obj.Range(), diag.KindCodegenInvariant, "internal: unsupported field object %T", obj)
		return nil
	}
}

func (b *Builder) storeField(n *ast.FieldExpr) {
	t := n.Object.Type()
	if t == nil || t.Def == nil {
		return
	}
	f, ok := t.Def.FieldByName(n.Field)
	if !ok {
		return
	}
	val := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(val, 0), "stash value")
	base := b.objectHome(n.Object)
	if base == nil {
		b.ReleaseTemp(val)
		return
	}
	if f.Bits == nil {
		b.Buf.Emit(ir.AIN, ir.SymOperand(val, 0), "")
		b.Buf.Emit(ir.BIN, ir.SymOperand(val, 0), "")
		b.Buf.Emit(ir.STA, ir.SymOperand(base, f.Offset), "")
		b.storeBankWord(f.Type, base, f.Offset)
		b.ReleaseTemp(val)
		return
	}
	// Bit-field: masked read-modify-write of the host word.
	mask := (1 << uint(f.Bits.Size)) - 1
	b.Buf.Emit(ir.AIN, ir.SymOperand(base, f.Offset), "A = host word")
	hostTmp := b.GetTemp(types.TypeInt)
	b.Buf.Emit(ir.STA, ir.SymOperand(hostTmp, 0), "")
	b.Buf.Emit(ir.LDI, ir.Imm(^(mask << uint(f.Bits.Offset))), "A = ~(mask<<offset)")
	b.Buf.Emit(ir.BIN, ir.SymOperand(hostTmp, 0), "")
	b.Buf.Emit0(ir.SwapAB, "")
	b.Buf.Emit0(ir.And, "clear the field's bits")
	b.Buf.Emit(ir.STA, ir.SymOperand(hostTmp, 0), "cleared host word")
	b.Buf.Emit(ir.AIN, ir.SymOperand(val, 0), "A = new field value")
	b.Buf.Emit(ir.LDI, ir.Imm(mask), "")
	b.Buf.Emit(ir.BIN, ir.SymOperand(val, 0), "")
	b.Buf.Emit0(ir.And, "mask new value to field width")
	for i := 0; i < f.Bits.Offset; i++ {
		b.Buf.Emit0(ir.Shl, "")
	}
	b.Buf.Emit(ir.BIN, ir.SymOperand(hostTmp, 0), "")
	b.Buf.Emit0(ir.Or, "merge into cleared host word")
	b.Buf.Emit(ir.STA, ir.SymOperand(base, f.Offset), "")
	b.ReleaseTemp(hostTmp)
	b.ReleaseTemp(val)
}

// buildCall emits a software call: load each argument into its stack
// slot, set up B (return address) and C (callee address), jump to
// __call, and reload the result once control resumes.
func (b *Builder) buildCall(n *ast.CallExpr) {
	fn, ok := b.LookupFunction(n.Callee)
	if !ok {
		return
	}
	b.EnsureTrampoline(b.Buf)

	for i, arg := range n.Args {
		b.BuildExpr(arg)
		if i < len(fn.Params) {
			b.Buf.Emit(ir.STA, ir.SymOperand(fn.ParamHomes[i], 0), "bind argument")
			b.storeBankWord(fn.Params[i], fn.ParamHomes[i], 0)
		}
	}

	retLbl := b.Buf.CreateLabel(n.Callee + "$ret")
	b.Buf.Emit(ir.LDI, ir.SymOperand(fn.Entry, 0), "C = callee")
	b.Buf.Emit0(ir.SwapAC, "")
	b.Buf.Emit(ir.LDI, ir.SymOperand(retLbl, 0), "B = return address")
	b.Buf.Emit0(ir.SwapAB, "")
	b.Buf.Emit(ir.Jmp, ir.SymOperand(b.sh.CallLabel, 0), "")
	b.Buf.MarkLabel(retLbl)
	b.Buf.Emit(ir.AIN, ir.SymOperand(b.sh.RetValue, 0), "A = result")
	n.SetOverwritesB(true)
}

// buildAsmLines resolves @name operands to their variable's home
// address and emits a raw instruction stream verbatim otherwise
// (spec.md §4.4 inline assembly). Mnemonics are matched against the
// same opcode table the rest of the builder uses.
func (b *Builder) buildAsmLines(lines []ast.AsmLine) {
	for _, line := range lines {
		op, ok := lookupMnemonic(line.Mnemonic)
		if !ok {
			b.Errorf(line.Rng, diag.KindCodegenInvariant, "unknown asm mnemonic %q", line.Mnemonic)
			continue
		}
		if !op.HasOperand() {
			b.Buf.Emit0(op, "")
			continue
		}
		if len(line.Operands) == 0 {
			b.Buf.Emit0(op, "")
			continue
		}
		operand := line.Operands[0]
		if operand.IsVar {
			v, ok := b.Block.Lookup(operand.Var)
			if !ok {
				b.Errorf(line.Rng, diag.KindResolve, "undefined identifier %q in asm operand", operand.Var)
				continue
			}
			b.Buf.Emit(op, ir.SymOperand(v.Home, 0), "")
			continue
		}
		imm, ok := parseAsmImmediate(operand.Lit)
		if !ok {
			b.Errorf(line.Rng, diag.KindCodegenInvariant, "invalid asm operand %q", operand.Lit)
			continue
		}
		b.Buf.Emit(op, ir.Imm(imm), "")
	}
}
