package builder

import "github.com/astro8/yabal/internal/ir"

// EnsureTrampoline reserves the shared __call/__return labels and the
// stack-pointer/return-value cells the first time any call site is
// built, and emits both trampoline bodies into buf exactly once, behind
// a jump that skips over them so the code around the emission point
// never runs into them (spec.md §4.4, §4.7 step 2: "the __call and
// __return trampolines ... only if any call was ever emitted"). Later
// calls are no-ops.
//
// The trampoline design: since this machine has no frame-relative
// addressing, every stack-resident variable has one fixed home address
// (in the Stack PointerCollection) rather than an offset from a frame
// pointer. __call saves the caller's current values of every such slot
// into memory above the stack pointer before jumping to the callee, so
// the callee can freely clobber those same fixed addresses; __return
// reverses the save before transferring control back, so a caller's
// locals survive a call without frame-relative addressing anywhere else
// in generated code. A call site binds arguments into the callee's
// parameter homes before jumping to __call, so in a function that calls
// itself the parameters hold the inner call's arguments after that call
// returns, not the outer call's values.
//
// Calling convention at the jump to __call: B holds the return address,
// C holds the callee's entry address. At the point control reaches
// __return (falls through from a function body, or a bare `return`),
// A holds the function's result.
//
// frameWords reads sh.Stack.Items at the moment of the first call, so
// every stack-resident variable across the whole program must already
// have a Home by then: the initialize pass (InitializeProgram) walks
// every function body up front, before any build pass runs, for
// exactly this reason.
func (root *Builder) EnsureTrampoline(buf *ir.Buffer) {
	if root.sh.callEmitted {
		return
	}
	root.sh.callEmitted = true

	root.sh.CallLabel = buf.CreateLabel("__call")
	root.sh.ReturnLabel = buf.CreateLabel("__return")
	root.sh.StackPtr = buf.CreatePointer("__sp", 0, 1)
	root.sh.RetValue = buf.CreatePointer("__retval", 0, 1)

	frame := frameWords(root.sh)

	skipLbl := buf.CreateLabel("__call$skip")
	buf.Emit(ir.Jmp, ir.SymOperand(skipLbl, 0), "skip over the trampoline bodies")

	buf.MarkLabel(root.sh.CallLabel)
	// mem[SP] = B (the return address), using the indirect store
	// through A the machine provides (spec.md §3: "store-indirect").
	buf.Emit(ir.AIN, ir.SymOperand(root.sh.StackPtr, 0), "SP -> A")
	buf.Emit0(ir.Sti, "mem[SP] = return address")

	// Spill every stack-resident word to SP+k, k = 1..len(frame).
	for _, w := range frame {
		spillOne(buf, root.sh, w)
	}

	// SP += len(frame)+1; the +1 accounts for the return-address slot.
	buf.Emit(ir.LDI, ir.Imm(len(frame)+1), "frame size")
	buf.Emit0(ir.SwapAB, "B = frame size")
	buf.Emit(ir.AIN, ir.SymOperand(root.sh.StackPtr, 0), "A = SP")
	buf.Emit0(ir.Add, "A = SP + frame size")
	buf.Emit(ir.STA, ir.SymOperand(root.sh.StackPtr, 0), "SP += frame size")

	// Jump to the callee: swap A<->C puts the callee address (held in
	// C since the call site) into A, then JAI transfers control there.
	buf.Emit0(ir.SwapAC, "A = callee address")
	buf.Emit0(ir.Jai, "jump to callee")

	buf.MarkLabel(root.sh.ReturnLabel)
	buf.Emit(ir.STA, ir.SymOperand(root.sh.RetValue, 0), "save return value")

	// SP -= len(frame)+1, restoring the caller's frame base.
	buf.Emit(ir.LDI, ir.Imm(len(frame)+1), "frame size")
	buf.Emit0(ir.SwapAB, "B = frame size")
	buf.Emit(ir.AIN, ir.SymOperand(root.sh.StackPtr, 0), "A = SP")
	buf.Emit0(ir.Sub, "A = SP - frame size")
	buf.Emit(ir.STA, ir.SymOperand(root.sh.StackPtr, 0), "SP -= frame size")

	// Restore every stack-resident word from SP+k.
	for _, w := range frame {
		restoreOne(buf, root.sh, w)
	}

	// Jump back to the caller: the return address sits at mem[SP]
	// (offset 0), saved there by __call before it advanced SP.
	buf.Emit(ir.AIN, ir.SymOperand(root.sh.StackPtr, 0), "A = SP")
	buf.Emit0(ir.Lod, "A = mem[SP] (return address)")
	buf.Emit0(ir.Jai, "jump back to caller")

	// A is clobbered by the jump-address computation above, so the
	// caller cannot find the result there at the instant control
	// returns. Instead every call-site sequence (emitted by
	// buildCall) reloads it from RetValue as its first instruction
	// after resuming, the same cell __return just stored it into.

	buf.MarkLabel(skipLbl)
}

// frameWord is one word of one stack-resident pointer, addressed by
// its base pointer plus a word offset, paired with its 1-based spill
// slot (slot 0 is reserved for the return address).
type frameWord struct {
	Pointer *ir.Operand
	K       int
}

func frameWords(sh *shared) []frameWord {
	var out []frameWord
	k := 1
	for _, p := range sh.Stack.Items {
		for j := 0; j < p.Size; j++ {
			op := ir.SymOperand(p, j)
			out = append(out, frameWord{Pointer: &op, K: k})
			k++
		}
	}
	return out
}

// spillOne emits: mem[SP+k] = mem[w.Pointer] (saving the caller's
// current value of one stack-resident word before the callee runs).
func spillOne(buf *ir.Buffer, sh *shared, w frameWord) {
	buf.Emit(ir.LDI, ir.Imm(w.K), "k")
	buf.Emit0(ir.SwapAB, "B = k")
	buf.Emit(ir.AIN, ir.SymOperand(sh.StackPtr, 0), "A = SP")
	buf.Emit0(ir.Add, "A = SP + k")
	buf.Emit(ir.BIN, *w.Pointer, "B = current value")
	buf.Emit0(ir.Sti, "mem[SP+k] = value")
}

// restoreOne emits the inverse: mem[w.Pointer] = mem[SP+k], using the
// already-decremented SP so SP+k addresses the same cell spillOne wrote.
func restoreOne(buf *ir.Buffer, sh *shared, w frameWord) {
	buf.Emit(ir.LDI, ir.Imm(w.K), "k")
	buf.Emit0(ir.SwapAB, "B = k")
	buf.Emit(ir.AIN, ir.SymOperand(sh.StackPtr, 0), "A = SP")
	buf.Emit0(ir.Add, "A = SP + k")
	buf.Emit0(ir.Lod, "A = saved value")
	buf.Emit(ir.STA, *w.Pointer, "restore")
}
