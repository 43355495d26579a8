package usedef

import (
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/tree"
)

// handlerFunc updates ws/st for one decoded instruction. Handlers are kept
// to a mechanical translation of one opcode-family row of the catalog;
// anything needing more than that is a sign the row's model is wrong, not
// that the handler should grow. A non-nil error is always
// tree.ErrUnsupportedForm wrapped with detail (§10.3): the instruction
// form is one the analysis fundamentally cannot model, not a recoverable
// miss.
type handlerFunc func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error

// toShiftKind adapts a decoded operand's shift/extend suffix to the
// factory's ShiftKind. Extend suffixes (UXTW, SXTB, ...) arrive from
// arm64asm as the same RegExtshiftAmount arg as a plain LSL and are not
// distinguished at the disasm layer, so they widen to ShiftLSL here too;
// only the shift amount, not the extend semantics, feeds the tree.
func toShiftKind(s disasm.ShiftType) tree.ShiftKind {
	switch s {
	case disasm.ShiftLSL:
		return tree.ShiftLSL
	case disasm.ShiftLSR:
		return tree.ShiftLSR
	case disasm.ShiftASR:
		return tree.ShiftASR
	case disasm.ShiftROR:
		return tree.ShiftROR
	case disasm.ShiftMSL:
		return tree.ShiftMSL
	default:
		return tree.ShiftInvalid
	}
}

// havoc implements the self-referential "def r := PhysReg(r, w)" pattern
// used for CSEL, MRS, index-register addressing and other cases where no
// precise model is available (§4.4's rationale for the havocs).
func havoc(e *Engine, ws *WorkSet, st *State, reg, width int) {
	DefReg(ws, st, reg, e.Factory.PhysReg(reg, width))
}

// memOperand builds the Add(PhysReg(base), Const(disp)) tree for a decoded
// Mem operand, the shape MemLocationOf recognizes. Post-index forms access
// memory at the unmodified base (§4.4); disp there only feeds writeback.
func memOperand(e *Engine, m disasm.Mem) *tree.Tree {
	base := e.Factory.PhysReg(m.Base, 8)
	if m.Disp == 0 || m.PostIndex {
		return base
	}
	return e.Factory.Add(base, e.Factory.Const(m.Disp))
}

// writeback implements the pre-/post-index base-register update shared by
// the LDR/LDP/STR/STP families (§4.4 "Pre-index / post-index write-back").
func writeback(e *Engine, ws *WorkSet, st *State, m disasm.Mem) {
	switch {
	case m.PreIndex:
		addr := memOperand(e, m)
		DefReg(ws, st, m.Base, addr)
	case m.PostIndex:
		base := e.Factory.PhysReg(m.Base, 8)
		addr := e.Factory.Add(base, e.Factory.Const(m.Disp))
		DefReg(ws, st, m.Base, addr)
	}
}

func handleMovRegReg(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) != 2 {
		return nil
	}
	dst, src := ops[0], ops[1]
	UseReg(ws, st, src.Reg)
	DefReg(ws, st, dst.Reg, e.Factory.PhysReg(src.Reg, src.Width))
	return nil
}

// handleMovRegImm covers MOV/MOVZ/MOVN/MOVK reg, imm and ADR/ADRP, which
// all define their destination from a constant rather than a register.
func handleMovRegImm(asAddr bool) handlerFunc {
	return func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
		ops := asm.GetAsmOperands()
		if len(ops) < 2 {
			return nil
		}
		dst, imm := ops[0], ops[1]
		var t *tree.Tree
		if asAddr {
			t = e.Factory.Addr(imm.Imm)
		} else {
			t = e.Factory.Const(imm.Imm)
		}
		DefReg(ws, st, dst.Reg, t)
		return nil
	}
}

// handleArith covers ADD/SUB/AND reg,reg,reg and reg,reg,imm: the third
// operand is shift-extended before combining with the second.
func handleArith(op func(f *tree.Factory, l, r *tree.Tree) *tree.Tree) handlerFunc {
	return func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
		ops := asm.GetAsmOperands()
		if len(ops) != 3 {
			return nil
		}
		dst, lhs, rhs := ops[0], ops[1], ops[2]
		UseReg(ws, st, lhs.Reg)

		var rhsTree *tree.Tree
		if rhs.Width > 0 {
			UseReg(ws, st, rhs.Reg)
			rhsTree = e.Factory.PhysReg(rhs.Reg, rhs.Width)
		} else {
			rhsTree = e.Factory.Const(rhs.Imm)
		}
		rhsTree, err := e.Factory.ShiftExtend(rhsTree, toShiftKind(rhs.Shift.Type), rhs.Shift.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", asm.GetMnemonic(), err)
		}

		lhsTree := e.Factory.PhysReg(lhs.Reg, lhs.Width)
		DefReg(ws, st, dst.Reg, op(e.Factory, lhsTree, rhsTree))
		return nil
	}
}

// handleShift covers LSL/LSR/ASR/ROR reg, reg, (imm|reg).
func handleShift(kind tree.ShiftKind) handlerFunc {
	return func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
		ops := asm.GetAsmOperands()
		if len(ops) != 3 {
			return nil
		}
		dst, lhs, rhs := ops[0], ops[1], ops[2]
		UseReg(ws, st, lhs.Reg)
		lhsTree := e.Factory.PhysReg(lhs.Reg, lhs.Width)

		var amount int64
		if rhs.Width > 0 {
			UseReg(ws, st, rhs.Reg)
			amount = rhs.Imm // register-controlled shift amount is not tracked symbolically
		} else {
			amount = rhs.Imm
		}
		t, err := e.Factory.ShiftExtend(lhsTree, kind, amount)
		if err != nil {
			return fmt.Errorf("%s: %w", asm.GetMnemonic(), err)
		}
		DefReg(ws, st, dst.Reg, t)
		return nil
	}
}

// loadHandler resolves a load's access width in bytes: a fixed width for
// opcodes that name one, or the bit-30 test of the raw encoding for the
// plain-width LDR/LDUR/LDAXR forms. Sign vs zero extension doesn't change
// the tracked dataflow shape, so it isn't modeled separately.
func loadHandler(fixedWidth int, _ bool) handlerFunc {
	return func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
		ops := asm.GetAsmOperands()
		if len(ops) != 2 {
			return nil
		}
		dst, memOp := ops[0], ops[1]
		if memOp.Mem.HasIndex {
			// Index-register addressing is not modeled; havoc the destination.
			havoc(e, ws, st, dst.Reg, dst.Width)
			return nil
		}
		width := fixedWidth
		if width == 0 {
			width = disasm.Width30(asm.GetBytes())
		}
		UseReg(ws, st, memOp.Mem.Base)
		mem := memOperand(e, memOp.Mem)
		UseMem(ws, st, mem, dst.Reg)
		t := e.Factory.Deref(mem, width)
		DefReg(ws, st, dst.Reg, t)
		writeback(e, ws, st, memOp.Mem)
		return nil
	}
}

func handleLDP(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) != 3 {
		return nil
	}
	dst0, dst1, memOp := ops[0], ops[1], ops[2]
	width := disasm.Width31(asm.GetBytes())
	UseReg(ws, st, memOp.Mem.Base)

	base := memOperand(e, memOp.Mem)
	UseMem(ws, st, base, dst0.Reg)
	DefReg(ws, st, dst0.Reg, e.Factory.Deref(base, width))

	second := e.Factory.Add(base, e.Factory.Const(int64(width)))
	UseMem(ws, st, second, dst1.Reg)
	DefReg(ws, st, dst1.Reg, e.Factory.Deref(second, width))

	writeback(e, ws, st, memOp.Mem)
	return nil
}

func storeHandler() handlerFunc {
	return func(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
		ops := asm.GetAsmOperands()
		if len(ops) != 2 {
			return nil
		}
		src, memOp := ops[0], ops[1]
		UseReg(ws, st, src.Reg)
		UseReg(ws, st, memOp.Mem.Base)
		mem := memOperand(e, memOp.Mem)
		DefMem(ws, st, mem, src.Reg)
		writeback(e, ws, st, memOp.Mem)
		return nil
	}
}

func handleSTP(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) != 3 {
		return nil
	}
	src0, src1, memOp := ops[0], ops[1], ops[2]
	width := disasm.Width31(asm.GetBytes())
	UseReg(ws, st, src0.Reg)
	UseReg(ws, st, src1.Reg)
	UseReg(ws, st, memOp.Mem.Base)

	base := memOperand(e, memOp.Mem)
	DefMem(ws, st, base, src0.Reg)
	second := e.Factory.Add(base, e.Factory.Const(int64(width)))
	DefMem(ws, st, second, src1.Reg)

	writeback(e, ws, st, memOp.Mem)
	return nil
}

func handleCMP(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) != 2 {
		return nil
	}
	lhs, rhs := ops[0], ops[1]
	UseReg(ws, st, lhs.Reg)
	var rhsTree *tree.Tree
	if rhs.Width > 0 {
		UseReg(ws, st, rhs.Reg)
		rhsTree = e.Factory.PhysReg(rhs.Reg, rhs.Width)
	} else {
		rhsTree = e.Factory.Const(rhs.Imm)
	}
	lhsTree := e.Factory.PhysReg(lhs.Reg, lhs.Width)
	DefReg(ws, st, disasm.RegNZCV, e.Factory.Compare(lhsTree, rhsTree))
	return nil
}

func handleCSEL(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) == 0 {
		return nil
	}
	dst := ops[0]
	for _, op := range ops[1:] {
		if op.Width > 0 {
			UseReg(ws, st, op.Reg)
		}
	}
	havoc(e, ws, st, dst.Reg, dst.Width)
	return nil
}

func handleNoop(*Engine, *WorkSet, *State, *disasm.Assembly) error { return nil }

// branchArgRegs is the fixed x0..x7 argument/scratch window clobbered by a
// call (§4.4's BL effect).
var branchArgRegs = [8]int{0, 1, 2, 3, 4, 5, 6, 7}

func clobberCallRegs(e *Engine, ws *WorkSet, st *State) {
	for _, r := range branchArgRegs {
		UseReg(ws, st, r)
	}
	for _, r := range branchArgRegs {
		DefReg(ws, st, r, nil)
	}
}

func handleBL(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	clobberCallRegs(e, ws, st)
	return nil
}

func handleBLR(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) == 1 {
		UseReg(ws, st, ops[0].Reg)
	}
	clobberCallRegs(e, ws, st)
	return nil
}

func handleBR(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) == 1 {
		UseReg(ws, st, ops[0].Reg)
	}
	return nil
}

func handleRET(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	for _, r := range branchArgRegs {
		UseReg(ws, st, r)
	}
	return nil
}

func handleMRS(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	ops := asm.GetAsmOperands()
	if len(ops) == 0 {
		return nil
	}
	dst := ops[0]
	havoc(e, ws, st, dst.Reg, dst.Width)
	return nil
}

func handleSXTW(e *Engine, ws *WorkSet, st *State, asm *disasm.Assembly) error {
	return handleMovRegReg(e, ws, st, asm)
}

// handleAT is reached only if a decoded AT survives disasm's normalization
// to SYS (§4.1); that is itself the unsupported form, not a programmer
// error, so it degrades to ErrUnsupportedForm like any other fatal case
// rather than panicking.
func handleAT(*Engine, *WorkSet, *State, *disasm.Assembly) error {
	return fmt.Errorf("%w: AT was not normalized to SYS before reaching the handler table", tree.ErrUnsupportedForm)
}

// handlers is the static opcode id -> handler dispatch table of §4.4. It
// is keyed by disasm.Assembly.GetID(), i.e. int(arm64asm.Op).
var handlers = map[int]handlerFunc{
	int(arm64asm.MOV):  handleMovRegReg,
	int(arm64asm.MOVZ): handleMovRegImm(false),
	int(arm64asm.MOVN): handleMovRegImm(false),
	int(arm64asm.MOVK): handleMovRegImm(false),
	int(arm64asm.ADR):  handleMovRegImm(true),
	int(arm64asm.ADRP): handleMovRegImm(true),

	int(arm64asm.ADD): handleArith((*tree.Factory).Add),
	int(arm64asm.SUB): handleArith((*tree.Factory).Sub),
	int(arm64asm.AND): handleArith((*tree.Factory).And),
	int(arm64asm.ORR): handleArith((*tree.Factory).Add),

	int(arm64asm.LSL): handleShift(tree.ShiftLSL),
	int(arm64asm.LSR): handleShift(tree.ShiftLSR),
	int(arm64asm.ASR): handleShift(tree.ShiftASR),
	int(arm64asm.ROR): handleShift(tree.ShiftROR),

	int(arm64asm.LDR):   loadHandler(0, false),
	int(arm64asm.LDUR):  loadHandler(0, false),
	int(arm64asm.LDAXR): loadHandler(0, false),
	int(arm64asm.LDRH):  loadHandler(2, false),
	int(arm64asm.LDRB):  loadHandler(1, false),
	int(arm64asm.LDRSW): loadHandler(4, true),
	int(arm64asm.LDRSH): loadHandler(2, true),
	int(arm64asm.LDRSB): loadHandler(1, true),
	int(arm64asm.LDP):   handleLDP,

	int(arm64asm.STR):  storeHandler(),
	int(arm64asm.STRH): storeHandler(),
	int(arm64asm.STRB): storeHandler(),
	int(arm64asm.STP):  handleSTP,

	int(arm64asm.CMP):  handleCMP,
	int(arm64asm.CSEL): handleCSEL,

	int(arm64asm.B):    handleNoop,
	int(arm64asm.CBZ):  handleNoop,
	int(arm64asm.CBNZ): handleNoop,
	int(arm64asm.NOP):  handleNoop,

	int(arm64asm.BL):  handleBL,
	int(arm64asm.BLR): handleBLR,
	int(arm64asm.BR):  handleBR,
	int(arm64asm.RET): handleRET,

	int(arm64asm.MRS):  handleMRS,
	int(arm64asm.SXTW): handleSXTW,
	int(arm64asm.AT):   handleAT,
}
