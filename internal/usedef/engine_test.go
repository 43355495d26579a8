package usedef

import (
	"testing"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/disasm"
	"github.com/zenhumany/egalito/internal/tree"
)

// decodeOrFatal decodes a 4-byte little-endian AArch64 encoding, failing the
// test immediately if the bytes don't form a valid instruction — a bad
// hand-written encoding should show up as a test failure, not a silent gap.
func decodeOrFatal(t *testing.T, raw []byte) *disasm.Assembly {
	t.Helper()
	asm, err := disasm.Decode(raw)
	if err != nil {
		t.Fatalf("decode %x: %v", raw, err)
	}
	return asm
}

func buildBlock(t *testing.T, encodings ...[]byte) *chunk.Block {
	t.Helper()
	blk := chunk.NewBlock()
	for i, raw := range encodings {
		asm := decodeOrFatal(t, raw)
		blk.AddInstruction(chunk.NewInstruction(int64(i*4), 4, &chunk.IsolatedInstruction{Assembly: asm}))
	}
	return blk
}

// movX0X1 is "mov x0, x1" (0xaa0103e0), ret is the default "ret" (0xd65f03c0).
var movX0X1 = []byte{0xe0, 0x03, 0x01, 0xaa}
var retInsn = []byte{0xc0, 0x03, 0x5f, 0xd6}

func TestEngineAnalyzeSingleBlockDefUseChain(t *testing.T) {
	blk := buildBlock(t, movX0X1, retInsn)
	fn := chunk.NewFunction("f", 0, 8)
	fn.AddBlock(blk)

	cfg := chunk.NewControlFlowGraph(fn)
	factory := tree.NewFactory()
	engine := NewEngine(factory, nil)
	if err := engine.Analyze(cfg, cfg.SCCOrder()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	movInstr := blk.GetBlock()[0]
	retInstr := blk.GetBlock()[1]

	movState := engine.StateFor(movInstr)
	if movState == nil {
		t.Fatal("expected a recorded State for the mov instruction")
	}
	def := movState.RegDef(0)
	if !tree.Equal(def, tree.PhysReg(1, 8)) {
		t.Errorf("mov x0, x1 should define reg 0 as PhysReg(1, 8), got %v", def)
	}

	retState := engine.StateFor(retInstr)
	if retState == nil {
		t.Fatal("expected a recorded State for the ret instruction")
	}
	refs := retState.RegRefs(0)
	if len(refs) != 1 || refs[0] != movState {
		t.Errorf("ret should use reg 0 from the mov's def, got refs=%v", refs)
	}
	for reg := 1; reg <= 7; reg++ {
		if len(retState.RegRefs(reg)) != 0 {
			t.Errorf("ret should find no exposed def for reg %d, got %v", reg, retState.RegRefs(reg))
		}
	}
}

func TestEngineDisabledOpcodeProducesNoUpdates(t *testing.T) {
	blk := buildBlock(t, movX0X1)
	fn := chunk.NewFunction("f", 0, 4)
	fn.AddBlock(blk)

	cfg := chunk.NewControlFlowGraph(fn)
	factory := tree.NewFactory()

	movAsm := decodeOrFatal(t, movX0X1)
	disabledCfg := NewConfiguration()
	disabledCfg.Disable(movAsm.GetID())

	engine := NewEngine(factory, disabledCfg)
	if err := engine.Analyze(cfg, cfg.SCCOrder()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	movInstr := blk.GetBlock()[0]
	st := engine.StateFor(movInstr)
	if st == nil {
		t.Fatal("a disabled opcode should still get a State allocated (it is observed, just not updated)")
	}
	if st.RegDef(0) != nil {
		t.Error("a disabled opcode's handler should not run, so no def should be recorded")
	}
}

func TestEngineExposedSetsAcrossBlocks(t *testing.T) {
	blkA := buildBlock(t, movX0X1)
	blkB := buildBlock(t, retInsn)
	blkA.Succs = append(blkA.Succs, blkB)
	blkB.Preds = append(blkB.Preds, blkA)

	fn := chunk.NewFunction("f", 0, 8)
	fn.AddBlock(blkA)
	fn.AddBlock(blkB)

	cfg := chunk.NewControlFlowGraph(fn)
	factory := tree.NewFactory()
	engine := NewEngine(factory, nil)
	if err := engine.Analyze(cfg, cfg.SCCOrder()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	retState := engine.StateFor(blkB.GetBlock()[0])
	refs := retState.RegRefs(0)
	if len(refs) != 1 {
		t.Fatalf("ret in block B should see block A's def of reg 0 via the exposed set, got %v", refs)
	}

	exposed := engine.RegExposed(chunk.NodeID(1))
	if len(exposed) == 0 {
		t.Error("RegExposed for block B's node should be non-empty after Analyze")
	}
}
