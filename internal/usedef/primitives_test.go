package usedef

import (
	"testing"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/tree"
)

func newTestState() *State {
	return NewState(chunk.NewInstruction(0, 4, &chunk.RawInstruction{}))
}

func TestDefRegStrongKillsExposedSet(t *testing.T) {
	ws := NewWorkSet()
	st1 := newTestState()
	st2 := newTestState()
	f := tree.NewFactory()

	DefReg(ws, st1, 0, f.Const(1))
	if len(ws.RegExposed[0]) != 1 || ws.RegExposed[0][0] != st1 {
		t.Fatalf("after first def, reg 0 exposed = %v, want [st1]", ws.RegExposed[0])
	}

	DefReg(ws, st2, 0, f.Const(2))
	if len(ws.RegExposed[0]) != 1 || ws.RegExposed[0][0] != st2 {
		t.Fatalf("second def should strong-kill, got %v", ws.RegExposed[0])
	}
	if st1.RegDef(0) == nil {
		t.Error("DefReg must not erase the earlier state's own recorded def")
	}
}

func TestDefRegIgnoresNegativeReg(t *testing.T) {
	ws := NewWorkSet()
	st := newTestState()
	DefReg(ws, st, -1, tree.Const(1))
	if st.RegDef(-1) != nil {
		t.Error("DefReg with a negative register id should be a no-op")
	}
}

func TestUseRegRecordsOrigins(t *testing.T) {
	ws := NewWorkSet()
	origin := newTestState()
	ws.addRegExposed(0, origin)

	user := newTestState()
	UseReg(ws, user, 0)

	refs := user.RegRefs(0)
	if len(refs) != 1 || refs[0] != origin {
		t.Fatalf("RegRefs(0) = %v, want [origin]", refs)
	}
}

func TestUseRegIgnoresNegativeReg(t *testing.T) {
	ws := NewWorkSet()
	ws.addRegExposed(0, newTestState())
	user := newTestState()
	UseReg(ws, user, -1)
	if len(user.RegRefs(-1)) != 0 {
		t.Error("UseReg with a negative register id should record nothing")
	}
}

func TestDefMemAndUseMem(t *testing.T) {
	ws := NewWorkSet()
	f := tree.NewFactory()
	place := f.PhysReg(0, 8)

	writer := newTestState()
	DefMem(ws, writer, place, 1)

	reader := newTestState()
	UseMem(ws, reader, place, 2)

	refs := reader.MemRefs()
	if len(refs) != 1 || refs[0].Origin != writer || refs[0].Reg != 2 {
		t.Fatalf("MemRefs() = %v, want one ref to writer with reg 2", refs)
	}
}

func TestUseMemMatchesByLocationNotPointer(t *testing.T) {
	ws := NewWorkSet()
	f := tree.NewFactory()

	writer := newTestState()
	DefMem(ws, writer, tree.Add(f.PhysReg(0, 8), tree.Const(8)), 1)

	reader := newTestState()
	// A structurally identical but distinct tree should still match.
	UseMem(ws, reader, tree.Add(f.PhysReg(0, 8), tree.Const(8)), 2)

	if len(reader.MemRefs()) != 1 {
		t.Fatal("UseMem should match by canonical memory location, not tree pointer identity")
	}
}
