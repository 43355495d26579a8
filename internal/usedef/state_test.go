package usedef

import (
	"testing"

	"github.com/zenhumany/egalito/internal/tree"
)

func TestStateRegDefOverwrites(t *testing.T) {
	st := newTestState()
	st.AddRegDef(0, tree.Const(1))
	st.AddRegDef(0, tree.Const(2))

	got := st.RegDef(0)
	if !tree.Equal(got, tree.Const(2)) {
		t.Errorf("RegDef(0) = %v, want the latest def", got)
	}
}

func TestStateRegDefsIsACopy(t *testing.T) {
	st := newTestState()
	st.AddRegDef(0, tree.Const(1))

	defs := st.RegDefs()
	defs[1] = tree.Const(99)

	if st.RegDef(1) != nil {
		t.Error("mutating the map returned by RegDefs should not affect the state")
	}
}

func TestStateAddRegRefDedupsByIdentity(t *testing.T) {
	st := newTestState()
	origin := newTestState()

	st.AddRegRef(0, origin)
	st.AddRegRef(0, origin)

	if len(st.RegRefs(0)) != 1 {
		t.Errorf("AddRegRef should dedup the same origin pointer, got %v", st.RegRefs(0))
	}
}

func TestStateAddMemRefDedupsByRegAndOrigin(t *testing.T) {
	st := newTestState()
	origin := newTestState()

	st.AddMemRef(1, origin)
	st.AddMemRef(1, origin)
	st.AddMemRef(2, origin)

	refs := st.MemRefs()
	if len(refs) != 2 {
		t.Errorf("AddMemRef should dedup only on identical (reg, origin), got %v", refs)
	}
}

func TestStateMemDefsAppendsWithoutDedup(t *testing.T) {
	st := newTestState()
	place := tree.PhysReg(0, 8)
	st.AddMemDef(place, 1)
	st.AddMemDef(place, 1)

	if len(st.MemDefs()) != 2 {
		t.Error("AddMemDef should not dedup; dedup happens at the exposed-set level")
	}
}
