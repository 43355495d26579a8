package serialize

import (
	"testing"

	"github.com/zenhumany/egalito/internal/chunk"
)

func TestIDAssignerAssignsStableIDs(t *testing.T) {
	fn := chunk.NewFunction("f", 0x1000, 0x10)
	a := NewIDAssigner()

	id1 := a.Assign(fn)
	id2 := a.Assign(fn)
	if id1 != id2 {
		t.Errorf("Assign() should return the same ID on repeat calls, got %d then %d", id1, id2)
	}
	if id1 == NoneID {
		t.Error("Assign() of a non-nil chunk should never return NoneID")
	}
}

func TestIDAssignerAssignsDistinctIDs(t *testing.T) {
	a := NewIDAssigner()
	fn1 := chunk.NewFunction("f1", 0x1000, 0x10)
	fn2 := chunk.NewFunction("f2", 0x2000, 0x10)

	id1 := a.Assign(fn1)
	id2 := a.Assign(fn2)
	if id1 == id2 {
		t.Errorf("two distinct chunks should get distinct IDs, both got %d", id1)
	}
}

func TestIDAssignerNilChunkIsNoneID(t *testing.T) {
	a := NewIDAssigner()
	if id := a.Assign(nil); id != NoneID {
		t.Errorf("Assign(nil) = %d, want NoneID", id)
	}
}

func TestIDAssignerLookupRoundTrips(t *testing.T) {
	fn := chunk.NewFunction("f", 0x1000, 0x10)
	a := NewIDAssigner()
	id := a.Assign(fn)

	got, ok := a.Lookup(id)
	if !ok {
		t.Fatal("Lookup() of an assigned ID should succeed")
	}
	if got != chunk.Chunk(fn) {
		t.Errorf("Lookup() = %v, want the original function", got)
	}
}

func TestIDAssignerLookupNoneIDFails(t *testing.T) {
	a := NewIDAssigner()
	if _, ok := a.Lookup(NoneID); ok {
		t.Error("Lookup(NoneID) should always fail")
	}
}

func TestIDAssignerLookupUnknownIDFails(t *testing.T) {
	a := NewIDAssigner()
	if _, ok := a.Lookup(ChunkID(999)); ok {
		t.Error("Lookup() of an ID never assigned or registered should fail")
	}
}

func TestIDAssignerRegisterAdvancesNext(t *testing.T) {
	fn := chunk.NewFunction("f", 0x1000, 0x10)
	a := NewIDAssigner()
	a.Register(ChunkID(50), fn)

	got, ok := a.Lookup(ChunkID(50))
	if !ok || got != chunk.Chunk(fn) {
		t.Fatalf("Lookup(50) = (%v, %v), want the registered function", got, ok)
	}

	fn2 := chunk.NewFunction("f2", 0x2000, 0x10)
	nextID := a.Assign(fn2)
	if nextID <= ChunkID(50) {
		t.Errorf("Assign() after Register(50, ...) should hand out an ID above 50, got %d", nextID)
	}
}
