package link

import (
	"testing"

	"github.com/zenhumany/egalito/internal/chunk"
)

func TestMakeNormalLinkEncodingAndScope(t *testing.T) {
	fn := chunk.NewFunction("f", 0x1000, 0x10)
	var f LinkFactory

	l := f.MakeNormalLink(fn, true, false)
	if _, ok := l.(*NormalLink); !ok {
		t.Errorf("isRelative=true should produce a *NormalLink, got %T", l)
	}
	if l.Scope() != ScopeInternalJump {
		t.Errorf("isExternal=false should produce ScopeInternalJump, got %v", l.Scope())
	}

	l2 := f.MakeNormalLink(fn, false, true)
	if _, ok := l2.(*AbsoluteNormalLink); !ok {
		t.Errorf("isRelative=false should produce a *AbsoluteNormalLink, got %T", l2)
	}
	if l2.Scope() != ScopeExternalJump {
		t.Errorf("isExternal=true should produce ScopeExternalJump, got %v", l2.Scope())
	}
}

func TestMakeDataLinkFound(t *testing.T) {
	m := chunk.NewModule("test")
	sec := chunk.NewDataSection(".rodata", 0x2000, 0x100)
	m.GetDataRegionList().Add(sec)

	var f LinkFactory
	l := f.MakeDataLink(m, 0x2010, true)
	if l == nil {
		t.Fatal("expected a non-nil DataOffsetLink")
	}
	if l.TargetAddress() != 0x2010 {
		t.Errorf("TargetAddress() = %#x, want 0x2010", l.TargetAddress())
	}
}

func TestMakeDataLinkNotFound(t *testing.T) {
	m := chunk.NewModule("test")
	var f LinkFactory
	if l := f.MakeDataLink(m, 0x5000, true); l != nil {
		t.Errorf("expected nil when no data section contains the address, got %v", l)
	}
}

func TestMakeMarkerLinkCreatesAndReuses(t *testing.T) {
	m := chunk.NewModule("test")
	var f LinkFactory

	l1 := f.MakeMarkerLink(m, 0x3000, "anon")
	if len(m.GetMarkerList().Markers) != 1 {
		t.Fatalf("expected one marker created, got %d", len(m.GetMarkerList().Markers))
	}

	l2 := f.MakeMarkerLink(m, 0x3000, "anon2")
	if len(m.GetMarkerList().Markers) != 1 {
		t.Errorf("a second call at the same address should reuse the existing marker, got %d markers", len(m.GetMarkerList().Markers))
	}
	if l1.TargetAddress() != l2.TargetAddress() {
		t.Error("both calls should resolve to the same address")
	}
}

func TestMakeMarkerLinkWithAddendCreatesAndReuses(t *testing.T) {
	m := chunk.NewModule("test")
	var f LinkFactory

	l1 := f.MakeMarkerLinkWithAddend(m, 0x3000, 4, "_end")
	if len(m.GetMarkerList().Markers) != 1 {
		t.Fatalf("expected one marker created, got %d", len(m.GetMarkerList().Markers))
	}
	if l1.TargetAddress() != 0x3004 {
		t.Errorf("TargetAddress() = %#x, want 0x3004 (marker + addend)", l1.TargetAddress())
	}

	l2 := f.MakeMarkerLinkWithAddend(m, 0x3000, 8, "_end")
	if len(m.GetMarkerList().Markers) != 1 {
		t.Errorf("a second call at the same symbol address should reuse the existing marker, got %d markers", len(m.GetMarkerList().Markers))
	}
	if l2.TargetAddress() != 0x3008 {
		t.Errorf("TargetAddress() = %#x, want 0x3008 (new addend against the reused marker)", l2.TargetAddress())
	}
}

func TestMakePLTLinkFoundAndNotFound(t *testing.T) {
	m := chunk.NewModule("test")
	tramp := chunk.NewPLTTrampoline(0x4000, "free", 0x8010)
	m.GetPLTTrampolineList().Add(tramp)
	var f LinkFactory

	l := f.MakePLTLink(m, 0x4000)
	pl, ok := l.(*PLTLink)
	if !ok {
		t.Fatalf("expected a *PLTLink, got %T", l)
	}
	if pl.Trampoline != tramp {
		t.Errorf("Trampoline = %v, want %v", pl.Trampoline, tramp)
	}

	if l := f.MakePLTLink(m, 0x9000); l != nil {
		t.Errorf("expected nil when no trampoline contains the address, got %v", l)
	}
}
