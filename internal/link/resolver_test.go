package link

import (
	"testing"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/elfx"
)

func TestResolveInternallyByAddend(t *testing.T) {
	m := chunk.NewModule("test")
	fn := chunk.NewFunction("target", 0x1000, 0x10)
	m.AddFunction(fn)

	r := NewResolver()
	l := r.ResolveInternally(elfx.Relocation{Addend: 0x1000}, m, true)
	if l == nil {
		t.Fatal("expected a resolved link for an addend landing exactly on a function")
	}
	if l.TargetAddress() != 0x1000 {
		t.Errorf("TargetAddress() = %#x, want 0x1000", l.TargetAddress())
	}
	if l.Scope() != ScopeInternalJump {
		t.Errorf("Scope() = %v, want ScopeInternalJump for an internal function target", l.Scope())
	}
}

func TestResolveInternallyDeferredWeakSymbol(t *testing.T) {
	m := chunk.NewModule("test")
	r := NewResolver()

	l := r.ResolveInternally(elfx.Relocation{Symbol: "foo", Weak: true}, m, false)
	if l != nil {
		t.Errorf("a weak symbol with weak=false should be deferred (nil), got %v", l)
	}
}

func TestResolveInternallySymbolNotFoundReturnsNil(t *testing.T) {
	m := chunk.NewModule("test")
	r := NewResolver()

	// m has no Elf set, so lookupSymbol always fails for a named symbol.
	l := r.ResolveInternally(elfx.Relocation{Symbol: "memcpy"}, m, true)
	if l != nil {
		t.Errorf("a symbol that can't be found in this module should return nil (external), got %v", l)
	}
}

func TestResolveInternallyFallsBackToDataThenMarker(t *testing.T) {
	m := chunk.NewModule("test")
	sec := chunk.NewDataSection(".rodata", 0x4000, 0x100)
	m.GetDataRegionList().Add(sec)
	r := NewResolver()

	l := r.ResolveInternally(elfx.Relocation{Addend: 0x4010}, m, true)
	if l == nil {
		t.Fatal("expected a data link")
	}
	if l.TargetAddress() != 0x4010 {
		t.Errorf("TargetAddress() = %#x, want 0x4010", l.TargetAddress())
	}

	l2 := r.ResolveInternally(elfx.Relocation{Addend: 0x9000}, m, true)
	if l2 == nil {
		t.Fatal("expected a marker link fallback for an address with no function/instr/data match")
	}
	if _, ok := l2.(*MarkerLink); !ok {
		t.Errorf("expected a *MarkerLink fallback, got %T", l2)
	}
}

func TestResolveInferredPrefersSameFunction(t *testing.T) {
	m := chunk.NewModule("test")
	fn := chunk.NewFunction("f", 0x1000, 0x20)
	blk := chunk.NewBlock()
	in1 := chunk.NewInstruction(0x1000, 4, &chunk.RawInstruction{})
	in2 := chunk.NewInstruction(0x1004, 4, &chunk.RawInstruction{})
	blk.AddInstruction(in1)
	blk.AddInstruction(in2)
	fn.AddBlock(blk)
	m.AddFunction(fn)

	r := NewResolver()
	l := r.ResolveInferred(0x1004, in1, fn, m)
	if l == nil {
		t.Fatal("expected a resolved link")
	}
	if l.TargetAddress() != 0x1004 {
		t.Errorf("TargetAddress() = %#x, want 0x1004 (same-function instruction)", l.TargetAddress())
	}
}

func TestResolveInferredFallsBackToFunctionThenMarker(t *testing.T) {
	m := chunk.NewModule("test")
	target := chunk.NewFunction("target", 0x2000, 0x10)
	m.AddFunction(target)

	r := NewResolver()
	l := r.ResolveInferred(0x2000, nil, nil, m)
	if l == nil || l.TargetAddress() != 0x2000 {
		t.Fatalf("expected resolution to the function at 0x2000, got %v", l)
	}

	l2 := r.ResolveInferred(0x9999, nil, nil, m)
	if _, ok := l2.(*MarkerLink); !ok {
		t.Errorf("expected a marker link fallback for an unresolvable address, got %T", l2)
	}
}

func TestVersionedCandidatesUsesCorrectDoubleAtForm(t *testing.T) {
	r := NewResolver()
	got := r.versionedCandidates("foo", "GLIBC_2.17")
	want := []string{"foo@GLIBC_2.17", "foo@@GLIBC_2.17"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("versionedCandidates() = %v, want %v", got, want)
	}
}

func TestResolveInternallyProducesPLTLinkForPLTTarget(t *testing.T) {
	m := chunk.NewModule("test")
	tramp := chunk.NewPLTTrampoline(0x5000, "memcpy", 0x8000)
	m.GetPLTTrampolineList().Add(tramp)
	r := NewResolver()

	l := r.ResolveInternally(elfx.Relocation{Addend: 0x5000}, m, true)
	pl, ok := l.(*PLTLink)
	if !ok {
		t.Fatalf("expected a *PLTLink for an address inside a PLT trampoline, got %T", l)
	}
	if pl.Trampoline != tramp {
		t.Errorf("PLTLink.Trampoline = %v, want %v", pl.Trampoline, tramp)
	}
	if pl.Scope() != ScopeExternalJump {
		t.Errorf("PLTLink.Scope() = %v, want ScopeExternalJump", pl.Scope())
	}
}

func TestResolveInternallyMarkerSymbolProducesMarkerLinkWithAddend(t *testing.T) {
	m := chunk.NewModule("test")
	img := &elfx.Image{Dynsyms: []elfx.DynSym{{Name: "_end", Addr: 0x6000, IsMarker: true}}}
	m.Elf = &chunk.ElfSpace{Module: m, Image: img}
	r := NewResolver()

	l := r.ResolveInternally(elfx.Relocation{Symbol: "_end", Addend: 8}, m, true)
	ml, ok := l.(*MarkerLink)
	if !ok {
		t.Fatalf("expected a *MarkerLink for a marker symbol, got %T", l)
	}
	if ml.Marker.Address() != 0x6000 {
		t.Errorf("Marker.Address() = %#x, want 0x6000", ml.Marker.Address())
	}
	if ml.Addend != 8 {
		t.Errorf("MarkerLink.Addend = %d, want 8", ml.Addend)
	}
	if l.TargetAddress() != 0x6008 {
		t.Errorf("TargetAddress() = %#x, want 0x6008", l.TargetAddress())
	}
}

func TestResolveInferredProducesPLTLinkForPLTTarget(t *testing.T) {
	m := chunk.NewModule("test")
	tramp := chunk.NewPLTTrampoline(0x5000, "malloc", 0x8008)
	m.GetPLTTrampolineList().Add(tramp)
	r := NewResolver()

	l := r.ResolveInferred(0x5000, nil, nil, m)
	if _, ok := l.(*PLTLink); !ok {
		t.Fatalf("expected a *PLTLink for an address inside a PLT trampoline, got %T", l)
	}
}

func TestResolveExternallyNotFoundReturnsNil(t *testing.T) {
	source := chunk.NewModule("main")
	r := NewResolver()
	if l := r.ResolveExternally("nonexistent_symbol", "", source, nil, false); l != nil {
		t.Errorf("expected nil when no candidate module defines the symbol, got %v", l)
	}
}
