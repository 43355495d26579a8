package chunk

import "testing"

func TestModuleAddFunctionSortsByAddress(t *testing.T) {
	m := NewModule("test")
	f2 := NewFunction("second", 0x2000, 0x10)
	f1 := NewFunction("first", 0x1000, 0x10)
	m.AddFunction(f2)
	m.AddFunction(f1)

	fns := m.GetFunctionList()
	if len(fns) != 2 || fns[0] != f1 || fns[1] != f2 {
		t.Fatalf("expected functions sorted by address [first, second], got %v", fns)
	}
	if f1.Parent() != m {
		t.Errorf("AddFunction did not set the function's parent")
	}
}

func TestModuleFunctionAt(t *testing.T) {
	m := NewModule("test")
	f := NewFunction("fn", 0x1000, 0x10)
	m.AddFunction(f)

	if got := m.FunctionAt(0x1000); got != f {
		t.Errorf("FunctionAt(0x1000) = %v, want %v", got, f)
	}
	if got := m.FunctionAt(0x1004); got != nil {
		t.Errorf("FunctionAt(0x1004) = %v, want nil (not a function head)", got)
	}
}

func TestModuleInstructionContaining(t *testing.T) {
	m := NewModule("test")
	fn := NewFunction("fn", 0x1000, 8)
	blk := NewBlock()
	in1 := NewInstruction(0x1000, 4, &RawInstruction{})
	in2 := NewInstruction(0x1004, 4, &RawInstruction{})
	blk.AddInstruction(in1)
	blk.AddInstruction(in2)
	fn.AddBlock(blk)
	m.AddFunction(fn)

	if got := m.InstructionContaining(0x1000); got != in1 {
		t.Errorf("InstructionContaining(0x1000) = %v, want in1", got)
	}
	if got := m.InstructionContaining(0x1005); got != in2 {
		t.Errorf("InstructionContaining(0x1005) = %v, want in2", got)
	}
	if got := m.InstructionContaining(0x2000); got != nil {
		t.Errorf("InstructionContaining(0x2000) = %v, want nil", got)
	}
}

func TestBlockAddInstructionUpdatesSpan(t *testing.T) {
	b := NewBlock()
	b.AddInstruction(NewInstruction(0x100, 4, &RawInstruction{}))
	b.AddInstruction(NewInstruction(0x104, 4, &RawInstruction{}))

	if b.Address() != 0x100 {
		t.Errorf("block address = %#x, want 0x100", b.Address())
	}
	if b.Size() != 8 {
		t.Errorf("block size = %d, want 8", b.Size())
	}
}

func TestDataRegionListFind(t *testing.T) {
	l := &DataRegionList{}
	rodata := NewDataSection(".rodata", 0x2000, 0x100)
	l.Add(rodata)

	if got := l.Find(0x2050); got != rodata {
		t.Errorf("Find(0x2050) = %v, want rodata section", got)
	}
	if got := l.Find(0x3000); got != nil {
		t.Errorf("Find(0x3000) = %v, want nil", got)
	}
}

func TestMarkerListAdd(t *testing.T) {
	l := &MarkerList{}
	l.Add(NewMarker("_start", 0x1000))
	if len(l.Markers) != 1 || l.Markers[0].Name != "_start" {
		t.Fatalf("MarkerList.Add did not record the marker, got %v", l.Markers)
	}
}
