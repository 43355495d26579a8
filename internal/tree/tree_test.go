package tree

import (
	"errors"
	"testing"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Tree
		want bool
	}{
		{"nil vs nil", nil, nil, true},
		{"nil vs value", nil, Const(1), false},
		{"same const", Const(5), Const(5), true},
		{"different const", Const(5), Const(6), false},
		{"const vs addr same value", Const(5), Addr(5), false},
		{"same physreg", PhysReg(0, 8), PhysReg(0, 8), true},
		{"physreg different width", PhysReg(0, 8), PhysReg(0, 4), false},
		{"physreg different reg", PhysReg(0, 8), PhysReg(1, 8), false},
		{"same add shape", Add(Const(1), Const(2)), Add(Const(1), Const(2)), true},
		{"add vs sub", Add(Const(1), Const(2)), Sub(Const(1), Const(2)), false},
		{"nested equal", Add(PhysReg(0, 8), Const(4)), Add(PhysReg(0, 8), Const(4)), true},
		{"nested different", Add(PhysReg(0, 8), Const(4)), Add(PhysReg(0, 8), Const(8)), false},
		{
			"deref same width and address",
			Deref(PhysReg(0, 8), 4),
			Deref(PhysReg(0, 8), 4),
			true,
		},
		{
			"deref different width",
			Deref(PhysReg(0, 8), 4),
			Deref(PhysReg(0, 8), 8),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqualIsSymmetric(t *testing.T) {
	a := Add(PhysReg(2, 8), Const(16))
	b := Add(PhysReg(2, 8), Const(16))
	if !Equal(a, b) || !Equal(b, a) {
		t.Fatal("Equal is not symmetric for structurally identical trees")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		t    *Tree
		want string
	}{
		{"nil", nil, "<nil>"},
		{"const", Const(42), "#42"},
		{"addr", Addr(0x1000), "0x1000"},
		{"physreg", PhysReg(3, 8), "r3:8"},
		{"add", Add(Const(1), Const(2)), "(#1 + #2)"},
		{"sub", Sub(PhysReg(0, 8), Const(4)), "(r0:8 - #4)"},
		{"deref", Deref(PhysReg(0, 8), 8), "[r0:8]:8"},
		{"compare", Compare(PhysReg(0, 8), Const(0)), "(r0:8 cmp #0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFactoryInternsConstsAndPhysRegs(t *testing.T) {
	f := NewFactory()

	c1 := f.Const(7)
	c2 := f.Const(7)
	if c1 != c2 {
		t.Error("Factory.Const did not intern identical values to the same pointer")
	}

	a1 := f.Addr(0x4000)
	a2 := f.Addr(0x4000)
	if a1 != a2 {
		t.Error("Factory.Addr did not intern identical values to the same pointer")
	}

	r1 := f.PhysReg(0, 8)
	r2 := f.PhysReg(0, 8)
	if r1 != r2 {
		t.Error("Factory.PhysReg did not intern identical (reg, width) pairs to the same pointer")
	}

	r3 := f.PhysReg(0, 4)
	if r1 == r3 {
		t.Error("Factory.PhysReg conflated different widths for the same register")
	}
}

func TestFactoryShiftExtend(t *testing.T) {
	f := NewFactory()
	base := f.PhysReg(1, 8)

	got, err := f.ShiftExtend(base, ShiftInvalid, 0)
	if err != nil {
		t.Fatalf("ShiftExtend(ShiftInvalid, ...) returned error: %v", err)
	}
	if got != base {
		t.Error("ShiftExtend with ShiftInvalid should return the input unchanged")
	}

	lsl, err := f.ShiftExtend(base, ShiftLSL, 3)
	if err != nil {
		t.Fatalf("ShiftExtend(ShiftLSL, ...) returned error: %v", err)
	}
	if !Equal(lsl, LSL(base, Const(3))) {
		t.Errorf("ShiftExtend(ShiftLSL, 3) = %v, want lsl shape", lsl)
	}

	ror, err := f.ShiftExtend(base, ShiftROR, 1)
	if err != nil {
		t.Fatalf("ShiftExtend(ShiftROR, ...) returned error: %v", err)
	}
	if !Equal(ror, ROR(base, Const(1))) {
		t.Errorf("ShiftExtend(ShiftROR, 1) = %v, want ror shape", ror)
	}
}

func TestFactoryShiftExtendMSLReturnsErrUnsupportedForm(t *testing.T) {
	f := NewFactory()
	got, err := f.ShiftExtend(f.Const(1), ShiftMSL, 2)
	if got != nil {
		t.Errorf("ShiftExtend(ShiftMSL, ...) tree = %v, want nil", got)
	}
	if !errors.Is(err, ErrUnsupportedForm) {
		t.Errorf("ShiftExtend(ShiftMSL, ...) error = %v, want wrapping ErrUnsupportedForm", err)
	}
}

func TestFactoryShiftExtendUnknownKindReturnsErrUnsupportedForm(t *testing.T) {
	f := NewFactory()
	got, err := f.ShiftExtend(f.Const(1), ShiftKind(99), 0)
	if got != nil {
		t.Errorf("ShiftExtend(invalid kind) tree = %v, want nil", got)
	}
	if !errors.Is(err, ErrUnsupportedForm) {
		t.Errorf("ShiftExtend(invalid kind) error = %v, want wrapping ErrUnsupportedForm", err)
	}
}
