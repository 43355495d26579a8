package tree

import (
	"errors"
	"fmt"
)

// ErrUnsupportedForm is the sentinel every fatal (§7) error in this package
// and internal/usedef wraps, so callers can distinguish "the analysis hit
// an instruction form it doesn't model" from any other error with
// errors.Is(err, tree.ErrUnsupportedForm).
var ErrUnsupportedForm = errors.New("tree: unsupported form")

// Factory is the sole allocator of Tree nodes for an analysis session.
// It is not required to intern nodes for correctness (structural Equal
// works regardless), but it interns Const and PhysReg since those are
// by far the most frequently repeated shapes in a typical function.
type Factory struct {
	consts   map[int64]*Tree
	addrs    map[int64]*Tree
	physRegs map[[2]int]*Tree
}

// NewFactory returns an empty, ready-to-use Factory.
func NewFactory() *Factory {
	return &Factory{
		consts:   make(map[int64]*Tree),
		addrs:    make(map[int64]*Tree),
		physRegs: make(map[[2]int]*Tree),
	}
}

func (f *Factory) Const(v int64) *Tree {
	if t, ok := f.consts[v]; ok {
		return t
	}
	t := Const(v)
	f.consts[v] = t
	return t
}

func (f *Factory) Addr(v int64) *Tree {
	if t, ok := f.addrs[v]; ok {
		return t
	}
	t := Addr(v)
	f.addrs[v] = t
	return t
}

func (f *Factory) PhysReg(reg, width int) *Tree {
	key := [2]int{reg, width}
	if t, ok := f.physRegs[key]; ok {
		return t
	}
	t := PhysReg(reg, width)
	f.physRegs[key] = t
	return t
}

func (f *Factory) Add(l, r *Tree) *Tree     { return Add(l, r) }
func (f *Factory) Sub(l, r *Tree) *Tree     { return Sub(l, r) }
func (f *Factory) And(l, r *Tree) *Tree     { return And(l, r) }
func (f *Factory) LSL(l, r *Tree) *Tree     { return LSL(l, r) }
func (f *Factory) LSR(l, r *Tree) *Tree     { return LSR(l, r) }
func (f *Factory) ASR(l, r *Tree) *Tree     { return ASR(l, r) }
func (f *Factory) ROR(l, r *Tree) *Tree     { return ROR(l, r) }
func (f *Factory) Compare(l, r *Tree) *Tree { return Compare(l, r) }

func (f *Factory) Deref(addr *Tree, width int) *Tree { return Deref(addr, width) }

// ShiftKind enumerates the extend/shift kinds a decoded operand may carry.
type ShiftKind int

const (
	ShiftInvalid ShiftKind = iota
	ShiftLSL
	ShiftLSR
	ShiftASR
	ShiftROR
	ShiftMSL
)

// ShiftExtend wraps t in the shift node corresponding to kind. It is the
// identity for ShiftInvalid and returns ErrUnsupportedForm for ShiftMSL,
// which §4.1 declares unsupported, and for any kind value outside the
// enum.
func (f *Factory) ShiftExtend(t *Tree, kind ShiftKind, value int64) (*Tree, error) {
	switch kind {
	case ShiftInvalid:
		return t, nil
	case ShiftLSL:
		return f.LSL(t, f.Const(value)), nil
	case ShiftLSR:
		return f.LSR(t, f.Const(value)), nil
	case ShiftASR:
		return f.ASR(t, f.Const(value)), nil
	case ShiftROR:
		return f.ROR(t, f.Const(value)), nil
	case ShiftMSL:
		return nil, fmt.Errorf("%w: MSL shift", ErrUnsupportedForm)
	default:
		return nil, fmt.Errorf("%w: shift kind %d", ErrUnsupportedForm, kind)
	}
}
