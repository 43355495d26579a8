package tree

// MemLocation is the canonical form of a memory address tree: a base
// register (or none) plus a constant offset. Two locations are equal iff
// their base registers are equal (both "none" allowed) and their offsets
// are equal.
type MemLocation struct {
	HasBase bool
	Base    int // register id, meaningful only if HasBase
	Offset  int64

	// Opaque is set when the source tree didn't match any of the
	// MemoryForm shapes; an opaque location is never equal to any
	// other location, including another opaque one built from an
	// identical-looking tree (per §3, "any other tree shape is an
	// opaque, never-equal location").
	Opaque bool
	opaqueTag *Tree // distinguishes instances for the never-equal rule
}

// MemLocationOf canonicalizes t by shallow top-level decomposition:
// Add(PhysReg, Const) in either order, bare PhysReg (offset 0), or bare
// Const. A Const child's value accumulates into Offset (not overwrites)
// per original_source/'s extract, so a pattern that in principle matches
// more than one constant child still produces the right total offset.
func MemLocationOf(t *Tree) MemLocation {
	if t == nil {
		return MemLocation{Opaque: true, opaqueTag: t}
	}
	switch t.Kind {
	case KindPhysReg:
		return MemLocation{HasBase: true, Base: t.Reg}
	case KindConst, KindAddr:
		return MemLocation{Offset: t.Value}
	case KindAdd:
		return memLocationOfAdd(t)
	default:
		return MemLocation{Opaque: true, opaqueTag: t}
	}
}

func memLocationOfAdd(t *Tree) MemLocation {
	var loc MemLocation
	matched := 0
	for _, child := range []*Tree{t.Left, t.Right} {
		switch {
		case child == nil:
			return MemLocation{Opaque: true, opaqueTag: t}
		case child.Kind == KindPhysReg:
			if loc.HasBase {
				// Two register children: not a recognized MemoryForm shape.
				return MemLocation{Opaque: true, opaqueTag: t}
			}
			loc.HasBase = true
			loc.Base = child.Reg
			matched++
		case child.Kind == KindConst || child.Kind == KindAddr:
			loc.Offset += child.Value
			matched++
		default:
			return MemLocation{Opaque: true, opaqueTag: t}
		}
	}
	if matched != 2 {
		return MemLocation{Opaque: true, opaqueTag: t}
	}
	return loc
}

// Equal reports whether two canonical memory locations denote the same
// place. Opaque locations are never equal to anything, including another
// opaque location built from the same tree pointer, matching §3 exactly.
func (m MemLocation) Equal(o MemLocation) bool {
	if m.Opaque || o.Opaque {
		return false
	}
	if m.HasBase != o.HasBase {
		return false
	}
	if m.HasBase && m.Base != o.Base {
		return false
	}
	return m.Offset == o.Offset
}
