// Package usedef implements the use-def dataflow engine: per-instruction
// state, per-node exposed sets, the two-pass driver, and the opcode
// handler table that builds expression trees and updates both.
package usedef

import (
	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/tree"
)

// MemDef records a memory location this instruction writes, and the
// register whose value it wrote.
type MemDef struct {
	Place *tree.Tree
	Reg   int
}

// MemRef records that this instruction consumed a value from memory that
// some earlier State produced.
type MemRef struct {
	Reg    int
	Origin *State
}

// State is the per-instruction use-def record of §3/§4.2. Other states
// refer to it by pointer identity only ("state_ref" in the spec); it is
// never copied by value once constructed.
type State struct {
	Instr *chunk.Instruction

	regDefs map[int]*tree.Tree
	regRefs map[int][]*State
	memDefs []MemDef
	memRefs []MemRef
}

// NewState allocates an empty use-def record for instr.
func NewState(instr *chunk.Instruction) *State {
	return &State{
		Instr:   instr,
		regDefs: make(map[int]*tree.Tree),
		regRefs: make(map[int][]*State),
	}
}

// AddRegDef overwrites any prior def in this state for reg.
func (s *State) AddRegDef(reg int, t *tree.Tree) { s.regDefs[reg] = t }

// RegDef returns the tree this state defines for reg, or nil.
func (s *State) RegDef(reg int) *tree.Tree { return s.regDefs[reg] }

// RegDefs returns a stable (non-aliased) view of all register defs.
func (s *State) RegDefs() map[int]*tree.Tree {
	out := make(map[int]*tree.Tree, len(s.regDefs))
	for k, v := range s.regDefs {
		out[k] = v
	}
	return out
}

// AddRegRef appends origin to the ordered set for reg, deduplicating by
// pointer identity.
func (s *State) AddRegRef(reg int, origin *State) {
	for _, o := range s.regRefs[reg] {
		if o == origin {
			return
		}
	}
	s.regRefs[reg] = append(s.regRefs[reg], origin)
}

// RegRefs returns the origins recorded for reg.
func (s *State) RegRefs(reg int) []*State { return s.regRefs[reg] }

// AddMemDef appends without dedup; dedup is enforced at the exposed-set
// level by MemOriginList.Set.
func (s *State) AddMemDef(place *tree.Tree, reg int) {
	s.memDefs = append(s.memDefs, MemDef{Place: place, Reg: reg})
}

// MemDefs returns this state's recorded memory writes.
func (s *State) MemDefs() []MemDef { return s.memDefs }

// AddMemRef appends (reg, origin), deduplicating on the (reg, origin)
// pair the same way AddRegRef dedups register refs.
func (s *State) AddMemRef(reg int, origin *State) {
	for _, r := range s.memRefs {
		if r.Reg == reg && r.Origin == origin {
			return
		}
	}
	s.memRefs = append(s.memRefs, MemRef{Reg: reg, Origin: origin})
}

// MemRefs returns this state's recorded memory reads.
func (s *State) MemRefs() []MemRef { return s.memRefs }
