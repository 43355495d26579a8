// Package chunk models the containment tree of analyzed entities — module,
// function, block, instruction, data section, PLT trampoline, jump table,
// GS table entry, marker, TLS data region — plus the spatial address index
// used to answer "what chunk contains this address" queries.
package chunk

import (
	"sort"

	"github.com/zenhumany/egalito/internal/elfx"
)

// Chunk is any addressable analyzed entity with a stable identity for the
// life of a loaded program.
type Chunk interface {
	Address() int64
	Size() int64
	Parent() Chunk
}

type base struct {
	addr, size int64
	parent     Chunk
}

func (b *base) Address() int64 { return b.addr }
func (b *base) Size() int64    { return b.size }
func (b *base) Parent() Chunk  { return b.parent }

// Module is the root of a loaded program's containment tree.
type Module struct {
	base
	Name      string
	Library   string
	Functions []*Function
	DataRegions *DataRegionList
	Markers   *MarkerList
	PLTTrampolines *PLTTrampolineList
	Elf       *ElfSpace

	// Dependencies names the libraries this module was linked against
	// (DT_NEEDED entries), the set internal/link.Resolver walks when
	// searching other loaded modules for an external symbol.
	Dependencies []string
}

func NewModule(name string) *Module {
	return &Module{Name: name, DataRegions: &DataRegionList{}, Markers: &MarkerList{}, PLTTrampolines: &PLTTrampolineList{}}
}

func (m *Module) GetFunctionList() []*Function             { return m.Functions }
func (m *Module) GetDataRegionList() *DataRegionList       { return m.DataRegions }
func (m *Module) GetMarkerList() *MarkerList               { return m.Markers }
func (m *Module) GetPLTTrampolineList() *PLTTrampolineList { return m.PLTTrampolines }
func (m *Module) GetElfSpace() *ElfSpace                   { return m.Elf }
func (m *Module) GetLibrary() string                 { return m.Library }
func (m *Module) GetParent() Chunk                   { return nil }

// AddFunction appends f to the module and sorts the function list by
// address so spatial lookups (FunctionAt, InstructionAt) can binary search.
func (m *Module) AddFunction(f *Function) {
	f.parent = m
	m.Functions = append(m.Functions, f)
	sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].addr < m.Functions[j].addr })
}

// FunctionAt returns the function whose head equals addr, if any.
func (m *Module) FunctionAt(addr int64) *Function {
	i := sort.Search(len(m.Functions), func(i int) bool { return m.Functions[i].addr >= addr })
	if i < len(m.Functions) && m.Functions[i].addr == addr {
		return m.Functions[i]
	}
	return nil
}

// InstructionContaining returns the instruction whose [addr, addr+size)
// range contains addr, if any, by binary-searching the address-sorted
// function list and then scanning that function's blocks.
func (m *Module) InstructionContaining(addr int64) *Instruction {
	i := sort.Search(len(m.Functions), func(i int) bool { return m.Functions[i].addr > addr }) - 1
	if i < 0 || i >= len(m.Functions) {
		return nil
	}
	f := m.Functions[i]
	if addr < f.addr || addr >= f.addr+f.size {
		return nil
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instructions {
			if addr >= in.addr && addr < in.addr+in.size {
				return in
			}
		}
	}
	return nil
}

// ElfSpace is the module's view of its own ELF image, referenced by chunks
// that need to answer "is this my own module" during external resolution.
type ElfSpace struct {
	Module *Module
	Image  *elfx.Image
}

// Function is a contiguous sequence of Blocks.
type Function struct {
	base
	Name   string
	Blocks []*Block
}

func NewFunction(name string, addr, size int64) *Function {
	return &Function{base: base{addr: addr, size: size}, Name: name}
}

func (f *Function) AddBlock(b *Block) {
	b.parent = f
	f.Blocks = append(f.Blocks, b)
}

// Block is a basic block: a straight-line run of Instructions plus the CFG
// edges connecting it to other blocks.
type Block struct {
	base
	Instructions []*Instruction
	Preds, Succs []*Block
}

func NewBlock() *Block { return &Block{} }

func (b *Block) AddInstruction(in *Instruction) {
	in.parent = b
	b.Instructions = append(b.Instructions, in)
	if len(b.Instructions) == 1 {
		b.addr = in.addr
	}
	b.size = (in.addr + in.size) - b.addr
}

// GetBlock returns the block's own instruction list, satisfying the
// consumed CFG interface's Node.getBlock().
func (b *Block) GetBlock() []*Instruction { return b.Instructions }

// Semantic is the decoded meaning of an instruction's bytes; usedef reads
// it through GetAssembly, disasm.Assembly implements it.
type Semantic interface {
	IsLiteral() bool
}

// Instruction is a single decoded machine instruction.
type Instruction struct {
	base
	Semantic Semantic
	Links    []LinkSite
}

func NewInstruction(addr, size int64, sem Semantic) *Instruction {
	return &Instruction{base: base{addr: addr, size: size}, Semantic: sem}
}

func (in *Instruction) GetAddress() int64  { return in.addr }
func (in *Instruction) GetSize() int64     { return in.size }
func (in *Instruction) GetSemantic() Semantic { return in.Semantic }

// LinkSite is an attachment point recording which operand index (if any)
// a link was resolved for, mirroring the archive format's LinkedInstruction
// operand-index byte.
type LinkSite struct {
	OperandIndex int
	Link         any
}

// DataSection is a contiguous span of non-executable data.
type DataSection struct {
	base
	Name string
}

func NewDataSection(name string, addr, size int64) *DataSection {
	return &DataSection{base: base{addr: addr, size: size}, Name: name}
}

// DataRegionList holds a module's DataSections and answers data-link
// queries for the resolver's spatial-lookup fallback.
type DataRegionList struct {
	Sections []*DataSection
}

func (l *DataRegionList) Add(s *DataSection) { l.Sections = append(l.Sections, s) }

// Find returns the section containing addr, if any.
func (l *DataRegionList) Find(addr int64) *DataSection {
	for _, s := range l.Sections {
		if addr >= s.addr && addr < s.addr+s.size {
			return s
		}
	}
	return nil
}

// Marker is a symbolic anchor to an address with no chunk of its own.
type Marker struct {
	base
	Name string
}

func NewMarker(name string, addr int64) *Marker { return &Marker{base: base{addr: addr}, Name: name} }

// MarkerList holds a module's Markers.
type MarkerList struct {
	Markers []*Marker
}

func (l *MarkerList) Add(m *Marker) { l.Markers = append(l.Markers, m) }

// PLTTrampoline is a small stub that indirects to an external function
// through the GOT; internal/load builds one per entry in the ELF image's
// parsed .plt stub table, giving the resolver something concrete to bind
// a PLTLink to.
type PLTTrampoline struct {
	base
	TargetName string
	GOTAddr    int64
}

func NewPLTTrampoline(addr int64, targetName string, gotAddr int64) *PLTTrampoline {
	return &PLTTrampoline{base: base{addr: addr, size: 16}, TargetName: targetName, GOTAddr: gotAddr}
}

// PLTTrampolineList holds a module's PLTTrampolines and answers the
// resolver's spatial lookup for addresses landing inside the PLT.
type PLTTrampolineList struct {
	Trampolines []*PLTTrampoline
}

func (l *PLTTrampolineList) Add(t *PLTTrampoline) { l.Trampolines = append(l.Trampolines, t) }

// Find returns the trampoline containing addr, if any.
func (l *PLTTrampolineList) Find(addr int64) *PLTTrampoline {
	for _, t := range l.Trampolines {
		if addr >= t.addr && addr < t.addr+t.size {
			return t
		}
	}
	return nil
}

// JumpTable is a table of code addresses used by an indirect branch.
type JumpTable struct {
	base
	Entries []int64
}

func NewJumpTable(addr int64, entries []int64) *JumpTable {
	return &JumpTable{base: base{addr: addr, size: int64(len(entries) * 8)}, Entries: entries}
}

// GSTableEntry is an entry in the global symbol table used to redirect
// calls through a per-module indirection layer.
type GSTableEntry struct {
	base
	Target Chunk
}

func NewGSTableEntry(addr int64, target Chunk) *GSTableEntry {
	return &GSTableEntry{base: base{addr: addr, size: 8}, Target: target}
}

// TLSDataRegion models a thread-local-storage data block; TLSDataOffsetLink
// targets carry an offset relative to this region's own tls_offset rather
// than its Address().
type TLSDataRegion struct {
	base
	TLSOffset int64
}

func NewTLSDataRegion(addr, size, tlsOffset int64) *TLSDataRegion {
	return &TLSDataRegion{base: base{addr: addr, size: size}, TLSOffset: tlsOffset}
}
