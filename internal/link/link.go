// Package link models the cross-chunk reference graph: Link variants each
// describing how to compute a target address, plus the resolver that
// turns an ELF relocation or a bare address into the right variant.
package link

import "github.com/zenhumany/egalito/internal/chunk"

// Scope classifies where a link's target lives relative to its source,
// mirroring the C++ SCOPE_* constants consumed by the serializer's
// link-reference tagging.
type Scope int

const (
	ScopeWithinModule Scope = iota
	ScopeInternalJump
	ScopeExternalJump
	ScopeExternalCode
)

// Link is the common interface every variant below satisfies: given its
// own stored target/offset/base, compute the address it resolves to.
type Link interface {
	TargetAddress() int64
	Target() chunk.Chunk
	Scope() Scope
}

type linkBase struct {
	target chunk.Chunk
	scope  Scope
}

func (l linkBase) Target() chunk.Chunk { return l.target }
func (l linkBase) Scope() Scope        { return l.scope }

// NormalLink resolves to its target's own address unchanged — the plain
// "points at this chunk" case.
type NormalLink struct {
	linkBase
}

func NewNormalLink(target chunk.Chunk, scope Scope) *NormalLink {
	return &NormalLink{linkBase{target: target, scope: scope}}
}

func (l *NormalLink) TargetAddress() int64 { return l.target.Address() }

// AbsoluteNormalLink is a NormalLink whose source encoding is an absolute
// address rather than a PC-relative one; the target address computation is
// identical, only the disassembly-time encoding differs, so it is kept as
// a distinct type for the serializer's tag table rather than a shared flag.
type AbsoluteNormalLink struct {
	NormalLink
}

func NewAbsoluteNormalLink(target chunk.Chunk, scope Scope) *AbsoluteNormalLink {
	return &AbsoluteNormalLink{NormalLink{linkBase{target: target, scope: scope}}}
}

// OffsetLink resolves to target's address plus a constant offset.
type OffsetLink struct {
	linkBase
	Offset int64
}

func NewOffsetLink(target chunk.Chunk, offset int64, scope Scope) *OffsetLink {
	return &OffsetLink{linkBase{target: target, scope: scope}, offset}
}

func (l *OffsetLink) TargetAddress() int64 { return l.target.Address() + l.Offset }

// AbsoluteOffsetLink is OffsetLink's absolute-encoding counterpart, same
// split rationale as AbsoluteNormalLink/NormalLink.
type AbsoluteOffsetLink struct {
	OffsetLink
}

func NewAbsoluteOffsetLink(target chunk.Chunk, offset int64, scope Scope) *AbsoluteOffsetLink {
	return &AbsoluteOffsetLink{OffsetLink{linkBase{target: target, scope: scope}, offset}}
}

// PLTLink resolves to the address of a PLT trampoline, not the eventual
// external function — the call site sees the trampoline's stub code.
type PLTLink struct {
	linkBase
	Trampoline *chunk.PLTTrampoline
}

func NewPLTLink(t *chunk.PLTTrampoline) *PLTLink {
	return &PLTLink{linkBase{target: t, scope: ScopeExternalJump}, t}
}

func (l *PLTLink) TargetAddress() int64 { return l.Trampoline.Address() }

// JumpTableLink resolves to a jump table's base address; individual entry
// resolution is the consuming pass's job, not this link's.
type JumpTableLink struct {
	linkBase
	Table *chunk.JumpTable
}

func NewJumpTableLink(t *chunk.JumpTable) *JumpTableLink {
	return &JumpTableLink{linkBase{target: t, scope: ScopeWithinModule}, t}
}

func (l *JumpTableLink) TargetAddress() int64 { return l.Table.Address() }

// MarkerLink resolves to a Marker's address plus an addend, used when the
// target couldn't be resolved to a concrete chunk (e.g. an address that
// falls inside an unrecognized instruction or data gap).
type MarkerLink struct {
	linkBase
	Marker *chunk.Marker
	Addend int64
}

func NewMarkerLink(m *chunk.Marker, addend int64) *MarkerLink {
	return &MarkerLink{linkBase{target: m, scope: ScopeWithinModule}, m, addend}
}

func (l *MarkerLink) TargetAddress() int64 { return l.Marker.Address() + l.Addend }

// GSTableLink resolves through one level of indirection: the entry's
// recorded target chunk is itself the resolved destination, but the
// address reported is the entry's table offset, not the target's own
// address — ported as-is from the original's getOffset split.
type GSTableLink struct {
	linkBase
	Entry *chunk.GSTableEntry
}

func NewGSTableLink(e *chunk.GSTableEntry) *GSTableLink {
	return &GSTableLink{linkBase{target: e, scope: ScopeWithinModule}, e}
}

func (l *GSTableLink) TargetAddress() int64 { return l.Entry.Address() }

// DistanceLink resolves to the byte distance between a target's end and a
// base chunk's start, used for size-relative references such as loop
// trip-count tables generated against a function's body length.
type DistanceLink struct {
	linkBase
	Base chunk.Chunk
}

func NewDistanceLink(target, base chunk.Chunk) *DistanceLink {
	return &DistanceLink{linkBase{target: target, scope: ScopeWithinModule}, base}
}

func (l *DistanceLink) TargetAddress() int64 {
	return l.target.Address() + l.target.Size() - l.Base.Address()
}

// DataOffsetLink resolves to an offset inside a DataSection plus an
// addend, for references into .data/.rodata that don't land on a
// recognized symbol boundary.
type DataOffsetLink struct {
	linkBase
	Section *chunk.DataSection
	Offset  int64
	Addend  int64
}

func NewDataOffsetLink(s *chunk.DataSection, offset, addend int64) *DataOffsetLink {
	return &DataOffsetLink{linkBase{target: s, scope: ScopeWithinModule}, s, offset, addend}
}

func (l *DataOffsetLink) TargetAddress() int64 {
	return l.Section.Address() + l.Offset + l.Addend
}

// TLSDataOffsetLink resolves relative to a TLS region's own offset rather
// than its load address, matching thread-local variable addressing.
type TLSDataOffsetLink struct {
	linkBase
	TLS    *chunk.TLSDataRegion
	Offset int64
}

func NewTLSDataOffsetLink(t *chunk.TLSDataRegion, offset int64) *TLSDataOffsetLink {
	return &TLSDataOffsetLink{linkBase{target: t, scope: ScopeWithinModule}, t, offset}
}

func (l *TLSDataOffsetLink) TargetAddress() int64 { return l.TLS.TLSOffset + l.Offset }

// SymbolOnlyLink carries just a name, used when a relocation's symbol
// could not be resolved to any chunk, section, or marker but a name is
// still worth recording for display/debugging.
type SymbolOnlyLink struct {
	Name string
}

func (l *SymbolOnlyLink) TargetAddress() int64 { return 0 }
func (l *SymbolOnlyLink) Target() chunk.Chunk  { return nil }
func (l *SymbolOnlyLink) Scope() Scope         { return ScopeExternalCode }

// UnresolvedLink is the explicit "couldn't resolve this" marker the
// resolver and the serializer both use rather than returning nil, so
// downstream passes can distinguish "link is absent" from "resolution
// failed and needs another pass".
type UnresolvedLink struct {
	Reason string
}

func (l *UnresolvedLink) TargetAddress() int64 { return 0 }
func (l *UnresolvedLink) Target() chunk.Chunk  { return nil }
func (l *UnresolvedLink) Scope() Scope         { return ScopeExternalCode }

// ExternalLoaderLink resolves through the process loader's own symbol
// table at load time rather than through any address known to the
// analysis, e.g. libc functions satisfied by the dynamic linker.
type ExternalLoaderLink struct {
	TargetName string
	loader     func(name string) int64
}

// NewExternalLoaderLink binds a lookup function (conceptually the runtime
// loader bridge) used lazily by TargetAddress.
func NewExternalLoaderLink(name string, loader func(name string) int64) *ExternalLoaderLink {
	return &ExternalLoaderLink{TargetName: name, loader: loader}
}

func (l *ExternalLoaderLink) TargetAddress() int64 {
	if l.loader == nil {
		return 0
	}
	return l.loader(l.TargetName)
}
func (l *ExternalLoaderLink) Target() chunk.Chunk { return nil }
func (l *ExternalLoaderLink) Scope() Scope        { return ScopeExternalCode }
