package serialize

import (
	"fmt"
	"io"

	"github.com/zenhumany/egalito/internal/chunk"
	"github.com/zenhumany/egalito/internal/link"
)

func isExternalScope(s link.Scope) bool {
	return s == link.ScopeExternalJump || s == link.ScopeExternalCode
}

// WriteLink writes l in the tag+payload form of §6's Link grammar. The
// archive's External*/non-External split is recovered from l.Scope()
// rather than from a distinct Go type, since this model uses one NormalLink
// (resp. OffsetLink) type for both and tags the distinction on Scope
// instead — see DESIGN.md.
func WriteLink(w io.Writer, l link.Link, assign AssignFunc) error {
	switch v := l.(type) {
	case *link.AbsoluteNormalLink:
		tag := TagAbsoluteNormalLink
		if isExternalScope(v.Scope()) {
			tag = TagExternalAbsoluteNormalLink
		}
		if err := writeU8(w, uint8(tag)); err != nil {
			return err
		}
		return writeID(w, assign(v.Target()))

	case *link.NormalLink:
		tag := TagNormalLink
		if isExternalScope(v.Scope()) {
			tag = TagExternalNormalLink
		}
		if err := writeU8(w, uint8(tag)); err != nil {
			return err
		}
		return writeID(w, assign(v.Target()))

	case *link.AbsoluteOffsetLink:
		tag := TagOffsetLink
		if isExternalScope(v.Scope()) {
			tag = TagExternalOffsetLink
		}
		return writeOffsetLinkPayload(w, tag, v.Target(), v.TargetAddress(), assign)

	case *link.OffsetLink:
		tag := TagOffsetLink
		if isExternalScope(v.Scope()) {
			tag = TagExternalOffsetLink
		}
		return writeOffsetLinkPayload(w, tag, v.Target(), v.TargetAddress(), assign)

	case *link.PLTLink:
		if err := writeU8(w, uint8(TagPLTLink)); err != nil {
			return err
		}
		return writeID(w, assign(v.Trampoline))

	case *link.JumpTableLink:
		return writeU8(w, uint8(TagJumpTableLink))

	case *link.SymbolOnlyLink:
		return writeU8(w, uint8(TagSymbolOnlyLink))

	case *link.MarkerLink:
		return writeU8(w, uint8(TagMarkerLink))

	case *link.DataOffsetLink:
		if err := writeU8(w, uint8(TagDataOffsetLink)); err != nil {
			return err
		}
		if err := writeID(w, assign(v.Section)); err != nil {
			return err
		}
		return writeAddr(w, v.TargetAddress()-v.Section.Address())

	case *link.TLSDataOffsetLink:
		return writeU8(w, uint8(TagTLSDataOffsetLink))

	case *link.UnresolvedLink:
		return writeU8(w, uint8(TagUnresolvedLink))

	case *link.DistanceLink, *link.GSTableLink, *link.ExternalLoaderLink:
		// No tag in §6's table covers these three variants; rather than
		// invent one, degrade to the same UnresolvedLink tag the reader
		// already treats every unrecognized tag as.
		return writeU8(w, uint8(TagUnresolvedLink))

	default:
		return writeU8(w, uint8(TagUnknownLink))
	}
}

func writeOffsetLinkPayload(w io.Writer, tag LinkTag, target chunk.Chunk, targetAddr int64, assign AssignFunc) error {
	if err := writeU8(w, uint8(tag)); err != nil {
		return err
	}
	if err := writeID(w, assign(target)); err != nil {
		return err
	}
	return writeAddr(w, targetAddr-target.Address())
}

// ReadLink reads one link record. Every tag the archive can produce but
// this model cannot reconstruct (JumpTableLink, SymbolOnlyLink, MarkerLink
// payloads, AbsoluteDataLink, TLSDataOffsetLink, ImmAndDispLink, and any ID
// the lookup oracle can't resolve) degrades to an UnresolvedLink rather
// than erroring, matching deserializeLink's default case.
func ReadLink(r io.Reader, lookup LookupFunc) (link.Link, error) {
	tagByte, err := readU8(r)
	if err != nil {
		return nil, err
	}
	tag := LinkTag(tagByte)

	switch tag {
	case TagExternalAbsoluteNormalLink, TagAbsoluteNormalLink:
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		target, ok := lookup(id)
		if !ok {
			return &link.UnresolvedLink{Reason: "absolute normal link target not found"}, nil
		}
		scope := link.ScopeInternalJump
		if tag == TagExternalAbsoluteNormalLink {
			scope = link.ScopeExternalJump
		}
		return link.NewAbsoluteNormalLink(target, scope), nil

	case TagExternalNormalLink, TagNormalLink:
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		target, ok := lookup(id)
		if !ok {
			return &link.UnresolvedLink{Reason: "normal link target not found"}, nil
		}
		scope := link.ScopeInternalJump
		if tag == TagExternalNormalLink {
			scope = link.ScopeExternalJump
		}
		return link.NewNormalLink(target, scope), nil

	case TagExternalOffsetLink, TagOffsetLink:
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		offset, err := readAddr(r)
		if err != nil {
			return nil, err
		}
		target, ok := lookup(id)
		if !ok {
			return &link.UnresolvedLink{Reason: "offset link target not found"}, nil
		}
		scope := link.ScopeInternalJump
		if tag == TagExternalOffsetLink {
			scope = link.ScopeExternalJump
		}
		return link.NewOffsetLink(target, offset, scope), nil

	case TagPLTLink:
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		target, ok := lookup(id)
		if !ok {
			return &link.UnresolvedLink{Reason: "PLT link target not found"}, nil
		}
		trampoline, ok := target.(*chunk.PLTTrampoline)
		if !ok {
			return &link.UnresolvedLink{Reason: "PLT link target is not a PLTTrampoline"}, nil
		}
		return link.NewPLTLink(trampoline), nil

	case TagDataOffsetLink:
		id, err := readID(r)
		if err != nil {
			return nil, err
		}
		offset, err := readAddr(r)
		if err != nil {
			return nil, err
		}
		target, ok := lookup(id)
		if !ok {
			return &link.UnresolvedLink{Reason: "data offset link target not found"}, nil
		}
		section, ok := target.(*chunk.DataSection)
		if !ok {
			return &link.UnresolvedLink{Reason: "data offset link target is not a DataSection"}, nil
		}
		return link.NewDataOffsetLink(section, offset, 0), nil

	case TagJumpTableLink:
		return &link.UnresolvedLink{Reason: "JumpTableLink deserialization unsupported"}, nil
	case TagSymbolOnlyLink:
		return &link.UnresolvedLink{Reason: "SymbolOnlyLink deserialization unsupported"}, nil
	case TagMarkerLink:
		return &link.UnresolvedLink{Reason: "MarkerLink deserialization unsupported"}, nil
	case TagAbsoluteDataLink:
		return &link.UnresolvedLink{Reason: "AbsoluteDataLink deserialization unsupported"}, nil
	case TagTLSDataOffsetLink:
		return &link.UnresolvedLink{Reason: "TLSDataOffsetLink deserialization unsupported"}, nil
	case TagUnresolvedLink:
		return &link.UnresolvedLink{Reason: ""}, nil
	case TagImmAndDispLink:
		return &link.UnresolvedLink{Reason: "ImmAndDispLink deserialization unsupported"}, nil
	default:
		return &link.UnresolvedLink{Reason: fmt.Sprintf("unknown link tag %d", tagByte)}, nil
	}
}
