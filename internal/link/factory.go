package link

import "github.com/zenhumany/egalito/internal/chunk"

// LinkFactory centralizes the handful of link constructions that need to
// consult a module's chunk lists rather than just wrapping a known target,
// mirroring the C++ LinkFactory's makeNormalLink/makeDataLink/makeMarkerLink.
type LinkFactory struct{}

// MakeNormalLink picks NormalLink vs AbsoluteNormalLink by encoding kind,
// and scopes it external-vs-internal-jump per the caller's classification
// of target relative to source module.
func (LinkFactory) MakeNormalLink(target chunk.Chunk, isRelative, isExternal bool) Link {
	scope := ScopeInternalJump
	if isExternal {
		scope = ScopeExternalJump
	}
	if isRelative {
		return NewNormalLink(target, scope)
	}
	return NewAbsoluteNormalLink(target, scope)
}

// MakeDataLink finds the DataSection containing target and returns a
// DataOffsetLink into it, or nil if no section contains the address —
// callers fall back further (e.g. to a MarkerLink) on a nil result.
func (LinkFactory) MakeDataLink(module *chunk.Module, target int64, isRelative bool) Link {
	sec := module.GetDataRegionList().Find(target)
	if sec == nil {
		return nil
	}
	return NewDataOffsetLink(sec, target-sec.Address(), 0)
}

// MakeMarkerLink returns a MarkerLink to a Marker at target, creating and
// registering one on module if none exists yet at that address.
func (LinkFactory) MakeMarkerLink(module *chunk.Module, target int64, name string) Link {
	for _, m := range module.GetMarkerList().Markers {
		if m.Address() == target {
			return NewMarkerLink(m, 0)
		}
	}
	m := chunk.NewMarker(name, target)
	module.GetMarkerList().Add(m)
	return NewMarkerLink(m, 0)
}

// MakeMarkerLinkWithAddend is MakeMarkerLink's counterpart for a relocation
// whose symbol is itself a marker (§4.5 step 3): the marker is anchored at
// the symbol's own address and the addend is kept separate on the link
// rather than folded into the marker's address.
func (LinkFactory) MakeMarkerLinkWithAddend(module *chunk.Module, symAddr int64, addend int64, name string) Link {
	for _, m := range module.GetMarkerList().Markers {
		if m.Address() == symAddr {
			return NewMarkerLink(m, addend)
		}
	}
	m := chunk.NewMarker(name, symAddr)
	module.GetMarkerList().Add(m)
	return NewMarkerLink(m, addend)
}

// MakePLTLink returns a PLTLink to target's own PLT trampoline, or nil if
// target does not land inside any trampoline registered on module.
func (LinkFactory) MakePLTLink(module *chunk.Module, target int64) Link {
	t := module.GetPLTTrampolineList().Find(target)
	if t == nil {
		return nil
	}
	return NewPLTLink(t)
}
