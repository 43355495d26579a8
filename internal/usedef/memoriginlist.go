package usedef

import "github.com/zenhumany/egalito/internal/tree"

// memEntry is one (place, origin) pair in a MemOriginList.
type memEntry struct {
	Place  *tree.Tree
	Origin *State
}

// MemOriginList implements the §3 policy for a node's mem_exposed set:
// Set is a strong write, Add is a weak merge, Del removes by location.
// Order is insertion order minus deletions.
type MemOriginList struct {
	entries []memEntry
}

// NewMemOriginList returns an empty list.
func NewMemOriginList() *MemOriginList { return &MemOriginList{} }

// Set replaces all prior entries whose MemLocation equals place's with a
// single new entry at the position of the first match (or appends if
// there was no match). original_source/'s MemOriginList::set tolerates
// more than one prior match (an invariant violation that should not
// recur) by removing the extras via swap-pop against the tail; this port
// keeps that defensive behavior.
func (l *MemOriginList) Set(place *tree.Tree, origin *State) {
	loc := tree.MemLocationOf(place)
	firstIdx := -1
	for i := 0; i < len(l.entries); {
		if tree.MemLocationOf(l.entries[i].Place).Equal(loc) {
			if firstIdx == -1 {
				firstIdx = i
				i++
				continue
			}
			// Extra match beyond the first: swap-pop it out.
			last := len(l.entries) - 1
			l.entries[i] = l.entries[last]
			l.entries = l.entries[:last]
			continue
		}
		i++
	}
	if firstIdx == -1 {
		l.entries = append(l.entries, memEntry{Place: place, Origin: origin})
		return
	}
	l.entries[firstIdx] = memEntry{Place: place, Origin: origin}
}

// Add appends (place, origin) unless an existing entry already has both
// an equal MemLocation and the same origin pointer.
func (l *MemOriginList) Add(place *tree.Tree, origin *State) {
	loc := tree.MemLocationOf(place)
	for _, e := range l.entries {
		if e.Origin == origin && tree.MemLocationOf(e.Place).Equal(loc) {
			return
		}
	}
	l.entries = append(l.entries, memEntry{Place: place, Origin: origin})
}

// AddList appends every entry of other via Add, implementing the
// predecessor-seeding concatenation of §4.3.
func (l *MemOriginList) AddList(other *MemOriginList) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		l.Add(e.Place, e.Origin)
	}
}

// Del removes every entry whose MemLocation equals place's.
func (l *MemOriginList) Del(place *tree.Tree) {
	loc := tree.MemLocationOf(place)
	out := l.entries[:0]
	for _, e := range l.entries {
		if !tree.MemLocationOf(e.Place).Equal(loc) {
			out = append(out, e)
		}
	}
	l.entries = out
}

// Clear empties the list.
func (l *MemOriginList) Clear() { l.entries = nil }

// MatchingOrigins returns the origins of every entry whose MemLocation
// equals place's, in list order — the lookup use_mem performs.
func (l *MemOriginList) MatchingOrigins(place *tree.Tree) []*State {
	loc := tree.MemLocationOf(place)
	var out []*State
	for _, e := range l.entries {
		if tree.MemLocationOf(e.Place).Equal(loc) {
			out = append(out, e.Origin)
		}
	}
	return out
}

// Clone returns a deep-enough copy (new backing slice, same entries) so a
// node's exposed set can be seeded from a predecessor's without aliasing.
func (l *MemOriginList) Clone() *MemOriginList {
	c := &MemOriginList{entries: make([]memEntry, len(l.entries))}
	copy(c.entries, l.entries)
	return c
}

// Len reports the number of live entries.
func (l *MemOriginList) Len() int { return len(l.entries) }
