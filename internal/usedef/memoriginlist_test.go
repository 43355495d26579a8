package usedef

import (
	"testing"

	"github.com/zenhumany/egalito/internal/tree"
)

func TestMemOriginListSetStrongKills(t *testing.T) {
	l := NewMemOriginList()
	f := tree.NewFactory()
	place := f.PhysReg(0, 8)

	s1, s2 := newTestState(), newTestState()
	l.Set(place, s1)
	l.Set(place, s2)

	origins := l.MatchingOrigins(place)
	if len(origins) != 1 || origins[0] != s2 {
		t.Fatalf("Set should strong-kill the prior entry, got %v", origins)
	}
}

func TestMemOriginListAddWeakMerges(t *testing.T) {
	l := NewMemOriginList()
	f := tree.NewFactory()
	place := f.PhysReg(0, 8)

	s1, s2 := newTestState(), newTestState()
	l.Add(place, s1)
	l.Add(place, s2)

	origins := l.MatchingOrigins(place)
	if len(origins) != 2 {
		t.Fatalf("Add should accumulate distinct origins, got %v", origins)
	}
}

func TestMemOriginListAddDedupesSamePlaceAndOrigin(t *testing.T) {
	l := NewMemOriginList()
	f := tree.NewFactory()
	place := f.PhysReg(0, 8)
	s := newTestState()

	l.Add(place, s)
	l.Add(place, s)

	if l.Len() != 1 {
		t.Fatalf("Add should dedup an identical (place, origin) pair, got Len()=%d", l.Len())
	}
}

func TestMemOriginListDel(t *testing.T) {
	l := NewMemOriginList()
	f := tree.NewFactory()
	place := f.PhysReg(1, 8)
	l.Set(place, newTestState())
	l.Del(place)

	if len(l.MatchingOrigins(place)) != 0 {
		t.Error("Del should remove all entries at the given location")
	}
}

func TestMemOriginListAddListConcatenatesViaAdd(t *testing.T) {
	f := tree.NewFactory()
	place := f.PhysReg(2, 8)
	s1 := newTestState()

	src := NewMemOriginList()
	src.Add(place, s1)

	dst := NewMemOriginList()
	dst.AddList(src)

	if dst.Len() != 1 {
		t.Fatalf("AddList should copy entries from src, got Len()=%d", dst.Len())
	}

	// AddList a second time from the same src should not duplicate, since
	// the underlying Add call dedups.
	dst.AddList(src)
	if dst.Len() != 1 {
		t.Errorf("AddList should dedup against existing entries, got Len()=%d", dst.Len())
	}
}

func TestMemOriginListAddListNilIsNoop(t *testing.T) {
	l := NewMemOriginList()
	l.AddList(nil)
	if l.Len() != 0 {
		t.Error("AddList(nil) should be a no-op")
	}
}

func TestMemOriginListClone(t *testing.T) {
	f := tree.NewFactory()
	place := f.PhysReg(0, 8)
	l := NewMemOriginList()
	l.Add(place, newTestState())

	c := l.Clone()
	c.Add(f.PhysReg(1, 8), newTestState())

	if l.Len() != 1 {
		t.Error("mutating a clone should not affect the original list")
	}
	if c.Len() != 2 {
		t.Errorf("clone should have its own independent entries, got Len()=%d", c.Len())
	}
}

func TestMemOriginListClear(t *testing.T) {
	l := NewMemOriginList()
	f := tree.NewFactory()
	l.Add(f.PhysReg(0, 8), newTestState())
	l.Clear()
	if l.Len() != 0 {
		t.Error("Clear should empty the list")
	}
}
