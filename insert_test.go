package idset

import (
	"testing"

	"github.com/outpost-systems/idset/internal/alloc"
)

func TestAddIntoEmpty(t *testing.T) {
	a := alloc.NewSlab()
	h, err := Add(a, Empty, 42)
	if err != nil {
		t.Fatalf("Add err = %v", err)
	}
	if h.Kind() != KindInline1 {
		t.Fatalf("Add(Empty, 42).Kind() = %v, want Inline1", h.Kind())
	}
	if !Contains(h, 42) {
		t.Fatal("Contains(42) = false after Add")
	}
}

func TestAddDuplicateIsNoop(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, []uint32{1, 2, 3})
	h2, err := Add(a, h, 2)
	if err != nil {
		t.Fatalf("Add err = %v", err)
	}
	if h2.Kind() != h.Kind() || Count(h2) != Count(h) {
		t.Fatalf("Add of an existing id changed the set: %v -> %v", h, h2)
	}
	Release(a, h)
	Release(a, h2)
}

func TestAddPromotesThroughRepresentations(t *testing.T) {
	a := alloc.NewSlab()
	h, err := Create(a, nil)
	if err != nil {
		t.Fatalf("Create err = %v", err)
	}
	var ids []uint32
	// Push well past every threshold: inline -> array16 -> bitset/array32 -> node.
	for i := uint32(0); i < 1500; i++ {
		id := i * 3
		ids = append(ids, id)
		next, aerr := Add(a, h, id)
		if aerr != nil {
			t.Fatalf("Add(%d) err = %v", id, aerr)
		}
		Release(a, h)
		h = next
		if !Contains(h, id) {
			t.Fatalf("Contains(%d) = false immediately after Add", id)
		}
	}
	if h.Kind() != KindNode {
		t.Fatalf("after 1500 inserts, Kind() = %v, want Node", h.Kind())
	}
	if Count(h) != uint32(len(ids)) { //nolint:gosec // test fixture sizes are tiny
		t.Fatalf("Count = %d, want %d", Count(h), len(ids))
	}
	for _, id := range ids {
		if !Contains(h, id) {
			t.Fatalf("Contains(%d) = false, want true", id)
		}
	}
	Release(a, h)
}

// TestAddBothHandlesIndependentlyValid exercises spec scenario S6: after
// Add, both the original and resulting handle must be independently
// releasable without either observing the other's release.
func TestAddBothHandlesIndependentlyValid(t *testing.T) {
	a := alloc.NewSlab()
	u, _ := Create(a, []uint32{10, 20, 30})
	v, err := Add(a, u, 25)
	if err != nil {
		t.Fatalf("Add err = %v", err)
	}
	if !Contains(u, 10) || Contains(u, 25) {
		t.Fatal("original handle u must remain unchanged after Add")
	}
	if !Contains(v, 25) {
		t.Fatal("new handle v must contain the added id")
	}
	Release(a, v)
	if !Contains(u, 10) {
		t.Fatal("u must stay valid after releasing v")
	}
	Release(a, u)
}

func TestAddTriggersCreateParentAndAddOnBitSetOverflow(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, rangeIDs(0, 300)) // dense -> BitSet, per chooser
	if h.Kind() != KindBitSet {
		t.Fatalf("fixture Kind() = %v, want BitSet", h.Kind())
	}
	next, err := Add(a, h, 1_000_000) // far outside the BitSet's window
	if err != nil {
		t.Fatalf("Add err = %v", err)
	}
	if next.Kind() != KindNode {
		t.Fatalf("Add past BitSet window: Kind() = %v, want Node", next.Kind())
	}
	if !Contains(next, 1_000_000) || !Contains(next, 0) || !Contains(next, 299) {
		t.Fatal("Add past BitSet window lost existing or new members")
	}
	if Count(next) != 301 {
		t.Fatalf("Count = %d, want 301", Count(next))
	}
	Release(a, h)
	Release(a, next)
}

func TestAddOnImmutableHandleClones(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, []uint32{1, 2, 3})
	frozen := MakeImmutable(h)
	next, err := Add(a, frozen, 4)
	if err != nil {
		t.Fatalf("Add err = %v", err)
	}
	if !Contains(frozen, 1) || Contains(frozen, 4) {
		t.Fatal("Add mutated an immutable handle in place")
	}
	if !Contains(next, 4) {
		t.Fatal("Add result is missing the new id")
	}
	Release(a, frozen)
	Release(a, next)
}
