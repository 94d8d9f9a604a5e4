package idset

import (
	"testing"

	"github.com/outpost-systems/idset/internal/alloc"
)

func TestRemoveAbsentIsNoop(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, []uint32{1, 2, 3})
	h2, err := Remove(a, h, 99)
	if err != nil {
		t.Fatalf("Remove err = %v", err)
	}
	if h2.Kind() != h.Kind() || Count(h2) != Count(h) {
		t.Fatalf("Remove of an absent id changed the set: %v -> %v", h, h2)
	}
	Release(a, h)
	Release(a, h2)
}

func TestRemoveDownToEmpty(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, []uint32{7})
	h2, err := Remove(a, h, 7)
	if err != nil {
		t.Fatalf("Remove err = %v", err)
	}
	if h2.Kind() != KindEmpty {
		t.Fatalf("Remove(last element).Kind() = %v, want Empty", h2.Kind())
	}
	Release(a, h)
}

// TestRemoveBothHandlesIndependentlyValid mirrors spec scenario S6 for
// removal: both the original and the result must be independently valid.
func TestRemoveBothHandlesIndependentlyValid(t *testing.T) {
	a := alloc.NewSlab()
	u, _ := Create(a, []uint32{10, 20, 30})
	v, err := Remove(a, u, 20)
	if err != nil {
		t.Fatalf("Remove err = %v", err)
	}
	if !Contains(u, 20) {
		t.Fatal("original handle u must remain unchanged after Remove")
	}
	if Contains(v, 20) || !Contains(v, 10) || !Contains(v, 30) {
		t.Fatal("result handle v has incorrect membership")
	}
	Release(a, v)
	if !Contains(u, 20) {
		t.Fatal("u must stay valid after releasing v")
	}
	Release(a, u)
}

func TestRemoveDemotesThroughRepresentations(t *testing.T) {
	a := alloc.NewSlab()
	ids := make([]uint32, 1500)
	for i := range ids {
		ids[i] = uint32(i * 3) //nolint:gosec // test fixture sizes are tiny
	}
	h, err := Create(a, ids)
	if err != nil {
		t.Fatalf("Create err = %v", err)
	}
	if h.Kind() != KindNode {
		t.Fatalf("fixture Kind() = %v, want Node", h.Kind())
	}
	for i := len(ids) - 1; i >= 0; i-- {
		next, rerr := Remove(a, h, ids[i])
		if rerr != nil {
			t.Fatalf("Remove(%d) err = %v", ids[i], rerr)
		}
		Release(a, h)
		h = next
		if Contains(h, ids[i]) {
			t.Fatalf("Contains(%d) = true immediately after Remove", ids[i])
		}
	}
	if h.Kind() != KindEmpty {
		t.Fatalf("after removing every id, Kind() = %v, want Empty", h.Kind())
	}
}

// TestRemoveCollapsesNodeToLeaf checks that shrinking a Node below the array
// threshold rebuilds it into a flat representation rather than leaving a
// sparsely populated trie behind.
func TestRemoveCollapsesNodeToLeaf(t *testing.T) {
	a := alloc.NewSlab()
	ids := make([]uint32, 1040)
	for i := range ids {
		ids[i] = uint32(i * 5) //nolint:gosec // test fixture sizes are tiny
	}
	h, _ := Create(a, ids)
	if h.Kind() != KindNode {
		t.Fatalf("fixture Kind() = %v, want Node", h.Kind())
	}
	// Remove enough ids to drop the total at or below maxArrayItemCount.
	for i := 0; i < 20; i++ {
		next, err := Remove(a, h, ids[i])
		if err != nil {
			t.Fatalf("Remove err = %v", err)
		}
		Release(a, h)
		h = next
	}
	if h.Kind() == KindNode {
		t.Fatal("Remove did not collapse the Node once the total dropped at or below the array threshold")
	}
	for i := 20; i < len(ids); i++ {
		if !Contains(h, ids[i]) {
			t.Fatalf("Contains(%d) = false after collapse", ids[i])
		}
	}
	if Count(h) != uint32(len(ids)-20) { //nolint:gosec // test fixture sizes are tiny
		t.Fatalf("Count = %d, want %d", Count(h), len(ids)-20)
	}
	Release(a, h)
}

func TestRemoveOnImmutableHandleClones(t *testing.T) {
	a := alloc.NewSlab()
	h, _ := Create(a, rangeIDs(0, 300)) // BitSet
	frozen := MakeImmutable(h)
	next, err := Remove(a, frozen, 150)
	if err != nil {
		t.Fatalf("Remove err = %v", err)
	}
	if !Contains(frozen, 150) {
		t.Fatal("Remove mutated an immutable handle in place")
	}
	if Contains(next, 150) {
		t.Fatal("Remove result still contains the removed id")
	}
	Release(a, frozen)
	Release(a, next)
}
