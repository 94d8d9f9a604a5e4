package idset

import (
	"testing"

	"github.com/outpost-systems/idset/internal/alloc"
)

func TestCreateRejectsNonAscending(t *testing.T) {
	a := alloc.NewSlab()
	if _, err := Create(a, []uint32{5, 5}); err != ErrNotAscending {
		t.Fatalf("Create([5,5]) err = %v, want ErrNotAscending", err)
	}
	if _, err := Create(a, []uint32{5, 3}); err != ErrNotAscending {
		t.Fatalf("Create([5,3]) err = %v, want ErrNotAscending", err)
	}
}

func TestCreateEmpty(t *testing.T) {
	a := alloc.NewSlab()
	h, err := Create(a, nil)
	if err != nil {
		t.Fatalf("Create(nil) err = %v", err)
	}
	if h.Kind() != KindEmpty {
		t.Fatalf("Create(nil).Kind() = %v, want Empty", h.Kind())
	}
	if Count(h) != 0 {
		t.Fatalf("Count(Empty) = %d, want 0", Count(h))
	}
}

func TestCreateKindsAcrossRepresentations(t *testing.T) {
	cases := []struct {
		name string
		ids  []uint32
		want Kind
	}{
		{"inline1", []uint32{7}, KindInline1},
		{"inline2", []uint32{1, 2}, KindInline2},
		{"inline3", []uint32{1, 2, 3}, KindInline3},
		{"inline4", []uint32{1, 2, 3, 4}, KindInline4},
		{"array16", []uint32{10, 20, 30, 40, 5000}, KindArray16},
		{"array32", append(rangeIDs(0, 5), 70000), KindArray32},
		{"bitset", rangeIDs(0, 300), KindBitSet},
		{"node", spacedIDs(2000, 10), KindNode},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := alloc.NewSlab()
			h, err := Create(a, c.ids)
			if err != nil {
				t.Fatalf("Create(%s) err = %v", c.name, err)
			}
			if h.Kind() != c.want {
				t.Fatalf("Create(%s).Kind() = %v, want %v", c.name, h.Kind(), c.want)
			}
			if got := Count(h); got != uint32(len(c.ids)) { //nolint:gosec // test fixture sizes are tiny
				t.Fatalf("Count(%s) = %d, want %d", c.name, got, len(c.ids))
			}
			for _, id := range c.ids {
				if !Contains(h, id) {
					t.Fatalf("%s: Contains(%d) = false, want true", c.name, id)
				}
			}
			if Contains(h, c.ids[len(c.ids)-1]+1_000_000) {
				t.Fatalf("%s: Contains(absent far id) = true, want false", c.name)
			}
			Release(a, h)
		})
	}
}

func TestCreateNodeSpansMultipleSlots(t *testing.T) {
	a := alloc.NewSlab()
	// A dense low run pushes count past the Node threshold; a handful of
	// widely separated high ids force the node to span several of its
	// 16 top-level slots rather than collapsing into one.
	ids := rangeIDs(0, 1030)
	wide := []uint32{1_000_000, 2_000_000, 3_000_000}
	ids = append(ids, wide...)
	h, err := Create(a, ids)
	if err != nil {
		t.Fatalf("Create err = %v", err)
	}
	if h.Kind() != KindNode {
		t.Fatalf("Create(wide sparse ids).Kind() = %v, want Node", h.Kind())
	}
	for _, id := range ids {
		if !Contains(h, id) {
			t.Fatalf("Contains(%d) = false, want true", id)
		}
	}
	if Contains(h, 123_456_789) {
		t.Fatal("Contains(unrelated id) = true, want false")
	}
	if got := Count(h); got != uint32(len(ids)) { //nolint:gosec // test fixture sizes are tiny
		t.Fatalf("Count = %d, want %d", got, len(ids))
	}
	Release(a, h)
}

func rangeIDs(start, count int) []uint32 {
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		out[i] = uint32(start + i) //nolint:gosec // test fixture sizes are tiny
	}
	return out
}

// spacedIDs returns count strictly ascending ids, step apart, starting at 0.
func spacedIDs(count, step int) []uint32 {
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		out[i] = uint32(i * step) //nolint:gosec // test fixture sizes are tiny
	}
	return out
}
