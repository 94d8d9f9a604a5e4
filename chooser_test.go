package idset

import "testing"

func TestChooseBoundaries(t *testing.T) {
	cases := []struct {
		count int
		maxID uint32
		want  Kind
	}{
		{0, 0, KindEmpty},
		{1, 5, KindInline1},
		{2, 5, KindInline2},
		{3, maxInline3, KindInline3},
		{3, maxInline3 + 1, KindArray32},
		{4, maxInline16, KindInline4},
		{4, maxInline16 + 1, KindArray32},
		{255, 255, KindArray16},
		{256, 255, KindBitSet},
		{256, 4095, KindBitSet},
		{256, 4096, KindArray16},
		{1024, 65535, KindArray16},
		{1024, 65536, KindArray32},
		{1025, 70000, KindNode},
	}
	for _, c := range cases {
		got := choose(c.count, c.maxID)
		if got != c.want {
			t.Errorf("choose(%d, %d) = %v, want %v", c.count, c.maxID, got, c.want)
		}
	}
}

func TestChooseHysteresisAtBitSetBoundary(t *testing.T) {
	// count == 256, maxID == 255 intentionally prefers BitSet even though
	// Array16 would be the smaller representation at that exact point.
	if got := choose(256, 255); got != KindBitSet {
		t.Fatalf("choose(256, 255) = %v, want BitSet (intentional hysteresis)", got)
	}
}
