package idset

import "testing"

func TestPackUnpackInlineRoundTrip(t *testing.T) {
	cases := [][]uint32{
		{},
		{7},
		{3, 900000},
		{1, 2, 2097151},
		{10, 20, 30, 65535},
	}
	for _, ids := range cases {
		h := packInline(ids)
		got := unpackInline(h)
		if len(ids) == 0 {
			if h.Kind() != KindEmpty {
				t.Fatalf("packInline(nil) = %v, want Empty", h.Kind())
			}
			continue
		}
		if len(got) != len(ids) {
			t.Fatalf("unpackInline(%v) = %v", ids, got)
		}
		for i := range ids {
			if got[i] != ids[i] {
				t.Fatalf("unpackInline(%v) = %v", ids, got)
			}
		}
	}
}

func TestHandleKindAndImmutableBit(t *testing.T) {
	h := newHandle(KindArray16, 42)
	if h.Kind() != KindArray16 {
		t.Fatalf("Kind() = %v, want Array16", h.Kind())
	}
	if h.Immutable() {
		t.Fatal("freshly built handle should not be immutable")
	}
	h2 := MakeImmutable(h)
	if !h2.Immutable() {
		t.Fatal("MakeImmutable did not set the bit")
	}
	if h2.Kind() != KindArray16 {
		t.Fatalf("MakeImmutable changed Kind() to %v", h2.Kind())
	}
	if h2.addr() != h.addr() {
		t.Fatal("MakeImmutable changed the address")
	}
}

func TestInline3And4RangeBoundaries(t *testing.T) {
	h3 := packInline([]uint32{0, 1, maxInline3})
	if a, b, c := decodeInline3(h3.payload); a != 0 || b != 1 || c != maxInline3 {
		t.Fatalf("Inline3 round-trip at boundary: got %d %d %d", a, b, c)
	}
	h4 := packInline([]uint32{0, 1, 2, maxInline16})
	if a, b, c, d := decodeInline4(h4.payload); a != 0 || b != 1 || c != 2 || d != maxInline16 {
		t.Fatalf("Inline4 round-trip at boundary: got %d %d %d %d", a, b, c, d)
	}
}
