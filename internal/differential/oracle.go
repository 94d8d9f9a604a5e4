// Package differential wraps github.com/RoaringBitmap/roaring/v2 as a
// reference oracle for testing: an independent, battle-tested ordered
// uint32 set implementation to cross-check the package's own Add/Remove/
// Contains/stream-reader behavior against.
package differential

import "github.com/RoaringBitmap/roaring/v2"

// Oracle mirrors a sequence of Add/Remove calls against a roaring.Bitmap,
// giving tests an independent ground truth for the same operations.
type Oracle struct {
	bm *roaring.Bitmap
}

// NewOracle returns an Oracle seeded with ids.
func NewOracle(ids []uint32) *Oracle {
	o := &Oracle{bm: roaring.New()}
	for _, id := range ids {
		o.bm.Add(id)
	}
	return o
}

// Add mirrors an insertion, returning whether it changed membership.
func (o *Oracle) Add(id uint32) bool {
	return o.bm.CheckedAdd(id)
}

// Remove mirrors a removal, returning whether it changed membership.
func (o *Oracle) Remove(id uint32) bool {
	return o.bm.CheckedRemove(id)
}

// Contains reports oracle membership.
func (o *Oracle) Contains(id uint32) bool {
	return o.bm.Contains(id)
}

// Count returns the oracle's cardinality.
func (o *Oracle) Count() uint32 {
	return uint32(o.bm.GetCardinality()) //nolint:gosec // test-only, bounded by test fixture sizes
}

// Sorted returns every member, ascending.
func (o *Oracle) Sorted() []uint32 {
	return o.bm.ToArray()
}
