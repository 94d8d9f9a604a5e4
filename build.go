package idset

import (
	"sort"

	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/leaf"
	"github.com/outpost-systems/idset/internal/node"
)

// Create builds a handle containing exactly ids, which must be strictly
// ascending. The chooser picks the smallest representation that fits;
// Create never produces an intermediate representation the chooser would
// have rejected for the final (count, maxId) pair.
func Create(a alloc.Allocator, ids []uint32) (Handle, error) {
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return Empty, ErrNotAscending
		}
	}
	return buildTree(a, ids)
}

// buildTree builds a handle for ids (already 0-based, strictly ascending,
// relative to whatever base the caller is tracking).
func buildTree(a alloc.Allocator, ids []uint32) (Handle, error) {
	count := len(ids)
	if count == 0 {
		return Empty, nil
	}
	maxID := ids[count-1]
	switch choose(count, maxID) {
	case KindEmpty:
		return Empty, nil
	case KindInline1, KindInline2, KindInline3, KindInline4:
		return packInline(ids), nil
	case KindArray16:
		addr, err := leaf.BuildArray16(a, ids)
		if err != nil {
			return Handle{}, wrapAllocErr("build array16", err)
		}
		return newHandle(KindArray16, uint64(addr)), nil
	case KindArray32:
		addr, err := leaf.BuildArray32(a, ids)
		if err != nil {
			return Handle{}, wrapAllocErr("build array32", err)
		}
		return newHandle(KindArray32, uint64(addr)), nil
	case KindBitSet:
		addr, err := leaf.BuildBitSet(a, ids)
		if err != nil {
			return Handle{}, wrapAllocErr("build bitset", err)
		}
		return newHandle(KindBitSet, uint64(addr)), nil
	default: // KindNode
		return buildNode(a, ids, maxID)
	}
}

// buildTreeFromReader drains r (bounded; see stream.go's drain) and
// delegates to buildTree. Used by the splice-overflow and node-collapse
// rebuild paths, both of which only ever handle a bounded number of ids.
func buildTreeFromReader(a alloc.Allocator, r StreamReader, hint int) (Handle, error) {
	return buildTree(a, drain(r, hint))
}

// buildNode partitions ids (0-based, ascending, maxID == ids[len(ids)-1])
// across the minimal-level node's 16 slots and builds each non-empty
// child recursively.
func buildNode(a alloc.Allocator, ids []uint32, maxID uint32) (Handle, error) {
	level := node.LevelForPartition(uint64(maxID))
	addr, err := node.Build(a, level)
	if err != nil {
		return Handle{}, wrapAllocErr("build node", err)
	}
	data, _ := alloc.Resolve(addr)
	width := node.Width(level)

	start := 0
	for slot := 0; slot < 16 && start < len(ids); slot++ {
		boundary := uint64(slot+1) * width
		end := start + sort.Search(len(ids)-start, func(i int) bool {
			return uint64(ids[start+i]) >= boundary
		})
		if end > start {
			base := uint32(uint64(slot) * width) //nolint:gosec // bounded by invariant 6
			childIDs := make([]uint32, end-start)
			for i, id := range ids[start:end] {
				childIDs[i] = id - base
			}
			child, err := buildTree(a, childIDs)
			if err != nil {
				return Handle{}, err
			}
			node.SetChild(data, slot, child.tag, child.payload)
		}
		start = end
	}
	node.SetTotalCount(data, uint32(len(ids))) //nolint:gosec // len(ids) <= universe size
	return newHandle(KindNode, uint64(addr)), nil
}
