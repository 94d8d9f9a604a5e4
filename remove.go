package idset

import (
	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/leaf"
	"github.com/outpost-systems/idset/internal/node"
)

// TryRemove removes id from the set h denotes, returning the resulting
// handle and whether the set actually changed. On failure it returns h
// unchanged alongside the error.
//
// As with TryAdd, the returned handle is independent bookkeeping-wise from
// h: callers discarding h after a changed result must release it
// themselves.
func TryRemove(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	switch h.Kind() {
	case KindEmpty:
		return h, false, nil
	case KindInline1, KindInline2, KindInline3, KindInline4:
		return tryRemoveInline(a, h, id)
	case KindArray16:
		return tryRemoveArray16(a, h, id)
	case KindArray32:
		return tryRemoveArray32(a, h, id)
	case KindBitSet:
		return tryRemoveBitSet(a, h, id)
	case KindNode:
		return tryRemoveNode(a, h, id)
	default:
		return h, false, nil
	}
}

// Remove removes id from the set h denotes. If id was absent, it returns
// an acquired copy of h; otherwise it returns the new handle.
func Remove(a alloc.Allocator, h Handle, id uint32) (Handle, error) {
	result, changed, err := TryRemove(a, h, id)
	if err != nil {
		return h, err
	}
	if !changed {
		return Acquire(h), nil
	}
	return result, nil
}

func tryRemoveInline(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	existing := unpackInline(h)
	idx := -1
	for i, v := range existing {
		if v == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return h, false, nil
	}
	remaining := make([]uint32, 0, len(existing)-1)
	remaining = append(remaining, existing[:idx]...)
	remaining = append(remaining, existing[idx+1:]...)
	newH, err := buildTree(a, remaining)
	if err != nil {
		return h, false, err
	}
	return newH, true, nil
}

func tryRemoveArray16(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	idx, found := leaf.Array16Search(data, id)
	if !found {
		return h, false, nil
	}
	n := leaf.Array16Count(data)
	newCount := n - 1
	newMax := uint32(0)
	switch {
	case newCount == 0:
		// unused; choose(0, _) is Empty regardless
	case idx == n-1:
		newMax = leaf.Array16At(data, n-2)
	default:
		newMax = leaf.Array16Max(data)
	}
	if choose(newCount, newMax) == KindArray16 {
		addr, err := leaf.Array16Splice(a, data, idx, 0, false)
		if err != nil {
			return h, false, wrapAllocErr("array16 splice", err)
		}
		return newHandle(KindArray16, uint64(addr)), true, nil
	}
	widened := leaf.Array16Widened(data)
	remaining := make([]uint32, 0, newCount)
	remaining = append(remaining, widened[:idx]...)
	remaining = append(remaining, widened[idx+1:]...)
	newH, err := buildTree(a, remaining)
	if err != nil {
		return h, false, err
	}
	return newH, true, nil
}

func tryRemoveArray32(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	idx, found := leaf.Array32Search(data, id)
	if !found {
		return h, false, nil
	}
	n := leaf.Array32Count(data)
	newCount := n - 1
	newMax := uint32(0)
	switch {
	case newCount == 0:
	case idx == n-1:
		newMax = leaf.Array32At(data, n-2)
	default:
		newMax = leaf.Array32Max(data)
	}
	if choose(newCount, newMax) == KindArray32 {
		existing := make([]uint32, n)
		for i := 0; i < n; i++ {
			existing[i] = leaf.Array32At(data, i)
		}
		addr, err := leaf.Array32Splice(a, existing, idx, 0, false)
		if err != nil {
			return h, false, wrapAllocErr("array32 splice", err)
		}
		return newHandle(KindArray32, uint64(addr)), true, nil
	}
	remaining := make([]uint32, 0, newCount)
	for i := 0; i < n; i++ {
		if i == idx {
			continue
		}
		remaining = append(remaining, leaf.Array32At(data, i))
	}
	newH, err := buildTree(a, remaining)
	if err != nil {
		return h, false, err
	}
	return newH, true, nil
}

func tryRemoveBitSet(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	if id >= leaf.BitSetWindow {
		return h, false, nil
	}
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	if !leaf.BitSetContains(data, id) {
		return h, false, nil
	}
	newCount := leaf.BitSetCount(data) - 1
	// every BitSet-origin max id is < BitSetWindow already, so using the
	// window's own ceiling here as a stand-in for the true remaining max
	// decides exactly the same target kind choose would with the real
	// value: the BitSet-vs-array branch only checks maxID < BitSetWindow
	// (always true either way), and every kind choose can fall back to
	// below BitSet accepts any maxID under that ceiling.
	if choose(newCount, leaf.BitSetWindow-1) == KindBitSet {
		if h.Immutable() {
			addr, err := leaf.BitSetClone(a, data)
			if err != nil {
				return h, false, wrapAllocErr("bitset clone", err)
			}
			clone, _ := alloc.Resolve(addr)
			leaf.BitSetClearBit(clone, id)
			return newHandle(KindBitSet, uint64(addr)), true, nil
		}
		leaf.BitSetClearBit(data, id)
		leaf.RefcountInc(data)
		return newHandle(KindBitSet, h.payload), true, nil
	}
	ids := leaf.BitSetCollect(data)
	remaining := make([]uint32, 0, newCount)
	for _, v := range ids {
		if v != id {
			remaining = append(remaining, v)
		}
	}
	newH, err := buildTree(a, remaining)
	if err != nil {
		return h, false, err
	}
	return newH, true, nil
}

func tryRemoveNode(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	level := node.Level(data)
	slot, rel := node.Slot(level, id)
	if slot >= 16 {
		return h, false, nil
	}
	childTag := node.ChildTag(data, slot)
	if Kind(childTag&kindMask) == KindEmpty {
		return h, false, nil
	}
	child := Handle{tag: childTag, payload: node.ChildPayload(data, slot)}
	newChild, changed, err := TryRemove(a, child, rel)
	if err != nil {
		return h, false, err
	}
	if !changed {
		return h, false, nil
	}

	var targetAddr alloc.RawAddr
	var targetData []byte
	if h.Immutable() {
		addr, err := node.CloneShallow(a, data)
		if err != nil {
			return h, false, wrapAllocErr("node clone", err)
		}
		cloneData, _ := alloc.Resolve(addr)
		acquireChildren(cloneData)
		targetAddr, targetData = addr, cloneData
	} else {
		node.RefcountInc(data)
		targetAddr, targetData = h.addr(), data
	}

	Release(a, child)
	node.SetChild(targetData, slot, newChild.tag, newChild.payload)
	newTotal := node.TotalCount(targetData) - 1
	node.SetTotalCount(targetData, newTotal)

	if newTotal <= maxArrayItemCount {
		nodeHandle := newHandle(KindNode, uint64(targetAddr))
		flatIDs := drain(StreamReaderFor(nodeHandle), int(newTotal))
		if flat, ferr := buildTree(a, flatIDs); ferr == nil {
			Release(a, nodeHandle)
			return flat, true, nil
		}
		return nodeHandle, true, nil
	}
	return newHandle(KindNode, uint64(targetAddr)), true, nil
}
