package idset

import (
	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/leaf"
	"github.com/outpost-systems/idset/internal/node"
)

// TryAdd inserts id into the set h denotes, returning the resulting handle
// and whether the set actually changed. On failure it returns h unchanged
// alongside the error: a failed mutation never leaves a partially-applied
// change behind.
//
// The returned handle is always independent bookkeeping-wise from h: per
// the copy-on-write discipline, callers that want to discard h after a
// changed result must release it themselves (see Release); TryAdd never
// does so on their behalf, whether or not the new handle happens to share
// h's address.
func TryAdd(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	switch h.Kind() {
	case KindEmpty:
		return newHandle(KindInline1, encodeInline1(id)), true, nil
	case KindInline1, KindInline2, KindInline3, KindInline4:
		return tryAddInline(a, h, id)
	case KindArray16:
		return tryAddArray16(a, h, id)
	case KindArray32:
		return tryAddArray32(a, h, id)
	case KindBitSet:
		return tryAddBitSet(a, h, id)
	case KindNode:
		return tryAddNode(a, h, id)
	default:
		return h, false, nil
	}
}

// Add inserts id into the set h denotes. If id was already present, it
// returns an acquired copy of h (a second, independently releasable
// reference to the same set); otherwise it returns the new handle.
func Add(a alloc.Allocator, h Handle, id uint32) (Handle, error) {
	result, changed, err := TryAdd(a, h, id)
	if err != nil {
		return h, err
	}
	if !changed {
		return Acquire(h), nil
	}
	return result, nil
}

func tryAddInline(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	existing := unpackInline(h)
	idx := 0
	for idx < len(existing) && existing[idx] < id {
		idx++
	}
	if idx < len(existing) && existing[idx] == id {
		return h, false, nil
	}
	merged := make([]uint32, 0, len(existing)+1)
	merged = append(merged, existing[:idx]...)
	merged = append(merged, id)
	merged = append(merged, existing[idx:]...)
	newH, err := buildTree(a, merged)
	if err != nil {
		return h, false, err
	}
	return newH, true, nil
}

func spliceInsert(ids []uint32, idx int, id uint32) []uint32 {
	out := make([]uint32, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	out = append(out, ids[idx:]...)
	return out
}

func tryAddArray16(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	idx, found := leaf.Array16Search(data, id)
	if found {
		return h, false, nil
	}
	n := leaf.Array16Count(data)
	hi := id
	if n > 0 {
		if m := leaf.Array16Max(data); m > hi {
			hi = m
		}
	}
	switch choose(n+1, hi) {
	case KindBitSet:
		full := spliceInsert(leaf.Array16Widened(data), idx, id)
		addr, err := leaf.BuildBitSet(a, full)
		if err != nil {
			return h, false, wrapAllocErr("array16->bitset", err)
		}
		return newHandle(KindBitSet, uint64(addr)), true, nil
	case KindArray32:
		widened := leaf.Array16Widened(data)
		addr, err := leaf.Array32Splice(a, widened, idx, id, true)
		if err != nil {
			return h, false, wrapAllocErr("array16->array32", err)
		}
		return newHandle(KindArray32, uint64(addr)), true, nil
	case KindNode:
		widened := leaf.Array16Widened(data)
		before := append([]uint32(nil), widened[:idx]...)
		after := append([]uint32(nil), widened[idx:]...)
		newH, err := buildTreeFromReader(a, newSequenceReader(before, &id, after), n+1)
		if err != nil {
			return h, false, err
		}
		return newH, true, nil
	default: // KindArray16
		addr, err := leaf.Array16Splice(a, data, idx, id, true)
		if err != nil {
			return h, false, wrapAllocErr("array16 splice", err)
		}
		return newHandle(KindArray16, uint64(addr)), true, nil
	}
}

func tryAddArray32(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	idx, found := leaf.Array32Search(data, id)
	if found {
		return h, false, nil
	}
	n := leaf.Array32Count(data)
	hi := id
	if n > 0 {
		if m := leaf.Array32Max(data); m > hi {
			hi = m
		}
	}
	target := choose(n+1, hi)
	if target == KindNode {
		before := make([]uint32, idx)
		for i := 0; i < idx; i++ {
			before[i] = leaf.Array32At(data, i)
		}
		after := make([]uint32, n-idx)
		for i := idx; i < n; i++ {
			after[i-idx] = leaf.Array32At(data, i)
		}
		newH, err := buildTreeFromReader(a, newSequenceReader(before, &id, after), n+1)
		if err != nil {
			return h, false, err
		}
		return newH, true, nil
	}
	existing := make([]uint32, n)
	for i := 0; i < n; i++ {
		existing[i] = leaf.Array32At(data, i)
	}
	addr, err := leaf.Array32Splice(a, existing, idx, id, true)
	if err != nil {
		return h, false, wrapAllocErr("array32 splice", err)
	}
	return newHandle(KindArray32, uint64(addr)), true, nil
}

func tryAddBitSet(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	if id >= leaf.BitSetWindow {
		return createParentAndAdd(a, h, id)
	}
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	if leaf.BitSetContains(data, id) {
		return h, false, nil
	}
	if h.Immutable() {
		addr, err := leaf.BitSetClone(a, data)
		if err != nil {
			return h, false, wrapAllocErr("bitset clone", err)
		}
		clone, _ := alloc.Resolve(addr)
		leaf.BitSetSetBit(clone, id)
		return newHandle(KindBitSet, uint64(addr)), true, nil
	}
	leaf.BitSetSetBit(data, id)
	leaf.RefcountInc(data)
	return newHandle(KindBitSet, h.payload), true, nil
}

func tryAddNode(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	data, ok := alloc.Resolve(h.addr())
	if !ok {
		return h, false, nil
	}
	level := node.Level(data)
	slot, rel := node.Slot(level, id)
	if slot >= 16 {
		return createParentAndAdd(a, h, id)
	}
	childTag := node.ChildTag(data, slot)
	child := Handle{tag: childTag, payload: node.ChildPayload(data, slot)}
	newChild, changed, err := TryAdd(a, child, rel)
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
	node.SetTotalCount(targetData, node.TotalCount(targetData)+1)
	return newHandle(KindNode, uint64(targetAddr)), true, nil
}

// createParentAndAdd handles the case where id falls outside the range
// the current representation (a BitSet's 4096-wide window, or a Node's own
// 16-slot span) can address: it wraps the current tree as child 0 of a
// freshly built, larger node and performs the insertion there.
//
// The new node's level is chosen so that child 0 (the wrapped tree) stays
// validly addressed at slot 0 (Width(level) > existing max id) and so that
// id itself is addressable somewhere among the node's 16 slots
// (16*Width(level) > id). Because id always exceeds the current
// representation's whole range while existingMax never does, these two
// constraints guarantee id lands in a slot other than 0, so the insertion
// below always hits a previously-empty slot: a single Inline1, no further
// allocation or overflow possible.
func createParentAndAdd(a alloc.Allocator, h Handle, id uint32) (Handle, bool, error) {
	existingMax := handleMaxID(h)
	count := Count(h)
	level := node.LevelForMax(uint64(existingMax))
	for level < node.MaxLevel && 16*node.Width(level) <= uint64(id) {
		level++
	}
	addr, err := node.Build(a, level)
	if err != nil {
		return h, false, wrapAllocErr("create-parent-and-add", err)
	}
	data, _ := alloc.Resolve(addr)
	acquired := Acquire(h)
	node.SetChild(data, 0, acquired.tag, acquired.payload)
	node.SetTotalCount(data, count)

	parent := newHandle(KindNode, uint64(addr))
	result, _, err := tryAddNode(a, parent, id)
	if err != nil {
		return h, false, err
	}
	// parent is purely local to this call; release the reference tryAddNode
	// bumped (the mutable, in-place "acquire self" step) now that we are
	// about to hand result, and only result, to our own caller.
	Release(a, parent)
	return result, true, nil
}
