package idset

import (
	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/leaf"
	"github.com/outpost-systems/idset/internal/node"
)

// blockOverhead is the per-block bookkeeping cost estimate_memory_consumption
// adds on top of each heap block's own byte size.
const blockOverhead = 32

// Contains reports whether id is a member of the set h denotes.
func Contains(h Handle, id uint32) bool {
	switch h.Kind() {
	case KindEmpty:
		return false
	case KindInline1:
		return decodeInline1(h.payload) == id
	case KindInline2:
		a, b := decodeInline2(h.payload)
		return a == id || b == id
	case KindInline3:
		a, b, c := decodeInline3(h.payload)
		return a == id || b == id || c == id
	case KindInline4:
		a, b, c, d := decodeInline4(h.payload)
		return a == id || b == id || c == id || d == id
	case KindArray16:
		if id > maxInline16 {
			return false
		}
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return false
		}
		_, found := leaf.Array16Search(data, id)
		return found
	case KindArray32:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return false
		}
		_, found := leaf.Array32Search(data, id)
		return found
	case KindBitSet:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return false
		}
		return leaf.BitSetContains(data, id)
	case KindNode:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return false
		}
		level := node.Level(data)
		slot, rel := node.Slot(level, id)
		if slot >= 16 {
			return false
		}
		tag := node.ChildTag(data, slot)
		child := Handle{tag: tag, payload: node.ChildPayload(data, slot)}
		return Contains(child, rel)
	default:
		return false
	}
}

// Count returns the number of distinct ids h denotes.
func Count(h Handle) uint32 {
	switch h.Kind() {
	case KindEmpty:
		return 0
	case KindInline1:
		return 1
	case KindInline2:
		return 2
	case KindInline3:
		return 3
	case KindInline4:
		return 4
	case KindArray16:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return 0
		}
		return uint32(leaf.Array16Count(data)) //nolint:gosec // bounded by maxArrayItemCount
	case KindArray32:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return 0
		}
		return uint32(leaf.Array32Count(data)) //nolint:gosec // bounded by maxArrayItemCount
	case KindBitSet:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return 0
		}
		return uint32(leaf.BitSetCount(data)) //nolint:gosec // bounded by leaf.BitSetWindow
	case KindNode:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return 0
		}
		return node.TotalCount(data)
	default:
		return 0
	}
}

// Acquire increments the refcount of h's backing block, if any, and
// returns h unchanged. Inline and Empty handles have no lifecycle cost.
func Acquire(h Handle) Handle {
	switch h.Kind() {
	case KindArray16, KindArray32, KindBitSet:
		if data, ok := alloc.Resolve(h.addr()); ok {
			leaf.RefcountInc(data)
		}
	case KindNode:
		if data, ok := alloc.Resolve(h.addr()); ok {
			node.RefcountInc(data)
		}
	}
	return h
}

// Release decrements the refcount of h's backing block, if any. On
// reaching zero it recursively releases every child (Node) and frees the
// block. Inline and Empty handles have no lifecycle cost.
func Release(a alloc.Allocator, h Handle) {
	switch h.Kind() {
	case KindArray16, KindArray32, KindBitSet:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return
		}
		if leaf.RefcountDec(data) == 0 {
			a.Free(h.addr())
		}
	case KindNode:
		addr := h.addr()
		data, ok := alloc.Resolve(addr)
		if !ok {
			return
		}
		if node.RefcountDec(data) == 0 {
			releaseChildren(a, data)
			a.Free(addr)
		}
	}
}

func releaseChildren(a alloc.Allocator, data []byte) {
	for slot := 0; slot < 16; slot++ {
		tag := node.ChildTag(data, slot)
		if Kind(tag&kindMask) == KindEmpty {
			continue
		}
		child := Handle{tag: tag, payload: node.ChildPayload(data, slot)}
		Release(a, child)
	}
}

// MakeImmutable returns h with the immutability bit set. For a Node
// handle it also walks every reachable child tag byte (in this node and,
// recursively, in every descendant Node) and sets its immutability bit in
// place: every mutating operation checks the tag byte belonging to the
// thing it is about to mutate (the root Handle itself, or a child's tag
// byte stored in its parent's childTags table), so propagation has to
// reach every such byte, not just descendant Nodes' own handles.
func MakeImmutable(h Handle) Handle {
	if h.Kind() == KindNode {
		if data, ok := alloc.Resolve(h.addr()); ok {
			markChildrenImmutable(data)
		}
	}
	h.tag |= immutableBit
	return h
}

func markChildrenImmutable(data []byte) {
	for slot := 0; slot < 16; slot++ {
		tag := node.ChildTag(data, slot)
		if Kind(tag&kindMask) == KindEmpty || tag&immutableBit != 0 {
			continue
		}
		payload := node.ChildPayload(data, slot)
		node.SetChild(data, slot, tag|immutableBit, payload)
		if Kind(tag&kindMask) == KindNode {
			if childData, ok := alloc.Resolve(alloc.RawAddr(payload)); ok {
				markChildrenImmutable(childData)
			}
		}
	}
}

// acquireChildren increments the refcount of every non-empty child stored
// in a node block. Used when deep-shallow-copying a node under an
// immutable parent: the clone and the original both end up owning every
// unchanged child.
func acquireChildren(data []byte) {
	for slot := 0; slot < 16; slot++ {
		tag := node.ChildTag(data, slot)
		if Kind(tag&kindMask) == KindEmpty {
			continue
		}
		Acquire(Handle{tag: tag, payload: node.ChildPayload(data, slot)})
	}
}

// handleMaxID returns the largest id h denotes. Only meaningful for
// non-empty handles; callers must know h is non-empty before calling it
// (every call site in this package does, since it backs the
// create-parent-and-add overflow path, which only ever wraps a tree that
// already holds at least one id).
func handleMaxID(h Handle) uint32 {
	switch h.Kind() {
	case KindInline1:
		return decodeInline1(h.payload)
	case KindInline2:
		_, b := decodeInline2(h.payload)
		return b
	case KindInline3:
		_, _, c := decodeInline3(h.payload)
		return c
	case KindInline4:
		_, _, _, d := decodeInline4(h.payload)
		return d
	case KindArray16:
		data, _ := alloc.Resolve(h.addr())
		return leaf.Array16Max(data)
	case KindArray32:
		data, _ := alloc.Resolve(h.addr())
		return leaf.Array32Max(data)
	case KindBitSet:
		data, _ := alloc.Resolve(h.addr())
		ids := leaf.BitSetCollect(data)
		return ids[len(ids)-1]
	case KindNode:
		data, _ := alloc.Resolve(h.addr())
		level := node.Level(data)
		width := node.Width(level)
		for slot := 15; slot >= 0; slot-- {
			tag := node.ChildTag(data, slot)
			if Kind(tag&kindMask) == KindEmpty {
				continue
			}
			child := Handle{tag: tag, payload: node.ChildPayload(data, slot)}
			base := uint32(uint64(slot) * width) //nolint:gosec // bounded by invariant 6
			return base + handleMaxID(child)
		}
		return 0
	default:
		return 0
	}
}

// EstimateMemoryConsumption returns the bytes occupied by h's heap blocks,
// each charged blockOverhead on top of its own size, recursively through
// Node children. Inline and Empty handles cost nothing.
func EstimateMemoryConsumption(h Handle) uint64 {
	switch h.Kind() {
	case KindArray16:
		if data, ok := alloc.Resolve(h.addr()); ok {
			return uint64(leaf.Array16Bytes(leaf.Array16Count(data))) + blockOverhead
		}
		return 0
	case KindArray32:
		if data, ok := alloc.Resolve(h.addr()); ok {
			return uint64(leaf.Array32Bytes(leaf.Array32Count(data))) + blockOverhead
		}
		return 0
	case KindBitSet:
		return leaf.BitSetBytes + blockOverhead
	case KindNode:
		data, ok := alloc.Resolve(h.addr())
		if !ok {
			return 0
		}
		total := uint64(node.Bytes) + blockOverhead
		for slot := 0; slot < 16; slot++ {
			tag := node.ChildTag(data, slot)
			if Kind(tag&kindMask) == KindEmpty {
				continue
			}
			child := Handle{tag: tag, payload: node.ChildPayload(data, slot)}
			total += EstimateMemoryConsumption(child)
		}
		return total
	default:
		return 0
	}
}
