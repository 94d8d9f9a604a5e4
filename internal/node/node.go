// Package node implements the 16-way trie node: the representation a set
// transitions into once no leaf (Array16, Array32, BitSet) can hold its
// id range densely enough. A node partitions the 32-bit universe into 16
// equal slots and routes each id to the slot, and relative id, it falls
// under; slots hold any representation recursively, including further
// nodes.
package node

import (
	"sync/atomic"
	"unsafe"

	"github.com/outpost-systems/idset/internal/alloc"
)

// BaseWidth is W(0), the width of a level-0 node's slots.
const BaseWidth = 4096

// MaxLevel is the highest level a node can hold: W(MaxLevel) == 2^32, so a
// level-5 node's single reachable slot (slot 0, since every 32-bit id
// divided by 2^32 is 0) spans the entire universe.
const MaxLevel = 5

const numSlots = 16

// Bytes is the fixed size of every node block:
// [level:u8,refcount:u24][totalCount:u32][childTags:u8x16][childPayloads:u64x16].
const Bytes = wordSize + totalCountSize + numSlots + numSlots*8

const (
	wordSize       = 4
	totalCountSize = 4
	tagsOffset     = wordSize + totalCountSize
	payloadsOffset = tagsOffset + numSlots
)

// Width returns W(level) = 4096 * 16^level = 2^(12 + 4*level).
func Width(level int) uint64 {
	return uint64(BaseWidth) << uint(4*level) //nolint:gosec // level is always in [0, MaxLevel]
}

// LevelForMax returns the smallest level L such that Width(L) > maxID,
// i.e. the minimal node level whose slot 0 alone can hold every id up to
// maxID. Used when an existing tree
// must be parked whole in a single slot (e.g. createParentAndAdd's
// wrapped child 0), where the whole tree's range has to fit under one
// slot's width.
func LevelForMax(maxID uint64) int {
	level := 0
	for level < MaxLevel && Width(level) <= maxID {
		level++
	}
	return level
}

// LevelForPartition returns the smallest level L such that
// 16*Width(L) > maxID, i.e. the minimal node level whose 16 slots
// jointly span maxID. Used when building a node from scratch to
// partition ids across its slots: LevelForMax would instead pick a
// level whose single slot already covers maxID, routing every id into
// slot 0 and recursing forever on the identical (count, maxID) pair.
func LevelForPartition(maxID uint64) int {
	level := 0
	for level < MaxLevel && 16*Width(level) <= maxID {
		level++
	}
	return level
}

// Slot returns which of a level's 16 slots id falls into, and id's value
// relative to that slot's base.
func Slot(level int, id uint32) (slot int, rel uint32) {
	w := Width(level)
	s := uint64(id) / w
	return int(s), uint32(uint64(id) - s*w) //nolint:gosec // s*w <= id < 2^32
}

func word(data []byte) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&data[0])) //nolint:gosec // fixed block layout
}

// Level returns the node's level, 0..MaxLevel.
func Level(data []byte) int {
	return int(word(data).Load() & 0xFF)
}

// RefcountLoad returns the current refcount.
func RefcountLoad(data []byte) uint32 {
	return word(data).Load() >> 8
}

// RefcountInc atomically increments the refcount (leaving level untouched)
// and returns the new value.
func RefcountInc(data []byte) uint32 {
	return word(data).Add(1 << 8) >> 8
}

// RefcountDec atomically decrements the refcount and returns the new value.
func RefcountDec(data []byte) uint32 {
	return word(data).Add(^uint32(1<<8 - 1)) >> 8
}

func setLevelAndRefcount(data []byte, level int, refcount uint32) {
	word(data).Store(uint32(level) | refcount<<8) //nolint:gosec // level < 256
}

func totalCountPtr(data []byte) *uint32 {
	return (*uint32)(unsafe.Pointer(&data[wordSize])) //nolint:gosec // fixed block layout
}

// TotalCount returns the sum of counts across all 16 slots.
func TotalCount(data []byte) uint32 {
	return *totalCountPtr(data)
}

// SetTotalCount overwrites the cached total count.
func SetTotalCount(data []byte, count uint32) {
	*totalCountPtr(data) = count
}

func tagsView(data []byte) []uint8 {
	return unsafe.Slice((*uint8)(unsafe.Pointer(&data[tagsOffset])), numSlots) //nolint:gosec // fixed block layout
}

func payloadsView(data []byte) []uint64 {
	return unsafe.Slice((*uint64)(unsafe.Pointer(&data[payloadsOffset])), numSlots) //nolint:gosec // fixed block layout
}

// ChildTag returns the raw tag byte stored for slot. Opaque to this
// package: the caller (idset) owns the tag encoding.
func ChildTag(data []byte, slot int) uint8 {
	return tagsView(data)[slot]
}

// ChildPayload returns the raw payload word stored for slot.
func ChildPayload(data []byte, slot int) uint64 {
	return payloadsView(data)[slot]
}

// SetChild overwrites both the tag and payload for slot.
func SetChild(data []byte, slot int, tag uint8, payload uint64) {
	tagsView(data)[slot] = tag
	payloadsView(data)[slot] = payload
}

// Build allocates a fresh node at level, every slot empty, totalCount 0,
// refcount 1.
func Build(a alloc.Allocator, level int) (alloc.RawAddr, error) {
	addr, err := a.Allocate(Bytes)
	if err != nil {
		return 0, err
	}
	data, _ := alloc.Resolve(addr)
	setLevelAndRefcount(data, level, 1)
	return addr, nil
}

// CloneShallow duplicates a node block byte-for-byte: same level,
// totalCount, child tags and payloads, fresh refcount of 1. It does NOT
// acquire the duplicated children — per the spec's deep-shallow-copy rule,
// the caller must acquire every child handle itself, since only the
// top-level package's dispatch knows how to acquire each child's
// representation.
func CloneShallow(a alloc.Allocator, data []byte) (alloc.RawAddr, error) {
	addr, err := a.Allocate(Bytes)
	if err != nil {
		return 0, err
	}
	clone, _ := alloc.Resolve(addr)
	copy(clone, data)
	setLevelAndRefcount(clone, Level(data), 1)
	return addr, nil
}
