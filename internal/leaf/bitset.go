package leaf

import (
	"math/bits"
	"unsafe"

	"github.com/outpost-systems/idset/internal/alloc"
)

// BitSetWindow is the number of values a BitSet leaf can represent (its
// local window, always [0, BitSetWindow)).
const BitSetWindow = 4096

const bitSetWords = BitSetWindow / 64

// bitSetHeaderSize is [refcount:u32][count:u32]; bits follow as 64 x u64.
const bitSetHeaderSize = 8

// BitSetBytes is the fixed size in bytes of a BitSet block: 8 + 512.
const BitSetBytes = bitSetHeaderSize + bitSetWords*8

func bitSetCount(data []byte) uint32 {
	return *(*uint32)(unsafe.Pointer(&data[4])) //nolint:gosec // fixed block layout
}

func bitSetSetCount(data []byte, count uint32) {
	*(*uint32)(unsafe.Pointer(&data[4])) = count //nolint:gosec // fixed block layout
}

func bitSetWordsView(data []byte) []uint64 {
	return unsafe.Slice((*uint64)(unsafe.Pointer(&data[bitSetHeaderSize])), bitSetWords) //nolint:gosec // fixed block layout
}

// BitSetCount returns the number of set bits.
func BitSetCount(data []byte) int {
	return int(bitSetCount(data))
}

// BitSetContains reports whether id (< BitSetWindow) is set.
func BitSetContains(data []byte, id uint32) bool {
	if id >= BitSetWindow {
		return false
	}
	words := bitSetWordsView(data)
	return words[id/64]&(uint64(1)<<(id%64)) != 0
}

// BuildBitSet allocates a new BitSet block from ascending ids, all < BitSetWindow.
func BuildBitSet(a alloc.Allocator, ids []uint32) (alloc.RawAddr, error) {
	addr, err := a.Allocate(BitSetBytes)
	if err != nil {
		return 0, err
	}
	data, _ := alloc.Resolve(addr)
	RefcountInit(data)
	words := bitSetWordsView(data)
	for _, id := range ids {
		words[id/64] |= uint64(1) << (id % 64)
	}
	bitSetSetCount(data, uint32(len(ids)))
	return addr, nil
}

// BitSetSetBit sets id in place and returns true if it was already set.
// Caller must already own exclusive mutation rights (refcount==1, not immutable).
func BitSetSetBit(data []byte, id uint32) (alreadySet bool) {
	words := bitSetWordsView(data)
	mask := uint64(1) << (id % 64)
	w := id / 64
	if words[w]&mask != 0 {
		return true
	}
	words[w] |= mask
	bitSetSetCount(data, bitSetCount(data)+1)
	return false
}

// BitSetClearBit clears id in place and returns true if it had been set.
func BitSetClearBit(data []byte, id uint32) (wasSet bool) {
	words := bitSetWordsView(data)
	mask := uint64(1) << (id % 64)
	w := id / 64
	if words[w]&mask == 0 {
		return false
	}
	words[w] &^= mask
	bitSetSetCount(data, bitSetCount(data)-1)
	return true
}

// BitSetClone allocates an independent copy of data's BitSet block.
func BitSetClone(a alloc.Allocator, data []byte) (alloc.RawAddr, error) {
	addr, err := a.Allocate(BitSetBytes)
	if err != nil {
		return 0, err
	}
	clone, _ := alloc.Resolve(addr)
	RefcountInit(clone)
	copy(clone[bitSetHeaderSize:], data[bitSetHeaderSize:])
	bitSetSetCount(clone, bitSetCount(data))
	return addr, nil
}

// BitSetCollect returns every set bit, ascending, via trailing-zero scan.
func BitSetCollect(data []byte) []uint32 {
	words := bitSetWordsView(data)
	out := make([]uint32, 0, bitSetCount(data))
	for w, word := range words {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, uint32(w*64+b))
			word &= word - 1
		}
	}
	return out
}

// BitSetRead pulls up to len(dst) ascending ids starting at bit offset
// *cursor, advancing *cursor past what it returned. Used by the BitSet
// stream reader to scan without materializing the full set.
func BitSetRead(data []byte, cursor *int, dst []uint32) int {
	words := bitSetWordsView(data)
	n := 0
	for n < len(dst) {
		w := *cursor / 64
		if w >= bitSetWords {
			break
		}
		word := words[w] >> (uint(*cursor) % 64)
		if word == 0 {
			*cursor = (w + 1) * 64
			continue
		}
		b := bits.TrailingZeros64(word)
		id := *cursor + b
		dst[n] = uint32(id)
		n++
		*cursor = id + 1
	}
	return n
}
