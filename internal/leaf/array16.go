package leaf

import (
	"sort"
	"unsafe"

	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/simd"
)

// array16HeaderSize is [refcount:u32][count:u16][padding:u16].
const array16HeaderSize = 8

// Array16Bytes returns the size in bytes of an Array16 block holding count items.
func Array16Bytes(count int) int {
	return array16HeaderSize + count*2
}

func array16Count(data []byte) uint16 {
	return *(*uint16)(unsafe.Pointer(&data[4])) //nolint:gosec // fixed block layout
}

func array16SetCount(data []byte, count uint16) {
	*(*uint16)(unsafe.Pointer(&data[4])) = count //nolint:gosec // fixed block layout
}

func array16Items(data []byte, count int) []uint16 {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[array16HeaderSize])), count) //nolint:gosec // fixed block layout
}

// Array16Count returns the number of items stored.
func Array16Count(data []byte) int {
	return int(array16Count(data))
}

// Array16At returns the item at index i, widened to uint32.
func Array16At(data []byte, i int) uint32 {
	return uint32(array16Items(data, Array16Count(data))[i])
}

// Array16Max returns the last (largest) item.
func Array16Max(data []byte) uint32 {
	n := Array16Count(data)
	return Array16At(data, n-1)
}

// Array16Search returns the index of id, and whether it was found. If not
// found, idx is the insertion point that keeps the array ascending.
func Array16Search(data []byte, id uint32) (idx int, found bool) {
	items := array16Items(data, Array16Count(data))
	idx = sort.Search(len(items), func(i int) bool { return uint32(items[i]) >= id })
	found = idx < len(items) && uint32(items[idx]) == id
	return idx, found
}

// BuildArray16 allocates a new Array16 block from strictly ascending ids,
// all of which must be <= 65535.
func BuildArray16(a alloc.Allocator, ids []uint32) (alloc.RawAddr, error) {
	addr, err := a.Allocate(Array16Bytes(len(ids)))
	if err != nil {
		return 0, err
	}
	data, _ := alloc.Resolve(addr)
	RefcountInit(data)
	array16SetCount(data, uint16(len(ids)))
	items := array16Items(data, len(ids))
	for i, id := range ids {
		items[i] = uint16(id)
	}
	return addr, nil
}

// Array16Splice builds a new Array16 with id inserted at idx (insertion) or
// removed from idx (removal), depending on insert.
func Array16Splice(a alloc.Allocator, data []byte, idx int, id uint32, insert bool) (alloc.RawAddr, error) {
	n := Array16Count(data)
	items := array16Items(data, n)
	var out []uint32
	if insert {
		out = make([]uint32, 0, n+1)
		for i := 0; i < idx; i++ {
			out = append(out, uint32(items[i]))
		}
		out = append(out, id)
		for i := idx; i < n; i++ {
			out = append(out, uint32(items[i]))
		}
	} else {
		out = make([]uint32, 0, n-1)
		for i := 0; i < n; i++ {
			if i == idx {
				continue
			}
			out = append(out, uint32(items[i]))
		}
	}
	return BuildArray16(a, out)
}

// Array16Widened returns every item as a uint32 slice, ascending.
func Array16Widened(data []byte) []uint32 {
	n := Array16Count(data)
	items := array16Items(data, n)
	out := make([]uint32, n)
	simd.Widen16To32(out, items)
	return out
}
