package leaf

import (
	"sort"
	"unsafe"

	"github.com/outpost-systems/idset/internal/alloc"
)

// array32HeaderSize is [refcount:u32][count:u32].
const array32HeaderSize = 8

// Array32Bytes returns the size in bytes of an Array32 block holding count items.
func Array32Bytes(count int) int {
	return array32HeaderSize + count*4
}

func array32Count(data []byte) uint32 {
	return *(*uint32)(unsafe.Pointer(&data[4])) //nolint:gosec // fixed block layout
}

func array32SetCount(data []byte, count uint32) {
	*(*uint32)(unsafe.Pointer(&data[4])) = count //nolint:gosec // fixed block layout
}

func array32Items(data []byte, count int) []uint32 {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[array32HeaderSize])), count) //nolint:gosec // fixed block layout
}

// Array32Count returns the number of items stored.
func Array32Count(data []byte) int {
	return int(array32Count(data))
}

// Array32At returns the item at index i.
func Array32At(data []byte, i int) uint32 {
	return array32Items(data, Array32Count(data))[i]
}

// Array32Max returns the last (largest) item.
func Array32Max(data []byte) uint32 {
	n := Array32Count(data)
	return Array32At(data, n-1)
}

// Array32Search returns the index of id, and whether it was found.
func Array32Search(data []byte, id uint32) (idx int, found bool) {
	items := array32Items(data, Array32Count(data))
	idx = sort.Search(len(items), func(i int) bool { return items[i] >= id })
	found = idx < len(items) && items[idx] == id
	return idx, found
}

// BuildArray32 allocates a new Array32 block from strictly ascending ids.
func BuildArray32(a alloc.Allocator, ids []uint32) (alloc.RawAddr, error) {
	addr, err := a.Allocate(Array32Bytes(len(ids)))
	if err != nil {
		return 0, err
	}
	data, _ := alloc.Resolve(addr)
	RefcountInit(data)
	array32SetCount(data, uint32(len(ids)))
	copy(array32Items(data, len(ids)), ids)
	return addr, nil
}

// Array32Splice builds a new Array32 with id inserted at idx (insert=true)
// or removed from idx (insert=false). existing may be a widened Array16.
func Array32Splice(a alloc.Allocator, existing []uint32, idx int, id uint32, insert bool) (alloc.RawAddr, error) {
	n := len(existing)
	var out []uint32
	if insert {
		out = make([]uint32, 0, n+1)
		out = append(out, existing[:idx]...)
		out = append(out, id)
		out = append(out, existing[idx:]...)
	} else {
		out = make([]uint32, 0, n-1)
		out = append(out, existing[:idx]...)
		out = append(out, existing[idx+1:]...)
	}
	return BuildArray32(a, out)
}
