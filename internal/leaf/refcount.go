// Package leaf implements the three heap-allocated leaf representations:
// Array16 (sorted uint16 offsets), Array32 (sorted uint32 offsets), and
// BitSet (a fixed 4096-bit window). Every block starts with a 4-byte
// refcount header at offset 0, atomically updated exactly like the
// teacher arena's chunk offset field.
package leaf

import (
	"sync/atomic"
	"unsafe"
)

func refcountPtr(data []byte) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&data[0])) //nolint:gosec // block header layout is fixed by design
}

// RefcountLoad returns the current refcount.
func RefcountLoad(data []byte) uint32 {
	return refcountPtr(data).Load()
}

// RefcountInc atomically increments the refcount and returns the new value.
func RefcountInc(data []byte) uint32 {
	return refcountPtr(data).Add(1)
}

// RefcountDec atomically decrements the refcount and returns the new value.
func RefcountDec(data []byte) uint32 {
	return refcountPtr(data).Add(^uint32(0))
}

// RefcountInit sets the initial refcount of a freshly allocated block to 1.
func RefcountInit(data []byte) {
	refcountPtr(data).Store(1)
}
