// Package idset implements a persistent, reference-counted, ordered set
// of 32-bit unsigned integers that adapts its own representation to its
// contents: packed inline values for tiny sets, sorted arrays for
// moderate ones, a dense bitset window for dense small-valued runs, and a
// 16-way trie once a set outgrows any flat representation.
//
// # Handles
//
// Every operation works on a Handle, a 9-byte value (tag plus payload)
// callers copy freely. Create and every mutation return handles whose
// immutability bit is clear; an insertion or removal through such a
// handle may mutate the backing block directly as an optimization, so the
// old handle then observes the change too. Only a handle marked with
// MakeImmutable is guaranteed to be copied rather than edited. Callers that want
// to share a Handle across copies they intend to keep independently valid
// should call MakeImmutable first.
//
// Handles that reference a heap block are refcounted: Acquire takes a new
// reference, Release drops one and frees the block (and, for a Node,
// recursively releases its children) once the count reaches zero. Inline
// and Empty handles carry no heap state and cost nothing to acquire or
// release.
//
//	a := alloc.NewSlab()
//	h, _ := idset.Create(a, []uint32{1, 2, 3})
//	h, _ = idset.Add(a, h, 4)
//	idset.Contains(h, 4) // true
//	idset.Release(a, h)
//
// # Allocator
//
// idset never allocates outside the internal/alloc.Allocator a caller
// supplies: every mutating call takes one explicitly, and no handle ever
// stores a reference to the allocator that built it. Block addresses are
// resolved through internal/alloc's process-wide registry, which only the
// allocators in that package (such as Slab) populate.
//
// # Manager
//
// The free functions (Create, Add, Remove, Contains, Count, Acquire,
// Release, MakeImmutable, EstimateMemoryConsumption) are the primitive
// API. Manager wraps an Allocator with a Logger and a MetricsCollector for
// callers who want every mutation instrumented without threading those
// through each call site.
package idset
