package idset

import (
	"github.com/outpost-systems/idset/internal/alloc"
	"github.com/outpost-systems/idset/internal/leaf"
	"github.com/outpost-systems/idset/internal/node"
)

// StreamReader is a pull-based, single-pass, ascending source of ids.
// Read writes up to len(dst) ids into dst and returns how many it wrote;
// 0 means exhaustion. Readers are not restartable.
type StreamReader interface {
	Read(dst []uint32) int
}

// StreamReaderFor returns a fresh StreamReader over every id contains(h, _)
// reports true for, ascending.
func StreamReaderFor(h Handle) StreamReader {
	switch h.Kind() {
	case KindEmpty:
		return &sliceReader{}
	case KindInline1, KindInline2, KindInline3, KindInline4:
		return &sliceReader{ids: unpackInline(h)}
	case KindArray16:
		data, _ := alloc.Resolve(h.addr())
		return &array16Reader{data: data}
	case KindArray32:
		data, _ := alloc.Resolve(h.addr())
		return &array32Reader{data: data}
	case KindBitSet:
		data, _ := alloc.Resolve(h.addr())
		return &bitsetReader{data: data}
	case KindNode:
		data, _ := alloc.Resolve(h.addr())
		return &nodeReader{data: data}
	default:
		return &sliceReader{}
	}
}

// sliceReader reads from an in-memory ascending slice: the "external
// array" reader, and the building block sequenceReader composes.
type sliceReader struct {
	ids []uint32
	pos int
}

func (r *sliceReader) Read(dst []uint32) int {
	n := copy(dst, r.ids[r.pos:])
	r.pos += n
	return n
}

type array16Reader struct {
	data []byte
	idx  int
}

func (r *array16Reader) Read(dst []uint32) int {
	n := leaf.Array16Count(r.data)
	total := 0
	for total < len(dst) && r.idx < n {
		dst[total] = leaf.Array16At(r.data, r.idx)
		r.idx++
		total++
	}
	return total
}

type array32Reader struct {
	data []byte
	idx  int
}

func (r *array32Reader) Read(dst []uint32) int {
	n := leaf.Array32Count(r.data)
	total := 0
	for total < len(dst) && r.idx < n {
		dst[total] = leaf.Array32At(r.data, r.idx)
		r.idx++
		total++
	}
	return total
}

type bitsetReader struct {
	data   []byte
	cursor int
}

func (r *bitsetReader) Read(dst []uint32) int {
	return leaf.BitSetRead(r.data, &r.cursor, dst)
}

// offsetReader adds a fixed base to every id an inner reader produces; it
// is how nodeReader turns a child's slot-relative ids back into logical
// ids while walking.
type offsetReader struct {
	inner  StreamReader
	offset uint32
}

func (r *offsetReader) Read(dst []uint32) int {
	n := r.inner.Read(dst)
	for i := 0; i < n; i++ {
		dst[i] += r.offset
	}
	return n
}

// nodeReader recurses through a Node's 16 children in order, adding each
// slot's base offset back in.
type nodeReader struct {
	data []byte
	slot int
	cur  StreamReader
}

func (r *nodeReader) Read(dst []uint32) int {
	total := 0
	for total < len(dst) {
		if r.cur == nil {
			if r.slot >= 16 {
				break
			}
			tag := node.ChildTag(r.data, r.slot)
			if Kind(tag&kindMask) == KindEmpty {
				r.slot++
				continue
			}
			payload := node.ChildPayload(r.data, r.slot)
			child := Handle{tag: tag & kindMask, payload: payload}
			offset := uint32(uint64(r.slot) * node.Width(node.Level(r.data))) //nolint:gosec // bounded by invariant 6
			r.cur = &offsetReader{inner: StreamReaderFor(child), offset: offset}
			r.slot++
		}
		n := r.cur.Read(dst[total:])
		if n == 0 {
			r.cur = nil
			continue
		}
		total += n
	}
	return total
}

// sequenceReader concatenates an optional before-slice, an optional single
// id, and an optional after-slice: the splice-style reader insertion uses
// when an id must be threaded into an existing ascending run without
// materializing a combined slice up front.
type sequenceReader struct {
	parts []StreamReader
	idx   int
}

func newSequenceReader(before []uint32, id *uint32, after []uint32) StreamReader {
	parts := make([]StreamReader, 0, 3)
	if len(before) > 0 {
		parts = append(parts, &sliceReader{ids: before})
	}
	if id != nil {
		parts = append(parts, &sliceReader{ids: []uint32{*id}})
	}
	if len(after) > 0 {
		parts = append(parts, &sliceReader{ids: after})
	}
	return &sequenceReader{parts: parts}
}

func (r *sequenceReader) Read(dst []uint32) int {
	total := 0
	for total < len(dst) && r.idx < len(r.parts) {
		n := r.parts[r.idx].Read(dst[total:])
		if n == 0 {
			r.idx++
			continue
		}
		total += n
	}
	return total
}

// drain fully materializes a StreamReader's remaining ids. Used by the
// bounded internal rebuilds (splice overflow, node-to-leaf collapse) where
// the total is already known to be small (<= maxArrayItemCount + 1), so
// buffering the whole run costs nothing a stack buffer would have saved.
func drain(r StreamReader, hint int) []uint32 {
	out := make([]uint32, 0, hint)
	var buf [256]uint32
	for {
		n := r.Read(buf[:])
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}
