package wipe

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// BadBlockTracker is a monotonic set of block indices that exhausted
// their retry budget. Once marked within a job a block stays marked for
// the job's remaining stages. The roaring bitmap keeps contiguous
// failure runs compressed, so bookkeeping stays sub-linear even at the
// 2^32 block cap.
type BadBlockTracker struct {
	bits *roaring.Bitmap
}

func NewBadBlockTracker() *BadBlockTracker {
	return &BadBlockTracker{bits: roaring.New()}
}

// Mark records index as bad. Idempotent.
func (t *BadBlockTracker) Mark(index uint32) {
	t.bits.Add(index)
}

func (t *BadBlockTracker) IsBad(index uint32) bool {
	return t.bits.Contains(index)
}

// Count returns the number of distinct marked indices.
func (t *BadBlockTracker) Count() uint64 {
	return t.bits.GetCardinality()
}

// BlockRange is a contiguous run of marked block indices, inclusive on
// both ends.
type BlockRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Ranges yields the marked indices as contiguous runs in ascending
// order. The sequence is recomputed from the bitmap on every call, so
// it can be restarted at any time.
func (t *BadBlockTracker) Ranges() iter.Seq[BlockRange] {
	return func(yield func(BlockRange) bool) {
		it := t.bits.Iterator()
		if !it.HasNext() {
			return
		}
		cur := BlockRange{Start: it.Next()}
		cur.End = cur.Start
		for it.HasNext() {
			v := it.Next()
			if v == cur.End+1 {
				cur.End = v
				continue
			}
			if !yield(cur) {
				return
			}
			cur = BlockRange{Start: v, End: v}
		}
		yield(cur)
	}
}

// SizeInBytes reports the approximate memory held by the underlying
// bitmap. Exposed for diagnostics and scaling tests.
func (t *BadBlockTracker) SizeInBytes() uint64 {
	return t.bits.GetSizeInBytes()
}
