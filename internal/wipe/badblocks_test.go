package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadBlockTracker(t *testing.T) {
	t.Run("MarkAndQuery", func(t *testing.T) {
		tr := NewBadBlockTracker()
		assert.False(t, tr.IsBad(0))
		assert.Zero(t, tr.Count())

		tr.Mark(5)
		tr.Mark(7)
		tr.Mark(5) // idempotent

		assert.True(t, tr.IsBad(5))
		assert.True(t, tr.IsBad(7))
		assert.False(t, tr.IsBad(6))
		assert.Equal(t, uint64(2), tr.Count())
	})

	t.Run("RangesGroupContiguousRuns", func(t *testing.T) {
		tr := NewBadBlockTracker()
		for _, i := range []uint32{1, 2, 3, 7, 10, 11} {
			tr.Mark(i)
		}

		var got []BlockRange
		for r := range tr.Ranges() {
			got = append(got, r)
		}
		assert.Equal(t, []BlockRange{{1, 3}, {7, 7}, {10, 11}}, got)
	})

	t.Run("RangesAreRestartable", func(t *testing.T) {
		tr := NewBadBlockTracker()
		tr.Mark(3)
		tr.Mark(4)

		first := collectRanges(tr)
		second := collectRanges(tr)
		assert.Equal(t, first, second)
	})

	t.Run("RangesEarlyStop", func(t *testing.T) {
		tr := NewBadBlockTracker()
		for _, i := range []uint32{0, 5, 9} {
			tr.Mark(i)
		}
		count := 0
		for range tr.Ranges() {
			count++
			if count == 2 {
				break
			}
		}
		assert.Equal(t, 2, count)
	})

	t.Run("EmptyTrackerYieldsNothing", func(t *testing.T) {
		assert.Empty(t, collectRanges(NewBadBlockTracker()))
	})

	t.Run("ContiguousRunStaysCompressed", func(t *testing.T) {
		tr := NewBadBlockTracker()
		const n = 1 << 20
		for i := uint32(0); i < n; i++ {
			tr.Mark(i)
		}
		require.Equal(t, uint64(n), tr.Count())

		// A million contiguous entries must not cost anywhere near a
		// bitmap bit per block, let alone a boolean per block.
		assert.Less(t, tr.SizeInBytes(), uint64(64*1024))

		ranges := collectRanges(tr)
		require.Len(t, ranges, 1)
		assert.Equal(t, BlockRange{0, n - 1}, ranges[0])
	})
}

func collectRanges(tr *BadBlockTracker) []BlockRange {
	var out []BlockRange
	for r := range tr.Ranges() {
		out = append(out, r)
	}
	return out
}
