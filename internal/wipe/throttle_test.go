package wipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle(t *testing.T) {
	t.Run("DisabledWhenRateNotPositive", func(t *testing.T) {
		dev := newMemDevice(1024, 512)
		assert.Same(t, BlockDevice(dev), Throttle(dev, 0))
		assert.Same(t, BlockDevice(dev), Throttle(dev, -1))
	})

	t.Run("WritesAreDelivered", func(t *testing.T) {
		dev := newMemDevice(1024, 512)
		throttled := Throttle(dev, 1000)

		data := []byte{1, 2, 3, 4}
		require.NoError(t, throttled.WriteAt(data, 512))
		assert.Equal(t, data, dev.data[512:516])
	})

	t.Run("PacesConsecutiveWrites", func(t *testing.T) {
		dev := newMemDevice(1<<20, 512)
		// 1 MB/s with 64 KiB writes: each write owes ~62ms of pacing.
		throttled := Throttle(dev, 1)
		buf := make([]byte, 64*1024)

		start := time.Now()
		require.NoError(t, throttled.WriteAt(buf, 0))
		require.NoError(t, throttled.WriteAt(buf, 64*1024))
		elapsed := time.Since(start)

		assert.Greater(t, elapsed, 50*time.Millisecond)
	})

	t.Run("ReadsAreNotThrottled", func(t *testing.T) {
		dev := newMemDevice(1<<20, 512)
		throttled := Throttle(dev, 1)
		buf := make([]byte, 64*1024)

		start := time.Now()
		for i := 0; i < 4; i++ {
			require.NoError(t, throttled.ReadAt(buf, 0))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}
