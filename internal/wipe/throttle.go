package wipe

import (
	"time"
)

// ThrottledDevice limits write throughput to a configured rate by
// pacing WriteAt calls. Reads are not throttled: verification should
// run at device speed. A non-positive rate disables throttling.
type ThrottledDevice struct {
	BlockDevice
	maxSpeedMBps float64
	lastWrite    time.Time
}

// Throttle wraps device with a write-rate limit. Returns the device
// unchanged when maxSpeedMBps is not positive.
func Throttle(device BlockDevice, maxSpeedMBps float64) BlockDevice {
	if maxSpeedMBps <= 0 {
		return device
	}
	return &ThrottledDevice{
		BlockDevice:  device,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
	}
}

func (t *ThrottledDevice) WriteAt(data []byte, offset uint64) error {
	bytesPerSec := t.maxSpeedMBps * 1024 * 1024
	expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
	if elapsed := time.Since(t.lastWrite); elapsed < expected {
		time.Sleep(expected - elapsed)
	}

	err := t.BlockDevice.WriteAt(data, offset)
	t.lastWrite = time.Now()
	return err
}
