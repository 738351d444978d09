package wipe

import (
	"errors"
	"fmt"
	"sync"
)

// memDevice is an in-memory BlockDevice with deterministic failure
// injection, keyed by byte offset.
type memDevice struct {
	mu     sync.Mutex
	data   []byte
	sector uint32

	// failWrites[offset] is the number of write attempts at that offset
	// that fail with a transient error; -1 means every attempt fails.
	failWrites map[uint64]int
	// fatalWrites marks offsets whose write reports a fatal device loss.
	fatalWrites map[uint64]bool
	// corruptWrites marks offsets whose writes silently flip a byte, so
	// read-back verification must catch them.
	corruptWrites map[uint64]int

	writeLog []uint64
	writesAt map[uint64]int
	reads    int
	flushes  int
	flushErr error
	closed   bool
}

func newMemDevice(size int, sector uint32) *memDevice {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251) // non-trivial initial content
	}
	return &memDevice{
		data:          data,
		sector:        sector,
		failWrites:    make(map[uint64]int),
		fatalWrites:   make(map[uint64]bool),
		corruptWrites: make(map[uint64]int),
		writesAt:      make(map[uint64]int),
	}
}

func (d *memDevice) BlockSize() uint32  { return d.sector }
func (d *memDevice) BlockCount() uint64 { return uint64(len(d.data)) / uint64(d.sector) }

func (d *memDevice) ReadAt(buf []byte, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if int(offset)+len(buf) > len(d.data) {
		return &DeviceError{Op: "read", Offset: offset, Err: errors.New("out of range")}
	}
	copy(buf, d.data[offset:int(offset)+len(buf)])
	return nil
}

func (d *memDevice) WriteAt(data []byte, offset uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeLog = append(d.writeLog, offset)
	d.writesAt[offset]++

	if n := d.failWrites[offset]; n != 0 {
		if n > 0 {
			d.failWrites[offset]--
		}
		return &DeviceError{Op: "write", Offset: offset, Err: errors.New("injected transient failure")}
	}
	if d.fatalWrites[offset] {
		return &DeviceError{Op: "write", Offset: offset, Fatal: true, Err: errors.New("injected device loss")}
	}
	if int(offset)+len(data) > len(d.data) {
		return &DeviceError{Op: "write", Offset: offset, Err: fmt.Errorf("write beyond capacity")}
	}

	copy(d.data[offset:int(offset)+len(data)], data)
	if n := d.corruptWrites[offset]; n != 0 {
		if n > 0 {
			d.corruptWrites[offset]--
		}
		d.data[offset] ^= 0xff
	}
	return nil
}

func (d *memDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushes++
	return d.flushErr
}

func (d *memDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// recordingSink captures progress events for assertions and can cancel
// the job from a block boundary.
type recordingSink struct {
	stageStarts    []int
	stageCompletes []int
	progress       []uint64 // blocksDone per event
	errs           []error
	report         *JobReport

	onProgress func(blocksDone uint64)
}

func (s *recordingSink) OnStageStart(stageIndex, totalStages int) {
	s.stageStarts = append(s.stageStarts, stageIndex)
}

func (s *recordingSink) OnBlockProgress(blocksDone, bytesDone, badBlocks uint64) {
	s.progress = append(s.progress, blocksDone)
	if s.onProgress != nil {
		s.onProgress(blocksDone)
	}
}

func (s *recordingSink) OnStageComplete(stageIndex int) {
	s.stageCompletes = append(s.stageCompletes, stageIndex)
}

func (s *recordingSink) OnJobComplete(report *JobReport) {
	s.report = report
}

func (s *recordingSink) OnError(stageIndex int, block uint64, err error) {
	s.errs = append(s.errs, err)
}
