package wipe

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Kostassoid/lethe/internal/sanitization"
)

// MaxBlocks caps the addressable block count of a job. Bigger devices
// need a bigger block size.
const MaxBlocks = uint64(1) << 32

// JobConfig describes a wipe job. Validated by NewJob before any I/O.
type JobConfig struct {
	Scheme sanitization.Scheme
	Verify sanitization.Verify
	// BlockSize is the job's I/O unit in bytes. Must be a power of two
	// and a multiple of the device granularity.
	BlockSize uint32
	// RetryBudget is the total number of write(+verify) attempts per
	// block per stage before the block is recorded as bad.
	RetryBudget int
	// RetryDelay is the pause between attempts on the same block.
	RetryDelay time.Duration
}

// Job owns a BlockDevice for the duration of one wipe run. The device
// is released (flushed and closed) on every exit path, including abort
// and cancellation.
type Job struct {
	device      BlockDevice
	cfg         JobConfig
	capacity    uint64
	totalBlocks uint64
	bad         *BadBlockTracker
	pool        *BufferPool
}

// NewJob validates the configuration against the device and takes
// ownership of it. Any violation is reported as ConfigError without
// touching the device.
func NewJob(device BlockDevice, cfg JobConfig) (*Job, error) {
	if err := cfg.Scheme.Validate(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	bs := cfg.BlockSize
	if bs == 0 || bs&(bs-1) != 0 {
		return nil, configErrorf("block size %d is not a power of two", bs)
	}
	granularity := device.BlockSize()
	if granularity == 0 {
		return nil, configErrorf("device reports zero I/O granularity")
	}
	if bs%granularity != 0 {
		return nil, configErrorf("block size %d is not a multiple of device granularity %d", bs, granularity)
	}

	capacity := uint64(granularity) * device.BlockCount()
	if capacity == 0 {
		return nil, configErrorf("device has zero capacity")
	}
	totalBlocks := (capacity + uint64(bs) - 1) / uint64(bs)
	if totalBlocks > MaxBlocks {
		return nil, configErrorf(
			"device needs %d blocks of %d bytes, above the %d cap; use a bigger block size",
			totalBlocks, bs, MaxBlocks)
	}

	if cfg.RetryBudget < 1 {
		return nil, configErrorf("retry budget must be at least 1, got %d", cfg.RetryBudget)
	}
	if cfg.RetryDelay < 0 {
		return nil, configErrorf("retry delay cannot be negative")
	}

	return &Job{
		device:      device,
		cfg:         cfg,
		capacity:    capacity,
		totalBlocks: totalBlocks,
		bad:         NewBadBlockTracker(),
		pool:        NewBufferPool(int(bs)),
	}, nil
}

// TotalBlocks returns the number of blocks one stage sweeps.
func (j *Job) TotalBlocks() uint64 {
	return j.totalBlocks
}

// Capacity returns the device capacity in bytes.
func (j *Job) Capacity() uint64 {
	return j.capacity
}

// Run executes every stage of the scheme in order, sweeping blocks
// strictly ascending. Per-block failures are retried within the budget,
// then recorded as bad and skipped for the rest of the job. Fatal
// device errors abort immediately. Cancellation is cooperative and
// honored only at block boundaries, so the in-flight block always
// finishes its full write/verify/retry cycle.
func (j *Job) Run(ctx context.Context, sink ProgressSink) *JobReport {
	if sink == nil {
		sink = NopSink{}
	}

	start := time.Now()
	report := &JobReport{
		TotalStages: len(j.cfg.Scheme.Stages),
		TotalBlocks: j.totalBlocks,
		BadBlocks:   j.bad,
		LastBlock:   -1,
		Outcome:     OutcomeAborted,
	}
	defer func() {
		report.Elapsed = time.Since(start)
		j.device.Close()
		sink.OnJobComplete(report)
	}()

	verifier := NewVerifier(j.device, j.cfg.BlockSize)
	stages := j.cfg.Scheme.Stages

	for si, stage := range stages {
		sink.OnStageStart(si, len(stages))
		withVerify := ShouldVerify(j.cfg.Verify, si, len(stages))

		pre := startPrefetcher(stage, j.pool, j.cfg.BlockSize, j.capacity, j.totalBlocks)
		err := j.runStage(ctx, si, stage, withVerify, verifier, pre, sink, report)
		pre.stop()
		if err != nil {
			report.AbortReason = err
			return report
		}

		if err := j.device.Flush(); err != nil {
			sink.OnError(si, 0, err)
			report.AbortReason = fmt.Errorf("flushing device after stage %d: %w", si+1, err)
			return report
		}
		sink.OnStageComplete(si)
		report.StagesCompleted++
	}

	report.Outcome = OutcomeCompleted
	report.AbortReason = nil
	return report
}

// runStage sweeps every block once, ascending. Returns an error only
// for job-fatal conditions (cancellation, device loss).
func (j *Job) runStage(
	ctx context.Context,
	stageIndex int,
	stage sanitization.Stage,
	withVerify bool,
	verifier *Verifier,
	pre *prefetcher,
	sink ProgressSink,
	report *JobReport,
) error {
	var blocksDone, bytesDone uint64

	for index := uint64(0); index < j.totalBlocks; index++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("job canceled at stage %d block %d: %w", stageIndex+1, index, ctx.Err())
		default:
		}

		fb, ok := pre.next()
		if !ok || fb.index != index {
			return fmt.Errorf("fill pipeline ended early at stage %d block %d", stageIndex+1, index)
		}
		if fb.err != nil {
			j.pool.Put(fb.buf)
			return fmt.Errorf("generating fill for block %d: %w", index, fb.err)
		}

		// Blocks that already exhausted their budget in an earlier
		// stage stay skipped for the remainder of the job.
		if j.bad.IsBad(uint32(index)) {
			j.pool.Put(fb.buf)
			blocksDone++
			report.LastBlock = int64(index)
			sink.OnBlockProgress(blocksDone, bytesDone, j.bad.Count())
			continue
		}

		err := j.wipeBlock(stage, index, fb.length, fb.buf, withVerify, verifier)
		j.pool.Put(fb.buf)
		if err != nil {
			sink.OnError(stageIndex, index, err)
			if IsFatal(err) {
				return err
			}
			j.bad.Mark(uint32(index))
		} else {
			bytesDone += uint64(fb.length)
		}

		blocksDone++
		report.LastBlock = int64(index)
		sink.OnBlockProgress(blocksDone, bytesDone, j.bad.Count())
	}

	return nil
}

// wipeBlock runs the write(+verify) cycle for one block, bounded by the
// retry budget. Transient I/O errors and verification mismatches are
// retried; fatal device errors stop retrying at once.
func (j *Job) wipeBlock(
	stage sanitization.Stage,
	index uint64,
	length int,
	buf []byte,
	withVerify bool,
	verifier *Verifier,
) error {
	offset := index * uint64(j.cfg.BlockSize)

	attempt := func() error {
		if err := j.device.WriteAt(buf[:length], offset); err != nil {
			if IsFatal(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if withVerify {
			if err := verifier.VerifyBlock(stage, index, offset, length); err != nil {
				if IsFatal(err) {
					return backoff.Permanent(err)
				}
				return err
			}
		}
		return nil
	}

	bo := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(j.cfg.RetryDelay),
		uint64(j.cfg.RetryBudget-1))
	return backoff.Retry(attempt, bo)
}

// fillBlock is one prepared unit of fill content.
type fillBlock struct {
	index  uint64
	buf    []byte
	length int
	err    error
}

// prefetcher prepares the next block's fill bytes while the current
// block's I/O is in flight. Depth is bounded by the channel, and blocks
// are always delivered in ascending order, so pipelining never changes
// write order or retry semantics.
type prefetcher struct {
	out  chan fillBlock
	quit chan struct{}
	pool *BufferPool
}

func startPrefetcher(stage sanitization.Stage, pool *BufferPool, blockSize uint32, capacity, totalBlocks uint64) *prefetcher {
	p := &prefetcher{
		out:  make(chan fillBlock, 1),
		quit: make(chan struct{}),
		pool: pool,
	}

	go func() {
		defer close(p.out)
		for index := uint64(0); index < totalBlocks; index++ {
			length := int(blockSize)
			if remaining := capacity - index*uint64(blockSize); remaining < uint64(blockSize) {
				length = int(remaining)
			}

			buf := pool.Get()
			err := stage.Fill(buf[:length], index)

			select {
			case p.out <- fillBlock{index: index, buf: buf, length: length, err: err}:
			case <-p.quit:
				pool.Put(buf)
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return p
}

func (p *prefetcher) next() (fillBlock, bool) {
	fb, ok := <-p.out
	return fb, ok
}

// stop terminates the producer and reclaims any buffered block.
func (p *prefetcher) stop() {
	close(p.quit)
	for fb := range p.out {
		p.pool.Put(fb.buf)
	}
}
