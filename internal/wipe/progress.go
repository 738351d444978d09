package wipe

import "time"

// ProgressSink receives job lifecycle and progress events. Implemented
// by the presentation layer; the engine calls it from its single
// execution goroutine, so implementations need no synchronization.
type ProgressSink interface {
	OnStageStart(stageIndex, totalStages int)
	OnBlockProgress(blocksDone, bytesDone, badBlocks uint64)
	OnStageComplete(stageIndex int)
	OnJobComplete(report *JobReport)
	OnError(stageIndex int, block uint64, err error)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OnStageStart(int, int)                  {}
func (NopSink) OnBlockProgress(uint64, uint64, uint64) {}
func (NopSink) OnStageComplete(int)                    {}
func (NopSink) OnJobComplete(*JobReport)               {}
func (NopSink) OnError(int, uint64, error)             {}

// Outcome is the terminal state of a job.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// JobReport is the canonical machine-readable summary of a wipe job.
// Mutated only by the executor while the job runs, immutable afterwards.
// LastBlock is the highest fully processed block index, -1 if none.
type JobReport struct {
	StagesCompleted int
	TotalStages     int
	TotalBlocks     uint64
	BadBlocks       *BadBlockTracker
	Elapsed         time.Duration
	LastBlock       int64
	Outcome         Outcome
	AbortReason     error // nil unless Outcome is OutcomeAborted
}
