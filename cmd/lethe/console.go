package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Kostassoid/lethe/internal/wipe"
)

// consoleSink renders wipe progress on the terminal and mirrors
// noteworthy events into the structured log.
type consoleSink struct {
	capacity    uint64
	totalBlocks uint64
	logger      *zap.Logger

	stageStart time.Time
	lastDraw   time.Time
}

func newConsoleSink(capacity, totalBlocks uint64, logger *zap.Logger) *consoleSink {
	return &consoleSink{
		capacity:    capacity,
		totalBlocks: totalBlocks,
		logger:      logger,
	}
}

func (s *consoleSink) OnStageStart(stageIndex, totalStages int) {
	s.stageStart = time.Now()
	fmt.Printf("\nStage %d/%d\n", stageIndex+1, totalStages)
}

func (s *consoleSink) OnBlockProgress(blocksDone, bytesDone, badBlocks uint64) {
	// Redrawing on every block floods slow terminals.
	if time.Since(s.lastDraw) < 200*time.Millisecond && blocksDone < s.totalBlocks {
		return
	}
	s.lastDraw = time.Now()

	percent := float64(blocksDone) / float64(s.totalBlocks) * 100
	elapsed := time.Since(s.stageStart).Round(time.Second)
	fmt.Printf("\r  %6.2f%%  %s written  %d/%d blocks  bad: %d  elapsed: %s ",
		percent, humanize.IBytes(bytesDone), blocksDone, s.totalBlocks, badBlocks, elapsed)
}

func (s *consoleSink) OnStageComplete(stageIndex int) {
	fmt.Println("\n  Done")
	s.logger.Debug("stage complete",
		zap.Int("stage", stageIndex+1),
		zap.Duration("elapsed", time.Since(s.stageStart)))
}

func (s *consoleSink) OnJobComplete(report *wipe.JobReport) {
	fmt.Println()
}

func (s *consoleSink) OnError(stageIndex int, block uint64, err error) {
	fmt.Fprintf(os.Stderr, "\n  block %d: %v\n", block, err)
	s.logger.Warn("block error",
		zap.Int("stage", stageIndex+1),
		zap.Uint64("block", block),
		zap.Error(err))
}
