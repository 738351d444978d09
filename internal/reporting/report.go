package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Kostassoid/lethe/internal/wipe"
)

// DeviceSummary identifies the wiped target in a report.
type DeviceSummary struct {
	Path       string `json:"path"`
	Size       uint64 `json:"size"`
	SectorSize uint32 `json:"sector_size"`
}

// Report is the persisted record of one wipe run.
type Report struct {
	RunID     string        `json:"run_id"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Device    DeviceSummary `json:"device"`

	Scheme    string `json:"scheme"`
	Verify    string `json:"verify"`
	BlockSize uint32 `json:"block_size"`
	Retries   int    `json:"retries"`

	Outcome         string            `json:"outcome"`
	AbortReason     string            `json:"abort_reason,omitempty"`
	StagesCompleted int               `json:"stages_completed"`
	TotalStages     int               `json:"total_stages"`
	TotalBlocks     uint64            `json:"total_blocks"`
	LastBlock       int64             `json:"last_block"`
	Elapsed         string            `json:"elapsed"`
	BadBlockCount   uint64            `json:"bad_block_count"`
	BadBlockRanges  []wipe.BlockRange `json:"bad_block_ranges,omitempty"`
}

// New builds a report from a finished job.
func New(version string, device DeviceSummary, scheme, verify string, blockSize uint32, retries int, job *wipe.JobReport) *Report {
	r := &Report{
		RunID:           uuid.NewString(),
		Version:         version,
		Timestamp:       time.Now().UTC(),
		Device:          device,
		Scheme:          scheme,
		Verify:          verify,
		BlockSize:       blockSize,
		Retries:         retries,
		Outcome:         job.Outcome.String(),
		StagesCompleted: job.StagesCompleted,
		TotalStages:     job.TotalStages,
		TotalBlocks:     job.TotalBlocks,
		LastBlock:       job.LastBlock,
		Elapsed:         job.Elapsed.Round(time.Millisecond).String(),
		BadBlockCount:   job.BadBlocks.Count(),
	}
	if job.AbortReason != nil {
		r.AbortReason = job.AbortReason.Error()
	}
	for br := range job.BadBlocks.Ranges() {
		r.BadBlockRanges = append(r.BadBlockRanges, br)
	}
	return r
}

// Write stores the report as pretty-printed JSON under dir and returns
// the file path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("wipe_%s_%s.json",
		r.Timestamp.Format("20060102T150405Z"), r.RunID[:8]))

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, nil
}
