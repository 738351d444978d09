package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kostassoid/lethe/internal/config"
	"github.com/Kostassoid/lethe/internal/logging"
	"github.com/Kostassoid/lethe/internal/reporting"
	"github.com/Kostassoid/lethe/internal/sanitization"
	"github.com/Kostassoid/lethe/internal/storage"
	"github.com/Kostassoid/lethe/internal/wipe"
)

const (
	Version = "0.9.0"

	exitSuccess = 0
	exitError   = 1
	exitWarning = 2 // completed with bad blocks
)

var (
	cfg    *config.Config
	logger *zap.Logger

	configPath string
	verbose    bool

	schemeName   string
	verifyMode   string
	blockSizeStr string
	retries      int
	maxSpeedMBps float64
	autoConfirm  bool
	reportDir    string
)

var rootCmd = &cobra.Command{
	Use:           "lethe",
	Short:         "Secure disk wipe",
	Long:          "Secure, verifiable destruction of data on block storage devices.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg, verbose)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available storage devices",
	RunE:  runList,
}

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "Describe available sanitization schemes",
	RunE:  runSchemes,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe <device>",
	Short: "Wipe a storage device or file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWipe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	wipeCmd.Flags().StringVarP(&schemeName, "scheme", "s", "", "Sanitization scheme")
	wipeCmd.Flags().StringVar(&verifyMode, "verify", "", "Verification mode (no/last/all)")
	wipeCmd.Flags().StringVarP(&blockSizeStr, "blocksize", "b", "", "Block size (e.g. 4096, 128k, 2M)")
	wipeCmd.Flags().IntVarP(&retries, "retries", "r", 0, "Write attempts per block before it is marked bad")
	wipeCmd.Flags().Float64Var(&maxSpeedMBps, "max-speed", 0, "Write throughput limit in MB/s (0 = unlimited)")
	wipeCmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "Skip confirmation")
	wipeCmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for JSON run reports")

	rootCmd.AddCommand(listCmd, schemesCmd, wipeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	devices, err := storage.List()
	if err != nil {
		return fmt.Errorf("unable to enumerate storage devices: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE ID\tSIZE\tTYPE\tMOUNT POINT\tBLOCK SIZE")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, humanize.IBytes(d.Size), d.Type, d.MountPoint, humanize.IBytes(uint64(d.SectorSize)))
	}
	return w.Flush()
}

func runSchemes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPASSES\tDESCRIPTION")
	for _, s := range sanitization.DefaultRepo().All() {
		passes := "passes"
		if len(s.Stages) == 1 {
			passes = "pass"
		}
		fmt.Fprintf(w, "%s\t%d %s\t%s\n", s.Name, len(s.Stages), passes, s.Description)
	}
	return w.Flush()
}

func runWipe(cmd *cobra.Command, args []string) error {
	target := args[0]
	applyFlagDefaults(cmd)

	scheme, ok := sanitization.DefaultRepo().Find(schemeName)
	if !ok {
		return fmt.Errorf("unknown scheme %q, see 'lethe schemes'", schemeName)
	}
	verify, err := sanitization.ParseVerify(verifyMode)
	if err != nil {
		return err
	}
	blockSize, err := ParseBlockSize(blockSizeStr)
	if err != nil {
		return fmt.Errorf("invalid block size %q: %w", blockSizeStr, err)
	}

	device, err := storage.Open(target)
	if err != nil {
		return err
	}

	capacity := uint64(device.BlockSize()) * device.BlockCount()
	fmt.Printf("Wiping %s (%s) using scheme %q, verify %s, block size %s.\n",
		target, humanize.IBytes(capacity), schemeName, verify, humanize.IBytes(uint64(blockSize)))

	if !autoConfirm && !askForConfirmation() {
		device.Close()
		fmt.Println("Aborted.")
		return nil
	}

	job, err := wipe.NewJob(wipe.Throttle(device, maxSpeedMBps), wipe.JobConfig{
		Scheme:      scheme,
		Verify:      verify,
		BlockSize:   blockSize,
		RetryBudget: retries,
		RetryDelay:  cfg.RetryDelay(),
	})
	if err != nil {
		device.Close()
		return err
	}

	logger.Info("starting wipe job",
		zap.String("device", target),
		zap.String("scheme", schemeName),
		zap.String("verify", verify.String()),
		zap.Uint32("block_size", blockSize),
		zap.Uint64("total_blocks", job.TotalBlocks()),
		zap.Int("retries", retries))

	// Ctrl-C requests cooperative cancellation; the in-flight block
	// still completes its write/verify/retry cycle.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := newConsoleSink(job.Capacity(), job.TotalBlocks(), logger)
	report := job.Run(ctx, sink)

	if cfg.Reporting.Enabled {
		summary := reporting.DeviceSummary{
			Path:       target,
			Size:       capacity,
			SectorSize: device.BlockSize(),
		}
		run := reporting.New(Version, summary, schemeName, verify.String(), blockSize, retries, report)
		if path, err := run.Write(reportDir); err != nil {
			logger.Warn("unable to write run report", zap.Error(err))
		} else {
			logger.Info("run report written", zap.String("path", path))
		}
	}

	switch {
	case report.Outcome == wipe.OutcomeAborted:
		logger.Error("wipe aborted",
			zap.Int64("last_block", report.LastBlock),
			zap.Error(report.AbortReason))
		os.Exit(exitError)
	case report.BadBlocks.Count() > 0:
		logger.Warn("wipe completed with bad blocks",
			zap.Uint64("bad_blocks", report.BadBlocks.Count()),
			zap.Duration("elapsed", report.Elapsed))
		os.Exit(exitWarning)
	default:
		logger.Info("wipe completed",
			zap.Duration("elapsed", report.Elapsed))
	}
	return nil
}

// applyFlagDefaults fills every flag the user did not set from the
// loaded configuration.
func applyFlagDefaults(cmd *cobra.Command) {
	if !cmd.Flags().Changed("scheme") {
		schemeName = cfg.Wipe.Scheme
	}
	if !cmd.Flags().Changed("verify") {
		verifyMode = cfg.Wipe.Verify
	}
	if !cmd.Flags().Changed("blocksize") {
		blockSizeStr = cfg.Wipe.BlockSize
	}
	if !cmd.Flags().Changed("retries") {
		retries = cfg.Wipe.Retries
	}
	if !cmd.Flags().Changed("max-speed") {
		maxSpeedMBps = cfg.Wipe.MaxSpeedMBps
	}
	if !cmd.Flags().Changed("report-dir") {
		reportDir = cfg.Reporting.Dir
	}
}
