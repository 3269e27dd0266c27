package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docsense/internal/progress"
)

var flagForce bool

var buildCmd = &cobra.Command{
	Use:   "build <path>",
	Short: "Build a searchable index from a documentation directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docsDir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		eng, err := openEngine(flagForce, false)
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Building index from %s...\n", docsDir)
		start := time.Now()

		done := make(chan struct{})
		go reportProgress(eng.Tracker(), done)

		stats, err := eng.Build(ctx, docsDir)
		close(done)
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Documents: %d\n", stats.DocumentsLoaded)
			fmt.Printf("  Chunks:    %d created, %d saved\n", stats.ChunksCreated, stats.ChunksSaved)
		}

		return err
	},
}

// reportProgress prints the build phase whenever it changes, until done
// is closed.
func reportProgress(tracker *progress.Tracker, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastStep string
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := tracker.CurrentSnapshot()
			if snap.CurrentStep != "" && snap.CurrentStep != lastStep {
				fmt.Printf("  %s (%.0f%%)\n", snap.CurrentStep, snap.ProgressPercent)
				lastStep = snap.CurrentStep
			}
		}
	}
}

func init() {
	buildCmd.Flags().BoolVar(&flagForce, "force", false, "clear an existing index before building")
	rootCmd.AddCommand(buildCmd)
}
