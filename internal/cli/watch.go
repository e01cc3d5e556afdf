package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the corpus and keep the index in sync",
	Long: `Watches the corpus root for file changes and incrementally updates the
vector index: created and modified documents are re-ingested, deleted
documents are removed. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if scannerService == nil || ingestService == nil {
		return errors.New("watch services not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := scannerService.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			handleChange(ctx, cmd, change)
		}
	}
}

// handleChange applies one corpus change to the index. Failures are
// reported but do not stop the watch.
func handleChange(ctx context.Context, cmd *cobra.Command, change driven.CorpusChange) {
	switch change.Type {
	case driven.ChangeUpserted:
		if err := ingestService.Ingest(ctx, change.Document); err != nil {
			cmd.Printf("Failed to index %s: %v\n", change.Document.ID, err)
			return
		}
		cmd.Printf("Indexed %s\n", change.Document.ID)
	case driven.ChangeRemoved:
		if err := ingestService.Remove(ctx, change.Document.ID); err != nil {
			cmd.Printf("Failed to remove %s: %v\n", change.Document.ID, err)
			return
		}
		cmd.Printf("Removed %s\n", change.Document.ID)
	}
}
