package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the document corpus",
	Long: `Scans the corpus root, extracts and chunks every supported document,
embeds the chunks and writes them to the vector index. Re-running on an
unchanged corpus is a no-op; changed documents are replaced atomically.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	root := "."
	if appConfig != nil {
		root = appConfig.Corpus.Root
	}
	cmd.Printf("Indexing corpus at %s...\n", root)

	report, err := ingestService.IngestAll(commandContext())
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Indexed %d documents (%d chunks).\n", report.DocumentsIndexed, report.ChunksIndexed)
	if report.DocumentsSkipped > 0 {
		cmd.Printf("Skipped %d documents:\n", report.DocumentsSkipped)
		for _, e := range report.Errors {
			cmd.Printf("  - %v\n", e)
		}
	}

	return nil
}
