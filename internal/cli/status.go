package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and embedding service status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if indexService == nil || embedderService == nil {
		return errors.New("status services not configured")
	}

	ctx := commandContext()

	docs, err := indexService.DocumentCount(ctx)
	if err != nil {
		return err
	}
	chunks, err := indexService.Count(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Documents indexed: %d\n", docs)
	cmd.Printf("Chunks indexed:    %d\n", chunks)
	cmd.Printf("Embedding model:   %s (%d dimensions)\n",
		embedderService.ModelName(), embedderService.Dimensions())

	if appConfig != nil {
		cmd.Printf("Threshold:         %.3f\n", appConfig.Retrieval.Threshold)
		cmd.Printf("Top K:             %d\n", appConfig.Retrieval.TopK)
	}

	if err := embedderService.Ping(ctx); err != nil {
		cmd.Printf("Embedding service: unreachable (%v)\n", err)
	} else {
		cmd.Println("Embedding service: ok")
	}

	return nil
}
