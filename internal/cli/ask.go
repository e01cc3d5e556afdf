package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed corpus",
	Long: `Embeds the question, retrieves the nearest chunks from the vector index
and applies the similarity threshold: above it, the answer mode is
retrieval-augmented and the selected context is printed with citations;
below it, the question should be answered directly. The scores are always
shown so a miss can be told apart from a miscalibrated threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the decision as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	decision, err := queryService.Ask(commandContext(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return outputDecisionJSON(cmd, decision)
	}
	return outputDecisionText(cmd, decision)
}

// decisionJSON is the stable JSON shape of a decision.
type decisionJSON struct {
	Mode           string            `json:"mode"`
	BestSimilarity float64           `json:"best_similarity"`
	Threshold      float64           `json:"threshold"`
	Context        []contextItemJSON `json:"context,omitempty"`
}

type contextItemJSON struct {
	DocumentID string  `json:"document_id"`
	Locator    string  `json:"locator"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

func outputDecisionJSON(cmd *cobra.Command, decision *domain.Decision) error {
	out := decisionJSON{
		Mode:           decision.Mode.String(),
		BestSimilarity: decision.BestSimilarity,
		Threshold:      decision.Threshold,
	}
	for _, item := range decision.Context {
		out.Context = append(out.Context, contextItemJSON{
			DocumentID: item.DocumentID,
			Locator:    item.Locator,
			Similarity: item.Similarity,
			Text:       item.Text,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDecisionText(cmd *cobra.Command, decision *domain.Decision) error {
	cmd.Printf("Mode: %s\n", decision.Mode)
	cmd.Printf("Best similarity: %.3f (threshold %.3f)\n", decision.BestSimilarity, decision.Threshold)

	if decision.Mode == domain.ModeDirect {
		cmd.Println()
		cmd.Println("No sufficiently relevant documents; answer from general knowledge.")
		return nil
	}

	cmd.Println()
	cmd.Println(decision.ContextBlock())
	cmd.Println()
	cmd.Println("Citations:")
	for i, item := range decision.Context {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, item.Citation(), item.Similarity)
	}
	return nil
}
