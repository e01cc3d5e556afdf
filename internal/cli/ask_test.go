package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_RetrievalAugmentedOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "how do I install?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Mode: retrieval-augmented")
	assert.Contains(t, buf.String(), "0.820")
	assert.Contains(t, buf.String(), "[Reference 1] (guide.md / Install)")
	assert.Contains(t, buf.String(), "Citations:")
	assert.Contains(t, buf.String(), "guide.md / Install")
}

func TestAskCmd_DirectOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	queryService = &mockQueryService{
		decision: &domain.Decision{
			Mode:           domain.ModeDirect,
			BestSimilarity: 0.12,
			Threshold:      0.35,
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "what is the capital of France?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Mode: direct")
	assert.Contains(t, buf.String(), "0.120")
	assert.Contains(t, buf.String(), "general knowledge")
	assert.NotContains(t, buf.String(), "Citations:")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "how do I install?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askJSON = false // Reset flag
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"mode\": \"retrieval-augmented\"")
	assert.Contains(t, buf.String(), "\"best_similarity\": 0.82")
	assert.Contains(t, buf.String(), "\"document_id\": \"guide.md\"")
}

func TestAskCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	queryService = &mockQueryService{err: errors.New("index offline")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	queryService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query service not configured")
}
