// Package cli implements the docquery command-line interface.
//
// Commands share a set of package-level services wired on first use from
// the loaded configuration. Tests substitute mocks for these services.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docquery-labs/docquery-cli/internal/adapters/embedding"
	"github.com/docquery-labs/docquery-cli/internal/adapters/embedding/ollama"
	"github.com/docquery-labs/docquery-cli/internal/adapters/embedding/openai"
	"github.com/docquery-labs/docquery-cli/internal/adapters/index/chromem"
	"github.com/docquery-labs/docquery-cli/internal/adapters/index/memory"
	"github.com/docquery-labs/docquery-cli/internal/adapters/index/sqlite"
	"github.com/docquery-labs/docquery-cli/internal/chunker"
	"github.com/docquery-labs/docquery-cli/internal/config"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driving"
	"github.com/docquery-labs/docquery-cli/internal/core/services"
	"github.com/docquery-labs/docquery-cli/internal/corpus/filesystem"
	"github.com/docquery-labs/docquery-cli/internal/extractors"
	"github.com/docquery-labs/docquery-cli/internal/extractors/html"
	"github.com/docquery-labs/docquery-cli/internal/extractors/markdown"
	"github.com/docquery-labs/docquery-cli/internal/extractors/pdf"
	"github.com/docquery-labs/docquery-cli/internal/extractors/plaintext"
	"github.com/docquery-labs/docquery-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath    string
	verbose    bool
	timestamps bool
)

// Services shared by the commands. Wired lazily by ensureServices so that
// commands which need no services (version, help) work without a valid
// configuration. Tests set these directly.
var (
	appConfig       *config.Config
	scannerService  driven.CorpusScanner
	embedderService driven.EmbeddingService
	indexService    driven.VectorIndex
	ingestService   driving.IngestOrchestrator
	queryService    driving.QueryService
)

var servicesWired bool

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Retrieval-augmented question answering over a local document corpus",
	Long: `docquery indexes a directory of documents (Markdown, HTML, plain text, PDF)
into a vector index and, per question, decides between answering from
retrieved document context and answering directly.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetTimestamps(timestamps)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.docquery/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&timestamps, "timestamps", false, "prefix log lines with elapsed time")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices wires the shared services from configuration. Idempotent;
// commands call it before touching any service.
func ensureServices() error {
	if servicesWired {
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	appConfig = cfg

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	embedderService = embedder

	index, err := buildIndex(cfg, embedder)
	if err != nil {
		return err
	}
	indexService = index

	scanner := filesystem.New(cfg.Corpus.Root)
	scannerService = scanner

	registry := extractors.NewRegistry()
	registry.Register(markdown.New())
	registry.Register(html.New())
	registry.Register(plaintext.New())
	registry.Register(pdf.New())

	chunks := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService = services.NewIngestor(scanner, registry, chunks, embedder, index)
	queryService = services.NewRetrieval(embedder, index,
		services.WithThreshold(cfg.Retrieval.Threshold),
		services.WithTopK(cfg.Retrieval.TopK),
	)

	servicesWired = true
	return nil
}

func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	rateLimit := embedding.RateLimitConfig{
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		BurstSize:         cfg.Embedding.Burst,
	}
	timeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second

	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		if cfg.Embedding.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not set; export %s", config.EnvOpenAIAPIKey)
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Timeout:    timeout,
			Dimensions: cfg.Embedding.Dimensions,
			RateLimit:  rateLimit,
		})
	case config.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Timeout:    timeout,
			Dimensions: cfg.Embedding.Dimensions,
			RateLimit:  rateLimit,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildIndex(cfg *config.Config, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	switch cfg.Index.Driver {
	case config.IndexDriverSQLite:
		return sqlite.NewStore(cfg.Index.Path, embedder.ModelName(), embedder.Dimensions())
	case config.IndexDriverChromem:
		return chromem.New(cfg.Index.Path, embedder.ModelName(), embedder.Dimensions())
	case config.IndexDriverMemory:
		return memory.New(embedder.Dimensions())
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}
}

func closeServices() {
	if scannerService != nil {
		_ = scannerService.Close()
	}
	if indexService != nil {
		_ = indexService.Close()
	}
	if embedderService != nil {
		_ = embedderService.Close()
	}
}

// commandContext is the context commands run under.
func commandContext() context.Context {
	return context.Background()
}
