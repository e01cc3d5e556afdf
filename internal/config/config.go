// Package config loads and validates the docquery configuration file.
// Configuration lives in a TOML file, defaulting to ~/.docquery/config.toml;
// the OpenAI API key comes from the DOCQUERY_OPENAI_API_KEY environment
// variable, falling back to the file's api_key so it never has to be
// written to disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "DOCQUERY_OPENAI_API_KEY"

// Supported embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Supported index drivers.
const (
	IndexDriverSQLite  = "sqlite"
	IndexDriverChromem = "chromem"
	IndexDriverMemory  = "memory"
)

// Config is the full application configuration.
type Config struct {
	Corpus    CorpusConfig    `toml:"corpus"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// CorpusConfig locates the document corpus.
type CorpusConfig struct {
	// Root is the directory scanned for documents.
	Root string `toml:"root"`
}

// ChunkingConfig controls how extracted text is split.
type ChunkingConfig struct {
	// Size is the chunk window in characters.
	Size int `toml:"size"`

	// Overlap is how many characters consecutive chunks share.
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider's API base URL.
	BaseURL string `toml:"base_url"`

	// Dimensions is the vector size; zero uses the provider default.
	Dimensions int `toml:"dimensions"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RequestsPerSecond throttles outgoing embedding requests.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `toml:"burst"`

	// APIKey authenticates against OpenAI. The DOCQUERY_OPENAI_API_KEY
	// environment variable takes precedence over the file.
	APIKey string `toml:"api_key"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	// Driver is "sqlite", "chromem" or "memory".
	Driver string `toml:"driver"`

	// Path is the index data directory; empty uses the default under
	// ~/.docquery/data.
	Path string `toml:"path"`
}

// RetrievalConfig tunes the query-time decision.
type RetrievalConfig struct {
	// Threshold is the minimum cosine similarity for retrieval-augmented
	// mode, in (0, 1).
	Threshold float64 `toml:"threshold"`

	// TopK is how many nearest neighbours to retrieve.
	TopK int `toml:"top_k"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{Root: "."},
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 100,
		},
		Embedding: EmbeddingConfig{
			Provider:          ProviderOpenAI,
			Model:             "text-embedding-3-small",
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Index: IndexConfig{Driver: IndexDriverSQLite},
		Retrieval: RetrievalConfig{
			Threshold: 0.35,
			TopK:      3,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docquery", "config.toml"), nil
}

// Load reads the configuration from the given path, layered over defaults.
// A missing file is not an error: defaults apply. The API key is always
// read from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		cfg.Embedding.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Corpus.Root == "" {
		return fmt.Errorf("corpus.root must not be empty")
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderOllama, c.Embedding.Provider)
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		return fmt.Errorf("embedding.timeout_seconds must be positive, got %d",
			c.Embedding.TimeoutSeconds)
	}

	switch c.Index.Driver {
	case IndexDriverSQLite, IndexDriverChromem, IndexDriverMemory:
	default:
		return fmt.Errorf("index.driver must be %q, %q or %q, got %q",
			IndexDriverSQLite, IndexDriverChromem, IndexDriverMemory, c.Index.Driver)
	}

	if c.Retrieval.Threshold <= 0 || c.Retrieval.Threshold >= 1 {
		return fmt.Errorf("retrieval.threshold must be in (0, 1), got %g", c.Retrieval.Threshold)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK)
	}

	return nil
}
