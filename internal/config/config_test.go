package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Corpus.Root)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, IndexDriverSQLite, cfg.Index.Driver)
	assert.Equal(t, 0.35, cfg.Retrieval.Threshold)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[corpus]
root = "/srv/docs"

[chunking]
size = 800
overlap = 200

[embedding]
provider = "ollama"
model = "nomic-embed-text"
base_url = "http://embedding-host:11434"

[index]
driver = "chromem"
path = "/var/lib/docquery"

[retrieval]
threshold = 0.6
top_k = 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Corpus.Root)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "http://embedding-host:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, IndexDriverChromem, cfg.Index.Driver)
	assert.Equal(t, "/var/lib/docquery", cfg.Index.Path)
	assert.Equal(t, 0.6, cfg.Retrieval.Threshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)

	// Unset fields keep defaults.
	assert.Equal(t, 30, cfg.Embedding.TimeoutSeconds)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.Embedding.APIKey)
}

func TestLoad_EnvironmentOverridesFileAPIKey(t *testing.T) {
	path := writeConfig(t, `
[embedding]
api_key = "sk-from-file"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.Embedding.APIKey)

	t.Setenv(EnvOpenAIAPIKey, "sk-from-env")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Embedding.APIKey)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "[corpus\nroot = ")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"empty corpus root", func(c *Config) { c.Corpus.Root = "" }, "corpus.root"},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, "chunking.size"},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, "chunking.overlap"},
		{"overlap >= size", func(c *Config) { c.Chunking.Overlap = 500 }, "chunking.overlap"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"zero timeout", func(c *Config) { c.Embedding.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"unknown index driver", func(c *Config) { c.Index.Driver = "postgres" }, "index.driver"},
		{"threshold zero", func(c *Config) { c.Retrieval.Threshold = 0 }, "retrieval.threshold"},
		{"threshold one", func(c *Config) { c.Retrieval.Threshold = 1 }, "retrieval.threshold"},
		{"top_k zero", func(c *Config) { c.Retrieval.TopK = 0 }, "retrieval.top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
