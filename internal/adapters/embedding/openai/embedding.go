// Package openai provides an embedding service adapter using OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/docquery-labs/docquery-cli/internal/adapters/embedding"
	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// RateLimit throttles outgoing requests; zero values use defaults.
	RateLimit embedding.RateLimitConfig
}

// EmbeddingService generates embeddings using OpenAI API.
type EmbeddingService struct {
	client     *http.Client
	limiter    *embedding.RateLimiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536 // Default fallback
		}
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    embedding.NewRateLimiter(cfg.RateLimit),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: openai: no embedding returned", domain.ErrEmbeddingService)
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, one request for the
// whole batch, response order matching request order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := embeddingRequest{
		Model: s.model,
		Input: texts,
	}

	// Only include dimensions for text-embedding-3-* models
	if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
		if s.dimensions > 0 {
			reqBody.Dimensions = s.dimensions
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		// Network failures and timeouts are transient.
		return nil, fmt.Errorf("%w: openai: %w", domain.ErrEmbeddingService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: read response: %w", domain.ErrEmbeddingService, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Decode the error payload best-effort; classification falls back
		// to the status code when the body isn't JSON.
		var errResp embeddingResponse
		_ = json.Unmarshal(body, &errResp)
		return nil, s.classifyError(resp, &errResp, body)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: openai: decode response: %w", domain.ErrEmbeddingService, err)
	}

	if embedResp.Error != nil {
		return nil, fmt.Errorf("%w: openai: %s", domain.ErrEmbeddingService, embedResp.Error.Message)
	}

	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai: got %d embeddings for %d inputs",
			domain.ErrEmbeddingService, len(embedResp.Data), len(texts))
	}

	// Convert float64 to float32 and order by index
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("%w: openai: embedding index %d out of range",
				domain.ErrEmbeddingService, data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}

	return embeddings, nil
}

// classifyError sorts API failures into the transient/quota taxonomy.
// Quota exhaustion and auth failures are non-retryable for the run; rate
// limiting and server errors are transient.
func (s *EmbeddingService) classifyError(resp *http.Response, embedResp *embeddingResponse, body []byte) error {
	message := string(body)
	code := ""
	if embedResp.Error != nil {
		message = embedResp.Error.Message
		code = embedResp.Error.Code
		if code == "" {
			code = embedResp.Error.Type
		}
	}

	switch {
	case code == "insufficient_quota":
		return fmt.Errorf("%w: openai: %s", domain.ErrEmbeddingQuota, message)

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		s.limiter.RecordRateLimitError(retryAfter)
		return fmt.Errorf("%w: openai: rate limited: %s", domain.ErrEmbeddingService, message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusPaymentRequired:
		return fmt.Errorf("%w: openai: status %d: %s", domain.ErrEmbeddingQuota, resp.StatusCode, message)

	default:
		return fmt.Errorf("%w: openai: status %d: %s", domain.ErrEmbeddingService, resp.StatusCode, message)
	}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: ping failed: %w", domain.ErrEmbeddingService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
