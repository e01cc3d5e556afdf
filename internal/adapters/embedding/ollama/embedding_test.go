package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{
		BaseURL:    server.URL,
		Dimensions: 4,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestEmbed(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{
			Embedding: []float64{0.1, 0.2, 0.3, 0.4},
		})
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vec)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	var calls int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Encode the prompt length into the vector so order is visible.
		calls++
		json.NewEncoder(w).Encode(embedResponse{
			Embedding: []float64{float64(len(req.Prompt))},
		})
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []float32{1}, vecs[0])
	assert.Equal(t, []float32{2}, vecs[1])
	assert.Equal(t, []float32{3}, vecs[2])
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty batch")
	})

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbed_ServerError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingService))
}

func TestEmbed_ErrorInBody(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Error: "model not found"})
	})

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingService))
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbed_ServerUnreachable(t *testing.T) {
	svc, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingService))
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
