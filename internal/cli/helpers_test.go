package cli

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/config"
	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driving"
)

// setupTestServices swaps the package-level services for mocks and returns
// a cleanup function restoring the originals.
func setupTestServices() func() {
	oldConfig := appConfig
	oldScanner := scannerService
	oldEmbedder := embedderService
	oldIndex := indexService
	oldIngest := ingestService
	oldQuery := queryService
	oldWired := servicesWired

	appConfig = config.Default()
	scannerService = nil
	embedderService = &mockEmbedderService{dimensions: 4, model: "test-embed"}
	indexService = &mockIndexService{chunks: 6, documents: 2}
	ingestService = &mockIngestService{
		report: &driving.IngestReport{
			RunID:            "test-run",
			DocumentsIndexed: 2,
			ChunksIndexed:    6,
		},
	}
	queryService = &mockQueryService{
		decision: &domain.Decision{
			Mode:           domain.ModeRetrievalAugmented,
			BestSimilarity: 0.82,
			Threshold:      0.35,
			Context: []domain.ContextItem{
				{Text: "step one", DocumentID: "guide.md", Locator: "Install", Similarity: 0.82},
			},
		},
	}
	servicesWired = true

	return func() {
		appConfig = oldConfig
		scannerService = oldScanner
		embedderService = oldEmbedder
		indexService = oldIndex
		ingestService = oldIngest
		queryService = oldQuery
		servicesWired = oldWired
	}
}

type mockQueryService struct {
	decision *domain.Decision
	err      error
}

func (m *mockQueryService) Ask(_ context.Context, _ string) (*domain.Decision, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.decision, nil
}

type mockIngestService struct {
	report  *driving.IngestReport
	err     error
	ingests []string
	removes []string
}

func (m *mockIngestService) IngestAll(_ context.Context) (*driving.IngestReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngestService) Ingest(_ context.Context, raw domain.RawDocument) error {
	m.ingests = append(m.ingests, raw.ID)
	return m.err
}

func (m *mockIngestService) Remove(_ context.Context, documentID string) error {
	m.removes = append(m.removes, documentID)
	return m.err
}

type mockIndexService struct {
	chunks    int
	documents int
}

func (m *mockIndexService) Upsert(_ context.Context, _ []domain.IndexEntry) error { return nil }

func (m *mockIndexService) Replace(_ context.Context, _ string, _ []domain.IndexEntry) error {
	return nil
}

func (m *mockIndexService) Query(_ context.Context, _ []float32, _ int) ([]domain.Hit, error) {
	return nil, nil
}

func (m *mockIndexService) Delete(_ context.Context, _ string) error { return nil }

func (m *mockIndexService) Count(_ context.Context) (int, error) { return m.chunks, nil }

func (m *mockIndexService) DocumentCount(_ context.Context) (int, error) { return m.documents, nil }

func (m *mockIndexService) Close() error { return nil }

type mockEmbedderService struct {
	dimensions int
	model      string
	pingErr    error
}

func (m *mockEmbedderService) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, m.dimensions), nil
}

func (m *mockEmbedderService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dimensions)
	}
	return out, nil
}

func (m *mockEmbedderService) Dimensions() int { return m.dimensions }

func (m *mockEmbedderService) ModelName() string { return m.model }

func (m *mockEmbedderService) Ping(_ context.Context) error { return m.pingErr }

func (m *mockEmbedderService) Close() error { return nil }
