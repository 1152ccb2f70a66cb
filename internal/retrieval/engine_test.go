package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *store.SQLiteStore, string) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	dataset, err := s.CreateDataset(context.Background(), store.DatasetParams{Name: "campus-faq"})
	require.NoError(t, err)
	return NewEngine(s, nil, nil, zap.NewNop(), cfg), s, dataset.ID
}

func seedEntry(t *testing.T, s *store.SQLiteStore, p store.EntryParams) *model.KnowledgeEntry {
	t.Helper()
	if p.EntryType == "" {
		p.EntryType = model.EntryGeneral
	}
	entry, err := s.CreateEntry(context.Background(), p)
	require.NoError(t, err)
	return entry
}

func seedScholarshipEntries(t *testing.T, s *store.SQLiteStore, datasetID string) (strong, weak *model.KnowledgeEntry) {
	strong = seedEntry(t, s, store.EntryParams{
		DatasetID:       datasetID,
		Question:        "What are the scholarship application deadline dates?",
		Answer:          "Scholarship applications close on 30 June for the September intake.",
		Category:        "Fees and Financial Aid",
		Keywords:        []string{"scholarship", "application", "deadline", "dates"},
		ConfidenceScore: 1.0,
		IsValidated:     true,
	})
	weak = seedEntry(t, s, store.EntryParams{
		DatasetID:       datasetID,
		Question:        "How much are the scholarship grants?",
		Answer:          "Grant amounts vary by merit band.",
		Category:        "Fees and Financial Aid",
		Keywords:        []string{"scholarship", "grants"},
		ConfidenceScore: 0.8,
		IsValidated:     true,
	})
	return strong, weak
}

func TestRetrieveRanksCloseMatchFirst(t *testing.T) {
	ctx := context.Background()
	e, s, datasetID := newTestEngine(t, Config{})
	strong, weak := seedScholarshipEntries(t, s, datasetID)

	results := e.Retrieve(ctx, "What are the scholarship application deadline dates?", Options{})
	require.Len(t, results, 2)

	assert.Equal(t, strong.ID, results[0].Entry.ID)
	assert.Equal(t, weak.ID, results[1].Entry.ID)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
	assert.InDelta(t, 1.0, results[0].Relevance, 1e-9)
}

func TestRetrieveMinConfidenceFiltersWeakMatches(t *testing.T) {
	ctx := context.Background()
	e, s, datasetID := newTestEngine(t, Config{MinConfidence: 0.95})
	strong, _ := seedScholarshipEntries(t, s, datasetID)

	results := e.Retrieve(ctx, "What are the scholarship application deadline dates?", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, strong.ID, results[0].Entry.ID)
}

func TestRetrieveCapsResults(t *testing.T) {
	ctx := context.Background()
	e, s, datasetID := newTestEngine(t, Config{MaxResults: 1})
	strong, _ := seedScholarshipEntries(t, s, datasetID)

	results := e.Retrieve(ctx, "What are the scholarship application deadline dates?", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, strong.ID, results[0].Entry.ID)
}

func TestRetrieveNoMatches(t *testing.T) {
	ctx := context.Background()
	e, s, datasetID := newTestEngine(t, Config{})
	seedScholarshipEntries(t, s, datasetID)

	results := e.Retrieve(ctx, "parking permit rules", Options{})
	assert.Empty(t, results)
}

func TestRetrieveEmptyStore(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, Config{})

	results := e.Retrieve(ctx, "anything at all", Options{Categories: []string{"Admissions"}})
	assert.Empty(t, results)
}

func TestRetrieveWithCategoryOption(t *testing.T) {
	ctx := context.Background()
	e, s, datasetID := newTestEngine(t, Config{})
	entry := seedEntry(t, s, store.EntryParams{
		DatasetID:       datasetID,
		Question:        "What are the admission requirements for the foundation programme?",
		Answer:          "A minimum of five credits at SPM level.",
		Category:        "Admissions",
		Keywords:        []string{"admission", "requirements", "foundation"},
		ConfidenceScore: 0.9,
		IsValidated:     true,
	})

	results := e.Retrieve(ctx, "admission requirements for the foundation programme",
		Options{Categories: []string{"Admissions"}})
	require.NotEmpty(t, results)
	assert.Equal(t, entry.ID, results[0].Entry.ID)
}

func TestMergeKeywords(t *testing.T) {
	merged := mergeKeywords([]string{"fees", "Engineering"}, []string{"engineering", "campus"})
	assert.Equal(t, []string{"fees", "engineering", "campus"}, merged)
}
