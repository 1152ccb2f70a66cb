package learning

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
)

func newTestProcessor(t *testing.T) (*Processor, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewProcessor(s, nil, zap.NewNop()), s
}

func addMemory(t *testing.T, s *store.SQLiteStore, p store.MemoryParams) *model.MemoryRecord {
	t.Helper()
	if p.Strategy == "" {
		p.Strategy = model.StrategyCrossLearning
	}
	if p.ConversationID == "" {
		conv, err := s.CreateConversation(context.Background(), p.UserID, "")
		require.NoError(t, err)
		p.ConversationID = conv.ID
	}
	m, err := s.CreateMemory(context.Background(), p)
	require.NoError(t, err)
	return m
}

func TestProcessCorrections(t *testing.T) {
	ctx := context.Background()
	p, s := newTestProcessor(t)

	addMemory(t, s, store.MemoryParams{
		UserID: "u1", Type: model.MemoryCorrection,
		Content: "User correction: Actually, the fee is RM45,000",
		Context: map[string]any{"original_message": "Actually, the fee is RM45,000"},
	})

	results, err := p.Process(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, results.CorrectionsFound)
	assert.Equal(t, 1, results.CorrectionsProcessed)
	assert.Equal(t, 0, results.KBEntriesCreated)

	// Corrections are flagged, never applied to the knowledge base.
	entries, err := s.ActiveEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Second run finds nothing new.
	results, err = p.Process(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, results.CorrectionsFound)
	assert.Equal(t, 0, results.CorrectionsProcessed)
}

func TestProcessNegativeFeedbackAttribution(t *testing.T) {
	ctx := context.Background()
	p, s := newTestProcessor(t)

	conv, err := s.CreateConversation(ctx, "u1", "")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, conv.ID, model.SenderAssistant, "The fee is RM40,000.")
	require.NoError(t, err)

	addMemory(t, s, store.MemoryParams{
		ConversationID: conv.ID, UserID: "u1", Type: model.MemoryFeedback,
		Content: "User feedback: wrong",
		Context: map[string]any{"sentiment": -1.0},
	})

	results, err := p.Process(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, results.FeedbackProcessed)
}

func TestDryRunChangesNothing(t *testing.T) {
	ctx := context.Background()
	p, s := newTestProcessor(t)

	addMemory(t, s, store.MemoryParams{
		UserID: "u1", Type: model.MemoryCorrection, Content: "User correction: no, wrong",
	})

	results, err := p.Process(ctx, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, results.CorrectionsFound)
	assert.Equal(t, 0, results.CorrectionsProcessed)

	// The memory is still unprocessed.
	memories, err := s.CrossLearningMemories(ctx, "u1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, memories, 1)
}

func TestFrequentTopicCreatesEntry(t *testing.T) {
	ctx := context.Background()
	p, s := newTestProcessor(t)

	for i := 0; i < 3; i++ {
		addMemory(t, s, store.MemoryParams{
			UserID: "u1", Strategy: model.StrategyRAGContext, Type: model.MemoryTopic,
			Content: "Discussion topics: scholarship",
			Context: map[string]any{"topics": []string{"scholarship"}},
		})
	}
	// Below threshold.
	addMemory(t, s, store.MemoryParams{
		UserID: "u1", Strategy: model.StrategyRAGContext, Type: model.MemoryTopic,
		Content: "Discussion topics: parking",
		Context: map[string]any{"topics": []string{"parking"}},
	})

	results, err := p.Process(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, results.PatternsIdentified)
	assert.Equal(t, 1, results.KBEntriesCreated)

	entries, err := s.ActiveEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "Frequently asked about: scholarship", entry.Question)
	assert.Equal(t, "Auto-Generated", entry.Category)
	assert.Equal(t, 0.3, entry.ConfidenceScore)
	assert.False(t, entry.IsValidated)
	assert.Equal(t, true, entry.Metadata["needs_review"])
	assert.Equal(t, true, entry.Metadata["auto_generated"])

	// Re-running does not duplicate the entry.
	results, err = p.Process(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, results.KBEntriesCreated)

	entries, _ = s.ActiveEntries(ctx)
	assert.Len(t, entries, 1)
}
