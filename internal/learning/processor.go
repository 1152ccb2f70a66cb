// Package learning turns accumulated conversation memories into
// knowledge-base improvements: it reviews corrections and negative
// feedback, and promotes frequently asked topics into placeholder
// entries for manual review.
package learning

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
	"github.com/eduassist/campusrag/internal/vectorindex"
)

// learnedDatasetName holds entries generated from conversation patterns.
const learnedDatasetName = "Cross-Conversation Learning"

// minTopicFrequency is how often a topic must recur within the lookback
// window before it earns a placeholder entry.
const minTopicFrequency = 3

var correctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`actually[,\s]+(.*)`),
	regexp.MustCompile(`no[,\s]+(.*)`),
	regexp.MustCompile(`should be[,\s]+(.*)`),
	regexp.MustCompile(`correct answer is[,\s]+(.*)`),
	regexp.MustCompile(`meant[,\s]+(.*)`),
}

// Options tunes one processing run.
type Options struct {
	UserID   string
	Lookback time.Duration
	DryRun   bool
}

// Results reports what a processing run did.
type Results struct {
	CorrectionsFound     int `json:"corrections_found"`
	FeedbackFound        int `json:"feedback_found"`
	InsightsFound        int `json:"insights_found"`
	CorrectionsProcessed int `json:"corrections_processed"`
	FeedbackProcessed    int `json:"feedback_processed"`
	InsightsProcessed    int `json:"insights_processed"`
	PatternsIdentified   int `json:"patterns_identified"`
	KBEntriesCreated     int `json:"kb_entries_created"`
}

// Processor runs cross-conversation learning over the memory store. The
// vector index is optional; when present, new entries are indexed
// immediately.
type Processor struct {
	store  *store.SQLiteStore
	index  *vectorindex.Index
	logger *zap.Logger
}

// NewProcessor builds a learning processor.
func NewProcessor(st *store.SQLiteStore, idx *vectorindex.Index, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: st, index: idx, logger: logger}
}

// Process reviews unprocessed corrections, feedback, and insights within
// the lookback window, marks them handled, and creates knowledge entries
// for recurring topics. Re-running is safe: handled memories are skipped
// and existing topic entries are not duplicated.
func (p *Processor) Process(ctx context.Context, opts Options) (*Results, error) {
	if opts.Lookback <= 0 {
		opts.Lookback = 7 * 24 * time.Hour
	}
	since := time.Now().UTC().Add(-opts.Lookback)

	memories, err := p.store.CrossLearningMemories(ctx, opts.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("load learning memories: %w", err)
	}

	results := &Results{}
	for _, m := range memories {
		switch m.Type {
		case model.MemoryCorrection:
			results.CorrectionsFound++
		case model.MemoryFeedback:
			results.FeedbackFound++
		case model.MemoryInsight:
			results.InsightsFound++
		}
	}

	if opts.DryRun {
		return results, nil
	}

	for _, m := range memories {
		var ok bool
		switch m.Type {
		case model.MemoryCorrection:
			ok = p.processCorrection(&m)
			if ok {
				results.CorrectionsProcessed++
			}
		case model.MemoryFeedback:
			ok = p.processFeedback(ctx, &m)
			if ok {
				results.FeedbackProcessed++
			}
		case model.MemoryInsight:
			p.logger.Info("insight processed", zap.String("content", m.Content))
			ok = true
			results.InsightsProcessed++
		}
		if ok {
			if err := p.store.MarkInfluencedKB(ctx, m.ID, ""); err != nil {
				p.logger.Error("mark memory processed failed",
					zap.String("memory_id", m.ID), zap.Error(err))
			}
		}
	}

	patterns, err := p.identifyPatterns(ctx, since)
	if err != nil {
		p.logger.Error("pattern identification failed", zap.Error(err))
	}
	results.PatternsIdentified = len(patterns)
	results.KBEntriesCreated = p.createEntriesFromPatterns(ctx, patterns)

	return results, nil
}

// processCorrection extracts what the user corrected and flags it for
// manual review. Corrections never mutate the knowledge base directly.
func (p *Processor) processCorrection(m *model.MemoryRecord) bool {
	original, _ := m.Context["original_message"].(string)
	lower := strings.ToLower(original)

	for _, re := range correctionPatterns {
		if match := re.FindStringSubmatch(lower); match != nil {
			p.logger.Info("correction flagged for review",
				zap.String("memory_id", m.ID),
				zap.String("corrected_info", strings.TrimSpace(match[1])))
			return true
		}
	}
	p.logger.Info("correction flagged for review",
		zap.String("memory_id", m.ID),
		zap.String("content", m.Content))
	return true
}

// processFeedback attributes negative feedback to the assistant response
// that drew it. Positive and neutral feedback is acknowledged without
// further action.
func (p *Processor) processFeedback(ctx context.Context, m *model.MemoryRecord) bool {
	if m.Sentiment() >= 0 {
		return true
	}

	msg, err := p.store.AssistantMessageBefore(ctx, m.ConversationID, m.CreatedAt)
	if err != nil {
		p.logger.Warn("negative feedback without attributable response",
			zap.String("memory_id", m.ID), zap.Error(err))
		return true
	}
	p.logger.Warn("negative feedback recorded",
		zap.String("memory_id", m.ID),
		zap.String("response_id", msg.ID),
		zap.String("response", truncate(msg.Content, 100)))
	return true
}

type topicPattern struct {
	Topic     string
	Frequency int
}

// identifyPatterns counts topic mentions across recent topic memories and
// keeps those that recur at least minTopicFrequency times.
func (p *Processor) identifyPatterns(ctx context.Context, since time.Time) ([]topicPattern, error) {
	memories, err := p.store.TopicMemories(ctx, since)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	var order []string
	for _, m := range memories {
		for _, topic := range m.Topics() {
			if counts[topic] == 0 {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	var patterns []topicPattern
	for _, topic := range order {
		if counts[topic] >= minTopicFrequency {
			patterns = append(patterns, topicPattern{Topic: topic, Frequency: counts[topic]})
		}
	}
	return patterns, nil
}

// createEntriesFromPatterns writes a low-confidence placeholder entry for
// each recurring topic the learned dataset does not already cover. A
// failing pattern is logged and skipped; the rest of the batch proceeds.
func (p *Processor) createEntriesFromPatterns(ctx context.Context, patterns []topicPattern) int {
	if len(patterns) == 0 {
		return 0
	}

	dataset, err := p.store.GetOrCreateDataset(ctx, learnedDatasetName, "general",
		"Knowledge entries created from conversation patterns and feedback")
	if err != nil {
		p.logger.Error("learned dataset unavailable", zap.Error(err))
		return 0
	}

	created := 0
	for _, pat := range patterns {
		exists, err := p.store.EntryExistsForTopic(ctx, dataset.ID, pat.Topic)
		if err != nil {
			p.logger.Error("checking topic entry failed",
				zap.String("topic", pat.Topic), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		entry, err := p.store.CreateEntry(ctx, store.EntryParams{
			DatasetID: dataset.ID,
			Question:  fmt.Sprintf("Frequently asked about: %s", pat.Topic),
			Answer: fmt.Sprintf("This topic was asked about %d times. Manual review needed to provide comprehensive answer.",
				pat.Frequency),
			Category:  "Auto-Generated",
			EntryType: model.EntryGeneral,
			Keywords:  []string{pat.Topic},
			Metadata: map[string]any{
				"auto_generated": true,
				"pattern_type":   "frequent_topic",
				"frequency":      pat.Frequency,
				"needs_review":   true,
			},
			ConfidenceScore: 0.3,
			IsValidated:     false,
		})
		if err != nil {
			p.logger.Error("creating topic entry failed",
				zap.String("topic", pat.Topic), zap.Error(err))
			continue
		}
		created++
		p.logger.Info("created entry for frequent topic",
			zap.String("topic", pat.Topic), zap.Int("frequency", pat.Frequency))

		if p.index != nil {
			if err := p.index.Add(ctx, entry); err != nil {
				p.logger.Warn("indexing new entry failed",
					zap.String("entry_id", entry.ID), zap.Error(err))
			}
		}
	}
	return created
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
