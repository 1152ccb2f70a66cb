// Package retrieval ranks knowledge entries against user queries by
// combining several search strategies: vector similarity over full
// entries and chunks, near-exact question matching, keyword and category
// search, and conversation-aware matching. Results carry a blended
// relevance score.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/eduassist/campusrag/internal/memory"
	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/store"
	"github.com/eduassist/campusrag/internal/textutil"
	"github.com/eduassist/campusrag/internal/vectorindex"
)

// Strategy names the search path that produced a result.
type Strategy string

const (
	StrategyVectorFull    Strategy = "vector_full"
	StrategyVectorChunk   Strategy = "vector_chunk"
	StrategyContextAware  Strategy = "context_aware"
	StrategyExactQuestion Strategy = "exact_question"
	StrategySemantic      Strategy = "semantic"
	StrategyKeyword       Strategy = "keyword"
	StrategyCategory      Strategy = "category"
)

// Result is one ranked knowledge entry.
type Result struct {
	Entry            model.KnowledgeEntry `json:"entry"`
	Strategy         Strategy             `json:"strategy"`
	BaseScore        float64              `json:"base_score"`
	Relevance        float64              `json:"relevance_score"`
	MatchingKeywords []string             `json:"matching_keywords,omitempty"`
	MatchingChunk    string               `json:"matching_chunk,omitempty"`

	contextBoost bool
}

// Options scopes one retrieval call.
type Options struct {
	Categories   []string
	Conversation *model.Conversation
	UserID       string
}

// Config tunes the engine's result filtering.
type Config struct {
	MaxResults    int
	MinConfidence float64
}

// Engine runs multi-strategy retrieval over the knowledge store. The
// vector index and memory service are optional; without them the engine
// degrades to keyword strategies and context-free ranking.
type Engine struct {
	store  *store.SQLiteStore
	index  *vectorindex.Index
	memory *memory.Service
	logger *zap.Logger
	cfg    Config
}

// NewEngine builds a retrieval engine.
func NewEngine(st *store.SQLiteStore, idx *vectorindex.Index, mem *memory.Service, logger *zap.Logger, cfg Config) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 8
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, index: idx, memory: mem, logger: logger, cfg: cfg}
}

// Retrieve returns the ranked entries relevant to the query. Individual
// strategy failures are logged and skipped; Retrieve itself never fails,
// returning an empty slice in the worst case.
func (e *Engine) Retrieve(ctx context.Context, query string, opts Options) []Result {
	keywords := textutil.Keywords(query)
	e.logger.Debug("extracted keywords", zap.Strings("keywords", keywords))

	conversationContext, userContext := e.gatherContext(ctx, opts)
	if conversationContext != "" {
		keywords = mergeKeywords(keywords, textutil.Keywords(conversationContext))
	}
	if userContext != "" {
		keywords = mergeKeywords(keywords, textutil.Keywords(userContext))
	}

	var results []Result

	if e.index != nil {
		searchQuery := query
		if conversationContext != "" {
			searchQuery = query + " " + conversationContext
		}
		results = append(results, e.searchVector(ctx, searchQuery)...)
	}

	results = append(results, e.searchExactQuestions(ctx, query)...)
	results = append(results, e.searchSemantic(ctx, query, keywords)...)
	results = append(results, e.searchKeywords(ctx, keywords, opts.Categories)...)
	if len(opts.Categories) > 0 {
		results = append(results, e.searchByCategory(ctx, query, opts.Categories)...)
	}
	if conversationContext != "" {
		results = append(results, e.searchContextAware(ctx, query, conversationContext, keywords)...)
	}

	unique := deduplicate(results)
	for i := range unique {
		scoreResult(&unique[i], query, conversationContext, userContext)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Relevance > unique[j].Relevance
	})

	var filtered []Result
	for _, r := range unique {
		if r.Relevance >= e.cfg.MinConfidence {
			filtered = append(filtered, r)
		}
		if len(filtered) == e.cfg.MaxResults {
			break
		}
	}

	e.touchDatasets(ctx, filtered)

	e.logger.Info("retrieved relevant knowledge",
		zap.Int("results", len(filtered)),
		zap.Bool("conversation_aware", conversationContext != ""))
	return filtered
}

// touchDatasets bumps usage counters for every dataset that contributed a
// served entry.
func (e *Engine) touchDatasets(ctx context.Context, results []Result) {
	seen := map[string]bool{}
	for _, r := range results {
		id := r.Entry.DatasetID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := e.store.TouchDataset(ctx, id); err != nil {
			e.logger.Debug("touch dataset failed",
				zap.String("dataset_id", id), zap.Error(err))
		}
	}
}

// gatherContext pulls conversation and user context from the memory
// service. Either may be empty.
func (e *Engine) gatherContext(ctx context.Context, opts Options) (conversation, user string) {
	if e.memory == nil {
		return "", ""
	}
	if opts.Conversation != nil {
		conversation = e.memory.ConversationContext(ctx, opts.Conversation, 10)
	}
	if opts.UserID != "" {
		user = e.memory.UserContext(ctx, opts.UserID, 20)
	}
	return conversation, user
}

func (e *Engine) searchVector(ctx context.Context, query string) []Result {
	matches, err := e.index.Search(ctx, query, 10)
	if err != nil {
		e.logger.Error("vector search failed", zap.Error(err))
		return nil
	}

	var results []Result
	for _, m := range matches {
		entry, err := e.store.GetEntry(ctx, m.EntryID)
		if err != nil {
			continue
		}
		strategy := StrategyVectorFull
		if m.Kind == vectorindex.KindChunk {
			strategy = StrategyVectorChunk
		}
		results = append(results, Result{
			Entry:         *entry,
			Strategy:      strategy,
			BaseScore:     m.Score,
			MatchingChunk: m.ChunkText,
		})
	}
	return results
}

// searchExactQuestions finds entries whose question closely matches the
// query text.
func (e *Engine) searchExactQuestions(ctx context.Context, query string) []Result {
	clean := textutil.Clean(query)
	needle := clean
	if len(needle) > 50 {
		needle = needle[:50]
	}

	entries, err := e.store.SearchEntriesText(ctx, needle)
	if err != nil {
		e.logger.Error("exact question search failed", zap.Error(err))
		return nil
	}

	var results []Result
	for _, entry := range entries {
		similarity := textutil.MatchRatio(clean, textutil.Clean(entry.Question))
		if similarity > 0.7 {
			results = append(results, Result{
				Entry:     entry,
				Strategy:  StrategyExactQuestion,
				BaseScore: similarity,
			})
		}
	}
	return results
}

func (e *Engine) searchSemantic(ctx context.Context, query string, keywords []string) []Result {
	entries, err := e.store.SearchEntriesAny(ctx, keywords)
	if err != nil {
		e.logger.Error("semantic search failed", zap.Error(err))
		return nil
	}

	var results []Result
	for _, entry := range entries {
		questionSim := textutil.Similarity(query, entry.Question)
		answerSim := textutil.Similarity(query, entry.Answer)
		matching := textutil.MatchingKeywords(keywords, entry.Keywords)

		score := questionSim
		if s := answerSim * 0.8; s > score {
			score = s
		}
		boost := float64(len(matching)) * 0.1
		if boost > 0.5 {
			boost = 0.5
		}
		score += boost

		if score > 0.2 {
			results = append(results, Result{
				Entry:            entry,
				Strategy:         StrategySemantic,
				BaseScore:        score,
				MatchingKeywords: matching,
			})
		}
	}
	return results
}

func (e *Engine) searchKeywords(ctx context.Context, keywords, categories []string) []Result {
	if len(keywords) == 0 {
		return nil
	}
	entries, err := e.store.SearchEntriesKeywords(ctx, keywords, categories)
	if err != nil {
		e.logger.Error("keyword search failed", zap.Error(err))
		return nil
	}

	var results []Result
	for _, entry := range entries {
		matching := textutil.MatchingKeywords(keywords, entry.Keywords)
		score := float64(len(matching)) / float64(len(keywords))

		if score > 0.1 {
			results = append(results, Result{
				Entry:            entry,
				Strategy:         StrategyKeyword,
				BaseScore:        score,
				MatchingKeywords: matching,
			})
		}
	}
	return results
}

func (e *Engine) searchByCategory(ctx context.Context, query string, categories []string) []Result {
	var results []Result
	for _, category := range categories {
		entries, err := e.store.EntriesByCategory(ctx, category)
		if err != nil {
			e.logger.Error("category search failed",
				zap.String("category", category), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			questionRel := textutil.Similarity(query, entry.Question)
			answerRel := textutil.Similarity(query, entry.Answer)

			score := questionRel
			if s := answerRel * 0.7; s > score {
				score = s
			}
			if score > 0.15 {
				results = append(results, Result{
					Entry:     entry,
					Strategy:  StrategyCategory,
					BaseScore: score,
				})
			}
		}
	}
	return results
}

func (e *Engine) searchContextAware(ctx context.Context, query, conversationContext string, keywords []string) []Result {
	combined := mergeKeywords(keywords, textutil.Keywords(conversationContext))

	entries, err := e.store.SearchEntriesAny(ctx, combined)
	if err != nil {
		e.logger.Error("context-aware search failed", zap.Error(err))
		return nil
	}

	var results []Result
	for _, entry := range entries {
		relevance := contextRelevance(query, conversationContext, &entry)
		if relevance > 0.2 {
			results = append(results, Result{
				Entry:            entry,
				Strategy:         StrategyContextAware,
				BaseScore:        relevance,
				MatchingKeywords: textutil.MatchingKeywords(combined, entry.Keywords),
				contextBoost:     true,
			})
		}
	}
	return results
}

// mergeKeywords appends extras to base, dropping duplicates and
// preserving order.
func mergeKeywords(base, extras []string) []string {
	seen := map[string]bool{}
	var merged []string
	for _, kw := range base {
		kw = strings.ToLower(kw)
		if !seen[kw] {
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	for _, kw := range extras {
		kw = strings.ToLower(kw)
		if !seen[kw] {
			seen[kw] = true
			merged = append(merged, kw)
		}
	}
	return merged
}
