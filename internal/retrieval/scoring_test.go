package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/textutil"
)

func TestDeduplicateKeepsHighestScore(t *testing.T) {
	results := []Result{
		{Entry: model.KnowledgeEntry{ID: "e1"}, Strategy: StrategyKeyword, BaseScore: 0.3},
		{Entry: model.KnowledgeEntry{ID: "e2"}, Strategy: StrategyKeyword, BaseScore: 0.4},
		{Entry: model.KnowledgeEntry{ID: "e1"}, Strategy: StrategySemantic, BaseScore: 0.6},
	}

	unique := deduplicate(results)
	assert.Len(t, unique, 2)
	assert.Equal(t, "e1", unique[0].Entry.ID)
	assert.Equal(t, StrategySemantic, unique[0].Strategy)
	assert.Equal(t, 0.6, unique[0].BaseScore)
	assert.Equal(t, "e2", unique[1].Entry.ID)
}

func TestScoreResultClampsAtOne(t *testing.T) {
	r := Result{
		Entry: model.KnowledgeEntry{
			Category:        "Programs and Courses",
			ConfidenceScore: 1.0,
			IsValidated:     true,
		},
		Strategy:  StrategyVectorFull,
		BaseScore: 0.9,
	}
	scoreResult(&r, "software engineering fees", "", "")
	assert.Equal(t, 1.0, r.Relevance)
}

func TestScoreResultCategoryWeight(t *testing.T) {
	admissions := Result{
		Entry:     model.KnowledgeEntry{ID: "a", Category: "Admissions"},
		Strategy:  StrategyKeyword,
		BaseScore: 0.5,
	}
	general := Result{
		Entry:     model.KnowledgeEntry{ID: "g", Category: "General Information"},
		Strategy:  StrategyKeyword,
		BaseScore: 0.5,
	}

	scoreResult(&admissions, "entry requirements", "", "")
	scoreResult(&general, "entry requirements", "", "")

	assert.InDelta(t, 0.60, admissions.Relevance, 1e-9)
	assert.InDelta(t, 0.50, general.Relevance, 1e-9)
}

func TestScoreResultChunkSimilarityBeatsBase(t *testing.T) {
	query := "library opening hours"

	withChunk := Result{
		Entry:         model.KnowledgeEntry{ID: "e1"},
		Strategy:      StrategyVectorChunk,
		BaseScore:     0.1,
		MatchingChunk: "library opening hours today",
	}
	without := Result{
		Entry:     model.KnowledgeEntry{ID: "e1"},
		Strategy:  StrategyVectorChunk,
		BaseScore: 0.1,
	}

	scoreResult(&withChunk, query, "", "")
	scoreResult(&without, query, "", "")
	assert.Greater(t, withChunk.Relevance, without.Relevance)
}

func TestScoreResultContextBonus(t *testing.T) {
	boosted := Result{
		Entry:        model.KnowledgeEntry{ID: "e1"},
		Strategy:     StrategyContextAware,
		BaseScore:    0.4,
		contextBoost: true,
	}
	plain := boosted
	plain.contextBoost = false

	scoreResult(&boosted, "fees", "User asked about fees", "")
	scoreResult(&plain, "fees", "User asked about fees", "")
	assert.InDelta(t, 0.15, boosted.Relevance-plain.Relevance, 1e-9)
}

func TestContextRelevanceFollowUpBoost(t *testing.T) {
	entry := &model.KnowledgeEntry{
		Question: "fees structure overview",
		Answer:   "Fees are billed per semester.",
	}
	conversation := "User asked about tuition billing."

	plain := contextRelevance("fees structure", conversation, entry)
	followUp := contextRelevance("what about fees structure", conversation, entry)
	assert.Greater(t, followUp, plain)
}

func TestProgramRelevanceLevelBoost(t *testing.T) {
	entry := &model.KnowledgeEntry{
		Question: "What postgraduate computing programmes are offered",
		Answer:   `The "MSc in Software Engineering" programme runs two years.`,
	}

	query := "postgraduate computing options"
	plain := textutil.Similarity(query, entry.Question)
	boosted := programRelevance(query, entry)
	assert.Greater(t, boosted, plain)
}

func TestAccommodationRelevanceRentBoost(t *testing.T) {
	entry := &model.KnowledgeEntry{
		Question: "What is the rent at Covillea",
		Answer:   "Location: Bukit Jalil\nSingle room: RM 650\nSharing room: RM 450",
	}

	query := "rent price at covillea"
	plain := textutil.Similarity(query, entry.Question)
	boosted := accommodationRelevance(query, entry)
	assert.Greater(t, boosted, plain)
}
