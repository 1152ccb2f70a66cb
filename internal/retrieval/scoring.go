package retrieval

import (
	"strings"

	"github.com/eduassist/campusrag/internal/model"
	"github.com/eduassist/campusrag/internal/textutil"
)

// categoryWeights bias ranking toward the categories users ask about
// most. Unlisted categories weigh 1.0.
var categoryWeights = map[string]float64{
	"Programs and Courses":           1.2,
	"Curriculum and Modules":         1.15,
	"Fees and Financial Aid":         1.1,
	"Admissions":                     1.1,
	"School of Computing":            1.1,
	"School of Business":             1.1,
	"School of Engineering":          1.1,
	"School of Accounting & Finance": 1.1,
	"Campus and Facilities":          1.0,
	"Student Life":                   1.0,
	"General Information":            0.9,
	"Accommodation":                  1.1,
	"Study Mode":                     1.1,
}

// strategyBonuses reward the more precise search strategies.
var strategyBonuses = map[Strategy]float64{
	StrategyVectorFull:    0.3,
	StrategyVectorChunk:   0.25,
	StrategyContextAware:  0.2,
	StrategyExactQuestion: 0.15,
	StrategySemantic:      0.1,
	StrategyKeyword:       0.05,
	StrategyCategory:      0.02,
}

// deduplicate keeps the highest-base-score result per entry.
func deduplicate(results []Result) []Result {
	best := map[string]int{}
	var unique []Result
	for _, r := range results {
		if i, ok := best[r.Entry.ID]; ok {
			if r.BaseScore > unique[i].BaseScore {
				unique[i] = r
			}
			continue
		}
		best[r.Entry.ID] = len(unique)
		unique = append(unique, r)
	}
	return unique
}

// scoreResult computes the final relevance score for one result.
func scoreResult(r *Result, query string, conversationContext, userContext string) {
	entry := &r.Entry
	base := r.BaseScore

	weight, ok := categoryWeights[entry.Category]
	if !ok {
		weight = 1.0
	}

	category := strings.ToLower(entry.Category)
	if strings.Contains(category, "program") {
		if s := programRelevance(query, entry); s > base {
			base = s
		}
	} else if strings.Contains(category, "accommodation") {
		if s := accommodationRelevance(query, entry); s > base {
			base = s
		}
	}

	// A matching chunk can beat the whole-entry score.
	if r.MatchingChunk != "" {
		if s := textutil.Similarity(query, r.MatchingChunk); s > base {
			base = s
		}
	}

	contextBonus := 0.0
	if conversationContext != "" && r.contextBoost {
		contextBonus = 0.15
	}

	userBonus := 0.0
	if userContext != "" {
		userBonus = textutil.Similarity(userContext, entry.Answer) * 0.1
	}

	confidenceBoost := entry.ConfidenceScore * 0.1

	recencyBonus := 0.0
	if entry.IsValidated {
		recencyBonus = 0.05
	}

	score := base*weight + confidenceBoost + strategyBonuses[r.Strategy] + contextBonus + userBonus + recencyBonus
	if score > 1.0 {
		score = 1.0
	}
	r.Relevance = score
}

// programRelevance boosts program entries whose level, specialization, or
// study mode appears in the query.
func programRelevance(query string, entry *model.KnowledgeEntry) float64 {
	score := textutil.Similarity(query, entry.Question)
	info := extractProgramInfo(entry)
	queryLower := strings.ToLower(query)

	if info.Level != "" && strings.Contains(queryLower, strings.ToLower(info.Level)) {
		score *= 1.2
	}
	if info.Specialization != "" {
		for _, word := range strings.Fields(info.Specialization) {
			if strings.Contains(queryLower, strings.ToLower(word)) {
				score *= 1.15
				break
			}
		}
	}
	if info.StudyMode != "" && strings.Contains(queryLower, strings.ToLower(info.StudyMode)) {
		score *= 1.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// accommodationRelevance boosts accommodation entries matching the
// query's location, rent, or facility focus.
func accommodationRelevance(query string, entry *model.KnowledgeEntry) float64 {
	score := textutil.Similarity(query, entry.Question)
	info := extractAccommodationInfo(entry)
	queryLower := strings.ToLower(query)

	if info.Location != "" && strings.Contains(queryLower, strings.ToLower(info.Location)) {
		score *= 1.2
	}
	if containsAny(queryLower, "rent", "price", "cost") && (info.SingleRent > 0 || info.SharingRent > 0) {
		score *= 1.15
	}
	if containsAny(queryLower, "facility", "amenity", "feature") && len(info.Facilities) > 0 {
		score *= 1.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// contextRelevance blends query and conversation similarity for the
// context-aware strategy, with a nudge for follow-up phrasing.
func contextRelevance(query, conversationContext string, entry *model.KnowledgeEntry) float64 {
	querySim := textutil.Similarity(query, entry.Question)
	contextSim := textutil.Similarity(conversationContext, entry.Answer)

	score := querySim*0.7 + contextSim*0.3
	if containsAny(strings.ToLower(query), "also", "what about", "and", "additionally") {
		score *= 1.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
