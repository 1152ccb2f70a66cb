// Package memory manages conversational memory: extracting typed memory
// records from user messages and assembling conversation and user context
// under one of four retention strategies.
package memory

import (
	"time"

	"github.com/eduassist/campusrag/internal/model"
)

// StrategyConfig fixes retention and admission rules for one strategy.
type StrategyConfig struct {
	Retention   time.Duration
	MaxMessages int
	Types       []model.MemoryType
	Priorities  []model.Priority
	AutoExpire  bool
	RAGWeight   float64
}

var strategyConfigs = map[model.MemoryStrategy]StrategyConfig{
	model.StrategyShortTerm: {
		Retention:   24 * time.Hour,
		MaxMessages: 10,
		Types:       []model.MemoryType{model.MemoryContext},
		Priorities:  []model.Priority{model.PriorityLow, model.PriorityMedium},
		AutoExpire:  true,
		RAGWeight:   0.5,
	},
	model.StrategyCrossLearning: {
		Retention:   180 * 24 * time.Hour,
		MaxMessages: 5,
		Types:       []model.MemoryType{model.MemoryCorrection, model.MemoryFeedback, model.MemoryInsight},
		Priorities:  []model.Priority{model.PriorityHigh, model.PriorityCritical},
		AutoExpire:  false,
		RAGWeight:   0.8,
	},
	model.StrategyRAGContext: {
		Retention:   7 * 24 * time.Hour,
		MaxMessages: 15,
		Types:       []model.MemoryType{model.MemoryIntent, model.MemoryPreference, model.MemoryTopic, model.MemoryContext},
		Priorities:  []model.Priority{model.PriorityMedium, model.PriorityHigh},
		AutoExpire:  true,
		RAGWeight:   1.0,
	},
	model.StrategyHybrid: {
		Retention:   30 * 24 * time.Hour,
		MaxMessages: 12,
		Types: []model.MemoryType{
			model.MemoryContext, model.MemoryIntent, model.MemoryPreference, model.MemoryTopic,
			model.MemoryFeedback, model.MemoryCorrection, model.MemoryInsight,
		},
		Priorities: []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical},
		AutoExpire: true,
		RAGWeight:  0.9,
	},
}

// ConfigFor returns the configuration for a strategy. Unknown strategies
// fall back to hybrid.
func ConfigFor(strategy model.MemoryStrategy) StrategyConfig {
	if cfg, ok := strategyConfigs[strategy]; ok {
		return cfg
	}
	return strategyConfigs[model.StrategyHybrid]
}

// Supports reports whether the strategy admits the memory type.
func (c StrategyConfig) Supports(t model.MemoryType) bool {
	for _, mt := range c.Types {
		if mt == t {
			return true
		}
	}
	return false
}

// ExpiresAt returns the expiry for a memory created now, or nil when the
// strategy retains indefinitely.
func (c StrategyConfig) ExpiresAt(now time.Time) *time.Time {
	if !c.AutoExpire {
		return nil
	}
	t := now.Add(c.Retention)
	return &t
}
