// Package model defines the core knowledge and memory data types.
package model

import "time"

// EntryType classifies a knowledge entry and decides the shape of its metadata.
type EntryType string

const (
	EntryGeneral       EntryType = "general"
	EntryProgram       EntryType = "program"
	EntryAccommodation EntryType = "accommodation"
	EntryModule        EntryType = "module"
	EntryFee           EntryType = "fee"
	EntryAdmission     EntryType = "admission"
	EntryFacility      EntryType = "facility"
)

// ValidEntryTypes are the allowed knowledge entry types.
var ValidEntryTypes = map[EntryType]bool{
	EntryGeneral:       true,
	EntryProgram:       true,
	EntryAccommodation: true,
	EntryModule:        true,
	EntryFee:           true,
	EntryAdmission:     true,
	EntryFacility:      true,
}

// DatasetStatus gates whether a dataset's entries participate in search.
type DatasetStatus string

const (
	DatasetActive   DatasetStatus = "active"
	DatasetInactive DatasetStatus = "inactive"
	DatasetArchived DatasetStatus = "archived"
)

// Dataset is a named, versioned batch of knowledge entries.
type Dataset struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Version     string        `json:"version"`
	Description string        `json:"description,omitempty"`
	Status      DatasetStatus `json:"status"`
	UsageCount  int           `json:"usage_count"`
	LastUsed    *time.Time    `json:"last_used,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// KnowledgeEntry is a single question/answer fact record used for retrieval.
type KnowledgeEntry struct {
	ID              string         `json:"id"`
	DatasetID       string         `json:"dataset_id"`
	Question        string         `json:"question"`
	Answer          string         `json:"answer"`
	Category        string         `json:"category"`
	EntryType       EntryType      `json:"entry_type"`
	Keywords        []string       `json:"keywords,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	IsValidated     bool           `json:"is_validated"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty"`
}

// StructuredData returns typed metadata fields based on the entry type.
// Unknown types return the raw metadata map.
func (e *KnowledgeEntry) StructuredData() map[string]any {
	get := func(key string) any {
		if e.Metadata == nil {
			return nil
		}
		return e.Metadata[key]
	}
	switch e.EntryType {
	case EntryProgram:
		return map[string]any{
			"level":               get("level"),
			"name":                get("name"),
			"specialization":      get("specialization"),
			"duration":            get("duration"),
			"study_mode":          get("study_mode"),
			"core_modules":        get("core_modules"),
			"specialized_modules": get("specialized_modules"),
		}
	case EntryAccommodation:
		return map[string]any{
			"location":     get("location"),
			"single_rent":  get("single_rent"),
			"sharing_rent": get("sharing_rent"),
			"facilities":   get("facilities"),
			"distance":     get("distance"),
		}
	case EntryModule:
		return map[string]any{
			"code":              get("code"),
			"name":              get("name"),
			"credits":           get("credits"),
			"prerequisites":     get("prerequisites"),
			"learning_outcomes": get("learning_outcomes"),
		}
	}
	return e.Metadata
}
