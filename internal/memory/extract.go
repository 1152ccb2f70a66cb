package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eduassist/campusrag/internal/model"
)

// Indicator phrases that signal each memory type in a user message.
var (
	intentIndicators     = []string{"want", "need", "looking for", "interested in", "plan to", "hoping to"}
	preferenceIndicators = []string{"prefer", "like", "dislike", "favorite", "best", "better"}
	correctionIndicators = []string{"actually", "no", "wrong", "incorrect", "meant", "should be"}
)

var feedbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(that was|this is|it's)\s+(good|bad|helpful|not helpful|wrong|correct)`),
	regexp.MustCompile(`(thanks|thank you|helpful|not helpful)`),
	regexp.MustCompile(`(wrong|incorrect|right|correct)`),
}

// topicPatterns covers the campus vocabulary worth tracking as discussion
// topics.
var topicPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"program", regexp.MustCompile(`\bprograms?\b`)},
	{"course", regexp.MustCompile(`\bcourses?\b`)},
	{"fee", regexp.MustCompile(`\bfees?\b`)},
	{"admission", regexp.MustCompile(`\badmission\b`)},
	{"requirement", regexp.MustCompile(`\brequirements?\b`)},
	{"accommodation", regexp.MustCompile(`\baccommodation\b`)},
	{"facilities", regexp.MustCompile(`\bfacilities\b`)},
	{"campus", regexp.MustCompile(`\bcampus\b`)},
	{"scholarship", regexp.MustCompile(`\bscholarships?\b`)},
	{"engineering", regexp.MustCompile(`\bengineering\b`)},
	{"business", regexp.MustCompile(`\bbusiness\b`)},
	{"computing", regexp.MustCompile(`\bcomputing\b`)},
	{"it", regexp.MustCompile(`\bit\b`)},
	{"finance", regexp.MustCompile(`\bfinance\b`)},
}

var (
	intentTargetRe     = map[string]*regexp.Regexp{}
	preferenceClauseRe = map[string]*regexp.Regexp{}
)

func init() {
	for _, ind := range intentIndicators {
		intentTargetRe[ind] = regexp.MustCompile(regexp.QuoteMeta(ind) + `\s+(.+?)(?:\.|$|,|\?)`)
	}
	for _, ind := range preferenceIndicators {
		preferenceClauseRe[ind] = regexp.MustCompile(`(.*?` + regexp.QuoteMeta(ind) + `\s+.+?)(?:\.|$|,|\?)`)
	}
}

// extracted is a candidate memory before strategy admission.
type extracted struct {
	Type       model.MemoryType
	Content    string
	Context    map[string]any
	Priority   model.Priority
	Confidence float64
	Relevance  float64
}

func extractContext(msg *model.Message) *extracted {
	return &extracted{
		Type:    model.MemoryContext,
		Content: msg.Content,
		Context: map[string]any{
			"message_id": msg.ID,
			"sender":     string(msg.Sender),
			"timestamp":  msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		Priority:   model.PriorityLow,
		Confidence: 0.5,
		Relevance:  0.3,
	}
}

func extractIntent(msg *model.Message) *extracted {
	content := strings.ToLower(msg.Content)
	for _, ind := range intentIndicators {
		if !strings.Contains(content, ind) {
			continue
		}
		m := intentTargetRe[ind].FindStringSubmatch(content)
		if m == nil {
			continue
		}
		target := strings.TrimSpace(m[1])
		return &extracted{
			Type:    model.MemoryIntent,
			Content: fmt.Sprintf("User %s %s", ind, target),
			Context: map[string]any{
				"original_message": msg.Content,
				"indicator":        ind,
				"extracted_intent": target,
			},
			Priority:   model.PriorityHigh,
			Confidence: 0.8,
			Relevance:  0.9,
		}
	}
	return nil
}

func extractPreference(msg *model.Message) *extracted {
	content := strings.ToLower(msg.Content)
	for _, ind := range preferenceIndicators {
		if !strings.Contains(content, ind) {
			continue
		}
		m := preferenceClauseRe[ind].FindStringSubmatch(content)
		if m == nil {
			continue
		}
		return &extracted{
			Type:    model.MemoryPreference,
			Content: strings.TrimSpace(m[1]),
			Context: map[string]any{
				"original_message": msg.Content,
				"indicator":        ind,
			},
			Priority:   model.PriorityMedium,
			Confidence: 0.7,
			Relevance:  0.8,
		}
	}
	return nil
}

func extractFeedback(msg *model.Message) *extracted {
	content := strings.ToLower(msg.Content)
	for _, re := range feedbackPatterns {
		m := re.FindString(content)
		if m == "" {
			continue
		}
		sentiment := feedbackSentiment(m)
		feedbackType := "negative"
		if sentiment > 0 {
			feedbackType = "positive"
		}
		priority := model.PriorityMedium
		if sentiment < 0 {
			priority = model.PriorityHigh
		}
		return &extracted{
			Type:    model.MemoryFeedback,
			Content: "User feedback: " + m,
			Context: map[string]any{
				"original_message": msg.Content,
				"sentiment":        sentiment,
				"feedback_type":    feedbackType,
			},
			Priority:   priority,
			Confidence: 0.8,
			Relevance:  0.7,
		}
	}
	return nil
}

func extractCorrection(msg *model.Message) *extracted {
	content := strings.ToLower(msg.Content)
	for _, ind := range correctionIndicators {
		if !strings.Contains(content, ind) {
			continue
		}
		return &extracted{
			Type:    model.MemoryCorrection,
			Content: "User correction: " + msg.Content,
			Context: map[string]any{
				"original_message":     msg.Content,
				"correction_indicator": ind,
			},
			Priority:   model.PriorityCritical,
			Confidence: 0.9,
			Relevance:  1.0,
		}
	}
	return nil
}

func extractTopics(msg *model.Message) *extracted {
	content := strings.ToLower(msg.Content)
	var topics []string
	for _, tp := range topicPatterns {
		if tp.re.MatchString(content) {
			topics = append(topics, tp.name)
		}
	}
	if len(topics) == 0 {
		return nil
	}
	return &extracted{
		Type:    model.MemoryTopic,
		Content: "Discussion topics: " + strings.Join(topics, ", "),
		Context: map[string]any{
			"original_message": msg.Content,
			"topics":           topics,
			"topic_count":      len(topics),
		},
		Priority:   model.PriorityLow,
		Confidence: 0.6,
		Relevance:  0.5,
	}
}

// feedbackSentiment scores feedback text by counting lexicon hits.
// Returns 1 for positive, -1 for negative, 0 when balanced.
func feedbackSentiment(text string) float64 {
	positive := []string{"good", "great", "helpful", "thanks", "correct", "right", "perfect"}
	negative := []string{"bad", "wrong", "incorrect", "not helpful", "useless", "terrible"}

	text = strings.ToLower(text)
	var pos, neg int
	for _, w := range positive {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negative {
		if strings.Contains(text, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return 1.0
	case neg > pos:
		return -1.0
	default:
		return 0.0
	}
}
