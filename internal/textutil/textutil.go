// Package textutil normalizes free text and extracts keywords for the
// ranking strategies.
package textutil

import (
	"regexp"
	"strings"
)

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	nonAlnum  = regexp.MustCompile(`[^a-z0-9\s]`)
	wordRe    = regexp.MustCompile(`\b[a-z]{3,}\b`)
	stopWords = map[string]bool{
		"the": true, "is": true, "are": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "a": true, "an": true, "this": true, "that": true,
		"these": true, "those": true, "what": true, "how": true, "why": true,
		"when": true, "where": true, "who": true, "which": true, "can": true,
		"could": true, "should": true, "would": true, "will": true, "shall": true,
		"may": true, "might": true, "must": true, "have": true, "has": true,
		"had": true, "do": true, "does": true, "did": true, "be": true,
		"been": true, "being": true, "was": true, "were": true, "get": true,
		"got": true, "tell": true, "know": true, "about": true,
	}
)

// Clean lowercases text, strips non-alphanumeric characters, and collapses
// whitespace.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// Keywords extracts unique, stop-word-filtered keywords (3+ letters) from
// text, preserving first-seen order.
func Keywords(text string) []string {
	words := wordRe.FindAllString(Clean(text), -1)
	seen := map[string]bool{}
	var keywords []string
	for _, w := range words {
		if stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// Similarity is a Jaccard similarity over the keyword sets of two texts.
func Similarity(text1, text2 string) float64 {
	set1 := toSet(Keywords(text1))
	set2 := toSet(Keywords(text2))
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}
	inter := 0
	for w := range set1 {
		if set2[w] {
			inter++
		}
	}
	union := len(set1) + len(set2) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// MatchingKeywords returns query keywords that match an entry's keyword
// list, either exactly or as substrings in either direction.
func MatchingKeywords(queryKeywords, entryKeywords []string) []string {
	if len(queryKeywords) == 0 || len(entryKeywords) == 0 {
		return nil
	}
	entrySet := toSet(entryKeywords)
	matched := map[string]bool{}
	for _, qw := range queryKeywords {
		q := strings.ToLower(qw)
		if entrySet[q] {
			matched[q] = true
			continue
		}
		for _, ew := range entryKeywords {
			e := strings.ToLower(ew)
			if strings.Contains(e, q) || strings.Contains(q, e) {
				matched[q] = true
				break
			}
		}
	}
	out := make([]string, 0, len(matched))
	for w := range matched {
		out = append(out, w)
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
