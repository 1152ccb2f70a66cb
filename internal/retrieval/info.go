package retrieval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/eduassist/campusrag/internal/model"
)

// programLevels orders study levels from introductory to terminal.
var programLevels = []string{
	"Certificate", "Foundation", "Diploma", "Undergraduate",
	"Postgraduate", "Doctoral", "Short & Language",
}

var (
	quotedNameRe    = regexp.MustCompile(`"([^"]+)"`)
	locationRe      = regexp.MustCompile(`(?i)location:\s*([^,\n]+)`)
	singleRentRe    = regexp.MustCompile(`(?i)single[^:]*:\s*RM\s*([\d,]+)`)
	sharingRentRe   = regexp.MustCompile(`(?i)sharing[^:]*:\s*RM\s*([\d,]+)`)
	facilitiesRe    = regexp.MustCompile(`(?i)facilities:?\s*\n((?:[-*]\s*[^\n]+\n)+)`)
	distanceRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*km from campus`)
	coreModulesRe   = regexp.MustCompile(`(?i)core modules:?\s*\n((?:[-*]\s*[^\n]+\n)+)`)
	specModulesRe   = regexp.MustCompile(`(?i)specialized modules:?\s*\n((?:[-*]\s*[^\n]+\n)+)`)
)

// programInfo holds structured fields parsed from a program entry.
type programInfo struct {
	Level              string
	Name               string
	Specialization     string
	StudyMode          string
	CoreModules        []string
	SpecializedModules []string
}

// accommodationInfo holds structured fields parsed from an accommodation
// entry.
type accommodationInfo struct {
	Location    string
	SingleRent  float64
	SharingRent float64
	Facilities  []string
	Distance    float64
}

func extractProgramInfo(e *model.KnowledgeEntry) programInfo {
	var info programInfo
	question := strings.ToLower(e.Question)
	answer := strings.ToLower(e.Answer)

	for _, level := range programLevels {
		if strings.Contains(question, strings.ToLower(level)) {
			info.Level = level
			break
		}
	}

	if strings.Contains(answer, "programme") {
		if m := quotedNameRe.FindStringSubmatch(e.Answer); m != nil {
			info.Name = m[1]
		}
	}

	if strings.Contains(answer, "study mode") {
		switch {
		case strings.Contains(answer, "full-time"):
			info.StudyMode = "Full-time"
		case strings.Contains(answer, "part-time"):
			info.StudyMode = "Part-time"
		case strings.Contains(answer, "online"), strings.Contains(answer, "odl"):
			info.StudyMode = "Online/ODL"
		}
	}

	info.CoreModules = extractBulletList(coreModulesRe, e.Answer)
	info.SpecializedModules = extractBulletList(specModulesRe, e.Answer)

	if spec, ok := e.Metadata["specialization"].(string); ok {
		info.Specialization = spec
	}
	return info
}

func extractAccommodationInfo(e *model.KnowledgeEntry) accommodationInfo {
	var info accommodationInfo

	if m := locationRe.FindStringSubmatch(e.Answer); m != nil {
		info.Location = strings.TrimSpace(m[1])
	}
	if m := singleRentRe.FindStringSubmatch(e.Answer); m != nil {
		info.SingleRent = parseAmount(m[1])
	}
	if m := sharingRentRe.FindStringSubmatch(e.Answer); m != nil {
		info.SharingRent = parseAmount(m[1])
	}
	info.Facilities = extractBulletList(facilitiesRe, e.Answer)
	if m := distanceRe.FindStringSubmatch(e.Answer); m != nil {
		info.Distance, _ = strconv.ParseFloat(m[1], 64)
	}
	return info
}

func extractBulletList(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var items []string
	for _, line := range strings.Split(m[1], "\n") {
		item := strings.Trim(line, "-* \t")
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAmount(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return f
}
