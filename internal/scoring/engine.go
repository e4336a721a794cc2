// Package scoring turns conversation text into a completeness score: how
// close the dialogue is to a usable match profile. The score is recomputed
// from the full history every turn, so it plateaus naturally when new
// messages add no new signal — the trigger evaluator depends on that.
package scoring

import (
	"strings"
)

const (
	baseScore = 10.0

	titleWeight    = 15.0
	locationWeight = 15.0
	salaryWeight   = 10.0
	remoteWeight   = 10.0
	skillsWeight   = 15.0

	keywordBonus    = 4.0
	maxKeywordBonus = 20.0
)

// Result is the outcome of scoring one turn.
type Result struct {
	// Score is clamped to [0, 100].
	Score float64
	// MatchedKeywords is the deduplicated set of vocabulary terms and
	// preference skills found in the conversation, in vocabulary order.
	MatchedKeywords []string
}

// Engine scores conversations against known preferences.
type Engine struct{}

// NewEngine creates a scoring Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score evaluates the cumulative conversation (history text plus the latest
// user message) against the subject's known preferences.
//
// Each recognized category present in knownPrefs contributes its fixed
// weight at most once per evaluation; free-form keyword overlap adds a
// bounded increment on top. Repeating a term within one turn never counts
// twice.
func (e *Engine) Score(knownPrefs map[string]string, conversationText, latestMessage string) Result {
	text := strings.ToLower(conversationText + "\n" + latestMessage)

	score := baseScore
	for _, cat := range Categories {
		if categoryMatched(cat, knownPrefs, text) {
			score += categoryWeight(cat)
		}
	}

	matched := matchedKeywords(knownPrefs, text)
	bonus := keywordBonus * float64(len(matched))
	if bonus > maxKeywordBonus {
		bonus = maxKeywordBonus
	}
	score += bonus

	return Result{
		Score:           clamp(score),
		MatchedKeywords: matched,
	}
}

func categoryWeight(c Category) float64 {
	switch c {
	case CategoryTitle:
		return titleWeight
	case CategoryLocation:
		return locationWeight
	case CategorySalary:
		return salaryWeight
	case CategoryRemote:
		return remoteWeight
	case CategorySkills:
		return skillsWeight
	}
	return 0
}

// prefKeyFor maps a category to its known-preference key.
func prefKeyFor(c Category) string {
	switch c {
	case CategoryTitle:
		return "job_title"
	case CategoryLocation:
		return "location"
	case CategorySalary:
		return "salary_min"
	case CategoryRemote:
		return "remote"
	case CategorySkills:
		return "skills"
	}
	return ""
}

// categoryMatched reports whether a category present in knownPrefs is
// confirmed by the conversation text.
func categoryMatched(c Category, knownPrefs map[string]string, text string) bool {
	pref, ok := knownPrefs[prefKeyFor(c)]
	if !ok || strings.TrimSpace(pref) == "" {
		return false
	}

	switch c {
	case CategoryTitle, CategoryLocation:
		return strings.Contains(text, strings.ToLower(strings.TrimSpace(pref)))
	case CategorySkills:
		for _, skill := range splitCSV(pref) {
			if containsTerm(text, strings.ToLower(skill)) {
				return true
			}
		}
		return containsAny(text, SkillTerms)
	default:
		return containsAny(text, vocabularyFor(c))
	}
}

// matchedKeywords collects the distinct vocabulary terms and preference
// skills present in the text. Order follows the vocabulary definitions so
// output is deterministic.
func matchedKeywords(knownPrefs map[string]string, text string) []string {
	seen := make(map[string]struct{})
	var matched []string

	add := func(term string) {
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			return
		}
		if containsTerm(text, key) {
			seen[key] = struct{}{}
			matched = append(matched, term)
		}
	}

	for _, skill := range splitCSV(knownPrefs["skills"]) {
		add(skill)
	}
	for _, term := range SkillTerms {
		add(term)
	}
	for _, term := range RemoteTerms {
		add(term)
	}

	return matched
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if containsTerm(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// containsTerm reports whether term appears in text. ASCII terms match on
// word boundaries, so "go" never fires inside "good" or "django"; non-Latin
// terms match as plain substrings since the text is not space-delimited.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	if !asciiTerm(term) {
		return strings.Contains(text, term)
	}
	for start := 0; start+len(term) <= len(text); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func asciiTerm(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
