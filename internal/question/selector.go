// Package question picks the next thing to ask when a conversation should
// keep going. Selection walks a fixed category order and asks about the first
// category the dialogue has not covered yet; a category already present in
// the subject's stored preferences gets a deep-dive confirmation instead of a
// broad opener.
package question

import "strings"

// Category names one topic the selector can ask about.
type Category string

const (
	CategorySkills    Category = "skills"
	CategoryTitle     Category = "title"
	CategoryLocation  Category = "location"
	CategorySalary    Category = "salary"
	CategoryWorkstyle Category = "workstyle"
)

// askOrder is the priority walk. Skills first: they carry the most ranking
// signal for both sides of the market.
var askOrder = []Category{
	CategorySkills,
	CategoryTitle,
	CategoryLocation,
	CategorySalary,
	CategoryWorkstyle,
}

// Question is one prompt to send back to the subject.
type Question struct {
	Text       string
	Category   Category
	IsDeepDive bool
}

var broadQuestions = map[Category]string{
	CategorySkills:    "What skills or technologies do you work with most?",
	CategoryTitle:     "What kind of role or job title are you looking for?",
	CategoryLocation:  "Where would you like to work? Any preferred city or area?",
	CategorySalary:    "Do you have a salary range in mind?",
	CategoryWorkstyle: "How do you feel about remote work versus going into an office?",
}

var deepDiveQuestions = map[Category]string{
	CategorySkills:    "You mentioned some skills earlier. Which of them would you most like to use day to day?",
	CategoryTitle:     "About the role you have in mind: what would a great version of it look like?",
	CategoryLocation:  "On location: how far would you be willing to commute, or would you relocate?",
	CategorySalary:    "On compensation: is your range a hard floor, or flexible for the right role?",
	CategoryWorkstyle: "You mentioned a work-style preference. Is that a must-have or a nice-to-have?",
}

// genericQuestions rotate by turn count when every category is covered but
// the conversation still continues.
var genericQuestions = []string{
	"Is there anything else that matters to you in your next position?",
	"What would make you excited to say yes to an offer?",
	"Are there any deal-breakers I should know about?",
}

// signalTerms marks a category as covered when any term appears in the
// conversation text.
var signalTerms = map[Category][]string{
	CategorySkills:    {"skill", "python", "java", "go", "react", "aws", "sql", "design", "marketing", "スキル", "経験"},
	CategoryTitle:     {"engineer", "developer", "designer", "manager", "role", "position", "job title", "職種", "エンジニア"},
	CategoryLocation:  {"tokyo", "osaka", "location", "city", "area", "commute", "勤務地", "東京", "大阪"},
	CategorySalary:    {"salary", "compensation", "income", "million", "yen", "年収", "万円", "給与"},
	CategoryWorkstyle: {"remote", "office", "hybrid", "work from home", "リモート", "在宅", "出社"},
}

// prefKeys maps categories to known-preference keys.
var prefKeys = map[Category][]string{
	CategorySkills:    {"skills"},
	CategoryTitle:     {"job_title"},
	CategoryLocation:  {"location"},
	CategorySalary:    {"salary_min"},
	CategoryWorkstyle: {"remote"},
}

// Selector chooses the next question for a session.
type Selector struct{}

// NewSelector creates a question Selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Input carries the session state selection depends on.
type Input struct {
	ConversationText    string
	KnownPreferences    map[string]string
	TurnCount           int
	LastTurnWasDeepDive bool
}

// Next returns the question to ask this turn. Two deep-dives never run back
// to back: when the previous turn was a deep-dive, the pick is forced broad.
func (s *Selector) Next(in Input) Question {
	text := strings.ToLower(in.ConversationText)

	for _, cat := range askOrder {
		if covered(cat, text) {
			continue
		}
		q := Question{Category: cat}
		if hasPreference(cat, in.KnownPreferences) && !in.LastTurnWasDeepDive {
			q.Text = deepDiveQuestions[cat]
			q.IsDeepDive = true
		} else {
			q.Text = broadQuestions[cat]
		}
		return q
	}

	// All categories covered: rotate through generic follow-ups.
	idx := in.TurnCount % len(genericQuestions)
	return Question{Text: genericQuestions[idx]}
}

func covered(cat Category, text string) bool {
	for _, term := range signalTerms[cat] {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func hasPreference(cat Category, prefs map[string]string) bool {
	for _, key := range prefKeys[cat] {
		if strings.TrimSpace(prefs[key]) != "" {
			return true
		}
	}
	return false
}
