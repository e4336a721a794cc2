// Package trigger decides, each turn, whether to stop asking questions and
// surface ranked results. Rules are evaluated in a fixed priority order and
// the first match wins; an explicit user request always beats a stagnation
// read, because user intent is not second-guessed.
package trigger

import "strings"

// Reason names the cause of a trigger decision.
type Reason string

const (
	ReasonMatchScoreHigh Reason = "match_score_high"
	ReasonUserRequest    Reason = "user_request"
	ReasonTurnLimit      Reason = "turn_limit"
	ReasonScoreStagnant  Reason = "score_stagnant"
	ReasonContinue       Reason = "continue"
)

const (
	scoreThreshold    = 80.0
	turnLimit         = 10
	stagnationWindow  = 4
	stagnationMinTurn = 5
	stagnationSpread  = 5.0
)

// requestTerms is the fixed request-intent vocabulary. A message containing
// any of these is treated as an explicit ask for results.
var requestTerms = []string{
	"show me", "recommend", "recommendation", "recommendations",
	"search", "suggest", "find me",
	"looking for jobs", "see jobs", "see candidates",
	"求人", "案件", "見せて", "教えて", "出して",
	"紹介", "おすすめ", "探して", "検索", "提案",
}

// Decision is the outcome of one evaluation.
type Decision struct {
	ShowResults bool
	Reason      Reason
}

// Input is the session state the evaluator inspects.
type Input struct {
	TurnCount         int
	CurrentScore      float64
	LatestUserMessage string
	ScoreHistory      []float64
}

// Evaluator applies the trigger policy.
type Evaluator struct{}

// NewEvaluator creates a trigger Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate applies the rules in priority order:
//  1. score >= 80            -> match_score_high
//  2. request-intent phrase  -> user_request
//  3. turn count >= 10       -> turn_limit
//  4. last 4 scores within 5 points and turn count >= 5 -> score_stagnant
//  5. otherwise              -> continue
func (e *Evaluator) Evaluate(in Input) Decision {
	if in.CurrentScore >= scoreThreshold {
		return Decision{ShowResults: true, Reason: ReasonMatchScoreHigh}
	}

	if containsRequestIntent(in.LatestUserMessage) {
		return Decision{ShowResults: true, Reason: ReasonUserRequest}
	}

	if in.TurnCount >= turnLimit {
		return Decision{ShowResults: true, Reason: ReasonTurnLimit}
	}

	if len(in.ScoreHistory) >= stagnationWindow && in.TurnCount >= stagnationMinTurn {
		recent := in.ScoreHistory[len(in.ScoreHistory)-stagnationWindow:]
		if spread(recent) <= stagnationSpread {
			return Decision{ShowResults: true, Reason: ReasonScoreStagnant}
		}
	}

	return Decision{Reason: ReasonContinue}
}

func containsRequestIntent(message string) bool {
	msg := strings.ToLower(message)
	for _, term := range requestTerms {
		if matchesPhrase(msg, term) {
			return true
		}
	}
	return false
}

// matchesPhrase finds term in msg. Latin-script phrases match on word
// boundaries, so "search" does not fire inside "researching"; Japanese terms
// match as substrings since the text is not space-delimited.
func matchesPhrase(msg, term string) bool {
	ascii := true
	for i := 0; i < len(term); i++ {
		if term[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if !ascii {
		return strings.Contains(msg, term)
	}

	for start := 0; start+len(term) <= len(msg); {
		i := strings.Index(msg[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if (i == 0 || !wordByte(msg[i-1])) && (end == len(msg) || !wordByte(msg[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func wordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func spread(scores []float64) float64 {
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return max - min
}
