package scoring

import (
	"strings"
	"testing"
)

func TestScoreBaseline(t *testing.T) {
	e := NewEngine()

	got := e.Score(nil, "", "hello")
	if got.Score != baseScore {
		t.Errorf("Score = %f, want %f", got.Score, baseScore)
	}
	if len(got.MatchedKeywords) != 0 {
		t.Errorf("MatchedKeywords = %v, want none", got.MatchedKeywords)
	}
}

func TestScoreKeywordOverlap(t *testing.T) {
	e := NewEngine()

	got := e.Score(nil, "", "I have 5 years of Python and AWS experience")
	want := []string{"python", "aws"}
	if len(got.MatchedKeywords) != len(want) {
		t.Fatalf("MatchedKeywords = %v, want %v", got.MatchedKeywords, want)
	}
	for i, k := range want {
		if got.MatchedKeywords[i] != k {
			t.Errorf("MatchedKeywords[%d] = %q, want %q", i, got.MatchedKeywords[i], k)
		}
	}
	if got.Score != baseScore+2*keywordBonus {
		t.Errorf("Score = %f, want %f", got.Score, baseScore+2*keywordBonus)
	}
}

func TestScoreCategoryCountedOnce(t *testing.T) {
	e := NewEngine()
	prefs := map[string]string{"job_title": "Backend Engineer"}

	once := e.Score(prefs, "", "I want a backend engineer role")
	twice := e.Score(prefs, "backend engineer please", "backend engineer, I said backend engineer")

	if once.Score != baseScore+titleWeight {
		t.Errorf("Score = %f, want %f", once.Score, baseScore+titleWeight)
	}
	if twice.Score != once.Score {
		t.Errorf("repeated mention changed score: %f vs %f", twice.Score, once.Score)
	}
}

func TestScorePlateausWithoutNewSignal(t *testing.T) {
	e := NewEngine()
	prefs := map[string]string{"skills": "python"}

	first := e.Score(prefs, "", "I use Python daily")
	second := e.Score(prefs, "I use Python daily", "yes, Python, as I said")

	if second.Score != first.Score {
		t.Errorf("score moved without new signal: %f -> %f", first.Score, second.Score)
	}
}

func TestScoreCeiling(t *testing.T) {
	e := NewEngine()
	prefs := map[string]string{
		"job_title":  "engineer",
		"location":   "tokyo",
		"salary_min": "6000000",
		"remote":     "yes",
		"skills":     "python, go, aws",
	}
	text := "engineer in tokyo, salary talk, remote ok, " + strings.Join(SkillTerms, " ")

	got := e.Score(prefs, text, text)
	if got.Score > 100 {
		t.Errorf("Score = %f, exceeds 100", got.Score)
	}
	// Ceiling: base plus every category weight plus the keyword cap.
	want := baseScore + titleWeight + locationWeight + salaryWeight + remoteWeight + skillsWeight + maxKeywordBonus
	if got.Score != want {
		t.Errorf("Score = %f, want %f with every signal present", got.Score, want)
	}
}

func TestScoreWordBoundaries(t *testing.T) {
	e := NewEngine()

	got := e.Score(nil, "", "things are going well, life is good")
	if len(got.MatchedKeywords) != 0 {
		t.Errorf("MatchedKeywords = %v, want none from word fragments", got.MatchedKeywords)
	}

	got = e.Score(nil, "", "I write Go and a bit of Rust")
	want := map[string]bool{"go": true, "rust": true}
	if len(got.MatchedKeywords) != 2 {
		t.Fatalf("MatchedKeywords = %v, want go and rust", got.MatchedKeywords)
	}
	for _, k := range got.MatchedKeywords {
		if !want[k] {
			t.Errorf("unexpected keyword %q", k)
		}
	}
}

func TestScoreIgnoresUnconfirmedPreferences(t *testing.T) {
	e := NewEngine()
	prefs := map[string]string{"location": "Osaka"}

	got := e.Score(prefs, "", "tell me about jobs")
	if got.Score != baseScore {
		t.Errorf("Score = %f, want %f when preference never surfaces", got.Score, baseScore)
	}
}
