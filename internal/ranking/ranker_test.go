package ranking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/workmatch/workmatch/internal/storage"
)

func TestRankJobsScoring(t *testing.T) {
	r := NewRanker(5)
	needs := SeekerNeeds{
		Title:     "backend engineer",
		Location:  "tokyo",
		SalaryMin: 6000000,
		Keywords:  []string{"python", "aws"},
	}

	pool := []storage.JobPosting{
		{
			ID:          "full-match",
			Title:       "Senior Backend Engineer",
			Location:    "Tokyo",
			SalaryMin:   7000000,
			SalaryMax:   9000000,
			Description: "Python services on AWS",
		},
		{
			ID:    "weak-match",
			Title: "Sales Representative",
		},
	}

	ranked, err := r.RankJobs(context.Background(), needs, pool)
	if err != nil {
		t.Fatalf("RankJobs: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("len = %d", len(ranked))
	}

	top := ranked[0]
	if top.Job.ID != "full-match" {
		t.Fatalf("top = %s", top.Job.ID)
	}
	// 50 base + 15 title + 10 location + 10 salary + 6 keywords.
	if top.Score != 91 {
		t.Errorf("Score = %f, want 91", top.Score)
	}
	if !strings.HasPrefix(top.Reason, "mentions skills") {
		t.Errorf("Reason = %q, want the skills mention first", top.Reason)
	}
	if !strings.Contains(top.Reason, "role") {
		t.Errorf("Reason = %q, want a title mention", top.Reason)
	}

	weak := ranked[1]
	if weak.Score != jobBaseScore {
		t.Errorf("weak Score = %f, want base", weak.Score)
	}
	if weak.Reason != "a recent opening worth a look" {
		t.Errorf("weak Reason = %q, want generic fallback", weak.Reason)
	}
}

func TestRankJobsCap(t *testing.T) {
	r := NewRanker(5)
	needs := SeekerNeeds{
		Title:     "engineer",
		Location:  "tokyo",
		SalaryMin: 1,
		Keywords:  []string{"a", "b", "c", "d", "e", "f"},
	}
	pool := []storage.JobPosting{{
		ID:          "j",
		Title:       "engineer",
		Location:    "tokyo",
		SalaryMin:   100,
		SalaryMax:   200,
		Description: "a b c d e f",
	}}

	ranked, err := r.RankJobs(context.Background(), needs, pool)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Score != jobScoreCap {
		t.Errorf("Score = %f, want cap %f", ranked[0].Score, jobScoreCap)
	}
}

func TestRankJobsRemoteFallback(t *testing.T) {
	r := NewRanker(5)
	// The bonus follows the posting being remote, not a stated preference.
	needs := SeekerNeeds{Location: "osaka"}
	pool := []storage.JobPosting{{ID: "j", Title: "Dev", Location: "Tokyo", Remote: true}}

	ranked, err := r.RankJobs(context.Background(), needs, pool)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Score != jobBaseScore+remoteBonus {
		t.Errorf("Score = %f, want remote bonus only", ranked[0].Score)
	}
	if !strings.Contains(ranked[0].Reason, "remote") {
		t.Errorf("Reason = %q", ranked[0].Reason)
	}
}

func TestRankJobsSalarySlack(t *testing.T) {
	r := NewRanker(5)
	needs := SeekerNeeds{SalaryMin: 6000000}

	pool := []storage.JobPosting{
		// Lower bound within 10% of the floor still earns the full bonus.
		{ID: "close", Title: "Dev", SalaryMin: 5700000, SalaryMax: 8000000},
		{ID: "overlap", Title: "Dev", SalaryMin: 4000000, SalaryMax: 7000000},
		{ID: "below", Title: "Dev", SalaryMin: 3000000, SalaryMax: 5000000},
	}

	ranked, err := r.RankJobs(context.Background(), needs, pool)
	if err != nil {
		t.Fatal(err)
	}

	scores := make(map[string]float64, len(ranked))
	for _, j := range ranked {
		scores[j.Job.ID] = j.Score
	}
	if scores["close"] != jobBaseScore+salaryMinBonus {
		t.Errorf("close Score = %f, want %f", scores["close"], jobBaseScore+salaryMinBonus)
	}
	if scores["overlap"] != jobBaseScore+salaryMaxBonus {
		t.Errorf("overlap Score = %f, want %f", scores["overlap"], jobBaseScore+salaryMaxBonus)
	}
	if scores["below"] != jobBaseScore {
		t.Errorf("below Score = %f, want base", scores["below"])
	}
}

func TestRankJobsKeywordsInTitleAndSkills(t *testing.T) {
	r := NewRanker(5)
	needs := SeekerNeeds{Keywords: []string{"python", "aws"}}

	// No description: keywords live in the title and the skills array.
	pool := []storage.JobPosting{{
		ID:             "j",
		Title:          "Python Developer",
		RequiredSkills: `["aws","docker"]`,
	}}

	ranked, err := r.RankJobs(context.Background(), needs, pool)
	if err != nil {
		t.Fatal(err)
	}
	if want := jobBaseScore + 2*keywordBonus; ranked[0].Score != want {
		t.Errorf("Score = %f, want %f", ranked[0].Score, want)
	}
	if !strings.Contains(ranked[0].Reason, "skills") {
		t.Errorf("Reason = %q, want the skills mention", ranked[0].Reason)
	}
}

func TestRankJobsDeterministicOrder(t *testing.T) {
	r := NewRanker(5)
	now := time.Now()
	pool := []storage.JobPosting{
		{ID: "b", Title: "Dev", CreatedAt: now},
		{ID: "a", Title: "Dev", CreatedAt: now},
		{ID: "c", Title: "Dev", CreatedAt: now.Add(time.Hour)},
	}

	ranked, err := r.RankJobs(context.Background(), SeekerNeeds{}, pool)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{ranked[0].Job.ID, ranked[1].Job.ID, ranked[2].Job.ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRankJobsLimit(t *testing.T) {
	r := NewRanker(2)
	pool := make([]storage.JobPosting, 6)
	for i := range pool {
		pool[i] = storage.JobPosting{ID: string(rune('a' + i)), Title: "Dev"}
	}

	ranked, err := r.RankJobs(context.Background(), SeekerNeeds{}, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 {
		t.Errorf("len = %d, want 2", len(ranked))
	}
}

func TestRankJobsEmptyPool(t *testing.T) {
	r := NewRanker(5)
	ranked, err := r.RankJobs(context.Background(), SeekerNeeds{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ranked != nil {
		t.Errorf("ranked = %v, want nil", ranked)
	}
}

func TestRankCandidatesScoring(t *testing.T) {
	r := NewRanker(5)
	needs := EmployerNeeds{
		Title:         "backend engineer",
		Skills:        []string{"python", "aws", "docker"},
		MinExperience: 3,
	}

	pool := []storage.CandidateProfile{
		{
			ID:              "strong",
			Title:           "Backend Engineer",
			Skills:          `["python","aws"]`,
			ExperienceYears: 5,
		},
		{
			ID:     "junior",
			Title:  "Frontend Developer",
			Skills: `["react"]`,
		},
	}

	ranked, err := r.RankCandidates(context.Background(), needs, pool)
	if err != nil {
		t.Fatalf("RankCandidates: %v", err)
	}

	top := ranked[0]
	if top.Candidate.ID != "strong" {
		t.Fatalf("top = %s", top.Candidate.ID)
	}
	// 60 base + 20 skills + 10 experience + 15 title.
	if top.Score != 100 {
		t.Errorf("Score = %f, want 100", top.Score)
	}
	if !strings.Contains(top.Reason, "2 matching skills") {
		t.Errorf("Reason = %q", top.Reason)
	}

	if ranked[1].Score != candBaseScore {
		t.Errorf("junior Score = %f, want base", ranked[1].Score)
	}
}

func TestRankCandidatesSkillBonusCapped(t *testing.T) {
	r := NewRanker(5)
	needs := EmployerNeeds{Skills: []string{"a", "b", "c", "d", "e"}}
	pool := []storage.CandidateProfile{{
		ID:     "c",
		Skills: `["a","b","c","d","e"]`,
	}}

	ranked, err := r.RankCandidates(context.Background(), needs, pool)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Score != candBaseScore+maxSkillBonus {
		t.Errorf("Score = %f, want skill cap applied", ranked[0].Score)
	}
}
