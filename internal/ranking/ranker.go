// Package ranking scores retrieved pools against a subject's needs and
// returns the top results with a one-line reason each. Scoring is additive
// over fixed-weight signals, capped below a perfect score on the job side so
// the UI never promises a flawless match.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/workmatch/workmatch/internal/storage"
)

const (
	jobBaseScore    = 50.0
	jobTitleBonus   = 15.0
	locationBonus   = 10.0
	remoteBonus     = 8.0
	salaryMinBonus  = 10.0
	salaryMaxBonus  = 5.0
	keywordBonus    = 3.0
	maxKeywordBonus = 15.0
	jobScoreCap     = 95.0

	candBaseScore   = 60.0
	skillBonus      = 10.0
	maxSkillBonus   = 30.0
	experienceBonus = 10.0
	candTitleBonus  = 15.0
	candScoreCap    = 100.0
)

// rankConcurrency bounds parallel scoring of a pool.
const rankConcurrency = 4

// SeekerNeeds is the job-side ranking input, built from a session's known
// preferences and matched keywords.
type SeekerNeeds struct {
	Title     string
	Location  string
	SalaryMin float64
	Keywords  []string
}

// EmployerNeeds is the candidate-side ranking input, built from an extracted
// requirement profile.
type EmployerNeeds struct {
	Title         string
	Skills        []string
	MinExperience int
}

// RankedJob is one scored job recommendation.
type RankedJob struct {
	Job    storage.JobPosting
	Score  float64
	Reason string
}

// RankedCandidate is one scored candidate recommendation.
type RankedCandidate struct {
	Candidate storage.CandidateProfile
	Score     float64
	Reason    string
}

// Ranker scores pools of jobs or candidates.
type Ranker struct {
	limit int
}

// NewRanker creates a Ranker returning at most limit results.
func NewRanker(limit int) *Ranker {
	if limit <= 0 {
		limit = 5
	}
	return &Ranker{limit: limit}
}

// RankJobs scores a job pool against seeker needs and returns the top
// results, highest score first. Ties break on recency, then id, so output is
// stable across runs.
func (r *Ranker) RankJobs(ctx context.Context, needs SeekerNeeds, pool []storage.JobPosting) ([]RankedJob, error) {
	if len(pool) == 0 {
		return nil, nil
	}

	ranked := make([]RankedJob, len(pool))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(rankConcurrency)

	for i, job := range pool {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			score, reason := scoreJob(needs, job)
			ranked[i] = RankedJob{Job: job, Score: score, Reason: reason}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking jobs: %w", err)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		if !ranked[a].Job.CreatedAt.Equal(ranked[b].Job.CreatedAt) {
			return ranked[a].Job.CreatedAt.After(ranked[b].Job.CreatedAt)
		}
		return ranked[a].Job.ID < ranked[b].Job.ID
	})

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}
	return ranked, nil
}

// RankCandidates scores a candidate pool against employer needs and returns
// the top results, highest score first.
func (r *Ranker) RankCandidates(ctx context.Context, needs EmployerNeeds, pool []storage.CandidateProfile) ([]RankedCandidate, error) {
	if len(pool) == 0 {
		return nil, nil
	}

	ranked := make([]RankedCandidate, len(pool))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(rankConcurrency)

	for i, cand := range pool {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			score, reason := scoreCandidate(needs, cand)
			ranked[i] = RankedCandidate{Candidate: cand, Score: score, Reason: reason}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking candidates: %w", err)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		if !ranked[a].Candidate.CreatedAt.Equal(ranked[b].Candidate.CreatedAt) {
			return ranked[a].Candidate.CreatedAt.After(ranked[b].Candidate.CreatedAt)
		}
		return ranked[a].Candidate.ID < ranked[b].Candidate.ID
	})

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}
	return ranked, nil
}

func scoreJob(needs SeekerNeeds, job storage.JobPosting) (float64, string) {
	score := jobBaseScore

	titleHit := needs.Title != "" &&
		strings.Contains(strings.ToLower(job.Title), strings.ToLower(needs.Title))
	if titleHit {
		score += jobTitleBonus
	}

	locationHit := needs.Location != "" &&
		strings.Contains(strings.ToLower(job.Location), strings.ToLower(needs.Location))
	remoteHit := false
	if locationHit {
		score += locationBonus
	} else if job.Remote {
		// A remote posting partially compensates for any location mismatch.
		remoteHit = true
		score += remoteBonus
	}

	salaryFull, salaryClose := false, false
	if needs.SalaryMin > 0 && float64(job.SalaryMax) >= needs.SalaryMin {
		// Full bonus with 10% slack on the lower bound.
		if float64(job.SalaryMin) >= 0.9*needs.SalaryMin {
			salaryFull = true
			score += salaryMinBonus
		} else {
			salaryClose = true
			score += salaryMaxBonus
		}
	}

	kwHit := false
	if n := keywordHits(needs.Keywords, job); n > 0 {
		kwHit = true
		bonus := keywordBonus * float64(n)
		if bonus > maxKeywordBonus {
			bonus = maxKeywordBonus
		}
		score += bonus
	}

	if score > jobScoreCap {
		score = jobScoreCap
	}

	// Reasons in priority order: skills, location/remote, title, salary.
	var reasons []string
	if kwHit {
		reasons = append(reasons, "mentions skills you talked about")
	}
	if locationHit {
		reasons = append(reasons, "in your preferred location")
	} else if remoteHit {
		reasons = append(reasons, "remote-friendly")
	}
	if titleHit {
		reasons = append(reasons, "matches the role you're looking for")
	}
	if salaryFull {
		reasons = append(reasons, "salary meets your range")
	} else if salaryClose {
		reasons = append(reasons, "salary range overlaps yours")
	}

	reason := "a recent opening worth a look"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}
	return score, reason
}

func scoreCandidate(needs EmployerNeeds, cand storage.CandidateProfile) (float64, string) {
	score := candBaseScore
	var reasons []string

	if n := skillOverlap(needs.Skills, cand.SkillList()); n > 0 {
		bonus := skillBonus * float64(n)
		if bonus > maxSkillBonus {
			bonus = maxSkillBonus
		}
		score += bonus
		reasons = append(reasons, fmt.Sprintf("%d matching skills", n))
	}

	if needs.MinExperience > 0 && cand.ExperienceYears >= needs.MinExperience {
		score += experienceBonus
		reasons = append(reasons, "meets the experience bar")
	}

	if needs.Title != "" && strings.Contains(strings.ToLower(cand.Title), strings.ToLower(needs.Title)) {
		score += candTitleBonus
		reasons = append(reasons, "title matches the role")
	}

	if score > candScoreCap {
		score = candScoreCap
	}

	reason := "an active profile worth reviewing"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, ", ")
	}
	return score, reason
}

// keywordHits counts distinct keywords present anywhere in the posting:
// title, required skills, or description.
func keywordHits(keywords []string, job storage.JobPosting) int {
	haystack := strings.ToLower(job.Title + " " + job.RequiredSkills + " " + job.Description)
	n := 0
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k == "" {
			continue
		}
		if strings.Contains(haystack, k) {
			n++
		}
	}
	return n
}

func skillOverlap(wanted, have []string) int {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	n := 0
	for _, w := range wanted {
		if _, ok := set[strings.ToLower(strings.TrimSpace(w))]; ok {
			n++
		}
	}
	return n
}
