// Package retrieval fetches candidate pools for ranking. Filters relax in a
// fixed ladder: each rung drops the least important constraint, and the first
// rung that returns anything wins. An empty pool after the last rung is a
// valid outcome, not an error.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/storage"
)

// poolFactor oversizes the fetched pool relative to the requested result
// count so the ranker has something to choose from.
const poolFactor = 5

// salaryUnitThreshold separates "6" or "600" style shorthand from absolute
// amounts. Values below it are treated as 万円 units and scaled up.
const salaryUnitThreshold = 100000

// RecordSource is the storage surface the retriever needs.
// Implemented by storage.Store.
type RecordSource interface {
	SearchJobs(q storage.JobQuery) ([]storage.JobPosting, error)
	SearchCandidates(q storage.CandidateQuery) ([]storage.CandidateProfile, error)
}

// JobCriteria is the seeker-side search input.
type JobCriteria struct {
	Title       string
	Location    string
	SalaryFloor float64
}

// CandidateCriteria is the employer-side search input.
type CandidateCriteria struct {
	Title         string
	Skills        []string
	MinExperience int
}

// Retriever runs laddered searches against a record source.
type Retriever struct {
	source RecordSource
	limit  int
	logger *zap.Logger
}

// NewRetriever creates a Retriever that fetches pools of up to
// limit*poolFactor records.
func NewRetriever(source RecordSource, limit int, log *zap.Logger) *Retriever {
	if limit <= 0 {
		limit = 5
	}
	return &Retriever{source: source, limit: limit, logger: log}
}

// NormalizeSalary converts shorthand salary input to an absolute yearly
// amount. Positive values under the unit threshold are read as 万円 and
// multiplied out; everything else passes through unchanged.
func NormalizeSalary(v float64) float64 {
	if v > 0 && v < salaryUnitThreshold {
		return v * 10000
	}
	return v
}

// FindJobs walks the job ladder: title+location+salary, then title+salary,
// then title only, then unfiltered. Only published postings are returned,
// newest first.
func (r *Retriever) FindJobs(ctx context.Context, c JobCriteria) ([]storage.JobPosting, error) {
	floor := NormalizeSalary(c.SalaryFloor)
	poolLimit := r.limit * poolFactor

	ladder := []storage.JobQuery{
		{Title: c.Title, Location: c.Location, SalaryFloor: int64(floor), Limit: poolLimit},
		{Title: c.Title, SalaryFloor: int64(floor), Limit: poolLimit},
		{Title: c.Title, Limit: poolLimit},
		{Limit: poolLimit},
	}

	for rung, q := range ladder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		jobs, err := r.source.SearchJobs(q)
		if err != nil {
			return nil, fmt.Errorf("searching jobs (rung %d): %w", rung, err)
		}
		if len(jobs) > 0 {
			r.logger.Debug("job pool retrieved",
				zap.Int("rung", rung),
				zap.Int("pool_size", len(jobs)),
			)
			return jobs, nil
		}
	}

	r.logger.Debug("job ladder exhausted, empty pool")
	return nil, nil
}

// FindCandidates walks the candidate ladder: title+skills+experience, then
// title+skills, then title only, then unfiltered. Only active profiles are
// returned.
func (r *Retriever) FindCandidates(ctx context.Context, c CandidateCriteria) ([]storage.CandidateProfile, error) {
	poolLimit := r.limit * poolFactor

	ladder := []storage.CandidateQuery{
		{Title: c.Title, Skills: c.Skills, MinExperience: c.MinExperience, Limit: poolLimit},
		{Title: c.Title, Skills: c.Skills, Limit: poolLimit},
		{Title: c.Title, Limit: poolLimit},
		{Limit: poolLimit},
	}

	for rung, q := range ladder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidates, err := r.source.SearchCandidates(q)
		if err != nil {
			return nil, fmt.Errorf("searching candidates (rung %d): %w", rung, err)
		}
		if len(candidates) > 0 {
			r.logger.Debug("candidate pool retrieved",
				zap.Int("rung", rung),
				zap.Int("pool_size", len(candidates)),
			)
			return candidates, nil
		}
	}

	r.logger.Debug("candidate ladder exhausted, empty pool")
	return nil, nil
}
