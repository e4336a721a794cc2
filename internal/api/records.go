package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/ingest"
	"github.com/workmatch/workmatch/internal/storage"
)

const (
	maxRecordBodySize = 1 << 20
	maxResumeSize     = 10 << 20
	urlFetchTimeout   = 15 * time.Second
	defaultListLimit  = 20
	maxListLimit      = 100
)

// JobRequest creates or updates a job posting.
type JobRequest struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"required_skills"`
	Location       string   `json:"location"`
	Remote         bool     `json:"remote"`
	SalaryMin      int64    `json:"salary_min"`
	SalaryMax      int64    `json:"salary_max"`
	Status         string   `json:"status"`
}

func handleCreateJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRecordBodySize)
		defer r.Body.Close()

		var req JobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}

		skillsJSON := "[]"
		if len(req.RequiredSkills) > 0 {
			b, err := json.Marshal(req.RequiredSkills)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid skills: %v", err)
				return
			}
			skillsJSON = string(b)
		}

		job := storage.JobPosting{
			ID:             uuid.NewString(),
			Title:          req.Title,
			Company:        req.Company,
			Description:    req.Description,
			RequiredSkills: skillsJSON,
			Location:       req.Location,
			Remote:         req.Remote,
			SalaryMin:      req.SalaryMin,
			SalaryMax:      req.SalaryMax,
			Status:         req.Status,
		}
		if err := deps.Store.SaveJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving job: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"id": job.ID})
	}
}

func handleGetJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := deps.Store.GetJob(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "job %s not found", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "loading job: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// handleListJobs returns published jobs, newest first. Optional query params:
// title (substring filter) and limit.
func handleListJobs(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := deps.Store.SearchJobs(storage.JobQuery{
			Title: r.URL.Query().Get("title"),
			Limit: listLimit(r),
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing jobs: %v", err)
			return
		}
		if jobs == nil {
			jobs = []storage.JobPosting{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

// handleListCandidates returns active candidates, newest first. Optional
// query params: title (substring filter) and limit.
func handleListCandidates(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cands, err := deps.Store.SearchCandidates(storage.CandidateQuery{
			Title: r.URL.Query().Get("title"),
			Limit: listLimit(r),
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing candidates: %v", err)
			return
		}
		if cands == nil {
			cands = []storage.CandidateProfile{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": cands})
	}
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// JobFromURLRequest imports a posting from a public page. The result is saved
// as a draft for review, never published directly.
type JobFromURLRequest struct {
	URL     string `json:"url"`
	Company string `json:"company"`
}

func handleJobFromURL(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRecordBodySize)
		defer r.Body.Close()

		var req JobFromURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.URL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), urlFetchTimeout)
		defer cancel()

		page, err := ingest.FetchJobPage(ctx, deps.HTTPClient, req.URL)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "fetching page: %v", err)
			return
		}
		if strings.TrimSpace(page.Text) == "" {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "page has no extractable text")
			return
		}

		job := storage.JobPosting{
			ID:             uuid.NewString(),
			Title:          page.Title,
			Company:        req.Company,
			Description:    page.Text,
			RequiredSkills: "[]",
			Status:         "draft",
		}
		if err := deps.Store.SaveJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving job: %v", err)
			return
		}

		deps.Logger.Info("job imported from url",
			zap.String("job_id", job.ID),
			zap.String("url", req.URL),
		)
		writeJSON(w, http.StatusCreated, map[string]string{"id": job.ID, "status": "draft"})
	}
}

// CandidateRequest creates a candidate profile.
type CandidateRequest struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Skills          []string `json:"skills"`
	Location        string   `json:"location"`
	ExperienceYears int      `json:"experience_years"`
	RemoteOK        bool     `json:"remote_ok"`
	Status          string   `json:"status"`
}

func handleCreateCandidate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRecordBodySize)
		defer r.Body.Close()

		var req CandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		skillsJSON := "[]"
		if len(req.Skills) > 0 {
			b, err := json.Marshal(req.Skills)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid skills: %v", err)
				return
			}
			skillsJSON = string(b)
		}

		cand := storage.CandidateProfile{
			ID:              uuid.NewString(),
			Name:            req.Name,
			Title:           req.Title,
			Skills:          skillsJSON,
			Location:        req.Location,
			ExperienceYears: req.ExperienceYears,
			RemoteOK:        req.RemoteOK,
			Status:          req.Status,
		}
		if err := deps.Store.SaveCandidate(cand); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving candidate: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"id": cand.ID})
	}
}

func handleGetCandidate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		cand, err := deps.Store.GetCandidate(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "candidate %s not found", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "loading candidate: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, cand)
	}
}

// handleResumeUpload accepts a raw PDF body, mines it, and stores the result
// as preferences for the candidate's subject id.
func handleResumeUpload(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
			return
		}
		if len(data) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "empty body")
			return
		}

		resume, err := ingest.ExtractResume(data)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "extracting resume: %v", err)
			return
		}

		if len(resume.Skills) > 0 {
			if err := deps.Profile.SetPreference(id, "skills", strings.Join(resume.Skills, ", ")); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "storing skills: %v", err)
				return
			}
		}

		deps.Logger.Info("resume ingested",
			zap.String("subject_id", id),
			zap.Int("skills", len(resume.Skills)),
			zap.Int("experience_years", resume.ExperienceYears),
		)
		writeJSON(w, http.StatusOK, map[string]any{
			"skills":           resume.Skills,
			"experience_years": resume.ExperienceYears,
		})
	}
}

// PreferencesRequest sets known preferences for a subject.
type PreferencesRequest struct {
	Preferences map[string]string `json:"preferences"`
}

func handleSetPreferences(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRecordBodySize)
		defer r.Body.Close()

		var req PreferencesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Preferences) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "preferences is required")
			return
		}

		for key, value := range req.Preferences {
			if err := deps.Profile.SetPreference(id, key, value); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
