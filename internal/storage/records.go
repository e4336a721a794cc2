package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SaveJob persists a job posting.
func (s *Store) SaveJob(j JobPosting) error {
	status := j.Status
	if status == "" {
		status = "draft"
	}
	createdAt := j.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, title, company, description, required_skills, location, remote, salary_min, salary_max, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.Company, j.Description, j.RequiredSkills, j.Location,
		boolToInt(j.Remote), j.SalaryMin, j.SalaryMax, status, createdAt.Format(time.RFC3339),
	)
	return err
}

// GetJob returns a job by id, or ErrNotFound.
func (s *Store) GetJob(id string) (JobPosting, error) {
	row := s.db.QueryRow(jobSelect+" WHERE j.id = ?", id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return JobPosting{}, ErrNotFound
	}
	return j, err
}

const jobSelect = `
	SELECT j.id, j.title, j.company, j.description, j.required_skills, j.location,
	       j.remote, j.salary_min, j.salary_max, j.status, j.created_at
	FROM jobs j`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (JobPosting, error) {
	var j JobPosting
	var remote int
	var createdAt string
	if err := r.Scan(&j.ID, &j.Title, &j.Company, &j.Description, &j.RequiredSkills, &j.Location,
		&remote, &j.SalaryMin, &j.SalaryMax, &j.Status, &createdAt); err != nil {
		return JobPosting{}, err
	}
	j.Remote = remote != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return JobPosting{}, fmt.Errorf("parsing created_at for job %s: %w", j.ID, err)
	}
	j.CreatedAt = t
	return j, nil
}

// SearchJobs runs one retrieval plan: published jobs matching the non-zero
// filters of q, newest first. Title and location match as case-insensitive
// substrings; a salary floor matches jobs whose upper bound reaches it.
func (s *Store) SearchJobs(q JobQuery) ([]JobPosting, error) {
	query := jobSelect + " WHERE j.status = 'published'"
	var args []any

	if q.Title != "" {
		query += " AND j.title LIKE ? COLLATE NOCASE"
		args = append(args, "%"+q.Title+"%")
	}
	if q.Location != "" {
		query += " AND j.location LIKE ? COLLATE NOCASE"
		args = append(args, "%"+q.Location+"%")
	}
	if q.SalaryFloor > 0 {
		query += " AND j.salary_max >= ?"
		args = append(args, q.SalaryFloor)
	}

	query += " ORDER BY j.created_at DESC, j.id ASC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, j)
	}
	return results, rows.Err()
}

// SaveCandidate persists a candidate profile.
func (s *Store) SaveCandidate(c CandidateProfile) error {
	status := c.Status
	if status == "" {
		status = "active"
	}
	skills := c.Skills
	if skills == "" {
		skills = "[]"
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO candidates (id, name, title, skills, location, experience_years, remote_ok, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Title, skills, c.Location, c.ExperienceYears,
		boolToInt(c.RemoteOK), status, createdAt.Format(time.RFC3339),
	)
	return err
}

// GetCandidate returns a candidate by id, or ErrNotFound.
func (s *Store) GetCandidate(id string) (CandidateProfile, error) {
	row := s.db.QueryRow(candidateSelect+" WHERE c.id = ?", id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return CandidateProfile{}, ErrNotFound
	}
	return c, err
}

const candidateSelect = `
	SELECT c.id, c.name, c.title, c.skills, c.location, c.experience_years, c.remote_ok, c.status, c.created_at
	FROM candidates c`

func scanCandidate(r rowScanner) (CandidateProfile, error) {
	var c CandidateProfile
	var remoteOK int
	var createdAt string
	if err := r.Scan(&c.ID, &c.Name, &c.Title, &c.Skills, &c.Location, &c.ExperienceYears,
		&remoteOK, &c.Status, &createdAt); err != nil {
		return CandidateProfile{}, err
	}
	c.RemoteOK = remoteOK != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return CandidateProfile{}, fmt.Errorf("parsing created_at for candidate %s: %w", c.ID, err)
	}
	c.CreatedAt = t
	return c, nil
}

// SearchCandidates runs one retrieval plan: active candidates matching the
// non-zero filters of q, newest first. Skills match if any requested skill
// appears in the stored skills array (substring, case-insensitive).
func (s *Store) SearchCandidates(q CandidateQuery) ([]CandidateProfile, error) {
	query := candidateSelect + " WHERE c.status = 'active'"
	var args []any

	if q.Title != "" {
		query += " AND c.title LIKE ? COLLATE NOCASE"
		args = append(args, "%"+q.Title+"%")
	}
	if len(q.Skills) > 0 {
		conds := make([]string, 0, len(q.Skills))
		for _, skill := range q.Skills {
			conds = append(conds, "c.skills LIKE ? COLLATE NOCASE")
			args = append(args, "%"+skill+"%")
		}
		query += " AND (" + strings.Join(conds, " OR ") + ")"
	}
	if q.MinExperience > 0 {
		query += " AND c.experience_years >= ?"
		args = append(args, q.MinExperience)
	}

	query += " ORDER BY c.created_at DESC, c.id ASC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// SkillList decodes the candidate's stored skills JSON. Malformed data
// degrades to an empty list rather than failing a search.
func (c CandidateProfile) SkillList() []string {
	var skills []string
	if err := json.Unmarshal([]byte(c.Skills), &skills); err != nil {
		return nil
	}
	return skills
}
