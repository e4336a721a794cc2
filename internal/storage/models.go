package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write loses a concurrent race.
var ErrConflict = errors.New("write conflict")

// SessionRow is the persisted header of a conversation session. Turns live
// in their own table, ordered by turn number.
type SessionRow struct {
	ID           string
	SubjectID    string
	SubjectKind  string // "seeker" or "employer"
	TurnCount    int
	LastDeepDive bool
	KnownPrefs   string // JSON object stored as text
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TurnRow is one recorded conversation turn.
type TurnRow struct {
	SessionID        string
	TurnNo           int
	UserMessage      string
	AssistantMessage string
	IsDeepDive       bool
	Score            float64
	CreatedAt        time.Time
}

// JobPosting is a published job record the retriever queries.
type JobPosting struct {
	ID             string
	Title          string
	Company        string
	Description    string
	RequiredSkills string
	Location       string
	Remote         bool
	SalaryMin      int64
	SalaryMax      int64
	Status         string // only "published" records are retrievable
	CreatedAt      time.Time
}

// CandidateProfile is a searchable person record for the employer path.
type CandidateProfile struct {
	ID              string
	Name            string
	Title           string
	Skills          string // JSON array stored as text
	Location        string
	ExperienceYears int
	RemoteOK        bool
	Status          string // only "active" records are retrievable
	CreatedAt       time.Time
}

// JobQuery is a single retrieval plan against the jobs table. Zero values
// disable the corresponding filter.
type JobQuery struct {
	Title       string
	Location    string
	SalaryFloor int64
	Limit       int
}

// CandidateQuery is a single retrieval plan against the candidates table.
type CandidateQuery struct {
	Title         string
	Skills        []string
	MinExperience int
	Limit         int
}
