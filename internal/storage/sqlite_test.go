package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApplied(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("no migrations applied")
	}
	if versions[0] != 1 {
		t.Errorf("first migration = %d, want 1", versions[0])
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	err := s.InsertSession(SessionRow{
		ID:          id,
		SubjectID:   "user-1",
		SubjectKind: "seeker",
		KnownPrefs:  `{"job_title":"Backend Engineer"}`,
	})
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	row, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if row.SubjectID != "user-1" || row.SubjectKind != "seeker" {
		t.Errorf("unexpected session row: %+v", row)
	}
	if row.TurnCount != 0 {
		t.Errorf("turn_count = %d, want 0", row.TurnCount)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSession("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendTurnAdvancesSession(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.InsertSession(SessionRow{ID: id, SubjectID: "u", SubjectKind: "seeker", KnownPrefs: "{}"}); err != nil {
		t.Fatal(err)
	}

	err := s.AppendTurn(id, 0, TurnRow{
		UserMessage:      "[session opened]",
		AssistantMessage: "hello",
		Score:            0,
	})
	if err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	err = s.AppendTurn(id, 1, TurnRow{
		UserMessage:      "I know Python",
		AssistantMessage: "tell me more",
		IsDeepDive:       true,
		Score:            35,
	})
	if err != nil {
		t.Fatalf("AppendTurn 2: %v", err)
	}

	row, err := s.GetSession(id)
	if err != nil {
		t.Fatal(err)
	}
	if row.TurnCount != 2 {
		t.Errorf("turn_count = %d, want 2", row.TurnCount)
	}
	if !row.LastDeepDive {
		t.Error("last_deep_dive should be true after deep-dive turn")
	}

	turns, err := s.GetTurns(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[1].TurnNo != 2 || turns[1].Score != 35 {
		t.Errorf("unexpected second turn: %+v", turns[1])
	}
}

func TestAppendTurnConflict(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	if err := s.InsertSession(SessionRow{ID: id, SubjectID: "u", SubjectKind: "seeker", KnownPrefs: "{}"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendTurn(id, 0, TurnRow{UserMessage: "a", AssistantMessage: "b"}); err != nil {
		t.Fatal(err)
	}

	// Replaying with a stale expected turn count must not drop a turn.
	err := s.AppendTurn(id, 0, TurnRow{UserMessage: "dup", AssistantMessage: "dup"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestAppendTurnMissingSession(t *testing.T) {
	s := openTestStore(t)

	err := s.AppendTurn("missing", 0, TurnRow{UserMessage: "a", AssistantMessage: "b"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchJobsFilters(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := []JobPosting{
		{ID: "j1", Title: "Backend Engineer", Location: "Tokyo", SalaryMax: 8000000, Status: "published", CreatedAt: base},
		{ID: "j2", Title: "Backend Engineer", Location: "Osaka", SalaryMax: 5000000, Status: "published", CreatedAt: base.Add(time.Hour)},
		{ID: "j3", Title: "Designer", Location: "Tokyo", SalaryMax: 9000000, Status: "published", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "j4", Title: "Backend Engineer", Location: "Tokyo", SalaryMax: 9000000, Status: "draft", CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, j := range seed {
		if err := s.SaveJob(j); err != nil {
			t.Fatalf("SaveJob %s: %v", j.ID, err)
		}
	}

	got, err := s.SearchJobs(JobQuery{Title: "backend", Location: "tokyo", SalaryFloor: 6000000, Limit: 10})
	if err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}
	if len(got) != 1 || got[0].ID != "j1" {
		t.Fatalf("got %+v, want only j1 (draft excluded, filters applied)", got)
	}

	// No filters: newest published first.
	all, err := s.SearchJobs(JobQuery{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d published jobs, want 3", len(all))
	}
	if all[0].ID != "j3" {
		t.Errorf("newest first: got %s, want j3", all[0].ID)
	}
}

func TestSearchCandidatesFilters(t *testing.T) {
	s := openTestStore(t)

	seed := []CandidateProfile{
		{ID: "c1", Name: "A", Title: "Backend Engineer", Skills: `["Python","AWS"]`, ExperienceYears: 5, Status: "active"},
		{ID: "c2", Name: "B", Title: "Backend Engineer", Skills: `["Ruby"]`, ExperienceYears: 2, Status: "active"},
		{ID: "c3", Name: "C", Title: "Designer", Skills: `["Photoshop"]`, ExperienceYears: 8, Status: "active"},
		{ID: "c4", Name: "D", Title: "Backend Engineer", Skills: `["Python"]`, ExperienceYears: 6, Status: "inactive"},
	}
	for _, c := range seed {
		if err := s.SaveCandidate(c); err != nil {
			t.Fatalf("SaveCandidate %s: %v", c.ID, err)
		}
	}

	got, err := s.SearchCandidates(CandidateQuery{Skills: []string{"python"}, MinExperience: 3, Limit: 10})
	if err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("got %+v, want only c1", got)
	}
}

func TestCandidateSkillList(t *testing.T) {
	c := CandidateProfile{Skills: `["Go","Python"]`}
	skills := c.SkillList()
	if len(skills) != 2 || skills[0] != "Go" {
		t.Errorf("SkillList = %v", skills)
	}

	bad := CandidateProfile{Skills: "not json"}
	if got := bad.SkillList(); got != nil {
		t.Errorf("malformed skills should yield nil, got %v", got)
	}
}

func TestPreferences(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetPreference("u1", "job_title", "Backend Engineer"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference("u1", "job_title", "Platform Engineer"); err != nil {
		t.Fatal(err)
	}

	prefs, err := s.GetPreferences("u1")
	if err != nil {
		t.Fatal(err)
	}
	if prefs["job_title"] != "Platform Engineer" {
		t.Errorf("job_title = %q, want upserted value", prefs["job_title"])
	}

	empty, err := s.GetPreferences("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown subject should yield empty map, got %v", empty)
	}
}
