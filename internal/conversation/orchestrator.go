// Package conversation runs the turn loop: load the session under its lock,
// score the dialogue, decide whether to ask or show, and persist the turn.
// Seekers get questions until a trigger fires; employers get candidate
// matches on every turn.
package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/extract"
	"github.com/workmatch/workmatch/internal/question"
	"github.com/workmatch/workmatch/internal/ranking"
	"github.com/workmatch/workmatch/internal/retrieval"
	"github.com/workmatch/workmatch/internal/scoring"
	"github.com/workmatch/workmatch/internal/session"
	"github.com/workmatch/workmatch/internal/storage"
	"github.com/workmatch/workmatch/internal/trigger"
)

// ErrSessionNotFound is returned when a session cannot be loaded for
// inspection. Turn processing never returns it: an unknown id falls back to
// a fresh session.
var ErrSessionNotFound = session.ErrNotFound

// Extractor pulls requirement profiles from employer messages.
// Implemented by extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, message string) extract.Profile
}

// Retriever fetches record pools for ranking.
// Implemented by retrieval.Retriever.
type Retriever interface {
	FindJobs(ctx context.Context, c retrieval.JobCriteria) ([]storage.JobPosting, error)
	FindCandidates(ctx context.Context, c retrieval.CandidateCriteria) ([]storage.CandidateProfile, error)
}

// PreferenceSource seeds new sessions with stored preferences.
// Implemented by profile.Provider.
type PreferenceSource interface {
	KnownPreferences(subjectID string) (map[string]string, error)
}

// TurnRequest is one inbound message.
type TurnRequest struct {
	SessionID string
	SubjectID string
	Kind      session.SubjectKind
	Message   string
}

// Recommendation is one match surfaced to the subject.
type Recommendation struct {
	ID     string
	Title  string
	Detail string
	Score  float64
	Reason string
}

// TurnResponse is the outcome of processing one turn.
type TurnResponse struct {
	SessionID        string
	TurnNumber       int
	AssistantMessage string
	CurrentScore     float64
	ShowedResults    bool
	Reason           trigger.Reason
	Recommendations  []Recommendation
}

// Orchestrator wires the conversation components together.
type Orchestrator struct {
	sessions  *session.Store
	prefs     PreferenceSource
	scorer    *scoring.Engine
	evaluator *trigger.Evaluator
	selector  *question.Selector
	extractor Extractor
	retriever Retriever
	ranker    *ranking.Ranker
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	sessions *session.Store,
	prefs PreferenceSource,
	extractor Extractor,
	retriever Retriever,
	ranker *ranking.Ranker,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		prefs:     prefs,
		scorer:    scoring.NewEngine(),
		evaluator: trigger.NewEvaluator(),
		selector:  question.NewSelector(),
		extractor: extractor,
		retriever: retriever,
		ranker:    ranker,
		logger:    log,
	}
}

// ProcessTurn handles one message. An empty or unknown SessionID starts a
// new session seeded from stored preferences. Turns for the same session are
// serialized.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	sess, err := o.resolveSession(req)
	if err != nil {
		return nil, err
	}

	unlock := o.sessions.Lock(sess.ID)
	defer unlock()

	// Re-read under the lock so a concurrent turn's write is visible.
	if sess.TurnCount > 0 || req.SessionID != "" {
		if sess, err = o.sessions.Get(sess.ID); err != nil {
			return nil, err
		}
	}

	if sess.Kind == session.KindEmployer {
		return o.employerTurn(ctx, sess, req.Message)
	}
	return o.seekerTurn(ctx, sess, req.Message)
}

func (o *Orchestrator) resolveSession(req TurnRequest) (*session.Session, error) {
	if req.SessionID != "" {
		sess, err := o.sessions.Get(req.SessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
		// Unknown or expired id: start over rather than failing the turn.
	}

	prefs, err := o.prefs.KnownPreferences(req.SubjectID)
	if err != nil {
		return nil, err
	}
	sess, err := o.sessions.Create(req.SubjectID, req.Kind, prefs)
	if err != nil {
		return nil, err
	}
	o.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("subject_id", req.SubjectID),
		zap.String("kind", string(req.Kind)),
	)
	return sess, nil
}

func (o *Orchestrator) seekerTurn(ctx context.Context, sess *session.Session, message string) (*TurnResponse, error) {
	// A blank first message opens the conversation with a greeting.
	if strings.TrimSpace(message) == "" && sess.TurnCount == 0 {
		updated, err := o.sessions.AppendTurn(sess, session.Turn{
			UserMessage:      "[session opened]",
			AssistantMessage: openingMessage,
		})
		if err != nil {
			return nil, err
		}
		return &TurnResponse{
			SessionID:        updated.ID,
			TurnNumber:       updated.TurnCount,
			AssistantMessage: openingMessage,
			Reason:           trigger.ReasonContinue,
		}, nil
	}

	result := o.scorer.Score(sess.KnownPreferences, sess.ConversationText(), message)

	decision := o.evaluator.Evaluate(trigger.Input{
		TurnCount:         sess.TurnCount + 1,
		CurrentScore:      result.Score,
		LatestUserMessage: message,
		ScoreHistory:      append(append([]float64{}, sess.ScoreHistory...), result.Score),
	})

	o.logger.Debug("seeker turn evaluated",
		zap.String("session_id", sess.ID),
		zap.Float64("score", result.Score),
		zap.String("reason", string(decision.Reason)),
	)

	var (
		assistant  string
		recs       []Recommendation
		isDeepDive bool
	)
	if decision.ShowResults {
		assistant, recs = o.seekerResults(ctx, sess, result, decision.Reason)
	} else {
		q := o.selector.Next(question.Input{
			ConversationText:    sess.ConversationText() + "\n" + message,
			KnownPreferences:    sess.KnownPreferences,
			TurnCount:           sess.TurnCount + 1,
			LastTurnWasDeepDive: sess.LastTurnWasDeepDive,
		})
		assistant = q.Text
		isDeepDive = q.IsDeepDive
	}

	updated, err := o.sessions.AppendTurn(sess, session.Turn{
		UserMessage:      message,
		AssistantMessage: assistant,
		IsDeepDive:       isDeepDive,
		Score:            result.Score,
	})
	if err != nil {
		return nil, err
	}

	return &TurnResponse{
		SessionID:        updated.ID,
		TurnNumber:       updated.TurnCount,
		AssistantMessage: assistant,
		CurrentScore:     result.Score,
		ShowedResults:    decision.ShowResults,
		Reason:           decision.Reason,
		Recommendations:  recs,
	}, nil
}

// seekerResults retrieves and ranks jobs. Retrieval or ranking failures fall
// back to the no-results message so the turn still completes.
func (o *Orchestrator) seekerResults(ctx context.Context, sess *session.Session, result scoring.Result, reason trigger.Reason) (string, []Recommendation) {
	needs := seekerNeeds(sess.KnownPreferences, result.MatchedKeywords)

	pool, err := o.retriever.FindJobs(ctx, retrieval.JobCriteria{
		Title:       needs.Title,
		Location:    needs.Location,
		SalaryFloor: needs.SalaryMin,
	})
	if err != nil {
		o.logger.Error("job retrieval failed", zap.String("session_id", sess.ID), zap.Error(err))
		return noResultsMessage, nil
	}

	ranked, err := o.ranker.RankJobs(ctx, needs, pool)
	if err != nil {
		o.logger.Error("job ranking failed", zap.String("session_id", sess.ID), zap.Error(err))
		return noResultsMessage, nil
	}
	if len(ranked) == 0 {
		return noResultsMessage, nil
	}

	recs := make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		recs = append(recs, Recommendation{
			ID:     r.Job.ID,
			Title:  r.Job.Title,
			Detail: r.Job.Company,
			Score:  r.Score,
			Reason: r.Reason,
		})
	}

	return resultIntro(reason) + "\n\n" + formatRecommendations(recs), recs
}

func (o *Orchestrator) employerTurn(ctx context.Context, sess *session.Session, message string) (*TurnResponse, error) {
	if strings.TrimSpace(message) == "" && sess.TurnCount == 0 {
		updated, err := o.sessions.AppendTurn(sess, session.Turn{
			UserMessage:      "[session opened]",
			AssistantMessage: employerOpeningMessage,
		})
		if err != nil {
			return nil, err
		}
		return &TurnResponse{
			SessionID:        updated.ID,
			TurnNumber:       updated.TurnCount,
			AssistantMessage: employerOpeningMessage,
			Reason:           trigger.ReasonContinue,
		}, nil
	}

	result := o.scorer.Score(sess.KnownPreferences, sess.ConversationText(), message)
	profile := o.extractor.Extract(ctx, message)

	skills := profile.Skills
	if len(skills) == 0 {
		skills = profile.Keywords
	}

	assistant := noCandidatesMessage
	var recs []Recommendation

	pool, err := o.retriever.FindCandidates(ctx, retrieval.CandidateCriteria{
		Title:         profile.JobTitle,
		Skills:        skills,
		MinExperience: profile.ExperienceYears,
	})
	if err != nil {
		o.logger.Error("candidate retrieval failed", zap.String("session_id", sess.ID), zap.Error(err))
	} else {
		ranked, rerr := o.ranker.RankCandidates(ctx, ranking.EmployerNeeds{
			Title:         profile.JobTitle,
			Skills:        skills,
			MinExperience: profile.ExperienceYears,
		}, pool)
		if rerr != nil {
			o.logger.Error("candidate ranking failed", zap.String("session_id", sess.ID), zap.Error(rerr))
		} else if len(ranked) > 0 {
			recs = make([]Recommendation, 0, len(ranked))
			for _, r := range ranked {
				recs = append(recs, Recommendation{
					ID:     r.Candidate.ID,
					Title:  r.Candidate.Name,
					Detail: r.Candidate.Title,
					Score:  r.Score,
					Reason: r.Reason,
				})
			}
			assistant = employerSummary(profile.JobTitle, skills, profile.Degraded) +
				"\n\n" + formatRecommendations(recs)
		}
	}

	updated, err := o.sessions.AppendTurn(sess, session.Turn{
		UserMessage:      message,
		AssistantMessage: assistant,
		Score:            result.Score,
	})
	if err != nil {
		return nil, err
	}

	return &TurnResponse{
		SessionID:        updated.ID,
		TurnNumber:       updated.TurnCount,
		AssistantMessage: assistant,
		CurrentScore:     result.Score,
		ShowedResults:    len(recs) > 0,
		Reason:           trigger.ReasonUserRequest,
		Recommendations:  recs,
	}, nil
}

// seekerNeeds maps known preferences onto ranking input.
func seekerNeeds(prefs map[string]string, keywords []string) ranking.SeekerNeeds {
	needs := ranking.SeekerNeeds{
		Title:    prefs["job_title"],
		Location: prefs["location"],
		Keywords: keywords,
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(prefs["salary_min"]), 64); err == nil {
		needs.SalaryMin = retrieval.NormalizeSalary(v)
	}
	return needs
}

// Session returns a session with its history for inspection endpoints.
func (o *Orchestrator) Session(id string) (*session.Session, error) {
	return o.sessions.Get(id)
}
