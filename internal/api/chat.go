// Package api exposes the matching engine over HTTP and MCP. The HTTP
// surface is bearer-authenticated except for the health probe.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/conversation"
	"github.com/workmatch/workmatch/internal/profile"
	"github.com/workmatch/workmatch/internal/session"
	"github.com/workmatch/workmatch/internal/storage"
)

const maxChatBodySize = 1 << 20

// AppDeps holds the wiring for the HTTP handler.
type AppDeps struct {
	Orchestrator *conversation.Orchestrator
	Store        *storage.Store
	Profile      *profile.Provider
	Token        string
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// NewAppHandler builds the full HTTP router.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/v1/chat", handleChat(deps))
		r.Get("/v1/sessions/{id}", handleGetSession(deps))

		r.Post("/v1/jobs", handleCreateJob(deps))
		r.Get("/v1/jobs", handleListJobs(deps))
		r.Get("/v1/jobs/{id}", handleGetJob(deps))
		r.Post("/v1/jobs/from-url", handleJobFromURL(deps))

		r.Post("/v1/candidates", handleCreateCandidate(deps))
		r.Get("/v1/candidates", handleListCandidates(deps))
		r.Get("/v1/candidates/{id}", handleGetCandidate(deps))
		r.Post("/v1/candidates/{id}/resume", handleResumeUpload(deps))

		r.Put("/v1/subjects/{id}/preferences", handleSetPreferences(deps))
	})

	return r
}

// ChatRequest is one conversational turn from a client.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	SubjectID string `json:"subject_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// ChatRecommendation mirrors conversation.Recommendation on the wire.
type ChatRecommendation struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Detail string  `json:"detail,omitempty"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// ChatResponse is the outcome of one turn.
type ChatResponse struct {
	SessionID        string               `json:"session_id"`
	TurnNumber       int                  `json:"turn_number"`
	AssistantMessage string               `json:"assistant_message"`
	CurrentScore     float64              `json:"current_score"`
	ShowedResults    bool                 `json:"showed_results"`
	Reason           string               `json:"reason"`
	Recommendations  []ChatRecommendation `json:"recommendations,omitempty"`
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SubjectID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "subject_id is required")
			return
		}

		kind := session.SubjectKind(req.Kind)
		switch kind {
		case session.KindSeeker, session.KindEmployer:
		case "":
			kind = session.KindSeeker
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "kind must be seeker or employer")
			return
		}

		resp, err := deps.Orchestrator.ProcessTurn(r.Context(), conversation.TurnRequest{
			SessionID: req.SessionID,
			SubjectID: req.SubjectID,
			Kind:      kind,
			Message:   req.Message,
		})
		if err != nil {
			switch {
			case errors.Is(err, conversation.ErrSessionNotFound):
				httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", req.SessionID)
			case errors.Is(err, storage.ErrConflict):
				httpError(w, http.StatusConflict, "conflict_error", "concurrent turn in progress, retry")
			default:
				deps.Logger.Error("chat turn failed", zap.Error(err))
				httpError(w, http.StatusInternalServerError, "api_error", "processing turn: %v", err)
			}
			return
		}

		out := ChatResponse{
			SessionID:        resp.SessionID,
			TurnNumber:       resp.TurnNumber,
			AssistantMessage: resp.AssistantMessage,
			CurrentScore:     resp.CurrentScore,
			ShowedResults:    resp.ShowedResults,
			Reason:           string(resp.Reason),
		}
		for _, rec := range resp.Recommendations {
			out.Recommendations = append(out.Recommendations, ChatRecommendation{
				ID:     rec.ID,
				Title:  rec.Title,
				Detail: rec.Detail,
				Score:  rec.Score,
				Reason: rec.Reason,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// SessionView is the inspection shape for GET /v1/sessions/{id}.
type SessionView struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	Kind         string     `json:"kind"`
	TurnCount    int        `json:"turn_count"`
	CurrentScore float64    `json:"current_score"`
	ScoreHistory []float64  `json:"score_history"`
	Turns        []TurnView `json:"turns"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TurnView is one turn in the session view.
type TurnView struct {
	UserMessage      string  `json:"user_message"`
	AssistantMessage string  `json:"assistant_message"`
	IsDeepDive       bool    `json:"is_deep_dive"`
	Score            float64 `json:"score"`
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sess, err := deps.Orchestrator.Session(id)
		if err != nil {
			if errors.Is(err, conversation.ErrSessionNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}

		view := SessionView{
			ID:           sess.ID,
			SubjectID:    sess.SubjectID,
			Kind:         string(sess.Kind),
			TurnCount:    sess.TurnCount,
			CurrentScore: sess.CurrentScore(),
			ScoreHistory: sess.ScoreHistory,
			CreatedAt:    sess.CreatedAt,
		}
		for _, t := range sess.History {
			view.Turns = append(view.Turns, TurnView{
				UserMessage:      t.UserMessage,
				AssistantMessage: t.AssistantMessage,
				IsDeepDive:       t.IsDeepDive,
				Score:            t.Score,
			})
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
