package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/conversation"
	"github.com/workmatch/workmatch/internal/extract"
	"github.com/workmatch/workmatch/internal/profile"
	"github.com/workmatch/workmatch/internal/ranking"
	"github.com/workmatch/workmatch/internal/retrieval"
	"github.com/workmatch/workmatch/internal/session"
	"github.com/workmatch/workmatch/internal/storage"
)

const testToken = "test-token"

type staticExtractor struct {
	profile extract.Profile
}

func (s *staticExtractor) Extract(_ context.Context, _ string) extract.Profile {
	return s.profile
}

func newTestHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	prefs := profile.NewProvider(store)
	orch := conversation.NewOrchestrator(
		session.NewStore(store),
		prefs,
		&staticExtractor{},
		retrieval.NewRetriever(store, 5, zap.NewNop()),
		ranking.NewRanker(5),
		zap.NewNop(),
	)

	h := NewAppHandler(AppDeps{
		Orchestrator: orch,
		Store:        store,
		Profile:      prefs,
		Token:        testToken,
		HTTPClient:   http.DefaultClient,
		Logger:       zap.NewNop(),
	})
	return h, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthNoAuth(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestChatRequiresAuth(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{SubjectID: "u1"}, false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestBearerAuthRejectsWrongToken(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer not-the-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestChatOpensSession(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{
		SubjectID: "u1",
		Kind:      "seeker",
	}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || resp.TurnNumber != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.AssistantMessage == "" {
		t.Error("expected opening message")
	}
}

func TestChatValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{Kind: "seeker"}, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing subject_id: status = %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{SubjectID: "u1", Kind: "alien"}, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad kind: status = %d", w.Code)
	}
}

func TestChatUnknownSessionStartsNew(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{
		SessionID: "missing",
		SubjectID: "u1",
		Message:   "hi",
	}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || resp.SessionID == "missing" {
		t.Errorf("SessionID = %q, want a fresh session", resp.SessionID)
	}
	if resp.TurnNumber != 1 {
		t.Errorf("TurnNumber = %d, want 1", resp.TurnNumber)
	}
}

func TestGetSessionView(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodPost, "/v1/chat", ChatRequest{
		SubjectID: "u1",
		Kind:      "seeker",
		Message:   "hello, I write Python",
	}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d", w.Code)
	}
	var chat ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&chat); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, h, http.MethodGet, "/v1/sessions/"+chat.SessionID, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("session status = %d: %s", w.Code, w.Body.String())
	}
	var view SessionView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.TurnCount != 1 || len(view.Turns) != 1 {
		t.Errorf("view = %+v", view)
	}
	if view.Turns[0].UserMessage != "hello, I write Python" {
		t.Errorf("turn = %+v", view.Turns[0])
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doJSON(t, h, http.MethodGet, "/v1/sessions/nope", nil, true)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
