package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/workmatch/workmatch/internal/storage"
)

// Backend defines the persistence operations the Store needs.
// Implemented by storage.Store.
type Backend interface {
	InsertSession(row storage.SessionRow) error
	GetSession(id string) (storage.SessionRow, error)
	GetTurns(sessionID string) ([]storage.TurnRow, error)
	AppendTurn(sessionID string, expectedTurnCount int, turn storage.TurnRow) error
}

// Store persists and retrieves sessions. It also hands out per-session locks
// so the orchestrator can serialize concurrent turns for the same session;
// the backend's conditional update is the second line of defense.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for a session id and returns its release func.
// Lock entries are never reaped; session counts are bounded by subjects, not
// messages, so the map stays small.
func (s *Store) Lock(sessionID string) func() {
	s.mu.Lock()
	m, ok := s.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[sessionID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Get loads a session with its full history, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	row, err := s.backend.GetSession(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	turns, err := s.backend.GetTurns(id)
	if err != nil {
		return nil, fmt.Errorf("loading turns for session %s: %w", id, err)
	}

	sess := &Session{
		ID:                  row.ID,
		SubjectID:           row.SubjectID,
		Kind:                SubjectKind(row.SubjectKind),
		TurnCount:           row.TurnCount,
		LastTurnWasDeepDive: row.LastDeepDive,
		CreatedAt:           row.CreatedAt,
	}

	if err := json.Unmarshal([]byte(row.KnownPrefs), &sess.KnownPreferences); err != nil {
		// Malformed preferences shouldn't take the conversation down.
		sess.KnownPreferences = map[string]string{}
	}

	sess.History = make([]Turn, 0, len(turns))
	sess.ScoreHistory = make([]float64, 0, len(turns))
	for _, t := range turns {
		sess.History = append(sess.History, Turn{
			UserMessage:      t.UserMessage,
			AssistantMessage: t.AssistantMessage,
			IsDeepDive:       t.IsDeepDive,
			Score:            t.Score,
			CreatedAt:        t.CreatedAt,
		})
		sess.ScoreHistory = append(sess.ScoreHistory, t.Score)
	}

	return sess, nil
}

// Create starts a new session for a subject with its known preferences.
func (s *Store) Create(subjectID string, kind SubjectKind, knownPrefs map[string]string) (*Session, error) {
	if knownPrefs == nil {
		knownPrefs = map[string]string{}
	}
	prefsJSON, err := json.Marshal(knownPrefs)
	if err != nil {
		return nil, fmt.Errorf("marshalling preferences: %w", err)
	}

	row := storage.SessionRow{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		SubjectKind: string(kind),
		KnownPrefs:  string(prefsJSON),
	}
	if err := s.backend.InsertSession(row); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{
		ID:               row.ID,
		SubjectID:        subjectID,
		Kind:             kind,
		KnownPreferences: knownPrefs,
	}, nil
}

// AppendTurn records a completed turn and returns the updated session. The
// write is conditional on the in-memory turn count, so a stale session loses
// with storage.ErrConflict.
func (s *Store) AppendTurn(sess *Session, turn Turn) (*Session, error) {
	err := s.backend.AppendTurn(sess.ID, sess.TurnCount, storage.TurnRow{
		UserMessage:      turn.UserMessage,
		AssistantMessage: turn.AssistantMessage,
		IsDeepDive:       turn.IsDeepDive,
		Score:            turn.Score,
	})
	if err != nil {
		return nil, fmt.Errorf("appending turn to session %s: %w", sess.ID, err)
	}

	updated := *sess
	updated.TurnCount++
	updated.History = append(append([]Turn{}, sess.History...), turn)
	updated.ScoreHistory = append(append([]float64{}, sess.ScoreHistory...), turn.Score)
	updated.LastTurnWasDeepDive = turn.IsDeepDive
	return &updated, nil
}
