package session

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown. Callers are expected
// to treat this as "start a new session", not as a failure.
var ErrNotFound = errors.New("session not found")

// SubjectKind distinguishes the two sides of the platform.
type SubjectKind string

const (
	KindSeeker   SubjectKind = "seeker"
	KindEmployer SubjectKind = "employer"
)

// Turn is one completed exchange: the user's message, the assistant's reply,
// and the score snapshot taken that turn. Immutable once appended.
type Turn struct {
	UserMessage      string
	AssistantMessage string
	IsDeepDive       bool
	Score            float64
	CreatedAt        time.Time
}

// Session is the durable state of one ongoing conversation.
//
// Invariant: len(ScoreHistory) == TurnCount == len(History).
type Session struct {
	ID                  string
	SubjectID           string
	Kind                SubjectKind
	TurnCount           int
	History             []Turn
	ScoreHistory        []float64
	KnownPreferences    map[string]string
	LastTurnWasDeepDive bool
	CreatedAt           time.Time
}

// CurrentScore returns the most recent score, or 0 for a fresh session.
func (s *Session) CurrentScore() float64 {
	if len(s.ScoreHistory) == 0 {
		return 0
	}
	return s.ScoreHistory[len(s.ScoreHistory)-1]
}

// ConversationText concatenates every user message in order, separated by
// newlines. The scoring engine and question selector match against this.
func (s *Session) ConversationText() string {
	var out string
	for _, t := range s.History {
		if out != "" {
			out += "\n"
		}
		out += t.UserMessage
	}
	return out
}
