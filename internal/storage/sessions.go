package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertSession persists a new session header.
func (s *Store) InsertSession(row SessionRow) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, subject_id, subject_kind, turn_count, last_deep_dive, known_prefs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.SubjectID, row.SubjectKind, row.TurnCount, boolToInt(row.LastDeepDive), row.KnownPrefs, now, now,
	)
	return err
}

// GetSession returns the session header for id, or ErrNotFound.
func (s *Store) GetSession(id string) (SessionRow, error) {
	var row SessionRow
	var deepDive int
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, subject_id, subject_kind, turn_count, last_deep_dive, known_prefs, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&row.ID, &row.SubjectID, &row.SubjectKind, &row.TurnCount, &deepDive, &row.KnownPrefs, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return SessionRow{}, ErrNotFound
	}
	if err != nil {
		return SessionRow{}, err
	}
	row.LastDeepDive = deepDive != 0
	if row.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return SessionRow{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if row.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return SessionRow{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return row, nil
}

// GetTurns returns all turns for a session ordered by turn number.
func (s *Store) GetTurns(sessionID string) ([]TurnRow, error) {
	rows, err := s.db.Query(`
		SELECT session_id, turn_no, user_message, assistant_message, is_deep_dive, score, created_at
		FROM turns WHERE session_id = ? ORDER BY turn_no ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TurnRow
	for rows.Next() {
		var t TurnRow
		var deepDive int
		var createdAt string
		if err := rows.Scan(&t.SessionID, &t.TurnNo, &t.UserMessage, &t.AssistantMessage, &deepDive, &t.Score, &createdAt); err != nil {
			return nil, err
		}
		t.IsDeepDive = deepDive != 0
		if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at for turn %d: %w", t.TurnNo, err)
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// AppendTurn records one turn and advances the session header in a single
// transaction. The header update is conditional on the expected turn count,
// so a concurrent duplicate submission loses with ErrConflict instead of
// silently dropping a turn.
func (s *Store) AppendTurn(sessionID string, expectedTurnCount int, turn TurnRow) error {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE sessions
		SET turn_count = turn_count + 1, last_deep_dive = ?, updated_at = ?
		WHERE id = ? AND turn_count = ?`,
		boolToInt(turn.IsDeepDive), now, sessionID, expectedTurnCount,
	)
	if err != nil {
		return fmt.Errorf("updating session header: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a lost race from a missing session.
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	if _, err := tx.Exec(`
		INSERT INTO turns (session_id, turn_no, user_message, assistant_message, is_deep_dive, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, expectedTurnCount+1, turn.UserMessage, turn.AssistantMessage, boolToInt(turn.IsDeepDive), turn.Score, now,
	); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
