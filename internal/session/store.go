package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"inquisit/internal/flow"
	"inquisit/internal/logging"
	"inquisit/internal/pattern"
)

// ErrSessionNotFound is returned when a session id has no stored row.
var ErrSessionNotFound = errors.New("session not found")

// Store persists dialogue sessions, turns, phase history, and objectives in
// SQLite. A small in-memory cache fronts the sessions table; turns and logs
// always go to the database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	cache  map[string]*DialogueSession
}

// NewStore opens (creating if needed) the session database at the given path.
func NewStore(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewStore")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// NORMAL is safe under WAL and much faster than the FULL default.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path, cache: make(map[string]*DialogueSession)}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Session store opened at %s", path)
	return s, nil
}

// Close flushes nothing (writes are synchronous) and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			expertise TEXT NOT NULL,
			focus TEXT NOT NULL DEFAULT '',
			phase TEXT NOT NULL,
			depth INTEGER NOT NULL DEFAULT 0,
			turn_count INTEGER NOT NULL DEFAULT 0,
			concepts_json TEXT NOT NULL DEFAULT '[]',
			assumptions_json TEXT NOT NULL DEFAULT '[]',
			definitions_json TEXT NOT NULL DEFAULT '[]',
			recent_patterns_json TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			pattern TEXT NOT NULL,
			phase TEXT NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			insights INTEGER NOT NULL DEFAULT 0,
			satisfaction REAL,
			depth INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, turn_number)
		)`,
		`CREATE TABLE IF NOT EXISTS phase_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			entered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS objectives (
			session_id TEXT NOT NULL,
			description TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, description)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, turn_number)`,
		`CREATE INDEX IF NOT EXISTS idx_phase_log_session ON phase_log(session_id, id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// CreateSession inserts a new session in the exploring phase.
func (s *Store) CreateSession(category pattern.Category, expertise pattern.ExpertiseTier, focus string) (*DialogueSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := &DialogueSession{
		ID:           uuid.NewString(),
		Category:     category,
		Expertise:    expertise,
		Focus:        focus,
		CurrentPhase: flow.PhaseExploring,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, category, expertise, focus, phase, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Category), sess.Expertise.String(), sess.Focus,
		string(sess.CurrentPhase), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create session: %v", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if _, err := s.db.Exec(
		"INSERT INTO phase_log (session_id, phase, entered_at) VALUES (?, ?, ?)",
		sess.ID, string(sess.CurrentPhase), now,
	); err != nil {
		logging.StoreDebug("Failed to seed phase log for %s: %v", sess.ID, err)
	}

	s.cache[sess.ID] = sess
	logging.Get(logging.CategoryStore).Info("Session created: id=%s category=%s expertise=%s",
		sess.ID, sess.Category, sess.Expertise)
	return sess, nil
}

// GetSession returns the session for the given id, from cache when possible.
func (s *Store) GetSession(id string) (*DialogueSession, error) {
	s.mu.RLock()
	if sess, ok := s.cache[id]; ok {
		s.mu.RUnlock()
		return sess, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache[id]; ok {
		return sess, nil
	}

	row := s.db.QueryRow(
		`SELECT id, category, expertise, focus, phase, depth, turn_count,
		        concepts_json, assumptions_json, definitions_json, recent_patterns_json,
		        created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	)

	var sess DialogueSession
	var expertise, phase string
	var conceptsJSON, assumptionsJSON, definitionsJSON, recentJSON string
	err := row.Scan(&sess.ID, &sess.Category, &expertise, &sess.Focus, &phase,
		&sess.Depth, &sess.TurnCount,
		&conceptsJSON, &assumptionsJSON, &definitionsJSON, &recentJSON,
		&sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	sess.Expertise = pattern.ParseTier(expertise)
	if p, ok := flow.ParsePhase(phase); ok {
		sess.CurrentPhase = p
	} else {
		sess.CurrentPhase = flow.PhaseExploring
	}
	decodeJSONList(conceptsJSON, &sess.Concepts)
	decodeJSONList(assumptionsJSON, &sess.Assumptions)
	decodeJSONList(definitionsJSON, &sess.Definitions)
	decodeJSONList(recentJSON, &sess.RecentPatterns)

	total, completed, err := s.objectiveCountsLocked(id)
	if err != nil {
		return nil, err
	}
	sess.ObjectivesTotal, sess.ObjectivesCompleted = total, completed

	s.cache[id] = &sess
	return &sess, nil
}

// SaveSession writes the session's mutable fields back to the database.
func (s *Store) SaveSession(sess *DialogueSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE sessions
		 SET category = ?, expertise = ?, focus = ?, phase = ?, depth = ?, turn_count = ?,
		     concepts_json = ?, assumptions_json = ?, definitions_json = ?, recent_patterns_json = ?,
		     updated_at = ?
		 WHERE id = ?`,
		string(sess.Category), sess.Expertise.String(), sess.Focus,
		string(sess.CurrentPhase), sess.Depth, sess.TurnCount,
		encodeJSONList(sess.Concepts), encodeJSONList(sess.Assumptions),
		encodeJSONList(sess.Definitions), encodeJSONList(sess.RecentPatterns),
		sess.UpdatedAt, sess.ID,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to save session %s: %v", sess.ID, err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sess.ID)
	}

	s.cache[sess.ID] = sess
	logging.StoreDebug("Session saved: id=%s phase=%s turns=%d", sess.ID, sess.CurrentPhase, sess.TurnCount)
	return nil
}

// AppendTurn records one dialogue turn. Duplicate turn numbers are silently
// skipped so replayed host calls stay idempotent.
func (s *Store) AppendTurn(turn DialogueTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var satisfaction interface{}
	if turn.Satisfaction != nil {
		satisfaction = *turn.Satisfaction
	}
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO turns (session_id, turn_number, pattern, phase, question, insights, satisfaction, depth, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.TurnNumber, string(turn.Pattern), string(turn.Phase),
		turn.Question, turn.Insights, satisfaction, turn.Depth, ts,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to store turn: session=%s turn=%d: %v",
			turn.SessionID, turn.TurnNumber, err)
		return fmt.Errorf("failed to store turn: %w", err)
	}

	logging.StoreDebug("Turn stored: session=%s turn=%d pattern=%s", turn.SessionID, turn.TurnNumber, turn.Pattern)
	return nil
}

// RecentTurns returns the most recent turns in chronological order.
func (s *Store) RecentTurns(sessionID string, limit int) ([]DialogueTurn, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RecentTurns")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT session_id, turn_number, pattern, phase, question, insights, satisfaction, depth, created_at
		 FROM turns WHERE session_id = ?
		 ORDER BY turn_number DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []DialogueTurn
	for rows.Next() {
		var t DialogueTurn
		var patternID, phase string
		var satisfaction sql.NullFloat64
		if err := rows.Scan(&t.SessionID, &t.TurnNumber, &patternID, &phase,
			&t.Question, &t.Insights, &satisfaction, &t.Depth, &t.Timestamp); err != nil {
			continue
		}
		t.Pattern = pattern.ID(patternID)
		if p, ok := flow.ParsePhase(phase); ok {
			t.Phase = p
		}
		if satisfaction.Valid {
			v := satisfaction.Float64
			t.Satisfaction = &v
		}
		turns = append(turns, t)
	}

	// Reverse the DESC query into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// LogPhase appends an entry to the session's phase history.
func (s *Store) LogPhase(sessionID string, phase flow.Phase, enteredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO phase_log (session_id, phase, entered_at) VALUES (?, ?, ?)",
		sessionID, string(phase), enteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log phase: %w", err)
	}
	return nil
}

// PhaseHistory returns the session's phase log in insertion order.
func (s *Store) PhaseHistory(sessionID string) ([]flow.PhaseLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT phase, entered_at FROM phase_log WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query phase log: %w", err)
	}
	defer rows.Close()

	var history []flow.PhaseLogEntry
	for rows.Next() {
		var phase string
		var entry flow.PhaseLogEntry
		if err := rows.Scan(&phase, &entry.EnteredAt); err != nil {
			continue
		}
		if p, ok := flow.ParsePhase(phase); ok {
			entry.Phase = p
		}
		history = append(history, entry)
	}
	return history, nil
}

// AddObjective registers an objective for the session. Re-adding an existing
// objective is a no-op.
func (s *Store) AddObjective(sessionID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO objectives (session_id, description) VALUES (?, ?)",
		sessionID, description,
	)
	if err != nil {
		return fmt.Errorf("failed to add objective: %w", err)
	}
	s.refreshObjectiveCache(sessionID)
	return nil
}

// CompleteObjective marks an objective done.
func (s *Store) CompleteObjective(sessionID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE objectives SET completed = 1 WHERE session_id = ? AND description = ?",
		sessionID, description,
	)
	if err != nil {
		return fmt.Errorf("failed to complete objective: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("objective not found: %q", description)
	}
	s.refreshObjectiveCache(sessionID)
	return nil
}

// ObjectiveCounts returns total and completed objectives for a session.
func (s *Store) ObjectiveCounts(sessionID string) (total, completed int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objectiveCountsLocked(sessionID)
}

func (s *Store) objectiveCountsLocked(sessionID string) (total, completed int, err error) {
	row := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM objectives WHERE session_id = ?",
		sessionID,
	)
	if err := row.Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count objectives: %w", err)
	}
	return total, completed, nil
}

// refreshObjectiveCache keeps cached session counts in sync. Caller holds mu.
func (s *Store) refreshObjectiveCache(sessionID string) {
	sess, ok := s.cache[sessionID]
	if !ok {
		return
	}
	total, completed, err := s.objectiveCountsLocked(sessionID)
	if err != nil {
		logging.StoreDebug("Failed to refresh objective counts for %s: %v", sessionID, err)
		return
	}
	sess.ObjectivesTotal, sess.ObjectivesCompleted = total, completed
}

func encodeJSONList(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

func decodeJSONList(data string, out interface{}) {
	if data == "" {
		return
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		logging.StoreDebug("Failed to decode stored list: %v", err)
	}
}
