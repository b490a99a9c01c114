package mocapdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/markerpose/internal/mocap/markers"
)

// Session is one subject's solve run.
type Session struct {
	SessionID   string
	Prefix      string
	Source      string // recording path or stream name
	CreatedAtNs int64
}

// SessionStore persists sessions and their marker bindings.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db.DB}
}

// CreateSession inserts a session. If SessionID is empty, a new UUID is
// generated.
func (s *SessionStore) CreateSession(sess *Session) error {
	if sess.SessionID == "" {
		sess.SessionID = uuid.New().String()
	}
	if sess.CreatedAtNs == 0 {
		sess.CreatedAtNs = time.Now().UnixNano()
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, prefix, source, created_at_ns)
		VALUES (?, ?, ?, ?)
	`, sess.SessionID, sess.Prefix, nullString(sess.Source), sess.CreatedAtNs)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(sessionID string) (*Session, error) {
	var sess Session
	var source sql.NullString
	err := s.db.QueryRow(`
		SELECT session_id, prefix, source, created_at_ns
		FROM sessions
		WHERE session_id = ?
	`, sessionID).Scan(&sess.SessionID, &sess.Prefix, &source, &sess.CreatedAtNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Source = source.String
	return &sess, nil
}

// SaveBindings replaces the stored bindings of a session. Unresolved roles
// are not stored.
func (s *SessionStore) SaveBindings(sessionID string, b *markers.Bindings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin bindings: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bindings WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear bindings: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO bindings (session_id, role, label, pair_a, pair_b, midpoint)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare bindings: %w", err)
	}
	defer stmt.Close()

	for r, bind := range b.Roles {
		if !bind.Resolved() {
			continue
		}
		_, err := stmt.Exec(sessionID, markers.Role(r).String(),
			nullString(bind.Name), nullString(bind.Pair[0]), nullString(bind.Pair[1]), bind.Midpoint)
		if err != nil {
			return fmt.Errorf("insert binding %s: %w", markers.Role(r), err)
		}
	}
	return tx.Commit()
}

// Bindings loads the bindings of a session. Roles without a row are
// unresolved.
func (s *SessionStore) Bindings(sessionID string) (*markers.Bindings, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT role, label, pair_a, pair_b, midpoint
		FROM bindings
		WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	out := &markers.Bindings{Prefix: sess.Prefix}
	for rows.Next() {
		var name string
		var label, a, b sql.NullString
		var midpoint bool
		if err := rows.Scan(&name, &label, &a, &b, &midpoint); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		r, err := markers.ParseRole(name)
		if err != nil {
			return nil, err
		}
		out.Roles[r] = markers.Binding{
			Name:     label.String,
			Pair:     [2]string{a.String, b.String},
			Midpoint: midpoint,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return out, nil
}
