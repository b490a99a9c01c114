package mocapdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/markers"
	"github.com/banshee-data/markerpose/internal/mocap/solver"
)

// StateStore keeps the latest solver history of each session, so a resumed
// session reconstructs the pelvis and smooths the chest from where it
// stopped.
type StateStore struct {
	db *sql.DB
}

// NewStateStore creates a new StateStore.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db.DB}
}

// SaveState replaces the stored state of a session.
func (s *StateStore) SaveState(sessionID string, frame int, st solver.State) error {
	h, q := st.Hips, st.PrevChest
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO solver_state (
			session_id, frame,
			base_x, base_y, base_z, lhip_x, lhip_y, lhip_z, rhip_x, rhip_y, rhip_z,
			chest_w, chest_x, chest_y, chest_z, updated_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, frame,
		nullFloat64(h.BodyBase.X), nullFloat64(h.BodyBase.Y), nullFloat64(h.BodyBase.Z),
		nullFloat64(h.LeftHip.X), nullFloat64(h.LeftHip.Y), nullFloat64(h.LeftHip.Z),
		nullFloat64(h.RightHip.X), nullFloat64(h.RightHip.Y), nullFloat64(h.RightHip.Z),
		nullFloat64(q.Real), nullFloat64(q.Imag), nullFloat64(q.Jmag), nullFloat64(q.Kmag),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save solver state: %w", err)
	}
	return nil
}

// State returns the stored state of a session and the frame it was saved
// at. Unobserved pelvis points come back as NaN.
func (s *StateStore) State(sessionID string) (solver.State, int, error) {
	var frame int
	var v [13]sql.NullFloat64
	dest := []any{&frame}
	for i := range v {
		dest = append(dest, &v[i])
	}
	err := s.db.QueryRow(`
		SELECT frame,
			base_x, base_y, base_z, lhip_x, lhip_y, lhip_z, rhip_x, rhip_y, rhip_z,
			chest_w, chest_x, chest_y, chest_z
		FROM solver_state
		WHERE session_id = ?
	`, sessionID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return solver.State{}, 0, fmt.Errorf("solver state for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return solver.State{}, 0, fmt.Errorf("get solver state: %w", err)
	}

	vec := func(i int) r3.Vec {
		return r3.Vec{X: floatOrNaN(v[i]), Y: floatOrNaN(v[i+1]), Z: floatOrNaN(v[i+2])}
	}
	var st solver.State
	st.Hips = markers.HipState{BodyBase: vec(0), LeftHip: vec(3), RightHip: vec(6)}
	st.PrevChest = quat.Number{Real: floatOrNaN(v[9]), Imag: floatOrNaN(v[10]), Jmag: floatOrNaN(v[11]), Kmag: floatOrNaN(v[12])}
	return st, frame, nil
}
