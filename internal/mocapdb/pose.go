package mocapdb

import (
	"database/sql"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// PoseStore persists solved skeleton frames, one row per joint. NaN
// components are stored as NULL.
type PoseStore struct {
	db *sql.DB
}

// NewPoseStore creates a new PoseStore.
func NewPoseStore(db *DB) *PoseStore {
	return &PoseStore{db: db.DB}
}

// InsertFrame stores the pose of every joint for one frame, replacing any
// earlier write of the same frame.
func (s *PoseStore) InsertFrame(sessionID string, frame int, skel *skeleton.Skeleton) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO joint_poses
			(session_id, frame, joint, status, px, py, pz, qw, qx, qy, qz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare frame: %w", err)
	}
	defer stmt.Close()

	for _, id := range skel.Order() {
		j := skel.Joint(id)
		p, q := j.Pos, j.Orientation
		_, err := stmt.Exec(sessionID, frame, id.String(), int(j.Status),
			nullFloat64(p.X), nullFloat64(p.Y), nullFloat64(p.Z),
			nullFloat64(q.Real), nullFloat64(q.Imag), nullFloat64(q.Jmag), nullFloat64(q.Kmag))
		if err != nil {
			return fmt.Errorf("insert joint %s frame %d: %w", id, frame, err)
		}
	}
	return tx.Commit()
}

// Frame loads a stored frame into a fresh skeleton.
func (s *PoseStore) Frame(sessionID string, frame int) (*skeleton.Skeleton, error) {
	rows, err := s.db.Query(`
		SELECT joint, status, px, py, pz, qw, qx, qy, qz
		FROM joint_poses
		WHERE session_id = ? AND frame = ?
	`, sessionID, frame)
	if err != nil {
		return nil, fmt.Errorf("query frame: %w", err)
	}
	defer rows.Close()

	skel := skeleton.New()
	n := 0
	for rows.Next() {
		var name string
		var status int
		var v [7]sql.NullFloat64
		if err := rows.Scan(&name, &status, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6]); err != nil {
			return nil, fmt.Errorf("scan joint: %w", err)
		}
		id, err := skeleton.ParseJoint(name)
		if err != nil {
			return nil, err
		}
		j := skel.Joint(id)
		j.Status = skeleton.Status(status)
		j.Pos = r3.Vec{X: floatOrNaN(v[0]), Y: floatOrNaN(v[1]), Z: floatOrNaN(v[2])}
		j.Orientation = quat.Number{Real: floatOrNaN(v[3]), Imag: floatOrNaN(v[4]), Jmag: floatOrNaN(v[5]), Kmag: floatOrNaN(v[6])}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate joints: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("session %s frame %d: %w", sessionID, frame, ErrNotFound)
	}
	return skel, nil
}

// CountFrames returns how many distinct frames are stored for a session.
func (s *PoseStore) CountFrames(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT frame) FROM joint_poses WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}

// JointTrack returns the stored positions of one joint in frame order.
func (s *PoseStore) JointTrack(sessionID string, id skeleton.JointID) ([]int, []r3.Vec, error) {
	rows, err := s.db.Query(`
		SELECT frame, px, py, pz
		FROM joint_poses
		WHERE session_id = ? AND joint = ?
		ORDER BY frame
	`, sessionID, id.String())
	if err != nil {
		return nil, nil, fmt.Errorf("query track: %w", err)
	}
	defer rows.Close()

	var frames []int
	var pos []r3.Vec
	for rows.Next() {
		var f int
		var x, y, z sql.NullFloat64
		if err := rows.Scan(&f, &x, &y, &z); err != nil {
			return nil, nil, fmt.Errorf("scan track: %w", err)
		}
		frames = append(frames, f)
		pos = append(pos, r3.Vec{X: floatOrNaN(x), Y: floatOrNaN(y), Z: floatOrNaN(z)})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate track: %w", err)
	}
	return frames, pos, nil
}
