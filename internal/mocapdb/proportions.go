package mocapdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/body"
)

// ProportionSample is a stored body estimate with the frame it was taken at.
type ProportionSample struct {
	Frame int
	body.Proportions
}

// ProportionStore persists body proportion snapshots.
type ProportionStore struct {
	db *sql.DB
}

// NewProportionStore creates a new ProportionStore.
func NewProportionStore(db *DB) *ProportionStore {
	return &ProportionStore{db: db.DB}
}

// InsertProportions appends a snapshot taken at frame.
func (s *ProportionStore) InsertProportions(sessionID string, frame int, p body.Proportions) error {
	_, err := s.db.Exec(`
		INSERT INTO proportions (
			session_id, frame, height_cm, mass_kg, shoulder_width_mm,
			neck_x, neck_y, neck_z,
			height_samples, neck_samples, shoulder_samples, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, frame,
		nullFloat64(p.HeightCM), nullFloat64(p.MassKG), nullFloat64(p.ShoulderWidthMM),
		nullFloat64(p.NeckToChest.X), nullFloat64(p.NeckToChest.Y), nullFloat64(p.NeckToChest.Z),
		p.HeightSamples, p.NeckToChestSamples, p.ShoulderSamples,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert proportions: %w", err)
	}
	return nil
}

const proportionColumns = `frame, height_cm, mass_kg, shoulder_width_mm, neck_x, neck_y, neck_z,
		height_samples, neck_samples, shoulder_samples`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProportions(row rowScanner) (ProportionSample, error) {
	var ps ProportionSample
	var v [6]sql.NullFloat64
	err := row.Scan(&ps.Frame, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5],
		&ps.HeightSamples, &ps.NeckToChestSamples, &ps.ShoulderSamples)
	if err != nil {
		return ps, err
	}
	ps.HeightCM = floatOrNaN(v[0])
	ps.MassKG = floatOrNaN(v[1])
	ps.ShoulderWidthMM = floatOrNaN(v[2])
	ps.NeckToChest = r3.Vec{X: floatOrNaN(v[3]), Y: floatOrNaN(v[4]), Z: floatOrNaN(v[5])}
	return ps, nil
}

// LatestProportions returns the most recent snapshot of a session.
func (s *ProportionStore) LatestProportions(sessionID string) (body.Proportions, error) {
	row := s.db.QueryRow(`
		SELECT `+proportionColumns+`
		FROM proportions
		WHERE session_id = ?
		ORDER BY frame DESC, id DESC
		LIMIT 1
	`, sessionID)
	ps, err := scanProportions(row)
	if errors.Is(err, sql.ErrNoRows) {
		return body.Proportions{}, fmt.Errorf("proportions for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return body.Proportions{}, fmt.Errorf("get proportions: %w", err)
	}
	return ps.Proportions, nil
}

// History returns every snapshot of a session in frame order.
func (s *ProportionStore) History(sessionID string) ([]ProportionSample, error) {
	rows, err := s.db.Query(`
		SELECT `+proportionColumns+`
		FROM proportions
		WHERE session_id = ?
		ORDER BY frame, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query proportions: %w", err)
	}
	defer rows.Close()

	var out []ProportionSample
	for rows.Next() {
		ps, err := scanProportions(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proportions: %w", err)
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proportions: %w", err)
	}
	return out, nil
}
