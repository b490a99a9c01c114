package main

import (
	"math"
	"net/http"
	"sync"

	"github.com/banshee-data/markerpose/internal/httputil"
	"github.com/banshee-data/markerpose/internal/version"
)

type subjectStatus struct {
	Prefix          string   `json:"prefix"`
	SessionID       string   `json:"session_id,omitempty"`
	HeightCM        *float64 `json:"height_cm"`
	MassKG          *float64 `json:"mass_kg"`
	ShoulderWidthMM *float64 `json:"shoulder_width_mm"`
	MissingJoints   int      `json:"missing_joint_frames"`
}

type statusResponse struct {
	Version  string          `json:"version"`
	Frames   int             `json:"frames"`
	Subjects []subjectStatus `json:"subjects"`
}

// status is a snapshot of the run taken on the solving goroutine, so the
// HTTP handler never touches a solver.
type status struct {
	subjects []*subject

	mu   sync.RWMutex
	snap statusResponse
}

func newStatus(subjects []*subject) *status {
	st := &status{subjects: subjects}
	st.update(0)
	return st
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// update refreshes the snapshot. Call it from the goroutine that solves.
func (st *status) update(frames int) {
	snap := statusResponse{
		Version:  version.String(),
		Frames:   frames,
		Subjects: make([]subjectStatus, len(st.subjects)),
	}
	for i, sub := range st.subjects {
		p := sub.solver.Proportions()
		snap.Subjects[i] = subjectStatus{
			Prefix:          sub.solver.Prefix(),
			SessionID:       sub.sessionID,
			HeightCM:        finiteOrNil(p.HeightCM),
			MassKG:          finiteOrNil(p.MassKG),
			ShoulderWidthMM: finiteOrNil(p.ShoulderWidthMM),
			MissingJoints:   sub.missing,
		}
	}
	st.mu.Lock()
	st.snap = snap
	st.mu.Unlock()
}

func (st *status) handle(w http.ResponseWriter, r *http.Request) {
	httputil.GetOnly(func(w http.ResponseWriter, r *http.Request) {
		st.mu.RLock()
		snap := st.snap
		st.mu.RUnlock()
		httputil.WriteJSON(w, http.StatusOK, snap)
	})(w, r)
}
