// Package report turns a solve session into diagnostic plots: joint height
// traces as PNG and body proportion convergence as an HTML chart.
package report

import (
	"math"
	"sync"

	"github.com/banshee-data/markerpose/internal/mocap/body"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// DefaultJoints are traced when NewRecorder is given none.
var DefaultJoints = []skeleton.JointID{
	skeleton.Pelvis, skeleton.Head,
	skeleton.HandL, skeleton.HandR,
	skeleton.FootBaseL, skeleton.FootBaseR,
}

// Recorder accumulates per-frame samples of one subject.
type Recorder struct {
	mu     sync.Mutex
	joints []skeleton.JointID

	frames   []int
	heights  [][]float64 // per traced joint, NaN when missing
	degraded []int
	missing  []int
	props    []body.Proportions
}

// NewRecorder traces the heights of the given joints.
func NewRecorder(joints ...skeleton.JointID) *Recorder {
	if len(joints) == 0 {
		joints = DefaultJoints
	}
	return &Recorder{
		joints:  append([]skeleton.JointID(nil), joints...),
		heights: make([][]float64, len(joints)),
	}
}

// Sample records one solved frame.
func (r *Recorder) Sample(frame int, skel *skeleton.Skeleton, p body.Proportions) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = append(r.frames, frame)
	for i, id := range r.joints {
		y := math.NaN()
		if j := skel.Joint(id); j.Status != skeleton.StatusMissing {
			y = j.Pos.Y
		}
		r.heights[i] = append(r.heights[i], y)
	}

	var deg, miss int
	skel.Walk(func(j *skeleton.Joint) {
		switch j.Status {
		case skeleton.StatusDegraded:
			deg++
		case skeleton.StatusMissing:
			miss++
		}
	})
	r.degraded = append(r.degraded, deg)
	r.missing = append(r.missing, miss)
	r.props = append(r.props, p)
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
