package solver

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/mocap/body"
	"github.com/banshee-data/markerpose/internal/mocap/geom"
	"github.com/banshee-data/markerpose/internal/mocap/markers"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// DefaultChestSmoothing is how far the shoulder-based chest orientation is
// pulled toward the previous frame's.
const DefaultChestSmoothing = 0.8

// Config holds the per-subject solver settings.
type Config struct {
	// Prefix is prepended to every marker alias, for multi-subject capture.
	Prefix string
	// MaxHipDisplacement caps per-frame movement of reconstructed pelvis
	// markers. Zero selects markers.DefaultMaxHipDisplacement.
	MaxHipDisplacement float64
	// ChestSmoothing is the slerp weight toward the previous chest
	// orientation, in [0,1].
	ChestSmoothing float64
	Body           body.Config
}

// DefaultConfig returns the stock settings with no prefix.
func DefaultConfig() Config {
	return Config{
		MaxHipDisplacement: markers.DefaultMaxHipDisplacement,
		ChestSmoothing:     DefaultChestSmoothing,
		Body:               body.DefaultConfig(),
	}
}

// Solver turns marker frames of one subject into a posed skeleton. It is
// not safe for concurrent use; run one Solver per goroutine.
type Solver struct {
	cfg      Config
	skel     *skeleton.Skeleton
	pre      *markers.Preprocessor
	est      *body.Estimator
	handlers [skeleton.JointCount]handler

	v         values
	f         *markers.Frame
	body      body.Proportions
	prevChest quat.Number
	frames    uint64
}

// New builds a solver. It fails when the joint handler table does not cover
// every joint exactly once or the settings are out of range.
func New(cfg Config) (*Solver, error) {
	if cfg.ChestSmoothing < 0 || cfg.ChestSmoothing > 1 {
		return nil, fmt.Errorf("chest smoothing %g outside [0,1]", cfg.ChestSmoothing)
	}
	if cfg.MaxHipDisplacement < 0 {
		return nil, fmt.Errorf("max hip displacement %g is negative", cfg.MaxHipDisplacement)
	}
	h, err := buildHandlers(handlerTable())
	if err != nil {
		return nil, err
	}
	skel := skeleton.New()
	if err := skel.Validate(); err != nil {
		return nil, fmt.Errorf("skeleton template: %w", err)
	}
	return &Solver{
		cfg:      cfg,
		skel:     skel,
		pre:      markers.NewPreprocessor(cfg.MaxHipDisplacement),
		est:      body.NewEstimator(cfg.Body),
		handlers: h,
	}, nil
}

// Bind resolves marker roles from a label set. Without an explicit Bind the
// first non-empty frame is used.
func (s *Solver) Bind(labels []string) {
	s.pre.Bind(markers.Resolve(labels, s.cfg.Prefix))
}

// UseBindings installs previously resolved bindings, for example from a
// stored session.
func (s *Solver) UseBindings(b *markers.Bindings) {
	s.pre.Bind(b)
}

// Bindings returns the active role bindings, or nil before binding.
func (s *Solver) Bindings() *markers.Bindings {
	return s.pre.Bindings()
}

// Prefix returns the subject's marker prefix.
func (s *Solver) Prefix() string {
	return s.cfg.Prefix
}

// Proportions returns the current body estimates.
func (s *Solver) Proportions() body.Proportions {
	return s.est.Snapshot()
}

// RestoreProportions seeds the body estimator.
func (s *Solver) RestoreProportions(p body.Proportions) {
	s.est.Restore(p)
}

// State is the frame-to-frame history of a subject beyond its bindings and
// proportions.
type State struct {
	Hips      markers.HipState
	PrevChest quat.Number
}

// State returns the current history for persistence.
func (s *Solver) State() State {
	return State{Hips: s.pre.HipState(), PrevChest: s.prevChest}
}

// RestoreState seeds the history of a resumed subject. A NaN chest
// orientation is treated as unset.
func (s *Solver) RestoreState(st State) {
	s.pre.SetHipState(st.Hips)
	s.prevChest = st.PrevChest
	if geom.IsNaNQuat(s.prevChest) {
		s.prevChest = quat.Number{}
	}
}

// Skeleton returns the skeleton updated by Solve.
func (s *Solver) Skeleton() *skeleton.Skeleton {
	return s.skel
}

// Frames returns how many frames have been solved.
func (s *Solver) Frames() uint64 {
	return s.frames
}

// Solve poses the skeleton for one frame of markers. Missing data never
// fails the frame: unavailable joints get NaN positions and StatusMissing.
// The returned skeleton is owned by the solver and rewritten on the next
// call; use Clone to keep it.
func (s *Solver) Solve(raw []markers.Marker) *skeleton.Skeleton {
	s.v = values{}
	if !s.pre.Bound() && len(raw) > 0 {
		s.Bind(markers.Labels(raw))
	}

	s.f = s.pre.Process(raw)
	s.hipOri()
	chest := s.chestOri()
	s.est.Update(s.f, chest)
	s.body = s.est.Snapshot()
	if !geom.IsNaNQuat(chest) {
		s.prevChest = chest
	}
	s.headOri()

	s.skel.Walk(func(j *skeleton.Joint) {
		degraded := s.handlers[j.ID].place(s, j)
		j.Status = jointStatus(j.Pos, degraded)
	})
	s.skel.Walk(func(j *skeleton.Joint) {
		s.handlers[j.ID].orient(s, j)
	})

	s.frames++
	if s.frames%1000 == 0 {
		mocap.Tracef("prefix %q: %d frames solved", s.cfg.Prefix, s.frames)
	}
	return s.skel
}

func jointStatus(pos r3.Vec, degraded bool) skeleton.Status {
	switch {
	case geom.IsNaNVec(pos):
		return skeleton.StatusMissing
	case degraded:
		return skeleton.StatusDegraded
	default:
		return skeleton.StatusComputed
	}
}

func (s *Solver) marker(r markers.Role) r3.Vec {
	return s.f.Get(r)
}

func (s *Solver) has(r markers.Role) bool {
	return s.f.Has(r)
}

// hipOri is the pelvis frame: X from right to left ASIS, Y normal to the
// pelvic plane. There is no fallback.
func (s *Solver) hipOri() quat.Number {
	return s.v.hipOri.get(func() quat.Number {
		l, r, base := s.marker(markers.LeftHip), s.marker(markers.RightHip), s.marker(markers.BodyBase)
		up := r3.Cross(r3.Sub(r, l), r3.Sub(geom.Mid(l, r), base))
		return geom.LookAtRight(up, r3.Sub(l, r))
	})
}

func firstValid(vs ...r3.Vec) (r3.Vec, int) {
	for i, v := range vs {
		if !geom.IsNaNVec(v) {
			return v, i
		}
	}
	return geom.NaNVec(), -1
}

// chestOri is the thorax frame built from the shoulders when available,
// otherwise from the back markers, otherwise derived from the pelvis.
func (s *Solver) chestOri() quat.Number {
	return s.v.chestOri.get(func() quat.Number {
		hip := s.hipOri()
		base := s.marker(markers.BodyBase)
		ls, rs := s.marker(markers.LeftShoulder), s.marker(markers.RightShoulder)
		neck, spine := s.marker(markers.Neck), s.marker(markers.Spine)

		y, which := firstValid(
			r3.Sub(geom.Mid(ls, rs), base),
			r3.Sub(geom.Mid(neck, spine), base),
			r3.Sub(neck, base),
			r3.Sub(spine, base),
		)
		prev := s.prevChest
		if geom.IsZeroQuat(prev) {
			prev = hip
		}
		if which < 0 {
			y = geom.Rotate(geom.Slerp(prev, hip, 0.5), geom.AxisY)
		}

		mid, _ := firstValid(geom.Mid(neck, spine), neck, spine)
		var x r3.Vec
		switch {
		case !geom.IsNaNVec(ls) && !geom.IsNaNVec(rs):
			x = r3.Sub(ls, rs)
		case !geom.IsNaNVec(ls) && !geom.IsNaNVec(mid):
			x = r3.Sub(ls, mid)
		case !geom.IsNaNVec(rs) && !geom.IsNaNVec(mid):
			x = r3.Sub(mid, rs)
		default:
			x = geom.Rotate(hip, geom.AxisX)
		}

		q := geom.LookAtRight(y, x)
		shoulders := which == 0
		if shoulders && !geom.IsZeroQuat(s.prevChest) && !geom.IsNaNQuat(s.prevChest) {
			q = geom.Slerp(q, s.prevChest, s.cfg.ChestSmoothing)
		}
		s.v.chestFallback = !shoulders
		return q
	})
}

// headOri comes from the front and side head markers. There is no
// fallback: without all three it is NaN.
func (s *Solver) headOri() quat.Number {
	return s.v.headOri.get(func() quat.Number {
		return geom.FromThreePoints(s.marker(markers.Head), s.marker(markers.LeftHead), s.marker(markers.RightHead))
	})
}

// regionOri is the rigid-body orientation a joint is assumed to follow when
// it is placed from the reference pose.
func (s *Solver) regionOri(id skeleton.JointID) quat.Number {
	switch {
	case id == skeleton.Pelvis, id == skeleton.Spine0, id == skeleton.Spine1:
		return s.hipOri()
	case id >= skeleton.HipL:
		return s.hipOri()
	case id == skeleton.Head, id == skeleton.HeadTop:
		return s.headOri()
	default:
		return s.chestOri()
	}
}

// fromTemplate places j at its reference offset from the parent, rotated
// by the joint's body region.
func (s *Solver) fromTemplate(j *skeleton.Joint) r3.Vec {
	off := r3.Sub(s.skel.ReferencePos(j.ID), s.skel.ReferencePos(j.Parent.ID))
	return r3.Add(j.Parent.Pos, geom.Rotate(s.regionOri(j.ID), off))
}
