package markers

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/mocap/geom"
)

// DefaultMaxHipDisplacement caps how far a reconstructed pelvis marker may
// move between frames.
const DefaultMaxHipDisplacement = 0.02

var hipRoles = [3]Role{BodyBase, LeftHip, RightHip}

// HipState is the last set of pelvis markers that were all observed in the
// same frame. A fresh state is NaN, so reconstruction before the first full
// observation yields NaN.
type HipState struct {
	BodyBase r3.Vec
	LeftHip  r3.Vec
	RightHip r3.Vec
}

// NewHipState returns the cold-start state.
func NewHipState() HipState {
	nan := geom.NaNVec()
	return HipState{BodyBase: nan, LeftHip: nan, RightHip: nan}
}

func (h HipState) points() [3]r3.Vec {
	return [3]r3.Vec{h.BodyBase, h.LeftHip, h.RightHip}
}

// Known reports whether the state holds an observed pelvis.
func (h HipState) Known() bool {
	return !geom.IsNaNVec(h.BodyBase) && !geom.IsNaNVec(h.LeftHip) && !geom.IsNaNVec(h.RightHip)
}

// Preprocessor turns raw markers into a role-indexed Frame and repairs the
// pelvis group. One Preprocessor serves one subject; it is not safe for
// concurrent use.
type Preprocessor struct {
	bindings *Bindings
	maxStep  float64

	hips          HipState
	bufs          [2]Frame
	cur           int
	raw           map[string]r3.Vec
	reconstructed [3]bool
}

// NewPreprocessor creates a preprocessor. A non-positive maxStep selects
// DefaultMaxHipDisplacement.
func NewPreprocessor(maxStep float64) *Preprocessor {
	if maxStep <= 0 {
		maxStep = DefaultMaxHipDisplacement
	}
	p := &Preprocessor{
		maxStep: maxStep,
		hips:    NewHipState(),
		raw:     make(map[string]r3.Vec, 64),
	}
	p.bufs[0].clear()
	p.bufs[1].clear()
	return p
}

// Bind sets the role bindings used from the next frame on.
func (p *Preprocessor) Bind(b *Bindings) {
	p.bindings = b
}

// Bound reports whether Bind has been called.
func (p *Preprocessor) Bound() bool {
	return p.bindings != nil
}

// Bindings returns the active bindings, or nil before Bind.
func (p *Preprocessor) Bindings() *Bindings {
	return p.bindings
}

// HipState returns the last fully observed pelvis.
func (p *Preprocessor) HipState() HipState {
	return p.hips
}

// SetHipState seeds the last-known pelvis, for example from a stored session.
func (p *Preprocessor) SetHipState(h HipState) {
	p.hips = h
}

// Current returns the frame produced by the last Process call.
func (p *Preprocessor) Current() *Frame {
	return &p.bufs[p.cur]
}

// Previous returns the frame before Current.
func (p *Preprocessor) Previous() *Frame {
	return &p.bufs[1-p.cur]
}

// Reconstructed reports whether a pelvis role was filled by reconstruction
// in the current frame rather than observed.
func (p *Preprocessor) Reconstructed(r Role) bool {
	for i, hr := range hipRoles {
		if hr == r {
			return p.reconstructed[i]
		}
	}
	return false
}

// Process builds the frame for one set of raw markers. The returned frame
// is owned by the preprocessor and valid until the next call.
func (p *Preprocessor) Process(raw []Marker) *Frame {
	p.cur = 1 - p.cur
	cur := &p.bufs[p.cur]
	prev := &p.bufs[1-p.cur]
	cur.clear()

	clear(p.raw)
	for _, m := range raw {
		if m.Valid() {
			p.raw[m.Label] = m.Pos
		}
	}

	if p.bindings != nil {
		for r, b := range p.bindings.Roles {
			switch {
			case b.Midpoint:
				a, okA := p.raw[b.Pair[0]]
				c, okC := p.raw[b.Pair[1]]
				if okA && okC {
					cur[r] = geom.Mid(a, c)
				}
			case b.Name != "":
				if v, ok := p.raw[b.Name]; ok {
					cur[r] = v
				}
			}
		}
	}

	p.repairHips(cur, prev)
	return cur
}

// repairHips fills missing pelvis markers from the last fully observed
// pelvis, clamps the estimates against the previous frame and records a new
// last-known pelvis when all three were observed.
func (p *Preprocessor) repairHips(cur, prev *Frame) {
	var pts [3]r3.Vec
	var known [3]bool
	nKnown := 0
	for i, r := range hipRoles {
		pts[i] = cur[r]
		known[i] = !geom.IsNaNVec(pts[i])
		if known[i] {
			nKnown++
		}
		p.reconstructed[i] = false
	}

	if nKnown == 3 {
		p.hips = HipState{BodyBase: pts[0], LeftHip: pts[1], RightHip: pts[2]}
		return
	}

	last := p.hips.points()
	switch nKnown {
	case 2:
		m, a, b := splitTwoKnown(known)
		rot := geom.FromTo(r3.Sub(last[b], last[a]), r3.Sub(pts[b], pts[a]))
		fromA := r3.Add(pts[a], geom.Rotate(rot, r3.Sub(last[m], last[a])))
		fromB := r3.Add(pts[b], geom.Rotate(rot, r3.Sub(last[m], last[b])))
		pts[m] = geom.Mid(fromA, fromB)
	case 1:
		k := 0
		for i := range known {
			if known[i] {
				k = i
			}
		}
		for i := range pts {
			if !known[i] {
				pts[i] = r3.Add(pts[k], r3.Sub(last[i], last[k]))
			}
		}
	case 0:
		for i, r := range hipRoles {
			pts[i] = prev[r]
		}
	}

	for i, r := range hipRoles {
		if known[i] {
			continue
		}
		cur[r] = clampStep(prev[r], pts[i], p.maxStep)
		p.reconstructed[i] = true
	}
	mocap.Tracef("pelvis reconstructed from %d observed marker(s)", nKnown)
}

// splitTwoKnown returns the index of the missing point followed by the two
// known ones in index order.
func splitTwoKnown(known [3]bool) (missing, a, b int) {
	switch {
	case !known[0]:
		return 0, 1, 2
	case !known[1]:
		return 1, 0, 2
	default:
		return 2, 0, 1
	}
}

// clampStep limits the distance from prev to next to limit, keeping the
// direction. NaN on either side leaves next unchanged.
func clampStep(prev, next r3.Vec, limit float64) r3.Vec {
	if geom.IsNaNVec(prev) || geom.IsNaNVec(next) {
		return next
	}
	d := r3.Sub(next, prev)
	n := r3.Norm(d)
	if n <= limit {
		return next
	}
	return r3.Add(prev, r3.Scale(limit/n, d))
}
