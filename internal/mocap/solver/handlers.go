package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/geom"
	"github.com/banshee-data/markerpose/internal/mocap/markers"
	"github.com/banshee-data/markerpose/internal/mocap/regression"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// ErrHandlerCoverage is returned by New when the handler table misses a
// joint or handles one twice.
var ErrHandlerCoverage = errors.New("joint handler table does not cover the skeleton")

// handler computes one joint. place runs parents-first and reports whether
// a fallback was used; orient runs in a second parents-first pass, once
// every position is known.
type handler struct {
	place  func(s *Solver, j *skeleton.Joint) (degraded bool)
	orient func(s *Solver, j *skeleton.Joint)
}

type entry struct {
	id skeleton.JointID
	h  handler
}

func buildHandlers(entries []entry) ([skeleton.JointCount]handler, error) {
	var out [skeleton.JointCount]handler
	var seen [skeleton.JointCount]bool
	for _, e := range entries {
		if e.id < 0 || e.id >= skeleton.JointCount {
			return out, fmt.Errorf("%w: handler for unknown joint %d", ErrHandlerCoverage, int(e.id))
		}
		if seen[e.id] {
			return out, fmt.Errorf("%w: %v handled twice", ErrHandlerCoverage, e.id)
		}
		if e.h.place == nil || e.h.orient == nil {
			return out, fmt.Errorf("%w: %v has an incomplete handler", ErrHandlerCoverage, e.id)
		}
		seen[e.id] = true
		out[e.id] = e.h
	}
	for id, ok := range seen {
		if !ok {
			return out, fmt.Errorf("%w: %v has no handler", ErrHandlerCoverage, skeleton.JointID(id))
		}
	}
	return out, nil
}

// spineT are the Bézier parameters of SPINE0..SPINE3.
var spineT = [4]float64{0.125, 0.375, 0.675, 1}

// side bundles the joint and marker roles of one body side.
type side struct {
	skeleton.Side
	idx  int
	limb markers.Limb

	clavicle, shoulder, elbow, wrist skeleton.JointID
	trap, thumb, hand, index         skeleton.JointID
	hip, knee, ankle, footBase, toe  skeleton.JointID
}

var (
	leftSide = side{
		Side: skeleton.Left, idx: 0, limb: markers.LeftLimb,
		clavicle: skeleton.ClavicleL, shoulder: skeleton.ShoulderL, elbow: skeleton.ElbowL, wrist: skeleton.WristL,
		trap: skeleton.TrapL, thumb: skeleton.ThumbL, hand: skeleton.HandL, index: skeleton.IndexL,
		hip: skeleton.HipL, knee: skeleton.KneeL, ankle: skeleton.AnkleL, footBase: skeleton.FootBaseL, toe: skeleton.ToeL,
	}
	rightSide = side{
		Side: skeleton.Right, idx: 1, limb: markers.RightLimb,
		clavicle: skeleton.ClavicleR, shoulder: skeleton.ShoulderR, elbow: skeleton.ElbowR, wrist: skeleton.WristR,
		trap: skeleton.TrapR, thumb: skeleton.ThumbR, hand: skeleton.HandR, index: skeleton.IndexR,
		hip: skeleton.HipR, knee: skeleton.KneeR, ankle: skeleton.AnkleR, footBase: skeleton.FootBaseR, toe: skeleton.ToeR,
	}
)

func handlerTable() []entry {
	t := []entry{
		{skeleton.Pelvis, handler{placePelvis, orientWith((*Solver).hipOri)}},
		{skeleton.Neck, handler{placeNeck, aim(skeleton.Head, chestForward)}},
		{skeleton.Head, handler{placeHead, orientWith((*Solver).headOri)}},
		{skeleton.HeadTop, handler{placeHeadTop, inherit}},
	}
	for i, id := range []skeleton.JointID{skeleton.Spine0, skeleton.Spine1, skeleton.Spine2, skeleton.Spine3} {
		t = append(t, entry{id, handler{placeSpine(spineT[i]), orientSpine(spineT[i])}})
	}
	for _, sd := range []side{leftSide, rightSide} {
		t = append(t, sideTable(sd)...)
	}
	return t
}

func sideTable(sd side) []entry {
	return []entry{
		{sd.clavicle, handler{placeClavicle(sd), aim(sd.shoulder, chestForward)}},
		{sd.shoulder, handler{placeShoulder(sd), aim(sd.elbow, chestForward)}},
		{sd.elbow, handler{placePair(sd.limb.Elbow, sd.limb.ElbowInside), aim(sd.wrist, parentForward)}},
		{sd.wrist, handler{placePair(sd.limb.Wrist, sd.limb.WristRadius), aim(sd.hand, parentForward)}},
		{sd.trap, handler{placeTrap(sd), aim(sd.thumb, parentForward)}},
		{sd.thumb, handler{placeMarker(sd.limb.Thumb), inherit}},
		{sd.hand, handler{placeHand(sd), aim(sd.index, parentForward)}},
		{sd.index, handler{placeIndex(sd), inherit}},

		{sd.hip, handler{placeHip(sd), aim(sd.knee, hipForward)}},
		{sd.knee, handler{placeLateralMedial(sd, sd.limb.Knee, sd.limb.KneeInner, regression.KneeWidth), aim(sd.ankle, hipForward)}},
		{sd.ankle, handler{placeLateralMedial(sd, sd.limb.Ankle, sd.limb.AnkleInner, regression.AnkleWidth), aim(sd.footBase, parentForward)}},
		{sd.footBase, handler{placeFootBase(sd), aim(sd.toe, footDown(sd))}},
		{sd.toe, handler{placeMarker(sd.limb.Toe), inherit}},
	}
}

// Orientation handlers.

type hintFn func(s *Solver, j *skeleton.Joint) r3.Vec

func chestForward(s *Solver, _ *skeleton.Joint) r3.Vec {
	return geom.Rotate(s.chestOri(), geom.AxisZ)
}

func hipForward(s *Solver, _ *skeleton.Joint) r3.Vec {
	return geom.Rotate(s.hipOri(), geom.AxisZ)
}

func parentForward(_ *Solver, j *skeleton.Joint) r3.Vec {
	return geom.Rotate(j.Parent.Orientation, geom.AxisZ)
}

// footDown uses the shin direction as the hint, so the foot's local Z
// points at the floor like the reference pose.
func footDown(sd side) hintFn {
	return func(s *Solver, _ *skeleton.Joint) r3.Vec {
		return r3.Sub(s.skel.Joint(sd.ankle).Pos, s.skel.Joint(sd.knee).Pos)
	}
}

// aim points the joint's Y axis at target.
func aim(target skeleton.JointID, hint hintFn) func(*Solver, *skeleton.Joint) {
	return func(s *Solver, j *skeleton.Joint) {
		j.Orientation = geom.LookAt(r3.Sub(s.skel.Joint(target).Pos, j.Pos), hint(s, j))
	}
}

// orientWith copies one of the per-frame region orientations.
func orientWith(region func(*Solver) quat.Number) func(*Solver, *skeleton.Joint) {
	return func(s *Solver, j *skeleton.Joint) {
		j.Orientation = region(s)
	}
}

func inherit(_ *Solver, j *skeleton.Joint) {
	j.Orientation = j.Parent.Orientation
}

func orientSpine(t float64) func(*Solver, *skeleton.Joint) {
	return func(s *Solver, j *skeleton.Joint) {
		j.Orientation = geom.Slerp(s.hipOri(), s.chestOri(), t)
	}
}

// Position handlers.

func (s *Solver) pelvisReconstructed() bool {
	return s.pre.Reconstructed(markers.BodyBase) ||
		s.pre.Reconstructed(markers.LeftHip) ||
		s.pre.Reconstructed(markers.RightHip)
}

// hipCenter is the Harrington hip joint centre of one side.
func (s *Solver) hipCenter(sd side) r3.Vec {
	return s.v.hipCenter[sd.idx].get(func() r3.Vec {
		l, r, base := s.marker(markers.LeftHip), s.marker(markers.RightHip), s.marker(markers.BodyBase)
		asis := geom.Mid(l, r)
		width := r3.Norm(r3.Sub(l, r)) * 1000
		depth := r3.Norm(r3.Sub(asis, base)) * 1000
		off := regression.ToSolver(regression.HarringtonHip(width, depth, sd.Side))
		return r3.Add(asis, geom.Rotate(s.hipOri(), off))
	})
}

func placePelvis(s *Solver, j *skeleton.Joint) bool {
	j.Pos = geom.Mid(s.hipCenter(leftSide), s.hipCenter(rightSide))
	return s.pelvisReconstructed()
}

func placeHip(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		j.Pos = s.hipCenter(sd)
		return s.pelvisReconstructed()
	}
}

// neckPos sits half the neck-to-chest vector in front of C7, or behind the
// sternum when C7 is missing.
func (s *Solver) neckPos() r3.Vec {
	return s.v.neck.get(func() r3.Vec {
		half := geom.Rotate(s.chestOri(), r3.Scale(0.5, s.body.NeckToChest))
		if s.has(markers.Neck) {
			return r3.Add(s.marker(markers.Neck), half)
		}
		return r3.Sub(s.marker(markers.Chest), half)
	})
}

func (s *Solver) spineTop() r3.Vec {
	return s.v.spineTop.get(func() r3.Vec {
		return r3.Add(s.neckPos(), geom.Rotate(s.chestOri(), r3.Vec{Y: -0.12}))
	})
}

// spineCtrl is the Bézier control point: the back-spine marker pushed
// forward onto the spine, or the straight-line midpoint without it.
func (s *Solver) spineCtrl() r3.Vec {
	return s.v.spineCtrl.get(func() r3.Vec {
		if s.has(markers.Spine) {
			return r3.Add(s.marker(markers.Spine), geom.Rotate(s.chestOri(), r3.Vec{Z: 0.08}))
		}
		return geom.Mid(s.skel.Joint(skeleton.Pelvis).Pos, s.spineTop())
	})
}

func placeSpine(t float64) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		p0 := s.skel.Joint(skeleton.Pelvis).Pos
		c := s.spineCtrl()
		p2 := s.spineTop()
		u := 1 - t
		j.Pos = r3.Add(r3.Add(r3.Scale(u*u, p0), r3.Scale(2*u*t, c)), r3.Scale(t*t, p2))
		return !s.has(markers.Spine) || s.v.chestFallback
	}
}

func placeNeck(s *Solver, j *skeleton.Joint) bool {
	j.Pos = s.neckPos()
	return !s.has(markers.Neck) || s.v.chestFallback
}

func placeHead(s *Solver, j *skeleton.Joint) bool {
	front, l, r := s.marker(markers.Head), s.marker(markers.LeftHead), s.marker(markers.RightHead)
	switch {
	case s.has(markers.Head) && s.has(markers.LeftHead) && s.has(markers.RightHead):
		j.Pos = r3.Scale(1.0/3, r3.Add(r3.Add(front, l), r))
		return false
	case s.has(markers.LeftHead) && s.has(markers.RightHead):
		j.Pos = geom.Mid(l, r)
	case s.has(markers.Head):
		j.Pos = front
	default:
		j.Pos = s.fromTemplate(j)
	}
	return true
}

func placeHeadTop(s *Solver, j *skeleton.Joint) bool {
	if s.has(markers.HeadTop) {
		j.Pos = s.marker(markers.HeadTop)
		return false
	}
	j.Pos = r3.Add(j.Parent.Pos, geom.Rotate(s.headOri(), r3.Vec{Y: 0.13}))
	return true
}

func placeClavicle(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		off := geom.Rotate(s.chestOri(), r3.Vec{X: sd.Sign() * 0.02})
		j.Pos = r3.Add(geom.Mid(s.spineTop(), s.neckPos()), off)
		return s.v.chestFallback
	}
}

func placeShoulder(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		if !s.has(sd.limb.Shoulder) {
			j.Pos = s.fromTemplate(j)
			return true
		}
		p := s.body
		mm := regression.CampbellShoulder(p.ChestDepthMM(), p.HeightCM, p.MassKG, p.ShoulderWidthMM, sd.Side)
		j.Pos = r3.Add(s.marker(sd.limb.Shoulder), geom.Rotate(s.chestOri(), regression.ToMetres(mm)))
		return s.v.chestFallback
	}
}

// placePair uses the midpoint of two markers on either side of a joint,
// then either single marker, then the reference pose.
func placePair(a, b markers.Role) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		switch {
		case s.has(a) && s.has(b):
			j.Pos = geom.Mid(s.marker(a), s.marker(b))
			return false
		case s.has(a):
			j.Pos = s.marker(a)
		case s.has(b):
			j.Pos = s.marker(b)
		default:
			j.Pos = s.fromTemplate(j)
		}
		return true
	}
}

func placeMarker(r markers.Role) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		if s.has(r) {
			j.Pos = s.marker(r)
			return false
		}
		j.Pos = s.fromTemplate(j)
		return true
	}
}

func placeTrap(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		if !s.has(sd.limb.Thumb) {
			j.Pos = s.fromTemplate(j)
			return true
		}
		j.Pos = geom.Between(j.Parent.Pos, s.marker(sd.limb.Thumb), 0.4)
		return j.Parent.Status != skeleton.StatusComputed
	}
}

// knuckles is the midpoint of the second and fifth metacarpal markers, or
// whichever one is present.
func (s *Solver) knuckles(sd side) r3.Vec {
	return s.v.knuckles[sd.idx].get(func() r3.Vec {
		v, _ := firstValid(
			geom.Mid(s.marker(sd.limb.Hand), s.marker(sd.limb.Index)),
			s.marker(sd.limb.Index),
			s.marker(sd.limb.Hand),
		)
		return v
	})
}

func placeHand(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		k := s.knuckles(sd)
		if geom.IsNaNVec(k) {
			j.Pos = s.fromTemplate(j)
			return true
		}
		wrist := s.skel.Joint(sd.wrist)
		j.Pos = geom.Between(wrist.Pos, k, 0.5)
		return !(s.has(sd.limb.Hand) && s.has(sd.limb.Index)) || wrist.Status != skeleton.StatusComputed
	}
}

func placeIndex(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		k := s.knuckles(sd)
		if geom.IsNaNVec(k) {
			j.Pos = s.fromTemplate(j)
			return true
		}
		j.Pos = k
		return !(s.has(sd.limb.Hand) && s.has(sd.limb.Index))
	}
}

// placeLateralMedial puts the knee or ankle midway between its lateral and
// medial markers. With one marker the other is estimated from a
// height-scaled joint width, in a frame whose Y runs up the segment toward
// the parent joint and whose X follows the pelvis.
func placeLateralMedial(sd side, lateral, medial markers.Role, width func(heightCM float64) float64) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		lat, med := s.marker(lateral), s.marker(medial)
		if s.has(lateral) && s.has(medial) {
			j.Pos = geom.Mid(lat, med)
			return false
		}
		hipX := s.v.hipX.get(func() r3.Vec { return geom.Rotate(s.hipOri(), geom.AxisX) })
		off := regression.MedialOffset(width(s.body.HeightCM), sd.Side)
		switch {
		case s.has(lateral):
			frame := geom.LookAtRight(r3.Sub(j.Parent.Pos, lat), hipX)
			j.Pos = r3.Add(lat, geom.Rotate(frame, off))
		case s.has(medial):
			frame := geom.LookAtRight(r3.Sub(j.Parent.Pos, med), hipX)
			j.Pos = r3.Sub(med, geom.Rotate(frame, off))
		default:
			j.Pos = s.fromTemplate(j)
		}
		return true
	}
}

func placeFootBase(sd side) func(*Solver, *skeleton.Joint) bool {
	return func(s *Solver, j *skeleton.Joint) bool {
		if s.has(sd.limb.Heel) && s.has(sd.limb.Toe) {
			j.Pos = geom.Mid(s.marker(sd.limb.Heel), s.marker(sd.limb.Toe))
			return false
		}
		j.Pos = s.fromTemplate(j)
		return true
	}
}
