package skeleton

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/geom"
)

// Cone is a rotation limit given as four half-angles in degrees. For
// mirrored joints Left and Right are swapped.
type Cone struct {
	Up    float64
	Down  float64
	Left  float64
	Right float64
}

// Twist is an allowed twist range in degrees. Both ends lie in (0,360] and
// differ; the range may wrap through 360.
type Twist struct {
	Start float64
	End   float64
}

// Valid reports whether the range satisfies the twist invariant.
func (t Twist) Valid() bool {
	return t.Start != t.End &&
		t.Start > 0 && t.Start <= 360 &&
		t.End > 0 && t.End <= 360
}

// Status says how trustworthy a joint's pose is for the current frame.
type Status uint8

const (
	// StatusUnknown is the state before the first solve.
	StatusUnknown Status = iota
	// StatusComputed means every input the joint needs was observed.
	StatusComputed
	// StatusDegraded means a fallback branch produced the pose.
	StatusDegraded
	// StatusMissing means the position is NaN.
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusComputed:
		return "computed"
	case StatusDegraded:
		return "degraded"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Joint is one node of the skeleton. Pos, Orientation and Status are
// rewritten every frame; the remaining fields are fixed at construction.
type Joint struct {
	ID          JointID
	Pos         r3.Vec
	Orientation quat.Number
	Status      Status

	Cone          *Cone
	Twist         *Twist
	ParentPointer quat.Number
	Stiffness     float64

	Parent   *Joint
	Children []*Joint
}

// Skeleton owns the joint tree.
type Skeleton struct {
	Root   *Joint
	joints [JointCount]*Joint
	order  []JointID

	refPos [JointCount]r3.Vec
	refOri [JointCount]quat.Number
}

// New builds the skeleton in its reference pose.
func New() *Skeleton {
	s := &Skeleton{order: make([]JointID, 0, JointCount)}
	rows := templateRows()
	byID := make(map[JointID]templateJoint, len(rows))
	for _, row := range rows {
		byID[row.id] = row
	}

	for _, row := range rows {
		lim := limitsFor(row.id)
		j := &Joint{
			ID:            row.id,
			Cone:          lim.cone,
			Twist:         lim.twist,
			ParentPointer: lim.pointer,
			Stiffness:     lim.stiffness,
		}
		if geom.IsZeroQuat(j.ParentPointer) {
			j.ParentPointer = geom.Identity
		}
		if j.Stiffness == 0 {
			j.Stiffness = 1
		}
		if row.parent != none {
			p := s.joints[row.parent]
			j.Parent = p
			p.Children = append(p.Children, j)
		} else {
			s.Root = j
		}
		s.joints[row.id] = j
		s.refPos[row.id] = row.pos
	}

	for _, row := range rows {
		if row.aim != none {
			s.refOri[row.id] = referenceOrientation(row.pos, byID[row.aim].pos)
		} else {
			s.refOri[row.id] = s.refOri[row.parent]
		}
	}

	s.collectOrder(s.Root)
	s.Reset()
	return s
}

func (s *Skeleton) collectOrder(j *Joint) {
	s.order = append(s.order, j.ID)
	for _, c := range j.Children {
		s.collectOrder(c)
	}
}

// Joint returns the node for id.
func (s *Skeleton) Joint(id JointID) *Joint {
	return s.joints[id]
}

// Order returns joint IDs parents-first (depth-first, pre-order).
func (s *Skeleton) Order() []JointID {
	return s.order
}

// Walk calls fn for every joint, parents before children.
func (s *Skeleton) Walk(fn func(*Joint)) {
	for _, id := range s.order {
		fn(s.joints[id])
	}
}

// Reset puts every joint back into the reference pose.
func (s *Skeleton) Reset() {
	for id, j := range s.joints {
		j.Pos = s.refPos[id]
		j.Orientation = s.refOri[id]
		j.Status = StatusUnknown
	}
}

// ReferencePos returns the rest position of a joint.
func (s *Skeleton) ReferencePos(id JointID) r3.Vec {
	return s.refPos[id]
}

// ReferenceOrientation returns the rest orientation of a joint.
func (s *Skeleton) ReferenceOrientation(id JointID) quat.Number {
	return s.refOri[id]
}

// Clone returns a deep copy carrying the current per-frame pose.
func (s *Skeleton) Clone() *Skeleton {
	c := New()
	for id, j := range s.joints {
		cj := c.joints[id]
		cj.Pos = j.Pos
		cj.Orientation = j.Orientation
		cj.Status = j.Status
	}
	return c
}

// Validate checks the static invariants of the tree.
func (s *Skeleton) Validate() error {
	if len(s.order) != int(JointCount) {
		return fmt.Errorf("skeleton has %d reachable joints, want %d", len(s.order), JointCount)
	}
	for id, j := range s.joints {
		if j == nil {
			return fmt.Errorf("joint %v missing", JointID(id))
		}
		if j.ID != JointID(id) {
			return fmt.Errorf("joint slot %v holds %v", JointID(id), j.ID)
		}
		if j.Twist != nil && !j.Twist.Valid() {
			return fmt.Errorf("joint %v has invalid twist range [%g,%g]", j.ID, j.Twist.Start, j.Twist.End)
		}
		if j.Stiffness <= 0 {
			return fmt.Errorf("joint %v has non-positive stiffness %g", j.ID, j.Stiffness)
		}
	}
	return nil
}
