package skeleton

import (
	"errors"
	"fmt"
)

// ErrUnknownJoint is returned by ParseJoint for names outside the fixed set.
var ErrUnknownJoint = errors.New("unknown joint")

// JointID identifies a joint of the fixed biped topology.
type JointID int

const (
	Pelvis JointID = iota
	Spine0
	Spine1
	Spine2
	Spine3
	Neck
	Head
	HeadTop

	ClavicleL
	ShoulderL
	ElbowL
	WristL
	TrapL
	ThumbL
	HandL
	IndexL

	ClavicleR
	ShoulderR
	ElbowR
	WristR
	TrapR
	ThumbR
	HandR
	IndexR

	HipL
	KneeL
	AnkleL
	FootBaseL
	ToeL

	HipR
	KneeR
	AnkleR
	FootBaseR
	ToeR

	// JointCount is the number of joints in every skeleton.
	JointCount
)

var jointNames = [JointCount]string{
	Pelvis:    "PELVIS",
	Spine0:    "SPINE0",
	Spine1:    "SPINE1",
	Spine2:    "SPINE2",
	Spine3:    "SPINE3",
	Neck:      "NECK",
	Head:      "HEAD",
	HeadTop:   "HEAD_TOP",
	ClavicleL: "CLAVICLE_L",
	ShoulderL: "SHOULDER_L",
	ElbowL:    "ELBOW_L",
	WristL:    "WRIST_L",
	TrapL:     "TRAP_L",
	ThumbL:    "THUMB_L",
	HandL:     "HAND_L",
	IndexL:    "INDEX_L",
	ClavicleR: "CLAVICLE_R",
	ShoulderR: "SHOULDER_R",
	ElbowR:    "ELBOW_R",
	WristR:    "WRIST_R",
	TrapR:     "TRAP_R",
	ThumbR:    "THUMB_R",
	HandR:     "HAND_R",
	IndexR:    "INDEX_R",
	HipL:      "HIP_L",
	KneeL:     "KNEE_L",
	AnkleL:    "ANKLE_L",
	FootBaseL: "FOOTBASE_L",
	ToeL:      "TOE_L",
	HipR:      "HIP_R",
	KneeR:     "KNEE_R",
	AnkleR:    "ANKLE_R",
	FootBaseR: "FOOTBASE_R",
	ToeR:      "TOE_R",
}

func (id JointID) String() string {
	if id < 0 || id >= JointCount {
		return fmt.Sprintf("JointID(%d)", int(id))
	}
	return jointNames[id]
}

// ParseJoint maps a joint name such as "HIP_L" back to its ID.
func ParseJoint(name string) (JointID, error) {
	for id, n := range jointNames {
		if n == name {
			return JointID(id), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
}

// Side is the body side a joint or marker belongs to.
type Side int

const (
	Center Side = iota
	Left
	Right
)

// Sign is +1 on the left (the solver's +X), -1 on the right, 0 at centre.
func (s Side) Sign() float64 {
	switch s {
	case Left:
		return 1
	case Right:
		return -1
	default:
		return 0
	}
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "center"
	}
}

// Side reports which side of the body the joint is on.
func (id JointID) Side() Side {
	switch {
	case id >= ClavicleL && id <= IndexL, id >= HipL && id <= ToeL:
		return Left
	case id >= ClavicleR && id <= IndexR, id >= HipR && id <= ToeR:
		return Right
	default:
		return Center
	}
}
