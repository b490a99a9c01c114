package markers

import (
	"errors"
	"fmt"
)

// Role is a canonical marker position on the body, independent of what the
// capture system calls it.
type Role int

const (
	BodyBase Role = iota // sacrum
	LeftHip              // left ASIS
	RightHip             // right ASIS

	Neck  // C7
	Chest // sternum
	Spine // T10, back of the spine

	Head // front of the head
	LeftHead
	RightHead
	HeadTop

	LeftShoulder
	LeftUpperArm
	LeftElbow
	LeftElbowInside
	LeftWrist // ulnar styloid
	LeftWristRadius
	LeftHand
	LeftIndex
	LeftThumb

	RightShoulder
	RightUpperArm
	RightElbow
	RightElbowInside
	RightWrist
	RightWristRadius
	RightHand
	RightIndex
	RightThumb

	LeftUpperKnee
	LeftKnee
	LeftKneeInner
	LeftShin
	LeftAnkle
	LeftAnkleInner
	LeftHeel
	LeftToe
	LeftToe5

	RightUpperKnee
	RightKnee
	RightKneeInner
	RightShin
	RightAnkle
	RightAnkleInner
	RightHeel
	RightToe
	RightToe5

	// RoleCount is the size of the closed role set.
	RoleCount
)

var roleNames = [RoleCount]string{
	BodyBase:         "BodyBase",
	LeftHip:          "LeftHip",
	RightHip:         "RightHip",
	Neck:             "Neck",
	Chest:            "Chest",
	Spine:            "Spine",
	Head:             "Head",
	LeftHead:         "LeftHead",
	RightHead:        "RightHead",
	HeadTop:          "HeadTop",
	LeftShoulder:     "LeftShoulder",
	LeftUpperArm:     "LeftUpperArm",
	LeftElbow:        "LeftElbow",
	LeftElbowInside:  "LeftElbowInside",
	LeftWrist:        "LeftWrist",
	LeftWristRadius:  "LeftWristRadius",
	LeftHand:         "LeftHand",
	LeftIndex:        "LeftIndex",
	LeftThumb:        "LeftThumb",
	RightShoulder:    "RightShoulder",
	RightUpperArm:    "RightUpperArm",
	RightElbow:       "RightElbow",
	RightElbowInside: "RightElbowInside",
	RightWrist:       "RightWrist",
	RightWristRadius: "RightWristRadius",
	RightHand:        "RightHand",
	RightIndex:       "RightIndex",
	RightThumb:       "RightThumb",
	LeftUpperKnee:    "LeftUpperKnee",
	LeftKnee:         "LeftKnee",
	LeftKneeInner:    "LeftKneeInner",
	LeftShin:         "LeftShin",
	LeftAnkle:        "LeftAnkle",
	LeftAnkleInner:   "LeftAnkleInner",
	LeftHeel:         "LeftHeel",
	LeftToe:          "LeftToe",
	LeftToe5:         "LeftToe5",
	RightUpperKnee:   "RightUpperKnee",
	RightKnee:        "RightKnee",
	RightKneeInner:   "RightKneeInner",
	RightShin:        "RightShin",
	RightAnkle:       "RightAnkle",
	RightAnkleInner:  "RightAnkleInner",
	RightHeel:        "RightHeel",
	RightToe:         "RightToe",
	RightToe5:        "RightToe5",
}

func (r Role) String() string {
	if r < 0 || r >= RoleCount {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// Limb groups the per-side roles so the solver can address both sides with
// one code path.
type Limb struct {
	Shoulder, UpperArm, Elbow, ElbowInside Role
	Wrist, WristRadius, Hand, Index, Thumb Role

	Hip, UpperKnee, Knee, KneeInner, Shin Role
	Ankle, AnkleInner, Heel, Toe, Toe5      Role
}

// LeftLimb and RightLimb are the per-side role sets.
var (
	LeftLimb = Limb{
		Shoulder: LeftShoulder, UpperArm: LeftUpperArm, Elbow: LeftElbow, ElbowInside: LeftElbowInside,
		Wrist: LeftWrist, WristRadius: LeftWristRadius, Hand: LeftHand, Index: LeftIndex, Thumb: LeftThumb,
		Hip: LeftHip, UpperKnee: LeftUpperKnee, Knee: LeftKnee, KneeInner: LeftKneeInner, Shin: LeftShin,
		Ankle: LeftAnkle, AnkleInner: LeftAnkleInner, Heel: LeftHeel, Toe: LeftToe, Toe5: LeftToe5,
	}
	RightLimb = Limb{
		Shoulder: RightShoulder, UpperArm: RightUpperArm, Elbow: RightElbow, ElbowInside: RightElbowInside,
		Wrist: RightWrist, WristRadius: RightWristRadius, Hand: RightHand, Index: RightIndex, Thumb: RightThumb,
		Hip: RightHip, UpperKnee: RightUpperKnee, Knee: RightKnee, KneeInner: RightKneeInner, Shin: RightShin,
		Ankle: RightAnkle, AnkleInner: RightAnkleInner, Heel: RightHeel, Toe: RightToe, Toe5: RightToe5,
	}
)

// ErrUnknownRole is returned by ParseRole for names outside the role set.
var ErrUnknownRole = errors.New("unknown marker role")

// ParseRole maps a role name such as "LeftKnee" back to its Role.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return Role(r), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}
