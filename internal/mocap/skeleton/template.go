package skeleton

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/geom"
)

const none JointID = -1

// templateJoint is one row of the reference pose. aim is the joint the
// reference orientation looks toward; leaves use none and inherit.
type templateJoint struct {
	id     JointID
	parent JointID
	pos    r3.Vec
	aim    JointID
}

// Reference T-pose in metres. Subject faces +Z, left hand toward +X.
// Rows are ordered parents first; right-side rows are generated by mirror.
var centerAndLeft = []templateJoint{
	{Pelvis, none, r3.Vec{X: 0, Y: 1.00, Z: 0}, Spine0},
	{Spine0, Pelvis, r3.Vec{X: 0, Y: 1.05, Z: -0.01}, Spine1},
	{Spine1, Spine0, r3.Vec{X: 0, Y: 1.15, Z: -0.02}, Spine2},
	{Spine2, Spine1, r3.Vec{X: 0, Y: 1.27, Z: -0.02}, Spine3},
	{Spine3, Spine2, r3.Vec{X: 0, Y: 1.40, Z: -0.01}, Neck},
	{Neck, Spine3, r3.Vec{X: 0, Y: 1.52, Z: -0.02}, Head},
	{Head, Neck, r3.Vec{X: 0, Y: 1.62, Z: 0}, HeadTop},
	{HeadTop, Head, r3.Vec{X: 0, Y: 1.78, Z: 0}, none},

	{ClavicleL, Spine3, r3.Vec{X: 0.02, Y: 1.46, Z: 0.02}, ShoulderL},
	{ShoulderL, ClavicleL, r3.Vec{X: 0.18, Y: 1.44, Z: -0.02}, ElbowL},
	{ElbowL, ShoulderL, r3.Vec{X: 0.46, Y: 1.44, Z: -0.02}, WristL},
	{WristL, ElbowL, r3.Vec{X: 0.72, Y: 1.44, Z: -0.02}, HandL},
	{TrapL, WristL, r3.Vec{X: 0.75, Y: 1.44, Z: 0.02}, ThumbL},
	{ThumbL, TrapL, r3.Vec{X: 0.80, Y: 1.44, Z: 0.05}, none},
	{HandL, WristL, r3.Vec{X: 0.78, Y: 1.44, Z: -0.02}, IndexL},
	{IndexL, HandL, r3.Vec{X: 0.90, Y: 1.44, Z: -0.02}, none},

	{HipL, Pelvis, r3.Vec{X: 0.09, Y: 0.95, Z: 0}, KneeL},
	{KneeL, HipL, r3.Vec{X: 0.09, Y: 0.52, Z: 0.01}, AnkleL},
	{AnkleL, KneeL, r3.Vec{X: 0.09, Y: 0.09, Z: -0.02}, FootBaseL},
	{FootBaseL, AnkleL, r3.Vec{X: 0.09, Y: 0.02, Z: 0.06}, ToeL},
	{ToeL, FootBaseL, r3.Vec{X: 0.09, Y: 0.02, Z: 0.17}, none},
}

// leftToRight maps each left-side joint to its mirror.
var leftToRight = map[JointID]JointID{
	ClavicleL: ClavicleR, ShoulderL: ShoulderR, ElbowL: ElbowR, WristL: WristR,
	TrapL: TrapR, ThumbL: ThumbR, HandL: HandR, IndexL: IndexR,
	HipL: HipR, KneeL: KneeR, AnkleL: AnkleR, FootBaseL: FootBaseR, ToeL: ToeR,
}

func mirrorID(id JointID) JointID {
	if r, ok := leftToRight[id]; ok {
		return r
	}
	return id
}

// limits holds the static rotation data for one joint (left side for
// paired joints).
type limits struct {
	cone      *Cone
	twist     *Twist
	pointer   quat.Number
	stiffness float64
}

func cone(up, down, left, right float64) *Cone {
	return &Cone{Up: up, Down: down, Left: left, Right: right}
}

func twist(start, end float64) *Twist {
	return &Twist{Start: start, End: end}
}

// jointLimits is the literal constraint table in degrees. Joints absent
// from the table have no limits, identity pointer and stiffness 1.
var jointLimits = map[JointID]limits{
	Spine0: {cone: cone(15, 15, 15, 15), twist: twist(345, 15)},
	Spine1: {cone: cone(20, 20, 15, 15), twist: twist(340, 20)},
	Spine2: {cone: cone(20, 20, 15, 15), twist: twist(340, 20)},
	Spine3: {cone: cone(15, 15, 10, 10), twist: twist(345, 15)},
	Neck:   {cone: cone(60, 60, 45, 45), twist: twist(300, 60)},
	Head:   {cone: cone(45, 45, 40, 40), twist: twist(310, 50)},

	ClavicleL: {cone: cone(30, 10, 10, 25), twist: twist(350, 10), pointer: geom.AxisAngle(-90, geom.AxisZ), stiffness: 0.6},
	ShoulderL: {cone: cone(80, 45, 100, 70), twist: twist(270, 90)},
	ElbowL:    {cone: cone(150, 5, 10, 10), twist: twist(270, 90)},
	WristL:    {cone: cone(70, 70, 20, 35), twist: twist(330, 30), stiffness: 0.8},
	TrapL:     {cone: cone(40, 40, 30, 30)},
	HandL:     {cone: cone(20, 20, 15, 15)},

	HipL:      {cone: cone(110, 30, 30, 45), twist: twist(300, 60), pointer: geom.AxisAngle(180, geom.AxisZ)},
	KneeL:     {cone: cone(5, 140, 5, 5), twist: twist(340, 20)},
	AnkleL:    {cone: cone(30, 40, 20, 20), twist: twist(340, 20), stiffness: 0.7},
	FootBaseL: {cone: cone(20, 20, 10, 10), pointer: geom.AxisAngle(90, geom.AxisX), stiffness: 0.5},
}

// mirrorLimits produces the right-side limits: cone in/out swapped and the
// pointer reflected across the sagittal plane.
func mirrorLimits(l limits) limits {
	out := l
	if l.cone != nil {
		c := *l.cone
		c.Left, c.Right = c.Right, c.Left
		out.cone = &c
	}
	if l.twist != nil {
		tw := *l.twist
		out.twist = &tw
	}
	if !geom.IsZeroQuat(l.pointer) {
		// Reflection in X keeps the X component and negates Y and Z.
		p := l.pointer
		out.pointer = quat.Number{Real: p.Real, Imag: p.Imag, Jmag: -p.Jmag, Kmag: -p.Kmag}
	}
	return out
}

func mirrorRow(row templateJoint) templateJoint {
	return templateJoint{
		id:     mirrorID(row.id),
		parent: mirrorID(row.parent),
		pos:    r3.Vec{X: -row.pos.X, Y: row.pos.Y, Z: row.pos.Z},
		aim:    mirrorID(row.aim),
	}
}

// templateRows returns every joint row with parents before children.
func templateRows() []templateJoint {
	rows := make([]templateJoint, 0, JointCount)
	rows = append(rows, centerAndLeft...)
	for _, row := range centerAndLeft {
		if row.id.Side() == Left {
			rows = append(rows, mirrorRow(row))
		}
	}
	return rows
}

func limitsFor(id JointID) limits {
	if id.Side() == Right {
		for l, r := range leftToRight {
			if r == id {
				if lim, ok := jointLimits[l]; ok {
					return mirrorLimits(lim)
				}
				return limits{}
			}
		}
	}
	return jointLimits[id]
}

// referenceOrientation points local Y from the joint toward aim. Bones that
// run mostly along Z (the feet) take -Y as the forward hint instead.
func referenceOrientation(from, to r3.Vec) quat.Number {
	bone := r3.Sub(to, from)
	hint := geom.AxisZ
	if u := r3.Unit(bone); u.Z > 0.9 || u.Z < -0.9 {
		hint = r3.Vec{Y: -1}
	}
	return geom.LookAt(bone, hint)
}
