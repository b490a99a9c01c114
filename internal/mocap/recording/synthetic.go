package recording

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/geom"
	"github.com/banshee-data/markerpose/internal/mocap/markers"
)

// Convention selects the marker naming used for generated labels.
type Convention int

const (
	// Qualisys uses the Q_ sports marker names.
	Qualisys Convention = iota
	// PlugInGait uses the second spelling of every role, which is the
	// Plug-in-Gait name wherever the protocol has one.
	PlugInGait
)

// Label returns the unprefixed marker name for a role.
func (c Convention) Label(r markers.Role) string {
	a := markers.Aliases(r)
	if int(c) < len(a) {
		return a[c]
	}
	return a[0]
}

// Dropout occludes one role for frames [From, To).
type Dropout struct {
	Role     markers.Role
	From, To int
}

// SyntheticConfig describes a generated walking subject.
type SyntheticConfig struct {
	Frames     int
	RateHz     float64
	Speed      float64 // forward speed in m/s
	StrideHz   float64 // gait cycles per second
	Prefix     string
	Convention Convention
	Dropouts   []Dropout
	// Noise is the standard deviation of Gaussian jitter in metres. The
	// generator is deterministic for a given Seed.
	Noise float64
	Seed  uint64
}

// DefaultSynthetic is a 100 Hz subject walking at 1.2 m/s.
func DefaultSynthetic(frames int) SyntheticConfig {
	return SyntheticConfig{
		Frames:   frames,
		RateHz:   100,
		Speed:    1.2,
		StrideHz: 0.9,
	}
}

// standing pose, arms down, facing +Z. Left side roles only; the right side
// is mirrored in X.
var (
	centerPose = map[markers.Role]r3.Vec{
		markers.BodyBase: {X: 0, Y: 1.04, Z: -0.10},
		markers.Neck:     {X: 0, Y: 1.50, Z: -0.08},
		markers.Chest:    {X: 0, Y: 1.38, Z: 0.10},
		markers.Spine:    {X: 0, Y: 1.25, Z: -0.12},
		markers.Head:     {X: 0, Y: 1.66, Z: 0.10},
		markers.HeadTop:  {X: 0, Y: 1.78, Z: 0},
	}
	leftPose = map[markers.Role]r3.Vec{
		markers.LeftHead:        {X: 0.08, Y: 1.64, Z: -0.02},
		markers.LeftHip:         {X: 0.12, Y: 1.02, Z: 0.06},
		markers.LeftShoulder:    {X: 0.18, Y: 1.47, Z: -0.03},
		markers.LeftUpperArm:    {X: 0.21, Y: 1.32, Z: -0.05},
		markers.LeftElbow:       {X: 0.23, Y: 1.18, Z: -0.06},
		markers.LeftElbowInside: {X: 0.17, Y: 1.18, Z: -0.04},
		markers.LeftWrist:       {X: 0.25, Y: 0.93, Z: -0.04},
		markers.LeftWristRadius: {X: 0.22, Y: 0.93, Z: 0.01},
		markers.LeftHand:        {X: 0.25, Y: 0.85, Z: -0.03},
		markers.LeftIndex:       {X: 0.22, Y: 0.85, Z: 0.02},
		markers.LeftThumb:       {X: 0.20, Y: 0.88, Z: 0.05},
		markers.LeftUpperKnee:   {X: 0.12, Y: 0.70, Z: 0.07},
		markers.LeftKnee:        {X: 0.14, Y: 0.52, Z: 0.01},
		markers.LeftKneeInner:   {X: 0.04, Y: 0.52, Z: 0.01},
		markers.LeftShin:        {X: 0.11, Y: 0.30, Z: 0.05},
		markers.LeftAnkle:       {X: 0.125, Y: 0.09, Z: -0.02},
		markers.LeftAnkleInner:  {X: 0.055, Y: 0.09, Z: -0.02},
		markers.LeftHeel:        {X: 0.09, Y: 0.04, Z: -0.06},
		markers.LeftToe:         {X: 0.09, Y: 0.02, Z: 0.17},
		markers.LeftToe5:        {X: 0.13, Y: 0.02, Z: 0.13},
	}
	hipPivot      = r3.Vec{X: 0.09, Y: 0.93, Z: 0}
	shoulderPivot = r3.Vec{X: 0.18, Y: 1.44, Z: -0.03}
)

const (
	legSwingDeg = 25.0
	armSwingDeg = 15.0
	bobAmp      = 0.01
)

func leftToRight(l markers.Limb) map[markers.Role]markers.Role {
	r := markers.RightLimb
	return map[markers.Role]markers.Role{
		markers.LeftHead: markers.RightHead,
		l.Hip:            r.Hip, l.Shoulder: r.Shoulder, l.UpperArm: r.UpperArm,
		l.Elbow: r.Elbow, l.ElbowInside: r.ElbowInside, l.Wrist: r.Wrist,
		l.WristRadius: r.WristRadius, l.Hand: r.Hand, l.Index: r.Index,
		l.Thumb: r.Thumb, l.UpperKnee: r.UpperKnee, l.Knee: r.Knee,
		l.KneeInner: r.KneeInner, l.Shin: r.Shin, l.Ankle: r.Ankle,
		l.AnkleInner: r.AnkleInner, l.Heel: r.Heel, l.Toe: r.Toe, l.Toe5: r.Toe5,
	}
}

func armRoles(l markers.Limb) []markers.Role {
	return []markers.Role{l.UpperArm, l.Elbow, l.ElbowInside, l.Wrist, l.WristRadius, l.Hand, l.Index, l.Thumb}
}

func legRoles(l markers.Limb) []markers.Role {
	return []markers.Role{l.UpperKnee, l.Knee, l.KneeInner, l.Shin, l.Ankle, l.AnkleInner, l.Heel, l.Toe, l.Toe5}
}

func mirror(v r3.Vec) r3.Vec {
	return r3.Vec{X: -v.X, Y: v.Y, Z: v.Z}
}

// restPose returns the standing pose for every role.
func restPose() [markers.RoleCount]r3.Vec {
	var pose [markers.RoleCount]r3.Vec
	for r, p := range centerPose {
		pose[r] = p
	}
	toRight := leftToRight(markers.LeftLimb)
	for r, p := range leftPose {
		pose[r] = p
		pose[toRight[r]] = mirror(p)
	}
	return pose
}

// swing rotates roles about a pivot in the sagittal plane.
func swing(pose *[markers.RoleCount]r3.Vec, roles []markers.Role, pivot r3.Vec, deg float64) {
	q := geom.AxisAngle(deg, geom.AxisX)
	for _, r := range roles {
		pose[r] = r3.Add(pivot, geom.Rotate(q, r3.Sub(pose[r], pivot)))
	}
}

// Synthetic generates a subject walking along +Z with legs and arms
// swinging in counter-phase. Every role is labelled, so the whole alias
// table resolves.
func Synthetic(cfg SyntheticConfig) ([]Frame, error) {
	if cfg.Frames <= 0 {
		return nil, ErrNoFrames
	}
	if cfg.RateHz <= 0 {
		return nil, errors.New("synthetic rate must be positive")
	}

	rest := restPose()
	labels := make([]string, markers.RoleCount)
	for r := range markers.RoleCount {
		labels[r] = cfg.Prefix + cfg.Convention.Label(r)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	frames := make([]Frame, cfg.Frames)
	for i := range frames {
		t := float64(i) / cfg.RateHz
		phase := 2 * math.Pi * cfg.StrideHz * t
		a := math.Sin(phase)

		pose := rest
		// A negative angle about +X swings the foot forward.
		swing(&pose, legRoles(markers.LeftLimb), hipPivot, -legSwingDeg*a)
		swing(&pose, legRoles(markers.RightLimb), mirror(hipPivot), legSwingDeg*a)
		swing(&pose, armRoles(markers.LeftLimb), shoulderPivot, armSwingDeg*a)
		swing(&pose, armRoles(markers.RightLimb), mirror(shoulderPivot), -armSwingDeg*a)

		offset := r3.Vec{Y: bobAmp * math.Cos(2*phase), Z: cfg.Speed * t}
		ms := make([]markers.Marker, markers.RoleCount)
		for r := range markers.RoleCount {
			p := r3.Add(pose[r], offset)
			if cfg.Noise > 0 {
				p = r3.Add(p, r3.Scale(cfg.Noise, r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}))
			}
			ms[r] = markers.Marker{Label: labels[r], Pos: p, Residual: 0.5}
		}
		for _, d := range cfg.Dropouts {
			if i >= d.From && i < d.To && d.Role >= 0 && d.Role < markers.RoleCount {
				ms[d.Role].Pos = geom.NaNVec()
				ms[d.Role].Residual = -1
				ms[d.Role].Occluded = true
			}
		}
		frames[i] = Frame{Index: i, Markers: ms}
	}
	return frames, nil
}
