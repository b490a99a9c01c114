package body

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/mocap/geom"
	"github.com/banshee-data/markerpose/internal/mocap/markers"
)

// Config holds the calibration constants of the estimator.
type Config struct {
	MaxHeightCM            float64
	BMI                    float64
	DefaultHeightCM        float64
	DefaultMassKG          float64
	DefaultShoulderWidthMM float64
}

// DefaultConfig returns the stock calibration.
func DefaultConfig() Config {
	return Config{
		MaxHeightCM:            250,
		BMI:                    24,
		DefaultHeightCM:        175,
		DefaultMassKG:          75,
		DefaultShoulderWidthMM: 400,
	}
}

// DefaultNeckToChest is the neck-to-chest vector used before any sample,
// in the chest frame.
var DefaultNeckToChest = r3.Vec{X: 0, Y: -0.12, Z: 0.14}

// Proportions are the running estimates used as regression inputs.
type Proportions struct {
	HeightCM        float64
	MassKG          float64
	NeckToChest     r3.Vec
	ShoulderWidthMM float64

	HeightSamples      int
	NeckToChestSamples int
	ShoulderSamples    int
}

// ChestDepthMM is the length of the neck-to-chest vector in millimetres.
func (p Proportions) ChestDepthMM() float64 {
	return r3.Norm(p.NeckToChest) * 1000
}

// Estimator keeps three independent running means over the session. It is
// owned by one subject's solver.
type Estimator struct {
	cfg Config
	p   Proportions
}

// NewEstimator starts from the configured defaults. Zero fields of cfg take
// the DefaultConfig values.
func NewEstimator(cfg Config) *Estimator {
	def := DefaultConfig()
	if cfg.MaxHeightCM <= 0 {
		cfg.MaxHeightCM = def.MaxHeightCM
	}
	if cfg.BMI <= 0 {
		cfg.BMI = def.BMI
	}
	if cfg.DefaultHeightCM <= 0 {
		cfg.DefaultHeightCM = def.DefaultHeightCM
	}
	if cfg.DefaultMassKG <= 0 {
		cfg.DefaultMassKG = def.DefaultMassKG
	}
	if cfg.DefaultShoulderWidthMM <= 0 {
		cfg.DefaultShoulderWidthMM = def.DefaultShoulderWidthMM
	}
	return &Estimator{
		cfg: cfg,
		p: Proportions{
			HeightCM:        cfg.DefaultHeightCM,
			MassKG:          cfg.DefaultMassKG,
			NeckToChest:     DefaultNeckToChest,
			ShoulderWidthMM: cfg.DefaultShoulderWidthMM,
		},
	}
}

// Snapshot returns a copy of the current estimates.
func (e *Estimator) Snapshot() Proportions {
	return e.p
}

// Restore replaces the estimates, for example with a stored snapshot.
func (e *Estimator) Restore(p Proportions) {
	e.p = p
}

// Update folds one frame into the running means. chestOri is the most recent
// chest orientation; NaN or the zero quaternion skips the neck-to-chest
// sample.
func (e *Estimator) Update(f *markers.Frame, chestOri quat.Number) {
	e.sampleNeckToChest(f, chestOri)
	e.sampleShoulderWidth(f)
	e.sampleHeight(f)
}

func runningMean(mean float64, n int, sample float64) float64 {
	return (mean*float64(n) + sample) / float64(n+1)
}

func (e *Estimator) sampleNeckToChest(f *markers.Frame, chestOri quat.Number) {
	neck, chest := f.Get(markers.Neck), f.Get(markers.Chest)
	if geom.IsNaNVec(neck) || geom.IsNaNVec(chest) || geom.IsNaNQuat(chestOri) || geom.IsZeroQuat(chestOri) {
		return
	}
	local := geom.Rotate(geom.Inverse(chestOri), r3.Sub(chest, neck))
	n := e.p.NeckToChestSamples
	e.p.NeckToChest = r3.Vec{
		X: runningMean(e.p.NeckToChest.X, n, local.X),
		Y: runningMean(e.p.NeckToChest.Y, n, local.Y),
		Z: runningMean(e.p.NeckToChest.Z, n, local.Z),
	}
	e.p.NeckToChestSamples++
	milestone("neck-to-chest", e.p.NeckToChestSamples, e.p.ChestDepthMM())
}

func (e *Estimator) sampleShoulderWidth(f *markers.Frame) {
	l, r := f.Get(markers.LeftShoulder), f.Get(markers.RightShoulder)
	if geom.IsNaNVec(l) || geom.IsNaNVec(r) {
		return
	}
	w := r3.Norm(r3.Sub(l, r)) * 500
	e.p.ShoulderWidthMM = runningMean(e.p.ShoulderWidthMM, e.p.ShoulderSamples, w)
	e.p.ShoulderSamples++
	milestone("shoulder width", e.p.ShoulderSamples, e.p.ShoulderWidthMM)
}

func (e *Estimator) sampleHeight(f *markers.Frame) {
	h, ok := legHeight(f, markers.LeftLimb)
	if !ok {
		h, ok = legHeight(f, markers.RightLimb)
	}
	if !ok || math.IsNaN(h) || h >= e.cfg.MaxHeightCM {
		return
	}
	e.p.HeightCM = runningMean(e.p.HeightCM, e.p.HeightSamples, h)
	e.p.HeightSamples++
	m := e.p.HeightCM / 100
	e.p.MassKG = m * m * e.cfg.BMI
	milestone("height", e.p.HeightSamples, e.p.HeightCM)
}

// legHeight sums ankle-knee-hip along one side with the trunk and neck,
// in centimetres.
func legHeight(f *markers.Frame, side markers.Limb) (float64, bool) {
	pts := []r3.Vec{
		f.Get(side.Ankle), f.Get(side.Knee), f.Get(side.Hip),
		f.Get(markers.BodyBase), f.Get(markers.Neck), f.Get(markers.Head),
	}
	for _, p := range pts {
		if geom.IsNaNVec(p) {
			return 0, false
		}
	}
	ankle, knee, hip, base, neck, head := pts[0], pts[1], pts[2], pts[3], pts[4], pts[5]
	sum := r3.Norm(r3.Sub(ankle, knee)) +
		r3.Norm(r3.Sub(knee, hip)) +
		r3.Norm(r3.Sub(base, neck)) +
		r3.Norm(r3.Sub(neck, head))
	return sum * 100, true
}

func milestone(what string, n int, value float64) {
	switch n {
	case 1, 100, 1000, 10000:
		mocap.Diagf("%s estimate after %d samples: %.1f", what, n, value)
	}
}
