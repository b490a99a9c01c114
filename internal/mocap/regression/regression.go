// Package regression holds the published joint-centre prediction equations.
//
// Offsets are returned in millimetres. The hip offset is in the anatomical
// frame the equation was fitted in: X lateral (positive toward the right of
// the subject for a right-side joint), Y superior, Z anterior, and ToSolver
// converts it into the solver's local frame, whose X points to the
// subject's left. The shoulder offset is already in the chest frame's axes
// and only needs ToMetres.
package regression

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

// HarringtonHip predicts the hip joint centre relative to the ASIS
// midpoint (Harrington et al. 2006). widthMM is the inter-ASIS distance and
// depthMM the distance from the ASIS midpoint to the sacrum.
func HarringtonHip(widthMM, depthMM float64, side skeleton.Side) r3.Vec {
	v := r3.Vec{
		X: 0.33*widthMM - 7.3,
		Y: -0.30*widthMM - 10.9,
		Z: -0.24*depthMM - 9.9,
	}
	if side == skeleton.Left {
		v.X = -v.X
	}
	return v
}

// CampbellShoulder predicts the glenohumeral centre relative to the
// acromion marker (Campbell et al. 2009) from chest depth (mm), height
// (cm), mass (kg) and shoulder width (mm). The left side negates X.
func CampbellShoulder(chestDepthMM, heightCM, massKG, shoulderWidthMM float64, side skeleton.Side) r3.Vec {
	v := r3.Vec{
		X: 96.2 - 0.302*chestDepthMM - 0.364*heightCM + 0.385*massKG,
		Y: -66.32 + 0.30*chestDepthMM - 0.432*massKG,
		Z: 66.468 - 0.531*shoulderWidthMM + 0.571*massKG,
	}
	if side == skeleton.Left {
		v.X = -v.X
	}
	return v
}

// ToSolver mirrors the lateral axis and converts millimetres to metres.
func ToSolver(mm r3.Vec) r3.Vec {
	return r3.Vec{X: -mm.X / 1000, Y: mm.Y / 1000, Z: mm.Z / 1000}
}

// ToMetres converts millimetres to metres without changing axes.
func ToMetres(mm r3.Vec) r3.Vec {
	return r3.Scale(0.001, mm)
}

// KneeWidth is the estimated knee width in metres for a height in cm.
func KneeWidth(heightCM float64) float64 {
	return 0.0575 * heightCM / 100
}

// AnkleWidth is the estimated ankle width in metres for a height in cm.
func AnkleWidth(heightCM float64) float64 {
	return 0.04 * heightCM / 100
}

// MedialOffset is the offset from a lateral marker to the joint centre in
// the segment's local solver frame: half the joint width toward the midline.
func MedialOffset(width float64, side skeleton.Side) r3.Vec {
	return r3.Vec{X: -side.Sign() * width / 2}
}
