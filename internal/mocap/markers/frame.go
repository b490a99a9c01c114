package markers

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/geom"
)

// Marker is one labelled 3D point as delivered by the capture system.
type Marker struct {
	Label    string
	Pos      r3.Vec
	Residual float64
	Occluded bool
}

// Valid reports whether the marker counts as observed.
func (m Marker) Valid() bool {
	return !m.Occluded && !math.IsNaN(m.Pos.X) && !math.IsNaN(m.Pos.Y) && !math.IsNaN(m.Pos.Z)
}

// Labels returns the marker names of a frame in input order.
func Labels(raw []Marker) []string {
	out := make([]string, len(raw))
	for i, m := range raw {
		out[i] = m.Label
	}
	return out
}

// Frame holds one position per role. Unobserved roles are the NaN vector.
type Frame [RoleCount]r3.Vec

// Get returns the position of a role.
func (f *Frame) Get(r Role) r3.Vec {
	return f[r]
}

// Has reports whether a role was observed or reconstructed.
func (f *Frame) Has(r Role) bool {
	return !geom.IsNaNVec(f[r])
}

func (f *Frame) clear() {
	nan := geom.NaNVec()
	for i := range f {
		f[i] = nan
	}
}
