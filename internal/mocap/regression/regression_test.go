package regression

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

func vecClose(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestHarringtonHip(t *testing.T) {
	right := HarringtonHip(200, 150, skeleton.Right)
	want := r3.Vec{X: 58.7, Y: -70.9, Z: -45.9}
	if !vecClose(right, want) {
		t.Errorf("right = %v, want %v", right, want)
	}
	left := HarringtonHip(200, 150, skeleton.Left)
	if !vecClose(left, r3.Vec{X: -58.7, Y: -70.9, Z: -45.9}) {
		t.Errorf("left = %v, want X mirrored", left)
	}
}

func TestToSolverPlacesHipsOnTheirSide(t *testing.T) {
	// Solver X points to the subject's left.
	l := ToSolver(HarringtonHip(200, 150, skeleton.Left))
	r := ToSolver(HarringtonHip(200, 150, skeleton.Right))
	if l.X <= 0 || r.X >= 0 {
		t.Errorf("left X = %g, right X = %g", l.X, r.X)
	}
	if math.Abs(l.Y+0.0709) > 1e-12 || math.Abs(r.Z+0.0459) > 1e-12 {
		t.Errorf("unit conversion: left %v right %v", l, r)
	}
}

func TestCampbellShoulder(t *testing.T) {
	cd, h, m, sw := 184.0, 175.0, 75.0, 200.0
	got := CampbellShoulder(cd, h, m, sw, skeleton.Right)
	want := r3.Vec{
		X: 96.2 - 0.302*cd - 0.364*h + 0.385*m,
		Y: -66.32 + 0.30*cd - 0.432*m,
		Z: 66.468 - 0.531*sw + 0.571*m,
	}
	if !vecClose(got, want) {
		t.Errorf("right = %v, want %v", got, want)
	}
	if math.Abs(got.X-5.807) > 1e-9 || math.Abs(got.Z-3.093) > 1e-9 {
		t.Errorf("right X = %g, Z = %g, want 5.807 and 3.093", got.X, got.Z)
	}
	left := CampbellShoulder(cd, h, m, sw, skeleton.Left)
	if left.X != -got.X || left.Y != got.Y || left.Z != got.Z {
		t.Errorf("left = %v is not the X mirror of %v", left, got)
	}
}

func TestToMetresKeepsAxes(t *testing.T) {
	if got := ToMetres(r3.Vec{X: 5, Y: -10, Z: 20}); !vecClose(got, r3.Vec{X: 0.005, Y: -0.01, Z: 0.02}) {
		t.Errorf("ToMetres = %v", got)
	}
}

func TestJointWidths(t *testing.T) {
	if w := KneeWidth(200); math.Abs(w-0.115) > 1e-12 {
		t.Errorf("KneeWidth(200) = %g", w)
	}
	if w := AnkleWidth(150); math.Abs(w-0.06) > 1e-12 {
		t.Errorf("AnkleWidth(150) = %g", w)
	}
	if o := MedialOffset(0.1, skeleton.Left); o != (r3.Vec{X: -0.05}) {
		t.Errorf("left medial offset = %v", o)
	}
	if o := MedialOffset(0.1, skeleton.Right); o != (r3.Vec{X: 0.05}) {
		t.Errorf("right medial offset = %v", o)
	}
}
