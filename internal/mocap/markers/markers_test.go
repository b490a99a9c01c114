package markers

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap"
	"github.com/banshee-data/markerpose/internal/mocap/geom"
)

func TestEveryRoleHasAliases(t *testing.T) {
	seen := make(map[string]Role)
	for r := Role(0); r < RoleCount; r++ {
		list := Aliases(r)
		if len(list) == 0 {
			t.Errorf("role %v has no aliases", r)
		}
		for _, a := range list {
			if prev, dup := seen[a]; dup {
				t.Errorf("alias %q used by both %v and %v", a, prev, r)
			}
			seen[a] = r
		}
		if r.String() == "" || strings.HasPrefix(r.String(), "Role(") {
			t.Errorf("role %d has no name", int(r))
		}
	}
}

func TestResolvePrefersFirstAlias(t *testing.T) {
	var labels []string
	for r := Role(0); r < RoleCount; r++ {
		// Offer every alias in reverse order so list position, not input
		// order, decides.
		list := Aliases(r)
		for i := len(list) - 1; i >= 0; i-- {
			labels = append(labels, list[i])
		}
	}
	b := Resolve(labels, "")
	for r := Role(0); r < RoleCount; r++ {
		got := b.Get(r)
		assert.False(t, got.Midpoint, "%v", r)
		assert.Equal(t, Aliases(r)[0], got.Name, "%v", r)
	}
	assert.Empty(t, b.Unresolved())
}

func TestResolveAnyAliasBindsEveryRole(t *testing.T) {
	var labels []string
	for r := Role(0); r < RoleCount; r++ {
		list := Aliases(r)
		labels = append(labels, list[len(list)-1])
	}
	b := Resolve(labels, "")
	for r := Role(0); r < RoleCount; r++ {
		list := Aliases(r)
		assert.Equal(t, list[len(list)-1], b.Get(r).Name, "%v", r)
	}
}

func TestResolveWithPrefix(t *testing.T) {
	b := Resolve([]string{"S1_LASI", "S1_RASI", "LASI"}, "S1_")
	assert.Equal(t, "S1_LASI", b.Get(LeftHip).Name)
	assert.Equal(t, "S1_RASI", b.Get(RightHip).Name)
	assert.Equal(t, "S1_", b.Prefix)

	other := Resolve([]string{"S1_LASI"}, "S2_")
	assert.False(t, other.Get(LeftHip).Resolved())
}

func TestResolveMidpointFallback(t *testing.T) {
	b := Resolve([]string{"LPSI", "RPSI", "LFHD", "RFHD", "LMT1", "LMT5"}, "")

	base := b.Get(BodyBase)
	require.True(t, base.Midpoint)
	assert.Equal(t, [2]string{"LPSI", "RPSI"}, base.Pair)
	assert.Equal(t, [2]string{"LFHD", "RFHD"}, b.Get(Head).Pair)
	assert.Equal(t, [2]string{"LMT1", "LMT5"}, b.Get(LeftToe).Pair)
	assert.Equal(t, "LMT5", b.Get(LeftToe5).Name)

	// A single alias wins over any pair.
	b = Resolve([]string{"SACR", "LPSI", "RPSI"}, "")
	assert.Equal(t, "SACR", b.Get(BodyBase).Name)
	assert.False(t, b.Get(BodyBase).Midpoint)

	// Half a pair is not enough.
	b = Resolve([]string{"LPSI"}, "")
	assert.False(t, b.Get(BodyBase).Resolved())
}

func TestResolveLogsUnresolvedOnce(t *testing.T) {
	var ops bytes.Buffer
	mocap.SetLogWriters(mocap.LogWriters{Ops: &ops})
	defer mocap.SetLogWriters(mocap.LogWriters{})

	b := Resolve([]string{"LASI"}, "")
	assert.Len(t, b.Unresolved(), int(RoleCount)-1)
	assert.Equal(t, int(RoleCount)-1, strings.Count(ops.String(), "unresolved"))
	assert.NotContains(t, ops.String(), "LeftHip ")
}

func TestPrefixes(t *testing.T) {
	got := Prefixes([]string{"A_LASI", "A_RASI", "B_LeftHead", "B_Head", "noise"})
	assert.Equal(t, []string{"A_", "B_"}, got)
}

func pelvis(s, l, r r3.Vec) []Marker {
	var out []Marker
	for _, m := range []Marker{{Label: "SACR", Pos: s}, {Label: "LASI", Pos: l}, {Label: "RASI", Pos: r}} {
		if !geom.IsNaNVec(m.Pos) {
			out = append(out, m)
		}
	}
	return out
}

func newPelvisPreprocessor() *Preprocessor {
	p := NewPreprocessor(0)
	p.Bind(Resolve([]string{"SACR", "LASI", "RASI"}, ""))
	return p
}

func vecNear(t *testing.T, want, got r3.Vec, tol float64, msg string) {
	t.Helper()
	if d := r3.Norm(r3.Sub(want, got)); !(d <= tol) {
		t.Errorf("%s: got %v, want %v (distance %g > %g)", msg, got, want, d, tol)
	}
}

func TestHipReconstructionOneMissing(t *testing.T) {
	p := newPelvisPreprocessor()
	p.Process(pelvis(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -1}))

	nan := geom.NaNVec()
	f := p.Process(pelvis(r3.Vec{Z: 0.005}, nan, r3.Vec{X: -1, Z: 0.005}))

	naive := r3.Vec{X: 1, Z: 0.005}
	vecNear(t, naive, f.Get(LeftHip), 0.02, "reconstructed left hip")
	assert.True(t, p.Reconstructed(LeftHip))
	assert.False(t, p.Reconstructed(RightHip))
	assert.Equal(t, r3.Vec{Z: 0.005}, f.Get(BodyBase))
}

func TestHipReconstructionClampsLargeJumps(t *testing.T) {
	p := newPelvisPreprocessor()
	p.Process(pelvis(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -1}))

	// The right hip swings a quarter turn so the rigid estimate of the left
	// hip lands far from where it was.
	f := p.Process(pelvis(r3.Vec{}, geom.NaNVec(), r3.Vec{Z: -1}))

	prevL := r3.Vec{X: 1}
	naive := r3.Vec{Z: 1}
	got := f.Get(LeftHip)
	assert.InDelta(t, DefaultMaxHipDisplacement, r3.Norm(r3.Sub(got, prevL)), 1e-12)
	want := r3.Add(prevL, r3.Scale(DefaultMaxHipDisplacement, r3.Unit(r3.Sub(naive, prevL))))
	vecNear(t, want, got, 1e-9, "clamped left hip")
}

func TestHipReconstructionTwoMissing(t *testing.T) {
	p := newPelvisPreprocessor()
	p.Process(pelvis(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -1}))

	nan := geom.NaNVec()
	f := p.Process(pelvis(r3.Vec{Z: 0.01}, nan, nan))
	vecNear(t, r3.Vec{X: 1, Z: 0.01}, f.Get(LeftHip), 1e-12, "left hip")
	vecNear(t, r3.Vec{X: -1, Z: 0.01}, f.Get(RightHip), 1e-12, "right hip")

	// Last-known stays the observed pelvis, not the reconstruction.
	assert.Equal(t, r3.Vec{X: 1}, p.HipState().LeftHip)
}

func TestHipReconstructionAllMissingHolds(t *testing.T) {
	p := newPelvisPreprocessor()
	p.Process(pelvis(r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1}, r3.Vec{X: -1, Y: 1}))
	f := p.Process(nil)
	assert.Equal(t, r3.Vec{Y: 1}, f.Get(BodyBase))
	assert.Equal(t, r3.Vec{X: 1, Y: 1}, f.Get(LeftHip))
	assert.Equal(t, r3.Vec{X: -1, Y: 1}, f.Get(RightHip))

	// Holding twice still returns the same pelvis.
	f = p.Process(nil)
	assert.Equal(t, r3.Vec{X: -1, Y: 1}, f.Get(RightHip))
}

func TestHipReconstructionColdStartIsNaN(t *testing.T) {
	p := newPelvisPreprocessor()
	f := p.Process(pelvis(r3.Vec{}, geom.NaNVec(), r3.Vec{X: -1}))
	assert.True(t, geom.IsNaNVec(f.Get(LeftHip)))
	assert.False(t, f.Has(LeftHip))
	assert.False(t, p.HipState().Known())
}

func TestProcessSkipsOccludedAndNaN(t *testing.T) {
	p := NewPreprocessor(0)
	p.Bind(Resolve([]string{"C7", "STRN", "T10"}, ""))
	f := p.Process([]Marker{
		{Label: "C7", Pos: r3.Vec{Y: 1.5}},
		{Label: "STRN", Pos: r3.Vec{Y: 1.3, Z: 0.1}, Occluded: true},
		{Label: "T10", Pos: r3.Vec{X: math.NaN()}},
	})
	assert.Equal(t, r3.Vec{Y: 1.5}, f.Get(Neck))
	assert.False(t, f.Has(Chest))
	assert.False(t, f.Has(Spine))
}

func TestProcessMidpointRole(t *testing.T) {
	p := NewPreprocessor(0)
	p.Bind(Resolve([]string{"LPSI", "RPSI"}, ""))
	f := p.Process([]Marker{
		{Label: "LPSI", Pos: r3.Vec{X: 0.05, Y: 1, Z: -0.1}},
		{Label: "RPSI", Pos: r3.Vec{X: -0.05, Y: 1, Z: -0.1}},
	})
	assert.Equal(t, r3.Vec{Y: 1, Z: -0.1}, f.Get(BodyBase))

	f = p.Process([]Marker{{Label: "LPSI", Pos: r3.Vec{X: 0.05, Y: 1, Z: -0.1}}})
	// One source missing: the pelvis group falls back to holding.
	assert.Equal(t, r3.Vec{Y: 1, Z: -0.1}, f.Get(BodyBase))
	assert.True(t, p.Reconstructed(BodyBase))
}

func TestDoubleBuffer(t *testing.T) {
	p := newPelvisPreprocessor()
	a := p.Process(pelvis(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: -1}))
	b := p.Process(pelvis(r3.Vec{Z: 0.01}, r3.Vec{X: 1, Z: 0.01}, r3.Vec{X: -1, Z: 0.01}))
	assert.NotSame(t, a, b)
	assert.Same(t, b, p.Current())
	assert.Same(t, a, p.Previous())
	assert.Equal(t, r3.Vec{}, p.Previous().Get(BodyBase))
}

func TestClampStep(t *testing.T) {
	got := clampStep(r3.Vec{}, r3.Vec{X: 1}, 0.1)
	assert.Equal(t, r3.Vec{X: 0.1}, got)
	assert.Equal(t, r3.Vec{X: 0.05}, clampStep(r3.Vec{}, r3.Vec{X: 0.05}, 0.1))
	assert.Equal(t, r3.Vec{X: 1}, clampStep(geom.NaNVec(), r3.Vec{X: 1}, 0.1))
}

func TestParseRole(t *testing.T) {
	for r := range RoleCount {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRole("LeftEar")
	assert.ErrorIs(t, err, ErrUnknownRole)
}
