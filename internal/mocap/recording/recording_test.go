package recording

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/markerpose/internal/mocap/markers"
)

const sample = `frame,label,x,y,z,residual
0,LASI,0.12,1.02,0.06,0.4
0,RASI,-0.12,1.02,0.06,0.3
1,LASI,0.13,1.02,0.07,0.4
1,RASI,NaN,NaN,NaN,-1
`

func TestReadCSVGroupsFrames(t *testing.T) {
	frames, err := ReadCSV(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, 0, frames[0].Index)
	assert.Len(t, frames[0].Markers, 2)
	assert.Equal(t, "RASI", frames[0].Markers[1].Label)
	assert.Equal(t, r3.Vec{X: -0.12, Y: 1.02, Z: 0.06}, frames[0].Markers[1].Pos)
	assert.True(t, frames[0].Markers[1].Valid())

	occ := frames[1].Markers[1]
	assert.True(t, occ.Occluded)
	assert.False(t, occ.Valid())
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad header", "f,l,x,y,z,r\n0,A,1,2,3,0\n"},
		{"bad frame number", "frame,label,x,y,z,residual\nx,A,1,2,3,0\n"},
		{"bad coordinate", "frame,label,x,y,z,residual\n0,A,1,two,3,0\n"},
		{"empty label", "frame,label,x,y,z,residual\n0,,1,2,3,0\n"},
		{"short row", "frame,label,x,y,z,residual\n0,A,1,2,3\n"},
		{"frames go backwards", "frame,label,x,y,z,residual\n1,A,1,2,3,0\n0,A,1,2,3,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoFrames))
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoFrames)

	_, err = ReadCSV(strings.NewReader("frame,label,x,y,z,residual\n"))
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestWriteCSVReadsBack(t *testing.T) {
	in, err := Synthetic(SyntheticConfig{
		Frames: 3, RateHz: 100, Speed: 1, StrideHz: 1,
		Dropouts: []Dropout{{Role: markers.LeftKnee, From: 1, To: 2}},
	})
	require.NoError(t, err)
	// An occluded marker with a stale non-negative residual is still
	// written as occluded.
	in[2].Markers[0].Occluded = true

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for i := range in {
		require.Len(t, out[i].Markers, len(in[i].Markers))
		for k, m := range in[i].Markers {
			got := out[i].Markers[k]
			assert.Equal(t, m.Label, got.Label)
			assert.Equal(t, m.Occluded, got.Occluded, "frame %d %s", i, m.Label)
			if !m.Occluded {
				assert.Equal(t, m.Pos, got.Pos)
			}
		}
	}
	assert.True(t, math.IsNaN(out[1].Markers[markers.LeftKnee].Pos.X))
}

func TestFileRoundTrip(t *testing.T) {
	frames, err := Synthetic(DefaultSynthetic(2))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "walk.csv")
	require.NoError(t, WriteFile(path, frames))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestSyntheticLabelsResolveFully(t *testing.T) {
	for _, conv := range []Convention{Qualisys, PlugInGait} {
		cfg := DefaultSynthetic(1)
		cfg.Convention = conv
		cfg.Prefix = "Actor1:"
		frames, err := Synthetic(cfg)
		require.NoError(t, err)

		b := markers.Resolve(markers.Labels(frames[0].Markers), "Actor1:")
		assert.Empty(t, b.Unresolved(), "convention %d", conv)
		for r := range markers.RoleCount {
			assert.False(t, b.Get(r).Midpoint, "%s bound through a midpoint", r)
		}
	}
}

func TestSyntheticWalksForward(t *testing.T) {
	frames, err := Synthetic(DefaultSynthetic(101))
	require.NoError(t, err)

	start := frames[0].Markers[markers.BodyBase].Pos
	end := frames[100].Markers[markers.BodyBase].Pos
	assert.InDelta(t, 1.2, end.Z-start.Z, 1e-9)
	assert.InDelta(t, start.X, end.X, 1e-12)

	// Legs swing in counter-phase.
	quarter := frames[28]
	l := quarter.Markers[markers.LeftAnkle].Pos.Z - quarter.Markers[markers.BodyBase].Pos.Z
	r := quarter.Markers[markers.RightAnkle].Pos.Z - quarter.Markers[markers.BodyBase].Pos.Z
	assert.Greater(t, l, r)
}

func TestSyntheticDropoutsAndDeterminism(t *testing.T) {
	cfg := DefaultSynthetic(10)
	cfg.Noise = 0.001
	cfg.Seed = 7
	cfg.Dropouts = []Dropout{{Role: markers.LeftHip, From: 2, To: 5}}

	a, err := Synthetic(cfg)
	require.NoError(t, err)
	b, err := Synthetic(cfg)
	require.NoError(t, err)

	for i := range a {
		occluded := i >= 2 && i < 5
		assert.Equal(t, occluded, a[i].Markers[markers.LeftHip].Occluded, "frame %d", i)
		assert.Equal(t, !occluded, a[i].Markers[markers.LeftHip].Valid(), "frame %d", i)
		if !occluded {
			assert.Equal(t, a[i].Markers[markers.LeftHip].Pos, b[i].Markers[markers.LeftHip].Pos)
		}
	}
}

func TestSyntheticRejectsBadConfig(t *testing.T) {
	_, err := Synthetic(SyntheticConfig{})
	assert.ErrorIs(t, err, ErrNoFrames)

	_, err = Synthetic(SyntheticConfig{Frames: 1})
	assert.Error(t, err)
}
