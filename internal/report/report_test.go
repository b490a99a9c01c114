package report

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/markerpose/internal/mocap/body"
	"github.com/banshee-data/markerpose/internal/mocap/geom"
	"github.com/banshee-data/markerpose/internal/mocap/skeleton"
)

func sampleSession(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder()
	skel := skeleton.New()
	p := body.Proportions{HeightCM: 175, ShoulderWidthMM: 400, NeckToChest: body.DefaultNeckToChest}
	for f := 0; f < 20; f++ {
		skel.Walk(func(j *skeleton.Joint) { j.Status = skeleton.StatusComputed })
		if f >= 5 && f < 8 {
			head := skel.Joint(skeleton.Head)
			head.Pos = geom.NaNVec()
			head.Status = skeleton.StatusMissing
		} else {
			skel.Joint(skeleton.Head).Pos = skel.ReferencePos(skeleton.Head)
		}
		r.Sample(f, skel, p)
	}
	return r
}

func TestSegmentsSplitAtGaps(t *testing.T) {
	nan := geom.NaNVec().X
	segs := segments([]int{0, 1, 2, 3, 4, 5}, []float64{1, 2, nan, nan, 3, nan})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if len(segs[0]) != 2 || len(segs[1]) != 1 || segs[1][0].X != 4 {
		t.Errorf("unexpected segments %v", segs)
	}
}

func TestRecorderSample(t *testing.T) {
	r := sampleSession(t)
	if r.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", r.Len())
	}
	if r.missing[5] != 1 || r.missing[0] != 0 {
		t.Errorf("missing counts = %v", r.missing)
	}
	headIdx := 1
	if r.joints[headIdx] != skeleton.Head {
		t.Fatalf("default joints reordered: %v", r.joints)
	}
	if got := r.heights[headIdx][6]; !math.IsNaN(got) {
		t.Errorf("occluded head height = %v, want NaN", got)
	}
}

func TestPlotJointHeights(t *testing.T) {
	r := sampleSession(t)
	path := filepath.Join(t.TempDir(), "heights.png")
	if err := r.PlotJointHeights(path, "walk"); err != nil {
		t.Fatalf("PlotJointHeights failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open plot: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("plot is not a PNG: %v", err)
	}
}

func TestRenderProportions(t *testing.T) {
	r := sampleSession(t)
	var buf bytes.Buffer
	if err := r.RenderProportions(&buf, "A_"); err != nil {
		t.Fatalf("RenderProportions failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Body proportions", "shoulder width", "Joint fallbacks"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "props.html")
	if err := r.WriteProportionsHTML(path, "A_"); err != nil {
		t.Fatalf("WriteProportionsHTML failed: %v", err)
	}
}

func TestEmptyRecorder(t *testing.T) {
	r := NewRecorder(skeleton.Pelvis)
	if err := r.PlotJointHeights(filepath.Join(t.TempDir(), "x.png"), ""); !errors.Is(err, ErrEmpty) {
		t.Errorf("PlotJointHeights on empty recorder = %v, want ErrEmpty", err)
	}
	if err := r.RenderProportions(&bytes.Buffer{}, ""); !errors.Is(err, ErrEmpty) {
		t.Errorf("RenderProportions on empty recorder = %v, want ErrEmpty", err)
	}
}
