package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("no samples recorded")

// segments splits a trace at NaN gaps so occlusions show as breaks.
func segments(frames []int, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i, y := range ys {
		if math.IsNaN(y) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(frames[i]), Y: y})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// PlotJointHeights saves a PNG with one height trace per joint.
func (r *Recorder) PlotJointHeights(path, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return ErrEmpty
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Height (m)"

	for i, id := range r.joints {
		segs := segments(r.frames, r.heights[i])
		for k, seg := range segs {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("%s trace: %w", id, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1)
			p.Add(line)
			if k == 0 {
				p.Legend.Add(id.String(), line)
			}
		}
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save joint height plot: %w", err)
	}
	return nil
}
