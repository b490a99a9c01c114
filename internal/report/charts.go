package report

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// lineData converts a series, leaving gaps for NaN.
func lineData(vs []float64) []opts.LineData {
	out := make([]opts.LineData, len(vs))
	for i, v := range vs {
		if math.IsNaN(v) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func intLineData(vs []int) []opts.LineData {
	out := make([]opts.LineData, len(vs))
	for i, v := range vs {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// RenderProportions writes an HTML page showing how the body estimates
// converge and how many joints fell back each frame.
func (r *Recorder) RenderProportions(w io.Writer, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return ErrEmpty
	}

	n := len(r.props)
	height := make([]float64, n)
	shoulder := make([]float64, n)
	chest := make([]float64, n)
	for i, p := range r.props {
		height[i] = p.HeightCM
		shoulder[i] = p.ShoulderWidthMM / 10
		chest[i] = p.ChestDepthMM() / 10
	}

	props := charts.NewLine()
	props.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Body proportions", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Body proportions", Subtitle: fmt.Sprintf("subject=%q frames=%d", subject, n)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cm", NameLocation: "middle", NameGap: 35}),
	)
	props.SetXAxis(r.frames).
		AddSeries("height", lineData(height)).
		AddSeries("shoulder width", lineData(shoulder)).
		AddSeries("chest depth", lineData(chest))

	status := charts.NewLine()
	status.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Joint fallbacks"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	status.SetXAxis(r.frames).
		AddSeries("degraded", intLineData(r.degraded)).
		AddSeries("missing", intLineData(r.missing))

	page := components.NewPage()
	page.AddCharts(props, status)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render proportions: %w", err)
	}
	return nil
}

// WriteProportionsHTML renders the proportions page to a file.
func (r *Recorder) WriteProportionsHTML(path, subject string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.RenderProportions(f, subject); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
