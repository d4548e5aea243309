package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"foodpulse/internal/analytics"
)

// Renderer draws a view result to an image file.
type Renderer interface {
	Render(res *analytics.Result, path string) error
}

// PlotRenderer renders PNG charts with gonum/plot. The image format follows
// the file extension.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer producing 12x6 inch charts.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{Width: 12 * vg.Inch, Height: 6 * vg.Inch}
}

var (
	barColor     = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	lineColor    = color.RGBA{R: 255, G: 165, A: 255}
	scatterColor = color.RGBA{R: 128, B: 128, A: 160}
)

// Render implements Renderer.
func (r *PlotRenderer) Render(res *analytics.Result, path string) error {
	if res.Len() == 0 {
		return analytics.ErrNoData
	}

	p := plot.New()
	p.Title.Text = res.Title
	p.X.Label.Text = res.XLabel
	p.Y.Label.Text = res.YLabel
	p.Add(plotter.NewGrid())

	var err error
	switch res.Kind {
	case analytics.KindCategory:
		err = addBars(p, res)
	case analytics.KindSeries:
		err = addSeries(p, res)
	case analytics.KindHistogram:
		err = addHistogram(p, res)
	case analytics.KindScatter:
		err = addScatter(p, res)
	default:
		err = fmt.Errorf("unsupported result kind %q", res.Kind)
	}
	if err != nil {
		return err
	}

	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func addBars(p *plot.Plot, res *analytics.Result) error {
	n := len(res.Categories)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, c := range res.Categories {
		// Horizontal charts list the first entry at the top.
		at := i
		if res.Horizontal {
			at = n - 1 - i
		}
		values[at] = c.Value
		labels[at] = c.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	bars.Horizontal = res.Horizontal
	p.Add(bars)

	if res.Horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
	}
	return nil
}

func addSeries(p *plot.Plot, res *analytics.Result) error {
	pts := make(plotter.XYs, len(res.Series))
	for i, v := range res.Series {
		pts[i].X = float64(v.Date.Unix())
		pts[i].Y = v.Value
	}
	line, marks, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	line.Color = lineColor
	marks.GlyphStyle.Color = lineColor
	p.Add(line, marks)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	return nil
}

func addHistogram(p *plot.Plot, res *analytics.Result) error {
	bins := make([]plotter.HistogramBin, len(res.Bins))
	for i, b := range res.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     res.Bins[0].Upper - res.Bins[0].Lower,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)
	return nil
}

func addScatter(p *plot.Plot, res *analytics.Result) error {
	pts := make(plotter.XYs, len(res.Points))
	for i, v := range res.Points {
		pts[i].X, pts[i].Y = v.X, v.Y
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter chart: %w", err)
	}
	s.GlyphStyle.Color = scatterColor
	p.Add(s)
	return nil
}
