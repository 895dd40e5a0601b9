package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"Girder/internal/calc/beam"

	"github.com/ansel1/merry"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrNoData = merry.New("nothing to plot")

var (
	curveColor = color.RGBA{R: 0, G: 0, B: 139, A: 255}
	barColor   = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	pointColor = color.RGBA{R: 139, G: 69, B: 19, A: 255}
)

const (
	width  = 8 * vg.Inch
	height = 4 * vg.Inch
)

// Deflection draws the deflected shape of a beam, ordinates in mm.
func Deflection(curve []beam.Sample, title string) ([]byte, error) {
	if len(curve) == 0 {
		return nil, merry.Here(ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Position (m)"
	p.Y.Label.Text = "Deflection (mm)"

	pts := make(plotter.XYs, len(curve))
	for i, s := range curve {
		pts[i] = plotter.XY{X: s.XM, Y: s.DeflectionMM}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, merry.Prepend(err, "deflection line")
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = curveColor
	p.Add(line)

	axis, err := plotter.NewLine(plotter.XYs{{X: curve[0].XM, Y: 0}, {X: curve[len(curve)-1].XM, Y: 0}})
	if err != nil {
		return nil, merry.Prepend(err, "beam axis")
	}
	axis.LineStyle.Color = color.Gray{Y: 128}
	axis.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(axis)
	p.Add(plotter.NewGrid())

	return render(p)
}

// Bars draws one bar per label.
func Bars(title string, labels []string, values []float64) ([]byte, error) {
	if len(values) == 0 || len(labels) != len(values) {
		return nil, merry.Here(ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Count"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(40))
	if err != nil {
		return nil, merry.Prepend(err, "bar chart")
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	return render(p)
}

// Scatter draws the points (xs[i], ys[i]).
func Scatter(title, xLabel, yLabel string, xs, ys []float64) ([]byte, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, merry.Here(ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, merry.Prepend(err, "scatter")
	}
	sc.GlyphStyle.Color = pointColor
	sc.GlyphStyle.Radius = vg.Points(3)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	p.Add(plotter.NewGrid())

	return render(p)
}

func render(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, merry.Prepend(err, "render png")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, merry.Prepend(err, "encode png")
	}
	return buf.Bytes(), nil
}

// ASCII draws the deflected shape for a terminal.
func ASCII(curve []beam.Sample, cols, rows int) string {
	if len(curve) == 0 {
		return ""
	}
	ys := make([]float64, len(curve))
	for i, s := range curve {
		ys[i] = s.DeflectionMM
	}
	return asciigraph.Plot(ys,
		asciigraph.Width(cols),
		asciigraph.Height(rows),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("deflection (mm), 0 to %.2f m", curve[len(curve)-1].XM)),
	)
}
