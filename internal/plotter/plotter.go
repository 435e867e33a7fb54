// Package plotter renders orientation estimates as PNG time series.
package plotter

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/knei-knurow/madgwick/internal/samples"
)

// ErrNoEstimates is returned when there is nothing to plot.
var ErrNoEstimates = errors.New("no estimates to plot")

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

type series struct {
	label string
	value func(samples.Estimate) float64
}

// SaveOrientationPlots writes two plots next to path: <base>_quaternion.png with
// the quaternion components and <base>_euler.png with yaw, pitch and roll in
// degrees, both against time. It returns the written file names.
func SaveOrientationPlots(path string, estimates []samples.Estimate) ([]string, error) {
	if len(estimates) == 0 {
		return nil, ErrNoEstimates
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	quatFile := base + "_quaternion.png"
	eulerFile := base + "_euler.png"

	pQuat, err := newPlot("Orientation quaternion", "Component", estimates, []series{
		{"w", func(e samples.Estimate) float64 { return e.Q.Real }},
		{"x", func(e samples.Estimate) float64 { return e.Q.Imag }},
		{"y", func(e samples.Estimate) float64 { return e.Q.Jmag }},
		{"z", func(e samples.Estimate) float64 { return e.Q.Kmag }},
	})
	if err != nil {
		return nil, err
	}

	pEuler, err := newPlot("ZYX Euler angles", "Angle (deg)", estimates, []series{
		{"yaw", func(e samples.Estimate) float64 { return degrees(e.Yaw) }},
		{"pitch", func(e samples.Estimate) float64 { return degrees(e.Pitch) }},
		{"roll", func(e samples.Estimate) float64 { return degrees(e.Roll) }},
	})
	if err != nil {
		return nil, err
	}

	if err := pQuat.Save(14*vg.Inch, 6*vg.Inch, quatFile); err != nil {
		return nil, fmt.Errorf("save quaternion plot: %w", err)
	}
	if err := pEuler.Save(14*vg.Inch, 6*vg.Inch, eulerFile); err != nil {
		return nil, fmt.Errorf("save euler plot: %w", err)
	}

	return []string{quatFile, eulerFile}, nil
}

func newPlot(title, yLabel string, estimates []samples.Estimate, lines []series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = yLabel

	for i, s := range lines {
		pts := make(plotter.XYs, 0, len(estimates))
		for _, e := range estimates {
			pts = append(pts, plotter.XY{X: e.T, Y: s.value(e)})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("create %s line: %w", s.label, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())

	return p, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
