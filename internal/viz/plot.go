package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/attsim/internal/dynamo"
)

// AxisColors are the per-axis plot colors, pitch then roll then yaw.
var AxisColors = []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue}

// PlotAxes charts one per-axis quantity from telemetry, downsampled to width.
func PlotAxes(samples []dynamo.Sample, pick func(dynamo.Sample) [3]float64, width, height int, caption string) string {
	if len(samples) == 0 {
		return ""
	}
	series := make([][]float64, 3)
	for i := range series {
		series[i] = make([]float64, 0, len(samples))
	}
	for _, s := range samples {
		v := pick(s)
		for i := range series {
			series[i] = append(series[i], finite(v[i]))
		}
	}
	return asciigraph.PlotMany(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(AxisColors...),
		asciigraph.Caption(caption))
}

// PlotSeries charts a single series.
func PlotSeries(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	clean := make([]float64, len(values))
	for i, v := range values {
		clean[i] = finite(v)
	}
	return asciigraph.Plot(clean,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption))
}

// Degrees converts radians for display.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func finite(v float64) float64 {
	if dynamo.IsFinite(v) {
		return v
	}
	return 0
}
