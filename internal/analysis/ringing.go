package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/attsim/internal/dynamo"
)

// AxisReport summarizes how one axis's error behaved over a run.
type AxisReport struct {
	Axis string
	// Frequency and Amplitude of the dominant error oscillation.
	Frequency float64
	Amplitude float64
	// Overshoot is the largest excursion past zero relative to the initial
	// error; zero when the error never changes sign.
	Overshoot     float64
	ZeroCrossings int
	PeakError     float64
}

// Analyze reports ringing on every axis. Samples must be evenly spaced.
func Analyze(samples []dynamo.Sample) ([]AxisReport, error) {
	if len(samples) < 4 {
		return nil, fmt.Errorf("need at least 4 samples, got %d: %w", len(samples), dynamo.ErrParameterBounds)
	}
	dt := samples[1].Time - samples[0].Time
	if !dynamo.IsFinite(dt) || dt <= 0 {
		return nil, fmt.Errorf("sample spacing %g: %w", dt, dynamo.ErrInvalidTimestep)
	}

	reports := make([]AxisReport, 3)
	series := make([]float64, len(samples))
	for axis := range reports {
		for i, s := range samples {
			series[i] = s.Error[axis]
			if !dynamo.IsFinite(series[i]) {
				series[i] = 0
			}
		}
		r := AxisReport{Axis: dynamo.AxisNames[axis]}
		r.Frequency, r.Amplitude = NewSpectrum(series, dt).Dominant()
		r.Overshoot, r.ZeroCrossings, r.PeakError = excursions(series)
		reports[axis] = r
	}
	return reports, nil
}

func excursions(series []float64) (overshoot float64, crossings int, peak float64) {
	e0 := series[0]
	prev := e0
	for _, v := range series {
		peak = math.Max(peak, math.Abs(v))
		if prev != 0 && v != 0 && math.Signbit(prev) != math.Signbit(v) {
			crossings++
		}
		if v != 0 {
			prev = v
		}
		if e0 != 0 && math.Signbit(v) != math.Signbit(e0) {
			overshoot = math.Max(overshoot, math.Abs(v)/math.Abs(e0))
		}
	}
	return overshoot, crossings, peak
}
