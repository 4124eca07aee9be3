package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

func TestSpectrumDominant(t *testing.T) {
	const dt = 0.01
	data := make([]float64, 1000)
	for i := range data {
		tt := float64(i) * dt
		data[i] = 3 + 0.5*math.Sin(2*math.Pi*4*tt)
	}

	freq, amp := NewSpectrum(data, dt).Dominant()
	if math.Abs(freq-4) > 0.1 {
		t.Errorf("dominant frequency %.3f Hz, want 4", freq)
	}
	if math.Abs(amp-0.5) > 0.05 {
		t.Errorf("amplitude %.3f, want 0.5", amp)
	}
}

func TestSpectrumDegenerate(t *testing.T) {
	if s := NewSpectrum([]float64{1}, 0.1); len(s.Freqs) != 0 {
		t.Error("single sample should give an empty spectrum")
	}
	if s := NewSpectrum([]float64{1, 2, 3}, 0); len(s.Freqs) != 0 {
		t.Error("zero dt should give an empty spectrum")
	}
}

// ringdown is a damped pitch oscillation starting at e0.
func ringdown(e0, zeta, wn, dt float64, n int) []dynamo.Sample {
	wd := wn * math.Sqrt(1-zeta*zeta)
	out := make([]dynamo.Sample, n)
	for i := range out {
		tt := float64(i) * dt
		e := e0 * math.Exp(-zeta*wn*tt) * math.Cos(wd*tt)
		out[i] = dynamo.Sample{Time: tt, Error: mgl64.Vec3{e, 0, 0}, Rate: mgl64.Vec3{-e * wn, 0, 0}}
	}
	return out
}

func TestAnalyzeRinging(t *testing.T) {
	reports, err := Analyze(ringdown(0.5, 0.1, 2*math.Pi, 0.01, 2000))
	if err != nil {
		t.Fatal(err)
	}
	pitch := reports[dynamo.AxisPitch]
	if pitch.Axis != "pitch" {
		t.Errorf("axis = %s", pitch.Axis)
	}
	if math.Abs(pitch.Frequency-1) > 0.1 {
		t.Errorf("frequency %.3f Hz, want about 1", pitch.Frequency)
	}
	// first undershoot of a zeta=0.1 system is exp(-pi*zeta/sqrt(1-zeta^2))
	want := math.Exp(-math.Pi * 0.1 / math.Sqrt(1-0.01))
	if math.Abs(pitch.Overshoot-want) > 0.02 {
		t.Errorf("overshoot %.3f, want %.3f", pitch.Overshoot, want)
	}
	if pitch.ZeroCrossings < 20 {
		t.Errorf("only %d zero crossings", pitch.ZeroCrossings)
	}
	if pitch.PeakError != 0.5 {
		t.Errorf("peak %.3f, want 0.5", pitch.PeakError)
	}

	if reports[dynamo.AxisRoll].ZeroCrossings != 0 || reports[dynamo.AxisRoll].Overshoot != 0 {
		t.Errorf("quiet roll axis reported ringing: %+v", reports[dynamo.AxisRoll])
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze(make([]dynamo.Sample, 3)); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("short input: err = %v", err)
	}
	if _, err := Analyze(make([]dynamo.Sample, 10)); !errors.Is(err, dynamo.ErrInvalidTimestep) {
		t.Errorf("zero spacing: err = %v", err)
	}
}

func TestPhasePortrait(t *testing.T) {
	p := NewPhasePortrait(ringdown(0.5, 0.3, 2, 0.05, 200), dynamo.AxisPitch)
	if len(p.Points) != 200 {
		t.Fatalf("expected 200 points, got %d", len(p.Points))
	}
	art := p.ASCII(40, 12)
	if lines := strings.Count(art, "\n"); lines != 12 {
		t.Errorf("expected 12 rows, got %d", lines)
	}
	if !strings.Contains(art, "◉") || !strings.Contains(art, "•") {
		t.Errorf("portrait missing points:\n%s", art)
	}

	if NewPhasePortrait(nil, 3) != nil {
		t.Error("out of range axis should give nil")
	}
	if (*PhasePortrait)(nil).ASCII(10, 10) != "" {
		t.Error("nil portrait should render nothing")
	}
}
