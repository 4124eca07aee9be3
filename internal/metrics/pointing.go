package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// PointingError is the error angle on the last observed tick, radians.
type PointingError struct {
	name string
	last float64
}

func NewPointingError() *PointingError {
	return &PointingError{name: "pointing_error"}
}

func (p *PointingError) Name() string { return p.name }

func (p *PointingError) Observe(s dynamo.Sample) {
	p.last = s.ErrorAngle
}

func (p *PointingError) Value() float64 { return p.last }

func (p *PointingError) Reset() { p.last = 0 }

// SettlingTime is the time after which the error angle never again left the
// band. A target reset restarts the clock. Value is -1 while unsettled.
type SettlingTime struct {
	name    string
	band    float64
	settled float64
	inBand  bool
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{name: "settling_time", band: band, settled: -1}
}

func (s *SettlingTime) Name() string { return s.name }

func (s *SettlingTime) Observe(smp dynamo.Sample) {
	if smp.Reset {
		s.inBand = false
		s.settled = -1
	}
	within := dynamo.IsFinite(smp.ErrorAngle) && smp.ErrorAngle <= s.band
	switch {
	case within && !s.inBand:
		s.inBand = true
		s.settled = smp.Time
	case !within:
		s.inBand = false
		s.settled = -1
	}
}

func (s *SettlingTime) Value() float64 { return s.settled }

func (s *SettlingTime) Reset() {
	s.inBand = false
	s.settled = -1
}

// WheelSaturation is the peak momentum fill any wheel reached.
type WheelSaturation struct {
	name string
	peak float64
}

func NewWheelSaturation() *WheelSaturation {
	return &WheelSaturation{name: "wheel_saturation"}
}

func (w *WheelSaturation) Name() string { return w.name }

func (w *WheelSaturation) Observe(s dynamo.Sample) {
	w.peak = math.Max(w.peak, s.WheelFill)
}

func (w *WheelSaturation) Value() float64 { return w.peak }

func (w *WheelSaturation) Reset() { w.peak = 0 }

// Standard is the metric set every CLI run records.
func Standard(moi mgl64.Vec3) []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewPointingError(),
		NewSettlingTime(1 * math.Pi / 180),
		NewWheelSaturation(),
		NewStability(0.01),
		NewKineticEnergy(moi),
	}
}
