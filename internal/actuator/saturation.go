package actuator

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

const negligibleTorque = 1e-9

type SaturationParams struct {
	// Threshold is the fraction of capacity at which derating begins.
	Threshold float64 `yaml:"threshold"`
	// DesatRate is the fraction of max torque bled off per second.
	DesatRate float64 `yaml:"desat_rate"`
}

func DefaultSaturationParams() SaturationParams {
	return SaturationParams{Threshold: 0.5, DesatRate: 0.05}
}

// WheelState is the stored angular momentum of one wheel-like actuator.
type WheelState struct {
	Momentum  mgl64.Vec3
	Factor    mgl64.Vec3
	MaxTorque mgl64.Vec3
}

// Fill is the largest per-axis ratio of stored momentum to capacity.
func (w *WheelState) Fill() float64 {
	fill := 0.0
	for i := 0; i < 3; i++ {
		if w.MaxTorque[i] > negligibleTorque {
			fill = math.Max(fill, math.Abs(w.Momentum[i])/w.MaxTorque[i])
		}
	}
	return fill
}

// Saturation tracks momentum build-up for every reaction wheel on one body.
// Not safe for concurrent use; each body owns its own instance.
type Saturation struct {
	params SaturationParams
	wheels map[string]*WheelState
}

func NewSaturation(p SaturationParams) *Saturation {
	return &Saturation{params: p, wheels: make(map[string]*WheelState)}
}

func (s *Saturation) Params() SaturationParams { return s.params }

func (s *Saturation) SetParams(p SaturationParams) { s.params = p }

// Step advances one wheel by dt: bleed momentum toward zero, integrate the
// torque the wheel actually delivered, then recompute its derating factor.
// applied must be the already derated torque; momentum is not clamped here,
// so passing the raw command lets it grow past maxTorque.
func (s *Saturation) Step(name string, applied, maxTorque mgl64.Vec3, dt float64) mgl64.Vec3 {
	w := s.wheel(name)
	w.MaxTorque = maxTorque
	if !dynamo.IsFinite(dt) || dt <= 0 || !dynamo.Finite(applied) {
		return w.Factor
	}

	for i := 0; i < 3; i++ {
		m := w.Momentum[i]
		bleed := s.params.DesatRate * maxTorque[i] * dt
		m -= dynamo.Sign(m) * math.Min(math.Abs(m), bleed)
		m += applied[i] * dt
		w.Momentum[i] = m
		w.Factor[i] = s.derate(math.Abs(m), maxTorque[i])
	}
	return w.Factor
}

func (s *Saturation) derate(stored, maxTorque float64) float64 {
	if maxTorque < negligibleTorque {
		return 1
	}
	span := maxTorque * (1 - s.params.Threshold)
	if span <= 0 {
		if stored < maxTorque {
			return 1
		}
		return 0
	}
	f := (maxTorque - stored) / span
	if !dynamo.IsFinite(f) {
		return 1
	}
	return dynamo.Clamp(f, 0, 1)
}

// Factor is the derating currently applied to the named wheel.
func (s *Saturation) Factor(name string) mgl64.Vec3 {
	if w, ok := s.wheels[name]; ok {
		return w.Factor
	}
	return dynamo.Splat(1)
}

// State returns a copy of the named wheel's state.
func (s *Saturation) State(name string) (WheelState, bool) {
	w, ok := s.wheels[name]
	if !ok {
		return WheelState{}, false
	}
	return *w, true
}

// Derate returns copies of descs with every reaction wheel scaled by its factor.
func (s *Saturation) Derate(descs []Descriptor) []Descriptor {
	out := make([]Descriptor, len(descs))
	for i, d := range descs {
		if d.Kind == ReactionWheel {
			d = d.Scaled(s.Factor(d.Name))
		}
		out[i] = d
	}
	return out
}

func (s *Saturation) Wheels() []string {
	names := make([]string, 0, len(s.wheels))
	for name := range s.wheels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PeakFill is the fullest wheel's Fill.
func (s *Saturation) PeakFill() float64 {
	peak := 0.0
	for _, w := range s.wheels {
		peak = math.Max(peak, w.Fill())
	}
	return peak
}

// Reset empties every wheel.
func (s *Saturation) Reset() {
	for _, w := range s.wheels {
		w.Momentum = mgl64.Vec3{}
		w.Factor = dynamo.Splat(1)
	}
}

func (s *Saturation) wheel(name string) *WheelState {
	w, ok := s.wheels[name]
	if !ok {
		w = &WheelState{Factor: dynamo.Splat(1)}
		s.wheels[name] = w
	}
	return w
}
