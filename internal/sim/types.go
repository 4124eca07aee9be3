package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/inertia"
)

// Vessel is the physical body being flown: its mass properties, the torque
// sources on it and its initial attitude.
type Vessel struct {
	Name        string
	MOI         mgl64.Vec3
	Bodies      []inertia.SubBody
	Actuators   []actuator.Descriptor
	Orientation mgl64.Quat
	Rate        mgl64.Vec3
}

// PlantMOI is the principal inertia the plant integrates with.
func (v Vessel) PlantMOI() mgl64.Vec3 {
	if len(v.Bodies) > 0 {
		return inertia.Estimate(v.Bodies, mgl64.QuatIdent())
	}
	return v.MOI
}

func (v Vessel) Validate() error {
	if len(v.Actuators) == 0 {
		return fmt.Errorf("vessel %q: %w", v.Name, dynamo.ErrNoActuators)
	}
	moi := v.PlantMOI()
	for i := 0; i < 3; i++ {
		if !dynamo.IsFinite(moi[i]) || moi[i] <= 0 {
			return fmt.Errorf("vessel %q moi[%s]=%g: %w", v.Name, dynamo.AxisNames[i], moi[i], dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// Event changes the inputs of a run at a point in time. Nil fields leave the
// corresponding input unchanged.
type Event struct {
	At     float64
	Mode   attitude.Mode
	Stick  *control.Stick
	Engage *bool
	// Params are queued as tunable updates and applied once the pilot lets go.
	Params map[string]float64
}

// Timeline is a list of events ordered by time.
type Timeline []Event

func (tl Timeline) Sorted() Timeline {
	out := make(Timeline, len(tl))
	copy(out, tl)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}

// Pilot is polled once per tick for live input. It overrides the timeline's
// stick; a nil mode keeps the current one.
type Pilot interface {
	Poll(t float64) (control.Stick, attitude.Mode)
}

type Config struct {
	Dt       float64
	Duration float64
	// Mode is the initial attitude mode; kill rotation when nil.
	Mode          attitude.Mode
	Timeline      Timeline
	ValidateState bool
	Pilot         Pilot
	// SampleEvery keeps one sample per N ticks; every tick when zero.
	SampleEvery int
}

func (c Config) Validate() error {
	if !dynamo.IsFinite(c.Dt) || c.Dt <= 0 {
		return fmt.Errorf("dt=%g: %w", c.Dt, dynamo.ErrInvalidTimestep)
	}
	if !dynamo.IsFinite(c.Duration) || c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every=%d: %w", c.SampleEvery, dynamo.ErrParameterBounds)
	}
	return nil
}

// Steps is the number of ticks the run lasts.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	Vessel     string
	Samples    []dynamo.Sample
	Metrics    map[string]float64
	StepsTaken int
	Resets     int
	Final      dynamo.Sample
}
