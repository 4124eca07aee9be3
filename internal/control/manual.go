package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// Group is a set of axes the pilot takes over together.
type Group int

const (
	PitchYaw Group = iota
	Roll
)

func (g Group) Axes() []int {
	if g == Roll {
		return []int{dynamo.AxisRoll}
	}
	return []int{dynamo.AxisPitch, dynamo.AxisYaw}
}

// Stick is the pilot's raw input and the trim it rests at, in (pitch, roll, yaw).
type Stick struct {
	Input mgl64.Vec3
	Trim  mgl64.Vec3
}

// Overrides reports which axis groups the pilot is flying, i.e. whose input
// differs from trim by more than tol. Non-finite input never overrides.
func (s Stick) Overrides(tol float64) (pitchYaw, roll bool) {
	off := func(axis int) bool {
		d := s.Input[axis] - s.Trim[axis]
		return dynamo.IsFinite(d) && math.Abs(d) > tol
	}
	return off(dynamo.AxisPitch) || off(dynamo.AxisYaw), off(dynamo.AxisRoll)
}

// Active reports whether any group is overridden.
func (s Stick) Active(tol float64) bool {
	py, r := s.Overrides(tol)
	return py || r
}

// overridden expands Overrides into a per-axis mask.
func (s Stick) overridden(tol float64) [3]bool {
	var out [3]bool
	py, r := s.Overrides(tol)
	if py {
		for _, a := range PitchYaw.Axes() {
			out[a] = true
		}
	}
	out[dynamo.AxisRoll] = r
	return out
}
