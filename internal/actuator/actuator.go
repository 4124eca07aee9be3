package actuator

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

type Kind int

const (
	Generic Kind = iota
	ReactionWheel
	Thruster
	GimbaledEngine
	ControlSurface
)

var kindNames = map[Kind]string{
	Generic:        "generic",
	ReactionWheel:  "reaction_wheel",
	Thruster:       "thruster",
	GimbaledEngine: "gimbal",
	ControlSurface: "control_surface",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a preset/YAML name onto a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, v := range kindNames {
		if v == name {
			return k, nil
		}
	}
	switch name {
	case "wheel", "rw":
		return ReactionWheel, nil
	case "rcs":
		return Thruster, nil
	case "engine":
		return GimbaledEngine, nil
	case "surface", "fin":
		return ControlSurface, nil
	}
	return Generic, fmt.Errorf("unknown actuator kind %q", s)
}

// Descriptor is one torque source as reported by the host for the current tick.
// Positive and Negative hold the torque available when commanding +1 and -1
// on each axis; physical asymmetry makes them differ.
type Descriptor struct {
	Name         string
	Kind         Kind
	Positive     mgl64.Vec3
	Negative     mgl64.Vec3
	ResponseTime float64
}

// Valid reports whether the descriptor carries usable numbers.
func (d Descriptor) Valid() bool {
	if !dynamo.Finite(d.Positive) || !dynamo.Finite(d.Negative) {
		return false
	}
	return dynamo.IsFinite(d.ResponseTime) && d.ResponseTime >= 0
}

// MaxTorque is the per-axis larger magnitude of the two directions.
func (d Descriptor) MaxTorque() mgl64.Vec3 {
	p, n := dynamo.AbsVec(d.Positive), dynamo.AbsVec(d.Negative)
	return mgl64.Vec3{max(p[0], n[0]), max(p[1], n[1]), max(p[2], n[2])}
}

// Scaled returns a copy with both torque directions multiplied per axis by f.
func (d Descriptor) Scaled(f mgl64.Vec3) Descriptor {
	d.Positive = dynamo.MulVec(d.Positive, f)
	d.Negative = dynamo.MulVec(d.Negative, f)
	return d
}

// Torque returns the torque produced for a normalized command in [-1, 1].
func (d Descriptor) Torque(cmd mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		c := dynamo.Clamp(cmd[i], -1, 1)
		if c >= 0 {
			out[i] = c * math.Abs(d.Positive[i])
		} else {
			out[i] = c * math.Abs(d.Negative[i])
		}
	}
	return out
}
