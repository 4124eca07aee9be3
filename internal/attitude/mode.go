// Package attitude turns orientation modes into a desired orientation and
// resolves the per-axis error between that target and the current attitude.
//
// Orientations are unit quaternions rotating body-frame vectors into the world
// frame. The world frame is east-north-up; the body frame has X right, Y
// forward and Z up.
package attitude

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

var (
	BodyRight   = mgl64.Vec3{1, 0, 0}
	BodyForward = mgl64.Vec3{0, 1, 0}
	BodyUp      = mgl64.Vec3{0, 0, 1}
)

// Mode is one way of choosing where the vessel should point.
type Mode interface {
	Name() string
	desired(current mgl64.Quat) Desired
}

// Hold keeps a fixed world orientation.
type Hold struct {
	Orientation mgl64.Quat
}

// Point aims the nose along Forward. A zero Up leaves roll free.
type Point struct {
	Forward mgl64.Vec3
	Up      mgl64.Vec3
}

// KillRotation only nulls the angular rate.
type KillRotation struct{}

// Surface holds a heading, pitch and roll relative to the local horizon,
// all in radians. Heading is measured clockwise from north.
type Surface struct {
	Heading float64
	Pitch   float64
	Roll    float64
}

func (Hold) Name() string         { return "hold" }
func (Point) Name() string        { return "point" }
func (KillRotation) Name() string { return "kill" }
func (Surface) Name() string      { return "surface" }

// Desired is a mode resolved for one tick.
type Desired struct {
	Orientation mgl64.Quat
	// FreeRoll means only the forward axis of Orientation is meaningful.
	FreeRoll bool
	// Null means there is no orientation target; only rotation is damped.
	Null bool
}

// Resolve evaluates mode against the current orientation. A nil mode or one
// carrying unusable numbers falls back to killing rotation.
func Resolve(mode Mode, current mgl64.Quat) Desired {
	if mode == nil {
		return null(current)
	}
	return mode.desired(current)
}

func null(current mgl64.Quat) Desired {
	return Desired{Orientation: current, Null: true}
}

func (h Hold) desired(current mgl64.Quat) Desired {
	q, ok := unit(h.Orientation)
	if !ok {
		return null(current)
	}
	return Desired{Orientation: q}
}

func (p Point) desired(current mgl64.Quat) Desired {
	if !dynamo.Finite(p.Forward) || p.Forward.Len() < 1e-9 {
		return null(current)
	}
	fwd := p.Forward.Normalize()

	up := p.Up
	var right mgl64.Vec3
	if dynamo.Finite(up) && up.Len() > 1e-9 {
		right = fwd.Cross(up)
	}
	if right.Len() < 1e-6 {
		cur, ok := unit(current)
		if !ok {
			cur = mgl64.QuatIdent()
		}
		swing := mgl64.QuatBetweenVectors(cur.Rotate(BodyForward), fwd)
		return Desired{Orientation: swing.Mul(cur).Normalize(), FreeRoll: true}
	}

	right = right.Normalize()
	top := right.Cross(fwd)
	m := mgl64.Mat3FromCols(right, fwd, top)
	return Desired{Orientation: mgl64.Mat4ToQuat(m.Mat4()).Normalize()}
}

func (KillRotation) desired(current mgl64.Quat) Desired {
	return null(current)
}

func (s Surface) desired(current mgl64.Quat) Desired {
	if !dynamo.IsFinite(s.Heading) || !dynamo.IsFinite(s.Pitch) || !dynamo.IsFinite(s.Roll) {
		return null(current)
	}
	return Desired{Orientation: Euler(s.Heading, s.Pitch, s.Roll)}
}

// Euler builds an orientation from a compass heading (clockwise from north),
// pitch above the horizon and roll, all in radians.
func Euler(heading, pitch, roll float64) mgl64.Quat {
	q := mgl64.QuatRotate(-heading, BodyUp).
		Mul(mgl64.QuatRotate(pitch, BodyRight)).
		Mul(mgl64.QuatRotate(roll, BodyForward))
	return q.Normalize()
}

func unit(q mgl64.Quat) (mgl64.Quat, bool) {
	l := q.Len()
	if !dynamo.IsFinite(l) || l < 1e-9 {
		return mgl64.Quat{}, false
	}
	return q.Scale(1 / l), true
}

// Radians converts degrees, the unit scenario files are written in.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
