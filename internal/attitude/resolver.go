package attitude

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

const (
	// antiparallel is the swing angle past which the cross product is no
	// longer trusted for the rotation axis.
	antiparallel = 175 * math.Pi / 180
	minAngle     = 1e-9
)

// Error is the attitude error in (pitch, roll, yaw) order, radians.
type Error struct {
	Vector mgl64.Vec3
	// Angle is the magnitude of Vector.
	Angle float64
}

// Resolver computes shortest-path attitude errors.
type Resolver struct {
	// Mask gates each of (pitch, roll, yaw); zero disables the axis.
	Mask mgl64.Vec3
}

func NewResolver() Resolver {
	return Resolver{Mask: dynamo.Splat(1)}
}

// Resolve returns the rotation, expressed in body axes, that carries current
// onto desired. Pitch and yaw are solved together by swinging the nose onto
// the target forward axis; roll is the residual twist about that axis.
func (r Resolver) Resolve(current mgl64.Quat, desired Desired) Error {
	if desired.Null {
		return Error{}
	}
	cur, ok := unit(current)
	if !ok {
		return Error{}
	}
	want, ok := unit(desired.Orientation)
	if !ok {
		return Error{}
	}

	inv := cur.Inverse()
	fwd := inv.Rotate(want.Rotate(BodyForward))
	angle, axis := swing(fwd)

	var out mgl64.Vec3
	if angle > minAngle {
		out[dynamo.AxisPitch] = axis[0] * angle
		out[dynamo.AxisYaw] = axis[2] * angle
	}

	if !desired.FreeRoll {
		swung := mgl64.QuatIdent()
		if angle > minAngle {
			swung = mgl64.QuatRotate(angle, axis)
		}
		right := swung.Rotate(BodyRight)
		target := inv.Rotate(want.Rotate(BodyRight))
		out[dynamo.AxisRoll] = math.Atan2(right.Cross(target).Dot(fwd), right.Dot(target))
	}

	out = dynamo.MulVec(out, r.Mask)
	if !dynamo.Finite(out) {
		return Error{}
	}
	return Error{Vector: out, Angle: out.Len()}
}

// swing returns the angle and unit axis rotating body forward onto fwd, both
// in body axes. The axis always lies in the X-Z plane.
func swing(fwd mgl64.Vec3) (float64, mgl64.Vec3) {
	cross := BodyForward.Cross(fwd)
	angle := math.Atan2(cross.Len(), BodyForward.Dot(fwd))

	if angle > antiparallel {
		// Pick the larger of the two lateral components so the axis stays
		// well defined as the target approaches the tail.
		if math.Abs(fwd[2]) >= math.Abs(fwd[0]) {
			if fwd[2] < 0 {
				return angle, mgl64.Vec3{-1, 0, 0}
			}
			return angle, mgl64.Vec3{1, 0, 0}
		}
		if fwd[0] > 0 {
			return angle, mgl64.Vec3{0, 0, -1}
		}
		return angle, mgl64.Vec3{0, 0, 1}
	}

	if cross.Len() < minAngle {
		return 0, mgl64.Vec3{}
	}
	return angle, cross.Normalize()
}
