package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	AxisPitch = 0
	AxisRoll  = 1
	AxisYaw   = 2
)

var AxisNames = [3]string{"pitch", "roll", "yaw"}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite reports whether every component of v is a real number.
func Finite(v mgl64.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampVec clamps each component of v into [lo_i, hi_i].
func ClampVec(v, lo, hi mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		Clamp(v[0], lo[0], hi[0]),
		Clamp(v[1], lo[1], hi[1]),
		Clamp(v[2], lo[2], hi[2]),
	}
}

// ClampSym clamps each component of v into [-limit_i, limit_i].
func ClampSym(v, limit mgl64.Vec3) mgl64.Vec3 {
	return ClampVec(v, limit.Mul(-1), limit)
}

func Splat(s float64) mgl64.Vec3 {
	return mgl64.Vec3{s, s, s}
}

// SafeDiv divides a by b, returning zero when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if !IsFinite(r) {
		return 0
	}
	return r
}

// DivVec is the component-wise SafeDiv of a by b.
func DivVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{SafeDiv(a[0], b[0]), SafeDiv(a[1], b[1]), SafeDiv(a[2], b[2])}
}

func MulVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func AbsVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func SignVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{Sign(v[0]), Sign(v[1]), Sign(v[2])}
}

func MaxComponent(v mgl64.Vec3) float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}
