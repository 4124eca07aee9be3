package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// RigidBody is a torque-driven free rigid body described by Euler's
// equations about its principal axes.
//
// State:   [qw, qx, qy, qz, wx, wy, wz]  body-to-world quaternion, body rates
// Control: [tx, ty, tz]                  body-frame torque
type RigidBody struct {
	I mgl64.Vec3
}

func NewRigidBody(moi mgl64.Vec3) *RigidBody {
	return &RigidBody{I: moi}
}

func (b *RigidBody) StateDim() int   { return 7 }
func (b *RigidBody) ControlDim() int { return 3 }

func (b *RigidBody) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	if len(x) < 7 {
		return make(dynamo.State, 7)
	}
	q := Orientation(x)
	w := Rate(x)

	var tau mgl64.Vec3
	copy(tau[:], u)

	// q' = 1/2 q ⊗ (0, w)
	dq := q.Mul(mgl64.Quat{W: 0, V: w}).Scale(0.5)

	// I w' = tau - w × (I w)
	iw := dynamo.MulVec(b.I, w)
	rhs := tau.Sub(w.Cross(iw))
	dw := dynamo.DivVec(rhs, b.I)

	return dynamo.State{dq.W, dq.V[0], dq.V[1], dq.V[2], dw[0], dw[1], dw[2]}
}

// Normalize keeps the attitude quaternion at unit length.
func (b *RigidBody) Normalize(x dynamo.State) {
	if len(x) < 4 {
		return
	}
	n := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3])
	if n == 0 || !dynamo.IsFinite(n) {
		x[0], x[1], x[2], x[3] = 1, 0, 0, 0
		return
	}
	for i := 0; i < 4; i++ {
		x[i] /= n
	}
}

// Energy is the rotational kinetic energy.
func (b *RigidBody) Energy(x dynamo.State) float64 {
	if len(x) < 7 {
		return 0
	}
	w := Rate(x)
	return 0.5 * dynamo.MulVec(b.I, w).Dot(w)
}

// Momentum is the body-frame angular momentum I·w.
func (b *RigidBody) Momentum(x dynamo.State) mgl64.Vec3 {
	return dynamo.MulVec(b.I, Rate(x))
}

func (b *RigidBody) GetParams() map[string]float64 {
	return map[string]float64{"moi_pitch": b.I[0], "moi_roll": b.I[1], "moi_yaw": b.I[2]}
}

func (b *RigidBody) SetParam(name string, v float64) error {
	if !dynamo.IsFinite(v) || v <= 0 {
		return fmt.Errorf("%s=%g: %w", name, v, dynamo.ErrParameterBounds)
	}
	switch name {
	case "moi_pitch":
		b.I[0] = v
	case "moi_roll":
		b.I[1] = v
	case "moi_yaw":
		b.I[2] = v
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}

// NewState packs an orientation and body rate into a state vector.
func NewState(q mgl64.Quat, w mgl64.Vec3) dynamo.State {
	q = q.Normalize()
	return dynamo.State{q.W, q.V[0], q.V[1], q.V[2], w[0], w[1], w[2]}
}

func Orientation(x dynamo.State) mgl64.Quat {
	return mgl64.Quat{W: x[0], V: mgl64.Vec3{x[1], x[2], x[3]}}
}

func Rate(x dynamo.State) mgl64.Vec3 {
	return mgl64.Vec3{x[4], x[5], x[6]}
}

var (
	_ dynamo.System       = (*RigidBody)(nil)
	_ dynamo.Hamiltonian  = (*RigidBody)(nil)
	_ dynamo.Configurable = (*RigidBody)(nil)
)
