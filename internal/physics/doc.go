// Package physics provides the plant the attitude controller flies.
//
// [RigidBody] implements [dynamo.System] with Euler's rotational equations
// and quaternion kinematics. It also implements [dynamo.Configurable] for
// runtime inertia changes and [dynamo.Hamiltonian] for monitoring energy
// drift of torque-free runs:
//
//	body := physics.NewRigidBody(mgl64.Vec3{1000, 800, 1000})
//	x := physics.NewState(mgl64.QuatIdent(), mgl64.Vec3{0, 0, 0.1})
//	x = integrators.NewRK4().Step(body, x, dynamo.Control{0, 0, 0}, 0, 0.02)
package physics
