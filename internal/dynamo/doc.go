// Package dynamo provides the shared primitives of the attitude simulator.
//
// The package defines the small vocabulary every other package speaks:
//
//   - [State]: flat vector representing plant state
//   - [System]: interface for plants (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Configurable]: flat key-value tunables
//
// It also carries the [mgl64.Vec3] helpers used throughout the control core
// (finite checks, guarded division, clamping) and the domain sentinel errors.
//
// # Axis convention
//
// Body vectors are expressed with X pointing right (pitch axis), Y forward
// along the nose (roll axis) and Z out of the top (yaw axis). A vector in
// (pitch, roll, yaw) order is therefore simply (X, Y, Z).
package dynamo
