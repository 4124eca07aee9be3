// Package control turns attitude error into normalized actuation.
//
//   - [AdaptivePID]: per-axis PID retuned each tick from the torque budget
//   - [Stick]: manual override gate, pilot wins whole axis groups
//   - [Arbiter]: Nerfed/Locked/Stock authority with linear ramping
//
// # Tuning law
//
// Every gain follows from the filter time constant Tf:
//
//	Kd = kd_factor / Tf
//	Kp = Kd / (kp_factor·√2·Tf)
//	Ki = Kp / (ki_factor·√2·Tf)
//
// [Params] and [AdaptivePID] implement [dynamo.Configurable] for live tuning.
package control
