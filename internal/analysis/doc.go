// Package analysis characterizes recorded attitude telemetry.
//
//   - [NewSpectrum]: one-sided amplitude spectrum of a uniformly sampled signal
//   - [Analyze]: per-axis ringing report (dominant frequency, overshoot, zero crossings)
//   - [NewPhasePortrait]: error against body rate for one axis
//
// # Ringing
//
// A well tuned loop settles with little overshoot and few zero crossings.
// A dominant frequency near the controller bandwidth with many crossings
// points at too little damping:
//
//	reports, err := analysis.Analyze(samples)
//	for _, r := range reports {
//	    if r.Overshoot > 0.2 {
//	        // raise kd_factor
//	    }
//	}
package analysis
