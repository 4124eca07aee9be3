// Package viz renders attitude telemetry in the terminal: asciigraph plots
// for recorded runs and a Bubble Tea live view that flies a simulation in
// real time.
//
// # Live view keys
//
//	w/s a/d q/e - nudge pitch, yaw and roll stick input
//	space       - center the stick and hand back to the autopilot
//	h           - hold the current attitude
//	x           - kill rotation
//	1-4         - surface heading north, east, south or west
//	arrows, +/- - orbit and zoom the camera
//	esc         - quit
package viz
