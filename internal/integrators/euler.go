package integrators

import "github.com/san-kum/attsim/internal/dynamo"

// Euler is the explicit first-order method. Cheap, and only stable for
// small steps relative to the fastest rotation.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return project(dyn, next)
}
