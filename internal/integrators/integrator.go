// Package integrators advances a dynamo.System by one fixed step.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/attsim/internal/dynamo"
)

// Normalizer is implemented by systems whose state drifts off a constraint
// manifold, such as a unit quaternion, and must be projected back after
// every step.
type Normalizer interface {
	Normalize(x dynamo.State)
}

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator by name.
func New(name string) (dynamo.Integrator, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrator %q: %w", name, dynamo.ErrUnknownParam)
	}
	return mk(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func project(dyn dynamo.System, x dynamo.State) dynamo.State {
	if n, ok := dyn.(Normalizer); ok {
		n.Normalize(x)
	}
	return x
}
