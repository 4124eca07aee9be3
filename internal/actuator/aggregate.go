package actuator

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// Regime classifies how quickly an axis responds to a change in command.
type Regime int

const (
	Fast Regime = iota
	Mixed
	Slow
)

func (r Regime) String() string {
	switch r {
	case Fast:
		return "fast"
	case Mixed:
		return "mixed"
	case Slow:
		return "slow"
	}
	return "unknown"
}

const (
	fastBelow = 0.1
	slowAbove = 0.9
)

// Budget is the net torque available on each axis for one tick.
type Budget struct {
	// Torque is non-negative per axis; both directions are assumed equal.
	Torque mgl64.Vec3
	// ResponseTime is the torque-weighted mean actuation lag per axis, seconds.
	ResponseTime mgl64.Vec3
	// SlowFraction is the share of Torque supplied by lagging actuators.
	SlowFraction mgl64.Vec3
	// Dropped counts descriptors discarded for carrying invalid numbers.
	Dropped int
}

func (b Budget) Regime(axis int) Regime {
	f := b.SlowFraction[axis]
	switch {
	case f < fastBelow:
		return Fast
	case f > slowAbove:
		return Slow
	}
	return Mixed
}

// Empty reports whether no axis has any authority.
func (b Budget) Empty() bool {
	return b.Torque[0] <= 0 && b.Torque[1] <= 0 && b.Torque[2] <= 0
}

// Aggregate sums the torque contribution of every descriptor.
func Aggregate(descs []Descriptor) Budget {
	var b Budget
	var weighted, slow mgl64.Vec3

	for _, d := range descs {
		if !d.Valid() {
			b.Dropped++
			continue
		}
		contrib := d.MaxTorque()
		b.Torque = b.Torque.Add(contrib)
		if d.ResponseTime > 0 {
			weighted = weighted.Add(contrib.Mul(d.ResponseTime))
			slow = slow.Add(contrib)
		}
	}

	b.ResponseTime = dynamo.DivVec(weighted, b.Torque)
	b.SlowFraction = dynamo.DivVec(slow, b.Torque)
	return b
}
