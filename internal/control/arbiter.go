package control

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// Authority is the coarse policy governing how much rated wheel torque may be used.
type Authority int

const (
	Nerfed Authority = iota
	Locked
	Stock
)

func (a Authority) String() string {
	switch a {
	case Nerfed:
		return "nerfed"
	case Locked:
		return "locked"
	case Stock:
		return "stock"
	}
	return fmt.Sprintf("authority(%d)", int(a))
}

type ArbiterParams struct {
	NerfFraction   float64 `yaml:"nerf_fraction"`
	LockEnterAngle float64 `yaml:"lock_enter_angle"`
	LockEnterRate  float64 `yaml:"lock_enter_rate"`
	LockExitAngle  float64 `yaml:"lock_exit_angle"`
	LockFullAngle  float64 `yaml:"lock_full_angle"`
	RampTime       float64 `yaml:"ramp_time"`
}

func DefaultArbiterParams() ArbiterParams {
	return ArbiterParams{
		NerfFraction:   0.2,
		LockEnterAngle: 0.4,
		LockEnterRate:  0.05,
		LockExitAngle:  10 * math.Pi / 180,
		LockFullAngle:  2 * math.Pi / 180,
		RampTime:       3,
	}
}

func (p ArbiterParams) Validate() error {
	switch {
	case !(p.NerfFraction >= 0 && p.NerfFraction <= 1):
		return fmt.Errorf("nerf_fraction: %w", dynamo.ErrParameterBounds)
	case !(p.LockEnterAngle > 0):
		return fmt.Errorf("lock_enter_angle: %w", dynamo.ErrParameterBounds)
	case !(p.LockEnterRate > 0):
		return fmt.Errorf("lock_enter_rate: %w", dynamo.ErrParameterBounds)
	case !(p.LockFullAngle >= 0 && p.LockExitAngle > p.LockFullAngle):
		return fmt.Errorf("lock_exit_angle must exceed lock_full_angle: %w", dynamo.ErrParameterBounds)
	case !(p.RampTime >= 0) || math.IsInf(p.RampTime, 0):
		return fmt.Errorf("ramp_time: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// ArbiterInput is the per-tick view the arbiter decides from.
type ArbiterInput struct {
	Enabled       bool
	Manual        bool
	KillRotation  bool
	TargetChanged bool
	Error         mgl64.Vec3
	Angle         float64
	Rate          float64
	Dt            float64
}

// Arbiter picks an authority mode each tick and ramps the per-axis torque
// scale toward it.
//
// Lock is exited once the error grows past LockExitAngle. After an exit the
// lock stays disarmed until the error is back inside LockExitAngle, so a
// wide entry envelope cannot flap in and out of lock on successive ticks.
type Arbiter struct {
	params    ArbiterParams
	mode      Authority
	armed     bool
	authority mgl64.Vec3
}

func NewArbiter(p ArbiterParams) *Arbiter {
	a := &Arbiter{params: p}
	a.Reset()
	return a
}

func (a *Arbiter) Params() ArbiterParams { return a.params }

func (a *Arbiter) Mode() Authority { return a.mode }

// Authority is the current per-axis torque scale in [0, 1].
func (a *Arbiter) Authority() mgl64.Vec3 { return a.authority }

// Reset returns to Nerfed at the nerfed scale with the lock armed.
func (a *Arbiter) Reset() {
	a.mode = Nerfed
	a.armed = true
	a.authority = dynamo.Splat(a.params.NerfFraction)
}

func (a *Arbiter) Update(in ArbiterInput) mgl64.Vec3 {
	if in.TargetChanged {
		a.armed = true
	}
	a.mode = a.next(in)

	target := dynamo.Splat(a.params.NerfFraction)
	switch a.mode {
	case Stock:
		target = dynamo.Splat(1)
	case Locked:
		for i := 0; i < 3; i++ {
			target[i] = a.lockCurve(math.Abs(in.Error[i]))
		}
	}

	if !dynamo.IsFinite(in.Dt) || in.Dt <= 0 {
		return a.authority
	}
	step := 1.0
	if a.params.RampTime > 0 {
		step = in.Dt / a.params.RampTime
	}
	for i := 0; i < 3; i++ {
		d := dynamo.Clamp(target[i]-a.authority[i], -step, step)
		a.authority[i] = dynamo.Clamp(a.authority[i]+d, 0, 1)
	}
	return a.authority
}

func (a *Arbiter) next(in ArbiterInput) Authority {
	if !in.Enabled || in.Manual {
		return Nerfed
	}
	if in.KillRotation {
		return Stock
	}

	angle := in.Angle
	if !dynamo.IsFinite(angle) {
		angle = math.Inf(1)
	}

	if a.mode == Locked {
		if angle > a.params.LockExitAngle {
			a.armed = false
			return Nerfed
		}
		return Locked
	}

	if !a.armed && angle < a.params.LockExitAngle {
		a.armed = true
	}
	if a.armed && angle < a.params.LockEnterAngle && math.Abs(in.Rate) < a.params.LockEnterRate {
		return Locked
	}
	return Nerfed
}

// lockCurve is 1 inside LockFullAngle, 0 beyond LockExitAngle, smoothstep between.
func (a *Arbiter) lockCurve(err float64) float64 {
	lo, hi := a.params.LockFullAngle, a.params.LockExitAngle
	if err <= lo {
		return 1
	}
	if err >= hi {
		return 0
	}
	x := (hi - err) / (hi - lo)
	return x * x * (3 - 2*x)
}
