package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

type State int

const (
	Disabled State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "disabled"
}

// Input is everything the controller consumes for one tick. All vectors are
// in (pitch, roll, yaw) order.
type Input struct {
	Error           mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Torque          mgl64.Vec3
	ResponseTime    mgl64.Vec3
	MOI             mgl64.Vec3
	Stick           Stick
	Dt              float64
}

// Diagnostics is a read-only snapshot of the last tick.
type Diagnostics struct {
	Error      mgl64.Vec3
	PIDAction  mgl64.Vec3
	Filtered   mgl64.Vec3
	Tf         mgl64.Vec3
	Kp         mgl64.Vec3
	Ki         mgl64.Vec3
	Kd         mgl64.Vec3
	Wlimit     mgl64.Vec3
	IntAccum   mgl64.Vec3
	Overridden [3]bool
}

type Output struct {
	// Command is the normalized actuation in [-1, 1] per axis.
	Command mgl64.Vec3
	// LostAuthority is set on the tick the controller disabled itself
	// because no axis had any torque.
	LostAuthority bool
	Diagnostics   Diagnostics
}

// AdaptivePID is a per-axis PID whose gains all follow from one filter time
// constant, retuned every tick from the live torque/inertia ratio.
type AdaptivePID struct {
	params Params
	state  State

	intAccum mgl64.Vec3
	lastAct  mgl64.Vec3
	tf       mgl64.Vec3

	diag Diagnostics
}

func NewAdaptivePID(p Params) *AdaptivePID {
	c := &AdaptivePID{params: p}
	c.Reset()
	return c
}

func (c *AdaptivePID) State() State { return c.state }

func (c *AdaptivePID) Params() Params { return c.params }

func (c *AdaptivePID) Diagnostics() Diagnostics { return c.diag }

// Enable moves a disabled controller to Active with cleared history.
func (c *AdaptivePID) Enable() {
	if c.state == Active {
		return
	}
	c.Reset()
	c.state = Active
}

func (c *AdaptivePID) Disable() {
	c.state = Disabled
}

// Reset clears the integral, the filter memory and the tuned time constants.
func (c *AdaptivePID) Reset() {
	c.intAccum = mgl64.Vec3{}
	c.lastAct = mgl64.Vec3{}
	c.tf = dynamo.Splat(dynamo.Clamp(c.params.Tf, c.params.TfMin, c.params.TfMax))
	c.diag = Diagnostics{Tf: c.tf}
}

// Update runs one tick. It never fails: degenerate numbers fall back to zero
// or to the previous output.
func (c *AdaptivePID) Update(in Input) Output {
	manual := in.Stick.overridden(c.params.OverrideTolerance)

	if c.state == Disabled {
		return Output{Command: c.pilot(mgl64.Vec3{}, in.Stick, manual), Diagnostics: c.diag}
	}
	if !dynamo.IsFinite(in.Dt) || in.Dt <= 0 {
		return Output{Command: c.lastAct, Diagnostics: c.diag}
	}

	torque := sanitizeTorque(in.Torque)
	if torque == (mgl64.Vec3{}) {
		c.state = Disabled
		return Output{
			Command:       c.pilot(mgl64.Vec3{}, in.Stick, manual),
			LostAuthority: true,
			Diagnostics:   c.diag,
		}
	}

	moi := sanitizeMOI(in.MOI)
	rt := finiteOrZero(in.ResponseTime)
	dt := in.Dt
	p := c.params

	d := Diagnostics{Overridden: manual}
	var pid, act mgl64.Vec3

	for i := 0; i < 3; i++ {
		if !dynamo.IsFinite(in.Error[i]) || !dynamo.IsFinite(in.AngularVelocity[i]) {
			act[i], pid[i] = c.lastAct[i], c.lastAct[i]
			continue
		}
		ratio := dynamo.SafeDiv(moi[i], torque[i])

		// Subtract the angle that would be covered while braking at full
		// torque from the current rate.
		l := moi[i] * in.AngularVelocity[i]
		stop := dynamo.SafeDiv(0.5*dynamo.Sign(l)*l*l, torque[i]*moi[i])
		e := dynamo.Clamp(in.Error[i]-stop, -math.Pi, math.Pi)
		d.Error[i] = e

		e *= ratio
		w := in.AngularVelocity[i] * ratio

		var tf float64
		if p.TfAutotune {
			tf = dynamo.Clamp(0.05*ratio*(1+2*math.Max(rt[i], 0)), 2*dt, p.TfMax)
			tf = dynamo.Clamp(tf, p.TfMin, p.TfMax)
		} else {
			tf = dynamo.Clamp(p.Tf, p.TfMin, p.TfMax)
		}

		kd := p.KdFactor / tf
		kp := kd / (p.KpFactor * math.Sqrt2 * tf)
		ki := kp / (p.KiFactor * math.Sqrt2 * tf)
		wlimit := math.Sqrt(ratio*math.Pi*p.KWLimit) * kd

		deriv := w * kd
		acc := c.intAccum[i]
		if math.Abs(deriv) > p.WindupRatio*p.OutputMax {
			acc *= p.WindupDecay
		} else {
			acc = dynamo.Clamp(acc+e*ki*dt, -p.IntegralLimit, p.IntegralLimit)
		}

		// w is the body rate, so damping opposes it.
		out := dynamo.Clamp(e*kp+acc, -wlimit, wlimit) - deriv
		out = dynamo.Clamp(out, -p.OutputMax, p.OutputMax)
		if math.Abs(out) < p.Deadband {
			out = 0
		}

		filtered := c.lastAct[i] + (out-c.lastAct[i])*dt/(tf+dt)
		if !dynamo.IsFinite(filtered) || !dynamo.IsFinite(acc) {
			act[i], pid[i] = c.lastAct[i], c.lastAct[i]
			continue
		}

		c.tf[i] = tf
		c.intAccum[i] = acc
		pid[i] = out
		act[i] = filtered

		d.Tf[i], d.Kp[i], d.Ki[i], d.Kd[i], d.Wlimit[i] = tf, kp, ki, kd, wlimit
	}

	// The pilot wins whole groups; their history is cleared so hand-back
	// starts from the stick position.
	for i := 0; i < 3; i++ {
		if manual[i] {
			c.intAccum[i] = 0
		}
	}
	act = c.pilot(act, in.Stick, manual)
	c.lastAct = act

	d.PIDAction = pid
	d.Filtered = act
	d.IntAccum = c.intAccum
	if d.Tf == (mgl64.Vec3{}) {
		d.Tf = c.tf
	}
	c.diag = d

	return Output{Command: act, Diagnostics: d}
}

func (c *AdaptivePID) pilot(cmd mgl64.Vec3, s Stick, manual [3]bool) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if manual[i] {
			cmd[i] = dynamo.Clamp(s.Input[i], -1, 1)
		}
	}
	return cmd
}

// GetParams exposes the tunables for live adjustment.
func (c *AdaptivePID) GetParams() map[string]float64 {
	return c.params.GetParams()
}

// SetParam adjusts one tunable; history is kept.
func (c *AdaptivePID) SetParam(name string, value float64) error {
	return c.params.SetParam(name, value)
}

func sanitizeTorque(v mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if !dynamo.IsFinite(v[i]) || v[i] < 0 {
			v[i] = 0
		}
	}
	return v
}

func sanitizeMOI(v mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if !dynamo.IsFinite(v[i]) || v[i] <= 0 {
			v[i] = 1
		}
	}
	return v
}

func finiteOrZero(v mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if !dynamo.IsFinite(v[i]) {
			v[i] = 0
		}
	}
	return v
}

var _ dynamo.Configurable = (*AdaptivePID)(nil)
