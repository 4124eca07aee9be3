// Package vessel runs the full attitude pipeline for one controlled body.
package vessel

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/inertia"
	"github.com/san-kum/attsim/internal/logging"
)

type Config struct {
	Name       string                    `yaml:"name"`
	Controller control.Params            `yaml:"controller"`
	Arbiter    control.ArbiterParams     `yaml:"arbiter"`
	Saturation actuator.SaturationParams `yaml:"saturation"`
	// Mask gates (pitch, roll, yaw) in the error resolver.
	Mask          mgl64.Vec3 `yaml:"mask"`
	JumpThreshold float64    `yaml:"jump_threshold"`
}

func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		Controller:    control.DefaultParams(),
		Arbiter:       control.DefaultArbiterParams(),
		Saturation:    actuator.DefaultSaturationParams(),
		Mask:          dynamo.Splat(1),
		JumpThreshold: attitude.DefaultJumpThreshold,
	}
}

func (c Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	if err := c.Arbiter.Validate(); err != nil {
		return fmt.Errorf("arbiter: %w", err)
	}
	s := c.Saturation
	if !(s.Threshold >= 0 && s.Threshold < 1) || !(s.DesatRate >= 0) {
		return fmt.Errorf("saturation: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// ControllerState is every piece of cross-tick state owned by one body.
type ControllerState struct {
	PID        *control.AdaptivePID
	Arbiter    *control.Arbiter
	Saturation *actuator.Saturation
	Tracker    *attitude.Tracker
	Resolver   attitude.Resolver
}

// Input is what the host supplies each tick.
type Input struct {
	Orientation     mgl64.Quat
	AngularVelocity mgl64.Vec3
	Mode            attitude.Mode
	Actuators       []actuator.Descriptor
	// Bodies, when present, are used to estimate inertia; otherwise MOI is
	// taken as given.
	Bodies    []inertia.SubBody
	Reference mgl64.Quat
	MOI       mgl64.Vec3
	Stick     control.Stick
	Dt        float64
}

type Output struct {
	Command   mgl64.Vec3
	Authority mgl64.Vec3
	Mode      control.Authority
	State     control.State
	// Effective are the actuators as they should be driven this tick, with
	// wheel derating and authority already applied.
	Effective  []actuator.Descriptor
	Budget     actuator.Budget
	MOI        mgl64.Vec3
	Desired    attitude.Desired
	Error      attitude.Error
	Controller control.Diagnostics
	// Reset is set when a target jump cleared the controller history.
	Reset  bool
	Manual bool
}

// Core is the attitude pipeline for a single vessel. It is not safe for
// concurrent use; separate vessels use separate cores.
type Core struct {
	name    string
	log     logging.Logger
	state   ControllerState
	engaged bool
	pending []*pendingAction

	lastMode  control.Authority
	lastState control.State
}

func New(cfg Config, log logging.Logger) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	mask := cfg.Mask
	if mask == (mgl64.Vec3{}) {
		mask = dynamo.Splat(1)
	}
	return &Core{
		name: cfg.Name,
		log:  log.With(logging.String("vessel", cfg.Name)),
		state: ControllerState{
			PID:        control.NewAdaptivePID(cfg.Controller),
			Arbiter:    control.NewArbiter(cfg.Arbiter),
			Saturation: actuator.NewSaturation(cfg.Saturation),
			Tracker:    attitude.NewTracker(cfg.JumpThreshold),
			Resolver:   attitude.Resolver{Mask: mask},
		},
	}, nil
}

func (c *Core) Name() string { return c.name }

func (c *Core) Engaged() bool { return c.engaged }

// Controller exposes the owned state for diagnostics and tuning.
func (c *Core) Controller() *ControllerState { return &c.state }

// Engage asks the pipeline to fly. The controller becomes active on the
// next tick with usable torque.
func (c *Core) Engage(ctx context.Context) {
	if c.engaged {
		return
	}
	c.engaged = true
	c.state.Tracker.Reset()
	c.state.Arbiter.Reset()
	c.log.Info(ctx, "autopilot engaged")
}

func (c *Core) Disengage(ctx context.Context) {
	if !c.engaged {
		return
	}
	c.engaged = false
	c.state.PID.Disable()
	c.log.Info(ctx, "autopilot disengaged")
}

// Tick runs the pipeline once: budget, inertia, error, PID, arbitration,
// then wheel momentum bookkeeping for the command just issued.
func (c *Core) Tick(ctx context.Context, in Input) Output {
	st := &c.state
	manual := in.Stick.Active(st.PID.Params().OverrideTolerance)
	c.runPending(ctx, manual)

	authority := st.Arbiter.Authority()
	effective := c.effective(in.Actuators, authority)
	budget := actuator.Aggregate(effective)
	if budget.Dropped > 0 {
		c.log.Debug(ctx, "dropped invalid actuators", logging.Int("count", budget.Dropped))
	}

	moi := in.MOI
	if len(in.Bodies) > 0 {
		ref := in.Reference
		if ref.Len() == 0 {
			ref = mgl64.QuatIdent()
		}
		moi = inertia.Estimate(in.Bodies, ref)
	}

	desired := attitude.Resolve(in.Mode, in.Orientation)
	jump := st.Tracker.Observe(desired)
	if jump {
		st.PID.Reset()
		st.Saturation.Reset()
		c.log.Debug(ctx, "target jumped, controller history cleared")
	}
	attErr := st.Resolver.Resolve(in.Orientation, desired)

	if c.engaged && st.PID.State() == control.Disabled && !budget.Empty() {
		st.PID.Enable()
		st.Saturation.Reset()
	}

	res := st.PID.Update(control.Input{
		Error:           attErr.Vector,
		AngularVelocity: in.AngularVelocity,
		Torque:          budget.Torque,
		ResponseTime:    budget.ResponseTime,
		MOI:             moi,
		Stick:           in.Stick,
		Dt:              in.Dt,
	})
	if res.LostAuthority {
		c.log.Warn(ctx, "no torque available, controller disabled")
	}

	authority = st.Arbiter.Update(control.ArbiterInput{
		Enabled:       st.PID.State() == control.Active,
		Manual:        manual,
		KillRotation:  desired.Null,
		TargetChanged: jump,
		Error:         attErr.Vector,
		Angle:         attErr.Angle,
		Rate:          in.AngularVelocity.Len(),
		Dt:            in.Dt,
	})
	c.logTransitions(ctx)

	effective = c.effective(in.Actuators, authority)
	c.integrateWheels(in.Actuators, effective, res.Command, in.Dt)

	return Output{
		Command:    res.Command,
		Authority:  authority,
		Mode:       st.Arbiter.Mode(),
		State:      st.PID.State(),
		Effective:  effective,
		Budget:     budget,
		MOI:        moi,
		Desired:    desired,
		Error:      attErr,
		Controller: res.Diagnostics,
		Reset:      jump,
		Manual:     manual,
	}
}

// effective derates wheels by stored momentum and scales them by authority.
// Other actuators are passed through unchanged.
func (c *Core) effective(descs []actuator.Descriptor, authority mgl64.Vec3) []actuator.Descriptor {
	out := c.state.Saturation.Derate(descs)
	for i, d := range out {
		if d.Kind == actuator.ReactionWheel {
			out[i] = d.Scaled(authority)
		}
	}
	return out
}

func (c *Core) integrateWheels(raw, effective []actuator.Descriptor, cmd mgl64.Vec3, dt float64) {
	for i, d := range effective {
		if d.Kind != actuator.ReactionWheel || !raw[i].Valid() {
			continue
		}
		c.state.Saturation.Step(d.Name, d.Torque(cmd), raw[i].MaxTorque(), dt)
	}
}

func (c *Core) logTransitions(ctx context.Context) {
	st := &c.state
	if s := st.PID.State(); s != c.lastState {
		c.log.Info(ctx, "controller state changed",
			logging.Stringer("from", c.lastState), logging.Stringer("to", s))
		c.lastState = s
	}
	if m := st.Arbiter.Mode(); m != c.lastMode {
		c.log.Debug(ctx, "authority mode changed",
			logging.Stringer("from", c.lastMode), logging.Stringer("to", m))
		c.lastMode = m
	}
}
