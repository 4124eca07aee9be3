package sim

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/physics"
	"github.com/san-kum/attsim/internal/vessel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/san-kum/attsim/internal/sim"

// Simulator flies one vessel in closed loop: the attitude core commands the
// actuators, the actuators lag toward their targets and the rigid body
// integrates the resulting torque.
type Simulator struct {
	vessel     Vessel
	core       *vessel.Core
	plant      *physics.RigidBody
	integrator dynamo.Integrator
	log        logging.Logger
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(v Vessel, core *vessel.Core, integrator dynamo.Integrator, log logging.Logger) (*Simulator, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if core == nil {
		return nil, fmt.Errorf("vessel %q: nil core", v.Name)
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Simulator{
		vessel:     v,
		core:       core,
		plant:      physics.NewRigidBody(v.PlantMOI()),
		integrator: integrator,
		log:        log.With(logging.String("vessel", v.Name)),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Core() *vessel.Core { return s.core }

// PlantMOI is the principal inertia the rigid body integrates with.
func (s *Simulator) PlantMOI() mgl64.Vec3 { return s.plant.I }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	return s.RunWithCallback(ctx, cfg, nil)
}

// RunWithCallback is Run with a hook called after every tick; returning false
// stops the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(dynamo.Sample) bool) (result *Result, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.run", trace.WithAttributes(
		attribute.String("vessel", s.vessel.Name),
		attribute.Float64("dt", cfg.Dt),
		attribute.Float64("duration", cfg.Duration),
	))
	defer func() {
		if result != nil {
			span.SetAttributes(
				attribute.Int("steps_taken", result.StepsTaken),
				attribute.Int("resets", result.Resets),
				attribute.Float64("final_error", result.Final.ErrorAngle),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	steps := cfg.Steps()
	every := max(cfg.SampleEvery, 1)
	result = &Result{
		Vessel:  s.vessel.Name,
		Samples: make([]dynamo.Sample, 0, steps/every+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	q0 := s.vessel.Orientation
	if q0.Len() == 0 {
		q0 = mgl64.QuatIdent()
	}
	x := physics.NewState(q0, s.vessel.Rate)

	var mode attitude.Mode = attitude.KillRotation{}
	if cfg.Mode != nil {
		mode = cfg.Mode
	}
	var stick control.Stick
	events := cfg.Timeline.Sorted()
	next := 0

	applied := make([]mgl64.Vec3, len(s.vessel.Actuators))
	moi := s.plant.I
	dt := cfg.Dt
	t := 0.0

	s.core.Engage(ctx)
	s.log.Info(ctx, "simulation started", logging.Int("steps", steps), logging.Float("dt", dt))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, &dynamo.SimulationError{Step: i, Time: t, Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())}
		default:
		}

		for next < len(events) && events[next].At <= t+dt/2 {
			ev := events[next]
			if ev.Mode != nil {
				mode = ev.Mode
			}
			if ev.Stick != nil {
				stick = *ev.Stick
			}
			if ev.Engage != nil {
				if *ev.Engage {
					s.core.Engage(ctx)
				} else {
					s.core.Disengage(ctx)
				}
			}
			for name, v := range ev.Params {
				s.core.SetParam(name, v)
			}
			next++
		}
		if cfg.Pilot != nil {
			st, md := cfg.Pilot.Poll(t)
			stick = st
			if md != nil {
				mode = md
			}
		}

		q := physics.Orientation(x)
		w := physics.Rate(x)
		out := s.core.Tick(ctx, vessel.Input{
			Orientation:     q,
			AngularVelocity: w,
			Mode:            mode,
			Actuators:       s.vessel.Actuators,
			Bodies:          s.vessel.Bodies,
			MOI:             moi,
			Stick:           stick,
			Dt:              dt,
		})
		if out.Reset {
			result.Resets++
		}

		torque := s.actuate(out, applied, dt)

		sample := dynamo.Sample{
			Time:        t,
			Orientation: q,
			Rate:        w,
			Error:       out.Error.Vector,
			ErrorAngle:  out.Error.Angle,
			Command:     out.Command,
			Torque:      torque,
			Authority:   out.Authority,
			Tf:          out.Controller.Tf,
			Mode:        out.Mode.String(),
			WheelFill:   s.core.Controller().Saturation.PeakFill(),
			Manual:      out.Manual,
			Reset:       out.Reset,
		}

		newX := s.integrator.Step(s.plant, x, dynamo.Control(torque[:]), t, dt)
		if cfg.ValidateState && !newX.IsValid() {
			s.log.Error(ctx, "state diverged", logging.Int("step", i), logging.Float("t", t))
			return result, &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
		}

		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.vessel.Name, sample)
		}
		if i%every == 0 {
			result.Samples = append(result.Samples, sample)
		}
		result.Final = sample
		result.StepsTaken++

		x = newX
		t += dt

		if callback != nil && !callback(sample) {
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.log.Info(ctx, "simulation finished",
		logging.Int("steps", result.StepsTaken),
		logging.Float("error", result.Final.ErrorAngle),
		logging.Int("resets", result.Resets))
	return result, nil
}

// actuate moves every actuator's delivered torque toward what the core asked
// of it, lagging by the actuator's response time, and returns the sum.
func (s *Simulator) actuate(out vessel.Output, applied []mgl64.Vec3, dt float64) mgl64.Vec3 {
	var total mgl64.Vec3
	for i, raw := range s.vessel.Actuators {
		if !raw.Valid() || i >= len(out.Effective) {
			applied[i] = mgl64.Vec3{}
			continue
		}
		target := out.Effective[i].Torque(out.Command)
		alpha := dt / (raw.ResponseTime + dt)
		applied[i] = applied[i].Add(target.Sub(applied[i]).Mul(alpha))
		total = total.Add(applied[i])
	}
	return total
}
