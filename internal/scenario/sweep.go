package scenario

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/config"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/metrics"
	"github.com/san-kum/attsim/internal/sim"
)

// Sweep varies one controller tunable across [Min, Max] in Steps evenly
// spaced values and flies the base configuration once per value.
type Sweep struct {
	Param   string
	Min     float64
	Max     float64
	Steps   int
	Workers int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	Final   float64
}

func RunSweep(ctx context.Context, base *config.Config, sw Sweep, log logging.Logger) ([]SweepResult, error) {
	if sw.Steps < 2 || !(sw.Max > sw.Min) {
		return nil, fmt.Errorf("sweep %s over [%g, %g] in %d steps: %w", sw.Param, sw.Min, sw.Max, sw.Steps, dynamo.ErrParameterBounds)
	}
	if log == nil {
		log = logging.Noop()
	}

	fleet := sim.NewFleet(sw.Workers)
	values := make([]float64, sw.Steps)
	step := (sw.Max - sw.Min) / float64(sw.Steps-1)
	for i := range values {
		values[i] = sw.Min + float64(i)*step

		cfg := *base
		if err := cfg.Controller.SetParam(sw.Param, values[i]); err != nil {
			return nil, err
		}
		cfg.Vessel.Name = fmt.Sprintf("%s-%s-%d", base.Vessel.Name, sw.Param, i)
		if err := addJob(fleet, &cfg, log); err != nil {
			return nil, err
		}
	}

	runs, err := fleet.Run(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{Value: values[i], Metrics: r.Metrics, Final: r.Final.ErrorAngle}
	}
	return results, nil
}

// MonteCarlo flies the base configuration from randomly perturbed initial
// attitudes and rates.
type MonteCarlo struct {
	Trials int
	// AttitudeSpread is the largest perturbation per Euler angle, degrees.
	AttitudeSpread float64
	// RateSpread is the largest perturbation per body rate, rad/s.
	RateSpread float64
	// SettleBand is the error angle a trial must finish inside, radians.
	SettleBand float64
	Seed       int64
	Workers    int
}

type MonteCarloResult struct {
	Trial    int
	Attitude config.Angles
	Rate     mgl64.Vec3
	Final    float64
	Settled  bool
}

func RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarlo, log logging.Logger) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("trials=%d: %w", mc.Trials, dynamo.ErrParameterBounds)
	}
	if log == nil {
		log = logging.Noop()
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	perturb := func(spread float64) float64 { return (rng.Float64()*2 - 1) * spread }

	fleet := sim.NewFleet(mc.Workers)
	results := make([]MonteCarloResult, mc.Trials)
	for trial := range results {
		cfg := *base
		a := base.Vessel.Attitude
		cfg.Vessel.Attitude = config.Angles{
			Heading: a.Heading + perturb(mc.AttitudeSpread),
			Pitch:   a.Pitch + perturb(mc.AttitudeSpread),
			Roll:    a.Roll + perturb(mc.AttitudeSpread),
		}
		cfg.Vessel.Rate = base.Vessel.Rate.Add(mgl64.Vec3{perturb(mc.RateSpread), perturb(mc.RateSpread), perturb(mc.RateSpread)})
		cfg.Vessel.Name = fmt.Sprintf("%s-mc-%d", base.Vessel.Name, trial)
		results[trial] = MonteCarloResult{Trial: trial, Attitude: cfg.Vessel.Attitude, Rate: cfg.Vessel.Rate}
		if err := addJob(fleet, &cfg, log); err != nil {
			return nil, err
		}
	}

	runs, err := fleet.Run(ctx)
	if err != nil {
		return nil, err
	}
	for i, r := range runs {
		results[i].Final = r.Final.ErrorAngle
		results[i].Settled = dynamo.IsFinite(r.Final.ErrorAngle) && r.Final.ErrorAngle <= mc.SettleBand
	}
	return results, nil
}

// MonteCarloStats counts settled and unsettled trials.
func MonteCarloStats(results []MonteCarloResult) (settled int, unsettled int) {
	for _, r := range results {
		if r.Settled {
			settled++
		} else {
			unsettled++
		}
	}
	return
}

func addJob(fleet *sim.Fleet, cfg *config.Config, log logging.Logger) error {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	sm, err := cfg.NewSimulator(log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(sm.PlantMOI()) {
		sm.AddMetric(m)
	}
	simCfg.SampleEvery = max(1, simCfg.Steps()/200)
	fleet.Add(sm, simCfg)
	return nil
}
