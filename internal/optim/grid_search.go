// Package optim searches controller tunables for the best closed-loop
// behavior on a given vessel.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/attsim/internal/config"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/metrics"
	"github.com/san-kum/attsim/internal/sim"
)

// Objective scores a run's metrics; lower is better.
type Objective func(m map[string]float64) float64

// MinimizeMetric scores by one metric. Missing or non-finite values lose.
func MinimizeMetric(name string) Objective {
	return func(m map[string]float64) float64 {
		v, ok := m[name]
		if !ok || !dynamo.IsFinite(v) {
			return math.Inf(1)
		}
		return v
	}
}

// MinimizeSettling prefers the fastest settling run; runs that never settle lose.
func MinimizeSettling() Objective {
	inner := MinimizeMetric("settling_time")
	return func(m map[string]float64) float64 {
		v := inner(m)
		if v < 0 {
			return math.Inf(1)
		}
		return v
	}
}

type Candidate struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64, workers int) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%d params with %d ranges: %w", len(params), len(ranges), dynamo.ErrParameterBounds)
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("param %s has no values: %w", params[i], dynamo.ErrParameterBounds)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search flies base once per grid point and returns every candidate in grid
// order along with the index of the best one.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective, log logging.Logger) ([]Candidate, int, error) {
	if log == nil {
		log = logging.Noop()
	}
	points := make([]map[string]float64, 0, g.Size())
	g.expand(0, map[string]float64{}, &points)

	fleet := sim.NewFleet(g.workers)
	for i, params := range points {
		cfg := *base
		for name, v := range params {
			if err := cfg.Controller.SetParam(name, v); err != nil {
				return nil, -1, err
			}
		}
		cfg.Vessel.Name = fmt.Sprintf("%s-grid-%d", base.Vessel.Name, i)
		if err := addJob(fleet, &cfg, log); err != nil {
			return nil, -1, err
		}
	}

	runs, err := fleet.Run(ctx)
	if err != nil {
		return nil, -1, err
	}

	candidates := make([]Candidate, len(runs))
	best := -1
	for i, r := range runs {
		candidates[i] = Candidate{Params: points[i], Score: objective(r.Metrics)}
		if best < 0 || candidates[i].Score < candidates[best].Score {
			best = i
		}
	}
	log.Info(ctx, "grid search finished",
		logging.Int("points", len(candidates)),
		logging.Float("best_score", candidates[best].Score))
	return candidates, best, nil
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[g.paramNames[depth]] = val
		g.expand(depth+1, next, out)
	}
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
	simCfg.SampleEvery = max(1, simCfg.Steps())
	fleet.Add(sm, simCfg)
	return nil
}
