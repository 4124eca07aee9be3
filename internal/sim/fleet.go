package sim

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Job is one vessel's run within a fleet.
type Job struct {
	Sim    *Simulator
	Config Config
}

// Fleet runs independent vessels concurrently. Each job owns its own
// simulator and core, so nothing is shared between goroutines.
type Fleet struct {
	jobs    []Job
	workers int
}

func NewFleet(workers int) *Fleet {
	return &Fleet{workers: workers}
}

func (f *Fleet) Add(sim *Simulator, cfg Config) {
	f.jobs = append(f.jobs, Job{Sim: sim, Config: cfg})
}

func (f *Fleet) Len() int { return len(f.jobs) }

// Run waits for every job. The first failure cancels the rest; results keep
// job order and hold whatever the failed runs managed to record.
func (f *Fleet) Run(ctx context.Context) ([]*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.fleet")
	span.SetAttributes(attribute.Int("jobs", len(f.jobs)), attribute.Int("workers", f.workers))
	defer span.End()

	results := make([]*Result, len(f.jobs))
	g, ctx := errgroup.WithContext(ctx)
	if f.workers > 0 {
		g.SetLimit(f.workers)
	}
	for i, job := range f.jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := job.Sim.Run(ctx, job.Config)
			results[i] = res
			if err != nil {
				return fmt.Errorf("vessel %q: %w", job.Sim.vessel.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
