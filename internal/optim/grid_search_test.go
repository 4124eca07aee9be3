package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/attsim/internal/config"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
)

func TestObjectives(t *testing.T) {
	m := map[string]float64{"control_effort": 0.4, "settling_time": -1, "pointing_error": math.NaN()}
	if got := MinimizeMetric("control_effort")(m); got != 0.4 {
		t.Errorf("effort score = %v", got)
	}
	if got := MinimizeMetric("pointing_error")(m); !math.IsInf(got, 1) {
		t.Errorf("NaN metric score = %v, want +Inf", got)
	}
	if got := MinimizeMetric("missing")(m); !math.IsInf(got, 1) {
		t.Errorf("missing metric score = %v, want +Inf", got)
	}
	if got := MinimizeSettling()(m); !math.IsInf(got, 1) {
		t.Errorf("unsettled score = %v, want +Inf", got)
	}
}

func TestNewGridSearchInvalid(t *testing.T) {
	if _, err := NewGridSearch(nil, nil, 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("empty grid: err = %v", err)
	}
	if _, err := NewGridSearch([]string{"kd_factor"}, [][]float64{{}}, 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("empty range: err = %v", err)
	}
}

func TestGridSearch(t *testing.T) {
	base, err := config.GetPreset("probe")
	if err != nil {
		t.Fatal(err)
	}
	base.Duration = 5

	g, err := NewGridSearch([]string{"kp_factor", "kd_factor"}, [][]float64{{0.8, 1}, {0.5, 1}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 4 {
		t.Fatalf("size = %d, want 4", g.Size())
	}

	candidates, best, err := g.Search(context.Background(), base, MinimizeMetric("pointing_error"), nil)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(candidates))
	}
	if candidates[1].Params["kp_factor"] != 0.8 || candidates[1].Params["kd_factor"] != 1 {
		t.Errorf("grid order wrong: %v", candidates[1].Params)
	}
	for i, c := range candidates {
		if c.Score < candidates[best].Score {
			t.Errorf("candidate %d scored %v below best %v", i, c.Score, candidates[best].Score)
		}
	}
	if base.Controller != control.DefaultParams() {
		t.Error("search mutated the base controller params")
	}
}

func TestGridSearchUnknownParam(t *testing.T) {
	g, err := NewGridSearch([]string{"gain"}, [][]float64{{1}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = g.Search(context.Background(), config.DefaultConfig(), MinimizeSettling(), nil)
	if !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("err = %v, want ErrUnknownParam", err)
	}
}
