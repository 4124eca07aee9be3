// Package scenario scripts closed-loop runs: a base vessel configuration
// followed by timed steps that change the attitude mode, the pilot's stick,
// engagement or controller tunables.
package scenario

import (
	"context"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/config"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/metrics"
	"github.com/san-kum/attsim/internal/sim"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Preset names the base configuration; probe when empty.
	Preset string  `yaml:"preset"`
	Dt     float64 `yaml:"dt"`
	Steps  []Step  `yaml:"steps"`
}

// Step holds its inputs for Duration seconds. Nil fields carry over from
// the previous step.
type Step struct {
	Duration float64            `yaml:"duration"`
	Mode     *config.ModeConfig `yaml:"mode,omitempty"`
	Stick    *StickConfig       `yaml:"stick,omitempty"`
	Engage   *bool              `yaml:"engage,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
}

// StickConfig is pilot input in [-1, 1] per axis.
type StickConfig struct {
	Pitch float64 `yaml:"pitch"`
	Roll  float64 `yaml:"roll"`
	Yaw   float64 `yaml:"yaw"`
}

func (s StickConfig) Stick() control.Stick {
	return control.Stick{Input: mgl64.Vec3{s.Pitch, s.Roll, s.Yaw}}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps: %w", s.Name, dynamo.ErrParameterBounds)
	}
	for i, st := range s.Steps {
		if !dynamo.IsFinite(st.Duration) || st.Duration <= 0 {
			return fmt.Errorf("step %d duration=%g: %w", i+1, st.Duration, dynamo.ErrParameterBounds)
		}
		if st.Mode != nil {
			if _, err := st.Mode.Build(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Duration is the total scripted time.
func (s *Scenario) Duration() float64 {
	total := 0.0
	for _, st := range s.Steps {
		total += st.Duration
	}
	return total
}

// Build resolves the base configuration and turns the steps into a timeline.
func (s *Scenario) Build() (*config.Config, sim.Config, error) {
	if err := s.Validate(); err != nil {
		return nil, sim.Config{}, err
	}
	preset := s.Preset
	if preset == "" {
		preset = "probe"
	}
	cfg, err := config.GetPreset(preset)
	if err != nil {
		return nil, sim.Config{}, err
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	cfg.Duration = s.Duration()

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, sim.Config{}, err
	}

	at := 0.0
	for i, st := range s.Steps {
		ev := sim.Event{At: at, Engage: st.Engage, Params: st.Params}
		if st.Mode != nil {
			mode, err := st.Mode.Build()
			if err != nil {
				return nil, sim.Config{}, fmt.Errorf("step %d: %w", i+1, err)
			}
			ev.Mode = mode
		}
		if st.Stick != nil {
			stick := st.Stick.Stick()
			ev.Stick = &stick
		}
		simCfg.Timeline = append(simCfg.Timeline, ev)
		at += st.Duration
	}
	return cfg, simCfg, nil
}

// Run executes the scenario with the standard metric set.
func Run(ctx context.Context, s *Scenario, log logging.Logger, observers ...dynamo.Observer) (*sim.Result, error) {
	cfg, simCfg, err := s.Build()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	log.Info(ctx, "running scenario",
		logging.String("scenario", s.Name),
		logging.Int("steps", len(s.Steps)),
		logging.Float("duration", simCfg.Duration))

	sm, err := cfg.NewSimulator(log)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(sm.PlantMOI()) {
		sm.AddMetric(m)
	}
	for _, o := range observers {
		sm.AddObserver(o)
	}
	return sm.Run(ctx, simCfg)
}
