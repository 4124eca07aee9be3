package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/inertia"
	"github.com/san-kum/attsim/internal/integrators"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/observability"
	"github.com/san-kum/attsim/internal/sim"
	"github.com/san-kum/attsim/internal/vessel"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.02
	DefaultDuration = 60.0
)

type Config struct {
	Vessel     VesselConfig              `yaml:"vessel"`
	Integrator string                    `yaml:"integrator"`
	Dt         float64                   `yaml:"dt"`
	Duration   float64                   `yaml:"duration"`
	Mode       ModeConfig                `yaml:"mode"`
	Controller control.Params            `yaml:"controller"`
	Arbiter    control.ArbiterParams     `yaml:"arbiter"`
	Saturation actuator.SaturationParams `yaml:"saturation"`
	// Mask gates (pitch, roll, yaw) in the error resolver.
	Mask          mgl64.Vec3                  `yaml:"mask"`
	JumpThreshold float64                     `yaml:"jump_threshold"`
	Log           logging.Config              `yaml:"log"`
	MetricsAddr   string                      `yaml:"metrics_addr"`
	Tracing       observability.TracingConfig `yaml:"tracing"`
}

type VesselConfig struct {
	Name      string           `yaml:"name"`
	MOI       mgl64.Vec3       `yaml:"moi"`
	Bodies    []BodyConfig     `yaml:"bodies,omitempty"`
	Actuators []ActuatorConfig `yaml:"actuators"`
	// Initial attitude in degrees and body rate in rad/s.
	Attitude Angles     `yaml:"attitude"`
	Rate     mgl64.Vec3 `yaml:"rate"`
}

// Angles are heading, pitch and roll in degrees.
type Angles struct {
	Heading float64 `yaml:"heading"`
	Pitch   float64 `yaml:"pitch"`
	Roll    float64 `yaml:"roll"`
}

func (a Angles) Quat() mgl64.Quat {
	return attitude.Euler(attitude.Radians(a.Heading), attitude.Radians(a.Pitch), attitude.Radians(a.Roll))
}

type BodyConfig struct {
	Name      string     `yaml:"name"`
	Mass      float64    `yaml:"mass"`
	Position  mgl64.Vec3 `yaml:"position"`
	Rotation  Angles     `yaml:"rotation"`
	Principal mgl64.Vec3 `yaml:"principal"`
}

type ActuatorConfig struct {
	Name   string     `yaml:"name"`
	Kind   string     `yaml:"kind"`
	Torque mgl64.Vec3 `yaml:"torque"`
	// Negative defaults to Torque when omitted.
	Negative     *mgl64.Vec3 `yaml:"negative,omitempty"`
	ResponseTime float64     `yaml:"response_time"`
}

func (a ActuatorConfig) Descriptor() (actuator.Descriptor, error) {
	kind, err := actuator.ParseKind(a.Kind)
	if err != nil {
		return actuator.Descriptor{}, fmt.Errorf("actuator %q: %w", a.Name, err)
	}
	neg := a.Torque
	if a.Negative != nil {
		neg = *a.Negative
	}
	return actuator.Descriptor{
		Name:         a.Name,
		Kind:         kind,
		Positive:     a.Torque,
		Negative:     neg,
		ResponseTime: a.ResponseTime,
	}, nil
}

// ModeConfig selects an attitude mode by name. Angles are degrees.
type ModeConfig struct {
	Kind    string     `yaml:"kind"`
	Heading float64    `yaml:"heading,omitempty"`
	Pitch   float64    `yaml:"pitch,omitempty"`
	Roll    float64    `yaml:"roll,omitempty"`
	Forward mgl64.Vec3 `yaml:"forward,omitempty"`
	Up      mgl64.Vec3 `yaml:"up,omitempty"`
}

func (m ModeConfig) Build() (attitude.Mode, error) {
	angles := Angles{Heading: m.Heading, Pitch: m.Pitch, Roll: m.Roll}
	switch m.Kind {
	case "", "kill":
		return attitude.KillRotation{}, nil
	case "hold":
		return attitude.Hold{Orientation: angles.Quat()}, nil
	case "surface":
		return attitude.Surface{
			Heading: attitude.Radians(m.Heading),
			Pitch:   attitude.Radians(m.Pitch),
			Roll:    attitude.Radians(m.Roll),
		}, nil
	case "point":
		if m.Forward.Len() == 0 {
			return nil, fmt.Errorf("point mode needs a forward vector: %w", dynamo.ErrParameterBounds)
		}
		return attitude.Point{Forward: m.Forward, Up: m.Up}, nil
	}
	return nil, fmt.Errorf("unknown mode %q: %w", m.Kind, dynamo.ErrUnknownParam)
}

func DefaultConfig() *Config {
	return &Config{
		Vessel: VesselConfig{
			Name: "probe",
			MOI:  mgl64.Vec3{100, 100, 100},
			Actuators: []ActuatorConfig{
				{Name: "rw", Kind: "reaction_wheel", Torque: dynamo.Splat(20)},
			},
		},
		Integrator:    "rk4",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		Mode:          ModeConfig{Kind: "kill"},
		Controller:    control.DefaultParams(),
		Arbiter:       control.DefaultArbiterParams(),
		Saturation:    actuator.DefaultSaturationParams(),
		Mask:          dynamo.Splat(1),
		JumpThreshold: attitude.DefaultJumpThreshold,
		Log:           logging.Config{Level: "info", Format: "text"},
		Tracing:       observability.DefaultTracingConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if !dynamo.IsFinite(c.Dt) || c.Dt <= 0 {
		return fmt.Errorf("dt=%g: %w", c.Dt, dynamo.ErrInvalidTimestep)
	}
	if !dynamo.IsFinite(c.Duration) || c.Duration <= 0 {
		return fmt.Errorf("duration=%g: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if !slices.Contains(integrators.Names(), c.Integrator) {
		return fmt.Errorf("integrator %q: %w", c.Integrator, dynamo.ErrUnknownParam)
	}
	if _, err := c.Mode.Build(); err != nil {
		return err
	}
	if err := c.CoreConfig().Validate(); err != nil {
		return err
	}
	v, err := c.SimVessel()
	if err != nil {
		return err
	}
	return v.Validate()
}

// CoreConfig is the per-vessel controller configuration.
func (c *Config) CoreConfig() vessel.Config {
	return vessel.Config{
		Name:          c.Vessel.Name,
		Controller:    c.Controller,
		Arbiter:       c.Arbiter,
		Saturation:    c.Saturation,
		Mask:          c.Mask,
		JumpThreshold: c.JumpThreshold,
	}
}

func (c *Config) SimVessel() (sim.Vessel, error) {
	v := sim.Vessel{
		Name:        c.Vessel.Name,
		MOI:         c.Vessel.MOI,
		Orientation: c.Vessel.Attitude.Quat(),
		Rate:        c.Vessel.Rate,
	}
	for _, a := range c.Vessel.Actuators {
		d, err := a.Descriptor()
		if err != nil {
			return sim.Vessel{}, err
		}
		v.Actuators = append(v.Actuators, d)
	}
	for _, b := range c.Vessel.Bodies {
		v.Bodies = append(v.Bodies, inertia.SubBody{
			Name:      b.Name,
			Mass:      b.Mass,
			Position:  b.Position,
			Rotation:  b.Rotation.Quat(),
			Principal: b.Principal,
		})
	}
	return v, nil
}

func (c *Config) SimConfig() (sim.Config, error) {
	mode, err := c.Mode.Build()
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Mode:          mode,
		ValidateState: true,
	}, nil
}

// NewSimulator wires a ready-to-run simulator for this configuration.
func (c *Config) NewSimulator(log logging.Logger) (*sim.Simulator, error) {
	v, err := c.SimVessel()
	if err != nil {
		return nil, err
	}
	core, err := vessel.New(c.CoreConfig(), log)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(c.Integrator)
	if err != nil {
		return nil, err
	}
	return sim.New(v, core, integ, log)
}
