package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg, err := GetPreset(name)
			if err != nil {
				t.Fatalf("GetPreset: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
		})
	}
}

func TestGetPreset_Fresh(t *testing.T) {
	a, _ := GetPreset("probe")
	a.Vessel.MOI[0] = -1
	b, _ := GetPreset("probe")
	if b.Vessel.MOI[0] <= 0 {
		t.Error("presets share state between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	_, err := GetPreset("nonexistent")
	if !errors.Is(err, dynamo.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"lander", "probe", "station"}
	got := ListPresets()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("preset %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrInvalidTimestep},
		{"negative duration", func(c *Config) { c.Duration = -1 }, dynamo.ErrParameterBounds},
		{"unknown integrator", func(c *Config) { c.Integrator = "verlet" }, dynamo.ErrUnknownParam},
		{"unknown mode", func(c *Config) { c.Mode.Kind = "spin" }, dynamo.ErrUnknownParam},
		{"point without forward", func(c *Config) { c.Mode = ModeConfig{Kind: "point"} }, dynamo.ErrParameterBounds},
		{"bad controller", func(c *Config) { c.Controller.TfMax = 0 }, dynamo.ErrParameterBounds},
		{"no actuators", func(c *Config) { c.Vessel.Actuators = nil }, dynamo.ErrNoActuators},
		{"zero moi", func(c *Config) { c.Vessel.MOI = mgl64.Vec3{} }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_UnknownActuatorKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vessel.Actuators[0].Kind = "warp"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown actuator kind")
	}
}

func TestModeBuild(t *testing.T) {
	tests := []struct {
		mode ModeConfig
		want string
	}{
		{ModeConfig{}, "kill"},
		{ModeConfig{Kind: "kill"}, "kill"},
		{ModeConfig{Kind: "hold", Pitch: 10}, "hold"},
		{ModeConfig{Kind: "surface", Heading: 90}, "surface"},
		{ModeConfig{Kind: "point", Forward: mgl64.Vec3{1, 0, 0}}, "point"},
	}
	for _, tt := range tests {
		m, err := tt.mode.Build()
		if err != nil {
			t.Fatalf("%+v: %v", tt.mode, err)
		}
		if m.Name() != tt.want {
			t.Errorf("%+v: got %s, want %s", tt.mode, m.Name(), tt.want)
		}
	}

	m, _ := ModeConfig{Kind: "surface", Heading: 90, Pitch: 45}.Build()
	s := m.(attitude.Surface)
	if s.Heading != attitude.Radians(90) || s.Pitch != attitude.Radians(45) {
		t.Errorf("surface angles not converted to radians: %+v", s)
	}
}

func TestActuatorDescriptor(t *testing.T) {
	neg := mgl64.Vec3{1, 2, 3}
	d, err := ActuatorConfig{Name: "rcs", Kind: "rcs", Torque: dynamo.Splat(4), Negative: &neg, ResponseTime: 0.2}.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if d.Kind != actuator.Thruster || d.Negative != neg || d.Positive != dynamo.Splat(4) {
		t.Errorf("unexpected descriptor %+v", d)
	}

	d, _ = ActuatorConfig{Name: "rw", Kind: "wheel", Torque: dynamo.Splat(4)}.Descriptor()
	if d.Negative != d.Positive {
		t.Error("negative torque should default to positive")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attsim.yaml")
	cfg, _ := GetPreset("lander")
	cfg.Controller.KdFactor = 0.7

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Vessel.Name != "lander" || len(loaded.Vessel.Bodies) != 2 {
		t.Errorf("vessel not round-tripped: %+v", loaded.Vessel)
	}
	if loaded.Controller.KdFactor != 0.7 {
		t.Errorf("kd_factor = %g, want 0.7", loaded.Controller.KdFactor)
	}
	if loaded.Vessel.Actuators[1].Negative == nil {
		t.Error("negative torque lost on reload")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("duration: 5\ncontroller:\n  kd_factor: 0.8\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Duration != 5 || cfg.Controller.KdFactor != 0.8 {
		t.Errorf("overrides not applied: duration=%g kd=%g", cfg.Duration, cfg.Controller.KdFactor)
	}
	if cfg.Controller.KpFactor != DefaultConfig().Controller.KpFactor {
		t.Error("unset controller fields should keep defaults")
	}
}

func TestNewSimulator(t *testing.T) {
	cfg, _ := GetPreset("station")
	s, err := cfg.NewSimulator(nil)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if s.Core().Name() != "station" {
		t.Errorf("core name = %s", s.Core().Name())
	}
}
