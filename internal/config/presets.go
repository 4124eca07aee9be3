package config

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// Presets build a fresh configuration per call so callers may mutate the result.
var Presets = map[string]func() *Config{
	"probe": func() *Config {
		cfg := DefaultConfig()
		cfg.Vessel = VesselConfig{
			Name: "probe",
			MOI:  mgl64.Vec3{40, 30, 40},
			Actuators: []ActuatorConfig{
				{Name: "rw", Kind: "reaction_wheel", Torque: dynamo.Splat(5)},
			},
			Attitude: Angles{Heading: 0, Pitch: 20},
		}
		cfg.Mode = ModeConfig{Kind: "hold"}
		return cfg
	},
	"station": func() *Config {
		cfg := DefaultConfig()
		cfg.Vessel = VesselConfig{
			Name: "station",
			MOI:  mgl64.Vec3{8e4, 2e4, 8e4},
			Actuators: []ActuatorConfig{
				{Name: "rw-core", Kind: "reaction_wheel", Torque: dynamo.Splat(300)},
				{Name: "rcs", Kind: "rcs", Torque: mgl64.Vec3{800, 600, 800}, ResponseTime: 0.2},
			},
			Rate: mgl64.Vec3{0.01, 0, -0.02},
		}
		cfg.Duration = 240
		cfg.Mode = ModeConfig{Kind: "kill"}
		return cfg
	},
	"lander": func() *Config {
		cfg := DefaultConfig()
		neg := mgl64.Vec3{12, 20, 15}
		cfg.Vessel = VesselConfig{
			Name: "lander",
			Bodies: []BodyConfig{
				{Name: "descent", Mass: 1200, Position: mgl64.Vec3{0, 0, -0.4}, Principal: mgl64.Vec3{900, 900, 1400}},
				{Name: "ascent", Mass: 600, Position: mgl64.Vec3{0, 0, 1.2}, Principal: mgl64.Vec3{300, 300, 350}},
			},
			Actuators: []ActuatorConfig{
				{Name: "rw", Kind: "reaction_wheel", Torque: dynamo.Splat(15)},
				{Name: "rcs", Kind: "thruster", Torque: mgl64.Vec3{15, 20, 15}, Negative: &neg, ResponseTime: 0.1},
				{Name: "engine", Kind: "gimbal", Torque: mgl64.Vec3{60, 0, 60}, ResponseTime: 0.8},
			},
			Attitude: Angles{Heading: 90, Pitch: 60},
		}
		cfg.Duration = 90
		cfg.Mode = ModeConfig{Kind: "surface", Heading: 90, Pitch: 90}
		return cfg
	},
}

func GetPreset(name string) (*Config, error) {
	build, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownPreset)
	}
	return build(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
