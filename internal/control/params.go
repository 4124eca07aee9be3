package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/attsim/internal/dynamo"
)

// Params are the flat tunables of the adaptive PID.
type Params struct {
	KpFactor          float64 `yaml:"kp_factor"`
	KiFactor          float64 `yaml:"ki_factor"`
	KdFactor          float64 `yaml:"kd_factor"`
	Deadband          float64 `yaml:"deadband"`
	TfMin             float64 `yaml:"tf_min"`
	TfMax             float64 `yaml:"tf_max"`
	KWLimit           float64 `yaml:"kw_limit"`
	IntegralLimit     float64 `yaml:"integral_limit"`
	OutputMax         float64 `yaml:"output_max"`
	WindupRatio       float64 `yaml:"windup_ratio"`
	WindupDecay       float64 `yaml:"windup_decay"`
	OverrideTolerance float64 `yaml:"override_tolerance"`
	// TfAutotune retunes Tf from the torque/inertia ratio each tick; when
	// false the fixed Tf is used on every axis.
	TfAutotune bool    `yaml:"tf_autotune"`
	Tf         float64 `yaml:"tf"`
}

func DefaultParams() Params {
	return Params{
		KpFactor:          3,
		KiFactor:          6,
		KdFactor:          0.5,
		Deadband:          1e-4,
		TfMin:             0.1,
		TfMax:             0.5,
		KWLimit:           0.15,
		IntegralLimit:     5,
		OutputMax:         1,
		WindupRatio:       0.6,
		WindupDecay:       0.9,
		OverrideTolerance: 0.05,
		TfAutotune:        true,
		Tf:                0.3,
	}
}

func (p Params) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"kp_factor", p.KpFactor > 0},
		{"ki_factor", p.KiFactor > 0},
		{"kd_factor", p.KdFactor > 0},
		{"deadband", p.Deadband >= 0},
		{"tf_min", p.TfMin > 0},
		{"tf_max", p.TfMax >= p.TfMin},
		{"kw_limit", p.KWLimit > 0},
		{"integral_limit", p.IntegralLimit >= 0},
		{"output_max", p.OutputMax > 0 && p.OutputMax <= 1},
		{"windup_ratio", p.WindupRatio > 0 && p.WindupRatio <= 1},
		{"windup_decay", p.WindupDecay >= 0 && p.WindupDecay <= 1},
		{"override_tolerance", p.OverrideTolerance >= 0},
		{"tf", p.Tf > 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%s: %w", c.name, dynamo.ErrParameterBounds)
		}
	}
	for name, v := range p.GetParams() {
		if !dynamo.IsFinite(v) {
			return fmt.Errorf("%s is not finite: %w", name, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// GetParams returns every tunable keyed by its config name.
func (p *Params) GetParams() map[string]float64 {
	autotune := 0.0
	if p.TfAutotune {
		autotune = 1
	}
	return map[string]float64{
		"kp_factor":          p.KpFactor,
		"ki_factor":          p.KiFactor,
		"kd_factor":          p.KdFactor,
		"deadband":           p.Deadband,
		"tf_min":             p.TfMin,
		"tf_max":             p.TfMax,
		"kw_limit":           p.KWLimit,
		"integral_limit":     p.IntegralLimit,
		"output_max":         p.OutputMax,
		"windup_ratio":       p.WindupRatio,
		"windup_decay":       p.WindupDecay,
		"override_tolerance": p.OverrideTolerance,
		"tf_autotune":        autotune,
		"tf":                 p.Tf,
	}
}

// SetParam changes one tunable. The change is rejected, leaving p untouched,
// if the resulting set would not validate.
func (p *Params) SetParam(name string, value float64) error {
	next := *p
	switch name {
	case "kp_factor":
		next.KpFactor = value
	case "ki_factor":
		next.KiFactor = value
	case "kd_factor":
		next.KdFactor = value
	case "deadband":
		next.Deadband = value
	case "tf_min":
		next.TfMin = value
	case "tf_max":
		next.TfMax = value
	case "kw_limit":
		next.KWLimit = value
	case "integral_limit":
		next.IntegralLimit = value
	case "output_max":
		next.OutputMax = value
	case "windup_ratio":
		next.WindupRatio = value
	case "windup_decay":
		next.WindupDecay = value
	case "override_tolerance":
		next.OverrideTolerance = value
	case "tf_autotune":
		next.TfAutotune = value != 0
	case "tf":
		next.Tf = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// ParamKeys lists the tunable names in a stable order.
func ParamKeys() []string {
	p := DefaultParams()
	keys := make([]string, 0, 16)
	for k := range p.GetParams() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ dynamo.Configurable = (*Params)(nil)
