// Package observability exports live attitude telemetry as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/attsim/internal/dynamo"
)

var modes = []string{"nerfed", "locked", "stock"}

// Collector bundles per-vessel attitude gauges and counters. It implements
// dynamo.Observer so a simulator can feed it every tick; the underlying
// vectors are safe for concurrent vessels.
type Collector struct {
	gatherer prometheus.Gatherer

	Error      *prometheus.GaugeVec
	Command    *prometheus.GaugeVec
	Authority  *prometheus.GaugeVec
	Tf         *prometheus.GaugeVec
	WheelFill  *prometheus.GaugeVec
	Mode       *prometheus.GaugeVec
	ErrorAngle *prometheus.HistogramVec
	Resets     *prometheus.CounterVec
	Manual     *prometheus.CounterVec
}

// NewCollector registers attitude metrics against reg, defaulting to the
// global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	axisGauge := func(name, help string) (*prometheus.GaugeVec, error) {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"vessel", "axis"})
		return registerGaugeVec(reg, vec, name)
	}

	c := &Collector{gatherer: gatherer}
	var err error
	if c.Error, err = axisGauge("attitude_error_radians", "Per-axis attitude error fed to the controller."); err != nil {
		return nil, err
	}
	if c.Command, err = axisGauge("attitude_command", "Normalized per-axis actuator command in [-1, 1]."); err != nil {
		return nil, err
	}
	if c.Authority, err = axisGauge("attitude_authority", "Per-axis fraction of rated wheel torque allowed."); err != nil {
		return nil, err
	}
	if c.Tf, err = axisGauge("attitude_filter_time_constant_seconds", "Adaptive output filter time constant per axis."); err != nil {
		return nil, err
	}

	fill := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attitude_wheel_fill",
		Help: "Stored momentum of the fullest reaction wheel as a fraction of capacity.",
	}, []string{"vessel"})
	if c.WheelFill, err = registerGaugeVec(reg, fill, "attitude_wheel_fill"); err != nil {
		return nil, err
	}

	mode := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "attitude_authority_mode",
		Help: "1 for the authority mode the arbiter is in, 0 for the others.",
	}, []string{"vessel", "mode"})
	if c.Mode, err = registerGaugeVec(reg, mode, "attitude_authority_mode"); err != nil {
		return nil, err
	}

	angle := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attitude_error_angle_radians",
		Help:    "Distribution of the total attitude error angle.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 3.2},
	}, []string{"vessel"})
	if c.ErrorAngle, err = registerHistogramVec(reg, angle, "attitude_error_angle_radians"); err != nil {
		return nil, err
	}

	resets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attitude_target_resets_total",
		Help: "Controller history resets caused by target jumps.",
	}, []string{"vessel"})
	if c.Resets, err = registerCounterVec(reg, resets, "attitude_target_resets_total"); err != nil {
		return nil, err
	}

	manual := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attitude_manual_override_ticks_total",
		Help: "Ticks during which the pilot overrode at least one axis group.",
	}, []string{"vessel"})
	if c.Manual, err = registerCounterVec(reg, manual, "attitude_manual_override_ticks_total"); err != nil {
		return nil, err
	}

	return c, nil
}

// OnStep records one tick of telemetry for vessel.
func (c *Collector) OnStep(vessel string, s dynamo.Sample) {
	if c == nil {
		return
	}
	for i, axis := range dynamo.AxisNames {
		c.Error.WithLabelValues(vessel, axis).Set(s.Error[i])
		c.Command.WithLabelValues(vessel, axis).Set(s.Command[i])
		c.Authority.WithLabelValues(vessel, axis).Set(s.Authority[i])
		c.Tf.WithLabelValues(vessel, axis).Set(s.Tf[i])
	}
	c.WheelFill.WithLabelValues(vessel).Set(s.WheelFill)
	for _, m := range modes {
		v := 0.0
		if m == s.Mode {
			v = 1
		}
		c.Mode.WithLabelValues(vessel, m).Set(v)
	}
	if dynamo.IsFinite(s.ErrorAngle) {
		c.ErrorAngle.WithLabelValues(vessel).Observe(s.ErrorAngle)
	}
	if s.Reset {
		c.Resets.WithLabelValues(vessel).Inc()
	}
	if s.Manual {
		c.Manual.WithLabelValues(vessel).Inc()
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ dynamo.Observer = (*Collector)(nil)

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
